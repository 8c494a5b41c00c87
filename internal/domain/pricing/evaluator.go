// Package pricing implements the resolution engine: override-or-matrix base
// price resolution, the prioritized adjustment rule stack, stay aggregation
// and the approximate listing quote. Everything here is a pure computation
// over store reads; nothing is persisted.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

var (
	// ErrNoPriceConfigured means neither a matrix entry nor an override
	// covers the requested tuple and night. A configuration gap, never a
	// zero price.
	ErrNoPriceConfigured = errors.New("pricing: no price configured")
	// ErrInvalidDateRange covers empty or inverted stays and check-ins beyond
	// the advance booking window.
	ErrInvalidDateRange = errors.New("pricing: invalid date range")
	// ErrStoreUnavailable means a store read failed or timed out. The engine
	// never retries; the caller may, once.
	ErrStoreUnavailable = errors.New("pricing: store unavailable")
)

// PriceSource records where a nightly price came from.
type PriceSource string

const (
	SourceOverride PriceSource = "override"
	SourceMatrix   PriceSource = "matrix"
)

// AppliedAdjustment is one audit-trail step of the rule stack.
type AppliedAdjustment struct {
	RuleName string
	Kind     rates.RuleKind
	Delta    money.Money
}

// NightPrice is the resolved price for a single night with its audit trail.
type NightPrice struct {
	Night          time.Time
	Price          money.Money
	Source         PriceSource
	OverrideReason string
	Adjustments    []AppliedAdjustment
}

// NightInput identifies one night to resolve. CheckIn anchors last-minute
// rule conditions and defaults to the night itself; BookingDate defaults to
// today.
type NightInput struct {
	Key         rates.RateKey
	Night       time.Time
	CheckIn     time.Time
	BookingDate time.Time
}

// NightEvaluator resolves a single night against the three stores.
type NightEvaluator struct {
	Matrix    rates.MatrixStore
	Overrides rates.OverrideStore
	Rules     rates.RuleStore
	Alerts    WarningSink
	Logger    *slog.Logger
	// StoreTimeout bounds each individual store read. Zero disables the
	// per-read deadline and leaves only the request deadline.
	StoreTimeout time.Duration
}

// ResolveNight produces the final nightly price and audit trail.
//
// An active override is absolute and terminal: its price is returned verbatim
// (rounded to minor units) and the rule stack never runs. Otherwise the
// cheapest active matrix entry for the night is the base price, the
// applicable rules are applied sequentially in priority order, the result is
// clamped at zero and rounded half-up.
func (e *NightEvaluator) ResolveNight(ctx context.Context, in NightInput) (NightPrice, error) {
	night := daterange.Day(in.Night)
	checkIn := in.CheckIn
	if checkIn.IsZero() {
		checkIn = night
	}
	bookingDate := in.BookingDate
	if bookingDate.IsZero() {
		bookingDate = time.Now()
	}
	scope := rates.RuleScope{
		PropertyID:  in.Key.PropertyID,
		PlanType:    in.Key.PlanType,
		Night:       night,
		CheckIn:     daterange.Day(checkIn),
		BookingDate: daterange.Day(bookingDate),
	}

	// The three reads are independent; fetch them concurrently under the
	// store timeout.
	var (
		override *rates.OverrideEntry
		entries  []rates.RateMatrixEntry
		ruleSet  []rates.AdjustmentRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.read(gctx, "override store", func(c context.Context) error {
			var err error
			override, err = e.Overrides.OverrideForNight(c, in.Key, night)
			return err
		})
	})
	g.Go(func() error {
		return e.read(gctx, "rate matrix store", func(c context.Context) error {
			var err error
			entries, err = e.Matrix.EntriesForNight(c, in.Key, night)
			return err
		})
	})
	g.Go(func() error {
		return e.read(gctx, "rule store", func(c context.Context) error {
			var err error
			ruleSet, err = e.Rules.ApplicableRules(c, scope)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return NightPrice{}, err
	}

	if override != nil {
		return NightPrice{
			Night:          night,
			Price:          override.Nightly.RoundMinor(),
			Source:         SourceOverride,
			OverrideReason: override.Reason,
		}, nil
	}

	base, err := e.resolveBase(ctx, in.Key, night, entries)
	if err != nil {
		return NightPrice{}, err
	}

	price := base
	adjustments := make([]AppliedAdjustment, 0, len(ruleSet))
	for _, rule := range ruleSet {
		next, applied := rule.Apply(price.Amount, in.Key.PlanType)
		if !applied {
			continue
		}
		adjustments = append(adjustments, AppliedAdjustment{
			RuleName: rule.Name,
			Kind:     rule.Kind,
			Delta:    price.WithAmount(next.Sub(price.Amount)),
		})
		price = price.WithAmount(next)
	}

	if clamped, did := price.ClampZero(); did {
		e.warn(ctx, ConfigWarning{
			Kind:          WarnNegativeClamp,
			PropertyID:    in.Key.PropertyID,
			RoomCategory:  in.Key.RoomCategory,
			PlanType:      in.Key.PlanType,
			OccupancyType: in.Key.OccupancyType,
			Night:         night,
			Detail:        fmt.Sprintf("rule stack drove price to %s, clamped to zero", price),
		})
		price = clamped
	}

	return NightPrice{
		Night:       night,
		Price:       price.RoundMinor(),
		Source:      SourceMatrix,
		Adjustments: adjustments,
	}, nil
}

// resolveBase picks the cheapest active entry when several windows overlap
// the night, so a forgotten peak window never raises the quoted price.
func (e *NightEvaluator) resolveBase(ctx context.Context, key rates.RateKey, night time.Time, entries []rates.RateMatrixEntry) (money.Money, error) {
	if len(entries) == 0 {
		return money.Money{}, fmt.Errorf("%w: property=%s category=%s plan=%s occupancy=%s night=%s",
			ErrNoPriceConfigured, key.PropertyID, key.RoomCategory, key.PlanType, key.OccupancyType, night.Format("2006-01-02"))
	}
	lowest := entries[0]
	for _, entry := range entries[1:] {
		if entry.Nightly.Currency == lowest.Nightly.Currency && entry.Nightly.LessThan(lowest.Nightly) {
			lowest = entry
		}
	}
	if len(entries) > 1 {
		e.warn(ctx, ConfigWarning{
			Kind:          WarnMatrixOverlap,
			PropertyID:    key.PropertyID,
			RoomCategory:  key.RoomCategory,
			PlanType:      key.PlanType,
			OccupancyType: key.OccupancyType,
			Night:         night,
			Detail:        fmt.Sprintf("%d active matrix entries overlap, lowest price %s selected", len(entries), lowest.Nightly),
		})
	}
	return lowest.Nightly, nil
}

func (e *NightEvaluator) read(ctx context.Context, op string, fn func(context.Context) error) error {
	if e.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.StoreTimeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		if e.Logger != nil {
			e.Logger.Error("store read failed", "op", op, "error", err)
		}
		return fmt.Errorf("%s: %v: %w", op, err, ErrStoreUnavailable)
	}
	return nil
}

func (e *NightEvaluator) warn(ctx context.Context, w ConfigWarning) {
	if e.Alerts != nil {
		e.Alerts.Warn(ctx, w)
	}
}
