package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// QuoteBasis labels what a listing quote was computed from. Listing quotes
// are raw matrix scans: no overrides, no rule stack. Callers needing a
// bookable price must go through the StayPricer.
const QuoteBasis = "matrix_only"

// QuoteGroup is the price range one (category, plan, occupancy) tuple spans
// across the window.
type QuoteGroup struct {
	RoomCategory  rates.RoomCategory
	PlanType      rates.PlanType
	OccupancyType rates.OccupancyType
	Lowest        money.Money
	Highest       money.Money
}

// ListingQuote is the approximate "from X per night" answer for a property
// and stay window before a specific tuple is chosen.
type ListingQuote struct {
	PropertyID string
	Range      daterange.DateRange
	Groups     []QuoteGroup
	// LowestOverall / HighestOverall span all groups, each carrying the
	// currency of the entry it came from.
	LowestOverall  money.Money
	HighestOverall money.Money
}

// QuoteService enumerates matrix entries intersecting a window and reports
// per-tuple price ranges. It never runs the evaluator per candidate night; a
// multi-month window would make that combinatorial.
type QuoteService struct {
	Matrix       rates.MatrixStore
	Logger       *slog.Logger
	StoreTimeout time.Duration
}

// WindowQuote computes the listing quote for the property and stay window.
func (s *QuoteService) WindowQuote(ctx context.Context, propertyID string, stay daterange.DateRange, filter rates.QuoteFilter) (ListingQuote, error) {
	if err := stay.Validate(); err != nil {
		return ListingQuote{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}

	readCtx := ctx
	if s.StoreTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.StoreTimeout)
		defer cancel()
	}
	entries, err := s.Matrix.EntriesInWindow(readCtx, propertyID, stay, filter)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("matrix window scan failed", "property_id", propertyID, "error", err)
		}
		return ListingQuote{}, fmt.Errorf("rate matrix store: %v: %w", err, ErrStoreUnavailable)
	}
	if len(entries) == 0 {
		return ListingQuote{}, fmt.Errorf("%w: property=%s window=%s..%s",
			ErrNoPriceConfigured, propertyID, stay.CheckIn.Format("2006-01-02"), stay.CheckOut.Format("2006-01-02"))
	}

	groups := make(map[rateTuple]*QuoteGroup)
	for _, entry := range entries {
		t := rateTuple{entry.Key.RoomCategory, entry.Key.PlanType, entry.Key.OccupancyType}
		g, ok := groups[t]
		if !ok {
			groups[t] = &QuoteGroup{
				RoomCategory:  t.category,
				PlanType:      t.plan,
				OccupancyType: t.occupancy,
				Lowest:        entry.Nightly,
				Highest:       entry.Nightly,
			}
			continue
		}
		if entry.Nightly.Currency == g.Lowest.Currency && entry.Nightly.LessThan(g.Lowest) {
			g.Lowest = entry.Nightly
		}
		if entry.Nightly.Currency == g.Highest.Currency && g.Highest.LessThan(entry.Nightly) {
			g.Highest = entry.Nightly
		}
	}

	quote := ListingQuote{PropertyID: propertyID, Range: stay}
	for _, g := range groups {
		quote.Groups = append(quote.Groups, *g)
	}
	sort.Slice(quote.Groups, func(i, j int) bool {
		a, b := quote.Groups[i], quote.Groups[j]
		if a.RoomCategory != b.RoomCategory {
			return a.RoomCategory < b.RoomCategory
		}
		if a.PlanType != b.PlanType {
			return a.PlanType < b.PlanType
		}
		return a.OccupancyType < b.OccupancyType
	})

	quote.LowestOverall = quote.Groups[0].Lowest
	quote.HighestOverall = quote.Groups[0].Highest
	for _, g := range quote.Groups[1:] {
		if g.Lowest.Currency == quote.LowestOverall.Currency && g.Lowest.LessThan(quote.LowestOverall) {
			quote.LowestOverall = g.Lowest
		}
		if g.Highest.Currency == quote.HighestOverall.Currency && quote.HighestOverall.LessThan(g.Highest) {
			quote.HighestOverall = g.Highest
		}
	}
	return quote, nil
}

type rateTuple struct {
	category  rates.RoomCategory
	plan      rates.PlanType
	occupancy rates.OccupancyType
}
