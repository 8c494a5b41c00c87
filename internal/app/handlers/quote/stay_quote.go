// Package quote exposes the engine's two read operations as query handlers:
// the exact per-night stay quote and the approximate listing quote.
package quote

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

const stayQuoteKey = "quote.stay"

var ErrMissingProperty = errors.New("quote: property id is required")

type StayQuoteQuery struct {
	PropertyID    string
	RoomCategory  string
	PlanType      string
	OccupancyType string
	CheckIn       time.Time
	CheckOut      time.Time
	BookingDate   time.Time
}

func (q StayQuoteQuery) Key() string { return stayQuoteKey }

type StayQuoteHandler struct {
	Pricer *pricing.StayPricer
	Logger *slog.Logger
	// RetryBackoff is the pause before the single retry on a store failure.
	// The engine itself never retries; the quote request fails fatally when
	// the retry fails too.
	RetryBackoff time.Duration
}

func (h *StayQuoteHandler) Handle(ctx context.Context, q StayQuoteQuery) (dto.StayQuote, error) {
	var zero dto.StayQuote
	if strings.TrimSpace(q.PropertyID) == "" {
		return zero, ErrMissingProperty
	}
	plan, err := rates.ParsePlanType(q.PlanType)
	if err != nil {
		return zero, err
	}
	occupancy, err := rates.ParseOccupancyType(q.OccupancyType)
	if err != nil {
		return zero, err
	}
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return zero, pricing.ErrInvalidDateRange
	}

	input := pricing.StayInput{
		Key: rates.RateKey{
			PropertyID:    q.PropertyID,
			RoomCategory:  rates.RoomCategory(q.RoomCategory),
			PlanType:      plan,
			OccupancyType: occupancy,
		},
		Range:       stay,
		BookingDate: q.BookingDate,
	}

	result, err := h.Pricer.Price(ctx, input)
	if errors.Is(err, pricing.ErrStoreUnavailable) {
		if h.Logger != nil {
			h.Logger.Warn("stay quote store failure, retrying once", "property_id", q.PropertyID, "error", err)
		}
		if err = sleepCtx(ctx, h.RetryBackoff); err != nil {
			return zero, err
		}
		result, err = h.Pricer.Price(ctx, input)
	}
	if err != nil {
		return zero, err
	}
	return dto.MapStayQuote(result), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ queries.Handler[StayQuoteQuery, dto.StayQuote] = (*StayQuoteHandler)(nil)
