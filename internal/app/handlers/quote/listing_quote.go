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

const listingQuoteKey = "quote.listing"

type ListingQuoteQuery struct {
	PropertyID    string
	CheckIn       time.Time
	CheckOut      time.Time
	RoomCategory  string
	PlanType      string
	OccupancyType string
}

func (q ListingQuoteQuery) Key() string { return listingQuoteKey }

type ListingQuoteHandler struct {
	Quotes       *pricing.QuoteService
	Logger       *slog.Logger
	RetryBackoff time.Duration
}

func (h *ListingQuoteHandler) Handle(ctx context.Context, q ListingQuoteQuery) (dto.ListingQuote, error) {
	var zero dto.ListingQuote
	if strings.TrimSpace(q.PropertyID) == "" {
		return zero, ErrMissingProperty
	}
	filter := rates.QuoteFilter{RoomCategory: rates.RoomCategory(q.RoomCategory)}
	if q.PlanType != "" {
		plan, err := rates.ParsePlanType(q.PlanType)
		if err != nil {
			return zero, err
		}
		filter.PlanType = plan
	}
	if q.OccupancyType != "" {
		occupancy, err := rates.ParseOccupancyType(q.OccupancyType)
		if err != nil {
			return zero, err
		}
		filter.OccupancyType = occupancy
	}
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return zero, pricing.ErrInvalidDateRange
	}

	result, err := h.Quotes.WindowQuote(ctx, q.PropertyID, stay, filter)
	if errors.Is(err, pricing.ErrStoreUnavailable) {
		if h.Logger != nil {
			h.Logger.Warn("listing quote store failure, retrying once", "property_id", q.PropertyID, "error", err)
		}
		if err = sleepCtx(ctx, h.RetryBackoff); err != nil {
			return zero, err
		}
		result, err = h.Quotes.WindowQuote(ctx, q.PropertyID, stay, filter)
	}
	if err != nil {
		return zero, err
	}
	return dto.MapListingQuote(result), nil
}

var _ queries.Handler[ListingQuoteQuery, dto.ListingQuote] = (*ListingQuoteHandler)(nil)
