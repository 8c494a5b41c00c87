package pricing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// StayInput identifies a fully specified stay to price.
type StayInput struct {
	Key rates.RateKey
	// Range is the half-open stay interval [checkIn, checkOut).
	Range daterange.DateRange
	// BookingDate anchors last-minute conditions; defaults to today. The
	// same anchor applies to every night of the stay.
	BookingDate time.Time
}

// StayQuote is the bookable result: per-night breakdown plus total. Nightly
// prices are rounded individually before summation so the total matches a
// guest-facing nightly receipt.
type StayQuote struct {
	Key       rates.RateKey
	Range     daterange.DateRange
	Nights    int
	Total     money.Money
	Breakdown []NightPrice
}

// StayPricer walks every night of a stay through the evaluator.
type StayPricer struct {
	Evaluator *NightEvaluator
	// MaxAdvanceDays rejects check-ins further out than the booking
	// subsystem allows. Zero disables the check.
	MaxAdvanceDays int
}

// Price resolves every night of the stay. Nights are evaluated concurrently;
// the breakdown is assembled in calendar order regardless of completion
// order.
func (p *StayPricer) Price(ctx context.Context, in StayInput) (StayQuote, error) {
	if err := in.Range.Validate(); err != nil {
		return StayQuote{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	nights := in.Range.Nights()
	if nights <= 0 {
		return StayQuote{}, fmt.Errorf("%w: stay has no nights", ErrInvalidDateRange)
	}
	bookingDate := in.BookingDate
	if bookingDate.IsZero() {
		bookingDate = time.Now()
	}
	bookingDate = daterange.Day(bookingDate)
	if p.MaxAdvanceDays > 0 {
		horizon := bookingDate.AddDate(0, 0, p.MaxAdvanceDays)
		if in.Range.CheckIn.After(horizon) {
			return StayQuote{}, fmt.Errorf("%w: check-in %s is beyond the %d-day advance window",
				ErrInvalidDateRange, in.Range.CheckIn.Format("2006-01-02"), p.MaxAdvanceDays)
		}
	}

	breakdown := make([]NightPrice, nights)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < nights; i++ {
		g.Go(func() error {
			np, err := p.Evaluator.ResolveNight(gctx, NightInput{
				Key:         in.Key,
				Night:       in.Range.Night(i),
				CheckIn:     in.Range.CheckIn,
				BookingDate: bookingDate,
			})
			if err != nil {
				return err
			}
			breakdown[i] = np
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StayQuote{}, err
	}

	total := breakdown[0].Price
	for _, np := range breakdown[1:] {
		sum, err := total.Add(np.Price)
		if err != nil {
			return StayQuote{}, fmt.Errorf("pricing: mixed currencies within stay: %w", err)
		}
		total = sum
	}

	return StayQuote{
		Key:       in.Key,
		Range:     in.Range,
		Nights:    nights,
		Total:     total,
		Breakdown: breakdown,
	}, nil
}
