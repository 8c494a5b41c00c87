package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

func newPricer(f *fixture, maxAdvanceDays int) *pricing.StayPricer {
	return &pricing.StayPricer{Evaluator: f.evaluator, MaxAdvanceDays: maxAdvanceDays}
}

func stayRange(t *testing.T, checkIn, checkOut time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}

func TestStayPricerWeekendScenario(t *testing.T) {
	f := newFixture(t)
	f.addMatrix(t, 5000, date(2026, 1, 1), date(2026, 12, 31))
	f.rules.Put(rates.AdjustmentRule{
		ID:   "r-weekend",
		Name: "Weekend",
		Kind: rates.KindMultiplier,
		Factors: map[rates.PlanType]decimal.Decimal{
			rates.PlanEP: decimal.RequireFromString("1.2"),
		},
		Condition: rates.RuleCondition{
			DaysOfWeek: []time.Weekday{time.Friday, time.Saturday},
		},
		Priority: 10,
		Active:   true,
	})

	// 2026-01-01 is a Thursday: nights are Thu, Fri, Sat.
	quote, err := newPricer(f, 0).Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2026, 1, 1), date(2026, 1, 4)),
		BookingDate: date(2025, 12, 20),
	})
	require.NoError(t, err)

	require.Equal(t, 3, quote.Nights)
	require.Len(t, quote.Breakdown, 3)
	assert.Equal(t, "5000", quote.Breakdown[0].Price.Amount.String())
	assert.Equal(t, "6000", quote.Breakdown[1].Price.Amount.String())
	assert.Equal(t, "6000", quote.Breakdown[2].Price.Amount.String())
	assert.Equal(t, "17000", quote.Total.Amount.String())
	assert.Equal(t, "INR", quote.Total.Currency)

	assert.Empty(t, quote.Breakdown[0].Adjustments, "Thursday night has no weekend adjustment")
	require.Len(t, quote.Breakdown[1].Adjustments, 1)
	assert.Equal(t, "Weekend", quote.Breakdown[1].Adjustments[0].RuleName)
	assert.Equal(t, "1000", quote.Breakdown[1].Adjustments[0].Delta.Amount.String())
}

func TestStayPricerInvalidRange(t *testing.T) {
	f := newFixture(t)
	pricer := newPricer(f, 0)

	_, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:   testKey,
		Range: daterange.DateRange{CheckIn: date(2026, 6, 10), CheckOut: date(2026, 6, 10)},
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidDateRange)

	_, err = pricer.Price(context.Background(), pricing.StayInput{
		Key:   testKey,
		Range: daterange.DateRange{CheckIn: date(2026, 6, 12), CheckOut: date(2026, 6, 10)},
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidDateRange)
}

func TestStayPricerMaxAdvanceWindow(t *testing.T) {
	f := newFixture(t)
	f.addMatrix(t, 5000, date(2026, 1, 1), date(2027, 12, 31))
	pricer := newPricer(f, 540)

	bookingDate := date(2026, 1, 1)

	_, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2027, 8, 1), date(2027, 8, 3)),
		BookingDate: bookingDate,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidDateRange, "check-in 577 days out exceeds the 540-day window")

	_, err = pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2027, 6, 1), date(2027, 6, 3)),
		BookingDate: bookingDate,
	})
	assert.NoError(t, err)
}

func TestStayPricerAdditivity(t *testing.T) {
	f := newFixture(t)
	f.addMatrix(t, 5000, date(2026, 1, 1), date(2026, 12, 31))
	f.rules.Put(rates.AdjustmentRule{
		ID:   "r-weekend",
		Name: "Weekend",
		Kind: rates.KindMultiplier,
		Factors: map[rates.PlanType]decimal.Decimal{
			rates.PlanEP: decimal.RequireFromString("1.15"),
		},
		Condition: rates.RuleCondition{
			DaysOfWeek: []time.Weekday{time.Friday, time.Saturday},
		},
		Priority: 10,
		Active:   true,
	})
	pricer := newPricer(f, 0)

	stay := stayRange(t, date(2026, 1, 1), date(2026, 1, 4))
	quote, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stay,
		BookingDate: date(2025, 12, 20),
	})
	require.NoError(t, err)

	// Per-night prices are rounded before summation; the total must equal
	// the sum of the independently resolved nights.
	sum := decimal.Zero
	for i := 0; i < stay.Nights(); i++ {
		night, err := f.evaluator.ResolveNight(context.Background(), pricing.NightInput{
			Key:         testKey,
			Night:       stay.Night(i),
			CheckIn:     stay.CheckIn,
			BookingDate: date(2025, 12, 20),
		})
		require.NoError(t, err)
		sum = sum.Add(night.Price.Amount)
	}
	assert.True(t, quote.Total.Amount.Equal(sum), "total %s != sum of nights %s", quote.Total.Amount, sum)
}

func TestStayPricerBreakdownCalendarOrder(t *testing.T) {
	f := newFixture(t)
	f.addMatrix(t, 5000, date(2026, 1, 1), date(2026, 12, 31))
	pricer := newPricer(f, 0)

	quote, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2026, 3, 1), date(2026, 3, 11)),
		BookingDate: date(2026, 2, 1),
	})
	require.NoError(t, err)
	require.Len(t, quote.Breakdown, 10)
	for i, np := range quote.Breakdown {
		assert.Equal(t, date(2026, 3, 1+i), np.Night, "breakdown must be in calendar order")
	}
}

func TestStayPricerLastMinuteAppliesToAllNights(t *testing.T) {
	f := newFixture(t)
	f.addMatrix(t, 1000, date(2026, 1, 1), date(2026, 12, 31))
	f.rules.Put(rates.AdjustmentRule{
		ID:   "r-lastminute",
		Name: "Last minute",
		Kind: rates.KindPercentage,
		Factors: map[rates.PlanType]decimal.Decimal{
			rates.PlanEP: decimal.NewFromInt(-10),
		},
		Condition: rates.RuleCondition{MaxDaysBeforeCheckIn: intPtr(3)},
		Priority:  10,
		Active:    true,
	})
	pricer := newPricer(f, 0)

	// Booked 2 days before a 5-night stay: the discount anchors on the
	// check-in date, so every night gets it, including nights far beyond
	// the threshold.
	quote, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2026, 6, 10), date(2026, 6, 15)),
		BookingDate: date(2026, 6, 8),
	})
	require.NoError(t, err)
	for _, np := range quote.Breakdown {
		assert.Equal(t, "900", np.Price.Amount.String(), "night %s", np.Night.Format("2006-01-02"))
	}
	assert.Equal(t, "4500", quote.Total.Amount.String())
}

func TestStayPricerNoConfigurationFails(t *testing.T) {
	f := newFixture(t)
	pricer := newPricer(f, 0)

	_, err := pricer.Price(context.Background(), pricing.StayInput{
		Key:         testKey,
		Range:       stayRange(t, date(2026, 6, 10), date(2026, 6, 12)),
		BookingDate: date(2026, 6, 1),
	})
	assert.ErrorIs(t, err, pricing.ErrNoPriceConfigured)
}
