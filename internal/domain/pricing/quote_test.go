package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/money"
	"stayrates/internal/infra/storage/memory"
)

func seedEntry(t *testing.T, store *memory.RateMatrixStore, key rates.RateKey, amount int64, start, end time.Time, active bool) {
	t.Helper()
	window, err := rates.NewWindow(start, end)
	require.NoError(t, err)
	require.NoError(t, store.Put(rates.RateMatrixEntry{
		ID:      uuid.NewString(),
		Key:     key,
		Window:  window,
		Nightly: money.MustInt(amount, "INR"),
		Active:  active,
	}))
}

func TestWindowQuoteGroupsAndRanges(t *testing.T) {
	matrix := memory.NewRateMatrixStore()
	deluxeEP := testKey
	deluxeCP := rates.RateKey{PropertyID: "prop-1", RoomCategory: "DELUXE", PlanType: rates.PlanCP, OccupancyType: rates.OccupancyDouble}

	seedEntry(t, matrix, deluxeEP, 5000, date(2026, 1, 1), date(2026, 12, 31), true)
	seedEntry(t, matrix, deluxeEP, 4500, date(2026, 6, 1), date(2026, 6, 30), true)
	seedEntry(t, matrix, deluxeCP, 6500, date(2026, 1, 1), date(2026, 12, 31), true)
	// inactive entries never count
	seedEntry(t, matrix, deluxeEP, 100, date(2026, 1, 1), date(2026, 12, 31), false)
	// windows outside the stay never count
	seedEntry(t, matrix, deluxeEP, 200, date(2026, 9, 1), date(2026, 9, 30), true)

	svc := &pricing.QuoteService{Matrix: matrix}
	stay := stayRange(t, date(2026, 6, 10), date(2026, 6, 13))

	quote, err := svc.WindowQuote(context.Background(), "prop-1", stay, rates.QuoteFilter{})
	require.NoError(t, err)

	require.Len(t, quote.Groups, 2)
	assert.Equal(t, rates.PlanCP, quote.Groups[0].PlanType, "groups sorted by tuple")
	assert.Equal(t, rates.PlanEP, quote.Groups[1].PlanType)

	ep := quote.Groups[1]
	assert.Equal(t, "4500", ep.Lowest.Amount.String())
	assert.Equal(t, "5000", ep.Highest.Amount.String())

	assert.Equal(t, "4500", quote.LowestOverall.Amount.String())
	assert.Equal(t, "6500", quote.HighestOverall.Amount.String())
}

func TestWindowQuoteIgnoresRules(t *testing.T) {
	matrix := memory.NewRateMatrixStore()
	seedEntry(t, matrix, testKey, 4500, date(2026, 1, 1), date(2026, 12, 31), true)

	rules := memory.NewRuleStore()
	rules.Put(rates.AdjustmentRule{
		ID:   "r-1",
		Name: "Triple everything",
		Kind: rates.KindMultiplier,
		Factors: map[rates.PlanType]decimal.Decimal{
			rates.PlanEP: decimal.NewFromInt(3),
		},
		Priority: 10,
		Active:   true,
	})

	// The rule store is not even wired into the quote service: listing
	// quotes are raw matrix figures, documented as such.
	svc := &pricing.QuoteService{Matrix: matrix}
	quote, err := svc.WindowQuote(context.Background(), "prop-1", stayRange(t, date(2026, 6, 10), date(2026, 6, 13)), rates.QuoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, "4500", quote.LowestOverall.Amount.String())
}

func TestWindowQuoteHonorsFilters(t *testing.T) {
	matrix := memory.NewRateMatrixStore()
	deluxeEP := testKey
	suiteEP := rates.RateKey{PropertyID: "prop-1", RoomCategory: "SUITE", PlanType: rates.PlanEP, OccupancyType: rates.OccupancyDouble}
	seedEntry(t, matrix, deluxeEP, 5000, date(2026, 1, 1), date(2026, 12, 31), true)
	seedEntry(t, matrix, suiteEP, 9000, date(2026, 1, 1), date(2026, 12, 31), true)

	svc := &pricing.QuoteService{Matrix: matrix}
	quote, err := svc.WindowQuote(context.Background(), "prop-1",
		stayRange(t, date(2026, 6, 10), date(2026, 6, 13)),
		rates.QuoteFilter{RoomCategory: "SUITE"},
	)
	require.NoError(t, err)
	require.Len(t, quote.Groups, 1)
	assert.Equal(t, rates.RoomCategory("SUITE"), quote.Groups[0].RoomCategory)
	assert.Equal(t, "9000", quote.LowestOverall.Amount.String())
}

func TestWindowQuoteEmpty(t *testing.T) {
	svc := &pricing.QuoteService{Matrix: memory.NewRateMatrixStore()}
	_, err := svc.WindowQuote(context.Background(), "prop-1", stayRange(t, date(2026, 6, 10), date(2026, 6, 13)), rates.QuoteFilter{})
	assert.ErrorIs(t, err, pricing.ErrNoPriceConfigured)
}

func TestWindowQuoteStoreUnavailable(t *testing.T) {
	svc := &pricing.QuoteService{Matrix: failingMatrix{}}
	_, err := svc.WindowQuote(context.Background(), "prop-1", stayRange(t, date(2026, 6, 10), date(2026, 6, 13)), rates.QuoteFilter{})
	assert.ErrorIs(t, err, pricing.ErrStoreUnavailable)
}
