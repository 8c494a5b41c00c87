package rates

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestRuleConditionMatches(t *testing.T) {
	window, err := NewWindow(date(2026, 12, 20), date(2027, 1, 5))
	require.NoError(t, err)

	// 2026-12-25 is a Friday.
	night := date(2026, 12, 25)
	checkIn := date(2026, 12, 24)

	tests := []struct {
		name        string
		cond        RuleCondition
		bookingDate time.Time
		want        bool
	}{
		{
			name: "empty condition always matches",
			cond: RuleCondition{},
			want: true,
		},
		{
			name: "weekday match",
			cond: RuleCondition{DaysOfWeek: []time.Weekday{time.Friday, time.Saturday}},
			want: true,
		},
		{
			name: "weekday miss",
			cond: RuleCondition{DaysOfWeek: []time.Weekday{time.Monday}},
			want: false,
		},
		{
			name: "window match",
			cond: RuleCondition{Window: &window},
			want: true,
		},
		{
			name: "last minute within threshold",
			cond: RuleCondition{MaxDaysBeforeCheckIn: intPtr(3)},
			// booked 2 days before check-in
			bookingDate: date(2026, 12, 22),
			want:        true,
		},
		{
			name:        "last minute outside threshold",
			cond:        RuleCondition{MaxDaysBeforeCheckIn: intPtr(3)},
			bookingDate: date(2026, 12, 10),
			want:        false,
		},
		{
			name: "all declared fields must hold",
			cond: RuleCondition{
				DaysOfWeek:           []time.Weekday{time.Friday},
				Window:               &window,
				MaxDaysBeforeCheckIn: intPtr(3),
			},
			bookingDate: date(2026, 12, 10),
			want:        false,
		},
		{
			name: "all declared fields hold together",
			cond: RuleCondition{
				DaysOfWeek:           []time.Weekday{time.Friday},
				Window:               &window,
				MaxDaysBeforeCheckIn: intPtr(3),
			},
			bookingDate: date(2026, 12, 23),
			want:        true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := tt.bookingDate
			if bd.IsZero() {
				bd = date(2026, 12, 1)
			}
			assert.Equal(t, tt.want, tt.cond.Matches(night, checkIn, bd))
		})
	}
}

func TestLastMinuteAnchorsOnCheckIn(t *testing.T) {
	cond := RuleCondition{MaxDaysBeforeCheckIn: intPtr(2)}
	checkIn := date(2026, 6, 10)
	bookingDate := date(2026, 6, 9)

	// The fifth night is far past the threshold relative to the booking
	// date, but the anchor is the stay's check-in, so the rule still fires.
	assert.True(t, cond.Matches(date(2026, 6, 14), checkIn, bookingDate))
}

func TestRuleApply(t *testing.T) {
	amount := decimal.NewFromInt(1000)
	tests := []struct {
		name string
		rule AdjustmentRule
		want string
		ok   bool
	}{
		{
			name: "multiplier",
			rule: AdjustmentRule{Kind: KindMultiplier, Factors: factors("EP", "1.2")},
			want: "1200",
			ok:   true,
		},
		{
			name: "percentage surcharge",
			rule: AdjustmentRule{Kind: KindPercentage, Factors: factors("EP", "10")},
			want: "1100",
			ok:   true,
		},
		{
			name: "percentage discount",
			rule: AdjustmentRule{Kind: KindPercentage, Factors: factors("EP", "-25")},
			want: "750",
			ok:   true,
		},
		{
			name: "fixed amount",
			rule: AdjustmentRule{Kind: KindFixedAmount, Factors: factors("EP", "-500")},
			want: "500",
			ok:   true,
		},
		{
			name: "plan without factor is skipped",
			rule: AdjustmentRule{Kind: KindMultiplier, Factors: factors("CP", "1.2")},
			want: "1000",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := tt.rule.Apply(amount, PlanEP)
			assert.Equal(t, tt.ok, applied)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAppliesToPropertyScope(t *testing.T) {
	scope := RuleScope{
		PropertyID:  "prop-1",
		PlanType:    PlanEP,
		Night:       date(2026, 6, 10),
		CheckIn:     date(2026, 6, 10),
		BookingDate: date(2026, 6, 1),
	}

	global := AdjustmentRule{Active: true}
	assert.True(t, global.AppliesTo(scope))

	owned := AdjustmentRule{Active: true, PropertyID: "prop-1"}
	assert.True(t, owned.AppliesTo(scope))

	foreign := AdjustmentRule{Active: true, PropertyID: "prop-2"}
	assert.False(t, foreign.AppliesTo(scope))

	inactive := AdjustmentRule{Active: false}
	assert.False(t, inactive.AppliesTo(scope))
}

func TestSortRulesDeterminism(t *testing.T) {
	rules := []AdjustmentRule{
		{ID: "c", Name: "low", Priority: 5, Seq: 3},
		{ID: "a", Name: "tie-second", Priority: 10, Seq: 2},
		{ID: "b", Name: "tie-first", Priority: 10, Seq: 1},
		{ID: "d", Name: "top", Priority: 20, Seq: 4},
	}
	SortRules(rules)

	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"top", "tie-first", "tie-second", "low"}, names)
}

func TestWindowContains(t *testing.T) {
	w, err := NewWindow(date(2026, 4, 1), date(2026, 4, 30))
	require.NoError(t, err)
	assert.True(t, w.Contains(date(2026, 4, 1)))
	assert.True(t, w.Contains(date(2026, 4, 30)), "window end is inclusive")
	assert.False(t, w.Contains(date(2026, 5, 1)))

	_, err = NewWindow(date(2026, 5, 1), date(2026, 4, 1))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func factors(plan, value string) map[PlanType]decimal.Decimal {
	return map[PlanType]decimal.Decimal{
		PlanType(plan): decimal.RequireFromString(value),
	}
}
