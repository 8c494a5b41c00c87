package rates

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stayrates/internal/domain/shared/daterange"
)

// RuleKind selects how an adjustment factor is applied to a price.
type RuleKind string

const (
	KindMultiplier  RuleKind = "multiplier"
	KindPercentage  RuleKind = "percentage"
	KindFixedAmount RuleKind = "fixed_amount"
)

var hundred = decimal.NewFromInt(100)

// RuleCondition gates a rule to specific nights. All declared fields must be
// satisfied for the rule to fire (AND semantics); an empty condition always
// matches.
type RuleCondition struct {
	// DaysOfWeek restricts the rule to nights falling on these weekdays.
	DaysOfWeek []time.Weekday
	// Window restricts the rule to nights inside an absolute date range.
	Window *Window
	// MaxDaysBeforeCheckIn marks a last-minute rule: it fires when the stay's
	// check-in is at most N days after the booking date. The anchor is the
	// check-in date for every night of the stay, not the night itself.
	MaxDaysBeforeCheckIn *int
}

// Matches evaluates the condition for one night of a stay.
func (c RuleCondition) Matches(night, checkIn, bookingDate time.Time) bool {
	night = daterange.Day(night)
	if len(c.DaysOfWeek) > 0 && !weekdayIn(night.Weekday(), c.DaysOfWeek) {
		return false
	}
	if c.Window != nil && !c.Window.Contains(night) {
		return false
	}
	if c.MaxDaysBeforeCheckIn != nil {
		anchor := daterange.Day(checkIn)
		if anchor.IsZero() {
			anchor = night
		}
		days := int(anchor.Sub(daterange.Day(bookingDate)).Hours() / 24)
		if days < 0 || days > *c.MaxDaysBeforeCheckIn {
			return false
		}
	}
	return true
}

func weekdayIn(d time.Weekday, set []time.Weekday) bool {
	for _, w := range set {
		if w == d {
			return true
		}
	}
	return false
}

// AdjustmentRule scales or shifts a resolved base price. Rules without a
// PropertyID are global defaults that apply to every property.
type AdjustmentRule struct {
	ID         string
	PropertyID string
	Name       string
	Kind       RuleKind
	// Factors carries one adjustment value per plan type. A plan absent from
	// the map means the rule does not adjust that plan.
	Factors   map[PlanType]decimal.Decimal
	Condition RuleCondition
	Priority  int
	Active    bool
	CreatedAt time.Time
	// Seq is the insertion sequence assigned by the store; it is the stable
	// tie-break between rules of equal priority.
	Seq int64
}

// Factor returns the adjustment value configured for the plan, if any.
func (r AdjustmentRule) Factor(plan PlanType) (decimal.Decimal, bool) {
	f, ok := r.Factors[plan]
	return f, ok
}

// Apply computes the adjusted amount for the plan. The second return is false
// when the rule has no factor for the plan, in which case the amount is
// returned unchanged.
func (r AdjustmentRule) Apply(amount decimal.Decimal, plan PlanType) (decimal.Decimal, bool) {
	f, ok := r.Factors[plan]
	if !ok {
		return amount, false
	}
	switch r.Kind {
	case KindMultiplier:
		return amount.Mul(f), true
	case KindPercentage:
		return amount.Mul(decimal.NewFromInt(1).Add(f.Div(hundred))), true
	case KindFixedAmount:
		return amount.Add(f), true
	}
	return amount, false
}

// RuleScope carries everything needed to decide whether a rule fires for one
// night of a stay.
type RuleScope struct {
	PropertyID  string
	PlanType    PlanType
	Night       time.Time
	CheckIn     time.Time
	BookingDate time.Time
}

// AppliesTo reports whether the rule is active, in scope for the property and
// satisfied for the night.
func (r AdjustmentRule) AppliesTo(scope RuleScope) bool {
	if !r.Active {
		return false
	}
	if r.PropertyID != "" && r.PropertyID != scope.PropertyID {
		return false
	}
	return r.Condition.Matches(scope.Night, scope.CheckIn, scope.BookingDate)
}

// FilterApplicable keeps the rules that fire for the scope. Both store
// backends funnel through this so condition semantics cannot drift.
func FilterApplicable(rules []AdjustmentRule, scope RuleScope) []AdjustmentRule {
	out := make([]AdjustmentRule, 0, len(rules))
	for _, r := range rules {
		if r.AppliesTo(scope) {
			out = append(out, r)
		}
	}
	return out
}

// SortRules orders rules by priority descending, then insertion sequence,
// then ID. The secondary keys make equal-priority ordering deterministic
// instead of leaning on backend iteration order.
func SortRules(rules []AdjustmentRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if rules[i].Seq != rules[j].Seq {
			return rules[i].Seq < rules[j].Seq
		}
		return rules[i].ID < rules[j].ID
	})
}
