package rates

import (
	"context"
	"time"

	"stayrates/internal/domain/shared/daterange"
)

// QuoteFilter narrows a window scan to parts of the pricing tuple. Zero
// values mean "any".
type QuoteFilter struct {
	RoomCategory  RoomCategory
	PlanType      PlanType
	OccupancyType OccupancyType
}

// Match reports whether an entry passes the filter.
func (f QuoteFilter) Match(e RateMatrixEntry) bool {
	if f.RoomCategory != "" && e.Key.RoomCategory != f.RoomCategory {
		return false
	}
	if f.PlanType != "" && e.Key.PlanType != f.PlanType {
		return false
	}
	if f.OccupancyType != "" && e.Key.OccupancyType != f.OccupancyType {
		return false
	}
	return true
}

// MatrixStore reads base nightly prices. Implementations return only active
// entries and never mutate anything.
type MatrixStore interface {
	// EntriesForNight returns every active entry whose window contains the
	// night for the exact tuple.
	EntriesForNight(ctx context.Context, key RateKey, night time.Time) ([]RateMatrixEntry, error)
	// EntriesInWindow returns every active entry of the property whose window
	// intersects the stay, honoring the filter.
	EntriesInWindow(ctx context.Context, propertyID string, stay daterange.DateRange, filter QuoteFilter) ([]RateMatrixEntry, error)
}

// OverrideStore reads explicit nightly price overrides.
type OverrideStore interface {
	// OverrideForNight returns the active override covering the night, or nil
	// when none exists.
	OverrideForNight(ctx context.Context, key RateKey, night time.Time) (*OverrideEntry, error)
}

// RuleStore reads adjustment rules.
type RuleStore interface {
	// ApplicableRules returns the active global and property rules whose
	// conditions are satisfied for the scope, sorted by priority descending
	// with a stable insertion-order tie-break.
	ApplicableRules(ctx context.Context, scope RuleScope) ([]AdjustmentRule, error)
}
