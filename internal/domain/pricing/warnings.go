package pricing

import (
	"context"
	"log/slog"
	"time"

	"stayrates/internal/domain/rates"
)

// WarningKind classifies a non-fatal configuration problem detected while
// resolving a price.
type WarningKind string

const (
	// WarnMatrixOverlap fires when more than one active matrix entry covers
	// the same tuple and night.
	WarnMatrixOverlap WarningKind = "matrix_overlap"
	// WarnNegativeClamp fires when the rule stack drives a price below zero
	// before clamping.
	WarnNegativeClamp WarningKind = "negative_clamp"
)

// ConfigWarning points an operator at the configuration rows that need
// fixing. The clamp or disambiguation already happened; nothing here is an
// error to the guest-facing caller.
type ConfigWarning struct {
	Kind          WarningKind         `json:"kind"`
	PropertyID    string              `json:"property_id"`
	RoomCategory  rates.RoomCategory  `json:"room_category,omitempty"`
	PlanType      rates.PlanType      `json:"plan_type,omitempty"`
	OccupancyType rates.OccupancyType `json:"occupancy_type,omitempty"`
	Night         time.Time           `json:"night"`
	RuleName      string              `json:"rule_name,omitempty"`
	Detail        string              `json:"detail"`
}

// WarningSink receives configuration warnings. Sinks must not block the
// resolution path on delivery failures.
type WarningSink interface {
	Warn(ctx context.Context, w ConfigWarning)
}

// LoggerSink writes warnings to the structured log.
type LoggerSink struct {
	Logger *slog.Logger
}

func (s LoggerSink) Warn(ctx context.Context, w ConfigWarning) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn("pricing configuration warning",
		"kind", string(w.Kind),
		"property_id", w.PropertyID,
		"room_category", string(w.RoomCategory),
		"plan_type", string(w.PlanType),
		"occupancy_type", string(w.OccupancyType),
		"night", w.Night.Format("2006-01-02"),
		"rule", w.RuleName,
		"detail", w.Detail,
	)
}

type multiSink []WarningSink

func (m multiSink) Warn(ctx context.Context, w ConfigWarning) {
	for _, s := range m {
		if s != nil {
			s.Warn(ctx, w)
		}
	}
}

// MultiSink fans a warning out to every sink.
func MultiSink(sinks ...WarningSink) WarningSink {
	return multiSink(sinks)
}
