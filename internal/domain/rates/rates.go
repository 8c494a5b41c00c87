// Package rates holds the administrator-authored pricing configuration: the
// base rate matrix, explicit date-ranged overrides and the conditional
// adjustment rules. The engine only ever reads these; creation and
// deactivation belong to the admin collaborator.
package rates

import (
	"errors"
	"fmt"
	"time"

	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

var (
	ErrInvalidWindow    = errors.New("rates: window start must not be after end")
	ErrNegativePrice    = errors.New("rates: nightly price cannot be negative")
	ErrUnknownPlan      = errors.New("rates: unknown plan type")
	ErrUnknownOccupancy = errors.New("rates: unknown occupancy type")
)

// PlanType is a closed rate-plan enumeration agreed with the catalog
// subsystem: room only, breakfast, half board, full board.
type PlanType string

const (
	PlanEP  PlanType = "EP"
	PlanCP  PlanType = "CP"
	PlanMAP PlanType = "MAP"
	PlanAP  PlanType = "AP"
)

func ParsePlanType(raw string) (PlanType, error) {
	switch PlanType(raw) {
	case PlanEP, PlanCP, PlanMAP, PlanAP:
		return PlanType(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlan, raw)
}

// OccupancyType is the guest-count tier used as part of the pricing key.
type OccupancyType string

const (
	OccupancySingle OccupancyType = "single"
	OccupancyDouble OccupancyType = "double"
	OccupancyTriple OccupancyType = "triple"
	OccupancyQuad   OccupancyType = "quad"
)

func ParseOccupancyType(raw string) (OccupancyType, error) {
	switch OccupancyType(raw) {
	case OccupancySingle, OccupancyDouble, OccupancyTriple, OccupancyQuad:
		return OccupancyType(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOccupancy, raw)
}

// RoomCategory is catalog-owned and opaque to the engine.
type RoomCategory string

// RateKey identifies the full pricing tuple a nightly price is resolved for.
type RateKey struct {
	PropertyID    string
	RoomCategory  RoomCategory
	PlanType      PlanType
	OccupancyType OccupancyType
}

// Window is an inclusive [start, end] validity range over calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: daterange.Day(start), End: daterange.Day(end)}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() || w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether the night falls inside the inclusive window.
func (w Window) Contains(night time.Time) bool {
	night = daterange.Day(night)
	return !night.Before(w.Start) && !night.After(w.End)
}

// Intersects reports whether any night of the half-open stay falls inside the
// window.
func (w Window) Intersects(stay daterange.DateRange) bool {
	return w.Start.Before(stay.CheckOut) && !w.End.Before(stay.CheckIn)
}

// RateMatrixEntry is a base nightly price for a tuple over a validity window.
// Several entries may cover the same tuple and night (regular vs. peak
// windows); the evaluator resolves the overlap.
type RateMatrixEntry struct {
	ID        string
	Key       RateKey
	Window    Window
	Nightly   money.Money
	Season    string
	Active    bool
	CreatedAt time.Time
}

func (e RateMatrixEntry) Validate() error {
	if err := e.Window.Validate(); err != nil {
		return err
	}
	if e.Nightly.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// OverrideEntry pins an explicit nightly price for a tuple over a window,
// bypassing the matrix and the rule stack entirely.
type OverrideEntry struct {
	ID        string
	Key       RateKey
	Window    Window
	Nightly   money.Money
	Reason    string
	Active    bool
	CreatedAt time.Time
}

func (e OverrideEntry) Validate() error {
	if err := e.Window.Validate(); err != nil {
		return err
	}
	if e.Nightly.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
