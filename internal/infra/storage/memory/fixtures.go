package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/money"
)

const fixtureDateLayout = "2006-01-02"

// Fixtures is the JSON seed format for local demos.
type Fixtures struct {
	Matrix    []matrixFixture   `json:"matrix"`
	Overrides []overrideFixture `json:"overrides"`
	Rules     []ruleFixture     `json:"rules"`
}

type matrixFixture struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	RoomCategory  string `json:"room_category"`
	PlanType      string `json:"plan_type"`
	OccupancyType string `json:"occupancy_type"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Nightly       string `json:"nightly"`
	Currency      string `json:"currency"`
	Season        string `json:"season"`
	Active        *bool  `json:"active"`
}

type overrideFixture struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	RoomCategory  string `json:"room_category"`
	PlanType      string `json:"plan_type"`
	OccupancyType string `json:"occupancy_type"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Nightly       string `json:"nightly"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
	Active        *bool  `json:"active"`
}

type ruleFixture struct {
	ID                   string            `json:"id"`
	PropertyID           string            `json:"property_id"`
	Name                 string            `json:"name"`
	Kind                 string            `json:"kind"`
	Factors              map[string]string `json:"factors"`
	DaysOfWeek           []string          `json:"days_of_week"`
	WindowStart          string            `json:"window_start"`
	WindowEnd            string            `json:"window_end"`
	MaxDaysBeforeCheckIn *int              `json:"max_days_before_checkin"`
	Priority             int               `json:"priority"`
	Active               *bool             `json:"active"`
}

// LoadFixtures seeds the in-memory stores from a JSON file.
func LoadFixtures(path string, matrix *RateMatrixStore, overrides *OverrideStore, ruleStore *RuleStore, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fx Fixtures
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}

	now := time.Now().UTC()
	for i, f := range fx.Matrix {
		entry, err := f.toEntry(now)
		if err != nil {
			return fmt.Errorf("matrix fixture %d: %w", i, err)
		}
		if err := matrix.Put(entry); err != nil {
			return fmt.Errorf("matrix fixture %d: %w", i, err)
		}
	}
	for i, f := range fx.Overrides {
		entry, err := f.toEntry(now)
		if err != nil {
			return fmt.Errorf("override fixture %d: %w", i, err)
		}
		if err := overrides.Put(entry); err != nil {
			return fmt.Errorf("override fixture %d: %w", i, err)
		}
	}
	for i, f := range fx.Rules {
		rule, err := f.toRule(now)
		if err != nil {
			return fmt.Errorf("rule fixture %d: %w", i, err)
		}
		ruleStore.Put(rule)
	}

	if logger != nil {
		logger.Info("rate fixtures loaded",
			"path", path,
			"matrix", len(fx.Matrix),
			"overrides", len(fx.Overrides),
			"rules", len(fx.Rules),
		)
	}
	return nil
}

func (f matrixFixture) toEntry(now time.Time) (rates.RateMatrixEntry, error) {
	key, err := fixtureKey(f.PropertyID, f.RoomCategory, f.PlanType, f.OccupancyType)
	if err != nil {
		return rates.RateMatrixEntry{}, err
	}
	window, err := fixtureWindow(f.Start, f.End)
	if err != nil {
		return rates.RateMatrixEntry{}, err
	}
	nightly, err := fixtureMoney(f.Nightly, f.Currency)
	if err != nil {
		return rates.RateMatrixEntry{}, err
	}
	return rates.RateMatrixEntry{
		ID:        fixtureID(f.ID),
		Key:       key,
		Window:    window,
		Nightly:   nightly,
		Season:    f.Season,
		Active:    f.Active == nil || *f.Active,
		CreatedAt: now,
	}, nil
}

func (f overrideFixture) toEntry(now time.Time) (rates.OverrideEntry, error) {
	key, err := fixtureKey(f.PropertyID, f.RoomCategory, f.PlanType, f.OccupancyType)
	if err != nil {
		return rates.OverrideEntry{}, err
	}
	window, err := fixtureWindow(f.Start, f.End)
	if err != nil {
		return rates.OverrideEntry{}, err
	}
	nightly, err := fixtureMoney(f.Nightly, f.Currency)
	if err != nil {
		return rates.OverrideEntry{}, err
	}
	return rates.OverrideEntry{
		ID:        fixtureID(f.ID),
		Key:       key,
		Window:    window,
		Nightly:   nightly,
		Reason:    f.Reason,
		Active:    f.Active == nil || *f.Active,
		CreatedAt: now,
	}, nil
}

func (f ruleFixture) toRule(now time.Time) (rates.AdjustmentRule, error) {
	factors := make(map[rates.PlanType]decimal.Decimal, len(f.Factors))
	for plan, raw := range f.Factors {
		p, err := rates.ParsePlanType(plan)
		if err != nil {
			return rates.AdjustmentRule{}, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return rates.AdjustmentRule{}, fmt.Errorf("factor %s: %w", plan, err)
		}
		factors[p] = d
	}

	var cond rates.RuleCondition
	for _, name := range f.DaysOfWeek {
		wd, err := parseWeekday(name)
		if err != nil {
			return rates.AdjustmentRule{}, err
		}
		cond.DaysOfWeek = append(cond.DaysOfWeek, wd)
	}
	if f.WindowStart != "" || f.WindowEnd != "" {
		window, err := fixtureWindow(f.WindowStart, f.WindowEnd)
		if err != nil {
			return rates.AdjustmentRule{}, err
		}
		cond.Window = &window
	}
	cond.MaxDaysBeforeCheckIn = f.MaxDaysBeforeCheckIn

	switch rates.RuleKind(f.Kind) {
	case rates.KindMultiplier, rates.KindPercentage, rates.KindFixedAmount:
	default:
		return rates.AdjustmentRule{}, fmt.Errorf("unknown rule kind %q", f.Kind)
	}

	return rates.AdjustmentRule{
		ID:         fixtureID(f.ID),
		PropertyID: f.PropertyID,
		Name:       f.Name,
		Kind:       rates.RuleKind(f.Kind),
		Factors:    factors,
		Condition:  cond,
		Priority:   f.Priority,
		Active:     f.Active == nil || *f.Active,
		CreatedAt:  now,
	}, nil
}

func fixtureKey(propertyID, category, plan, occupancy string) (rates.RateKey, error) {
	p, err := rates.ParsePlanType(plan)
	if err != nil {
		return rates.RateKey{}, err
	}
	o, err := rates.ParseOccupancyType(occupancy)
	if err != nil {
		return rates.RateKey{}, err
	}
	return rates.RateKey{
		PropertyID:    propertyID,
		RoomCategory:  rates.RoomCategory(category),
		PlanType:      p,
		OccupancyType: o,
	}, nil
}

func fixtureWindow(start, end string) (rates.Window, error) {
	s, err := time.Parse(fixtureDateLayout, start)
	if err != nil {
		return rates.Window{}, fmt.Errorf("start date: %w", err)
	}
	e, err := time.Parse(fixtureDateLayout, end)
	if err != nil {
		return rates.Window{}, fmt.Errorf("end date: %w", err)
	}
	return rates.NewWindow(s, e)
}

func fixtureMoney(amount, currency string) (money.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return money.Money{}, fmt.Errorf("nightly amount: %w", err)
	}
	return money.New(d, currency)
}

func fixtureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func parseWeekday(name string) (time.Weekday, error) {
	switch name {
	case "Sun", "Sunday":
		return time.Sunday, nil
	case "Mon", "Monday":
		return time.Monday, nil
	case "Tue", "Tuesday":
		return time.Tuesday, nil
	case "Wed", "Wednesday":
		return time.Wednesday, nil
	case "Thu", "Thursday":
		return time.Thursday, nil
	case "Fri", "Friday":
		return time.Friday, nil
	case "Sat", "Saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
