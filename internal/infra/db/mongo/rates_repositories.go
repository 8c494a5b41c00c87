package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// MatrixRepository reads base rate entries from the rate_matrix collection.
type MatrixRepository struct {
	col *mongo.Collection
}

func NewMatrixRepository(db *mongo.Database) *MatrixRepository {
	return &MatrixRepository{col: db.Collection("rate_matrix")}
}

func (r *MatrixRepository) EntriesForNight(ctx context.Context, key rates.RateKey, night time.Time) ([]rates.RateMatrixEntry, error) {
	ms := daterange.Day(night).UnixMilli()
	filter := bson.M{
		"property_id":    key.PropertyID,
		"room_category":  string(key.RoomCategory),
		"plan_type":      string(key.PlanType),
		"occupancy_type": string(key.OccupancyType),
		"active":         true,
		"window.start":   bson.M{"$lte": ms},
		"window.end":     bson.M{"$gte": ms},
	}
	return r.find(ctx, filter)
}

func (r *MatrixRepository) EntriesInWindow(ctx context.Context, propertyID string, stay daterange.DateRange, f rates.QuoteFilter) ([]rates.RateMatrixEntry, error) {
	filter := bson.M{
		"property_id":  propertyID,
		"active":       true,
		"window.start": bson.M{"$lt": stay.CheckOut.UnixMilli()},
		"window.end":   bson.M{"$gte": stay.CheckIn.UnixMilli()},
	}
	if f.RoomCategory != "" {
		filter["room_category"] = string(f.RoomCategory)
	}
	if f.PlanType != "" {
		filter["plan_type"] = string(f.PlanType)
	}
	if f.OccupancyType != "" {
		filter["occupancy_type"] = string(f.OccupancyType)
	}
	return r.find(ctx, filter)
}

func (r *MatrixRepository) find(ctx context.Context, filter bson.M) ([]rates.RateMatrixEntry, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []rates.RateMatrixEntry
	for cursor.Next(ctx) {
		var doc matrixDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, cursor.Err()
}

// OverrideRepository reads explicit overrides from the rate_overrides
// collection. When several active overrides cover a night the newest wins.
type OverrideRepository struct {
	col *mongo.Collection
}

func NewOverrideRepository(db *mongo.Database) *OverrideRepository {
	return &OverrideRepository{col: db.Collection("rate_overrides")}
}

func (r *OverrideRepository) OverrideForNight(ctx context.Context, key rates.RateKey, night time.Time) (*rates.OverrideEntry, error) {
	ms := daterange.Day(night).UnixMilli()
	filter := bson.M{
		"property_id":    key.PropertyID,
		"room_category":  string(key.RoomCategory),
		"plan_type":      string(key.PlanType),
		"occupancy_type": string(key.OccupancyType),
		"active":         true,
		"window.start":   bson.M{"$lte": ms},
		"window.end":     bson.M{"$gte": ms},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc overrideDocument
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	entry, err := doc.toEntity()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RuleRepository reads adjustment rules from the adjustment_rules collection.
// Condition matching and the priority sort run in the domain helpers so both
// store backends share one policy.
type RuleRepository struct {
	col *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{col: db.Collection("adjustment_rules")}
}

func (r *RuleRepository) ApplicableRules(ctx context.Context, scope rates.RuleScope) ([]rates.AdjustmentRule, error) {
	filter := bson.M{
		"active": true,
		"$or": []bson.M{
			{"property_id": ""},
			{"property_id": scope.PropertyID},
		},
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var all []rates.AdjustmentRule
	for cursor.Next(ctx) {
		var doc ruleDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		rule, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		all = append(all, rule)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	applicable := rates.FilterApplicable(all, scope)
	rates.SortRules(applicable)
	return applicable, nil
}

type windowDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func (d windowDocument) toEntity() rates.Window {
	return rates.Window{Start: timestampToTime(d.Start), End: timestampToTime(d.End)}
}

type matrixDocument struct {
	ID            string         `bson:"_id"`
	PropertyID    string         `bson:"property_id"`
	RoomCategory  string         `bson:"room_category"`
	PlanType      string         `bson:"plan_type"`
	OccupancyType string         `bson:"occupancy_type"`
	Window        windowDocument `bson:"window"`
	Nightly       string         `bson:"nightly"`
	Currency      string         `bson:"currency"`
	Season        string         `bson:"season"`
	Active        bool           `bson:"active"`
	CreatedAt     int64          `bson:"created_at"`
}

func (d matrixDocument) toEntity() (rates.RateMatrixEntry, error) {
	nightly, err := documentMoney(d.Nightly, d.Currency)
	if err != nil {
		return rates.RateMatrixEntry{}, fmt.Errorf("matrix entry %s: %w", d.ID, err)
	}
	return rates.RateMatrixEntry{
		ID: d.ID,
		Key: rates.RateKey{
			PropertyID:    d.PropertyID,
			RoomCategory:  rates.RoomCategory(d.RoomCategory),
			PlanType:      rates.PlanType(d.PlanType),
			OccupancyType: rates.OccupancyType(d.OccupancyType),
		},
		Window:    d.Window.toEntity(),
		Nightly:   nightly,
		Season:    d.Season,
		Active:    d.Active,
		CreatedAt: timestampToTime(d.CreatedAt),
	}, nil
}

type overrideDocument struct {
	ID            string         `bson:"_id"`
	PropertyID    string         `bson:"property_id"`
	RoomCategory  string         `bson:"room_category"`
	PlanType      string         `bson:"plan_type"`
	OccupancyType string         `bson:"occupancy_type"`
	Window        windowDocument `bson:"window"`
	Nightly       string         `bson:"nightly"`
	Currency      string         `bson:"currency"`
	Reason        string         `bson:"reason"`
	Active        bool           `bson:"active"`
	CreatedAt     int64          `bson:"created_at"`
}

func (d overrideDocument) toEntity() (rates.OverrideEntry, error) {
	nightly, err := documentMoney(d.Nightly, d.Currency)
	if err != nil {
		return rates.OverrideEntry{}, fmt.Errorf("override %s: %w", d.ID, err)
	}
	return rates.OverrideEntry{
		ID: d.ID,
		Key: rates.RateKey{
			PropertyID:    d.PropertyID,
			RoomCategory:  rates.RoomCategory(d.RoomCategory),
			PlanType:      rates.PlanType(d.PlanType),
			OccupancyType: rates.OccupancyType(d.OccupancyType),
		},
		Window:    d.Window.toEntity(),
		Nightly:   nightly,
		Reason:    d.Reason,
		Active:    d.Active,
		CreatedAt: timestampToTime(d.CreatedAt),
	}, nil
}

type ruleDocument struct {
	ID                   string            `bson:"_id"`
	PropertyID           string            `bson:"property_id"`
	Name                 string            `bson:"name"`
	Kind                 string            `bson:"kind"`
	Factors              map[string]string `bson:"factors"`
	DaysOfWeek           []int             `bson:"days_of_week,omitempty"`
	Window               *windowDocument   `bson:"window,omitempty"`
	MaxDaysBeforeCheckIn *int              `bson:"max_days_before_checkin,omitempty"`
	Priority             int               `bson:"priority"`
	Active               bool              `bson:"active"`
	CreatedAt            int64             `bson:"created_at"`
	Seq                  int64             `bson:"seq"`
}

func (d ruleDocument) toEntity() (rates.AdjustmentRule, error) {
	factors := make(map[rates.PlanType]decimal.Decimal, len(d.Factors))
	for plan, raw := range d.Factors {
		f, err := decimal.NewFromString(raw)
		if err != nil {
			return rates.AdjustmentRule{}, fmt.Errorf("rule %s factor %s: %w", d.ID, plan, err)
		}
		factors[rates.PlanType(plan)] = f
	}
	var cond rates.RuleCondition
	for _, wd := range d.DaysOfWeek {
		cond.DaysOfWeek = append(cond.DaysOfWeek, time.Weekday(wd))
	}
	if d.Window != nil {
		w := d.Window.toEntity()
		cond.Window = &w
	}
	cond.MaxDaysBeforeCheckIn = d.MaxDaysBeforeCheckIn

	return rates.AdjustmentRule{
		ID:         d.ID,
		PropertyID: d.PropertyID,
		Name:       d.Name,
		Kind:       rates.RuleKind(d.Kind),
		Factors:    factors,
		Condition:  cond,
		Priority:   d.Priority,
		Active:     d.Active,
		CreatedAt:  timestampToTime(d.CreatedAt),
		Seq:        d.Seq,
	}, nil
}

func documentMoney(amount, currency string) (money.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return money.Money{}, err
	}
	return money.New(d, currency)
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var (
	_ rates.MatrixStore   = (*MatrixRepository)(nil)
	_ rates.OverrideStore = (*OverrideRepository)(nil)
	_ rates.RuleStore     = (*RuleRepository)(nil)
)
