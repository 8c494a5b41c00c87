package memory

import (
	"context"
	"sync"
	"time"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

// RateMatrixStore is an in-memory implementation for demos and tests.
type RateMatrixStore struct {
	mu      sync.RWMutex
	entries []rates.RateMatrixEntry
}

func NewRateMatrixStore() *RateMatrixStore {
	return &RateMatrixStore{}
}

// Put stores an entry. Writes exist for seeding only; the engine never calls
// them.
func (s *RateMatrixStore) Put(entry rates.RateMatrixEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *RateMatrixStore) EntriesForNight(ctx context.Context, key rates.RateKey, night time.Time) ([]rates.RateMatrixEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	night = daterange.Day(night)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rates.RateMatrixEntry
	for _, e := range s.entries {
		if !e.Active || e.Key != key {
			continue
		}
		if e.Window.Contains(night) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *RateMatrixStore) EntriesInWindow(ctx context.Context, propertyID string, stay daterange.DateRange, filter rates.QuoteFilter) ([]rates.RateMatrixEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rates.RateMatrixEntry
	for _, e := range s.entries {
		if !e.Active || e.Key.PropertyID != propertyID {
			continue
		}
		if !filter.Match(e) {
			continue
		}
		if e.Window.Intersects(stay) {
			out = append(out, e)
		}
	}
	return out, nil
}

// OverrideStore is an in-memory implementation for demos and tests.
type OverrideStore struct {
	mu      sync.RWMutex
	entries []rates.OverrideEntry
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{}
}

func (s *OverrideStore) Put(entry rates.OverrideEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// OverrideForNight returns the most recently created active override covering
// the night, or nil.
func (s *OverrideStore) OverrideForNight(ctx context.Context, key rates.RateKey, night time.Time) (*rates.OverrideEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	night = daterange.Day(night)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *rates.OverrideEntry
	for i := range s.entries {
		e := s.entries[i]
		if !e.Active || e.Key != key || !e.Window.Contains(night) {
			continue
		}
		if found == nil || e.CreatedAt.After(found.CreatedAt) {
			clone := e
			found = &clone
		}
	}
	return found, nil
}

// RuleStore is an in-memory implementation for demos and tests. It assigns
// insertion sequence numbers, which are the documented tie-break between
// rules of equal priority.
type RuleStore struct {
	mu      sync.RWMutex
	rules   []rates.AdjustmentRule
	nextSeq int64
}

func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

func (s *RuleStore) Put(rule rates.AdjustmentRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.Seq = s.nextSeq
	s.nextSeq++
	s.rules = append(s.rules, rule)
}

func (s *RuleStore) ApplicableRules(ctx context.Context, scope rates.RuleScope) ([]rates.AdjustmentRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snapshot := make([]rates.AdjustmentRule, len(s.rules))
	copy(snapshot, s.rules)
	s.mu.RUnlock()

	applicable := rates.FilterApplicable(snapshot, scope)
	rates.SortRules(applicable)
	return applicable, nil
}

var (
	_ rates.MatrixStore   = (*RateMatrixStore)(nil)
	_ rates.OverrideStore = (*OverrideStore)(nil)
	_ rates.RuleStore     = (*RuleStore)(nil)
)
