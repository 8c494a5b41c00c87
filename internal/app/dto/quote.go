package dto

import (
	"stayrates/internal/domain/pricing"
)

const dateLayout = "2006-01-02"

type AppliedAdjustment struct {
	RuleName string `json:"rule_name"`
	Kind     string `json:"kind"`
	Delta    string `json:"delta"`
}

type NightPrice struct {
	Night          string              `json:"night"`
	Price          string              `json:"price"`
	Currency       string              `json:"currency"`
	Source         string              `json:"source"`
	OverrideReason string              `json:"override_reason,omitempty"`
	Adjustments    []AppliedAdjustment `json:"applied_adjustments"`
}

type StayQuote struct {
	PropertyID    string       `json:"property_id"`
	RoomCategory  string       `json:"room_category"`
	PlanType      string       `json:"plan_type"`
	OccupancyType string       `json:"occupancy_type"`
	CheckIn       string       `json:"check_in"`
	CheckOut      string       `json:"check_out"`
	Nights        int          `json:"nights"`
	Total         string       `json:"total"`
	Currency      string       `json:"currency"`
	Breakdown     []NightPrice `json:"breakdown"`
}

type QuoteGroup struct {
	RoomCategory   string `json:"room_category"`
	PlanType       string `json:"plan_type"`
	OccupancyType  string `json:"occupancy_type"`
	LowestNightly  string `json:"lowest_nightly"`
	HighestNightly string `json:"highest_nightly"`
	Currency       string `json:"currency"`
}

type ListingQuote struct {
	PropertyID     string       `json:"property_id"`
	CheckIn        string       `json:"check_in"`
	CheckOut       string       `json:"check_out"`
	Basis          string       `json:"basis"`
	Groups         []QuoteGroup `json:"groups"`
	LowestOverall  string       `json:"lowest_overall"`
	HighestOverall string       `json:"highest_overall"`
	Currency       string       `json:"currency"`
}

// MapStayQuote converts the engine result into the JSON contract.
func MapStayQuote(q pricing.StayQuote) StayQuote {
	breakdown := make([]NightPrice, 0, len(q.Breakdown))
	for _, np := range q.Breakdown {
		adjustments := make([]AppliedAdjustment, 0, len(np.Adjustments))
		for _, adj := range np.Adjustments {
			adjustments = append(adjustments, AppliedAdjustment{
				RuleName: adj.RuleName,
				Kind:     string(adj.Kind),
				Delta:    adj.Delta.RoundMinor().Amount.String(),
			})
		}
		breakdown = append(breakdown, NightPrice{
			Night:          np.Night.Format(dateLayout),
			Price:          np.Price.Amount.String(),
			Currency:       np.Price.Currency,
			Source:         string(np.Source),
			OverrideReason: np.OverrideReason,
			Adjustments:    adjustments,
		})
	}
	return StayQuote{
		PropertyID:    q.Key.PropertyID,
		RoomCategory:  string(q.Key.RoomCategory),
		PlanType:      string(q.Key.PlanType),
		OccupancyType: string(q.Key.OccupancyType),
		CheckIn:       q.Range.CheckIn.Format(dateLayout),
		CheckOut:      q.Range.CheckOut.Format(dateLayout),
		Nights:        q.Nights,
		Total:         q.Total.Amount.String(),
		Currency:      q.Total.Currency,
		Breakdown:     breakdown,
	}
}

// MapListingQuote converts a window quote. The basis label warns callers the
// figures are raw matrix prices, not bookable ones.
func MapListingQuote(q pricing.ListingQuote) ListingQuote {
	groups := make([]QuoteGroup, 0, len(q.Groups))
	for _, g := range q.Groups {
		groups = append(groups, QuoteGroup{
			RoomCategory:   string(g.RoomCategory),
			PlanType:       string(g.PlanType),
			OccupancyType:  string(g.OccupancyType),
			LowestNightly:  g.Lowest.Amount.String(),
			HighestNightly: g.Highest.Amount.String(),
			Currency:       g.Lowest.Currency,
		})
	}
	return ListingQuote{
		PropertyID:     q.PropertyID,
		CheckIn:        q.Range.CheckIn.Format(dateLayout),
		CheckOut:       q.Range.CheckOut.Format(dateLayout),
		Basis:          pricing.QuoteBasis,
		Groups:         groups,
		LowestOverall:  q.LowestOverall.Amount.String(),
		HighestOverall: q.HighestOverall.Amount.String(),
		Currency:       q.LowestOverall.Currency,
	}
}
