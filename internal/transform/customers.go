package transform

import (
	"sort"
	"time"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/staging"
)

type customerAgg struct {
	firstSeen   time.Time
	totalOrders int
	totalSpent  float64
}

// BuildCustomers derives one customer row per natural customer id seen in
// staging. Aggregates are recomputed from the full event set every run
// (type-1 overwrite); surrogate keys come from the existing map or are
// minted for customers seen for the first time.
func BuildCustomers(events []staging.RawEvent, existing *KeyMap, segments []config.Segment) []CustomerRow {
	aggs := make(map[string]*customerAgg)
	for _, e := range events {
		if e.UserID == "" {
			continue
		}
		agg, ok := aggs[e.UserID]
		if !ok {
			agg = &customerAgg{firstSeen: e.OccurredAt}
			aggs[e.UserID] = agg
		}
		if e.OccurredAt.Before(agg.firstSeen) {
			agg.firstSeen = e.OccurredAt
		}
		if e.EventType == staging.EventPurchase {
			agg.totalOrders++
			agg.totalSpent += e.TotalAmount
		}
	}

	// Mint in sorted natural-key order so key assignment is deterministic.
	ids := make([]string, 0, len(aggs))
	for customerID := range aggs {
		ids = append(ids, customerID)
	}
	sort.Strings(ids)

	tiers := config.SortedSegments(segments)
	rows := make([]CustomerRow, 0, len(ids))
	for _, customerID := range ids {
		agg := aggs[customerID]
		_, known := existing.Lookup(customerID)
		rows = append(rows, CustomerRow{
			Key:         existing.Mint(customerID),
			CustomerID:  customerID,
			FirstSeen:   agg.firstSeen,
			TotalOrders: agg.totalOrders,
			TotalSpent:  agg.totalSpent,
			Segment:     SegmentFor(agg.totalSpent, tiers),
			IsNew:       !known,
		})
	}
	return rows
}

// SegmentFor picks the tier with the highest min_spent not exceeding the
// total (lower bound inclusive). Tiers must already be sorted by descending
// min_spent; config validation guarantees a zero floor, so every total
// matches exactly one tier.
func SegmentFor(totalSpent float64, tiers []config.Segment) string {
	for _, t := range tiers {
		if totalSpent >= t.MinSpent {
			return t.Name
		}
	}
	return ""
}
