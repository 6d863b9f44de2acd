package transform

import (
	"sort"
	"time"

	"ecommerce-warehouse/internal/staging"
)

// DefaultCategory is used when no staged event carried a category for the
// product.
const DefaultCategory = "uncategorized"

type productAgg struct {
	name         string
	category     string
	describedAt  time.Time
	ratingSum    int
	totalReviews int
}

// BuildProducts derives one product row per natural product id from cart and
// review events. Name and category follow the latest event carrying them
// (type-1 overwrite); avg_rating stays nil for products with no reviews.
func BuildProducts(events []staging.RawEvent, existing *KeyMap) []ProductRow {
	aggs := make(map[string]*productAgg)
	for _, e := range events {
		if e.ProductID == "" {
			continue
		}
		agg, ok := aggs[e.ProductID]
		if !ok {
			agg = &productAgg{}
			aggs[e.ProductID] = agg
		}
		if e.ProductName != "" || e.Category != "" {
			if agg.describedAt.IsZero() || !e.OccurredAt.Before(agg.describedAt) {
				if e.ProductName != "" {
					agg.name = e.ProductName
				}
				if e.Category != "" {
					agg.category = e.Category
				}
				agg.describedAt = e.OccurredAt
			}
		}
		if e.EventType == staging.EventReview {
			agg.ratingSum += e.Rating
			agg.totalReviews++
		}
	}

	ids := make([]string, 0, len(aggs))
	for productID := range aggs {
		ids = append(ids, productID)
	}
	sort.Strings(ids)

	rows := make([]ProductRow, 0, len(ids))
	for _, productID := range ids {
		agg := aggs[productID]
		_, known := existing.Lookup(productID)
		row := ProductRow{
			Key:          existing.Mint(productID),
			ProductID:    productID,
			Name:         agg.name,
			Category:     agg.category,
			TotalReviews: agg.totalReviews,
			IsNew:        !known,
		}
		if row.Category == "" {
			row.Category = DefaultCategory
		}
		if agg.totalReviews > 0 {
			avg := float64(agg.ratingSum) / float64(agg.totalReviews)
			row.AvgRating = &avg
		}
		rows = append(rows, row)
	}
	return rows
}
