package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-warehouse/internal/staging"
)

func cartAdd(id, product, name, category string, at int) staging.RawEvent {
	return staging.RawEvent{
		EventID:     id,
		EventType:   staging.EventAddToCart,
		UserID:      "c1",
		ProductID:   product,
		ProductName: name,
		Category:    category,
		OccurredAt:  day(at),
	}
}

func review(id, product string, rating int, at int) staging.RawEvent {
	return staging.RawEvent{
		EventID:    id,
		EventType:  staging.EventReview,
		UserID:     "c1",
		ProductID:  product,
		Rating:     rating,
		OccurredAt: day(at),
	}
}

func TestBuildProducts_AveragesRatings(t *testing.T) {
	events := []staging.RawEvent{
		cartAdd("e1", "p1", "Wireless Speaker", "electronics", 1),
		review("e2", "p1", 5, 2),
		review("e3", "p1", 2, 3),
	}

	rows := BuildProducts(events, NewKeyMap(nil))
	require.Len(t, rows, 1)

	p := rows[0]
	assert.Equal(t, "p1", p.ProductID)
	assert.Equal(t, "Wireless Speaker", p.Name)
	assert.Equal(t, "electronics", p.Category)
	assert.Equal(t, 2, p.TotalReviews)
	require.NotNil(t, p.AvgRating)
	assert.InDelta(t, 3.5, *p.AvgRating, 0.0001)
}

func TestBuildProducts_NoReviewsMeansNilRating(t *testing.T) {
	rows := BuildProducts([]staging.RawEvent{
		cartAdd("e1", "p1", "Rustic Mug", "home", 1),
	}, NewKeyMap(nil))

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].AvgRating, "no reviews must not divide by zero")
	assert.Equal(t, 0, rows[0].TotalReviews)
}

func TestBuildProducts_LatestDescriptionWins(t *testing.T) {
	events := []staging.RawEvent{
		cartAdd("e1", "p1", "Old Name", "books", 1),
		cartAdd("e2", "p1", "New Name", "toys", 5),
		cartAdd("e3", "p1", "Stale Name", "home", 3),
	}

	rows := BuildProducts(events, NewKeyMap(nil))
	require.Len(t, rows, 1)
	assert.Equal(t, "New Name", rows[0].Name)
	assert.Equal(t, "toys", rows[0].Category)
}

func TestBuildProducts_DefaultCategory(t *testing.T) {
	rows := BuildProducts([]staging.RawEvent{
		review("e1", "p1", 4, 1),
	}, NewKeyMap(nil))

	require.Len(t, rows, 1)
	assert.Equal(t, DefaultCategory, rows[0].Category)
}

func TestBuildProducts_KeysStable(t *testing.T) {
	keys := NewKeyMap(map[string]int64{"p1": 3})
	rows := BuildProducts([]staging.RawEvent{
		cartAdd("e1", "p1", "Speaker", "electronics", 1),
		cartAdd("e2", "p2", "Lamp", "home", 1),
	}, keys)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].Key)
	assert.False(t, rows[0].IsNew)
	assert.Equal(t, int64(4), rows[1].Key)
	assert.True(t, rows[1].IsNew)
}
