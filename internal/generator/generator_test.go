package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/staging"
)

func TestBatch_ProducesConfiguredMix(t *testing.T) {
	cfg := config.Seeder{PageViews: 10, CartAdds: 5, Purchases: 4, Reviews: 3}

	events := New(42).Batch(cfg)
	require.Len(t, events, 22)

	counts := make(map[string]int)
	ids := make(map[string]bool)
	for _, e := range events {
		counts[e.EventType]++
		assert.NotEmpty(t, e.EventID)
		assert.False(t, ids[e.EventID], "event ids must be unique")
		ids[e.EventID] = true
		assert.NotEmpty(t, e.UserID)
		assert.False(t, e.OccurredAt.IsZero())
		assert.True(t, e.OccurredAt.Before(time.Now().Add(time.Minute)))
	}

	assert.Equal(t, 10, counts[staging.EventPageView])
	assert.Equal(t, 5, counts[staging.EventAddToCart])
	assert.Equal(t, 4, counts[staging.EventPurchase])
	assert.Equal(t, 3, counts[staging.EventReview])
}

func TestPurchase_Shape(t *testing.T) {
	e := New(1).Purchase()

	assert.Equal(t, staging.EventPurchase, e.EventType)
	assert.NotEmpty(t, e.OrderID)
	assert.Greater(t, e.TotalAmount, 0.0)
	assert.GreaterOrEqual(t, e.ItemsCount, 1)
	assert.LessOrEqual(t, e.ItemsCount, 5)
	assert.NotEmpty(t, e.PaymentMethod)
	assert.Len(t, e.ShippingZip, 5)
}

func TestReview_RatingInRange(t *testing.T) {
	g := New(7)
	for i := 0; i < 50; i++ {
		e := g.Review()
		assert.GreaterOrEqual(t, e.Rating, 1)
		assert.LessOrEqual(t, e.Rating, 5)
		assert.NotEmpty(t, e.ProductID)
		assert.NotEmpty(t, e.Category)
	}
}

func TestGenerator_DeterministicWithSeed(t *testing.T) {
	cfg := config.Seeder{PageViews: 3, CartAdds: 2, Purchases: 2, Reviews: 1}

	a := New(99).Batch(cfg)
	b := New(99).Batch(cfg)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].EventType, b[i].EventType)
		assert.Equal(t, a[i].UserID, b[i].UserID)
	}
}
