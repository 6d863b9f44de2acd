package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/staging"
)

var (
	categories     = []string{"electronics", "clothing", "books", "home", "sports", "toys"}
	devices        = []string{"mobile", "desktop", "tablet"}
	browsers       = []string{"Chrome", "Firefox", "Safari", "Edge"}
	paymentMethods = []string{"credit_card", "paypal", "debit_card", "apple_pay"}
	cities         = []string{"Austin", "Denver", "Portland", "Chicago", "Atlanta", "Seattle"}
	states         = []string{"TX", "CO", "OR", "IL", "GA", "WA"}
	nouns          = []string{"Speaker", "Lamp", "Backpack", "Kettle", "Notebook", "Headphones", "Blanket", "Mug"}
	adjectives     = []string{"Ergonomic", "Compact", "Wireless", "Rustic", "Sleek", "Durable", "Portable", "Classic"}
	reviewLines    = []string{
		"Exactly what I was looking for.",
		"Decent quality for the price.",
		"Arrived late but works fine.",
		"Would not buy again.",
		"Five stars, no complaints.",
	}
)

// Generator produces synthetic raw events shaped like the production feed.
// Timestamps are spread over the past spreadDays so the date dimension has a
// real range to cover.
type Generator struct {
	rng        *rand.Rand
	now        time.Time
	spreadDays int
}

func New(seed int64) *Generator {
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)),
		now:        time.Now().UTC(),
		spreadDays: 30,
	}
}

// Batch generates the configured mix of events, shuffled so event types
// interleave the way a real feed would.
func (g *Generator) Batch(cfg config.Seeder) []staging.RawEvent {
	events := make([]staging.RawEvent, 0, cfg.PageViews+cfg.CartAdds+cfg.Purchases+cfg.Reviews)
	for i := 0; i < cfg.PageViews; i++ {
		events = append(events, g.PageView())
	}
	for i := 0; i < cfg.CartAdds; i++ {
		events = append(events, g.AddToCart())
	}
	for i := 0; i < cfg.Purchases; i++ {
		events = append(events, g.Purchase())
	}
	for i := 0; i < cfg.Reviews; i++ {
		events = append(events, g.Review())
	}
	g.rng.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})
	return events
}

func (g *Generator) PageView() staging.RawEvent {
	category := g.pick(categories)
	return staging.RawEvent{
		EventID:    uuid.NewString(),
		EventType:  staging.EventPageView,
		UserID:     g.userID(),
		SessionID:  uuid.NewString(),
		OccurredAt: g.timestamp(),
		PageURL:    fmt.Sprintf("/products/%s/%s", category, g.pageSlug()),
		Device:     g.pick(devices),
		Browser:    g.pick(browsers),
	}
}

func (g *Generator) AddToCart() staging.RawEvent {
	return staging.RawEvent{
		EventID:     uuid.NewString(),
		EventType:   staging.EventAddToCart,
		UserID:      g.userID(),
		SessionID:   uuid.NewString(),
		OccurredAt:  g.timestamp(),
		ProductID:   g.productID(),
		ProductName: g.pick(adjectives) + " " + g.pick(nouns),
		Category:    g.pick(categories),
		Price:       g.price(10, 500),
		Quantity:    1 + g.rng.Intn(3),
	}
}

func (g *Generator) Purchase() staging.RawEvent {
	items := 1 + g.rng.Intn(5)
	total := 0.0
	for i := 0; i < items; i++ {
		total += g.price(10, 200)
	}
	return staging.RawEvent{
		EventID:       uuid.NewString(),
		EventType:     staging.EventPurchase,
		OrderID:       uuid.NewString(),
		UserID:        g.userID(),
		OccurredAt:    g.timestamp(),
		TotalAmount:   total,
		ItemsCount:    items,
		PaymentMethod: g.pick(paymentMethods),
		ShippingCity:  g.pick(cities),
		ShippingState: g.pick(states),
		ShippingZip:   fmt.Sprintf("%05d", 10000+g.rng.Intn(89999)),
	}
}

func (g *Generator) Review() staging.RawEvent {
	return staging.RawEvent{
		EventID:          uuid.NewString(),
		EventType:        staging.EventReview,
		UserID:           g.userID(),
		OccurredAt:       g.timestamp(),
		ProductID:        g.productID(),
		ProductName:      g.pick(adjectives) + " " + g.pick(nouns),
		Category:         g.pick(categories),
		Rating:           1 + g.rng.Intn(5),
		ReviewText:       g.pick(reviewLines),
		VerifiedPurchase: g.rng.Intn(2) == 0,
	}
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *Generator) userID() string {
	return fmt.Sprintf("%d", 1000+g.rng.Intn(9000))
}

func (g *Generator) productID() string {
	return fmt.Sprintf("%d", 100+g.rng.Intn(900))
}

func (g *Generator) pageSlug() string {
	return fmt.Sprintf("item-%d", g.rng.Intn(1000))
}

func (g *Generator) price(min, max float64) float64 {
	v := min + g.rng.Float64()*(max-min)
	return float64(int(v*100)) / 100
}

func (g *Generator) timestamp() time.Time {
	offset := time.Duration(g.rng.Int63n(int64(g.spreadDays) * int64(24*time.Hour)))
	return g.now.Add(-offset).Truncate(time.Second)
}
