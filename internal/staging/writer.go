package staging

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"ecommerce-warehouse/internal/database"
)

// EnsureSchema creates the staging table when it is missing.
func EnsureSchema(ctx context.Context, db database.Driver) error {
	return db.Exec(ctx, Schema())
}

// InsertEvents loads events into staging_events. Re-ingesting an event_id is
// a no-op: staged events are immutable, so the first copy wins.
func InsertEvents(ctx context.Context, db database.Driver, events []RawEvent) (int, error) {
	verb := "INSERT"
	suffix := ""
	if db.Dialect() == database.DialectPostgres {
		suffix = " ON CONFLICT (event_id) DO NOTHING"
	} else {
		verb = "INSERT IGNORE"
	}
	query := verb + ` INTO staging_events (
			event_id, event_type, user_id, session_id, occurred_at,
			page_url, device, browser,
			product_id, product_name, category, price, quantity,
			order_id, total_amount, items_count, payment_method,
			shipping_city, shipping_state, shipping_zip,
			rating, review_text, verified_purchase
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)` + suffix

	inserted := 0
	err := db.ExecuteTx(ctx, func(tx database.Tx) error {
		for _, e := range events {
			err := tx.Exec(ctx, query,
				e.EventID, e.EventType, e.UserID, nullable(e.SessionID), e.OccurredAt,
				nullable(e.PageURL), nullable(e.Device), nullable(e.Browser),
				nullable(e.ProductID), nullable(e.ProductName), nullable(e.Category), e.Price, e.Quantity,
				nullable(e.OrderID), e.TotalAmount, e.ItemsCount, nullable(e.PaymentMethod),
				nullable(e.ShippingCity), nullable(e.ShippingState), nullable(e.ShippingZip),
				e.Rating, nullable(e.ReviewText), e.VerifiedPurchase,
			)
			if err != nil {
				return fmt.Errorf("insert event %s: %w", e.EventID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// InsertEventsMongo loads events into the staging collection, skipping
// event ids already present.
func InsertEventsMongo(ctx context.Context, src *database.MongoSource, events []RawEvent) (int, error) {
	coll := src.Collection("staging_events")
	inserted := 0
	for _, e := range events {
		if _, err := coll.InsertOne(ctx, e); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return inserted, fmt.Errorf("insert event %s: %w", e.EventID, err)
		}
		inserted++
	}
	return inserted, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
