package staging

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-warehouse/internal/database"
)

// Reader hands the transform the full staging dataset. A failed read is
// fatal for the run, so implementations return nothing partial.
type Reader interface {
	ReadAll(ctx context.Context) ([]RawEvent, error)
}

const selectEvents = `
	SELECT event_id, event_type, user_id, session_id, occurred_at,
		page_url, device, browser,
		product_id, product_name, category, price, quantity,
		order_id, total_amount, items_count, payment_method,
		rating, verified_purchase
	FROM staging_events
	ORDER BY occurred_at, event_id`

// SQLReader scans the staging_events wide table. The MySQL DSN must carry
// parseTime=true so occurred_at scans into time.Time.
type SQLReader struct {
	DB database.Driver
}

func (r *SQLReader) ReadAll(ctx context.Context) ([]RawEvent, error) {
	rows, err := r.DB.Query(ctx, selectEvents)
	if err != nil {
		return nil, fmt.Errorf("query staging_events: %w", err)
	}
	defer rows.Close()

	var events []RawEvent
	for rows.Next() {
		var (
			e         RawEvent
			sessionID sql.NullString
			pageURL   sql.NullString
			device    sql.NullString
			browser   sql.NullString
			productID sql.NullString
			name      sql.NullString
			category  sql.NullString
			price     sql.NullFloat64
			quantity  sql.NullInt64
			orderID   sql.NullString
			total     sql.NullFloat64
			items     sql.NullInt64
			payment   sql.NullString
			rating    sql.NullInt64
			verified  sql.NullBool
		)
		err := rows.Scan(
			&e.EventID, &e.EventType, &e.UserID, &sessionID, &e.OccurredAt,
			&pageURL, &device, &browser,
			&productID, &name, &category, &price, &quantity,
			&orderID, &total, &items, &payment,
			&rating, &verified,
		)
		if err != nil {
			return nil, fmt.Errorf("scan staging_events row: %w", err)
		}
		e.SessionID = sessionID.String
		e.PageURL = pageURL.String
		e.Device = device.String
		e.Browser = browser.String
		e.ProductID = productID.String
		e.ProductName = name.String
		e.Category = category.String
		e.Price = price.Float64
		e.Quantity = int(quantity.Int64)
		e.OrderID = orderID.String
		e.TotalAmount = total.Float64
		e.ItemsCount = int(items.Int64)
		e.PaymentMethod = payment.String
		e.Rating = int(rating.Int64)
		e.VerifiedPurchase = verified.Bool
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staging_events: %w", err)
	}
	return events, nil
}

// MongoReader reads staged event documents from the staging_events
// collection.
type MongoReader struct {
	Source *database.MongoSource
}

func (r *MongoReader) ReadAll(ctx context.Context) ([]RawEvent, error) {
	sort := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.Source.Collection("staging_events").Find(ctx, bson.M{}, sort)
	if err != nil {
		return nil, fmt.Errorf("find staging_events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []RawEvent
	for cursor.Next(ctx) {
		var e RawEvent
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode staging_events document: %w", err)
		}
		events = append(events, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate staging_events: %w", err)
	}
	return events, nil
}
