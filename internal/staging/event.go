package staging

import "time"

const (
	EventPageView  = "page_view"
	EventAddToCart = "add_to_cart"
	EventPurchase  = "purchase"
	EventReview    = "product_review"
)

// RawEvent is one staged event. The table is wide: every event type shares
// the row shape and leaves the fields it does not carry at their zero value
// (NULL in the store).
type RawEvent struct {
	EventID    string    `bson:"_id"`
	EventType  string    `bson:"event_type"`
	UserID     string    `bson:"user_id"`
	SessionID  string    `bson:"session_id,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`

	// page_view
	PageURL string `bson:"page_url,omitempty"`
	Device  string `bson:"device,omitempty"`
	Browser string `bson:"browser,omitempty"`

	// add_to_cart / product_review
	ProductID   string  `bson:"product_id,omitempty"`
	ProductName string  `bson:"product_name,omitempty"`
	Category    string  `bson:"category,omitempty"`
	Price       float64 `bson:"price,omitempty"`
	Quantity    int     `bson:"quantity,omitempty"`

	// purchase
	OrderID       string  `bson:"order_id,omitempty"`
	TotalAmount   float64 `bson:"total_amount,omitempty"`
	ItemsCount    int     `bson:"items_count,omitempty"`
	PaymentMethod string  `bson:"payment_method,omitempty"`
	ShippingCity  string  `bson:"shipping_city,omitempty"`
	ShippingState string  `bson:"shipping_state,omitempty"`
	ShippingZip   string  `bson:"shipping_zip,omitempty"`

	// product_review
	Rating           int    `bson:"rating,omitempty"`
	ReviewText       string `bson:"review_text,omitempty"`
	VerifiedPurchase bool   `bson:"verified_purchase,omitempty"`
}

func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS staging_events (
			event_id VARCHAR(64) PRIMARY KEY,
			event_type VARCHAR(32) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			session_id VARCHAR(64),
			occurred_at TIMESTAMP NOT NULL,
			page_url VARCHAR(512),
			device VARCHAR(32),
			browser VARCHAR(32),
			product_id VARCHAR(64),
			product_name VARCHAR(255),
			category VARCHAR(64),
			price DECIMAL(10, 2),
			quantity INT,
			order_id VARCHAR(64),
			total_amount DECIMAL(10, 2),
			items_count INT,
			payment_method VARCHAR(32),
			shipping_city VARCHAR(128),
			shipping_state VARCHAR(32),
			shipping_zip VARCHAR(16),
			rating INT,
			review_text TEXT,
			verified_purchase BOOLEAN
		);
	`
}
