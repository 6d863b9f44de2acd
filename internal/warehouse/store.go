package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecommerce-warehouse/internal/database"
	"ecommerce-warehouse/internal/pkg/logger"
	"ecommerce-warehouse/internal/transform"
)

const dateLayout = "2006-01-02"

// Store owns all reads and writes against the warehouse tables. Every load
// and upsert runs inside a transaction handed down by the orchestrator, so a
// phase either commits whole or not at all.
type Store struct {
	db      database.Driver
	log     *logger.Logger
	metrics *Metrics
}

func NewStore(db database.Driver, log *logger.Logger) *Store {
	return &Store{db: db, log: log, metrics: NewMetrics()}
}

func (s *Store) Metrics() *Metrics {
	return s.metrics
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	s.log.Debug("ensuring warehouse schema")
	for _, stmt := range Schema() {
		if err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure warehouse schema: %w", err)
		}
	}
	return nil
}

// --- key map loads ---

func (s *Store) LoadCustomerKeys(ctx context.Context, tx database.Tx) (*transform.KeyMap, error) {
	return s.loadKeys(ctx, tx, "SELECT customer_key, customer_id FROM dim_customers")
}

func (s *Store) LoadProductKeys(ctx context.Context, tx database.Tx) (*transform.KeyMap, error) {
	return s.loadKeys(ctx, tx, "SELECT product_key, product_id FROM dim_products")
}

func (s *Store) LoadOrderKeys(ctx context.Context, tx database.Tx) (*transform.KeyMap, error) {
	return s.loadKeys(ctx, tx, "SELECT order_key, order_id FROM fact_orders")
}

func (s *Store) LoadPageViewKeys(ctx context.Context, tx database.Tx) (*transform.KeyMap, error) {
	return s.loadKeys(ctx, tx, "SELECT page_view_key, event_id FROM fact_page_views")
}

func (s *Store) loadKeys(ctx context.Context, tx database.Tx, query string) (*transform.KeyMap, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var key int64
		var natural string
		if err := rows.Scan(&key, &natural); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		keys[natural] = key
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transform.NewKeyMap(keys), nil
}

func (s *Store) LoadDeviceKeys(ctx context.Context, tx database.Tx) (*transform.KeyMap, error) {
	rows, err := tx.Query(ctx, "SELECT device_key, device_type, browser FROM dim_devices")
	if err != nil {
		return nil, fmt.Errorf("load device keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var key int64
		var deviceType, browser string
		if err := rows.Scan(&key, &deviceType, &browser); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		keys[transform.DeviceNaturalKey(deviceType, browser)] = key
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transform.NewKeyMap(keys), nil
}

func (s *Store) LoadDateKeys(ctx context.Context, tx database.Tx) (map[int64]bool, error) {
	rows, err := tx.Query(ctx, "SELECT date_key FROM dim_dates")
	if err != nil {
		return nil, fmt.Errorf("load date keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[int64]bool)
	for rows.Next() {
		var key int64
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan date key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// --- dimension writes ---

func (s *Store) UpsertCustomers(ctx context.Context, tx database.Tx, rows []transform.CustomerRow) (inserted, updated int, err error) {
	query := upsertSQL(s.db.Dialect(),
		`INSERT INTO dim_customers (customer_key, customer_id, first_seen_date, total_orders, total_spent, customer_segment)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"customer_id",
		[]string{"first_seen_date", "total_orders", "total_spent", "customer_segment"},
	)
	for _, row := range rows {
		start := time.Now()
		err := tx.Exec(ctx, query,
			row.Key, row.CustomerID, row.FirstSeen.UTC().Format(dateLayout),
			row.TotalOrders, row.TotalSpent, row.Segment,
		)
		s.metrics.Observe("dim_customers", time.Since(start))
		if err != nil {
			return 0, 0, fmt.Errorf("upsert customer %s: %w", row.CustomerID, err)
		}
		if row.IsNew {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func (s *Store) UpsertProducts(ctx context.Context, tx database.Tx, rows []transform.ProductRow) (inserted, updated int, err error) {
	query := upsertSQL(s.db.Dialect(),
		`INSERT INTO dim_products (product_key, product_id, product_name, category, avg_rating, total_reviews)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"product_id",
		[]string{"product_name", "category", "avg_rating", "total_reviews"},
	)
	for _, row := range rows {
		var rating interface{}
		if row.AvgRating != nil {
			rating = *row.AvgRating
		}
		start := time.Now()
		err := tx.Exec(ctx, query,
			row.Key, row.ProductID, row.Name, row.Category, rating, row.TotalReviews,
		)
		s.metrics.Observe("dim_products", time.Since(start))
		if err != nil {
			return 0, 0, fmt.Errorf("upsert product %s: %w", row.ProductID, err)
		}
		if row.IsNew {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

// InsertDevices writes the freshly minted device pairs. Existing pairs are
// untouched: the dimension has no mutable attributes.
func (s *Store) InsertDevices(ctx context.Context, tx database.Tx, rows []transform.DeviceRow) (int, error) {
	query := insertIgnoreSQL(s.db.Dialect(),
		"INSERT INTO dim_devices (device_key, device_type, browser) VALUES (?, ?, ?)",
		"device_type, browser",
	)
	for _, row := range rows {
		start := time.Now()
		err := tx.Exec(ctx, query, row.Key, row.DeviceType, row.Browser)
		s.metrics.Observe("dim_devices", time.Since(start))
		if err != nil {
			return 0, fmt.Errorf("insert device %s/%s: %w", row.DeviceType, row.Browser, err)
		}
	}
	return len(rows), nil
}

func (s *Store) InsertDates(ctx context.Context, tx database.Tx, rows []transform.DateRow) (int, error) {
	query := insertIgnoreSQL(s.db.Dialect(),
		`INSERT INTO dim_dates (date_key, full_date, year, quarter, month, week, day, is_weekend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"date_key",
	)
	for _, row := range rows {
		start := time.Now()
		err := tx.Exec(ctx, query,
			row.Key, row.FullDate.Format(dateLayout),
			row.Year, row.Quarter, row.Month, row.Week, row.Day, row.IsWeekend,
		)
		s.metrics.Observe("dim_dates", time.Since(start))
		if err != nil {
			return 0, fmt.Errorf("insert date %d: %w", row.Key, err)
		}
	}
	return len(rows), nil
}

// --- fact writes ---

// UpsertOrderFacts writes fact rows keyed by order_id. Surrogate keys come
// from the fact key map so a rerun updates the same row in place.
func (s *Store) UpsertOrderFacts(ctx context.Context, tx database.Tx, facts []transform.OrderFact, keys *transform.KeyMap) (inserted, updated int, err error) {
	query := upsertSQL(s.db.Dialect(),
		`INSERT INTO fact_orders (order_key, order_id, customer_key, date_key, total_amount, items_count, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"order_id",
		[]string{"customer_key", "date_key", "total_amount", "items_count", "payment_method"},
	)
	for _, f := range facts {
		_, known := keys.Lookup(f.OrderID)
		start := time.Now()
		err := tx.Exec(ctx, query,
			keys.Mint(f.OrderID), f.OrderID, f.CustomerKey, f.DateKey,
			f.TotalAmount, f.ItemsCount, f.PaymentMethod,
		)
		s.metrics.Observe("fact_orders", time.Since(start))
		if err != nil {
			return 0, 0, fmt.Errorf("upsert order %s: %w", f.OrderID, err)
		}
		if known {
			updated++
		} else {
			inserted++
		}
	}
	return inserted, updated, nil
}

func (s *Store) UpsertPageViewFacts(ctx context.Context, tx database.Tx, facts []transform.PageViewFact, keys *transform.KeyMap) (inserted, updated int, err error) {
	query := upsertSQL(s.db.Dialect(),
		`INSERT INTO fact_page_views (page_view_key, event_id, customer_key, device_key, date_key, page_url, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"event_id",
		[]string{"customer_key", "device_key", "date_key", "page_url", "session_id"},
	)
	for _, f := range facts {
		_, known := keys.Lookup(f.EventID)
		start := time.Now()
		err := tx.Exec(ctx, query,
			keys.Mint(f.EventID), f.EventID, f.CustomerKey, f.DeviceKey, f.DateKey,
			f.PageURL, f.SessionID,
		)
		s.metrics.Observe("fact_page_views", time.Since(start))
		if err != nil {
			return 0, 0, fmt.Errorf("upsert page view %s: %w", f.EventID, err)
		}
		if known {
			updated++
		} else {
			inserted++
		}
	}
	return inserted, updated, nil
}

// upsertSQL appends the dialect's conflict clause to a plain insert. MySQL
// keys the update off any unique index; Postgres needs the natural-key
// column named explicitly.
func upsertSQL(dialect, insert, conflictCol string, updateCols []string) string {
	var b strings.Builder
	b.WriteString(insert)
	if dialect == database.DialectPostgres {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", conflictCol)
		for i, col := range updateCols {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s = EXCLUDED.%s", col, col)
		}
		return b.String()
	}
	b.WriteString(" ON DUPLICATE KEY UPDATE ")
	for i, col := range updateCols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = VALUES(%s)", col, col)
	}
	return b.String()
}

// insertIgnoreSQL builds an append-only insert that leaves existing rows
// alone, for the dimensions that never update in place.
func insertIgnoreSQL(dialect, insert, conflictCols string) string {
	if dialect == database.DialectPostgres {
		return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", insert, conflictCols)
	}
	return "INSERT IGNORE" + strings.TrimPrefix(insert, "INSERT")
}
