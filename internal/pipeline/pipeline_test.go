package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/database"
	"ecommerce-warehouse/internal/pkg/logger"
	"ecommerce-warehouse/internal/staging"
	"ecommerce-warehouse/internal/transform"
	"ecommerce-warehouse/internal/warehouse"
)

type stubReader struct {
	events []staging.RawEvent
	err    error
}

func (r *stubReader) ReadAll(ctx context.Context) ([]staging.RawEvent, error) {
	return r.events, r.err
}

func newMockWarehouse(t *testing.T) (database.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewMySQLDriver(db), mock
}

func expectLockAcquired(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
}

func expectLockReleased(mock sqlmock.Sqlmock) {
	mock.ExpectExec("SELECT RELEASE_LOCK").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectEmptyKeyLoad(mock sqlmock.Sqlmock, query string, columns ...string) {
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(columns))
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	wh, mock := newMockWarehouse(t)

	events := []staging.RawEvent{
		{
			EventID: "pv1", EventType: staging.EventPageView, UserID: "c1",
			SessionID: "s1", PageURL: "/products/books/item-9",
			Device: "mobile", Browser: "Chrome",
			OccurredAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			EventID: "e-o1", EventType: staging.EventPurchase, UserID: "c1",
			OrderID: "o1", TotalAmount: 150, ItemsCount: 2, PaymentMethod: "paypal",
			OccurredAt: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		},
	}

	expectLockAcquired(mock)
	for range warehouse.Schema() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	// dimension phase
	mock.ExpectBegin()
	expectEmptyKeyLoad(mock, "SELECT customer_key, customer_id FROM dim_customers", "customer_key", "customer_id")
	expectEmptyKeyLoad(mock, "SELECT product_key, product_id FROM dim_products", "product_key", "product_id")
	expectEmptyKeyLoad(mock, "SELECT device_key, device_type, browser FROM dim_devices", "device_key", "device_type", "browser")
	expectEmptyKeyLoad(mock, "SELECT date_key FROM dim_dates", "date_key")
	mock.ExpectExec("INSERT INTO dim_customers").
		WithArgs(int64(1), "c1", "2025-06-01", 1, 150.0, "silver").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO dim_devices").
		WithArgs(int64(1), "mobile", "Chrome").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO dim_dates").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO dim_dates").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// fact phase
	mock.ExpectBegin()
	expectEmptyKeyLoad(mock, "SELECT order_key, order_id FROM fact_orders", "order_key", "order_id")
	mock.ExpectExec("INSERT INTO fact_orders").
		WithArgs(int64(1), "o1", int64(1), int64(20250602), 150.0, 2, "paypal").
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectEmptyKeyLoad(mock, "SELECT page_view_key, event_id FROM fact_page_views", "page_view_key", "event_id")
	mock.ExpectExec("INSERT INTO fact_page_views").
		WithArgs(int64(1), "pv1", int64(1), int64(1), int64(20250601), "/products/books/item-9", "s1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expectLockReleased(mock)

	p := New(&stubReader{events: events}, wh, config.DefaultSegments(), logger.Nop())
	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 2, report.EventsRead)
	assert.Equal(t, TableCounts{Inserted: 1}, report.Tables["dim_customers"])
	assert.Equal(t, TableCounts{}, report.Tables["dim_products"])
	assert.Equal(t, TableCounts{Inserted: 1}, report.Tables["dim_devices"])
	assert.Equal(t, TableCounts{Inserted: 2}, report.Tables["dim_dates"])
	assert.Equal(t, TableCounts{Inserted: 1}, report.Tables["fact_orders"])
	assert.Equal(t, TableCounts{Inserted: 1}, report.Tables["fact_page_views"])
	assert.Empty(t, report.Rejections)
	assert.Contains(t, report.Latencies, "fact_orders")
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestPipeline_Run_LockHeld(t *testing.T) {
	wh, mock := newMockWarehouse(t)

	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	p := New(&stubReader{}, wh, config.DefaultSegments(), logger.Nop())
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunLockHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_Run_StagingReadFailureIsFatalBeforeWrites(t *testing.T) {
	wh, mock := newMockWarehouse(t)

	expectLockAcquired(mock)
	expectLockReleased(mock)

	p := New(&stubReader{err: assert.AnError}, wh, config.DefaultSegments(), logger.Nop())
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrStagingRead)
	assert.NoError(t, mock.ExpectationsWereMet(), "no warehouse write may precede a staging read failure")
}

func TestPipeline_Run_GhostCustomerIsRejectedNotFatal(t *testing.T) {
	wh, mock := newMockWarehouse(t)

	// The only event is a purchase with no customer id, so no customer row
	// is built and the fact cannot resolve.
	events := []staging.RawEvent{
		{
			EventID: "e-o1", EventType: staging.EventPurchase, UserID: "",
			OrderID: "o1", TotalAmount: 10, ItemsCount: 1, PaymentMethod: "paypal",
			OccurredAt: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		},
	}

	expectLockAcquired(mock)
	for range warehouse.Schema() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectBegin()
	expectEmptyKeyLoad(mock, "SELECT customer_key, customer_id FROM dim_customers", "customer_key", "customer_id")
	expectEmptyKeyLoad(mock, "SELECT product_key, product_id FROM dim_products", "product_key", "product_id")
	expectEmptyKeyLoad(mock, "SELECT device_key, device_type, browser FROM dim_devices", "device_key", "device_type", "browser")
	expectEmptyKeyLoad(mock, "SELECT date_key FROM dim_dates", "date_key")
	mock.ExpectExec("INSERT IGNORE INTO dim_dates").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectEmptyKeyLoad(mock, "SELECT order_key, order_id FROM fact_orders", "order_key", "order_id")
	expectEmptyKeyLoad(mock, "SELECT page_view_key, event_id FROM fact_page_views", "page_view_key", "event_id")
	mock.ExpectCommit()

	expectLockReleased(mock)

	p := New(&stubReader{events: events}, wh, config.DefaultSegments(), logger.Nop())
	report, err := p.Run(context.Background())
	require.NoError(t, err, "a rejected fact is a reportable outcome, not a run failure")
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, report.Rejections, 1)
	assert.Equal(t, transform.Rejection{
		Table:      "fact_orders",
		NaturalKey: "o1",
		Reason:     transform.ReasonUnresolvedCustomer,
	}, report.Rejections[0])
	assert.Equal(t, TableCounts{}, report.Tables["fact_orders"])
}
