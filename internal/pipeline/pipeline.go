package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/database"
	"ecommerce-warehouse/internal/pkg/logger"
	"ecommerce-warehouse/internal/staging"
	"ecommerce-warehouse/internal/transform"
	"ecommerce-warehouse/internal/warehouse"
)

// RunLockName is the advisory lock serializing transform runs per warehouse
// instance.
const RunLockName = "ecommerce_warehouse_transform"

var (
	// ErrRunLockHeld means another orchestrator run is active against this
	// warehouse. The run aborts before reading anything.
	ErrRunLockHeld = errors.New("another transform run holds the warehouse lock")

	// ErrStagingRead wraps any failure to read the staging dataset. Always
	// fatal, always before the first warehouse write.
	ErrStagingRead = errors.New("staging source read failed")
)

type TableCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// RunReport is the structured result of one transform run. Rejections are a
// normal part of it: a run with rejected facts still succeeded.
type RunReport struct {
	StartedAt  time.Time                           `json:"started_at"`
	FinishedAt time.Time                           `json:"finished_at"`
	EventsRead int                                 `json:"events_read"`
	Tables     map[string]TableCounts              `json:"tables"`
	Rejections []transform.Rejection               `json:"rejections"`
	Latencies  map[string]warehouse.LatencySummary `json:"latencies"`
}

// Pipeline sequences the transform: dimensions and dates commit first, facts
// resolve against them second. The two phases are independently atomic.
type Pipeline struct {
	reader   staging.Reader
	wh       database.Driver
	store    *warehouse.Store
	segments []config.Segment
	log      *logger.Logger
}

func New(reader staging.Reader, wh database.Driver, segments []config.Segment, log *logger.Logger) *Pipeline {
	return &Pipeline{
		reader:   reader,
		wh:       wh,
		store:    warehouse.NewStore(wh, log),
		segments: segments,
		log:      log,
	}
}

// Run executes the full transform once. Rerunning against unchanged staging
// data changes nothing; rerunning against grown staging data preserves every
// existing surrogate key and only adds or overwrites what the new events
// warrant.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		StartedAt:  time.Now(),
		Tables:     make(map[string]TableCounts),
		Rejections: []transform.Rejection{},
	}

	ok, err := p.wh.AcquireRunLock(ctx, RunLockName)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunLockHeld
	}
	defer p.wh.ReleaseRunLock(ctx, RunLockName)

	events, err := p.reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStagingRead, err)
	}
	events = transform.Dedupe(events)
	report.EventsRead = len(events)
	p.log.Info("staging read complete", "events", len(events))

	if err := p.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	var (
		customerKeys *transform.KeyMap
		deviceKeys   *transform.KeyMap
		dateKeys     map[int64]bool
	)
	err = p.wh.ExecuteTx(ctx, func(tx database.Tx) error {
		var err error
		if customerKeys, err = p.store.LoadCustomerKeys(ctx, tx); err != nil {
			return err
		}
		productKeys, err := p.store.LoadProductKeys(ctx, tx)
		if err != nil {
			return err
		}
		if deviceKeys, err = p.store.LoadDeviceKeys(ctx, tx); err != nil {
			return err
		}
		if dateKeys, err = p.store.LoadDateKeys(ctx, tx); err != nil {
			return err
		}

		// The three leaf dimensions are independent: fan out, then barrier
		// before any write so the transaction sees complete results.
		var (
			customers []transform.CustomerRow
			products  []transform.ProductRow
			devices   []transform.DeviceRow
		)
		var g errgroup.Group
		g.Go(func() error {
			customers = transform.BuildCustomers(events, customerKeys, p.segments)
			return nil
		})
		g.Go(func() error {
			products = transform.BuildProducts(events, productKeys)
			return nil
		})
		g.Go(func() error {
			devices = transform.BuildDevices(events, deviceKeys)
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		dates := transform.BuildDates(events, dateKeys)

		ins, upd, err := p.store.UpsertCustomers(ctx, tx, customers)
		if err != nil {
			return err
		}
		report.Tables["dim_customers"] = TableCounts{Inserted: ins, Updated: upd}

		ins, upd, err = p.store.UpsertProducts(ctx, tx, products)
		if err != nil {
			return err
		}
		report.Tables["dim_products"] = TableCounts{Inserted: ins, Updated: upd}

		n, err := p.store.InsertDevices(ctx, tx, devices)
		if err != nil {
			return err
		}
		report.Tables["dim_devices"] = TableCounts{Inserted: n}

		n, err = p.store.InsertDates(ctx, tx, dates)
		if err != nil {
			return err
		}
		report.Tables["dim_dates"] = TableCounts{Inserted: n}

		for _, d := range dates {
			dateKeys[d.Key] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dimension phase: %w", err)
	}
	p.log.Info("dimension phase committed",
		"customers", report.Tables["dim_customers"],
		"products", report.Tables["dim_products"],
		"devices", report.Tables["dim_devices"],
		"dates", report.Tables["dim_dates"],
	)

	err = p.wh.ExecuteTx(ctx, func(tx database.Tx) error {
		customerByNatural := customerKeys.NaturalToKey()
		deviceByNatural := deviceKeys.NaturalToKey()

		orderFacts, orderRejections := transform.BuildOrderFacts(events, customerByNatural, dateKeys)
		pageViewFacts, pvRejections := transform.BuildPageViewFacts(events, customerByNatural, deviceByNatural, dateKeys)
		report.Rejections = append(report.Rejections, orderRejections...)
		report.Rejections = append(report.Rejections, pvRejections...)

		if err := transform.ValidateOrderFacts(orderFacts, customerKeys.KeySet(), dateKeys); err != nil {
			return err
		}
		if err := transform.ValidatePageViewFacts(pageViewFacts, customerKeys.KeySet(), deviceKeys.KeySet(), dateKeys); err != nil {
			return err
		}

		orderKeys, err := p.store.LoadOrderKeys(ctx, tx)
		if err != nil {
			return err
		}
		ins, upd, err := p.store.UpsertOrderFacts(ctx, tx, orderFacts, orderKeys)
		if err != nil {
			return err
		}
		report.Tables["fact_orders"] = TableCounts{Inserted: ins, Updated: upd}

		pageViewKeys, err := p.store.LoadPageViewKeys(ctx, tx)
		if err != nil {
			return err
		}
		ins, upd, err = p.store.UpsertPageViewFacts(ctx, tx, pageViewFacts, pageViewKeys)
		if err != nil {
			return err
		}
		report.Tables["fact_page_views"] = TableCounts{Inserted: ins, Updated: upd}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fact phase: %w", err)
	}

	report.Latencies = p.store.Metrics().Summary()
	report.FinishedAt = time.Now()
	p.log.Info("transform run complete",
		"orders", report.Tables["fact_orders"],
		"page_views", report.Tables["fact_page_views"],
		"rejections", len(report.Rejections),
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}
