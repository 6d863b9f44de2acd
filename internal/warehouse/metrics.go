package warehouse

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics collects per-table statement latencies for the run report.
type Metrics struct {
	mu    sync.Mutex
	hists map[string]*hdrhistogram.Histogram
}

type LatencySummary struct {
	Statements int64 `json:"statements"`
	P50Micros  int64 `json:"p50_micros"`
	P95Micros  int64 `json:"p95_micros"`
	P99Micros  int64 `json:"p99_micros"`
}

func NewMetrics() *Metrics {
	return &Metrics{hists: make(map[string]*hdrhistogram.Histogram)}
}

func (m *Metrics) Observe(table string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hists[table]
	if !ok {
		// 1µs to 60s, 3 significant figures
		h = hdrhistogram.New(1, 60_000_000, 3)
		m.hists[table] = h
	}
	h.RecordValue(d.Microseconds())
}

func (m *Metrics) Summary() map[string]LatencySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]LatencySummary, len(m.hists))
	for table, h := range m.hists {
		out[table] = LatencySummary{
			Statements: h.TotalCount(),
			P50Micros:  h.ValueAtQuantile(50),
			P95Micros:  h.ValueAtQuantile(95),
			P99Micros:  h.ValueAtQuantile(99),
		}
	}
	return out
}
