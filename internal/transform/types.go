package transform

import (
	"errors"
	"time"

	"ecommerce-warehouse/internal/staging"
)

// ErrIntegrity marks a fact row that slipped past resolution with a surrogate
// key its dimension does not contain. It is a defect guard: the fact phase
// aborts rather than persisting a dangling reference.
var ErrIntegrity = errors.New("fact references a nonexistent dimension key")

// Rejection reason codes.
const (
	ReasonUnresolvedCustomer = "unresolved_customer_key"
	ReasonUnresolvedDate     = "unresolved_date_key"
	ReasonUnresolvedDevice   = "unresolved_device_key"
)

// Rejection records one fact event that could not resolve all its dimension
// keys. Rejections are reported, not raised: partial success is the normal
// outcome of a run.
type Rejection struct {
	Table      string `json:"table"`
	NaturalKey string `json:"natural_key"`
	Reason     string `json:"reason"`
}

type CustomerRow struct {
	Key         int64
	CustomerID  string
	FirstSeen   time.Time
	TotalOrders int
	TotalSpent  float64
	Segment     string
	IsNew       bool
}

type ProductRow struct {
	Key          int64
	ProductID    string
	Name         string
	Category     string
	AvgRating    *float64 // nil when the product has no reviews
	TotalReviews int
	IsNew        bool
}

type DeviceRow struct {
	Key        int64
	DeviceType string
	Browser    string
}

type DateRow struct {
	Key       int64
	FullDate  time.Time
	Year      int
	Quarter   int
	Month     int
	Week      int
	Day       int
	IsWeekend bool
}

type OrderFact struct {
	OrderID       string
	CustomerKey   int64
	DateKey       int64
	TotalAmount   float64
	ItemsCount    int
	PaymentMethod string
}

type PageViewFact struct {
	EventID     string
	CustomerKey int64
	DeviceKey   int64
	DateKey     int64
	PageURL     string
	SessionID   string
}

// KeyMap is the bidirectional natural-key to surrogate-key mapping for one
// table. Minting is monotonic from the highest key ever assigned, so keys are
// never reused even across process restarts: the map is rebuilt from the
// persisted rows each run.
type KeyMap struct {
	keys map[string]int64
	max  int64
}

func NewKeyMap(existing map[string]int64) *KeyMap {
	m := &KeyMap{keys: make(map[string]int64, len(existing))}
	for natural, key := range existing {
		m.keys[natural] = key
		if key > m.max {
			m.max = key
		}
	}
	return m
}

func (m *KeyMap) Lookup(natural string) (int64, bool) {
	key, ok := m.keys[natural]
	return key, ok
}

// Mint assigns the next surrogate key to a natural key not seen before. A
// natural key that already has a key keeps it.
func (m *KeyMap) Mint(natural string) int64 {
	if key, ok := m.keys[natural]; ok {
		return key
	}
	m.max++
	m.keys[natural] = m.max
	return m.max
}

func (m *KeyMap) Len() int {
	return len(m.keys)
}

// NaturalToKey returns a copy of the forward mapping.
func (m *KeyMap) NaturalToKey() map[string]int64 {
	out := make(map[string]int64, len(m.keys))
	for natural, key := range m.keys {
		out[natural] = key
	}
	return out
}

// KeySet returns the reverse side of the mapping: the set of assigned
// surrogate keys, used by the integrity guards.
func (m *KeyMap) KeySet() map[int64]bool {
	out := make(map[int64]bool, len(m.keys))
	for _, key := range m.keys {
		out[key] = true
	}
	return out
}

// Dedupe drops later duplicates of an event_id, keeping input order. Staged
// events are immutable, so re-ingested copies are identical and the first
// one wins.
func Dedupe(events []staging.RawEvent) []staging.RawEvent {
	seen := make(map[string]bool, len(events))
	out := events[:0:0]
	for _, e := range events {
		if seen[e.EventID] {
			continue
		}
		seen[e.EventID] = true
		out = append(out, e)
	}
	return out
}
