package transform

import (
	"fmt"

	"ecommerce-warehouse/internal/staging"
)

// BuildOrderFacts resolves purchase events into fact rows. An event whose
// customer or date cannot be resolved is rejected with a reason code and the
// build continues; rejection is reporting, not failure.
func BuildOrderFacts(events []staging.RawEvent, customers map[string]int64, dates map[int64]bool) ([]OrderFact, []Rejection) {
	var facts []OrderFact
	var rejections []Rejection
	seen := make(map[string]bool)

	for _, e := range events {
		if e.EventType != staging.EventPurchase || e.OrderID == "" {
			continue
		}
		if seen[e.OrderID] {
			continue
		}
		seen[e.OrderID] = true

		customerKey, ok := customers[e.UserID]
		if !ok {
			rejections = append(rejections, Rejection{
				Table:      "fact_orders",
				NaturalKey: e.OrderID,
				Reason:     ReasonUnresolvedCustomer,
			})
			continue
		}
		dateKey := DateKey(e.OccurredAt)
		if !dates[dateKey] {
			rejections = append(rejections, Rejection{
				Table:      "fact_orders",
				NaturalKey: e.OrderID,
				Reason:     ReasonUnresolvedDate,
			})
			continue
		}

		facts = append(facts, OrderFact{
			OrderID:       e.OrderID,
			CustomerKey:   customerKey,
			DateKey:       dateKey,
			TotalAmount:   e.TotalAmount,
			ItemsCount:    e.ItemsCount,
			PaymentMethod: e.PaymentMethod,
		})
	}
	return facts, rejections
}

// BuildPageViewFacts is the page-view counterpart: customer, device, and
// date must all resolve.
func BuildPageViewFacts(events []staging.RawEvent, customers, devices map[string]int64, dates map[int64]bool) ([]PageViewFact, []Rejection) {
	var facts []PageViewFact
	var rejections []Rejection
	seen := make(map[string]bool)

	for _, e := range events {
		if e.EventType != staging.EventPageView {
			continue
		}
		if seen[e.EventID] {
			continue
		}
		seen[e.EventID] = true

		customerKey, ok := customers[e.UserID]
		if !ok {
			rejections = append(rejections, Rejection{
				Table:      "fact_page_views",
				NaturalKey: e.EventID,
				Reason:     ReasonUnresolvedCustomer,
			})
			continue
		}
		deviceKey, ok := devices[DeviceNaturalKey(e.Device, e.Browser)]
		if !ok {
			rejections = append(rejections, Rejection{
				Table:      "fact_page_views",
				NaturalKey: e.EventID,
				Reason:     ReasonUnresolvedDevice,
			})
			continue
		}
		dateKey := DateKey(e.OccurredAt)
		if !dates[dateKey] {
			rejections = append(rejections, Rejection{
				Table:      "fact_page_views",
				NaturalKey: e.EventID,
				Reason:     ReasonUnresolvedDate,
			})
			continue
		}

		facts = append(facts, PageViewFact{
			EventID:     e.EventID,
			CustomerKey: customerKey,
			DeviceKey:   deviceKey,
			DateKey:     dateKey,
			PageURL:     e.PageURL,
			SessionID:   e.SessionID,
		})
	}
	return facts, rejections
}

// ValidateOrderFacts is the last line of defense before fact rows reach the
// warehouse: every referenced surrogate key must exist in the dimension key
// sets committed this run.
func ValidateOrderFacts(facts []OrderFact, customerKeys, dateKeys map[int64]bool) error {
	for _, f := range facts {
		if !customerKeys[f.CustomerKey] {
			return fmt.Errorf("%w: order %s customer_key %d", ErrIntegrity, f.OrderID, f.CustomerKey)
		}
		if !dateKeys[f.DateKey] {
			return fmt.Errorf("%w: order %s date_key %d", ErrIntegrity, f.OrderID, f.DateKey)
		}
	}
	return nil
}

func ValidatePageViewFacts(facts []PageViewFact, customerKeys, deviceKeys, dateKeys map[int64]bool) error {
	for _, f := range facts {
		if !customerKeys[f.CustomerKey] {
			return fmt.Errorf("%w: page view %s customer_key %d", ErrIntegrity, f.EventID, f.CustomerKey)
		}
		if !deviceKeys[f.DeviceKey] {
			return fmt.Errorf("%w: page view %s device_key %d", ErrIntegrity, f.EventID, f.DeviceKey)
		}
		if !dateKeys[f.DateKey] {
			return fmt.Errorf("%w: page view %s date_key %d", ErrIntegrity, f.EventID, f.DateKey)
		}
	}
	return nil
}
