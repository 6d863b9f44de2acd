package transform

import (
	"sort"

	"ecommerce-warehouse/internal/staging"
)

// DeviceNaturalKey is the composite natural key for a device row. Neither
// field may contain '|' (the staging vocabulary is closed words like
// "mobile" and "Chrome").
func DeviceNaturalKey(deviceType, browser string) string {
	return deviceType + "|" + browser
}

// BuildDevices returns rows for (device_type, browser) pairs not yet in the
// dimension. Known pairs are never re-keyed and have no mutable attributes,
// so nothing is emitted for them.
func BuildDevices(events []staging.RawEvent, existing *KeyMap) []DeviceRow {
	type pair struct{ deviceType, browser string }
	fresh := make(map[string]pair)
	for _, e := range events {
		if e.EventType != staging.EventPageView || e.Device == "" || e.Browser == "" {
			continue
		}
		natural := DeviceNaturalKey(e.Device, e.Browser)
		if _, known := existing.Lookup(natural); known {
			continue
		}
		fresh[natural] = pair{deviceType: e.Device, browser: e.Browser}
	}

	naturals := make([]string, 0, len(fresh))
	for natural := range fresh {
		naturals = append(naturals, natural)
	}
	sort.Strings(naturals)

	rows := make([]DeviceRow, 0, len(naturals))
	for _, natural := range naturals {
		p := fresh[natural]
		rows = append(rows, DeviceRow{
			Key:        existing.Mint(natural),
			DeviceType: p.deviceType,
			Browser:    p.browser,
		})
	}
	return rows
}
