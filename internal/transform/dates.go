package transform

import (
	"time"

	"ecommerce-warehouse/internal/staging"
)

// DateKey returns the calendar dimension key for a timestamp: the YYYYMMDD
// smart key of its UTC date. Derivable, stable, and never reused, so no
// counter needs persisting for this dimension.
func DateKey(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// NewDateRow derives every calendar attribute from the date alone.
func NewDateRow(date time.Time) DateRow {
	y, m, d := date.Date()
	_, week := date.ISOWeek()
	wd := date.Weekday()
	return DateRow{
		Key:       DateKey(date),
		FullDate:  date,
		Year:      y,
		Quarter:   (int(m) + 2) / 3,
		Month:     int(m),
		Week:      week,
		Day:       d,
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
	}
}

// BuildDates emits a row for every date in the inclusive [min, max] range of
// observed event timestamps that the dimension does not already cover. The
// dimension only ever grows.
func BuildDates(events []staging.RawEvent, existing map[int64]bool) []DateRow {
	if len(events) == 0 {
		return nil
	}

	min, max := events[0].OccurredAt, events[0].OccurredAt
	for _, e := range events[1:] {
		if e.OccurredAt.Before(min) {
			min = e.OccurredAt
		}
		if e.OccurredAt.After(max) {
			max = e.OccurredAt
		}
	}

	minY, minM, minD := min.UTC().Date()
	maxY, maxM, maxD := max.UTC().Date()
	start := time.Date(minY, minM, minD, 0, 0, 0, 0, time.UTC)
	end := time.Date(maxY, maxM, maxD, 0, 0, 0, 0, time.UTC)

	var rows []DateRow
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if existing[DateKey(date)] {
			continue
		}
		rows = append(rows, NewDateRow(date))
	}
	return rows
}
