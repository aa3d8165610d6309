package scheduling

import (
	"time"

	"github.com/jonathan/cleanops/internal/db"
)

// Batch bounds applied when the caller does not configure them.
const (
	DefaultMaxBatch    = 52
	DefaultHorizonDays = 365
)

// intervalDays returns the fixed step for day-based frequencies and 0 for monthly.
func intervalDays(f db.Frequency) int {
	switch f {
	case db.FrequencyDaily:
		return 1
	case db.FrequencyWeekly:
		return 7
	case db.FrequencyBiWeekly:
		return 14
	}
	return 0
}

// AddMonthsClamped returns the date n calendar months after anchor, keeping the
// anchor's day of month but clamping it to the last day of shorter months. Always
// computing from the anchor means Jan 31 yields Feb 29 then Mar 31.
func AddMonthsClamped(anchor db.Date, n int) db.Date {
	y, m, d := anchor.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return db.NewDate(first.Year(), first.Month(), d)
}

// occurrence returns the k-th occurrence (k >= 0) of a definition.
func occurrence(def *db.RecurringJob, k int) db.Date {
	if step := intervalDays(def.Frequency); step > 0 {
		return def.StartDate.AddDays(k * step)
	}
	return AddMonthsClamped(def.StartDate, k)
}

// firstIndexOnOrAfter returns the smallest k whose occurrence is not before from.
func firstIndexOnOrAfter(def *db.RecurringJob, from db.Date) int {
	if !from.After(def.StartDate) {
		return 0
	}
	var k int
	if step := intervalDays(def.Frequency); step > 0 {
		days := int(from.Sub(def.StartDate.Time).Hours() / 24)
		k = days / step
	} else {
		sy, sm, _ := def.StartDate.Date()
		fy, fm, _ := from.Date()
		k = (fy-sy)*12 + int(fm-sm) - 1
		if k < 0 {
			k = 0
		}
	}
	for occurrence(def, k).Before(from) {
		k++
	}
	return k
}

// Occurrences lists the dates a definition produces on or after from, bounded by
// the definition's end date (inclusive), by limit and by a window of horizonDays
// counted from the first returned date. A non-positive limit or horizon disables
// that bound; the end date or one of the other bounds must be set.
func Occurrences(def *db.RecurringJob, from db.Date, limit, horizonDays int) []db.Date {
	if !def.Frequency.Valid() {
		return nil
	}
	if limit <= 0 && horizonDays <= 0 && def.EndDate == nil {
		limit = DefaultMaxBatch
	}

	var dates []db.Date
	var windowEnd db.Date
	for k := firstIndexOnOrAfter(def, from); ; k++ {
		d := occurrence(def, k)
		if def.EndDate != nil && d.After(*def.EndDate) {
			break
		}
		if len(dates) == 0 {
			windowEnd = d.AddDays(horizonDays)
		} else if horizonDays > 0 && !d.Before(windowEnd) {
			break
		}
		if limit > 0 && len(dates) >= limit {
			break
		}
		dates = append(dates, d)
	}
	return dates
}
