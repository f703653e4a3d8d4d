// Package timebucket provides UTC calendar truncation and stepping for the
// engagement histories and stats series. All functions are pure and operate
// in UTC regardless of the input's location, since stored history values are
// UTC-truncated.
package timebucket

import "time"

// Granularity selects the calendar unit a bucket covers.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Month truncates t to the first day of its month, midnight UTC.
func Month(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Year truncates t to January 1st of its year, midnight UTC.
func Year(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Truncate applies the truncation matching g.
func Truncate(t time.Time, g Granularity) time.Time {
	switch g {
	case Monthly:
		return Month(t)
	case Yearly:
		return Year(t)
	default:
		return Day(t)
	}
}

// Step moves t by delta buckets of granularity g. Month and year steps clamp
// the day-of-month to the target month's length, so Jan 31 + 1 month lands on
// the last day of February rather than overflowing into March.
func Step(t time.Time, g Granularity, delta int) time.Time {
	switch g {
	case Monthly:
		return addMonths(t.UTC(), delta)
	case Yearly:
		return addMonths(t.UTC(), delta*12)
	default:
		return t.UTC().AddDate(0, 0, delta)
	}
}

func addMonths(t time.Time, delta int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 + delta
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysIn(year, time.Month(month+1)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// daysIn returns the number of days in the given month; day zero of the
// following month is that month's last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
