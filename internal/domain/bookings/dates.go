package bookings

import "time"

// Rental ranges are inclusive calendar dates. Boundaries are normalized to
// day granularity in UTC before any comparison so time-of-day noise in the
// stored values never changes an overlap verdict.

// DayStart truncates t to 00:00:00 UTC of its calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd moves t to the last instant of its calendar day in UTC.
func DayEnd(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// RangesOverlap reports whether the inclusive ranges [a1,a2] and [b1,b2]
// share at least one day: a1 <= b2 && b1 <= a2.
func RangesOverlap(a1, a2, b1, b2 time.Time) bool {
	a1, a2 = DayStart(a1), DayEnd(a2)
	b1, b2 = DayStart(b1), DayEnd(b2)
	return !a1.After(b2) && !b1.After(a2)
}

// RentalDays counts the days in the inclusive range [start,end], both
// endpoints counted, never less than 1.
func RentalDays(start, end time.Time) int64 {
	days := int64(DayStart(end).Sub(DayStart(start))/(24*time.Hour)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// ValidRange reports whether start/end form a bookable range: both set,
// start not after end, and the range not entirely in the past relative to
// now (day-granular).
func ValidRange(start, end, now time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	s, e := DayStart(start), DayStart(end)
	if s.After(e) {
		return false
	}
	return !s.Before(DayStart(now))
}
