package service

import "time"

// IsActive reports whether a subscription with the given expiry is active
// at the given time. An absent expiry is never active; an expiry exactly
// equal to now is already expired.
func IsActive(expiry *time.Time, now time.Time) bool {
	return expiry != nil && expiry.After(now)
}

// RemainingDays returns the number of whole days until expiry, rounding
// partial days up: a subscriber with 12 hours left is reported as 1 day,
// never 0. Returns 0 for absent or lapsed expiries, never negative.
func RemainingDays(expiry *time.Time, now time.Time) int {
	if expiry == nil {
		return 0
	}
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// AddMonths adds n calendar months to t. When the day-of-month would
// overflow the target month (for example Jan 31 + 1 month), the day is
// clamped to the last valid day of the target month rather than rolling
// into the following month.
func AddMonths(t time.Time, n int) time.Time {
	anchor := time.Date(t.Year(), t.Month()+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	day := t.Day()
	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}

	return time.Date(anchor.Year(), anchor.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
// Day 0 of the next month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
