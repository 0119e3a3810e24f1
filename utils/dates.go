// utils/dates.go
package utils

import "time"

// DayStart truncates a time to UTC midnight. Every daily record and
// idempotency key is keyed on this value.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// DayKey formats a UTC calendar day as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey formats a UTC calendar month as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthStart parses a YYYY-MM key into the first instant of that month.
func MonthStart(key string) (time.Time, error) {
	return time.Parse("2006-01", key)
}
