package util

import (
	"fmt"
	"time"
)

const (
	// DateFormat is the storage format for purchase and event dates.
	DateFormat = "2006-01-02"

	// DateTimeFormat is the display format for timestamps.
	DateTimeFormat = "2006-01-02 15:04"
)

// Clock supplies the current time. Services take a Clock so tests can pin dates.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// FormatDate formats a time as a date string.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// FormatDateTime formats a time for display in the local zone.
func FormatDateTime(t time.Time) string {
	return t.Local().Format(DateTimeFormat)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight of the given day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole number of days from one date to another.
// Negative when to is before from.
func DaysUntil(from, to time.Time) int {
	from = StartOfDay(from)
	to = StartOfDay(to)
	return int(to.Sub(from).Hours() / 24)
}

// RelativeDayString describes an event date relative to today.
func RelativeDayString(date, now time.Time) string {
	days := DaysUntil(now, date)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1 && days < 14:
		return fmt.Sprintf("in %d days", days)
	case days >= 14:
		return fmt.Sprintf("in %d weeks", days/7)
	case days < -1 && days > -14:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("%d weeks ago", -days/7)
	}
}
