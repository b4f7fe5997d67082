package util

import (
	"strconv"
	"time"
)

// ParseUintOrZero converts a string to an unsigned integer, returning 0 when
// parsing fails. 0 is never a valid record id, so a garbage path parameter
// resolves to not-found.
func ParseUintOrZero(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// FormatPresensiTime renders a timestamp in the configured attendance zone
// using the canonical wire layout, e.g. "2024-01-01 08:00:00+07:00".
func FormatPresensiTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04:05-07:00")
}

// FormatPresensiTimePtr is FormatPresensiTime for nullable timestamps.
func FormatPresensiTimePtr(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := FormatPresensiTime(*t, loc)
	return &s
}

// FormatClock renders just the wall-clock portion, used in greetings.
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04:05")
}
