package utils

import (
	"strings"
	"time"
)

const (
	LayoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// NowFunc is swapped in tests.
var NowFunc = time.Now

// Today returns the current calendar date in local time.
func Today() time.Time {
	now := NowFunc().In(time.Local)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// ParseDate parses YYYY-MM-DD in local timezone.
// Full RFC3339 timestamps are accepted and truncated to the date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(LayoutDate) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			t = t.In(time.Local)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.ParseInLocation(LayoutDate, s, time.Local)
}

// FormatDate formats time to YYYY-MM-DD in local timezone.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(LayoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}

// FormatLongDate renders "2 January 2006", falling back to the raw input.
func FormatLongDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("2 January 2006")
}

// IsDate reports whether s is a valid YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	_, err := time.ParseInLocation(LayoutDate, strings.TrimSpace(s), time.Local)
	return err == nil
}
