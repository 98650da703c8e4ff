package models

import (
	"strings"
	"time"
)

// DateLayout is the on-disk format of date_added and read_date
const DateLayout = "2006-01-02"

// FormatDate renders t as a catalog date string
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the current local date as a catalog date string
func Today() string {
	return FormatDate(time.Now())
}

// ParseDate parses a catalog date string
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, NewValidationError("date", "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
