package schema

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// FormatDate renders the calendar date of t in t's own location, so a date
// picked in one zone reads back identically in any other.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// NormalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date as written. Empty input yields an empty string.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return FormatDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}
