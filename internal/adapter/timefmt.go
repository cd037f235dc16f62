package adapter

import (
	"fmt"
	"strings"
	"time"
)

// UnknownTime is shown when a timestamp is missing or unreadable.
const UnknownTime = "Unknown"

// absoluteDateLayout renders dates a week or more old (e.g. 3/14/2024).
const absoluteDateLayout = "1/2/2006"

// timestampLayouts are tried in order. Zone-less forms come from the
// backend's naive isoformat() and are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FormatRelativeTime renders received_at relative to the current time.
func FormatRelativeTime(receivedAt *string) string {
	return FormatRelativeTimeAt(receivedAt, time.Now())
}

// FormatRelativeTimeAt renders receivedAt relative to now.
func FormatRelativeTimeAt(receivedAt *string, now time.Time) string {
	if receivedAt == nil {
		return UnknownTime
	}
	t, ok := ParseTimestamp(*receivedAt)
	if !ok {
		return UnknownTime
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.In(now.Location()).Format(absoluteDateLayout)
	}
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the forms the
// backend emits.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
