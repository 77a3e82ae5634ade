package utils

import (
	"strings"
	"time"
)

// DisplayTimeLayout is the layout used when showing upstream timestamps.
const DisplayTimeLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp rewrites an ISO-8601 timestamp (a trailing Z is accepted)
// into DisplayTimeLayout. Anything it cannot parse is returned unchanged.
func FormatTimestamp(ts string) string {
	s := strings.TrimSpace(ts)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DisplayTimeLayout)
		}
	}
	return ts
}
