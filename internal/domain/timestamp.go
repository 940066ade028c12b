package domain

import "time"

// TimestampLayout is the wire format for instants sent to the server:
// UTC, millisecond precision, literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
