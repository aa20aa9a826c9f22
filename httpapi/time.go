package httpapi

import "time"

// parseTime parses an RFC 3339 timestamp as used on the wire for
// KarmaCode.expires and Post.date.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
