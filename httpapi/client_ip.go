package httpapi

import (
	"net/http"
	"strings"
)

// clientIP resolves the reporting IP for a moderation report: the first
// hop of X-Forwarded-For, else X-Real-IP, else "unknown" (spec.md §3).
// Both headers are trusted as sent: no check is made that the request
// arrived through a trusted proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	return "unknown"
}
