package ratelimit

import (
	"net/http"
	"strings"
)

const UnknownClient = "unknown"

// ClientKey derives the limiter key from forwarding headers in a fixed order:
// X-Forwarded-For (first hop), X-Real-IP, CF-Connecting-IP.
func ClientKey(h http.Header) string {
	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	for _, name := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return UnknownClient
}
