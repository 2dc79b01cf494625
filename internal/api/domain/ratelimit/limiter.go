// Package ratelimit guards token issuance with a per-client fixed window counter.
//
// Client keys come from forwarding headers that any caller can set, so the
// limiter is abuse mitigation, not a security boundary.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultWindow   = 15 * time.Minute
	DefaultCapacity = 100
)

//go:generate mockgen -source limiter.go -destination mock_store.go -package ratelimit

// Store counts requests per key. Increment starts a window with count 1 on the
// first request or once the previous window elapsed, increments while the count
// is below limit, and leaves the record untouched when the limit is reached.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, limit int) (Decision, error)
}

type Decision struct {
	Allowed bool
	// RetryAfter is the time until the current window resets.
	RetryAfter time.Duration
}

type Limiter struct {
	store    Store
	window   time.Duration
	capacity int
}

func NewLimiter(store Store, window time.Duration, capacity int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Limiter{store: store, window: window, capacity: capacity}
}

// Check counts the request. Store failures let the request through.
func (l *Limiter) Check(ctx context.Context, clientKey string) Decision {
	d, err := l.store.Increment(ctx, clientKey, l.window, l.capacity)
	if err != nil {
		slog.WarnContext(ctx, "Rate limit store unavailable, allowing request",
			"client_key", clientKey,
			slog.Any("error", err))
		return Decision{Allowed: true}
	}
	return d
}

func (l *Limiter) Allow(ctx context.Context, clientKey string) bool {
	return l.Check(ctx, clientKey).Allowed
}
