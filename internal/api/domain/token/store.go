package token

import (
	"context"
	"time"
)

//go:generate mockgen -source store.go -destination mock_store.go -package token

// Store persists download tokens. MarkCompleted must be an atomic conditional
// update: of any number of concurrent callers exactly one observes true.
type Store interface {
	Create(ctx context.Context, t Token) error
	// Get returns ErrNotFound for unknown tokens.
	Get(ctx context.Context, token string) (Token, error)
	// MarkStarted sets started and keeps the first started_at.
	MarkStarted(ctx context.Context, token string, at time.Time) error
	// MarkCompleted flips completed false->true on an unpurged token.
	MarkCompleted(ctx context.Context, token string, at time.Time) (bool, error)
	// Purge nulls the file paths of an unconsumed token and clears the order pointer.
	Purge(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
