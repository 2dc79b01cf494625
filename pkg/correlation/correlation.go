// Package correlation carries a request id across HTTP, Kafka and background side effects.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// Header names the id on inbound requests, responses and Kafka messages.
const Header = "X-Correlation-ID"

type contextKey struct{}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Ensure stores id in ctx, minting a fresh one when id is empty.
func Ensure(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return WithID(ctx, id), id
}
