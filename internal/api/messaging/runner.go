package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Runner drives the members of one consumer group. The first member to fail
// stops the others; every member is closed on the way out.
type Runner struct {
	handler MessageHandler
	workers []Worker
}

func NewRunner(handler MessageHandler, workers ...Worker) *Runner {
	return &Runner{
		handler: handler,
		workers: workers,
	}
}

func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i, w := range r.workers {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Consumer panicked", "member", i, "panic", rec, "stack", string(debug.Stack()))
					err = fmt.Errorf("consumer %d panicked: %v", i, rec)
				}
				if cerr := w.Close(); cerr != nil {
					slog.Error("Failed to close consumer", "member", i, slog.Any("error", cerr))
				}
			}()
			return w.Start(ctx, r.handler)
		})
	}

	return g.Wait()
}
