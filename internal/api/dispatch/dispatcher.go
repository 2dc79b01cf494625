// Package dispatch runs best-effort side effects (emails, token issuance,
// audit mirroring) outside the request that triggered them.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"ShopFulfillment/pkg/metrics"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultMaxConcurrent = 32
)

// Dispatcher detaches side effects from the caller's cancellation. Failures are
// logged and counted, never returned. At most maxConcurrent side effects run at
// once; the rest wait for a slot inside their own timeout.
type Dispatcher struct {
	wg      conc.WaitGroup
	slots   *semaphore.Weighted
	timeout time.Duration
}

type Option func(*Dispatcher)

func WithMaxConcurrent(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

func New(timeout time.Duration, opts ...Option) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{
		timeout: timeout,
		slots:   semaphore.NewWeighted(DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	// keeps correlation id and other values, drops the request deadline
	detached := context.WithoutCancel(ctx)

	d.wg.Go(func() {
		runCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := d.slots.Acquire(runCtx, 1); err != nil {
			metrics.SideEffects.WithLabelValues(name, "failed").Inc()
			slog.ErrorContext(runCtx, "Side effect timed out waiting for a slot", "side_effect", name, slog.Any("error", err))
			return
		}
		defer d.slots.Release(1)

		if err := run(runCtx, fn); err != nil {
			metrics.SideEffects.WithLabelValues(name, "failed").Inc()
			slog.ErrorContext(runCtx, "Side effect failed", "side_effect", name, slog.Any("error", err))
			return
		}
		metrics.SideEffects.WithLabelValues(name, "succeeded").Inc()
		slog.DebugContext(runCtx, "Side effect completed", "side_effect", name)
	})
}

func run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Wait blocks until every dispatched side effect has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("side effects still running: %w", ctx.Err())
	}
}
