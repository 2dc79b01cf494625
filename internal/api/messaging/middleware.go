package messaging

import (
	"context"
	"errors"
	"time"

	"ShopFulfillment/pkg/metrics"

	"github.com/cenkalti/backoff/v5"
)

const dlqPublishTimeout = 5 * time.Second

type RetryConfig struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

var (
	// ErrMaxRetriesExceeded is returned when all retry attempts fail.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrPoisonMessage marks a message that can never succeed, e.g. an undecodable payload.
	// It skips the remaining retries.
	ErrPoisonMessage = errors.New("poison message")
)

// WithRetry wraps a handler with exponential backoff + jitter retry logic.
func WithRetry(handler MessageHandler, cfg RetryConfig) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.InitialBackoff
		b.MaxInterval = cfg.MaxBackoff

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			err := handler(ctx, key, value)
			if errors.Is(err, ErrPoisonMessage) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		},
			backoff.WithBackOff(b),
			backoff.WithMaxTries(cfg.MaxAttempts),
		)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Join(ErrMaxRetriesExceeded, err)
	}
}

// DLQPublisher can publish failed messages to a dead letter queue.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// WithDLQ wraps a handler to send failed messages to DLQ after exhausting retries.
// A parked message counts as handled so the offset gets committed.
func WithDLQ(handler MessageHandler, dlq DLQPublisher) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := handler(ctx, key, value)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}

		reason := "retries_exhausted"
		if errors.Is(err, ErrPoisonMessage) {
			reason = "poison"
		}
		metrics.KafkaDeadLettered.WithLabelValues(reason).Inc()

		// Main ctx may already be cancelled during shutdown.
		dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dlqPublishTimeout)
		defer cancel()
		// Publish errors are logged by the implementation.
		_ = dlq.PublishToDLQ(dlqCtx, key, value, err)
		return nil
	}
}

// WithMetrics records processing duration and outcome per topic and consumer group.
func WithMetrics(topic, group string, handler MessageHandler) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		start := time.Now()
		err := handler(ctx, key, value)

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.KafkaProcessingDuration.WithLabelValues(topic, group, status).Observe(time.Since(start).Seconds())
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, group, status).Inc()
		return err
	}
}
