package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ShopFulfillment/internal/api/messaging"
	"ShopFulfillment/pkg/correlation"

	"github.com/segmentio/kafka-go"
)

const (
	commitTimeout = 5 * time.Second
	maxFetchBytes = 10e6
)

// Consumer implements messaging.Worker using a Kafka consumer group.
// Offsets are committed synchronously after the handler returns nil.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          groupID,
		MinBytes:         1,
		MaxBytes:         maxFetchBytes,
		CommitInterval:   0,
		StartOffset:      kafka.FirstOffset,
		MaxWait:          500 * time.Millisecond,
		RebalanceTimeout: 5 * time.Second,
	})

	return &Consumer{
		reader: reader,
	}
}

// Start blocks until ctx is cancelled or fetching fails.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	cfg := c.reader.Config()
	slog.Info("Consumer started", "topic", cfg.Topic, "group_id", cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("Consumer stopped", "topic", cfg.Topic)
				return nil
			}
			slog.Error("Failed to fetch message", "topic", cfg.Topic, slog.Any("error", err))
			return err
		}

		msgCtx := withCorrelationID(ctx, msg.Headers)
		if !handle(msgCtx, msg, handler) {
			continue
		}
		c.commit(msgCtx, msg)
	}
}

// handle reports whether the message may be committed. A failed message stays
// uncommitted and is redelivered after a restart or rebalance.
func handle(ctx context.Context, msg kafka.Message, handler messaging.MessageHandler) bool {
	slog.DebugContext(ctx, "Message received",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key))

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		slog.ErrorContext(ctx, "Handler error, message not committed",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			slog.Any("error", err))
		return false
	}
	return true
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	// Processed messages are committed even while shutting down.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		// Redelivery is absorbed by the idempotent payment transition.
		slog.ErrorContext(ctx, "Failed to commit message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			slog.Any("error", err))
		return
	}

	slog.DebugContext(ctx, "Message committed",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset)
}

func (c *Consumer) Close() error {
	cfg := c.reader.Config()
	slog.Info("Closing consumer", "topic", cfg.Topic, "group_id", cfg.GroupID)
	return c.reader.Close()
}

// withCorrelationID carries the producer's correlation id into ctx, or starts
// a new one for messages published without it.
func withCorrelationID(ctx context.Context, headers []kafka.Header) context.Context {
	var id string
	for _, h := range headers {
		if h.Key == correlation.Header {
			id = string(h.Value)
			break
		}
	}
	ctx, _ = correlation.Ensure(ctx, id)
	return ctx
}
