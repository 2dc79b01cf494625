package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ShopFulfillment/internal/api/messaging"
	"ShopFulfillment/pkg/correlation"

	"github.com/segmentio/kafka-go"
)

const (
	headerMessageType = "message_type"

	// Webhook requests wait on the write, so batches flush almost at once.
	writeBatchTimeout = 10 * time.Millisecond
)

// newWriter hashes on the message key: all messages of one order share a partition.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: writeBatchTimeout,
	}
}

func withCorrelationHeader(ctx context.Context, headers []kafka.Header) []kafka.Header {
	if id := correlation.FromContext(ctx); id != "" {
		headers = append(headers, kafka.Header{Key: correlation.Header, Value: []byte(id)})
	}
	return headers
}

// Publisher queues payment confirmations on the payments topic.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: newWriter(brokers, topic)}
}

func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	msg, err := envelopeMessage(ctx, env)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish message",
			"topic", p.writer.Topic,
			"key", env.Key,
			"type", env.Type,
			slog.Any("error", err))
		return fmt.Errorf("write to %s: %w", p.writer.Topic, err)
	}

	slog.DebugContext(ctx, "Message published",
		"topic", p.writer.Topic,
		"key", env.Key,
		"event_id", env.EventID,
		"type", env.Type)
	return nil
}

func envelopeMessage(ctx context.Context, env messaging.Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}

	return kafka.Message{
		Key:     []byte(env.Key),
		Value:   value,
		Headers: withCorrelationHeader(ctx, []kafka.Header{{Key: headerMessageType, Value: []byte(env.Type)}}),
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
