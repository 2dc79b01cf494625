package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	headerError         = "error"
	headerFailedAt      = "failed_at"
	headerOriginalTopic = "original_topic"
)

// DLQPublisher parks messages that exhausted their retries, e.g. payments for
// orders that never became visible and need manual reconciliation.
type DLQPublisher struct {
	writer      *kafka.Writer
	sourceTopic string
	now         func() time.Time
}

func NewDLQPublisher(brokers []string, sourceTopic, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{
		writer:      newWriter(brokers, dlqTopic),
		sourceTopic: sourceTopic,
		now:         time.Now,
	}
}

func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	msg := dlqMessage(ctx, key, value, err, p.sourceTopic, p.now())

	if writeErr := p.writer.WriteMessages(ctx, msg); writeErr != nil {
		slog.ErrorContext(ctx, "Failed to publish to DLQ",
			"topic", p.writer.Topic,
			"key", string(key),
			slog.Any("error", writeErr),
			slog.Any("original_error", err))
		return writeErr
	}

	slog.WarnContext(ctx, "Message sent to DLQ",
		"topic", p.writer.Topic,
		"key", string(key),
		slog.Any("error", err))
	return nil
}

func dlqMessage(ctx context.Context, key, value []byte, err error, sourceTopic string, at time.Time) kafka.Message {
	headers := []kafka.Header{
		{Key: headerError, Value: []byte(err.Error())},
		{Key: headerFailedAt, Value: []byte(at.UTC().Format(time.RFC3339))},
		{Key: headerOriginalTopic, Value: []byte(sourceTopic)},
	}
	return kafka.Message{
		Key:     key,
		Value:   value,
		Headers: withCorrelationHeader(ctx, headers),
	}
}

func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
