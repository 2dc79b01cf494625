package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"ShopFulfillment/internal/api/messaging"
	"ShopFulfillment/pkg/correlation"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestWithCorrelationID(t *testing.T) {
	t.Parallel()

	t.Run("should reuse the producer id", func(t *testing.T) {
		ctx := withCorrelationID(context.Background(), []kafka.Header{
			{Key: "other", Value: []byte("x")},
			{Key: correlation.Header, Value: []byte("corr-1")},
		})

		assert.Equal(t, "corr-1", correlation.FromContext(ctx))
	})

	t.Run("should start a new id when the header is missing", func(t *testing.T) {
		ctx := withCorrelationID(context.Background(), nil)

		assert.NotEmpty(t, correlation.FromContext(ctx))
	})
}

func TestHandle(t *testing.T) {
	t.Parallel()

	msg := kafka.Message{Topic: "webhooks.payments", Key: []byte("order-1"), Value: []byte("{}")}

	t.Run("should commit handled messages", func(t *testing.T) {
		var gotKey string
		ok := handle(context.Background(), msg, func(_ context.Context, key, _ []byte) error {
			gotKey = string(key)
			return nil
		})

		assert.True(t, ok)
		assert.Equal(t, "order-1", gotKey)
	})

	t.Run("should keep failed messages uncommitted", func(t *testing.T) {
		ok := handle(context.Background(), msg, func(context.Context, []byte, []byte) error {
			return errors.New("boom")
		})

		assert.False(t, ok)
	})
}

func TestDLQMessage(t *testing.T) {
	t.Parallel()

	// given
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := correlation.WithID(context.Background(), "corr-1")

	// when
	msg := dlqMessage(ctx, []byte("order-1"), []byte(`{"type":"payment.succeeded"}`), errors.New("reconciliation required"), "webhooks.payments", at)

	// then
	require.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, "reconciliation required", header(msg, headerError))
	assert.Equal(t, "2025-06-01T09:00:00Z", header(msg, headerFailedAt))
	assert.Equal(t, "webhooks.payments", header(msg, headerOriginalTopic))
	assert.Equal(t, "corr-1", header(msg, correlation.Header))
}

func TestEnvelopeMessage(t *testing.T) {
	t.Parallel()

	// given
	env, err := messaging.NewEnvelope("order-1", messaging.TypePaymentSucceeded, map[string]string{"provider_event_id": "evt_1"})
	require.NoError(t, err)

	// when
	msg, err := envelopeMessage(correlation.WithID(context.Background(), "corr-2"), env)

	// then
	require.NoError(t, err)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, messaging.TypePaymentSucceeded, header(msg, headerMessageType))
	assert.Equal(t, "corr-2", header(msg, correlation.Header))

	decoded, err := messaging.ParseEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
}
