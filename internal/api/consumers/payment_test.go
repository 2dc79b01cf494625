package consumers

import (
	"context"
	"encoding/json"
	"testing"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func envelope(t *testing.T, msgType string, payload any) []byte {
	t.Helper()

	env, err := messaging.NewEnvelope("order-1", msgType, payload)
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return value
}

func TestPaymentMessageController_HandleMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	confirmation := order.PaymentConfirmation{ProviderEventID: "evt_1", OrderID: "order-1", Email: "buyer@example.com"}

	t.Run("should confirm the payment", func(t *testing.T) {
		processor := payment.NewMockProcessor(gomock.NewController(t))
		processor.EXPECT().ProcessPayment(ctx, confirmation).Return(payment.AckProcessed, nil)

		err := NewPaymentMessageController(processor).HandleMessage(ctx, []byte("order-1"), envelope(t, messaging.TypePaymentSucceeded, confirmation))

		assert.NoError(t, err)
	})

	t.Run("should return errors so the message is retried", func(t *testing.T) {
		processor := payment.NewMockProcessor(gomock.NewController(t))
		processor.EXPECT().ProcessPayment(ctx, confirmation).Return(payment.AckStatus(""), order.ErrReconciliationRequired)

		err := NewPaymentMessageController(processor).HandleMessage(ctx, []byte("order-1"), envelope(t, messaging.TypePaymentSucceeded, confirmation))

		assert.ErrorIs(t, err, order.ErrReconciliationRequired)
	})

	t.Run("should mark undecodable envelopes as poison", func(t *testing.T) {
		processor := payment.NewMockProcessor(gomock.NewController(t))

		err := NewPaymentMessageController(processor).HandleMessage(ctx, []byte("order-1"), []byte("{"))

		assert.ErrorIs(t, err, messaging.ErrPoisonMessage)
	})

	t.Run("should mark undecodable payloads as poison", func(t *testing.T) {
		processor := payment.NewMockProcessor(gomock.NewController(t))

		err := NewPaymentMessageController(processor).HandleMessage(ctx, []byte("order-1"), envelope(t, messaging.TypePaymentSucceeded, "not an object"))

		assert.ErrorIs(t, err, messaging.ErrPoisonMessage)
	})

	t.Run("should skip unknown message types", func(t *testing.T) {
		processor := payment.NewMockProcessor(gomock.NewController(t))

		err := NewPaymentMessageController(processor).HandleMessage(ctx, []byte("order-1"), envelope(t, "payment.refunded", confirmation))

		assert.NoError(t, err)
	})
}
