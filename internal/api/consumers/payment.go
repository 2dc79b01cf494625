package consumers

import (
	"context"
	"log/slog"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/messaging"
)

// PaymentMessageController applies payment confirmations consumed from Kafka.
type PaymentMessageController struct {
	processor payment.Processor
}

func NewPaymentMessageController(p payment.Processor) *PaymentMessageController {
	return &PaymentMessageController{processor: p}
}

// HandleMessage returns an error for anything that should be retried and
// eventually parked in the DLQ, including orders that never became visible.
func (c *PaymentMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	env, err := messaging.ParseEnvelope(value)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping undecodable message", "key", string(key), slog.Any("error", err))
		return err
	}

	if env.Type != messaging.TypePaymentSucceeded {
		slog.WarnContext(ctx, "Skipping message of unknown type",
			"event_id", env.EventID,
			"type", env.Type)
		return nil
	}

	var confirmation order.PaymentConfirmation
	if err := env.Decode(&confirmation); err != nil {
		slog.ErrorContext(ctx, "Dropping undecodable payment", "event_id", env.EventID, slog.Any("error", err))
		return err
	}

	status, err := c.processor.ProcessPayment(ctx, confirmation)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process payment message",
			"event_id", env.EventID,
			"order_id", confirmation.OrderID,
			"provider_event_id", confirmation.ProviderEventID,
			slog.Any("error", err))
		return err
	}

	slog.InfoContext(ctx, "Payment message processed",
		"event_id", env.EventID,
		"order_id", confirmation.OrderID,
		"status", string(status))
	return nil
}
