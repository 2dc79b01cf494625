package webhook

import (
	"context"
	"fmt"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/messaging"
)

// AsyncProcessor hands verified payments to the broker. Messages are keyed by
// order id so deliveries for one order are consumed in order.
type AsyncProcessor struct {
	publisher messaging.Publisher
}

func NewAsyncProcessor(publisher messaging.Publisher) *AsyncProcessor {
	return &AsyncProcessor{publisher: publisher}
}

func (p *AsyncProcessor) ProcessPayment(ctx context.Context, confirmation order.PaymentConfirmation) (payment.AckStatus, error) {
	envelope, err := messaging.NewEnvelope(confirmation.OrderID, messaging.TypePaymentSucceeded, confirmation)
	if err != nil {
		return "", fmt.Errorf("create envelope: %w", err)
	}
	if err := p.publisher.Publish(ctx, envelope); err != nil {
		return "", fmt.Errorf("publish payment %s: %w", confirmation.ProviderEventID, err)
	}
	return payment.AckQueued, nil
}
