package payment

import (
	"context"

	"ShopFulfillment/internal/api/domain/order"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package payment

// Verifier authenticates a raw provider payload against its signature header.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}

// Processor forwards a payment confirmation to the lifecycle manager,
// either in process or through the message broker.
type Processor interface {
	ProcessPayment(ctx context.Context, confirmation order.PaymentConfirmation) (AckStatus, error)
}
