package webhook

import (
	"context"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
)

//go:generate mockgen -source sync.go -destination mock_sync.go -package webhook

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, confirmation order.PaymentConfirmation) (order.ConfirmResult, error)
}

// SyncProcessor confirms payments in process, inside the webhook request.
type SyncProcessor struct {
	orders PaymentConfirmer
}

func NewSyncProcessor(orders PaymentConfirmer) *SyncProcessor {
	return &SyncProcessor{orders: orders}
}

func (p *SyncProcessor) ProcessPayment(ctx context.Context, confirmation order.PaymentConfirmation) (payment.AckStatus, error) {
	result, err := p.orders.ConfirmPayment(ctx, confirmation)
	if err != nil {
		return "", err
	}
	if !result.Transitioned {
		return payment.AckDuplicate, nil
	}
	return payment.AckProcessed, nil
}
