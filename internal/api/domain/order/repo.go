package order

import (
	"context"
	"time"
)

//go:generate mockgen -source repo.go -destination mock_repo.go -package order

type OrderRepo interface {
	TxOrderRepo
	InTransaction(ctx context.Context, fn func(repo TxOrderRepo) error) error
}

// TxOrderRepo is the Order Store. Every state change is a conditional update:
// the bool result is false when the guard did not match and nothing was written.
type TxOrderRepo interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrders(ctx context.Context, filter *OrdersQuery) ([]Order, error)

	// SetPaymentStatusIf moves payment status from -> to only if it is currently from.
	// Reaching PaymentSucceeded also moves fulfillment from awaiting_payment to paid.
	SetPaymentStatusIf(ctx context.Context, orderID string, from, to PaymentStatus, at time.Time) (bool, error)
	// AssignTracking ships a paid, not yet shipped order.
	AssignTracking(ctx context.Context, orderID, trackingNumber string, at time.Time) (bool, error)
	// AmendTracking replaces the tracking number of a shipped order.
	AmendTracking(ctx context.Context, orderID, trackingNumber string, at time.Time) (bool, error)

	CreateEvent(ctx context.Context, event NewOrderEvent) error
}
