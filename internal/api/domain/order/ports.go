package order

import (
	"context"
	"time"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package order

// Notifier delivers customer emails. Calls are best-effort.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error
	SendShipmentNotice(ctx context.Context, notice ShipmentNotice) error
}

type OrderConfirmation struct {
	Order    Order
	Download *DownloadGrant
}

type ShipmentNotice struct {
	OrderID        string
	Email          string
	TrackingNumber string
	Amended        bool
}

// Key identifies a notice for downstream deduplication.
func (n ShipmentNotice) Key() string {
	return n.OrderID + ":" + n.TrackingNumber
}

type DownloadGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EntitlementIssuer grants download access to the digital items of a paid order.
type EntitlementIssuer interface {
	IssueForOrder(ctx context.Context, orderID string, filePaths []string) (DownloadGrant, error)
}

// PointerValidator reports whether a download token referenced by an order is still usable.
type PointerValidator interface {
	IsLive(ctx context.Context, token string) (bool, error)
}

type EventMirror interface {
	MirrorOrderEvent(ctx context.Context, event NewOrderEvent) error
}

// Dispatcher runs fire-and-forget work detached from the caller.
type Dispatcher interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}
