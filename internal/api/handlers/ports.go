package handlers

import (
	"context"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/domain/ratelimit"
	"ShopFulfillment/internal/api/domain/token"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package handlers

type OrderService interface {
	CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error)
	GetOrderByID(ctx context.Context, id string) (order.Order, error)
	GetOrders(ctx context.Context, query order.OrdersQuery) ([]order.Order, error)
	GetEvents(ctx context.Context, query order.OrderEventQuery) (order.OrderEventPage, error)
	AssignTracking(ctx context.Context, orderID string, request order.AssignTrackingRequest) (order.Order, error)
	AmendShipment(ctx context.Context, orderID string, request order.AmendShipmentRequest) (order.Order, error)
}

type TokenService interface {
	Issue(ctx context.Context, request token.IssueRequest) (token.Issued, error)
	Begin(ctx context.Context, value string) (token.Token, error)
	Complete(ctx context.Context, value string) error
}

type RateLimiter interface {
	Check(ctx context.Context, clientKey string) ratelimit.Decision
}

type WebhookIngestor interface {
	HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) (payment.Ack, error)
}
