package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -source event_sink.go -destination mock_event_sink.go -package order

// EventSink is the append-only audit trail of order transitions.
type EventSink interface {
	// CreateOrderEvent returns ErrEventAlreadyStored when the
	// (order_id, kind, provider_event_id) triple was recorded before.
	CreateOrderEvent(ctx context.Context, event NewOrderEvent) (*OrderEvent, error)
	GetOrderEvents(ctx context.Context, query OrderEventQuery) (OrderEventPage, error)
}

type OrderEventKind string

const (
	OrderEventCreated             OrderEventKind = "created"
	OrderEventPaymentSucceeded    OrderEventKind = "payment_succeeded"
	OrderEventShipped             OrderEventKind = "shipped"
	OrderEventShipmentAmended     OrderEventKind = "shipment_amended"
	OrderEventDownloadTokenIssued OrderEventKind = "download_token_issued"
)

func (k OrderEventKind) Known() bool {
	switch k {
	case OrderEventCreated, OrderEventPaymentSucceeded, OrderEventShipped,
		OrderEventShipmentAmended, OrderEventDownloadTokenIssued:
		return true
	}
	return false
}

type NewOrderEvent struct {
	OrderID         string          `json:"order_id"`
	Kind            OrderEventKind  `json:"kind"`
	ProviderEventID string          `json:"provider_event_id"`
	Data            json.RawMessage `json:"data"`
	CreatedAt       time.Time       `json:"created_at"`
}

type OrderEvent struct {
	EventID string `json:"event_id"`
	NewOrderEvent
}

type OrderEventPage struct {
	Items      []OrderEvent `json:"items"`
	NextCursor string       `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

// OrderEventQuery filters the audit trail. Zero Limit means the store default.
type OrderEventQuery struct {
	OrderIDs []string         `json:"order_ids" url:"order_ids" form:"order_ids,omitempty"`
	Kinds    []OrderEventKind `json:"kinds" url:"kinds" form:"kinds,omitempty"`

	TimeFrom *time.Time `json:"time_from,omitempty" url:"time_from,omitempty" form:"time_from,omitempty"`
	TimeTo   *time.Time `json:"time_to,omitempty" url:"time_to,omitempty" form:"time_to,omitempty"`

	Limit   int    `json:"limit" url:"limit" form:"limit"`
	Cursor  string `json:"cursor" url:"cursor" form:"cursor"`
	SortAsc bool   `json:"sort_asc" url:"sort_asc" form:"sort_asc"`
}

func (q OrderEventQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidQuery)
	}
	for _, k := range q.Kinds {
		if !k.Known() {
			return fmt.Errorf("%w: unknown event kind %q", ErrInvalidQuery, k)
		}
	}
	if q.TimeFrom != nil && q.TimeTo != nil && !q.TimeFrom.Before(*q.TimeTo) {
		return fmt.Errorf("%w: time_from must be before time_to", ErrInvalidQuery)
	}
	return nil
}

func newEvent(orderID string, kind OrderEventKind, providerEventID string, data any, at time.Time) NewOrderEvent {
	payload, _ := json.Marshal(data)
	return NewOrderEvent{
		OrderID:         orderID,
		Kind:            kind,
		ProviderEventID: providerEventID,
		Data:            payload,
		CreatedAt:       at,
	}
}
