package payment

import (
	"strings"
	"time"

	"ShopFulfillment/internal/api/domain/order"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

// Metadata keys the checkout flow attaches to the provider session.
const (
	MetadataEmail   = "email"
	MetadataOrderID = "orderId"
)

// Event is a verified provider notification reduced to what fulfillment needs.
type Event struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
	Created  time.Time         `json:"created"`
}

func (e Event) IsPaymentSuccess() bool {
	return e.Type == EventCheckoutSessionCompleted || e.Type == EventPaymentIntentSucceeded
}

func (e Event) Email() string {
	return strings.TrimSpace(e.Metadata[MetadataEmail])
}

func (e Event) OrderID() string {
	return strings.TrimSpace(e.Metadata[MetadataOrderID])
}

// Confirmation converts the event into the lifecycle command.
func (e Event) Confirmation() order.PaymentConfirmation {
	return order.PaymentConfirmation{
		ProviderEventID: e.ID,
		EventType:       e.Type,
		OrderID:         e.OrderID(),
		Email:           e.Email(),
	}
}

// AckStatus describes how an accepted delivery was handled.
type AckStatus string

const (
	AckProcessed              AckStatus = "processed"
	AckDuplicate              AckStatus = "duplicate"
	AckQueued                 AckStatus = "queued"
	AckIgnored                AckStatus = "ignored"
	AckReconciliationRequired AckStatus = "reconciliation_required"
)

type Ack struct {
	EventID string    `json:"event_id,omitempty"`
	Status  AckStatus `json:"status"`
}
