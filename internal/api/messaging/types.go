package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypePaymentSucceeded carries an order.PaymentConfirmation.
const TypePaymentSucceeded = "payment.succeeded"

// Envelope is the wire form of every payments topic message. Key is the
// order id, so one order's deliveries share a partition.
type Envelope struct {
	EventID   string          `json:"event_id"`
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewEnvelope(key, msgType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:   id.String(),
		Key:       key,
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// ParseEnvelope reports undecodable bytes as ErrPoisonMessage.
func ParseEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrPoisonMessage, err)
	}
	return env, nil
}

// Decode unmarshals the payload, reporting failures as ErrPoisonMessage.
func (e Envelope) Decode(into any) error {
	if err := json.Unmarshal(e.Payload, into); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrPoisonMessage, e.Type, err)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker is one consumer group member.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
