package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ShopFulfillment/internal/api/domain/payment"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier checks Stripe-Signature headers and decodes the event metadata.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
	}
}

type eventObject struct {
	Metadata map[string]string `json:"metadata"`
}

func (v *Verifier) Verify(payload []byte, signatureHeader string) (payment.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return payment.Event{}, fmt.Errorf("%w: %v", payment.ErrSignatureInvalid, err)
		}
		return payment.Event{}, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
	}

	var object eventObject
	if event.Data != nil && len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return payment.Event{}, fmt.Errorf("%w: decode %s object: %v", payment.ErrMalformedEvent, event.Type, err)
		}
	}

	return payment.Event{
		ID:       event.ID,
		Type:     string(event.Type),
		Metadata: object.Metadata,
		Created:  time.Unix(event.Created, 0).UTC(),
	}, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
