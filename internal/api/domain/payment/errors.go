package payment

import "errors"

var (
	// ErrSignatureInvalid is returned when the provider signature does not match the payload
	ErrSignatureInvalid = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned when a signed payload cannot be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")
)
