package token

import "errors"

var (
	// ErrNotFound is returned when the token is unknown to every store
	ErrNotFound = errors.New("download token not found")

	// ErrExpired is returned when an unconsumed token is past its expiry
	ErrExpired = errors.New("download token expired")

	// ErrAlreadyConsumed is returned for completed tokens. It is permanent.
	ErrAlreadyConsumed = errors.New("download token already consumed")

	// ErrValidation is returned for malformed issuance input, including path traversal
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyExists is returned when a store already holds the token value
	ErrAlreadyExists = errors.New("download token already exists")

	// ErrOrderNotFound is returned when an order-bound token references a missing order
	ErrOrderNotFound = errors.New("order not found")
)
