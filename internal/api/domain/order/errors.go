package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when order is not found
	ErrNotFound = errors.New("order not found")

	// ErrAlreadyExists is returned when attempting to create an order that already exists
	ErrAlreadyExists = errors.New("order already exists")

	// ErrValidation is returned when an order draft or command is malformed
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a fulfillment transition is not allowed from the current state
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyShipped is returned when tracking is assigned to an order that already shipped.
	// Corrections go through AmendShipment.
	ErrAlreadyShipped = fmt.Errorf("%w: order already shipped", ErrInvalidTransition)

	// ErrReconciliationRequired is returned when a payment event references an order
	// that never became visible within the lookup budget
	ErrReconciliationRequired = errors.New("order not visible, manual reconciliation required")

	// ErrInvalidQuery is returned when order query validation fails
	ErrInvalidQuery = errors.New("invalid orders query")

	// ErrEventAlreadyStored is returned when event with same (order_id, provider_event_id) already exists
	ErrEventAlreadyStored = errors.New("event already stored")
)
