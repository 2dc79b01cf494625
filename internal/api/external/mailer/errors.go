package mailer

import "errors"

var (
	// ErrUnavailable is returned for transport failures and 5xx responses
	ErrUnavailable = errors.New("mail service unavailable")

	// ErrRejected is returned when the mail service refuses the message (4xx)
	ErrRejected = errors.New("message rejected by mail service")
)
