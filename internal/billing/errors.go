package billing

import "errors"

var (
	// ErrNotConfigured is returned when the Stripe client is constructed
	// without the credentials it needs.
	ErrNotConfigured = errors.New("billing client not configured")

	// ErrInvalidSignature is returned when webhook signature verification
	// fails.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
