package orchestrator

import "errors"

var (
	// ErrBookingDenied means the requested quantity exceeds current
	// availability. User-correctable: retry with a smaller quantity.
	ErrBookingDenied = errors.New("not enough tickets available")

	// ErrInvalidStateTransition means the operation is not legal for the
	// booking's current status. Surfaced as a conflict, never retried.
	ErrInvalidStateTransition = errors.New("operation not allowed in current booking status")

	// ErrIssuance means ticket minting failed and the booking was
	// compensated (reservation released, booking marked failed).
	ErrIssuance = errors.New("ticket issuance failed")

	// ErrInsufficientInventory is the ledger-level rejection. The
	// orchestrator maps it to ErrBookingDenied before it reaches callers.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrTransient marks a remote call timeout or 5xx. Calls wrapped with
	// it are safe to retry with the same idempotency key.
	ErrTransient = errors.New("transient remote failure")

	// ErrStatusConflict is returned by a booking store when a conditional
	// status update lost to a concurrent transition.
	ErrStatusConflict = errors.New("booking status changed concurrently")

	ErrBookingNotFound = errors.New("booking not found")
	ErrEventNotFound   = errors.New("event not found")
)
