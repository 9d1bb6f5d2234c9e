package bookings

import "errors"

// Error taxonomy for the booking lifecycle. Handlers map these onto HTTP
// status codes and machine-readable kinds; services wrap them with context
// via fmt.Errorf("...: %w", err).
var (
	// Validation: nothing was mutated.
	ErrInvalidDateRange = errors.New("invalid date range")

	// Conflict: the equipment cannot take this booking right now.
	ErrEquipmentNotFound    = errors.New("equipment not found")
	ErrEquipmentUnavailable = errors.New("equipment not available for the requested dates")

	// Gateway: session creation or fetch failed; the booking was reverted.
	ErrPaymentSetupFailed = errors.New("payment setup failed")

	// Integrity: signature did not verify; no state change.
	ErrInvalidSignature = errors.New("invalid payment signature")

	ErrBookingNotFound = errors.New("booking not found")

	// The booking is in a terminal failed state and cannot be settled.
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")

	ErrReceiptNotFound = errors.New("receipt not found")
)
