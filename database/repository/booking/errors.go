// File: database/repository/booking/errors.go
package bookingRepo

import "errors"

var (
	// ErrSlotTaken means the composite key already holds an active booking.
	ErrSlotTaken = errors.New("slot already has an active booking")

	// ErrAvailabilityGone means the parent availability record is missing
	// or not bookable (e.g. fallback origin).
	ErrAvailabilityGone = errors.New("availability record not found or not bookable")

	// ErrNoActiveBooking means no active booking matched the given keys.
	ErrNoActiveBooking = errors.New("no active booking for the given keys")
)
