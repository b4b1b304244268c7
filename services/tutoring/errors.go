package tutoring

import (
	"fmt"

	"tutorhive/models"
)

// ConflictError is returned when a slot already holds an active booking.
// It identifies the occupying booking so callers can re-fetch availability
// and re-prompt instead of showing a raw failure.
type ConflictError struct {
	AvailabilityID string
	SlotIndex      int
	Existing       *models.SlotBooking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot (%s, %d) already booked", e.AvailabilityID, e.SlotIndex)
}

// NotFoundError is returned when no availability record, slot, or active
// booking matches the given keys.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ForbiddenError is returned when the requester may not act on the booking.
type ForbiddenError struct {
	RequesterID string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("requester %s may not modify this booking", e.RequesterID)
}

// ValidationError indicates the request itself is invalid (e.g. booking
// against fallback data).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking request: %s", e.Reason)
}
