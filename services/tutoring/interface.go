package tutoring

import (
	"context"

	"tutorhive/models"
)

// BookingCoordinator arbitrates slot reservations: at most one active
// booking per (availabilityId, slotIndex), with the paired session created
// and rolled back atomically alongside the booking.
type BookingCoordinator interface {
	Book(ctx context.Context, availabilityID string, slotIndex int, studentID, notes string) (*models.TutoringSession, error)
	Cancel(ctx context.Context, availabilityID string, slotIndex int, sessionID, requesterID string) error
}

// AvailabilityReader is the consumer-facing read surface. Fallback data is
// always flagged and never bookable.
type AvailabilityReader interface {
	GetWithFallback(ctx context.Context, tutorID string) (models.AvailabilityView, error)
}

// ReminderScheduler queues a reminder for an upcoming session. Delivery is
// a collaborator concern; failures here never fail a booking.
type ReminderScheduler interface {
	ScheduleSessionReminder(ctx context.Context, session models.TutoringSession) error
}
