package tutoring

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	availabilityRepo "tutorhive/database/repository/availability"
	bookingRepo "tutorhive/database/repository/booking"
	"tutorhive/models"
	"tutorhive/utils"
)

// DefaultBookingCoordinator implements BookingCoordinator on top of the
// transactional booking repository. The "slot is free" check and the
// booking+session write are one atomic unit inside the store; this layer
// only prepares the documents and maps store outcomes onto typed errors.
type DefaultBookingCoordinator struct {
	Availability availabilityRepo.Repository
	Bookings     bookingRepo.Repository
	Reminders    ReminderScheduler
	Cache        *redis.Client
	Logger       *zap.Logger
}

// Book reserves one slot for the student and creates the paired session
// with status pending. On conflict the existing booking is identified in
// the returned ConflictError.
func (c *DefaultBookingCoordinator) Book(ctx context.Context, availabilityID string, slotIndex int, studentID, notes string) (*models.TutoringSession, error) {
	rec, err := c.Availability.GetByEventID(ctx, availabilityID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "availability record", Key: availabilityID}
		}
		return nil, err
	}
	if rec.Origin == models.OriginFallback {
		return nil, &ValidationError{Reason: "fallback availability is provisional and cannot be booked"}
	}

	var slot *models.Slot
	for i := range rec.Slots {
		if rec.Slots[i].Index == slotIndex {
			slot = &rec.Slots[i]
			break
		}
	}
	if slot == nil {
		return nil, &NotFoundError{Resource: "slot", Key: availabilityID}
	}

	now := time.Now()
	booking := models.SlotBooking{
		ID:             uuid.New().String(),
		AvailabilityID: availabilityID,
		SlotIndex:      slotIndex,
		StudentID:      studentID,
		SessionID:      uuid.New().String(),
		Active:         true,
		Notes:          notes,
		BookedAt:       now,
	}
	session := models.TutoringSession{
		ID:        booking.SessionID,
		BookingID: booking.ID,
		TutorID:   rec.TutorID,
		StudentID: studentID,
		Start:     slot.Start,
		End:       slot.End,
		Status:    models.SessionPending,
		Notes:     notes,
		CreatedAt: now,
	}

	if err := c.Bookings.TryBookSlot(ctx, booking, session); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			conflict := &ConflictError{AvailabilityID: availabilityID, SlotIndex: slotIndex}
			if existing, lookupErr := c.Bookings.GetActiveBooking(ctx, availabilityID, slotIndex); lookupErr == nil {
				conflict.Existing = existing
			}
			return nil, conflict
		case errors.Is(err, bookingRepo.ErrAvailabilityGone):
			return nil, &NotFoundError{Resource: "availability record", Key: availabilityID}
		default:
			return nil, err
		}
	}

	c.invalidateCache(ctx, rec.TutorID)

	if c.Reminders != nil {
		if err := c.Reminders.ScheduleSessionReminder(ctx, session); err != nil {
			c.Logger.Warn("failed to schedule session reminder",
				zap.String("sessionId", session.ID), zap.Error(err))
		}
	}

	c.Logger.Info("slot booked",
		zap.String("availabilityId", availabilityID),
		zap.Int("slotIndex", slotIndex),
		zap.String("studentId", studentID),
		zap.String("sessionId", session.ID))

	return &session, nil
}

// Cancel releases the booking matching all three keys and marks its session
// cancelled. Only the booking's student or the availability's tutor may
// cancel.
func (c *DefaultBookingCoordinator) Cancel(ctx context.Context, availabilityID string, slotIndex int, sessionID, requesterID string) error {
	booking, err := c.Bookings.GetActiveBooking(ctx, availabilityID, slotIndex)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &NotFoundError{Resource: "booking", Key: availabilityID}
		}
		return err
	}
	if booking.SessionID != sessionID {
		// The slot index has been rebooked by someone else; refusing here
		// protects the current occupant.
		return &NotFoundError{Resource: "booking", Key: sessionID}
	}

	rec, err := c.Availability.GetByEventID(ctx, availabilityID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	tutorID := ""
	if rec != nil {
		tutorID = rec.TutorID
	}
	if requesterID != booking.StudentID && requesterID != tutorID {
		return &ForbiddenError{RequesterID: requesterID}
	}

	if err := c.Bookings.CancelBooking(ctx, availabilityID, slotIndex, sessionID); err != nil {
		if errors.Is(err, bookingRepo.ErrNoActiveBooking) {
			return &NotFoundError{Resource: "booking", Key: sessionID}
		}
		return err
	}

	c.invalidateCache(ctx, tutorID)

	c.Logger.Info("booking cancelled",
		zap.String("availabilityId", availabilityID),
		zap.Int("slotIndex", slotIndex),
		zap.String("sessionId", sessionID),
		zap.String("requesterId", requesterID))

	return nil
}

func (c *DefaultBookingCoordinator) invalidateCache(ctx context.Context, tutorID string) {
	if c.Cache == nil || tutorID == "" {
		return
	}
	if err := utils.InvalidateAvailabilityView(ctx, c.Cache, tutorID); err != nil {
		c.Logger.Warn("failed to invalidate availability cache",
			zap.String("tutorId", tutorID), zap.Error(err))
	}
}
