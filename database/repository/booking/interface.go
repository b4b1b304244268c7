// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"

	"tutorhive/config"
	"tutorhive/database"
	"tutorhive/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Repository owns slot bookings and their paired tutoring sessions. The
// store is the single source of truth for slot exclusivity: TryBookSlot and
// CancelBooking are the only write paths and both are transactional.
type Repository interface {
	// TryBookSlot atomically claims booking's (availabilityId, slotIndex)
	// and creates the paired session. It fails with ErrSlotTaken when the
	// slot already holds an active booking, and with ErrAvailabilityGone
	// when the parent record does not exist or is not bookable. On any
	// failure nothing is persisted.
	TryBookSlot(ctx context.Context, booking models.SlotBooking, session models.TutoringSession) error

	// CancelBooking deactivates the booking matching all three keys, frees
	// the slot and marks the session cancelled, atomically. ErrNoActiveBooking
	// when no active booking matches.
	CancelBooking(ctx context.Context, availabilityID string, slotIndex int, sessionID string) error

	GetActiveBooking(ctx context.Context, availabilityID string, slotIndex int) (*models.SlotBooking, error)
	GetSession(ctx context.Context, sessionID string) (*models.TutoringSession, error)
	ListSessionsByStudent(ctx context.Context, studentID string, limit int64) ([]models.TutoringSession, error)
}

// MongoBookingRepo is the MongoDB implementation of Repository.
type MongoBookingRepo struct {
	bookingColl      *mongo.Collection
	sessionColl      *mongo.Collection
	availabilityColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB booking repository.
func NewMongoBookingRepo() *MongoBookingRepo {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoBookingRepo{
		bookingColl:      db.Collection("bookings"),
		sessionColl:      db.Collection("sessions"),
		availabilityColl: db.Collection("availability"),
	}
}
