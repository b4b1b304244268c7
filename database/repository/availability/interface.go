// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"time"

	"tutorhive/config"
	"tutorhive/database"
	"tutorhive/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// UpsertOutcome reports what a reconciling upsert did to the record.
type UpsertOutcome int

const (
	OutcomeUnchanged UpsertOutcome = iota
	OutcomeCreated
	OutcomeUpdated
)

// Repository persists availability records keyed by their natural event id.
type Repository interface {
	// UpsertByEventID reconciles one provider event into the store as a
	// conditional write: it creates the record if the event id is new,
	// merges the non-booking fields if they changed, and performs no write
	// when nothing changed. Slot booking state is never touched.
	UpsertByEventID(ctx context.Context, rec models.AvailabilityRecord) (UpsertOutcome, error)

	Insert(ctx context.Context, rec models.AvailabilityRecord) error
	GetByEventID(ctx context.Context, eventID string) (*models.AvailabilityRecord, error)
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
	QueryByTutor(ctx context.Context, tutorID string, from, to time.Time, limit int64) ([]models.AvailabilityRecord, error)
	DeleteByEventID(ctx context.Context, eventID string) error

	// PruneProviderRecords removes provider-origin records for the tutor
	// whose event ids are no longer present upstream. Records holding a
	// booked slot are kept regardless.
	PruneProviderRecords(ctx context.Context, tutorID string, liveEventIDs []string) (int64, error)
}

// MongoAvailabilityRepo is the MongoDB implementation of Repository.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a new MongoDB availability repository.
func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoAvailabilityRepo{
		coll: db.Collection("availability"),
	}
}
