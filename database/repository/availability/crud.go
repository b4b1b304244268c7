// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tutorhive/models"
)

// UpsertByEventID reconciles one provider event into the store.
//
// The write is race-free without a read-modify-write cycle: a conditional
// update matches only when a merge-relevant field actually differs, and the
// follow-up insert relies on the unique eventId index to reject duplicates
// created by a concurrent pass.
func (r *MongoAvailabilityRepo) UpsertByEventID(ctx context.Context, rec models.AvailabilityRecord) (UpsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Merge pass: only fires when a non-booking field changed. Slots are
	// deliberately absent from $set — bookings outrank sync merges.
	filter := bson.M{
		"eventId": rec.EventID,
		"$or": bson.A{
			bson.M{"title": bson.M{"$ne": rec.Title}},
			bson.M{"start": bson.M{"$ne": rec.Start}},
			bson.M{"end": bson.M{"$ne": rec.End}},
			bson.M{"recurring": bson.M{"$ne": rec.Recurring}},
			bson.M{"subjects": bson.M{"$ne": rec.Subjects}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"title":        rec.Title,
			"start":        rec.Start,
			"end":          rec.End,
			"recurring":    rec.Recurring,
			"subjects":     rec.Subjects,
			"lastSyncedAt": rec.LastSyncedAt,
		},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to merge availability record %s: %w", rec.EventID, err)
	}
	if res.ModifiedCount > 0 {
		return OutcomeUpdated, nil
	}

	// No merge happened: the record is either absent or already current.
	// Insert and let the unique index arbitrate.
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return OutcomeUnchanged, nil
		}
		return OutcomeUnchanged, fmt.Errorf("failed to insert availability record %s: %w", rec.EventID, err)
	}
	return OutcomeCreated, nil
}

// Insert stores a record without reconciliation semantics (manual creation).
func (r *MongoAvailabilityRepo) Insert(ctx context.Context, rec models.AvailabilityRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("availability record %s already exists: %w", rec.EventID, err)
		}
		return fmt.Errorf("failed to insert availability record: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) GetByEventID(ctx context.Context, eventID string) (*models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec models.AvailabilityRecord
	if err := r.coll.FindOne(ctx, bson.M{"eventId": eventID}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MongoAvailabilityRepo) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.coll.CountDocuments(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return false, fmt.Errorf("failed to count availability records: %w", err)
	}
	return count > 0, nil
}

func (r *MongoAvailabilityRepo) DeleteByEventID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return fmt.Errorf("failed to delete availability record: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
