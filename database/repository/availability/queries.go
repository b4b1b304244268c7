// File: database/repository/availability/queries.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tutorhive/models"
)

// QueryByTutor fetches a tutor's availability records overlapping the given
// window, ordered by start time.
func (r *MongoAvailabilityRepo) QueryByTutor(ctx context.Context, tutorID string, from, to time.Time, limit int64) ([]models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"tutorId": tutorID}
	if !from.IsZero() {
		filter["end"] = bson.M{"$gte": from}
	}
	if !to.IsZero() {
		filter["start"] = bson.M{"$lte": to}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability for tutor %s: %w", tutorID, err)
	}
	defer cursor.Close(ctx)

	var records []models.AvailabilityRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode availability records: %w", err)
	}
	return records, nil
}

// PruneProviderRecords deletes provider-origin records whose events vanished
// upstream. A record with any booked slot is never pruned — the booking path
// owns that state.
func (r *MongoAvailabilityRepo) PruneProviderRecords(ctx context.Context, tutorID string, liveEventIDs []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if liveEventIDs == nil {
		liveEventIDs = []string{}
	}
	filter := bson.M{
		"tutorId": tutorID,
		"origin":  models.OriginProvider,
		"eventId": bson.M{"$nin": liveEventIDs},
		"slots": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{"booked": true}},
		},
	}

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to prune provider records for tutor %s: %w", tutorID, err)
	}
	return res.DeletedCount, nil
}
