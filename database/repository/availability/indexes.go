// File: database/repository/availability/indexes.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the availability collection.
// The unique eventId index is what makes the reconciling upsert race-free.
func (r *MongoAvailabilityRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_event_id"),
		},
		{
			Keys:    bson.D{{Key: "tutorId", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("tutor_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "tutorId", Value: 1}, {Key: "origin", Value: 1}},
			Options: options.Index().SetName("tutor_origin_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return nil
}
