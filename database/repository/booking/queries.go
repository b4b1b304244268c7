// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tutorhive/models"
)

func (repo *MongoBookingRepo) GetActiveBooking(ctx context.Context, availabilityID string, slotIndex int) (*models.SlotBooking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.SlotBooking
	err := repo.bookingColl.FindOne(ctx, bson.M{
		"availabilityId": availabilityID,
		"slotIndex":      slotIndex,
		"active":         true,
	}).Decode(&booking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (repo *MongoBookingRepo) GetSession(ctx context.Context, sessionID string) (*models.TutoringSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var session models.TutoringSession
	if err := repo.sessionColl.FindOne(ctx, bson.M{"id": sessionID}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (repo *MongoBookingRepo) ListSessionsByStudent(ctx context.Context, studentID string, limit int64) ([]models.TutoringSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := repo.sessionColl.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for student %s: %w", studentID, err)
	}
	defer cursor.Close(ctx)

	var sessions []models.TutoringSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}
