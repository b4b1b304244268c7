// File: database/repository/booking/transaction.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tutorhive/models"
)

// TryBookSlot claims a slot and creates the paired session in one Mongo
// transaction. Exclusivity rests on two independent guards inside the
// transaction: the conditional $elemMatch update (matches only an unbooked
// slot) and the partial unique index on active bookings. Either one failing
// aborts the whole write, so a booking never exists without its session and
// a session never exists without its booking.
func (repo *MongoBookingRepo) TryBookSlot(
	ctx context.Context,
	booking models.SlotBooking,
	session models.TutoringSession,
) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		// Claim the embedded slot. The filter only matches when the slot
		// exists, is unbooked, and the record is a bookable origin.
		filter := bson.M{
			"eventId": booking.AvailabilityID,
			"origin":  bson.M{"$ne": models.OriginFallback},
			"slots": bson.M{
				"$elemMatch": bson.M{
					"index":  booking.SlotIndex,
					"booked": false,
				},
			},
		}
		update := bson.M{
			"$set": bson.M{
				"slots.$.booked":    true,
				"slots.$.bookingId": booking.ID,
			},
		}

		res, err := repo.availabilityColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("failed to claim slot: %w", err)
		}
		if res.MatchedCount == 0 {
			// Distinguish a taken slot from a missing record.
			count, err := repo.availabilityColl.CountDocuments(sc, bson.M{
				"eventId": booking.AvailabilityID,
				"origin":  bson.M{"$ne": models.OriginFallback},
				"slots":   bson.M{"$elemMatch": bson.M{"index": booking.SlotIndex}},
			})
			if err != nil {
				return fmt.Errorf("failed to inspect slot state: %w", err)
			}
			if count == 0 {
				return ErrAvailabilityGone
			}
			return ErrSlotTaken
		}

		// Second guard: the partial unique index on active bookings rejects
		// a concurrent claim that slipped past the slot flip.
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}

		if _, err := repo.sessionColl.InsertOne(sc, session); err != nil {
			return fmt.Errorf("insert session failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}

	return nil
}

// CancelBooking deactivates the booking matching all three keys, frees the
// slot and marks the session cancelled. Matching on sessionId as well guards
// against cancelling a different occupant of a reused slot index.
func (repo *MongoBookingRepo) CancelBooking(
	ctx context.Context,
	availabilityID string,
	slotIndex int,
	sessionID string,
) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		res, err := repo.bookingColl.UpdateOne(sc,
			bson.M{
				"availabilityId": availabilityID,
				"slotIndex":      slotIndex,
				"sessionId":      sessionID,
				"active":         true,
			},
			bson.M{"$set": bson.M{"active": false}},
		)
		if err != nil {
			return fmt.Errorf("deactivate booking failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNoActiveBooking
		}

		if _, err := repo.availabilityColl.UpdateOne(sc,
			bson.M{
				"eventId": availabilityID,
				"slots":   bson.M{"$elemMatch": bson.M{"index": slotIndex}},
			},
			bson.M{"$set": bson.M{
				"slots.$.booked":    false,
				"slots.$.bookingId": "",
			}},
		); err != nil {
			return fmt.Errorf("free slot failed: %w", err)
		}

		if _, err := repo.sessionColl.UpdateOne(sc,
			bson.M{"id": sessionID},
			bson.M{"$set": bson.M{"status": models.SessionCancelled}},
		); err != nil {
			return fmt.Errorf("cancel session failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}

	return nil
}
