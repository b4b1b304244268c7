package models

import "time"

// SlotBooking represents a student's claim on one slot of an availability
// record. The composite key (availabilityId, slotIndex) carries the
// exclusivity contract: at most one active booking may exist per key,
// enforced by a partial unique index in the store.
type SlotBooking struct {
	ID             string    `bson:"id" json:"id"`
	AvailabilityID string    `bson:"availabilityId" json:"availabilityId"` // parent record's eventId
	SlotIndex      int       `bson:"slotIndex" json:"slotIndex"`
	StudentID      string    `bson:"studentId" json:"studentId"`
	SessionID      string    `bson:"sessionId" json:"sessionId"`
	Active         bool      `bson:"active" json:"active"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	BookedAt       time.Time `bson:"bookedAt" json:"bookedAt"`
}
