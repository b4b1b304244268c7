package models

import "time"

// Origin values for an availability record.
const (
	OriginProvider = "provider"
	OriginManual   = "manual"
	OriginFallback = "fallback"
)

// AvailabilityRecord represents a tutor-published bookable time window.
// Provider-origin records are keyed by the external calendar event id and
// reconciled on every sync pass; manual records are created directly by the
// tutor. Slot booking state is owned by the booking path — sync merges must
// never touch it.
type AvailabilityRecord struct {
	EventID      string    `bson:"eventId" json:"eventId"` // natural key (provider event id)
	TutorID      string    `bson:"tutorId" json:"tutorId"`
	Title        string    `bson:"title" json:"title"`
	Start        time.Time `bson:"start" json:"start"`
	End          time.Time `bson:"end" json:"end"`
	Subjects     []string  `bson:"subjects,omitempty" json:"subjects,omitempty"`
	Recurring    bool      `bson:"recurring,omitempty" json:"recurring,omitempty"`
	Origin       string    `bson:"origin" json:"origin"` // "provider" | "manual" | "fallback"
	Slots        []Slot    `bson:"slots" json:"slots"`
	LastSyncedAt time.Time `bson:"lastSyncedAt,omitempty" json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Slot is one bookable unit inside an availability record, addressed by
// (eventId, index). Index is an opaque, stable identifier: once published it
// never changes meaning for the lifetime of the record.
type Slot struct {
	Index     int       `bson:"index" json:"index"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Booked    bool      `bson:"booked" json:"booked"`
	BookingID string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
}

// AvailabilityView is the consumer-facing read model. UsingFallback flags
// substitute data so downstream consumers never mistake it for authoritative
// state.
type AvailabilityView struct {
	TutorID       string               `json:"tutorId"`
	Records       []AvailabilityRecord `json:"records"`
	UsingFallback bool                 `json:"usingFallback"`
}
