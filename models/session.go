package models

import "time"

// Session status values.
const (
	SessionPending   = "pending"
	SessionConfirmed = "confirmed"
	SessionCancelled = "cancelled"
	SessionCompleted = "completed"
)

// TutoringSession is the appointment derived from a successful booking.
// Exactly one non-cancelled session exists per active booking; approval and
// payment transitions are driven by collaborators and opaque here.
type TutoringSession struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	TutorID   string    `bson:"tutorId" json:"tutorId"`
	StudentID string    `bson:"studentId" json:"studentId"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Status    string    `bson:"status" json:"status"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ReminderPayload is the asynq task payload for session reminders.
type ReminderPayload struct {
	SessionID string `json:"sessionId"`
	StudentID string `json:"studentId"`
	TutorID   string `json:"tutorId"`
	Title     string `json:"title"`
	StartsAt  string `json:"startsAt"`
}
