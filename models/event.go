package models

import "time"

// CalendarEvent is a provider-side calendar entry as returned by the
// external calendar API. Events missing a title or start time are considered
// invalid and dropped individually during reconciliation.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Recurring bool      `json:"recurring"`
	Subjects  []string  `json:"subjects,omitempty"`
}

// Valid reports whether the event carries the minimum fields required to
// materialize an availability record.
func (e CalendarEvent) Valid() bool {
	return e.ID != "" && e.Title != "" && !e.Start.IsZero()
}

// EventDraft is the payload for creating a provider event.
type EventDraft struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Subjects []string  `json:"subjects,omitempty"`
}
