package sync

import (
	"fmt"
	"time"

	"tutorhive/models"
)

// FallbackProvider returns a deterministic substitute availability set for
// tutors whose calendar is unreachable or not connected. The records are
// flagged with the fallback origin and never persisted — the booking path
// rejects them outright.
type FallbackProvider struct {
	Days     int // how many days ahead to generate
	StartsAt int // first slot hour, local time
	EndsAt   int // last slot hour (exclusive)
	Subjects []string
}

// NewFallbackProvider returns the standard weekday-afternoon substitute
// grid.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{
		Days:     7,
		StartsAt: 16,
		EndsAt:   20,
		Subjects: []string{"math", "physics", "english"},
	}
}

// Records generates the substitute set for the tutor starting from the
// given day. The output is stable for a fixed (tutorID, from) pair.
func (f *FallbackProvider) Records(tutorID string, from time.Time) []models.AvailabilityRecord {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	var records []models.AvailabilityRecord
	for i := 0; i < f.Days; i++ {
		date := day.AddDate(0, 0, i)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		start := date.Add(time.Duration(f.StartsAt) * time.Hour)
		end := date.Add(time.Duration(f.EndsAt) * time.Hour)
		subject := f.Subjects[i%len(f.Subjects)]

		records = append(records, models.AvailabilityRecord{
			EventID:  fmt.Sprintf("fallback-%s-%s", tutorID, date.Format("2006-01-02")),
			TutorID:  tutorID,
			Title:    "Tutoring hours (provisional)",
			Start:    start,
			End:      end,
			Subjects: []string{subject},
			Origin:   models.OriginFallback,
			Slots:    ExpandSlots(start, end),
		})
	}
	return records
}
