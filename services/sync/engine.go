package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	availabilityRepo "tutorhive/database/repository/availability"
	"tutorhive/models"
	"tutorhive/services/calendar"
)

const maxEventsPerSync = 250

// slotLength is the bookable unit inside an availability window. Slot
// indices derived from it are stable for the lifetime of a record: merges
// never regenerate slots, so a published index keeps its meaning even if
// the provider event's times drift.
const slotLength = time.Hour

// Engine reconciles provider calendar events into the local availability
// store. All provider access goes through the token refresh coordinator.
type Engine struct {
	Auth         *calendar.TokenRefreshCoordinator
	Provider     calendar.Provider
	Availability availabilityRepo.Repository
	Logger       *zap.Logger
}

// Reconcile fetches the tutor's provider events for the window and merges
// them into the store. Invalid events are dropped individually and per-event
// store failures are reported in the result — one bad event never aborts the
// batch. Calling Reconcile twice with the same provider state is a no-op on
// the second pass.
func (e *Engine) Reconcile(ctx context.Context, tutorID string, from, to time.Time) (models.SyncResult, error) {
	var events []models.CalendarEvent
	err := e.Auth.WithAuth(ctx, tutorID, func(ctx context.Context, cred *models.Credential) error {
		fetched, err := e.Provider.ListEvents(ctx, cred, tutorID, from, to, maxEventsPerSync)
		if err != nil {
			return err
		}
		events = fetched
		return nil
	})
	if err != nil {
		return models.SyncResult{}, err
	}

	now := time.Now()
	var result models.SyncResult
	liveEventIDs := make([]string, 0, len(events))

	for _, ev := range events {
		if !ev.Valid() {
			e.Logger.Debug("dropping invalid provider event",
				zap.String("tutorId", tutorID),
				zap.String("eventId", ev.ID))
			continue
		}
		liveEventIDs = append(liveEventIDs, ev.ID)

		rec := recordFromEvent(tutorID, ev, now)
		outcome, err := e.Availability.UpsertByEventID(ctx, rec)
		if err != nil {
			e.Logger.Warn("failed to reconcile provider event",
				zap.String("tutorId", tutorID),
				zap.String("eventId", ev.ID),
				zap.Error(err))
			result.Errors = append(result.Errors, ev.ID)
			continue
		}
		switch outcome {
		case availabilityRepo.OutcomeCreated:
			result.Created++
		case availabilityRepo.OutcomeUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
	}

	pruned, err := e.Availability.PruneProviderRecords(ctx, tutorID, liveEventIDs)
	if err != nil {
		e.Logger.Warn("failed to prune stale provider records",
			zap.String("tutorId", tutorID), zap.Error(err))
	} else {
		result.Pruned = int(pruned)
	}

	e.Logger.Info("reconcile pass finished",
		zap.String("tutorId", tutorID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("pruned", result.Pruned),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// recordFromEvent materializes an availability record from a provider event,
// pre-expanding the window into stable hourly slots.
func recordFromEvent(tutorID string, ev models.CalendarEvent, syncedAt time.Time) models.AvailabilityRecord {
	return models.AvailabilityRecord{
		EventID:      ev.ID,
		TutorID:      tutorID,
		Title:        ev.Title,
		Start:        ev.Start,
		End:          ev.End,
		Subjects:     ev.Subjects,
		Recurring:    ev.Recurring,
		Origin:       models.OriginProvider,
		Slots:        ExpandSlots(ev.Start, ev.End),
		LastSyncedAt: syncedAt,
		CreatedAt:    syncedAt,
	}
}

// ExpandSlots splits a window into hourly slots. Windows shorter than one
// hour yield a single slot spanning the whole window.
func ExpandSlots(start, end time.Time) []models.Slot {
	if !end.After(start) {
		return []models.Slot{}
	}
	if end.Sub(start) < slotLength {
		return []models.Slot{{Index: 0, Start: start, End: end}}
	}
	var slots []models.Slot
	for i := 0; ; i++ {
		slotStart := start.Add(time.Duration(i) * slotLength)
		slotEnd := slotStart.Add(slotLength)
		if slotEnd.After(end) {
			break
		}
		slots = append(slots, models.Slot{Index: i, Start: slotStart, End: slotEnd})
	}
	return slots
}
