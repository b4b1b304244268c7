package tutoring

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	availabilityRepo "tutorhive/database/repository/availability"
	"tutorhive/models"
	syncsvc "tutorhive/services/sync"
	"tutorhive/utils"
)

// queryWindowDays bounds how far ahead the read surface looks.
const queryWindowDays = 30

// DefaultAvailabilityService serves the consumer-facing availability view.
// When the store has nothing for the tutor (not yet synced, provider down,
// calendar never connected) it degrades to the flagged fallback set rather
// than an empty page.
type DefaultAvailabilityService struct {
	Repo     availabilityRepo.Repository
	Fallback *syncsvc.FallbackProvider
	Cache    *redis.Client
	Logger   *zap.Logger
}

// GetWithFallback returns the tutor's bookable windows, or the substitute
// set with UsingFallback set. Fallback views are never cached so the flag
// always reflects current state.
func (s *DefaultAvailabilityService) GetWithFallback(ctx context.Context, tutorID string) (models.AvailabilityView, error) {
	if s.Cache != nil {
		if cached, err := utils.GetCachedAvailabilityView(ctx, s.Cache, tutorID); err == nil {
			return *cached, nil
		}
	}

	now := time.Now()
	records, err := s.Repo.QueryByTutor(ctx, tutorID, now, now.AddDate(0, 0, queryWindowDays), 0)
	if err != nil {
		s.Logger.Warn("availability query failed, serving fallback",
			zap.String("tutorId", tutorID), zap.Error(err))
		return s.fallbackView(tutorID, now), nil
	}
	if len(records) == 0 {
		return s.fallbackView(tutorID, now), nil
	}

	view := models.AvailabilityView{TutorID: tutorID, Records: records}
	if s.Cache != nil {
		if err := utils.CacheAvailabilityView(ctx, s.Cache, view); err != nil {
			s.Logger.Warn("failed to cache availability view",
				zap.String("tutorId", tutorID), zap.Error(err))
		}
	}
	return view, nil
}

func (s *DefaultAvailabilityService) fallbackView(tutorID string, from time.Time) models.AvailabilityView {
	return models.AvailabilityView{
		TutorID:       tutorID,
		Records:       s.Fallback.Records(tutorID, from),
		UsingFallback: true,
	}
}

// CreateManual publishes a manual availability window (not sourced from the
// provider calendar). The record participates in booking exactly like a
// synced one but is never merged or pruned by sync passes.
func (s *DefaultAvailabilityService) CreateManual(ctx context.Context, tutorID, title string, start, end time.Time, subjects []string) (*models.AvailabilityRecord, error) {
	if title == "" || start.IsZero() || !end.After(start) {
		return nil, &ValidationError{Reason: "manual availability requires a title and a valid time window"}
	}

	now := time.Now()
	rec := models.AvailabilityRecord{
		EventID:   fmt.Sprintf("manual-%s", uuid.New().String()),
		TutorID:   tutorID,
		Title:     title,
		Start:     start,
		End:       end,
		Subjects:  subjects,
		Origin:    models.OriginManual,
		Slots:     syncsvc.ExpandSlots(start, end),
		CreatedAt: now,
	}

	if err := s.Repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := utils.InvalidateAvailabilityView(ctx, s.Cache, tutorID); err != nil {
			s.Logger.Warn("failed to invalidate availability cache",
				zap.String("tutorId", tutorID), zap.Error(err))
		}
	}
	return &rec, nil
}
