package sync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	availabilityRepo "tutorhive/database/repository/availability"
	"tutorhive/models"
	"tutorhive/services/calendar"
)

// memAvailabilityRepo mirrors the Mongo repository's reconciliation
// semantics in memory: merges touch only the non-booking fields and never
// the slots.
type memAvailabilityRepo struct {
	mu      sync.Mutex
	records map[string]*models.AvailabilityRecord
	failOn  map[string]error // event id -> forced upsert failure
}

func newMemAvailabilityRepo() *memAvailabilityRepo {
	return &memAvailabilityRepo{
		records: make(map[string]*models.AvailabilityRecord),
		failOn:  make(map[string]error),
	}
}

func (m *memAvailabilityRepo) UpsertByEventID(ctx context.Context, rec models.AvailabilityRecord) (availabilityRepo.UpsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failOn[rec.EventID]; ok {
		return availabilityRepo.OutcomeUnchanged, err
	}
	existing, ok := m.records[rec.EventID]
	if !ok {
		cp := rec
		m.records[rec.EventID] = &cp
		return availabilityRepo.OutcomeCreated, nil
	}
	if existing.Title == rec.Title &&
		existing.Start.Equal(rec.Start) &&
		existing.End.Equal(rec.End) &&
		existing.Recurring == rec.Recurring &&
		reflect.DeepEqual(existing.Subjects, rec.Subjects) {
		return availabilityRepo.OutcomeUnchanged, nil
	}
	existing.Title = rec.Title
	existing.Start = rec.Start
	existing.End = rec.End
	existing.Recurring = rec.Recurring
	existing.Subjects = rec.Subjects
	existing.LastSyncedAt = rec.LastSyncedAt
	return availabilityRepo.OutcomeUpdated, nil
}

func (m *memAvailabilityRepo) Insert(ctx context.Context, rec models.AvailabilityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := rec
	m.records[rec.EventID] = &cp
	return nil
}

func (m *memAvailabilityRepo) GetByEventID(ctx context.Context, eventID string) (*models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[eventID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *rec
	return &cp, nil
}

func (m *memAvailabilityRepo) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[eventID]
	return ok, nil
}

func (m *memAvailabilityRepo) QueryByTutor(ctx context.Context, tutorID string, from, to time.Time, limit int64) ([]models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AvailabilityRecord
	for _, rec := range m.records {
		if rec.TutorID == tutorID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memAvailabilityRepo) DeleteByEventID(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, eventID)
	return nil
}

func (m *memAvailabilityRepo) PruneProviderRecords(ctx context.Context, tutorID string, liveEventIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := make(map[string]bool, len(liveEventIDs))
	for _, id := range liveEventIDs {
		live[id] = true
	}
	var pruned int64
	for id, rec := range m.records {
		if rec.TutorID != tutorID || rec.Origin != models.OriginProvider || live[id] {
			continue
		}
		booked := false
		for _, slot := range rec.Slots {
			if slot.Booked {
				booked = true
				break
			}
		}
		if booked {
			continue
		}
		delete(m.records, id)
		pruned++
	}
	return pruned, nil
}

// memCredentialStore returns one fixed credential; unknown tutors get
// mongo.ErrNoDocuments like the Mongo-backed store.
type memCredentialStore struct {
	creds map[string]models.Credential
}

func (s *memCredentialStore) Get(ctx context.Context, tutorID string) (*models.Credential, error) {
	cred, ok := s.creds[tutorID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &cred, nil
}

func (s *memCredentialStore) Save(ctx context.Context, cred models.Credential) error {
	s.creds[cred.TutorID] = cred
	return nil
}

func (s *memCredentialStore) Delete(ctx context.Context, tutorID string) error {
	delete(s.creds, tutorID)
	return nil
}

// stubProvider serves a fixed event list, optionally failing or blocking.
type stubProvider struct {
	mu      sync.Mutex
	events  []models.CalendarEvent
	listErr error
	block   chan struct{} // when set, ListEvents blocks until closed
	calls   int
}

func (p *stubProvider) setEvents(events []models.CalendarEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = events
}

func (p *stubProvider) ListEvents(ctx context.Context, cred *models.Credential, tutorID string, from, to time.Time, maxResults int64) ([]models.CalendarEvent, error) {
	p.mu.Lock()
	block := p.block
	listErr := p.listErr
	events := append([]models.CalendarEvent(nil), p.events...)
	p.calls++
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	if listErr != nil {
		return nil, listErr
	}
	return events, nil
}

func (p *stubProvider) CreateEvent(ctx context.Context, cred *models.Credential, tutorID string, draft models.EventDraft) (string, error) {
	return "", nil
}

func (p *stubProvider) DeleteEvent(ctx context.Context, cred *models.Credential, tutorID, eventID string) error {
	return nil
}

func (p *stubProvider) RefreshCredential(ctx context.Context, refreshToken string) (*models.Credential, error) {
	return &models.Credential{AccessToken: "fresh", RefreshToken: refreshToken}, nil
}

func newTestEngine(provider *stubProvider, repo *memAvailabilityRepo, tutorIDs ...string) *Engine {
	creds := make(map[string]models.Credential)
	for _, id := range tutorIDs {
		creds[id] = models.Credential{TutorID: id, AccessToken: "token", RefreshToken: "refresh"}
	}
	store := &memCredentialStore{creds: creds}
	return &Engine{
		Auth:         calendar.NewTokenRefreshCoordinator(provider, store, zap.NewNop()),
		Provider:     provider,
		Availability: repo,
		Logger:       zap.NewNop(),
	}
}

func testEvent(id string, hourOffset int) models.CalendarEvent {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(hourOffset) * time.Hour)
	return models.CalendarEvent{
		ID:       id,
		Title:    "Tutoring block " + id,
		Start:    start,
		End:      start.Add(2 * time.Hour),
		Subjects: []string{"math"},
	}
}

func syncWindow() (time.Time, time.Time) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 30)
}

func TestReconcileCreatesRecords(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0), testEvent("ev-2", 4)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Errors)

	rec, err := repo.GetByEventID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, models.OriginProvider, rec.Origin)
	assert.Len(t, rec.Slots, 2)
}

func TestReconcileIsIdempotent(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0), testEvent("ev-2", 4)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	second, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 0, second.Pruned)
}

func TestReconcileMergesChangedEvents(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	changed := testEvent("ev-1", 0)
	changed.Title = "Renamed block"
	provider.setEvents([]models.CalendarEvent{changed})

	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	rec, err := repo.GetByEventID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed block", rec.Title)
}

func TestReconcileNeverClobbersBookedSlots(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	// A student books slot 1 between sync passes.
	repo.mu.Lock()
	repo.records["ev-1"].Slots[1].Booked = true
	repo.records["ev-1"].Slots[1].BookingID = "booking-1"
	repo.mu.Unlock()

	changed := testEvent("ev-1", 0)
	changed.Title = "Renamed block"
	provider.setEvents([]models.CalendarEvent{changed})

	_, err = engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	rec, err := repo.GetByEventID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed block", rec.Title)
	assert.True(t, rec.Slots[1].Booked)
	assert.Equal(t, "booking-1", rec.Slots[1].BookingID)
}

func TestReconcileDropsInvalidEvents(t *testing.T) {
	missingTitle := testEvent("ev-bad", 0)
	missingTitle.Title = ""
	provider := &stubProvider{events: []models.CalendarEvent{missingTitle, testEvent("ev-ok", 2)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Errors)

	exists, err := repo.ExistsByEventID(context.Background(), "ev-bad")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcilePerEventFailureDoesNotAbortBatch(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0), testEvent("ev-2", 4), testEvent("ev-3", 8)}}
	repo := newMemAvailabilityRepo()
	repo.failOn["ev-2"] = fmt.Errorf("write failed")
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, []string{"ev-2"}, result.Errors)
}

func TestReconcilePrunesVanishedEvents(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0), testEvent("ev-2", 4)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	provider.setEvents([]models.CalendarEvent{testEvent("ev-1", 0)})
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pruned)
	exists, err := repo.ExistsByEventID(context.Background(), "ev-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcilePruneKeepsBookedRecords(t *testing.T) {
	provider := &stubProvider{events: []models.CalendarEvent{testEvent("ev-1", 0), testEvent("ev-2", 4)}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.records["ev-2"].Slots[0].Booked = true
	repo.mu.Unlock()

	provider.setEvents([]models.CalendarEvent{testEvent("ev-1", 0)})
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Pruned)
	exists, err := repo.ExistsByEventID(context.Background(), "ev-2")
	require.NoError(t, err)
	assert.True(t, exists, "records holding a booked slot are never pruned")
}

func TestReconcilePruneLeavesManualRecordsAlone(t *testing.T) {
	provider := &stubProvider{events: nil}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	start := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(context.Background(), models.AvailabilityRecord{
		EventID: "manual-1",
		TutorID: "tutor-1",
		Title:   "Office hours",
		Start:   start,
		End:     start.Add(time.Hour),
		Origin:  models.OriginManual,
		Slots:   ExpandSlots(start, start.Add(time.Hour)),
	}))

	from, to := syncWindow()
	result, err := engine.Reconcile(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Pruned)
	exists, err := repo.ExistsByEventID(context.Background(), "manual-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReconcileProviderFailurePropagates(t *testing.T) {
	provider := &stubProvider{listErr: &calendar.ProviderUnavailableError{Err: errors.New("timeout")}}
	repo := newMemAvailabilityRepo()
	engine := newTestEngine(provider, repo, "tutor-1")

	from, to := syncWindow()
	_, err := engine.Reconcile(context.Background(), "tutor-1", from, to)

	var unavailable *calendar.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestExpandSlots(t *testing.T) {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	t.Run("whole hours", func(t *testing.T) {
		slots := ExpandSlots(start, start.Add(3*time.Hour))
		require.Len(t, slots, 3)
		for i, slot := range slots {
			assert.Equal(t, i, slot.Index)
			assert.Equal(t, start.Add(time.Duration(i)*time.Hour), slot.Start)
			assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
			assert.False(t, slot.Booked)
		}
	})

	t.Run("short window yields one slot", func(t *testing.T) {
		slots := ExpandSlots(start, start.Add(30*time.Minute))
		require.Len(t, slots, 1)
		assert.Equal(t, 30*time.Minute, slots[0].End.Sub(slots[0].Start))
	})

	t.Run("trailing partial hour is dropped", func(t *testing.T) {
		slots := ExpandSlots(start, start.Add(150*time.Minute))
		assert.Len(t, slots, 2)
	})

	t.Run("empty window", func(t *testing.T) {
		assert.Empty(t, ExpandSlots(start, start))
	})
}
