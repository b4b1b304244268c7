package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"tutorhive/models"
)

// fakeCredentialStore keeps credentials in memory. Get returns
// mongo.ErrNoDocuments for unknown tutors, matching the Mongo-backed store.
type fakeCredentialStore struct {
	mu    sync.Mutex
	creds map[string]models.Credential
	saves int
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{creds: make(map[string]models.Credential)}
}

func (s *fakeCredentialStore) Get(ctx context.Context, tutorID string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[tutorID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &cred, nil
}

func (s *fakeCredentialStore) Save(ctx context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.TutorID] = cred
	s.saves++
	return nil
}

func (s *fakeCredentialStore) Delete(ctx context.Context, tutorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, tutorID)
	return nil
}

// fakeRefreshProvider only implements the refresh path; list/create/delete
// are unused by the coordinator.
type fakeRefreshProvider struct {
	refreshCalls int32
	refreshErr   error
	refreshGate  chan struct{} // when set, refresh blocks until closed
}

func (p *fakeRefreshProvider) RefreshCredential(ctx context.Context, refreshToken string) (*models.Credential, error) {
	atomic.AddInt32(&p.refreshCalls, 1)
	if p.refreshGate != nil {
		<-p.refreshGate
	}
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return &models.Credential{
		AccessToken:  "fresh-token",
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *fakeRefreshProvider) ListEvents(ctx context.Context, cred *models.Credential, tutorID string, from, to time.Time, maxResults int64) ([]models.CalendarEvent, error) {
	return nil, nil
}

func (p *fakeRefreshProvider) CreateEvent(ctx context.Context, cred *models.Credential, tutorID string, draft models.EventDraft) (string, error) {
	return "", nil
}

func (p *fakeRefreshProvider) DeleteEvent(ctx context.Context, cred *models.Credential, tutorID, eventID string) error {
	return nil
}

func newTestCoordinator(provider *fakeRefreshProvider, store *fakeCredentialStore) *TokenRefreshCoordinator {
	return NewTokenRefreshCoordinator(provider, store, zap.NewNop())
}

func seedCredential(store *fakeCredentialStore, tutorID string) {
	store.creds[tutorID] = models.Credential{
		TutorID:      tutorID,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
	}
}

func TestWithAuthNoCredential(t *testing.T) {
	coordinator := newTestCoordinator(&fakeRefreshProvider{}, newFakeCredentialStore())

	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		t.Fatal("op must not run without a credential")
		return nil
	})

	var notConnected *NotConnectedError
	require.ErrorAs(t, err, &notConnected)
	assert.Equal(t, "tutor-1", notConnected.TutorID)
}

func TestWithAuthRefreshesOnceThenSucceeds(t *testing.T) {
	provider := &fakeRefreshProvider{}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	var attempts int
	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		attempts++
		if cred.AccessToken == "stale-token" {
			return &AuthExpiredError{Err: errors.New("401")}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.refreshCalls))

	// The refreshed credential is persisted, not just held in memory.
	saved, err := store.Get(context.Background(), "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", saved.AccessToken)
}

func TestWithAuthExhaustedBudgetNeedsReconnection(t *testing.T) {
	provider := &fakeRefreshProvider{}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	var attempts int
	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		attempts++
		return &AuthExpiredError{Err: errors.New("401")}
	})

	var needsReconnection *NeedsReconnectionError
	require.ErrorAs(t, err, &needsReconnection)
	assert.Equal(t, DefaultMaxAttempts, attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.refreshCalls))
}

func TestWithAuthDeadRefreshTokenNeedsReconnection(t *testing.T) {
	provider := &fakeRefreshProvider{refreshErr: &AuthExpiredError{Err: errors.New("invalid_grant")}}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		return &AuthExpiredError{Err: errors.New("401")}
	})

	var needsReconnection *NeedsReconnectionError
	require.ErrorAs(t, err, &needsReconnection)
}

func TestWithAuthNonAuthErrorsNeverRetried(t *testing.T) {
	provider := &fakeRefreshProvider{}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	outage := &ProviderUnavailableError{Err: errors.New("connection reset")}
	var attempts int
	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		attempts++
		return outage
	})

	var unavailable *ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(0), atomic.LoadInt32(&provider.refreshCalls))
}

func TestWithAuthCoalescesConcurrentRefreshes(t *testing.T) {
	provider := &fakeRefreshProvider{refreshGate: make(chan struct{})}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
				if cred.AccessToken == "stale-token" {
					return &AuthExpiredError{Err: errors.New("401")}
				}
				return nil
			})
		}()
	}

	// Wait for the first caller to reach the gated refresh, give the rest a
	// moment to pile onto the same flight, then release.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&provider.refreshCalls) >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(provider.refreshGate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.refreshCalls), "concurrent refreshes must coalesce into one provider call")
	assert.Equal(t, 1, store.saves)
}

func TestWithAuthOpReceivesFreshestCredential(t *testing.T) {
	provider := &fakeRefreshProvider{}
	store := newFakeCredentialStore()
	seedCredential(store, "tutor-1")
	coordinator := newTestCoordinator(provider, store)

	var seen []string
	err := coordinator.WithAuth(context.Background(), "tutor-1", func(ctx context.Context, cred *models.Credential) error {
		seen = append(seen, cred.AccessToken)
		if len(seen) == 1 {
			return &AuthExpiredError{Err: fmt.Errorf("401")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale-token", "fresh-token"}, seen)
}
