package calendar

import (
	"context"
	"time"

	"tutorhive/models"
)

// Provider abstracts the external calendar API. Implementations must carry
// an explicit timeout on every outbound call and classify failures using the
// typed errors in this package, never by message sniffing.
type Provider interface {
	ListEvents(ctx context.Context, cred *models.Credential, tutorID string, from, to time.Time, maxResults int64) ([]models.CalendarEvent, error)
	CreateEvent(ctx context.Context, cred *models.Credential, tutorID string, draft models.EventDraft) (string, error)
	DeleteEvent(ctx context.Context, cred *models.Credential, tutorID, eventID string) error
	RefreshCredential(ctx context.Context, refreshToken string) (*models.Credential, error)
}

// CredentialStore persists provider credentials per tutor. Mutated only by
// the token refresh coordinator.
type CredentialStore interface {
	Get(ctx context.Context, tutorID string) (*models.Credential, error)
	Save(ctx context.Context, cred models.Credential) error
	Delete(ctx context.Context, tutorID string) error
}
