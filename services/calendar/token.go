package calendar

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tutorhive/models"
)

// DefaultMaxAttempts bounds how many times an authenticated operation is
// attempted before giving up with NeedsReconnectionError.
const DefaultMaxAttempts = 2

// AuthedOp is any provider call that needs a live credential. It receives
// the freshest credential on every attempt.
type AuthedOp func(ctx context.Context, cred *models.Credential) error

// TokenRefreshCoordinator wraps provider calls with bounded, coalesced
// credential refresh. Auth-expired failures trigger one refresh and one
// retry; every other error class propagates untouched so callers can decide
// (e.g. fall back to cached data on ProviderUnavailableError).
type TokenRefreshCoordinator struct {
	Provider    Provider
	Store       CredentialStore
	MaxAttempts int
	Logger      *zap.Logger

	refreshGroup singleflight.Group
}

// NewTokenRefreshCoordinator wires a coordinator with the default attempt
// budget.
func NewTokenRefreshCoordinator(provider Provider, store CredentialStore, logger *zap.Logger) *TokenRefreshCoordinator {
	return &TokenRefreshCoordinator{
		Provider:    provider,
		Store:       store,
		MaxAttempts: DefaultMaxAttempts,
		Logger:      logger,
	}
}

// WithAuth runs op under the tutor's stored credential, refreshing and
// retrying on auth expiry within the attempt budget.
func (c *TokenRefreshCoordinator) WithAuth(ctx context.Context, tutorID string, op AuthedOp) error {
	cred, err := c.Store.Get(ctx, tutorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &NotConnectedError{TutorID: tutorID}
		}
		return err
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx, cred)
		if err == nil {
			return nil
		}

		var authErr *AuthExpiredError
		if !errors.As(err, &authErr) {
			// Network and validation failures are never retried here.
			return err
		}

		if attempt >= maxAttempts {
			c.Logger.Warn("auth retry budget exhausted",
				zap.String("tutorId", tutorID),
				zap.Int("attempts", attempt))
			return &NeedsReconnectionError{TutorID: tutorID}
		}

		cred, err = c.refresh(ctx, tutorID, cred.RefreshToken)
		if err != nil {
			if errors.As(err, &authErr) {
				// The refresh token itself is dead: no retry can help.
				return &NeedsReconnectionError{TutorID: tutorID}
			}
			return err
		}
	}
}

// refresh exchanges the refresh token and persists the result. Concurrent
// refreshes for the same tutor are coalesced into a single provider call;
// every waiter receives the same fresh credential.
func (c *TokenRefreshCoordinator) refresh(ctx context.Context, tutorID, refreshToken string) (*models.Credential, error) {
	v, err, shared := c.refreshGroup.Do(tutorID, func() (interface{}, error) {
		fresh, err := c.Provider.RefreshCredential(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		fresh.TutorID = tutorID
		if err := c.Store.Save(ctx, *fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.Logger.Debug("credential refresh coalesced", zap.String("tutorId", tutorID))
	}
	return v.(*models.Credential), nil
}
