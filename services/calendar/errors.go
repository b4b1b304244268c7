package calendar

import "fmt"

// ValidationError indicates malformed input (e.g. an event draft missing a
// start time).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NotConnectedError indicates the tutor has no stored provider credential.
type NotConnectedError struct {
	TutorID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("tutor %s has no calendar connection", e.TutorID)
}

// AuthExpiredError indicates the provider rejected the access token. It is
// retryable via a credential refresh.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("provider auth expired: %v", e.Err)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// NeedsReconnectionError is terminal: the refresh budget is exhausted and
// the tutor must re-authorize the calendar connection.
type NeedsReconnectionError struct {
	TutorID string
}

func (e *NeedsReconnectionError) Error() string {
	return fmt.Sprintf("tutor %s must reconnect their calendar", e.TutorID)
}

// ProviderUnavailableError indicates a network failure or provider-side
// outage. Never retried here; read paths fall back to substitute data.
type ProviderUnavailableError struct {
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("calendar provider unavailable: %v", e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
