package calendar

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"tutorhive/config"
	"tutorhive/models"
)

const providerCallTimeout = 15 * time.Second

// GoogleProvider implements Provider against the Google Calendar API. Each
// tutor's primary calendar holds their published availability events.
type GoogleProvider struct {
	oauth *oauth2.Config
}

// NewGoogleProvider builds a provider from the configured OAuth client.
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     config.AppConfig.GoogleClientID,
			ClientSecret: config.AppConfig.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendarapi.CalendarEventsScope},
		},
	}
}

func (p *GoogleProvider) service(ctx context.Context, cred *models.Credential) (*calendarapi.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken})
	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, &ProviderUnavailableError{Err: err}
	}
	return svc, nil
}

// ListEvents fetches single (expanded) events from the tutor's primary
// calendar within the window, ordered by start time.
func (p *GoogleProvider) ListEvents(ctx context.Context, cred *models.Credential, tutorID string, from, to time.Time, maxResults int64) ([]models.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	svc, err := p.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List("primary").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	res, err := call.Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	events := make([]models.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, convertGoogleEvent(item))
	}
	return events, nil
}

// CreateEvent publishes a draft availability window to the tutor's calendar
// and returns the provider event id.
func (p *GoogleProvider) CreateEvent(ctx context.Context, cred *models.Credential, tutorID string, draft models.EventDraft) (string, error) {
	if draft.Title == "" || draft.Start.IsZero() {
		return "", &ValidationError{Reason: "event draft requires a title and a start time"}
	}

	ctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	svc, err := p.service(ctx, cred)
	if err != nil {
		return "", err
	}

	event := &calendarapi.Event{
		Summary: draft.Title,
		Start:   &calendarapi.EventDateTime{DateTime: draft.Start.Format(time.RFC3339)},
		End:     &calendarapi.EventDateTime{DateTime: draft.End.Format(time.RFC3339)},
	}
	if len(draft.Subjects) > 0 {
		event.ExtendedProperties = &calendarapi.EventExtendedProperties{
			Private: map[string]string{"subjects": strings.Join(draft.Subjects, ",")},
		}
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleError(err)
	}
	return created.Id, nil
}

// DeleteEvent removes a provider event from the tutor's calendar.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, cred *models.Credential, tutorID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	svc, err := p.service(ctx, cred)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return classifyGoogleError(err)
	}
	return nil
}

// RefreshCredential exchanges the refresh token for a fresh access token.
func (p *GoogleProvider) RefreshCredential(ctx context.Context, refreshToken string) (*models.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	ts := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest || retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			// invalid_grant: the refresh token itself is dead.
			return nil, &AuthExpiredError{Err: err}
		}
		return nil, &ProviderUnavailableError{Err: err}
	}

	cred := &models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		Expiry:       token.Expiry,
	}
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	return cred, nil
}

// classifyGoogleError maps a Google API failure onto the package taxonomy
// using the structured status code.
func classifyGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return &AuthExpiredError{Err: err}
		case apiErr.Code == http.StatusBadRequest:
			return &ValidationError{Reason: apiErr.Message}
		case apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests:
			return &ProviderUnavailableError{Err: err}
		}
		return err
	}
	// Transport-level failure (timeout, DNS, connection reset).
	return &ProviderUnavailableError{Err: err}
}

func convertGoogleEvent(item *calendarapi.Event) models.CalendarEvent {
	ev := models.CalendarEvent{
		ID:        item.Id,
		Title:     item.Summary,
		Recurring: item.RecurringEventId != "",
	}
	if item.Start != nil && item.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
			ev.Start = t
		}
	}
	if item.End != nil && item.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			ev.End = t
		}
	}
	if item.ExtendedProperties != nil {
		if raw, ok := item.ExtendedProperties.Private["subjects"]; ok && raw != "" {
			ev.Subjects = strings.Split(raw, ",")
		}
	}
	return ev
}
