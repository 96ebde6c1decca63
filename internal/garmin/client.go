package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/septivank/garmin-health-worker/internal/credentials"
)

// Document is a decoded JSON response from the remote API. Endpoints answer
// with either an object or a list depending on version, so the concrete
// shape is resolved by the normalization helpers, not here.
type Document = interface{}

// Client is the capability-shaped remote API the sync pipeline consumes.
// Date-scoped calls take the calendar date; transport mechanics (signing,
// pagination) live behind this boundary.
type Client interface {
	SocialProfile(ctx context.Context) (Document, error)
	UserSummary(ctx context.Context, displayName string, date time.Time) (Document, error)
	DailyHeartRate(ctx context.Context, displayName string, date time.Time) (Document, error)
	SleepData(ctx context.Context, displayName string, date time.Time) (Document, error)
	BodyBattery(ctx context.Context, date time.Time) (Document, error)
	Respiration(ctx context.Context, date time.Time) (Document, error)
	PulseOx(ctx context.Context, date time.Time) (Document, error)
	Activities(ctx context.Context, start, limit int) (Document, error)
	ActivityDetail(ctx context.Context, activityID string) (Document, error)
	ActivityHeartRate(ctx context.Context, activityID string) (Document, error)

	// Credential returns the tokens currently in use, which may have been
	// refreshed since the client was created.
	Credential() credentials.Credential
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status int
	Path   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("garmin api: %s returned status %d", e.Path, e.Status)
}

// IsAuthError reports whether err indicates revoked or expired credentials,
// as opposed to a transient remote failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return errors.Is(err, ErrCredentialsExpired)
}

const dateLayout = "2006-01-02"

// restClient is the net/http implementation of Client.
type restClient struct {
	baseURL string
	http    *http.Client
	cred    credentials.Credential
}

// NewClient creates a REST client against the given API base URL using the
// supplied credential pair.
func NewClient(baseURL string, cred credentials.Credential) Client {
	return &restClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		cred:    cred,
	}
}

func (c *restClient) Credential() credentials.Credential {
	return c.cred
}

func (c *restClient) get(ctx context.Context, path string, query url.Values) (Document, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.AccessToken())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Path: path}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return doc, nil
}

func (c *restClient) SocialProfile(ctx context.Context) (Document, error) {
	return c.get(ctx, "/userprofile-service/socialProfile", nil)
}

func (c *restClient) UserSummary(ctx context.Context, displayName string, date time.Time) (Document, error) {
	return c.get(ctx, "/usersummary-service/usersummary/daily/"+url.PathEscape(displayName),
		url.Values{"calendarDate": {date.Format(dateLayout)}})
}

func (c *restClient) DailyHeartRate(ctx context.Context, displayName string, date time.Time) (Document, error) {
	return c.get(ctx, "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(displayName),
		url.Values{"date": {date.Format(dateLayout)}})
}

func (c *restClient) SleepData(ctx context.Context, displayName string, date time.Time) (Document, error) {
	return c.get(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(displayName),
		url.Values{"date": {date.Format(dateLayout)}, "nonSleepBufferMinutes": {"60"}})
}

func (c *restClient) BodyBattery(ctx context.Context, date time.Time) (Document, error) {
	d := date.Format(dateLayout)
	return c.get(ctx, "/wellness-service/wellness/bodyBattery/reports/daily",
		url.Values{"startDate": {d}, "endDate": {d}})
}

func (c *restClient) Respiration(ctx context.Context, date time.Time) (Document, error) {
	return c.get(ctx, "/wellness-service/wellness/daily/respiration/"+date.Format(dateLayout), nil)
}

func (c *restClient) PulseOx(ctx context.Context, date time.Time) (Document, error) {
	return c.get(ctx, "/wellness-service/wellness/daily/spo2/"+date.Format(dateLayout), nil)
}

func (c *restClient) Activities(ctx context.Context, start, limit int) (Document, error) {
	return c.get(ctx, "/activitylist-service/activities/search/activities",
		url.Values{"start": {fmt.Sprint(start)}, "limit": {fmt.Sprint(limit)}})
}

func (c *restClient) ActivityDetail(ctx context.Context, activityID string) (Document, error) {
	return c.get(ctx, "/activity-service/activity/"+url.PathEscape(activityID), nil)
}

func (c *restClient) ActivityHeartRate(ctx context.Context, activityID string) (Document, error) {
	return c.get(ctx, "/activity-service/activity/"+url.PathEscape(activityID)+"/hrTimeInZones", nil)
}
