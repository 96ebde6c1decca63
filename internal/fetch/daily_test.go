package fetch_test

import (
	"context"
	"testing"
	"time"

	"github.com/septivank/garmin-health-worker/internal/credentials"
	"github.com/septivank/garmin-health-worker/internal/fetch"
	"github.com/septivank/garmin-health-worker/internal/garmin"
)

// fakeClient serves canned documents per capability. Unset capabilities
// answer with an empty document (absent).
type fakeClient struct {
	summary     garmin.Document
	heartRate   garmin.Document
	sleep       garmin.Document
	bodyBattery garmin.Document
	respiration garmin.Document
	pulseOx     garmin.Document
}

func (c *fakeClient) SocialProfile(ctx context.Context) (garmin.Document, error) {
	return map[string]interface{}{"displayName": "tester"}, nil
}
func (c *fakeClient) UserSummary(ctx context.Context, name string, date time.Time) (garmin.Document, error) {
	return c.summary, nil
}
func (c *fakeClient) DailyHeartRate(ctx context.Context, name string, date time.Time) (garmin.Document, error) {
	return c.heartRate, nil
}
func (c *fakeClient) SleepData(ctx context.Context, name string, date time.Time) (garmin.Document, error) {
	return c.sleep, nil
}
func (c *fakeClient) BodyBattery(ctx context.Context, date time.Time) (garmin.Document, error) {
	return c.bodyBattery, nil
}
func (c *fakeClient) Respiration(ctx context.Context, date time.Time) (garmin.Document, error) {
	return c.respiration, nil
}
func (c *fakeClient) PulseOx(ctx context.Context, date time.Time) (garmin.Document, error) {
	return c.pulseOx, nil
}
func (c *fakeClient) Activities(ctx context.Context, start, limit int) (garmin.Document, error) {
	return nil, nil
}
func (c *fakeClient) ActivityDetail(ctx context.Context, id string) (garmin.Document, error) {
	return nil, nil
}
func (c *fakeClient) ActivityHeartRate(ctx context.Context, id string) (garmin.Document, error) {
	return nil, nil
}
func (c *fakeClient) Credential() credentials.Credential { return credentials.Credential{} }

func newSession(t *testing.T, client garmin.Client) *garmin.Session {
	t.Helper()
	session, err := garmin.Establish(context.Background(), client)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	return session
}

func runFetcher(t *testing.T, name string, client garmin.Client) fetch.FieldSet {
	t.Helper()
	session := newSession(t, client)
	date := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	for _, f := range fetch.DailyFetchers() {
		if f.Name == name {
			fields, err := f.Fn(context.Background(), session, date)
			if err != nil {
				t.Fatalf("Fetcher %s returned error: %v", name, err)
			}
			return fields
		}
	}
	t.Fatalf("No fetcher named %s", name)
	return nil
}

func TestFetchSummary(t *testing.T) {
	client := &fakeClient{summary: map[string]interface{}{
		"totalSteps":          12500.0,
		"totalDistanceMeters": 9800.5,
		"vo2Max":              48.0,
	}}

	fields := runFetcher(t, "summary", client)

	if v, ok := fields.Get(fetch.FieldSteps); !ok || v != 12500.0 {
		t.Errorf("Expected steps 12500, got %v ok=%v", v, ok)
	}
	if v, ok := fields.Get(fetch.FieldDistanceMeters); !ok || v != 9800.5 {
		t.Errorf("Expected distance 9800.5, got %v ok=%v", v, ok)
	}
	if v, ok := fields.Get(fetch.FieldVO2Max); !ok || v != 48.0 {
		t.Errorf("Expected vo2max 48, got %v ok=%v", v, ok)
	}
}

func TestFetchSummary_ZeroIsReported(t *testing.T) {
	// A genuine zero from the source is a value, not an unknown
	client := &fakeClient{summary: map[string]interface{}{"totalSteps": 0.0}}

	fields := runFetcher(t, "summary", client)
	if v, ok := fields.Get(fetch.FieldSteps); !ok || v != 0.0 {
		t.Errorf("Expected reported zero steps, got %v ok=%v", v, ok)
	}
}

func TestFetchHeartRate(t *testing.T) {
	client := &fakeClient{heartRate: map[string]interface{}{
		"restingHeartRate": 52.0,
		"maxHeartRate":     171.0,
	}}

	fields := runFetcher(t, "heart_rate", client)
	if v, ok := fields.Get(fetch.FieldRestingHR); !ok || v != 52.0 {
		t.Errorf("Expected resting HR 52, got %v ok=%v", v, ok)
	}
	if v, ok := fields.Get(fetch.FieldMaxHR); !ok || v != 171.0 {
		t.Errorf("Expected max HR 171, got %v ok=%v", v, ok)
	}
}

func TestFetchSleep_NestedScores(t *testing.T) {
	client := &fakeClient{sleep: map[string]interface{}{
		"dailySleepDTO": map[string]interface{}{
			"sleepTimeSeconds": 27360.0,
			"sleepScores": map[string]interface{}{
				"overall": map[string]interface{}{"value": 82.0},
			},
		},
	}}

	fields := runFetcher(t, "sleep", client)
	if v, ok := fields.Get(fetch.FieldSleepDuration); !ok || v != 27360.0 {
		t.Errorf("Expected sleep duration 27360, got %v ok=%v", v, ok)
	}
	if v, ok := fields.Get(fetch.FieldSleepScore); !ok || v != 82.0 {
		t.Errorf("Expected sleep score 82, got %v ok=%v", v, ok)
	}
}

func TestFetchBodyBattery_ListResponse(t *testing.T) {
	// The daily report endpoint answers with a list, one element per day
	client := &fakeClient{bodyBattery: []interface{}{
		map[string]interface{}{"charged": 68.0},
	}}

	fields := runFetcher(t, "body_battery", client)
	if v, ok := fields.Get(fetch.FieldBodyBattery); !ok || v != 68.0 {
		t.Errorf("Expected body battery 68, got %v ok=%v", v, ok)
	}
}

func TestFetchBodyBattery_EmptyListAbsent(t *testing.T) {
	client := &fakeClient{bodyBattery: []interface{}{}}

	fields := runFetcher(t, "body_battery", client)
	if len(fields) != 0 {
		t.Errorf("Expected absent fields for empty list, got %v", fields)
	}
}

func TestFetchRespirationAndPulseOx(t *testing.T) {
	client := &fakeClient{
		respiration: map[string]interface{}{"avgWakingRespirationValue": 14.2},
		pulseOx:     map[string]interface{}{"averageSpo2": 96.0},
	}

	resp := runFetcher(t, "respiration", client)
	if v, ok := resp.Get(fetch.FieldRespirationRate); !ok || v != 14.2 {
		t.Errorf("Expected respiration 14.2, got %v ok=%v", v, ok)
	}

	spo2 := runFetcher(t, "spo2", client)
	if v, ok := spo2.Get(fetch.FieldSpO2Avg); !ok || v != 96.0 {
		t.Errorf("Expected SpO2 96, got %v ok=%v", v, ok)
	}
}

func TestFieldSetMerge(t *testing.T) {
	fields := fetch.FieldSet{fetch.FieldSteps: 100.0}
	fields.Merge(fetch.FieldSet{fetch.FieldRestingHR: 50.0})
	fields.Merge(nil)

	if len(fields) != 2 {
		t.Errorf("Expected 2 fields after merge, got %d", len(fields))
	}
}
