package fetch

import (
	"context"
	"time"

	"github.com/septivank/garmin-health-worker/internal/garmin"
)

// DailyFetcher retrieves one metric family for one date. A fetcher never
// aborts the sync: absent data comes back as an empty FieldSet with a nil
// error, and an error return is recorded in the report but still degrades
// to absent. One flaky endpoint must not block the other families.
type DailyFetcher struct {
	// Name identifies the metric family in reports and logs.
	Name string
	Fn   func(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error)
}

// DailyFetchers returns the fetcher per metric family, in the order the
// aggregator invokes them.
func DailyFetchers() []DailyFetcher {
	return []DailyFetcher{
		{Name: "summary", Fn: fetchSummary},
		{Name: "heart_rate", Fn: fetchHeartRate},
		{Name: "sleep", Fn: fetchSleep},
		{Name: "body_battery", Fn: fetchBodyBattery},
		{Name: "respiration", Fn: fetchRespiration},
		{Name: "spo2", Fn: fetchPulseOx},
	}
}

// fetchSummary covers steps, distance and VO2max from the daily user
// summary endpoint.
func fetchSummary(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().UserSummary(ctx, s.DisplayName(), date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "totalSteps"); ok {
		fields[FieldSteps] = v
	}
	if v, ok := garmin.DigNumber(doc, "totalDistanceMeters"); ok {
		fields[FieldDistanceMeters] = v
	}
	if v, ok := garmin.DigNumber(doc, "vo2Max"); ok {
		fields[FieldVO2Max] = v
	}
	return fields, nil
}

func fetchHeartRate(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().DailyHeartRate(ctx, s.DisplayName(), date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "restingHeartRate"); ok {
		fields[FieldRestingHR] = v
	}
	if v, ok := garmin.DigNumber(doc, "maxHeartRate"); ok {
		fields[FieldMaxHR] = v
	}
	return fields, nil
}

func fetchSleep(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().SleepData(ctx, s.DisplayName(), date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "dailySleepDTO", "sleepTimeSeconds"); ok {
		fields[FieldSleepDuration] = v
	}
	if v, ok := garmin.DigNumber(doc, "dailySleepDTO", "sleepScores", "overall", "value"); ok {
		fields[FieldSleepScore] = v
	}
	return fields, nil
}

// fetchBodyBattery reads the charged value from the daily report, which the
// remote returns as a list with one element per requested day.
func fetchBodyBattery(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().BodyBattery(ctx, date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "charged"); ok {
		fields[FieldBodyBattery] = v
	}
	return fields, nil
}

func fetchRespiration(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().Respiration(ctx, date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "avgWakingRespirationValue"); ok {
		fields[FieldRespirationRate] = v
	}
	return fields, nil
}

func fetchPulseOx(ctx context.Context, s *garmin.Session, date time.Time) (FieldSet, error) {
	doc, err := s.Client().PulseOx(ctx, date)
	if err != nil {
		return nil, err
	}

	fields := FieldSet{}
	if v, ok := garmin.DigNumber(doc, "averageSpo2"); ok {
		fields[FieldSpO2Avg] = v
	}
	return fields, nil
}
