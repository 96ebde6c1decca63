package service

import (
	"context"
	"fmt"
	"time"

	"github.com/septivank/garmin-health-worker/internal/db"
	"github.com/septivank/garmin-health-worker/internal/fetch"
	"github.com/septivank/garmin-health-worker/internal/garmin"
	"go.uber.org/zap"
)

// ActivityStore is the slice of the persistence layer the activity
// aggregator needs.
type ActivityStore interface {
	UpsertActivity(ctx context.Context, rec *db.ActivityRecord) error
	ReplaceHeartRateSeries(ctx context.Context, activityID string, samples []db.HeartRateSample) error
	ReplaceSportMetrics(ctx context.Context, activityID string, metrics []db.SportMetric) error
}

// activityAggregator lists recent activities and syncs each one: record
// first, then heart-rate series and sport metrics. Each sub-fetch fails
// independently, so a record with no attached series is a valid end state.
type activityAggregator struct {
	store  ActivityStore
	pause  time.Duration
	logger *zap.Logger
}

func (a *activityAggregator) run(ctx context.Context, session *garmin.Session, limit int, report *Report) error {
	if limit <= 0 {
		return nil
	}

	doc, err := session.Client().Activities(ctx, 0, limit)
	if err != nil {
		if garmin.IsAuthError(err) {
			return fmt.Errorf("%w: during activity list fetch", garmin.ErrCredentialsExpired)
		}
		report.AddFailure("activity/list", err.Error())
		return nil
	}

	entries, ok := garmin.AsList(doc)
	if !ok {
		// Nothing recorded recently; not a failure.
		return nil
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := a.syncOne(ctx, session, entry, report); err != nil {
			return err
		}

		if i < len(entries)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.pause):
			}
		}
	}

	return nil
}

func (a *activityAggregator) syncOne(ctx context.Context, session *garmin.Session, entry garmin.Document, report *Report) error {
	rec, ok := fetch.ActivitySummary(entry)
	if !ok {
		report.AddFailure("activity/summary", "activity entry missing activityId, skipped")
		return nil
	}

	partial := false

	if err := a.store.UpsertActivity(ctx, rec); err != nil {
		report.AddFailure("persistence/activity",
			fmt.Sprintf("%s: %v", rec.ActivityID, err))
		report.PartialActivities++
		// Series and metrics reference the record row; without it there is
		// nothing more to do for this activity.
		return nil
	}
	report.ActivitiesUpserted++

	if err := a.syncHeartRate(ctx, session, rec.ActivityID, report); err != nil {
		if garmin.IsAuthError(err) {
			return fmt.Errorf("%w: during heart rate fetch for activity %s",
				garmin.ErrCredentialsExpired, rec.ActivityID)
		}
		partial = true
	}

	if err := a.syncSportMetrics(ctx, session, rec, report); err != nil {
		if garmin.IsAuthError(err) {
			return fmt.Errorf("%w: during detail fetch for activity %s",
				garmin.ErrCredentialsExpired, rec.ActivityID)
		}
		partial = true
	}

	if partial {
		report.PartialActivities++
	}

	a.logger.Debug("activity synced",
		zap.String("activity_id", rec.ActivityID),
		zap.String("activity_type", rec.ActivityType),
		zap.Bool("partial", partial))

	return nil
}

func (a *activityAggregator) syncHeartRate(ctx context.Context, session *garmin.Session, activityID string, report *Report) error {
	doc, err := session.Client().ActivityHeartRate(ctx, activityID)
	if err != nil {
		if garmin.IsAuthError(err) {
			return err
		}
		report.AddFailure("activity/heart_rate",
			fmt.Sprintf("%s: %v", activityID, err))
		return fmt.Errorf("heart rate fetch failed: %w", err)
	}

	samples := fetch.HeartRateSeries(doc)
	if len(samples) == 0 {
		return nil
	}

	if err := a.store.ReplaceHeartRateSeries(ctx, activityID, samples); err != nil {
		report.AddFailure("persistence/heart_rate",
			fmt.Sprintf("%s: %v", activityID, err))
		return err
	}
	report.HeartRateSeries++

	return nil
}

func (a *activityAggregator) syncSportMetrics(ctx context.Context, session *garmin.Session, rec *db.ActivityRecord, report *Report) error {
	family := fetch.ClassifySport(rec.ActivityType)
	if family == fetch.FamilyNone {
		return nil
	}

	detail, err := session.Client().ActivityDetail(ctx, rec.ActivityID)
	if err != nil {
		if garmin.IsAuthError(err) {
			return err
		}
		report.AddFailure("activity/detail",
			fmt.Sprintf("%s: %v", rec.ActivityID, err))
		return fmt.Errorf("detail fetch failed: %w", err)
	}

	metrics := fetch.SportMetrics(family, detail)
	if len(metrics) == 0 {
		return nil
	}

	if err := a.store.ReplaceSportMetrics(ctx, rec.ActivityID, metrics); err != nil {
		report.AddFailure("persistence/sport_metrics",
			fmt.Sprintf("%s: %v", rec.ActivityID, err))
		return err
	}
	report.SportMetricSets++

	return nil
}
