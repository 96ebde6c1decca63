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

// DailyStore is the slice of the persistence layer the daily aggregator
// needs.
type DailyStore interface {
	UpsertDaily(ctx context.Context, rec *db.DailyHealthRecord) error
}

// dailyAggregator walks a date range oldest-first, invokes every field
// fetcher per date and merges the results into one record per date.
type dailyAggregator struct {
	store    DailyStore
	fetchers []fetch.DailyFetcher
	pause    time.Duration
	logger   *zap.Logger
}

// run syncs all dates in [from, to] inclusive, ascending. Every date in
// the range yields exactly one upsert, even when every fetcher came back
// absent, so the stored date axis stays contiguous. Returns an error only
// for session-level auth expiry or cancellation; everything else degrades
// into the report.
func (a *dailyAggregator) run(ctx context.Context, session *garmin.Session, from, to time.Time, report *Report) error {
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields := fetch.FieldSet{}
		partial := false

		for _, fetcher := range a.fetchers {
			got, err := fetcher.Fn(ctx, session, date)
			if err != nil {
				if garmin.IsAuthError(err) {
					return fmt.Errorf("%w: during %s fetch for %s",
						garmin.ErrCredentialsExpired, fetcher.Name, date.Format("2006-01-02"))
				}
				report.AddFailure("daily/"+fetcher.Name,
					fmt.Sprintf("%s: %v", date.Format("2006-01-02"), err))
				partial = true
				continue
			}
			fields.Merge(got)
		}

		rec := buildDailyRecord(date, fields)
		if err := a.store.UpsertDaily(ctx, rec); err != nil {
			report.AddFailure("persistence/daily",
				fmt.Sprintf("%s: %v", date.Format("2006-01-02"), err))
			partial = true
		} else {
			report.DailyUpserted++
		}

		if partial {
			report.PartialDates++
		}

		a.logger.Debug("daily record synced",
			zap.String("date", date.Format("2006-01-02")),
			zap.Int("fields", len(fields)),
			zap.Bool("partial", partial))

		// Fixed delay between dates to respect the remote rate limit.
		if date.Before(to) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.pause):
			}
		}
	}

	return nil
}

// buildDailyRecord converts a merged field set into the record draft.
// Fields the fetchers never reported stay nil.
func buildDailyRecord(date time.Time, fields fetch.FieldSet) *db.DailyHealthRecord {
	rec := &db.DailyHealthRecord{Date: date}

	if v, ok := fields.Get(fetch.FieldSteps); ok {
		rec.Steps = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldDistanceMeters); ok {
		rec.DistanceMeters = &v
	}
	if v, ok := fields.Get(fetch.FieldRestingHR); ok {
		rec.RestingHeartRate = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldMaxHR); ok {
		rec.MaxHeartRate = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldSleepDuration); ok {
		rec.SleepDurationSeconds = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldSleepScore); ok {
		rec.SleepScore = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldBodyBattery); ok {
		rec.BodyBattery = int64Ptr(v)
	}
	if v, ok := fields.Get(fetch.FieldRespirationRate); ok {
		rec.RespirationRate = &v
	}
	if v, ok := fields.Get(fetch.FieldSpO2Avg); ok {
		rec.SpO2Avg = &v
	}
	if v, ok := fields.Get(fetch.FieldVO2Max); ok {
		rec.VO2Max = &v
	}

	return rec
}

func int64Ptr(v float64) *int64 {
	n := int64(v)
	return &n
}
