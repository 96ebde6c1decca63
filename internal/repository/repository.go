package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/garmin-health-worker/internal/db"
)

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertDaily writes one daily health record, replacing the whole row when
// the date already exists. Re-running a sync over the same range converges
// on the same stored state.
func (r *Repository) UpsertDaily(ctx context.Context, rec *db.DailyHealthRecord) error {
	query := `
		INSERT INTO daily_health (
			date, steps, distance_meters, resting_heart_rate, max_heart_rate,
			sleep_duration_seconds, sleep_score, body_battery, respiration_rate,
			spo2_avg, vo2_max, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (date) DO UPDATE SET
			steps = EXCLUDED.steps,
			distance_meters = EXCLUDED.distance_meters,
			resting_heart_rate = EXCLUDED.resting_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			sleep_duration_seconds = EXCLUDED.sleep_duration_seconds,
			sleep_score = EXCLUDED.sleep_score,
			body_battery = EXCLUDED.body_battery,
			respiration_rate = EXCLUDED.respiration_rate,
			spo2_avg = EXCLUDED.spo2_avg,
			vo2_max = EXCLUDED.vo2_max,
			updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		rec.Date,
		rec.Steps,
		rec.DistanceMeters,
		rec.RestingHeartRate,
		rec.MaxHeartRate,
		rec.SleepDurationSeconds,
		rec.SleepScore,
		rec.BodyBattery,
		rec.RespirationRate,
		rec.SpO2Avg,
		rec.VO2Max,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert daily record for %s: %w", rec.Date.Format("2006-01-02"), err)
	}

	return nil
}

// UpsertActivity writes one activity record keyed on the remote activity
// identifier, full-row replace on conflict.
func (r *Repository) UpsertActivity(ctx context.Context, rec *db.ActivityRecord) error {
	query := `
		INSERT INTO activities (
			activity_id, activity_type, start_time, duration_seconds,
			distance_meters, average_hr, max_hr, calories,
			average_speed, max_speed, elevation_gain, elevation_loss, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (activity_id) DO UPDATE SET
			activity_type = EXCLUDED.activity_type,
			start_time = EXCLUDED.start_time,
			duration_seconds = EXCLUDED.duration_seconds,
			distance_meters = EXCLUDED.distance_meters,
			average_hr = EXCLUDED.average_hr,
			max_hr = EXCLUDED.max_hr,
			calories = EXCLUDED.calories,
			average_speed = EXCLUDED.average_speed,
			max_speed = EXCLUDED.max_speed,
			elevation_gain = EXCLUDED.elevation_gain,
			elevation_loss = EXCLUDED.elevation_loss,
			updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		rec.ActivityID,
		rec.ActivityType,
		rec.StartTime,
		rec.DurationSeconds,
		rec.DistanceMeters,
		rec.AverageHR,
		rec.MaxHR,
		rec.Calories,
		rec.AverageSpeed,
		rec.MaxSpeed,
		rec.ElevationGain,
		rec.ElevationLoss,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert activity %s: %w", rec.ActivityID, err)
	}

	return nil
}

// ReplaceHeartRateSeries atomically swaps the heart-rate time series for an
// activity. Delete and insert happen in one transaction so a concurrent
// reader never observes a half-replaced series.
func (r *Repository) ReplaceHeartRateSeries(ctx context.Context, activityID string, samples []db.HeartRateSample) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM activity_heart_rate WHERE activity_id = $1`, activityID); err != nil {
		return fmt.Errorf("failed to delete heart rate series for %s: %w", activityID, err)
	}

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(
			`INSERT INTO activity_heart_rate (activity_id, timestamp, heart_rate) VALUES ($1, $2, $3)`,
			activityID, s.Timestamp, s.HeartRate,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert heart rate series for %s: %w", activityID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit heart rate series for %s: %w", activityID, err)
	}

	return nil
}

// ReplaceSportMetrics atomically swaps the sport-specific metrics for an
// activity.
func (r *Repository) ReplaceSportMetrics(ctx context.Context, activityID string, metrics []db.SportMetric) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sport_metrics WHERE activity_id = $1`, activityID); err != nil {
		return fmt.Errorf("failed to delete sport metrics for %s: %w", activityID, err)
	}

	for _, m := range metrics {
		_, err := tx.Exec(ctx,
			`INSERT INTO sport_metrics (activity_id, metric_name, metric_value) VALUES ($1, $2, $3)`,
			activityID, m.Name, m.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sport metric %s for %s: %w", m.Name, activityID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sport metrics for %s: %w", activityID, err)
	}

	return nil
}

// DailyRange returns daily records for a date window, ascending. Consumed
// by the downstream reporting service.
func (r *Repository) DailyRange(ctx context.Context, from, to time.Time) ([]db.DailyHealthRecord, error) {
	query := `
		SELECT date, steps, distance_meters, resting_heart_rate, max_heart_rate,
		       sleep_duration_seconds, sleep_score, body_battery, respiration_rate,
		       spo2_avg, vo2_max
		FROM daily_health
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily range: %w", err)
	}
	defer rows.Close()

	var records []db.DailyHealthRecord
	for rows.Next() {
		var rec db.DailyHealthRecord
		if err := rows.Scan(
			&rec.Date, &rec.Steps, &rec.DistanceMeters, &rec.RestingHeartRate,
			&rec.MaxHeartRate, &rec.SleepDurationSeconds, &rec.SleepScore,
			&rec.BodyBattery, &rec.RespirationRate, &rec.SpO2Avg, &rec.VO2Max,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// RecentActivities returns activities ordered by start time descending,
// limited. Consumed by the downstream reporting service.
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]db.ActivityRecord, error) {
	query := `
		SELECT activity_id, activity_type, start_time, duration_seconds,
		       distance_meters, average_hr, max_hr, calories,
		       average_speed, max_speed, elevation_gain, elevation_loss
		FROM activities
		ORDER BY start_time DESC NULLS LAST
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activities: %w", err)
	}
	defer rows.Close()

	var records []db.ActivityRecord
	for rows.Next() {
		var rec db.ActivityRecord
		if err := rows.Scan(
			&rec.ActivityID, &rec.ActivityType, &rec.StartTime, &rec.DurationSeconds,
			&rec.DistanceMeters, &rec.AverageHR, &rec.MaxHR, &rec.Calories,
			&rec.AverageSpeed, &rec.MaxSpeed, &rec.ElevationGain, &rec.ElevationLoss,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
