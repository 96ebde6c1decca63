package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS daily_health (
		date DATE PRIMARY KEY,
		steps BIGINT,
		distance_meters DOUBLE PRECISION,
		resting_heart_rate BIGINT,
		max_heart_rate BIGINT,
		sleep_duration_seconds BIGINT,
		sleep_score BIGINT,
		body_battery BIGINT,
		respiration_rate DOUBLE PRECISION,
		spo2_avg DOUBLE PRECISION,
		vo2_max DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		activity_id TEXT PRIMARY KEY,
		activity_type TEXT NOT NULL,
		start_time TIMESTAMPTZ,
		duration_seconds DOUBLE PRECISION,
		distance_meters DOUBLE PRECISION,
		average_hr DOUBLE PRECISION,
		max_hr DOUBLE PRECISION,
		calories DOUBLE PRECISION,
		average_speed DOUBLE PRECISION,
		max_speed DOUBLE PRECISION,
		elevation_gain DOUBLE PRECISION,
		elevation_loss DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS activity_heart_rate (
		activity_id TEXT NOT NULL REFERENCES activities(activity_id) ON DELETE CASCADE,
		timestamp TIMESTAMPTZ NOT NULL,
		heart_rate BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sport_metrics (
		activity_id TEXT NOT NULL REFERENCES activities(activity_id) ON DELETE CASCADE,
		metric_name TEXT NOT NULL,
		metric_value DOUBLE PRECISION,
		PRIMARY KEY (activity_id, metric_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_hr_activity ON activity_heart_rate(activity_id)`,
}

// EnsureSchema creates the sync tables if they do not exist. Idempotent;
// runs once at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
