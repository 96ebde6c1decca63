package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MaxErrorsPerCategory bounds how many error messages a report keeps per
// failure category. Later failures in the same category are counted but not
// stored, so a long outage cannot balloon the summary.
const MaxErrorsPerCategory = 5

// Report accumulates the outcome of one sync run: upsert counts per entity
// kind, how many dates/activities came back with partial data, and a
// bounded list of error messages per failure category.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	DailyUpserted      int
	ActivitiesUpserted int
	HeartRateSeries    int
	SportMetricSets    int
	PartialDates       int
	PartialActivities  int

	failures      map[string][]string
	failureCounts map[string]int
}

// NewReport creates an empty report for the given run.
func NewReport(runID string) *Report {
	return &Report{
		RunID:         runID,
		StartedAt:     time.Now(),
		failures:      make(map[string][]string),
		failureCounts: make(map[string]int),
	}
}

// AddFailure records one failure under a category ("daily/heart_rate",
// "activity/detail", "persistence", ...). Only the first
// MaxErrorsPerCategory messages per category are kept.
func (r *Report) AddFailure(category, message string) {
	r.failureCounts[category]++
	if len(r.failures[category]) < MaxErrorsPerCategory {
		r.failures[category] = append(r.failures[category], message)
	}
}

// Failures returns the retained messages per category.
func (r *Report) Failures() map[string][]string {
	out := make(map[string][]string, len(r.failures))
	for k, v := range r.failures {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// FailureCount returns the total number of recorded failures, including
// those beyond the per-category retention bound.
func (r *Report) FailureCount() int {
	total := 0
	for _, n := range r.failureCounts {
		total += n
	}
	return total
}

// CategoryCount returns how many failures a category accumulated.
func (r *Report) CategoryCount(category string) int {
	return r.failureCounts[category]
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// LogSummary emits the run outcome. A completed run always reports what
// succeeded, even when most secondary fields were unavailable.
func (r *Report) LogSummary(logger *zap.Logger) {
	logger.Info("sync run completed",
		zap.String("run_id", r.RunID),
		zap.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
		zap.Int("daily_upserted", r.DailyUpserted),
		zap.Int("activities_upserted", r.ActivitiesUpserted),
		zap.Int("heart_rate_series", r.HeartRateSeries),
		zap.Int("sport_metric_sets", r.SportMetricSets),
		zap.Int("partial_dates", r.PartialDates),
		zap.Int("partial_activities", r.PartialActivities),
		zap.Int("failures", r.FailureCount()),
	)

	for category, messages := range r.failures {
		total := r.failureCounts[category]
		for _, msg := range messages {
			logger.Warn("sync failure",
				zap.String("run_id", r.RunID),
				zap.String("category", category),
				zap.String("message", msg))
		}
		if total > len(messages) {
			logger.Warn("sync failure summary truncated",
				zap.String("run_id", r.RunID),
				zap.String("category", category),
				zap.String("message", fmt.Sprintf("%d further failures not shown", total-len(messages))))
		}
	}
}
