package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/septivank/garmin-health-worker/internal/config"
	"github.com/septivank/garmin-health-worker/internal/credentials"
	"github.com/septivank/garmin-health-worker/internal/fetch"
	"github.com/septivank/garmin-health-worker/internal/garmin"
	"github.com/septivank/garmin-health-worker/internal/logging"
	"github.com/septivank/garmin-health-worker/internal/mq"
	"go.uber.org/zap"
)

// SyncStore is the full persistence contract the orchestrator hands to its
// aggregators. *repository.Repository satisfies it.
type SyncStore interface {
	DailyStore
	ActivityStore
}

// ClientFactory builds a remote client from a credential pair.
type ClientFactory func(cred credentials.Credential) garmin.Client

// EventPublisher emits the run summary. May be nil when messaging is
// disabled.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, event mq.SyncCompletedEvent) error
}

// verifyRetryPause spaces session verification attempts on transient
// failures.
const verifyRetryPause = 5 * time.Second

// Syncer drives one full sync: credentials → session → daily records →
// activities → summary. Runs are serialized; a trigger arriving while a
// run is in flight is dropped.
type Syncer struct {
	store     SyncStore
	creds     *credentials.Store
	newClient ClientFactory
	publisher EventPublisher
	cfg       *config.Config
	logger    *zap.Logger

	mu sync.Mutex
}

// NewSyncer creates the sync orchestrator.
func NewSyncer(
	store SyncStore,
	creds *credentials.Store,
	newClient ClientFactory,
	publisher EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Syncer {
	return &Syncer{
		store:     store,
		creds:     creds,
		newClient: newClient,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one sync with the configured window and limits. Blocks until
// any in-flight run finishes first.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, s.cfg.Sync.DaysToFetch, s.cfg.Sync.ActivityLimit)
}

// TriggerMessage is the payload of an on-demand sync request. Zero values
// fall back to the configured defaults.
type TriggerMessage struct {
	RequestID     string `json:"request_id"`
	Days          int    `json:"days"`
	ActivityLimit int    `json:"activity_limit"`
}

// ProcessTrigger handles one trigger message from the queue. A malformed
// body is an error (the consumer dead-letters it); a trigger during an
// in-flight run is acknowledged and skipped, never queued behind the
// running sync.
func (s *Syncer) ProcessTrigger(ctx context.Context, body []byte) error {
	var msg TriggerMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal trigger message: %w", err)
	}
	if msg.Days < 0 || msg.ActivityLimit < 0 {
		return fmt.Errorf("invalid trigger message: negative days or activity_limit")
	}

	if !s.mu.TryLock() {
		s.logger.Warn("sync already in progress, dropping trigger",
			zap.String("request_id", msg.RequestID))
		return nil
	}
	defer s.mu.Unlock()

	days := msg.Days
	if days == 0 {
		days = s.cfg.Sync.DaysToFetch
	}
	limit := msg.ActivityLimit
	if limit == 0 {
		limit = s.cfg.Sync.ActivityLimit
	}

	s.logger.Info("sync triggered via queue",
		zap.String("request_id", msg.RequestID),
		zap.Int("days", days),
		zap.Int("activity_limit", limit))

	// Failures inside the run are already reported and published; only
	// credential problems matter to the trigger sender, and redelivery
	// cannot fix those either.
	if _, err := s.run(ctx, days, limit); err != nil {
		s.logger.Error("triggered sync failed", zap.Error(err),
			zap.String("request_id", msg.RequestID))
	}
	return nil
}

func (s *Syncer) run(ctx context.Context, days, activityLimit int) (*Report, error) {
	runID := uuid.New().String()
	logger := logging.WithRunID(s.logger, runID)
	report := NewReport(runID)

	logger.Info("starting sync run",
		zap.Int("days", days),
		zap.Int("activity_limit", activityLimit))

	// Configuration errors abort before any remote call.
	cred, err := s.creds.Load()
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return nil, fmt.Errorf("no credentials available, set GARMINTOKENS or provide a token file: %w", err)
		}
		return nil, fmt.Errorf("credential configuration error: %w", err)
	}

	client := s.newClient(cred)

	session, err := garmin.EstablishWithRetry(ctx, client, s.cfg.Sync.VerifyAttempts, verifyRetryPause, logger)
	if err != nil {
		if errors.Is(err, garmin.ErrCredentialsExpired) {
			logger.Error("credentials expired or revoked, reissue tokens before the next run")
		}
		return nil, err
	}
	logger.Info("session verified", zap.String("display_name", session.DisplayName()))

	// The client may have refreshed the oauth2 artifact during
	// verification; persist the pair back so the next run starts warm.
	if refreshed := client.Credential(); refreshed.AccessToken() != cred.AccessToken() {
		if err := s.creds.Persist(refreshed); err != nil {
			logger.Warn("failed to persist refreshed credentials", zap.Error(err))
			report.AddFailure("credentials", err.Error())
		} else {
			logger.Info("persisted refreshed credentials")
		}
	}

	to := midnightUTC(time.Now())
	from := to.AddDate(0, 0, -(days - 1))

	daily := &dailyAggregator{
		store:    s.store,
		fetchers: fetch.DailyFetchers(),
		pause:    time.Duration(s.cfg.Sync.DailyPauseMs) * time.Millisecond,
		logger:   logger,
	}
	activities := &activityAggregator{
		store:  s.store,
		pause:  time.Duration(s.cfg.Sync.ActivityPauseMs) * time.Millisecond,
		logger: logger,
	}

	var runErr error
	if err := daily.run(ctx, session, from, to, report); err != nil {
		runErr = err
	}

	// Only expired credentials abort remaining stages. Cancellation stops
	// too, keeping everything already persisted.
	if runErr == nil {
		runErr = activities.run(ctx, session, activityLimit, report)
	}

	report.Finish()
	report.LogSummary(logger)
	s.publishSummary(report, runErr, logger)

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (s *Syncer) publishSummary(report *Report, runErr error, logger *zap.Logger) {
	if s.publisher == nil {
		return
	}

	status := "completed"
	switch {
	case errors.Is(runErr, garmin.ErrCredentialsExpired):
		status = "aborted_credentials"
	case runErr != nil:
		status = "interrupted"
	}

	event := mq.SyncCompletedEvent{
		RunID:              report.RunID,
		StartedAt:          report.StartedAt,
		FinishedAt:         report.FinishedAt,
		Status:             status,
		DailyUpserted:      report.DailyUpserted,
		ActivitiesUpserted: report.ActivitiesUpserted,
		HeartRateSeries:    report.HeartRateSeries,
		SportMetricSets:    report.SportMetricSets,
		PartialDates:       report.PartialDates,
		PartialActivities:  report.PartialActivities,
		Failures:           report.FailureCount(),
	}

	// Publishing is best-effort; the run outcome is already logged.
	pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.publisher.PublishSyncCompleted(pubCtx, event); err != nil {
		logger.Error("failed to publish sync summary", zap.Error(err))
	}
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
