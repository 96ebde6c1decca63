package main

import (
	"context"
	"errors"

	"github.com/septivank/garmin-health-worker/internal/config"
	"github.com/septivank/garmin-health-worker/internal/credentials"
	"github.com/septivank/garmin-health-worker/internal/db"
	"github.com/septivank/garmin-health-worker/internal/garmin"
	"github.com/septivank/garmin-health-worker/internal/mq"
	"github.com/septivank/garmin-health-worker/internal/repository"
	"github.com/septivank/garmin-health-worker/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// startWorker runs the schema bootstrap and kicks off the sync. Without
// RabbitMQ configured the worker performs one run and shuts itself down
// (cron mode); with it, the worker stays resident, runs once at startup
// and then serves on-demand triggers from the queue.
func startWorker(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	pool *db.Pool,
	syncer *service.Syncer,
) error {
	runCtx, cancel := context.WithCancel(context.Background())

	var consumer *mq.Consumer
	if cfg.MessagingEnabled() {
		c, err := mq.NewConsumer(mq.ConsumerConfig{
			Connection: conn,
			Queue:      cfg.RabbitMQ.TriggerQueue,
			DLQQueue:   cfg.RabbitMQ.DLQQueue,
			Exchange:   cfg.RabbitMQ.TriggerExchange,
			RoutingKey: cfg.RabbitMQ.TriggerRoutingKey,
			Logger:     logger,
			Handler:    syncer.ProcessTrigger,
		})
		if err != nil {
			cancel()
			return err
		}
		consumer = c
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := db.EnsureSchema(startCtx, pool); err != nil {
				return err
			}

			if consumer != nil {
				logger.Info("starting trigger consumer",
					zap.String("queue", cfg.RabbitMQ.TriggerQueue))
				if err := consumer.Start(runCtx); err != nil {
					return err
				}
			}

			go func() {
				_, err := syncer.Run(runCtx)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("sync run failed", zap.Error(err))
				}
				if consumer == nil {
					// One-shot mode: nothing left to wait for.
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("failed to request shutdown", zap.Error(err))
					}
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if consumer != nil {
				if err := consumer.Close(); err != nil {
					logger.Error("failed to close consumer", zap.Error(err))
					return err
				}
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return nil
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideCredentialStore creates the credential store
func ProvideCredentialStore(cfg *config.Config) *credentials.Store {
	return credentials.NewStore(cfg.Garmin.TokenBlob, cfg.Garmin.TokenFile)
}

// ProvideClientFactory creates the remote client factory
func ProvideClientFactory(cfg *config.Config) service.ClientFactory {
	return func(cred credentials.Credential) garmin.Client {
		return garmin.NewClient(cfg.Garmin.APIURL, cred)
	}
}

// ProvideMQConnection creates a RabbitMQ connection, or nothing when
// messaging is disabled
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	if !cfg.MessagingEnabled() {
		logger.Info("RABBITMQ_URL not set, messaging disabled, running in one-shot mode")
		return nil, nil
	}
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the sync event publisher when messaging is
// enabled
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	if conn == nil {
		return nil, nil
	}
	return mq.NewPublisher(conn, cfg.RabbitMQ.EventExchange, cfg.RabbitMQ.EventRoutingKey, logger)
}

// ProvideSyncer creates the sync orchestrator
func ProvideSyncer(
	repo *repository.Repository,
	creds *credentials.Store,
	factory service.ClientFactory,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.Syncer {
	var events service.EventPublisher
	if publisher != nil {
		events = publisher
	}
	return service.NewSyncer(repo, creds, factory, events, cfg, logger)
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}
