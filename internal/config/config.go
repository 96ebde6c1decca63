package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Database    DatabaseConfig
	Garmin      GarminConfig
	Sync        SyncConfig
	RabbitMQ    RabbitMQConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// GarminConfig holds remote API and credential settings
type GarminConfig struct {
	// TokenBlob is the base64-encoded credential pair; takes precedence
	// over TokenFile when set.
	TokenBlob string
	TokenFile string
	APIURL    string
}

// SyncConfig holds sync window and pacing settings
type SyncConfig struct {
	DaysToFetch     int
	ActivityLimit   int
	DailyPauseMs    int
	ActivityPauseMs int
	VerifyAttempts  int
}

// RabbitMQConfig holds optional messaging settings. An empty URL disables
// messaging entirely and the worker exits after a single sync run.
type RabbitMQConfig struct {
	URL               string
	EventExchange     string
	EventRoutingKey   string
	TriggerExchange   string
	TriggerQueue      string
	TriggerRoutingKey string
	DLQQueue          string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "garmin-health-worker"),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Garmin: GarminConfig{
			TokenBlob: getEnv("GARMINTOKENS", ""),
			TokenFile: getEnv("GARMIN_TOKEN_FILE", defaultTokenFile()),
			APIURL:    getEnv("GARMIN_API_URL", "https://connectapi.garmin.com"),
		},
		Sync: SyncConfig{
			DaysToFetch:     getEnvAsInt("DAYS_TO_FETCH", 90),
			ActivityLimit:   getEnvAsInt("ACTIVITY_LIMIT", 50),
			DailyPauseMs:    getEnvAsInt("SYNC_DAILY_PAUSE_MS", 500),
			ActivityPauseMs: getEnvAsInt("SYNC_ACTIVITY_PAUSE_MS", 1000),
			VerifyAttempts:  getEnvAsInt("SYNC_VERIFY_ATTEMPTS", 3),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			EventExchange:     getEnv("RABBITMQ_EVENT_EXCHANGE", "health-sync.events.exchange"),
			EventRoutingKey:   getEnv("RABBITMQ_EVENT_ROUTING_KEY", "health.sync.completed"),
			TriggerExchange:   getEnv("RABBITMQ_TRIGGER_EXCHANGE", "health-sync.trigger.exchange"),
			TriggerQueue:      getEnv("RABBITMQ_TRIGGER_QUEUE", "health-sync.trigger.queue"),
			TriggerRoutingKey: getEnv("RABBITMQ_TRIGGER_ROUTING_KEY", "health.sync.trigger"),
			DLQQueue:          getEnv("RABBITMQ_DLQ_QUEUE", "health-sync.trigger.dlq"),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.Sync.DaysToFetch < 1 {
		return nil, fmt.Errorf("DAYS_TO_FETCH must be at least 1, got %d", cfg.Sync.DaysToFetch)
	}
	if cfg.Sync.ActivityLimit < 0 {
		return nil, fmt.Errorf("ACTIVITY_LIMIT must not be negative, got %d", cfg.Sync.ActivityLimit)
	}

	return cfg, nil
}

// MessagingEnabled reports whether the optional RabbitMQ side is configured.
func (c *Config) MessagingEnabled() bool {
	return c.RabbitMQ.URL != ""
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tokens.json"
	}
	return filepath.Join(home, ".garmin", "tokens.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
