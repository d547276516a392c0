package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env              string        `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	StorageDriver    string        `envconfig:"STORAGE_DRIVER" default:"memory"`
	MongoURI         string        `envconfig:"MONGO_URI"`
	MongoDB          string        `envconfig:"MONGO_DB" default:"estatehub"`
	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix string        `envconfig:"KAFKA_TOPIC_PREFIX"`
	KafkaClientID    string        `envconfig:"KAFKA_CLIENT_ID" default:"estatehub"`
	EventSource      string        `envconfig:"EVENT_SOURCE" default:"app://estatehub"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMP_TTL" default:"168h"`
	// OutboxPollInterval and RetryBackoff drive the Mongo outbox relay.
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoff       []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	PropertyFixtures   string          `envconfig:"PROPERTY_FIXTURES"`
	ShutdownTimeout    time.Duration   `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	brokers := cfg.KafkaBrokers[:0]
	for _, b := range cfg.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	cfg.KafkaBrokers = brokers
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks rules that span fields.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required with STORAGE_DRIVER=%s", DriverMongo)
		}
		if c.MongoDB == "" {
			return fmt.Errorf("config: MONGO_DB is required with STORAGE_DRIVER=%s", DriverMongo)
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("config: HTTP_ADDR is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("config: OUTBOX_POLL_INTERVAL must be positive")
	}
	for _, d := range c.RetryBackoff {
		if d <= 0 {
			return fmt.Errorf("config: RETRY_BACKOFF entries must be positive, got %s", d)
		}
	}
	return nil
}

// Level parses LOG_LEVEL (debug, info, warn, error).
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// KafkaEnabled reports whether events leave the process.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }
