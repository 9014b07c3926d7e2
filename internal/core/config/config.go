package config

import (
	"errors"
	"time"

	"github.com/vietddude/statuswatch/internal/core/classifier"
	redisclient "github.com/vietddude/statuswatch/internal/infra/redis"
	"github.com/vietddude/statuswatch/internal/infra/storage/postgres"
)

var (
	// ErrMissingSecret is returned when the ingest bearer secret is not configured.
	ErrMissingSecret = errors.New("ingest secret not configured")

	// ErrMissingUpstreamURL is returned when the upstream status API URL is not configured.
	ErrMissingUpstreamURL = errors.New("upstream URL not configured")
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Ingest     IngestConfig       `yaml:"ingest"`
	Classifier classifier.Config  `yaml:"classifier"`
	Notify     NotifyConfig       `yaml:"notify"`
	Status     StatusConfig       `yaml:"status"`
	Redis      redisclient.Config `yaml:"redis"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// IngestConfig holds settings for the ingestion trigger and the upstream source.
type IngestConfig struct {
	Secret          string        `yaml:"secret"`
	UpstreamURL     string        `yaml:"upstream_url"`
	UpstreamToken   string        `yaml:"upstream_token"` // defaults to Secret
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	Schedule        string        `yaml:"schedule"` // cron spec, empty = manual trigger only
	Parallelism     int           `yaml:"parallelism"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
}

// Check reports the configuration error that prevents an ingest trigger from running.
func (c IngestConfig) Check() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	if c.UpstreamURL == "" {
		return ErrMissingUpstreamURL
	}
	return nil
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"` // empty disables notifications
	Timeout    time.Duration `yaml:"timeout"`
	Footer     string        `yaml:"footer"`
}

// StatusConfig holds read-path settings.
type StatusConfig struct {
	HistoryWindow time.Duration `yaml:"history_window"`
	HistoryLimit  int           `yaml:"history_limit"`
	IncidentLimit int           `yaml:"incident_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
