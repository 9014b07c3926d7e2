package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Environment variables consulted when the matching field is left empty.
const (
	EnvSecret      = "CRON_SECRET"
	EnvUpstreamURL = "UPSTREAM_STATUS_API_URL"
	EnvWebhookURL  = "DISCORD_WEBHOOK_URL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvRedisURL    = "REDIS_URL"
)

// Load reads configuration from a YAML file. A missing file is not an error:
// the configuration is then built from defaults and environment variables only.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setFromEnv(&cfg.Ingest.Secret, EnvSecret)
	setFromEnv(&cfg.Ingest.UpstreamURL, EnvUpstreamURL)
	setFromEnv(&cfg.Notify.WebhookURL, EnvWebhookURL)
	setFromEnv(&cfg.Database.URL, EnvDatabaseURL)
	setFromEnv(&cfg.Redis.URL, EnvRedisURL)
}

func setFromEnv(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Ingest.UpstreamToken == "" {
		cfg.Ingest.UpstreamToken = cfg.Ingest.Secret
	}
	if cfg.Ingest.UpstreamTimeout == 0 {
		cfg.Ingest.UpstreamTimeout = 10 * time.Second
	}
	if cfg.Ingest.Parallelism <= 0 {
		cfg.Ingest.Parallelism = 8
	}
	if cfg.Ingest.LockTTL == 0 {
		cfg.Ingest.LockTTL = 2 * time.Minute
	}

	if cfg.Classifier.DegradedLatency == 0 {
		cfg.Classifier.DegradedLatency = 1500 * time.Millisecond
	}
	if cfg.Classifier.SuccessMin == 0 && cfg.Classifier.SuccessMax == 0 {
		cfg.Classifier.SuccessMin = 200
		cfg.Classifier.SuccessMax = 299
	}

	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 5 * time.Second
	}
	if cfg.Notify.Footer == "" {
		cfg.Notify.Footer = "Status Monitor"
	}

	if cfg.Status.HistoryWindow == 0 {
		cfg.Status.HistoryWindow = 2 * time.Hour
	}
	if cfg.Status.HistoryLimit == 0 {
		cfg.Status.HistoryLimit = 60
	}
	if cfg.Status.IncidentLimit == 0 {
		cfg.Status.IncidentLimit = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
