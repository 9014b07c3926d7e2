package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/statuswatch/internal/api"
	"github.com/vietddude/statuswatch/internal/core/classifier"
	"github.com/vietddude/statuswatch/internal/core/config"
	"github.com/vietddude/statuswatch/internal/infra/lock"
	"github.com/vietddude/statuswatch/internal/infra/notify"
	redisclient "github.com/vietddude/statuswatch/internal/infra/redis"
	"github.com/vietddude/statuswatch/internal/infra/storage"
	"github.com/vietddude/statuswatch/internal/infra/storage/memory"
	"github.com/vietddude/statuswatch/internal/infra/storage/postgres"
	"github.com/vietddude/statuswatch/internal/infra/upstream"
	"github.com/vietddude/statuswatch/internal/monitoring/aggregate"
	"github.com/vietddude/statuswatch/internal/monitoring/ingest"
)

const cycleLockName = "ingest-cycle"

// App wires storage, the ingestion engine, the aggregator, the HTTP API and
// the scheduler together.
type App struct {
	cfg        *config.AppConfig
	repo       storage.Repository
	db         *postgres.DB
	redis      *redisclient.Client
	engine     *ingest.Engine
	aggregator *aggregate.Aggregator
	server     *api.Server
	scheduler  *Scheduler
	log        *slog.Logger
}

// New creates an App with all dependencies initialized.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default()
	a := &App{cfg: cfg, log: log}

	// 1. Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if cfg.Database.ShouldMigrate() {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		a.db = db
		a.repo = postgres.NewStore(db)
		log.Info("Using PostgreSQL storage", "driver", cfg.Database.Driver)
	} else {
		a.repo = memory.NewMemoryStorage()
		log.Warn("No database configured, using in-memory storage")
	}

	// 2. Cycle lock
	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, using in-process cycle lock", "error", err)
		} else {
			a.redis = client
			locker = client.NewLock(cycleLockName, cfg.Ingest.LockTTL)
			log.Info("Using Redis cycle lock")
		}
	}

	// 3. Notifier
	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewDiscord(cfg.Notify.WebhookURL, cfg.Notify.Footer)
	} else {
		log.Info("No webhook configured, notifications disabled")
	}

	// 4. Engine and read path
	a.engine = ingest.NewEngine(
		a.repo,
		upstream.NewClient(cfg.Ingest.UpstreamURL, cfg.Ingest.UpstreamToken),
		classifier.New(cfg.Classifier),
		notifier,
		locker,
		ingest.Config{
			UpstreamTimeout: cfg.Ingest.UpstreamTimeout,
			NotifyTimeout:   cfg.Notify.Timeout,
			Parallelism:     cfg.Ingest.Parallelism,
		},
		log,
	)
	a.aggregator = aggregate.NewAggregator(a.repo, aggregate.Config{
		HistoryWindow: cfg.Status.HistoryWindow,
		HistoryLimit:  cfg.Status.HistoryLimit,
		IncidentLimit: cfg.Status.IncidentLimit,
	})

	// 5. HTTP API and schedule
	a.server = api.NewServer(cfg.Server, cfg.Ingest, a.engine, a.aggregator, a, log)

	if cfg.Ingest.Schedule != "" {
		scheduler, err := NewScheduler(cfg.Ingest.Schedule, a.runScheduled)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.scheduler = scheduler
	}

	return a, nil
}

// Start starts the HTTP server, the scheduler and background collectors.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	if a.scheduler != nil {
		if err := a.cfg.Ingest.Check(); err != nil {
			return fmt.Errorf("cannot schedule ingestion: %w", err)
		}
		a.scheduler.Start()
		a.log.Info("Ingestion scheduled", "schedule", a.cfg.Ingest.Schedule)
	}

	return nil
}

// Stop stops accepting work, drains in-flight notifications and closes
// connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping statuswatch...")

	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	err := a.server.Stop(ctx)
	a.engine.Shutdown()

	return errors.Join(err, a.Close())
}

// Close releases storage and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RunOnce runs one ingestion cycle and waits for its notifications.
func (a *App) RunOnce(ctx context.Context) (*ingest.CycleResult, error) {
	if err := a.cfg.Ingest.Check(); err != nil {
		return nil, err
	}
	defer a.engine.Wait()
	return a.engine.Run(ctx)
}

// Status builds the current status view.
func (a *App) Status(ctx context.Context) (*aggregate.SystemStatus, error) {
	return a.aggregator.GetSystemStatus(ctx)
}

// Health pings storage and, when the cycle lock lives there, Redis.
func (a *App) Health(ctx context.Context) error {
	if err := a.repo.Health(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

func (a *App) runScheduled(ctx context.Context) {
	result, err := a.engine.Run(ctx)
	switch {
	case errors.Is(err, ingest.ErrCycleInProgress):
		a.log.Warn("Skipping scheduled cycle, previous cycle still running")
	case err != nil:
		a.log.Error("Scheduled cycle failed", "error", err)
	default:
		a.log.Debug("Scheduled cycle done",
			"cycle", result.CycleID,
			"upstream", result.Upstream,
			"processed", result.Processed,
		)
	}
}
