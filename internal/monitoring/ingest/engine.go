// Package ingest runs ingestion cycles: fetch the upstream payload, record one
// check per service, keep the incident ledger in step and notify on
// down/recovered transitions.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/statuswatch/internal/core/classifier"
	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/core/incident"
	"github.com/vietddude/statuswatch/internal/core/transition"
	"github.com/vietddude/statuswatch/internal/infra/lock"
	"github.com/vietddude/statuswatch/internal/infra/notify"
	"github.com/vietddude/statuswatch/internal/infra/storage"
	"github.com/vietddude/statuswatch/internal/infra/upstream"
	"github.com/vietddude/statuswatch/internal/monitoring/metrics"
)

// Source provides the upstream payload.
type Source interface {
	Fetch(ctx context.Context) (*upstream.Payload, upstream.Response, error)
}

// Config holds engine settings.
type Config struct {
	UpstreamTimeout time.Duration
	NotifyTimeout   time.Duration
	Parallelism     int
}

// Engine orchestrates ingestion cycles.
type Engine struct {
	repo       storage.Repository
	source     Source
	classifier *classifier.Classifier
	tracker    *incident.Tracker
	notifier   notify.Notifier
	locker     lock.Locker
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time

	// mu orders inflight.Add against Wait; stopped drops notifications
	// once Shutdown has begun.
	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

// NewEngine creates an ingestion engine.
func NewEngine(
	repo storage.Repository,
	source Source,
	cls *classifier.Classifier,
	notifier notify.Notifier,
	locker lock.Locker,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 10 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		repo:       repo,
		source:     source,
		classifier: cls,
		tracker:    incident.NewTracker(repo),
		notifier:   notifier,
		locker:     locker,
		cfg:        cfg,
		logger:     logger.With("component", "ingest"),
		now:        time.Now,
	}
}

// snapshot is the ledger state read once at the start of a cycle.
type snapshot struct {
	latest map[string]*domain.Check
	open   map[string]*domain.Incident
}

func (e *Engine) loadSnapshot(ctx context.Context) (*snapshot, error) {
	latest, err := e.repo.GetLatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest checks: %w", err)
	}
	open, err := e.repo.GetAllOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open incidents: %w", err)
	}

	snap := &snapshot{
		latest: make(map[string]*domain.Check, len(latest)),
		open:   make(map[string]*domain.Incident, len(open)),
	}
	for _, c := range latest {
		snap.latest[c.ServiceID] = c
	}
	for _, inc := range open {
		snap.open[inc.ServiceID] = inc
	}
	metrics.OpenIncidents.Set(float64(len(open)))
	return snap, nil
}

// Run executes one full cycle. It returns ErrCycleInProgress without doing
// any work when another cycle is running.
func (e *Engine) Run(ctx context.Context) (*CycleResult, error) {
	unlock, ok, err := e.locker.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cycle lock: %w", err)
	}
	if !ok {
		metrics.IngestCycles.WithLabelValues("skipped").Inc()
		return nil, ErrCycleInProgress
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("Failed to release cycle lock", "error", err)
		}
	}()

	start := time.Now()
	result, err := e.run(ctx)
	metrics.IngestCycleDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrMalformedPayload):
		metrics.IngestCycles.WithLabelValues("malformed").Inc()
	case err != nil:
		metrics.IngestCycles.WithLabelValues("error").Inc()
	case result.Upstream == UpstreamDown:
		metrics.IngestCycles.WithLabelValues("upstream_down").Inc()
	default:
		metrics.IngestCycles.WithLabelValues("ok").Inc()
	}
	return result, err
}

func (e *Engine) run(ctx context.Context) (*CycleResult, error) {
	cycle := NewCycle(e.now())
	log := e.logger.With("cycle", cycle.ID)
	result := newResult(cycle)

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return result, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.UpstreamTimeout)
	payload, resp, fetchErr := e.source.Fetch(fetchCtx)
	cancel()
	metrics.UpstreamLatency.Observe(resp.Latency.Seconds())

	monitor := monitorInput(resp, fetchErr)
	check, _, err := e.processOne(ctx, cycle, monitor, snap.latest[monitor.serviceID], snap.open[monitor.serviceID])
	if err != nil {
		log.Error("Failed to record upstream monitor", "error", err)
		result.Failures = append(result.Failures, Failure{ServiceID: monitor.serviceID, Error: err.Error()})
	}

	switch {
	case errors.Is(fetchErr, upstream.ErrMalformed):
		log.Error("Upstream returned malformed payload", "error", fetchErr)
		return result, fmt.Errorf("%w: %v", ErrMalformedPayload, fetchErr)
	case fetchErr != nil || (check != nil && check.Status.IsDown()):
		log.Warn("Upstream unavailable, skipping services", "error", fetchErr, "status_code", resp.StatusCode)
		result.Upstream = UpstreamDown
		return result, nil
	}

	log.Debug("Processing upstream payload", "regions", len(payload.Regions), "services", payload.ServiceCount())
	e.process(ctx, cycle, snap, payload, result)

	log.Info("Ingestion cycle complete",
		"processed", result.Processed,
		"failures", len(result.Failures),
	)
	return result, nil
}

// Process records an already-fetched payload as one cycle. It does not take
// the cycle lock and does not record the upstream monitor.
func (e *Engine) Process(ctx context.Context, cycle Cycle, payload *upstream.Payload) (*CycleResult, error) {
	result := newResult(cycle)
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return result, err
	}
	e.process(ctx, cycle, snap, payload, result)
	return result, nil
}

func (e *Engine) process(ctx context.Context, cycle Cycle, snap *snapshot, payload *upstream.Payload, result *CycleResult) {
	groups := groupByService(payload)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.cfg.Parallelism)

	for _, group := range groups {
		g.Go(func() error {
			id := group[0].serviceID
			last, open := snap.latest[id], snap.open[id]

			for _, in := range group {
				check, nextOpen, err := e.processOne(ctx, cycle, in, last, open)

				mu.Lock()
				if err != nil {
					result.Failures = append(result.Failures, Failure{ServiceID: id, Error: err.Error()})
				} else {
					result.Processed++
				}
				mu.Unlock()

				if err != nil {
					metrics.ServiceFailures.Inc()
					e.logger.Error("Failed to process service", "cycle", cycle.ID, "service", id, "error", err)
					// The write did not happen, so the previous state still holds.
					continue
				}
				last, open = check, nextOpen
			}
			return nil
		})
	}
	_ = g.Wait()
}

// processOne classifies, detects, records and notifies for one service. It
// returns the stored check and the service's open incident after the write.
func (e *Engine) processOne(
	ctx context.Context,
	cycle Cycle,
	in serviceInput,
	last *domain.Check,
	open *domain.Incident,
) (*domain.Check, *domain.Incident, error) {
	status := e.classifier.Classify(in.probe)

	check := &domain.Check{
		Timestamp:   cycle.Timestamp,
		RegionID:    in.regionID,
		RegionName:  in.regionName,
		ServiceID:   in.serviceID,
		ServiceName: in.serviceName,
		Status:      status,
		StatusCode:  in.probe.StatusCode,
		LatencyMs:   in.probe.LatencyMs,
		Error:       in.probe.Error,
	}

	kind := transition.Detect(last, status)
	outcome, err := e.tracker.Apply(ctx, open, check, kind)
	if err != nil {
		return nil, nil, err
	}

	metrics.ChecksRecorded.WithLabelValues(status.String()).Inc()
	if outcome.Applied.Kind != domain.ChangeNone {
		metrics.IncidentChanges.WithLabelValues(string(outcome.Applied.Kind)).Inc()
	}
	if kind != transition.None || outcome.Reconciled {
		e.logger.Info(incident.Describe(outcome.From, kind),
			"service", check.ServiceID,
			"status", status,
			"change", outcome.Applied.Kind,
			"reconciled", outcome.Reconciled,
		)
	}

	e.dispatch(ctx, kind, outcome, check)

	if outcome.To == incident.StateOpen {
		return check, outcome.Incident, nil
	}
	return check, nil, nil
}

// dispatch sends the notification for a transition, if any, without blocking
// the cycle. Only the observation that actually opened or resolved an
// incident notifies, so a duplicate trigger cannot notify twice.
func (e *Engine) dispatch(ctx context.Context, kind transition.Kind, outcome *incident.Outcome, check *domain.Check) {
	n := notify.Notification{
		ServiceName: check.ServiceName,
		RegionName:  check.RegionName,
		Time:        check.Time(),
	}

	switch {
	case kind == transition.Onset && outcome.Opened():
		n.Kind = notify.KindDown
		n.Error = check.Error
	case kind == transition.Recovery && outcome.Resolved():
		n.Kind = notify.KindRecovered
		n.Duration = incident.FormatDuration(outcome.Incident.Elapsed(check.Time()))
	case kind == transition.Recovery && outcome.From == incident.StateClosed:
		n.Kind = notify.KindRecovered
		n.Duration = "Unknown"
	default:
		return
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		metrics.Notifications.WithLabelValues(string(n.Kind), "dropped").Inc()
		e.logger.Warn("Engine stopped, dropping notification", "service", check.ServiceID, "kind", n.Kind)
		return
	}
	e.inflight.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.inflight.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.NotifyTimeout)
		defer cancel()

		if err := e.notifier.Notify(nctx, n); err != nil {
			metrics.Notifications.WithLabelValues(string(n.Kind), "error").Inc()
			e.logger.Warn("Failed to send notification", "service", check.ServiceID, "kind", n.Kind, "error", err)
			return
		}
		metrics.Notifications.WithLabelValues(string(n.Kind), "ok").Inc()
	}()
}

// Wait blocks until every in-flight notification has finished. Cycles that
// reach a notification while Wait is draining block until it returns.
func (e *Engine) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inflight.Wait()
}

// Shutdown drains in-flight notifications and drops any dispatched later,
// e.g. by an ingest request still running after the server stopped waiting.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.Wait()
}
