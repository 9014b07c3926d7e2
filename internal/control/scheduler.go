package control

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers ingestion cycles on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses a standard cron spec (descriptors such as "@every 1m"
// are accepted) and registers job on it.
func NewScheduler(spec string, job func(ctx context.Context)) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		job(s.ctx)
	}))
	return s, nil
}

// Start begins firing the job.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing and waits for a running job, or until ctx is done, in
// which case the running job's context is cancelled.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
	}
	s.cancel()
}
