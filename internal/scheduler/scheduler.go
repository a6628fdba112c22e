// Package scheduler runs the periodic job-expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer deactivates active jobs whose expiry has passed and returns their
// external ids.
type Expirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) ([]string, error)
}

// Scheduler wraps robfig/cron and owns the expiry sweep.
type Scheduler struct {
	cron      *cron.Cron
	jobs      Expirer
	spec      string // cron spec, e.g. "@every 15m"
	onExpired func(ctx context.Context, jobIDs []string)
	now       func() time.Time
	startup   sync.WaitGroup
}

// New creates a Scheduler firing on spec. onExpired, when set, receives the
// ids deactivated by each sweep.
func New(jobs Expirer, spec string, onExpired func(context.Context, []string)) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		jobs:      jobs,
		spec:      spec,
		onExpired: onExpired,
		now:       time.Now,
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so jobs that expired while the service was down are closed.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.Sweep(ctx)
	}()
	return nil
}

// Stop halts the scheduler and waits for running sweeps to finish,
// including the one started by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	log.Println("[scheduler] Cron stopped")
}

// Sweep deactivates expired jobs once. It returns the number closed.
func (s *Scheduler) Sweep(ctx context.Context) int {
	ids, err := s.jobs.DeactivateExpired(ctx, s.now())
	if err != nil {
		log.Printf("[scheduler] DeactivateExpired error: %v", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	log.Printf("[scheduler] Deactivated %d expired job(s)", len(ids))
	if s.onExpired != nil {
		s.onExpired(ctx, ids)
	}
	return len(ids)
}
