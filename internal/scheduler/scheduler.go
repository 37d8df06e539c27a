package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. The context is cancelled on Stop.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs, in UTC.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under spec (standard five-field cron or a
// descriptor such as "@every 1h"). Failures are logged, never fatal.
func (s *Scheduler) AddJob(spec, name string, job Job) error {
	if job == nil {
		return fmt.Errorf("job %q: nil function", name)
	}
	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("running scheduled job %s", name)
		if err := job(s.ctx); err != nil {
			log.Printf("scheduled job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("job %q: invalid spec %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("scheduler started with %d job(s)", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}

// IsRunning reports whether any job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
