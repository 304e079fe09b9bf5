// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is invoked each time an interval elapses.
type Job func()

// Scheduler runs named fixed-interval jobs on a shared cron ticker. Stopping
// it cancels every job at once.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
}

// New creates an idle Scheduler. Overlapping runs of the same job are skipped.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		jobs: make(map[string]cron.EntryID),
	}
}

// Every registers job to run every d. Intervals under one second are
// rounded up to one second by cron.
func (s *Scheduler) Every(name string, d time.Duration, job Job) error {
	if d <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", name, d)
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	id := s.cron.Schedule(cron.Every(d), cron.FuncJob(job))
	s.jobs[name] = id
	slog.Info("scheduled job", "name", name, "every", d)
	return nil
}

// Start starts the cron ticker in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the ticker and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
