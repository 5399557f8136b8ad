// Package scheduler runs the console's recurring maintenance work on cron
// schedules: schema cache refresh, stale document purges, database upkeep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// JobFunc is one unit of scheduled work.
type JobFunc func(ctx context.Context) error

// Job is a registered recurring job.
type Job struct {
	ID        string
	Name      string
	Spec      string
	NextRunAt time.Time
	LastRunAt time.Time
	LastError string

	run      JobFunc
	schedule cron.Schedule
}

// Scheduler drives registered jobs from a one-minute ticker loop.
type Scheduler struct {
	parser cron.Parser
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
	jobs   map[string]*Job

	inflightMu sync.Mutex
	inflight   map[string]struct{} // job IDs currently executing (dedup)
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:   logger,
		jobs:     make(map[string]*Job),
		inflight: make(map[string]struct{}),
	}
}

// AddJob registers a job under a cron expression and returns its id.
func (s *Scheduler) AddJob(name, cronExpr string, fn JobFunc) (string, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return "", fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Name:      name,
		Spec:      cronExpr,
		NextRunAt: schedule.Next(time.Now().UTC()),
		run:       fn,
		schedule:  schedule,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job.ID, nil
}

// RemoveJob unregisters a job. Unknown ids are a no-op.
func (s *Scheduler) RemoveJob(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

// Jobs returns a snapshot of the registered jobs, sorted by name.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Start launches the background scheduling loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, time.Now().UTC())
		}
	}
}

// tick runs every job whose next run time has passed.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if !job.NextRunAt.After(now) {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		if !s.tryAcquire(job.ID) {
			continue // already running (dedup)
		}
		s.runJob(ctx, job, now)
		s.release(job.ID)
	}
}

// runJob executes one job and updates its bookkeeping.
func (s *Scheduler) runJob(ctx context.Context, job *Job, now time.Time) {
	s.logger.Info("running scheduled job",
		slog.String("job_id", job.ID),
		slog.String("name", job.Name),
	)

	err := job.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	job.LastRunAt = now
	job.NextRunAt = job.schedule.Next(now)
	if err != nil {
		job.LastError = err.Error()
		s.logger.Error("scheduled job failed",
			slog.String("job_id", job.ID),
			slog.String("name", job.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	job.LastError = ""
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", id)
	}

	if !s.tryAcquire(id) {
		return fmt.Errorf("job %q already running", job.Name)
	}
	defer s.release(id)

	s.runJob(ctx, job, time.Now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	if job.LastError != "" {
		return fmt.Errorf("job %q: %s", job.Name, job.LastError)
	}
	return nil
}

// tryAcquire returns true and marks the job as in-flight if it is not already running.
func (s *Scheduler) tryAcquire(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[jobID]; ok {
		return false
	}
	s.inflight[jobID] = struct{}{}
	return true
}

// release removes the job from the in-flight set.
func (s *Scheduler) release(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
}

// CalculateNextRun computes the next run time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	// Wait outside the lock: a job finishing its run needs the mutex to
	// record bookkeeping before the loop can exit.
	cancel()
	<-done

	s.logger.Info("scheduler stopped")
	return nil
}
