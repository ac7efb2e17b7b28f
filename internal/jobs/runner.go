// Package jobs schedules the recurring background sweeps and lets the ops
// surface trigger any of them on demand.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

// ErrUnknownJob is returned by RunNow for a name no job was registered under.
var ErrUnknownJob = errors.New("jobs: unknown job")

// Job is a named recurring task. Run returns how many records it changed.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) (int, error)
}

// Runner owns the sweep schedule. Each job ticks independently; a slow pass
// of one sweep never delays another.
type Runner struct {
	logger *logging.Logger

	mu   sync.Mutex
	jobs map[string]Job
}

// NewRunner creates an empty job runner.
func NewRunner(logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{logger: logger.WithComponent("jobs"), jobs: make(map[string]Job)}
}

// Register adds a job. Registering after Start has no effect on the schedule.
func (r *Runner) Register(job Job) error {
	if job.Name == "" || job.Run == nil || job.Every <= 0 {
		return fmt.Errorf("jobs: job needs a name, an interval and a run func")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Name]; exists {
		return fmt.Errorf("jobs: job %q already registered", job.Name)
	}
	r.jobs[job.Name] = job
	return nil
}

// Start launches one goroutine per job and blocks until the context is
// cancelled. Every job runs once immediately so a restarted sweeper catches
// up without waiting a full interval.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	jobs := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			r.runOnce(ctx, job)
			ticker := time.NewTicker(job.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					r.runOnce(ctx, job)
				}
			}
		}(job)
	}
	wg.Wait()
}

// RunNow executes one registered job immediately, outside its schedule.
func (r *Runner) RunNow(ctx context.Context, name string) (int, error) {
	r.mu.Lock()
	job, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return job.Run(ctx)
}

func (r *Runner) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	changed, err := job.Run(ctx)
	if err != nil {
		r.logger.Error("job failed", "job", job.Name, "error", err)
		return
	}
	r.logger.Info("job finished", "job", job.Name, "changed", changed, "duration_ms", time.Since(start).Milliseconds())
}
