package supervisor

import (
	"context"
	"slices"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
)

// JobRunner executes one scheduled job.
type JobRunner interface {
	RunJob(ctx context.Context, job config.ScheduleJob) error
}

// Scheduler fires configured jobs at their local wall-clock time. Jobs due at
// the same moment run one after another.
type Scheduler struct {
	jobs   []config.ScheduleJob
	runner JobRunner
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// NewScheduler creates a scheduler for jobs.
func NewScheduler(jobs []config.ScheduleJob, runner JobRunner) *Scheduler {
	return &Scheduler{jobs: jobs, runner: runner, now: time.Now, after: time.After}
}

// NextRun returns the first time strictly after from at which job fires.
func NextRun(job config.ScheduleJob, from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), job.Hour, job.Minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	for range 7 {
		if len(job.Weekdays) == 0 || slices.Contains(job.Weekdays, int(next.Weekday())) {
			break
		}
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// due returns the earliest fire time and every job firing at it.
func (s *Scheduler) due(from time.Time) (time.Time, []config.ScheduleJob) {
	var (
		at   time.Time
		jobs []config.ScheduleJob
	)
	for _, j := range s.jobs {
		n := NextRun(j, from)
		switch {
		case at.IsZero() || n.Before(at):
			at, jobs = n, []config.ScheduleJob{j}
		case n.Equal(at):
			jobs = append(jobs, j)
		}
	}
	return at, jobs
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	log := logging.Component("scheduler")
	if len(s.jobs) == 0 {
		log.Info().Msg("No scheduled jobs configured")
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		at, jobs := s.due(s.now())
		log.Debug().Time("at", at).Int("jobs", len(jobs)).Msg("Next scheduled run")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(time.Until(at)):
		}
		for _, j := range jobs {
			start := time.Now()
			err := s.runner.RunJob(ctx, j)
			metrics.RecordJob(j.Name, err, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (s *Scheduler) String() string {
	return "scheduler"
}
