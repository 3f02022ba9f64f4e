// Package scheduler runs the periodic alert tick and daily digest jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"moneybot/internal/logging"
	"moneybot/internal/metrics"
)

// JobFunc does one run of a job and reports how many items it handled.
type JobFunc func(ctx context.Context) (int, error)

// Trigger computes the next firing strictly after a given time.
type Trigger interface {
	Next(after time.Time) time.Time
}

// Every fires at a fixed interval.
type Every time.Duration

// Next implements Trigger.
func (e Every) Next(after time.Time) time.Time {
	return after.Add(time.Duration(e))
}

// DailyAt fires once a day at a wall-clock time in a location.
type DailyAt struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Next implements Trigger.
func (d DailyAt) Next(after time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	local := after.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

type job struct {
	name    string
	trigger Trigger
	fn      JobFunc
	running atomic.Bool
}

// Scheduler runs independent jobs on one clock. A job never overlaps itself;
// different jobs may run at the same time.
type Scheduler struct {
	jobs    []*job
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// New creates an empty Scheduler.
func New(m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		metrics: m,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(name string, trigger Trigger, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &job{name: name, trigger: trigger, fn: fn})
}

// Start launches one loop per job. Runs receive a context that is not
// cancelled when ctx or the scheduler stops. A stopped Scheduler cannot be restarted.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	for _, j := range s.jobs {
		s.logger.Info().Str("job", j.name).Time("next", j.trigger.Next(s.now())).Msg("Job scheduled")
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

// Stop ends all loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	runCtx := context.WithoutCancel(ctx)
	next := j.trigger.Next(s.now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-timer.C:
			if j.running.CompareAndSwap(false, true) {
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					defer j.running.Store(false)
					s.run(runCtx, j)
				}()
			} else {
				s.logger.Warn().Str("job", j.name).Msg("Previous run still in progress, skipping")
			}
			next = j.trigger.Next(s.now())
			timer.Reset(time.Until(next))
		}
	}
}

// run executes one firing. Errors and panics are logged and never escape.
func (s *Scheduler) run(ctx context.Context, j *job) {
	logger := logging.WithJob(s.logger, j.name)
	start := s.now()

	count, err := func() (n int, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job %s panicked: %v", j.name, r)
			}
		}()
		return j.fn(ctx)
	}()

	elapsed := time.Since(start)
	s.metrics.RecordJob(j.name, elapsed, err)
	logging.LogJob(logger, j.name, count, elapsed, err)
}
