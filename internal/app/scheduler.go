package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"github.com/five82/bojq/internal/session"
)

// Actions is what scheduled jobs invoke.
type Actions interface {
	Poll(ctx context.Context) error
	RunNext(ctx context.Context) (session.RunNextReport, error)
}

// SchedulerOptions configure a Scheduler.
type SchedulerOptions struct {
	Actions         Actions
	Interval        time.Duration
	RunNextSchedule string // standard cron spec; empty disables run-next
	LockPath        string
	Logger          *slog.Logger
}

// Scheduler drives periodic queue polling and the optional run-next job.
// The run-next job is only registered by the process holding the lock file,
// so several open terminals never run the queue twice.
type Scheduler struct {
	actions  Actions
	interval time.Duration
	spec     string
	logger   *slog.Logger
	lock     *flock.Flock

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
	owner   bool
}

// NewScheduler builds a stopped Scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	interval := opts.Interval
	if interval < time.Second {
		interval = time.Second
	}
	s := &Scheduler{
		actions:  opts.Actions,
		interval: interval,
		spec:     opts.RunNextSchedule,
		logger:   logger.With("component", "scheduler"),
	}
	if opts.LockPath != "" {
		s.lock = flock.New(opts.LockPath)
	}
	cronLog := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	return s
}

// Start registers jobs and starts the cron runner. Jobs use ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.pollJob))

	if s.spec != "" {
		owner, err := s.acquire()
		if err != nil {
			s.cancel()
			return err
		}
		if owner {
			if _, err := s.cron.AddFunc(s.spec, s.runNextJob); err != nil {
				s.release()
				s.cancel()
				return fmt.Errorf("schedule run-next: %w", err)
			}
			s.owner = true
			s.logger.Info("run-next scheduled", "spec", s.spec)
		} else {
			s.logger.Info("run-next schedule owned by another bojq process", "lock", s.lock.Path())
		}
	}

	s.cron.Start()
	s.running = true
	s.logger.Debug("scheduler started", "interval", s.interval)
	return nil
}

// Stop halts the cron runner, waits for running jobs, and releases the lock.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	if s.owner {
		s.release()
		s.owner = false
	}
	s.running = false
}

func (s *Scheduler) release() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("release scheduler lock failed", "error", err)
	}
}

// OwnsRunNext reports whether this scheduler registered the run-next job.
func (s *Scheduler) OwnsRunNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Entries returns the number of registered cron entries.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) acquire() (bool, error) {
	if s.lock == nil {
		return true, nil
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	return ok, nil
}

func (s *Scheduler) pollJob() {
	if err := s.actions.Poll(s.ctx); err != nil {
		s.logger.Debug("scheduled poll failed", "error", err)
	}
}

func (s *Scheduler) runNextJob() {
	report, err := s.actions.RunNext(s.ctx)
	if err != nil {
		s.logger.Warn("scheduled run-next failed", "error", err)
		return
	}
	if report.Ran {
		s.logger.Info("scheduled run-next processed problem", "problem_id", report.Result.ProblemID)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
