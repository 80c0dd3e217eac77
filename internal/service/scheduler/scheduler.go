package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/model"
)

// Runner performs one pass over the mailbox.
type Runner interface {
	Run(ctx context.Context) model.RunSummary
}

// Scheduler manages the periodic mailbox runs
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	interval  time.Duration
	runner    Runner
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex

	// runMu serialises runs so a manual run never overlaps a scheduled one.
	runMu sync.Mutex
	last  *model.RunSummary
}

// New creates a new scheduler
func New(interval time.Duration, runner Runner) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(logrus.StandardLogger())

	return &Scheduler{
		cron:     cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger))),
		interval: interval,
		runner:   runner,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	entryID, err := s.cron.AddFunc("@every "+s.interval.String(), s.tick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %s", s.interval)
	return nil
}

// Stop stops the scheduler. A run in progress finishes its current message.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	s.cron.Remove(s.entryID)
	ctx := s.cron.Stop()
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Interval returns the time between scheduled runs.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// RunOnce runs the pipeline immediately and returns its summary.
func (s *Scheduler) RunOnce(ctx context.Context) model.RunSummary {
	s.wg.Add(1)
	defer s.wg.Done()

	s.runMu.Lock()
	defer s.runMu.Unlock()

	summary := s.runner.Run(ctx)

	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
	return summary
}

// LastSummary returns the summary of the most recent run, if any.
func (s *Scheduler) LastSummary() (model.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return model.RunSummary{}, false
	}
	return *s.last, true
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns when the most recent run started, scheduled or manual.
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return time.Time{}
	}
	return s.last.StartedAt
}

// Wait waits for in-flight runs to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
