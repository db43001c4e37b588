package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc performs one scheduled collection pass.
type RunFunc func(ctx context.Context)

// Scheduler drives recurring collection runs on a cron expression, for
// xcprobe collect --schedule. A bare collection run has no concept of
// recurrence; the Scheduler is the only piece of the collector that does.
type Scheduler struct {
	cronExpr string
	run      RunFunc
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler builds a Scheduler that invokes run on every tick of
// cronExpr (a standard 5-field expression).
func NewScheduler(cronExpr string, run RunFunc) *Scheduler {
	return &Scheduler{
		cronExpr: cronExpr,
		run:      run,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "collector.scheduler"),
	}
}

// Start validates the cron expression and begins firing run on schedule.
// The scheduler stops itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cronExpr == "" {
		return fmt.Errorf("collector: schedule enabled but cron_expression is empty")
	}

	if _, err := cron.ParseStandard(s.cronExpr); err != nil {
		return fmt.Errorf("collector: invalid cron expression %q: %w", s.cronExpr, err)
	}

	if _, err := s.cron.AddFunc(s.cronExpr, func() {
		s.logger.Info("scheduled collection starting")
		s.run(ctx)
		s.logger.Info("scheduled collection finished")
	}); err != nil {
		return fmt.Errorf("collector: schedule job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("collection scheduler started", "schedule", s.cronExpr)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the scheduler and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		s.running = false
		s.logger.Info("collection scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is currently active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled collection time, or nil if the
// scheduler has no entries (not started, or start failed).
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
