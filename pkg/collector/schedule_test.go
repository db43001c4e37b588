package collector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RejectsEmptyCronExpression(t *testing.T) {
	s := NewScheduler("", func(ctx context.Context) {})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected an error for an empty cron expression")
	}
}

func TestScheduler_RejectsInvalidCronExpression(t *testing.T) {
	s := NewScheduler("not a cron expression", func(ctx context.Context) {})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	var calls int32
	s := NewScheduler("@every 10ms", func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected scheduler to report running after Start")
	}
	if s.NextRun() == nil {
		t.Fatal("expected a next run time once started")
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	if s.IsRunning() {
		t.Fatal("expected scheduler to stop once its context is cancelled")
	}
	if atomic.LoadInt32(&calls) == 0 {
		t.Fatal("expected at least one scheduled run to have fired")
	}
}
