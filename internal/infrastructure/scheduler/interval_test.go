package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsRepeatedly(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	fired := make(chan struct{}, 10)
	s := NewIntervalScheduler(10*time.Millisecond, 0)

	if err := s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for range 3 {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatalf("job fired %d times before timeout", runs.Load())
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(40 * time.Millisecond)
	if runs.Load() != after {
		t.Fatal("job kept running after stop")
	}
}

func TestIntervalSchedulerHonorsInitialDelayAndCancel(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour, time.Hour)
	if err := s.Start(ctx, func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if runs.Load() != 0 {
		t.Fatalf("job ran before initial delay: %d", runs.Load())
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
