package scheduler

import (
	"context"
	"sync"
	"time"

	"TopicScanner/internal/ports"
)

// IntervalScheduler runs a job after an initial delay and then on every tick.
type IntervalScheduler struct {
	interval     time.Duration
	initialDelay time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler defaults to a 30 minute interval.
func NewIntervalScheduler(interval, initialDelay time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if initialDelay < 0 {
		initialDelay = 0
	}
	return &IntervalScheduler{interval: interval, initialDelay: initialDelay}
}

// Start begins ticking. Calling Start twice without Stop is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)

		delay := time.NewTimer(s.initialDelay)
		defer delay.Stop()
		select {
		case t := <-delay.C:
			job(t)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to return, or
// for ctx to expire.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
