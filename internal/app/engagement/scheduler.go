package engagement

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a tick function on a fixed interval until stopped.
// Stop waits for the loop to exit, so no tick runs after Stop returns.
type Scheduler struct {
	mu       sync.RWMutex
	tick     func(ctx context.Context, now time.Time)
	now      func() time.Time
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a scheduler calling tick every interval with now().
func NewScheduler(interval time.Duration, now func() time.Time, tick func(ctx context.Context, now time.Time)) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Scheduler{
		tick:     tick,
		now:      now,
		interval: interval,
	}
}

// Start begins the tick loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx, s.now())
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}
