package sprint

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler drives the settler: one long-lived goroutine that wakes at a
// fixed wall-clock time each day (process-local timezone), runs a settlement
// pass to completion, then sleeps until the next day's firing. Firings never
// overlap. The loop only stops when its context is cancelled.
type Scheduler struct {
	settler *Settler
	logger  *slog.Logger
	hour    int
	minute  int

	// now is swapped out by tests.
	now func() time.Time
}

// NewScheduler parses fireAt ("HH:MM", e.g. "23:59") and returns a scheduler
// that fires the settler at that local time daily.
func NewScheduler(settler *Settler, fireAt string, logger *slog.Logger) (*Scheduler, error) {
	t, err := time.Parse("15:04", fireAt)
	if err != nil {
		return nil, fmt.Errorf("invalid fire time %q: %w", fireAt, err)
	}
	return &Scheduler{
		settler: settler,
		logger:  logger,
		hour:    t.Hour(),
		minute:  t.Minute(),
		now:     time.Now,
	}, nil
}

// nextFiring returns the next instant at the configured wall-clock time,
// adding a day when today's instant has already passed.
func (s *Scheduler) nextFiring(now time.Time) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// Run blocks until ctx is cancelled. A panic inside one firing is recovered
// and logged; the loop continues to the next day.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFiring(s.now())
		s.logger.Info("settlement scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("settlement scheduler stopped")
			return
		case <-timer.C:
		}

		s.fire(ctx)
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("settlement pass panicked", "panic", r)
		}
	}()
	s.settler.RunOnce(ctx, s.now())
}
