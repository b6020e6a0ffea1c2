package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsDigest/internal/ports"
)

// DailyScheduler fires a job once a day at a fixed local wall-clock time.
type DailyScheduler struct {
	runAt      string
	loc        *time.Location
	runOnStart bool
	now        func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler for runAt given as "HH:MM" in loc.
func NewDailyScheduler(runAt string, loc *time.Location, runOnStart bool) *DailyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{runAt: runAt, loc: loc, runOnStart: runOnStart, now: time.Now}
}

// Start launches the timer loop. A second Start while running is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	hour, minute, err := ParseClock(d.runAt)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go d.loop(ctx, job, hour, minute, d.stop, d.done)
	return nil
}

func (d *DailyScheduler) loop(ctx context.Context, job func(time.Time), hour, minute int, stop, done chan struct{}) {
	defer close(done)

	if d.runOnStart {
		job(d.now().In(d.loc))
	}

	for {
		next := NextRun(d.now(), hour, minute, d.loc)
		timer := time.NewTimer(time.Until(next))
		select {
		case t := <-timer.C:
			job(t.In(d.loc))
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// Stop halts the timer loop and waits for a running job to return.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

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

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("parse run time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
