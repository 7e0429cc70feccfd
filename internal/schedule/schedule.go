// Package schedule runs the collection pipeline once per day at a fixed
// local time. Runs never overlap: a tick that lands while a run is
// still active is skipped, not queued.
package schedule

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

// ParseAt validates an "HH:MM" schedule time and returns its hour and
// minute components.
func ParseAt(at string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "invalid schedule time %q, want HH:MM", at)
	}
	return t.Hour(), t.Minute(), nil
}

// Due reports whether a run should fire now: the scheduled wall-clock
// time has arrived today and no run has fired yet today.
func Due(now time.Time, hour, minute int, lastRun time.Time) bool {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(target) {
		return false
	}
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Before(target)
}

// SeedLastRun returns the initial lastRun for a loop started at now: a
// target that already passed today is treated as handled, so the first
// fire waits for the next day's target instead of catching up.
func SeedLastRun(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(target) {
		return time.Time{}
	}
	return now
}

// Loop ticks once a minute and invokes fn when a run is due. It returns
// when the context is cancelled. A fn that reports pipeline.ErrRunActive
// leaves the day unmarked so a later tick may retry; any other error is
// logged and the day still counts as run.
func Loop(ctx context.Context, at string, fn func(context.Context) error) error {
	hour, minute, err := ParseAt(at)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("schedule_at", at))
	log.Info("scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastRun := SeedLastRun(time.Now(), hour, minute)
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return ctx.Err()
		case now := <-ticker.C:
			if !Due(now, hour, minute, lastRun) {
				continue
			}
			log.Info("scheduled run firing")
			if err := fn(ctx); err != nil {
				if eris.Is(err, pipeline.ErrRunActive) {
					log.Warn("scheduled run skipped, another run is active")
					continue
				}
				log.Error("scheduled run failed", zap.Error(err))
			}
			lastRun = now
		}
	}
}
