package crawl

import (
	"context"
	"time"

	"broksum/internal/logger"
)

const (
	// DefaultCooldown is the pause taken once the threshold is reached.
	DefaultCooldown = 5 * time.Second
	// TickerMajorThreshold is the items-per-pause used for range crawls.
	TickerMajorThreshold = 300
	// DateMajorThreshold is the items-per-pause used for month crawls,
	// which issue more requests per item.
	DateMajorThreshold = 75
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Throttle pauses for Cooldown after every Threshold items so the source
// does not ban the client. A Threshold of zero or less never pauses.
type Throttle struct {
	Threshold int
	Cooldown  time.Duration

	sleep  SleepFunc
	count  int
	pauses int
}

// NewThrottle creates a throttle using a real timer.
func NewThrottle(threshold int, cooldown time.Duration) *Throttle {
	return &Throttle{Threshold: threshold, Cooldown: cooldown, sleep: sleepContext}
}

// Tick records one processed item and pauses when the threshold is hit.
func (t *Throttle) Tick(ctx context.Context) (paused bool, err error) {
	if t.Threshold <= 0 {
		return false, nil
	}
	t.count++
	if t.count < t.Threshold {
		return false, nil
	}

	logger.Info(ctx, "Waiting to prevent IP ban", "cooldown", t.Cooldown.String(), "items", t.count)
	if err := t.sleep(ctx, t.Cooldown); err != nil {
		return false, err
	}
	t.count = 0
	t.pauses++
	return true, nil
}

// Count is the number of items since the last pause.
func (t *Throttle) Count() int { return t.count }

// Pauses is the number of cooldowns taken.
func (t *Throttle) Pauses() int { return t.pauses }
