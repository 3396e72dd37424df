// Package crawl walks the (code, trading day) grid of a plan, one request
// at a time, and collects one record per item.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broksum/internal/logger"
	"broksum/internal/types"
)

// ItemFunc fetches and extracts a single work item.
type ItemFunc func(ctx context.Context, item WorkItem) (types.DailyRecord, error)

type itemError struct {
	err error
}

func (e *itemError) Error() string { return e.err.Error() }
func (e *itemError) Unwrap() error { return e.err }

// SkipItem marks err as scoped to the current item. The scheduler records
// it and moves on instead of aborting the run.
func SkipItem(err error) error {
	if err == nil {
		return nil
	}
	return &itemError{err: err}
}

// IsSkipItem reports whether err was marked with SkipItem.
func IsSkipItem(err error) bool {
	var ie *itemError
	return errors.As(err, &ie)
}

// Failure is an item that was dropped because of an item-scoped error.
type Failure struct {
	Item WorkItem
	Err  error
}

// Result is everything a run produced, in processing order.
type Result struct {
	Records  []types.DailyRecord
	Failed   []Failure
	Skipped  int
	Pauses   int
	Started  time.Time
	Finished time.Time
}

// Scheduler runs plans strictly sequentially.
type Scheduler struct {
	throttle *Throttle
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used to decide which days are in the
// future.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSleep replaces the cooldown sleeper.
func WithSleep(sleep SleepFunc) Option {
	return func(s *Scheduler) {
		s.throttle.sleep = sleep
	}
}

// NewScheduler creates a scheduler that pauses for cooldown after every
// threshold items.
func NewScheduler(threshold int, cooldown time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		throttle: NewThrottle(threshold, cooldown),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Throttle exposes the scheduler's pacing state.
func (s *Scheduler) Throttle() *Throttle { return s.throttle }

// Run processes every item of plan in order. An item-scoped error is
// recorded in Result.Failed; any other error stops the run and is returned
// with the partial result.
func (s *Scheduler) Run(ctx context.Context, plan Plan, process ItemFunc) (*Result, error) {
	start := s.now()
	res := &Result{
		Started: start,
		Skipped: plan.Skipped(start),
	}
	pausesBefore := s.throttle.Pauses()
	finish := func() {
		res.Finished = s.now()
		res.Pauses = s.throttle.Pauses() - pausesBefore
	}

	logger.Info(ctx, "Starting crawl",
		"codes", len(plan.Codes),
		"from", plan.From.Format("2006-01-02"),
		"to", plan.To.Format("2006-01-02"),
		"order", plan.Order.String(),
		"threshold", s.throttle.Threshold,
	)

	for item := range plan.Items(start) {
		op := logger.StartOperation(ctx, "crawl.item", "code", item.Code, "date", item.Date.Format("2006-01-02"))
		logger.Info(op.GetContext(), fmt.Sprintf("Fetching %s for %s", item.Date.Format("02-01-2006"), item.Code))

		rec, err := process(op.GetContext(), item)
		var ie *itemError
		switch {
		case err == nil:
			res.Records = append(res.Records, rec)
			op.End("buy_lot", rec.Aggregate.TotalBuyLot.Formatted, "sell_lot", rec.Aggregate.TotalSellLot.Formatted)
		case errors.As(err, &ie):
			op.EndWithError(err)
			res.Failed = append(res.Failed, Failure{Item: item, Err: ie.err})
		default:
			op.EndWithError(err)
			finish()
			return res, fmt.Errorf("crawl %s: %w", item, err)
		}

		if _, err := s.throttle.Tick(ctx); err != nil {
			finish()
			return res, fmt.Errorf("cooldown interrupted: %w", err)
		}
	}

	finish()
	logger.Info(ctx, "Crawl finished",
		"records", len(res.Records),
		"failed", len(res.Failed),
		"skipped", res.Skipped,
		"pauses", res.Pauses,
		"duration", res.Finished.Sub(res.Started).String(),
	)
	return res, nil
}
