package crawl

import (
	"fmt"
	"iter"
	"time"
)

// Order decides how the (code, day) grid is walked.
type Order int

const (
	// OrderTickerMajor visits every day of one code before the next code.
	OrderTickerMajor Order = iota
	// OrderDateMajor visits every code of one day before the next day.
	OrderDateMajor
)

func (o Order) String() string {
	if o == OrderDateMajor {
		return "date-major"
	}
	return "ticker-major"
}

// WorkItem is one broker-summary request.
type WorkItem struct {
	Code string
	Date time.Time
}

func (w WorkItem) String() string {
	return fmt.Sprintf("%s@%s", w.Code, w.Date.Format("2006-01-02"))
}

// Plan is the set of codes and the inclusive calendar range to crawl.
type Plan struct {
	Codes []string
	From  time.Time
	To    time.Time
	Order Order
}

// RangePlan walks codes ticker-major over [from, to].
func RangePlan(codes []string, from, to time.Time) Plan {
	return Plan{Codes: codes, From: civilDate(from), To: civilDate(to), Order: OrderTickerMajor}
}

// MonthPlan walks codes date-major over every day of the month.
func MonthPlan(codes []string, month time.Month, year int) Plan {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Plan{Codes: codes, From: from, To: from.AddDate(0, 1, -1), Order: OrderDateMajor}
}

// civilDate drops the clock and location, keeping the calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether day is a weekday not later than today.
// Both are compared as calendar dates.
func IsTradingDay(day, today time.Time) bool {
	day = civilDate(day)
	if day.After(civilDate(today)) {
		return false
	}
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

func (p Plan) days() []time.Time {
	from, to := civilDate(p.From), civilDate(p.To)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Items yields the work items of the plan one at a time, skipping weekends
// and days after now.
func (p Plan) Items(now time.Time) iter.Seq[WorkItem] {
	days := p.days()
	return func(yield func(WorkItem) bool) {
		if p.Order == OrderDateMajor {
			for _, d := range days {
				if !IsTradingDay(d, now) {
					continue
				}
				for _, code := range p.Codes {
					if !yield(WorkItem{Code: code, Date: d}) {
						return
					}
				}
			}
			return
		}

		for _, code := range p.Codes {
			for _, d := range days {
				if !IsTradingDay(d, now) {
					continue
				}
				if !yield(WorkItem{Code: code, Date: d}) {
					return
				}
			}
		}
	}
}

// Skipped counts the (code, day) pairs Items leaves out.
func (p Plan) Skipped(now time.Time) int {
	n := 0
	for _, d := range p.days() {
		if !IsTradingDay(d, now) {
			n++
		}
	}
	return n * len(p.Codes)
}
