package Models

import (
	"time"

	"Chronos/AppErrors"
)

// Window is a default reporting range counted back from now. Days == 0 means
// the current calendar day. The range always ends at the end of today.
type Window struct {
	Days int
}

func (w Window) Range(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	end := EndOfDay(now)
	if w.Days == 0 {
		return StartOfDay(now), end
	}
	return now.AddDate(0, 0, -w.Days), end
}

// Resolve fills missing bounds from the window and rejects an end before
// the start.
func (w Window) Resolve(start, end *time.Time, now time.Time) (time.Time, time.Time, error) {
	from, to := w.Range(now)
	if start != nil {
		from = start.UTC()
	}
	if end != nil {
		to = end.UTC()
	}
	if to.Before(from) {
		return from, to, AppErrors.Validation("endDate must not be before startDate")
	}
	return from, to, nil
}

func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay is the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
