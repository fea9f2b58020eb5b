package models

import "time"

// Trigger computes the next fire instant for a recurring job.
// The caller passes "now" already converted to the scheduler's
// location; the returned instant is strictly after now.
type Trigger interface {
	Next(now time.Time) time.Time
	Describe() string
}

// DailyTrigger fires once per calendar day at a fixed local time
type DailyTrigger struct {
	Hour   int
	Minute int
}

func (t DailyTrigger) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return next
}

func (t DailyTrigger) Describe() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("daily at 15:04")
}

// ClockTime is a local wall-clock time of day
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// IntervalTrigger fires every Every, stepped from the start of an
// active local-time window. Fires outside the window roll over to
// the next day's window start.
type IntervalTrigger struct {
	Every       time.Duration
	WindowStart ClockTime
	WindowEnd   ClockTime
}

func (t IntervalTrigger) Next(now time.Time) time.Time {
	start := t.WindowStart.on(now)
	end := t.WindowEnd.on(now)

	if now.Before(start) {
		return start
	}

	// First window-aligned step strictly after now
	elapsed := now.Sub(start)
	steps := elapsed/t.Every + 1
	next := start.Add(steps * t.Every)
	if !next.After(end) {
		return next
	}

	// Window exhausted for today
	tomorrow := now.AddDate(0, 0, 1)
	return t.WindowStart.on(tomorrow)
}

func (t IntervalTrigger) Describe() string {
	return "every " + t.Every.String()
}

// JobDefinition describes one recurring fetch-and-summarize job.
// Definitions are loaded at scheduler startup and never mutated.
type JobDefinition struct {
	Trigger       Trigger
	Name          string
	Category      string
	Subcategory   string
	QueryTemplate string
	CacheKeys     []string
}
