package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Fixed IST offset keeps the tests independent of the host tzdata
var ist = time.FixedZone("IST", 5*3600+1800)

func at(hour, minute int) time.Time {
	return time.Date(2026, 1, 15, hour, minute, 0, 0, ist)
}

func TestDailyTriggerBeforeFireTime(t *testing.T) {
	trig := DailyTrigger{Hour: 8, Minute: 0}
	next := trig.Next(at(6, 30))
	assert.Equal(t, at(8, 0), next)
}

func TestDailyTriggerAtFireTimeRollsToNextDay(t *testing.T) {
	trig := DailyTrigger{Hour: 8, Minute: 0}
	next := trig.Next(at(8, 0))
	assert.Equal(t, at(8, 0).AddDate(0, 0, 1), next, "fire instant must be strictly after now")
}

func TestDailyTriggerAfterFireTimeRollsToNextDay(t *testing.T) {
	trig := DailyTrigger{Hour: 16, Minute: 0}
	next := trig.Next(at(22, 15))
	assert.Equal(t, time.Date(2026, 1, 16, 16, 0, 0, 0, ist), next)
}

func TestDailyTriggerMonthRollover(t *testing.T) {
	trig := DailyTrigger{Hour: 8, Minute: 0}
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, ist)
	next := trig.Next(now)
	assert.Equal(t, time.Date(2026, 2, 1, 8, 0, 0, 0, ist), next)
}

func TestIntervalTriggerBeforeWindowFiresAtWindowStart(t *testing.T) {
	trig := IntervalTrigger{
		Every:       2 * time.Hour,
		WindowStart: ClockTime{Hour: 9, Minute: 0},
		WindowEnd:   ClockTime{Hour: 18, Minute: 0},
	}
	next := trig.Next(at(7, 45))
	assert.Equal(t, at(9, 0), next)
}

func TestIntervalTriggerStepsFromWindowStart(t *testing.T) {
	trig := IntervalTrigger{
		Every:       2 * time.Hour,
		WindowStart: ClockTime{Hour: 9, Minute: 0},
		WindowEnd:   ClockTime{Hour: 18, Minute: 0},
	}

	// Mid-step: next fire is the following aligned step, not now+Every
	next := trig.Next(at(10, 30))
	assert.Equal(t, at(11, 0), next)

	// Exactly on a step: next fire is strictly after
	next = trig.Next(at(11, 0))
	assert.Equal(t, at(13, 0), next)
}

func TestIntervalTriggerPastWindowRollsToTomorrow(t *testing.T) {
	trig := IntervalTrigger{
		Every:       2 * time.Hour,
		WindowStart: ClockTime{Hour: 9, Minute: 0},
		WindowEnd:   ClockTime{Hour: 18, Minute: 0},
	}

	// Last in-window step is 17:00; after that the trigger rolls over
	next := trig.Next(at(17, 0))
	assert.Equal(t, at(9, 0).AddDate(0, 0, 1), next)

	next = trig.Next(at(23, 30))
	assert.Equal(t, at(9, 0).AddDate(0, 0, 1), next)
}

func TestIntervalTriggerFiresAtWindowEnd(t *testing.T) {
	trig := IntervalTrigger{
		Every:       3 * time.Hour,
		WindowStart: ClockTime{Hour: 8, Minute: 0},
		WindowEnd:   ClockTime{Hour: 20, Minute: 0},
	}

	// 8, 11, 14, 17, 20 are all in window; 20:00 is the last fire
	next := trig.Next(at(17, 30))
	assert.Equal(t, at(20, 0), next)

	next = trig.Next(at(20, 0))
	assert.Equal(t, at(8, 0).AddDate(0, 0, 1), next)
}

func TestTriggerDescribe(t *testing.T) {
	assert.Equal(t, "daily at 08:00", DailyTrigger{Hour: 8}.Describe())
	assert.Equal(t, "every 2h0m0s", IntervalTrigger{Every: 2 * time.Hour}.Describe())
}
