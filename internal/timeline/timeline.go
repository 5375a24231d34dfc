// Package timeline converts abstract work-hour positions into calendar
// timestamps. A position is an integer offset in work hours from the
// schedule's start date; the calendar honors a fixed-length business day
// and skips weekends entirely.
package timeline

import (
	"math"
	"time"
)

// Config describes the working calendar a schedule runs against.
type Config struct {
	// HoursPerDay is the length of one business day in work hours.
	HoursPerDay int
	// StartDate is the calendar day position 0 falls on. Only the date
	// component is significant.
	StartDate time.Time
	// DayStartHour is the clock hour work begins each day, in hours from
	// midnight. 7.5 means 07:30.
	DayStartHour float64
}

// PositionToTime converts a work-hour position into a calendar timestamp.
// The position splits into whole business days and a same-day hour offset:
// dayOffset = position / HoursPerDay, hourOffset = position mod HoursPerDay.
// Weekends are skipped when advancing days; a dayOffset of zero stays on
// the start date. Negative positions clamp to zero.
func (c Config) PositionToTime(position int) time.Time {
	if position < 0 {
		position = 0
	}
	dayOffset := position / c.HoursPerDay
	hourOffset := position % c.HoursPerDay
	day := AddBusinessDays(c.StartDate, dayOffset)
	return atClock(day, c.DayStartHour+float64(hourOffset))
}

// SpanFromPosition returns the calendar window a task occupies when it
// starts at the given position and runs for durationHours of work time.
// The end spills into subsequent business days once the day's work window
// is exhausted.
func (c Config) SpanFromPosition(position int, durationHours float64) (start, end time.Time) {
	start = c.PositionToTime(position)
	end = AddWorkHours(start, durationHours, c.DayStartHour, float64(c.HoursPerDay))
	return start, end
}

// AddBusinessDays advances a date by n business days, skipping Saturdays
// and Sundays. n <= 0 returns the date unchanged.
func AddBusinessDays(date time.Time, n int) time.Time {
	for added := 0; added < n; {
		date = date.AddDate(0, 0, 1)
		if isWeekend(date) {
			continue
		}
		added++
	}
	return date
}

// AddWorkHours advances a timestamp by a work-hour duration. Each business
// day offers a window of hoursPerDay hours starting at dayStartHour; once
// the current day's remaining window is exhausted, the balance spills into
// the next business day, resuming at dayStartHour. Fractional hours are
// honored to the minute. Zero or negative hours returns start unchanged.
func AddWorkHours(start time.Time, hours, dayStartHour, hoursPerDay float64) time.Time {
	if hours <= 0 {
		return start
	}
	cur := start
	remaining := hours
	for {
		windowEnd := dayStartHour + hoursPerDay
		clock := clockHours(cur)
		avail := windowEnd - clock
		if avail > 0 && remaining <= avail {
			return addClockHours(cur, remaining)
		}
		if avail > 0 {
			remaining -= avail
		}
		// Window exhausted (or cur sits outside it): resume at the start
		// of the next business day.
		cur = atClock(nextBusinessDay(cur), dayStartHour)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func nextBusinessDay(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for isWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// clockHours returns the time-of-day of t as fractional hours.
func clockHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// atClock returns the given calendar day with its time-of-day set to the
// given fractional hour, rounded to the minute.
func atClock(day time.Time, hour float64) time.Time {
	minutes := int(math.Round(hour * 60))
	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return base.Add(time.Duration(minutes) * time.Minute)
}

// addClockHours advances t by a fractional hour count, rounded to the minute.
func addClockHours(t time.Time, hours float64) time.Time {
	minutes := int(math.Round(hours * 60))
	return t.Add(time.Duration(minutes) * time.Minute)
}
