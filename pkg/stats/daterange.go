package stats

import (
	"math"
	"time"
)

// Period names a calendar-aligned window kind.
type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

// Range is a calendar-date window, inclusive on both ends. Both bounds
// are midnight-truncated local times.
type Range struct {
	Start time.Time
	End   time.Time
}

const hoursPerDay = 24

// NewRange builds a Range from two dates, normalizing a reversed pair so
// the start ≤ end invariant always holds.
func NewRange(start time.Time, end time.Time) Range {
	start, end = truncateToDay(start), truncateToDay(end)
	if end.Before(start) {
		start, end = end, start
	}

	return Range{Start: start, End: end}
}

// Days counts the calendar days covered by the range, inclusive of both
// ends. A single-day range counts as 1; the result is never smaller.
func (r Range) Days() int {
	days := int(math.Round(r.End.Sub(r.Start).Hours()/hoursPerDay)) + 1
	if days < 1 {
		return 1
	}

	return days
}

// Contains reports whether the instant falls on a day inside the range.
func (r Range) Contains(t time.Time) bool {
	day := truncateToDay(t)

	return !day.Before(r.Start) && !day.After(r.End)
}

// RangeFor computes the calendar-aligned range of the given period that
// contains the reference date. Weeks run Monday through Sunday.
func RangeFor(period Period, ref time.Time) Range {
	day := truncateToDay(ref)

	switch period {
	case PeriodWeek:
		monday := day.AddDate(0, 0, -mondayOffset(day))

		return Range{Start: monday, End: monday.AddDate(0, 0, 6)}
	case PeriodMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())

		return Range{Start: first, End: first.AddDate(0, 1, -1)}
	case PeriodYear:
		return Range{
			Start: time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location()),
			End:   time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location()),
		}
	case PeriodToday, PeriodCustom:
		return Range{Start: day, End: day}
	}

	return Range{Start: day, End: day}
}

// PreviousRange computes the chronologically preceding window used for
// period-over-period comparison. Month and year shift by the actual
// previous calendar unit; a custom range shifts back by its own length,
// contiguous with and never overlapping the current one.
func PreviousRange(current Range, period Period) Range {
	switch period {
	case PeriodToday:
		return Range{Start: current.Start.AddDate(0, 0, -1), End: current.End.AddDate(0, 0, -1)}
	case PeriodWeek:
		return Range{Start: current.Start.AddDate(0, 0, -7), End: current.End.AddDate(0, 0, -7)}
	case PeriodMonth:
		return Range{Start: current.Start.AddDate(0, -1, 0), End: current.Start.AddDate(0, 0, -1)}
	case PeriodYear:
		return Range{Start: current.Start.AddDate(-1, 0, 0), End: current.Start.AddDate(0, 0, -1)}
	case PeriodCustom:
	}

	end := current.Start.AddDate(0, 0, -1)

	return Range{Start: end.AddDate(0, 0, -(current.Days() - 1)), End: end}
}

func mondayOffset(day time.Time) int {
	return (int(day.Weekday()) + 6) % 7
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
