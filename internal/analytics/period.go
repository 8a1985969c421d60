// Package analytics computes calendar windows and the per-child dashboard.
//
// Period windows ("week") run Sunday through Saturday, while the activity
// bar chart lists days Monday first.
package analytics

import (
	"strings"
	"time"

	"carenest/internal/apperr"
)

// Period selects the size of a window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod parses a period selector. An empty selector means week.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", apperr.Validation("Invalid period %q, expected week or month", s)
	}
}

// Window is an inclusive [Start, End] range.
type Window struct {
	Period Period
	Start  time.Time
	End    time.Time
}

// Range is the wire form of a window.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

const lastNano = 999 * int(time.Millisecond)

// isoMillis matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ComputeWindow returns the calendar-aligned window containing ref, in ref's
// location.
//
// week: the most recent Sunday 00:00:00.000 through Saturday 23:59:59.999.
// month: day 1 00:00:00.000 through the last day 23:59:59.999, taken as day 0
// of the following month so leap years need no table.
func ComputeWindow(p Period, ref time.Time) Window {
	y, m, d := ref.Date()
	loc := ref.Location()

	if p == PeriodMonth {
		return Window{
			Period: PeriodMonth,
			Start:  time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:    time.Date(y, m+1, 0, 23, 59, 59, lastNano, loc),
		}
	}

	sunday := d - int(ref.Weekday())
	return Window{
		Period: PeriodWeek,
		Start:  time.Date(y, m, sunday, 0, 0, 0, 0, loc),
		End:    time.Date(y, m, sunday+6, 23, 59, 59, lastNano, loc),
	}
}

// DayWindow returns the calendar day containing ref.
func DayWindow(ref time.Time) Window {
	y, m, d := ref.Date()
	loc := ref.Location()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, lastNano, loc),
	}
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Range renders the window as UTC ISO-8601 strings with millisecond precision.
func (w Window) Range() Range {
	return Range{
		Start: w.Start.UTC().Format(isoMillis),
		End:   w.End.UTC().Format(isoMillis),
	}
}

// mondayFirstDays orders short day names for the activity bar chart.
var mondayFirstDays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// mondayIndex maps a weekday onto mondayFirstDays.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
