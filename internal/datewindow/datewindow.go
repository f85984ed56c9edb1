// Package datewindow computes inclusive calendar-date ranges for the
// dashboard views: the daily focus list, the Monday-start weekly board,
// the monthly archive, and the April-to-March fiscal-year tracker.
package datewindow

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Window is an inclusive [Start, End] date range. Both bounds are
// truncated to midnight; callers compare with on-or-after/on-or-before
// semantics.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the start bound as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format(DateFormat) }

// EndDate returns the end bound as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format(DateFormat) }

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = midnight(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	t = midnight(t)
	// time.Weekday has Sunday == 0; shift so Monday == 0.
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// Today returns the single-day window containing now.
func Today(now time.Time) Window {
	d := midnight(now)
	return Window{Start: d, End: d}
}

// Day returns the single-day window for a YYYY-MM-DD string.
func Day(date string) (Window, error) {
	d, err := time.Parse(DateFormat, date)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return Window{Start: d, End: d}, nil
}

// CurrentWeek returns the Monday-start week containing now.
func CurrentWeek(now time.Time) Window {
	start := startOfWeek(now)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// Month returns the full calendar month window.
func Month(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, -1)}
}

// MonthOf parses a YYYY-MM string into its calendar month window.
func MonthOf(yearMonth string) (Window, error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return Window{}, fmt.Errorf("invalid month %q: %w", yearMonth, err)
	}
	return Month(t.Year(), t.Month()), nil
}

// Rolling is the default window for the unscoped board fetch: from the
// first day of the previous month through the end of the Monday-start
// week that contains now+7d, so the board covers the recent past plus
// the upcoming week.
func Rolling(now time.Time) Window {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := firstOfMonth.AddDate(0, -1, 0)
	end := startOfWeek(now.AddDate(0, 0, 7)).AddDate(0, 0, 6)
	return Window{Start: start, End: end}
}

// FiscalYear returns the April-through-March window for fiscal year fy.
func FiscalYear(fy int) Window {
	return Window{
		Start: time.Date(fy, time.April, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(fy+1, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

// FiscalYearOf returns the fiscal year containing d: the calendar year
// when the month is April or later, otherwise the year before.
func FiscalYearOf(d time.Time) int {
	if d.Month() >= time.April {
		return d.Year()
	}
	return d.Year() - 1
}
