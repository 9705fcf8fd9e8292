// Package calendar builds month grids for the date pickers and indexes
// reservations by local calendar day.
package calendar

import (
	"fmt"
	"time"
)

const (
	GridWeeks = 6
	GridCells = GridWeeks * 7

	dayKeyLayout = "2006-01-02"
)

type Cell struct {
	Date           time.Time `json:"date"`
	InCurrentMonth bool      `json:"in_current_month"`
}

// Key is the cell's YYYY-MM-DD day key.
func (c Cell) Key() string {
	return c.Date.Format(dayKeyLayout)
}

type Grid struct {
	Year  int
	Month time.Month
	Cells []Cell
}

// Weeks splits the grid into its six Monday-first rows.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, GridWeeks)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// BuildMonthGrid returns the 42 days covering the given month, starting on the
// Monday on or before the first of the month. Every cell is a midnight in loc.
func BuildMonthGrid(year int, month time.Month, loc *time.Location) Grid {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Go counts Sunday as 0; shift so Monday is column 0.
	offset := (int(first.Weekday()) + 6) % 7

	// Normalize so month overflow (e.g. 13) rolls into the next year.
	year, month = first.Year(), first.Month()

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := time.Date(year, month, 1-offset+i, 0, 0, 0, 0, loc)
		cells[i] = Cell{Date: d, InCurrentMonth: d.Month() == month}
	}
	return Grid{Year: year, Month: month, Cells: cells}
}

// BuildMonthGridZeroBased accepts a 0..11 month index.
func BuildMonthGridZeroBased(year, monthIndex int, loc *time.Location) (Grid, error) {
	if monthIndex < 0 || monthIndex > 11 {
		return Grid{}, fmt.Errorf("month index %d out of range 0..11", monthIndex)
	}
	return BuildMonthGrid(year, time.Month(monthIndex+1), loc), nil
}

// StartOfDay zeroes the time-of-day of t in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Selectable reports whether a public date-picker cell can be chosen: it must
// belong to the displayed month and not be earlier than today.
func Selectable(cell Cell, today time.Time) bool {
	if !cell.InCurrentMonth {
		return false
	}
	start := StartOfDay(today.In(cell.Date.Location()))
	return !StartOfDay(cell.Date).Before(start)
}

// AddMonths moves a (year, month) view by delta months.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// DayKey formats t as YYYY-MM-DD in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(dayKeyLayout)
}

func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", key, err)
	}
	return t, nil
}
