// Package calendar builds month grids from the event catalog and
// provides the month cursor used for navigation. All arithmetic is on
// calendar date components (proleptic Gregorian), never on instants.
package calendar

import (
	"fmt"
	"time"

	"eventboard/internal/model"
)

// DayCell is one non-blank cell of a month grid: the day number, a
// fresh "is this today" marker, and the events falling on that day.
type DayCell struct {
	Day     int
	IsToday bool
	Events  []model.EventRecord
}

// Month is a rendered month grid. Leading is the count of blank
// placeholder cells before day 1, equal to the weekday index of the
// first of the month (0 = Sunday). Cells holds exactly one entry per
// day of the month.
type Month struct {
	Year    int
	Month0  int
	Leading int
	Cells   []DayCell
}

// BuildMonth builds the grid for (year, month0), with month0 0-based
// (0 = January). Events attach to a cell by exact YYYY-MM-DD string
// equality against the cell's date; an index is built once per call so
// the cost is O(days + events). The today marker is derived from the
// supplied current date, which callers pass fresh per render.
func BuildMonth(year, month0 int, events []model.EventRecord, today time.Time) Month {
	first := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC)
	leading := int(first.Weekday())
	days := first.AddDate(0, 1, -1).Day()

	byDate := make(map[string][]model.EventRecord, len(events))
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	ty, tm, td := today.Date()
	isCurrentMonth := ty == year && int(tm) == month0+1

	cells := make([]DayCell, 0, days)
	for d := 1; d <= days; d++ {
		dateStr := fmt.Sprintf("%04d-%02d-%02d", year, month0+1, d)
		cells = append(cells, DayCell{
			Day:     d,
			IsToday: isCurrentMonth && d == td,
			Events:  byDate[dateStr],
		})
	}

	return Month{Year: year, Month0: month0, Leading: leading, Cells: cells}
}

// Cursor is the (year, month) pair a view is currently looking at.
// Navigation is a pure transformation with standard rollover.
type Cursor struct {
	Year   int
	Month0 int
}

// CursorFor returns the cursor for t's local calendar month.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month0: int(t.Month()) - 1}
}

func (c Cursor) Next() Cursor {
	if c.Month0 == 11 {
		return Cursor{Year: c.Year + 1, Month0: 0}
	}
	return Cursor{Year: c.Year, Month0: c.Month0 + 1}
}

func (c Cursor) Prev() Cursor {
	if c.Month0 == 0 {
		return Cursor{Year: c.Year - 1, Month0: 11}
	}
	return Cursor{Year: c.Year, Month0: c.Month0 - 1}
}
