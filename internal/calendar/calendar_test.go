package calendar

import (
	"testing"
	"time"

	"eventboard/internal/model"
	"eventboard/internal/store"
)

func normalizedDefaults() []model.EventRecord {
	events := store.DefaultEvents()
	for i := range events {
		events[i] = model.Normalize(events[i], "2025-12-30")
	}
	return events
}

func TestBuildMonthDecember2025(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.December, 8, 10, 0, 0, 0, time.UTC)
	m := BuildMonth(2025, 11, normalizedDefaults(), today)

	if len(m.Cells) != 31 {
		t.Fatalf("cells = %d, want 31", len(m.Cells))
	}
	// 2025-12-01 was a Monday.
	if m.Leading != 1 {
		t.Fatalf("leading = %d, want 1", m.Leading)
	}
	if !m.Cells[7].IsToday {
		t.Fatal("day 8 not marked today")
	}
	if len(m.Cells[7].Events) != 1 || m.Cells[7].Events[0].Title != "Sports Day" {
		t.Fatalf("day 8 events = %v", m.Cells[7].Events)
	}
}

func TestBuildMonthCompleteness(t *testing.T) {
	t.Parallel()

	events := normalizedDefaults()
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	m := BuildMonth(2025, 11, events, today)

	total := 0
	for _, cell := range m.Cells {
		total += len(cell.Events)
	}
	if total != len(events) {
		t.Fatalf("grid carries %d events, store has %d in that month", total, len(events))
	}
	for _, cell := range m.Cells {
		if cell.IsToday {
			t.Fatalf("day %d marked today in a different month", cell.Day)
		}
	}
}

func TestBuildMonthLeapFebruary(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if m := BuildMonth(2024, 1, nil, today); len(m.Cells) != 29 {
		t.Fatalf("2024-02 cells = %d, want 29", len(m.Cells))
	}
	if m := BuildMonth(2025, 1, nil, today); len(m.Cells) != 28 {
		t.Fatalf("2025-02 cells = %d, want 28", len(m.Cells))
	}
}

func TestBuildMonthLeadingBlankRange(t *testing.T) {
	t.Parallel()

	today := time.Now()
	for month0 := 0; month0 < 12; month0++ {
		m := BuildMonth(2025, month0, nil, today)
		if m.Leading < 0 || m.Leading > 6 {
			t.Fatalf("month %d leading = %d", month0, m.Leading)
		}
		if len(m.Cells) < 28 || len(m.Cells) > 31 {
			t.Fatalf("month %d cells = %d", month0, len(m.Cells))
		}
	}
}

func TestBuildMonthIgnoresMalformedDates(t *testing.T) {
	t.Parallel()

	events := []model.EventRecord{{Title: "Odd", Date: "12/08/2025", Time: "1:00 PM", Category: "event"}}
	m := BuildMonth(2025, 11, events, time.Now())
	for _, cell := range m.Cells {
		if len(cell.Events) != 0 {
			t.Fatalf("day %d picked up a malformed-date event", cell.Day)
		}
	}
}

func TestCursorRollover(t *testing.T) {
	t.Parallel()

	dec := Cursor{Year: 2025, Month0: 11}
	if got := dec.Next(); got != (Cursor{Year: 2026, Month0: 0}) {
		t.Fatalf("dec.Next = %+v", got)
	}
	jan := Cursor{Year: 2026, Month0: 0}
	if got := jan.Prev(); got != dec {
		t.Fatalf("jan.Prev = %+v", got)
	}
	jun := Cursor{Year: 2025, Month0: 5}
	if got := jun.Next().Prev(); got != jun {
		t.Fatalf("next/prev not inverse: %+v", got)
	}
}

func TestCursorFor(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, time.December, 8, 12, 0, 0, 0, time.UTC)
	if got := CursorFor(ts); got != (Cursor{Year: 2025, Month0: 11}) {
		t.Fatalf("CursorFor = %+v", got)
	}
}
