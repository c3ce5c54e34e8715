package ics

import (
	"strings"
	"testing"

	"eventboard/internal/model"
)

func TestExportRendersEvents(t *testing.T) {
	t.Parallel()

	events := []model.EventRecord{
		{Title: "Sports Day", Date: "2025-12-08", Time: "2:00 PM", Description: "Annual university sports competitions.", Category: "event"},
		{Title: "Quiet Day", Date: "2025-12-09", Category: "event"},
	}
	data, err := Export(events, "Eventboard")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	payload := string(data)
	if !strings.Contains(payload, "BEGIN:VCALENDAR") || !strings.Contains(payload, "END:VCALENDAR") {
		t.Fatal("missing calendar envelope")
	}
	if got := strings.Count(payload, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("vevent count = %d, want 2", got)
	}
	if !strings.Contains(payload, "SUMMARY:Sports Day") {
		t.Fatal("missing summary")
	}
	if !strings.Contains(payload, "X-WR-CALNAME:Eventboard") {
		t.Fatal("missing calendar name")
	}
}

func TestExportSkipsMalformedDates(t *testing.T) {
	t.Parallel()

	events := []model.EventRecord{
		{Title: "Odd", Date: "12/08/2025", Time: "1:00 PM", Category: "event"},
		{Title: "Fine", Date: "2025-12-08", Time: "1:00 PM", Category: "event"},
	}
	data, err := Export(events, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	payload := string(data)
	if got := strings.Count(payload, "BEGIN:VEVENT"); got != 1 {
		t.Fatalf("vevent count = %d, want 1", got)
	}
	if strings.Contains(payload, "SUMMARY:Odd") {
		t.Fatal("malformed-date event exported")
	}
}

func TestExportUntitledFallback(t *testing.T) {
	t.Parallel()

	data, err := Export([]model.EventRecord{{Date: "2025-12-08", Time: "1:00 PM", Category: "event"}}, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(data), "SUMMARY:Untitled Event") {
		t.Fatal("missing untitled fallback summary")
	}
}
