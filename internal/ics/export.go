// Package ics renders the event catalog as an iCalendar feed so the
// archive can be subscribed to from external calendar clients.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
)

const (
	productID     = "-//eventboard//event catalog//EN"
	uidDomain     = "@eventboard"
	displayLayout = "3:04 PM"
	eventDuration = time.Hour
)

// Export renders events as an iCalendar payload. One VEVENT per
// record; records whose date cannot be parsed are skipped with a log
// line, never an error. Records without a display time export as
// all-day events.
func Export(events []model.EventRecord, calName string) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if calName != "" {
		cal.SetXWRCalName(calName)
	}

	now := time.Now().UTC()
	for _, ev := range events {
		start, allDay, ok := startTime(ev)
		if !ok {
			appLog.Warn("skipping event with unparseable date in ICS export", "title", ev.Title, "date", ev.Date)
			continue
		}

		ve := cal.AddEvent(uuid.NewString() + uidDomain)
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.DisplayTitle())
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}

		if allDay {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(eventDuration))
		}
	}

	return []byte(cal.Serialize()), nil
}

// startTime resolves a record's date plus optional 12-hour display
// time into a concrete start. The bool result reports all-day.
func startTime(ev model.EventRecord) (start time.Time, allDay, ok bool) {
	day, err := time.ParseInLocation(model.DateLayout, ev.Date, time.Local)
	if err != nil {
		return time.Time{}, false, false
	}
	if ev.Time == "" {
		return day, true, true
	}

	clock, err := time.Parse(displayLayout, ev.Time)
	if err != nil {
		// A display time we cannot read degrades to all-day rather than
		// dropping the event.
		return day, true, true
	}
	start = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	return start, false, true
}
