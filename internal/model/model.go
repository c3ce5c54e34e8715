package model

import (
	"regexp"
	"time"
)

// DateLayout is the canonical calendar-date shape used throughout the
// catalog. Dates in this form are zero-padded and lexically comparable,
// so range filtering never needs to parse them.
const DateLayout = "2006-01-02"

// DefaultCategory is the classification applied when a record carries
// neither a category nor a raw type.
const DefaultCategory = "event"

// untitled is the display fallback for records without a title.
const untitled = "Untitled Event"

// EventRecord is the canonical unit of catalog data: a scheduled event
// with its date, title and descriptive metadata. JSON field names match
// the persisted blob format.
type EventRecord struct {
	Title string `json:"title"`

	// Date is a calendar date in YYYY-MM-DD form, no timezone. Required
	// for the record to be orderable; Normalize fills it when absent.
	Date string `json:"date"`

	// Time is an optional 12-hour display string (e.g. "2:30 PM"),
	// derived once at creation. It never participates in ordering.
	Time string `json:"time,omitempty"`

	Description string `json:"desc,omitempty"`
	Location    string `json:"location,omitempty"`
	OtherInfo   string `json:"other,omitempty"`

	// Type is the raw user-chosen category at creation time.
	Type string `json:"type,omitempty"`

	// Category is the normalized classification used by filters.
	// Non-empty after Normalize.
	Category string `json:"category,omitempty"`

	// Image is an optional data URI or asset path. Renderers substitute
	// a default asset when empty.
	Image string `json:"img,omitempty"`
}

// DisplayTitle returns the title, or the display fallback if empty.
func (r EventRecord) DisplayTitle() string {
	if r.Title == "" {
		return untitled
	}
	return r.Title
}

var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s has the canonical YYYY-MM-DD shape.
// It checks shape only, not calendar validity.
func ValidDate(s string) bool {
	return dateShape.MatchString(s)
}

// Today formats t's local calendar date in the canonical shape.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// Normalize repairs a partial record so it satisfies the store
// invariants: non-empty category and non-empty date. It is total and
// idempotent; today is the caller's current date in canonical form.
//
// A non-empty date that does not match the canonical shape passes
// through unchanged. Such records sort and filter oddly, which is
// accepted; the query engine excludes them from active date
// constraints instead of failing.
func Normalize(raw EventRecord, today string) EventRecord {
	out := raw
	if out.Category == "" {
		if out.Type != "" {
			out.Category = out.Type
		} else {
			out.Category = DefaultCategory
		}
	}
	if out.Date == "" {
		out.Date = today
	}
	return out
}
