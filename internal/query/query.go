// Package query filters the event catalog with combinable, AND-joined
// predicates. It never re-sorts: the store's order is preserved.
package query

import (
	"strings"

	"eventboard/internal/model"
)

// Sentinel values for Criteria fields. A zero value always means
// "match everything".
const (
	ModeAll     = "all"
	ModeCustom  = "custom"
	CategoryAll = "all"
)

// Criteria is the set of active filter predicates.
type Criteria struct {
	// Search is matched case-insensitively as a substring of the title
	// only. Empty matches all.
	Search string

	// Category must equal the record's normalized category exactly,
	// unless it is empty or CategoryAll.
	Category string

	// DateMode is ModeAll, ModeCustom, or a 4-digit year. Empty means
	// ModeAll.
	DateMode string

	// StartDate / EndDate bound ModeCustom, inclusive, each optional.
	// Compared lexically; valid because dates are zero-padded.
	StartDate string
	EndDate   string
}

// Filter returns the records matching every active predicate, in the
// input order.
func Filter(events []model.EventRecord, c Criteria) []model.EventRecord {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]model.EventRecord, 0, len(events))
	for _, ev := range events {
		if !matches(ev, c, search) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func matches(ev model.EventRecord, c Criteria, search string) bool {
	// Cheapest predicates first; AND is commutative so this is purely
	// an ordering choice.
	if c.Category != "" && c.Category != CategoryAll && ev.Category != c.Category {
		return false
	}
	if !dateMatches(ev.Date, c) {
		return false
	}
	if search != "" && !strings.Contains(strings.ToLower(ev.Title), search) {
		return false
	}
	return true
}

func dateMatches(date string, c Criteria) bool {
	switch c.DateMode {
	case "", ModeAll:
		return true
	case ModeCustom:
		if c.StartDate == "" && c.EndDate == "" {
			return true
		}
		// A malformed date cannot be lexically evaluated against an
		// active bound; treat it as out of range rather than failing.
		if !model.ValidDate(date) {
			return false
		}
		if c.StartDate != "" && date < c.StartDate {
			return false
		}
		if c.EndDate != "" && date > c.EndDate {
			return false
		}
		return true
	default:
		// Year mode: the prefix before the first '-' must equal the
		// selected year exactly.
		year, _, _ := strings.Cut(date, "-")
		return year == c.DateMode
	}
}
