// Package store owns the canonical ordered collection of event records.
// It persists the collection as a JSON array under a single key of the
// external blob store, so independently-running views share one source
// of truth without shared memory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
	"eventboard/internal/storage"
)

// BlobKey is the key under which the event collection is persisted.
const BlobKey = "events"

// ReadError reports a blob that existed but could not be read or
// parsed. The store falls back to the default set; callers may surface
// the condition but the returned records are still usable.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "store: read events blob: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed persist. In-memory state remains usable
// for the current session; callers surface a warning.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "store: persist events blob: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// Store reads and writes the event collection through a storage.KV.
type Store struct {
	kv  storage.KV
	now func() time.Time
}

func New(kv storage.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// NewWithClock is New with an injectable clock, used by tests to pin
// the date applied to records that need one at normalization time.
func NewWithClock(kv storage.KV, now func() time.Time) *Store {
	return &Store{kv: kv, now: now}
}

// DefaultEvents returns the fixed seed set used when the blob is
// absent or unusable.
func DefaultEvents() []model.EventRecord {
	return []model.EventRecord{
		{Title: "Sports Day", Date: "2025-12-08", Time: "2:00 PM", Description: "Annual university sports competitions.", Image: "assets/soccer-team.jpg"},
		{Title: "Robotic Surgery Demo", Date: "2025-12-11", Time: "3:00 PM", Description: "Robotic-assisted surgical demo.", Image: "assets/Ai-in-medicine.jpg"},
		{Title: "Photography Workshop", Date: "2025-12-14", Time: "10:00 AM", Description: "Camera basics & composition.", Image: "assets/photography.jpg"},
		{Title: "Baking Marathon", Date: "2025-12-20", Time: "9:00 AM", Description: "All-day baking event.", Image: "assets/baking.jpg"},
		{Title: "Networking Night", Date: "2025-12-24", Time: "6:00 PM", Description: "Meet recruiters, CV reviews.", Image: "assets/tech-summit.jpeg"},
	}
}

// Load reads the persisted collection, normalizes every record and
// returns it sorted newest-first (stable, so equal dates preserve
// their stored relative order).
//
// An absent blob seeds the defaults silently. A present-but-corrupt
// blob also seeds the defaults but additionally returns a *ReadError
// alongside the records, so callers can tell the two apart.
func (s *Store) Load(ctx context.Context) ([]model.EventRecord, error) {
	raw, err := s.kv.Get(ctx, BlobKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.seed(ctx), nil
		}
		return s.seed(ctx), &ReadError{Err: err}
	}

	var records []model.EventRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return s.seed(ctx), &ReadError{Err: err}
	}

	// A stored array in which no record carries a display time predates
	// the normalizer and is treated as unusable; reseed.
	if !anyHasTime(records) {
		return s.seed(ctx), nil
	}

	today := model.Today(s.now())
	for i := range records {
		records[i] = model.Normalize(records[i], today)
	}
	sortNewestFirst(records)
	return records, nil
}

// Append adds a normalized record to the end of the persisted
// collection and returns the record as stored, so callers hand out
// the post-normalization form. The blob keeps insertion order;
// reordering by date happens only on Load.
func (s *Store) Append(ctx context.Context, rec model.EventRecord) (model.EventRecord, error) {
	rec = model.Normalize(rec, model.Today(s.now()))

	var records []model.EventRecord
	raw, err := s.kv.Get(ctx, BlobKey)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, &records); jerr != nil {
			appLog.Warn("append found corrupt events blob, starting over from defaults", "err", jerr)
			records = DefaultEvents()
		}
	case errors.Is(err, storage.ErrNotFound):
		records = DefaultEvents()
	default:
		return model.EventRecord{}, &WriteError{Err: err}
	}

	records = append(records, rec)
	if err := s.persist(ctx, records); err != nil {
		return model.EventRecord{}, err
	}
	return rec, nil
}

// Reset replaces the persisted collection with the default set.
func (s *Store) Reset(ctx context.Context) error {
	return s.persist(ctx, DefaultEvents())
}

// Snapshot returns the current serialized blob form, or "" when the
// blob has never been written.
func (s *Store) Snapshot(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, BlobKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", &ReadError{Err: err}
	}
	return string(raw), nil
}

// HasChangedSince compares the current serialized blob against a
// previously observed form. Views poll this to detect mutation by
// other processes; on change they fully reload.
func (s *Store) HasChangedSince(ctx context.Context, prior string) (bool, string, error) {
	cur, err := s.Snapshot(ctx)
	if err != nil {
		return false, prior, err
	}
	return cur != prior, cur, nil
}

// seed persists the default set and returns it normalized and
// newest-first, so a freshly seeded view satisfies the same invariants
// as every later Load. A persist failure here is logged but not fatal;
// the defaults still serve the current session.
func (s *Store) seed(ctx context.Context) []model.EventRecord {
	defaults := DefaultEvents()
	if err := s.persist(ctx, defaults); err != nil {
		appLog.Warn("failed to persist default events", "err", err)
	}
	today := model.Today(s.now())
	for i := range defaults {
		defaults[i] = model.Normalize(defaults[i], today)
	}
	sortNewestFirst(defaults)
	return defaults
}

func (s *Store) persist(ctx context.Context, records []model.EventRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return &WriteError{Err: err}
	}
	if err := s.kv.Set(ctx, BlobKey, data); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func sortNewestFirst(records []model.EventRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}

func anyHasTime(records []model.EventRecord) bool {
	for _, r := range records {
		if r.Time != "" {
			return true
		}
	}
	return false
}
