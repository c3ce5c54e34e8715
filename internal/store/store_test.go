package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eventboard/internal/model"
	"eventboard/internal/storage"
)

func fixedClock() time.Time {
	return time.Date(2025, time.December, 30, 12, 0, 0, 0, time.UTC)
}

func newTestStore() (*Store, *storage.MemKV) {
	kv := storage.NewMemKV()
	return NewWithClock(kv, fixedClock), kv
}

func TestLoadSeedsDefaultsWhenBlobAbsent(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	// Newest first: Networking Night (2025-12-24) leads, Sports Day
	// (2025-12-08) trails.
	if got[0].Title != "Networking Night" {
		t.Fatalf("first = %q, want %q", got[0].Title, "Networking Night")
	}
	if got[4].Title != "Sports Day" || got[4].Date != "2025-12-08" {
		t.Fatalf("last = %q (%s), want Sports Day 2025-12-08", got[4].Title, got[4].Date)
	}

	// The seed must have been persisted.
	if _, err := kv.Get(context.Background(), BlobKey); err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
}

func TestSeededDefaultsAreNormalized(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()

	// The very first Load must hand out records satisfying the same
	// invariants as every later one; the seed set carries no category,
	// so each record gets the default.
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, r := range got {
		if r.Category != model.DefaultCategory {
			t.Fatalf("category of %q = %q, want %q on first load", r.Title, r.Category, model.DefaultCategory)
		}
	}

	// Corrupt-blob fallback goes through the same path.
	if err := kv.Set(ctx, BlobKey, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ = st.Load(ctx)
	for _, r := range got {
		if r.Category == "" {
			t.Fatalf("fallback record %q has empty category", r.Title)
		}
	}
}

func TestAppendReturnsStoredRecord(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore()
	ctx := context.Background()

	stored, err := st.Append(ctx, model.EventRecord{Title: "Demo", Time: "2:30 PM", Type: "workshop"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.Category != "workshop" {
		t.Fatalf("category = %q, want %q", stored.Category, "workshop")
	}
	if stored.Date != "2025-12-30" {
		t.Fatalf("date = %q, want today %q", stored.Date, "2025-12-30")
	}
}

func TestLoadOrderingInvariant(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore()
	ctx := context.Background()
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("seed load: %v", err)
	}
	if _, err := st.Append(ctx, model.EventRecord{Title: "Midway", Date: "2025-12-12", Time: "1:00 PM"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Date < got[i].Date {
			t.Fatalf("order violated at %d: %q < %q", i, got[i-1].Date, got[i].Date)
		}
	}
}

func TestLoadStableOnEqualDates(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()
	records := []model.EventRecord{
		{Title: "First", Date: "2025-12-11", Time: "1:00 PM"},
		{Title: "Second", Date: "2025-12-11", Time: "2:00 PM"},
		{Title: "Later", Date: "2025-12-20", Time: "3:00 PM"},
	}
	data, _ := json.Marshal(records)
	if err := kv.Set(ctx, BlobKey, data); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[0].Title != "Later" || got[1].Title != "First" || got[2].Title != "Second" {
		t.Fatalf("order = %q, %q, %q", got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestLoadCorruptBlobFallsBackWithReadError(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()
	if err := kv.Set(ctx, BlobKey, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := st.Load(ctx)
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("err = %v, want *ReadError", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5 defaults", len(got))
	}
}

func TestLoadReseedsPreNormalizerBlob(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()
	// No record carries a display time: treated as a stale artifact.
	if err := kv.Set(ctx, BlobKey, []byte(`[{"title":"Old","date":"2024-01-01"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5 defaults", len(got))
	}
}

func TestLoadNormalizesRecords(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()
	blob := `[{"title":"Demo","type":"workshop"},{"title":"Timed","date":"2025-12-01","time":"1:00 PM"}]`
	if err := kv.Set(ctx, BlobKey, []byte(blob)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var demo model.EventRecord
	for _, r := range got {
		if r.Title == "Demo" {
			demo = r
		}
	}
	if demo.Category != "workshop" {
		t.Fatalf("category = %q, want %q", demo.Category, "workshop")
	}
	if demo.Date != "2025-12-30" {
		t.Fatalf("date = %q, want today %q", demo.Date, "2025-12-30")
	}
}

func TestAppendKeepsInsertionOrderInBlob(t *testing.T) {
	t.Parallel()

	st, kv := newTestStore()
	ctx := context.Background()
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("seed load: %v", err)
	}
	if _, err := st.Append(ctx, model.EventRecord{Title: "Oldest", Date: "2020-01-01", Time: "9:00 AM"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := kv.Get(ctx, BlobKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var persisted []model.EventRecord
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if persisted[len(persisted)-1].Title != "Oldest" {
		t.Fatalf("blob tail = %q, want appended record", persisted[len(persisted)-1].Title)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore()
	ctx := context.Background()
	if _, err := st.Append(ctx, model.EventRecord{Title: "Extra", Date: "2026-01-01", Time: "1:00 PM"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for _, r := range got {
		if r.Title == "Extra" {
			t.Fatal("reset kept appended record")
		}
	}
}

func TestHasChangedSince(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore()
	ctx := context.Background()
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	changed, _, err := st.HasChangedSince(ctx, snap)
	if err != nil {
		t.Fatalf("has changed: %v", err)
	}
	if changed {
		t.Fatal("unchanged blob reported as changed")
	}

	if _, err := st.Append(ctx, model.EventRecord{Title: "New", Date: "2026-02-02", Time: "2:00 PM"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	changed, next, err := st.HasChangedSince(ctx, snap)
	if err != nil {
		t.Fatalf("has changed: %v", err)
	}
	if !changed {
		t.Fatal("append not detected")
	}
	if next == snap {
		t.Fatal("snapshot did not advance")
	}
}

func TestRecordsRoundTripThroughJSON(t *testing.T) {
	t.Parallel()

	events := []model.EventRecord{
		{Title: "X", Date: "2025-01-05", Time: "2:30 PM", Description: "d", Location: "l", OtherInfo: "o", Type: "workshop", Category: "workshop", Image: "data:image/png;base64,AAAA"},
		{Title: "Y", Date: "2025-02-06", Time: "9:05 AM"},
	}
	data, err := json.Marshal(events)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back []model.EventRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != len(events) {
		t.Fatalf("len = %d, want %d", len(back), len(events))
	}
	for i := range events {
		if back[i] != events[i] {
			t.Fatalf("record %d = %+v, want %+v", i, back[i], events[i])
		}
	}
}
