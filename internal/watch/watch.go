// Package watch detects external mutation of the event blob. Views run
// in separate processes with no shared memory or callback channel, so
// the watcher polls the store's serialized form on a fixed interval
// and reports changes through a callback.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventboard/internal/log"
	"eventboard/internal/store"
)

const defaultPollSeconds = 1

// Watcher polls the store and invokes OnChange with the new snapshot
// whenever the serialized blob differs from the last observed form.
type Watcher struct {
	store       *store.Store
	pollSeconds int
	onChange    func(snapshot string)

	cron *cron.Cron

	// mu serializes whole poll cycles, not just access to last, so
	// onChange never runs concurrently with itself.
	mu   sync.Mutex
	last string
}

// New builds a watcher polling every pollSeconds (min 1). onChange is
// called from the poll goroutine.
func New(st *store.Store, pollSeconds int, onChange func(snapshot string)) *Watcher {
	if pollSeconds <= 0 {
		pollSeconds = defaultPollSeconds
	}
	return &Watcher{
		store:       st,
		pollSeconds: pollSeconds,
		onChange:    onChange,
	}
}

// Start primes the snapshot and begins polling. Stopping the watcher
// is the only cancellation a view needs; in-flight checks finish on
// their own.
func (w *Watcher) Start(ctx context.Context) error {
	snap, err := w.store.Snapshot(ctx)
	if err != nil {
		// A corrupt blob is recoverable; start from what we got and let
		// the next successful read settle things.
		appLog.Warn("watcher could not prime snapshot", "err", err)
	}
	w.mu.Lock()
	w.last = snap
	w.mu.Unlock()

	// Skip a tick rather than queue it when a poll outlives the
	// interval; CheckNow additionally serializes direct callers.
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %ds", w.pollSeconds)
	if _, err := w.cron.AddFunc(spec, w.CheckNow); err != nil {
		return err
	}
	w.cron.Start()
	appLog.Info("store watcher started", "poll_seconds", w.pollSeconds)
	return nil
}

// Stop halts polling. Safe to call when never started.
func (w *Watcher) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// CheckNow performs one poll cycle immediately. The cron schedule
// calls this; tests call it directly. Cycles run one at a time: a
// caller arriving mid-cycle waits, then compares against the snapshot
// the previous cycle settled on.
func (w *Watcher) CheckNow() {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed, cur, err := w.store.HasChangedSince(ctx, w.last)
	if err != nil {
		appLog.Warn("store poll failed", "err", err)
		return
	}
	if !changed {
		return
	}
	w.last = cur

	appLog.Debug("store blob changed", "bytes", len(cur))
	if w.onChange != nil {
		w.onChange(cur)
	}
}
