package progress

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/dacweb/dac/pkg/config"
	"github.com/uptrace/bun"
)

// StoreFactory builds the Store that holds one device's progress.
type StoreFactory func(deviceID string) Store

// NewStoreFactory picks the store backend named by progress_store.
func NewStoreFactory(cfg *config.Config, db *bun.DB) StoreFactory {
	if cfg.ProgressStore == config.ProgressStoreFile {
		return func(deviceID string) Store {
			return NewFileStore(filepath.Join(cfg.ProgressDir, deviceID))
		}
	}
	return func(deviceID string) Store {
		return NewDBStore(db, deviceID, cfg.DatabaseMaxRetries)
	}
}

type registryEntry struct {
	tracker *Tracker
	refs    int
}

// Registry hands out one shared Tracker per device for as long as anything
// holds it, so concurrent sessions on a device see each other's updates.
type Registry struct {
	mu       sync.Mutex
	newStore StoreFactory
	entries  map[string]*registryEntry
}

func NewRegistry(newStore StoreFactory) *Registry {
	return &Registry{newStore: newStore, entries: map[string]*registryEntry{}}
}

// Acquire returns the device's tracker, loading it on first use. The release
// func must be called exactly once when the caller is done with it.
func (r *Registry) Acquire(ctx context.Context, deviceID string) (*Tracker, func()) {
	r.mu.Lock()
	entry, ok := r.entries[deviceID]
	if !ok {
		// Loading touches the store, so it happens outside the lock. Another
		// caller may have won the race by the time it finishes.
		r.mu.Unlock()
		tracker := NewTracker(ctx, r.newStore(deviceID))
		r.mu.Lock()
		if entry, ok = r.entries[deviceID]; !ok {
			entry = &registryEntry{tracker: tracker}
			r.entries[deviceID] = entry
		}
	}
	entry.refs++
	r.mu.Unlock()

	var once sync.Once
	return entry.tracker, func() {
		once.Do(func() { r.release(deviceID) })
	}
}

func (r *Registry) release(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[deviceID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.entries, deviceID)
	}
}

// Len reports how many device trackers are currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
