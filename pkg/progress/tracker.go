package progress

import (
	"context"
	"math"
	"sync"

	"github.com/dacweb/dac/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const (
	// StorageKey is the key the whole progress map is stored under.
	StorageKey = "learningProgress"
	// CompletionThreshold is the watched fraction that marks a chapter done.
	CompletionThreshold = 0.9
)

// ErrInvalidPosition is returned for positions that are negative or not a
// finite number. Such samples never touch stored progress.
var ErrInvalidPosition = errors.New("invalid playback position")

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

type Entry struct {
	MaxWatched   float64 `json:"maxWatched"`
	LastPosition float64 `json:"lastPosition"`
	Completed    bool    `json:"completed"`
}

// Tracker holds one device's progress map and writes it through to a Store
// after every update. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	entries map[string]Entry
}

// NewTracker loads the stored progress map. A store that can't be read or a
// blob that doesn't parse both mean "no progress yet".
func NewTracker(ctx context.Context, store Store) *Tracker {
	t := &Tracker{store: store, entries: map[string]Entry{}}

	data, err := store.Load(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.FromContext(ctx).Err(err).Warn("progress storage unavailable, starting empty")
		}
		return t
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.FromContext(ctx).Err(err).Warn("stored progress is corrupt, starting empty")
		return t
	}
	for id, e := range entries {
		if !finite(e.MaxWatched) || !finite(e.LastPosition) {
			continue
		}
		t.entries[id] = e
	}
	return t
}

// Get returns the entry for the chapter, or a zero entry.
func (t *Tracker) Get(chapterID string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[chapterID]
}

// Update records a sampled position and persists the whole map. maxWatched
// never decreases and completed never goes back to false.
func (t *Tracker) Update(ctx context.Context, chapterID string, position, duration float64) (Entry, error) {
	if !finite(position) || position < 0 {
		return Entry{}, ErrInvalidPosition
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[chapterID]
	e.LastPosition = position
	if position > e.MaxWatched {
		e.MaxWatched = position
	}
	if finite(duration) && duration > 0 && e.MaxWatched/duration >= CompletionThreshold {
		e.Completed = true
	}
	t.entries[chapterID] = e

	// Saving under the lock keeps writes in update order.
	data, err := json.Marshal(t.entries)
	if err != nil {
		return e, errors.WithStack(err)
	}

	err = t.store.Save(ctx, StorageKey, data)
	metrics.RecordProgressSave(err)
	if err != nil {
		return e, errors.Wrap(err, "failed to persist progress")
	}
	return e, nil
}

func (t *Tracker) Status(chapterID string) Status {
	return StatusOf(t.Get(chapterID))
}

// Percent is the progress bar value for the chapter: maxWatched as a whole
// percentage of duration, capped at 100.
func (t *Tracker) Percent(chapterID string, duration float64) int {
	if !finite(duration) || duration <= 0 {
		return 0
	}
	pct := math.Round(t.Get(chapterID).MaxWatched / duration * 100)
	if pct > 100 {
		return 100
	}
	return int(pct)
}

func (t *Tracker) Snapshot() map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = e
	}
	return out
}

func StatusOf(e Entry) Status {
	switch {
	case e.Completed:
		return StatusCompleted
	case e.MaxWatched > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
