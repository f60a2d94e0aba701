package editor

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// DragActivationDelay is how long a press must hold before a sort drag
	// starts, so a plain click-to-open is not hijacked into a drag.
	DragActivationDelay = 150 * time.Millisecond
	// DragActivationTolerance is the pointer travel, in pixels, allowed
	// during the activation hold.
	DragActivationTolerance = 5.0
)

// OrderEntry is one sibling in a manually sorted list. A nil Order means
// the row predates manual sorting and sorts by its creation timestamp.
type OrderEntry struct {
	ID    string
	Order *int64
}

// OrderUpdate is one row of the dense reassignment persisted after a drop.
type OrderUpdate struct {
	ID    string
	Order int64
}

// OrderWriteFunc persists one entry's new order value.
type OrderWriteFunc func(ctx context.Context, id string, order int64) error

// Reconciler keeps a local mirror of a sibling list during drag-and-drop
// sorting. A drop applies to the mirror immediately, before any network
// traffic; the dense 0..N-1 order values are then written as one logical
// batch of concurrent per-row updates, skipping rows whose stored order
// already matches.
type Reconciler struct {
	mu      sync.Mutex
	entries []OrderEntry
	write   OrderWriteFunc
	logger  *log.Logger
}

func NewReconciler(write OrderWriteFunc, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{write: write, logger: logger}
}

// Reset replaces the mirror with the upstream sibling set. Call it on
// every authoritative read so the mirror never drifts past one reorder.
func (r *Reconciler) Reset(entries []OrderEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]OrderEntry(nil), entries...)
}

// IDs returns the mirror's current order.
func (r *Reconciler) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Move drops the entry at index from onto index to, with array-move
// semantics: the entry is removed from its old position and inserted at
// the new one, shifting everything between. Out-of-range indexes and
// same-position drops are no-ops.
//
// A failed row write is logged, not rolled back; the mirror and the store
// stay diverged until the next Reset from an authoritative read.
func (r *Reconciler) Move(ctx context.Context, from, to int) []OrderUpdate {
	r.mu.Lock()
	if from == to || from < 0 || to < 0 || from >= len(r.entries) || to >= len(r.entries) {
		r.mu.Unlock()
		return nil
	}

	moved := r.entries[from]
	entries := make([]OrderEntry, 0, len(r.entries))
	for i, e := range r.entries {
		if i != from {
			entries = append(entries, e)
		}
	}
	entries = append(entries, OrderEntry{})
	copy(entries[to+1:], entries[to:])
	entries[to] = moved

	updates := make([]OrderUpdate, 0, len(entries))
	for i := range entries {
		want := int64(i)
		if entries[i].Order == nil || *entries[i].Order != want {
			order := want
			entries[i].Order = &order
			updates = append(updates, OrderUpdate{ID: entries[i].ID, Order: want})
		}
	}
	r.entries = entries
	write := r.write
	r.mu.Unlock()

	if write == nil || len(updates) == 0 {
		return updates
	}

	var wg sync.WaitGroup
	for _, u := range updates {
		wg.Add(1)
		go func(u OrderUpdate) {
			defer wg.Done()
			if err := write(ctx, u.ID, u.Order); err != nil {
				r.logger.Printf("reorder: update %s -> %d failed: %v", u.ID, u.Order, err)
			}
		}(u)
	}
	wg.Wait()
	return updates
}
