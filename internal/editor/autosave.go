package editor

import (
	"context"
	"log"
	"sync"
	"time"
)

// State is the autosave indicator state.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateSaving
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	default:
		return "idle"
	}
}

const (
	// DebounceDelay is the quiet period after the last content change
	// before a save is attempted.
	DebounceDelay = 1000 * time.Millisecond
	// SavedVisible is how long the saved indicator stays up before
	// reverting to idle.
	SavedVisible = 2000 * time.Millisecond
	// EditingSettle is how long the editing indicator lingers when the
	// debounce fires on content identical to the last persisted snapshot.
	EditingSettle = 300 * time.Millisecond
)

// SaveFunc persists one document's full content.
type SaveFunc func(ctx context.Context, collectionID, documentID, content string) error

// Autosave debounces content changes into persistence calls. Each change
// restarts a single timer; when it fires, the latest content is compared
// against the last successfully persisted snapshot and written only if it
// differs. A failed write is logged and the controller settles back to
// idle without retrying.
//
// The save closes over the collection and document ids captured when the
// timer was scheduled, so a save racing a document switch can never write
// under the new document's ids.
type Autosave struct {
	mu       sync.Mutex
	sched    Scheduler
	save     SaveFunc
	logger   *log.Logger
	observer func(State)

	collectionID string
	documentID   string
	content      string
	snapshot     string

	state    State
	debounce Timer
	hide     Timer
	gen      uint64
	closed   bool
}

func NewAutosave(sched Scheduler, save SaveFunc, logger *log.Logger) *Autosave {
	if sched == nil {
		sched = SystemScheduler{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Autosave{sched: sched, save: save, logger: logger, state: StateIdle}
}

// Observe registers a callback invoked on every state transition. The
// callback runs on the controller's internal goroutines and must not call
// back into the controller.
func (a *Autosave) Observe(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observer = fn
}

// Reset binds the controller to a document and replaces both the live
// content and the persisted snapshot with the externally supplied value.
// Any pending timer or in-flight save from the previous binding is
// discarded. Calling it with the current binding and matching content is
// a no-op, so it is safe to invoke on every upstream render.
func (a *Autosave) Reset(collectionID, documentID, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if collectionID == a.collectionID && documentID == a.documentID && content == a.content {
		return
	}
	a.gen++
	a.cancelTimers()
	a.collectionID = collectionID
	a.documentID = documentID
	a.content = content
	a.snapshot = content
	a.setState(StateIdle)
}

// OnChange records a content change and restarts the debounce window.
// Only the last change within the window survives.
func (a *Autosave) OnChange(content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.content = content
	a.setState(StateEditing)
	a.cancelTimers()
	gen := a.gen
	collectionID, documentID := a.collectionID, a.documentID
	a.debounce = a.sched.AfterFunc(DebounceDelay, func() {
		a.flush(gen, collectionID, documentID)
	})
}

// Close tears the controller down, cancelling all pending timers. A save
// already in flight is allowed to finish but its result is dropped.
func (a *Autosave) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.gen++
	a.cancelTimers()
}

// State returns the current indicator state.
func (a *Autosave) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Snapshot returns the last successfully persisted content.
func (a *Autosave) Snapshot() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

func (a *Autosave) flush(gen uint64, collectionID, documentID string) {
	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	content := a.content
	if content == a.snapshot {
		// Type-then-undo lands here: nothing to write, settle back shortly.
		a.hide = a.sched.AfterFunc(EditingSettle, func() { a.settle(gen) })
		a.mu.Unlock()
		return
	}
	a.setState(StateSaving)
	a.mu.Unlock()

	err := a.save(context.Background(), collectionID, documentID, content)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || gen != a.gen {
		return
	}
	if err != nil {
		a.logger.Printf("autosave: save document %s/%s failed: %v", collectionID, documentID, err)
		a.setState(StateIdle)
		return
	}
	a.snapshot = content
	if a.content != content {
		// A newer edit arrived while the write was in flight; its own
		// debounce timer will handle it. Stay in editing.
		return
	}
	a.setState(StateSaved)
	a.hide = a.sched.AfterFunc(SavedVisible, func() { a.settle(gen) })
}

func (a *Autosave) settle(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || gen != a.gen || a.state == StateSaving {
		return
	}
	a.setState(StateIdle)
}

func (a *Autosave) cancelTimers() {
	if a.debounce != nil {
		a.debounce.Stop()
		a.debounce = nil
	}
	if a.hide != nil {
		a.hide.Stop()
		a.hide = nil
	}
}

func (a *Autosave) setState(next State) {
	if a.state == next {
		return
	}
	a.state = next
	if a.observer != nil {
		a.observer(next)
	}
}
