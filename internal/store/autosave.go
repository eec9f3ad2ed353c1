package store

import (
	"sync"
	"time"

	"weave/internal/canvas"
)

// Autosaver coalesces rapid state changes into a single delayed write.
// Each Note resets the delay, so a burst of edits lands as one save
// after the board goes quiet. Viewport-only changes flow through the
// same path, which keeps pan and zoom from hammering the database.
// Notes arriving while no board is set are dropped.
type Autosaver struct {
	store   *BoardStore
	boardID string
	delay   time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *canvas.State
	err     error
}

func NewAutosaver(store *BoardStore, boardID string, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = 800 * time.Millisecond
	}
	return &Autosaver{store: store, boardID: boardID, delay: delay}
}

// Note schedules st to be written after the delay, replacing any
// previously scheduled state.
func (a *Autosaver) Note(st canvas.State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = &st
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.flushLocked)
}

func (a *Autosaver) flushLocked() {
	a.mu.Lock()
	st := a.pending
	id := a.boardID
	a.pending = nil
	a.mu.Unlock()

	if st == nil || id == "" {
		return
	}
	if err := a.store.SaveState(id, *st); err != nil {
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
	}
}

// SetBoard retargets the autosaver at another board. Anything still
// pending is written to the previous board first.
func (a *Autosaver) SetBoard(boardID string) error {
	err := a.Flush()
	a.mu.Lock()
	a.boardID = boardID
	a.mu.Unlock()
	return err
}

// Flush writes any pending state immediately.
func (a *Autosaver) Flush() error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	st := a.pending
	id := a.boardID
	a.pending = nil
	a.mu.Unlock()

	if st != nil && id != "" {
		if err := a.store.SaveState(id, *st); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Close stops the timer and flushes anything still pending.
func (a *Autosaver) Close() error {
	return a.Flush()
}
