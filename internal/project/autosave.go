package project

import (
	"log"
	"sync"
	"time"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
)

// DefaultDebounce is how long the autosaver waits after the last change
// before encoding.
const DefaultDebounce = 2 * time.Second

// Autosaver persists the session in the background. Changed snapshots
// the document and history synchronously, so the caller may keep
// mutating surfaces the moment it returns; the encode and write run on
// their own goroutine after a debounce window. Write failures are
// logged and dropped, never surfaced to the editing session.
type Autosaver struct {
	path     string
	debounce time.Duration

	// OnSave, when set, runs after every successful background write.
	// Set it before the first Changed call.
	OnSave func(path string)

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingSave
	wg      sync.WaitGroup
	closed  bool
}

type pendingSave struct {
	doc *document.Document
	log *history.Log
}

// NewAutosaver writes to path with the given debounce window, or
// DefaultDebounce when zero.
func NewAutosaver(path string, debounce time.Duration) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Autosaver{path: path, debounce: debounce}
}

// Changed notes a new dirty state. Only the newest snapshot survives
// repeated calls within one debounce window.
func (a *Autosaver) Changed(doc *document.Document, g *history.Log) {
	snap := &pendingSave{doc: doc.Clone(), log: g.Clone()}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = snap
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	snap := a.pending
	a.pending = nil
	if snap == nil || a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		if err := Save(a.path, snap.doc, snap.log); err != nil {
			log.Printf("autosave: %v", err)
			return
		}
		if a.OnSave != nil {
			a.OnSave(a.path)
		}
	}()
}

// Flush writes any pending snapshot immediately and waits for in-flight
// saves to finish.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	snap := a.pending
	a.pending = nil
	a.mu.Unlock()

	if snap != nil {
		if err := Save(a.path, snap.doc, snap.log); err != nil {
			log.Printf("autosave: %v", err)
		} else if a.OnSave != nil {
			a.OnSave(a.path)
		}
	}
	a.wg.Wait()
}

// Close flushes and stops accepting further changes.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.Flush()
}
