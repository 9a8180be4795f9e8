package history

import "github.com/example/layerpaint/internal/document"

// DefaultCap bounds how many records the log retains before evicting the
// oldest. Evicted edits can no longer be undone.
const DefaultCap = 50

// Log is a linear record array with a cursor. The cursor points at the
// most recently applied record, or -1 when everything is undone.
type Log struct {
	records []Record
	cursor  int
	cap     int
	version uint64
}

// NewLog creates a log bounded to capacity, or DefaultCap when the
// argument is not positive.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Log{cursor: -1, cap: capacity}
}

// Record truncates any redo tail, appends rec, and evicts the oldest
// entry once the capacity is exceeded.
func (g *Log) Record(rec Record) {
	if rec == nil {
		return
	}
	if g.cursor < len(g.records)-1 {
		g.records = g.records[:g.cursor+1]
		g.version++
	}
	g.records = append(g.records, rec)
	g.cursor++
	if len(g.records) > g.cap {
		over := len(g.records) - g.cap
		g.records = g.records[over:]
		if g.cursor >= over {
			g.cursor -= over
		}
		g.version++
	}
}

// Undo applies the inverse of the record at the cursor and steps back.
// At the log boundary it is a no-op returning a zero Change.
func (g *Log) Undo(doc *document.Document) Change {
	if g.cursor < 0 {
		return Change{}
	}
	ch := g.records[g.cursor].Undo(doc)
	g.cursor--
	return ch
}

// Redo steps forward and applies the next record's forward effect. At
// the tail it is a no-op returning a zero Change.
func (g *Log) Redo(doc *document.Document) Change {
	if g.cursor >= len(g.records)-1 {
		return Change{}
	}
	g.cursor++
	return g.records[g.cursor].Redo(doc)
}

// CanUndo reports whether a record is available behind the cursor.
func (g *Log) CanUndo() bool { return g.cursor >= 0 }

// CanRedo reports whether a redo tail exists.
func (g *Log) CanRedo() bool { return g.cursor < len(g.records)-1 }

// Len reports the number of retained records.
func (g *Log) Len() int { return len(g.records) }

// Cursor returns the index of the last applied record, -1 when none.
func (g *Log) Cursor() int { return g.cursor }

// Cap returns the retention bound.
func (g *Log) Cap() int { return g.cap }

// Version counts discards: redo-tail truncations and capacity
// evictions. The persistence collaborator compares it against its last
// synced value to decide between incremental and full resync.
func (g *Log) Version() uint64 { return g.version }

// Records returns the retained records oldest first for serialization.
// Callers must not mutate the slice.
func (g *Log) Records() []Record { return g.records }

// Restore replaces the log contents wholesale on project load.
func (g *Log) Restore(records []Record, cursor int, version uint64) {
	if cursor < -1 {
		cursor = -1
	}
	if cursor > len(records)-1 {
		cursor = len(records) - 1
	}
	g.records = records
	g.cursor = cursor
	g.version = version
	if len(g.records) > g.cap {
		over := len(g.records) - g.cap
		g.records = g.records[over:]
		if g.cursor >= over {
			g.cursor -= over
		} else {
			g.cursor = -1
		}
		g.version++
	}
}

// Clone copies the log for off-thread serialization. Records are
// immutable once appended, so the record slice is shallow-copied.
func (g *Log) Clone() *Log {
	out := &Log{cursor: g.cursor, cap: g.cap, version: g.version}
	out.records = make([]Record, len(g.records))
	copy(out.records, g.records)
	return out
}
