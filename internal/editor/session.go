// Package editor binds the document, history log, float engine,
// viewport and compositor into one synchronous editing session. Every
// pointer or command handler runs to completion before the next; the
// only asynchronous collaborator is persistence, which snapshots state
// before leaving this package's call stack.
package editor

import (
	"image"
	"image/color"
	"log"

	"github.com/example/layerpaint/internal/compose"
	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/floatsel"
	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/raster"
	"github.com/example/layerpaint/internal/theme"
	"github.com/example/layerpaint/internal/tool"
	"github.com/example/layerpaint/internal/viewport"
)

// ToolMode tells the gesture loop how a tool consumes pointer input.
type ToolMode int

const (
	// ToolContinuous is applied once per drag increment (pen).
	ToolContinuous ToolMode = iota
	// ToolShape is applied once on release with the press anchor.
	ToolShape
	// ToolInstant is applied once on press (fill, stamp).
	ToolInstant
	// ToolSelect drags out a rectangle that lifts a float on release.
	ToolSelect
)

// Listeners are the discrete change notifications published to the
// presentation layer. Nil fields are skipped.
type Listeners struct {
	HistoryChanged func(canUndo, canRedo bool)
	CompositeDone  func()
	LayersChanged  func()
}

// Session is the editing core. Not safe for concurrent use; the caller
// serializes input events.
type Session struct {
	doc   *document.Document
	log   *history.Log
	float *floatsel.Engine
	view  *viewport.Transform
	comp  *compose.Compositor

	toolFn   tool.Func
	toolMode ToolMode
	toolOpts tool.Options

	listeners Listeners

	// gesture state, valid between PointerDown and PointerUp
	gesture  ToolMode
	active   bool
	before   *raster.Surface
	anchor   image.Point
	last     image.Point
	dragKind floatsel.DragKind
	handle   floatsel.Handle
	grabX    float64
	grabY    float64
	selRect  image.Rectangle

	renderedDoc  uint64
	renderedView uint64
	rendered     bool
}

// Option configures a Session at construction.
type Option func(*Session)

// WithDocument seeds the session with a loaded document instead of a
// fresh one.
func WithDocument(doc *document.Document) Option {
	return func(s *Session) { s.doc = doc }
}

// WithHistory seeds the session with a restored history log.
func WithHistory(g *history.Log) Option { return func(s *Session) { s.log = g } }

// WithHistoryCap bounds the history log.
func WithHistoryCap(n int) Option { return func(s *Session) { s.log = history.NewLog(n) } }

// WithTheme sets the compositing palette.
func WithTheme(t *theme.Theme) Option { return func(s *Session) { s.comp = compose.New(t) } }

// WithListeners wires the presentation callbacks.
func WithListeners(l Listeners) Option { return func(s *Session) { s.listeners = l } }

// New creates a session over a fresh w by h document with one white
// background layer, unless options substitute loaded state.
func New(w, h int, opts ...Option) *Session {
	s := &Session{
		doc:      document.New(w, h),
		log:      history.NewLog(0),
		float:    floatsel.New(),
		view:     viewport.New(),
		comp:     compose.New(nil),
		toolFn:   tool.Pen,
		toolMode: ToolContinuous,
		toolOpts: tool.Options{Color: color.Black, Width: 3},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document exposes the layer stack for read-only inspection.
func (s *Session) Document() *document.Document { return s.doc }

// SetListeners replaces the change callbacks; a window attaches its
// redraw and autosave hooks here once it exists.
func (s *Session) SetListeners(l Listeners) { s.listeners = l }

// History exposes the log for persistence and inspection.
func (s *Session) History() *history.Log { return s.log }

// Viewport exposes the pan/zoom transform.
func (s *Session) Viewport() *viewport.Transform { return s.view }

// Float exposes the floating-selection engine for overlay drawing.
func (s *Session) Float() *floatsel.Engine { return s.float }

// ToolOptions returns the shared brush parameters.
func (s *Session) ToolOptions() tool.Options { return s.toolOpts }

// SetToolOptions replaces the shared brush parameters.
func (s *Session) SetToolOptions(opt tool.Options) { s.toolOpts = opt }

// SetTool switches the active tool, committing any outstanding float
// so in-progress work is preserved.
func (s *Session) SetTool(fn tool.Func, mode ToolMode) {
	s.CommitFloat()
	s.toolFn = fn
	s.toolMode = mode
}

// PointerDown begins a gesture at a screen point. The float engine has
// first claim: a press on a handle starts a resize, inside the rect a
// move, and anywhere else commits the float before the tool runs.
func (s *Session) PointerDown(screen viewport.Point) {
	p := s.view.ToDocument(screen)

	if s.float.Active() {
		kind, h := s.float.HitTest(p.X, p.Y, s.view.Zoom)
		if kind != floatsel.DragNone {
			r, _ := s.float.Rect()
			s.dragKind = kind
			s.handle = h
			s.grabX = p.X - r.X
			s.grabY = p.Y - r.Y
			s.active = true
			return
		}
		s.CommitFloat()
	}

	s.active = true
	s.dragKind = floatsel.DragNone
	s.gesture = s.toolMode
	s.anchor = image.Pt(int(p.X), int(p.Y))
	s.last = s.anchor

	switch s.toolMode {
	case ToolSelect:
		s.selRect = image.Rectangle{Min: s.anchor, Max: s.anchor}
	case ToolInstant:
		l := s.doc.ActiveLayer()
		if l == nil {
			log.Printf("editor: pointer down with no active layer")
			s.active = false
			return
		}
		s.before = l.Surface.Clone()
		s.toolFn(l.Surface, s.anchor, s.anchor, s.toolOpts)
		s.finishDraw(l)
		s.active = false
	case ToolContinuous:
		l := s.doc.ActiveLayer()
		if l == nil {
			log.Printf("editor: pointer down with no active layer")
			s.active = false
			return
		}
		s.before = l.Surface.Clone()
		s.toolFn(l.Surface, s.anchor, s.anchor, s.toolOpts)
		s.doc.Bump()
	default: // ToolShape
		l := s.doc.ActiveLayer()
		if l == nil {
			log.Printf("editor: pointer down with no active layer")
			s.active = false
			return
		}
		s.before = l.Surface.Clone()
	}
}

// PointerDrag extends the gesture to a new screen point.
func (s *Session) PointerDrag(screen viewport.Point) {
	if !s.active {
		return
	}
	p := s.view.ToDocument(screen)

	if s.dragKind == floatsel.DragMove {
		r, ok := s.float.Rect()
		if !ok {
			s.active = false
			return
		}
		s.float.Move(p.X-s.grabX-r.X, p.Y-s.grabY-r.Y)
		s.doc.Bump()
		return
	}
	if s.dragKind == floatsel.DragResize {
		s.float.Resize(s.handle, p.X, p.Y, s.view.Zoom)
		s.doc.Bump()
		return
	}

	pt := image.Pt(int(p.X), int(p.Y))
	switch s.gesture {
	case ToolContinuous:
		l := s.doc.ActiveLayer()
		if l == nil {
			return
		}
		s.toolFn(l.Surface, s.last, pt, s.toolOpts)
		s.last = pt
		s.doc.Bump()
	case ToolSelect:
		s.selRect = image.Rectangle{Min: s.anchor, Max: pt}.Canon()
	case ToolShape:
		s.last = pt
	}
}

// PointerUp finalizes the gesture.
func (s *Session) PointerUp(screen viewport.Point) {
	if !s.active {
		return
	}
	s.active = false
	p := s.view.ToDocument(screen)

	if s.dragKind != floatsel.DragNone {
		// Releasing a float drag keeps the final geometry.
		s.dragKind = floatsel.DragNone
		return
	}

	pt := image.Pt(int(p.X), int(p.Y))
	switch s.gesture {
	case ToolContinuous:
		l := s.doc.ActiveLayer()
		if l == nil {
			return
		}
		s.toolFn(l.Surface, s.last, pt, s.toolOpts)
		s.finishDraw(l)
	case ToolShape:
		l := s.doc.ActiveLayer()
		if l == nil {
			return
		}
		s.toolFn(l.Surface, s.anchor, pt, s.toolOpts)
		s.finishDraw(l)
	case ToolSelect:
		r := image.Rectangle{Min: s.anchor, Max: pt}.Canon()
		s.selRect = image.Rectangle{}
		s.Lift(r)
	}
}

// finishDraw closes a tool gesture: if pixels changed, record the
// whole-surface before/after pair, otherwise drop the snapshot.
func (s *Session) finishDraw(l *document.Layer) {
	after := l.Surface.Clone()
	if after.Equal(s.before) {
		s.before = nil
		return
	}
	s.log.Record(&history.Draw{LayerID: l.ID, Before: s.before, After: after})
	s.before = nil
	s.doc.Bump()
	s.notifyHistory()
}

// Lift starts a floating selection from the active layer. Any prior
// float is committed first.
func (s *Session) Lift(r image.Rectangle) bool {
	s.CommitFloat()
	return s.float.Lift(s.doc, r)
}

// PasteStamp floats an outside image centered in the current view,
// sized to sizePx on its longer edge.
func (s *Session) PasteStamp(img image.Image, center image.Point, sizePx int) bool {
	s.CommitFloat()
	return s.float.PlaceStamp(s.doc, img, center, sizePx)
}

// CommitFloat merges any outstanding float into its layer and records
// the edit. Safe to call when no float is active.
func (s *Session) CommitFloat() {
	if !s.float.Active() {
		return
	}
	if rec := s.float.Commit(s.doc); rec != nil {
		s.log.Record(rec)
		s.notifyHistory()
	}
}

// DiscardFloat drops the outstanding float, leaving the lifted area
// cleared; the recorded edit makes the deletion undoable.
func (s *Session) DiscardFloat() {
	if !s.float.Active() {
		return
	}
	if rec := s.float.Discard(s.doc); rec != nil {
		s.log.Record(rec)
		s.notifyHistory()
	}
}

// Undo steps the history back one record. An outstanding float commits
// first so the log never runs against a document with floating pixels.
func (s *Session) Undo() history.Change {
	s.CommitFloat()
	ch := s.log.Undo(s.doc)
	s.applyChange(ch)
	return ch
}

// Redo steps the history forward one record.
func (s *Session) Redo() history.Change {
	s.CommitFloat()
	ch := s.log.Redo(s.doc)
	s.applyChange(ch)
	return ch
}

func (s *Session) applyChange(ch history.Change) {
	if ch.Kind == history.ChangeNone {
		return
	}
	if ch.LayerID != 0 && s.doc.LayerByID(ch.LayerID) != nil {
		if err := s.doc.SetActive(ch.LayerID); err != nil {
			log.Printf("editor: activate after history step: %v", err)
		}
	}
	s.doc.Bump()
	s.notifyHistory()
	s.notifyLayers()
}

// AddLayer appends a blank layer above the stack and activates it.
func (s *Session) AddLayer(name string) *document.Layer {
	s.CommitFloat()
	l := s.doc.AddLayer(name)
	s.log.Record(&history.AddLayer{Snap: l.Snapshot(), Index: s.doc.Index(l.ID)})
	s.notifyHistory()
	s.notifyLayers()
	return l
}

// RemoveLayer deletes a layer, rejecting removal of the last one.
func (s *Session) RemoveLayer(id document.LayerID) error {
	s.CommitFloat()
	snap, idx, err := s.doc.RemoveLayer(id)
	if err != nil {
		return err
	}
	s.log.Record(&history.RemoveLayer{Snap: snap, Index: idx})
	s.notifyHistory()
	s.notifyLayers()
	return nil
}

// Reorder moves the layer at index from to index to.
func (s *Session) Reorder(from, to int) error {
	if err := s.doc.Reorder(from, to); err != nil {
		return err
	}
	s.log.Record(&history.Reorder{From: from, To: to})
	s.notifyHistory()
	s.notifyLayers()
	return nil
}

// SetVisible toggles a layer's visibility.
func (s *Session) SetVisible(id document.LayerID, visible bool) error {
	l := s.doc.LayerByID(id)
	if l == nil {
		return document.ErrNoLayer
	}
	prev := l.Visible
	if prev == visible {
		return nil
	}
	if err := s.doc.SetVisible(id, visible); err != nil {
		return err
	}
	s.log.Record(&history.Visibility{LayerID: id, Before: prev, After: visible})
	s.notifyHistory()
	s.notifyLayers()
	return nil
}

// SetOpacity changes a layer's opacity, clamped to [0,1].
func (s *Session) SetOpacity(id document.LayerID, opacity float64) error {
	l := s.doc.LayerByID(id)
	if l == nil {
		return document.ErrNoLayer
	}
	prev := l.Opacity
	if err := s.doc.SetOpacity(id, opacity); err != nil {
		return err
	}
	if l.Opacity == prev {
		return nil
	}
	s.log.Record(&history.Opacity{LayerID: id, Before: prev, After: l.Opacity})
	s.notifyHistory()
	s.notifyLayers()
	return nil
}

// RenameLayer changes a layer's user-facing name.
func (s *Session) RenameLayer(id document.LayerID, name string) error {
	l := s.doc.LayerByID(id)
	if l == nil {
		return document.ErrNoLayer
	}
	prev := l.Name
	if prev == name {
		return nil
	}
	if err := s.doc.Rename(id, name); err != nil {
		return err
	}
	s.log.Record(&history.Rename{LayerID: id, Before: prev, After: name})
	s.notifyHistory()
	s.notifyLayers()
	return nil
}

// SetActiveLayer switches the editing target, committing any float.
func (s *Session) SetActiveLayer(id document.LayerID) error {
	if id == s.doc.ActiveID() {
		return nil
	}
	s.CommitFloat()
	if err := s.doc.SetActive(id); err != nil {
		return err
	}
	s.notifyLayers()
	return nil
}

// Render composites into dst when the document, float or viewport
// changed since the previous call. Returns true when it repainted.
func (s *Session) Render(dst *image.RGBA) bool {
	if s.rendered && s.doc.Version() == s.renderedDoc && s.view.Version() == s.renderedView {
		return false
	}
	s.comp.Composite(s.doc, s.view, dst)
	if s.float.Active() {
		if r, ok := s.float.Rect(); ok {
			s.comp.Overlay(dst, s.view, s.float.Render(), viewport.Pt(r.X, r.Y))
		}
	}
	s.renderedDoc = s.doc.Version()
	s.renderedView = s.view.Version()
	s.rendered = true
	s.notifyComposite()
	return true
}

// Export flattens the document at full resolution, committing any
// outstanding float first so exported pixels match what commit would
// produce.
func (s *Session) Export() *image.RGBA {
	s.CommitFloat()
	return s.comp.Flatten(s.doc)
}

// SelectionRect reports the in-progress selection drag for overlay
// drawing; the zero rectangle means no drag is active.
func (s *Session) SelectionRect() image.Rectangle { return s.selRect }

// Compositor exposes the palette owner for theme switching.
func (s *Session) Compositor() *compose.Compositor { return s.comp }

func (s *Session) notifyHistory() {
	if s.listeners.HistoryChanged != nil {
		s.listeners.HistoryChanged(s.log.CanUndo(), s.log.CanRedo())
	}
}

func (s *Session) notifyComposite() {
	if s.listeners.CompositeDone != nil {
		s.listeners.CompositeDone()
	}
}

func (s *Session) notifyLayers() {
	if s.listeners.LayersChanged != nil {
		s.listeners.LayersChanged()
	}
}
