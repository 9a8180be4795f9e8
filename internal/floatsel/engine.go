// Package floatsel implements the floating selection: pixel content
// lifted off a layer (or placed from an outside image) that can be
// moved and resized before being merged back down.
package floatsel

import (
	"image"
	"log"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/raster"
)

const (
	// handleScreenPx is the hit box edge for a resize handle, in device
	// pixels. Converted to document units through the zoom so handles
	// feel the same at any magnification.
	handleScreenPx = 8

	// minScreenPx floors the float's width and height so a drag cannot
	// collapse it into a degenerate rect.
	minScreenPx = 8
)

// Rect is an axis-aligned rectangle in document coordinates. Float64
// keeps sub-pixel geometry stable across incremental drags.
type Rect struct {
	X, Y, W, H float64
}

// Bounds rounds the rect to whole pixels.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Handle identifies one of the 8 resize handles, clockwise from the
// top-left corner.
type Handle int

const (
	HandleNone Handle = iota
	HandleTL
	HandleT
	HandleTR
	HandleR
	HandleBR
	HandleB
	HandleBL
	HandleL
)

// DragKind classifies what a pointer press on the float starts.
type DragKind int

const (
	DragNone DragKind = iota
	DragMove
	DragResize
)

// selection is the state for one lifted selection. original is immutable after
// the lift; render is always re-derived from it, never from itself.
type selection struct {
	original *raster.Surface
	render   *raster.Surface
	rect     Rect
	layerID  document.LayerID
	before   *raster.Surface
}

// Engine is the floating selection state machine. It holds at most one
// float at a time; callers commit or discard before starting another.
type Engine struct {
	f *selection
}

// New returns an engine in the empty state.
func New() *Engine { return &Engine{} }

// Active reports whether a float exists.
func (e *Engine) Active() bool { return e.f != nil }

// Rect returns the float's current document rectangle.
func (e *Engine) Rect() (Rect, bool) {
	if e.f == nil {
		return Rect{}, false
	}
	return e.f.rect, true
}

// Render returns the float's current pixel buffer for overlay drawing.
func (e *Engine) Render() *raster.Surface {
	if e.f == nil {
		return nil
	}
	return e.f.render
}

// SourceLayer returns the layer the eventual commit targets.
func (e *Engine) SourceLayer() (document.LayerID, bool) {
	if e.f == nil {
		return 0, false
	}
	return e.f.layerID, true
}

// Lift copies the active layer's pixels inside r into a new float and
// clears that area on the layer. Degenerate rects are a silent no-op.
// A float must not already be active; commit triggers are the caller's
// responsibility.
func (e *Engine) Lift(doc *document.Document, r image.Rectangle) bool {
	if e.f != nil {
		log.Printf("floatsel: lift requested while a float is active")
		return false
	}
	l := doc.ActiveLayer()
	if l == nil {
		return false
	}
	r = r.Canon().Intersect(l.Surface.Bounds())
	if r.Empty() {
		return false
	}
	// The before snapshot is taken ahead of the clear so the commit's
	// draw record spans both the clear and the repaint.
	before := l.Surface.Clone()
	orig := l.Surface.CopyRect(r)
	l.Surface.ClearRect(r)
	doc.Bump()
	e.f = &selection{
		original: orig,
		render:   orig.Clone(),
		rect:     Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())},
		layerID:  l.ID,
		before:   before,
	}
	return true
}

// PlaceStamp starts a float from an outside image rendered at the given
// maximum dimension, centered on center. The source layer keeps its
// pixels; only the commit paints.
func (e *Engine) PlaceStamp(doc *document.Document, img image.Image, center image.Point, sizePx int) bool {
	if e.f != nil {
		log.Printf("floatsel: stamp requested while a float is active")
		return false
	}
	l := doc.ActiveLayer()
	if l == nil || img == nil || sizePx < 1 {
		return false
	}
	b := img.Bounds()
	if b.Empty() {
		return false
	}
	w, h := sizePx, sizePx
	if b.Dx() >= b.Dy() {
		h = sizePx * b.Dy() / b.Dx()
	} else {
		w = sizePx * b.Dx() / b.Dy()
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	orig := raster.FromImage(img).Resample(w, h, xdraw.CatmullRom)
	e.f = &selection{
		original: orig,
		render:   orig.Clone(),
		rect: Rect{
			X: float64(center.X) - float64(w)/2,
			Y: float64(center.Y) - float64(h)/2,
			W: float64(w),
			H: float64(h),
		},
		layerID: l.ID,
		before:  l.Surface.Clone(),
	}
	doc.Bump()
	return true
}

// Move translates the float. Pure translation never resamples.
func (e *Engine) Move(dx, dy float64) {
	if e.f == nil {
		return
	}
	e.f.rect.X += dx
	e.f.rect.Y += dy
}

// Commit paints the render buffer onto the source layer at the rect's
// rounded origin and returns the draw record covering the whole edit
// (lift clear plus repaint), or nil when nothing changed.
func (e *Engine) Commit(doc *document.Document) *history.Draw {
	f := e.f
	if f == nil {
		return nil
	}
	e.f = nil
	l := doc.LayerByID(f.layerID)
	if l == nil {
		log.Printf("floatsel: commit targets missing layer %d", f.layerID)
		return nil
	}
	origin := image.Pt(int(math.Round(f.rect.X)), int(math.Round(f.rect.Y)))
	l.Surface.DrawSurface(f.render, origin)
	doc.Bump()
	after := l.Surface.Clone()
	if after.Equal(f.before) {
		return nil
	}
	return &history.Draw{LayerID: f.layerID, Before: f.before, After: after}
}

// Discard drops the float without repainting. The lifted area stays
// cleared, and the returned record makes that deletion undoable.
func (e *Engine) Discard(doc *document.Document) *history.Draw {
	f := e.f
	if f == nil {
		return nil
	}
	e.f = nil
	l := doc.LayerByID(f.layerID)
	if l == nil {
		log.Printf("floatsel: discard targets missing layer %d", f.layerID)
		return nil
	}
	after := l.Surface.Clone()
	if after.Equal(f.before) {
		return nil
	}
	doc.Bump()
	return &history.Draw{LayerID: f.layerID, Before: f.before, After: after}
}
