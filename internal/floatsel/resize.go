package floatsel

import (
	"math"

	xdraw "golang.org/x/image/draw"
)

// HitTest decides what a pointer press at document point (x,y) starts:
// a resize when it lands on a handle's hit box, a move when it lands
// inside the float, nothing otherwise. zoom converts the fixed on-screen
// handle size into document units.
func (e *Engine) HitTest(x, y, zoom float64) (DragKind, Handle) {
	if e.f == nil {
		return DragNone, HandleNone
	}
	half := handleScreenPx / zoom / 2
	for i, p := range e.Handles() {
		if x >= p.X-half && x <= p.X+half && y >= p.Y-half && y <= p.Y+half {
			return DragResize, Handle(i + 1)
		}
	}
	if e.f.rect.contains(x, y) {
		return DragMove, HandleNone
	}
	return DragNone, HandleNone
}

// HandlePoint is a handle center position in document coordinates.
type HandlePoint struct {
	X, Y float64
}

// Handles returns the 8 handle centers in HandleTL..HandleL order:
// corners and edge midpoints.
func (e *Engine) Handles() [8]HandlePoint {
	var out [8]HandlePoint
	if e.f == nil {
		return out
	}
	r := e.f.rect
	cx := r.X + r.W/2
	cy := r.Y + r.H/2
	out = [8]HandlePoint{
		{r.X, r.Y},             // tl
		{cx, r.Y},              // t
		{r.X + r.W, r.Y},       // tr
		{r.X + r.W, cy},        // r
		{r.X + r.W, r.Y + r.H}, // br
		{cx, r.Y + r.H},        // b
		{r.X, r.Y + r.H},       // bl
		{r.X, cy},              // l
	}
	return out
}

// Resize recomputes the float's rect from a handle drag to the document
// point (x,y). Edge handles stretch a single axis; corner handles keep
// the original aspect ratio, driven by whichever axis moved more
// relative to the current size, and stay anchored at the opposite
// corner. Dragging past the anchor flips the rect instead of producing
// negative dimensions. The render buffer is resampled fresh from the
// lifted originals on every call.
func (e *Engine) Resize(h Handle, x, y, zoom float64) {
	f := e.f
	if f == nil || h == HandleNone {
		return
	}
	min := minScreenPx / zoom
	if min < 1 {
		min = 1
	}

	r := f.rect
	left, top := r.X, r.Y
	right, bottom := r.X+r.W, r.Y+r.H

	switch h {
	case HandleT:
		top = bottom - clampExtent(bottom-y, min)
	case HandleB:
		bottom = top + clampExtent(y-top, min)
	case HandleL:
		left = right - clampExtent(right-x, min)
	case HandleR:
		right = left + clampExtent(x-left, min)
	case HandleTL, HandleTR, HandleBR, HandleBL:
		var ax, ay float64
		switch h {
		case HandleTL:
			ax, ay = right, bottom
		case HandleTR:
			ax, ay = left, bottom
		case HandleBR:
			ax, ay = left, top
		case HandleBL:
			ax, ay = right, top
		}
		w := x - ax
		hh := y - ay
		aspect := float64(f.original.Width()) / float64(f.original.Height())
		relW := math.Abs(math.Abs(w)-r.W) / r.W
		relH := math.Abs(math.Abs(hh)-r.H) / r.H
		if relW >= relH {
			hh = math.Copysign(math.Abs(w)/aspect, signOr1(hh))
		} else {
			w = math.Copysign(math.Abs(hh)*aspect, signOr1(w))
		}
		w = clampExtent(w, min)
		hh = clampExtent(hh, min)
		left, right = ax, ax+w
		top, bottom = ay, ay+hh
	}

	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	f.rect = Rect{X: left, Y: top, W: right - left, H: bottom - top}
	f.rerender()
}

// rerender derives the render buffer at the rect's current pixel size.
// Always sourced from the originals so repeated resizes cannot compound
// resampling loss.
func (f *selection) rerender() {
	w := int(math.Round(f.rect.W))
	h := int(math.Round(f.rect.H))
	f.render = f.original.Resample(w, h, xdraw.CatmullRom)
}

// clampExtent enforces the minimum size while preserving the drag
// direction; a zero extent counts as positive.
func clampExtent(v, min float64) float64 {
	if math.Abs(v) < min {
		return math.Copysign(min, signOr1(v))
	}
	return v
}

func signOr1(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
