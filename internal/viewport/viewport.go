// Package viewport maps between device (screen) coordinates and
// document pixel coordinates through a pan offset and zoom factor.
package viewport

// Zoom limits. Anything outside this range is clamped.
const (
	MinZoom = 0.1
	MaxZoom = 10
)

// Point is a coordinate in either space, kept in float64 so sub-pixel
// positions survive round trips at high zoom.
type Point struct {
	X, Y float64
}

// Pt is shorthand for building a Point.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Transform is the pan+zoom mapping. The zero value is not useful; use
// New.
type Transform struct {
	PanX, PanY float64
	Zoom       float64
	version    uint64
}

// New returns an identity transform.
func New() *Transform {
	return &Transform{Zoom: 1, version: 1}
}

// Version advances with every pan or zoom change so the render loop can
// recomposite exactly once per change.
func (t *Transform) Version() uint64 { return t.version }

// ToDocument converts a screen point to document coordinates.
func (t *Transform) ToDocument(p Point) Point {
	return Point{X: (p.X - t.PanX) / t.Zoom, Y: (p.Y - t.PanY) / t.Zoom}
}

// ToScreen converts a document point to screen coordinates.
func (t *Transform) ToScreen(p Point) Point {
	return Point{X: p.X*t.Zoom + t.PanX, Y: p.Y*t.Zoom + t.PanY}
}

// Pan shifts the view by a screen-space delta.
func (t *Transform) Pan(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
	t.version++
}

// SetZoom sets the zoom factor directly, clamped to [MinZoom, MaxZoom].
func (t *Transform) SetZoom(z float64) {
	t.Zoom = clampZoom(z)
	t.version++
}

// ZoomAt multiplies the zoom by factor while keeping the document point
// under the given screen cursor stationary.
func (t *Transform) ZoomAt(factor float64, cursor Point) {
	doc := t.ToDocument(cursor)
	t.Zoom = clampZoom(t.Zoom * factor)
	t.PanX = cursor.X - doc.X*t.Zoom
	t.PanY = cursor.Y - doc.Y*t.Zoom
	t.version++
}

// ZoomCenter multiplies the zoom around the center of a viewport of the
// given size.
func (t *Transform) ZoomCenter(factor float64, viewW, viewH int) {
	t.ZoomAt(factor, Point{X: float64(viewW) / 2, Y: float64(viewH) / 2})
}

// Fit chooses a zoom that shows the whole document inside the viewport
// with a small margin, then centers it.
func (t *Transform) Fit(viewW, viewH, docW, docH int) {
	if docW < 1 || docH < 1 || viewW < 1 || viewH < 1 {
		return
	}
	zx := float64(viewW) / float64(docW)
	zy := float64(viewH) / float64(docH)
	z := zx
	if zy < z {
		z = zy
	}
	t.Zoom = clampZoom(z * 0.9)
	t.PanX = (float64(viewW) - float64(docW)*t.Zoom) / 2
	t.PanY = (float64(viewH) - float64(docH)*t.Zoom) / 2
	t.version++
}

// HandleDocSize converts a constant on-screen pixel size into document
// units at the current zoom, so selection handles stay the same visual
// size regardless of magnification.
func (t *Transform) HandleDocSize(screenPx float64) float64 {
	return screenPx / t.Zoom
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
