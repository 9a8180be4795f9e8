// Package tool holds the pixel brushes. Every tool is a pure function
// from an input gesture to pixels on a surface; gesture lifecycle,
// snapshots and history live in the editor.
package tool

import (
	"image"
	"image/color"
	"math"

	"github.com/example/layerpaint/internal/raster"
)

// Options carries the per-gesture parameters shared by all tools.
type Options struct {
	Color     color.Color
	Width     int
	FillColor color.Color
	Stamp     image.Image
}

// Func applies a tool between two document points. Pen is called per
// drag segment; shape tools are called once with the anchor and the
// release point.
type Func func(dst *raster.Surface, from, to image.Point, opt Options)

// Pen draws a thick Bresenham segment from the previous drag point.
func Pen(dst *raster.Surface, from, to image.Point, opt Options) {
	drawLine(dst.RGBA(), from.X, from.Y, to.X, to.Y, opt.Color, opt.Width)
}

// Line draws a straight segment between anchor and release.
func Line(dst *raster.Surface, from, to image.Point, opt Options) {
	drawLine(dst.RGBA(), from.X, from.Y, to.X, to.Y, opt.Color, opt.Width)
}

// Rect outlines the rectangle spanned by the two points.
func Rect(dst *raster.Surface, from, to image.Point, opt Options) {
	r := image.Rectangle{Min: from, Max: to}.Canon()
	drawRect(dst.RGBA(), r, opt.Color, opt.Width)
}

// FilledRect fills the spanned rectangle, outlining it when a stroke
// color differs from the fill.
func FilledRect(dst *raster.Surface, from, to image.Point, opt Options) {
	r := image.Rectangle{Min: from, Max: to}.Canon()
	fill := opt.FillColor
	if fill == nil {
		fill = opt.Color
	}
	img := dst.RGBA()
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			if image.Pt(x, y).In(img.Bounds()) {
				img.Set(x, y, fill)
			}
		}
	}
	if opt.Color != nil && opt.Color != fill {
		drawRect(img, r, opt.Color, opt.Width)
	}
}

// Ellipse outlines the ellipse inscribed in the spanned rectangle.
func Ellipse(dst *raster.Surface, from, to image.Point, opt Options) {
	cx, cy, rx, ry := ellipseParams(from, to)
	drawEllipse(dst.RGBA(), cx, cy, rx, ry, opt.Color, opt.Width)
}

// FilledEllipse fills the ellipse inscribed in the spanned rectangle.
func FilledEllipse(dst *raster.Surface, from, to image.Point, opt Options) {
	cx, cy, rx, ry := ellipseParams(from, to)
	fill := opt.FillColor
	if fill == nil {
		fill = opt.Color
	}
	drawFilledEllipse(dst.RGBA(), cx, cy, rx, ry, fill)
}

// Fill flood-fills the region of matching color under the release
// point. The anchor is ignored.
func Fill(dst *raster.Surface, _, to image.Point, opt Options) {
	floodFill(dst.RGBA(), to, opt.Color)
}

// Stamp blits an outside image centered on the release point at its
// natural size. Resizable stamping goes through the float engine.
func Stamp(dst *raster.Surface, _, to image.Point, opt Options) {
	if opt.Stamp == nil {
		return
	}
	b := opt.Stamp.Bounds()
	origin := image.Pt(to.X-b.Dx()/2, to.Y-b.Dy()/2)
	dst.DrawImage(opt.Stamp, origin)
}

func ellipseParams(from, to image.Point) (cx, cy, rx, ry int) {
	r := image.Rectangle{Min: from, Max: to}.Canon()
	cx = (r.Min.X + r.Max.X) / 2
	cy = (r.Min.Y + r.Max.Y) / 2
	rx = r.Dx() / 2
	ry = r.Dy() / 2
	return
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, col, thick)
	drawLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, col, thick)
	drawLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, col, thick)
	drawLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, col, thick)
}

func drawEllipse(img *image.RGBA, cx, cy, rx, ry int, col color.Color, thick int) {
	steps := int(math.Ceil(2 * math.Pi * math.Sqrt(float64(rx*rx+ry*ry))))
	if steps < 8 {
		steps = 8
	}
	var prevX, prevY int
	for i := 0; i <= steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(math.Cos(angle)*float64(rx)))
		y := cy + int(math.Round(math.Sin(angle)*float64(ry)))
		if i > 0 {
			drawLine(img, prevX, prevY, x, y, col, thick)
		} else {
			setThickPixel(img, x, y, thick, col)
		}
		prevX, prevY = x, y
	}
}

func drawFilledEllipse(img *image.RGBA, cx, cy, rx, ry int, col color.Color) {
	if rx < 1 || ry < 1 {
		setThickPixel(img, cx, cy, 1, col)
		return
	}
	for dy := -ry; dy <= ry; dy++ {
		span := int(float64(rx) * math.Sqrt(1.0-float64(dy*dy)/float64(ry*ry)))
		for dx := -span; dx <= span; dx++ {
			px := cx + dx
			py := cy + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

// floodFill replaces the connected run of the seed's color using a
// scanline sweep. A seed already matching the fill color is a no-op.
func floodFill(img *image.RGBA, seed image.Point, col color.Color) {
	b := img.Bounds()
	if !seed.In(b) {
		return
	}
	target := img.RGBAAt(seed.X, seed.Y)
	r, g, bb, a := col.RGBA()
	repl := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bb >> 8), uint8(a >> 8)}
	if target == repl {
		return
	}
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if img.RGBAAt(p.X, p.Y) != target {
			continue
		}
		// Expand the scanline run containing p.
		x0 := p.X
		for x0 > b.Min.X && img.RGBAAt(x0-1, p.Y) == target {
			x0--
		}
		x1 := p.X
		for x1 < b.Max.X-1 && img.RGBAAt(x1+1, p.Y) == target {
			x1++
		}
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, p.Y, repl)
			if p.Y > b.Min.Y && img.RGBAAt(x, p.Y-1) == target {
				stack = append(stack, image.Pt(x, p.Y-1))
			}
			if p.Y < b.Max.Y-1 && img.RGBAAt(x, p.Y+1) == target {
				stack = append(stack, image.Pt(x, p.Y+1))
			}
		}
	}
}
