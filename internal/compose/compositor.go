// Package compose merges the layer stack into a single visible raster.
// It is read-only over the document: compositing twice with unchanged
// inputs yields identical output.
package compose

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/raster"
	"github.com/example/layerpaint/internal/theme"
	"github.com/example/layerpaint/internal/viewport"
)

const checkerSize = 8

// Compositor paints documents through a viewport onto caller-provided
// RGBA buffers. It caches the checkerboard backdrop between frames.
type Compositor struct {
	theme        *theme.Theme
	checkerCache *image.RGBA
}

// New creates a compositor using the given theme, or the default theme
// when nil.
func New(t *theme.Theme) *Compositor {
	if t == nil {
		t = theme.Default()
	}
	return &Compositor{theme: t}
}

// SetTheme swaps the palette and invalidates the backdrop cache.
func (c *Compositor) SetTheme(t *theme.Theme) {
	if t == nil {
		return
	}
	c.theme = t
	c.checkerCache = nil
}

// Theme returns the active palette.
func (c *Compositor) Theme() *theme.Theme { return c.theme }

// Composite renders doc through view into dst: background fill, a
// transparency checkerboard clipped to the document's screen rectangle,
// then every visible layer bottom to top with its opacity applied as a
// uniform multiplier on source alpha.
func (c *Compositor) Composite(doc *document.Document, view *viewport.Transform, dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{c.theme.Background}, image.Point{}, draw.Src)

	docRect := c.screenRect(doc, view).Intersect(dst.Bounds())
	if docRect.Empty() {
		return
	}
	c.drawChecker(dst, docRect)

	scaler := scalerFor(view.Zoom)
	target := c.screenRect(doc, view)
	for _, l := range doc.Layers() {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		src := l.Surface.RGBA()
		opts := &xdraw.Options{}
		if l.Opacity < 1 {
			opts.SrcMask = image.NewUniform(color.Alpha{A: uint8(l.Opacity*255 + 0.5)})
		}
		scaler.Scale(dst, target, src, src.Bounds(), draw.Over, opts)
	}
}

// Overlay paints an extra raster (the floating selection's render
// buffer) on top of a finished composite. pos and the raster's size are
// document units; the blit is scaled through the same kernel as the
// layers so the float previews exactly as it will commit.
func (c *Compositor) Overlay(dst *image.RGBA, view *viewport.Transform, src *raster.Surface, pos viewport.Point) {
	if src == nil {
		return
	}
	min := view.ToScreen(pos)
	max := view.ToScreen(viewport.Pt(pos.X+float64(src.Width()), pos.Y+float64(src.Height())))
	target := image.Rect(
		int(math.Floor(min.X)), int(math.Floor(min.Y)),
		int(math.Ceil(max.X)), int(math.Ceil(max.Y)),
	)
	img := src.RGBA()
	scalerFor(view.Zoom).Scale(dst, target, img, img.Bounds(), draw.Over, nil)
}

// Flatten composites doc at document resolution with no transparency
// indicator, for export and clipboard use.
func (c *Compositor) Flatten(doc *document.Document) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, doc.W, doc.H))
	for _, l := range doc.Layers() {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		src := l.Surface.RGBA()
		if l.Opacity >= 1 {
			draw.Draw(out, out.Bounds(), src, image.Point{}, draw.Over)
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(l.Opacity*255 + 0.5)})
		draw.DrawMask(out, out.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	}
	return out
}

// screenRect is the document's bounding rectangle in screen pixels.
func (c *Compositor) screenRect(doc *document.Document, view *viewport.Transform) image.Rectangle {
	min := view.ToScreen(viewport.Pt(0, 0))
	max := view.ToScreen(viewport.Pt(float64(doc.W), float64(doc.H)))
	return image.Rect(
		int(math.Floor(min.X)), int(math.Floor(min.Y)),
		int(math.Ceil(max.X)), int(math.Ceil(max.Y)),
	)
}

// drawChecker fills rect with the cached transparency pattern. The
// cache is rebuilt when the destination geometry changes.
func (c *Compositor) drawChecker(dst *image.RGBA, rect image.Rectangle) {
	if c.checkerCache == nil || !c.checkerCache.Bounds().Eq(rect) {
		c.checkerCache = image.NewRGBA(rect)
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				if ((x/checkerSize)+(y/checkerSize))%2 == 0 {
					c.checkerCache.SetRGBA(x, y, c.theme.CheckerLight)
				} else {
					c.checkerCache.SetRGBA(x, y, c.theme.CheckerDark)
				}
			}
		}
	}
	draw.Draw(dst, rect, c.checkerCache, rect.Min, draw.Src)
}

// scalerFor picks the resampling kernel for the zoomed blit: crisp
// nearest-neighbor when magnifying, bilinear when shrinking.
func scalerFor(zoom float64) xdraw.Scaler {
	if zoom >= 1 {
		return xdraw.NearestNeighbor
	}
	return xdraw.ApproxBiLinear
}
