// Package raster provides the fixed-size RGBA pixel surface every layer
// and floating buffer is built on. Surfaces own their pixels; callers
// outside the core packages only ever see copies.
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Surface is a width×height RGBA pixel grid. Its dimensions are fixed for
// its lifetime; resizing produces a new Surface via Resample.
type Surface struct {
	w, h int
	img  *image.RGBA
}

// New returns a fully transparent surface of the given size.
func New(w, h int) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Surface{w: w, h: h, img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// FromImage copies src into a new surface of the same size.
func FromImage(src image.Image) *Surface {
	b := src.Bounds()
	s := New(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
	return s
}

// Width reports the surface width in pixels.
func (s *Surface) Width() int { return s.w }

// Height reports the surface height in pixels.
func (s *Surface) Height() int { return s.h }

// Bounds returns the zero-based pixel rectangle.
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// RGBA exposes the backing image for in-package and sibling-package
// drawing. It must not leave the internal tree.
func (s *Surface) RGBA() *image.RGBA { return s.img }

// Image returns an independent copy for external consumers.
func (s *Surface) Image() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Clone returns a deep copy of the surface.
func (s *Surface) Clone() *Surface {
	c := New(s.w, s.h)
	copy(c.img.Pix, s.img.Pix)
	return c
}

// Fill paints the entire surface with col.
func (s *Surface) Fill(col color.Color) {
	draw.Draw(s.img, s.img.Bounds(), &image.Uniform{col}, image.Point{}, draw.Src)
}

// Set writes a single pixel, ignoring out-of-bounds coordinates.
func (s *Surface) Set(x, y int, col color.Color) {
	if image.Pt(x, y).In(s.img.Bounds()) {
		s.img.Set(x, y, col)
	}
}

// At reads a single pixel. Out-of-bounds reads are transparent.
func (s *Surface) At(x, y int) color.RGBA {
	if !image.Pt(x, y).In(s.img.Bounds()) {
		return color.RGBA{}
	}
	return s.img.RGBAAt(x, y)
}

// CopyRect returns the pixels inside r as a new surface. Areas of r
// outside the surface are left transparent.
func (s *Surface) CopyRect(r image.Rectangle) *Surface {
	r = r.Canon()
	out := New(r.Dx(), r.Dy())
	src := r.Intersect(s.img.Bounds())
	if !src.Empty() {
		draw.Draw(out.img, src.Sub(r.Min), s.img, src.Min, draw.Src)
	}
	return out
}

// ClearRect makes every pixel inside r fully transparent.
func (s *Surface) ClearRect(r image.Rectangle) {
	r = r.Canon().Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.Transparent, image.Point{}, draw.Src)
}

// DrawSurface blends src onto s with its top-left corner at pt using
// over compositing.
func (s *Surface) DrawSurface(src *Surface, pt image.Point) {
	dst := src.Bounds().Add(pt)
	draw.Draw(s.img, dst, src.img, image.Point{}, draw.Over)
}

// DrawImage blends an arbitrary image onto s at pt.
func (s *Surface) DrawImage(src image.Image, pt image.Point) {
	b := src.Bounds()
	draw.Draw(s.img, image.Rect(pt.X, pt.Y, pt.X+b.Dx(), pt.Y+b.Dy()), src, b.Min, draw.Over)
}

// CopyFrom overwrites this surface's pixels with src, which must have
// the same dimensions. It reports whether the copy happened.
func (s *Surface) CopyFrom(src *Surface) bool {
	if src == nil || src.w != s.w || src.h != s.h {
		return false
	}
	copy(s.img.Pix, src.img.Pix)
	return true
}

// Resample returns the surface scaled to w×h with the given kernel.
// It always reads from s, so repeated calls do not compound loss.
func (s *Surface) Resample(w, h int, kernel xdraw.Scaler) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == s.w && h == s.h {
		return s.Clone()
	}
	out := New(w, h)
	kernel.Scale(out.img, out.img.Bounds(), s.img, s.img.Bounds(), draw.Src, nil)
	return out
}

// Equal reports whether two surfaces hold bit-identical pixels.
func (s *Surface) Equal(o *Surface) bool {
	if o == nil || s.w != o.w || s.h != o.h {
		return false
	}
	return bytes.Equal(s.img.Pix, o.img.Pix)
}
