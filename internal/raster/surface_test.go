package raster

import (
	"image"
	"image/color"
	"testing"

	xdraw "golang.org/x/image/draw"
)

func TestCopyRectOutsideBoundsStaysTransparent(t *testing.T) {
	s := New(10, 10)
	s.Fill(color.RGBA{R: 255, A: 255})

	out := s.CopyRect(image.Rect(5, 5, 15, 15))
	if out.Width() != 10 || out.Height() != 10 {
		t.Fatalf("unexpected copy size %dx%d", out.Width(), out.Height())
	}
	if got := out.At(0, 0); got.A != 255 {
		t.Fatalf("expected opaque pixel inside source area, got %+v", got)
	}
	if got := out.At(9, 9); got.A != 0 {
		t.Fatalf("expected transparent pixel outside source area, got %+v", got)
	}
}

func TestClearRectMakesPixelsTransparent(t *testing.T) {
	s := New(4, 4)
	s.Fill(color.RGBA{G: 255, A: 255})
	s.ClearRect(image.Rect(1, 1, 3, 3))

	if got := s.At(2, 2); got.A != 0 {
		t.Fatalf("expected cleared pixel, got %+v", got)
	}
	if got := s.At(0, 0); got.A != 255 {
		t.Fatalf("expected untouched pixel, got %+v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(3, 3)
	s.Set(1, 1, color.RGBA{B: 255, A: 255})
	c := s.Clone()
	s.Set(1, 1, color.RGBA{})

	if got := c.At(1, 1); got.B != 255 {
		t.Fatalf("clone mutated with original: %+v", got)
	}
	if !c.Equal(c.Clone()) {
		t.Fatal("clone should equal its own clone")
	}
	if s.Equal(c) {
		t.Fatal("diverged surfaces should not be equal")
	}
}

func TestResampleRoundTripFromOriginal(t *testing.T) {
	s := New(8, 8)
	s.Fill(color.RGBA{R: 200, G: 10, B: 10, A: 255})

	big := s.Resample(16, 16, xdraw.CatmullRom)
	if big.Width() != 16 || big.Height() != 16 {
		t.Fatalf("unexpected resample size %dx%d", big.Width(), big.Height())
	}
	// Resampling back to the source size must go through the original,
	// which for same-size input is a plain clone.
	same := s.Resample(8, 8, xdraw.CatmullRom)
	if !same.Equal(s) {
		t.Fatal("same-size resample must be bit-identical to the source")
	}
}

func TestCopyFromRejectsSizeMismatch(t *testing.T) {
	a := New(4, 4)
	b := New(5, 4)
	if a.CopyFrom(b) {
		t.Fatal("expected size mismatch to be rejected")
	}
	c := New(4, 4)
	c.Fill(color.RGBA{R: 9, A: 255})
	if !a.CopyFrom(c) {
		t.Fatal("expected same-size copy to succeed")
	}
	if !a.Equal(c) {
		t.Fatal("copy should produce identical pixels")
	}
}
