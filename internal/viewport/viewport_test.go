package viewport

import (
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tr := New()
	tr.Pan(37, -12)
	tr.SetZoom(2.5)

	p := Pt(123, 456)
	back := tr.ToScreen(tr.ToDocument(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Fatalf("round trip drifted: %+v -> %+v", p, back)
	}
}

func TestZoomClamped(t *testing.T) {
	tr := New()
	tr.SetZoom(100)
	if tr.Zoom != MaxZoom {
		t.Fatalf("expected clamp to %v, got %v", MaxZoom, tr.Zoom)
	}
	tr.SetZoom(0.001)
	if tr.Zoom != MinZoom {
		t.Fatalf("expected clamp to %v, got %v", MinZoom, tr.Zoom)
	}
}

func TestZoomAtKeepsCursorPointStationary(t *testing.T) {
	tr := New()
	tr.Pan(40, 25)
	tr.SetZoom(1.5)

	cursor := Pt(200, 150)
	before := tr.ToDocument(cursor)
	tr.ZoomAt(1.25, cursor)
	after := tr.ToDocument(cursor)

	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Fatalf("document point under cursor moved: %+v -> %+v", before, after)
	}
}

func TestZoomAtClampKeepsCursorPointStationary(t *testing.T) {
	tr := New()
	tr.SetZoom(8)
	cursor := Pt(10, 10)
	before := tr.ToDocument(cursor)
	tr.ZoomAt(4, cursor) // clamps at MaxZoom
	after := tr.ToDocument(cursor)
	if tr.Zoom != MaxZoom {
		t.Fatalf("expected clamped zoom, got %v", tr.Zoom)
	}
	if math.Abs(before.X-after.X) > 1e-9 {
		t.Fatalf("cursor point moved under clamped zoom: %+v -> %+v", before, after)
	}
}

func TestFitCentersDocument(t *testing.T) {
	tr := New()
	tr.Fit(1000, 800, 800, 600)

	wantZoom := math.Min(1000.0/800, 800.0/600) * 0.9
	if math.Abs(tr.Zoom-wantZoom) > 1e-9 {
		t.Fatalf("zoom %v, want %v", tr.Zoom, wantZoom)
	}
	// Document center should land on viewport center.
	c := tr.ToScreen(Pt(400, 300))
	if math.Abs(c.X-500) > 1e-6 || math.Abs(c.Y-400) > 1e-6 {
		t.Fatalf("document center at %+v, want (500,400)", c)
	}
}

func TestHandleDocSizeScalesInverseToZoom(t *testing.T) {
	tr := New()
	tr.SetZoom(4)
	if got := tr.HandleDocSize(8); got != 2 {
		t.Fatalf("expected 2 document units, got %v", got)
	}
	tr.SetZoom(0.5)
	if got := tr.HandleDocSize(8); got != 16 {
		t.Fatalf("expected 16 document units, got %v", got)
	}
}

func TestVersionAdvances(t *testing.T) {
	tr := New()
	v := tr.Version()
	tr.Pan(1, 1)
	if tr.Version() <= v {
		t.Fatal("pan should advance the version")
	}
	v = tr.Version()
	tr.ZoomCenter(2, 100, 100)
	if tr.Version() <= v {
		t.Fatal("zoom should advance the version")
	}
}
