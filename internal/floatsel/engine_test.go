package floatsel

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
)

func redDoc(t *testing.T) *document.Document {
	t.Helper()
	doc := document.New(200, 200)
	l := doc.AddLayer("Paint")
	for y := 20; y < 70; y++ {
		for x := 20; x < 70; x++ {
			l.Surface.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return doc
}

func TestLiftClearsSourceArea(t *testing.T) {
	doc := redDoc(t)
	e := New()
	if !e.Lift(doc, image.Rect(20, 20, 70, 70)) {
		t.Fatal("lift failed")
	}
	l := doc.ActiveLayer()
	if got := l.Surface.At(30, 30); got.A != 0 {
		t.Fatalf("lifted area should be transparent, got %+v", got)
	}
	r, ok := e.Rect()
	if !ok || r.W != 50 || r.H != 50 || r.X != 20 || r.Y != 20 {
		t.Fatalf("unexpected float rect %+v", r)
	}
	if got := e.Render().At(10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("float render missing lifted pixels: %+v", got)
	}
}

func TestLiftDegenerateRectIsNoOp(t *testing.T) {
	doc := redDoc(t)
	e := New()
	if e.Lift(doc, image.Rect(30, 30, 30, 30)) {
		t.Fatal("zero-size lift should be ignored")
	}
	if e.Active() {
		t.Fatal("engine should stay empty")
	}
	if got := doc.ActiveLayer().Surface.At(30, 30); got.A != 255 {
		t.Fatalf("layer mutated by degenerate lift: %+v", got)
	}
}

func TestMoveThenCommitPaintsAtNewOrigin(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))
	e.Move(80, 0)

	rec := e.Commit(doc)
	if rec == nil {
		t.Fatal("expected a draw record")
	}
	l := doc.ActiveLayer()
	if got := l.Surface.At(120, 30); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("moved pixels missing: %+v", got)
	}
	if got := l.Surface.At(30, 30); got.A != 0 {
		t.Fatalf("source area should remain cleared: %+v", got)
	}
	if e.Active() {
		t.Fatal("commit should empty the engine")
	}
}

func TestResizeSouthEastDoubles(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	// Drag the BR handle to (120, 120): 100x100 anchored at (20, 20).
	e.Resize(HandleBR, 120, 120, 1)
	r, _ := e.Rect()
	if r.X != 20 || r.Y != 20 || r.W != 100 || r.H != 100 {
		t.Fatalf("unexpected rect after resize: %+v", r)
	}
	if e.Render().Width() != 100 || e.Render().Height() != 100 {
		t.Fatalf("render not resampled: %dx%d", e.Render().Width(), e.Render().Height())
	}

	rec := e.Commit(doc)
	if rec == nil {
		t.Fatal("expected a draw record")
	}
	l := doc.ActiveLayer()
	// Interior of the enlarged square is solid red.
	if got := l.Surface.At(60, 60); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("enlarged interior wrong: %+v", got)
	}
	if got := l.Surface.At(119, 119); got.A == 0 {
		t.Fatalf("enlarged square should reach (119,119)")
	}
}

func TestResizeBackToOriginalIsBitIdentical(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))
	original := e.Render().Clone()

	e.Resize(HandleBR, 140, 90, 1)
	e.Resize(HandleBR, 33, 41, 1)
	e.Resize(HandleBR, 70, 70, 1) // back to 50x50

	if !e.Render().Equal(original) {
		t.Fatal("render after round-trip resize must match the lifted originals")
	}
}

func TestCornerResizePreservesAspect(t *testing.T) {
	doc := document.New(200, 200)
	l := doc.AddLayer("Paint")
	l.Surface.Fill(color.RGBA{0, 255, 0, 255})
	e := New()
	e.Lift(doc, image.Rect(0, 0, 100, 50)) // 2:1

	// Width moves far more than height relative to the current size, so
	// it drives and height follows at the original ratio.
	e.Resize(HandleBR, 200, 60, 1)
	r, _ := e.Rect()
	if r.W != 200 || r.H != 100 {
		t.Fatalf("aspect not preserved: %+v", r)
	}
}

func TestEdgeResizeStretchesOneAxis(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	e.Resize(HandleR, 170, 999, 1)
	r, _ := e.Rect()
	if r.W != 150 || r.H != 50 || r.Y != 20 {
		t.Fatalf("edge resize touched the wrong axis: %+v", r)
	}
}

func TestResizePastAnchorFlips(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	// Drag the right edge 30px left of the left edge.
	e.Resize(HandleR, -10, 45, 1)
	r, _ := e.Rect()
	if r.W <= 0 || r.H <= 0 {
		t.Fatalf("negative dimensions survived: %+v", r)
	}
	if r.X != -10 || r.X+r.W != 20 {
		t.Fatalf("rect did not flip around the anchor: %+v", r)
	}
}

func TestResizeEnforcesMinimum(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	e.Resize(HandleBR, 21, 21, 1)
	r, _ := e.Rect()
	if r.W < 8 || r.H < 8 {
		t.Fatalf("minimum size floor not applied: %+v", r)
	}

	// At 4x zoom the floor shrinks in document units.
	e.Resize(HandleBR, 20.5, 20.5, 4)
	r, _ = e.Rect()
	if r.W < 2 || r.H < 2 {
		t.Fatalf("zoom-scaled floor not applied: %+v", r)
	}
}

func TestHitTestHandlesThenInsideThenOutside(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	if kind, h := e.HitTest(20, 20, 1); kind != DragResize || h != HandleTL {
		t.Fatalf("expected TL handle, got %v %v", kind, h)
	}
	if kind, h := e.HitTest(70, 45, 1); kind != DragResize || h != HandleR {
		t.Fatalf("expected R handle, got %v %v", kind, h)
	}
	if kind, _ := e.HitTest(45, 45, 1); kind != DragMove {
		t.Fatalf("expected move inside float, got %v", kind)
	}
	if kind, _ := e.HitTest(150, 150, 1); kind != DragNone {
		t.Fatalf("expected miss outside float, got %v", kind)
	}

	// Handle boxes shrink in document units as zoom grows: a point 3
	// document pixels off the corner hits at zoom 1 but misses at 8x.
	if kind, _ := e.HitTest(23, 20, 1); kind != DragResize {
		t.Fatal("expected near-corner hit at zoom 1")
	}
	if kind, _ := e.HitTest(23, 20, 8); kind == DragResize {
		t.Fatal("expected near-corner miss at zoom 8")
	}
}

func TestDiscardThenUndoRestoresLiftedPixels(t *testing.T) {
	doc := redDoc(t)
	g := history.NewLog(0)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))

	rec := e.Discard(doc)
	if rec == nil {
		t.Fatal("discard of a lifted area must produce a record")
	}
	g.Record(rec)

	l := doc.ActiveLayer()
	if got := l.Surface.At(30, 30); got.A != 0 {
		t.Fatalf("area should stay cleared after discard: %+v", got)
	}

	g.Undo(doc)
	if got := l.Surface.At(30, 30); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("undo failed to restore lifted pixels: %+v", got)
	}

	g.Redo(doc)
	if got := l.Surface.At(30, 30); got.A != 0 {
		t.Fatalf("redo should re-clear the area: %+v", got)
	}
}

func TestCommitWithoutChangeProducesNoRecord(t *testing.T) {
	doc := redDoc(t)
	e := New()
	e.Lift(doc, image.Rect(20, 20, 70, 70))
	// No move, no resize: committing repaints the identical pixels.
	if rec := e.Commit(doc); rec != nil {
		t.Fatal("no-op commit should not produce a history record")
	}
}

func TestPlaceStampCentersAndPreservesSource(t *testing.T) {
	doc := document.New(100, 100)
	stamp := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			stamp.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	e := New()
	if !e.PlaceStamp(doc, stamp, image.Pt(50, 50), 20) {
		t.Fatal("stamp placement failed")
	}
	r, _ := e.Rect()
	if r.W != 20 || r.H != 20 || r.X != 40 || r.Y != 40 {
		t.Fatalf("unexpected stamp rect %+v", r)
	}
	// The layer is untouched until commit.
	if got := doc.ActiveLayer().Surface.At(50, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("stamp placement mutated the layer early: %+v", got)
	}

	rec := e.Commit(doc)
	if rec == nil {
		t.Fatal("stamp commit should record")
	}
	if got := doc.ActiveLayer().Surface.At(50, 50); got.B != 255 {
		t.Fatalf("stamp not painted: %+v", got)
	}
}
