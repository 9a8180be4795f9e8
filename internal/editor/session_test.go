package editor

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/layerpaint/internal/floatsel"
	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/tool"
	"github.com/example/layerpaint/internal/viewport"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
)

func stroke(s *Session, from, to viewport.Point) {
	s.PointerDown(from)
	s.PointerDrag(to)
	s.PointerUp(to)
}

func TestStrokeAddLayerVisibilityThenTripleUndo(t *testing.T) {
	s := New(800, 600)

	stroke(s, viewport.Pt(100, 100), viewport.Pt(300, 100))
	bg := s.Document().ActiveLayer()
	if got := bg.Surface.At(200, 100); got != black {
		t.Fatalf("stroke not painted: %+v", got)
	}

	top := s.AddLayer("Layer 2")
	if s.Document().Count() != 2 {
		t.Fatalf("expected 2 layers, got %d", s.Document().Count())
	}
	if s.Document().ActiveID() != top.ID {
		t.Fatal("new layer should become active")
	}

	if err := s.SetVisible(top.ID, false); err != nil {
		t.Fatal(err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))
	s.Render(dst)
	if got := dst.RGBAAt(200, 100); got != black {
		t.Fatalf("composite should show the stroke through the hidden layer: %+v", got)
	}
	if got := dst.RGBAAt(10, 10); got != white {
		t.Fatalf("composite background should be white: %+v", got)
	}

	s.Undo() // visibility
	s.Undo() // add layer
	s.Undo() // stroke

	if s.Document().Count() != 1 {
		t.Fatalf("expected 1 layer after undo, got %d", s.Document().Count())
	}
	if got := s.Document().ActiveLayer().Surface.At(200, 100); got != white {
		t.Fatalf("stroke should be undone: %+v", got)
	}
	if s.History().CanUndo() {
		t.Fatal("history should be exhausted")
	}
	if !s.History().CanRedo() {
		t.Fatal("redo tail should be intact")
	}
}

func TestNoOpStrokeRecordsNothing(t *testing.T) {
	s := New(100, 100)
	s.SetToolOptions(tool.Options{Color: white, Width: 1}) // white on white
	stroke(s, viewport.Pt(10, 10), viewport.Pt(50, 50))
	if s.History().CanUndo() {
		t.Fatal("painting existing pixels must not record history")
	}
}

func TestPointerRoutesThroughViewport(t *testing.T) {
	s := New(200, 200)
	s.Viewport().SetZoom(2)
	s.Viewport().Pan(-100, -100)

	// Screen (100, 100) maps to document (100, 100).
	stroke(s, viewport.Pt(100, 100), viewport.Pt(100, 100))
	if got := s.Document().ActiveLayer().Surface.At(100, 100); got != black {
		t.Fatalf("stroke landed at the wrong document point: %+v", got)
	}
}

func TestShapeToolAppliesOnceOnRelease(t *testing.T) {
	s := New(100, 100)
	s.SetTool(tool.Rect, ToolShape)
	s.PointerDown(viewport.Pt(10, 10))
	s.PointerDrag(viewport.Pt(30, 30))
	if got := s.Document().ActiveLayer().Surface.At(10, 20); got != white {
		t.Fatal("shape tools must not paint before release")
	}
	s.PointerUp(viewport.Pt(50, 50))
	if got := s.Document().ActiveLayer().Surface.At(10, 30); got != black {
		t.Fatalf("rect outline missing after release: %+v", got)
	}
	if !s.History().CanUndo() {
		t.Fatal("shape release should record")
	}
}

func TestSelectToolLiftsOnRelease(t *testing.T) {
	s := New(100, 100)
	s.SetTool(nil, ToolSelect)
	s.PointerDown(viewport.Pt(10, 10))
	s.PointerDrag(viewport.Pt(40, 40))
	s.PointerUp(viewport.Pt(40, 40))
	if !s.Float().Active() {
		t.Fatal("select release should lift a float")
	}
	r, _ := s.Float().Rect()
	if r.X != 10 || r.Y != 10 || r.W != 30 || r.H != 30 {
		t.Fatalf("unexpected lifted rect %+v", r)
	}
	if !s.SelectionRect().Empty() {
		t.Fatalf("drag rect should clear on release, got %v", s.SelectionRect())
	}
}

func TestSelectToolZeroDragLiftsNothing(t *testing.T) {
	s := New(100, 100)
	s.SetTool(nil, ToolSelect)
	s.PointerDown(viewport.Pt(10, 10))
	s.PointerUp(viewport.Pt(10, 10))
	if s.Float().Active() {
		t.Fatal("a zero-size selection should not lift a float")
	}
}

func liftRedSquare(t *testing.T, s *Session) {
	t.Helper()
	l := s.Document().ActiveLayer()
	for y := 20; y < 70; y++ {
		for x := 20; x < 70; x++ {
			l.Surface.Set(x, y, red)
		}
	}
	if !s.Lift(image.Rect(20, 20, 70, 70)) {
		t.Fatal("lift failed")
	}
}

func TestPressOutsideFloatCommits(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)
	s.Float().Move(50, 0)

	// Press far outside the float: commit, then the pen begins.
	s.PointerDown(viewport.Pt(150, 150))
	s.PointerUp(viewport.Pt(150, 150))

	if s.Float().Active() {
		t.Fatal("press outside should commit the float")
	}
	if got := s.Document().ActiveLayer().Surface.At(100, 30); got != red {
		t.Fatalf("committed pixels missing at translated origin: %+v", got)
	}
}

func TestPressOnFloatHandleResizes(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)

	s.PointerDown(viewport.Pt(70, 70)) // BR handle
	s.PointerDrag(viewport.Pt(120, 120))
	s.PointerUp(viewport.Pt(120, 120))

	if !s.Float().Active() {
		t.Fatal("resize drag must not commit")
	}
	r, _ := s.Float().Rect()
	if r.W != 100 || r.H != 100 {
		t.Fatalf("resize did not apply: %+v", r)
	}
}

func TestPressInsideFloatMoves(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)

	s.PointerDown(viewport.Pt(45, 45))
	s.PointerDrag(viewport.Pt(95, 45))
	s.PointerUp(viewport.Pt(95, 45))

	r, _ := s.Float().Rect()
	if r.X != 70 || r.Y != 20 {
		t.Fatalf("move did not track the pointer grab offset: %+v", r)
	}
}

func TestSetToolCommitsFloat(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)
	s.Float().Move(30, 0)
	s.SetTool(tool.Line, ToolShape)
	if s.Float().Active() {
		t.Fatal("switching tools should commit the float")
	}
	if got := s.Document().ActiveLayer().Surface.At(80, 30); got != red {
		t.Fatalf("float not merged before tool switch: %+v", got)
	}
}

func TestSetActiveLayerCommitsFloat(t *testing.T) {
	s := New(200, 200)
	bg := s.Document().ActiveLayer()
	top := s.AddLayer("Layer 2")
	liftRedSquare(t, s) // lifts from the new active layer
	s.Float().Move(30, 0)
	if err := s.SetActiveLayer(bg.ID); err != nil {
		t.Fatal(err)
	}
	if s.Float().Active() {
		t.Fatal("switching layers should commit the float")
	}
	if got := top.Surface.At(80, 30); got != red {
		t.Fatalf("float committed to the wrong layer: %+v", got)
	}
}

func TestUndoCommitsFloatFirst(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)
	s.Float().Move(30, 0)
	s.Undo()
	if s.Float().Active() {
		t.Fatal("undo must not run with an outstanding float")
	}
}

func TestUndoActivatesTouchedLayer(t *testing.T) {
	s := New(200, 200)
	bg := s.Document().ActiveLayer()
	stroke(s, viewport.Pt(10, 10), viewport.Pt(50, 50))
	s.AddLayer("Layer 2")

	s.Undo() // removes layer 2, active falls back
	ch := s.Undo()
	if ch.Kind != history.ChangePixels {
		t.Fatalf("expected pixel change, got %v", ch.Kind)
	}
	if s.Document().ActiveID() != bg.ID {
		t.Fatal("undo should re-activate the stroked layer")
	}
}

func TestRemoveLastLayerFails(t *testing.T) {
	s := New(100, 100)
	id := s.Document().ActiveID()
	if err := s.RemoveLayer(id); err == nil {
		t.Fatal("removing the only layer must fail")
	}
	if s.History().CanUndo() {
		t.Fatal("failed removal must not record")
	}
}

func TestRenderDirtyTracking(t *testing.T) {
	s := New(100, 100)
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if !s.Render(dst) {
		t.Fatal("first render should paint")
	}
	if s.Render(dst) {
		t.Fatal("unchanged state should skip the composite")
	}
	s.Viewport().Pan(5, 0)
	if !s.Render(dst) {
		t.Fatal("viewport change should repaint")
	}
	stroke(s, viewport.Pt(10, 10), viewport.Pt(20, 20))
	if !s.Render(dst) {
		t.Fatal("document change should repaint")
	}
}

func TestRenderShowsFloatPreview(t *testing.T) {
	s := New(200, 200)
	liftRedSquare(t, s)
	s.Float().Resize(floatsel.HandleBR, 120, 120, 1)
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	s.Render(dst)
	if got := dst.RGBAAt(100, 100); got != red {
		t.Fatalf("float preview missing from composite: %+v", got)
	}
}

func TestExportCommitsAndFlattens(t *testing.T) {
	s := New(100, 100)
	liftRedSquare(t, s)
	s.Float().Move(10, 10)
	out := s.Export()
	if s.Float().Active() {
		t.Fatal("export should commit the float")
	}
	if got := out.RGBAAt(40, 40); got != red {
		t.Fatalf("export missing committed float pixels: %+v", got)
	}
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("export should be document sized, got %v", b)
	}
}

func TestListenersFire(t *testing.T) {
	var histCalls, layerCalls int
	var lastCanUndo bool
	s := New(100, 100, WithListeners(Listeners{
		HistoryChanged: func(canUndo, canRedo bool) {
			histCalls++
			lastCanUndo = canUndo
		},
		LayersChanged: func() { layerCalls++ },
	}))

	stroke(s, viewport.Pt(10, 10), viewport.Pt(50, 50))
	if histCalls != 1 || !lastCanUndo {
		t.Fatalf("history listener not fired for stroke: calls=%d", histCalls)
	}
	s.AddLayer("Layer 2")
	if layerCalls == 0 {
		t.Fatal("layer listener not fired for add")
	}
	s.Undo()
	if histCalls < 3 {
		t.Fatalf("history listener not fired for undo: calls=%d", histCalls)
	}
}
