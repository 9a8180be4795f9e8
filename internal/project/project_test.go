package project

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
)

func buildSession(t *testing.T) (*document.Document, *history.Log) {
	t.Helper()
	doc := document.New(64, 48)
	g := history.NewLog(0)

	bg := doc.ActiveLayer()
	before := bg.Surface.Clone()
	bg.Surface.Set(10, 10, color.RGBA{255, 0, 0, 255})
	g.Record(&history.Draw{LayerID: bg.ID, Before: before, After: bg.Surface.Clone()})

	top := doc.AddLayer("Sketch")
	top.Opacity = 0.5
	g.Record(&history.AddLayer{Snap: top.Snapshot(), Index: doc.Index(top.ID)})
	g.Record(&history.Visibility{LayerID: top.ID, Before: true, After: false})
	doc.SetVisible(top.ID, false)
	g.Record(&history.Rename{LayerID: top.ID, Before: "Sketch", After: "Ink"})
	doc.Rename(top.ID, "Ink")
	return doc, g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc, g := buildSession(t)
	path := filepath.Join(t.TempDir(), "scene.lpz")
	if err := Save(path, doc, g); err != nil {
		t.Fatal(err)
	}

	got, gotLog, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.W != 64 || got.H != 48 {
		t.Fatalf("geometry lost: %dx%d", got.W, got.H)
	}
	if got.Count() != 2 {
		t.Fatalf("expected 2 layers, got %d", got.Count())
	}
	if got.ActiveID() != doc.ActiveID() {
		t.Fatal("active layer lost")
	}

	bg := got.Layers()[0]
	if !bg.Surface.Equal(doc.Layers()[0].Surface) {
		t.Fatal("background pixels not bit-identical after round trip")
	}
	top := got.Layers()[1]
	if top.Name != "Ink" || top.Visible || top.Opacity != 0.5 {
		t.Fatalf("layer attributes lost: %+v", top)
	}

	if gotLog.Len() != g.Len() || gotLog.Cursor() != g.Cursor() {
		t.Fatalf("history shape lost: len=%d cursor=%d", gotLog.Len(), gotLog.Cursor())
	}

	// The restored log must still replay: three undos strip the rename,
	// visibility and add, one more removes the stroke.
	for i := 0; i < 4; i++ {
		gotLog.Undo(got)
	}
	if got.Count() != 1 {
		t.Fatalf("replayed undo should leave 1 layer, got %d", got.Count())
	}
	if c := got.Layers()[0].Surface.At(10, 10); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("replayed undo should clear the stroke: %+v", c)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	doc, g, err := Load(filepath.Join(t.TempDir(), "nope.lpz"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if doc == nil || g == nil {
		t.Fatal("fallback session must be usable")
	}
	if doc.W != DefaultWidth || doc.H != DefaultHeight || doc.Count() != 1 {
		t.Fatalf("fallback document wrong: %dx%d %d layers", doc.W, doc.H, doc.Count())
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lpz")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, _, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for a corrupt file")
	}
	if doc.Count() != 1 {
		t.Fatal("fallback document must carry its base layer")
	}
}

func TestSaveDoesNotClobberOnFailure(t *testing.T) {
	doc, g := buildSession(t)
	path := filepath.Join(t.TempDir(), "scene.lpz")
	if err := Save(path, doc, g); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("saved project is empty")
	}
	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the project file, found %d entries", len(entries))
	}
}

func TestMetaRoundTrip(t *testing.T) {
	doc, g := buildSession(t)
	text := encodeMeta(doc, g)
	m, err := parseMeta(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != doc.W || m.Height != doc.H {
		t.Fatalf("geometry mismatch: %dx%d", m.Width, m.Height)
	}
	if len(m.Layers) != doc.Count() {
		t.Fatalf("layer count mismatch: %d", len(m.Layers))
	}
	if len(m.History) != g.Len() {
		t.Fatalf("history count mismatch: %d", len(m.History))
	}
	if m.History[3].Kind != "rename" || m.History[3].After != "Ink" {
		t.Fatalf("rename entry lost: %+v", m.History[3])
	}
}

func TestAutosaverDebouncesAndWrites(t *testing.T) {
	doc, g := buildSession(t)
	path := filepath.Join(t.TempDir(), "auto.lpz")
	a := NewAutosaver(path, 20*time.Millisecond)
	defer a.Close()

	a.Changed(doc, g)
	a.Changed(doc, g)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("autosave never wrote the project")
		}
		time.Sleep(10 * time.Millisecond)
	}

	got, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2 {
		t.Fatalf("autosaved project wrong: %d layers", got.Count())
	}
}

func TestAutosaverFlushWritesPending(t *testing.T) {
	doc, g := buildSession(t)
	path := filepath.Join(t.TempDir(), "auto.lpz")
	a := NewAutosaver(path, time.Hour) // never fires on its own
	a.Changed(doc, g)
	a.Flush()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("flush did not write: %v", err)
	}
}

func TestAutosaverSnapshotIsolation(t *testing.T) {
	doc, g := buildSession(t)
	path := filepath.Join(t.TempDir(), "auto.lpz")
	a := NewAutosaver(path, time.Hour)
	a.Changed(doc, g)

	// Mutations after Changed must not leak into the snapshot.
	doc.ActiveLayer().Surface.Fill(color.RGBA{0, 0, 255, 255})
	doc.AddLayer("Late")
	a.Flush()

	got, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2 {
		t.Fatalf("snapshot leaked later mutations: %d layers", got.Count())
	}
}
