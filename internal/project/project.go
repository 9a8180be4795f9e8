// Package project reads and writes the single-file .lpz format: a zip
// archive holding rc-format metadata plus PNG blobs for layer surfaces
// and history snapshots.
package project

import (
	"archive/zip"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/raster"
)

const (
	metaName = "project.rc"

	// DefaultWidth and DefaultHeight size the fallback document when a
	// project fails to load.
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Save writes doc and its history to path, replacing any existing file.
// The write goes through a temp file in the same directory so a crash
// mid-save never truncates the previous project.
func Save(path string, doc *document.Document, g *history.Log) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lpz-*")
	if err != nil {
		return fmt.Errorf("project: save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp, doc, g); err != nil {
		tmp.Close()
		return fmt.Errorf("project: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("project: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("project: save: %w", err)
	}
	return nil
}

func write(w io.Writer, doc *document.Document, g *history.Log) error {
	zw := zip.NewWriter(w)

	mw, err := zw.Create(metaName)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mw, encodeMeta(doc, g)); err != nil {
		return err
	}

	for i, l := range doc.Layers() {
		if err := writePNG(zw, layerFile(i), l.Surface); err != nil {
			return err
		}
	}
	for i, rec := range g.Records() {
		if err := writeRecordBlobs(zw, i, rec); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writePNG(zw *zip.Writer, name string, s *raster.Surface) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	return png.Encode(f, s.RGBA())
}

func writeRecordBlobs(zw *zip.Writer, i int, rec history.Record) error {
	switch r := rec.(type) {
	case *history.Draw:
		if err := writePNG(zw, histFile(i, "before"), r.Before); err != nil {
			return err
		}
		return writePNG(zw, histFile(i, "after"), r.After)
	case *history.AddLayer:
		return writePNG(zw, histFile(i, "snap"), r.Snap.Pixels)
	case *history.RemoveLayer:
		return writePNG(zw, histFile(i, "snap"), r.Snap.Pixels)
	}
	return nil
}

func layerFile(i int) string          { return fmt.Sprintf("layer-%03d.png", i) }
func histFile(i int, s string) string { return fmt.Sprintf("hist-%03d-%s.png", i, s) }

// Load reads a project from path. It never returns a nil document: any
// read or decode failure yields a fresh blank document alongside the
// error, so a corrupt file degrades to a new session instead of a
// half-loaded one.
func Load(path string) (*document.Document, *history.Log, error) {
	doc, g, err := load(path)
	if err != nil {
		return document.New(DefaultWidth, DefaultHeight), history.NewLog(0), err
	}
	return doc, g, nil
}

func load(path string) (*document.Document, *history.Log, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("project: load: %w", err)
	}
	defer zr.Close()

	blobs := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		blobs[f.Name] = f
	}
	mf, ok := blobs[metaName]
	if !ok {
		return nil, nil, fmt.Errorf("project: load: %s missing", metaName)
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("project: load: %w", err)
	}
	meta, err := parseMeta(rc)
	rc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("project: load: %w", err)
	}

	doc, err := buildDocument(meta, blobs)
	if err != nil {
		return nil, nil, fmt.Errorf("project: load: %w", err)
	}
	g, err := buildHistory(meta, blobs)
	if err != nil {
		return nil, nil, fmt.Errorf("project: load: %w", err)
	}
	return doc, g, nil
}

func buildDocument(meta *meta, blobs map[string]*zip.File) (*document.Document, error) {
	if meta.Width < 1 || meta.Height < 1 || len(meta.Layers) == 0 {
		return nil, fmt.Errorf("invalid document geometry %dx%d with %d layers",
			meta.Width, meta.Height, len(meta.Layers))
	}
	doc := document.Empty(meta.Width, meta.Height)
	var maxID document.LayerID
	for _, lm := range meta.Layers {
		s, err := readPNG(blobs, lm.File)
		if err != nil {
			return nil, err
		}
		if s.Width() != meta.Width || s.Height() != meta.Height {
			return nil, fmt.Errorf("layer %q is %dx%d, want %dx%d",
				lm.Name, s.Width(), s.Height(), meta.Width, meta.Height)
		}
		doc.AttachLayer(&document.Layer{
			ID:      lm.ID,
			Name:    lm.Name,
			Visible: lm.Visible,
			Opacity: lm.Opacity,
			Surface: s,
		})
		if lm.ID > maxID {
			maxID = lm.ID
		}
	}
	if err := doc.SetActive(meta.Active); err != nil {
		return nil, fmt.Errorf("active layer %d: %w", meta.Active, err)
	}
	document.ReserveID(maxID)
	return doc, nil
}

func buildHistory(meta *meta, blobs map[string]*zip.File) (*history.Log, error) {
	records := make([]history.Record, 0, len(meta.History))
	for i, hm := range meta.History {
		rec, err := decodeRecord(i, hm, blobs)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		if snap, ok := recordSnapshotID(rec); ok {
			document.ReserveID(snap)
		}
	}
	g := history.NewLog(meta.HistoryCap)
	g.Restore(records, meta.HistoryCursor, meta.HistoryVersion)
	return g, nil
}

func recordSnapshotID(rec history.Record) (document.LayerID, bool) {
	switch r := rec.(type) {
	case *history.AddLayer:
		return r.Snap.ID, true
	case *history.RemoveLayer:
		return r.Snap.ID, true
	}
	return 0, false
}

func decodeRecord(i int, hm histMeta, blobs map[string]*zip.File) (history.Record, error) {
	switch hm.Kind {
	case "draw":
		before, err := readPNG(blobs, histFile(i, "before"))
		if err != nil {
			return nil, err
		}
		after, err := readPNG(blobs, histFile(i, "after"))
		if err != nil {
			return nil, err
		}
		return &history.Draw{LayerID: hm.LayerID, Before: before, After: after}, nil
	case "add_layer", "remove_layer":
		pix, err := readPNG(blobs, histFile(i, "snap"))
		if err != nil {
			return nil, err
		}
		snap := document.Snapshot{
			ID:      hm.LayerID,
			Name:    hm.Name,
			Visible: hm.SnapVisible,
			Opacity: hm.SnapOpacity,
			Pixels:  pix,
		}
		if hm.Kind == "add_layer" {
			return &history.AddLayer{Snap: snap, Index: hm.Index}, nil
		}
		return &history.RemoveLayer{Snap: snap, Index: hm.Index}, nil
	case "reorder":
		return &history.Reorder{From: hm.From, To: hm.To}, nil
	case "visibility":
		before, err := strconv.ParseBool(hm.Before)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: before: %w", i, err)
		}
		after, err := strconv.ParseBool(hm.After)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: after: %w", i, err)
		}
		return &history.Visibility{LayerID: hm.LayerID, Before: before, After: after}, nil
	case "opacity":
		before, err := strconv.ParseFloat(hm.Before, 64)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: before: %w", i, err)
		}
		after, err := strconv.ParseFloat(hm.After, 64)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: after: %w", i, err)
		}
		return &history.Opacity{LayerID: hm.LayerID, Before: before, After: after}, nil
	case "rename":
		return &history.Rename{LayerID: hm.LayerID, Before: hm.Before, After: hm.After}, nil
	}
	return nil, fmt.Errorf("history entry %d: unknown kind %q", i, hm.Kind)
}

func readPNG(blobs map[string]*zip.File, name string) (*raster.Surface, error) {
	f, ok := blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %s missing", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img, err := png.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", name, err)
	}
	return raster.FromImage(img), nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
