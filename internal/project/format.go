package project

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
)

// meta mirrors project.rc: document geometry, the layer list in stack
// order, and the history entries with their scalar payloads. Pixel
// payloads live in sibling PNG blobs named by entry index.
type meta struct {
	Width, Height  int
	Active         document.LayerID
	HistoryCap     int
	HistoryCursor  int
	HistoryVersion uint64
	Layers         []layerMeta
	History        []histMeta
}

type layerMeta struct {
	ID      document.LayerID
	Name    string
	Visible bool
	Opacity float64
	File    string
}

type histMeta struct {
	Kind        string
	LayerID     document.LayerID
	Index       int
	From, To    int
	Name        string
	SnapVisible bool
	SnapOpacity float64
	Before      string
	After       string
}

func encodeMeta(doc *document.Document, g *history.Log) string {
	var sb strings.Builder
	sb.WriteString("format = lpz1\n")
	fmt.Fprintf(&sb, "width = %d\n", doc.W)
	fmt.Fprintf(&sb, "height = %d\n", doc.H)
	fmt.Fprintf(&sb, "active = %d\n", doc.ActiveID())
	fmt.Fprintf(&sb, "history_cap = %d\n", g.Cap())
	fmt.Fprintf(&sb, "history_cursor = %d\n", g.Cursor())
	fmt.Fprintf(&sb, "history_version = %d\n", g.Version())
	sb.WriteString("\n")

	for i, l := range doc.Layers() {
		fmt.Fprintf(&sb, "[layer.%d]\n", i)
		fmt.Fprintf(&sb, "id = %d\n", l.ID)
		fmt.Fprintf(&sb, "name = %s\n", l.Name)
		fmt.Fprintf(&sb, "visible = %v\n", l.Visible)
		fmt.Fprintf(&sb, "opacity = %s\n", strconv.FormatFloat(l.Opacity, 'f', -1, 64))
		fmt.Fprintf(&sb, "file = %s\n", layerFile(i))
		sb.WriteString("\n")
	}

	for i, rec := range g.Records() {
		fmt.Fprintf(&sb, "[hist.%d]\n", i)
		fmt.Fprintf(&sb, "kind = %s\n", rec.Kind())
		encodeRecordMeta(&sb, rec)
		sb.WriteString("\n")
	}
	return sb.String()
}

func encodeRecordMeta(sb *strings.Builder, rec history.Record) {
	switch r := rec.(type) {
	case *history.Draw:
		fmt.Fprintf(sb, "layer = %d\n", r.LayerID)
	case *history.AddLayer:
		encodeSnapMeta(sb, r.Snap, r.Index)
	case *history.RemoveLayer:
		encodeSnapMeta(sb, r.Snap, r.Index)
	case *history.Reorder:
		fmt.Fprintf(sb, "from = %d\n", r.From)
		fmt.Fprintf(sb, "to = %d\n", r.To)
	case *history.Visibility:
		fmt.Fprintf(sb, "layer = %d\n", r.LayerID)
		fmt.Fprintf(sb, "before = %v\n", r.Before)
		fmt.Fprintf(sb, "after = %v\n", r.After)
	case *history.Opacity:
		fmt.Fprintf(sb, "layer = %d\n", r.LayerID)
		fmt.Fprintf(sb, "before = %s\n", strconv.FormatFloat(r.Before, 'f', -1, 64))
		fmt.Fprintf(sb, "after = %s\n", strconv.FormatFloat(r.After, 'f', -1, 64))
	case *history.Rename:
		fmt.Fprintf(sb, "layer = %d\n", r.LayerID)
		fmt.Fprintf(sb, "before = %s\n", r.Before)
		fmt.Fprintf(sb, "after = %s\n", r.After)
	}
}

func encodeSnapMeta(sb *strings.Builder, snap document.Snapshot, index int) {
	fmt.Fprintf(sb, "layer = %d\n", snap.ID)
	fmt.Fprintf(sb, "index = %d\n", index)
	fmt.Fprintf(sb, "name = %s\n", snap.Name)
	fmt.Fprintf(sb, "visible = %v\n", snap.Visible)
	fmt.Fprintf(sb, "opacity = %s\n", strconv.FormatFloat(snap.Opacity, 'f', -1, 64))
}

// parseMeta reads project.rc. Sections are consumed in file order, so
// layer and history indices follow write order.
func parseMeta(r io.Reader) (*meta, error) {
	m := &meta{}
	scanner := bufio.NewScanner(r)
	var section string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			switch {
			case strings.HasPrefix(section, "layer."):
				m.Layers = append(m.Layers, layerMeta{Visible: true, Opacity: 1})
			case strings.HasPrefix(section, "hist."):
				m.History = append(m.History, histMeta{})
			}
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		var err error
		switch {
		case section == "":
			err = setRootField(m, key, value)
		case strings.HasPrefix(section, "layer."):
			err = setLayerField(&m.Layers[len(m.Layers)-1], key, value)
		case strings.HasPrefix(section, "hist."):
			err = setHistField(&m.History[len(m.History)-1], key, value)
		}
		if err != nil {
			return nil, fmt.Errorf("section [%s] key %s: %w", section, key, err)
		}
	}
	return m, scanner.Err()
}

func setRootField(m *meta, key, value string) error {
	var err error
	switch key {
	case "width":
		m.Width, err = strconv.Atoi(value)
	case "height":
		m.Height, err = strconv.Atoi(value)
	case "active":
		var id uint32
		id, err = parseUint32(value)
		m.Active = document.LayerID(id)
	case "history_cap":
		m.HistoryCap, err = strconv.Atoi(value)
	case "history_cursor":
		m.HistoryCursor, err = strconv.Atoi(value)
	case "history_version":
		m.HistoryVersion, err = strconv.ParseUint(value, 10, 64)
	}
	return err
}

func setLayerField(l *layerMeta, key, value string) error {
	var err error
	switch key {
	case "id":
		var id uint32
		id, err = parseUint32(value)
		l.ID = document.LayerID(id)
	case "name":
		l.Name = value
	case "visible":
		l.Visible, err = strconv.ParseBool(value)
	case "opacity":
		l.Opacity, err = strconv.ParseFloat(value, 64)
	case "file":
		l.File = value
	}
	return err
}

func setHistField(h *histMeta, key, value string) error {
	var err error
	switch key {
	case "kind":
		h.Kind = value
	case "layer":
		var id uint32
		id, err = parseUint32(value)
		h.LayerID = document.LayerID(id)
	case "index":
		h.Index, err = strconv.Atoi(value)
	case "from":
		h.From, err = strconv.Atoi(value)
	case "to":
		h.To, err = strconv.Atoi(value)
	case "name":
		h.Name = value
	case "visible":
		h.SnapVisible, err = strconv.ParseBool(value)
	case "opacity":
		h.SnapOpacity, err = strconv.ParseFloat(value, 64)
	case "before":
		h.Before = value
	case "after":
		h.After = value
	}
	return err
}
