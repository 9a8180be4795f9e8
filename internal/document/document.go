// Package document owns the ordered layer stack: which layers exist,
// their order bottom to top, and which one edits apply to.
package document

import (
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"

	"github.com/example/layerpaint/internal/raster"
)

// LayerID uniquely identifies a layer for its whole lifetime, including
// resurrection through history records.
type LayerID uint32

var nextLayerID atomic.Uint32

func newLayerID() LayerID { return LayerID(nextLayerID.Add(1)) }

// ErrLastLayer is returned when removing the only remaining layer.
var ErrLastLayer = errors.New("document: cannot remove the last layer")

// ErrNoLayer is returned when a layer id or index is not in the stack.
var ErrNoLayer = errors.New("document: layer not found")

// Layer is a named paintable surface with a visibility flag and a
// uniform opacity applied at composite time.
type Layer struct {
	ID      LayerID
	Name    string
	Visible bool
	Opacity float64
	Surface *raster.Surface
}

// Snapshot is an immutable full copy of a layer, used by history records
// to restore or resurrect it independently of the live stack.
type Snapshot struct {
	ID      LayerID
	Name    string
	Visible bool
	Opacity float64
	Pixels  *raster.Surface
}

// Snapshot captures the layer's current state.
func (l *Layer) Snapshot() Snapshot {
	return Snapshot{
		ID:      l.ID,
		Name:    l.Name,
		Visible: l.Visible,
		Opacity: l.Opacity,
		Pixels:  l.Surface.Clone(),
	}
}

// Restore builds a live layer from the snapshot.
func (s Snapshot) Restore() *Layer {
	return &Layer{
		ID:      s.ID,
		Name:    s.Name,
		Visible: s.Visible,
		Opacity: s.Opacity,
		Surface: s.Pixels.Clone(),
	}
}

// Document is the layer stack plus the active-layer selection. It always
// holds at least one layer and activeID always references a member.
type Document struct {
	W, H     int
	layers   []*Layer
	activeID LayerID
	version  uint64
}

// New creates a document with a single opaque white base layer.
func New(w, h int) *Document {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	base := &Layer{
		ID:      newLayerID(),
		Name:    "Background",
		Visible: true,
		Opacity: 1,
		Surface: raster.New(w, h),
	}
	base.Surface.Fill(color.RGBA{255, 255, 255, 255})
	return &Document{W: w, H: h, layers: []*Layer{base}, activeID: base.ID, version: 1}
}

// Empty builds a document with no layers for deserialization; the loader
// must add at least one layer before handing it out.
func Empty(w, h int) *Document {
	return &Document{W: w, H: h, version: 1}
}

// Version is a monotonically increasing change counter. The render loop
// compares it against the last composited value instead of tracking
// per-mutation events.
func (d *Document) Version() uint64 { return d.version }

// Bump marks the document changed without a structural mutation, for
// callers that paint layer pixels directly.
func (d *Document) Bump() { d.version++ }

// Layers returns the stack bottom to top. Callers must not mutate the
// returned slice.
func (d *Document) Layers() []*Layer { return d.layers }

// Count reports the number of layers.
func (d *Document) Count() int { return len(d.layers) }

// ActiveID returns the id of the layer edits currently target.
func (d *Document) ActiveID() LayerID { return d.activeID }

// ActiveLayer returns the active layer. The invariant that activeID is a
// member means this only fails on a corrupted document.
func (d *Document) ActiveLayer() *Layer {
	if l := d.byID(d.activeID); l != nil {
		return l
	}
	// Programmer error; repair to the top layer rather than corrupt
	// further state.
	if len(d.layers) > 0 {
		d.activeID = d.layers[len(d.layers)-1].ID
		return d.layers[len(d.layers)-1]
	}
	return nil
}

// SetActive switches the active layer.
func (d *Document) SetActive(id LayerID) error {
	if d.byID(id) == nil {
		return fmt.Errorf("%w: id %d", ErrNoLayer, id)
	}
	d.activeID = id
	d.version++
	return nil
}

// LayerByID finds a layer by id, or nil.
func (d *Document) LayerByID(id LayerID) *Layer { return d.byID(id) }

func (d *Document) byID(id LayerID) *Layer {
	for _, l := range d.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Index returns a layer's position in the stack, bottom to top.
func (d *Document) Index(id LayerID) int {
	for i, l := range d.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// AddLayer appends a blank transparent layer on top of the stack and
// makes it active.
func (d *Document) AddLayer(name string) *Layer {
	l := &Layer{
		ID:      newLayerID(),
		Name:    name,
		Visible: true,
		Opacity: 1,
		Surface: raster.New(d.W, d.H),
	}
	d.layers = append(d.layers, l)
	d.activeID = l.ID
	d.version++
	return l
}

// AddLayerAt inserts a layer rebuilt from snap at index; used by history
// to resurrect removed layers and to redo additions.
func (d *Document) AddLayerAt(snap Snapshot, index int) *Layer {
	if index < 0 {
		index = 0
	}
	if index > len(d.layers) {
		index = len(d.layers)
	}
	l := snap.Restore()
	d.layers = append(d.layers, nil)
	copy(d.layers[index+1:], d.layers[index:])
	d.layers[index] = l
	d.activeID = l.ID
	d.version++
	return l
}

// RemoveLayer deletes the layer and returns its final snapshot so the
// deletion stays undoable. Removing the last layer is rejected.
func (d *Document) RemoveLayer(id LayerID) (Snapshot, int, error) {
	if len(d.layers) <= 1 {
		return Snapshot{}, -1, ErrLastLayer
	}
	i := d.Index(id)
	if i < 0 {
		return Snapshot{}, -1, fmt.Errorf("%w: id %d", ErrNoLayer, id)
	}
	snap := d.layers[i].Snapshot()
	d.layers = append(d.layers[:i], d.layers[i+1:]...)
	if d.activeID == id {
		j := i
		if j >= len(d.layers) {
			j = len(d.layers) - 1
		}
		d.activeID = d.layers[j].ID
	}
	d.version++
	return snap, i, nil
}

// Reorder moves the layer at from to position to, shifting the others.
func (d *Document) Reorder(from, to int) error {
	if from < 0 || from >= len(d.layers) || to < 0 || to >= len(d.layers) {
		return fmt.Errorf("%w: reorder %d -> %d of %d", ErrNoLayer, from, to, len(d.layers))
	}
	if from == to {
		return nil
	}
	l := d.layers[from]
	d.layers = append(d.layers[:from], d.layers[from+1:]...)
	d.layers = append(d.layers, nil)
	copy(d.layers[to+1:], d.layers[to:])
	d.layers[to] = l
	d.version++
	return nil
}

// SetVisible toggles a layer's visibility.
func (d *Document) SetVisible(id LayerID, visible bool) error {
	l := d.byID(id)
	if l == nil {
		return fmt.Errorf("%w: id %d", ErrNoLayer, id)
	}
	l.Visible = visible
	d.version++
	return nil
}

// SetOpacity sets a layer's opacity, clamped to [0,1].
func (d *Document) SetOpacity(id LayerID, opacity float64) error {
	l := d.byID(id)
	if l == nil {
		return fmt.Errorf("%w: id %d", ErrNoLayer, id)
	}
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	l.Opacity = opacity
	d.version++
	return nil
}

// Rename changes a layer's user-facing name.
func (d *Document) Rename(id LayerID, name string) error {
	l := d.byID(id)
	if l == nil {
		return fmt.Errorf("%w: id %d", ErrNoLayer, id)
	}
	l.Name = name
	d.version++
	return nil
}

// AttachLayer appends an already-built layer; the project loader is the
// only caller.
func (d *Document) AttachLayer(l *Layer) {
	d.layers = append(d.layers, l)
	if len(d.layers) == 1 {
		d.activeID = l.ID
	}
	d.version++
}

// ReserveID advances the id allocator past id so layers created after a
// project load cannot collide with persisted ids.
func ReserveID(id LayerID) {
	for {
		cur := nextLayerID.Load()
		if uint32(id) <= cur {
			return
		}
		if nextLayerID.CompareAndSwap(cur, uint32(id)) {
			return
		}
	}
}

// Clone deep-copies the document for off-thread serialization.
func (d *Document) Clone() *Document {
	out := &Document{W: d.W, H: d.H, activeID: d.activeID, version: d.version}
	out.layers = make([]*Layer, len(d.layers))
	for i, l := range d.layers {
		out.layers[i] = &Layer{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Opacity: l.Opacity,
			Surface: l.Surface.Clone(),
		}
	}
	return out
}
