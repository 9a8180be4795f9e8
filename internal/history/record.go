// Package history keeps a linear, capacity-bounded log of reversible
// edit records and replays them against the document for undo/redo.
package history

import (
	"log"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/raster"
)

// ChangeKind classifies what a replayed record mutated so the caller can
// react without a broadcast event channel.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangePixels
	ChangeLayerAdded
	ChangeLayerRemoved
	ChangeReorder
	ChangeVisibility
	ChangeOpacity
	ChangeRename
)

// Change describes the effect of one undo or redo step.
type Change struct {
	Kind    ChangeKind
	LayerID document.LayerID
	Index   int
}

// Record is one reversible, self-contained edit. Every record can be
// inverted without consulting its neighbors.
type Record interface {
	// Undo applies the inverse effect against the document.
	Undo(doc *document.Document) Change
	// Redo applies the forward effect against the document.
	Redo(doc *document.Document) Change
	// Layer reports the layer the record touches, or 0 for reorders.
	Layer() document.LayerID
	// Kind names the record for persistence and change reporting.
	Kind() string
}

// Draw replaces a single layer's entire surface with a stored snapshot.
// Whole-surface replacement keeps records independently invertible at
// the cost of O(surface) memory per entry.
type Draw struct {
	LayerID document.LayerID
	Before  *raster.Surface
	After   *raster.Surface
}

func (r *Draw) Layer() document.LayerID { return r.LayerID }
func (r *Draw) Kind() string            { return "draw" }

func (r *Draw) Undo(doc *document.Document) Change {
	return r.apply(doc, r.Before)
}

func (r *Draw) Redo(doc *document.Document) Change {
	return r.apply(doc, r.After)
}

func (r *Draw) apply(doc *document.Document, pix *raster.Surface) Change {
	l := doc.LayerByID(r.LayerID)
	if l == nil {
		log.Printf("history: draw record references missing layer %d", r.LayerID)
		return Change{}
	}
	if !l.Surface.CopyFrom(pix) {
		log.Printf("history: draw snapshot size mismatch for layer %d", r.LayerID)
		return Change{}
	}
	doc.Bump()
	return Change{Kind: ChangePixels, LayerID: r.LayerID, Index: doc.Index(r.LayerID)}
}

// AddLayer records a layer insertion; its inverse removes the layer
// again. RemoveLayer is the mirror image.
type AddLayer struct {
	Snap  document.Snapshot
	Index int
}

func (r *AddLayer) Layer() document.LayerID { return r.Snap.ID }
func (r *AddLayer) Kind() string            { return "add_layer" }

func (r *AddLayer) Undo(doc *document.Document) Change {
	if _, _, err := doc.RemoveLayer(r.Snap.ID); err != nil {
		log.Printf("history: undo add_layer: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeLayerRemoved, LayerID: r.Snap.ID, Index: r.Index}
}

func (r *AddLayer) Redo(doc *document.Document) Change {
	doc.AddLayerAt(r.Snap, r.Index)
	return Change{Kind: ChangeLayerAdded, LayerID: r.Snap.ID, Index: r.Index}
}

// RemoveLayer records a layer deletion, holding the final snapshot so
// undo can resurrect it in place.
type RemoveLayer struct {
	Snap  document.Snapshot
	Index int
}

func (r *RemoveLayer) Layer() document.LayerID { return r.Snap.ID }
func (r *RemoveLayer) Kind() string            { return "remove_layer" }

func (r *RemoveLayer) Undo(doc *document.Document) Change {
	doc.AddLayerAt(r.Snap, r.Index)
	return Change{Kind: ChangeLayerAdded, LayerID: r.Snap.ID, Index: r.Index}
}

func (r *RemoveLayer) Redo(doc *document.Document) Change {
	if _, _, err := doc.RemoveLayer(r.Snap.ID); err != nil {
		log.Printf("history: redo remove_layer: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeLayerRemoved, LayerID: r.Snap.ID, Index: r.Index}
}

// Reorder records a stack move.
type Reorder struct {
	From, To int
}

func (r *Reorder) Layer() document.LayerID { return 0 }
func (r *Reorder) Kind() string            { return "reorder" }

func (r *Reorder) Undo(doc *document.Document) Change {
	if err := doc.Reorder(r.To, r.From); err != nil {
		log.Printf("history: undo reorder: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeReorder, Index: r.From}
}

func (r *Reorder) Redo(doc *document.Document) Change {
	if err := doc.Reorder(r.From, r.To); err != nil {
		log.Printf("history: redo reorder: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeReorder, Index: r.To}
}

// Visibility records a visibility toggle.
type Visibility struct {
	LayerID document.LayerID
	Before  bool
	After   bool
}

func (r *Visibility) Layer() document.LayerID { return r.LayerID }
func (r *Visibility) Kind() string            { return "visibility" }

func (r *Visibility) Undo(doc *document.Document) Change {
	return r.apply(doc, r.Before)
}

func (r *Visibility) Redo(doc *document.Document) Change {
	return r.apply(doc, r.After)
}

func (r *Visibility) apply(doc *document.Document, v bool) Change {
	if err := doc.SetVisible(r.LayerID, v); err != nil {
		log.Printf("history: visibility: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeVisibility, LayerID: r.LayerID, Index: doc.Index(r.LayerID)}
}

// Opacity records an opacity change.
type Opacity struct {
	LayerID document.LayerID
	Before  float64
	After   float64
}

func (r *Opacity) Layer() document.LayerID { return r.LayerID }
func (r *Opacity) Kind() string            { return "opacity" }

func (r *Opacity) Undo(doc *document.Document) Change {
	return r.apply(doc, r.Before)
}

func (r *Opacity) Redo(doc *document.Document) Change {
	return r.apply(doc, r.After)
}

func (r *Opacity) apply(doc *document.Document, v float64) Change {
	if err := doc.SetOpacity(r.LayerID, v); err != nil {
		log.Printf("history: opacity: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeOpacity, LayerID: r.LayerID, Index: doc.Index(r.LayerID)}
}

// Rename records a name change.
type Rename struct {
	LayerID document.LayerID
	Before  string
	After   string
}

func (r *Rename) Layer() document.LayerID { return r.LayerID }
func (r *Rename) Kind() string            { return "rename" }

func (r *Rename) Undo(doc *document.Document) Change {
	return r.apply(doc, r.Before)
}

func (r *Rename) Redo(doc *document.Document) Change {
	return r.apply(doc, r.After)
}

func (r *Rename) apply(doc *document.Document, name string) Change {
	if err := doc.Rename(r.LayerID, name); err != nil {
		log.Printf("history: rename: %v", err)
		return Change{}
	}
	return Change{Kind: ChangeRename, LayerID: r.LayerID, Index: doc.Index(r.LayerID)}
}
