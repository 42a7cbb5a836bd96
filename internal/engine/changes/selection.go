package changes

import (
	"image"
	"image/color"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

var selected = color.RGBA{A: 255}

// selectionState is the pre-state of a selection change.
type selectionState struct {
	before   *tiled.Image
	inactive bool
	applied  chunk.Set
}

func (s *selectionState) init(doc *document.Document) {
	sel := doc.Selection()
	s.before = sel.Image.Clone()
	s.inactive = sel.IsEmptyAndInactive
}

// replaceOps clears the current selection and adds rect.
func replaceOps(img *tiled.Image, rect image.Rectangle) []tiled.Operation {
	var ops []tiled.Operation
	for _, coord := range img.CommittedCoords().Slice() {
		ops = append(ops, tiled.ClearOperation{Rect: chunk.Bounds(coord)})
	}
	if !rect.Empty() {
		ops = append(ops, tiled.RectangleOperation{Rect: rect, Fill: selected})
	}
	return ops
}

func (s *selectionState) restore(doc *document.Document) ([]changeinfo.Info, error) {
	sel := doc.Selection()
	dirty := sel.Image.Rollback()
	restored, err := sel.Image.RestoreChunksFrom(s.before, s.applied)
	if err != nil {
		return nil, err
	}
	dirty.Union(restored)
	sel.IsEmptyAndInactive = s.inactive
	s.applied = nil
	return []changeinfo.Info{changeinfo.Selection{Chunks: dirty}}, nil
}

func (s *selectionState) dispose() {
	if s.before != nil {
		s.before.Dispose()
		s.before = nil
	}
}

// SelectRectangle replaces the selection with a rectangle.
type SelectRectangle struct {
	base
	Rect image.Rectangle

	state selectionState
}

// Initialize implements Change.
func (c *SelectRectangle) Initialize(doc *document.Document) error {
	c.state.init(doc)
	return nil
}

func (c *SelectRectangle) area(doc *document.Document) image.Rectangle {
	return c.Rect.Canon().Intersect(image.Rectangle{Max: doc.Size()})
}

// ApplyTemporarily implements UpdateableChange.
func (c *SelectRectangle) ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error) {
	if c.state.before == nil {
		return nil, ErrNotInitialized
	}
	sel := doc.Selection()
	dirty := sel.Image.Rollback()
	rect := c.area(doc)
	touched, err := sel.Image.DrawAll(replaceOps(sel.Image, rect))
	dirty.Union(touched)
	sel.IsEmptyAndInactive = rect.Empty()
	return []changeinfo.Info{changeinfo.Selection{Chunks: dirty}}, err
}

// Apply implements Change.
func (c *SelectRectangle) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.state.before == nil {
		return nil, false, ErrNotInitialized
	}
	sel := doc.Selection()
	dirty := sel.Image.Rollback()
	rect := c.area(doc)
	if rect.Empty() && c.state.inactive && sel.Image.IsCommittedEmpty() {
		sel.IsEmptyAndInactive = true
		if dirty.Len() == 0 {
			return nil, true, nil
		}
		return []changeinfo.Info{changeinfo.Selection{Chunks: dirty}}, true, nil
	}
	touched, err := sel.Image.DrawAll(replaceOps(sel.Image, rect))
	if err != nil {
		dirty.Union(sel.Image.Rollback())
		return []changeinfo.Info{changeinfo.Selection{Chunks: dirty}}, false, err
	}
	sel.Image.Commit()
	c.state.applied = touched.Clone()
	dirty.Union(touched)
	sel.IsEmptyAndInactive = rect.Empty()
	return []changeinfo.Info{changeinfo.Selection{Chunks: dirty}}, false, nil
}

// Revert implements Change.
func (c *SelectRectangle) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if c.state.before == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.state.restore(doc)
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	return infos, nil
}

// Dispose implements Change.
func (c *SelectRectangle) Dispose() {
	c.state.dispose()
}

// Description implements Change.
func (c *SelectRectangle) Description() string {
	return "Select rectangle"
}

// ClearSelection deselects everything.
type ClearSelection struct {
	base
	state selectionState
}

// Initialize implements Change.
func (c *ClearSelection) Initialize(doc *document.Document) error {
	c.state.init(doc)
	return nil
}

// Apply implements Change.
func (c *ClearSelection) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.state.before == nil {
		return nil, false, ErrNotInitialized
	}
	sel := doc.Selection()
	if c.state.inactive && sel.Image.IsCommittedEmpty() {
		return nil, true, nil
	}
	sel.Image.Rollback()
	touched, err := sel.Image.DrawAll(replaceOps(sel.Image, image.Rectangle{}))
	if err != nil {
		sel.Image.Rollback()
		return nil, false, err
	}
	sel.Image.Commit()
	c.state.applied = touched.Clone()
	sel.IsEmptyAndInactive = true
	return []changeinfo.Info{changeinfo.Selection{Chunks: touched}}, false, nil
}

// Revert implements Change.
func (c *ClearSelection) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if c.state.before == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.state.restore(doc)
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	return infos, nil
}

// Dispose implements Change.
func (c *ClearSelection) Dispose() {
	c.state.dispose()
}

// Description implements Change.
func (c *ClearSelection) Description() string {
	return "Deselect"
}
