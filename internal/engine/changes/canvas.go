package changes

import (
	"fmt"
	"image"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// ResizeCanvas changes the canvas size keeping the top-left corner fixed.
// Layer images, masks and the selection are cropped or extended; symmetry
// axes are clamped into the new canvas.
type ResizeCanvas struct {
	base
	Size image.Point

	oldSize     image.Point
	oldSymmetry tiled.Symmetry
	images      map[document.ID]savedImages
	selection   *tiled.Image
}

type savedImages struct {
	image *tiled.Image
	mask  *tiled.Image
}

// Initialize implements Change.
func (c *ResizeCanvas) Initialize(doc *document.Document) error {
	if c.Size.X <= 0 || c.Size.Y <= 0 {
		return fmt.Errorf("resize to %v: %w", c.Size, document.ErrInvalidSize)
	}
	c.oldSize = doc.Size()
	c.oldSymmetry = doc.Symmetry()
	c.images = make(map[document.ID]savedImages)
	for _, m := range doc.Layers() {
		s := savedImages{image: m.Image.Clone()}
		if m.Mask != nil {
			s.mask = m.Mask.Clone()
		}
		c.images[m.ID] = s
	}
	c.selection = doc.Selection().Image.Clone()
	return nil
}

func (c *ResizeCanvas) eachImage(doc *document.Document, fn func(cur, saved *tiled.Image) error) error {
	for id, s := range c.images {
		m, err := doc.FindLayerOrFail(id)
		if err != nil {
			return err
		}
		if err := fn(m.Image, s.image); err != nil {
			return err
		}
		if (m.Mask == nil) != (s.mask == nil) {
			return fmt.Errorf("layer %s mask changed: %w", id, ErrNoMask)
		}
		if m.Mask != nil {
			if err := fn(m.Mask, s.mask); err != nil {
				return err
			}
		}
	}
	return fn(doc.Selection().Image, c.selection)
}

// Apply implements Change.
func (c *ResizeCanvas) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.images == nil {
		return nil, false, ErrNotInitialized
	}
	if c.Size == c.oldSize {
		return nil, true, nil
	}
	err := c.eachImage(doc, func(cur, _ *tiled.Image) error {
		return cur.Resize(c.Size)
	})
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	if err := doc.SetSize(c.Size); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	s := doc.Symmetry()
	s.HorizontalY = min(s.HorizontalY, c.Size.Y)
	s.VerticalX = min(s.VerticalX, c.Size.X)
	doc.SetSymmetry(s)
	return []changeinfo.Info{changeinfo.Size{Size: c.Size}}, false, nil
}

// Revert implements Change.
func (c *ResizeCanvas) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if c.images == nil {
		return nil, ErrNotInitialized
	}
	err := c.eachImage(doc, func(cur, saved *tiled.Image) error {
		if err := cur.Resize(c.oldSize); err != nil {
			return err
		}
		_, err := cur.RestoreChunksFrom(saved, cur.CommittedCoords().Union(saved.CommittedCoords()))
		return err
	})
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	if err := doc.SetSize(c.oldSize); err != nil {
		return nil, invariant(c, "revert", err)
	}
	doc.SetSymmetry(c.oldSymmetry)
	return []changeinfo.Info{changeinfo.Size{Size: c.oldSize}}, nil
}

// Dispose implements Change.
func (c *ResizeCanvas) Dispose() {
	for _, s := range c.images {
		s.image.Dispose()
		if s.mask != nil {
			s.mask.Dispose()
		}
	}
	c.images = nil
	if c.selection != nil {
		c.selection.Dispose()
		c.selection = nil
	}
}

// Description implements Change.
func (c *ResizeCanvas) Description() string {
	return fmt.Sprintf("Resize canvas to %dx%d", c.Size.X, c.Size.Y)
}
