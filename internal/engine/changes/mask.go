package changes

import (
	"fmt"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// CreateMask gives a layer an empty mask.
type CreateMask struct {
	base
	ID document.ID

	ready bool
}

// Initialize implements Change.
func (c *CreateMask) Initialize(doc *document.Document) error {
	m, err := doc.FindLayerOrFail(c.ID)
	if err != nil {
		return err
	}
	if m.HasMask() {
		return fmt.Errorf("layer %s: %w", c.ID, ErrMaskExists)
	}
	c.ready = true
	return nil
}

// Apply implements Change.
func (c *CreateMask) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	old, err := doc.SetMask(c.ID, doc.NewImage())
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	if old != nil {
		old.Dispose()
		return nil, false, invariant(c, "apply", ErrMaskExists)
	}
	return []changeinfo.Info{changeinfo.MemberMask{Member: c.ID, HasMask: true}}, false, nil
}

// Revert implements Change.
func (c *CreateMask) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	old, err := doc.SetMask(c.ID, nil)
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	if old == nil {
		return nil, invariant(c, "revert", ErrNoMask)
	}
	old.Dispose()
	return []changeinfo.Info{changeinfo.MemberMask{Member: c.ID, HasMask: false}}, nil
}

// Description implements Change.
func (c *CreateMask) Description() string {
	return "Add mask"
}

// DeleteMask removes the mask of a layer.
type DeleteMask struct {
	base
	ID document.ID

	saved *tiled.Image
}

// Initialize implements Change.
func (c *DeleteMask) Initialize(doc *document.Document) error {
	m, err := doc.FindLayerOrFail(c.ID)
	if err != nil {
		return err
	}
	if !m.HasMask() {
		return fmt.Errorf("layer %s: %w", c.ID, ErrNoMask)
	}
	c.saved = m.Mask.Clone()
	return nil
}

// Apply implements Change.
func (c *DeleteMask) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.saved == nil {
		return nil, false, ErrNotInitialized
	}
	old, err := doc.SetMask(c.ID, nil)
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	if old == nil {
		return nil, false, invariant(c, "apply", ErrNoMask)
	}
	old.Dispose()
	return []changeinfo.Info{changeinfo.MemberMask{Member: c.ID, HasMask: false}}, false, nil
}

// Revert implements Change.
func (c *DeleteMask) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if c.saved == nil {
		return nil, ErrNotInitialized
	}
	restored := c.saved.Clone()
	old, err := doc.SetMask(c.ID, restored)
	if err != nil {
		restored.Dispose()
		return nil, invariant(c, "revert", err)
	}
	if old != nil {
		old.Dispose()
	}
	return []changeinfo.Info{
		changeinfo.MemberMask{Member: c.ID, HasMask: true},
		changeinfo.MaskChunks{Member: c.ID, Chunks: restored.CommittedCoords()},
	}, nil
}

// Dispose implements Change.
func (c *DeleteMask) Dispose() {
	if c.saved != nil {
		c.saved.Dispose()
		c.saved = nil
	}
}

// Description implements Change.
func (c *DeleteMask) Description() string {
	return "Delete mask"
}
