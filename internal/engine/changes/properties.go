package changes

import (
	"fmt"
	"math"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// SetName renames a member.
type SetName struct {
	base
	ID   document.ID
	Name string

	original string
	ready    bool
}

// Initialize implements Change.
func (c *SetName) Initialize(doc *document.Document) error {
	m, err := doc.FindMemberOrFail(c.ID)
	if err != nil {
		return err
	}
	c.original, c.ready = m.Name, true
	return nil
}

// Apply implements Change.
func (c *SetName) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	if c.Name == c.original {
		return nil, true, nil
	}
	if err := doc.SetName(c.ID, c.Name); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return []changeinfo.Info{changeinfo.MemberName{Member: c.ID, Name: c.Name}}, false, nil
}

// Revert implements Change.
func (c *SetName) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.SetName(c.ID, c.original); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.MemberName{Member: c.ID, Name: c.original}}, nil
}

// Description implements Change.
func (c *SetName) Description() string {
	return "Rename"
}

// SetVisibility shows or hides a member.
type SetVisibility struct {
	base
	ID      document.ID
	Visible bool

	original bool
	ready    bool
}

// Initialize implements Change.
func (c *SetVisibility) Initialize(doc *document.Document) error {
	m, err := doc.FindMemberOrFail(c.ID)
	if err != nil {
		return err
	}
	c.original, c.ready = m.Visible, true
	return nil
}

// Apply implements Change.
func (c *SetVisibility) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	if c.Visible == c.original {
		return nil, true, nil
	}
	if err := doc.SetVisible(c.ID, c.Visible); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return []changeinfo.Info{changeinfo.MemberVisibility{Member: c.ID, Visible: c.Visible}}, false, nil
}

// Revert implements Change.
func (c *SetVisibility) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.SetVisible(c.ID, c.original); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.MemberVisibility{Member: c.ID, Visible: c.original}}, nil
}

// Description implements Change.
func (c *SetVisibility) Description() string {
	if c.Visible {
		return "Show member"
	}
	return "Hide member"
}

// SetOpacity changes a member opacity. Consecutive opacity changes of the
// same member share one undo entry.
type SetOpacity struct {
	base
	ID      document.ID
	Opacity float64

	original float64
	ready    bool
}

// Initialize implements Change.
func (c *SetOpacity) Initialize(doc *document.Document) error {
	if math.IsNaN(c.Opacity) {
		return fmt.Errorf("opacity NaN: %w", ErrInvalidArgument)
	}
	m, err := doc.FindMemberOrFail(c.ID)
	if err != nil {
		return err
	}
	c.Opacity = math.Max(0, math.Min(1, c.Opacity))
	c.original, c.ready = m.Opacity, true
	return nil
}

// Apply implements Change.
func (c *SetOpacity) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	if c.Opacity == c.original {
		return nil, true, nil
	}
	if err := doc.SetOpacity(c.ID, c.Opacity); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return []changeinfo.Info{changeinfo.MemberOpacity{Member: c.ID, Opacity: c.Opacity}}, false, nil
}

// Revert implements Change.
func (c *SetOpacity) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.SetOpacity(c.ID, c.original); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.MemberOpacity{Member: c.ID, Opacity: c.original}}, nil
}

// IsMergeableWith implements Change.
func (c *SetOpacity) IsMergeableWith(other Change) bool {
	o, ok := other.(*SetOpacity)
	return ok && o.ID == c.ID
}

// Description implements Change.
func (c *SetOpacity) Description() string {
	return "Change opacity"
}
