package changes

import (
	"fmt"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

func axisState(s tiled.Symmetry, axis changeinfo.Axis) (bool, int) {
	if axis == changeinfo.AxisVertical {
		return s.VerticalEnabled, s.VerticalX
	}
	return s.HorizontalEnabled, s.HorizontalY
}

func setAxis(s tiled.Symmetry, axis changeinfo.Axis, enabled bool, pos int) tiled.Symmetry {
	if axis == changeinfo.AxisVertical {
		s.VerticalEnabled, s.VerticalX = enabled, pos
	} else {
		s.HorizontalEnabled, s.HorizontalY = enabled, pos
	}
	return s
}

func validAxis(axis changeinfo.Axis) error {
	if axis != changeinfo.AxisHorizontal && axis != changeinfo.AxisVertical {
		return fmt.Errorf("axis %d: %w", axis, ErrInvalidArgument)
	}
	return nil
}

// SetSymmetryAxisState enables or disables a symmetry axis.
type SetSymmetryAxisState struct {
	base
	Axis    changeinfo.Axis
	Enabled bool

	original tiled.Symmetry
	ready    bool
}

// Initialize implements Change.
func (c *SetSymmetryAxisState) Initialize(doc *document.Document) error {
	if err := validAxis(c.Axis); err != nil {
		return err
	}
	c.original, c.ready = doc.Symmetry(), true
	return nil
}

// Apply implements Change.
func (c *SetSymmetryAxisState) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	enabled, pos := axisState(c.original, c.Axis)
	if enabled == c.Enabled {
		return nil, true, nil
	}
	doc.SetSymmetry(setAxis(c.original, c.Axis, c.Enabled, pos))
	return []changeinfo.Info{changeinfo.SymmetryAxisState{Axis: c.Axis, Enabled: c.Enabled}}, false, nil
}

// Revert implements Change.
func (c *SetSymmetryAxisState) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	doc.SetSymmetry(c.original)
	enabled, _ := axisState(c.original, c.Axis)
	return []changeinfo.Info{changeinfo.SymmetryAxisState{Axis: c.Axis, Enabled: enabled}}, nil
}

// Description implements Change.
func (c *SetSymmetryAxisState) Description() string {
	return fmt.Sprintf("Toggle %s symmetry", c.Axis)
}

// SetSymmetryAxisPosition drags a symmetry axis. Positions are clamped to
// the canvas.
type SetSymmetryAxisPosition struct {
	base
	Axis     changeinfo.Axis
	Position int

	original tiled.Symmetry
	ready    bool
}

// Initialize implements Change.
func (c *SetSymmetryAxisPosition) Initialize(doc *document.Document) error {
	if err := validAxis(c.Axis); err != nil {
		return err
	}
	c.original, c.ready = doc.Symmetry(), true
	return nil
}

func (c *SetSymmetryAxisPosition) clamped(doc *document.Document) int {
	limit := doc.Size().Y
	if c.Axis == changeinfo.AxisVertical {
		limit = doc.Size().X
	}
	return max(0, min(c.Position, limit))
}

func (c *SetSymmetryAxisPosition) set(doc *document.Document) (int, bool) {
	enabled, old := axisState(c.original, c.Axis)
	pos := c.clamped(doc)
	doc.SetSymmetry(setAxis(c.original, c.Axis, enabled, pos))
	return pos, pos != old
}

// ApplyTemporarily implements UpdateableChange.
func (c *SetSymmetryAxisPosition) ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error) {
	if !c.ready {
		return nil, ErrNotInitialized
	}
	pos, _ := c.set(doc)
	return []changeinfo.Info{changeinfo.SymmetryAxisPosition{Axis: c.Axis, Position: pos}}, nil
}

// Apply implements Change.
func (c *SetSymmetryAxisPosition) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if !c.ready {
		return nil, false, ErrNotInitialized
	}
	pos, changed := c.set(doc)
	return []changeinfo.Info{changeinfo.SymmetryAxisPosition{Axis: c.Axis, Position: pos}}, !changed, nil
}

// Revert implements Change.
func (c *SetSymmetryAxisPosition) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	doc.SetSymmetry(c.original)
	_, pos := axisState(c.original, c.Axis)
	return []changeinfo.Info{changeinfo.SymmetryAxisPosition{Axis: c.Axis, Position: pos}}, nil
}

// Description implements Change.
func (c *SetSymmetryAxisPosition) Description() string {
	return fmt.Sprintf("Move %s symmetry axis", c.Axis)
}
