package action

import (
	"image"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
)

// ResizeCanvas changes the canvas size.
type ResizeCanvas struct {
	Size image.Point
}

// SelectRectangle starts or resizes a rectangular selection.
type SelectRectangle struct {
	Rect image.Rectangle
}

// EndSelectRectangle finalizes a rectangular selection.
type EndSelectRectangle struct{}

// ClearSelection deselects everything.
type ClearSelection struct{}

// SetSymmetryAxisState enables or disables a symmetry axis.
type SetSymmetryAxisState struct {
	Axis    changeinfo.Axis
	Enabled bool
}

// SetSymmetryAxisPosition starts or continues dragging a symmetry axis.
type SetSymmetryAxisPosition struct {
	Axis     changeinfo.Axis
	Position int
}

// EndSetSymmetryAxisPosition finalizes an axis drag.
type EndSetSymmetryAxisPosition struct{}

func (a ResizeCanvas) CreateChange() changes.Change {
	return &changes.ResizeCanvas{Size: a.Size}
}

func (a SelectRectangle) CreateChange() changes.UpdateableChange {
	return &changes.SelectRectangle{Rect: a.Rect}
}

func (a SelectRectangle) Update(live changes.UpdateableChange) bool {
	c, ok := live.(*changes.SelectRectangle)
	if ok {
		c.Rect = a.Rect
	}
	return ok
}

func (EndSelectRectangle) Matches(live changes.Change) bool {
	_, ok := live.(*changes.SelectRectangle)
	return ok
}

func (ClearSelection) CreateChange() changes.Change {
	return &changes.ClearSelection{}
}

func (a SetSymmetryAxisState) CreateChange() changes.Change {
	return &changes.SetSymmetryAxisState{Axis: a.Axis, Enabled: a.Enabled}
}

func (a SetSymmetryAxisPosition) CreateChange() changes.UpdateableChange {
	return &changes.SetSymmetryAxisPosition{Axis: a.Axis, Position: a.Position}
}

func (a SetSymmetryAxisPosition) Update(live changes.UpdateableChange) bool {
	c, ok := live.(*changes.SetSymmetryAxisPosition)
	if !ok || c.Axis != a.Axis {
		return false
	}
	c.Position = a.Position
	return true
}

func (EndSetSymmetryAxisPosition) Matches(live changes.Change) bool {
	_, ok := live.(*changes.SetSymmetryAxisPosition)
	return ok
}

func (ResizeCanvas) Name() string               { return "ResizeCanvas" }
func (SelectRectangle) Name() string            { return "SelectRectangle" }
func (EndSelectRectangle) Name() string         { return "EndSelectRectangle" }
func (ClearSelection) Name() string             { return "ClearSelection" }
func (SetSymmetryAxisState) Name() string       { return "SetSymmetryAxisState" }
func (SetSymmetryAxisPosition) Name() string    { return "SetSymmetryAxisPosition" }
func (EndSetSymmetryAxisPosition) Name() string { return "EndSetSymmetryAxisPosition" }

func (ResizeCanvas) isAction()               {}
func (SelectRectangle) isAction()            {}
func (EndSelectRectangle) isAction()         {}
func (ClearSelection) isAction()             {}
func (SetSymmetryAxisState) isAction()       {}
func (SetSymmetryAxisPosition) isAction()    {}
func (EndSetSymmetryAxisPosition) isAction() {}

var (
	_ MakeChange = CreateMember{}
	_ MakeChange = DeleteMember{}
	_ MakeChange = MoveMember{}
	_ MakeChange = DuplicateLayer{}
	_ MakeChange = SetName{}
	_ MakeChange = SetVisibility{}
	_ MakeChange = SetOpacity{}
	_ MakeChange = CreateMask{}
	_ MakeChange = DeleteMask{}
	_ MakeChange = PasteImage{}
	_ MakeChange = ClearLayer{}
	_ MakeChange = ResizeCanvas{}
	_ MakeChange = ClearSelection{}
	_ MakeChange = SetSymmetryAxisState{}

	_ StartOrUpdate = DrawRectangle{}
	_ StartOrUpdate = DrawEllipse{}
	_ StartOrUpdate = LinePen{}
	_ StartOrUpdate = SelectRectangle{}
	_ StartOrUpdate = SetSymmetryAxisPosition{}

	_ End = EndDrawRectangle{}
	_ End = EndDrawEllipse{}
	_ End = EndLinePen{}
	_ End = EndSelectRectangle{}
	_ End = EndSetSymmetryAxisPosition{}

	_ Action = Undo{}
	_ Action = Redo{}
	_ Action = ChangeBoundary{}
	_ Action = DeleteRecordedChanges{}
)
