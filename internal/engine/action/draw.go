package action

import (
	"image"
	"image/color"

	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// DrawRectangle starts or resizes a rectangle.
type DrawRectangle struct {
	Member document.ID
	Shape  changes.Shape
	OnMask bool
}

// EndDrawRectangle finalizes a rectangle.
type EndDrawRectangle struct{}

// DrawEllipse starts or resizes an ellipse.
type DrawEllipse struct {
	Member document.ID
	Shape  changes.Shape
	OnMask bool
}

// EndDrawEllipse finalizes an ellipse.
type EndDrawEllipse struct{}

// LinePen starts a pen stroke at Point or extends it to Point.
type LinePen struct {
	Member document.ID
	Color  color.RGBA
	Width  int
	Point  image.Point
	OnMask bool
}

// EndLinePen finalizes a pen stroke.
type EndLinePen struct{}

// PasteImage composites Image with its top-left corner at Pos.
type PasteImage struct {
	Member document.ID
	Pos    image.Point
	Image  *image.RGBA
	OnMask bool
}

// ClearLayer clears a layer or its mask inside the selection.
type ClearLayer struct {
	Member document.ID
	OnMask bool
}

func (a DrawRectangle) CreateChange() changes.UpdateableChange {
	return changes.NewDrawRectangle(a.Member, a.Shape, a.OnMask)
}

func (a DrawRectangle) Update(live changes.UpdateableChange) bool {
	c, ok := live.(*changes.DrawRectangle)
	if !ok || c.Member() != a.Member || c.OnMask() != a.OnMask {
		return false
	}
	c.Update(a.Shape)
	return true
}

func (EndDrawRectangle) Matches(live changes.Change) bool {
	_, ok := live.(*changes.DrawRectangle)
	return ok
}

func (a DrawEllipse) CreateChange() changes.UpdateableChange {
	return changes.NewDrawEllipse(a.Member, a.Shape, a.OnMask)
}

func (a DrawEllipse) Update(live changes.UpdateableChange) bool {
	c, ok := live.(*changes.DrawEllipse)
	if !ok || c.Member() != a.Member || c.OnMask() != a.OnMask {
		return false
	}
	c.Update(a.Shape)
	return true
}

func (EndDrawEllipse) Matches(live changes.Change) bool {
	_, ok := live.(*changes.DrawEllipse)
	return ok
}

func (a LinePen) CreateChange() changes.UpdateableChange {
	return changes.NewLinePen(a.Member, a.Color, a.Width, a.Point, a.OnMask)
}

func (a LinePen) Update(live changes.UpdateableChange) bool {
	c, ok := live.(*changes.LinePen)
	if !ok || c.Member() != a.Member || c.OnMask() != a.OnMask {
		return false
	}
	c.AddPoints(a.Point)
	return true
}

func (EndLinePen) Matches(live changes.Change) bool {
	_, ok := live.(*changes.LinePen)
	return ok
}

func (a PasteImage) CreateChange() changes.Change {
	src := a.Image
	if src == nil {
		src = image.NewRGBA(image.Rectangle{})
	}
	return changes.NewPasteImage(a.Member, a.Pos, src, a.OnMask)
}

func (a ClearLayer) CreateChange() changes.Change {
	return changes.NewClearLayer(a.Member, a.OnMask)
}

func (DrawRectangle) Name() string    { return "DrawRectangle" }
func (EndDrawRectangle) Name() string { return "EndDrawRectangle" }
func (DrawEllipse) Name() string      { return "DrawEllipse" }
func (EndDrawEllipse) Name() string   { return "EndDrawEllipse" }
func (LinePen) Name() string          { return "LinePen" }
func (EndLinePen) Name() string       { return "EndLinePen" }
func (PasteImage) Name() string       { return "PasteImage" }
func (ClearLayer) Name() string       { return "ClearLayer" }

func (DrawRectangle) isAction()    {}
func (EndDrawRectangle) isAction() {}
func (DrawEllipse) isAction()      {}
func (EndDrawEllipse) isAction()   {}
func (LinePen) isAction()          {}
func (EndLinePen) isAction()       {}
func (PasteImage) isAction()       {}
func (ClearLayer) isAction()       {}
