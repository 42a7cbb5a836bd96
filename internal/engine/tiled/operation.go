package tiled

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Operation is a draw command that can be rasterized one chunk at a time.
type Operation interface {
	// Bounds returns the full-resolution pixel rectangle the operation may modify.
	Bounds() image.Rectangle

	// DrawOnChunk draws onto dst, a full-resolution chunk image whose pixel
	// (0,0) sits at origin in document space.
	DrawOnChunk(dst *image.RGBA, origin image.Point)
}

// RectangleOperation draws an axis-aligned rectangle with an optional stroke
// drawn inside its edge.
type RectangleOperation struct {
	Rect        image.Rectangle
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth int
}

// Bounds implements Operation.
func (op RectangleOperation) Bounds() image.Rectangle {
	return op.Rect.Canon()
}

// DrawOnChunk implements Operation.
func (op RectangleOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	rect := op.Bounds().Sub(origin)
	width := max(op.StrokeWidth, 0)
	inner := rect.Inset(width)
	if width == 0 {
		inner = rect
	}
	if op.Fill.A > 0 && !inner.Empty() {
		draw.Draw(dst, inner, image.NewUniform(op.Fill), image.Point{}, draw.Over)
	}
	if width == 0 || op.Stroke.A == 0 {
		return
	}
	stroke := image.NewUniform(op.Stroke)
	if inner.Empty() {
		draw.Draw(dst, rect, stroke, image.Point{}, draw.Over)
		return
	}
	for _, r := range []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, inner.Min.Y),
		image.Rect(rect.Min.X, inner.Max.Y, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, rect.Max.X, inner.Max.Y),
	} {
		draw.Draw(dst, r, stroke, image.Point{}, draw.Over)
	}
}

// ClearOperation makes a rectangle transparent.
type ClearOperation struct {
	Rect image.Rectangle
}

// Bounds implements Operation.
func (op ClearOperation) Bounds() image.Rectangle {
	return op.Rect.Canon()
}

// DrawOnChunk implements Operation.
func (op ClearOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	draw.Draw(dst, op.Bounds().Sub(origin), image.Transparent, image.Point{}, draw.Src)
}

// ImageOperation pastes a bitmap with its top-left corner at Pos.
type ImageOperation struct {
	Pos image.Point
	Src image.Image
	// Op is the compositing operator; the zero value is draw.Over.
	Op draw.Op
}

// Bounds implements Operation.
func (op ImageOperation) Bounds() image.Rectangle {
	b := op.Src.Bounds()
	return b.Sub(b.Min).Add(op.Pos)
}

// DrawOnChunk implements Operation.
func (op ImageOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	draw.Draw(dst, op.Bounds().Sub(origin), op.Src, op.Src.Bounds().Min, op.Op)
}
