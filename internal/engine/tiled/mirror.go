package tiled

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
)

// Symmetry describes the active mirror axes of a document. Axis positions are
// pixel boundaries: a vertical axis at X mirrors column X-1 onto column X.
type Symmetry struct {
	HorizontalEnabled bool
	HorizontalY       int
	VerticalEnabled   bool
	VerticalX         int
}

// MirroredOperation draws Inner reflected across the enabled axes.
type MirroredOperation struct {
	Inner Operation
	FlipX bool
	AxisX int
	FlipY bool
	AxisY int
}

// Bounds implements Operation.
func (op MirroredOperation) Bounds() image.Rectangle {
	return op.mirror(op.Inner.Bounds())
}

func (op MirroredOperation) mirror(r image.Rectangle) image.Rectangle {
	if op.FlipX {
		r.Min.X, r.Max.X = 2*op.AxisX-r.Max.X, 2*op.AxisX-r.Min.X
	}
	if op.FlipY {
		r.Min.Y, r.Max.Y = 2*op.AxisY-r.Max.Y, 2*op.AxisY-r.Min.Y
	}
	return r
}

// DrawOnChunk implements Operation. The inner operation is rendered for the
// mirror image of the chunk area, flipped, and composited over dst.
func (op MirroredOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	area := image.Rectangle{Min: origin, Max: origin.Add(dst.Bounds().Size())}
	src := op.mirror(area)
	side := dst.Bounds().Dx()

	scratch := image.NewRGBA(image.Rect(0, 0, side, side))
	op.Inner.DrawOnChunk(scratch, src.Min)

	flipped := image.NewRGBA(scratch.Rect)
	for y := 0; y < side; y++ {
		sy := y
		if op.FlipY {
			sy = side - 1 - y
		}
		for x := 0; x < side; x++ {
			sx := x
			if op.FlipX {
				sx = side - 1 - x
			}
			flipped.SetRGBA(x, y, scratch.RGBAAt(sx, sy))
		}
	}
	draw.Draw(dst, dst.Bounds(), flipped, image.Point{}, draw.Over)
}

// Mirror returns op followed by its reflections across every enabled axis.
func Mirror(op Operation, s Symmetry) []Operation {
	ops := []Operation{op}
	if s.VerticalEnabled {
		ops = append(ops, MirroredOperation{Inner: op, FlipX: true, AxisX: s.VerticalX})
	}
	if s.HorizontalEnabled {
		ops = append(ops, MirroredOperation{Inner: op, FlipY: true, AxisY: s.HorizontalY})
	}
	if s.VerticalEnabled && s.HorizontalEnabled {
		ops = append(ops, MirroredOperation{
			Inner: op,
			FlipX: true, AxisX: s.VerticalX,
			FlipY: true, AxisY: s.HorizontalY,
		})
	}
	return ops
}

// DrawAll draws each operation in order and returns the union of touched
// chunks. It stops at the first error.
func (img *Image) DrawAll(ops []Operation) (chunk.Set, error) {
	touched := make(chunk.Set)
	for _, op := range ops {
		t, err := img.Draw(op)
		touched.Union(t)
		if err != nil {
			return touched, err
		}
	}
	return touched, nil
}
