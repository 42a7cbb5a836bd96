package tiled

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter-ellipse arc.
const kappa = 0.5522847498

// EllipseOperation draws an ellipse inscribed in Rect with an optional stroke
// of StrokeWidth pixels inside its edge.
type EllipseOperation struct {
	Rect        image.Rectangle
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth int
}

// Bounds implements Operation.
func (op EllipseOperation) Bounds() image.Rectangle {
	return op.Rect.Canon()
}

// DrawOnChunk implements Operation.
func (op EllipseOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	r := op.Bounds()
	if r.Empty() {
		return
	}
	cx := float32(r.Min.X+r.Max.X)/2 - float32(origin.X)
	cy := float32(r.Min.Y+r.Max.Y)/2 - float32(origin.Y)
	rx, ry := float32(r.Dx())/2, float32(r.Dy())/2
	w := float32(max(op.StrokeWidth, 0))
	irx, iry := rx-w, ry-w
	hasInner := irx > 0 && iry > 0

	size := dst.Bounds().Size()
	if op.Fill.A > 0 && hasInner {
		z := vector.NewRasterizer(size.X, size.Y)
		z.DrawOp = draw.Over
		addEllipse(z, cx, cy, irx, iry, false)
		z.Draw(dst, dst.Bounds(), image.NewUniform(op.Fill), image.Point{})
	}
	if w == 0 || op.Stroke.A == 0 {
		return
	}
	z := vector.NewRasterizer(size.X, size.Y)
	z.DrawOp = draw.Over
	addEllipse(z, cx, cy, rx, ry, false)
	if hasInner {
		addEllipse(z, cx, cy, irx, iry, true)
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(op.Stroke), image.Point{})
}

// addEllipse appends a closed ellipse. Reversed ellipses wind the other way,
// so a reversed ellipse inside a forward one cuts a hole.
func addEllipse(z *vector.Rasterizer, cx, cy, rx, ry float32, reverse bool) {
	kx, ky := rx*kappa, ry*kappa
	if reverse {
		ry, ky = -ry, -ky
	}
	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	z.ClosePath()
}

// PathOperation strokes a polyline through the centers of Points with round
// joins and caps. When Closed is set the polygon is also filled with Fill.
type PathOperation struct {
	Points      []image.Point
	Closed      bool
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth int
}

// Bounds implements Operation.
func (op PathOperation) Bounds() image.Rectangle {
	if len(op.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: op.Points[0], Max: op.Points[0].Add(image.Pt(1, 1))}
	for _, p := range op.Points[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	pad := (max(op.StrokeWidth, 1) + 1) / 2
	return r.Inset(-pad)
}

// DrawOnChunk implements Operation.
func (op PathOperation) DrawOnChunk(dst *image.RGBA, origin image.Point) {
	if len(op.Points) == 0 {
		return
	}
	size := dst.Bounds().Size()
	pts := make([][2]float32, len(op.Points))
	for i, p := range op.Points {
		pts[i] = [2]float32{float32(p.X-origin.X) + 0.5, float32(p.Y-origin.Y) + 0.5}
	}

	if op.Closed && op.Fill.A > 0 && len(pts) > 2 {
		z := vector.NewRasterizer(size.X, size.Y)
		z.DrawOp = draw.Over
		z.MoveTo(pts[0][0], pts[0][1])
		for _, p := range pts[1:] {
			z.LineTo(p[0], p[1])
		}
		z.ClosePath()
		z.Draw(dst, dst.Bounds(), image.NewUniform(op.Fill), image.Point{})
	}
	if op.Stroke.A == 0 {
		return
	}

	half := float32(max(op.StrokeWidth, 1)) / 2
	z := vector.NewRasterizer(size.X, size.Y)
	z.DrawOp = draw.Over
	segments := len(pts) - 1
	if op.Closed && len(pts) > 2 {
		segments = len(pts)
	}
	for i := 0; i < segments; i++ {
		addSegment(z, pts[i], pts[(i+1)%len(pts)], half)
	}
	for _, p := range pts {
		addEllipse(z, p[0], p[1], half, half, true)
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(op.Stroke), image.Point{})
}

// addSegment appends the quad covering a thick line segment. Its winding
// matches reversed ellipses so joins do not cancel out.
func addSegment(z *vector.Rasterizer, a, b [2]float32, half float32) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*half, dx/length*half
	z.MoveTo(a[0]+nx, a[1]+ny)
	z.LineTo(b[0]+nx, b[1]+ny)
	z.LineTo(b[0]-nx, b[1]-ny)
	z.LineTo(a[0]-nx, a[1]-ny)
	z.ClosePath()
}
