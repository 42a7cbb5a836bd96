package changes

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// drawTarget is the pixel state shared by drawing changes: which image they
// paint on and the copy of it Revert restores from.
type drawTarget struct {
	member document.ID
	onMask bool

	before  *tiled.Image
	applied chunk.Set
}

func (t *drawTarget) image(doc *document.Document) (*tiled.Image, error) {
	m, err := doc.FindLayerOrFail(t.member)
	if err != nil {
		return nil, err
	}
	if !t.onMask {
		return m.Image, nil
	}
	if m.Mask == nil {
		return nil, fmt.Errorf("layer %s: %w", t.member, ErrNoMask)
	}
	return m.Mask, nil
}

func (t *drawTarget) init(doc *document.Document) error {
	img, err := t.image(doc)
	if err != nil {
		return err
	}
	t.before = img.Clone()
	return nil
}

func (t *drawTarget) info(set chunk.Set) changeinfo.Info {
	if t.onMask {
		return changeinfo.MaskChunks{Member: t.member, Chunks: set}
	}
	return changeinfo.LayerImageChunks{Member: t.member, Chunks: set}
}

// paint draws ops and their symmetry mirrors into the overlay of img,
// clipped to the active selection.
func paint(doc *document.Document, img *tiled.Image, ops []tiled.Operation) (chunk.Set, error) {
	if sel := doc.Selection(); sel.Active() {
		img.SetClip(sel.Image)
		defer img.ClearClip()
	}
	var all []tiled.Operation
	for _, op := range ops {
		all = append(all, tiled.Mirror(op, doc.Symmetry())...)
	}
	return img.DrawAll(all)
}

// preview replaces the previous temporary result with ops.
func (t *drawTarget) preview(c Change, doc *document.Document, ops []tiled.Operation) ([]changeinfo.Info, error) {
	if t.before == nil {
		return nil, ErrNotInitialized
	}
	img, err := t.image(doc)
	if err != nil {
		return nil, invariant(c, "apply temporarily", err)
	}
	dirty := img.Rollback()
	touched, err := paint(doc, img, ops)
	dirty.Union(touched)
	return []changeinfo.Info{t.info(dirty)}, err
}

// commit draws ops and folds them into committed storage. Nothing is
// committed when drawing fails.
func (t *drawTarget) commit(c Change, doc *document.Document, ops []tiled.Operation) ([]changeinfo.Info, bool, error) {
	if t.before == nil {
		return nil, false, ErrNotInitialized
	}
	img, err := t.image(doc)
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	dirty := img.Rollback()
	touched, err := paint(doc, img, ops)
	if err != nil {
		dirty.Union(img.Rollback())
		return []changeinfo.Info{t.info(dirty)}, false, err
	}
	img.Commit()
	t.applied = touched.Clone()
	dirty.Union(touched)
	if dirty.Len() == 0 {
		return nil, true, nil
	}
	return []changeinfo.Info{t.info(dirty)}, touched.Len() == 0, nil
}

// restore discards any preview and restores the chunks the last commit wrote.
func (t *drawTarget) restore(c Change, doc *document.Document) ([]changeinfo.Info, error) {
	if t.before == nil {
		return nil, ErrNotInitialized
	}
	img, err := t.image(doc)
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	dirty := img.Rollback()
	restored, err := img.RestoreChunksFrom(t.before, t.applied)
	if err != nil {
		return nil, invariant(c, "revert", err)
	}
	dirty.Union(restored)
	t.applied = nil
	return []changeinfo.Info{t.info(dirty)}, nil
}

func (t *drawTarget) dispose() {
	if t.before != nil {
		t.before.Dispose()
		t.before = nil
	}
}

// Shape holds the geometry and paint of a rectangle or ellipse.
type Shape struct {
	Rect        image.Rectangle
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth int
}

// DrawRectangle paints a rectangle on a layer or its mask.
type DrawRectangle struct {
	base
	target drawTarget
	shape  Shape
}

// NewDrawRectangle creates a rectangle change.
func NewDrawRectangle(member document.ID, shape Shape, onMask bool) *DrawRectangle {
	return &DrawRectangle{target: drawTarget{member: member, onMask: onMask}, shape: shape}
}

// Update replaces the shape; the next application uses it.
func (c *DrawRectangle) Update(shape Shape) {
	c.shape = shape
}

// Member returns the target layer.
func (c *DrawRectangle) Member() document.ID {
	return c.target.member
}

// OnMask reports whether the change draws on the layer mask.
func (c *DrawRectangle) OnMask() bool {
	return c.target.onMask
}

func (c *DrawRectangle) ops() []tiled.Operation {
	s := c.shape
	return []tiled.Operation{tiled.RectangleOperation{Rect: s.Rect, Fill: s.Fill, Stroke: s.Stroke, StrokeWidth: s.StrokeWidth}}
}

// Initialize implements Change.
func (c *DrawRectangle) Initialize(doc *document.Document) error {
	return c.target.init(doc)
}

// ApplyTemporarily implements UpdateableChange.
func (c *DrawRectangle) ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.preview(c, doc, c.ops())
}

// Apply implements Change.
func (c *DrawRectangle) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	return c.target.commit(c, doc, c.ops())
}

// Revert implements Change.
func (c *DrawRectangle) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.restore(c, doc)
}

// Dispose implements Change.
func (c *DrawRectangle) Dispose() {
	c.target.dispose()
}

// Description implements Change.
func (c *DrawRectangle) Description() string {
	return "Draw rectangle"
}

// DrawEllipse paints an ellipse inscribed in the shape rectangle.
type DrawEllipse struct {
	base
	target drawTarget
	shape  Shape
}

// NewDrawEllipse creates an ellipse change.
func NewDrawEllipse(member document.ID, shape Shape, onMask bool) *DrawEllipse {
	return &DrawEllipse{target: drawTarget{member: member, onMask: onMask}, shape: shape}
}

// Update replaces the shape.
func (c *DrawEllipse) Update(shape Shape) {
	c.shape = shape
}

// Member returns the target layer.
func (c *DrawEllipse) Member() document.ID {
	return c.target.member
}

// OnMask reports whether the change draws on the layer mask.
func (c *DrawEllipse) OnMask() bool {
	return c.target.onMask
}

func (c *DrawEllipse) ops() []tiled.Operation {
	s := c.shape
	return []tiled.Operation{tiled.EllipseOperation{Rect: s.Rect, Fill: s.Fill, Stroke: s.Stroke, StrokeWidth: s.StrokeWidth}}
}

// Initialize implements Change.
func (c *DrawEllipse) Initialize(doc *document.Document) error {
	return c.target.init(doc)
}

// ApplyTemporarily implements UpdateableChange.
func (c *DrawEllipse) ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.preview(c, doc, c.ops())
}

// Apply implements Change.
func (c *DrawEllipse) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	return c.target.commit(c, doc, c.ops())
}

// Revert implements Change.
func (c *DrawEllipse) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.restore(c, doc)
}

// Dispose implements Change.
func (c *DrawEllipse) Dispose() {
	c.target.dispose()
}

// Description implements Change.
func (c *DrawEllipse) Description() string {
	return "Draw ellipse"
}

// LinePen strokes a freehand polyline. Each update appends points.
type LinePen struct {
	base
	target drawTarget
	color  color.RGBA
	width  int
	points []image.Point
}

// NewLinePen creates a pen stroke starting at start.
func NewLinePen(member document.ID, c color.RGBA, width int, start image.Point, onMask bool) *LinePen {
	return &LinePen{
		target: drawTarget{member: member, onMask: onMask},
		color:  c,
		width:  width,
		points: []image.Point{start},
	}
}

// AddPoints extends the stroke.
func (c *LinePen) AddPoints(pts ...image.Point) {
	c.points = append(c.points, pts...)
}

// Points returns the stroke so far.
func (c *LinePen) Points() []image.Point {
	return append([]image.Point(nil), c.points...)
}

// Member returns the target layer.
func (c *LinePen) Member() document.ID {
	return c.target.member
}

// OnMask reports whether the change draws on the layer mask.
func (c *LinePen) OnMask() bool {
	return c.target.onMask
}

func (c *LinePen) ops() []tiled.Operation {
	return []tiled.Operation{tiled.PathOperation{Points: c.points, Stroke: c.color, StrokeWidth: c.width}}
}

// Initialize implements Change.
func (c *LinePen) Initialize(doc *document.Document) error {
	if c.width <= 0 {
		return fmt.Errorf("pen width %d: %w", c.width, ErrInvalidArgument)
	}
	return c.target.init(doc)
}

// ApplyTemporarily implements UpdateableChange.
func (c *LinePen) ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.preview(c, doc, c.ops())
}

// Apply implements Change.
func (c *LinePen) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	return c.target.commit(c, doc, c.ops())
}

// Revert implements Change.
func (c *LinePen) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.restore(c, doc)
}

// Dispose implements Change.
func (c *LinePen) Dispose() {
	c.target.dispose()
}

// Description implements Change.
func (c *LinePen) Description() string {
	return "Pen stroke"
}

// PasteImage composites a bitmap onto a layer.
type PasteImage struct {
	base
	target drawTarget
	pos    image.Point
	src    *image.RGBA
}

// NewPasteImage creates a paste change. src is copied.
func NewPasteImage(member document.ID, pos image.Point, src image.Image, onMask bool) *PasteImage {
	b := src.Bounds()
	cp := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(cp, cp.Bounds(), src, b.Min, draw.Src)
	return &PasteImage{target: drawTarget{member: member, onMask: onMask}, pos: pos, src: cp}
}

// Initialize implements Change.
func (c *PasteImage) Initialize(doc *document.Document) error {
	return c.target.init(doc)
}

// Apply implements Change.
func (c *PasteImage) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	return c.target.commit(c, doc, []tiled.Operation{tiled.ImageOperation{Pos: c.pos, Src: c.src, Op: draw.Over}})
}

// Revert implements Change.
func (c *PasteImage) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.restore(c, doc)
}

// Dispose implements Change.
func (c *PasteImage) Dispose() {
	c.target.dispose()
}

// Description implements Change.
func (c *PasteImage) Description() string {
	return "Paste image"
}

// ClearLayer makes every pixel of a layer (or its mask) transparent, honoring
// the selection.
type ClearLayer struct {
	base
	target drawTarget
}

// NewClearLayer creates a clear change.
func NewClearLayer(member document.ID, onMask bool) *ClearLayer {
	return &ClearLayer{target: drawTarget{member: member, onMask: onMask}}
}

// Initialize implements Change.
func (c *ClearLayer) Initialize(doc *document.Document) error {
	return c.target.init(doc)
}

// Apply implements Change.
func (c *ClearLayer) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.target.before == nil {
		return nil, false, ErrNotInitialized
	}
	img, err := c.target.image(doc)
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	if img.IsCommittedEmpty() {
		return nil, true, nil
	}
	var ops []tiled.Operation
	for _, coord := range img.CommittedCoords().Slice() {
		ops = append(ops, tiled.ClearOperation{Rect: chunk.Bounds(coord)})
	}
	if sel := doc.Selection(); sel.Active() {
		img.SetClip(sel.Image)
		defer img.ClearClip()
	}
	img.Rollback()
	touched, err := img.DrawAll(ops)
	if err != nil {
		img.Rollback()
		return nil, false, err
	}
	img.Commit()
	c.target.applied = touched.Clone()
	return []changeinfo.Info{c.target.info(touched)}, touched.Len() == 0, nil
}

// Revert implements Change.
func (c *ClearLayer) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	return c.target.restore(c, doc)
}

// Dispose implements Change.
func (c *ClearLayer) Dispose() {
	c.target.dispose()
}

// Description implements Change.
func (c *ClearLayer) Description() string {
	return "Clear layer"
}
