package changes

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// fixture is a document with layer A at the root, folder F holding layers B
// and C, and a mask on C.
type fixture struct {
	doc     *document.Document
	a, f    document.ID
	b, c    document.ID
	initial *document.Document
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := document.New(image.Pt(64, 64))
	require.NoError(t, err)
	fx := &fixture{doc: doc}

	insert := func(parent document.ID, m *document.Member) document.ID {
		p, _ := doc.FindMember(parent)
		require.NoError(t, doc.InsertMember(parent, len(p.Children), m))
		return m.ID
	}
	fx.a = insert(doc.RootID(), document.NewLayer(document.NewID(), "A", nil))
	fx.f = insert(doc.RootID(), document.NewFolder(document.NewID(), "F"))
	fx.b = insert(fx.f, document.NewLayer(document.NewID(), "B", nil))
	fx.c = insert(fx.f, document.NewLayer(document.NewID(), "C", nil))

	a, _ := doc.FindMember(fx.a)
	fill(t, a.Image, image.Rect(0, 0, 20, 20), red)
	b, _ := doc.FindMember(fx.b)
	fill(t, b.Image, image.Rect(30, 30, 60, 50), green)
	c, _ := doc.FindMember(fx.c)
	_, err = doc.SetMask(fx.c, doc.NewImage())
	require.NoError(t, err)
	fill(t, c.Mask, image.Rect(0, 0, 64, 10), color.RGBA{A: 255})

	fx.initial = doc.Clone()
	t.Cleanup(func() {
		fx.initial.Dispose()
		doc.Dispose()
	})
	return fx
}

func fill(t *testing.T, img *tiled.Image, r image.Rectangle, c color.RGBA) {
	t.Helper()
	_, err := img.Draw(tiled.RectangleOperation{Rect: r, Fill: c})
	require.NoError(t, err)
	img.Commit()
}

func apply(t *testing.T, doc *document.Document, c Change) []changeinfo.Info {
	t.Helper()
	require.NoError(t, c.Initialize(doc))
	infos, ignore, err := c.Apply(doc, true)
	require.NoError(t, err)
	require.False(t, ignore, "change must be recorded")
	return infos
}

func TestUndoInverseAndRedo(t *testing.T) {
	tests := []struct {
		name string
		make func(fx *fixture) Change
	}{
		{"create layer", func(fx *fixture) Change {
			return &CreateMember{Parent: fx.doc.RootID(), Index: 1, Kind: document.KindLayer, Name: "new"}
		}},
		{"create folder", func(fx *fixture) Change {
			return &CreateMember{Parent: fx.f, Index: 0, Kind: document.KindFolder, Name: "sub"}
		}},
		{"delete folder", func(fx *fixture) Change { return &DeleteMember{ID: fx.f} }},
		{"delete layer", func(fx *fixture) Change { return &DeleteMember{ID: fx.a} }},
		{"move into folder", func(fx *fixture) Change { return &MoveMember{ID: fx.a, Parent: fx.f, Index: 1} }},
		{"move to root", func(fx *fixture) Change { return &MoveMember{ID: fx.c, Parent: fx.doc.RootID(), Index: 0} }},
		{"duplicate", func(fx *fixture) Change { return &DuplicateLayer{ID: fx.c} }},
		{"rename", func(fx *fixture) Change { return &SetName{ID: fx.a, Name: "renamed"} }},
		{"hide", func(fx *fixture) Change { return &SetVisibility{ID: fx.f, Visible: false} }},
		{"opacity", func(fx *fixture) Change { return &SetOpacity{ID: fx.b, Opacity: 0.3} }},
		{"create mask", func(fx *fixture) Change { return &CreateMask{ID: fx.a} }},
		{"delete mask", func(fx *fixture) Change { return &DeleteMask{ID: fx.c} }},
		{"rectangle", func(fx *fixture) Change {
			return NewDrawRectangle(fx.a, Shape{Rect: image.Rect(10, 10, 50, 40), Fill: blue, Stroke: green, StrokeWidth: 2}, false)
		}},
		{"ellipse on mask", func(fx *fixture) Change {
			return NewDrawEllipse(fx.c, Shape{Rect: image.Rect(5, 5, 60, 60), Fill: color.RGBA{A: 255}}, true)
		}},
		{"pen", func(fx *fixture) Change {
			p := NewLinePen(fx.b, red, 3, image.Pt(2, 2), false)
			p.AddPoints(image.Pt(40, 10), image.Pt(60, 60))
			return p
		}},
		{"paste", func(fx *fixture) Change {
			src := image.NewRGBA(image.Rect(0, 0, 40, 8))
			for i := range src.Pix {
				src.Pix[i] = 200
			}
			return NewPasteImage(fx.a, image.Pt(28, 28), src, false)
		}},
		{"clear layer", func(fx *fixture) Change { return NewClearLayer(fx.b, false) }},
		{"grow canvas", func(*fixture) Change { return &ResizeCanvas{Size: image.Pt(128, 64)} }},
		{"shrink canvas", func(*fixture) Change { return &ResizeCanvas{Size: image.Pt(40, 20)} }},
		{"select", func(*fixture) Change { return &SelectRectangle{Rect: image.Rect(4, 4, 40, 40)} }},
		{"symmetry on", func(*fixture) Change { return &SetSymmetryAxisState{Axis: changeinfo.AxisVertical, Enabled: true} }},
		{"symmetry move", func(*fixture) Change {
			return &SetSymmetryAxisPosition{Axis: changeinfo.AxisHorizontal, Position: 10}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			c := tt.make(fx)
			defer c.Dispose()

			apply(t, fx.doc, c)
			after := fx.doc.Clone()
			defer after.Dispose()
			assert.False(t, document.Equal(fx.initial, fx.doc), "apply must change the document")

			_, err := c.Revert(fx.doc)
			require.NoError(t, err)
			assert.True(t, document.Equal(fx.initial, fx.doc), "revert must restore the document")

			_, ignore, err := c.Apply(fx.doc, false)
			require.NoError(t, err)
			assert.False(t, ignore)
			assert.True(t, document.Equal(after, fx.doc), "redo must reproduce the first apply")

			_, err = c.Revert(fx.doc)
			require.NoError(t, err)
			assert.True(t, document.Equal(fx.initial, fx.doc))
		})
	}
}

func TestNoOpChangesAreIgnored(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		name string
		c    Change
	}{
		{"same name", &SetName{ID: fx.a, Name: "A"}},
		{"same visibility", &SetVisibility{ID: fx.a, Visible: true}},
		{"same opacity", &SetOpacity{ID: fx.a, Opacity: 1}},
		{"same position", &MoveMember{ID: fx.a, Parent: fx.doc.RootID(), Index: 0}},
		{"same size", &ResizeCanvas{Size: image.Pt(64, 64)}},
		{"empty rectangle", NewDrawRectangle(fx.a, Shape{Rect: image.Rect(5, 5, 5, 30), Fill: red}, false)},
		{"outside canvas", NewDrawRectangle(fx.a, Shape{Rect: image.Rect(70, 70, 90, 90), Fill: red}, false)},
		{"clear empty layer", NewClearLayer(fx.c, false)},
		{"deselect nothing", &ClearSelection{}},
		{"symmetry unchanged", &SetSymmetryAxisState{Axis: changeinfo.AxisHorizontal, Enabled: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.c.Dispose()
			require.NoError(t, tt.c.Initialize(fx.doc))
			_, ignore, err := tt.c.Apply(fx.doc, true)
			require.NoError(t, err)
			assert.True(t, ignore)
			assert.True(t, document.Equal(fx.initial, fx.doc))
		})
	}
}

func TestInitializeLookupFailures(t *testing.T) {
	fx := newFixture(t)
	missing := document.NewID()
	tests := []struct {
		name string
		c    Change
		want error
	}{
		{"rename", &SetName{ID: missing}, ErrMemberNotFound},
		{"delete", &DeleteMember{ID: missing}, ErrMemberNotFound},
		{"delete root", &DeleteMember{ID: fx.doc.RootID()}, document.ErrRootMember},
		{"draw", NewDrawRectangle(missing, Shape{}, false), ErrMemberNotFound},
		{"draw on folder", NewDrawRectangle(fx.f, Shape{}, false), document.ErrNotLayer},
		{"draw on missing mask", NewDrawRectangle(fx.a, Shape{}, true), ErrNoMask},
		{"create in layer", &CreateMember{Parent: fx.a}, document.ErrNotFolder},
		{"create duplicate id", &CreateMember{Parent: fx.doc.RootID(), ID: fx.b}, document.ErrDuplicateID},
		{"move into self", &MoveMember{ID: fx.f, Parent: fx.f}, document.ErrCyclicMove},
		{"mask twice", &CreateMask{ID: fx.c}, ErrMaskExists},
		{"no mask", &DeleteMask{ID: fx.a}, ErrNoMask},
		{"zero size", &ResizeCanvas{}, document.ErrInvalidSize},
		{"pen width", NewLinePen(fx.a, red, 0, image.Point{}, false), ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Initialize(fx.doc)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, document.Equal(fx.initial, fx.doc))
		})
	}
}

func TestInvariantViolation(t *testing.T) {
	fx := newFixture(t)
	c := NewDrawRectangle(fx.b, Shape{Rect: image.Rect(0, 0, 8, 8), Fill: red}, false)
	require.NoError(t, c.Initialize(fx.doc))
	defer c.Dispose()

	require.NoError(t, fx.doc.RemoveMember(fx.f))
	_, _, err := c.Apply(fx.doc, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	var ie *InvariantError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "apply", ie.Op)

	_, err = c.Revert(fx.doc)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestDrawRectangleReportsChunk(t *testing.T) {
	doc, err := document.New(image.Pt(64, 64))
	require.NoError(t, err)
	defer doc.Dispose()
	layer := document.NewLayer(document.NewID(), "L", nil)
	require.NoError(t, doc.InsertMember(doc.RootID(), 0, layer))

	c := NewDrawRectangle(layer.ID, Shape{Rect: image.Rect(0, 0, 32, 32), Fill: red}, false)
	defer c.Dispose()
	infos := apply(t, doc, c)
	require.Len(t, infos, 1)
	assert.Equal(t, changeinfo.LayerImageChunks{Member: layer.ID, Chunks: chunk.NewSet(image.Pt(0, 0))}, infos[0])
	assert.Equal(t, red, layer.Image.CommittedPixel(image.Pt(31, 31)))

	infos, err = c.Revert(doc)
	require.NoError(t, err)
	assert.Equal(t, changeinfo.LayerImageChunks{Member: layer.ID, Chunks: chunk.NewSet(image.Pt(0, 0))}, infos[0])
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			require.Equal(t, color.RGBA{}, layer.Image.CommittedPixel(image.Pt(x, y)))
		}
	}
}

func TestTemporaryUpdatesMatchDirectChange(t *testing.T) {
	final := Shape{Rect: image.Rect(4, 4, 50, 44), Fill: blue, Stroke: red, StrokeWidth: 3}

	interactive := newFixture(t)
	c := NewDrawEllipse(interactive.a, Shape{Rect: image.Rect(4, 4, 10, 10), Fill: blue}, false)
	defer c.Dispose()
	require.NoError(t, c.Initialize(interactive.doc))
	for _, r := range []image.Rectangle{image.Rect(4, 4, 20, 20), image.Rect(4, 4, 60, 60), final.Rect} {
		c.Update(Shape{Rect: r, Fill: final.Fill, Stroke: final.Stroke, StrokeWidth: final.StrokeWidth})
		_, err := c.ApplyTemporarily(interactive.doc)
		require.NoError(t, err)
	}
	assert.True(t, document.Equal(interactive.initial, interactive.doc), "previews must not reach committed state")
	_, ignore, err := c.Apply(interactive.doc, true)
	require.NoError(t, err)
	assert.False(t, ignore)

	direct := newFixture(t)
	d := NewDrawEllipse(direct.a, final, false)
	defer d.Dispose()
	apply(t, direct.doc, d)

	ia, _ := interactive.doc.FindMember(interactive.a)
	da, _ := direct.doc.FindMember(direct.a)
	assert.True(t, tiled.CommittedEqual(ia.Image, da.Image))

	_, err = c.Revert(interactive.doc)
	require.NoError(t, err)
	assert.True(t, document.Equal(interactive.initial, interactive.doc))
}

func TestRevertAfterTemporaryOnly(t *testing.T) {
	fx := newFixture(t)
	c := NewLinePen(fx.a, red, 2, image.Pt(0, 0), false)
	defer c.Dispose()
	require.NoError(t, c.Initialize(fx.doc))
	c.AddPoints(image.Pt(63, 63))
	_, err := c.ApplyTemporarily(fx.doc)
	require.NoError(t, err)

	a, _ := fx.doc.FindMember(fx.a)
	assert.True(t, a.Image.HasUncommitted())

	_, err = c.Revert(fx.doc)
	require.NoError(t, err)
	assert.False(t, a.Image.HasUncommitted())
	assert.True(t, document.Equal(fx.initial, fx.doc))
}

func TestDirtySetSoundness(t *testing.T) {
	fx := newFixture(t)
	a, _ := fx.doc.FindMember(fx.a)
	before := a.Image.ExportChunks()

	c := NewLinePen(fx.a, blue, 4, image.Pt(1, 60), false)
	c.AddPoints(image.Pt(60, 1), image.Pt(33, 33))
	defer c.Dispose()
	infos := apply(t, fx.doc, c)

	reported := chunk.Set(nil)
	for _, info := range infos {
		if set, ok := changeinfo.DirtyChunks(info); ok {
			reported = reported.Union(set)
		}
	}
	after := a.Image.ExportChunks()
	for coord, pix := range after {
		if string(before[coord]) != string(pix) {
			assert.True(t, reported.Contains(coord), "chunk %v changed but was not reported", coord)
		}
	}
}

func TestDeleteFolderRestoresLayers(t *testing.T) {
	fx := newFixture(t)
	c := &DeleteMember{ID: fx.f}
	defer c.Dispose()
	infos := apply(t, fx.doc, c)
	assert.Len(t, infos, 3)
	assert.False(t, fx.doc.HasMember(fx.b))
	assert.False(t, fx.doc.HasMember(fx.c))

	infos, err := c.Revert(fx.doc)
	require.NoError(t, err)
	assert.Equal(t, changeinfo.CreateMember{Member: fx.f, Parent: fx.doc.RootID(), Index: 1, MemberKind: document.KindFolder}, infos[0])

	f, _ := fx.doc.FindMember(fx.f)
	assert.Equal(t, []document.ID{fx.b, fx.c}, f.Children)
	b, _ := fx.doc.FindMember(fx.b)
	assert.Equal(t, green, b.Image.CommittedPixel(image.Pt(40, 40)))
	assert.True(t, document.Equal(fx.initial, fx.doc))
}

func TestResizeKeepsOverlappingBytes(t *testing.T) {
	fx := newFixture(t)
	b, _ := fx.doc.FindMember(fx.b)
	before := b.Image.ExportChunks()

	c := &ResizeCanvas{Size: image.Pt(128, 64)}
	defer c.Dispose()
	infos := apply(t, fx.doc, c)
	assert.Equal(t, []changeinfo.Info{changeinfo.Size{Size: image.Pt(128, 64)}}, infos)

	after := b.Image.ExportChunks()
	for coord, pix := range before {
		assert.Equal(t, pix, after[coord])
	}
	assert.Equal(t, color.RGBA{}, b.Image.CommittedPixel(image.Pt(100, 40)))
	assert.Equal(t, image.Pt(128, 64), fx.doc.Selection().Image.Size())
}

func TestShrinkClampsSymmetry(t *testing.T) {
	fx := newFixture(t)
	c := &ResizeCanvas{Size: image.Pt(16, 16)}
	defer c.Dispose()
	apply(t, fx.doc, c)
	s := fx.doc.Symmetry()
	assert.Equal(t, 16, s.HorizontalY)
	assert.Equal(t, 16, s.VerticalX)
}

func TestSelectionClipsDrawing(t *testing.T) {
	fx := newFixture(t)
	sel := &SelectRectangle{Rect: image.Rect(0, 0, 10, 10)}
	defer sel.Dispose()
	apply(t, fx.doc, sel)
	assert.True(t, fx.doc.Selection().Active())

	rect := NewDrawRectangle(fx.b, Shape{Rect: image.Rect(0, 0, 64, 64), Fill: blue}, false)
	defer rect.Dispose()
	apply(t, fx.doc, rect)

	b, _ := fx.doc.FindMember(fx.b)
	assert.Equal(t, blue, b.Image.CommittedPixel(image.Pt(5, 5)))
	assert.Equal(t, green, b.Image.CommittedPixel(image.Pt(40, 40)))

	deselect := &ClearSelection{}
	defer deselect.Dispose()
	apply(t, fx.doc, deselect)
	assert.False(t, fx.doc.Selection().Active())
	assert.True(t, fx.doc.Selection().Image.IsCommittedEmpty())
}

func TestSymmetryMirrorsDrawing(t *testing.T) {
	fx := newFixture(t)
	on := &SetSymmetryAxisState{Axis: changeinfo.AxisVertical, Enabled: true}
	defer on.Dispose()
	apply(t, fx.doc, on)

	c := NewDrawRectangle(fx.c, Shape{Rect: image.Rect(0, 40, 4, 44), Fill: red}, false)
	defer c.Dispose()
	apply(t, fx.doc, c)

	m, _ := fx.doc.FindMember(fx.c)
	assert.Equal(t, red, m.Image.CommittedPixel(image.Pt(1, 41)))
	assert.Equal(t, red, m.Image.CommittedPixel(image.Pt(62, 41)))
}

func TestOpacityMergeability(t *testing.T) {
	fx := newFixture(t)
	a := &SetOpacity{ID: fx.a, Opacity: 0.5}
	b := &SetOpacity{ID: fx.a, Opacity: 0.7}
	other := &SetOpacity{ID: fx.b, Opacity: 0.7}
	assert.True(t, a.IsMergeableWith(b))
	assert.False(t, a.IsMergeableWith(other))
	assert.False(t, a.IsMergeableWith(&SetName{ID: fx.a}))
	assert.False(t, (&SetName{ID: fx.a}).IsMergeableWith(&SetName{ID: fx.a}))
}

func TestApplyBeforeInitialize(t *testing.T) {
	fx := newFixture(t)
	_, _, err := NewDrawRectangle(fx.a, Shape{}, false).Apply(fx.doc, true)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = (&SetName{ID: fx.a}).Apply(fx.doc, true)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
