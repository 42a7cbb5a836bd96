package document

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/snapshot"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

func newDoc(t *testing.T) *Document {
	t.Helper()
	d, err := New(image.Pt(64, 64))
	require.NoError(t, err)
	t.Cleanup(d.Dispose)
	return d
}

func addLayer(t *testing.T, d *Document, parent ID, name string) ID {
	t.Helper()
	p, err := d.FindMemberOrFail(parent)
	require.NoError(t, err)
	m := NewLayer(NewID(), name, nil)
	require.NoError(t, d.InsertMember(parent, len(p.Children), m))
	return m.ID
}

func addFolder(t *testing.T, d *Document, parent ID, name string) ID {
	t.Helper()
	p, err := d.FindMemberOrFail(parent)
	require.NoError(t, err)
	m := NewFolder(NewID(), name)
	require.NoError(t, d.InsertMember(parent, len(p.Children), m))
	return m.ID
}

func paint(t *testing.T, img *tiled.Image, r image.Rectangle, c color.RGBA) {
	t.Helper()
	_, err := img.Draw(tiled.RectangleOperation{Rect: r, Fill: c})
	require.NoError(t, err)
	img.Commit()
}

func TestNewDocument(t *testing.T) {
	d := newDoc(t)
	assert.Equal(t, image.Pt(64, 64), d.Size())
	assert.True(t, d.Root().IsFolder())
	assert.Equal(t, 0, d.MemberCount())
	assert.True(t, d.Selection().IsEmptyAndInactive)

	_, err := New(image.Pt(0, 10))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestLookups(t *testing.T) {
	d := newDoc(t)
	folder := addFolder(t, d, d.RootID(), "F")
	layer := addLayer(t, d, folder, "L")

	m, parent, err := d.FindChildAndParent(layer)
	require.NoError(t, err)
	assert.Equal(t, "L", m.Name)
	assert.Equal(t, folder, parent.ID)

	_, _, err = d.FindChildAndParent(d.RootID())
	assert.ErrorIs(t, err, ErrRootMember)

	_, _, err = d.FindChildAndParent(NewID())
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = d.FindMemberOrFail(NewID())
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = d.FindLayerOrFail(folder)
	assert.ErrorIs(t, err, ErrNotLayer)

	assert.True(t, d.IsAncestor(folder, layer))
	assert.False(t, d.IsAncestor(layer, folder))
}

func TestInsertMemberErrors(t *testing.T) {
	d := newDoc(t)
	layer := addLayer(t, d, d.RootID(), "L")

	tests := []struct {
		name   string
		parent ID
		index  int
		member *Member
		want   error
	}{
		{"into layer", layer, 0, NewFolder(NewID(), "x"), ErrNotFolder},
		{"unknown parent", NewID(), 0, NewFolder(NewID(), "x"), ErrMemberNotFound},
		{"index too large", d.RootID(), 5, NewFolder(NewID(), "x"), ErrIndexOutOfRange},
		{"negative index", d.RootID(), -1, NewFolder(NewID(), "x"), ErrIndexOutOfRange},
		{"duplicate id", d.RootID(), 0, NewFolder(layer, "x"), ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.InsertMember(tt.parent, tt.index, tt.member)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, d.MemberCount())
		})
	}
}

func TestWalkOrder(t *testing.T) {
	d := newDoc(t)
	a := addLayer(t, d, d.RootID(), "a")
	f := addFolder(t, d, d.RootID(), "f")
	b := addLayer(t, d, f, "b")
	c := addLayer(t, d, d.RootID(), "c")

	var names []string
	var depths []int
	d.Walk(func(m *Member, depth int) bool {
		names = append(names, m.Name)
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{"a", "f", "b", "c"}, names)
	assert.Equal(t, []int{0, 0, 1, 0}, depths)

	var ids []ID
	for _, l := range d.Layers() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []ID{a, b, c}, ids)
}

func TestEffectiveOpacity(t *testing.T) {
	d := newDoc(t)
	outer := addFolder(t, d, d.RootID(), "outer")
	inner := addFolder(t, d, outer, "inner")
	layer := addLayer(t, d, inner, "L")

	tests := []struct {
		name              string
		outer, inner, own float64
		want              float64
	}{
		{"all opaque", 1, 1, 1, 1},
		{"product", 0.5, 0.5, 0.8, 0.2},
		{"own zero short-circuits", 1, 1, 0, 0},
		{"ancestor zero", 0, 1, 1, 0},
		{"clamped input", 2, 1, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, d.SetOpacity(outer, tt.outer))
			require.NoError(t, d.SetOpacity(inner, tt.inner))
			require.NoError(t, d.SetOpacity(layer, tt.own))
			got, err := d.EffectiveOpacity(layer)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEffectiveVisible(t *testing.T) {
	d := newDoc(t)
	f := addFolder(t, d, d.RootID(), "f")
	l := addLayer(t, d, f, "l")

	v, err := d.EffectiveVisible(l)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, d.SetVisible(f, false))
	v, err = d.EffectiveVisible(l)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMoveMember(t *testing.T) {
	d := newDoc(t)
	a := addLayer(t, d, d.RootID(), "a")
	b := addLayer(t, d, d.RootID(), "b")
	f := addFolder(t, d, d.RootID(), "f")

	require.NoError(t, d.MoveMember(a, d.RootID(), 2))
	assert.Equal(t, []ID{b, f, a}, d.Root().Children)

	require.NoError(t, d.MoveMember(b, f, 0))
	assert.Equal(t, []ID{f, a}, d.Root().Children)
	m, _ := d.FindMember(b)
	assert.Equal(t, f, m.Parent)

	assert.ErrorIs(t, d.MoveMember(f, f, 0), ErrCyclicMove)
	assert.ErrorIs(t, d.MoveMember(a, d.RootID(), 2), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.MoveMember(d.RootID(), f, 0), ErrRootMember)
}

func TestRemoveAndRestoreSubtree(t *testing.T) {
	d := newDoc(t)
	before := addLayer(t, d, d.RootID(), "before")
	f := addFolder(t, d, d.RootID(), "f")
	l1 := addLayer(t, d, f, "l1")
	l2 := addLayer(t, d, f, "l2")
	m1, _ := d.FindMember(l1)
	m2, _ := d.FindMember(l2)
	paint(t, m1.Image, image.Rect(0, 0, 10, 10), color.RGBA{R: 255, A: 255})
	paint(t, m2.Image, image.Rect(30, 30, 40, 40), color.RGBA{G: 255, A: 255})

	reference := d.Clone()
	defer reference.Dispose()

	sub, err := d.CaptureSubtree(f)
	require.NoError(t, err)
	defer sub.Dispose()
	assert.Equal(t, []ID{f, l1, l2}, sub.IDs())
	assert.Equal(t, 1, sub.Index())

	require.NoError(t, d.RemoveMember(f))
	assert.Equal(t, 1, d.MemberCount())
	assert.False(t, d.HasMember(l1))
	assert.Equal(t, []ID{before}, d.Root().Children)

	require.NoError(t, d.RestoreSubtree(sub))
	assert.True(t, Equal(reference, d))

	assert.ErrorIs(t, d.RestoreSubtree(sub), ErrDuplicateID)

	// The subtree is reusable after another removal.
	require.NoError(t, d.RemoveMember(f))
	require.NoError(t, d.RestoreSubtree(sub))
	assert.True(t, Equal(reference, d))
}

func TestCloneIsIndependent(t *testing.T) {
	d := newDoc(t)
	l := addLayer(t, d, d.RootID(), "l")
	c := d.Clone()
	defer c.Dispose()

	m, _ := d.FindMember(l)
	paint(t, m.Image, image.Rect(0, 0, 4, 4), color.RGBA{B: 255, A: 255})
	require.NoError(t, d.SetName(l, "renamed"))

	cm, _ := c.FindMember(l)
	assert.Equal(t, "l", cm.Name)
	assert.Equal(t, color.RGBA{}, cm.Image.CommittedPixel(image.Pt(1, 1)))
	assert.False(t, Equal(c, d))
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := newDoc(t)
	f := addFolder(t, d, d.RootID(), "f")
	l := addLayer(t, d, f, "l")
	require.NoError(t, d.SetOpacity(f, 0.25))
	m, _ := d.FindMember(l)
	paint(t, m.Image, image.Rect(20, 20, 50, 40), color.RGBA{R: 10, G: 20, B: 30, A: 255})
	_, err := d.SetMask(l, d.NewImage())
	require.NoError(t, err)
	paint(t, m.Mask, image.Rect(0, 0, 8, 8), color.RGBA{A: 255})
	paint(t, d.Selection().Image, image.Rect(0, 0, 16, 16), color.RGBA{A: 255})
	d.Selection().IsEmptyAndInactive = false
	d.SetSymmetry(tiled.Symmetry{VerticalEnabled: true, VerticalX: 20, HorizontalY: 32})

	var buf bytes.Buffer
	require.NoError(t, snapshot.Encode(&buf, d.Snapshot()))
	decoded, err := snapshot.Decode(&buf)
	require.NoError(t, err)

	restored, err := FromSnapshot(decoded)
	require.NoError(t, err)
	defer restored.Dispose()
	assert.True(t, Equal(d, restored))
}

func TestFromSnapshotRejectsBadTree(t *testing.T) {
	d := newDoc(t)
	addLayer(t, d, d.RootID(), "l")
	s := d.Snapshot()
	s.Members[1].Parent = NewID().String()

	_, err := FromSnapshot(s)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestFromSnapshotRejectsChunkOutsideCanvas(t *testing.T) {
	d := newDoc(t)
	l := addLayer(t, d, d.RootID(), "l")
	m, _ := d.FindMember(l)
	paint(t, m.Image, image.Rect(0, 0, 8, 8), color.RGBA{A: 255})
	s := d.Snapshot()
	require.Len(t, s.Members[1].Image.Chunks, 1)

	tests := []struct {
		name  string
		coord image.Point
	}{
		{"far right", image.Pt(500, 0)},
		{"negative", image.Pt(0, -7)},
		{"just past edge", image.Pt(2, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := d.Snapshot()
			s.Members[1].Image.Chunks[0].X = tt.coord.X
			s.Members[1].Image.Chunks[0].Y = tt.coord.Y

			pool := chunk.NewPool(0)
			_, err := FromSnapshot(s, WithPool(pool))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.ErrorIs(t, err, tiled.ErrChunkOutsideCanvas)
			assert.Equal(t, 0, pool.Stats().Live)
		})
	}
}

func TestFromSnapshotFailureReleasesChunks(t *testing.T) {
	d := newDoc(t)
	l := addLayer(t, d, d.RootID(), "l")
	m, _ := d.FindMember(l)
	paint(t, m.Image, image.Rect(0, 0, 64, 64), color.RGBA{G: 255, A: 255})
	s := d.Snapshot()
	s.Members = append(s.Members, s.Members[1])

	pool := chunk.NewPool(0)
	_, err := FromSnapshot(s, WithPool(pool))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 0, pool.Stats().Live)
}
