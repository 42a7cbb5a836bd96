package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/rasterdoc/internal/engine/action"
	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/history"
	"github.com/dshills/rasterdoc/internal/event"
)

var red = color.RGBA{R: 255, A: 255}

func newTestTracker(t *testing.T, size image.Point, opts ...Option) *Tracker {
	t.Helper()
	tr, err := New(size, opts...)
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr
}

func process(t *testing.T, tr *Tracker, actions ...action.Action) []changeinfo.Info {
	t.Helper()
	infos, err := tr.ProcessActions(context.Background(), actions...)
	require.NoError(t, err)
	return infos
}

func createLayer(t *testing.T, tr *Tracker, parent document.ID, name string) document.ID {
	t.Helper()
	id := document.NewID()
	p, ok := tr.Document().FindMember(parent)
	require.True(t, ok)
	process(t, tr, action.CreateMember{Parent: parent, Index: len(p.Children), ID: id, Kind: document.KindLayer, MemberName: name})
	return id
}

func solid(size image.Point, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func rect(n int) action.DrawRectangle {
	return action.DrawRectangle{Shape: changes.Shape{Rect: image.Rect(0, 0, n, n), Fill: red}}
}

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(image.Pt(0, 10))
	assert.ErrorIs(t, err, document.ErrInvalidSize)
}

func TestDrawInteractionIsOneEntry(t *testing.T) {
	tr := newTestTracker(t, image.Pt(64, 64))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	require.Equal(t, 1, tr.Stats().UndoDepth)

	var updates []action.Action
	for _, n := range []int{10, 20, 40} {
		a := rect(n)
		a.Member = layer
		updates = append(updates, a)
	}
	process(t, tr, updates...)

	stats := tr.Stats()
	assert.Equal(t, "Draw rectangle", stats.LiveChange)
	assert.Equal(t, 1, stats.UndoDepth, "previews are not recorded")

	infos := process(t, tr, action.EndDrawRectangle{})
	require.NotEmpty(t, infos)
	dirty, ok := changeinfo.DirtyChunks(infos[0])
	require.True(t, ok)
	assert.True(t, dirty.IsSuperset(chunk.NewSet(image.Pt(0, 0), image.Pt(1, 1))))

	m, _ := tr.Document().FindMember(layer)
	assert.Equal(t, red, m.Image.CommittedPixel(image.Pt(39, 39)))
	assert.Equal(t, 2, tr.Stats().UndoDepth)
	assert.Empty(t, tr.Stats().LiveChange)

	process(t, tr, action.Undo{})
	assert.True(t, m.Image.IsCommittedEmpty())
	assert.False(t, m.Image.HasUncommitted())
	assert.Equal(t, 1, tr.Stats().UndoDepth)
	assert.Equal(t, 1, tr.Stats().RedoDepth)

	process(t, tr, action.Redo{})
	assert.Equal(t, red, m.Image.CommittedPixel(image.Pt(39, 39)))
}

func TestOpacityChangesMerge(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")

	process(t, tr, action.SetOpacity{ID: layer, Opacity: 0.5})
	process(t, tr, action.SetOpacity{ID: layer, Opacity: 0.7})
	assert.Equal(t, 2, tr.Stats().UndoDepth, "create plus one merged opacity entry")

	m, _ := tr.Document().FindMember(layer)
	process(t, tr, action.Undo{})
	assert.InDelta(t, 1.0, m.Opacity, 1e-9)
	assert.True(t, tr.Document().(*document.Document).HasMember(layer))
}

func TestUndoDeleteFolderRestoresLayers(t *testing.T) {
	tr := newTestTracker(t, image.Pt(64, 64))
	root := tr.Document().RootID()
	folder := document.NewID()
	process(t, tr, action.CreateMember{Parent: root, ID: folder, Kind: document.KindFolder, MemberName: "F"})
	b := createLayer(t, tr, folder, "B")
	c := createLayer(t, tr, folder, "C")
	process(t, tr,
		action.PasteImage{Member: b, Pos: image.Pt(5, 5), Image: solid(image.Pt(40, 10), red)},
		action.PasteImage{Member: c, Pos: image.Pt(33, 33), Image: solid(image.Pt(4, 4), red)},
	)
	before := tr.doc.Clone()
	defer before.Dispose()

	infos := process(t, tr, action.DeleteMember{ID: folder})
	assert.Equal(t, []string{"delete_member", "delete_member", "delete_member"}, changeinfo.Kinds(infos))
	assert.False(t, tr.doc.HasMember(b))

	process(t, tr, action.Undo{})
	assert.True(t, document.Equal(before, tr.doc))

	f, _ := tr.Document().FindMember(folder)
	assert.Equal(t, []document.ID{b, c}, f.Children)
}

func TestUsageErrorsLeaveDocumentUntouched(t *testing.T) {
	tr := newTestTracker(t, image.Pt(64, 64))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")

	_, err := tr.ProcessActions(context.Background(), action.EndDrawRectangle{})
	assert.ErrorIs(t, err, ErrNoActiveChange)

	start := rect(8)
	start.Member = layer
	process(t, tr, start)
	before := tr.Stats()

	tests := []struct {
		name string
		act  action.Action
		want error
	}{
		{"one-shot while live", action.SetName{ID: layer, MemberName: "x"}, ErrChangeInProgress},
		{"other interaction", action.SelectRectangle{Rect: image.Rect(0, 0, 4, 4)}, ErrChangeInProgress},
		{"switch to mask", action.DrawRectangle{Member: layer, Shape: changes.Shape{Rect: image.Rect(0, 0, 4, 4), Fill: red}, OnMask: true}, ErrChangeInProgress},
		{"undo while live", action.Undo{}, ErrChangeInProgress},
		{"redo while live", action.Redo{}, ErrChangeInProgress},
		{"clear while live", action.DeleteRecordedChanges{}, ErrChangeInProgress},
		{"wrong end", action.EndDrawEllipse{}, ErrChangeTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.ProcessActions(context.Background(), tt.act)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsUsageError(err))

			var aerr *ActionError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, 0, aerr.Index)
			assert.Equal(t, before, tr.Stats())
		})
	}

	m, _ := tr.Document().FindMember(layer)
	assert.Equal(t, "L", m.Name)
	assert.True(t, tr.Healthy())
}

func TestLookupFailureStopsBatch(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")

	infos, err := tr.ProcessActions(context.Background(),
		action.SetName{ID: layer, MemberName: "renamed"},
		action.SetName{ID: document.NewID(), MemberName: "ghost"},
		action.SetName{ID: layer, MemberName: "never"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrMemberNotFound)
	assert.False(t, IsUsageError(err))

	var aerr *ActionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Index)
	assert.Equal(t, []string{"member_name"}, changeinfo.Kinds(infos))

	m, _ := tr.Document().FindMember(layer)
	assert.Equal(t, "renamed", m.Name)
	assert.True(t, tr.Healthy())
}

func TestInvariantViolationIsSticky(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	process(t, tr, action.ChangeBoundary{}, action.SetName{ID: layer, MemberName: "renamed"})

	// Bypass the tracker so the recorded rename targets a missing member.
	require.NoError(t, tr.doc.RemoveMember(layer))

	_, err := tr.ProcessActions(context.Background(), action.Undo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, changes.ErrInvariantViolation)
	assert.False(t, tr.Healthy())
	assert.False(t, tr.Stats().Healthy)
	assert.ErrorIs(t, tr.Violation(), changes.ErrInvariantViolation)

	_, err = tr.ProcessActions(context.Background(), action.Redo{})
	assert.ErrorIs(t, err, ErrUnhealthy)

	process(t, tr, action.DeleteRecordedChanges{})
	assert.True(t, tr.Healthy())
	assert.Equal(t, 0, tr.Stats().UndoDepth)

	createLayer(t, tr, tr.Document().RootID(), "again")
	assert.Equal(t, 1, tr.Stats().UndoDepth)
}

func TestResetHistoryDropsLiveChange(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	start := rect(16)
	start.Member = layer
	process(t, tr, start)

	tr.ResetHistory()
	stats := tr.Stats()
	assert.Empty(t, stats.LiveChange)
	assert.Equal(t, 0, stats.UndoDepth)

	m, _ := tr.Document().FindMember(layer)
	assert.False(t, m.Image.HasUncommitted())
	assert.True(t, m.Image.IsCommittedEmpty())
}

func TestAbortInteraction(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	_, err := tr.AbortInteraction(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveChange)

	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	start := rect(16)
	start.Member = layer
	process(t, tr, start)

	infos, err := tr.AbortInteraction(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, infos)
	m, _ := tr.Document().FindMember(layer)
	assert.False(t, m.Image.HasUncommitted())
	assert.Equal(t, 1, tr.Stats().UndoDepth)
}

func TestUndoRedoOnEmptyHistory(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	infos, err := tr.ProcessActions(context.Background(), action.Undo{}, action.Redo{})
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestNewChangeClearsRedo(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	process(t, tr, action.SetVisibility{ID: layer, Visible: false}, action.Undo{})
	require.Equal(t, 1, tr.Stats().RedoDepth)

	process(t, tr, action.SetName{ID: layer, MemberName: "x"})
	assert.Equal(t, 0, tr.Stats().RedoDepth)
	assert.Len(t, tr.UndoInfo(), 2)
	assert.Empty(t, tr.RedoInfo())
}

func TestNoOpChangeIsNotRecorded(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	process(t, tr, action.SetName{ID: layer, MemberName: "L"})
	assert.Equal(t, 1, tr.Stats().UndoDepth)
}

func TestManualBoundaries(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32), WithManualBoundaries())
	root := tr.Document().RootID()

	process(t, tr,
		action.CreateMember{Parent: root, Kind: document.KindLayer, MemberName: "A"},
		action.CreateMember{Parent: root, Kind: document.KindLayer, MemberName: "B"},
	)
	assert.True(t, tr.Stats().OpenPacket)
	process(t, tr, action.ChangeBoundary{})
	assert.False(t, tr.Stats().OpenPacket)
	require.Equal(t, 1, tr.Stats().UndoDepth)

	process(t, tr, action.Undo{})
	assert.Equal(t, 0, tr.Document().MemberCount())
}

func TestChunkBudgetFailureEndsInteraction(t *testing.T) {
	tr := newTestTracker(t, image.Pt(128, 128), WithChunkBudget(4))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")

	start := rect(128)
	start.Member = layer
	_, err := tr.ProcessActions(context.Background(), start)
	require.Error(t, err)
	assert.ErrorIs(t, err, chunk.ErrChunkBudgetExceeded)

	stats := tr.Stats()
	assert.Empty(t, stats.LiveChange)
	assert.Equal(t, 0, stats.PoolLive)
	assert.True(t, stats.Healthy)

	m, _ := tr.Document().FindMember(layer)
	assert.True(t, m.Image.IsCommittedEmpty())
}

func TestCancelledContext(t *testing.T) {
	tr := newTestTracker(t, image.Pt(32, 32))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.ProcessActions(ctx, action.CreateMember{Parent: tr.Document().RootID(), Kind: document.KindLayer})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tr.Document().MemberCount())
}

func TestPublishesEvents(t *testing.T) {
	bus := event.NewBus()
	var batches [][]changeinfo.Info
	var undone []history.OperationInfo
	_, err := bus.Subscribe(event.TopicChangeInfo, func(_ context.Context, ev event.Event) error {
		infos, ok := event.PayloadAs[[]changeinfo.Info](ev)
		require.True(t, ok)
		batches = append(batches, infos)
		return nil
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(event.TopicUndo, func(_ context.Context, ev event.Event) error {
		op, ok := event.PayloadAs[history.OperationInfo](ev)
		require.True(t, ok)
		undone = append(undone, op)
		return errors.New("subscriber failures are only logged")
	})
	require.NoError(t, err)

	tr := newTestTracker(t, image.Pt(32, 32), WithBus(bus))
	createLayer(t, tr, tr.Document().RootID(), "L")
	process(t, tr, action.Undo{})

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"create_member"}, changeinfo.Kinds(batches[0]))
	assert.Equal(t, []string{"delete_member"}, changeinfo.Kinds(batches[1]))
	require.Len(t, undone, 1)
	assert.Equal(t, 1, undone[0].Changes)
}

func TestSnapshotRoundTrip(t *testing.T) {
	tr := newTestTracker(t, image.Pt(64, 64))
	layer := createLayer(t, tr, tr.Document().RootID(), "L")
	process(t, tr, action.PasteImage{Member: layer, Pos: image.Pt(30, 30), Image: solid(image.Pt(8, 8), red)})

	restored, err := NewFromSnapshot(tr.Snapshot())
	require.NoError(t, err)
	defer restored.Close()

	assert.True(t, document.Equal(tr.doc, restored.doc))
	assert.Equal(t, 0, restored.Stats().UndoDepth)
}
