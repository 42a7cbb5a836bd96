package action

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

func TestStartOrUpdateMatchesSubtype(t *testing.T) {
	layer := document.NewID()
	rect := DrawRectangle{Member: layer, Shape: changes.Shape{Rect: image.Rect(0, 0, 4, 4)}}
	ellipse := DrawEllipse{Member: layer}

	live := rect.CreateChange()
	assert.IsType(t, &changes.DrawRectangle{}, live)
	assert.True(t, rect.Update(live))
	assert.False(t, ellipse.Update(live))
	assert.False(t, DrawRectangle{Member: document.NewID()}.Update(live), "different layer is a different interaction")
	assert.False(t, DrawRectangle{Member: layer, OnMask: true}.Update(live), "mask target is a different interaction")

	assert.True(t, EndDrawRectangle{}.Matches(live))
	assert.False(t, EndDrawEllipse{}.Matches(live))
	assert.False(t, EndLinePen{}.Matches(live))
}

func TestLinePenUpdateAppends(t *testing.T) {
	layer := document.NewID()
	start := LinePen{Member: layer, Color: color.RGBA{A: 255}, Width: 2, Point: image.Pt(1, 1)}
	live := start.CreateChange()
	assert.True(t, LinePen{Member: layer, Point: image.Pt(5, 5)}.Update(live))
	assert.Equal(t, []image.Point{{1, 1}, {5, 5}}, live.(*changes.LinePen).Points())
	assert.False(t, LinePen{Member: layer, Point: image.Pt(9, 9), OnMask: true}.Update(live))
	assert.Len(t, live.(*changes.LinePen).Points(), 2)
}

func TestDrawUpdateKeepsTarget(t *testing.T) {
	layer := document.NewID()
	tests := []struct {
		name   string
		start  StartOrUpdate
		update StartOrUpdate
	}{
		{"rectangle to mask", DrawRectangle{Member: layer}, DrawRectangle{Member: layer, OnMask: true}},
		{"rectangle to layer", DrawRectangle{Member: layer, OnMask: true}, DrawRectangle{Member: layer}},
		{"ellipse to mask", DrawEllipse{Member: layer}, DrawEllipse{Member: layer, OnMask: true}},
		{"pen to mask", LinePen{Member: layer, Width: 1}, LinePen{Member: layer, Width: 1, OnMask: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := tt.start.CreateChange()
			assert.True(t, tt.start.Update(live))
			assert.False(t, tt.update.Update(live))
		})
	}
}

func TestSymmetryAxisUpdate(t *testing.T) {
	a := SetSymmetryAxisPosition{Axis: changeinfo.AxisVertical, Position: 3}
	live := a.CreateChange()
	assert.True(t, SetSymmetryAxisPosition{Axis: changeinfo.AxisVertical, Position: 9}.Update(live))
	assert.Equal(t, 9, live.(*changes.SetSymmetryAxisPosition).Position)
	assert.False(t, SetSymmetryAxisPosition{Axis: changeinfo.AxisHorizontal}.Update(live))
}

func TestMakeChangeTypes(t *testing.T) {
	id := document.NewID()
	tests := []struct {
		action MakeChange
		want   changes.Change
	}{
		{SetOpacity{ID: id, Opacity: 0.5}, &changes.SetOpacity{ID: id, Opacity: 0.5}},
		{DeleteMember{ID: id}, &changes.DeleteMember{ID: id}},
		{ResizeCanvas{Size: image.Pt(8, 8)}, &changes.ResizeCanvas{Size: image.Pt(8, 8)}},
		{ClearSelection{}, &changes.ClearSelection{}},
		{SetName{ID: id, MemberName: "sky"}, &changes.SetName{ID: id, Name: "sky"}},
		{
			CreateMember{Parent: id, Index: 2, Kind: document.KindFolder, MemberName: "group"},
			&changes.CreateMember{Parent: id, Index: 2, Kind: document.KindFolder, Name: "group"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.action.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.CreateChange())
		})
	}
}
