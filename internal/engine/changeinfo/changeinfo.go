// Package changeinfo describes what a change did to a document.
//
// Infos are immutable values produced by Apply and Revert and consumed by
// renderers to redraw only what changed. The set of variants is closed: every
// type implementing Info is declared in this package.
package changeinfo

import (
	"fmt"
	"image"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// Info is one change notification.
type Info interface {
	// Kind returns a short, stable name for the variant.
	Kind() string
	String() string
	sealed()
}

// LayerImageChunks reports dirty chunks of a layer image.
type LayerImageChunks struct {
	Member document.ID
	Chunks chunk.Set
}

// MaskChunks reports dirty chunks of a layer mask.
type MaskChunks struct {
	Member document.ID
	Chunks chunk.Set
}

// CreateMember reports a new member; folders are followed by infos for
// their children.
type CreateMember struct {
	Member     document.ID
	Parent     document.ID
	Index      int
	MemberKind document.Kind
}

// DeleteMember reports a removed member and its descendants.
type DeleteMember struct {
	Member document.ID
	Parent document.ID
}

// MoveMember reports a member that changed position.
type MoveMember struct {
	Member    document.ID
	OldParent document.ID
	NewParent document.ID
	NewIndex  int
}

// MemberName reports a rename.
type MemberName struct {
	Member document.ID
	Name   string
}

// MemberVisibility reports a visibility change.
type MemberVisibility struct {
	Member  document.ID
	Visible bool
}

// MemberOpacity reports an opacity change.
type MemberOpacity struct {
	Member  document.ID
	Opacity float64
}

// MemberMask reports that a mask was added to or removed from a layer.
type MemberMask struct {
	Member  document.ID
	HasMask bool
}

// Selection reports dirty chunks of the selection mask.
type Selection struct {
	Chunks chunk.Set
}

// Size reports a canvas resize. Every chunk must be considered dirty.
type Size struct {
	Size image.Point
}

// Axis names a symmetry axis.
type Axis uint8

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) String() string {
	if a == AxisVertical {
		return "vertical"
	}
	return "horizontal"
}

// SymmetryAxisState reports an axis being enabled or disabled.
type SymmetryAxisState struct {
	Axis    Axis
	Enabled bool
}

// SymmetryAxisPosition reports an axis being moved.
type SymmetryAxisPosition struct {
	Axis     Axis
	Position int
}

func (LayerImageChunks) sealed()     {}
func (MaskChunks) sealed()           {}
func (CreateMember) sealed()         {}
func (DeleteMember) sealed()         {}
func (MoveMember) sealed()           {}
func (MemberName) sealed()           {}
func (MemberVisibility) sealed()     {}
func (MemberOpacity) sealed()        {}
func (MemberMask) sealed()           {}
func (Selection) sealed()            {}
func (Size) sealed()                 {}
func (SymmetryAxisState) sealed()    {}
func (SymmetryAxisPosition) sealed() {}

func (LayerImageChunks) Kind() string     { return "layer_image_chunks" }
func (MaskChunks) Kind() string           { return "mask_chunks" }
func (CreateMember) Kind() string         { return "create_member" }
func (DeleteMember) Kind() string         { return "delete_member" }
func (MoveMember) Kind() string           { return "move_member" }
func (MemberName) Kind() string           { return "member_name" }
func (MemberVisibility) Kind() string     { return "member_visibility" }
func (MemberOpacity) Kind() string        { return "member_opacity" }
func (MemberMask) Kind() string           { return "member_mask" }
func (Selection) Kind() string            { return "selection" }
func (Size) Kind() string                 { return "size" }
func (SymmetryAxisState) Kind() string    { return "symmetry_axis_state" }
func (SymmetryAxisPosition) Kind() string { return "symmetry_axis_position" }

func (i LayerImageChunks) String() string {
	return fmt.Sprintf("layer %s: %d chunks", i.Member, i.Chunks.Len())
}

func (i MaskChunks) String() string {
	return fmt.Sprintf("mask %s: %d chunks", i.Member, i.Chunks.Len())
}

func (i CreateMember) String() string {
	return fmt.Sprintf("create %s %s in %s at %d", i.MemberKind, i.Member, i.Parent, i.Index)
}

func (i DeleteMember) String() string {
	return fmt.Sprintf("delete %s from %s", i.Member, i.Parent)
}

func (i MoveMember) String() string {
	return fmt.Sprintf("move %s to %s at %d", i.Member, i.NewParent, i.NewIndex)
}

func (i MemberName) String() string {
	return fmt.Sprintf("rename %s to %q", i.Member, i.Name)
}

func (i MemberVisibility) String() string {
	return fmt.Sprintf("visibility %s: %t", i.Member, i.Visible)
}

func (i MemberOpacity) String() string {
	return fmt.Sprintf("opacity %s: %.3f", i.Member, i.Opacity)
}

func (i MemberMask) String() string {
	return fmt.Sprintf("mask %s: %t", i.Member, i.HasMask)
}

func (i Selection) String() string {
	return fmt.Sprintf("selection: %d chunks", i.Chunks.Len())
}

func (i Size) String() string {
	return fmt.Sprintf("size %dx%d", i.Size.X, i.Size.Y)
}

func (i SymmetryAxisState) String() string {
	return fmt.Sprintf("symmetry %s: %t", i.Axis, i.Enabled)
}

func (i SymmetryAxisPosition) String() string {
	return fmt.Sprintf("symmetry %s at %d", i.Axis, i.Position)
}

// DirtyChunks returns the chunk set carried by info, if any.
func DirtyChunks(info Info) (chunk.Set, bool) {
	switch i := info.(type) {
	case LayerImageChunks:
		return i.Chunks, true
	case MaskChunks:
		return i.Chunks, true
	case Selection:
		return i.Chunks, true
	}
	return nil, false
}

// Kinds returns the Kind of each info, for logging.
func Kinds(infos []Info) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Kind()
	}
	return out
}
