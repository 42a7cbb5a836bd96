package action

import (
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// CreateMember adds an empty layer or folder. A zero ID is replaced by a
// fresh one when the change is initialized.
type CreateMember struct {
	Parent     document.ID
	Index      int
	ID         document.ID
	Kind       document.Kind
	MemberName string
}

// DeleteMember removes a member and its descendants.
type DeleteMember struct {
	ID document.ID
}

// MoveMember moves a member under Parent at Index.
type MoveMember struct {
	ID     document.ID
	Parent document.ID
	Index  int
}

// DuplicateLayer copies a layer above itself.
type DuplicateLayer struct {
	ID    document.ID
	NewID document.ID
}

// SetName renames a member.
type SetName struct {
	ID         document.ID
	MemberName string
}

// SetVisibility shows or hides a member.
type SetVisibility struct {
	ID      document.ID
	Visible bool
}

// SetOpacity changes a member opacity.
type SetOpacity struct {
	ID      document.ID
	Opacity float64
}

// CreateMask adds an empty mask to a layer.
type CreateMask struct {
	ID document.ID
}

// DeleteMask removes a layer mask.
type DeleteMask struct {
	ID document.ID
}

func (a CreateMember) CreateChange() changes.Change {
	return &changes.CreateMember{Parent: a.Parent, Index: a.Index, ID: a.ID, Kind: a.Kind, Name: a.MemberName}
}

func (a DeleteMember) CreateChange() changes.Change {
	return &changes.DeleteMember{ID: a.ID}
}

func (a MoveMember) CreateChange() changes.Change {
	return &changes.MoveMember{ID: a.ID, Parent: a.Parent, Index: a.Index}
}

func (a DuplicateLayer) CreateChange() changes.Change {
	return &changes.DuplicateLayer{ID: a.ID, NewID: a.NewID}
}

func (a SetName) CreateChange() changes.Change {
	return &changes.SetName{ID: a.ID, Name: a.MemberName}
}

func (a SetVisibility) CreateChange() changes.Change {
	return &changes.SetVisibility{ID: a.ID, Visible: a.Visible}
}

func (a SetOpacity) CreateChange() changes.Change {
	return &changes.SetOpacity{ID: a.ID, Opacity: a.Opacity}
}

func (a CreateMask) CreateChange() changes.Change {
	return &changes.CreateMask{ID: a.ID}
}

func (a DeleteMask) CreateChange() changes.Change {
	return &changes.DeleteMask{ID: a.ID}
}

func (CreateMember) Name() string   { return "CreateMember" }
func (DeleteMember) Name() string   { return "DeleteMember" }
func (MoveMember) Name() string     { return "MoveMember" }
func (DuplicateLayer) Name() string { return "DuplicateLayer" }
func (SetName) Name() string        { return "SetName" }
func (SetVisibility) Name() string  { return "SetVisibility" }
func (SetOpacity) Name() string     { return "SetOpacity" }
func (CreateMask) Name() string     { return "CreateMask" }
func (DeleteMask) Name() string     { return "DeleteMask" }

func (CreateMember) isAction()   {}
func (DeleteMember) isAction()   {}
func (MoveMember) isAction()     {}
func (DuplicateLayer) isAction() {}
func (SetName) isAction()        {}
func (SetVisibility) isAction()  {}
func (SetOpacity) isAction()     {}
func (CreateMask) isAction()     {}
func (DeleteMask) isAction()     {}
