package changes

import (
	"fmt"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// CreateMember inserts a new empty layer or folder.
type CreateMember struct {
	base
	Parent document.ID
	Index  int
	ID     document.ID
	Kind   document.Kind
	Name   string
}

// Initialize implements Change.
func (c *CreateMember) Initialize(doc *document.Document) error {
	parent, err := doc.FindMemberOrFail(c.Parent)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return fmt.Errorf("create in %s: %w", c.Parent, document.ErrNotFolder)
	}
	if c.Index < 0 || c.Index > len(parent.Children) {
		return fmt.Errorf("create at %d: %w", c.Index, document.ErrIndexOutOfRange)
	}
	if c.ID == document.NilID {
		c.ID = document.NewID()
	}
	if doc.HasMember(c.ID) {
		return fmt.Errorf("create %s: %w", c.ID, document.ErrDuplicateID)
	}
	return nil
}

// Apply implements Change.
func (c *CreateMember) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	var m *document.Member
	if c.Kind == document.KindFolder {
		m = document.NewFolder(c.ID, c.Name)
	} else {
		m = document.NewLayer(c.ID, c.Name, nil)
	}
	if err := doc.InsertMember(c.Parent, c.Index, m); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return []changeinfo.Info{changeinfo.CreateMember{Member: c.ID, Parent: c.Parent, Index: c.Index, MemberKind: c.Kind}}, false, nil
}

// Revert implements Change.
func (c *CreateMember) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.RemoveMember(c.ID); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.DeleteMember{Member: c.ID, Parent: c.Parent}}, nil
}

// Description implements Change.
func (c *CreateMember) Description() string {
	return "Create " + c.Kind.String()
}

// DeleteMember removes a member and its descendants.
type DeleteMember struct {
	base
	ID document.ID

	saved *document.Subtree
}

// Initialize implements Change.
func (c *DeleteMember) Initialize(doc *document.Document) error {
	sub, err := doc.CaptureSubtree(c.ID)
	if err != nil {
		return err
	}
	c.saved = sub
	return nil
}

// Apply implements Change.
func (c *DeleteMember) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.saved == nil {
		return nil, false, ErrNotInitialized
	}
	if err := doc.RemoveMember(c.ID); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return deleteInfos(c.saved), false, nil
}

// Revert implements Change.
func (c *DeleteMember) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if c.saved == nil {
		return nil, ErrNotInitialized
	}
	if err := doc.RestoreSubtree(c.saved); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return createInfos(doc, c.saved.RootID())
}

// Dispose implements Change.
func (c *DeleteMember) Dispose() {
	if c.saved != nil {
		c.saved.Dispose()
		c.saved = nil
	}
}

// Description implements Change.
func (c *DeleteMember) Description() string {
	return "Delete member"
}

// deleteInfos lists the members of sub deepest first.
func deleteInfos(sub *document.Subtree) []changeinfo.Info {
	ids := sub.IDs()
	infos := make([]changeinfo.Info, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		infos = append(infos, changeinfo.DeleteMember{Member: ids[i]})
	}
	infos[len(infos)-1] = changeinfo.DeleteMember{Member: sub.RootID(), Parent: sub.Parent()}
	return infos
}

// createInfos reports id and its descendants as created, followed by their
// pixel content.
func createInfos(doc *document.Document, id document.ID) ([]changeinfo.Info, error) {
	m, err := doc.FindMemberOrFail(id)
	if err != nil {
		return nil, err
	}
	index, err := doc.IndexOf(id)
	if err != nil {
		return nil, err
	}
	var infos []changeinfo.Info
	var visit func(m *document.Member, index int)
	visit = func(m *document.Member, index int) {
		infos = append(infos, changeinfo.CreateMember{Member: m.ID, Parent: m.Parent, Index: index, MemberKind: m.Kind})
		if m.Image != nil {
			infos = append(infos, changeinfo.LayerImageChunks{Member: m.ID, Chunks: m.Image.CommittedCoords()})
		}
		if m.Mask != nil {
			infos = append(infos, changeinfo.MaskChunks{Member: m.ID, Chunks: m.Mask.CommittedCoords()})
		}
		for i, child := range m.Children {
			if c, ok := doc.FindMember(child); ok {
				visit(c, i)
			}
		}
	}
	visit(m, index)
	return infos, nil
}

// MoveMember moves a member to another folder or position. Index refers to
// the target folder's children once the member has been taken out.
type MoveMember struct {
	base
	ID     document.ID
	Parent document.ID
	Index  int

	oldParent document.ID
	oldIndex  int
}

// Initialize implements Change.
func (c *MoveMember) Initialize(doc *document.Document) error {
	m, parent, err := doc.FindChildAndParent(c.ID)
	if err != nil {
		return err
	}
	target, err := doc.FindMemberOrFail(c.Parent)
	if err != nil {
		return err
	}
	if !target.IsFolder() {
		return fmt.Errorf("move into %s: %w", c.Parent, document.ErrNotFolder)
	}
	if doc.IsAncestor(m.ID, c.Parent) {
		return fmt.Errorf("move %s: %w", c.ID, document.ErrCyclicMove)
	}
	limit := len(target.Children)
	if target == parent {
		limit--
	}
	if c.Index < 0 || c.Index > limit {
		return fmt.Errorf("move to %d: %w", c.Index, document.ErrIndexOutOfRange)
	}
	index, err := doc.IndexOf(c.ID)
	if err != nil {
		return err
	}
	c.oldParent, c.oldIndex = parent.ID, index
	return nil
}

// Apply implements Change.
func (c *MoveMember) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	if c.oldParent == document.NilID {
		return nil, false, ErrNotInitialized
	}
	if c.oldParent == c.Parent && c.oldIndex == c.Index {
		return nil, true, nil
	}
	if err := doc.MoveMember(c.ID, c.Parent, c.Index); err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return []changeinfo.Info{changeinfo.MoveMember{
		Member: c.ID, OldParent: c.oldParent, NewParent: c.Parent, NewIndex: c.Index,
	}}, false, nil
}

// Revert implements Change.
func (c *MoveMember) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.MoveMember(c.ID, c.oldParent, c.oldIndex); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.MoveMember{
		Member: c.ID, OldParent: c.Parent, NewParent: c.oldParent, NewIndex: c.oldIndex,
	}}, nil
}

// Description implements Change.
func (c *MoveMember) Description() string {
	return "Move member"
}

// DuplicateLayer copies a layer, pixels and mask included, directly above it.
type DuplicateLayer struct {
	base
	ID    document.ID
	NewID document.ID

	parent document.ID
	index  int
}

// Initialize implements Change.
func (c *DuplicateLayer) Initialize(doc *document.Document) error {
	m, err := doc.FindLayerOrFail(c.ID)
	if err != nil {
		return err
	}
	if c.NewID == document.NilID {
		c.NewID = document.NewID()
	}
	if doc.HasMember(c.NewID) {
		return fmt.Errorf("duplicate as %s: %w", c.NewID, document.ErrDuplicateID)
	}
	index, err := doc.IndexOf(c.ID)
	if err != nil {
		return err
	}
	c.parent, c.index = m.Parent, index+1
	return nil
}

// Apply implements Change.
func (c *DuplicateLayer) Apply(doc *document.Document, _ bool) ([]changeinfo.Info, bool, error) {
	src, err := doc.FindLayerOrFail(c.ID)
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	dup := document.NewLayer(c.NewID, src.Name+" copy", src.Image.Clone())
	dup.Opacity = src.Opacity
	dup.Visible = src.Visible
	if src.Mask != nil {
		dup.Mask = src.Mask.Clone()
	}
	if err := doc.InsertMember(c.parent, c.index, dup); err != nil {
		dup.Image.Dispose()
		if dup.Mask != nil {
			dup.Mask.Dispose()
		}
		return nil, false, invariant(c, "apply", err)
	}
	infos, err := createInfos(doc, c.NewID)
	if err != nil {
		return nil, false, invariant(c, "apply", err)
	}
	return infos, false, nil
}

// Revert implements Change.
func (c *DuplicateLayer) Revert(doc *document.Document) ([]changeinfo.Info, error) {
	if err := doc.RemoveMember(c.NewID); err != nil {
		return nil, invariant(c, "revert", err)
	}
	return []changeinfo.Info{changeinfo.DeleteMember{Member: c.NewID, Parent: c.parent}}, nil
}

// Description implements Change.
func (c *DuplicateLayer) Description() string {
	return "Duplicate layer"
}

