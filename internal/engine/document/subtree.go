package document

import (
	"fmt"
)

// Subtree is a detached copy of a member and its descendants, used to
// recreate deleted members with their original IDs.
type Subtree struct {
	parent  ID
	index   int
	members []*Member
}

// CaptureSubtree copies id and its descendants. Images are cloned
// copy-on-write, so capturing is cheap.
func (d *Document) CaptureSubtree(id ID) (*Subtree, error) {
	index, err := d.IndexOf(id)
	if err != nil {
		return nil, err
	}
	m := d.members[id]
	s := &Subtree{parent: m.Parent, index: index}
	d.capture(m, s)
	return s, nil
}

func (d *Document) capture(m *Member, s *Subtree) {
	s.members = append(s.members, m.clone())
	for _, child := range m.Children {
		if c, ok := d.members[child]; ok {
			d.capture(c, s)
		}
	}
}

// RootID returns the ID of the captured member.
func (s *Subtree) RootID() ID {
	return s.members[0].ID
}

// Parent returns the folder the member was captured from.
func (s *Subtree) Parent() ID {
	return s.parent
}

// Index returns the position the member had in its parent.
func (s *Subtree) Index() int {
	return s.index
}

// IDs returns the captured member IDs in pre-order.
func (s *Subtree) IDs() []ID {
	ids := make([]ID, len(s.members))
	for i, m := range s.members {
		ids[i] = m.ID
	}
	return ids
}

// Layers returns the captured layers in pre-order.
func (s *Subtree) Layers() []*Member {
	var out []*Member
	for _, m := range s.members {
		if m.IsLayer() {
			out = append(out, m)
		}
	}
	return out
}

// Dispose releases the captured images.
func (s *Subtree) Dispose() {
	for _, m := range s.members {
		m.dispose()
	}
	s.members = nil
}

// RestoreSubtree inserts a copy of s at its original parent and index. The
// subtree stays valid and may be restored again after another removal.
func (d *Document) RestoreSubtree(s *Subtree) error {
	return d.RestoreSubtreeAt(s, s.parent, s.index)
}

// RestoreSubtreeAt inserts a copy of s under parent at index.
func (d *Document) RestoreSubtreeAt(s *Subtree, parent ID, index int) error {
	if len(s.members) == 0 {
		return fmt.Errorf("restore subtree: %w", ErrMemberNotFound)
	}
	for _, m := range s.members {
		if d.HasMember(m.ID) {
			return fmt.Errorf("restore member %s: %w", m.ID, ErrDuplicateID)
		}
	}
	top := s.members[0].clone()
	if err := d.InsertMember(parent, index, top); err != nil {
		return err
	}
	for _, m := range s.members[1:] {
		d.members[m.ID] = m.clone()
	}
	return nil
}

// Clone returns an independent copy of the whole document. Images are cloned
// copy-on-write.
func (d *Document) Clone() *Document {
	c := &Document{
		size:     d.size,
		pool:     d.pool,
		root:     d.root,
		members:  make(map[ID]*Member, len(d.members)),
		symmetry: d.symmetry,
		selection: &Selection{
			Image:              d.selection.Image.Clone(),
			IsEmptyAndInactive: d.selection.IsEmptyAndInactive,
		},
	}
	for id, m := range d.members {
		c.members[id] = m.clone()
	}
	return c
}
