package document

import (
	"fmt"
	"image"

	"github.com/dshills/rasterdoc/internal/engine/snapshot"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// Snapshot returns the committed state of the document as a plain value.
func (d *Document) Snapshot() *snapshot.Document {
	s := &snapshot.Document{
		Version:         snapshot.Version,
		Width:           d.size.X,
		Height:          d.size.Y,
		Root:            d.root.String(),
		Selection:       *exportImage(d.selection.Image),
		SelectionActive: d.selection.Active(),
		Symmetry: snapshot.Symmetry{
			Horizontal: snapshot.Axis{Enabled: d.symmetry.HorizontalEnabled, Position: d.symmetry.HorizontalY},
			Vertical:   snapshot.Axis{Enabled: d.symmetry.VerticalEnabled, Position: d.symmetry.VerticalX},
		},
	}
	s.Members = append(s.Members, exportMember(d.Root()))
	d.Walk(func(m *Member, _ int) bool {
		s.Members = append(s.Members, exportMember(m))
		return true
	})
	return s
}

func exportMember(m *Member) snapshot.Member {
	sm := snapshot.Member{
		ID:      m.ID.String(),
		Kind:    m.Kind.String(),
		Name:    m.Name,
		Opacity: m.Opacity,
		Visible: m.Visible,
	}
	if m.Parent != NilID {
		sm.Parent = m.Parent.String()
	}
	for _, c := range m.Children {
		sm.Children = append(sm.Children, c.String())
	}
	if m.Image != nil {
		sm.Image = exportImage(m.Image)
	}
	if m.Mask != nil {
		sm.Mask = exportImage(m.Mask)
	}
	return sm
}

func exportImage(img *tiled.Image) *snapshot.Image {
	chunks := img.ExportChunks()
	out := &snapshot.Image{}
	for _, coord := range img.CommittedCoords().Slice() {
		out.Chunks = append(out.Chunks, snapshot.Chunk{X: coord.X, Y: coord.Y, Pixels: chunks[coord]})
	}
	return out
}

// FromSnapshot rebuilds a document from s.
func FromSnapshot(s *snapshot.Document, opts ...Option) (*Document, error) {
	if len(s.Members) == 0 {
		return nil, fmt.Errorf("no root member: %w", ErrInvalidSnapshot)
	}
	root, err := ParseID(s.Root)
	if err != nil {
		return nil, fmt.Errorf("root id %q: %w", s.Root, ErrInvalidSnapshot)
	}
	opts = append(opts, WithRootID(root))
	d, err := New(image.Pt(s.Width, s.Height), opts...)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			d.Dispose()
		}
	}()

	if s.Members[0].ID != s.Root {
		return nil, fmt.Errorf("first member %q is not the root: %w", s.Members[0].ID, ErrInvalidSnapshot)
	}
	rootMember := d.Root()
	rootMember.Name = s.Members[0].Name
	rootMember.Opacity = clampOpacity(s.Members[0].Opacity)
	rootMember.Visible = s.Members[0].Visible

	for _, sm := range s.Members[1:] {
		m, parent, err := d.importMember(sm)
		if err != nil {
			return nil, err
		}
		p, exists := d.members[parent]
		if !exists || !p.IsFolder() {
			m.dispose()
			return nil, fmt.Errorf("parent of %s: %w", sm.ID, ErrInvalidSnapshot)
		}
		if err := d.InsertMember(parent, len(p.Children), m); err != nil {
			m.dispose()
			return nil, fmt.Errorf("member %s: %w", sm.ID, err)
		}
	}

	// Children were appended in pre-order, which matches the listed order.
	for _, sm := range s.Members {
		id, _ := ParseID(sm.ID)
		m := d.members[id]
		if len(m.Children) != len(sm.Children) {
			return nil, fmt.Errorf("children of %s: %w", sm.ID, ErrInvalidSnapshot)
		}
		for i, c := range sm.Children {
			if m.Children[i].String() != c {
				return nil, fmt.Errorf("children of %s: %w", sm.ID, ErrInvalidSnapshot)
			}
		}
	}

	if err := importImage(d.selection.Image, &s.Selection); err != nil {
		return nil, err
	}
	d.selection.IsEmptyAndInactive = !s.SelectionActive
	d.symmetry = tiled.Symmetry{
		HorizontalEnabled: s.Symmetry.Horizontal.Enabled,
		HorizontalY:       s.Symmetry.Horizontal.Position,
		VerticalEnabled:   s.Symmetry.Vertical.Enabled,
		VerticalX:         s.Symmetry.Vertical.Position,
	}
	ok = true
	return d, nil
}

func (d *Document) importMember(sm snapshot.Member) (*Member, ID, error) {
	id, err := ParseID(sm.ID)
	if err != nil {
		return nil, NilID, fmt.Errorf("member id %q: %w", sm.ID, ErrInvalidSnapshot)
	}
	parent, err := ParseID(sm.Parent)
	if err != nil {
		return nil, NilID, fmt.Errorf("parent id %q: %w", sm.Parent, ErrInvalidSnapshot)
	}
	kind, err := ParseKind(sm.Kind)
	if err != nil {
		return nil, NilID, fmt.Errorf("%v: %w", err, ErrInvalidSnapshot)
	}
	m := &Member{
		ID:      id,
		Kind:    kind,
		Name:    sm.Name,
		Opacity: clampOpacity(sm.Opacity),
		Visible: sm.Visible,
	}
	if kind == KindLayer {
		m.Image = d.NewImage()
		if sm.Image != nil {
			if err := importImage(m.Image, sm.Image); err != nil {
				m.dispose()
				return nil, NilID, err
			}
		}
		if sm.Mask != nil {
			m.Mask = d.NewImage()
			if err := importImage(m.Mask, sm.Mask); err != nil {
				m.dispose()
				return nil, NilID, err
			}
		}
	}
	return m, parent, nil
}

func importImage(img *tiled.Image, si *snapshot.Image) error {
	for _, c := range si.Chunks {
		if err := img.ImportChunk(image.Pt(c.X, c.Y), c.Pixels); err != nil {
			return fmt.Errorf("%w: %w", err, ErrInvalidSnapshot)
		}
	}
	return nil
}

// ChunkCount returns the number of committed full-resolution chunks held by
// the document.
func (d *Document) ChunkCount() int {
	n := d.selection.Image.ChunkCount()
	for _, m := range d.members {
		if m.Image != nil {
			n += m.Image.ChunkCount()
		}
		if m.Mask != nil {
			n += m.Mask.ChunkCount()
		}
	}
	return n
}
