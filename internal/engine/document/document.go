package document

import (
	"fmt"
	"image"
	"slices"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// Selection is the document-wide selection mask.
type Selection struct {
	// Image holds the mask; alpha is the selection strength.
	Image *tiled.Image

	// IsEmptyAndInactive is set when nothing is selected. Drawing is then
	// not clipped.
	IsEmptyAndInactive bool
}

// Active reports whether drawing should be clipped to the selection.
func (s *Selection) Active() bool {
	return !s.IsEmptyAndInactive
}

// Reader is the read-only view of a document handed to renderers and
// other consumers.
type Reader interface {
	Size() image.Point
	RootID() ID
	FindMember(id ID) (*Member, bool)
	FindMemberOrFail(id ID) (*Member, error)
	Walk(fn func(m *Member, depth int) bool)
	Layers() []*Member
	EffectiveOpacity(id ID) (float64, error)
	EffectiveVisible(id ID) (bool, error)
	Selection() *Selection
	Symmetry() tiled.Symmetry
	MemberCount() int
}

var _ Reader = (*Document)(nil)

// Option configures a Document during creation.
type Option func(*Document)

// WithPool allocates every image of the document from pool.
func WithPool(pool *chunk.Pool) Option {
	return func(d *Document) {
		if pool != nil {
			d.pool = pool
		}
	}
}

// WithRootID fixes the ID of the root folder.
func WithRootID(id ID) Option {
	return func(d *Document) {
		if id != NilID {
			d.root = id
		}
	}
}

// Document owns the member tree, the selection and the symmetry state.
//
// A Document is not safe for concurrent mutation. Reads may run
// concurrently with each other.
type Document struct {
	size      image.Point
	pool      *chunk.Pool
	root      ID
	members   map[ID]*Member
	selection *Selection
	symmetry  tiled.Symmetry
}

// New creates an empty document with a root folder.
func New(size image.Point, opts ...Option) (*Document, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("new document %v: %w", size, ErrInvalidSize)
	}
	d := &Document{
		size:    size,
		pool:    chunk.DefaultPool,
		root:    NewID(),
		members: make(map[ID]*Member),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.members[d.root] = NewFolder(d.root, "Root")
	d.selection = &Selection{Image: d.NewImage(), IsEmptyAndInactive: true}
	d.symmetry = tiled.Symmetry{HorizontalY: size.Y / 2, VerticalX: size.X / 2}
	return d, nil
}

// Size returns the canvas size.
func (d *Document) Size() image.Point {
	return d.size
}

// Pool returns the chunk pool used for the document images.
func (d *Document) Pool() *chunk.Pool {
	return d.pool
}

// NewImage returns an empty image with the canvas size.
func (d *Document) NewImage() *tiled.Image {
	return tiled.NewWithPool(d.size, d.pool)
}

// RootID returns the ID of the root folder.
func (d *Document) RootID() ID {
	return d.root
}

// Root returns the root folder.
func (d *Document) Root() *Member {
	return d.members[d.root]
}

// MemberCount returns the number of members, root excluded.
func (d *Document) MemberCount() int {
	return len(d.members) - 1
}

// HasMember reports whether id names a member.
func (d *Document) HasMember(id ID) bool {
	_, ok := d.members[id]
	return ok
}

// FindMember returns the member with id.
func (d *Document) FindMember(id ID) (*Member, bool) {
	m, ok := d.members[id]
	return m, ok
}

// FindMemberOrFail returns the member with id or ErrMemberNotFound.
func (d *Document) FindMemberOrFail(id ID) (*Member, error) {
	m, ok := d.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, ErrMemberNotFound)
	}
	return m, nil
}

// FindLayerOrFail returns the layer with id.
func (d *Document) FindLayerOrFail(id ID) (*Member, error) {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return nil, err
	}
	if !m.IsLayer() {
		return nil, fmt.Errorf("member %s: %w", id, ErrNotLayer)
	}
	return m, nil
}

// FindChildAndParent returns the member with id and its parent folder.
// It fails for the root and for unknown IDs.
func (d *Document) FindChildAndParent(id ID) (*Member, *Member, error) {
	if id == d.root {
		return nil, nil, ErrRootMember
	}
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return nil, nil, err
	}
	parent, ok := d.members[m.Parent]
	if !ok {
		return nil, nil, fmt.Errorf("parent of %s: %w", id, ErrMemberNotFound)
	}
	return m, parent, nil
}

// IndexOf returns the position of id among its siblings.
func (d *Document) IndexOf(id ID) (int, error) {
	m, parent, err := d.FindChildAndParent(id)
	if err != nil {
		return 0, err
	}
	i := slices.Index(parent.Children, m.ID)
	if i < 0 {
		return 0, fmt.Errorf("member %s missing from parent %s: %w", id, parent.ID, ErrMemberNotFound)
	}
	return i, nil
}

// IsAncestor reports whether ancestor is id or one of its ancestors.
func (d *Document) IsAncestor(ancestor, id ID) bool {
	for cur := id; cur != NilID; {
		if cur == ancestor {
			return true
		}
		m, ok := d.members[cur]
		if !ok {
			return false
		}
		cur = m.Parent
	}
	return false
}

// Walk visits the members below the root in pre-order, children bottom to
// top. Returning false from fn stops the walk.
func (d *Document) Walk(fn func(m *Member, depth int) bool) {
	d.walk(d.root, 0, fn)
}

func (d *Document) walk(id ID, depth int, fn func(*Member, int) bool) bool {
	for _, child := range d.members[id].Children {
		m := d.members[child]
		if !fn(m, depth) {
			return false
		}
		if m.IsFolder() && !d.walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// Layers returns every layer in composition order, bottom first.
func (d *Document) Layers() []*Member {
	var out []*Member
	d.Walk(func(m *Member, _ int) bool {
		if m.IsLayer() {
			out = append(out, m)
		}
		return true
	})
	return out
}

// EffectiveOpacity returns the opacity id is rendered with: its own opacity
// multiplied by the opacity of every ancestor folder, clamped to [0,1].
// A member with zero opacity is fully transparent whatever its ancestors.
func (d *Document) EffectiveOpacity(id ID) (float64, error) {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return 0, err
	}
	if m.Opacity == 0 {
		return 0, nil
	}
	result := m.Opacity
	for cur := m.Parent; cur != NilID; {
		p, ok := d.members[cur]
		if !ok {
			return 0, fmt.Errorf("ancestor %s of %s: %w", cur, id, ErrMemberNotFound)
		}
		result *= p.Opacity
		cur = p.Parent
	}
	return clampOpacity(result), nil
}

// EffectiveVisible reports whether id and all of its ancestors are visible.
func (d *Document) EffectiveVisible(id ID) (bool, error) {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return false, err
	}
	for {
		if !m.Visible {
			return false, nil
		}
		if m.Parent == NilID {
			return true, nil
		}
		if m, err = d.FindMemberOrFail(m.Parent); err != nil {
			return false, err
		}
	}
}

// Selection returns the document selection.
func (d *Document) Selection() *Selection {
	return d.selection
}

// Symmetry returns the symmetry axis state.
func (d *Document) Symmetry() tiled.Symmetry {
	return d.symmetry
}

// SetSymmetry replaces the symmetry axis state.
func (d *Document) SetSymmetry(s tiled.Symmetry) {
	d.symmetry = s
}

// InsertMember adds m as a child of parent at index. The member must carry a
// fresh ID; for layers a nil image is replaced with an empty one.
func (d *Document) InsertMember(parent ID, index int, m *Member) error {
	if m.ID == NilID {
		return fmt.Errorf("insert member: %w", ErrMemberNotFound)
	}
	if d.HasMember(m.ID) {
		return fmt.Errorf("insert member %s: %w", m.ID, ErrDuplicateID)
	}
	p, err := d.FindMemberOrFail(parent)
	if err != nil {
		return err
	}
	if !p.IsFolder() {
		return fmt.Errorf("insert into %s: %w", parent, ErrNotFolder)
	}
	if index < 0 || index > len(p.Children) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(p.Children), ErrIndexOutOfRange)
	}
	if m.IsLayer() && m.Image == nil {
		m.Image = d.NewImage()
	}
	m.Parent = parent
	p.Children = slices.Insert(p.Children, index, m.ID)
	d.members[m.ID] = m
	return nil
}

// RemoveMember detaches id and its descendants from the tree and disposes
// their images.
func (d *Document) RemoveMember(id ID) error {
	m, parent, err := d.FindChildAndParent(id)
	if err != nil {
		return err
	}
	i := slices.Index(parent.Children, id)
	if i >= 0 {
		parent.Children = slices.Delete(parent.Children, i, i+1)
	}
	d.drop(m)
	return nil
}

func (d *Document) drop(m *Member) {
	for _, child := range m.Children {
		if c, ok := d.members[child]; ok {
			d.drop(c)
		}
	}
	m.dispose()
	delete(d.members, m.ID)
}

// MoveMember moves id under parent at index. The index refers to the
// parent's children after id has been removed from its old position.
func (d *Document) MoveMember(id, parent ID, index int) error {
	m, oldParent, err := d.FindChildAndParent(id)
	if err != nil {
		return err
	}
	p, err := d.FindMemberOrFail(parent)
	if err != nil {
		return err
	}
	if !p.IsFolder() {
		return fmt.Errorf("move into %s: %w", parent, ErrNotFolder)
	}
	if d.IsAncestor(id, parent) {
		return fmt.Errorf("move %s into %s: %w", id, parent, ErrCyclicMove)
	}
	limit := len(p.Children)
	if oldParent == p {
		limit--
	}
	if index < 0 || index > limit {
		return fmt.Errorf("move to %d of %d: %w", index, limit, ErrIndexOutOfRange)
	}
	if i := slices.Index(oldParent.Children, id); i >= 0 {
		oldParent.Children = slices.Delete(oldParent.Children, i, i+1)
	}
	p.Children = slices.Insert(p.Children, index, id)
	m.Parent = parent
	return nil
}

// SetName renames a member.
func (d *Document) SetName(id ID, name string) error {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return err
	}
	m.Name = name
	return nil
}

// SetOpacity sets a member opacity, clamped to [0,1].
func (d *Document) SetOpacity(id ID, opacity float64) error {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return err
	}
	m.Opacity = clampOpacity(opacity)
	return nil
}

// SetVisible shows or hides a member.
func (d *Document) SetVisible(id ID, visible bool) error {
	m, err := d.FindMemberOrFail(id)
	if err != nil {
		return err
	}
	m.Visible = visible
	return nil
}

// SetMask replaces the mask of a layer and returns the previous one, which
// the caller now owns.
func (d *Document) SetMask(id ID, mask *tiled.Image) (*tiled.Image, error) {
	m, err := d.FindLayerOrFail(id)
	if err != nil {
		return nil, err
	}
	old := m.Mask
	m.Mask = mask
	return old, nil
}

// SetSize changes the canvas size. Images are not resized.
func (d *Document) SetSize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("resize to %v: %w", size, ErrInvalidSize)
	}
	d.size = size
	return nil
}

// Dispose releases every image of the document.
func (d *Document) Dispose() {
	for _, m := range d.members {
		m.dispose()
	}
	d.selection.Image.Dispose()
}

// Equal reports whether a and b hold the same tree, member properties,
// committed pixels, selection and symmetry.
func Equal(a, b *Document) bool {
	if a.size != b.size || a.root != b.root || a.symmetry != b.symmetry {
		return false
	}
	if len(a.members) != len(b.members) {
		return false
	}
	if a.selection.IsEmptyAndInactive != b.selection.IsEmptyAndInactive ||
		!tiled.CommittedEqual(a.selection.Image, b.selection.Image) {
		return false
	}
	for id, ma := range a.members {
		mb, ok := b.members[id]
		if !ok || !memberEqual(ma, mb) {
			return false
		}
	}
	return true
}

func memberEqual(a, b *Member) bool {
	if a.Kind != b.Kind || a.Name != b.Name || a.Opacity != b.Opacity ||
		a.Visible != b.Visible || a.Parent != b.Parent || !slices.Equal(a.Children, b.Children) {
		return false
	}
	return imageEqual(a.Image, b.Image) && imageEqual(a.Mask, b.Mask)
}

func imageEqual(a, b *tiled.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return tiled.CommittedEqual(a, b)
}
