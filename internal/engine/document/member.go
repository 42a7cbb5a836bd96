package document

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// ID identifies a member for the lifetime of a document. IDs are never reused.
type ID = uuid.UUID

// NilID is the zero ID.
var NilID = uuid.Nil

// NewID returns a fresh random ID.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the textual form of an ID.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// Kind distinguishes layers from folders.
type Kind uint8

const (
	KindLayer Kind = iota
	KindFolder
)

// String returns "layer" or "folder".
func (k Kind) String() string {
	switch k {
	case KindLayer:
		return "layer"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "layer":
		return KindLayer, nil
	case "folder":
		return KindFolder, nil
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

// Member is a Layer or a Folder.
//
// Callers holding a Reader must treat members as read-only.
type Member struct {
	ID      ID
	Kind    Kind
	Name    string
	Opacity float64
	Visible bool

	// Parent is NilID for the root.
	Parent ID

	// Children lists child IDs bottom to top. Folders only.
	Children []ID

	// Image holds the layer pixels. Layers only.
	Image *tiled.Image

	// Mask is the optional layer mask.
	Mask *tiled.Image
}

// NewLayer creates a visible, opaque layer with an empty image of size.
func NewLayer(id ID, name string, img *tiled.Image) *Member {
	return &Member{
		ID:      id,
		Kind:    KindLayer,
		Name:    name,
		Opacity: 1,
		Visible: true,
		Image:   img,
	}
}

// NewFolder creates a visible, opaque, empty folder.
func NewFolder(id ID, name string) *Member {
	return &Member{
		ID:      id,
		Kind:    KindFolder,
		Name:    name,
		Opacity: 1,
		Visible: true,
	}
}

// IsLayer reports whether m is a layer.
func (m *Member) IsLayer() bool {
	return m.Kind == KindLayer
}

// IsFolder reports whether m is a folder.
func (m *Member) IsFolder() bool {
	return m.Kind == KindFolder
}

// HasMask reports whether the layer carries a mask.
func (m *Member) HasMask() bool {
	return m.Mask != nil
}

// clone copies m. Images are cloned copy-on-write.
func (m *Member) clone() *Member {
	c := *m
	c.Children = append([]ID(nil), m.Children...)
	if m.Image != nil {
		c.Image = m.Image.Clone()
	}
	if m.Mask != nil {
		c.Mask = m.Mask.Clone()
	}
	return &c
}

// dispose releases the images owned by m.
func (m *Member) dispose() {
	if m.Image != nil {
		m.Image.Dispose()
	}
	if m.Mask != nil {
		m.Mask.Dispose()
	}
}

func clampOpacity(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
