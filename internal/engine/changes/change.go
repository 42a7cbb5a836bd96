package changes

import (
	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// Change is a reversible edit of a document.
type Change interface {
	// Initialize validates the change against doc and captures what Revert
	// needs. It is called exactly once, before the first Apply, and must not
	// modify doc.
	Initialize(doc *document.Document) error

	// Apply performs the edit. firstApply is false when redoing. ignoreInUndo
	// is true when nothing observable changed and the change should not be
	// recorded.
	Apply(doc *document.Document, firstApply bool) (infos []changeinfo.Info, ignoreInUndo bool, err error)

	// Revert restores the state captured by Initialize.
	Revert(doc *document.Document) ([]changeinfo.Info, error)

	// IsMergeableWith reports whether other continues the same interaction
	// and may share an undo entry with this change.
	IsMergeableWith(other Change) bool

	// Dispose releases captured state. The change is unusable afterwards.
	Dispose()

	// Description returns a short human-readable name.
	Description() string
}

// UpdateableChange is a Change that can preview its result while an
// interaction is in progress.
type UpdateableChange interface {
	Change

	// ApplyTemporarily shows the current parameters without recording
	// anything. Repeated calls replace the previous preview.
	ApplyTemporarily(doc *document.Document) ([]changeinfo.Info, error)
}

// base provides the defaults shared by most changes.
type base struct{}

func (base) IsMergeableWith(Change) bool { return false }

func (base) Dispose() {}

var (
	_ Change = (*CreateMember)(nil)
	_ Change = (*DeleteMember)(nil)
	_ Change = (*MoveMember)(nil)
	_ Change = (*DuplicateLayer)(nil)
	_ Change = (*SetName)(nil)
	_ Change = (*SetVisibility)(nil)
	_ Change = (*SetOpacity)(nil)
	_ Change = (*CreateMask)(nil)
	_ Change = (*DeleteMask)(nil)
	_ Change = (*PasteImage)(nil)
	_ Change = (*ClearLayer)(nil)
	_ Change = (*ResizeCanvas)(nil)
	_ Change = (*ClearSelection)(nil)
	_ Change = (*SetSymmetryAxisState)(nil)

	_ UpdateableChange = (*DrawRectangle)(nil)
	_ UpdateableChange = (*DrawEllipse)(nil)
	_ UpdateableChange = (*LinePen)(nil)
	_ UpdateableChange = (*SelectRectangle)(nil)
	_ UpdateableChange = (*SetSymmetryAxisPosition)(nil)
)
