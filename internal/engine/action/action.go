// Package action defines the requests a host submits to the change tracker.
//
// Actions carry only plain values: IDs, points, rectangles, colors and
// enums. There are three shapes of change-producing actions:
//
//   - MakeChange creates a change that is applied and recorded at once.
//   - StartOrUpdate creates an interactive change on first use and updates
//     the live change afterwards.
//   - End finalizes the live interactive change.
//
// Undo, Redo, ChangeBoundary and DeleteRecordedChanges drive the history.
package action

import (
	"github.com/dshills/rasterdoc/internal/engine/changes"
)

// Action is implemented only by the types in this package.
type Action interface {
	// Name returns a short name used in logs and errors.
	Name() string
	isAction()
}

// MakeChange is a one-shot action.
type MakeChange interface {
	Action
	CreateChange() changes.Change
}

// StartOrUpdate starts or continues an interaction.
type StartOrUpdate interface {
	Action
	CreateChange() changes.UpdateableChange
	// Update applies the action parameters to live and reports whether live
	// is the kind of change this action drives, on the same target.
	Update(live changes.UpdateableChange) bool
}

// End finalizes an interaction.
type End interface {
	Action
	// Matches reports whether live is the kind of change this action ends.
	Matches(live changes.Change) bool
}

// Undo reverts the most recent undo entry.
type Undo struct{}

// Redo re-applies the most recently undone entry.
type Redo struct{}

// ChangeBoundary closes the current undo entry so the next change is never
// merged into it.
type ChangeBoundary struct{}

// DeleteRecordedChanges clears undo and redo history.
type DeleteRecordedChanges struct{}

func (Undo) Name() string                  { return "Undo" }
func (Redo) Name() string                  { return "Redo" }
func (ChangeBoundary) Name() string        { return "ChangeBoundary" }
func (DeleteRecordedChanges) Name() string { return "DeleteRecordedChanges" }

func (Undo) isAction()                  {}
func (Redo) isAction()                  {}
func (ChangeBoundary) isAction()        {}
func (DeleteRecordedChanges) isAction() {}
