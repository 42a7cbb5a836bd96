// Package changes implements the reversible edits applied to a document.
//
// Every edit is a Change with a fixed lifecycle:
//
//	Initialize -> Apply -> (Revert -> Apply)* -> Dispose
//
// Initialize validates the targets and captures the state Revert needs.
// Apply mutates the document and reports what it touched; Revert restores
// the state captured by Initialize. Both return changeinfo values so
// renderers can redraw incrementally.
//
// # Interactive edits
//
// An UpdateableChange additionally supports ApplyTemporarily, used while an
// interaction such as a drag is in progress. Temporary results live in the
// uncommitted overlay of the target images (or in scalar fields restored by
// Revert) and never reach the undo history. The final Apply replaces the
// temporary result and is the only application recorded.
//
// # Errors
//
// Lookup failures during Initialize wrap document.ErrMemberNotFound and
// leave the document untouched. A target that disappears after a successful
// Initialize means the single-writer contract was broken; Apply and Revert
// report it as an *InvariantError.
package changes
