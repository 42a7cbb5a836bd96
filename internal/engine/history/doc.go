// Package history records applied changes as undo packets.
//
// Changes recorded between two boundaries form one packet and undo together:
//
//	h := history.New(1000)
//	h.Record(change)       // change was applied by the caller
//	h.CompletePacket()     // close the packet
//
//	infos, err := h.Undo(doc)
//	infos, err = h.Redo(doc)
//
// # Merging
//
// When a packet holding a single change is completed and the change continues
// the interaction on top of the undo stack (see changes.Change.IsMergeableWith),
// it joins that entry instead of creating a new one. Dragging an opacity slider
// therefore undoes in one step.
//
// # Ownership
//
// History owns every recorded change. Changes that leave the history for good,
// because the redo stack was invalidated, the stack was trimmed or cleared,
// are disposed.
package history
