// Package engine turns actions into recorded document changes.
//
// A Tracker owns one document and its history. Hosts submit batches of
// actions and receive the change infos describing what to redraw:
//
//	tr, err := engine.New(image.Pt(1920, 1080))
//	infos, err := tr.ProcessActions(ctx,
//		action.CreateMember{Parent: tr.Document().RootID(), Kind: document.KindLayer},
//	)
//
// # Interactions
//
// At most one interactive change is live at a time. Start-or-update actions
// create it and preview every update without touching history; the matching
// end action applies it once and records it. Undo, redo and one-shot changes
// are refused while an interaction is live.
//
// # Failures
//
// Usage errors (ErrChangeInProgress, ErrNoActiveChange,
// ErrChangeTypeMismatch) leave the document untouched. Lookup failures fail
// the offending action only. An invariant violation means the document may
// be corrupt: the tracker becomes unhealthy and refuses further work until
// ResetHistory is called or DeleteRecordedChanges is processed.
//
// Every non-empty batch of infos is published on the event bus under
// event.TopicChangeInfo.
package engine
