package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/dshills/rasterdoc/internal/engine/action"
	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/history"
	"github.com/dshills/rasterdoc/internal/engine/snapshot"
	"github.com/dshills/rasterdoc/internal/event"
	"github.com/dshills/rasterdoc/internal/logging"
)

// eventSource identifies tracker events on the bus.
const eventSource = "tracker"

// Tracker dispatches actions to changes and records them for undo.
//
// ProcessActions and the other methods may be called from several
// goroutines; calls are serialized. The Reader returned by Document must
// only be used between calls.
type Tracker struct {
	mu sync.Mutex

	doc     *document.Document
	history *history.History

	// live is the interactive change between its start and end actions.
	live changes.UpdateableChange

	// violation is the first invariant violation; it blocks further work.
	violation error

	bus *event.Bus
	log *logging.Logger

	// Configuration
	maxUndoEntries   int
	manualBoundaries bool
	pool             *chunk.Pool
	chunkBudget      int
}

// Stats describes the tracker state.
type Stats struct {
	UndoDepth  int
	RedoDepth  int
	OpenPacket bool
	// LiveChange is the description of the live interaction, if any.
	LiveChange string
	Members    int
	Chunks     int
	PoolLive   int
	Healthy    bool
}

// notification is an event queued for publication after the lock is released.
type notification struct {
	topic   event.Topic
	payload any
}

// New creates a tracker owning an empty document of the given size.
func New(size image.Point, opts ...Option) (*Tracker, error) {
	t := newTracker(opts)
	doc, err := document.New(size, document.WithPool(t.resolvePool()))
	if err != nil {
		return nil, err
	}
	t.doc = doc
	return t, nil
}

// NewFromSnapshot creates a tracker owning a document rebuilt from s.
func NewFromSnapshot(s *snapshot.Document, opts ...Option) (*Tracker, error) {
	t := newTracker(opts)
	doc, err := document.FromSnapshot(s, document.WithPool(t.resolvePool()))
	if err != nil {
		return nil, err
	}
	t.doc = doc
	return t, nil
}

func newTracker(opts []Option) *Tracker {
	t := &Tracker{
		maxUndoEntries: DefaultMaxUndoEntries,
		log:            logging.Null(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.history = history.New(t.maxUndoEntries)
	t.log = t.log.WithComponent("tracker")
	return t
}

func (t *Tracker) resolvePool() *chunk.Pool {
	if t.pool == nil && t.chunkBudget > 0 {
		t.pool = chunk.NewPool(t.chunkBudget)
	}
	return t.pool
}

// ProcessActions runs actions in order and returns the infos they produced.
// Processing stops at the first failing action; the returned error is an
// *ActionError and the infos of the actions before it are still returned.
func (t *Tracker) ProcessActions(ctx context.Context, actions ...action.Action) ([]changeinfo.Info, error) {
	t.mu.Lock()
	var (
		infos []changeinfo.Info
		notes []notification
		err   error
	)
	for i, a := range actions {
		if cerr := ctx.Err(); cerr != nil {
			err = &ActionError{Index: i, Action: a, Err: cerr}
			break
		}
		out, note, aerr := t.process(a)
		infos = append(infos, out...)
		if note != nil {
			notes = append(notes, *note)
		}
		if aerr != nil {
			t.report(a, aerr)
			err = &ActionError{Index: i, Action: a, Err: aerr}
			break
		}
	}
	t.mu.Unlock()

	if len(infos) > 0 {
		notes = append(notes, notification{topic: event.TopicChangeInfo, payload: infos})
	}
	t.publish(ctx, notes)
	return infos, err
}

func (t *Tracker) process(a action.Action) ([]changeinfo.Info, *notification, error) {
	if t.violation != nil {
		if _, ok := a.(action.DeleteRecordedChanges); !ok {
			return nil, nil, fmt.Errorf("%w: %w", ErrUnhealthy, t.violation)
		}
	}

	switch a := a.(type) {
	case action.Undo:
		return t.undo()
	case action.Redo:
		return t.redo()
	case action.ChangeBoundary:
		if t.history.CompletePacket() {
			t.log.Debug("packet merged into previous entry")
		}
		return nil, nil, nil
	case action.DeleteRecordedChanges:
		if t.live != nil {
			return nil, nil, fmt.Errorf("while %s is live: %w", t.live.Description(), ErrChangeInProgress)
		}
		t.history.Clear()
		t.violation = nil
		t.log.Debug("history cleared")
		return nil, &notification{topic: event.TopicReset}, nil
	case action.MakeChange:
		infos, err := t.makeChange(a)
		return infos, nil, err
	case action.StartOrUpdate:
		infos, err := t.startOrUpdate(a)
		return infos, nil, err
	case action.End:
		infos, err := t.end(a)
		return infos, nil, err
	default:
		return nil, nil, fmt.Errorf("%s: %w", a.Name(), ErrUnknownAction)
	}
}

func (t *Tracker) makeChange(a action.MakeChange) ([]changeinfo.Info, error) {
	if t.live != nil {
		return nil, fmt.Errorf("%s while %s is live: %w", a.Name(), t.live.Description(), ErrChangeInProgress)
	}
	c := a.CreateChange()
	if err := c.Initialize(t.doc); err != nil {
		c.Dispose()
		return nil, err
	}
	return t.finalize(c)
}

func (t *Tracker) startOrUpdate(a action.StartOrUpdate) ([]changeinfo.Info, error) {
	if t.live == nil {
		c := a.CreateChange()
		if err := c.Initialize(t.doc); err != nil {
			c.Dispose()
			return nil, err
		}
		t.live = c
		t.log.Debug("started %s", c.Description())
	} else if !a.Update(t.live) {
		return nil, fmt.Errorf("%s while %s is live: %w", a.Name(), t.live.Description(), ErrChangeInProgress)
	}

	infos, err := t.live.ApplyTemporarily(t.doc)
	if err != nil {
		// A failed preview ends the interaction.
		out, rerr := t.abandonLocked()
		return append(infos, out...), errors.Join(err, rerr)
	}
	return infos, nil
}

func (t *Tracker) end(a action.End) ([]changeinfo.Info, error) {
	if t.live == nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), ErrNoActiveChange)
	}
	if !a.Matches(t.live) {
		return nil, fmt.Errorf("%s while %s is live: %w", a.Name(), t.live.Description(), ErrChangeTypeMismatch)
	}
	c := t.live
	t.live = nil
	return t.finalize(c)
}

// finalize applies c for good and records it unless nothing changed.
func (t *Tracker) finalize(c changes.Change) ([]changeinfo.Info, error) {
	infos, ignore, err := c.Apply(t.doc, true)
	if err != nil {
		c.Dispose()
		return infos, err
	}
	if ignore {
		t.log.Debug("%s changed nothing", c.Description())
		c.Dispose()
		return infos, nil
	}

	t.history.Record(c)
	t.log.Debug("applied %s", c.Description())
	if !t.manualBoundaries && t.history.CompletePacket() {
		t.log.Debug("%s merged into previous entry", c.Description())
	}
	return infos, nil
}

func (t *Tracker) undo() ([]changeinfo.Info, *notification, error) {
	if t.live != nil {
		return nil, nil, fmt.Errorf("undo while %s is live: %w", t.live.Description(), ErrChangeInProgress)
	}
	t.history.CompletePacket()
	op, _ := t.history.PeekUndo()
	infos, err := t.history.Undo(t.doc)
	if errors.Is(err, history.ErrNothingToUndo) {
		t.log.Debug("nothing to undo")
		return nil, nil, nil
	}
	if err != nil {
		return infos, nil, err
	}
	t.log.Debug("undid %s", op.Description)
	return infos, &notification{topic: event.TopicUndo, payload: op}, nil
}

func (t *Tracker) redo() ([]changeinfo.Info, *notification, error) {
	if t.live != nil {
		return nil, nil, fmt.Errorf("redo while %s is live: %w", t.live.Description(), ErrChangeInProgress)
	}
	op, _ := t.history.PeekRedo()
	infos, err := t.history.Redo(t.doc)
	if errors.Is(err, history.ErrNothingToRedo) {
		t.log.Debug("nothing to redo")
		return nil, nil, nil
	}
	if err != nil {
		return infos, nil, err
	}
	t.log.Debug("redid %s", op.Description)
	return infos, &notification{topic: event.TopicRedo, payload: op}, nil
}

// report logs a failed action and records invariant violations.
func (t *Tracker) report(a action.Action, err error) {
	log := t.log.WithField("action", a.Name())
	switch {
	case errors.Is(err, changes.ErrInvariantViolation):
		if t.violation == nil {
			t.violation = err
		}
		log.Error("invariant violation: %v", err)
	case errors.Is(err, ErrUnhealthy):
		log.Debug("rejected: %v", err)
	default:
		log.Warn("rejected: %v", err)
	}
}

// abandonLocked reverts and drops the live change.
func (t *Tracker) abandonLocked() ([]changeinfo.Info, error) {
	c := t.live
	t.live = nil
	infos, err := c.Revert(t.doc)
	c.Dispose()
	if err != nil && errors.Is(err, changes.ErrInvariantViolation) && t.violation == nil {
		t.violation = err
	}
	return infos, err
}

// AbortInteraction reverts the live interaction without recording it.
func (t *Tracker) AbortInteraction(ctx context.Context) ([]changeinfo.Info, error) {
	t.mu.Lock()
	if t.live == nil {
		t.mu.Unlock()
		return nil, ErrNoActiveChange
	}
	desc := t.live.Description()
	infos, err := t.abandonLocked()
	t.mu.Unlock()

	t.log.Debug("aborted %s", desc)
	if len(infos) > 0 {
		t.publish(ctx, []notification{{topic: event.TopicChangeInfo, payload: infos}})
	}
	return infos, err
}

func (t *Tracker) publish(ctx context.Context, notes []notification) {
	if t.bus == nil {
		return
	}
	// Subscribers must learn about applied changes even if the batch was
	// cancelled part way.
	ctx = context.WithoutCancel(ctx)
	for _, n := range notes {
		if err := t.bus.Publish(ctx, n.topic, n.payload, eventSource); err != nil {
			t.log.Warn("publish %s: %v", n.topic, err)
		}
	}
}

// Healthy reports whether no invariant violation has been recorded.
func (t *Tracker) Healthy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.violation == nil
}

// Violation returns the recorded invariant violation, if any.
func (t *Tracker) Violation() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.violation
}

// ResetHistory drops the live interaction and all recorded changes and
// clears a recorded invariant violation. The document keeps its current
// state.
func (t *Tracker) ResetHistory() {
	t.mu.Lock()
	if t.live != nil {
		if _, err := t.abandonLocked(); err != nil {
			t.log.Warn("drop live change: %v", err)
		}
	}
	t.history.Clear()
	t.violation = nil
	t.mu.Unlock()

	t.log.Info("history reset")
	t.publish(context.Background(), []notification{{topic: event.TopicReset}})
}

// Document returns the read-only view of the document.
func (t *Tracker) Document() document.Reader {
	return t.doc
}

// Snapshot captures the committed state of the document.
func (t *Tracker) Snapshot() *snapshot.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.Snapshot()
}

// UndoInfo returns the undo entries, oldest first.
func (t *Tracker) UndoInfo() []history.OperationInfo {
	return t.history.UndoInfo()
}

// RedoInfo returns the redo entries, oldest first.
func (t *Tracker) RedoInfo() []history.OperationInfo {
	return t.history.RedoInfo()
}

// Stats returns a snapshot of the tracker state.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		UndoDepth:  t.history.UndoCount(),
		RedoDepth:  t.history.RedoCount(),
		OpenPacket: t.history.HasOpenPacket(),
		Members:    t.doc.MemberCount(),
		Chunks:     t.doc.ChunkCount(),
		PoolLive:   t.doc.Pool().Stats().Live,
		Healthy:    t.violation == nil,
	}
	if t.live != nil {
		s.LiveChange = t.live.Description()
	}
	return s
}

// Close abandons the live interaction, disposes the history and releases
// the document. The tracker is unusable afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.live != nil {
		_, _ = t.abandonLocked()
	}
	t.history.Clear()
	t.doc.Dispose()
}
