package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// DefaultMaxEntries bounds the undo stack when no limit is configured.
const DefaultMaxEntries = 1000

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// OperationInfo describes one undo or redo entry.
type OperationInfo struct {
	Description string
	Changes     int
	Timestamp   time.Time
}

// History manages the undo and redo stacks of a document.
type History struct {
	mu sync.Mutex

	undoStack []*packet
	redoStack []*packet

	// open collects changes recorded since the last boundary.
	open *packet

	maxEntries int
}

// New creates a history keeping at most maxEntries undo packets.
// A non-positive limit selects DefaultMaxEntries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		maxEntries: maxEntries,
	}
}

// Record adds an applied change to the open packet and invalidates the redo
// stack. History takes ownership of c.
func (h *History) Record(c changes.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		h.open = &packet{timestamp: time.Now()}
	}
	h.open.changes = append(h.open.changes, c)

	disposeAll(h.redoStack)
	h.redoStack = nil
}

// CompletePacket closes the open packet. It reports whether the packet was
// merged into the entry on top of the undo stack. Completing with no open
// packet does nothing.
func (h *History) CompletePacket() (merged bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completeLocked()
}

func (h *History) completeLocked() bool {
	p := h.open
	h.open = nil
	if p == nil || len(p.changes) == 0 {
		return false
	}

	if len(p.changes) == 1 && len(h.undoStack) > 0 {
		top := h.undoStack[len(h.undoStack)-1]
		if top.canAbsorb(p.changes[0]) {
			top.changes = append(top.changes, p.changes[0])
			top.timestamp = p.timestamp
			return true
		}
	}

	h.undoStack = append(h.undoStack, p)
	h.trimLocked()
	return false
}

// trimLocked disposes the oldest packets beyond maxEntries.
func (h *History) trimLocked() {
	if len(h.undoStack) <= h.maxEntries {
		return
	}
	excess := len(h.undoStack) - h.maxEntries
	disposeAll(h.undoStack[:excess])
	h.undoStack = append([]*packet(nil), h.undoStack[excess:]...)
}

// HasOpenPacket reports whether changes were recorded since the last boundary.
func (h *History) HasOpenPacket() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open != nil && len(h.open.changes) > 0
}

// Undo reverts the newest packet, closing the open packet first.
// The lock is released while the changes run. If a revert fails the packet
// stays on the undo stack and the infos produced so far are returned with
// the error.
func (h *History) Undo(doc *document.Document) ([]changeinfo.Info, error) {
	h.mu.Lock()
	h.completeLocked()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToUndo
	}

	p := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	infos, err := p.revert(doc)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.undoStack = append(h.undoStack, p)
		return infos, err
	}
	h.redoStack = append(h.redoStack, p)
	return infos, nil
}

// Redo re-applies the most recently undone packet.
func (h *History) Redo(doc *document.Document) ([]changeinfo.Info, error) {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToRedo
	}

	p := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	infos, err := p.apply(doc)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.redoStack = append(h.redoStack, p)
		return infos, err
	}
	h.undoStack = append(h.undoStack, p)
	return infos, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0 || (h.open != nil && len(h.open.changes) > 0)
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of completed undo packets.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo packets.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear disposes every recorded change, including the open packet.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	disposeAll(h.undoStack)
	disposeAll(h.redoStack)
	if h.open != nil {
		h.open.dispose()
	}
	h.undoStack = nil
	h.redoStack = nil
	h.open = nil
}

func info(p *packet) OperationInfo {
	return OperationInfo{
		Description: p.description(),
		Changes:     len(p.changes),
		Timestamp:   p.timestamp,
	}
}

// UndoInfo returns info about available undo packets, oldest first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]OperationInfo, len(h.undoStack))
	for i, p := range h.undoStack {
		result[i] = info(p)
	}
	return result
}

// RedoInfo returns info about available redo packets, oldest first.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]OperationInfo, len(h.redoStack))
	for i, p := range h.redoStack {
		result[i] = info(p)
	}
	return result
}

// PeekUndo returns info about the next undo packet without removing it.
func (h *History) PeekUndo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return OperationInfo{}, false
	}
	return info(h.undoStack[len(h.undoStack)-1]), true
}

// PeekRedo returns info about the next redo packet without removing it.
func (h *History) PeekRedo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return OperationInfo{}, false
	}
	return info(h.redoStack[len(h.redoStack)-1]), true
}

// SetMaxEntries changes the maximum number of undo packets.
// If the current stack is larger, the oldest packets are disposed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	h.trimLocked()
}

// MaxEntries returns the maximum number of undo packets.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
