package engine

import (
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/history"
	"github.com/dshills/rasterdoc/internal/event"
	"github.com/dshills/rasterdoc/internal/logging"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
)

// Option configures a Tracker during creation.
type Option func(*Tracker)

// WithMaxUndoEntries sets the maximum number of undo entries.
func WithMaxUndoEntries(max int) Option {
	return func(t *Tracker) {
		if max > 0 {
			t.maxUndoEntries = max
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithBus publishes change infos and history events on bus.
func WithBus(bus *event.Bus) Option {
	return func(t *Tracker) {
		t.bus = bus
	}
}

// WithPool allocates the chunks of a new document from pool.
func WithPool(pool *chunk.Pool) Option {
	return func(t *Tracker) {
		t.pool = pool
	}
}

// WithChunkBudget limits a new document to budget live chunks. It is ignored
// when WithPool is also given.
func WithChunkBudget(budget int) Option {
	return func(t *Tracker) {
		t.chunkBudget = budget
	}
}

// WithManualBoundaries keeps undo packets open until a ChangeBoundary action.
// By default every finalized change closes its packet.
func WithManualBoundaries() Option {
	return func(t *Tracker) {
		t.manualBoundaries = true
	}
}
