package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/rasterdoc/internal/engine/action"
)

// Errors returned by tracker operations.
var (
	// ErrChangeInProgress indicates an action that needs no live interaction,
	// or a start of a different interaction, while one is live.
	ErrChangeInProgress = errors.New("change in progress")

	// ErrNoActiveChange indicates an end action without a live interaction.
	ErrNoActiveChange = errors.New("no active change")

	// ErrChangeTypeMismatch indicates an end action for a different kind of
	// interaction than the live one.
	ErrChangeTypeMismatch = errors.New("change type mismatch")

	// ErrUnhealthy is returned once an invariant violation was recorded.
	ErrUnhealthy = errors.New("tracker unhealthy after invariant violation")

	// ErrUnknownAction indicates an action the tracker cannot dispatch.
	ErrUnknownAction = errors.New("unknown action")
)

// ActionError reports which action of a batch failed.
type ActionError struct {
	// Index is the position of the action in the batch.
	Index int
	// Action is the failing action.
	Action action.Action
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d (%s): %v", e.Index, e.Action.Name(), e.Err)
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsUsageError reports whether err is a contract violation by the caller.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrChangeInProgress) ||
		errors.Is(err, ErrNoActiveChange) ||
		errors.Is(err, ErrChangeTypeMismatch)
}
