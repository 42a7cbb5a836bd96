package script

import (
	"errors"
	"fmt"
)

// ErrRunnerClosed indicates use of a closed runner.
var ErrRunnerClosed = errors.New("runner closed")

// Error reports a failed script. Err is the tracker error that stopped the
// script when there is one, otherwise the Lua error.
type Error struct {
	Script string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
