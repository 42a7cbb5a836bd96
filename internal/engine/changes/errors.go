package changes

import (
	"errors"
	"fmt"

	"github.com/dshills/rasterdoc/internal/engine/document"
)

// Errors returned by changes.
var (
	// ErrMemberNotFound is returned when a target member does not exist.
	ErrMemberNotFound = document.ErrMemberNotFound

	// ErrInvariantViolation matches every *InvariantError.
	ErrInvariantViolation = errors.New("change invariant violation")

	// ErrNotInitialized indicates Apply or Revert before Initialize.
	ErrNotInitialized = errors.New("change not initialized")

	// ErrNoMask indicates a mask operation on a layer without a mask.
	ErrNoMask = errors.New("layer has no mask")

	// ErrMaskExists indicates a mask is already present.
	ErrMaskExists = errors.New("layer already has a mask")

	// ErrInvalidArgument indicates a parameter outside its domain.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvariantError reports that a document diverged from the state a change
// captured. The document may be inconsistent; the host should reset history.
type InvariantError struct {
	Change string
	Op     string
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s %s: invariant violated: %v", e.Op, e.Change, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvariantViolation) hold.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

func invariant(c Change, op string, err error) error {
	return &InvariantError{Change: c.Description(), Op: op, Err: err}
}
