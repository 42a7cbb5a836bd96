package document

import "errors"

// Errors returned by document operations.
var (
	// ErrMemberNotFound indicates no member has the requested ID.
	ErrMemberNotFound = errors.New("member not found")

	// ErrRootMember indicates the operation is not allowed on the root folder.
	ErrRootMember = errors.New("operation not allowed on the root folder")

	// ErrNotFolder indicates a folder was expected.
	ErrNotFolder = errors.New("member is not a folder")

	// ErrNotLayer indicates a layer was expected.
	ErrNotLayer = errors.New("member is not a layer")

	// ErrDuplicateID indicates an ID is already used by another member.
	ErrDuplicateID = errors.New("duplicate member id")

	// ErrIndexOutOfRange indicates a child index outside the parent's children.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrCyclicMove indicates a folder would become its own descendant.
	ErrCyclicMove = errors.New("cannot move a folder into itself")

	// ErrInvalidSize indicates a non-positive canvas size.
	ErrInvalidSize = errors.New("invalid canvas size")

	// ErrInvalidSnapshot indicates a snapshot that does not describe a valid tree.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
