package core

import "errors"

// Failure taxonomy shared by all engines. Handlers match these with
// errors.Is and map them to distinct status codes.
var (
	// ErrNotFound means a referenced item, version or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor lacks the required ownership or
	// permission level.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOperation means the request is structurally invalid, such
	// as a cycle-introducing move or deleting a file's newest version.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrStorage means a blob store operation failed. Unlike the others it
	// may be transient; callers decide whether to retry.
	ErrStorage = errors.New("storage failure")
)
