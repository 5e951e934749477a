// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStructuralMismatch means a node does not satisfy a cluster invariant.
	ErrStructuralMismatch = errors.New("structural mismatch")
	// ErrResolutionFailure means a frontmatter link could not be parsed or its target was not found.
	ErrResolutionFailure = errors.New("unresolved parent")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrStorageFailure    = errors.New("storage failure")
	// ErrCancelled is returned by prompts the user closed without submitting.
	ErrCancelled = errors.New("cancelled")
)
