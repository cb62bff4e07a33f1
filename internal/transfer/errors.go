package transfer

import "errors"

// Guard and strategy errors. These are hard failures: the engine never
// downgrades them to a None result, since returning None while work was
// requested would mask data loss.
var (
	// ErrInvalidPath means a source or target path is empty or not absolute.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSamePath means source and target resolve to the same location.
	ErrSamePath = errors.New("source and target are the same path")

	// ErrDestinationInsideSource means the target is a descendant of the
	// source, which would make a recursive transfer write into the tree it
	// is reading from.
	ErrDestinationInsideSource = errors.New("target is inside source")

	// ErrHardLinkFailed means hardlink creation failed and no fallback
	// strategy was requested.
	ErrHardLinkFailed = errors.New("hardlink failed")

	// ErrTransferFailed means every requested strategy was exhausted,
	// including the verification retry budget.
	ErrTransferFailed = errors.New("transfer failed")
)
