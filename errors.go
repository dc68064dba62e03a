package tricycle

import "errors"

// Sentinel errors for the tricycle package.
// Use errors.Is to check: errors.Is(err, tricycle.ErrStitchNotFound)
var (
	ErrStitchNotFound = errors.New("tricycle: stitch not found")
	ErrThreadNotFound = errors.New("tricycle: thread not found")
	ErrInvalidTube    = errors.New("tricycle: tube number out of range")
	ErrNoContent      = errors.New("tricycle: no content available")
	ErrInvalidScore   = errors.New("tricycle: invalid score")
)
