package session

import "errors"

// Failure kinds. Collaborator errors are wrapped so both the kind and the
// original cause match errors.Is.
var (
	// ErrNetwork means the backend was unreachable, answered with a
	// non-success status, or returned an unusable payload.
	ErrNetwork = errors.New("backend request failed")
	// ErrCapture means the share snapshot could not be produced.
	ErrCapture = errors.New("snapshot capture failed")
	// ErrStale marks a result that arrived after it was superseded. It is
	// only used for logging; stale results are dropped.
	ErrStale = errors.New("stale result")
)

// Command rejections.
var (
	ErrLocked            = errors.New("session is busy with another decision")
	ErrNoMatchup         = errors.New("no matchup is displayed")
	ErrNotInMatchup      = errors.New("album is not part of the displayed matchup")
	ErrDuplicateDecision = errors.New("matchup was already decided")
	ErrInvalidPosition   = errors.New("invalid matchup position")
	ErrClosed            = errors.New("session closed")
	ErrNotStarted        = errors.New("session not started")
)
