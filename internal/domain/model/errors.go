package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidPosition    = errors.New("invalid matchup position")
	ErrDuplicateItem      = errors.New("matchup needs two distinct albums")
	ErrEmptyMatchup       = errors.New("matchup is empty")
	ErrInvalidUserContext = errors.New("invalid user context")
)
