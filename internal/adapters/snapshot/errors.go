package snapshot

import "errors"

// Sentinel errors for snapshot rendering.
var (
	ErrInvalidColor = errors.New("invalid background color")
	ErrEmptyCard    = errors.New("share card has no matchup")
	ErrRender       = errors.New("render share card")
)
