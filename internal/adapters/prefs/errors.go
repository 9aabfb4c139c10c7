package prefs

import "errors"

// Sentinel errors for the preference store.
var (
	ErrOpen   = errors.New("open preference store")
	ErrClosed = errors.New("preference store is closed")
)
