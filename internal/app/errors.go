package service

import "errors"

// Sentinel errors for the application service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoUser     = errors.New("no username: log in first or set VINYLO_USERNAME")
	ErrRenderer   = errors.New("unknown snapshot renderer")
)
