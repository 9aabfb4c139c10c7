package repository

import "errors"

// Sentinel kinds for album store errors.
var (
	ErrNotFound        = errors.New("album not found")
	ErrNotEnoughAlbums = errors.New("not enough albums for a matchup")
	ErrInvalidAlbum    = errors.New("invalid album")
	ErrInvalidLimit    = errors.New("invalid threshold")
	ErrLegacyFormat    = errors.New("invalid legacy album file")
)
