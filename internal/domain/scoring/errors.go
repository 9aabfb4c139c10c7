package scoring

import "errors"

// Sentinel errors for rating updates.
var (
	ErrInvalidOutcome = errors.New("invalid decision outcome")
	ErrInvalidRating  = errors.New("rating must be finite")
)
