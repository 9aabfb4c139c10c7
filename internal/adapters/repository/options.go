package repository

import "math/rand/v2"

// Option applies a configuration option to the AlbumStore.
type Option func(*AlbumStore)

// WithRand sets the random source used to pick pairs.
func WithRand(r *rand.Rand) Option {
	return func(s *AlbumStore) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithDefaultThreshold sets the playcount floor for pools without one.
func WithDefaultThreshold(t int) Option {
	return func(s *AlbumStore) {
		if t >= 0 {
			s.defaultThreshold = t
		}
	}
}
