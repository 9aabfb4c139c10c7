// Package scoring computes Elo ratings for the development backend.
package scoring

import (
	"fmt"
	"math"
)

// Default Elo parameters. With these, two albums at 1500 move to 1516/1484.
const (
	DefaultKFactor = 32
	DefaultDivisor = 400
	DefaultRating  = 1500
)

// Option applies a configuration option to the EloScorer.
type Option func(*EloScorer)

// WithKFactor sets the maximum rating change per decision.
func WithKFactor(k float64) Option {
	return func(s *EloScorer) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDivisor sets the rating difference that means 10:1 expected odds.
func WithDivisor(d float64) Option {
	return func(s *EloScorer) {
		if d > 0 {
			s.divisor = d
		}
	}
}

// Outcome is the result of a decision from the first album's point of view.
type Outcome float64

// Decision outcomes.
const (
	FirstWins  Outcome = 1
	SecondWins Outcome = 0
)

// Scorer updates two ratings after a head-to-head decision.
type Scorer interface {
	Update(first, second float64, outcome Outcome) (newFirst, newSecond float64, err error)
}

// EloScorer implements Scorer with the classic Elo update.
type EloScorer struct {
	kFactor float64
	divisor float64
}

// NewEloScorer creates a scorer with configuration options.
func NewEloScorer(opts ...Option) *EloScorer {
	s := &EloScorer{
		kFactor: DefaultKFactor,
		divisor: DefaultDivisor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expected returns the probability that a rating of r beats a rating of opponent.
func (s *EloScorer) Expected(r, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-r)/s.divisor))
}

// Update returns both ratings after the decision.
func (s *EloScorer) Update(first, second float64, outcome Outcome) (float64, float64, error) {
	if outcome != FirstWins && outcome != SecondWins {
		return first, second, fmt.Errorf("%w: %v", ErrInvalidOutcome, float64(outcome))
	}
	if math.IsNaN(first) || math.IsNaN(second) || math.IsInf(first, 0) || math.IsInf(second, 0) {
		return first, second, ErrInvalidRating
	}
	e1 := s.Expected(first, second)
	e2 := s.Expected(second, first)
	score := float64(outcome)
	return first + s.kFactor*(score-e1), second + s.kFactor*((1-score)-e2), nil
}
