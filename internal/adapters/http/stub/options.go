package stub

import (
	"github.com/okian/vinylo/internal/domain/scoring"
	"github.com/okian/vinylo/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithScorer replaces the Elo scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Server) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSeedDir sets where "{user}_data.json" exports are looked up.
func WithSeedDir(dir string) Option {
	return func(s *Server) { s.seedDir = dir }
}

// WithSeedFile imports this legacy export for every new user instead of
// looking one up by username.
func WithSeedFile(path string) Option {
	return func(s *Server) { s.seedFile = path }
}

// WithDemoSize sets how many albums are generated when no export exists.
func WithDemoSize(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.demoSize = n
		}
	}
}

// WithDemoSeed makes generated albums reproducible.
func WithDemoSeed(seed uint64) Option {
	return func(s *Server) { s.demoSeed = seed }
}

// WithRedocURL changes where the /api-docs page loads ReDoc from.
func WithRedocURL(url string) Option {
	return func(s *Server) { s.redocURL = url }
}
