package service

import (
	"github.com/okian/vinylo/internal/domain/session"
	"github.com/okian/vinylo/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend replaces the REST client built from the config.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithExporter replaces the snapshot exporter built from the config.
func WithExporter(e session.Exporter) Option {
	return func(s *Service) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithPrefs replaces the preference store opened from the config.
func WithPrefs(p Prefs) Option {
	return func(s *Service) {
		if p != nil {
			s.prefs = p
		}
	}
}
