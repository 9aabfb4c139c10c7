package session

import (
	"time"

	"github.com/okian/vinylo/internal/domain/dedupe"
	"github.com/okian/vinylo/pkg/logger"
)

// DefaultSettleInterval is how long a voted pair keeps its new scores on screen.
const DefaultSettleInterval = 400 * time.Millisecond

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSettleInterval sets the pause between a vote result and the next fetch.
func WithSettleInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.settleInterval = d
		}
	}
}

// WithExporter enables snapshot sharing.
func WithExporter(e Exporter) Option {
	return func(c *Controller) {
		c.exporter = e
	}
}

// WithDeduper replaces the per-session decision deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(c *Controller) {
		if d != nil {
			c.dedupe = d
		}
	}
}

// WithShowTutorial shows the first-run tutorial when the session starts.
func WithShowTutorial(show bool) Option {
	return func(c *Controller) {
		c.showTutorial = show
	}
}
