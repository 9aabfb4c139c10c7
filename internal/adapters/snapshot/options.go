package snapshot

import (
	"net/http"
	"time"

	"github.com/okian/vinylo/pkg/logger"
)

// Defaults shared by the exporters.
const (
	DefaultPixelRatio = 2.0
	DefaultBackground = "#ffffff"
	defaultTimeout    = 15 * time.Second
	maxPixelRatio     = 4.0
)

type settings struct {
	pixelRatio float64
	background string
	timeout    time.Duration
	httpClient *http.Client
	execPath   string
	log        logger.Logger
}

func defaultSettings() settings {
	return settings{
		pixelRatio: DefaultPixelRatio,
		background: DefaultBackground,
		timeout:    defaultTimeout,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Option configures an exporter.
type Option func(*settings)

// WithPixelRatio scales the output relative to the logical card size.
// Values outside [1, 4] are ignored.
func WithPixelRatio(r float64) Option {
	return func(s *settings) {
		if r >= 1 && r <= maxPixelRatio {
			s.pixelRatio = r
		}
	}
}

// WithBackground sets the card background as #rgb or #rrggbb.
func WithBackground(hex string) Option {
	return func(s *settings) {
		if hex != "" {
			s.background = hex
		}
	}
}

// WithTimeout bounds one capture.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient sets the client used to download cover art.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithExecPath points the chrome exporter at a specific browser binary.
func WithExecPath(path string) Option {
	return func(s *settings) { s.execPath = path }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
