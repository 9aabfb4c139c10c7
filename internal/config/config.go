// Package config defines vinylo configuration and its loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - Durations are stored as milliseconds and exposed through helpers.
// - External errors are wrapped with this package's sentinel errors.
package config

import "time"

// Snapshot renderers.
const (
	RendererRaster = "raster"
	RendererChrome = "chrome"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// BaseURL is the backend API root, e.g. "http://localhost:8000/api".
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Username and Source override the remembered identity when set.
	Username string `koanf:"username" validate:"max=128"`
	Source   string `koanf:"source" validate:"omitempty,oneof=lastfm spotify"`

	// SettleIntervalMS is how long a voted pair stays on screen with its new scores.
	SettleIntervalMS int `koanf:"settle_interval_ms" validate:"gte=0"`

	// RequestTimeoutMS bounds every backend request.
	RequestTimeoutMS int `koanf:"request_timeout_ms" validate:"gt=0"`

	// MetricsAddr serves /metrics during play when non-empty.
	MetricsAddr string `koanf:"metrics_addr"`

	// PrefsPath is the SQLite file holding the remembered identity.
	PrefsPath string `koanf:"prefs_path" validate:"required"`

	// Snapshot export settings.
	SnapshotRenderer   string  `koanf:"snapshot_renderer" validate:"oneof=raster chrome"`
	SnapshotPixelRatio float64 `koanf:"snapshot_pixel_ratio" validate:"gte=1,lte=4"`
	SnapshotBackground string  `koanf:"snapshot_background" validate:"hexcolor"`
	SnapshotChromePath string  `koanf:"snapshot_chrome_path"` // empty looks up chrome on PATH

	// Development backend settings.
	StubAddr              string `koanf:"stub_addr" validate:"required"`
	StubSeedFile          string `koanf:"stub_seed_file"`
	StubScrobbleThreshold int    `koanf:"stub_scrobble_threshold" validate:"gte=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		BaseURL:               "http://localhost:8000/api",
		SettleIntervalMS:      400,
		RequestTimeoutMS:      10_000,
		PrefsPath:             "vinylo.sqlite3",
		SnapshotRenderer:      RendererRaster,
		SnapshotPixelRatio:    2,
		SnapshotBackground:    "#ffffff",
		StubAddr:              ":8000",
		StubScrobbleThreshold: 50,
	}
}

// SettleInterval returns the settle interval as a duration.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.SettleIntervalMS) * time.Millisecond
}

// RequestTimeout returns the backend request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
