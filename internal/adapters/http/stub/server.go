// Package stub is an in-memory development backend that speaks the album
// ranking REST contract, for local play and integration tests.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/http/swagger"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/scoring"
	"github.com/okian/vinylo/pkg/logger"
	"github.com/okian/vinylo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Defaults.
const (
	DefaultDemoSize = 40
)

// Server wires HTTP routes for the development backend.
type Server struct {
	store    repository.Store
	scorer   scoring.Scorer
	log      logger.Logger
	seedDir  string
	seedFile string
	demoSize int
	demoSeed uint64
	redocURL string
}

// NewServer creates a server over store.
func NewServer(store repository.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		scorer:   scoring.NewEloScorer(),
		seedDir:  ".",
		demoSize: DefaultDemoSize,
		demoSeed: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("stub")
	}
	return s
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", metricsMiddleware(s.handleRoot, "root"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /api/init/{username}", metricsMiddleware(s.handleInit, "init"))
	mux.HandleFunc("DELETE /api/reset/{username}", metricsMiddleware(s.handleReset, "reset"))
	mux.HandleFunc("GET /api/settings/{username}", metricsMiddleware(s.handleGetSettings, "settings"))
	mux.HandleFunc("POST /api/settings/{username}", metricsMiddleware(s.handleUpdateSettings, "settings"))
	mux.HandleFunc("GET /api/matchup/{username}", metricsMiddleware(s.handleMatchup, "matchup"))
	mux.HandleFunc("POST /api/vote", metricsMiddleware(s.handleVote, "vote"))
	mux.HandleFunc("GET /api/stats/{username}", metricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("POST /api/ignore/{id}", metricsMiddleware(s.handleIgnore, "ignore"))
	mux.HandleFunc("POST /api/unignore/{id}", metricsMiddleware(s.handleUnignore, "unignore"))
	mux.HandleFunc("GET /api/ignored/{username}", metricsMiddleware(s.handleIgnored, "ignored"))
	swagger.Register(mux, s.redocURL)
}

// Handler returns the routes wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return logMiddleware(s.log, corsMiddleware(mux))
}

// Import fills user's pool when it is empty. It prefers the configured seed
// file, then "{user}_data.json" in the seed dir, then generated demo albums.
func (s *Server) Import(ctx context.Context, user model.UserContext) (string, error) {
	if n := s.store.Count(ctx, user.Username, user.Source); n > 0 {
		return fmt.Sprintf("User %s (%s) already has %d albums.", user.Username, user.Source, n), nil
	}

	path := s.seedFile
	if path == "" {
		path = filepath.Join(s.seedDir, repository.LegacyFileName(user.Username))
	}
	albums, err := repository.ReadLegacyFile(path, user.Username, user.Source, scoring.DefaultRating)
	switch {
	case err == nil:
		if _, err := s.store.Add(ctx, albums...); err != nil {
			return "", fmt.Errorf("%w: %w", ErrImport, err)
		}
		s.log.Info(ctx, "imported legacy albums", logger.String("user", user.Username), logger.Int("count", len(albums)))
		return fmt.Sprintf("Migrated %d albums from JSON.", len(albums)), nil
	case !errors.Is(err, os.ErrNotExist):
		s.log.Warn(ctx, "legacy import failed, generating demo albums", logger.String("path", path), logger.Error(err))
	}

	demo := repository.Demo(user.Username, user.Source, s.demoSize, s.demoSeed, scoring.DefaultRating)
	if _, err := s.store.Add(ctx, demo...); err != nil {
		return "", fmt.Errorf("%w: %w", ErrImport, err)
	}
	s.log.Info(ctx, "generated demo albums", logger.String("user", user.Username), logger.Int("count", len(demo)))
	return fmt.Sprintf("Generated %d demo albums.", len(demo)), nil
}

func toWire(a repository.Album) backend.Album {
	return backend.Album{
		ID:         a.ID,
		Name:       a.Name,
		ArtistName: a.ArtistName,
		URL:        optional(a.URL),
		MBID:       optional(a.MBID),
		ImageURL:   optional(a.ImageURL),
		Playcount:  a.Playcount,
		EloScore:   a.Score,
		Ignored:    a.Ignored,
		Source:     string(a.Source),
		Username:   a.Username,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, backend.ErrorBody{Detail: detail})
}
