package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/scoring"
	"github.com/okian/vinylo/pkg/logger"
)

const maxBodyBytes = 1 << 16

// userFrom reads {username} and ?source=, defaulting to lastfm.
func userFrom(r *http.Request) (model.UserContext, error) {
	src := model.Source(r.URL.Query().Get("source"))
	if src == "" {
		src = model.SourceLastFM
	}
	u := model.UserContext{Username: r.PathValue("username"), Source: src}
	if err := u.Validate(); err != nil {
		return u, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return u, nil
}

func idFrom(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid album id %q", ErrBadRequest, r.PathValue("id"))
	}
	return id, nil
}

func (s *Server) filter(r *http.Request, u model.UserContext) repository.Filter {
	return repository.Filter{
		Username:  u.Username,
		Source:    u.Source,
		Threshold: s.store.Threshold(r.Context(), u.Username, u.Source),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, backend.Message{Message: "vinylo development backend is running"})
}

// handleInit handles POST /api/init/{username}.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := s.Import(r.Context(), u)
	if err != nil {
		s.log.Error(r.Context(), "import failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backend.Message{Message: msg})
}

// handleReset handles DELETE /api/reset/{username}.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.store.Reset(r.Context(), u.Username, u.Source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backend.ResetResponse{
		Message:      fmt.Sprintf("Deleted %d albums for user %s", n, u.Username),
		DeletedCount: n,
	})
}

// handleGetSettings handles GET /api/settings/{username}.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backend.Settings{
		Username:          u.Username,
		Source:            string(u.Source),
		ScrobbleThreshold: s.store.Threshold(r.Context(), u.Username, u.Source),
	})
}

// handleUpdateSettings handles POST /api/settings/{username}.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req backend.SettingsUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.SetThreshold(r.Context(), u.Username, u.Source, req.ScrobbleThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.handleGetSettings(w, r)
}

// handleMatchup handles GET /api/matchup/{username}.
func (s *Server) handleMatchup(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := s.store.RandomPair(r.Context(), s.filter(r, u))
	if errors.Is(err, repository.ErrNotEnoughAlbums) {
		writeError(w, http.StatusBadRequest, backend.NotEnoughAlbums)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, []backend.Album{toWire(pair[0]), toWire(pair[1])})
}

// handleVote handles POST /api/vote.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req backend.VoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	pos, err := model.ParsePosition(strings.TrimSpace(req.Winner))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, `winner must be "1" or "2"`)
		return
	}
	if req.Album1ID == req.Album2ID {
		writeError(w, http.StatusUnprocessableEntity, "albums must differ")
		return
	}

	ctx := r.Context()
	outcome := scoring.SecondWins
	if pos == model.First {
		outcome = scoring.FirstWins
	}
	r1, r2, err := s.store.Rescore(ctx, req.Album1ID, req.Album2ID, func(first, second float64) (float64, float64, error) {
		return s.scorer.Update(first, second, outcome)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Album not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Debug(ctx, "vote recorded",
		logger.Int64("album1", req.Album1ID), logger.Int64("album2", req.Album2ID),
		logger.String("winner", req.Winner),
		logger.Float64("album1_score", r1), logger.Float64("album2_score", r2))
	writeJSON(w, http.StatusOK, backend.VoteResponse{Success: true, NewScores: backend.NewScores{Album1: r1, Album2: r2}})
}

// handleStats handles GET /api/stats/{username}.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.Ranked(r.Context(), s.filter(r, u))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]backend.Album, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWire(e.Album))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleIgnore handles POST /api/ignore/{id}.
func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	s.setIgnored(w, r, true)
}

// handleUnignore handles POST /api/unignore/{id}.
func (s *Server) handleUnignore(w http.ResponseWriter, r *http.Request) {
	s.setIgnored(w, r, false)
}

func (s *Server) setIgnored(w http.ResponseWriter, r *http.Request, ignored bool) {
	id, err := idFrom(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.SetIgnored(r.Context(), id, ignored); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Album not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backend.Ack{Success: true})
}

// handleIgnored handles GET /api/ignored/{username}.
func (s *Server) handleIgnored(w http.ResponseWriter, r *http.Request) {
	u, err := userFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	albums, err := s.store.Ignored(r.Context(), u.Username, u.Source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]backend.Album, 0, len(albums))
	for _, a := range albums {
		out = append(out, toWire(a))
	}
	writeJSON(w, http.StatusOK, out)
}
