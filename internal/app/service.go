// Package service wires the backend client, snapshot exporter and
// preference store into voting sessions.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/prefs"
	"github.com/okian/vinylo/internal/adapters/snapshot"
	"github.com/okian/vinylo/internal/config"
	"github.com/okian/vinylo/internal/domain/dedupe"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/session"
	"github.com/okian/vinylo/pkg/logger"
)

// Backend is the full REST surface the application uses.
type Backend interface {
	session.Backend
	ListIgnored(ctx context.Context, user model.UserContext) ([]model.Item, error)
	Stats(ctx context.Context, user model.UserContext) ([]model.Item, error)
	Init(ctx context.Context, user model.UserContext) (string, error)
	Reset(ctx context.Context, user model.UserContext) (int, error)
	Threshold(ctx context.Context, user model.UserContext) (int, error)
	SetThreshold(ctx context.Context, user model.UserContext, threshold int) (int, error)
}

// Prefs remembers the identity and tutorial flag between runs.
type Prefs interface {
	Load(ctx context.Context) (model.Prefs, error)
	SaveUser(ctx context.Context, user model.UserContext) error
	MarkTutorialSeen(ctx context.Context) error
	Forget(ctx context.Context) error
	Close() error
}

// decisionMemory bounds how many decided matchup ids the service remembers
// across its sessions.
const decisionMemory = 4096

// Service owns the long-lived collaborators and the active sessions.
type Service struct {
	mu sync.RWMutex

	cfg      config.Config
	backend  Backend
	exporter session.Exporter
	prefs    Prefs
	logger   logger.Logger

	// decisions is shared by every session so a matchup cannot be decided
	// twice through two sessions.
	decisions dedupe.Deduper

	started  bool
	sessions map[string]*session.Controller
}

// New constructs a Service for cfg.
func New(cfg config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		decisions: dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(decisionMemory)),
		sessions:  make(map[string]*session.Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds whatever collaborators were not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.backend == nil {
		c, err := backend.New(s.cfg.BaseURL,
			backend.WithTimeout(s.cfg.RequestTimeout()),
			backend.WithLogger(s.logger.Named("backend")))
		if err != nil {
			return err
		}
		s.backend = c
	}
	if s.exporter == nil {
		e, err := newExporter(s.cfg, s.logger.Named("snapshot"))
		if err != nil {
			return err
		}
		s.exporter = e
	}
	if s.prefs == nil {
		p, err := prefs.Open(s.cfg.PrefsPath, prefs.WithLogger(s.logger.Named("prefs")))
		if err != nil {
			return err
		}
		s.prefs = p
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.String("base_url", s.cfg.BaseURL),
		logger.String("renderer", s.cfg.SnapshotRenderer),
		logger.String("prefs", s.cfg.PrefsPath))
	return nil
}

func newExporter(cfg config.Config, log logger.Logger) (session.Exporter, error) {
	opts := []snapshot.Option{
		snapshot.WithPixelRatio(cfg.SnapshotPixelRatio),
		snapshot.WithBackground(cfg.SnapshotBackground),
		snapshot.WithLogger(log),
	}
	switch cfg.SnapshotRenderer {
	case "", config.RendererRaster:
		return snapshot.NewRaster(opts...)
	case config.RendererChrome:
		return snapshot.NewChrome(append(opts, snapshot.WithExecPath(cfg.SnapshotChromePath))...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrRenderer, cfg.SnapshotRenderer)
	}
}

// Stop closes every session and the preference store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for id, c := range s.sessions {
		_ = c.Close()
		delete(s.sessions, id)
	}
	if s.prefs != nil {
		if err := s.prefs.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close prefs", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// ResolveUser picks the identity for a command: an explicit config
// override first, then the remembered one.
func (s *Service) ResolveUser(ctx context.Context) (model.UserContext, error) {
	if err := s.ready(); err != nil {
		return model.UserContext{}, err
	}
	p, err := s.prefs.Load(ctx)
	if err != nil {
		return model.UserContext{}, err
	}
	if s.cfg.Username != "" {
		p.Username = s.cfg.Username
	}
	if s.cfg.Source != "" {
		p.Source = model.Source(s.cfg.Source)
	}
	if p.Username == "" {
		return model.UserContext{}, ErrNoUser
	}
	u := p.User()
	if err := u.Validate(); err != nil {
		return model.UserContext{}, err
	}
	return u, nil
}

// Login remembers user and asks the backend to import their collection.
func (s *Service) Login(ctx context.Context, user model.UserContext) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if err := s.prefs.SaveUser(ctx, user); err != nil {
		return "", err
	}
	msg, err := s.backend.Init(ctx, user)
	if err != nil {
		return "", fmt.Errorf("import collection: %w", err)
	}
	s.logger.Info(ctx, "logged in", logger.String("user", user.Username), logger.String("source", string(user.Source)))
	return msg, nil
}

// Logout forgets the remembered identity.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.prefs.Forget(ctx)
}

// NewSession starts a voting session for user. The tutorial is shown until
// it has been dismissed once.
func (s *Service) NewSession(ctx context.Context, user model.UserContext, opts ...session.Option) (string, *session.Controller, error) {
	if err := s.ready(); err != nil {
		return "", nil, err
	}
	p, err := s.prefs.Load(ctx)
	if err != nil {
		return "", nil, err
	}

	base := []session.Option{
		session.WithLogger(s.logger.Named("session")),
		session.WithSettleInterval(s.cfg.SettleInterval()),
		session.WithExporter(s.exporter),
		session.WithDeduper(s.decisions),
		session.WithShowTutorial(!p.TutorialSeen),
	}
	c := session.New(user, s.backend, append(base, opts...)...)
	if err := c.Start(ctx); err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = c
	s.mu.Unlock()
	return id, c, nil
}

// CloseSession closes and forgets one session.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Close()
}

// DismissTutorial hides the tutorial in session id and for future sessions.
func (s *Service) DismissTutorial(ctx context.Context, id string) error {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		if err := c.SetTutorialVisible(ctx, false); err != nil {
			return err
		}
	}
	return s.prefs.MarkTutorialSeen(ctx)
}

// Ignored lists user's ignored albums.
func (s *Service) Ignored(ctx context.Context, user model.UserContext) ([]model.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.backend.ListIgnored(ctx, user)
}

// Restore returns an ignored album to the pool outside of a session.
func (s *Service) Restore(ctx context.Context, itemID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.backend.Unignore(ctx, itemID)
}

// Ranking returns user's albums best first.
func (s *Service) Ranking(ctx context.Context, user model.UserContext) ([]model.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.backend.Stats(ctx, user)
}

// Threshold returns the playcount floor for user's pool.
func (s *Service) Threshold(ctx context.Context, user model.UserContext) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.backend.Threshold(ctx, user)
}

// SetThreshold changes the playcount floor for user's pool.
func (s *Service) SetThreshold(ctx context.Context, user model.UserContext, threshold int) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.backend.SetThreshold(ctx, user, threshold)
}

// Reset deletes user's pool on the backend.
func (s *Service) Reset(ctx context.Context, user model.UserContext) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.backend.Reset(ctx, user)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"started":        s.started,
		"activeSessions": len(s.sessions),
		"renderer":       s.cfg.SnapshotRenderer,
		"baseURL":        s.cfg.BaseURL,
	}
}
