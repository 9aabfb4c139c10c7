package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/session"
	"github.com/okian/vinylo/pkg/logger"
)

// ErrStuck is returned when a session stops making progress.
var ErrStuck = errors.New("session made no progress")

// Backend is what every simulated session talks to.
type Backend interface {
	session.Backend
	Init(ctx context.Context, user model.UserContext) (string, error)
}

// Run executes the simulation. Sessions run concurrently; the first
// session that gets stuck cancels the rest.
func Run(ctx context.Context, cfg Config, b Backend) (Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("simulate")
	start := time.Now()

	log.Info(ctx, "starting simulation",
		logger.Int("sessions", cfg.Sessions),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("exclude_percent", cfg.ExcludePercent),
		logger.String("source", string(cfg.Source)))

	var (
		mu    sync.Mutex
		total Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	for n := 1; n <= cfg.Sessions; n++ {
		g.Go(func() error {
			st, err := runSession(gctx, cfg, b, n, log)
			mu.Lock()
			total.add(st)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	total.Duration = time.Since(start)

	log.Info(ctx, "simulation finished",
		logger.Int("votes", total.Votes),
		logger.Int("votes_failed", total.VotesFailed),
		logger.Int("exclusions", total.Exclusions),
		logger.Int("empty_sessions", total.EmptySessions),
		logger.Duration("duration", total.Duration))
	return total, err
}

func runSession(ctx context.Context, cfg Config, b Backend, n int, log logger.Logger) (Stats, error) {
	st := Stats{Sessions: 1}
	user := cfg.user(n)
	if cfg.Init {
		if _, err := b.Init(ctx, user); err != nil {
			return st, fmt.Errorf("init %s: %w", user.Username, err)
		}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(n))) //nolint:gosec // simulated choices
	c := session.New(user, b,
		session.WithLogger(log),
		session.WithSettleInterval(cfg.SettleInterval))
	defer func() { _ = c.Close() }()

	views, stop := c.Subscribe()
	defer stop()
	if err := c.Start(ctx); err != nil {
		return st, err
	}

	// v is the latest view seen; an idle Ready session publishes nothing
	// further, so only wait when it cannot take a command yet.
	var v session.View
	retries := 0
	for round := 0; round < cfg.Rounds; {
		if !settled(v) {
			var err error
			if v, err = await(ctx, cfg.RoundTimeout, views, settled); err != nil {
				return st, fmt.Errorf("%s round %d: %w", user.Username, round, err)
			}
		}

		switch v.State {
		case session.StateEmpty:
			st.EmptySessions++
			return st, nil
		case session.StateClosed:
			return st, nil
		case session.StateFailed:
			st.FetchFailures++
			if retries++; retries > maxRetries {
				return st, nil
			}
			if err := c.Retry(ctx); err != nil {
				return st, err
			}
			v = session.View{}
			continue
		}
		retries = 0

		prev := v.Matchup.ID
		if err := c.DismissNotice(ctx); err != nil {
			return st, err
		}
		var err error
		exclude := rng.IntN(100) < cfg.ExcludePercent
		if exclude {
			target := v.Matchup.First.ID
			if rng.IntN(2) == 1 {
				target = v.Matchup.Second.ID
			}
			err = c.Exclude(ctx, target)
		} else {
			err = c.Vote(ctx, model.Position(1+rng.IntN(2)))
		}
		if err != nil {
			return st, fmt.Errorf("%s round %d: %w", user.Username, round, err)
		}

		next, err := await(ctx, cfg.RoundTimeout, views, movedOn(prev))
		if err != nil {
			return st, fmt.Errorf("%s round %d: %w", user.Username, round, err)
		}
		v = next
		failed := next.State == session.StateReady && next.Matchup.ID == prev
		switch {
		case exclude && failed:
			st.ExcludeFailed++
		case exclude:
			st.Exclusions++
		case failed:
			st.VotesFailed++
		default:
			st.Votes++
		}
		round++
	}
	return st, nil
}

// settled matches views that accept the next command.
func settled(v session.View) bool {
	switch v.State {
	case session.StateReady, session.StateEmpty, session.StateFailed, session.StateClosed:
		return true
	}
	return false
}

// movedOn matches the first settled view after acting on matchup prev: a
// new pair, or the same pair with a failure notice.
func movedOn(prev string) func(session.View) bool {
	return func(v session.View) bool {
		if !settled(v) {
			return false
		}
		return v.State != session.StateReady || v.Matchup.ID != prev || v.Notice != ""
	}
}

func await(ctx context.Context, timeout time.Duration, views <-chan session.View, cond func(session.View) bool) (session.View, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return session.View{}, err
		}
		select {
		case v, ok := <-views:
			if !ok {
				return session.View{State: session.StateClosed}, nil
			}
			if cond(v) {
				return v, nil
			}
		case <-timer.C:
			return session.View{}, ErrStuck
		case <-ctx.Done():
			return session.View{}, ctx.Err()
		}
	}
}
