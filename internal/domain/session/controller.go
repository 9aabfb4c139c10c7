// Package session runs a single matchup voting session.
//
// A Controller owns the displayed pair and every in-flight flag. All state
// lives on one goroutine: commands arrive on an inbox, backend calls run in
// their own goroutines and report back on a results channel, and each change
// is published as an immutable View.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/vinylo/internal/domain/dedupe"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
	"github.com/okian/vinylo/pkg/metrics"
)

// Notices shown after a recoverable failure.
const (
	NoticeVoteFailed    = "Your vote was not saved. Pick again to retry."
	NoticeExcludeFailed = "Could not ignore that album."
	NoticeRestoreFailed = "Could not restore that album."
	NoticeShareFailed   = "Sharing is unavailable for this matchup."
)

type command struct {
	apply func() error
	reply chan error
}

// result is applied on the loop goroutine.
type result func()

// Controller is one user's voting session. Create it with New, call Start
// once, and Close it when the session is torn down.
type Controller struct {
	user      model.UserContext
	fetcher   Fetcher
	submitter Submitter
	excluder  Excluder
	exporter  Exporter

	log            logger.Logger
	settleInterval time.Duration
	dedupe         dedupe.Deduper
	showTutorial   bool

	inbox   chan command
	results chan result
	done    chan struct{}

	lifeMu  sync.Mutex
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc

	viewMu     sync.RWMutex
	view       View
	subs       map[chan View]struct{}
	subsClosed bool

	// Owned by the loop goroutine.
	state         State
	matchup       model.Matchup
	notice        string
	err           error
	shareEnabled  bool
	fetchGen      uint64
	fetchCancel   context.CancelFunc
	votesInFlight int
	excluded      map[int64]struct{}
}

// New creates a controller for user backed by the given collaborators.
func New(user model.UserContext, backend Backend, opts ...Option) *Controller {
	c := &Controller{
		user:           user,
		fetcher:        backend,
		submitter:      backend,
		excluder:       backend,
		log:            logger.Get().Named("session"),
		settleInterval: DefaultSettleInterval,
		inbox:          make(chan command),
		results:        make(chan result),
		done:           make(chan struct{}),
		subs:           make(map[chan View]struct{}),
		excluded:       make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dedupe == nil {
		c.dedupe = dedupe.NewInMemoryDeduper()
	}
	c.view = View{State: StateIdle, ShowTutorial: c.showTutorial}
	return c
}

// Start validates the user context, starts the loop and issues the first
// fetch. The session lives until Close or until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.user.Validate(); err != nil {
		return err
	}

	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.lifeMu.Unlock()
		return nil
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.lifeMu.Unlock()

	metrics.AddActiveSessions(1)
	c.log.Info(ctx, "session started",
		logger.String("user", c.user.Username),
		logger.String("source", string(c.user.Source)))

	go c.run()
	return c.do(ctx, func() error {
		c.fetch()
		return nil
	})
}

// Close cancels all in-flight work and waits for the loop to exit. No result
// is applied after Close returns.
func (c *Controller) Close() error {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	if !c.started {
		c.lifeMu.Unlock()
		c.state = StateClosed
		c.publish()
		c.closeSubscribers()
		close(c.done)
		return nil
	}
	cancel := c.cancel
	c.lifeMu.Unlock()

	cancel()
	<-c.done
	return nil
}

// Done is closed when the session loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

// View returns the latest published view.
func (c *Controller) View() View {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.view
}

// Subscribe returns a channel that always holds the most recent view, and a
// function that stops the subscription. The channel is closed when the
// session closes.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	ch <- c.view
	if c.subsClosed {
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.viewMu.Lock()
			defer c.viewMu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Vote decides the displayed matchup in favour of the album at pos.
func (c *Controller) Vote(ctx context.Context, pos model.Position) error {
	return c.do(ctx, func() error { return c.vote(pos) })
}

// Exclude ignores one of the displayed albums and, on success, moves on to
// a new pair.
func (c *Controller) Exclude(ctx context.Context, itemID int64) error {
	return c.do(ctx, func() error { return c.exclude(itemID) })
}

// Restore returns an ignored album to the pool. It never locks the session.
func (c *Controller) Restore(ctx context.Context, itemID int64) error {
	return c.do(ctx, func() error {
		c.restore(itemID)
		return nil
	})
}

// Retry abandons any in-flight fetch and requests a new pair.
func (c *Controller) Retry(ctx context.Context) error {
	return c.do(ctx, func() error {
		switch {
		case c.state.locked():
			return ErrLocked
		case c.state == StateIdle:
			return ErrNotStarted
		}
		c.fetch()
		return nil
	})
}

// DismissNotice clears the transient notice.
func (c *Controller) DismissNotice(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.notice = ""
		return nil
	})
}

// SetTutorialVisible shows or hides the tutorial overlay.
func (c *Controller) SetTutorialVisible(ctx context.Context, visible bool) error {
	return c.do(ctx, func() error {
		c.showTutorial = visible
		return nil
	})
}

// RequestSnapshot captures the displayed pair as a share image. A capture
// failure disables sharing for this pair and leaves voting untouched.
func (c *Controller) RequestSnapshot(ctx context.Context) (model.Image, error) {
	var card model.ShareCard
	err := c.do(ctx, func() error {
		switch {
		case c.exporter == nil:
			return fmt.Errorf("%w: sharing is not configured", ErrCapture)
		case c.matchup.IsZero():
			return ErrNoMatchup
		case !c.shareEnabled:
			return fmt.Errorf("%w: sharing disabled for this matchup", ErrCapture)
		}
		card = c.matchup.Card()
		return nil
	})
	if err != nil {
		return model.Image{}, err
	}

	img, err := c.exporter.Capture(ctx, card)
	if err == nil && img.Empty() {
		err = fmt.Errorf("empty image for matchup %s", card.MatchupID)
	}
	if err != nil {
		c.log.Warn(ctx, "snapshot failed", logger.String("matchup", card.MatchupID), logger.Error(err))
		metrics.RecordErrorByComponent("session", "capture")
		c.post(func() {
			if c.matchup.ID == card.MatchupID {
				c.shareEnabled = false
				c.notice = NoticeShareFailed
			}
		})
		return model.Image{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	return img, nil
}

// do runs fn on the loop goroutine and returns its error.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	c.lifeMu.Lock()
	started, closed := c.started, c.closed
	c.lifeMu.Unlock()
	switch {
	case closed && !started:
		return ErrClosed
	case !started:
		return ErrNotStarted
	}

	cmd := command{apply: fn, reply: make(chan error, 1)}
	select {
	case c.inbox <- cmd:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// post hands a result to the loop from outside it.
func (c *Controller) post(r result) {
	select {
	case c.results <- r:
	case <-c.done:
	}
}

// spawn runs op off the loop and delivers its result unless the session
// has been torn down in the meantime.
func (c *Controller) spawn(op func() result) {
	ctx := c.ctx
	go func() {
		r := op()
		select {
		case c.results <- r:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.teardown()
			return
		case cmd := <-c.inbox:
			// Publish before replying so callers observe their own command.
			err := cmd.apply()
			c.publish()
			cmd.reply <- err
		case r := <-c.results:
			if c.ctx.Err() != nil {
				c.teardown()
				return
			}
			r()
			c.publish()
		}
	}
}

func (c *Controller) teardown() {
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	if c.votesInFlight > 0 {
		metrics.AddVotesInFlight(-c.votesInFlight)
		c.votesInFlight = 0
	}
	c.state = StateClosed
	c.matchup = model.Matchup{}
	c.shareEnabled = false
	c.publish()
	c.closeSubscribers()
	metrics.AddActiveSessions(-1)
	c.log.Info(context.Background(), "session closed", logger.String("user", c.user.Username))
}

// fetch supersedes any outstanding fetch and requests a new pair.
func (c *Controller) fetch() {
	if c.fetchCancel != nil {
		c.fetchCancel()
	}
	c.fetchGen++
	gen := c.fetchGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.fetchCancel = cancel

	c.state = StateLoading
	c.matchup = model.Matchup{}
	c.shareEnabled = false
	c.err = nil

	user := c.user
	c.spawn(func() result {
		m, err := c.fetcher.FetchMatchup(ctx, user)
		return func() { c.onFetched(gen, m, err) }
	})
}

func (c *Controller) onFetched(gen uint64, m model.Matchup, err error) {
	if gen != c.fetchGen || c.state != StateLoading {
		metrics.RecordFetch(metrics.OutcomeStale)
		c.log.Debug(c.ctx, "dropping fetch result",
			logger.Any("generation", gen),
			logger.Any("current", c.fetchGen),
			logger.Error(ErrStale))
		return
	}
	c.fetchCancel()
	c.fetchCancel = nil

	if err == nil {
		err = c.checkMatchup(m)
	}
	if err != nil {
		c.state = StateFailed
		c.err = fmt.Errorf("%w: %w", ErrNetwork, err)
		metrics.RecordFetch(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("session", "fetch")
		c.log.Warn(c.ctx, "matchup fetch failed", logger.Error(err))
		return
	}
	if m.IsZero() {
		c.state = StateEmpty
		metrics.RecordFetch(metrics.OutcomeEmpty)
		c.log.Info(c.ctx, "not enough albums for a matchup")
		return
	}

	c.state = StateReady
	c.matchup = m
	c.shareEnabled = c.exporter != nil
	metrics.RecordFetch(metrics.OutcomeReady)
	c.log.Debug(c.ctx, "matchup ready",
		logger.String("matchup", m.ID),
		logger.Int64("first", m.First.ID),
		logger.Int64("second", m.Second.ID))
}

// checkMatchup rejects pairs that break the pairing contract.
func (c *Controller) checkMatchup(m model.Matchup) error {
	if m.IsZero() {
		return nil
	}
	if m.First.ID == m.Second.ID {
		return fmt.Errorf("%w: album %d", model.ErrDuplicateItem, m.First.ID)
	}
	for _, it := range m.Items() {
		if _, ok := c.excluded[it.ID]; ok {
			return fmt.Errorf("backend returned ignored album %d", it.ID)
		}
	}
	return nil
}

func (c *Controller) vote(pos model.Position) error {
	if err := c.decisionAllowed(); err != nil {
		return err
	}
	if !pos.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, int(pos))
	}
	d, err := c.matchup.Decide(pos)
	if err != nil {
		return err
	}
	if c.dedupe.SeenAndRecord(c.ctx, d.MatchupID) {
		metrics.RecordVote(metrics.OutcomeRejected)
		return ErrDuplicateDecision
	}

	c.state = StateVoting
	c.notice = ""
	c.votesInFlight++
	if c.votesInFlight > 1 {
		c.log.Error(c.ctx, "more than one vote in flight", logger.Int("in_flight", c.votesInFlight))
	}
	metrics.AddVotesInFlight(1)

	voted := c.matchup
	c.spawn(func() result {
		scores, err := c.submitter.SubmitVote(c.ctx, d)
		return func() { c.onVoted(voted, d, scores, err) }
	})
	return nil
}

func (c *Controller) onVoted(voted model.Matchup, d model.VoteDecision, scores model.Scores, err error) {
	c.votesInFlight--
	metrics.AddVotesInFlight(-1)

	if c.state != StateVoting || c.matchup.ID != voted.ID {
		return
	}
	if err != nil {
		c.dedupe.Unrecord(c.ctx, d.MatchupID)
		c.state = StateReady
		c.notice = NoticeVoteFailed
		metrics.RecordVote(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("session", "vote")
		c.log.Warn(c.ctx, "vote failed",
			logger.String("matchup", d.MatchupID),
			logger.Error(fmt.Errorf("%w: %w", ErrNetwork, err)))
		return
	}

	c.matchup = voted.WithScores(scores)
	c.state = StateSettling
	metrics.RecordVote(metrics.OutcomeAccepted)
	c.log.Debug(c.ctx, "vote accepted",
		logger.String("matchup", d.MatchupID),
		logger.String("winner", d.Winner.String()),
		logger.Float64("first_score", scores.First),
		logger.Float64("second_score", scores.Second))
	c.settle(voted.ID)
}

// settle holds the voted pair for the settle interval, then fetches.
func (c *Controller) settle(matchupID string) {
	interval := c.settleInterval
	ctx := c.ctx
	started := time.Now()
	c.spawn(func() result {
		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		return func() {
			if c.state != StateSettling || c.matchup.ID != matchupID {
				return
			}
			metrics.RecordSettleDuration(float64(time.Since(started).Milliseconds()))
			c.fetch()
		}
	})
}

func (c *Controller) exclude(itemID int64) error {
	if err := c.decisionAllowed(); err != nil {
		return err
	}
	if !c.matchup.Contains(itemID) {
		return fmt.Errorf("%w: %d", ErrNotInMatchup, itemID)
	}

	c.state = StateExcluding
	c.notice = ""
	shown := c.matchup.ID
	c.spawn(func() result {
		err := c.excluder.Ignore(c.ctx, itemID)
		return func() { c.onExcluded(shown, itemID, err) }
	})
	return nil
}

func (c *Controller) onExcluded(matchupID string, itemID int64, err error) {
	if c.state != StateExcluding || c.matchup.ID != matchupID {
		return
	}
	if err != nil {
		c.state = StateReady
		c.notice = NoticeExcludeFailed
		metrics.RecordExclusion("ignore", metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("session", "ignore")
		c.log.Warn(c.ctx, "ignore failed",
			logger.Int64("album", itemID),
			logger.Error(fmt.Errorf("%w: %w", ErrNetwork, err)))
		return
	}
	c.excluded[itemID] = struct{}{}
	metrics.RecordExclusion("ignore", metrics.OutcomeOK)
	c.log.Info(c.ctx, "album ignored", logger.Int64("album", itemID))
	c.fetch()
}

func (c *Controller) restore(itemID int64) {
	c.spawn(func() result {
		err := c.excluder.Unignore(c.ctx, itemID)
		return func() { c.onRestored(itemID, err) }
	})
}

func (c *Controller) onRestored(itemID int64, err error) {
	if err != nil {
		c.notice = NoticeRestoreFailed
		metrics.RecordExclusion("restore", metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("session", "restore")
		c.log.Warn(c.ctx, "restore failed",
			logger.Int64("album", itemID),
			logger.Error(fmt.Errorf("%w: %w", ErrNetwork, err)))
		return
	}
	delete(c.excluded, itemID)
	metrics.RecordExclusion("restore", metrics.OutcomeOK)
	c.log.Info(c.ctx, "album restored", logger.Int64("album", itemID))
	if c.state == StateEmpty || c.state == StateFailed {
		c.fetch()
	}
}

// decisionAllowed reports why the displayed pair cannot take a vote or an
// exclusion right now.
func (c *Controller) decisionAllowed() error {
	switch {
	case c.state.locked():
		return ErrLocked
	case c.state != StateReady:
		return ErrNoMatchup
	}
	return nil
}

func (c *Controller) publish() {
	v := View{
		State:        c.state,
		Matchup:      c.matchup,
		Locked:       c.state.locked(),
		ShareEnabled: c.shareEnabled && !c.matchup.IsZero(),
		ShowTutorial: c.showTutorial,
		Notice:       c.notice,
		Err:          c.err,
	}

	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	c.view = v
	for ch := range c.subs {
		// Single sender: after draining there is room for the new value.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (c *Controller) closeSubscribers() {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
	c.subsClosed = true
}
