// Package simulate drives many concurrent voting sessions against a backend
// and reports what happened.
package simulate

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/vinylo/internal/domain/model"
)

// Defaults.
const (
	DefaultSessions       = 8
	DefaultRounds         = 25
	DefaultExcludePercent = 10
	DefaultRoundTimeout   = 10 * time.Second
	DefaultSettleInterval = 10 * time.Millisecond
	maxRetries            = 3
)

// Config holds configuration for a simulation run.
type Config struct {
	Sessions       int           // concurrent sessions
	Rounds         int           // decisions per session
	ExcludePercent int           // chance in percent that a round ignores an album instead of voting
	UserPrefix     string        // sessions vote as "<prefix>-<n>"
	Source         model.Source  // collection scope for every session
	Init           bool          // ask the backend to import each user first
	Seed           uint64        // random seed; runs with the same seed make the same choices
	RoundTimeout   time.Duration // upper bound for one round
	SettleInterval time.Duration // overlay time between pairs
}

func (c Config) withDefaults() Config {
	if c.Sessions <= 0 {
		c.Sessions = DefaultSessions
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.ExcludePercent < 0 || c.ExcludePercent > 100 {
		c.ExcludePercent = DefaultExcludePercent
	}
	if c.UserPrefix == "" {
		c.UserPrefix = "sim"
	}
	if c.Source == "" {
		c.Source = model.SourceLastFM
	}
	if c.RoundTimeout <= 0 {
		c.RoundTimeout = DefaultRoundTimeout
	}
	if c.SettleInterval <= 0 {
		c.SettleInterval = DefaultSettleInterval
	}
	return c
}

func (c Config) user(n int) model.UserContext {
	return model.UserContext{Username: fmt.Sprintf("%s-%d", c.UserPrefix, n), Source: c.Source}
}

// Stats holds simulation statistics.
type Stats struct {
	Sessions      int
	Votes         int
	VotesFailed   int
	Exclusions    int
	ExcludeFailed int
	FetchFailures int
	EmptySessions int
	Duration      time.Duration
}

func (s *Stats) add(o Stats) {
	s.Sessions += o.Sessions
	s.Votes += o.Votes
	s.VotesFailed += o.VotesFailed
	s.Exclusions += o.Exclusions
	s.ExcludeFailed += o.ExcludeFailed
	s.FetchFailures += o.FetchFailures
	s.EmptySessions += o.EmptySessions
}

// Summary renders the stats for a terminal.
func (s Stats) Summary() string {
	rate := 0.0
	if s.Duration > 0 {
		rate = float64(s.Votes) / s.Duration.Seconds()
	}
	return fmt.Sprintf("%s sessions, %s votes (%s failed), %s exclusions (%s failed), %s fetch failures, %s emptied pools in %s (%s votes/s)",
		humanize.Comma(int64(s.Sessions)),
		humanize.Comma(int64(s.Votes)),
		humanize.Comma(int64(s.VotesFailed)),
		humanize.Comma(int64(s.Exclusions)),
		humanize.Comma(int64(s.ExcludeFailed)),
		humanize.Comma(int64(s.FetchFailures)),
		humanize.Comma(int64(s.EmptySessions)),
		s.Duration.Round(time.Millisecond),
		humanize.FormatFloat("#,###.", rate))
}
