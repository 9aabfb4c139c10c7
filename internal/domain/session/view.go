package session

import "github.com/okian/vinylo/internal/domain/model"

// State is the session lifecycle tag.
type State int

// Session states.
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateVoting
	StateSettling
	StateExcluding
	StateEmpty
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateVoting:
		return "voting"
	case StateSettling:
		return "settling"
	case StateExcluding:
		return "excluding"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// locked reports whether a decision or exclusion holds the session.
func (s State) locked() bool {
	return s == StateVoting || s == StateSettling || s == StateExcluding
}

// View is the read-only state published to the presentation layer.
type View struct {
	State        State
	Matchup      model.Matchup // zero unless a pair is displayed
	Locked       bool          // a decision or exclusion is in flight
	ShareEnabled bool
	ShowTutorial bool
	Notice       string // transient, dismissable
	Err          error  // set in StateFailed
}

// Actionable reports whether vote and exclude controls accept input.
func (v View) Actionable() bool { return v.State == StateReady }
