package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/vinylo/internal/domain/model"
)

type actionKind int

const (
	actNone actionKind = iota
	actVote
	actExclude
	actRetry
	actSnapshot
	actTutorial
	actDismiss
	actQuit
)

// action is one parsed line of play-mode input.
type action struct {
	kind actionKind
	pos  model.Position // for actVote and actExclude
}

// ErrUnknownInput is returned for a line that names no action.
var ErrUnknownInput = errors.New("unknown input")

// parseInput maps a line typed during play to an action. Blank lines are
// actNone.
func parseInput(line string) (action, error) {
	s := strings.ToLower(strings.TrimSpace(line))
	switch s {
	case "":
		return action{kind: actNone}, nil
	case "r", "retry":
		return action{kind: actRetry}, nil
	case "s", "share":
		return action{kind: actSnapshot}, nil
	case "h", "help", "?":
		return action{kind: actTutorial}, nil
	case "d", "dismiss":
		return action{kind: actDismiss}, nil
	case "q", "quit", "exit":
		return action{kind: actQuit}, nil
	}

	kind := actVote
	if rest, ok := strings.CutPrefix(s, "x"); ok {
		kind = actExclude
		s = strings.TrimSpace(rest)
	}
	pos, err := model.ParsePosition(s)
	if err != nil {
		return action{}, fmt.Errorf("%w: %q", ErrUnknownInput, strings.TrimSpace(line))
	}
	return action{kind: kind, pos: pos}, nil
}
