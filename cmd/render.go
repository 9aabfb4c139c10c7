package main

import (
	"fmt"
	"strings"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/session"
)

const tutorialText = `How to play:
  Two albums from your collection are shown. Pick the one you like more.
  1 or 2    vote for that album
  x1 or x2  ignore that album for good (restore it later with "vinylo ignored")
  s         save the matchup as an image
  r         load another pair
  h         show or hide this help
  d         dismiss a message
  q         quit`

// renderView formats a session view for the terminal.
func renderView(v session.View) string {
	var b strings.Builder
	if v.ShowTutorial {
		b.WriteString(tutorialText)
		b.WriteString("\n\n")
	}

	switch v.State {
	case session.StateIdle, session.StateLoading:
		b.WriteString("Loading matchup...\n")
	case session.StateReady:
		writePair(&b, v.Matchup)
		b.WriteString("Your pick (1/2, x1/x2 to ignore, h for help): ")
	case session.StateVoting:
		writePair(&b, v.Matchup)
		b.WriteString("Saving vote...\n")
	case session.StateSettling:
		b.WriteString("Saved. New scores:\n")
		writePair(&b, v.Matchup)
	case session.StateExcluding:
		b.WriteString("Ignoring album...\n")
	case session.StateEmpty:
		b.WriteString("Not enough albums to compare. Restore ignored albums or lower the threshold, then press r.\n")
	case session.StateFailed:
		fmt.Fprintf(&b, "Could not load a matchup: %v\nPress r to retry.\n", v.Err)
	case session.StateClosed:
		b.WriteString("Session closed.\n")
	}

	if v.Notice != "" {
		fmt.Fprintf(&b, "\n! %s (d to dismiss)\n", v.Notice)
	}
	return b.String()
}

func writePair(b *strings.Builder, m model.Matchup) {
	fmt.Fprintf(b, "  [1] %s\n", m.First)
	b.WriteString("       vs\n")
	fmt.Fprintf(b, "  [2] %s\n", m.Second)
}
