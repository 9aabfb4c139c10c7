package main

import (
	"errors"
	"testing"

	"github.com/okian/vinylo/internal/domain/model"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		in   string
		want action
	}{
		{"", action{kind: actNone}},
		{"   ", action{kind: actNone}},
		{"1", action{kind: actVote, pos: model.First}},
		{" 2 ", action{kind: actVote, pos: model.Second}},
		{"first", action{kind: actVote, pos: model.First}},
		{"x1", action{kind: actExclude, pos: model.First}},
		{"X2", action{kind: actExclude, pos: model.Second}},
		{"x 2", action{kind: actExclude, pos: model.Second}},
		{"r", action{kind: actRetry}},
		{"s", action{kind: actSnapshot}},
		{"share", action{kind: actSnapshot}},
		{"h", action{kind: actTutorial}},
		{"?", action{kind: actTutorial}},
		{"d", action{kind: actDismiss}},
		{"q", action{kind: actQuit}},
		{"QUIT", action{kind: actQuit}},
	}
	for _, tt := range tests {
		got, err := parseInput(tt.in)
		if err != nil {
			t.Errorf("parseInput(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseInput(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"3", "x", "x3", "vote", "12"} {
		if _, err := parseInput(in); !errors.Is(err, ErrUnknownInput) {
			t.Errorf("parseInput(%q) error = %v, want ErrUnknownInput", in, err)
		}
	}
}
