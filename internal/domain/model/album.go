// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Item is an album that can be put into a matchup.
type Item struct {
	ID            int64   // stable backend identifier
	Name          string  // album title
	ArtistName    string  // album artist
	ImageURL      string  // cover art; empty when unknown
	StrengthScore float64 // Elo rating as last reported by the backend
}

// String renders the item the way the terminal UI lists it.
func (i Item) String() string {
	return fmt.Sprintf("%s by %s (%d)", i.Name, i.ArtistName, RoundScore(i.StrengthScore))
}

// RoundScore rounds a strength score for display.
func RoundScore(score float64) int {
	if score < 0 {
		return int(score - 0.5)
	}
	return int(score + 0.5)
}

// Source names the collection an album pool was imported from.
type Source string

// Known sources.
const (
	SourceLastFM  Source = "lastfm"
	SourceSpotify Source = "spotify"
)

// UserContext identifies a user and the collection scope pairs are drawn from.
type UserContext struct {
	Username string `validate:"required,max=128"`
	Source   Source `validate:"required,oneof=lastfm spotify"`
}

var validate = validator.New()

// Validate checks that the context names a user and a supported source.
func (u UserContext) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUserContext)
	}
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUserContext, err)
	}
	return nil
}

// Prefs is the locally remembered state read at session start.
type Prefs struct {
	Username     string
	Source       Source
	TutorialSeen bool
}

// User returns the remembered identity as a UserContext.
func (p Prefs) User() UserContext {
	src := p.Source
	if src == "" {
		src = SourceLastFM
	}
	return UserContext{Username: p.Username, Source: src}
}
