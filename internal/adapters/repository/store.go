// Package repository holds the album pools served by the development
// backend.
package repository

import (
	"context"
	"strings"

	"github.com/okian/vinylo/internal/domain/model"
)

// DefaultThreshold is the minimum playcount for an album to be paired.
const DefaultThreshold = 50

// Album is one stored album row.
type Album struct {
	ID         int64
	Username   string
	Source     model.Source
	Name       string
	ArtistName string
	URL        string
	MBID       string
	ImageURL   string
	Playcount  int
	Score      float64
	Ignored    bool
}

// Item converts the row to the domain item.
func (a Album) Item() model.Item {
	return model.Item{ID: a.ID, Name: a.Name, ArtistName: a.ArtistName, ImageURL: a.ImageURL, StrengthScore: a.Score}
}

// Entry is a ranked album.
type Entry struct {
	Rank  int
	Album Album
}

// excludedKeywords keep EPs and singles out of matchups.
var excludedKeywords = []string{" ep", " (ep)", " - ep", " single", " (single)", " - single"}

// Filter selects the albums of one pool that may be paired.
type Filter struct {
	Username  string
	Source    model.Source
	Threshold int
}

// EffectiveThreshold is the playcount floor. Spotify imports carry no
// playcounts, so their floor is always zero.
func (f Filter) EffectiveThreshold() int {
	if f.Source == model.SourceSpotify {
		return 0
	}
	return f.Threshold
}

// Rankable reports whether a is listed in the ranking: not ignored and
// played at least the threshold.
func (f Filter) Rankable(a Album) bool {
	return !a.Ignored && a.Playcount >= f.EffectiveThreshold()
}

// Eligible reports whether a may appear in a matchup. EPs and singles are
// ranked but never paired.
func (f Filter) Eligible(a Album) bool {
	if !f.Rankable(a) {
		return false
	}
	name := strings.ToLower(a.Name)
	for _, kw := range excludedKeywords {
		if strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

// ScoreUpdate computes two new ratings from the current ones.
type ScoreUpdate func(first, second float64) (float64, float64, error)

// Store provides read/write access to album pools.
type Store interface {
	// Add stores albums, assigning ids, and returns them as stored.
	Add(ctx context.Context, albums ...Album) ([]Album, error)
	// Get returns one album. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id int64) (Album, error)
	// Count returns the number of albums in a pool.
	Count(ctx context.Context, username string, source model.Source) int

	// RandomPair returns two distinct eligible albums.
	// Returns ErrNotEnoughAlbums when fewer than two are eligible.
	RandomPair(ctx context.Context, f Filter) ([2]Album, error)
	// Ranked returns the rankable albums ordered by score desc.
	Ranked(ctx context.Context, f Filter) ([]Entry, error)
	// Ignored returns the ignored albums of a pool.
	Ignored(ctx context.Context, username string, source model.Source) ([]Album, error)

	// SetIgnored flips the ignored flag.
	SetIgnored(ctx context.Context, id int64, ignored bool) error
	// SetScores stores new ratings for two albums atomically.
	SetScores(ctx context.Context, firstID int64, first float64, secondID int64, second float64) error
	// Rescore reads both ratings, applies update and stores the result as
	// one step, so concurrent decisions on the same album are not lost.
	// Returns ErrNotFound if either id is unknown.
	Rescore(ctx context.Context, firstID, secondID int64, update ScoreUpdate) (float64, float64, error)
	// Reset deletes a pool and returns how many albums it held.
	Reset(ctx context.Context, username string, source model.Source) (int, error)

	// Threshold returns the configured playcount floor of a pool.
	Threshold(ctx context.Context, username string, source model.Source) int
	// SetThreshold changes the playcount floor of a pool.
	SetThreshold(ctx context.Context, username string, source model.Source, threshold int) error
}
