package session

import (
	"context"

	"github.com/okian/vinylo/internal/domain/model"
)

// Fetcher returns the next pair for a user. The zero Matchup means the pool
// has fewer than two eligible albums.
type Fetcher interface {
	FetchMatchup(ctx context.Context, user model.UserContext) (model.Matchup, error)
}

// Submitter records a single decision and returns the updated scores.
type Submitter interface {
	SubmitVote(ctx context.Context, d model.VoteDecision) (model.Scores, error)
}

// Excluder removes albums from and returns them to the pairing pool.
type Excluder interface {
	Ignore(ctx context.Context, itemID int64) error
	Unignore(ctx context.Context, itemID int64) error
}

// Exporter renders a share card to an image.
type Exporter interface {
	Capture(ctx context.Context, card model.ShareCard) (model.Image, error)
}

// Backend is a collaborator that serves all three session calls.
type Backend interface {
	Fetcher
	Submitter
	Excluder
}
