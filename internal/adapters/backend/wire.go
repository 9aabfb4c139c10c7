package backend

import "github.com/okian/vinylo/internal/domain/model"

// Album is the backend's album record.
type Album struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ArtistName string  `json:"artist_name"`
	URL        *string `json:"url"`
	MBID       *string `json:"mbid"`
	ImageURL   *string `json:"image_url"`
	Playcount  int     `json:"playcount"`
	EloScore   float64 `json:"elo_score"`
	Ignored    bool    `json:"ignored"`
	Source     string  `json:"source"`
	Username   string  `json:"username"`
}

// Item converts the record to the domain item.
func (a Album) Item() model.Item {
	it := model.Item{
		ID:            a.ID,
		Name:          a.Name,
		ArtistName:    a.ArtistName,
		StrengthScore: a.EloScore,
	}
	if a.ImageURL != nil {
		it.ImageURL = *a.ImageURL
	}
	return it
}

// VoteRequest is the body of POST /vote. Winner is "1" or "2".
type VoteRequest struct {
	Album1ID int64  `json:"album1_id"`
	Album2ID int64  `json:"album2_id"`
	Winner   string `json:"winner"`
}

// NewScores holds ratings keyed by request position.
type NewScores struct {
	Album1 float64 `json:"album1"`
	Album2 float64 `json:"album2"`
}

// VoteResponse is the answer to POST /vote.
type VoteResponse struct {
	Success   bool      `json:"success"`
	NewScores NewScores `json:"new_scores"`
}

// Ack is the answer to ignore and unignore.
type Ack struct {
	Success bool `json:"success"`
}

// ErrorBody is the error envelope for non-2xx answers.
type ErrorBody struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NotEnoughAlbums is the detail sent with a 400 when the pool is exhausted.
const NotEnoughAlbums = "Not enough albums for a matchup"

// Settings holds per-pool preferences kept by the backend.
type Settings struct {
	Username          string `json:"username"`
	Source            string `json:"source"`
	ScrobbleThreshold int    `json:"scrobble_threshold"`
}

// SettingsUpdate is the body of POST /settings/{username}.
type SettingsUpdate struct {
	ScrobbleThreshold int `json:"scrobble_threshold"`
}

// Message is the answer to POST /init/{username}.
type Message struct {
	Message string `json:"message"`
}

// ResetResponse is the answer to DELETE /reset/{username}.
type ResetResponse struct {
	Message           string `json:"message"`
	DeletedCount      int    `json:"deleted_count"`
	LegacyFileDeleted bool   `json:"legacy_file_deleted"`
}
