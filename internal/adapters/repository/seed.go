package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/okian/vinylo/internal/domain/model"
)

// legacyAlbum is one row of the "{user}_data.json" export.
type legacyAlbum struct {
	Name       string   `json:"name"`
	ArtistName string   `json:"artistName"`
	URL        string   `json:"url"`
	MBID       *string  `json:"mbid"`
	ImageURL   string   `json:"imageURL"`
	Playcount  int      `json:"playcount"`
	EloScore   *float64 `json:"eloScore"`
	Ignored    bool     `json:"ignored"`
}

// LegacyFileName is where a user's legacy export is looked up.
func LegacyFileName(username string) string {
	return username + "_data.json"
}

// ReadLegacy decodes a legacy export for username. Missing ratings start
// at the default rating.
func ReadLegacy(r io.Reader, username string, source model.Source, defaultRating float64) ([]Album, error) {
	var rows []legacyAlbum
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLegacyFormat, err)
	}
	out := make([]Album, 0, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return nil, fmt.Errorf("%w: row %d has no name", ErrLegacyFormat, i)
		}
		a := Album{
			Username:   username,
			Source:     source,
			Name:       row.Name,
			ArtistName: row.ArtistName,
			URL:        row.URL,
			ImageURL:   row.ImageURL,
			Playcount:  row.Playcount,
			Score:      defaultRating,
			Ignored:    row.Ignored,
		}
		if row.MBID != nil {
			a.MBID = *row.MBID
		}
		if row.EloScore != nil {
			a.Score = *row.EloScore
		}
		out = append(out, a)
	}
	return out, nil
}

// ReadLegacyFile opens path and decodes it with ReadLegacy.
func ReadLegacyFile(path, username string, source model.Source, defaultRating float64) ([]Album, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadLegacy(f, username, source, defaultRating)
}

var (
	demoAdjectives = []string{"Blue", "Electric", "Quiet", "Golden", "Broken", "Northern", "Velvet", "Paper", "Hollow", "Neon", "Silent", "Wild"}
	demoNouns      = []string{"Harbor", "Machines", "Gardens", "Static", "Rivers", "Satellites", "Mirrors", "Summer", "Ghosts", "Highways", "Lanterns", "Tides"}
	demoArtists    = []string{"The Lowlands", "Mara Quist", "Pale Signal", "Orchid Union", "Dead Letters", "June Arbor", "Kites", "Saint Ferro"}
)

// Demo generates n deterministic albums for username. Some fall below the
// default threshold and some are EPs or singles, so filtering is exercised.
func Demo(username string, source model.Source, n int, seed uint64, defaultRating float64) []Album {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed)) //nolint:gosec // demo data
	out := make([]Album, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s %s", demoAdjectives[rng.IntN(len(demoAdjectives))], demoNouns[rng.IntN(len(demoNouns))])
		switch i % 10 {
		case 7:
			name += " EP"
		case 9:
			name += " - Single"
		}
		playcount := 0
		if source != model.SourceSpotify {
			playcount = rng.IntN(400)
		}
		out = append(out, Album{
			Username:   username,
			Source:     source,
			Name:       fmt.Sprintf("%s %d", name, i+1),
			ArtistName: demoArtists[rng.IntN(len(demoArtists))],
			ImageURL:   fmt.Sprintf("https://picsum.photos/seed/vinylo-%d/300", i+1),
			Playcount:  playcount,
			Score:      defaultRating,
		})
	}
	return out
}
