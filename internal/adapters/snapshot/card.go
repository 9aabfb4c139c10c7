// Package snapshot renders share cards: a clean, non-interactive picture of
// the displayed matchup for exporting.
package snapshot

import (
	"bytes"
	"fmt"
	"html/template"
	"image/color"
	"strconv"
	"strings"

	"github.com/okian/vinylo/internal/domain/model"
)

// Logical card size before the pixel ratio is applied.
const (
	CardWidth  = 640
	CardHeight = 400
)

// ShareFileName is the suggested file name for exported cards.
const ShareFileName = "vinylo-matchup.png"

type albumView struct {
	Name     string
	Artist   string
	ImageURL string
	Score    int
}

type cardView struct {
	MatchupID  string
	Background string
	Width      int
	Height     int
	Albums     [2]albumView
}

func newCardView(card model.ShareCard, background string) cardView {
	v := cardView{MatchupID: card.MatchupID, Background: background, Width: CardWidth, Height: CardHeight}
	for i, it := range [2]model.Item{card.First, card.Second} {
		v.Albums[i] = albumView{
			Name:     it.Name,
			Artist:   it.ArtistName,
			ImageURL: it.ImageURL,
			Score:    model.RoundScore(it.StrengthScore),
		}
	}
	return v
}

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; background: {{.Background}}; font-family: Helvetica, Arial, sans-serif; }
  #share-card { width: {{.Width}}px; height: {{.Height}}px; box-sizing: border-box; padding: 40px 60px;
    display: flex; justify-content: space-between; align-items: flex-start; position: relative; background: {{.Background}}; }
  .album { width: 220px; text-align: center; }
  .cover { width: 220px; height: 220px; object-fit: cover; border-radius: 8px; display: block; }
  .placeholder { width: 220px; height: 220px; border-radius: 50%; background: radial-gradient(circle, #e0e0e0 0 12%, #222 13% 100%); }
  .name { font-weight: bold; margin-top: 14px; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
  .artist { color: #555; margin-top: 4px; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
  .score { margin-top: 8px; font-variant-numeric: tabular-nums; }
  .vs { position: absolute; left: 292px; top: 122px; width: 56px; height: 56px; border-radius: 50%;
    background: #111; color: #fff; font-weight: bold; line-height: 56px; text-align: center; }
</style>
</head>
<body>
<div id="share-card" data-matchup="{{.MatchupID}}">
{{- range .Albums}}
  <div class="album">
    {{- if .ImageURL}}
    <img class="cover" src="{{.ImageURL}}" alt="{{.Name}}">
    {{- else}}
    <div class="cover placeholder"></div>
    {{- end}}
    <div class="name">{{.Name}}</div>
    <div class="artist">{{.Artist}}</div>
    <div class="score">{{.Score}}</div>
  </div>
{{- end}}
  <div class="vs">VS</div>
</div>
</body>
</html>
`))

// RenderHTML returns the share card as a standalone HTML page. The card
// carries no controls: only covers, titles, artists, rounded scores and
// the VS badge.
func RenderHTML(card model.ShareCard, background string) ([]byte, error) {
	if card.MatchupID == "" {
		return nil, ErrEmptyCard
	}
	if _, err := parseHexColor(background); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, newCardView(card, background)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if !strings.HasPrefix(s, "#") || (len(hex) != 3 && len(hex) != 6) {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
