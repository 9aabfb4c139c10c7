package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // cover formats
	_ "image/jpeg" // cover formats
	"image/png"
	"io"
	"math"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
	"github.com/okian/vinylo/pkg/metrics"
)

// Card geometry in logical pixels.
const (
	coverSize   = 220
	coverTop    = 40
	leftX       = 60
	rightX      = 360
	nameY       = 290
	artistY     = 312
	scoreY      = 340
	badgeRadius = 28
	maxCoverLen = 4 << 20
)

var (
	textColor   = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	mutedColor  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	badgeColor  = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	vinylColor  = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	grooveColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	labelColor  = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
)

// RasterExporter draws share cards directly into a PNG. It needs no browser
// and produces identical bytes for identical inputs.
type RasterExporter struct {
	settings
	bg color.RGBA
}

// NewRaster creates a raster exporter.
func NewRaster(opts ...Option) (*RasterExporter, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("snapshot")
	}
	bg, err := parseHexColor(s.background)
	if err != nil {
		return nil, err
	}
	return &RasterExporter{settings: s, bg: bg}, nil
}

// Capture renders card as PNG.
func (r *RasterExporter) Capture(ctx context.Context, card model.ShareCard) (model.Image, error) {
	img, err := r.capture(ctx, card)
	if err != nil {
		metrics.RecordSnapshot("raster", metrics.OutcomeFailed)
		r.log.Warn(ctx, "snapshot failed", logger.String("matchup_id", card.MatchupID), logger.Error(err))
		return model.Image{}, err
	}
	metrics.RecordSnapshot("raster", metrics.OutcomeOK)
	return img, nil
}

func (r *RasterExporter) capture(ctx context.Context, card model.ShareCard) (model.Image, error) {
	if card.MatchupID == "" {
		return model.Image{}, ErrEmptyCard
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	covers, err := r.fetchCovers(ctx, card)
	if err != nil {
		return model.Image{}, err
	}

	w, h := r.px(CardWidth), r.px(CardHeight)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.bg), image.Point{}, draw.Src)

	items := [2]model.Item{card.First, card.Second}
	for i, x := range [2]int{leftX, rightX} {
		rect := image.Rect(r.px(x), r.px(coverTop), r.px(x+coverSize), r.px(coverTop+coverSize))
		if covers[i] != nil {
			draw.CatmullRom.Scale(canvas, rect, covers[i], covers[i].Bounds(), draw.Over, nil)
		} else {
			r.drawDisc(canvas, rect)
		}
		r.drawCentered(canvas, x, nameY, items[i].Name, textColor)
		r.drawCentered(canvas, x, artistY, items[i].ArtistName, mutedColor)
		r.drawCentered(canvas, x, scoreY, fmt.Sprintf("%d", model.RoundScore(items[i].StrengthScore)), textColor)
	}
	r.drawBadge(canvas)

	if err := ctx.Err(); err != nil {
		return model.Image{}, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return model.Image{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return model.Image{Data: buf.Bytes(), ContentType: "image/png", Width: w, Height: h}, nil
}

// fetchCovers downloads both covers concurrently. A cover that cannot be
// fetched or decoded is left nil and drawn as a placeholder.
func (r *RasterExporter) fetchCovers(ctx context.Context, card model.ShareCard) ([2]image.Image, error) {
	var covers [2]image.Image
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range [2]string{card.First.ImageURL, card.Second.ImageURL} {
		if u == "" {
			continue
		}
		g.Go(func() error {
			img, err := r.fetchCover(gctx, u)
			if err != nil {
				r.log.Debug(gctx, "cover unavailable, using placeholder", logger.String("url", u), logger.Error(err))
				return nil
			}
			covers[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return covers, err
	}
	return covers, ctx.Err()
}

func (r *RasterExporter) fetchCover(ctx context.Context, u string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverLen))
	return img, err
}

func (r *RasterExporter) px(v int) int {
	return int(math.Round(float64(v) * r.pixelRatio))
}

// drawDisc paints a vinyl record where the cover would be.
func (r *RasterExporter) drawDisc(dst *image.RGBA, rect image.Rectangle) {
	cx := float64(rect.Min.X+rect.Max.X) / 2
	cy := float64(rect.Min.Y+rect.Max.Y) / 2
	outer := float64(rect.Dx()) / 2
	fillCircle(dst, cx, cy, outer, vinylColor)
	fillCircle(dst, cx, cy, outer*0.7, grooveColor)
	fillCircle(dst, cx, cy, outer*0.66, vinylColor)
	fillCircle(dst, cx, cy, outer*0.3, labelColor)
	fillCircle(dst, cx, cy, outer*0.04, r.bg)
}

func (r *RasterExporter) drawBadge(dst *image.RGBA) {
	cx := float64(r.px(CardWidth / 2))
	cy := float64(r.px(coverTop + coverSize/2))
	fillCircle(dst, cx, cy, float64(r.px(badgeRadius)), badgeColor)
	r.drawText(dst, CardWidth/2-7, coverTop+coverSize/2+4, "VS", color.White)
}

// drawCentered writes s centered under the cover starting at logical x.
func (r *RasterExporter) drawCentered(dst *image.RGBA, x, baseline int, s string, c color.Color) {
	face := basicfont.Face7x13
	s = truncate(s, coverSize/face.Advance)
	width := len([]rune(s)) * face.Advance
	r.drawText(dst, x+(coverSize-width)/2, baseline, s, c)
}

// drawText renders s at logical size and scales it onto dst so text keeps
// its proportions at every pixel ratio.
func (r *RasterExporter) drawText(dst *image.RGBA, x, baseline int, s string, c color.Color) {
	if s == "" {
		return
	}
	face := basicfont.Face7x13
	w := len([]rune(s)) * face.Advance
	h := face.Height
	layer := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	top := baseline - face.Ascent
	rect := image.Rect(r.px(x), r.px(top), r.px(x+w), r.px(top+h))
	draw.NearestNeighbor.Scale(dst, rect, layer, layer.Bounds(), draw.Over, nil)
}

func fillCircle(dst *image.RGBA, cx, cy, radius float64, c color.RGBA) {
	b := image.Rect(int(cx-radius), int(cy-radius), int(cx+radius)+1, int(cy+radius)+1).Intersect(dst.Bounds())
	r2 := radius * radius
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r2 {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 3 {
		return string(rs[:max])
	}
	return string(rs[:max-3]) + "..."
}
