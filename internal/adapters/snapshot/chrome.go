package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/chromedp/chromedp"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
	"github.com/okian/vinylo/pkg/metrics"
)

// ChromeExporter renders the HTML share card in headless Chrome and
// screenshots the card element.
type ChromeExporter struct {
	settings
}

// NewChrome creates a chrome exporter. The browser is started per capture.
func NewChrome(opts ...Option) (*ChromeExporter, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("snapshot")
	}
	if _, err := parseHexColor(s.background); err != nil {
		return nil, err
	}
	return &ChromeExporter{settings: s}, nil
}

// Capture renders card as PNG.
func (c *ChromeExporter) Capture(ctx context.Context, card model.ShareCard) (model.Image, error) {
	img, err := c.capture(ctx, card)
	if err != nil {
		metrics.RecordSnapshot("chrome", metrics.OutcomeFailed)
		c.log.Warn(ctx, "snapshot failed", logger.String("matchup_id", card.MatchupID), logger.Error(err))
		return model.Image{}, err
	}
	metrics.RecordSnapshot("chrome", metrics.OutcomeOK)
	return img, nil
}

func (c *ChromeExporter) capture(ctx context.Context, card model.ShareCard) (model.Image, error) {
	page, err := RenderHTML(card, c.background)
	if err != nil {
		return model.Image{}, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if c.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.execPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, c.timeout)
	defer cancelTimeout()

	var buf []byte
	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(page)
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(CardWidth, CardHeight, chromedp.EmulateScale(c.pixelRatio)),
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("#share-card", chromedp.ByQuery),
		chromedp.Screenshot("#share-card", &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: browser rendering failed: %w", ErrRender, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: screenshot: %w", ErrRender, err)
	}
	return model.Image{Data: buf, ContentType: "image/png", Width: cfg.Width, Height: cfg.Height}, nil
}
