package snapshot

import (
	"context"
	"math"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/vinylo/pkg/logger"
)

func findBrowser() string {
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// expectedSize is the card size in pixels at ratio.
func expectedSize(ratio float64) (int, int) {
	return int(math.Round(CardWidth * ratio)), int(math.Round(CardHeight * ratio))
}

func TestChromeCapture(t *testing.T) {
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	path := findBrowser()
	if path == "" {
		t.Skip("no chrome binary on PATH")
	}

	c, err := NewChrome(WithLogger(logger.Nop()), WithExecPath(path), WithPixelRatio(1))
	require.NoError(t, err)

	card := sampleCard()
	card.First.ImageURL = ""
	img, err := c.Capture(context.Background(), card)
	require.NoError(t, err)

	w, h := expectedSize(1)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, w, img.Width)
	assert.Equal(t, h, img.Height)
}

func TestNewChromeRejectsBadBackground(t *testing.T) {
	_, err := NewChrome(WithLogger(logger.Nop()), WithBackground("#12"))
	assert.ErrorIs(t, err, ErrInvalidColor)
}
