package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/vinylo/internal/domain/model"
)

const legacyJSON = `[
  {"name": "Blue", "artistName": "Joni Mitchell", "url": "https://last.fm/blue", "mbid": "abc", "imageURL": "http://img/blue.jpg", "playcount": 120, "eloScore": 1620.5, "ignored": false},
  {"name": "Court and Spark", "artistName": "Joni Mitchell", "url": "https://last.fm/cas", "mbid": null, "imageURL": "", "playcount": 40, "ignored": true}
]`

func TestReadLegacy(t *testing.T) {
	albums, err := ReadLegacy(strings.NewReader(legacyJSON), "rj", model.SourceLastFM, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
	if albums[0].Score != 1620.5 || albums[0].MBID != "abc" || albums[0].Username != "rj" {
		t.Errorf("unexpected first album %+v", albums[0])
	}
	if albums[1].Score != 1500 || !albums[1].Ignored || albums[1].MBID != "" {
		t.Errorf("unexpected second album %+v", albums[1])
	}

	if _, err := ReadLegacy(strings.NewReader(`{"name":"x"}`), "rj", model.SourceLastFM, 1500); !errors.Is(err, ErrLegacyFormat) {
		t.Errorf("expected ErrLegacyFormat, got %v", err)
	}
	if _, err := ReadLegacy(strings.NewReader(`[{"artistName":"x"}]`), "rj", model.SourceLastFM, 1500); !errors.Is(err, ErrLegacyFormat) {
		t.Errorf("expected ErrLegacyFormat for a nameless row, got %v", err)
	}
}

func TestReadLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), LegacyFileName("rj"))
	if err := os.WriteFile(path, []byte(legacyJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	albums, err := ReadLegacyFile(path, "rj", model.SourceLastFM, 1500)
	if err != nil || len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d (%v)", len(albums), err)
	}
	if _, err := ReadLegacyFile(filepath.Join(t.TempDir(), "missing.json"), "rj", model.SourceLastFM, 1500); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestDemo(t *testing.T) {
	a := Demo("rj", model.SourceLastFM, 30, 7, 1500)
	b := Demo("rj", model.SourceLastFM, 30, 7, 1500)
	if len(a) != 30 {
		t.Fatalf("expected 30 albums, got %d", len(a))
	}
	f := Filter{Username: "rj", Source: model.SourceLastFM, Threshold: DefaultThreshold}
	eligible, filtered := 0, 0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("demo data is not deterministic at %d", i)
		}
		if f.Eligible(a[i]) {
			eligible++
		} else {
			filtered++
		}
	}
	if eligible < 2 || filtered == 0 {
		t.Errorf("expected a mix of eligible and filtered albums, got %d/%d", eligible, filtered)
	}

	for _, al := range Demo("rj", model.SourceSpotify, 5, 1, 1500) {
		if al.Playcount != 0 {
			t.Errorf("spotify demo albums carry no playcount, got %d", al.Playcount)
		}
	}
}
