package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/http/stub"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/internal/adapters/snapshot"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/session"
	"github.com/okian/vinylo/pkg/logger"
)

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPlayer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session against a two-album pool", t, func() {
		store := repository.NewAlbumStore()
		_, err := store.Add(ctx,
			repository.Album{Username: "rj", Source: model.SourceLastFM, Name: "Blue", ArtistName: "Joni Mitchell", Playcount: 120, Score: 1500},
			repository.Album{Username: "rj", Source: model.SourceLastFM, Name: "Hejira", ArtistName: "Joni Mitchell", Playcount: 90, Score: 1500},
		)
		So(err, ShouldBeNil)
		srv := httptest.NewServer(stub.NewServer(store, stub.WithLogger(logger.Nop())).Handler())
		Reset(srv.Close)

		client, err := backend.New(srv.URL+"/api", backend.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		exp, err := snapshot.NewRaster(snapshot.WithPixelRatio(1), snapshot.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)

		c := session.New(model.UserContext{Username: "rj", Source: model.SourceLastFM}, client,
			session.WithLogger(logger.Nop()),
			session.WithExporter(exp),
			session.WithSettleInterval(200*time.Millisecond),
			session.WithShowTutorial(true))
		So(c.Start(ctx), ShouldBeNil)
		Reset(func() { _ = c.Close() })

		pr, pw := io.Pipe()
		var out bytes.Buffer
		dir := t.TempDir()
		p := &player{
			c:            c,
			hideTutorial: func(ctx context.Context) error { return c.SetTutorialVisible(ctx, false) },
			in:           pr,
			out:          &out,
			outDir:       dir,
		}
		done := make(chan error, 1)
		go func() { done <- p.run(ctx) }()
		So(eventually(func() bool { return c.View().State == session.StateReady }), ShouldBeTrue)

		send := func(line string) {
			_, err := io.WriteString(pw, line+"\n")
			So(err, ShouldBeNil)
		}

		Convey("When the player hides help, saves, votes and quits", func() {
			first := c.View().Matchup.First.ID

			send("h")
			So(eventually(func() bool { return !c.View().ShowTutorial }), ShouldBeTrue)

			send("s")
			path := filepath.Join(dir, snapshot.ShareFileName)
			So(eventually(func() bool { _, err := os.Stat(path); return err == nil }), ShouldBeTrue)

			send("1")
			So(eventually(func() bool {
				a, _ := store.Get(ctx, first)
				return model.RoundScore(a.Score) == 1516
			}), ShouldBeTrue)

			send("bogus")
			send("q")
			So(<-done, ShouldBeNil)
			_ = pw.Close()

			Convey("Then the terminal should show each step", func() {
				text := out.String()
				So(text, ShouldContainSubstring, "How to play")
				So(text, ShouldContainSubstring, "[1] ")
				So(text, ShouldContainSubstring, "Saved "+path)
				So(text, ShouldContainSubstring, "unknown input")
			})
		})

		Convey("When the player ignores an album", func() {
			shown := c.View().Matchup
			send("x2")

			Convey("Then the pool should empty out", func() {
				So(eventually(func() bool { return c.View().State == session.StateEmpty }), ShouldBeTrue)
				a, _ := store.Get(ctx, shown.Second.ID)
				So(a.Ignored, ShouldBeTrue)
			})
			_ = pw.Close()
			So(<-done, ShouldBeNil)
		})

		Convey("When input ends", func() {
			_ = pw.Close()

			Convey("Then the player should stop", func() {
				So(<-done, ShouldBeNil)
			})
		})

		Convey("When the session closes", func() {
			So(c.Close(), ShouldBeNil)

			Convey("Then the player should stop", func() {
				So(<-done, ShouldBeNil)
				So(c.View().State, ShouldEqual, session.StateClosed)
				_ = pw.Close()
			})
		})
	})
}

func TestRenderView(t *testing.T) {
	m, _ := model.NewMatchup("m1",
		model.Item{ID: 1, Name: "Blue", ArtistName: "Joni Mitchell", StrengthScore: 1515.6},
		model.Item{ID: 2, Name: "Hejira", ArtistName: "Joni Mitchell", StrengthScore: 1484.4})

	Convey("Given views in different states", t, func() {
		Convey("Then a ready view should list both albums with rounded scores", func() {
			s := renderView(session.View{State: session.StateReady, Matchup: m})
			So(s, ShouldContainSubstring, "[1] Blue by Joni Mitchell (1516)")
			So(s, ShouldContainSubstring, "[2] Hejira by Joni Mitchell (1484)")
			So(s, ShouldNotContainSubstring, "How to play")
		})

		Convey("Then the tutorial and notice should be shown when set", func() {
			s := renderView(session.View{State: session.StateReady, Matchup: m, ShowTutorial: true, Notice: session.NoticeVoteFailed})
			So(s, ShouldStartWith, "How to play")
			So(s, ShouldContainSubstring, "! "+session.NoticeVoteFailed)
		})

		Convey("Then failure and empty states should explain what to do", func() {
			So(renderView(session.View{State: session.StateFailed, Err: session.ErrNetwork}), ShouldContainSubstring, "Press r to retry")
			So(renderView(session.View{State: session.StateEmpty}), ShouldContainSubstring, "Not enough albums")
			So(renderView(session.View{State: session.StateSettling, Matchup: m}), ShouldStartWith, "Saved. New scores")
		})
	})
}
