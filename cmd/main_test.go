package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vinylo/internal/adapters/http/stub"
	"github.com/okian/vinylo/internal/adapters/repository"
	service "github.com/okian/vinylo/internal/app"
	"github.com/okian/vinylo/internal/config"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

// execute runs the root command with args and returns what it printed.
func execute(args ...string) (string, error) {
	userFlag, sourceFlag = "", ""
	resetYes, statsLimit = false, 20

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newStubEnv(t *testing.T) *repository.AlbumStore {
	store := repository.NewAlbumStore()
	srv := httptest.NewServer(stub.NewServer(store, stub.WithLogger(logger.Nop()), stub.WithSeedDir(t.TempDir())).Handler())
	t.Cleanup(srv.Close)

	t.Setenv("VINYLO_BASE_URL", srv.URL+"/api")
	t.Setenv("VINYLO_PREFS_PATH", filepath.Join(t.TempDir(), "prefs.sqlite3"))
	t.Setenv("VINYLO_LOG_LEVEL", "error")
	return store
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	Convey("Given a development backend and a logged in user", t, func() {
		store := newStubEnv(t)
		out, err := execute("login", "rj")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "Logged in as rj (lastfm). Generated 40 demo albums.")

		Convey("When listing the ranking", func() {
			out, err := execute("stats", "-n", "3")

			Convey("Then the table should be limited", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "albums ranked for rj (lastfm)")
				So(out, ShouldContainSubstring, "SCORE")
				So(strings.Count(strings.TrimSpace(out), "\n"), ShouldEqual, 4)
			})
		})

		Convey("When an album is ignored", func() {
			ranked, err := store.Ranked(ctx, repository.Filter{Username: "rj", Source: model.SourceLastFM})
			So(err, ShouldBeNil)
			id := ranked[0].Album.ID
			So(store.SetIgnored(ctx, id, true), ShouldBeNil)

			Convey("Then it should be listed", func() {
				out, err := execute("ignored")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, ranked[0].Album.Name)
			})

			Convey("And restore should return it to the pool", func() {
				out, err := execute("restore", strconv.FormatInt(id, 10))
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "restored")

				a, _ := store.Get(ctx, id)
				So(a.Ignored, ShouldBeFalse)

				out, err = execute("ignored")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "No ignored albums.")
			})
		})

		Convey("When restoring a malformed id", func() {
			_, err := execute("restore", "abc")
			So(err, ShouldNotBeNil)
		})

		Convey("When changing the threshold", func() {
			out, err := execute("threshold", "1200")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Scrobble threshold: 1,200 plays")

			Convey("Then reading it should return the new value", func() {
				out, err := execute("threshold")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1,200 plays")
			})
		})

		Convey("When resetting without confirmation", func() {
			_, err := execute("reset")

			Convey("Then nothing should be deleted", func() {
				So(err, ShouldEqual, ErrNotConfirmed)
				So(store.Count(ctx, "rj", model.SourceLastFM), ShouldEqual, 40)
			})
		})

		Convey("When resetting with confirmation", func() {
			out, err := execute("reset", "--yes")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Deleted 40 albums for rj.")
			So(store.Count(ctx, "rj", model.SourceLastFM), ShouldEqual, 0)
		})

		Convey("When logged out", func() {
			_, err := execute("logout")
			So(err, ShouldBeNil)

			Convey("Then pool commands should ask for a user", func() {
				_, err := execute("stats")
				So(err, ShouldWrap, service.ErrNoUser)
			})

			Convey("And --user should still work", func() {
				out, err := execute("--user", "someone", "stats")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "0 albums ranked for someone (lastfm)")
			})
		})
	})

	Convey("Given an invalid source in the environment", t, func() {
		newStubEnv(t)
		t.Setenv("VINYLO_SOURCE", "tidal")

		Convey("Then every command should fail before running", func() {
			_, err := execute("stats")
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})

	Convey("Given the command tree", t, func() {
		names := map[string]bool{}
		for _, c := range rootCmd.Commands() {
			names[c.Name()] = true
		}

		Convey("Then every command should be registered", func() {
			for _, n := range []string{"play", "login", "logout", "ignored", "restore", "stats", "threshold", "reset", "serve-stub", "simulate"} {
				So(names[n], ShouldBeTrue)
			}
		})
	})
}

func TestSimulateCommand(t *testing.T) {
	Convey("Given the simulate command against an in-process backend", t, func() {
		newStubEnv(t)
		defer func() { simLocal, simSessions, simRounds = false, 8, 25 }()

		out, err := execute("simulate", "--local", "-c", "2", "-n", "3", "--exclude-percent", "0", "--settle", "1ms")

		Convey("Then it should print a summary", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "2 sessions, 6 votes (0 failed)")
		})
	})
}
