package stub_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/http/stub"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/domain/scoring"
	"github.com/okian/vinylo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

var rj = model.UserContext{Username: "rj", Source: model.SourceLastFM}

type fixture struct {
	store  *repository.AlbumStore
	srv    *httptest.Server
	client *backend.Client
	ids    []int64
}

func newFixture(albums ...repository.Album) *fixture {
	store := repository.NewAlbumStore(repository.WithRand(rand.New(rand.NewPCG(3, 4))))
	added, err := store.Add(context.Background(), albums...)
	So(err, ShouldBeNil)
	ids := make([]int64, 0, len(added))
	for _, a := range added {
		ids = append(ids, a.ID)
	}

	s := stub.NewServer(store, stub.WithLogger(logger.Nop()), stub.WithSeedDir(os.TempDir()), stub.WithDemoSize(12))
	srv := httptest.NewServer(s.Handler())
	c, err := backend.New(srv.URL+"/api", backend.WithLogger(logger.Nop()))
	So(err, ShouldBeNil)
	return &fixture{store: store, srv: srv, client: c, ids: ids}
}

func lp(name string, playcount int) repository.Album {
	return repository.Album{Username: "rj", Source: model.SourceLastFM, Name: name, ArtistName: "Artist", Playcount: playcount, Score: 1500, ImageURL: "http://img/" + name}
}

func TestMatchupAndVote(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool with two eligible albums and filtered ones", t, func() {
		f := newFixture(lp("Blue", 90), lp("Hejira", 70), lp("Demo EP", 90), lp("Rare", 3))
		Reset(f.srv.Close)

		Convey("When matchups are fetched", func() {
			m, err := f.client.FetchMatchup(ctx, rj)

			Convey("Then only eligible albums should be paired", func() {
				So(err, ShouldBeNil)
				So(m.IsZero(), ShouldBeFalse)
				names := []string{m.First.Name, m.Second.Name}
				So(names, ShouldContain, "Blue")
				So(names, ShouldContain, "Hejira")
			})

			Convey("And voting for the first should move ratings to 1516/1484", func() {
				d, err := m.Decide(model.First)
				So(err, ShouldBeNil)
				scores, err := f.client.SubmitVote(ctx, d)
				So(err, ShouldBeNil)
				So(model.RoundScore(scores.First), ShouldEqual, 1516)
				So(model.RoundScore(scores.Second), ShouldEqual, 1484)

				stored, _ := f.store.Get(ctx, m.First.ID)
				So(stored.Score, ShouldEqual, scores.First)
			})
		})

		Convey("When one eligible album is ignored", func() {
			So(f.client.Ignore(ctx, f.ids[0]), ShouldBeNil)

			Convey("Then no matchup should be available", func() {
				m, err := f.client.FetchMatchup(ctx, rj)
				So(err, ShouldBeNil)
				So(m.IsZero(), ShouldBeTrue)
			})

			Convey("And it should be listed and restorable", func() {
				ignored, err := f.client.ListIgnored(ctx, rj)
				So(err, ShouldBeNil)
				So(len(ignored), ShouldEqual, 1)
				So(ignored[0].Name, ShouldEqual, "Blue")

				So(f.client.Unignore(ctx, f.ids[0]), ShouldBeNil)
				m, err := f.client.FetchMatchup(ctx, rj)
				So(err, ShouldBeNil)
				So(m.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the threshold is lowered", func() {
			n, err := f.client.SetThreshold(ctx, rj, 0)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)

			Convey("Then low playcount albums should be ranked too", func() {
				items, err := f.client.Stats(ctx, rj)
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 4)
			})
		})

		Convey("When stats are requested", func() {
			items, err := f.client.Stats(ctx, rj)

			Convey("Then EPs should be ranked even though they are never paired", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(items))
				for _, it := range items {
					names = append(names, it.Name)
				}
				So(names, ShouldContain, "Demo EP")
				So(names, ShouldNotContain, "Rare")
				So(len(names), ShouldEqual, 3)
			})
		})
	})
}

func TestConcurrentVotes(t *testing.T) {
	ctx := context.Background()

	Convey("Given two albums voted on by many clients at once", t, func() {
		f := newFixture(lp("Blue", 90), lp("Hejira", 70))
		Reset(f.srv.Close)
		const n = 10

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.client.SubmitVote(ctx, model.VoteDecision{FirstID: f.ids[0], SecondID: f.ids[1], Winner: model.First})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then every vote should count", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			want1, want2 := 1500.0, 1500.0
			elo := scoring.NewEloScorer()
			for i := 0; i < n; i++ {
				var err error
				want1, want2, err = elo.Update(want1, want2, scoring.FirstWins)
				So(err, ShouldBeNil)
			}
			a, _ := f.store.Get(ctx, f.ids[0])
			b, _ := f.store.Get(ctx, f.ids[1])
			So(a.Score, ShouldEqual, want1)
			So(b.Score, ShouldEqual, want2)
			So(a.Score, ShouldBeGreaterThan, 1600)
		})
	})
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a small pool", t, func() {
		f := newFixture(lp("Blue", 90), lp("Hejira", 70))
		Reset(f.srv.Close)

		Convey("Voting on an unknown album should be 404", func() {
			_, err := f.client.SubmitVote(ctx, model.VoteDecision{FirstID: f.ids[0], SecondID: 999, Winner: model.First})
			var se *backend.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusNotFound)
			So(se.Detail, ShouldEqual, "Album not found")
		})

		Convey("Ignoring an unknown album should be 404", func() {
			var se *backend.StatusError
			So(errors.As(f.client.Ignore(ctx, 999), &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("An invalid winner should be rejected without changing ratings", func() {
			body := `{"album1_id": 1, "album2_id": 2, "winner": "3"}`
			resp, err := http.Post(f.srv.URL+"/api/vote", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			a, _ := f.store.Get(ctx, f.ids[0])
			So(a.Score, ShouldEqual, 1500)
		})

		Convey("An unknown source should be 400", func() {
			resp, err := http.Get(f.srv.URL + "/api/matchup/rj?source=tidal")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An exhausted pool should answer with the not-enough detail", func() {
			So(f.client.Ignore(ctx, f.ids[1]), ShouldBeNil)
			resp, err := http.Get(f.srv.URL + "/api/matchup/rj")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			var eb backend.ErrorBody
			So(json.NewDecoder(resp.Body).Decode(&eb), ShouldBeNil)
			So(eb.Detail, ShouldEqual, backend.NotEnoughAlbums)
		})
	})
}

func TestInitAndReset(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		f := newFixture()
		Reset(f.srv.Close)
		ghost := model.UserContext{Username: "ghost-user-without-export", Source: model.SourceSpotify}

		Convey("When a user without an export is initialised", func() {
			msg, err := f.client.Init(ctx, ghost)

			Convey("Then demo albums should be generated once", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Generated 12 demo albums.")
				So(f.store.Count(ctx, ghost.Username, ghost.Source), ShouldEqual, 12)

				again, err := f.client.Init(ctx, ghost)
				So(err, ShouldBeNil)
				So(again, ShouldContainSubstring, "already has 12 albums")
			})

			Convey("And spotify pools should pair without a playcount floor", func() {
				m, err := f.client.FetchMatchup(ctx, ghost)
				So(err, ShouldBeNil)
				So(m.IsZero(), ShouldBeFalse)
			})

			Convey("And reset should delete them", func() {
				n, err := f.client.Reset(ctx, ghost)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 12)
				So(f.store.Count(ctx, ghost.Username, ghost.Source), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a legacy export on disk", t, func() {
		dir := t.TempDir()
		export := `[{"name":"Blue","artistName":"Joni Mitchell","url":"u","mbid":null,"imageURL":"","playcount":80,"eloScore":1600},
		            {"name":"Hejira","artistName":"Joni Mitchell","url":"u","imageURL":"","playcount":80}]`
		So(os.WriteFile(filepath.Join(dir, repository.LegacyFileName("rj")), []byte(export), 0o600), ShouldBeNil)

		store := repository.NewAlbumStore()
		s := stub.NewServer(store, stub.WithLogger(logger.Nop()), stub.WithSeedDir(dir))

		Convey("Then import should migrate it with its ratings", func() {
			msg, err := s.Import(ctx, rj)
			So(err, ShouldBeNil)
			So(msg, ShouldEqual, "Migrated 2 albums from JSON.")
			ranked, _ := store.Ranked(ctx, repository.Filter{Username: "rj", Source: model.SourceLastFM})
			So(ranked[0].Album.Name, ShouldEqual, "Blue")
			So(ranked[0].Album.Score, ShouldEqual, 1600)
			So(ranked[1].Album.Score, ShouldEqual, 1500)
		})
	})
}

func TestHTTPSurface(t *testing.T) {
	Convey("Given a running stub", t, func() {
		f := newFixture()
		Reset(f.srv.Close)

		Convey("CORS preflight should be answered", func() {
			req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/vote", nil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			So(resp.Header.Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("The root should report that it is running", func() {
			resp, err := http.Get(f.srv.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			So(string(b), ShouldContainSubstring, "running")
		})

		Convey("Metrics should be exposed", func() {
			resp, err := http.Get(f.srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("The API description should be served", func() {
			resp, err := http.Get(f.srv.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(b), ShouldContainSubstring, "/vote:")
		})

		Convey("Wrong methods should not be routed", func() {
			resp, err := http.Get(f.srv.URL + "/api/vote")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
