package backend_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/okian/vinylo/internal/adapters/backend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPoolEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given a backend with ranked albums", t, func() {
		srv, rec := serve(http.StatusOK, twoAlbums)
		Reset(srv.Close)

		Convey("When stats are requested", func() {
			items, err := newClient(srv).Stats(ctx, rj)

			Convey("Then the backend order should be kept", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 2)
				So(items[0].Name, ShouldEqual, "Blue")
				req, _ := rec.last()
				So(req.URL.Path, ShouldEqual, "/api/stats/rj")
				So(req.URL.Query().Get("source"), ShouldEqual, "spotify")
			})
		})
	})

	Convey("Given a backend that imports collections", t, func() {
		srv, rec := serve(http.StatusOK, `{"message": "Generated 40 demo albums."}`)
		Reset(srv.Close)

		Convey("Then init should return the message", func() {
			msg, err := newClient(srv).Init(ctx, rj)
			So(err, ShouldBeNil)
			So(msg, ShouldEqual, "Generated 40 demo albums.")
			req, _ := rec.last()
			So(req.Method, ShouldEqual, http.MethodPost)
			So(req.URL.Path, ShouldEqual, "/api/init/rj")
		})
	})

	Convey("Given a backend that resets pools", t, func() {
		srv, rec := serve(http.StatusOK, `{"message": "Deleted 12 albums for user rj", "deleted_count": 12, "legacy_file_deleted": false}`)
		Reset(srv.Close)

		Convey("Then reset should return the deleted count", func() {
			n, err := newClient(srv).Reset(ctx, rj)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 12)
			req, _ := rec.last()
			So(req.Method, ShouldEqual, http.MethodDelete)
		})
	})

	Convey("Given a backend with settings", t, func() {
		srv, rec := serve(http.StatusOK, `{"username": "rj", "source": "spotify", "scrobble_threshold": 25}`)
		Reset(srv.Close)
		c := newClient(srv)

		Convey("When reading the threshold", func() {
			n, err := c.Threshold(ctx, rj)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 25)
		})

		Convey("When changing the threshold", func() {
			n, err := c.SetThreshold(ctx, rj, 25)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 25)
			req, body := rec.last()
			So(req.Method, ShouldEqual, http.MethodPost)
			So(body, ShouldEqual, `{"scrobble_threshold":25}`)
		})

		Convey("When the threshold is negative", func() {
			_, err := c.SetThreshold(ctx, rj, -1)
			So(err, ShouldNotBeNil)
			So(rec.count(), ShouldEqual, 0)
		})
	})

	Convey("Given a settings answer without a threshold", t, func() {
		srv, _ := serve(http.StatusOK, `{"username": "rj"}`)
		Reset(srv.Close)

		Convey("Then it should be rejected as malformed", func() {
			_, err := newClient(srv).Threshold(ctx, rj)
			So(errors.Is(err, backend.ErrMalformedResponse), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "scrobble_threshold")
		})
	})
}
