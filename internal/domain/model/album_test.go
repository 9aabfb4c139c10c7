package model_test

import (
	"errors"
	"testing"

	"github.com/okian/vinylo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchup(t *testing.T) {
	Convey("Given two albums", t, func() {
		a := model.Item{ID: 1, Name: "Blue", ArtistName: "Joni Mitchell", StrengthScore: 1500}
		b := model.Item{ID: 2, Name: "Hejira", ArtistName: "Joni Mitchell", StrengthScore: 1500}

		Convey("When building a matchup of distinct albums", func() {
			m, err := model.NewMatchup("m-1", a, b)

			Convey("Then the positional order should be kept", func() {
				So(err, ShouldBeNil)
				So(m.IsZero(), ShouldBeFalse)
				So(m.Item(model.First).ID, ShouldEqual, 1)
				So(m.Item(model.Second).ID, ShouldEqual, 2)
				So(m.Contains(2), ShouldBeTrue)
				So(m.Contains(3), ShouldBeFalse)
			})

			Convey("And a decision should carry both ids and the winner", func() {
				d, err := m.Decide(model.Second)
				So(err, ShouldBeNil)
				So(d, ShouldResemble, model.VoteDecision{MatchupID: "m-1", FirstID: 1, SecondID: 2, Winner: model.Second})
				So(d.Winner.Wire(), ShouldEqual, "2")
			})

			Convey("And overlaying scores should not touch the original", func() {
				updated := m.WithScores(model.Scores{First: 1516, Second: 1484})
				So(updated.First.StrengthScore, ShouldEqual, 1516)
				So(updated.Second.StrengthScore, ShouldEqual, 1484)
				So(m.First.StrengthScore, ShouldEqual, 1500)
				So(updated.ID, ShouldEqual, m.ID)
			})
		})

		Convey("When both sides are the same album", func() {
			_, err := model.NewMatchup("m-2", a, a)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, model.ErrDuplicateItem), ShouldBeTrue)
			})
		})

		Convey("When deciding on the zero matchup", func() {
			_, err := model.Matchup{}.Decide(model.First)

			Convey("Then it should report an empty matchup", func() {
				So(errors.Is(err, model.ErrEmptyMatchup), ShouldBeTrue)
			})
		})
	})
}

func TestPosition(t *testing.T) {
	Convey("Given position strings", t, func() {
		Convey("Then known spellings should parse", func() {
			for in, want := range map[string]model.Position{"1": model.First, "first": model.First, "2": model.Second, "second": model.Second} {
				p, err := model.ParsePosition(in)
				So(err, ShouldBeNil)
				So(p, ShouldEqual, want)
			}
		})

		Convey("And unknown spellings should fail", func() {
			_, err := model.ParsePosition("3")
			So(errors.Is(err, model.ErrInvalidPosition), ShouldBeTrue)
			So(model.Position(0).Valid(), ShouldBeFalse)
			So(model.Position(7).Wire(), ShouldEqual, "")
		})
	})
}

func TestUserContextValidate(t *testing.T) {
	Convey("Given user contexts", t, func() {
		Convey("When username and source are set", func() {
			err := model.UserContext{Username: "rj", Source: model.SourceSpotify}.Validate()
			So(err, ShouldBeNil)
		})

		Convey("When the username is blank", func() {
			err := model.UserContext{Username: "  ", Source: model.SourceLastFM}.Validate()
			So(errors.Is(err, model.ErrInvalidUserContext), ShouldBeTrue)
		})

		Convey("When the source is unknown", func() {
			err := model.UserContext{Username: "rj", Source: "bandcamp"}.Validate()
			So(errors.Is(err, model.ErrInvalidUserContext), ShouldBeTrue)
		})

		Convey("When prefs have no source", func() {
			u := model.Prefs{Username: "rj"}.User()
			So(u.Source, ShouldEqual, model.SourceLastFM)
		})
	})
}

func TestRoundScore(t *testing.T) {
	Convey("Given fractional scores", t, func() {
		So(model.RoundScore(1515.5), ShouldEqual, 1516)
		So(model.RoundScore(1484.49), ShouldEqual, 1484)
		So(model.RoundScore(-2.5), ShouldEqual, -3)
		So(model.Item{Name: "Blue", ArtistName: "Joni Mitchell", StrengthScore: 1499.6}.String(), ShouldEqual, "Blue by Joni Mitchell (1500)")
	})
}
