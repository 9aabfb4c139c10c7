package snapshot

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/vinylo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleCard() model.ShareCard {
	return model.ShareCard{
		MatchupID: "m-1",
		First:     model.Item{ID: 1, Name: "Blue", ArtistName: "Joni Mitchell", ImageURL: "http://img/1.jpg", StrengthScore: 1515.6},
		Second:    model.Item{ID: 2, Name: "Hejira <live>", ArtistName: "Joni Mitchell", StrengthScore: 1484.4},
	}
}

func TestRenderHTML(t *testing.T) {
	Convey("Given a share card", t, func() {
		card := sampleCard()

		Convey("When rendered", func() {
			page, err := RenderHTML(card, "#fff")
			So(err, ShouldBeNil)
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
			So(err, ShouldBeNil)
			root := doc.Find("#share-card")

			Convey("Then both albums appear with rounded scores", func() {
				So(root.Length(), ShouldEqual, 1)
				So(root.AttrOr("data-matchup", ""), ShouldEqual, "m-1")
				albums := root.Find(".album")
				So(albums.Length(), ShouldEqual, 2)
				So(albums.Eq(0).Find(".name").Text(), ShouldEqual, "Blue")
				So(albums.Eq(0).Find(".score").Text(), ShouldEqual, "1516")
				So(albums.Eq(1).Find(".name").Text(), ShouldEqual, "Hejira <live>")
				So(albums.Eq(1).Find(".score").Text(), ShouldEqual, "1484")
				So(root.Find(".vs").Text(), ShouldEqual, "VS")
			})

			Convey("Then a missing cover becomes a placeholder", func() {
				So(root.Find(".album").Eq(0).Find("img.cover").AttrOr("src", ""), ShouldEqual, "http://img/1.jpg")
				So(root.Find(".album").Eq(1).Find(".placeholder").Length(), ShouldEqual, 1)
			})

			Convey("Then the card carries no controls", func() {
				So(root.Find("button, input, a, .spinner, [onclick]").Length(), ShouldEqual, 0)
			})
		})

		Convey("When the background is not a hex color", func() {
			_, err := RenderHTML(card, "white")
			So(err, ShouldWrap, ErrInvalidColor)
		})

		Convey("When there is no matchup", func() {
			_, err := RenderHTML(model.ShareCard{}, "#fff")
			So(err, ShouldEqual, ErrEmptyCard)
		})
	})
}

func TestParseHexColor(t *testing.T) {
	Convey("Hex colors parse in short and long form", t, func() {
		c, err := parseHexColor("#abc")
		So(err, ShouldBeNil)
		So(c.R, ShouldEqual, 0xaa)
		So(c.B, ShouldEqual, 0xcc)

		c, err = parseHexColor("#102030")
		So(err, ShouldBeNil)
		So(c.G, ShouldEqual, 0x20)

		for _, bad := range []string{"", "fff", "#ff", "#gggggg", "#1234567"} {
			_, err = parseHexColor(bad)
			So(err, ShouldWrap, ErrInvalidColor)
		}
	})
}
