package fbref_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/touchline/internal/adapters/fbref"
	"github.com/okian/touchline/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

const commentedPage = `<html><body>
<div id="all_stats_squads">
<table id="stats_squads"><thead><tr><th>Squad</th><th>Pts</th></tr></thead>
<tbody><tr><th>Austin</th><td>40</td></tr></tbody></table>
</div>
<div id="all_stats_standard">
<!--
<table id="stats_standard">
<thead>
<tr class="over_header"><th colspan="3"></th><th colspan="2">Playing Time</th></tr>
<tr><th>Rk</th><th>Player</th><th>Squad</th><th>MP</th><th>Min</th></tr>
</thead>
<tbody>
<tr><th>1</th><td>Alice</td><td>Austin</td><td>14</td><td>1,260</td></tr>
<tr class="thead"><th>Rk</th><th>Player</th><th>Squad</th><th>MP</th><th>Min</th></tr>
<tr><th>2</th><td>Bob</td><td>Miami</td><td>10</td><td>900</td></tr>
</tbody>
</table>
-->
</div>
</body></html>`

const visiblePage = `<html><body>
<table id="narrow"><tr><th>Player</th></tr><tr><td>Cy</td></tr></table>
<table id="stats_keeper">
<thead><tr><th>Player</th><th>Squad</th><th>Save%</th></tr></thead>
<tbody><tr><td>Dee</td><td>Austin</td><td>71.5</td></tr></tbody>
</table>
</body></html>`

type stubGetter struct {
	body []byte
	err  error
	urls []string
}

func (s *stubGetter) Get(_ context.Context, rawURL string) ([]byte, error) {
	s.urls = append(s.urls, rawURL)
	return s.body, s.err
}

func TestExtract(t *testing.T) {
	Convey("Given a page with a table hidden in a comment", t, func() {
		got, err := fbref.Extract([]byte(commentedPage))
		So(err, ShouldBeNil)

		Convey("Then only commented tables are candidates", func() {
			So(got, ShouldHaveLength, 1)
			So(got[0].Name, ShouldEqual, "stats_standard")
		})

		Convey("And header rows become levels with colspan expanded", func() {
			So(got[0].Header, ShouldHaveLength, 2)
			So(got[0].Header[0], ShouldResemble, []string{"", "", "", "Playing Time", "Playing Time"})
			So(got[0].Header[1][4], ShouldEqual, "Min")
		})

		Convey("And normalizing yields clean rows", func() {
			out, err := table.Normalize(got[0])
			So(err, ShouldBeNil)
			So(out.Len(), ShouldEqual, 2)
			minutes, ok := out.Value(0, "Playing Time Min").Float()
			So(ok, ShouldBeTrue)
			So(minutes, ShouldEqual, 1260)
		})
	})

	Convey("Given a page without commented tables", t, func() {
		got, err := fbref.Extract([]byte(visiblePage))
		So(err, ShouldBeNil)

		Convey("Then visible tables are used", func() {
			So(got, ShouldHaveLength, 2)
			wide, err := table.SelectWidest(got)
			So(err, ShouldBeNil)
			So(wide.Name, ShouldEqual, "stats_keeper")
		})

		Convey("And a table without thead takes its first row as header", func() {
			So(got[0].Header, ShouldResemble, [][]string{{"Player"}})
			So(got[0].Rows, ShouldHaveLength, 1)
		})
	})

	Convey("Given a page without tables", t, func() {
		got, err := fbref.Extract([]byte("<html><body><p>blocked</p></body></html>"))
		So(err, ShouldBeNil)
		So(got, ShouldBeEmpty)
	})
}

func TestSource(t *testing.T) {
	page := fbref.Page{BaseURL: "https://fbref.com", CompetitionID: "22", Season: "2025", Slug: "2025-Major-League-Soccer-Stats"}

	Convey("Given the competition page", t, func() {
		So(page.URL("keepersadv"), ShouldEqual, "https://fbref.com/en/comps/22/2025/keepersadv/2025-Major-League-Soccer-Stats")

		Convey("Then one source per page is built in fetch order", func() {
			srcs := fbref.Sources(page, &stubGetter{})
			So(srcs, ShouldHaveLength, 8)
			So(srcs[0].Name(), ShouldEqual, "standard")
			So(srcs[0].URL(), ShouldEndWith, "/stats/2025-Major-League-Soccer-Stats")
			So(srcs[7].Name(), ShouldEqual, "gk_advanced")
		})
	})

	Convey("Given a source over a stub getter", t, func() {
		g := &stubGetter{body: []byte(commentedPage)}
		src := fbref.NewSource("standard", page.URL("stats"), g)

		Convey("Then the widest table is returned under the source name", func() {
			raw, err := src.Fetch(context.Background())
			So(err, ShouldBeNil)
			So(raw.Name, ShouldEqual, "standard")
			So(raw.Width(), ShouldEqual, 5)
			So(g.urls, ShouldHaveLength, 1)
		})

		Convey("Then a page without tables reports no table found", func() {
			g.body = []byte("<html></html>")
			_, err := src.Fetch(context.Background())
			So(errors.Is(err, table.ErrNoTableFound), ShouldBeTrue)
		})

		Convey("Then fetch errors pass through", func() {
			g.err = errors.New("boom")
			_, err := src.Fetch(context.Background())
			So(err, ShouldEqual, g.err)
		})
	})
}
