package csvout_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/touchline/internal/adapters/csvout"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWrite(t *testing.T) {
	Convey("Given a writer over a fresh directory", t, func() {
		dir := filepath.Join(t.TempDir(), "out")
		w := csvout.New(dir)

		Convey("When writing an export", func() {
			path, err := w.Write("mls_gk_efficiency.csv",
				[]string{"Player", "Squad", "GK_Efficiency"},
				[][]string{{"Dee, Jr.", "Austin", "71.25"}, {"Eve", "", "50"}})
			So(err, ShouldBeNil)

			Convey("Then the file holds the header and quoted rows", func() {
				So(path, ShouldEqual, filepath.Join(dir, "mls_gk_efficiency.csv"))
				f, err := os.Open(path)
				So(err, ShouldBeNil)
				defer f.Close()
				recs, err := csv.NewReader(f).ReadAll()
				So(err, ShouldBeNil)
				So(recs, ShouldResemble, [][]string{
					{"Player", "Squad", "GK_Efficiency"},
					{"Dee, Jr.", "Austin", "71.25"},
					{"Eve", "", "50"},
				})
			})

			Convey("And no temporary file is left behind", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})

			Convey("And rewriting replaces the file", func() {
				_, err := w.Write("mls_gk_efficiency.csv", []string{"Player"}, nil)
				So(err, ShouldBeNil)
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, "Player\n")
			})
		})
	})
}
