package export_test

import (
	"testing"

	"github.com/okian/touchline/internal/domain/derive"
	"github.com/okian/touchline/internal/domain/export"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func player(name string, minutes, score float64) *model.Record {
	r := model.NewRecord()
	r.Set("Player", table.Text(name))
	r.SetFloat("Min", minutes)
	r.SetFloat("Attacking_Efficiency", score)
	return r
}

func derived(recs ...*model.Record) []*model.Record {
	derive.New().Derive(recs)
	return recs
}

func TestExport(t *testing.T) {
	Convey("Given an exporter with a threshold of one ninety", t, func() {
		ex := export.New(
			export.WithThreshold(derive.ExposureField, 1),
			export.WithSortKey("Attacking_Efficiency"),
			export.WithColumns("Player", "Squad", "90s", "Attacking_Efficiency"),
		)

		Convey("When a single player has 45 minutes", func() {
			_, err := ex.Export(derived(player("Solo", 45, 80)))

			Convey("Then nothing survives and the export is empty", func() {
				So(err, ShouldEqual, export.ErrEmptyExport)
			})
		})

		Convey("When exposure sits exactly on the threshold", func() {
			res, err := ex.Export(derived(player("Edge", 90, 10), player("Short", 89, 99)))

			Convey("Then the record is kept and the one below is dropped", func() {
				So(err, ShouldBeNil)
				So(res.Len(), ShouldEqual, 1)
				So(res.Records[0].Text("Player"), ShouldEqual, "Edge")
			})
		})

		Convey("When several players tie", func() {
			res, err := ex.Export(derived(
				player("A", 900, 40),
				player("B", 900, 70),
				player("C", 900, 40),
				player("D", 900, 90),
			))
			So(err, ShouldBeNil)

			Convey("Then order is descending and stable", func() {
				var names []string
				for _, r := range res.Records {
					names = append(names, r.Text("Player"))
				}
				So(names, ShouldResemble, []string{"D", "B", "A", "C"})
			})

			Convey("And columns absent from every record are omitted", func() {
				So(res.Columns, ShouldResemble, []string{"Player", "90s", "Attacking_Efficiency"})
			})

			Convey("And rows render in column order", func() {
				So(res.Rows()[0], ShouldResemble, []string{"D", "10", "90"})
			})
		})

		Convey("When a column is missing on some records only", func() {
			a := player("A", 900, 1)
			a.Set("Squad", table.Text("Austin"))
			b := player("B", 900, 2)
			res, err := ex.Export(derived(a, b))

			Convey("Then the column is kept and the gap renders empty", func() {
				So(err, ShouldBeNil)
				So(res.Columns, ShouldContain, "Squad")
				So(res.Rows()[0][1], ShouldEqual, "")
				So(res.Rows()[1][1], ShouldEqual, "Austin")
			})
		})
	})

	Convey("Given an exporter without threshold or sort key", t, func() {
		ex := export.New(export.WithColumns("Player"))
		res, err := ex.Export([]*model.Record{player("Z", 0, 0), player("Y", 0, 0)})

		Convey("Then every record is kept in input order", func() {
			So(err, ShouldBeNil)
			So(res.Rows(), ShouldResemble, [][]string{{"Z"}, {"Y"}})
		})
	})
}
