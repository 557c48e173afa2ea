package catalog_test

import (
	"testing"

	"github.com/okian/touchline/internal/domain/catalog"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/internal/domain/weights"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPositionRule(t *testing.T) {
	Convey("Given a standard table with keepers and outfielders", t, func() {
		tb := table.Table{
			Columns: []string{"Player", "Pos"},
			Rows: [][]table.Cell{
				{table.Text("Ann"), table.Text("FW")},
				{table.Text("Gus"), table.Text("GK")},
				{table.Text("Dee"), table.Text("DF,MF")},
				{table.Text("Max"), table.Missing()},
			},
		}

		Convey("Then the outfield rule drops keepers", func() {
			out := catalog.OutfieldClass(weights.AttackingSet(), weights.DefensiveSet()).Position.Apply(tb)
			So(out.Len(), ShouldEqual, 3)
		})

		Convey("Then the keeper rule keeps only keepers", func() {
			out := catalog.GoalkeeperClass(weights.GoalkeeperSet()).Position.Apply(tb)
			So(out.Len(), ShouldEqual, 1)
			So(out.Value(0, "Player").String(), ShouldEqual, "Gus")
		})

		Convey("Then a table without positions is kept whole", func() {
			rule := catalog.PositionRule{Column: "Pos", Token: "GK"}
			noPos := table.Table{Columns: []string{"Player"}, Rows: [][]table.Cell{{table.Text("A")}}}
			So(rule.Apply(noPos).Len(), ShouldEqual, 1)
		})
	})
}

func TestCanonicalize(t *testing.T) {
	Convey("Given a record with provider column names", t, func() {
		class := catalog.OutfieldClass(weights.AttackingSet(), weights.DefensiveSet())
		rec := model.NewRecord()
		rec.SetFloat("Playing Time Min", 900)
		rec.SetFloat("Performance Gls", 4)
		rec.SetFloat("Standard Gls", 5)
		rec.SetFloat("Touches Att 3rd", 100)
		rec.SetFloat("Tackles Att 3rd", 7)
		rec.SetFloat("xG", 3.2)
		rec.SetFloat("Expected xG", 9)

		class.Canonicalize(rec)

		Convey("Then canonical columns are filled from the first present source", func() {
			So(rec.Float("Min"), ShouldEqual, 900)
			So(rec.Float("Gls"), ShouldEqual, 4)
			So(rec.Float("Att 3rd"), ShouldEqual, 100)
		})

		Convey("Then columns already canonical are left alone", func() {
			So(rec.Float("xG"), ShouldEqual, 3.2)
		})

		Convey("Then canonical columns without a source stay absent", func() {
			So(rec.Has("Won"), ShouldBeFalse)
		})
	})
}

func TestClasses(t *testing.T) {
	Convey("Given the default weight registry", t, func() {
		classes, err := catalog.Classes(weights.Defaults())
		So(err, ShouldBeNil)
		So(classes, ShouldHaveLength, 2)
		out, gk := classes[0], classes[1]

		Convey("Then the outfield layout starts with identity, exposure, and scores", func() {
			So(out.Columns[:8], ShouldResemble, []string{
				"Player", "Squad", "Pos", "Nation", "Age", "90s",
				"Attacking_Efficiency", "Defensive_Efficiency",
			})
			So(out.Sources()[0], ShouldEqual, catalog.SourceStandard)
		})

		Convey("Then the keeper class merges advanced stats onto the keepers table", func() {
			So(gk.Base, ShouldEqual, catalog.SourceKeepers)
			So(gk.Supplements[0], ShouldEqual, catalog.SourceKeepersAdv)
			So(gk.Columns[6], ShouldEqual, "GK_Efficiency")
			So(gk.SortKey, ShouldEqual, "GK_Efficiency")
		})

		Convey("Then every FBref source has a page", func() {
			pages := catalog.FBrefPages()
			for _, name := range catalog.FBrefOrder() {
				So(pages[name], ShouldNotBeBlank)
			}
		})

		Convey("Then team sources are keyed by squad", func() {
			So(catalog.IdentityColumn(catalog.SourceTeamXPass), ShouldEqual, "Squad")
			So(catalog.IdentityColumn(catalog.SourceStandard), ShouldEqual, "Player")
			So(catalog.IdentityColumn(catalog.SourcePlayerSalaries), ShouldEqual, "Player")
		})
	})

	Convey("Given a registry missing a set", t, func() {
		_, err := catalog.Classes(weights.Registry{})
		So(err, ShouldNotBeNil)
	})
}
