package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/touchline/internal/adapters/repository"
	"github.com/okian/touchline/internal/domain/export"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func player(name, squad string, att, def float64) *model.Record {
	rec := model.NewRecord()
	rec.Set("Player", table.Text(name))
	rec.Set("Squad", table.Text(squad))
	rec.SetFloat("Attacking_Efficiency", att)
	rec.SetFloat("Defensive_Efficiency", def)
	return rec
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	Convey("Given a store with a published outfield board", t, func() {
		s := repository.NewMemoryStore(repository.WithClock(func() time.Time { return published }))
		recs := []*model.Record{
			player("Alice", "Austin", 100, 10),
			player("Bob", "Miami", 40, 80),
			player("Cy", "Austin", 40, 0),
			player("Alice", "Miami", 0, 100),
		}
		s.Publish(ctx, "outfield", "Attacking_Efficiency", export.Result{
			Columns: []string{"Player", "Squad", "Attacking_Efficiency"},
			Records: recs,
		})

		Convey("Then TopN ranks by the sort key with shared ranks on ties", func() {
			top, err := s.TopN(ctx, "outfield", "", 3)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 3)
			So(top[0].Name, ShouldEqual, "Alice")
			So(top[0].Rank, ShouldEqual, 1)
			So(top[1].Name, ShouldEqual, "Bob")
			So(top[1].Rank, ShouldEqual, 2)
			So(top[2].Name, ShouldEqual, "Cy")
			So(top[2].Rank, ShouldEqual, 2)
			So(top[0].Fields["Squad"], ShouldEqual, "Austin")
		})

		Convey("Then tied entries keep the published order", func() {
			s.Publish(ctx, "ties", "Attacking_Efficiency", export.Result{
				Columns: []string{"Player", "Squad", "Attacking_Efficiency"},
				Records: []*model.Record{
					player("Zed", "Miami", 70, 0),
					player("Ann", "Austin", 70, 0),
					player("Max", "Miami", 90, 0),
				},
			})
			top, err := s.TopN(ctx, "ties", "", 3)
			So(err, ShouldBeNil)
			So(top[0].Name, ShouldEqual, "Max")
			So(top[1].Name, ShouldEqual, "Zed")
			So(top[2].Name, ShouldEqual, "Ann")
			So(top[2].Rank, ShouldEqual, 2)
		})

		Convey("Then another field can be ranked", func() {
			top, err := s.TopN(ctx, "outfield", "Defensive_Efficiency", 1)
			So(err, ShouldBeNil)
			So(top[0].Squad, ShouldEqual, "Miami")
		})

		Convey("Then Rank finds a player and squad narrows duplicates", func() {
			e, err := s.Rank(ctx, "outfield", "", "alice", "miami")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 3)

			e, err = s.Rank(ctx, "outfield", "", "Alice", "")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 1)
		})

		Convey("Then later changes to the source records are not visible", func() {
			recs[0].SetFloat("Attacking_Efficiency", 0)
			top, err := s.TopN(ctx, "outfield", "", 1)
			So(err, ShouldBeNil)
			So(top[0].Score, ShouldEqual, 100)
		})

		Convey("Then counts and publish times are reported", func() {
			So(s.Count(ctx, "outfield"), ShouldEqual, 4)
			So(s.Count(ctx, "goalkeeper"), ShouldEqual, 0)
			So(s.Classes(ctx), ShouldResemble, map[string]time.Time{"outfield": published})
		})

		Convey("Then bad queries fail with sentinels", func() {
			_, err := s.TopN(ctx, "outfield", "", 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)

			_, err = s.TopN(ctx, "goalkeeper", "", 5)
			So(errors.Is(err, repository.ErrUnknownClass), ShouldBeTrue)

			_, err = s.TopN(ctx, "outfield", "GK_Efficiency", 5)
			So(errors.Is(err, repository.ErrUnknownField), ShouldBeTrue)

			_, err = s.Rank(ctx, "outfield", "", "Zed", "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a team board without players", t, func() {
		s := repository.NewMemoryStore()
		rec := model.NewRecord()
		rec.Set("Squad", table.Text("Austin FC"))
		rec.SetFloat("Team_Efficiency", 61.2)
		s.Publish(ctx, "team_stats", "Team_Efficiency", export.Result{Columns: []string{"Squad"}, Records: []*model.Record{rec}})

		Convey("Then entries are named by squad", func() {
			e, err := s.Rank(ctx, "team_stats", "", "Austin FC", "")
			So(err, ShouldBeNil)
			So(e.Name, ShouldEqual, "Austin FC")
			So(e.Squad, ShouldEqual, "")
		})
	})
}
