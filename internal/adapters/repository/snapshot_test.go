package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/thunder/internal/adapters/repository"
	"github.com/smartystreets/goconvey/convey"
)

func TestSnapshot(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a seeded store", t, func() {
		s := repository.NewMemoryStore()
		convey.So(s.Seed(ctx, "carol", 1700.4, ptr(80.6), ptr(0.0612345678)), convey.ShouldBeNil)
		convey.So(s.Seed(ctx, "bob", 1600, nil, nil), convey.ShouldBeNil)
		convey.So(s.Seed(ctx, "alice", 1600, nil, nil), convey.ShouldBeNil)
		convey.So(s.Seed(ctx, "dave", 1400, nil, nil), convey.ShouldBeNil)

		snap := s.Snapshot(ctx, "cycle-1")

		convey.Convey("entries are sorted by rating then name", func() {
			es := snap.Entries()
			convey.So(len(es), convey.ShouldEqual, 4)
			names := []string{es[0].Player, es[1].Player, es[2].Player, es[3].Player}
			convey.So(names, convey.ShouldResemble, []string{"carol", "alice", "bob", "dave"})
			for i, e := range es {
				convey.So(e.Rank, convey.ShouldEqual, i+1)
			}
		})

		convey.Convey("display values are rounded", func() {
			e, err := snap.Rank("carol")
			convey.So(err, convey.ShouldBeNil)
			convey.So(e.DisplayRating(), convey.ShouldEqual, 1700)
			convey.So(e.DisplayDeviation(), convey.ShouldEqual, 81)
			convey.So(e.DisplayVolatility(), convey.ShouldEqual, 0.061235)
			convey.So(e.Rating, convey.ShouldEqual, 1700.4)
		})

		convey.Convey("TopN clamps to the available rows", func() {
			top, err := snap.TopN(2)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(top), convey.ShouldEqual, 2)
			all, err := snap.TopN(100)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(all), convey.ShouldEqual, 4)
			_, err = snap.TopN(0)
			convey.So(errors.Is(err, repository.ErrInvalidLimit), convey.ShouldBeTrue)
		})

		convey.Convey("unknown players are not found", func() {
			_, err := snap.Rank("erin")
			convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("the snapshot is detached from later writes", func() {
			_, err := s.ApplyMatchResult(ctx, "dave", "carol", 3, 0)
			convey.So(err, convey.ShouldBeNil)
			e, _ := snap.Rank("dave")
			convey.So(e.Rating, convey.ShouldEqual, 1400)
			convey.So(snap.CycleID, convey.ShouldEqual, "cycle-1")
			convey.So(snap.States()["dave"].Rating, convey.ShouldEqual, 1400)
		})
	})

	convey.Convey("An empty snapshot has no rows", t, func() {
		snap := repository.EmptySnapshot()
		convey.So(snap.Len(), convey.ShouldEqual, 0)
		top, err := snap.TopN(10)
		convey.So(err, convey.ShouldBeNil)
		convey.So(top, convey.ShouldBeEmpty)
	})
}
