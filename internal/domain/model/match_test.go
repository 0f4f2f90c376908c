package model_test

import (
	"testing"

	model "github.com/okian/thunder/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatchEvent(t *testing.T) {
	convey.Convey("Given a match won by the second player", t, func() {
		m := model.MatchEvent{PlayerA: "Ann", PlayerB: "Bo", SetsA: 1, SetsB: 3}

		convey.Convey("Then Result orders winner first", func() {
			w, l, ws, ls, ok := m.Result()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(w, convey.ShouldEqual, "Bo")
			convey.So(l, convey.ShouldEqual, "Ann")
			convey.So(ws, convey.ShouldEqual, 3)
			convey.So(ls, convey.ShouldEqual, 1)
			convey.So(m.IsTie(), convey.ShouldBeFalse)
			convey.So(m.Played(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a tied match", t, func() {
		m := model.MatchEvent{PlayerA: "Ann", PlayerB: "Bo", SetsA: 2, SetsB: 2}

		convey.Convey("Then Result is not ok", func() {
			_, _, _, _, ok := m.Result()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(m.IsTie(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unplayed 0-0 row", t, func() {
		m := model.MatchEvent{PlayerA: "Ann", PlayerB: "Bo"}

		convey.So(m.Played(), convey.ShouldBeFalse)
		convey.So(m.IsTie(), convey.ShouldBeTrue)
	})
}

func TestNewRefreshRequest(t *testing.T) {
	convey.Convey("Given two refresh requests", t, func() {
		a := model.NewRefreshRequest("startup")
		b := model.NewRefreshRequest("startup")

		convey.Convey("Then each carries its own id", func() {
			convey.So(a.ID, convey.ShouldNotBeEmpty)
			convey.So(a.ID, convey.ShouldNotEqual, b.ID)
			convey.So(a.Reason, convey.ShouldEqual, "startup")
			convey.So(a.RequestedAt.IsZero(), convey.ShouldBeFalse)
		})
	})
}
