package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/thunder/internal/domain/dedupe"
	"github.com/okian/thunder/internal/domain/model"
)

func TestKey(t *testing.T) {
	Convey("Given two rows", t, func() {
		a := model.MatchEvent{Season: "Winter", Round: 2, PlayerA: "Ann", PlayerB: "Bo", SetsA: 3, SetsB: 1,
			Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}

		Convey("names compare case-insensitively", func() {
			b := a
			b.PlayerA = "ANN"
			So(dedupe.Key(a), ShouldEqual, dedupe.Key(b))
		})

		Convey("names fold beyond ASCII", func() {
			x, y := a, a
			x.PlayerB = "Strauß"
			y.PlayerB = "STRAUSS"
			So(dedupe.Key(x), ShouldEqual, dedupe.Key(y))
		})

		Convey("a different score is a different row", func() {
			b := a
			b.SetsB = 2
			So(dedupe.Key(a), ShouldNotEqual, dedupe.Key(b))
		})

		Convey("a rematch in another round is a different row", func() {
			b := a
			b.Round = 3
			So(dedupe.Key(a), ShouldNotEqual, dedupe.Key(b))
		})

		Convey("the key carries season and week", func() {
			So(dedupe.Key(a), ShouldStartWith, "Winter_W2_2024-01-08_ann_vs_bo")
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
		So(d.SeenAndRecord(ctx, "k2"), ShouldBeFalse)
		So(d.Size(), ShouldEqual, 2)
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")

		Convey("keys beyond the cap are not recorded", func() {
			So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 2)
		})
	})

	Convey("Given concurrent callers on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i%10)) {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		So(fresh, ShouldEqual, 10)
		So(d.Size(), ShouldEqual, 10)
	})
}
