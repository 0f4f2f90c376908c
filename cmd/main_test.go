package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	service "github.com/okian/thunder/internal/app"
	"github.com/okian/thunder/internal/config"
	"github.com/okian/thunder/internal/domain/types"
	"github.com/okian/thunder/pkg/logger"
)

func writeLeague(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", "Season - Winter 24"); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"Name 1", "Sets 1", "Sets 2", "Name 2", "Date", "Round", "Division"},
		{"Alice", 3, 1, "Bob", "08/01/2024", "Week 1", "A"},
		{"Bob", 3, 0, "Cara", "15/01/2024", "Week 2", "A"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Season - Winter 24", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "league.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given default configuration", t, func() {
		cfg := config.New()
		log := logger.Get()

		convey.Convey("When no workbook is configured", func() {
			svc, err := newService(cfg, log)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the service refuses to start", func() {
				convey.So(errors.Is(svc.Start(context.Background()), service.ErrNoSource), convey.ShouldBeTrue)
			})

			convey.Convey("Then the router serves an empty leaderboard", func() {
				rec := httptest.NewRecorder()
				newHTTPServer(cfg, svc).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "[]")
			})

			convey.Convey("Then the API docs are mounted", func() {
				rec := httptest.NewRecorder()
				newHTTPServer(cfg, svc).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then updating metrics does not panic", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the metrics updater context ends", func() {
			svc, _ := newService(cfg, log)
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a workbook on disk", t, func() {
		cfg := config.New()
		cfg.WorkbookPath = writeLeague(t)
		cfg.MaxLeaderboardLimit = 10

		svc, err := newService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then the startup refresh publishes ratings", func() {
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				if p, _ := svc.GetStats()["players"].(int); p > 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			rec := httptest.NewRecorder()
			newHTTPServer(cfg, svc).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=3", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			var rows []types.Entry
			convey.So(json.Unmarshal(rec.Body.Bytes(), &rows), convey.ShouldBeNil)
			convey.So(rows, convey.ShouldHaveLength, 3)
			convey.So(rows[0].Rank, convey.ShouldEqual, 1)
			convey.So(rows[2].Player, convey.ShouldEqual, "Cara")
		})
	})
}
