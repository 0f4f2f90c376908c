package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

const sheet = "Season - Winter 24"

func writeLeague(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"Name 1", "Sets 1", "Sets 2", "Name 2", "Date", "Round", "Division"},
		{"Alice", 3, 1, "Bob", "08/01/2024", "Week 1", "A"},
		{"Bob", 3, 0, "Cara", "15/01/2024", "Week 2", "A"},
		{"Cara", "", "", "Alice", "22/01/2024", "Week 3", "A"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "league.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp(&out)
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"ratings"}, args...))
	return out.String(), err
}

func TestRatingsCLI(t *testing.T) {
	t.Setenv("THUNDER_CONFIG", "")
	_ = os.Unsetenv("THUNDER_CONFIG")

	convey.Convey("Given a league workbook", t, func() {
		path := writeLeague(t)

		convey.Convey("table prints players highest first", func() {
			out, err := run("table", "--workbook", path)
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			convey.So(lines, convey.ShouldHaveLength, 4)
			convey.So(lines[0], convey.ShouldStartWith, "RANK")
			convey.So(lines[1], convey.ShouldContainSubstring, "Alice")
		})

		convey.Convey("limit trims the table", func() {
			out, err := run("table", "--workbook", path, "--limit", "1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(strings.Count(strings.TrimSpace(out), "\n"), convey.ShouldEqual, 1)
		})

		convey.Convey("a cutoff after every match leaves defaults only", func() {
			out, err := run("table", "--workbook", path, "--cutoff", "2024-12-31")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "no rated players")
		})

		convey.Convey("audit lists the empty score", func() {
			out, err := run("audit", "--workbook", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Empty Score")
		})

		convey.Convey("a missing workbook flag is an error", func() {
			_, err := run("table")
			convey.So(errors.Is(err, errMissingWorkbook), convey.ShouldBeTrue)
		})
	})
}
