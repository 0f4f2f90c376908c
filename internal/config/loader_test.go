package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/thunder/internal/config"
	"github.com/okian/thunder/internal/domain/rating"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DefaultRating, convey.ShouldEqual, 1500)
				convey.So(cfg.RefreshQueueSize, convey.ShouldEqual, 4)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_ADDR", ":8080")
			t.Setenv("THUNDER_REFRESH_QUEUE_SIZE", "8")
			t.Setenv("THUNDER_TAU", "0.3")
			t.Setenv("THUNDER_CUTOFF_DATE", "2024-06-30")
			t.Setenv("THUNDER_LOG_FORMAT", "json")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RefreshQueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.Tau, convey.ShouldEqual, 0.3)
				convey.So(cfg.CutoffDate, convey.ShouldEqual, "2024-06-30")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			clearConfigEnvVars(t)
			path := writeConfig(t, `
addr: ":9090"
workbook_path: "/data/league.xlsx"
default_rating: 1200
refresh_interval: 60
dampened_formats:
  "9": 5
`)
			t.Setenv("THUNDER_CONFIG", path)
			t.Setenv("THUNDER_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkbookPath, convey.ShouldEqual, "/data/league.xlsx")
				convey.So(cfg.DefaultRating, convey.ShouldEqual, 1200)
				convey.So(cfg.DefaultDeviation, convey.ShouldEqual, 350)
				convey.So(cfg.RefreshEvery().Seconds(), convey.ShouldEqual, 60)

				formats, err := cfg.Formats()
				convey.So(err, convey.ShouldBeNil)
				convey.So(formats, convey.ShouldResemble, map[int]int{9: 5})
			})
		})

		convey.Convey("When the file sets an empty dampened_formats table", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_CONFIG", writeConfig(t, "dampened_formats: {}\n"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then no format is dampened", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DampenedFormats, convey.ShouldBeEmpty)
				out, err := cfg.Engine().Update(rating.DefaultState(), rating.DefaultState(), 3, 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.Dampening, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When the file sets dampened_formats to null", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_CONFIG", writeConfig(t, "dampened_formats: ~\n"))

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.DampenedFormats, convey.ShouldBeEmpty)
		})

		convey.Convey("When the dedupe cap is configured", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_DEDUPE_MAX_ROWS", "500")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.DedupeMaxRows, convey.ShouldEqual, 500)
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_CONFIG", writeConfig(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with non-existent file", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_REFRESH_QUEUE_SIZE", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the cutoff date is malformed", func() {
			clearConfigEnvVars(t)
			t.Setenv("THUNDER_CUTOFF_DATE", "30/06/2024")

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

var configEnvVars = []string{
	"THUNDER_CONFIG",
	"THUNDER_ADDR",
	"THUNDER_LOG_FORMAT",
	"THUNDER_REFRESH_QUEUE_SIZE",
	"THUNDER_TAU",
	"THUNDER_CUTOFF_DATE",
	"THUNDER_DEDUPE_MAX_ROWS",
}

// clearConfigEnvVars unsets the variables for the rest of the test. The
// t.Setenv call registers restoration of any previous value.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thunder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
