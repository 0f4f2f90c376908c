// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/thunder/internal/domain/rating"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkbookPath is the XLSX workbook holding match results.
	WorkbookPath string `koanf:"workbook_path"`

	// DatesSheet is the sheet holding season start dates.
	DatesSheet string `koanf:"dates_sheet"`

	// SeedsPath is an optional YAML seed file.
	SeedsPath string `koanf:"seeds_path"`

	// CutoffDate excludes matches on or before it (YYYY-MM-DD). Empty disables.
	CutoffDate string `koanf:"cutoff_date"`

	DefaultRating     float64 `koanf:"default_rating"`
	DefaultDeviation  float64 `koanf:"default_deviation"`
	DefaultVolatility float64 `koanf:"default_volatility"`

	// Tau constrains volatility change.
	Tau float64 `koanf:"tau"`

	// DampeningFactor scales both players' rating-mean updates in narrow results.
	DampeningFactor float64 `koanf:"dampening_factor"`

	// DampenedFormats maps total sets to the winner sets that trigger dampening.
	// Keys are strings because koanf flattens maps by key. A configured table
	// replaces the defaults rather than merging into them.
	DampenedFormats map[string]int `koanf:"dampened_formats"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DedupeMaxRows caps duplicate-row detection per workbook; 0 is unbounded.
	DedupeMaxRows int `koanf:"dedupe_max_rows"`

	// RefreshQueueSize bounds pending refresh requests.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// RefreshInterval in seconds; 0 disables the periodic refresh.
	RefreshInterval int `koanf:"refresh_interval"`

	// RefreshRatePerMinute limits POST /refresh; 0 disables the limit.
	RefreshRatePerMinute float64 `koanf:"refresh_rate_per_minute"`
	RefreshBurst         int     `koanf:"refresh_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DatesSheet:           "Season Dates",
		DefaultRating:        rating.DefaultRating,
		DefaultDeviation:     rating.DefaultDeviation,
		DefaultVolatility:    rating.DefaultVolatility,
		Tau:                  rating.DefaultTau,
		DampeningFactor:      rating.DefaultDampeningFactor,
		DampenedFormats:      map[string]int{"5": 3, "7": 4},
		MaxLeaderboardLimit:  100,
		RefreshQueueSize:     4,
		RefreshRatePerMinute: 6,
		RefreshBurst:         2,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RefreshQueueSize < 1:
		return fmt.Errorf("%w: refresh_queue_size must be positive", ErrInvalidConfig)
	case c.DedupeMaxRows < 0:
		return fmt.Errorf("%w: dedupe_max_rows must not be negative", ErrInvalidConfig)
	case c.RefreshInterval < 0:
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrInvalidConfig)
	case c.RefreshRatePerMinute < 0 || c.RefreshBurst < 0:
		return fmt.Errorf("%w: refresh rate must not be negative", ErrInvalidConfig)
	case !positive(c.Tau):
		return fmt.Errorf("%w: tau must be positive", ErrInvalidConfig)
	case !positive(c.DampeningFactor) || c.DampeningFactor > 1:
		return fmt.Errorf("%w: dampening_factor must be in (0, 1]", ErrInvalidConfig)
	}
	if err := c.DefaultState().Validate(); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if _, err := c.Formats(); err != nil {
		return err
	}
	return nil
}

// Cutoff parses CutoffDate. The zero time means no cutoff.
func (c *Config) Cutoff() (time.Time, error) {
	if c.CutoffDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cutoff_date: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// Formats converts DampenedFormats to integer keys.
func (c *Config) Formats() (map[int]int, error) {
	out := make(map[int]int, len(c.DampenedFormats))
	for k, v := range c.DampenedFormats {
		total, err := strconv.Atoi(k)
		if err != nil || total < 1 || v < 1 || v > total {
			return nil, fmt.Errorf("%w: dampened_formats %s=%d", ErrInvalidConfig, k, v)
		}
		out[total] = v
	}
	return out, nil
}

// DefaultState is the state given to previously unseen players.
func (c *Config) DefaultState() rating.State {
	return rating.State{Rating: c.DefaultRating, Deviation: c.DefaultDeviation, Volatility: c.DefaultVolatility}
}

// Engine builds the match update engine from configuration. Call Validate first.
func (c *Config) Engine() *rating.Engine {
	formats, err := c.Formats()
	if err != nil {
		formats = rating.DefaultDampenedFormats()
	}
	return rating.NewEngine(
		rating.WithSolver(rating.NewSolver(
			rating.WithTau(c.Tau),
			rating.WithFallbackVolatility(c.DefaultVolatility),
		)),
		rating.WithDampening(rating.NewDampening(c.DampeningFactor, formats)),
	)
}

// RefreshEvery returns RefreshInterval as a duration.
func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

func positive(x float64) bool { return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x) }
