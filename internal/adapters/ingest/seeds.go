package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/thunder/internal/domain/model"
)

// SeedsSheet labels seed issues in the audit.
const SeedsSheet = "seeds"

// seedDoc is kept textual so one bad value rejects one seed, not the file.
type seedDoc struct {
	Player     string `yaml:"player"`
	Rating     string `yaml:"rating"`
	Deviation  string `yaml:"deviation"`
	Volatility string `yaml:"volatility"`
}

// ReadSeeds decodes a YAML list of seeds. Entries with an empty player or
// a non-numeric value are reported as issues and left out.
func ReadSeeds(r io.Reader) ([]model.SeedRecord, []model.Issue, error) {
	var docs []seedDoc
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %w", ErrReadSeeds, err)
	}

	var (
		seeds  []model.SeedRecord
		issues []model.Issue
	)
	for i, d := range docs {
		n := i + 1
		bad := func(detail string) {
			issues = append(issues, model.Issue{Sheet: SeedsSheet, Row: n, Kind: IssueInvalidSeed, Detail: detail})
		}
		player := cleanName(d.Player)
		if player == "" {
			bad("missing player")
			continue
		}
		r, ok := number(d.Rating)
		if !ok {
			bad(fmt.Sprintf("%s: rating '%s' is not a number", player, d.Rating))
			continue
		}
		s := model.SeedRecord{Player: player, Rating: r}
		if strings.TrimSpace(d.Deviation) != "" {
			v, ok := number(d.Deviation)
			if !ok {
				bad(fmt.Sprintf("%s: deviation '%s' is not a number", player, d.Deviation))
				continue
			}
			s.Deviation = &v
		}
		if strings.TrimSpace(d.Volatility) != "" {
			v, ok := number(d.Volatility)
			if !ok {
				bad(fmt.Sprintf("%s: volatility '%s' is not a number", player, d.Volatility))
				continue
			}
			s.Volatility = &v
		}
		seeds = append(seeds, s)
	}
	return seeds, issues, nil
}

// ReadSeedsFile reads seeds from path.
func ReadSeedsFile(path string) ([]model.SeedRecord, []model.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrReadSeeds, err)
	}
	defer func() { _ = f.Close() }()
	return ReadSeeds(f)
}

func number(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
