// Package ingest reads league results and seed baselines from files and
// turns them into match events for the replay driver.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/thunder/internal/domain/dedupe"
	"github.com/okian/thunder/internal/domain/model"
)

// Workbook layout defaults.
const (
	DefaultDatesSheet = "Season Dates"

	unknownDivision = "Unknown"
	unknownPlayer   = "Unknown Player"
	unknownOpponent = "Unknown Opponent"
)

// seasonMarker tags result sheets. xlsx forbids ':' in sheet names, so
// "Season - Winter" and "Season_Winter" are accepted next to "Season: Winter".
var seasonMarker = regexp.MustCompile(`Season\s*[:_-]\s*`)

// SeasonName reports whether title names a result sheet and returns the
// season it holds.
func SeasonName(title string) (string, bool) {
	if !seasonMarker.MatchString(title) {
		return "", false
	}
	return strings.TrimSpace(seasonMarker.ReplaceAllString(title, "")), true
}

// Workbook holds the parsed result of one workbook.
type Workbook struct {
	Seasons []string
	Starts  map[string]time.Time
	Matches []model.MatchEvent
	Issues  []model.Issue
}

// Parser converts an opened excelize file into match events.
type Parser struct {
	datesSheet    string
	dedupeMaxRows int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithDatesSheet names the sheet holding season start dates.
func WithDatesSheet(name string) ParserOption {
	return func(p *Parser) {
		if name != "" {
			p.datesSheet = name
		}
	}
}

// WithDedupeMaxRows caps how many row keys duplicate detection remembers
// per parse. Rows past the cap are accepted unchecked. n <= 0 is unbounded.
func WithDedupeMaxRows(n int) ParserOption {
	return func(p *Parser) { p.dedupeMaxRows = n }
}

// NewParser creates a parser with the default layout.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{datesSheet: DefaultDatesSheet}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads every season sheet of f in sheet order. Row problems are
// returned as issues; only unreadable sheets are skipped whole.
func (p *Parser) Parse(ctx context.Context, f *excelize.File) Workbook {
	wb := Workbook{Starts: p.seasonStarts(f)}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(p.dedupeMaxRows))
	seq := 0

	for _, sheet := range f.GetSheetList() {
		if ctx.Err() != nil {
			break
		}
		season, ok := SeasonName(sheet)
		if !ok {
			continue
		}
		wb.Seasons = append(wb.Seasons, season)

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			wb.Issues = append(wb.Issues, model.Issue{Sheet: sheet, Kind: IssueUnreadableSheet, Detail: err.Error()})
			continue
		}
		if len(rows) == 0 {
			continue
		}
		h := newHeader(rows[0])
		for i, row := range rows[1:] {
			ev, issues, ok := p.row(h, row, sheet, season, i+2, wb.Starts[season])
			wb.Issues = append(wb.Issues, issues...)
			if !ok {
				continue
			}
			if seen.SeenAndRecord(ctx, dedupe.Key(ev)) {
				wb.Issues = append(wb.Issues, model.Issue{
					Sheet: sheet, Row: i + 2, Kind: IssueDuplicateRow,
					Detail: fmt.Sprintf("%s vs %s %d-%d repeats an earlier row", ev.PlayerA, ev.PlayerB, ev.SetsA, ev.SetsB),
				})
				continue
			}
			seq++
			ev.Seq = seq
			wb.Matches = append(wb.Matches, ev)
		}
	}
	return wb
}

func (p *Parser) row(h header, row []string, sheet, season string, n int, start time.Time) (model.MatchEvent, []model.Issue, bool) {
	if strings.Contains(strings.ToLower(h.get(row, colFormat, "")), "doubles") {
		return model.MatchEvent{}, nil, false
	}

	var issues []model.Issue
	issue := func(kind, detail string) {
		issues = append(issues, model.Issue{Sheet: sheet, Row: n, Kind: kind, Detail: detail})
	}

	p1 := cleanName(h.get(row, colName1, ""))
	p2 := cleanName(h.get(row, colName2, ""))
	if p1 == "" && p2 == "" {
		return model.MatchEvent{}, nil, false
	}
	switch {
	case p2 == "":
		issue(IssueMissingOpponent, p1+" vs [BLANK]")
		p2 = unknownOpponent
	case p1 == "":
		issue(IssueMissingPlayer, "[BLANK] vs "+p2)
		p1 = unknownPlayer
	}

	s1raw, s2raw := h.get(row, colSets1, ""), h.get(row, colSets2, "")
	if s1raw == "" || s2raw == "" {
		issue(IssueEmptyScore, fmt.Sprintf("%s vs %s has no score", p1, p2))
		return model.MatchEvent{}, issues, false
	}
	s1, err1 := strconv.Atoi(s1raw)
	s2, err2 := strconv.Atoi(s2raw)
	if err1 != nil || err2 != nil || s1 < 0 || s2 < 0 {
		issue(IssueInvalidScore, fmt.Sprintf("values '%s' - '%s'", s1raw, s2raw))
		return model.MatchEvent{}, issues, false
	}

	div := h.get(row, colDivision, unknownDivision)
	if div == "" {
		div = unknownDivision
	}
	ev := model.MatchEvent{
		PlayerA:  p1,
		PlayerB:  p2,
		SetsA:    s1,
		SetsB:    s2,
		Season:   season,
		Division: div,
		Round:    RoundNumber(h.get(row, colRound, "")),
		FillInA:  strings.Contains(strings.ToUpper(h.get(row, colStatus1, "")), "S"),
		FillInB:  strings.Contains(strings.ToUpper(h.get(row, colStatus2, "")), "S"),
	}

	if raw := h.get(row, colDate, ""); raw != "" {
		d, ok := ParseDate(raw)
		if !ok {
			issue(IssueInvalidDate, fmt.Sprintf("unrecognised date '%s'", raw))
		}
		ev.Date = d
	} else {
		ev.Date = RoundDate(start, ev.Round)
	}
	return ev, issues, true
}

// seasonStarts reads the optional dates sheet. Missing sheet means no
// round-to-date fallback.
func (p *Parser) seasonStarts(f *excelize.File) map[string]time.Time {
	starts := make(map[string]time.Time)
	if idx, err := f.GetSheetIndex(p.datesSheet); err != nil || idx < 0 {
		return starts
	}
	rows, err := f.GetRows(p.datesSheet, excelize.Options{RawCellValue: true})
	if err != nil || len(rows) == 0 {
		return starts
	}
	h := newHeader(rows[0])
	for _, row := range rows[1:] {
		season := h.get(row, colSeason, "")
		if name, ok := SeasonName(season); ok {
			season = name
		}
		if season == "" {
			continue
		}
		if d, ok := ParseDate(h.get(row, colStart, "")); ok {
			starts[season] = d
		}
	}
	return starts
}

// OpenWorkbook opens and parses the workbook at path.
func (p *Parser) OpenWorkbook(ctx context.Context, path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Workbook{}, fmt.Errorf("%w %s: %w", ErrOpenWorkbook, path, err)
	}
	defer func() { _ = f.Close() }()
	return p.Parse(ctx, f), nil
}
