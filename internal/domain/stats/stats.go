// Package stats keeps the descriptive win/loss ledger. It sees every
// ingested match, including those excluded from ratings by the cutoff.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/thunder/internal/domain/model"
)

// Filter values meaning "no filter".
const (
	Career       = "Career"
	AllDivisions = "All"
)

// Match results from the player's point of view.
const (
	ResultWin  = "Win"
	ResultLoss = "Loss"
	ResultDraw = "Draw"
)

// Match types.
const (
	TypeRegular = "Regular"
	TypeFillIn  = "Fill-in"
)

// Filter narrows a player's history. Zero Start or End leave that side
// open; a date filter drops undated matches.
type Filter struct {
	Season   string
	Division string
	Start    time.Time
	End      time.Time
}

func (f Filter) match(r *record) bool {
	if f.Season != "" && f.Season != Career && r.Season != f.Season {
		return false
	}
	if f.Division != "" && f.Division != AllDivisions && r.Division != f.Division {
		return false
	}
	if f.Start.IsZero() && f.End.IsZero() {
		return true
	}
	if r.Date.IsZero() {
		return false
	}
	if !f.Start.IsZero() && r.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && r.Date.After(f.End) {
		return false
	}
	return true
}

// HistoryEntry is one match seen from one player's side.
type HistoryEntry struct {
	Date     time.Time
	Opponent string
	Result   string
	Score    string
	Type     string
	Division string
	Season   string
}

// Bucket aggregates a set of matches.
type Bucket struct {
	Matches  int
	Wins     int
	Losses   int
	Draws    int
	SetsWon  int
	SetsLost int
	// WinRate is a percentage rounded to one decimal.
	WinRate float64
	History []HistoryEntry // newest first
}

// PlayerStats holds the regular, fill-in and combined buckets.
type PlayerStats struct {
	Player   string
	Regular  Bucket
	FillIn   Bucket
	Combined Bucket
}

// HeadToHead lists the shared matches of two players.
type HeadToHead struct {
	Player1 string
	Player2 string
	Wins1   int
	Wins2   int
	Matches []HistoryEntry // from Player1's side, newest first
}

type record struct {
	HistoryEntry
	seq    int
	mine   int
	theirs int
	fillIn bool
}

// Ledger is an immutable index of match history per player.
type Ledger struct {
	byPlayer  map[string][]record
	players   []string
	seasons   []string
	divisions []string
	matches   int
}

// NewLedger indexes events. Unplayed rows register their players but are
// not tallied.
func NewLedger(events []model.MatchEvent) *Ledger {
	l := &Ledger{byPlayer: make(map[string][]record)}
	seenSeason := map[string]bool{}
	seenDiv := map[string]bool{}

	for i, ev := range events {
		if ev.Season != "" && !seenSeason[ev.Season] {
			seenSeason[ev.Season] = true
			l.seasons = append(l.seasons, ev.Season)
		}
		if ev.Division != "" && !seenDiv[ev.Division] {
			seenDiv[ev.Division] = true
			l.divisions = append(l.divisions, ev.Division)
		}
		for _, p := range []string{ev.PlayerA, ev.PlayerB} {
			if _, ok := l.byPlayer[p]; !ok {
				l.byPlayer[p] = nil
				l.players = append(l.players, p)
			}
		}
		if !ev.Played() {
			continue
		}
		l.matches++
		seq := ev.Seq
		if seq == 0 {
			seq = i + 1
		}
		l.add(ev.PlayerA, ev.PlayerB, ev.SetsA, ev.SetsB, ev.FillInA, ev, seq)
		l.add(ev.PlayerB, ev.PlayerA, ev.SetsB, ev.SetsA, ev.FillInB, ev, seq)
	}

	sort.Strings(l.players)
	sort.Strings(l.divisions)
	return l
}

func (l *Ledger) add(player, opp string, mine, theirs int, fillIn bool, ev model.MatchEvent, seq int) {
	res := ResultDraw
	switch {
	case mine > theirs:
		res = ResultWin
	case mine < theirs:
		res = ResultLoss
	}
	typ := TypeRegular
	if fillIn {
		typ = TypeFillIn
	}
	l.byPlayer[player] = append(l.byPlayer[player], record{
		HistoryEntry: HistoryEntry{
			Date:     ev.Date,
			Opponent: opp,
			Result:   res,
			Score:    fmt.Sprintf("%d-%d", mine, theirs),
			Type:     typ,
			Division: ev.Division,
			Season:   ev.Season,
		},
		seq:    seq,
		mine:   mine,
		theirs: theirs,
		fillIn: fillIn,
	})
}

// Players returns every known player sorted by name.
func (l *Ledger) Players() []string { return append([]string(nil), l.players...) }

// Seasons returns Career followed by seasons in discovery order.
func (l *Ledger) Seasons() []string { return append([]string{Career}, l.seasons...) }

// Divisions returns every division sorted by name.
func (l *Ledger) Divisions() []string { return append([]string(nil), l.divisions...) }

// Matches returns the number of played matches indexed.
func (l *Ledger) Matches() int { return l.matches }

// Player returns filtered stats for player.
func (l *Ledger) Player(player string, f Filter) (PlayerStats, error) {
	recs, ok := l.byPlayer[player]
	if !ok {
		return PlayerStats{}, fmt.Errorf("%q: %w", player, ErrUnknownPlayer)
	}
	var regular, fillIn, combined []record
	for i := range recs {
		r := &recs[i]
		if !f.match(r) {
			continue
		}
		combined = append(combined, *r)
		if r.fillIn {
			fillIn = append(fillIn, *r)
		} else {
			regular = append(regular, *r)
		}
	}
	return PlayerStats{
		Player:   player,
		Regular:  bucket(regular),
		FillIn:   bucket(fillIn),
		Combined: bucket(combined),
	}, nil
}

// HeadToHead returns the matches p1 played against p2. Opponent names
// compare case-insensitively.
func (l *Ledger) HeadToHead(p1, p2 string) (HeadToHead, error) {
	recs, ok := l.byPlayer[p1]
	if !ok {
		return HeadToHead{}, fmt.Errorf("%q: %w", p1, ErrUnknownPlayer)
	}
	var shared []record
	for _, r := range recs {
		if strings.EqualFold(r.Opponent, p2) {
			shared = append(shared, r)
		}
	}
	h := HeadToHead{Player1: p1, Player2: p2, Matches: newestFirst(shared)}
	for _, r := range shared {
		switch r.Result {
		case ResultWin:
			h.Wins1++
		case ResultLoss:
			h.Wins2++
		}
	}
	return h, nil
}

func bucket(recs []record) Bucket {
	b := Bucket{Matches: len(recs)}
	for _, r := range recs {
		b.SetsWon += r.mine
		b.SetsLost += r.theirs
		switch r.Result {
		case ResultWin:
			b.Wins++
		case ResultLoss:
			b.Losses++
		default:
			b.Draws++
		}
	}
	if b.Matches > 0 {
		b.WinRate = math.Round(float64(b.Wins)/float64(b.Matches)*1000) / 10
	}
	b.History = newestFirst(recs)
	return b
}

// newestFirst orders by date descending, later discoveries first on equal
// dates. Undated matches go last.
func newestFirst(recs []record) []HistoryEntry {
	sorted := append([]record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.seq > b.seq
	})
	out := make([]HistoryEntry, len(sorted))
	for i, r := range sorted {
		out[i] = r.HistoryEntry
	}
	return out
}
