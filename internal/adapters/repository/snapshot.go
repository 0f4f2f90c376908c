package repository

import (
	"math"
	"sort"
	"time"

	"github.com/okian/thunder/internal/domain/rating"
)

// Entry is one leaderboard row at full precision.
type Entry struct {
	Rank       int
	Player     string
	Rating     float64
	Deviation  float64
	Volatility float64
}

// DisplayRating is the rating rounded for display.
func (e Entry) DisplayRating() int { return int(math.Round(e.Rating)) }

// DisplayDeviation is the deviation rounded for display.
func (e Entry) DisplayDeviation() int { return int(math.Round(e.Deviation)) }

// DisplayVolatility is the volatility rounded to six decimal places.
func (e Entry) DisplayVolatility() float64 { return math.Round(e.Volatility*1e6) / 1e6 }

// Snapshot is an immutable view of a store at the end of a replay.
//
// Ordering: rating DESC, then player ASC.
type Snapshot struct {
	CycleID string
	BuiltAt time.Time

	entries []Entry
	rank    map[string]int // player -> index into entries
}

func newSnapshot(cycleID string, states map[string]rating.State) *Snapshot {
	entries := make([]Entry, 0, len(states))
	for p, st := range states {
		entries = append(entries, Entry{Player: p, Rating: st.Rating, Deviation: st.Deviation, Volatility: st.Volatility})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Player < entries[j].Player
	})

	idx := make(map[string]int, len(entries))
	for i := range entries {
		entries[i].Rank = i + 1
		idx[entries[i].Player] = i
	}
	return &Snapshot{CycleID: cycleID, BuiltAt: time.Now(), entries: entries, rank: idx}
}

// EmptySnapshot is served before the first refresh completes.
func EmptySnapshot() *Snapshot {
	return newSnapshot("", nil)
}

// Len returns the number of players in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

// Entries returns a copy of every row in rank order.
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// TopN returns the first n rows.
func (s *Snapshot) TopN(n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	copy(out, s.entries[:n])
	return out, nil
}

// Rank returns the row for player.
func (s *Snapshot) Rank(player string) (Entry, error) {
	i, ok := s.rank[player]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return s.entries[i], nil
}

// States returns the player -> state mapping held by the snapshot.
func (s *Snapshot) States() map[string]rating.State {
	out := make(map[string]rating.State, len(s.entries))
	for _, e := range s.entries {
		out[e.Player] = rating.State{Rating: e.Rating, Deviation: e.Deviation, Volatility: e.Volatility}
	}
	return out
}
