// Package dedupe detects exact duplicate match rows during ingestion.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"

	"github.com/okian/thunder/internal/domain/model"
)

// Deduper records seen match keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	Size() int64
}

// Key identifies a match row by season, round, date, both names and both
// scores. Names compare case-insensitively.
func Key(m model.MatchEvent) string {
	date := ""
	if !m.Date.IsZero() {
		date = m.Date.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s_W%d_%s_%s_vs_%s_%d-%d",
		m.Season, m.Round, date,
		fold(m.PlayerA), fold(m.PlayerB),
		m.SetsA, m.SetsB)
}

// fold builds a new Caser per call; Casers are not safe for concurrent use.
func fold(name string) string { return cases.Fold().String(name) }

type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	maxSize int // 0 = unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates an unbounded deduper unless WithMaxSize is set.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	// A full bounded deduper stops recording rather than evicting.
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		return false
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Size() int64 { return d.size.Load() }
