package replay

import (
	"time"

	"github.com/okian/thunder/internal/domain/model"
)

// Rejection is a match or seed the cycle refused to apply.
type Rejection struct {
	Player string
	Event  *model.MatchEvent // nil for seed rejections
	Reason string
}

// Report summarizes one replay.
type Report struct {
	CycleID        string
	Collected      int
	Replayed       int
	CutoffExcluded int
	Ties           int
	SolverCapHits  int
	Seeded         int
	Rejected       []Rejection
	SeedRejections []Rejection
	Duration       time.Duration
}
