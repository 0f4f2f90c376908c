package rating

import "errors"

// Sentinel error kinds for the rating engine.
var (
	// ErrTie is returned when both sides won the same number of sets.
	ErrTie = errors.New("tied match carries no rating information")
	// ErrNonFinite marks a result that escaped every numeric guard.
	ErrNonFinite = errors.New("non-finite rating state")
)
