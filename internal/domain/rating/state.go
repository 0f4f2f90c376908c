package rating

import (
	"fmt"
	"math"
)

// Defaults for players seen for the first time.
const (
	DefaultRating     = 1500.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06
)

// State is a player's rating triple on the public scale.
type State struct {
	Rating     float64
	Deviation  float64
	Volatility float64
}

// DefaultState returns the state assigned to unseen players.
func DefaultState() State {
	return State{Rating: DefaultRating, Deviation: DefaultDeviation, Volatility: DefaultVolatility}
}

// Validate reports ErrNonFinite unless rating is finite and deviation and
// volatility are finite and strictly positive.
func (s State) Validate() error {
	switch {
	case !finite(s.Rating):
		return fmt.Errorf("rating %v: %w", s.Rating, ErrNonFinite)
	case !finite(s.Deviation) || s.Deviation <= 0:
		return fmt.Errorf("deviation %v: %w", s.Deviation, ErrNonFinite)
	case !finite(s.Volatility) || s.Volatility <= 0:
		return fmt.Errorf("volatility %v: %w", s.Volatility, ErrNonFinite)
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
