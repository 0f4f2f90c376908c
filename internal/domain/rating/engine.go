package rating

import (
	"fmt"
	"math"
)

// Expectation clamp keeping the variance denominator E(1-E) away from zero.
const (
	minExpectation = 0.0001
	maxExpectation = 0.9999
)

// Option configures an Engine.
type Option func(*Engine)

// WithSolver replaces the volatility solver.
func WithSolver(s *Solver) Option {
	return func(e *Engine) {
		if s != nil {
			e.solver = s
		}
	}
}

// WithDampening replaces the short-format dampening rule.
func WithDampening(d Dampening) Option {
	return func(e *Engine) {
		e.dampening = d
	}
}

// Engine applies single-match Glicko-2 updates.
type Engine struct {
	solver    *Solver
	dampening Dampening
}

// NewEngine creates an Engine with the default solver and dampening rule.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		solver:    NewSolver(),
		dampening: NewDampening(DefaultDampeningFactor, DefaultDampenedFormats()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome holds both post-match states plus diagnostics for one update.
type Outcome struct {
	Winner State
	Loser  State

	// Dampening is the factor applied to both rating-mean updates.
	Dampening float64
	// WinnerSolve and LoserSolve describe the two volatility solves.
	WinnerSolve SolveResult
	LoserSolve  SolveResult
}

// Update computes the new states after winner beat loser winnerSets to
// loserSets. Each side is computed against the opponent's pre-match state.
// Equal set counts return ErrTie; a non-finite result returns ErrNonFinite
// and must not be stored.
func (e *Engine) Update(winner, loser State, winnerSets, loserSets int) (Outcome, error) {
	if winnerSets == loserSets {
		return Outcome{}, fmt.Errorf("%d-%d: %w", winnerSets, loserSets, ErrTie)
	}
	damp := e.dampening.Factor(winnerSets, loserSets)

	w, ws := e.side(winner, loser, 1, damp)
	l, ls := e.side(loser, winner, 0, damp)

	if err := w.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("winner: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("loser: %w", err)
	}
	return Outcome{Winner: w, Loser: l, Dampening: damp, WinnerSolve: ws, LoserSolve: ls}, nil
}

// side runs the update for self, treating score (1 win, 0 loss) as the
// realised result against opp.
func (e *Engine) side(self, opp State, score, damp float64) (State, SolveResult) {
	mu, phi := ToInternal(self.Rating, self.Deviation)
	muOpp, phiOpp := ToInternal(opp.Rating, opp.Deviation)

	g := G(phiOpp)
	exp := math.Max(minExpectation, math.Min(maxExpectation, E(mu, muOpp, phiOpp)))

	v := 1.0 / (g * g * exp * (1 - exp))
	delta := v * g * (score - exp)

	solve := e.solver.Solve(self.Volatility, delta, phi, v)

	phiStar := math.Sqrt(phi*phi + solve.Sigma*solve.Sigma)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muNew := mu + phiNew*phiNew*g*(score-exp)*damp

	r, rd := ToPublic(muNew, phiNew)
	return State{Rating: r, Deviation: rd, Volatility: solve.Sigma}, solve
}
