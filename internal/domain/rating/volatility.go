package rating

import "math"

// Volatility solver defaults.
const (
	DefaultTau            = 0.5
	defaultEpsilon        = 1e-6
	defaultMaxIterations  = 50
	minVolatility         = 0.0001
	fExpCap               = 50.0
	flatDenominatorCutoff = 1e-9
)

// Solver finds the new volatility sigma' with the Illinois variant of
// regula falsi (Glickman, step 5).
type Solver struct {
	tau           float64
	epsilon       float64
	maxIterations int
	// fallback replaces non-positive input volatilities before ln(sigma^2).
	fallback float64
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithTau sets the system constant constraining volatility change.
func WithTau(tau float64) SolverOption {
	return func(s *Solver) {
		if tau > 0 && !math.IsInf(tau, 0) {
			s.tau = tau
		}
	}
}

// WithMaxIterations caps bracket-search steps and regula falsi steps combined.
func WithMaxIterations(n int) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithFallbackVolatility sets the volatility used when the input is degenerate.
func WithFallbackVolatility(sigma float64) SolverOption {
	return func(s *Solver) {
		if sigma > minVolatility && !math.IsInf(sigma, 0) {
			s.fallback = sigma
		}
	}
}

// NewSolver creates a Solver with tau 0.5, a 50 iteration cap and 0.06 as the
// fallback volatility.
func NewSolver(opts ...SolverOption) *Solver {
	s := &Solver{
		tau:           DefaultTau,
		epsilon:       defaultEpsilon,
		maxIterations: defaultMaxIterations,
		fallback:      DefaultVolatility,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tau returns the configured system constant.
func (s *Solver) Tau() float64 { return s.tau }

// SolveResult carries sigma' and how the iteration ended.
type SolveResult struct {
	Sigma      float64
	Iterations int
	// Converged is false when the iteration cap was reached first.
	Converged bool
}

// Solve returns the new volatility for a player with prior volatility sigma,
// deviation phi (internal scale), performance delta and variance v.
// It never fails: degenerate input still terminates within the cap.
func (s *Solver) Solve(sigma, delta, phi, v float64) SolveResult {
	if !(sigma > minVolatility) || math.IsInf(sigma, 0) {
		sigma = s.fallback
	}
	a := math.Log(sigma * sigma)
	phi2 := phi * phi
	delta2 := delta * delta
	tau2 := s.tau * s.tau

	f := func(x float64) float64 {
		ex := math.Exp(math.Min(x, fExpCap))
		d := phi2 + v + ex
		return ex*(delta2-phi2-v-ex)/(2*d*d) - (x-a)/tau2
	}

	budget := s.maxIterations
	A := a
	var B float64
	if delta2 > phi2+v {
		B = math.Log(delta2 - phi2 - v)
	} else {
		k := 1.0
		for budget > 0 && f(a-k*s.tau) < 0 {
			k++
			budget--
		}
		B = a - k*s.tau
	}

	fA, fB := f(A), f(B)
	res := SolveResult{}
	for budget > 0 {
		if math.Abs(B-A) <= s.epsilon {
			res.Converged = true
			break
		}
		budget--

		C := A
		if den := fB - fA; math.Abs(den) >= flatDenominatorCutoff {
			C = A + (A-B)*fA/den
		}
		fC := f(C)
		if fC*fB < 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	if !res.Converged && math.Abs(B-A) <= s.epsilon {
		res.Converged = true
	}
	res.Iterations = s.maxIterations - budget
	res.Sigma = math.Exp(A / 2)
	return res
}
