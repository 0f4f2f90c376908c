package rating

import "math"

// expArgLimit bounds the logistic argument; beyond it E saturates to 0 or 1.
const expArgLimit = 100.0

// G discounts an opponent's influence by their uncertainty phi.
func G(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

// E returns the probability that a player at mu beats an opponent at
// (muOpp, phiOpp). Large rating gaps saturate instead of overflowing exp.
func E(mu, muOpp, phiOpp float64) float64 {
	x := G(phiOpp) * (mu - muOpp)
	switch {
	case x >= expArgLimit:
		return 1.0
	case x <= -expArgLimit:
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-x))
}
