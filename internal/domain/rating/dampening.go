package rating

// DefaultDampeningFactor scales the rating-mean update of short formats.
const DefaultDampeningFactor = 0.6

// DefaultDampenedFormats maps total sets played to the winner's set count
// that marks a short, fill-in eligible format (3-2 and 4-3).
func DefaultDampenedFormats() map[int]int {
	return map[int]int{5: 3, 7: 4}
}

// Dampening decides how strongly a match moves the rating mean.
type Dampening struct {
	factor  float64
	formats map[int]int
}

// NewDampening returns a Dampening applying factor to every format listed in
// formats. A nil map disables dampening.
func NewDampening(factor float64, formats map[int]int) Dampening {
	cp := make(map[int]int, len(formats))
	for total, winner := range formats {
		cp[total] = winner
	}
	return Dampening{factor: factor, formats: cp}
}

// Factor returns the multiplier for a match won winnerSets to loserSets.
func (d Dampening) Factor(winnerSets, loserSets int) float64 {
	if want, ok := d.formats[winnerSets+loserSets]; ok && want == winnerSets {
		return d.factor
	}
	return 1.0
}
