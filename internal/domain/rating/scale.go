// Package rating implements the Glicko-2 skill-rating engine used to rank
// league players from their single-match results.
//
// Public values (rating, deviation) live on the familiar 1500-centred scale;
// the arithmetic runs on the internal Glicko-2 scale (mu, phi).
package rating

// Glicko-2 scale constants.
const (
	// Scale converts between the public and the internal scale.
	Scale = 173.7178
	// Center is the public rating that maps to mu = 0.
	Center = 1500.0
)

// ToInternal maps a public (rating, deviation) pair onto the Glicko-2 scale.
func ToInternal(rating, deviation float64) (mu, phi float64) {
	return (rating - Center) / Scale, deviation / Scale
}

// ToPublic is the exact inverse of ToInternal.
func ToPublic(mu, phi float64) (rating, deviation float64) {
	return mu*Scale + Center, phi * Scale
}
