// Package dotdensity turns per-region category counts and region polygons
// into dot-density points for map rendering.
package dotdensity

import (
	"math"
	"math/rand"
)

// Round rounds x to an integer such that the expected value of the result
// equals x exactly. Plain rounding loses population systematically for
// categories whose per-region values sit just under the threshold, and
// applied across hundreds of regions that erases small groups from the
// map; drawing the rounding direction at random removes the bias.
//
// Negative, NaN and infinite inputs are coerced to 0.
func Round(x float64, rng *rand.Rand) int {
	if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return 0
	}
	v := math.Floor(x)
	if x-v > rng.Float64() {
		v++
	}
	return int(v)
}
