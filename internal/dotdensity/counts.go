package dotdensity

import (
	"math/rand"

	"github.com/rotisserie/eris"
)

// DeriveCounts converts raw category counts into dot counts at the given
// density ratio (people per dot) using stochastic rounding. Every label in
// the enumeration appears in the result, zero-count categories included,
// so every region yields the same column set downstream. A count keyed by
// a label outside the enumeration is a configuration mismatch.
func DeriveCounts(counts map[string]int, categories []string, ratio float64, rng *rand.Rand) (map[string]int, error) {
	if ratio <= 0 {
		return nil, eris.Errorf("dotdensity: density ratio must be positive, got %v", ratio)
	}
	if len(categories) == 0 {
		return nil, eris.New("dotdensity: empty category enumeration")
	}

	allowed := make(map[string]bool, len(categories))
	for _, label := range categories {
		allowed[label] = true
	}
	for label := range counts {
		if !allowed[label] {
			return nil, eris.Errorf("dotdensity: count category %q not in the configured enumeration", label)
		}
	}

	dots := make(map[string]int, len(categories))
	for _, label := range categories {
		dots[label] = Round(float64(counts[label])/ratio, rng)
	}
	return dots, nil
}
