package dotdensity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound_ZeroAlwaysZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 0, Round(0, rng))
	}
}

func TestRound_NegativeAndInvalidCoercedToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, 0, Round(-1.5, rng))
	assert.Equal(t, 0, Round(-0.0001, rng))
	assert.Equal(t, 0, Round(math.NaN(), rng))
	assert.Equal(t, 0, Round(math.Inf(1), rng))
	assert.Equal(t, 0, Round(math.Inf(-1), rng))
}

func TestRound_IntegralInputIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 5, Round(5.0, rng))
		assert.Equal(t, 1, Round(1.0, rng))
	}
}

func TestRound_ResultIsFloorOrCeil(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		n := Round(2.3, rng)
		assert.Contains(t, []int{2, 3}, n)
	}
}

func TestRound_Unbiased(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	const trials = 10000
	var ones int
	for i := 0; i < trials; i++ {
		if Round(0.5, rng) == 1 {
			ones++
		}
	}
	frac := float64(ones) / trials
	assert.InDelta(t, 0.5, frac, 0.02)
}

func TestRound_UnbiasedSmallFraction(t *testing.T) {
	rng := rand.New(rand.NewSource(123))

	// x = 0.05 simulates a minority category of 5 people at ratio 100.
	// Naive rounding would always return 0; the expectation must survive.
	const trials = 20000
	var sum int
	for i := 0; i < trials; i++ {
		sum += Round(0.05, rng)
	}
	mean := float64(sum) / trials
	assert.InDelta(t, 0.05, mean, 0.005)
}
