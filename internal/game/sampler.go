package game

import (
	"fmt"
	"math"
)

// Rand is the random source consumed by Sample. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Weights maps each strategy to a non-negative relative weight.
// Strategies missing from the map have weight zero.
type Weights map[Strategy]float64

// Validate rejects empty tables, unknown strategies, negative or non-finite
// weights, and tables whose weights are all zero or overflow when summed.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: weight table is empty", ErrInvalidConfiguration)
	}
	var total float64
	for s, weight := range w {
		if !s.Valid() {
			return fmt.Errorf("%w: weight for unknown strategy %s", ErrInvalidConfiguration, s)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return fmt.Errorf("%w: weight for %s is not finite", ErrInvalidConfiguration, s)
		}
		if weight < 0 {
			return fmt.Errorf("%w: weight for %s is negative (%g)", ErrInvalidConfiguration, s, weight)
		}
		total += weight
	}
	if total == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidConfiguration)
	}
	if math.IsInf(total, 0) {
		return fmt.Errorf("%w: weights overflow when summed", ErrInvalidConfiguration)
	}
	return nil
}

// Clone returns an independent copy of the table.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Probability returns the normalized probability of s, or 0 for an invalid table.
func (w Weights) Probability(s Strategy) float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return 0
	}
	return w[s] / total
}

// Sample selects one strategy with probability proportional to its weight.
// It consumes exactly one value from rng: a uniform point in [0, total) is
// located among the cumulative weights taken in canonical strategy order.
func Sample(weights Weights, rng Rand) (Strategy, error) {
	if err := weights.Validate(); err != nil {
		return 0, err
	}

	var cumulative [NumStrategies]float64
	var total float64
	for i, s := range Strategies {
		total += weights[s]
		cumulative[i] = total
	}

	r := rng.Float64() * total
	for i, s := range Strategies {
		if r < cumulative[i] {
			return s, nil
		}
	}

	// r can only reach total through rounding; fall back to the last
	// strategy that carries weight.
	for i := NumStrategies - 1; i >= 0; i-- {
		if weights[Strategies[i]] > 0 {
			return Strategies[i], nil
		}
	}
	return 0, fmt.Errorf("%w: all weights are zero", ErrInvalidConfiguration)
}
