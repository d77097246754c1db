package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports a malformed payoff matrix or weight table.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingPayoffEntry reports a strategy pair absent from the payoff matrix.
	ErrMissingPayoffEntry = errors.New("missing payoff entry")
)

// Payoff is the score pair awarded to (Alpha, Beta) for one strategy pair.
type Payoff struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// PayoffMatrix maps every strategy pair to its payoff.
type PayoffMatrix map[Pair]Payoff

// DefaultPayoffs returns the reference Early vs. Wait matrix.
func DefaultPayoffs() PayoffMatrix {
	return PayoffMatrix{
		{Early, Early}: {Alpha: 3, Beta: 3},
		{Early, Wait}:  {Alpha: 5, Beta: 1},
		{Wait, Early}:  {Alpha: 1, Beta: 5},
		{Wait, Wait}:   {Alpha: 4, Beta: 4},
	}
}

// Validate checks that the matrix defines all four strategy pairs and nothing else.
func (m PayoffMatrix) Validate() error {
	for _, p := range Pairs() {
		if _, ok := m[p]; !ok {
			return fmt.Errorf("%w: payoff matrix has no entry for %s", ErrInvalidConfiguration, p)
		}
	}
	for p := range m {
		if !p.Alpha.Valid() || !p.Beta.Valid() {
			return fmt.Errorf("%w: payoff matrix has entry for unknown pair %s", ErrInvalidConfiguration, p)
		}
	}
	return nil
}

// Clone returns an independent copy of the matrix.
func (m PayoffMatrix) Clone() PayoffMatrix {
	out := make(PayoffMatrix, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RoundOutcome is the result of a single simulated round.
type RoundOutcome struct {
	Round   int     `json:"round"`
	Pair    Pair    `json:"pair"`
	Payoff  Payoff  `json:"payoff"`
	Verdict Verdict `json:"verdict"`
}

// Judge applies the verdict rule: the strictly higher score wins, equal scores draw.
func Judge(p Payoff) Verdict {
	switch {
	case p.Alpha > p.Beta:
		return AlphaWins
	case p.Beta > p.Alpha:
		return BetaWins
	default:
		return Draw
	}
}

// Resolve looks up the payoff for (alpha, beta) and derives the verdict.
// The Round field of the returned outcome is left zero for the caller to set.
func Resolve(alpha, beta Strategy, matrix PayoffMatrix) (RoundOutcome, error) {
	pair := Pair{Alpha: alpha, Beta: beta}
	payoff, ok := matrix[pair]
	if !ok {
		return RoundOutcome{}, fmt.Errorf("%w: %s", ErrMissingPayoffEntry, pair)
	}
	return RoundOutcome{
		Pair:    pair,
		Payoff:  payoff,
		Verdict: Judge(payoff),
	}, nil
}
