// Package game defines the two-player Early vs. Wait game: strategies,
// payoffs, verdicts, and the weighted strategy sampler.
package game

import (
	"fmt"
	"strings"
)

// Strategy is one of the two choices available to a player each round.
type Strategy uint8

const (
	Early Strategy = iota
	Wait
)

// NumStrategies is the size of the strategy domain.
const NumStrategies = 2

// Strategies lists every strategy in canonical order.
var Strategies = [NumStrategies]Strategy{Early, Wait}

var strategyNames = [NumStrategies]string{"Early", "Wait"}

// String returns the display name of the strategy.
func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
	return strategyNames[s]
}

// Valid reports whether s is a member of the strategy domain.
func (s Strategy) Valid() bool {
	return s < NumStrategies
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy maps a name ("early", "Wait", ...) to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(strings.TrimSpace(name), strategyNames[s]) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (valid: Early, Wait)", name)
}

// Pair is an ordered (Alpha, Beta) strategy combination.
type Pair struct {
	Alpha Strategy `json:"alpha"`
	Beta  Strategy `json:"beta"`
}

// String formats the pair as "(Early, Wait)".
func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", p.Alpha, p.Beta)
}

// Pairs returns all strategy pairs in canonical order: the Alpha axis varies
// slowest, Early before Wait on both axes.
func Pairs() []Pair {
	pairs := make([]Pair, 0, NumStrategies*NumStrategies)
	for _, a := range Strategies {
		for _, b := range Strategies {
			pairs = append(pairs, Pair{Alpha: a, Beta: b})
		}
	}
	return pairs
}

// Verdict classifies the outcome of a round.
type Verdict uint8

const (
	AlphaWins Verdict = iota
	BetaWins
	Draw
)

// NumVerdicts is the number of verdict categories.
const NumVerdicts = 3

// Verdicts lists every verdict in display order.
var Verdicts = [NumVerdicts]Verdict{AlphaWins, BetaWins, Draw}

var verdictNames = [NumVerdicts]string{"Alpha wins", "Beta wins", "Draw"}

// String returns the display label used in summaries and charts.
func (v Verdict) String() string {
	if v >= NumVerdicts {
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
	return verdictNames[v]
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	if v >= NumVerdicts {
		return nil, fmt.Errorf("invalid verdict %d", uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	for i, name := range verdictNames {
		if string(text) == name {
			*v = Verdict(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", text)
}

// Short returns the compact winner tag used in heatmap labels: "A", "B" or "Draw".
func (v Verdict) Short() string {
	switch v {
	case AlphaWins:
		return "A"
	case BetaWins:
		return "B"
	default:
		return "Draw"
	}
}
