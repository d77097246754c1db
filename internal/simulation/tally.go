package simulation

import (
	"github.com/nvandessel/firstmover/internal/game"
)

// Tally counts rounds per verdict.
type Tally struct {
	AlphaWins int `json:"alpha_wins"`
	BetaWins  int `json:"beta_wins"`
	Draws     int `json:"draws"`
}

// Count returns the counter for v.
func (t Tally) Count(v game.Verdict) int {
	switch v {
	case game.AlphaWins:
		return t.AlphaWins
	case game.BetaWins:
		return t.BetaWins
	case game.Draw:
		return t.Draws
	default:
		return 0
	}
}

// Total returns the number of rounds counted.
func (t Tally) Total() int {
	return t.AlphaWins + t.BetaWins + t.Draws
}

func (t *Tally) add(v game.Verdict) {
	switch v {
	case game.AlphaWins:
		t.AlphaWins++
	case game.BetaWins:
		t.BetaWins++
	default:
		t.Draws++
	}
}

// OutcomeMatrix counts how often each (alpha, beta) strategy pair occurred,
// indexed [alpha][beta]. It is a value type; copies are independent.
type OutcomeMatrix [game.NumStrategies][game.NumStrategies]int

// Count returns the occurrences of p.
func (m OutcomeMatrix) Count(p game.Pair) int {
	return m[p.Alpha][p.Beta]
}

// Total returns the sum over all cells.
func (m OutcomeMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// MostFrequent returns the pair with the strictly highest count. Ties go to
// the pair that comes first in game.Pairs order, so an empty matrix yields
// (Early, Early).
func (m OutcomeMatrix) MostFrequent() (game.Pair, int) {
	pairs := game.Pairs()
	best, bestCount := pairs[0], m.Count(pairs[0])
	for _, p := range pairs[1:] {
		if c := m.Count(p); c > bestCount {
			best, bestCount = p, c
		}
	}
	return best, bestCount
}

// WinRate is one point of the rolling win-rate history: the cumulative share
// of rounds in each verdict category after Round rounds, in percent.
type WinRate struct {
	Round     int     `json:"round"`
	AlphaWins float64 `json:"alpha_wins"`
	BetaWins  float64 `json:"beta_wins"`
	Draw      float64 `json:"draw"`
}

// Percent returns the rate for v.
func (w WinRate) Percent(v game.Verdict) float64 {
	switch v {
	case game.AlphaWins:
		return w.AlphaWins
	case game.BetaWins:
		return w.BetaWins
	case game.Draw:
		return w.Draw
	default:
		return 0
	}
}

// percent returns count as a share of total, or 0 when total is 0.
func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func winRateOf(t Tally) WinRate {
	total := t.Total()
	return WinRate{
		Round:     total,
		AlphaWins: percent(t.AlphaWins, total),
		BetaWins:  percent(t.BetaWins, total),
		Draw:      percent(t.Draws, total),
	}
}
