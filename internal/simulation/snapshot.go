package simulation

import (
	"github.com/nvandessel/firstmover/internal/game"
)

// Snapshot is a point-in-time copy of an Engine's state. It shares no memory
// with the engine and stays valid after further steps or resets.
type Snapshot struct {
	Rounds  int           `json:"rounds"`
	Cap     int           `json:"cap"`
	Seed    int64         `json:"seed"`
	Running bool          `json:"running"`
	State   State         `json:"state"`
	Tally   Tally         `json:"tally"`
	Matrix  OutcomeMatrix `json:"matrix"`
	History []WinRate     `json:"history"`

	// Payoffs mirrors the configured matrix, indexed [alpha][beta], so
	// renderers can label cells without holding the engine.
	Payoffs [game.NumStrategies][game.NumStrategies]game.Payoff `json:"payoffs"`
}

// Latest returns the most recent win-rate point, or a zero point for an
// empty history.
func (s Snapshot) Latest() WinRate {
	if len(s.History) == 0 {
		return WinRate{}
	}
	return s.History[len(s.History)-1]
}

// CellVerdict returns the verdict awarded to pair p under the snapshot's payoffs.
func (s Snapshot) CellVerdict(p game.Pair) game.Verdict {
	return game.Judge(s.Payoffs[p.Alpha][p.Beta])
}

// Snapshot returns a consistent copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]WinRate, len(e.history))
	copy(history, e.history)

	snap := Snapshot{
		Rounds:  e.rounds,
		Cap:     e.cfg.RoundCap,
		Seed:    e.seed,
		Running: e.running,
		State:   e.stateLocked(),
		Tally:   e.tally,
		Matrix:  e.matrix,
		History: history,
	}
	for p, payoff := range e.cfg.Payoffs {
		snap.Payoffs[p.Alpha][p.Beta] = payoff
	}
	return snap
}

// VerdictShare is one line of a run summary.
type VerdictShare struct {
	Verdict game.Verdict `json:"verdict"`
	Count   int          `json:"count"`
	Percent float64      `json:"percent"`
}

// Summary describes a completed run.
type Summary struct {
	Rounds            int            `json:"rounds"`
	Seed              int64          `json:"seed"`
	Shares            []VerdictShare `json:"shares"`
	MostFrequent      game.Pair      `json:"most_frequent"`
	MostFrequentCount int            `json:"most_frequent_count"`
}

// Share returns the share for v.
func (s Summary) Share(v game.Verdict) VerdictShare {
	for _, sh := range s.Shares {
		if sh.Verdict == v {
			return sh
		}
	}
	return VerdictShare{Verdict: v}
}

// Summary reports each verdict's share of all rounds and the most frequent
// strategy pair. It fails with ErrNotYetComplete until the cap is reached.
// A zero cap yields all-zero percentages.
func (e *Engine) Summary() (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rounds < e.cfg.RoundCap {
		return Summary{}, ErrNotYetComplete
	}
	return summarize(e.tally, e.matrix, e.seed), nil
}

func summarize(t Tally, m OutcomeMatrix, seed int64) Summary {
	total := t.Total()
	shares := make([]VerdictShare, 0, game.NumVerdicts)
	for _, v := range game.Verdicts {
		shares = append(shares, VerdictShare{
			Verdict: v,
			Count:   t.Count(v),
			Percent: percent(t.Count(v), total),
		})
	}
	pair, count := m.MostFrequent()
	return Summary{
		Rounds:            total,
		Seed:              seed,
		Shares:            shares,
		MostFrequent:      pair,
		MostFrequentCount: count,
	}
}
