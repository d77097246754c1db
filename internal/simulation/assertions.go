package simulation

import (
	"math"
	"testing"
)

// rateTolerance bounds the floating error allowed when win-rate entries are
// checked to sum to 100.
const rateTolerance = 1e-6

// AssertTallyMatchesRounds asserts that the verdict counts and the pair
// matrix both sum to the number of rounds played.
func AssertTallyMatchesRounds(t testing.TB, snap Snapshot) {
	t.Helper()
	if got := snap.Tally.Total(); got != snap.Rounds {
		t.Errorf("AssertTallyMatchesRounds: tally sums to %d, rounds = %d", got, snap.Rounds)
	}
	if got := snap.Matrix.Total(); got != snap.Rounds {
		t.Errorf("AssertTallyMatchesRounds: matrix sums to %d, rounds = %d", got, snap.Rounds)
	}
}

// AssertHistoryConsistent asserts one history entry per round, numbered
// 1..n, each summing to 100 percent.
func AssertHistoryConsistent(t testing.TB, snap Snapshot) {
	t.Helper()
	if len(snap.History) != snap.Rounds {
		t.Errorf("AssertHistoryConsistent: history length %d, rounds = %d", len(snap.History), snap.Rounds)
	}
	for i, w := range snap.History {
		if w.Round != i+1 {
			t.Errorf("AssertHistoryConsistent: entry %d has round %d", i, w.Round)
		}
		if sum := w.AlphaWins + w.BetaWins + w.Draw; math.Abs(sum-100) > rateTolerance {
			t.Errorf("AssertHistoryConsistent: entry %d sums to %.9f", i, sum)
		}
	}
}

// AssertEmpty asserts the zero state produced by a reset.
func AssertEmpty(t testing.TB, snap Snapshot) {
	t.Helper()
	if snap.Rounds != 0 {
		t.Errorf("AssertEmpty: rounds = %d, want 0", snap.Rounds)
	}
	if snap.Tally != (Tally{}) {
		t.Errorf("AssertEmpty: tally = %+v, want zero", snap.Tally)
	}
	if snap.Matrix != (OutcomeMatrix{}) {
		t.Errorf("AssertEmpty: matrix = %v, want zero", snap.Matrix)
	}
	if len(snap.History) != 0 {
		t.Errorf("AssertEmpty: history length = %d, want 0", len(snap.History))
	}
	if snap.Running {
		t.Error("AssertEmpty: engine should be paused")
	}
}

// AssertMonotone asserts that no matrix cell or tally counter decreased
// between two snapshots of the same run.
func AssertMonotone(t testing.TB, before, after Snapshot) {
	t.Helper()
	for a := range before.Matrix {
		for b := range before.Matrix[a] {
			if after.Matrix[a][b] < before.Matrix[a][b] {
				t.Errorf("AssertMonotone: cell [%d][%d] went from %d to %d", a, b, before.Matrix[a][b], after.Matrix[a][b])
			}
		}
	}
	if after.Tally.AlphaWins < before.Tally.AlphaWins ||
		after.Tally.BetaWins < before.Tally.BetaWins ||
		after.Tally.Draws < before.Tally.Draws {
		t.Errorf("AssertMonotone: tally went from %+v to %+v", before.Tally, after.Tally)
	}
}

// AssertInvariants runs every per-snapshot invariant check.
func AssertInvariants(t testing.TB, snap Snapshot) {
	t.Helper()
	AssertTallyMatchesRounds(t, snap)
	AssertHistoryConsistent(t, snap)
	if snap.Rounds > snap.Cap {
		t.Errorf("AssertInvariants: rounds %d exceed cap %d", snap.Rounds, snap.Cap)
	}
}
