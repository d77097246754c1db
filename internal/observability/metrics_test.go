package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/simulation"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestDriver(t *testing.T, roundCap int) *driver.Driver {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.RoundCap = roundCap
	e, err := simulation.New(cfg)
	if err != nil {
		t.Fatalf("simulation.New: %v", err)
	}
	return driver.New(e)
}

func TestObserve_CountsRoundsAndRuns(t *testing.T) {
	m := NewMetrics("")
	d := newTestDriver(t, 20)
	d.Subscribe(m.Observe)

	if _, err := d.Advance(20); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	snap := d.Engine().Snapshot()
	for _, v := range game.Verdicts {
		want := float64(snap.Tally.Count(v))
		if got := testutil.ToFloat64(m.RoundsPlayed.WithLabelValues(VerdictLabel(v))); got != want {
			t.Errorf("rounds_played_total{verdict=%q} = %v, want %v", VerdictLabel(v), got, want)
		}
	}
	for _, p := range game.Pairs() {
		want := float64(snap.Matrix.Count(p))
		if got := testutil.ToFloat64(m.PairsPlayed.WithLabelValues(p.Alpha.String(), p.Beta.String())); got != want {
			t.Errorf("pairs_played_total%s = %v, want %v", p, got, want)
		}
	}
	if got := testutil.ToFloat64(m.RunsCompleted); got != 1 {
		t.Errorf("runs_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Round); got != 20 {
		t.Errorf("round = %v, want 20", got)
	}
	if got := testutil.ToFloat64(m.Running); got != 0 {
		t.Errorf("running = %v, want 0 after cap", got)
	}

	latest := snap.History[len(snap.History)-1]
	if got := testutil.ToFloat64(m.WinRate.WithLabelValues("alpha")); got != latest.AlphaWins {
		t.Errorf("win_rate_percent{alpha} = %v, want %v", got, latest.AlphaWins)
	}
}

func TestObserve_ResetClearsGauges(t *testing.T) {
	m := NewMetrics("")
	d := newTestDriver(t, 10)
	d.Subscribe(m.Observe)

	if _, err := d.Advance(3); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	d.Toggle()
	d.Reset()

	if got := testutil.ToFloat64(m.Resets); got != 1 {
		t.Errorf("resets_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Round); got != 0 {
		t.Errorf("round = %v, want 0 after reset", got)
	}
	if got := testutil.ToFloat64(m.WinRate.WithLabelValues("draw")); got != 0 {
		t.Errorf("win_rate_percent{draw} = %v, want 0 after reset", got)
	}
	// Counters are cumulative across runs.
	if got := testutil.ToFloat64(m.RoundsPlayed.WithLabelValues("alpha")) +
		testutil.ToFloat64(m.RoundsPlayed.WithLabelValues("beta")) +
		testutil.ToFloat64(m.RoundsPlayed.WithLabelValues("draw")); got != 3 {
		t.Errorf("rounds_played_total sums to %v, want 3", got)
	}
}

func TestHandler_ExposesNamespace(t *testing.T) {
	m := NewMetrics("")
	d := newTestDriver(t, 5)
	d.Subscribe(m.Observe)
	if _, err := d.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rr.Body)
	for _, name := range []string{
		"firstmover_simulation_rounds_played_total",
		"firstmover_simulation_round 1",
		"firstmover_simulation_round_cap 5",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

func TestVerdictLabel(t *testing.T) {
	tests := []struct {
		v    game.Verdict
		want string
	}{
		{game.AlphaWins, "alpha"},
		{game.BetaWins, "beta"},
		{game.Draw, "draw"},
	}
	for _, tt := range tests {
		if got := VerdictLabel(tt.v); got != tt.want {
			t.Errorf("VerdictLabel(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
