package game

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// fixedRand returns a scripted sequence of Float64 values.
type fixedRand struct {
	values []float64
	calls  int
}

func (f *fixedRand) Float64() float64 {
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"Early", Early, false},
		{"wait", Wait, false},
		{"  EARLY ", Early, false},
		{"late", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPairs_CanonicalOrder(t *testing.T) {
	want := []Pair{{Early, Early}, {Early, Wait}, {Wait, Early}, {Wait, Wait}}
	got := Pairs()
	if len(got) != len(want) {
		t.Fatalf("len(Pairs()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pairs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResolve_VerdictFollowsScores(t *testing.T) {
	matrix := DefaultPayoffs()
	tests := []struct {
		alpha, beta Strategy
		want        Verdict
	}{
		{Early, Early, Draw},
		{Early, Wait, AlphaWins},
		{Wait, Early, BetaWins},
		{Wait, Wait, Draw},
	}

	for _, tt := range tests {
		t.Run(Pair{tt.alpha, tt.beta}.String(), func(t *testing.T) {
			out, err := Resolve(tt.alpha, tt.beta, matrix)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if out.Verdict != tt.want {
				t.Errorf("verdict = %v, want %v", out.Verdict, tt.want)
			}
			switch {
			case out.Payoff.Alpha > out.Payoff.Beta && out.Verdict != AlphaWins,
				out.Payoff.Beta > out.Payoff.Alpha && out.Verdict != BetaWins,
				out.Payoff.Alpha == out.Payoff.Beta && out.Verdict != Draw:
				t.Errorf("verdict %v inconsistent with payoff %+v", out.Verdict, out.Payoff)
			}
		})
	}
}

func TestResolve_MissingEntry(t *testing.T) {
	matrix := DefaultPayoffs()
	delete(matrix, Pair{Wait, Early})

	_, err := Resolve(Wait, Early, matrix)
	if !errors.Is(err, ErrMissingPayoffEntry) {
		t.Fatalf("expected ErrMissingPayoffEntry, got %v", err)
	}
}

func TestJudge(t *testing.T) {
	tests := []struct {
		name string
		p    Payoff
		want Verdict
	}{
		{"alpha higher", Payoff{2, 1}, AlphaWins},
		{"beta higher", Payoff{-1, 0}, BetaWins},
		{"tie", Payoff{0.5, 0.5}, Draw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Judge(tt.p); got != tt.want {
				t.Errorf("Judge(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPayoffMatrix_Validate(t *testing.T) {
	if err := DefaultPayoffs().Validate(); err != nil {
		t.Fatalf("default payoffs invalid: %v", err)
	}

	partial := DefaultPayoffs()
	delete(partial, Pair{Wait, Wait})
	if err := partial.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for partial matrix, got %v", err)
	}

	extra := DefaultPayoffs()
	extra[Pair{Strategy(7), Early}] = Payoff{}
	if err := extra.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for unknown pair, got %v", err)
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"valid", Weights{Early: 0.7, Wait: 0.3}, false},
		{"single strategy", Weights{Wait: 2}, false},
		{"one zero", Weights{Early: 0, Wait: 1}, false},
		{"empty", Weights{}, true},
		{"nil", nil, true},
		{"all zero", Weights{Early: 0, Wait: 0}, true},
		{"negative", Weights{Early: -0.1, Wait: 1}, true},
		{"nan", Weights{Early: math.NaN(), Wait: 1}, true},
		{"inf", Weights{Early: math.Inf(1)}, true},
		{"sum overflows", Weights{Early: math.MaxFloat64, Wait: math.MaxFloat64}, true},
		{"large but summable", Weights{Early: math.MaxFloat64 / 4, Wait: math.MaxFloat64 / 4}, false},
		{"unknown strategy", Weights{Strategy(9): 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestSample_HugeWeights(t *testing.T) {
	_, err := Sample(Weights{Early: math.MaxFloat64, Wait: math.MaxFloat64}, &fixedRand{values: []float64{0.25}})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for overflowing weights, got %v", err)
	}

	equal := Weights{Early: math.MaxFloat64 / 4, Wait: math.MaxFloat64 / 4}
	rng := rand.New(rand.NewSource(5))
	var early int
	for i := 0; i < 2000; i++ {
		s, err := Sample(equal, rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if s == Early {
			early++
		}
	}
	if early < 850 || early > 1150 {
		t.Errorf("Early drawn %d/2000 with equal weights, want about half", early)
	}
}

func TestSample_CumulativeBoundaries(t *testing.T) {
	weights := Weights{Early: 0.7, Wait: 0.3}
	tests := []struct {
		r    float64
		want Strategy
	}{
		{0.0, Early},
		{0.69, Early},
		{0.7, Wait},
		{0.99, Wait},
	}

	for _, tt := range tests {
		rng := &fixedRand{values: []float64{tt.r}}
		got, err := Sample(weights, rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if got != tt.want {
			t.Errorf("Sample with r=%v = %v, want %v", tt.r, got, tt.want)
		}
		if rng.calls != 1 {
			t.Errorf("Sample consumed %d values, want 1", rng.calls)
		}
	}
}

func TestSample_RelativeWeights(t *testing.T) {
	// Weights need not sum to 1.
	got, err := Sample(Weights{Early: 7, Wait: 3}, &fixedRand{values: []float64{0.75}})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got != Wait {
		t.Errorf("Sample = %v, want Wait", got)
	}
}

func TestSample_ZeroWeightNeverDrawn(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	weights := Weights{Early: 0, Wait: 1}
	for i := 0; i < 500; i++ {
		got, err := Sample(weights, rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if got != Wait {
			t.Fatalf("draw %d returned zero-weight strategy %v", i, got)
		}
	}
}

func TestSample_AllZeroFails(t *testing.T) {
	_, err := Sample(Weights{Early: 0, Wait: 0}, &fixedRand{values: []float64{0.5}})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestSample_Frequencies(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	weights := Weights{Early: 0.4, Wait: 0.6}
	const n = 20000
	early := 0
	for i := 0; i < n; i++ {
		s, err := Sample(weights, rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if s == Early {
			early++
		}
	}
	frac := float64(early) / n
	if math.Abs(frac-0.4) > 0.03 {
		t.Errorf("Early frequency = %.3f, want ~0.4", frac)
	}
}

func TestVerdict_Short(t *testing.T) {
	if AlphaWins.Short() != "A" || BetaWins.Short() != "B" || Draw.Short() != "Draw" {
		t.Errorf("unexpected short labels: %q %q %q", AlphaWins.Short(), BetaWins.Short(), Draw.Short())
	}
}
