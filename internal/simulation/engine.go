package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/nvandessel/firstmover/internal/constants"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/logging"
)

// ErrNotYetComplete is returned by Summary before the round cap is reached.
var ErrNotYetComplete = errors.New("simulation not yet complete")

// State is the lifecycle state of an Engine.
type State uint8

const (
	// StateIdle: seeded, no rounds played since the last reset.
	StateIdle State = iota
	// StateRunning: at least one round played, cap not reached.
	StateRunning
	// StateCapped: the round cap has been reached; Step is a no-op.
	StateCapped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCapped:
		return "capped"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateRunning, StateCapped} {
		if string(text) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Config is the full parameter set of a simulation run.
type Config struct {
	Payoffs      game.PayoffMatrix
	AlphaWeights game.Weights
	BetaWeights  game.Weights
	RoundCap     int
	Seed         int64
}

// DefaultConfig returns the reference scenario: Alpha favors Early (0.7/0.3),
// Beta favors Wait (0.4/0.6), 1000 rounds, seed 22.
func DefaultConfig() Config {
	return Config{
		Payoffs:      game.DefaultPayoffs(),
		AlphaWeights: game.Weights{game.Early: 0.7, game.Wait: 0.3},
		BetaWeights:  game.Weights{game.Early: 0.4, game.Wait: 0.6},
		RoundCap:     constants.DefaultRoundCap,
		Seed:         constants.DefaultSeed,
	}
}

// Validate checks the payoff matrix, both weight tables and the round cap.
// All failures wrap game.ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := c.Payoffs.Validate(); err != nil {
		return err
	}
	if err := c.AlphaWeights.Validate(); err != nil {
		return fmt.Errorf("alpha weights: %w", err)
	}
	if err := c.BetaWeights.Validate(); err != nil {
		return fmt.Errorf("beta weights: %w", err)
	}
	if c.RoundCap < 0 {
		return fmt.Errorf("%w: round cap must be non-negative, got %d", game.ErrInvalidConfiguration, c.RoundCap)
	}
	return nil
}

func (c Config) clone() Config {
	c.Payoffs = c.Payoffs.Clone()
	c.AlphaWeights = c.AlphaWeights.Clone()
	c.BetaWeights = c.BetaWeights.Clone()
	return c
}

// Engine owns the state of one simulation: the seeded random source, the
// verdict tally, the strategy-pair matrix and the rolling win-rate history.
//
// Every method takes the engine lock for its whole duration, so a Reset issued
// from another goroutine lands either before or after a Step, never inside it.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	rng     *rand.Rand
	seed    int64
	rounds  int
	running bool
	tally   Tally
	matrix  OutcomeMatrix
	history []WinRate

	logger *slog.Logger
	trace  *logging.RoundTrace
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRoundTrace sets the JSONL round trace. A nil trace disables tracing.
func WithRoundTrace(rt *logging.RoundTrace) Option {
	return func(e *Engine) {
		e.trace = rt
	}
}

// New creates a configured engine seeded with cfg.Seed.
func New(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Configure(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Configure validates cfg and, on success, replaces the configuration and
// resets the engine with cfg.Seed. On failure the engine is left untouched.
func (e *Engine) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.clone()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = cfg
	e.resetLocked(cfg.Seed)
	e.logger.Info("simulation configured", "round_cap", cfg.RoundCap, "seed", cfg.Seed)
	return nil
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.clone()
}

// Step plays one round. It returns nil without touching any state once the
// round cap has been reached. Reaching the cap pauses the engine.
func (e *Engine) Step() (*game.RoundOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rounds >= e.cfg.RoundCap {
		return nil, nil
	}

	alpha, err := game.Sample(e.cfg.AlphaWeights, e.rng)
	if err != nil {
		return nil, fmt.Errorf("drawing alpha strategy: %w", err)
	}
	beta, err := game.Sample(e.cfg.BetaWeights, e.rng)
	if err != nil {
		return nil, fmt.Errorf("drawing beta strategy: %w", err)
	}
	outcome, err := game.Resolve(alpha, beta, e.cfg.Payoffs)
	if err != nil {
		return nil, fmt.Errorf("resolving round %d: %w", e.rounds+1, err)
	}

	e.rounds++
	outcome.Round = e.rounds
	e.matrix[alpha][beta]++
	e.tally.add(outcome.Verdict)
	e.history = append(e.history, winRateOf(e.tally))

	e.logger.Log(context.Background(), logging.LevelTrace, "round",
		"round", outcome.Round,
		"alpha", alpha.String(),
		"beta", beta.String(),
		"verdict", outcome.Verdict.String())
	e.trace.Log(map[string]any{
		"event":       "round",
		"round":       outcome.Round,
		"alpha":       alpha.String(),
		"beta":        beta.String(),
		"alpha_score": outcome.Payoff.Alpha,
		"beta_score":  outcome.Payoff.Beta,
		"verdict":     outcome.Verdict.String(),
	})

	if e.rounds >= e.cfg.RoundCap {
		e.running = false
		e.logger.Info("round cap reached", "rounds", e.rounds, "seed", e.seed)
	}

	return &outcome, nil
}

// Reset reseeds the random source from seed, clears all counts and history,
// and pauses the engine. The configuration is kept.
func (e *Engine) Reset(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked(seed)
}

func (e *Engine) resetLocked(seed int64) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
	e.rounds = 0
	e.running = false
	e.tally = Tally{}
	e.matrix = OutcomeMatrix{}
	e.history = nil

	e.logger.Debug("simulation reset", "seed", seed)
	e.trace.Log(map[string]any{"event": "reset", "seed": seed})
}

// IsCapped reports whether the round cap has been reached.
func (e *Engine) IsCapped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rounds >= e.cfg.RoundCap
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.rounds >= e.cfg.RoundCap:
		return StateCapped
	case e.rounds == 0:
		return StateIdle
	default:
		return StateRunning
	}
}

// Seed returns the seed of the current run.
func (e *Engine) Seed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seed
}

// Running reports the play/pause flag.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Play sets the running flag. It has no effect on a capped engine and
// reports whether the engine is now running.
func (e *Engine) Play() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rounds < e.cfg.RoundCap {
		e.running = true
	}
	return e.running
}

// Pause clears the running flag.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Toggle flips the running flag and returns the new value.
func (e *Engine) Toggle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.running = false
	} else if e.rounds < e.cfg.RoundCap {
		e.running = true
	}
	return e.running
}
