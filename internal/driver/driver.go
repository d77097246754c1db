// Package driver advances a simulation engine on a timer and relays host
// controls (play/pause, reset, seed entry) to it.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/firstmover/internal/constants"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/logging"
	"github.com/nvandessel/firstmover/internal/simulation"
)

// ErrInvalidSeed is returned when seed text is not a base-10 integer.
var ErrInvalidSeed = errors.New("invalid seed")

// Update is delivered to observers after every state change.
type Update struct {
	// Snapshot is a copy of the engine state after the change.
	Snapshot simulation.Snapshot

	// Outcome is set when the change was a played round.
	Outcome *game.RoundOutcome

	// Reset is set when the change was a reset or reseed.
	Reset bool

	// Summary is set exactly once per run, on the first update that finds
	// the engine capped.
	Summary *simulation.Summary
}

// Observer receives updates. Observers run synchronously on the goroutine
// that caused the change and must not block.
type Observer func(Update)

// Driver owns the only timer of a simulation host.
type Driver struct {
	engine   *simulation.Engine
	interval time.Duration
	logger   *slog.Logger
	trace    *logging.RoundTrace

	// mu serializes ticks, resets and the summary flag.
	mu         sync.Mutex
	summarized bool

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

// Option configures a Driver.
type Option func(*Driver)

// WithInterval sets the delay between ticks.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}

// WithRoundTrace records resets and summaries to the JSONL trace.
func WithRoundTrace(rt *logging.RoundTrace) Option {
	return func(dr *Driver) {
		dr.trace = rt
	}
}

// New wraps engine. The engine keeps its current state.
func New(engine *simulation.Engine, opts ...Option) *Driver {
	d := &Driver{
		engine:    engine,
		interval:  constants.DefaultTickInterval,
		logger:    logging.Discard(),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the driven engine.
func (d *Driver) Engine() *simulation.Engine {
	return d.engine
}

// Interval returns the tick interval.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Subscribe registers obs and returns a function that removes it.
func (d *Driver) Subscribe(obs Observer) (unsubscribe func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = obs
	d.obsMu.Unlock()

	return func() {
		d.obsMu.Lock()
		delete(d.observers, id)
		d.obsMu.Unlock()
	}
}

func (d *Driver) notify(u Update) {
	d.obsMu.RLock()
	observers := make([]Observer, 0, len(d.observers))
	for _, obs := range d.observers {
		observers = append(observers, obs)
	}
	d.obsMu.RUnlock()

	for _, obs := range observers {
		obs(u)
	}
}

// Tick plays one round if the engine is running. It reports whether a round
// was played. The running flag is checked under the same lock as the step, so
// a reset that pauses the run is never followed by a stale tick.
func (d *Driver) Tick() (bool, error) {
	played, err := d.advance(1, true)
	return len(played) > 0, err
}

// Advance plays up to n rounds regardless of the play/pause flag, stopping
// early at the cap. It returns the outcomes of the rounds played.
func (d *Driver) Advance(n int) ([]game.RoundOutcome, error) {
	return d.advance(n, false)
}

func (d *Driver) advance(n int, onlyRunning bool) ([]game.RoundOutcome, error) {
	var played []game.RoundOutcome
	for len(played) < n {
		d.mu.Lock()
		if onlyRunning && !d.engine.Running() {
			d.mu.Unlock()
			return played, nil
		}
		outcome, err := d.engine.Step()
		if err != nil {
			d.mu.Unlock()
			return played, err
		}
		summary := d.completeLocked()
		snap := d.engine.Snapshot()
		d.mu.Unlock()

		if outcome == nil {
			if summary != nil {
				d.notify(Update{Snapshot: snap, Summary: summary})
			}
			return played, nil
		}
		played = append(played, *outcome)
		d.notify(Update{Snapshot: snap, Outcome: outcome, Summary: summary})
	}
	return played, nil
}

// completeLocked returns the run summary the first time the engine is seen
// capped, and nil otherwise.
func (d *Driver) completeLocked() *simulation.Summary {
	if d.summarized {
		return nil
	}
	summary, err := d.engine.Summary()
	if err != nil {
		return nil
	}
	d.summarized = true
	d.engine.Pause()

	d.logger.Info("simulation complete",
		"rounds", summary.Rounds,
		"seed", summary.Seed,
		"most_frequent", summary.MostFrequent.String(),
		"most_frequent_count", summary.MostFrequentCount)
	d.trace.Log(map[string]any{
		"event":               "summary",
		"rounds":              summary.Rounds,
		"seed":                summary.Seed,
		"alpha_wins":          summary.Share(game.AlphaWins).Count,
		"beta_wins":           summary.Share(game.BetaWins).Count,
		"draws":               summary.Share(game.Draw).Count,
		"most_frequent":       summary.MostFrequent.String(),
		"most_frequent_count": summary.MostFrequentCount,
	})
	return &summary
}

// Run ticks at the configured interval until ctx is cancelled. It returns
// nil on cancellation and the first step error otherwise.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Debug("driver started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped")
			return nil
		case <-ticker.C:
			if _, err := d.Tick(); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
		}
	}
}

// Toggle flips play/pause and returns the new running flag. A capped run
// stays paused.
func (d *Driver) Toggle() bool {
	running := d.engine.Toggle()
	d.logger.Debug("toggled", "running", running)
	d.notify(Update{Snapshot: d.engine.Snapshot()})
	return running
}

// Play starts the run unless it is capped.
func (d *Driver) Play() bool {
	running := d.engine.Play()
	d.notify(Update{Snapshot: d.engine.Snapshot()})
	return running
}

// Pause stops the run.
func (d *Driver) Pause() {
	d.engine.Pause()
	d.notify(Update{Snapshot: d.engine.Snapshot()})
}

// Reset restarts the run with the current seed, paused.
func (d *Driver) Reset() {
	d.reset(d.engine.Seed())
}

// SetSeed parses text and, when valid, restarts the run with that seed.
// Invalid text leaves the engine untouched and returns ErrInvalidSeed.
func (d *Driver) SetSeed(text string) (int64, error) {
	seed, err := ParseSeed(text)
	if err != nil {
		d.logger.Warn("rejected seed", "input", text)
		return 0, err
	}
	d.reset(seed)
	return seed, nil
}

func (d *Driver) reset(seed int64) {
	d.mu.Lock()
	d.engine.Reset(seed)
	d.summarized = false
	d.trace.Log(map[string]any{"event": "driver_reset", "seed": seed})
	d.logger.Info("simulation reset", "seed", seed)
	snap := d.engine.Snapshot()
	d.mu.Unlock()

	d.notify(Update{Snapshot: snap, Reset: true})
}

// ParseSeed parses a base-10 integer seed, ignoring surrounding whitespace.
func ParseSeed(text string) (int64, error) {
	seed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeed, text)
	}
	return seed, nil
}
