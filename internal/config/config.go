// Package config provides unified configuration loading for firstmover.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvandessel/firstmover/internal/constants"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/logging"
	"github.com/nvandessel/firstmover/internal/simulation"
	"gopkg.in/yaml.v3"
)

// FirstMoverConfig contains all firstmover configuration settings.
type FirstMoverConfig struct {
	// Game contains the payoff matrix, strategy weights, round cap and seed.
	Game GameConfig `json:"game" yaml:"game"`

	// Driver contains settings for the tick loop.
	Driver DriverConfig `json:"driver" yaml:"driver"`

	// Server contains settings for the HTTP dashboard.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational logging and round tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GameConfig describes one simulation. Strategy names are "Early" and "Wait".
type GameConfig struct {
	// AlphaWeights and BetaWeights are relative draw weights per strategy.
	AlphaWeights map[string]float64 `json:"alpha_weights" yaml:"alpha_weights"`
	BetaWeights  map[string]float64 `json:"beta_weights" yaml:"beta_weights"`

	// Payoffs must list all four strategy pairs exactly once.
	Payoffs []PayoffEntry `json:"payoffs" yaml:"payoffs"`

	// RoundCap is the number of rounds per run. Zero starts capped.
	RoundCap int `json:"round_cap" yaml:"round_cap"`

	// Seed seeds the random source at start and on reset.
	Seed int64 `json:"seed" yaml:"seed"`
}

// PayoffEntry is one cell of the payoff matrix.
type PayoffEntry struct {
	Alpha      string  `json:"alpha" yaml:"alpha"`
	Beta       string  `json:"beta" yaml:"beta"`
	AlphaScore float64 `json:"alpha_score" yaml:"alpha_score"`
	BetaScore  float64 `json:"beta_score" yaml:"beta_score"`
}

// DriverConfig configures the tick loop.
type DriverConfig struct {
	// TickInterval is the delay between rounds while playing.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// Autoplay starts the run immediately instead of paused.
	Autoplay bool `json:"autoplay" yaml:"autoplay"`
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	// Addr is the listen address; port 0 picks a free port.
	Addr string `json:"addr" yaml:"addr"`

	// OpenBrowser opens the dashboard in the default browser on start.
	OpenBrowser bool `json:"open_browser" yaml:"open_browser"`
}

// LoggingConfig configures firstmover's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" and "trace" enable the JSONL round trace in TraceDir.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where rounds.jsonl is written. Defaults to ~/.firstmover.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a FirstMoverConfig reproducing the reference scenario.
func Default() *FirstMoverConfig {
	ref := simulation.DefaultConfig()
	return &FirstMoverConfig{
		Game: GameConfig{
			AlphaWeights: weightsToMap(ref.AlphaWeights),
			BetaWeights:  weightsToMap(ref.BetaWeights),
			Payoffs:      payoffsToEntries(ref.Payoffs),
			RoundCap:     constants.DefaultRoundCap,
			Seed:         constants.DefaultSeed,
		},
		Driver: DriverConfig{
			TickInterval: constants.DefaultTickInterval,
		},
		Server: ServerConfig{
			Addr: constants.DefaultServerAddr,
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}

// DefaultPath returns ~/.firstmover/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

// Load loads configuration from the default location and environment variables.
// Order: defaults -> ~/.firstmover/config.yaml -> environment variables
func Load() (*FirstMoverConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadPath loads path when it is non-empty, otherwise the default location,
// then applies environment overrides.
func LoadPath(path string) (*FirstMoverConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Weight tables
// and payoffs present in the file replace the defaults wholesale.
func LoadFromFile(path string) (*FirstMoverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	defaults := config.Game
	config.Game.AlphaWeights = nil
	config.Game.BetaWeights = nil
	config.Game.Payoffs = nil

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if config.Game.AlphaWeights == nil {
		config.Game.AlphaWeights = defaults.AlphaWeights
	}
	if config.Game.BetaWeights == nil {
		config.Game.BetaWeights = defaults.BetaWeights
	}
	if config.Game.Payoffs == nil {
		config.Game.Payoffs = defaults.Payoffs
	}

	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *FirstMoverConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *FirstMoverConfig) Validate() error {
	if _, err := c.Simulation(); err != nil {
		return err
	}

	if c.Driver.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.Driver.TickInterval)
	}

	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Simulation converts the game section into a validated simulation.Config.
// Errors wrap game.ErrInvalidConfiguration.
func (c *FirstMoverConfig) Simulation() (simulation.Config, error) {
	alpha, err := parseWeights(c.Game.AlphaWeights)
	if err != nil {
		return simulation.Config{}, fmt.Errorf("alpha_weights: %w", err)
	}
	beta, err := parseWeights(c.Game.BetaWeights)
	if err != nil {
		return simulation.Config{}, fmt.Errorf("beta_weights: %w", err)
	}
	payoffs, err := parsePayoffs(c.Game.Payoffs)
	if err != nil {
		return simulation.Config{}, fmt.Errorf("payoffs: %w", err)
	}

	cfg := simulation.Config{
		Payoffs:      payoffs,
		AlphaWeights: alpha,
		BetaWeights:  beta,
		RoundCap:     c.Game.RoundCap,
		Seed:         c.Game.Seed,
	}
	if err := cfg.Validate(); err != nil {
		return simulation.Config{}, err
	}
	return cfg, nil
}

// TraceDir returns the configured trace directory or ~/.firstmover.
func (c *FirstMoverConfig) TraceDir() string {
	if c.Logging.TraceDir != "" {
		return c.Logging.TraceDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.ConfigDirName
	}
	return filepath.Join(home, constants.ConfigDirName)
}

// NewRoundTrace opens the round trace for the configured level and directory.
// It returns nil below debug level.
func (c *FirstMoverConfig) NewRoundTrace() *logging.RoundTrace {
	return logging.NewRoundTrace(c.TraceDir(), c.Logging.Level)
}

func parseWeights(raw map[string]float64) (game.Weights, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: weight table is empty", game.ErrInvalidConfiguration)
	}
	weights := make(game.Weights, len(raw))
	for name, w := range raw {
		s, err := game.ParseStrategy(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
		}
		if _, dup := weights[s]; dup {
			return nil, fmt.Errorf("%w: duplicate weight for %s", game.ErrInvalidConfiguration, s)
		}
		weights[s] = w
	}
	return weights, nil
}

func parsePayoffs(entries []PayoffEntry) (game.PayoffMatrix, error) {
	matrix := make(game.PayoffMatrix, len(entries))
	for _, e := range entries {
		a, err := game.ParseStrategy(e.Alpha)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
		}
		b, err := game.ParseStrategy(e.Beta)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
		}
		pair := game.Pair{Alpha: a, Beta: b}
		if _, dup := matrix[pair]; dup {
			return nil, fmt.Errorf("%w: duplicate payoff for %s", game.ErrInvalidConfiguration, pair)
		}
		matrix[pair] = game.Payoff{Alpha: e.AlphaScore, Beta: e.BetaScore}
	}
	return matrix, nil
}

func weightsToMap(w game.Weights) map[string]float64 {
	out := make(map[string]float64, len(w))
	for s, v := range w {
		out[s.String()] = v
	}
	return out
}

func payoffsToEntries(m game.PayoffMatrix) []PayoffEntry {
	entries := make([]PayoffEntry, 0, len(m))
	for _, p := range game.Pairs() {
		payoff, ok := m[p]
		if !ok {
			continue
		}
		entries = append(entries, PayoffEntry{
			Alpha:      p.Alpha.String(),
			Beta:       p.Beta.String(),
			AlphaScore: payoff.Alpha,
			BetaScore:  payoff.Beta,
		})
	}
	return entries
}

// applyEnvOverrides applies environment variable overrides to the config.
// Malformed numeric values are reported rather than ignored.
func applyEnvOverrides(config *FirstMoverConfig) error {
	if v := os.Getenv("FIRSTMOVER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FIRSTMOVER_SEED: %w", err)
		}
		config.Game.Seed = seed
	}

	if v := os.Getenv("FIRSTMOVER_ROUND_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FIRSTMOVER_ROUND_CAP: %w", err)
		}
		config.Game.RoundCap = n
	}

	if v := os.Getenv("FIRSTMOVER_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FIRSTMOVER_TICK_INTERVAL: %w", err)
		}
		config.Driver.TickInterval = d
	}

	if v := os.Getenv("FIRSTMOVER_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("FIRSTMOVER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("FIRSTMOVER_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}

	return nil
}
