package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nvandessel/firstmover/internal/config"
	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/logging"
	"github.com/nvandessel/firstmover/internal/simulation"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "firstmover",
		Short: "Early vs. Wait - a repeated first-mover game simulator",
		Long: `firstmover simulates a repeated two-player game in which each player
independently chooses to move Early or Wait according to fixed weights.

It tallies who wins each round, how often every strategy pair occurs and
how the win rates evolve, and stops at a configured round cap. Runs are
reproducible: the same seed always yields the same sequence.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.firstmover/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newPlayCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig resolves --config, the default file and the environment, and
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.FirstMoverConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session bundles the collaborators every simulation command needs.
type session struct {
	cfg    *config.FirstMoverConfig
	logger *slog.Logger
	trace  *logging.RoundTrace
	engine *simulation.Engine
	driver *driver.Driver
}

// newSession builds the logger, round trace, engine and driver for cfg.
// Logs go to logOut.
func newSession(cfg *config.FirstMoverConfig, logOut io.Writer) (*session, error) {
	simCfg, err := cfg.Simulation()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, logOut)
	trace := cfg.NewRoundTrace()

	engine, err := simulation.New(simCfg,
		simulation.WithLogger(logger),
		simulation.WithRoundTrace(trace),
	)
	if err != nil {
		trace.Close()
		return nil, err
	}

	d := driver.New(engine,
		driver.WithInterval(cfg.Driver.TickInterval),
		driver.WithLogger(logger),
		driver.WithRoundTrace(trace),
	)

	return &session{
		cfg:    cfg,
		logger: logger,
		trace:  trace,
		engine: engine,
		driver: d,
	}, nil
}

func (s *session) Close() {
	s.trace.Close()
}
