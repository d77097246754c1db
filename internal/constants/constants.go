// Package constants provides named defaults used throughout firstmover.
// They reproduce the reference Early vs. Wait scenario and the host settings
// of the interactive dashboard.
package constants

import "time"

// Reference scenario
const (
	// DefaultRoundCap is the number of rounds a run simulates before stopping.
	DefaultRoundCap = 1000

	// DefaultSeed seeds the random source when no seed is configured.
	DefaultSeed int64 = 22
)

// Host settings
const (
	// DefaultTickInterval is the delay between rounds when the driver plays.
	DefaultTickInterval = 50 * time.Millisecond

	// DefaultServerAddr lets the OS pick a free localhost port.
	DefaultServerAddr = "localhost:0"

	// DefaultLogLevel is the operational log level.
	DefaultLogLevel = "info"

	// ConfigDirName is the per-user configuration directory under $HOME.
	ConfigDirName = ".firstmover"

	// ConfigFileName is the configuration file inside ConfigDirName.
	ConfigFileName = "config.yaml"
)

// Limits
const (
	// MaxStepBatch caps how many rounds a single remote step request may play.
	MaxStepBatch = 10000

	// MaxRenderedHistory is the number of most recent win-rate points sent
	// with each streamed snapshot.
	MaxRenderedHistory = 2000
)
