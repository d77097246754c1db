// Package logging provides leveled logging and round tracing for firstmover.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A RoundTrace writing one JSONL record per simulated round and per
//     run event (reset, summary) to <dir>/rounds.jsonl
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level the engine
// also logs every round to the operational logger.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing text records to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Used as the default for
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// RoundTrace writes structured round events to a JSONL file.
// It is safe for concurrent use. A nil RoundTrace is safe to use;
// all methods are no-ops on nil receiver.
type RoundTrace struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewRoundTrace opens dir/rounds.jsonl for append.
// At "info" level (the default) or above it returns nil and creates nothing.
// Returns nil if the file cannot be opened.
func NewRoundTrace(dir string, level string) *RoundTrace {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "rounds.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &RoundTrace{w: f}
}

// NewRoundTraceWriter wraps an arbitrary writer, e.g. a buffer in tests.
func NewRoundTraceWriter(w io.WriteCloser) *RoundTrace {
	return &RoundTrace{w: w}
}

// Log writes an event as a single JSONL line with an added "time" field.
// The caller's map is not mutated.
func (rt *RoundTrace) Log(event map[string]any) {
	if rt == nil || rt.w == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.w == nil {
		return
	}
	_, _ = rt.w.Write(data)
}

// Close closes the underlying writer. Safe to call on nil receiver.
func (rt *RoundTrace) Close() {
	if rt == nil {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.w != nil {
		rt.w.Close()
		rt.w = nil
	}
}
