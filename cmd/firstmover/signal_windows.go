//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// signalContext returns a context cancelled on Ctrl+C.
// SIGTERM does not exist on Windows.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
