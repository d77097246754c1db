package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/firstmover/internal/observability"
	"github.com/nvandessel/firstmover/internal/visualization"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live dashboard over HTTP",
		Long: `Start a local HTTP server with the live dashboard and block until Ctrl-C.

The page shows the win counts, the strategy-pair heatmap and the rolling
win rates, updated over a websocket after every round, with play/pause,
reset, seed entry and CSV export controls.

Endpoints:
  GET  /                  dashboard
  GET  /api/snapshot      current state as JSON
  GET  /api/summary       run summary (409 until the cap is reached)
  GET  /api/history.csv   rolling win-rate history
  POST /api/toggle        play / pause
  POST /api/reset[?seed=] restart, optionally with a new seed
  GET  /ws                snapshot stream
  GET  /metrics           Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("open") {
				cfg.Server.OpenBrowser, _ = cmd.Flags().GetBool("open")
			}

			sess, err := newSession(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			return runDashboardServer(ctx, cmd, sess)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default localhost with a free port)")
	cmd.Flags().Bool("open", false, "Open the dashboard in the default browser")

	return cmd
}

// runDashboardServer runs the driver and the HTTP server until ctx is done.
func runDashboardServer(ctx context.Context, cmd *cobra.Command, sess *session) error {
	srv := visualization.NewServer(sess.driver,
		visualization.WithServerLogger(sess.logger),
		visualization.WithMetrics(observability.NewMetrics(observability.DefaultNamespace)),
	)
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	driverErr := make(chan error, 1)
	go func() { driverErr <- sess.driver.Run(ctx) }()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, sess.cfg.Server.Addr) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			break
		}
		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	addr := srv.Addr()
	if addr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + addr + "/"
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if sess.cfg.Driver.Autoplay {
		sess.driver.Play()
	}
	if sess.cfg.Server.OpenBrowser {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	select {
	case err := <-driverErr:
		cancel()
		<-errCh
		return err
	case err := <-errCh:
		cancel()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return <-driverErr
	}
}
