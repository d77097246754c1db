package main

import (
	"fmt"

	"github.com/nvandessel/firstmover/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Expose the simulation as MCP tools over stdio",
		Long: `Run an MCP (Model Context Protocol) server on stdin/stdout.

Tools: sim_step, sim_snapshot, sim_reset, sim_toggle, sim_summary.
Resource: firstmover://simulation/dashboard (text dashboard).

Logs go to stderr; at debug or trace level tool calls are audited to
audit.jsonl in the trace directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			sess, err := newSession(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			auditDir := ""
			if sess.trace != nil {
				auditDir = cfg.TraceDir()
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "firstmover",
				Version:  version,
				Driver:   sess.driver,
				Logger:   sess.logger,
				AuditDir: auditDir,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			// sim_toggle plays the run on the driver's own timer.
			go func() {
				if err := sess.driver.Run(ctx); err != nil {
					sess.logger.Error("driver stopped", "error", err)
				}
			}()

			return server.Run(ctx)
		},
	}
}
