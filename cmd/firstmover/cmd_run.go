package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/firstmover/internal/simulation"
	"github.com/nvandessel/firstmover/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a full run headlessly and print the summary",
		Long: `Simulate rounds until the round cap is reached and print the summary.

The weights, payoff matrix, cap and seed come from the configuration;
--seed and --rounds override them for this run.

Examples:
  firstmover run                          # reference scenario, seed 22
  firstmover run --seed 7 --rounds 5000   # different seed and cap
  firstmover run --csv rates.csv          # also export the win-rate history
  firstmover run --json                   # summary as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Game.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("rounds") {
				cfg.Game.RoundCap, _ = cmd.Flags().GetInt("rounds")
			}

			sess, err := newSession(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			summary, err := simulation.Run(ctx, sess.engine, nil)
			if err != nil {
				return fmt.Errorf("simulation interrupted: %w", err)
			}
			snap := sess.engine.Snapshot()

			csvPath, _ := cmd.Flags().GetString("csv")
			if csvPath != "" {
				if err := writeCSVFile(csvPath, snap.History); err != nil {
					return err
				}
			}

			htmlPath, _ := cmd.Flags().GetString("html")
			if htmlPath != "" {
				page, err := visualization.RenderHTML(snap, false)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlPath, page, 0600); err != nil {
					return fmt.Errorf("write html report: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(summary)
			}

			showDashboard, _ := cmd.Flags().GetBool("dashboard")
			if showDashboard {
				if err := visualization.RenderText(out, snap); err != nil {
					return err
				}
			}
			if err := visualization.WriteSummary(out, summary); err != nil {
				return err
			}
			if csvPath != "" {
				fmt.Fprintf(out, "Win-rate history written to %s\n", csvPath)
			}
			if htmlPath != "" {
				fmt.Fprintf(out, "Report written to %s\n", htmlPath)
			}
			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Seed for this run (overrides config)")
	cmd.Flags().Int("rounds", 0, "Round cap for this run (overrides config)")
	cmd.Flags().String("csv", "", "Write the rolling win-rate history as CSV to this path")
	cmd.Flags().String("html", "", "Write a static HTML report to this path")
	cmd.Flags().Bool("dashboard", false, "Print the final text dashboard before the summary")

	return cmd
}

// writeCSVFile exports history to path.
func writeCSVFile(path string, history []simulation.WinRate) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()
	return visualization.WriteHistoryCSV(f, history)
}
