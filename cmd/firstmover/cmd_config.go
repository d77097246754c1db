package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nvandessel/firstmover/internal/config"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage firstmover configuration",
		Long: `View and initialize firstmover configuration settings.

Configuration is stored in ~/.firstmover/config.yaml and can be overridden
with FIRSTMOVER_SEED, FIRSTMOVER_ROUND_CAP, FIRSTMOVER_TICK_INTERVAL,
FIRSTMOVER_ADDR, FIRSTMOVER_LOG_LEVEL and FIRSTMOVER_TRACE_DIR.

Examples:
  firstmover config list                 # Show all settings
  firstmover config get game.seed        # Get a specific setting
  firstmover config init                 # Write the defaults to ~/.firstmover/config.yaml`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Game Settings:")
			fmt.Fprintf(out, "  game.seed:          %d\n", cfg.Game.Seed)
			fmt.Fprintf(out, "  game.round_cap:     %d\n", cfg.Game.RoundCap)
			fmt.Fprintf(out, "  game.alpha_weights: %s\n", formatWeights(cfg.Game.AlphaWeights))
			fmt.Fprintf(out, "  game.beta_weights:  %s\n", formatWeights(cfg.Game.BetaWeights))
			fmt.Fprintln(out, "  game.payoffs:")
			for _, p := range cfg.Game.Payoffs {
				fmt.Fprintf(out, "    (%s, %s) -> (%g, %g)\n", p.Alpha, p.Beta, p.AlphaScore, p.BetaScore)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Driver Settings:")
			fmt.Fprintf(out, "  driver.tick_interval: %v\n", cfg.Driver.TickInterval)
			fmt.Fprintf(out, "  driver.autoplay:      %v\n", cfg.Driver.Autoplay)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Server Settings:")
			fmt.Fprintf(out, "  server.addr:         %s\n", cfg.Server.Addr)
			fmt.Fprintf(out, "  server.open_browser: %v\n", cfg.Server.OpenBrowser)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:     %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			fmt.Fprintf(out, "  logging.trace_dir: %s\n", cfg.TraceDir())
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, err := getConfigValue(cfg, key)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "initialized",
					"path":   path,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")

	return cmd
}

// getConfigValue returns the value for a dotted key.
func getConfigValue(cfg *config.FirstMoverConfig, key string) (interface{}, error) {
	switch key {
	case "game.seed":
		return cfg.Game.Seed, nil
	case "game.round_cap":
		return cfg.Game.RoundCap, nil
	case "game.alpha_weights":
		return cfg.Game.AlphaWeights, nil
	case "game.beta_weights":
		return cfg.Game.BetaWeights, nil
	case "game.payoffs":
		data, err := yaml.Marshal(cfg.Game.Payoffs)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(string(data)), nil
	case "driver.tick_interval":
		return cfg.Driver.TickInterval.String(), nil
	case "driver.autoplay":
		return cfg.Driver.Autoplay, nil
	case "server.addr":
		return cfg.Server.Addr, nil
	case "server.open_browser":
		return cfg.Server.OpenBrowser, nil
	case "logging.level":
		return valueOrDefault(cfg.Logging.Level, "info"), nil
	case "logging.trace_dir":
		return cfg.TraceDir(), nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// formatWeights renders a weight table in canonical strategy order, with any
// unrecognized keys appended.
func formatWeights(w map[string]float64) string {
	parts := make([]string, 0, len(w))
	seen := make(map[string]bool, len(w))
	for _, s := range game.Strategies {
		for k, v := range w {
			if strings.EqualFold(k, s.String()) {
				parts = append(parts, fmt.Sprintf("%s=%g", s, v))
				seen[k] = true
			}
		}
	}
	for k, v := range w {
		if !seen[k] {
			parts = append(parts, fmt.Sprintf("%s=%g", k, v))
		}
	}
	return strings.Join(parts, " ")
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
