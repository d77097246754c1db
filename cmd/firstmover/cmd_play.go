package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/visualization"
	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

const playHelp = `Commands: p play/pause | r reset | s <seed> set seed | c <file> export CSV | q quit`

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the simulation interactively in the terminal",
		Long: `Run the simulation in the terminal, redrawing the dashboard after every round.

Type a command and press Enter:
  p           play / pause
  r           reset the run with the current seed
  s <seed>    reset the run with a new integer seed
  c <file>    export the rolling win-rate history as CSV
  q           quit

The run starts paused unless driver.autoplay is set or --autoplay is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Game.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			autoplay, _ := cmd.Flags().GetBool("autoplay")
			noClear, _ := cmd.Flags().GetBool("no-clear")

			sess, err := newSession(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			p := &player{
				driver:  sess.driver,
				out:     cmd.OutOrStdout(),
				noClear: noClear,
			}
			return p.run(ctx, cmd.InOrStdin(), autoplay || cfg.Driver.Autoplay)
		},
	}

	cmd.Flags().Int64("seed", 0, "Initial seed (overrides config)")
	cmd.Flags().Bool("autoplay", false, "Start playing immediately")
	cmd.Flags().Bool("no-clear", false, "Do not clear the screen between redraws")

	return cmd
}

// player connects stdin commands and driver updates to the terminal.
type player struct {
	driver  *driver.Driver
	noClear bool

	mu  sync.Mutex // serializes writes to out
	out io.Writer
}

func (p *player) run(ctx context.Context, in io.Reader, autoplay bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := p.driver.Subscribe(p.onUpdate)
	defer unsubscribe()

	runErr := make(chan error, 1)
	go func() { runErr <- p.driver.Run(ctx) }()

	p.draw()
	if autoplay {
		p.driver.Play()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return <-runErr
		case err := <-runErr:
			return err
		case line, ok := <-lines:
			if !ok || !p.handle(line) {
				cancel()
				return <-runErr
			}
		}
	}
}

// handle executes one command line and reports whether to keep going.
func (p *player) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return false
	case "p", "play", "pause":
		p.driver.Toggle()
	case "r", "reset":
		p.driver.Reset()
	case "s", "seed":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if _, err := p.driver.SetSeed(text); err != nil {
			if errors.Is(err, driver.ErrInvalidSeed) {
				p.println("Invalid seed input.")
			} else {
				p.println(err.Error())
			}
		}
	case "c", "csv":
		if len(fields) < 2 {
			p.println("usage: c <file>")
			return true
		}
		if err := writeCSVFile(fields[1], p.driver.Engine().Snapshot().History); err != nil {
			p.println(err.Error())
		} else {
			p.println("Win-rate history written to " + fields[1])
		}
	default:
		p.println(playHelp)
	}
	return true
}

func (p *player) onUpdate(u driver.Update) {
	p.draw()
	if u.Summary != nil {
		p.mu.Lock()
		_ = visualization.WriteSummary(p.out, *u.Summary)
		p.mu.Unlock()
	}
}

func (p *player) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.noClear {
		fmt.Fprint(p.out, clearScreen)
	}
	_ = visualization.RenderText(p.out, p.driver.Engine().Snapshot())
	fmt.Fprintln(p.out, playHelp)
}

func (p *player) println(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, msg)
}
