package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/firstmover/internal/constants"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/ratelimit"
	"github.com/nvandessel/firstmover/internal/simulation"
	"github.com/nvandessel/firstmover/internal/visualization"
)

// maxRecentRounds bounds the rounds echoed back by sim_step.
const maxRecentRounds = 20

const dashboardURI = "firstmover://simulation/dashboard"

// registerTools registers all simulation MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sim_step",
		Description: "Play one or more rounds of the Early vs. Wait game, stopping at the round cap",
	}, s.handleSimStep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sim_snapshot",
		Description: "Read the current verdict tally, strategy-pair matrix and rolling win rates",
	}, s.handleSimSnapshot)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sim_reset",
		Description: "Clear all counts and restart the run, optionally with a new integer seed",
	}, s.handleSimReset)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sim_toggle",
		Description: "Flip the play/pause flag of the run",
	}, s.handleSimToggle)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sim_summary",
		Description: "Report verdict shares and the most frequent strategy pair of a completed run",
	}, s.handleSimSummary)
}

// registerResources registers the text dashboard resource.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         dashboardURI,
		Name:        "firstmover-dashboard",
		Description: "Text dashboard of the current run: win counts, strategy-pair heatmap and rolling win rates.",
		MIMEType:    "text/plain",
	}, s.handleDashboardResource)
}

// handleDashboardResource renders the text dashboard for the current snapshot.
func (s *Server) handleDashboardResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var sb strings.Builder
	if err := visualization.RenderText(&sb, s.driver.Engine().Snapshot()); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      dashboardURI,
				MIMEType: "text/plain",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleSimStep implements the sim_step tool.
func (s *Server) handleSimStep(ctx context.Context, req *sdk.CallToolRequest, args SimStepInput) (_ *sdk.CallToolResult, _ SimStepOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sim_step", start, retErr, map[string]any{"rounds": args.Rounds})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "sim_step"); err != nil {
		return nil, SimStepOutput{}, err
	}

	rounds := args.Rounds
	if rounds == 0 {
		rounds = 1
	}
	if rounds < 0 || rounds > constants.MaxStepBatch {
		return nil, SimStepOutput{}, fmt.Errorf("rounds must be between 1 and %d, got %d", constants.MaxStepBatch, args.Rounds)
	}

	played, err := s.driver.Advance(rounds)
	if err != nil {
		return nil, SimStepOutput{}, fmt.Errorf("step: %w", err)
	}

	recent := played
	if len(recent) > maxRecentRounds {
		recent = recent[len(recent)-maxRecentRounds:]
	}
	items := make([]RoundItem, 0, len(recent))
	for _, o := range recent {
		items = append(items, roundItem(o))
	}

	snap := s.driver.Engine().Snapshot()
	out := SimStepOutput{
		Played:   len(played),
		Capped:   snap.State == simulation.StateCapped,
		Recent:   items,
		Snapshot: snapshotOutput(snap, false),
	}
	if out.Capped {
		summary, err := s.driver.Engine().Summary()
		if err != nil {
			return nil, SimStepOutput{}, fmt.Errorf("summary: %w", err)
		}
		so, err := summaryOutput(summary)
		if err != nil {
			return nil, SimStepOutput{}, err
		}
		out.Summary = &so
	}
	return nil, out, nil
}

// handleSimSnapshot implements the sim_snapshot tool.
func (s *Server) handleSimSnapshot(ctx context.Context, req *sdk.CallToolRequest, args SimSnapshotInput) (_ *sdk.CallToolResult, _ SnapshotOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sim_snapshot", start, retErr, map[string]any{"include_history": args.IncludeHistory})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "sim_snapshot"); err != nil {
		return nil, SnapshotOutput{}, err
	}

	return nil, snapshotOutput(s.driver.Engine().Snapshot(), args.IncludeHistory), nil
}

// handleSimReset implements the sim_reset tool. An invalid seed is rejected
// and the run is left untouched.
func (s *Server) handleSimReset(ctx context.Context, req *sdk.CallToolRequest, args SimResetInput) (_ *sdk.CallToolResult, _ SimResetOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sim_reset", start, retErr, map[string]any{"seed": args.Seed})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "sim_reset"); err != nil {
		return nil, SimResetOutput{}, err
	}

	if strings.TrimSpace(args.Seed) == "" {
		s.driver.Reset()
		seed := s.driver.Engine().Seed()
		return nil, SimResetOutput{
			Seed:    seed,
			Message: fmt.Sprintf("Run restarted with seed %d", seed),
		}, nil
	}

	seed, err := s.driver.SetSeed(args.Seed)
	if err != nil {
		return nil, SimResetOutput{}, err
	}
	return nil, SimResetOutput{
		Seed:    seed,
		Message: fmt.Sprintf("Run restarted with new seed %d", seed),
	}, nil
}

// handleSimToggle implements the sim_toggle tool.
func (s *Server) handleSimToggle(ctx context.Context, req *sdk.CallToolRequest, args SimToggleInput) (_ *sdk.CallToolResult, _ SimToggleOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sim_toggle", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "sim_toggle"); err != nil {
		return nil, SimToggleOutput{}, err
	}

	running := s.driver.Toggle()
	return nil, SimToggleOutput{
		Running: running,
		State:   s.driver.Engine().State().String(),
	}, nil
}

// handleSimSummary implements the sim_summary tool. Before the cap it fails
// with simulation.ErrNotYetComplete.
func (s *Server) handleSimSummary(ctx context.Context, req *sdk.CallToolRequest, args SimSummaryInput) (_ *sdk.CallToolResult, _ SummaryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sim_summary", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "sim_summary"); err != nil {
		return nil, SummaryOutput{}, err
	}

	summary, err := s.driver.Engine().Summary()
	if errors.Is(err, simulation.ErrNotYetComplete) {
		snap := s.driver.Engine().Snapshot()
		return nil, SummaryOutput{}, fmt.Errorf("%w: %d of %d rounds played", err, snap.Rounds, snap.Cap)
	}
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	out, err := summaryOutput(summary)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	return nil, out, nil
}

func roundItem(o game.RoundOutcome) RoundItem {
	return RoundItem{
		Round:      o.Round,
		Alpha:      o.Pair.Alpha.String(),
		Beta:       o.Pair.Beta.String(),
		AlphaScore: o.Payoff.Alpha,
		BetaScore:  o.Payoff.Beta,
		Verdict:    o.Verdict.String(),
	}
}

func rateItem(w simulation.WinRate) RateItem {
	return RateItem{
		Round:     w.Round,
		AlphaWins: w.AlphaWins,
		BetaWins:  w.BetaWins,
		Draw:      w.Draw,
	}
}

func snapshotOutput(snap simulation.Snapshot, includeHistory bool) SnapshotOutput {
	total := snap.Matrix.Total()
	pairs := make([]PairItem, 0, game.NumStrategies*game.NumStrategies)
	for _, p := range game.Pairs() {
		count := snap.Matrix.Count(p)
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		pairs = append(pairs, PairItem{
			Alpha:   p.Alpha.String(),
			Beta:    p.Beta.String(),
			Count:   count,
			Percent: pct,
			Winner:  snap.CellVerdict(p).Short(),
		})
	}

	out := SnapshotOutput{
		Rounds:  snap.Rounds,
		Cap:     snap.Cap,
		Seed:    snap.Seed,
		Running: snap.Running,
		State:   snap.State.String(),
		Tally: TallyOutput{
			AlphaWins: snap.Tally.AlphaWins,
			BetaWins:  snap.Tally.BetaWins,
			Draws:     snap.Tally.Draws,
		},
		Pairs:  pairs,
		Latest: rateItem(snap.Latest()),
	}
	if includeHistory {
		out.History = make([]RateItem, 0, len(snap.History))
		for _, w := range snap.History {
			out.History = append(out.History, rateItem(w))
		}
	}
	return out
}

func summaryOutput(summary simulation.Summary) (SummaryOutput, error) {
	var report strings.Builder
	if err := visualization.WriteSummary(&report, summary); err != nil {
		return SummaryOutput{}, fmt.Errorf("render summary: %w", err)
	}

	shares := make([]ShareItem, 0, len(summary.Shares))
	for _, sh := range summary.Shares {
		shares = append(shares, ShareItem{
			Verdict: sh.Verdict.String(),
			Count:   sh.Count,
			Percent: sh.Percent,
		})
	}
	return SummaryOutput{
		Rounds:            summary.Rounds,
		Seed:              summary.Seed,
		Shares:            shares,
		MostFrequent:      summary.MostFrequent.String(),
		MostFrequentCount: summary.MostFrequentCount,
		Report:            strings.TrimSpace(report.String()),
	}, nil
}
