package visualization

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/firstmover/internal/game"
	"github.com/nvandessel/firstmover/internal/simulation"
)

// barWidth is the width in cells of a full-cap bar.
const barWidth = 40

// CellLabel formats one heatmap cell: the count, its share of all rounds and
// the winner tag, one per line. Empty cells render as "0".
func CellLabel(count, total int, v game.Verdict) string {
	if total <= 0 || count <= 0 {
		return "0"
	}
	pct := float64(count) / float64(total) * 100
	return fmt.Sprintf("%d\n(%.0f%%)\n[%s]", count, pct, v.Short())
}

// RenderText writes a terminal dashboard for snap: the win counts as bars
// scaled to the round cap, the strategy-pair heatmap and the latest rolling
// win rates.
func RenderText(w io.Writer, snap simulation.Snapshot) error {
	var b strings.Builder

	status := "paused"
	if snap.Running {
		status = "running"
	}
	if snap.State == simulation.StateCapped {
		status = "complete"
	}
	fmt.Fprintf(&b, "Round %d/%d  seed %d  [%s]\n\n", snap.Rounds, snap.Cap, snap.Seed, status)

	b.WriteString("Win Counts\n")
	for _, v := range game.Verdicts {
		count := snap.Tally.Count(v)
		fmt.Fprintf(&b, "  %-10s %s %d\n", v, bar(count, snap.Cap), count)
	}

	b.WriteString("\nAll Strategy Outcomes (rows Alpha, columns Beta)\n")
	writeHeatmap(&b, snap)

	latest := snap.Latest()
	b.WriteString("\nRolling Win Rate\n")
	fmt.Fprintf(&b, "  Alpha wins %5.1f%%  Beta wins %5.1f%%  Draws %5.1f%%\n",
		latest.AlphaWins, latest.BetaWins, latest.Draw)

	_, err := io.WriteString(w, b.String())
	return err
}

func bar(count, roundCap int) string {
	if roundCap <= 0 || count <= 0 {
		return strings.Repeat(".", barWidth)
	}
	filled := count * barWidth / roundCap
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}

// writeHeatmap lays the multi-line cell labels out side by side.
func writeHeatmap(b *strings.Builder, snap simulation.Snapshot) {
	const cellWidth = 10
	total := snap.Matrix.Total()

	fmt.Fprintf(b, "  %-6s", "")
	for _, beta := range game.Strategies {
		fmt.Fprintf(b, "%-*s", cellWidth, beta)
	}
	b.WriteString("\n")

	for _, alpha := range game.Strategies {
		var cells [game.NumStrategies][]string
		lines := 1
		for j, beta := range game.Strategies {
			p := game.Pair{Alpha: alpha, Beta: beta}
			cells[j] = strings.Split(CellLabel(snap.Matrix.Count(p), total, snap.CellVerdict(p)), "\n")
			if len(cells[j]) > lines {
				lines = len(cells[j])
			}
		}
		for line := 0; line < lines; line++ {
			label := ""
			if line == 0 {
				label = alpha.String()
			}
			fmt.Fprintf(b, "  %-6s", label)
			for j := range cells {
				text := ""
				if line < len(cells[j]) {
					text = cells[j][line]
				}
				fmt.Fprintf(b, "%-*s", cellWidth, text)
			}
			b.WriteString("\n")
		}
	}
}

// WriteSummary writes the end-of-run report.
func WriteSummary(w io.Writer, s simulation.Summary) error {
	var b strings.Builder
	b.WriteString("\n=== Simulation Summary ===\n")
	fmt.Fprintf(&b, "Total Games: %d\n", s.Rounds)
	for _, v := range game.Verdicts {
		share := s.Share(v)
		fmt.Fprintf(&b, "%s: %d games (%.1f%%)\n", v, share.Count, share.Percent)
	}
	fmt.Fprintf(&b, "Most common strategy pair: %s -> %d times\n\n", s.MostFrequent, s.MostFrequentCount)

	_, err := io.WriteString(w, b.String())
	return err
}
