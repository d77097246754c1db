package visualization

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/firstmover/internal/simulation"
)

// HistoryCSVHeader is the header row written by WriteHistoryCSV.
var HistoryCSVHeader = []string{"round", "alpha_wins_pct", "beta_wins_pct", "draw_pct"}

// WriteHistoryCSV exports the rolling win-rate history, one row per round.
func WriteHistoryCSV(w io.Writer, history []simulation.WinRate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, h := range history {
		row := []string{
			strconv.Itoa(h.Round),
			formatPercent(h.AlphaWins),
			formatPercent(h.BetaWins),
			formatPercent(h.Draw),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", h.Round, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
