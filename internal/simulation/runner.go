package simulation

import (
	"context"

	"github.com/nvandessel/firstmover/internal/game"
)

// Run steps e until the round cap is reached and returns the summary.
// observe, if non-nil, receives every outcome in order. The context is
// checked between rounds; on cancellation the engine keeps the rounds
// played so far and the context error is returned.
func Run(ctx context.Context, e *Engine, observe func(game.RoundOutcome)) (Summary, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}

		outcome, err := e.Step()
		if err != nil {
			return Summary{}, err
		}
		if outcome == nil {
			break
		}
		if observe != nil {
			observe(*outcome)
		}
	}
	return e.Summary()
}
