// Package simulation aggregates rounds of the Early vs. Wait game.
//
// An Engine owns a seeded random source and, per round, draws one strategy for
// each player, resolves the payoff, and updates three aggregates: the verdict
// tally, the strategy-pair matrix and the rolling win-rate history. Hosts drive
// it one round at a time with Step and observe it through Snapshot copies.
//
// Usage:
//
//	e, err := simulation.New(simulation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	summary, err := simulation.Run(ctx, e, nil)
//
// The assertion helpers in this package check the aggregate invariants and are
// meant for tests in this and dependent packages.
package simulation
