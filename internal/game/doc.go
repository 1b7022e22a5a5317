// Package game implements the authoritative state machine for a poker table.
//
// State lives in a Table plus its seated Players. Nothing mutates that state
// except Event application: the Controller validates an Action, emits the
// Events that describe its consequences, and applies each one through a single
// apply function. Replaying the same Events onto the same Snapshot therefore
// reproduces the same state.
//
// # Basic Usage
//
//	c, err := game.NewRingController(table, game.WithLedger(l))
//	if err != nil { ... }
//	c.Dispatch(game.Action{Type: game.ActionTakeSeat, PlayerID: "alice", Seat: 0, Amount: 200})
//	c.Dispatch(game.Action{Type: game.ActionTakeSeat, PlayerID: "bob", Seat: 1, Amount: 200})
//	c.Step() // deals the first hand
//
//	acc := c.Accessor()
//	next := acc.NextToAct()
//	c.Dispatch(game.Action{Type: game.ActionCall, PlayerID: next.ID})
//	c.Step()
//
// # Deterministic Hands
//
// SetupHand accepts a predetermined deck and blind positions so tests and the
// replayer can reproduce any hand exactly:
//
//	c.SetupHand(game.WithDeck("AsKs2c7d..."), game.WithBlindPositions(0, 1, 2))
//
// # Variants
//
// NewRingController, NewFreezeoutController and NewBountyController share one
// Controller and differ only in their Rules: buy-ins and cash-outs, blind
// schedules, eliminations and the 7-2 bounty.
package game
