// Package game implements the no-limit Texas Hold'em engine for one room.
//
// The main type is Engine, a single-goroutine actor that owns all table
// state. Callers never touch state directly; Seat, Leave, SubmitAction,
// StartHand, and Snapshot enqueue messages onto the engine's mailbox and
// wait for a reply, so different rooms run fully in parallel while each
// room stays race free by construction.
//
// # Basic Usage
//
// Create an engine and run it on its own goroutine:
//
//	e := game.New("room-1", game.DefaultConfig(), broadcaster, store, logger)
//	go e.Run(ctx)
//	e.Seat(ctx, "u1", "alice")
//	e.Seat(ctx, "u2", "bob")
//	// A hand starts automatically once enough players are seated.
//	e.SubmitAction(ctx, "u1", game.Action{Type: game.Call})
//
// # Deterministic Testing
//
// Inject a mock clock and a fixed deck to replay exact hands:
//
//	mock := quartz.NewMock(t)
//	e := game.New("room-1", cfg, broadcaster, store, logger,
//		game.WithClock(mock),
//		game.WithDeckFunc(func() *poker.Deck {
//			return poker.NewDeckFrom(cards...)
//		}))
//
// # Architecture
//
// The engine delegates to specialized components:
//   - handState: per-hand betting state, created at StartHand and
//     discarded at completion
//   - TurnTimer: the per-second countdown behind the action clock
//   - buildSidePots and splitPot: settlement with all-in side pots
//   - poker.Evaluate: hand strength at showdown
//
// Game errors caused by a client (acting out of turn, illegal raises)
// are reported privately to that client and never mutate the hand.
// Storage and deck failures are fatal to the room.
package game
