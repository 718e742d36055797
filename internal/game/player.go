package game

import (
	"pokerroomd/poker"
)

// PlayerState tracks a seated player across hands. Per-hand fields are
// reset by StartHand; Position is fixed for the life of the seat.
type PlayerState struct {
	UserID   string
	Username string
	Position int
	Stack    int

	HoleCards           []poker.Card
	Folded              bool
	AllIn               bool
	CommittedThisStreet int
	CommittedThisHand   int
	HasActedThisStreet  bool

	// InHand is set when the player is dealt into the current hand.
	// Players seated mid-hand wait for the next one.
	InHand bool

	Eliminated bool

	// pendingLeave marks a player who left mid-hand; their seat is
	// released when the hand completes.
	pendingLeave bool
}

// CanAct reports whether the player may be assigned the turn.
func (p *PlayerState) CanAct() bool {
	return p.InHand && !p.Folded && !p.AllIn
}

// Contesting reports whether the player still has a claim on the pot.
func (p *PlayerState) Contesting() bool {
	return p.InHand && !p.Folded
}

// resetForHand clears per-hand state ahead of a new deal.
func (p *PlayerState) resetForHand() {
	p.HoleCards = nil
	p.Folded = false
	p.AllIn = false
	p.CommittedThisStreet = 0
	p.CommittedThisHand = 0
	p.HasActedThisStreet = false
	p.InHand = false
}
