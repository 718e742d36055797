package game

import "pokerroomd/poker"

// SeatSnapshot is one player's visible state. HoleCards are filled in
// only on the viewer's own seat.
type SeatSnapshot struct {
	UserID              string       `json:"user_id"`
	Username            string       `json:"username"`
	Position            int          `json:"position"`
	Stack               int          `json:"stack"`
	Folded              bool         `json:"folded"`
	AllIn               bool         `json:"all_in"`
	CommittedThisStreet int          `json:"committed_this_street"`
	CommittedThisHand   int          `json:"committed_this_hand"`
	Eliminated          bool         `json:"eliminated"`
	InHand              bool         `json:"in_hand"`
	HoleCards           []poker.Card `json:"hole_cards,omitempty"`
}

// Snapshot is the full room state as one player may see it. Reconnects
// replay this instead of the event history.
type Snapshot struct {
	RoomID        string         `json:"room_id"`
	State         string         `json:"state"`
	HandNumber    int64          `json:"hand_number"`
	Street        string         `json:"street,omitempty"`
	Board         []poker.Card   `json:"board,omitempty"`
	Pot           int            `json:"pot"`
	CurrentBet    int            `json:"current_bet"`
	MinRaise      int            `json:"min_raise"`
	ToActPos      int            `json:"to_act_pos"`
	DealerPos     int            `json:"dealer_pos"`
	SBPos         int            `json:"sb_pos"`
	BBPos         int            `json:"bb_pos"`
	TimeRemaining int            `json:"time_remaining,omitempty"`
	Players       []SeatSnapshot `json:"players"`
}

func (e *Engine) snapshot(forUser string) Snapshot {
	snap := Snapshot{
		RoomID:     e.roomID,
		State:      e.state.String(),
		HandNumber: e.handNumber,
		ToActPos:   -1,
		DealerPos:  e.dealerPos,
		SBPos:      e.sbPos,
		BBPos:      e.bbPos,
	}
	if e.hand != nil {
		snap.Street = e.hand.street.String()
		snap.Board = append([]poker.Card(nil), e.hand.board...)
		snap.Pot = e.hand.pot
		snap.CurrentBet = e.hand.currentBet
		snap.MinRaise = e.hand.minRaise
		snap.ToActPos = e.hand.toActPos
		if e.hand.toActPos >= 0 {
			snap.TimeRemaining = e.timer.Remaining()
		}
	}
	for _, p := range e.seats {
		if p == nil {
			continue
		}
		seat := SeatSnapshot{
			UserID:              p.UserID,
			Username:            p.Username,
			Position:            p.Position,
			Stack:               p.Stack,
			Folded:              p.Folded,
			AllIn:               p.AllIn,
			CommittedThisStreet: p.CommittedThisStreet,
			CommittedThisHand:   p.CommittedThisHand,
			Eliminated:          p.Eliminated,
			InHand:              p.InHand,
		}
		if p.UserID == forUser && len(p.HoleCards) > 0 {
			seat.HoleCards = append([]poker.Card(nil), p.HoleCards...)
		}
		snap.Players = append(snap.Players, seat)
	}
	return snap
}
