package game

import (
	"pokerroomd/poker"
)

// Event names broadcast to room clients. Hole cards travel only on the
// private channel.
const (
	EventHandStarted      = "hand_started"
	EventPotUpdated       = "pot_updated"
	EventActionPerformed  = "action_performed"
	EventStreetAdvanced   = "street_advanced"
	EventTurnStarted      = "turn_started"
	EventTurnTick         = "turn_tick"
	EventWinnerDetermined = "winner_determined"
	EventStacksUpdated    = "stacks_updated"
	EventPositionsUpdated = "positions_updated"
	EventGameEnded        = "game_ended"
	EventGameError        = "game_error"
	EventHoleCardsDealt   = "hole_cards_dealt"
)

// Broadcaster fans events out to the clients of one room. Broadcast
// reaches every connected client; SendPrivate reaches only the sockets
// authenticated as userID. Implementations must be safe for concurrent
// use and must not block the caller.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
	SendPrivate(userID string, event string, payload interface{})
}

type HandStartedPayload struct {
	HandNumber int64 `json:"hand_number"`
	DealerPos  int   `json:"dealer_pos"`
	SBPos      int   `json:"sb_pos"`
	BBPos      int   `json:"bb_pos"`
	Pot        int   `json:"pot"`
}

type PotUpdatedPayload struct {
	Pot int `json:"pot"`
}

type ActionPerformedPayload struct {
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	Amount     int    `json:"amount"`
	Pot        int    `json:"pot"`
	CurrentBet int    `json:"current_bet"`
}

type StreetAdvancedPayload struct {
	Street string       `json:"street"`
	Board  []poker.Card `json:"board"`
	Pot    int          `json:"pot"`
}

type TurnStartedPayload struct {
	UserID        string `json:"user_id"`
	Position      int    `json:"position"`
	TimeRemaining int    `json:"time_remaining"`
	CurrentBet    int    `json:"current_bet"`
	MinRaise      int    `json:"min_raise"`
	CallAmount    int    `json:"call_amount"`
}

type TurnTickPayload struct {
	TimeRemaining int `json:"time_remaining"`
}

type WinnerPayload struct {
	UserID       string       `json:"user_id"`
	AmountWon    int          `json:"amount_won"`
	HandRankName string       `json:"hand_rank_name"`
	HoleCards    []poker.Card `json:"hole_cards,omitempty"`
}

type WinnerDeterminedPayload struct {
	Winners []WinnerPayload `json:"winners"`
	Pot     int             `json:"pot"`
	Board   []poker.Card    `json:"board"`
}

type PlayerStackPayload struct {
	UserID     string `json:"user_id"`
	Stack      int    `json:"stack"`
	Eliminated bool   `json:"eliminated"`
}

type StacksUpdatedPayload struct {
	Players []PlayerStackPayload `json:"players"`
}

type PositionsUpdatedPayload struct {
	DealerPos int `json:"dealer_pos"`
	SBPos     int `json:"sb_pos"`
	BBPos     int `json:"bb_pos"`
}

type GameWinnerPayload struct {
	UserID string `json:"user_id"`
	Stack  int    `json:"stack"`
}

type GameEndedPayload struct {
	Winner *GameWinnerPayload `json:"winner,omitempty"`
}

type GameErrorPayload struct {
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

type HoleCardsDealtPayload struct {
	HoleCards []poker.Card `json:"hole_cards"`
}
