package game

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// ActionType represents a player action verb
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Raise
	AllIn
)

func (a ActionType) String() string {
	return [...]string{"fold", "check", "call", "raise", "all_in"}[a]
}

// Action is a submitted player action. Amount is the total bet target
// for Raise ("raise to"), and is ignored for every other action type.
type Action struct {
	Type   ActionType
	Amount int
}

// ParseActionType converts a wire action string to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise":
		return Raise, nil
	case "all_in":
		return AllIn, nil
	default:
		return Fold, NewError(KindBadInput, "unknown action %q", s)
	}
}
