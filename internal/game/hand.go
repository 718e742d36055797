package game

import (
	"context"
	"fmt"

	"pokerroomd/poker"
)

// handState is the per-hand betting state. It exists only between
// startHand and handComplete.
type handState struct {
	id   int64
	deck *poker.Deck

	board  []poker.Card
	street Street

	pot        int
	currentBet int
	minRaise   int

	lastAggressorPos int
	toActPos         int
}

func (e *Engine) startHand(ctx context.Context) error {
	e.startScheduled = false
	switch e.state {
	case stateInHand:
		return fmt.Errorf("hand %d is still in progress", e.handNumber)
	case stateEnded, stateFailed:
		return fmt.Errorf("room is %s", e.state)
	}
	if e.readyPlayers() < e.cfg.MinPlayers {
		return fmt.Errorf("need %d players with chips, have %d", e.cfg.MinPlayers, e.readyPlayers())
	}

	e.handNumber++
	for _, p := range e.seats {
		if p == nil {
			continue
		}
		p.resetForHand()
		p.InHand = !p.Eliminated && p.Stack > 0
	}
	if e.dealerPos == -1 {
		e.dealerPos = e.firstOccupied()
	}
	e.computeBlindPositions()
	e.handChipTotal = e.inHandChips()

	e.hand = &handState{
		deck:             e.deckFunc(),
		street:           Preflop,
		currentBet:       e.cfg.BigBlind,
		minRaise:         e.cfg.BigBlind,
		lastAggressorPos: e.bbPos,
		toActPos:         -1,
	}
	e.state = stateInHand

	e.postBlind(e.seats[e.sbPos], e.cfg.SmallBlind)
	e.postBlind(e.seats[e.bbPos], e.cfg.BigBlind)

	if err := e.dealHoleCards(); err != nil {
		e.fail(KindDeckExhausted, err)
		return nil
	}
	if err := e.persistHandStart(ctx); err != nil {
		e.fail(KindStorageFailure, err)
		return nil
	}

	e.logger.Info("hand started",
		"hand", e.handNumber,
		"dealer", e.dealerPos,
		"sb", e.sbPos,
		"bb", e.bbPos,
		"players", e.contestingCount(),
		"pot", e.hand.pot)
	e.broadcaster.Broadcast(EventHandStarted, HandStartedPayload{
		HandNumber: e.handNumber,
		DealerPos:  e.dealerPos,
		SBPos:      e.sbPos,
		BBPos:      e.bbPos,
		Pot:        e.hand.pot,
	})
	for _, p := range e.playersInHand() {
		e.broadcaster.SendPrivate(p.UserID, EventHoleCardsDealt, HoleCardsDealtPayload{HoleCards: p.HoleCards})
	}

	e.advance(ctx, e.bbPos)
	return nil
}

// postBlind commits a forced bet. Short stacks post what they have and
// are all in; blinds do not count as acting.
func (e *Engine) postBlind(p *PlayerState, amount int) {
	if amount > p.Stack {
		amount = p.Stack
	}
	e.commit(p, amount)
}

func (e *Engine) commit(p *PlayerState, amount int) {
	p.Stack -= amount
	p.CommittedThisStreet += amount
	p.CommittedThisHand += amount
	e.hand.pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// dealHoleCards deals one card at a time, two passes, clockwise from
// the dealer's left.
func (e *Engine) dealHoleCards() error {
	order := make([]*PlayerState, 0, len(e.seats))
	for i := 1; i <= len(e.seats); i++ {
		p := e.seats[(e.dealerPos+i)%len(e.seats)]
		if p != nil && p.InHand {
			order = append(order, p)
		}
	}
	for pass := 0; pass < 2; pass++ {
		for _, p := range order {
			cards, err := e.hand.deck.Deal(1)
			if err != nil {
				return err
			}
			p.HoleCards = append(p.HoleCards, cards[0])
		}
	}
	return nil
}

func (e *Engine) persistHandStart(ctx context.Context) error {
	id, err := e.store.InsertHand(ctx, e.roomID, e.handNumber, e.dealerPos, e.sbPos, e.bbPos, e.hand.street, e.hand.pot)
	if err != nil {
		return fmt.Errorf("insert hand: %w", err)
	}
	e.hand.id = id
	for _, p := range e.playersInHand() {
		if err := e.store.InsertHoleCards(ctx, id, p.UserID, p.HoleCards[0], p.HoleCards[1]); err != nil {
			return fmt.Errorf("insert hole cards for %s: %w", p.UserID, err)
		}
	}
	return nil
}

// advance moves the hand forward after an action at anchor: to the
// next player owing a decision, to the next street, or to completion.
func (e *Engine) advance(ctx context.Context, anchor int) {
	if e.state != stateInHand {
		return
	}
	if e.contestingCount() <= 1 {
		e.handComplete(ctx, true)
		return
	}
	next := e.nextPendingActor(anchor)
	if next == -1 {
		e.finishStreet(ctx)
		return
	}
	e.beginTurn(next)
}

// nextPendingActor scans clockwise from anchor for a player who still
// owes a decision this street. Returns -1 when the round is complete.
func (e *Engine) nextPendingActor(anchor int) int {
	n := len(e.seats)
	for i := 1; i <= n; i++ {
		pos := (anchor + i) % n
		p := e.seats[pos]
		if p == nil || !p.CanAct() {
			continue
		}
		if !p.HasActedThisStreet || p.CommittedThisStreet != e.hand.currentBet {
			return pos
		}
	}
	return -1
}

func (e *Engine) beginTurn(pos int) {
	e.hand.toActPos = pos
	p := e.seats[pos]
	callAmount := e.hand.currentBet - p.CommittedThisStreet
	if callAmount < 0 {
		callAmount = 0
	}
	if callAmount > p.Stack {
		callAmount = p.Stack
	}
	e.broadcaster.Broadcast(EventTurnStarted, TurnStartedPayload{
		UserID:        p.UserID,
		Position:      pos,
		TimeRemaining: e.cfg.TurnSeconds,
		CurrentBet:    e.hand.currentBet,
		MinRaise:      e.hand.minRaise,
		CallAmount:    callAmount,
	})
	e.armTurnTimer()
}

func (e *Engine) finishStreet(ctx context.Context) {
	if e.hand.street == River {
		e.handComplete(ctx, false)
		return
	}
	e.nextStreet(ctx)
}

// nextStreet deals the next board cards and opens a fresh betting
// round. With fewer than two players able to act it cascades straight
// through to showdown, broadcasting each street on the way.
func (e *Engine) nextStreet(ctx context.Context) {
	h := e.hand
	for _, p := range e.seats {
		if p == nil || !p.Contesting() {
			continue
		}
		p.CommittedThisStreet = 0
		p.HasActedThisStreet = p.AllIn
	}
	h.currentBet = 0
	h.minRaise = e.cfg.BigBlind
	h.lastAggressorPos = -1
	h.toActPos = -1
	h.street++

	n := 1
	if h.street == Flop {
		n = 3
	}
	cards, err := h.deck.Deal(n)
	if err != nil {
		e.fail(KindDeckExhausted, err)
		return
	}
	h.board = append(h.board, cards...)

	if err := e.store.UpdateHandBoardStreetPot(ctx, h.id, h.board, h.street, h.pot); err != nil {
		e.fail(KindStorageFailure, fmt.Errorf("update hand: %w", err))
		return
	}

	e.logger.Info("street advanced",
		"hand", e.handNumber,
		"street", h.street,
		"board", poker.FormatCards(h.board),
		"pot", h.pot)
	e.broadcaster.Broadcast(EventStreetAdvanced, StreetAdvancedPayload{
		Street: h.street.String(),
		Board:  h.board,
		Pot:    h.pot,
	})

	if e.actableCount() < 2 {
		e.finishStreet(ctx)
		return
	}
	e.beginTurn(e.nextPendingActor(e.dealerPos))
}

type award struct {
	pos      int
	amount   int
	rankName string
	reveal   bool
}

// handComplete settles the pot, persists the result, and announces the
// winners. foldOut marks hands that ended without a showdown.
func (e *Engine) handComplete(ctx context.Context, foldOut bool) {
	e.disarmTurnTimer()
	h := e.hand
	h.toActPos = -1
	totalPot := h.pot

	showdown := !foldOut && e.contestingCount() > 1
	var awards []award
	if showdown {
		h.street = Showdown
		awards = e.showdownAwards()
	} else {
		// Everyone else folded; no cards are revealed.
		pos := -1
		for _, p := range e.seats {
			if p != nil && p.Contesting() {
				pos = p.Position
				break
			}
		}
		if pos == -1 {
			e.logger.Error("hand completed with no contesting player", "hand", e.handNumber, "pot", totalPot)
			e.finishHand()
			return
		}
		awards = append(awards, award{pos: pos, amount: totalPot, rankName: "Win by fold"})
	}

	// The hand row carries the final board, street, and pot before the
	// winner rows reference it.
	if err := e.store.UpdateHandBoardStreetPot(ctx, h.id, h.board, h.street, h.pot); err != nil {
		e.fail(KindStorageFailure, fmt.Errorf("update hand: %w", err))
		return
	}

	awarded := 0
	for _, a := range awards {
		e.seats[a.pos].Stack += a.amount
		awarded += a.amount
	}
	if awarded != totalPot {
		e.logger.Error("pot distribution mismatch", "hand", e.handNumber, "pot", totalPot, "awarded", awarded)
	}
	if got := e.inHandChips(); got != e.handChipTotal {
		e.logger.Error("chip conservation violated", "hand", e.handNumber, "before", e.handChipTotal, "after", got)
	}

	winners := make([]WinnerPayload, 0, len(awards))
	for _, a := range awards {
		p := e.seats[a.pos]
		w := WinnerPayload{
			UserID:       p.UserID,
			AmountWon:    a.amount,
			HandRankName: a.rankName,
		}
		if a.reveal {
			w.HoleCards = p.HoleCards
		}
		winners = append(winners, w)
		if err := e.store.InsertWinner(ctx, h.id, p.UserID, a.amount, a.rankName); err != nil {
			e.fail(KindStorageFailure, fmt.Errorf("insert winner: %w", err))
			return
		}
	}
	if err := e.store.MarkHandCompleted(ctx, h.id); err != nil {
		e.fail(KindStorageFailure, fmt.Errorf("mark hand completed: %w", err))
		return
	}

	e.logger.Info("hand complete",
		"hand", e.handNumber,
		"pot", totalPot,
		"winners", len(winners),
		"showdown", showdown)
	e.broadcaster.Broadcast(EventWinnerDetermined, WinnerDeterminedPayload{
		Winners: winners,
		Pot:     totalPot,
		Board:   h.board,
	})

	e.finishHand()
}

// showdownAwards evaluates every live hand against the board and
// settles each side pot separately. Award order follows clockwise
// position from the dealer's left.
func (e *Engine) showdownAwards() []award {
	pots := buildSidePots(e.seats)

	type result struct {
		amount   int
		rankName string
	}
	byPos := make(map[int]*result)
	for _, pot := range pots {
		winners, rankNames := e.findPotWinners(pot.Eligible)
		if len(winners) == 0 {
			e.logger.Error("pot with no evaluable winner", "hand", e.handNumber, "amount", pot.Amount)
			continue
		}
		shares := splitPot(pot.Amount, winners, e.dealerPos, len(e.seats))
		for pos, share := range shares {
			r := byPos[pos]
			if r == nil {
				r = &result{rankName: rankNames[pos]}
				byPos[pos] = r
			}
			r.amount += share
		}
	}

	var awards []award
	n := len(e.seats)
	for i := 1; i <= n; i++ {
		pos := (e.dealerPos + i) % n
		if r, ok := byPos[pos]; ok {
			awards = append(awards, award{pos: pos, amount: r.amount, rankName: r.rankName, reveal: true})
		}
	}
	return awards
}

// findPotWinners evaluates the eligible hands and returns the
// positions holding the strongest rank, plus each eligible player's
// rank name for announcements.
func (e *Engine) findPotWinners(eligible []int) ([]int, map[int]string) {
	ranks := make([]poker.HandRank, 0, len(eligible))
	positions := make([]int, 0, len(eligible))
	rankNames := make(map[int]string, len(eligible))
	for _, pos := range eligible {
		p := e.seats[pos]
		rank, err := poker.Evaluate(p.HoleCards, e.hand.board)
		if err != nil {
			e.logger.Error("hand evaluation failed", "hand", e.handNumber, "user", p.UserID, "error", err)
			continue
		}
		ranks = append(ranks, rank)
		positions = append(positions, pos)
		rankNames[pos] = rank.Category.String()
	}
	if len(ranks) == 0 {
		return nil, nil
	}
	var winners []int
	for _, i := range poker.FindWinners(ranks) {
		winners = append(winners, positions[i])
	}
	return winners, rankNames
}

// finishHand tears down the hand, rotates the button, and either
// schedules the next hand or ends the game.
func (e *Engine) finishHand() {
	e.hand = nil
	e.state = stateIdle

	for i, p := range e.seats {
		if p != nil && p.pendingLeave {
			e.logger.Info("releasing seat after hand", "user", p.UserID, "position", i)
			e.seats[i] = nil
		}
	}

	e.rotate()

	stacks := make([]PlayerStackPayload, 0, len(e.seats))
	for _, p := range e.seats {
		if p == nil {
			continue
		}
		stacks = append(stacks, PlayerStackPayload{
			UserID:     p.UserID,
			Stack:      p.Stack,
			Eliminated: p.Eliminated,
		})
	}
	e.broadcaster.Broadcast(EventStacksUpdated, StacksUpdatedPayload{Players: stacks})
	e.broadcaster.Broadcast(EventPositionsUpdated, PositionsUpdatedPayload{
		DealerPos: e.dealerPos,
		SBPos:     e.sbPos,
		BBPos:     e.bbPos,
	})

	if e.readyPlayers() < e.cfg.MinPlayers {
		e.state = stateEnded
		var winner *GameWinnerPayload
		for _, p := range e.seats {
			if p != nil && !p.Eliminated && p.Stack > 0 {
				winner = &GameWinnerPayload{UserID: p.UserID, Stack: p.Stack}
				break
			}
		}
		e.logger.Info("game over", "hands_played", e.handNumber, "winner", gameWinnerID(winner))
		e.broadcaster.Broadcast(EventGameEnded, GameEndedPayload{Winner: winner})
		return
	}
	e.maybeScheduleStart()
}

func gameWinnerID(w *GameWinnerPayload) string {
	if w == nil {
		return ""
	}
	return w.UserID
}

// rotate eliminates busted players and advances the button to the next
// eligible seat.
func (e *Engine) rotate() {
	for _, p := range e.seats {
		if p != nil && !p.Eliminated && p.Stack == 0 {
			p.Eliminated = true
			e.logger.Info("player eliminated", "user", p.UserID, "position", p.Position, "hand", e.handNumber)
		}
	}
	if next := e.nextEligible(e.dealerPos); next != -1 {
		e.dealerPos = next
	}
	e.computeBlindPositions()
}

// computeBlindPositions derives the blinds from the dealer. Heads up
// the dealer posts the small blind.
func (e *Engine) computeBlindPositions() {
	if e.dealerPos == -1 || e.seats[e.dealerPos] == nil || e.seats[e.dealerPos].Eliminated {
		if next := e.nextEligible(e.dealerPos); next != -1 {
			e.dealerPos = next
		}
	}
	eligible := e.readyPlayers()
	if eligible < 2 {
		e.sbPos = -1
		e.bbPos = -1
		return
	}
	if eligible == 2 {
		e.sbPos = e.dealerPos
		e.bbPos = e.nextEligible(e.dealerPos)
		return
	}
	e.sbPos = e.nextEligible(e.dealerPos)
	e.bbPos = e.nextEligible(e.sbPos)
}

// nextEligible scans clockwise from pos for a seat that can be dealt
// into the next hand.
func (e *Engine) nextEligible(pos int) int {
	n := len(e.seats)
	if pos < 0 {
		pos = n - 1
	}
	for i := 1; i <= n; i++ {
		cand := (pos + i) % n
		p := e.seats[cand]
		if p != nil && !p.Eliminated && p.Stack > 0 {
			return cand
		}
	}
	return -1
}

func (e *Engine) firstOccupied() int {
	for i, p := range e.seats {
		if p != nil && !p.Eliminated && p.Stack > 0 {
			return i
		}
	}
	return -1
}

func (e *Engine) contestingCount() int {
	n := 0
	for _, p := range e.seats {
		if p != nil && p.Contesting() {
			n++
		}
	}
	return n
}

func (e *Engine) actableCount() int {
	n := 0
	for _, p := range e.seats {
		if p != nil && p.CanAct() {
			n++
		}
	}
	return n
}

func (e *Engine) playersInHand() []*PlayerState {
	var out []*PlayerState
	for _, p := range e.seats {
		if p != nil && p.InHand {
			out = append(out, p)
		}
	}
	return out
}

// inHandChips sums the stacks of dealt-in players. Captured before the
// blinds and compared after distribution; players who join mid-hand are
// outside the hand's chip flow and excluded.
func (e *Engine) inHandChips() int {
	total := 0
	for _, p := range e.seats {
		if p != nil && p.InHand {
			total += p.Stack
		}
	}
	return total
}
