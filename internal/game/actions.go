package game

import (
	"context"
	"fmt"
)

// checkAction validates an action against the betting state without
// mutating anything.
func (e *Engine) checkAction(p *PlayerState, action Action) error {
	h := e.hand
	toCall := h.currentBet - p.CommittedThisStreet
	switch action.Type {
	case Fold:
		return nil
	case Check:
		if toCall != 0 {
			return NewError(KindIllegalAction, "cannot check facing a bet of %d", h.currentBet)
		}
		return nil
	case Call:
		if toCall <= 0 {
			return NewError(KindIllegalAction, "nothing to call")
		}
		return nil
	case Raise:
		if action.Amount <= 0 {
			return NewError(KindBadInput, "raise amount must be positive")
		}
		if action.Amount-p.CommittedThisStreet > p.Stack {
			return NewError(KindInsufficientChips, "raise to %d needs %d, stack is %d", action.Amount, action.Amount-p.CommittedThisStreet, p.Stack)
		}
		if action.Amount < h.currentBet+h.minRaise {
			return NewError(KindIllegalAction, "minimum raise is to %d", h.currentBet+h.minRaise)
		}
		return nil
	case AllIn:
		if p.Stack <= 0 {
			return NewError(KindIllegalAction, "no chips remaining")
		}
		return nil
	default:
		return NewError(KindBadInput, "unknown action")
	}
}

// applyAction mutates the betting state for a validated action and
// returns the verb and chip amount to announce.
func (e *Engine) applyAction(p *PlayerState, action Action) (ActionType, int) {
	h := e.hand
	p.HasActedThisStreet = true
	switch action.Type {
	case Fold:
		p.Folded = true
		return Fold, 0
	case Check:
		return Check, 0
	case Call:
		amount := h.currentBet - p.CommittedThisStreet
		if amount >= p.Stack {
			// Short call; announced as a call, player is all in.
			amount = p.Stack
		}
		e.commit(p, amount)
		return Call, amount
	case Raise:
		amount := action.Amount - p.CommittedThisStreet
		e.commit(p, amount)
		prev := h.currentBet
		h.currentBet = action.Amount
		h.minRaise = action.Amount - prev
		h.lastAggressorPos = p.Position
		e.reopenAction(p.Position)
		return Raise, amount
	case AllIn:
		amount := p.Stack
		e.commit(p, amount)
		if p.CommittedThisStreet > h.currentBet {
			increment := p.CommittedThisStreet - h.currentBet
			h.currentBet = p.CommittedThisStreet
			// A short all-in raise sets the new bet but reopens the
			// action only when it is a full raise.
			if increment >= h.minRaise {
				h.minRaise = increment
				h.lastAggressorPos = p.Position
				e.reopenAction(p.Position)
			}
		}
		return AllIn, amount
	}
	return action.Type, 0
}

// reopenAction clears acted flags so players who already matched the
// previous bet get another turn against the raise.
func (e *Engine) reopenAction(raiserPos int) {
	for _, p := range e.seats {
		if p == nil || p.Position == raiserPos {
			continue
		}
		if p.CanAct() {
			p.HasActedThisStreet = false
		}
	}
}

func (e *Engine) applyAndAdvance(ctx context.Context, p *PlayerState, action Action) {
	verb, amount := e.applyAction(p, action)
	if err := e.store.InsertAction(ctx, e.hand.id, p.UserID, verb, amount, e.hand.street); err != nil {
		e.fail(KindStorageFailure, fmt.Errorf("insert action: %w", err))
		return
	}
	e.logger.Debug("action",
		"hand", e.handNumber,
		"user", p.UserID,
		"action", verb,
		"amount", amount,
		"pot", e.hand.pot,
		"current_bet", e.hand.currentBet)
	e.broadcaster.Broadcast(EventActionPerformed, ActionPerformedPayload{
		UserID:     p.UserID,
		Action:     verb.String(),
		Amount:     amount,
		Pot:        e.hand.pot,
		CurrentBet: e.hand.currentBet,
	})
	e.broadcaster.Broadcast(EventPotUpdated, PotUpdatedPayload{Pot: e.hand.pot})
	e.advance(ctx, p.Position)
}

// forceFold folds a player out of turn, for timeouts and mid-hand
// leaves.
func (e *Engine) forceFold(ctx context.Context, p *PlayerState) {
	p.Folded = true
	p.HasActedThisStreet = true
	if err := e.store.InsertAction(ctx, e.hand.id, p.UserID, Fold, 0, e.hand.street); err != nil {
		e.fail(KindStorageFailure, fmt.Errorf("insert action: %w", err))
		return
	}
	e.broadcaster.Broadcast(EventActionPerformed, ActionPerformedPayload{
		UserID:     p.UserID,
		Action:     Fold.String(),
		Amount:     0,
		Pot:        e.hand.pot,
		CurrentBet: e.hand.currentBet,
	})
	e.broadcaster.Broadcast(EventPotUpdated, PotUpdatedPayload{Pot: e.hand.pot})
	if e.hand.toActPos == p.Position {
		e.disarmTurnTimer()
		e.advance(ctx, p.Position)
		return
	}
	if e.contestingCount() <= 1 {
		e.disarmTurnTimer()
		e.handComplete(ctx, true)
	}
}
