package game

import (
	"testing"
	"time"
)

// A full 30 second countdown ticks down to zero and folds the player
// who never acted.
func TestEngineTurnTimeoutAutoFolds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.InterHandPause = time.Hour
	fix := newEngineFixture(t, cfg, riggedDeck(t, "Kh Qh Ah Ks Qs Ad"))
	fix.seatAll("alice", "bob", "carol")
	fix.start()
	fix.startHand()

	turn := fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "alice" || turn.TimeRemaining != 30 {
		t.Fatalf("Expected alice with 30 seconds, got %+v", turn)
	}

	advanceSeconds(t, fix.mock, 30)

	for want := 29; want >= 0; want-- {
		ev := fix.bcast.next(t)
		if ev.event != EventTurnTick {
			t.Fatalf("Expected tick %d, got %s event", want, ev.event)
		}
		if got := ev.payload.(TurnTickPayload).TimeRemaining; got != want {
			t.Fatalf("Expected tick %d, got %d", want, got)
		}
	}

	perf := fix.bcast.waitFor(t, EventActionPerformed).payload.(ActionPerformedPayload)
	if perf.UserID != "alice" || perf.Action != "fold" {
		t.Fatalf("Expected alice folded by timeout, got %+v", perf)
	}

	turn = fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "bob" || turn.TimeRemaining != 30 {
		t.Fatalf("Expected a fresh 30 seconds for bob, got %+v", turn)
	}

	actions := fix.store.actionRecords()
	if len(actions) != 1 || actions[0].userID != "alice" || actions[0].action != Fold {
		t.Errorf("Expected alice's timeout fold on record, got %+v", actions)
	}
}

// Acting disarms the countdown; the next player starts from the full
// allowance, not the remainder.
func TestEngineActionStopsCountdown(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh Qh Ah Ks Qs Ad 2c 3d 5s"))
	fix.seatAll("alice", "bob", "carol")
	fix.start()
	fix.startHand()
	fix.bcast.waitFor(t, EventTurnStarted)

	advanceSeconds(t, fix.mock, 2)
	for _, want := range []int{4, 3} {
		tick := fix.bcast.waitFor(t, EventTurnTick).payload.(TurnTickPayload)
		if tick.TimeRemaining != want {
			t.Fatalf("Expected tick %d, got %d", want, tick.TimeRemaining)
		}
	}

	fix.mustAct("alice", Action{Type: Call})
	turn := fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "bob" || turn.TimeRemaining != 5 {
		t.Fatalf("Expected bob with a fresh clock, got %+v", turn)
	}

	advanceSeconds(t, fix.mock, 1)
	tick := fix.bcast.waitFor(t, EventTurnTick).payload.(TurnTickPayload)
	if tick.TimeRemaining != 4 {
		t.Errorf("Expected the new countdown at 4, got %d", tick.TimeRemaining)
	}
}

// A player leaving out of turn is folded immediately without touching
// the acting player's countdown, and the seat frees up after the hand.
func TestEngineLeaveMidHandOutOfTurn(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh Qh Ah Ks Qs Ad"))
	fix.seatAll("alice", "bob", "carol")
	fix.start()
	fix.startHand()
	fix.bcast.waitFor(t, EventTurnStarted)

	if err := fix.engine.Leave(fix.ctx, "bob"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	perf := fix.bcast.waitFor(t, EventActionPerformed).payload.(ActionPerformedPayload)
	if perf.UserID != "bob" || perf.Action != "fold" {
		t.Fatalf("Expected bob force-folded, got %+v", perf)
	}

	// Alice's countdown keeps running from where it was.
	advanceSeconds(t, fix.mock, 1)
	tick := fix.bcast.waitFor(t, EventTurnTick).payload.(TurnTickPayload)
	if tick.TimeRemaining != 4 {
		t.Errorf("Expected alice's clock at 4, got %d", tick.TimeRemaining)
	}

	fix.mustAct("alice", Action{Type: Fold})
	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 1 || won.Winners[0].UserID != "carol" || won.Winners[0].AmountWon != 30 {
		t.Fatalf("Expected carol winning 30, got %+v", won.Winners)
	}

	// Bob's seat is released once the hand settles.
	stacks := fix.bcast.waitFor(t, EventStacksUpdated).payload.(StacksUpdatedPayload)
	if len(stacks.Players) != 2 {
		t.Fatalf("Expected bob gone from the table, got %+v", stacks.Players)
	}
	for _, p := range stacks.Players {
		if p.UserID == "bob" {
			t.Errorf("bob should have been released")
		}
	}

	snap, err := fix.engine.Snapshot(fix.ctx, "alice")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Players) != 2 {
		t.Errorf("Expected 2 seated players, got %d", len(snap.Players))
	}
}

// Leaving during your own turn folds you and play moves on at once.
func TestEngineLeaveDuringOwnTurn(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh Qh Ah Ks Qs Ad"))
	fix.seatAll("alice", "bob", "carol")
	fix.start()
	fix.startHand()

	turn := fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "alice" {
		t.Fatalf("Expected alice to act, got %s", turn.UserID)
	}

	if err := fix.engine.Leave(fix.ctx, "alice"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	perf := fix.bcast.waitFor(t, EventActionPerformed).payload.(ActionPerformedPayload)
	if perf.UserID != "alice" || perf.Action != "fold" {
		t.Fatalf("Expected alice folded on leave, got %+v", perf)
	}

	turn = fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "bob" {
		t.Fatalf("Expected play to pass to bob, got %s", turn.UserID)
	}

	fix.mustAct("bob", Action{Type: Fold})
	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 1 || won.Winners[0].UserID != "carol" {
		t.Fatalf("Expected carol to win, got %+v", won.Winners)
	}
}
