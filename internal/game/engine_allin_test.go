package game

import (
	"testing"
)

// Three stacks of 100/500/500 all in preflop. The short stack wins the
// main pot, the better of the big stacks wins the side pot, and the
// remaining streets run out with no one to act.
func TestEngineSidePotsAtShowdown(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh Qh Ah Ks Qs Ad 2c 3d 5s 8h 9c"))
	fix.seatAll("alice", "bob", "carol")
	fix.engine.seats[0].Stack = 100
	fix.engine.seats[1].Stack = 500
	fix.engine.seats[2].Stack = 500
	fix.start()
	fix.startHand()

	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("alice", Action{Type: AllIn})

	// A full all-in raise to 100 reopens with its 80 increment.
	turn := fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "bob" || turn.CurrentBet != 100 || turn.MinRaise != 80 || turn.CallAmount != 90 {
		t.Fatalf("After all-in to 100: %+v", turn)
	}
	fix.mustAct("bob", Action{Type: Raise, Amount: 500})

	turn = fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "carol" || turn.CallAmount != 480 {
		t.Fatalf("Expected carol owing 480, got %+v", turn)
	}
	fix.mustAct("carol", Action{Type: Call})

	// Nobody can act, so the board runs out street by street.
	for i, want := range []struct {
		street string
		cards  int
	}{{"flop", 3}, {"turn", 4}, {"river", 5}} {
		street := fix.bcast.waitFor(t, EventStreetAdvanced).payload.(StreetAdvancedPayload)
		if street.Street != want.street || len(street.Board) != want.cards || street.Pot != 1100 {
			t.Fatalf("Runout step %d: expected %s with %d cards, got %+v", i, want.street, want.cards, street)
		}
	}

	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if won.Pot != 1100 || len(won.Winners) != 2 {
		t.Fatalf("Expected 1100 chips across two winners, got %+v", won)
	}
	// Awards announce clockwise from the dealer's left.
	if won.Winners[0].UserID != "bob" || won.Winners[0].AmountWon != 800 {
		t.Errorf("Side pot: expected bob winning 800, got %+v", won.Winners[0])
	}
	if won.Winners[1].UserID != "alice" || won.Winners[1].AmountWon != 300 {
		t.Errorf("Main pot: expected alice winning 300, got %+v", won.Winners[1])
	}
	for _, w := range won.Winners {
		if w.HandRankName != "Pair" {
			t.Errorf("Expected a pair for %s, got %s", w.UserID, w.HandRankName)
		}
		if len(w.HoleCards) != 2 {
			t.Errorf("Showdown must reveal %s's cards", w.UserID)
		}
	}

	stacks := fix.bcast.waitFor(t, EventStacksUpdated).payload.(StacksUpdatedPayload)
	wantStacks := map[string]int{"alice": 300, "bob": 800, "carol": 0}
	for _, p := range stacks.Players {
		if p.Stack != wantStacks[p.UserID] {
			t.Errorf("Stack for %s: expected %d, got %d", p.UserID, wantStacks[p.UserID], p.Stack)
		}
		if eliminated := p.UserID == "carol"; p.Eliminated != eliminated {
			t.Errorf("Eliminated flag for %s: expected %v", p.UserID, eliminated)
		}
	}

	// Heads up now: the button is the small blind.
	pos := fix.bcast.waitFor(t, EventPositionsUpdated).payload.(PositionsUpdatedPayload)
	if pos.DealerPos != 1 || pos.SBPos != 1 || pos.BBPos != 0 {
		t.Errorf("Expected heads-up button/SB on 1, got %+v", pos)
	}

	hands := fix.store.handRecords()
	if len(hands) != 1 || !hands[0].completed {
		t.Fatalf("Expected one completed hand, got %+v", hands)
	}
	if hands[0].board != "2c 3d 5s 8h 9c" {
		t.Errorf("Unexpected persisted board %q", hands[0].board)
	}
	winners := fix.store.winnerRecords()
	if len(winners) != 2 || winners[0].userID != "bob" || winners[1].userID != "alice" {
		t.Errorf("Unexpected winner records: %+v", winners)
	}
}

// An all-in that raises by less than the minimum sets the new price
// but does not reopen the action for players who already acted.
func TestEngineShortAllInDoesNotReopen(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh 7d Ah Kd 8s As 2c 5h 9d Jc 3s"))
	fix.seatAll("alice", "bob", "carol")
	fix.engine.seats[1].Stack = 80
	fix.start()
	fix.startHand()

	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("alice", Action{Type: Raise, Amount: 60})
	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("bob", Action{Type: AllIn})

	// Bob's 20 over the bet is under the 40 minimum: price moves to
	// 80, the minimum raise does not.
	turn := fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "carol" || turn.CurrentBet != 80 || turn.MinRaise != 40 {
		t.Fatalf("After short all-in: %+v", turn)
	}
	fix.mustAct("carol", Action{Type: Fold})

	// Alice owes the 20 difference but cannot reraise herself; she
	// simply completes the call.
	turn = fix.bcast.waitFor(t, EventTurnStarted).payload.(TurnStartedPayload)
	if turn.UserID != "alice" || turn.CallAmount != 20 {
		t.Fatalf("Expected alice owing 20, got %+v", turn)
	}
	fix.mustAct("alice", Action{Type: Call})

	for i := 0; i < 3; i++ {
		fix.bcast.waitFor(t, EventStreetAdvanced)
	}
	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 1 || won.Winners[0].UserID != "alice" || won.Winners[0].AmountWon != 180 {
		t.Fatalf("Expected alice winning 180, got %+v", won.Winners)
	}

	stacks := fix.bcast.waitFor(t, EventStacksUpdated).payload.(StacksUpdatedPayload)
	wantStacks := map[string]int{"alice": 1600, "bob": 0, "carol": 1480}
	for _, p := range stacks.Players {
		if p.Stack != wantStacks[p.UserID] {
			t.Errorf("Stack for %s: expected %d, got %d", p.UserID, wantStacks[p.UserID], p.Stack)
		}
	}
}

// Calling with fewer chips than the bet commits the whole stack and is
// still announced as a call.
func TestEngineShortCallBecomesAllIn(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh 4d Qc Kd 6h Jc 2c 5h 9d 7s 3s"))
	fix.seatAll("alice", "bob", "carol")
	fix.engine.seats[1].Stack = 80
	fix.start()
	fix.startHand()

	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("alice", Action{Type: Raise, Amount: 200})
	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("bob", Action{Type: Call})

	perf := fix.bcast.waitFor(t, EventActionPerformed).payload.(ActionPerformedPayload)
	if perf.UserID != "bob" || perf.Action != "call" || perf.Amount != 70 {
		t.Fatalf("Short call should commit the 70 chip stack as a call, got %+v", perf)
	}

	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("carol", Action{Type: Fold})

	// Alice already matched herself and bob is all in, so the board
	// runs out.
	for i := 0; i < 3; i++ {
		fix.bcast.waitFor(t, EventStreetAdvanced)
	}
	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 2 {
		t.Fatalf("Expected main and side winners, got %+v", won.Winners)
	}
	if won.Winners[0].UserID != "bob" || won.Winners[0].AmountWon != 180 || won.Winners[0].HandRankName != "Pair" {
		t.Errorf("Main pot: expected bob winning 180 with a pair, got %+v", won.Winners[0])
	}
	if won.Winners[1].UserID != "alice" || won.Winners[1].AmountWon != 120 || won.Winners[1].HandRankName != "High Card" {
		t.Errorf("Side pot: expected alice recovering 120, got %+v", won.Winners[1])
	}

	stacks := fix.bcast.waitFor(t, EventStacksUpdated).payload.(StacksUpdatedPayload)
	wantStacks := map[string]int{"alice": 1420, "bob": 180, "carol": 1480}
	for _, p := range stacks.Players {
		if p.Stack != wantStacks[p.UserID] {
			t.Errorf("Stack for %s: expected %d, got %d", p.UserID, wantStacks[p.UserID], p.Stack)
		}
	}
}
