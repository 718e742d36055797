package game

import (
	"testing"
	"time"
)

// flush waits for the engine to process everything already in its
// mailbox.
func (f *engineFixture) flush() {
	f.t.Helper()
	if _, err := f.engine.Snapshot(f.ctx, ""); err != nil {
		f.t.Fatalf("Snapshot failed: %v", err)
	}
}

func foldOutHand(t *testing.T, fix *engineFixture, folders ...string) {
	t.Helper()
	for _, id := range folders {
		fix.bcast.waitFor(t, EventTurnStarted)
		fix.mustAct(id, Action{Type: Fold})
	}
	fix.bcast.waitFor(t, EventWinnerDetermined)
}

// The button walks clockwise between hands and the next hand starts on
// its own after the pause.
func TestEngineButtonRotatesBetweenHands(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.InterHandPause = 3 * time.Second
	fix := newEngineFixture(t, cfg, riggedDeck(t, "Kh Qh Ah Ks Qs Ad"))
	fix.seatAll("alice", "bob", "carol")
	fix.start()
	fix.startHand()

	started := fix.bcast.waitFor(t, EventHandStarted).payload.(HandStartedPayload)
	if started.HandNumber != 1 || started.DealerPos != 0 || started.SBPos != 1 || started.BBPos != 2 {
		t.Fatalf("Hand 1: %+v", started)
	}
	foldOutHand(t, fix, "alice", "bob")

	advanceSeconds(t, fix.mock, 3)
	started = fix.bcast.waitFor(t, EventHandStarted).payload.(HandStartedPayload)
	if started.HandNumber != 2 || started.DealerPos != 1 || started.SBPos != 2 || started.BBPos != 0 {
		t.Fatalf("Hand 2: %+v", started)
	}
	foldOutHand(t, fix, "bob", "carol")

	advanceSeconds(t, fix.mock, 3)
	started = fix.bcast.waitFor(t, EventHandStarted).payload.(HandStartedPayload)
	if started.HandNumber != 3 || started.DealerPos != 2 || started.SBPos != 0 || started.BBPos != 1 {
		t.Fatalf("Hand 3: %+v", started)
	}
}

// No hand starts until enough players have chips, and the scheduled
// start fires only after the full pause.
func TestEngineAutoStartAfterPause(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.InterHandPause = 3 * time.Second
	fix := newEngineFixture(t, cfg, riggedDeck(t, "Kh Qh Ks Qs 2c 3d 5s 8h 9c"))
	fix.start()

	if err := fix.engine.Seat(fix.ctx, "alice", "Alice"); err != nil {
		t.Fatalf("Seat failed: %v", err)
	}
	advanceSeconds(t, fix.mock, 5)
	fix.flush()
	fix.bcast.assertNone(t, EventHandStarted)

	if err := fix.engine.Seat(fix.ctx, "bob", "Bob"); err != nil {
		t.Fatalf("Seat failed: %v", err)
	}
	advanceSeconds(t, fix.mock, 2)
	fix.flush()
	fix.bcast.assertNone(t, EventHandStarted)

	advanceSeconds(t, fix.mock, 1)
	started := fix.bcast.waitFor(t, EventHandStarted).payload.(HandStartedPayload)
	if started.HandNumber != 1 || started.DealerPos != 0 || started.SBPos != 0 || started.BBPos != 1 {
		t.Fatalf("Expected heads-up hand 1 with the button posting small blind, got %+v", started)
	}
}

// Losing the last chip eliminates a player; with one player left the
// game ends and the room refuses new hands.
func TestEngineGameEndsWhenOnePlayerRemains(t *testing.T) {
	t.Parallel()

	fix := newEngineFixture(t, testConfig(), riggedDeck(t, "Kh As Kd Ac 2c 5h 9d Jc 3s"))
	fix.seatAll("alice", "bob")
	fix.start()
	fix.startHand()

	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("alice", Action{Type: AllIn})
	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("bob", Action{Type: Call})

	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 1 || won.Winners[0].UserID != "alice" || won.Winners[0].AmountWon != 3000 {
		t.Fatalf("Expected alice winning 3000, got %+v", won.Winners)
	}

	stacks := fix.bcast.waitFor(t, EventStacksUpdated).payload.(StacksUpdatedPayload)
	for _, p := range stacks.Players {
		switch p.UserID {
		case "alice":
			if p.Stack != 3000 || p.Eliminated {
				t.Errorf("Unexpected alice state: %+v", p)
			}
		case "bob":
			if p.Stack != 0 || !p.Eliminated {
				t.Errorf("Expected bob busted, got %+v", p)
			}
		}
	}

	ended := fix.bcast.waitFor(t, EventGameEnded).payload.(GameEndedPayload)
	if ended.Winner == nil || ended.Winner.UserID != "alice" || ended.Winner.Stack != 3000 {
		t.Fatalf("Unexpected game winner: %+v", ended.Winner)
	}

	snap, err := fix.engine.Snapshot(fix.ctx, "alice")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.State != "ended" {
		t.Errorf("Expected ended state, got %s", snap.State)
	}

	if err := fix.engine.Seat(fix.ctx, "carol", "Carol"); KindOf(err) != KindNotInHand {
		t.Errorf("Seating after game end: expected not_in_hand, got %v", err)
	}
	if err := fix.engine.StartHand(fix.ctx); err == nil {
		t.Error("Expected error starting a hand after the game ended")
	}
}

// An eliminated player is never dealt back in, even while still
// occupying the seat.
func TestEngineEliminatedPlayerStaysOut(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.InterHandPause = 3 * time.Second
	fix := newEngineFixture(t, cfg, riggedDeck(t, "7c Qh As 6d Qs Ad 2c 5h 9d Jc 3s"))
	fix.seatAll("alice", "bob", "carol")
	fix.engine.seats[2].Stack = 20
	fix.start()
	fix.startHand()

	// Carol's whole stack went in on the big blind.
	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("alice", Action{Type: Call})
	fix.bcast.waitFor(t, EventTurnStarted)
	fix.mustAct("bob", Action{Type: Call})

	// Alice and bob check it down.
	for i := 0; i < 3; i++ {
		fix.bcast.waitFor(t, EventStreetAdvanced)
		for _, id := range []string{"bob", "alice"} {
			fix.bcast.waitFor(t, EventTurnStarted)
			fix.mustAct(id, Action{Type: Check})
		}
	}

	won := fix.bcast.waitFor(t, EventWinnerDetermined).payload.(WinnerDeterminedPayload)
	if len(won.Winners) != 1 || won.Winners[0].UserID != "alice" || won.Winners[0].AmountWon != 60 {
		t.Fatalf("Expected alice winning 60, got %+v", won.Winners)
	}

	advanceSeconds(t, fix.mock, 3)
	started := fix.bcast.waitFor(t, EventHandStarted).payload.(HandStartedPayload)
	if started.HandNumber != 2 || started.DealerPos != 1 || started.SBPos != 1 || started.BBPos != 0 {
		t.Fatalf("Hand 2 should be heads-up past carol, got %+v", started)
	}

	// Only the two live players are dealt cards.
	dealt := map[string]bool{}
	for {
		ev := fix.bcast.next(t)
		if ev.event == EventTurnStarted {
			break
		}
		if ev.event == EventHoleCardsDealt {
			dealt[ev.userID] = true
		}
	}
	if len(dealt) != 2 || dealt["carol"] {
		t.Errorf("Expected cards for alice and bob only, got %v", dealt)
	}
}
