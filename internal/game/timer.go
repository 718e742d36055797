package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// TurnTimer drives the per-turn countdown. Arm schedules a 1-second
// periodic tick and a final expiry; Disarm cancels both and guarantees
// no further callback from the disarmed arming is delivered once it
// returns. Only one arming is live at a time.
//
// Callbacks run on the clock's goroutine while the timer's lock is
// held; they must not block and must not call back into the timer.
type TurnTimer struct {
	clock quartz.Clock

	mu        sync.Mutex
	gen       uint64
	remaining int
	onTick    func(remaining int)
	onExpire  func()
	timer     *quartz.Timer
}

// NewTurnTimer creates a timer bound to the given clock.
func NewTurnTimer(clock quartz.Clock) *TurnTimer {
	return &TurnTimer{clock: clock}
}

// Arm starts a countdown of the given number of seconds, replacing any
// live arming. onTick receives the seconds left after each elapsed
// second; the final tick carries 0 and is followed by onExpire.
func (t *TurnTimer) Arm(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.stopLocked()

	t.remaining = seconds
	t.onTick = onTick
	t.onExpire = onExpire

	gen := t.gen
	t.timer = t.clock.AfterFunc(time.Second, func() { t.fire(gen) })
}

// Disarm cancels the live arming. It is idempotent and safe to call
// after expiry.
func (t *TurnTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.stopLocked()
}

// Remaining returns the seconds left on the live arming, or the last
// value before expiry.
func (t *TurnTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *TurnTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *TurnTimer) fire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A stale generation means Disarm or a newer Arm won the race.
	if gen != t.gen {
		return
	}

	t.remaining--
	if t.remaining > 0 {
		t.timer = t.clock.AfterFunc(time.Second, func() { t.fire(gen) })
	} else {
		t.timer = nil
	}

	if t.onTick != nil {
		t.onTick(t.remaining)
	}
	if t.remaining <= 0 && t.onExpire != nil {
		t.onExpire()
	}
}
