package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"pokerroomd/poker"
)

// Store persists hand history. One store is shared across engines and
// must tolerate concurrent callers; within a hand the engine issues
// writes serially, and InsertHand strictly precedes InsertHoleCards.
type Store interface {
	InsertHand(ctx context.Context, gameID string, handNumber int64, dealerSeat, sbSeat, bbSeat int, street Street, pot int) (int64, error)
	InsertHoleCards(ctx context.Context, handID int64, userID string, c1, c2 poker.Card) error
	InsertAction(ctx context.Context, handID int64, userID string, action ActionType, amount int, street Street) error
	UpdateHandBoardStreetPot(ctx context.Context, handID int64, board []poker.Card, street Street, pot int) error
	InsertWinner(ctx context.Context, handID int64, userID string, amountWon int, handRankName string) error
	MarkHandCompleted(ctx context.Context, handID int64) error
}

// Config holds the table parameters for one room.
type Config struct {
	SmallBlind     int
	BigBlind       int
	StartingStack  int
	TurnSeconds    int
	MaxSeats       int
	MinPlayers     int
	InterHandPause time.Duration
}

// DefaultConfig returns the standard table parameters.
func DefaultConfig() Config {
	return Config{
		SmallBlind:     10,
		BigBlind:       20,
		StartingStack:  1500,
		TurnSeconds:    30,
		MaxSeats:       10,
		MinPlayers:     2,
		InterHandPause: 3 * time.Second,
	}
}

// Validate checks the config for values the engine cannot run with.
func (c Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("blinds %d/%d: big blind must exceed small blind", c.SmallBlind, c.BigBlind)
	}
	if c.StartingStack < c.BigBlind {
		return fmt.Errorf("starting stack %d is below the big blind", c.StartingStack)
	}
	if c.TurnSeconds < 1 {
		return fmt.Errorf("turn timer must be at least 1 second")
	}
	if c.MinPlayers < 2 || c.MaxSeats < c.MinPlayers {
		return fmt.Errorf("seat bounds %d..%d are unplayable", c.MinPlayers, c.MaxSeats)
	}
	return nil
}

type engineState int

const (
	stateIdle engineState = iota
	stateInHand
	stateEnded
	stateFailed
)

func (s engineState) String() string {
	return [...]string{"idle", "in_hand", "ended", "failed"}[s]
}

// Mailbox messages. Every external entry point funnels through one of
// these so that all state lives on the Run goroutine.
type engineMsg interface{}

type seatMsg struct {
	userID   string
	username string
	reply    chan error
}

type leaveMsg struct {
	userID string
	reply  chan error
}

type actionMsg struct {
	userID string
	action Action
	reply  chan error
}

type startMsg struct {
	reply chan error // nil for scheduled starts
}

type snapshotMsg struct {
	userID string
	reply  chan Snapshot
}

type tickMsg struct {
	gen       uint64
	remaining int
}

type expireMsg struct {
	gen uint64
}

// Engine runs one room's game as a single-threaded actor. All mutation
// happens on the Run goroutine; callers enqueue messages and wait for
// replies. Different rooms run their engines in parallel.
type Engine struct {
	roomID string
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger

	broadcaster Broadcaster
	store       Store
	deckFunc    func() *poker.Deck

	mailbox chan engineMsg

	state      engineState
	seats      []*PlayerState
	dealerPos  int
	sbPos      int
	bbPos      int
	handNumber int64
	hand       *handState

	timer   *TurnTimer
	turnGen uint64

	startTimer     *quartz.Timer
	startScheduled bool

	// handChipTotal is the stack sum captured at StartHand, checked
	// against the post-distribution sum.
	handChipTotal int
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithClock substitutes the wall clock, letting tests drive the turn
// timer and inter-hand pause deterministically.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithDeckFunc substitutes the deck source for each hand.
func WithDeckFunc(fn func() *poker.Deck) Option {
	return func(e *Engine) { e.deckFunc = fn }
}

// New creates an engine for one room. Call Run to start it.
func New(roomID string, cfg Config, broadcaster Broadcaster, store Store, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		roomID:      roomID,
		cfg:         cfg,
		clock:       quartz.NewReal(),
		logger:      logger.WithPrefix("engine").With("room", roomID),
		broadcaster: broadcaster,
		store:       store,
		deckFunc:    poker.NewShuffled,
		mailbox:     make(chan engineMsg, 128),
		seats:       make([]*PlayerState, cfg.MaxSeats),
		dealerPos:   -1,
		sbPos:       -1,
		bbPos:       -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.timer = NewTurnTimer(e.clock)
	return e
}

// Run processes the mailbox until ctx is cancelled. It owns all engine
// state; nothing else may touch it while Run is live.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine running", "max_seats", e.cfg.MaxSeats, "blinds", fmt.Sprintf("%d/%d", e.cfg.SmallBlind, e.cfg.BigBlind))
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		case msg := <-e.mailbox:
			e.handle(ctx, msg)
		}
	}
}

func (e *Engine) shutdown() {
	e.timer.Disarm()
	if e.startTimer != nil {
		e.startTimer.Stop()
	}
	e.logger.Info("engine stopped")
}

func (e *Engine) handle(ctx context.Context, msg engineMsg) {
	switch m := msg.(type) {
	case seatMsg:
		m.reply <- e.seat(m.userID, m.username)
	case leaveMsg:
		m.reply <- e.leave(ctx, m.userID)
	case actionMsg:
		m.reply <- e.submit(ctx, m.userID, m.action)
	case startMsg:
		err := e.startHand(ctx)
		if m.reply != nil {
			m.reply <- err
		} else if err != nil {
			e.logger.Debug("scheduled hand start skipped", "reason", err)
		}
	case snapshotMsg:
		m.reply <- e.snapshot(m.userID)
	case tickMsg:
		if m.gen == e.turnGen && e.state == stateInHand {
			e.broadcaster.Broadcast(EventTurnTick, TurnTickPayload{TimeRemaining: m.remaining})
		}
	case expireMsg:
		e.handleExpiry(ctx, m.gen)
	}
}

// Seat adds a player to the lowest free seat with the configured
// starting stack.
func (e *Engine) Seat(ctx context.Context, userID, username string) error {
	return e.roundTrip(ctx, func(reply chan error) engineMsg {
		return seatMsg{userID: userID, username: username, reply: reply}
	})
}

// Leave removes a player. Mid-hand the player is folded immediately
// and the seat is released when the hand completes.
func (e *Engine) Leave(ctx context.Context, userID string) error {
	return e.roundTrip(ctx, func(reply chan error) engineMsg {
		return leaveMsg{userID: userID, reply: reply}
	})
}

// SubmitAction applies a player action. Client mistakes come back as
// typed errors and leave the game state untouched.
func (e *Engine) SubmitAction(ctx context.Context, userID string, action Action) error {
	return e.roundTrip(ctx, func(reply chan error) engineMsg {
		return actionMsg{userID: userID, action: action, reply: reply}
	})
}

// StartHand begins the next hand immediately, bypassing the inter-hand
// pause. Fails when a hand is live or too few players are ready.
func (e *Engine) StartHand(ctx context.Context) error {
	return e.roundTrip(ctx, func(reply chan error) engineMsg {
		return startMsg{reply: reply}
	})
}

// Snapshot returns the public room state. Hole cards are included only
// for forUser's own seat.
func (e *Engine) Snapshot(ctx context.Context, forUser string) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := e.send(ctx, snapshotMsg{userID: forUser, reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (e *Engine) roundTrip(ctx context.Context, build func(chan error) engineMsg) error {
	reply := make(chan error, 1)
	if err := e.send(ctx, build(reply)); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) send(ctx context.Context, msg engineMsg) error {
	select {
	case e.mailbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Timer glue. The engine stamps each arming with a generation; stale
// tick and expiry messages from a superseded arming are dropped at
// dequeue, which resolves timer-versus-action races by mailbox order.

func (e *Engine) armTurnTimer() {
	e.turnGen++
	gen := e.turnGen
	e.timer.Arm(e.cfg.TurnSeconds,
		func(remaining int) { e.enqueueTick(gen, remaining) },
		func() { e.enqueueExpiry(gen) },
	)
}

func (e *Engine) disarmTurnTimer() {
	e.turnGen++
	e.timer.Disarm()
}

// Ticks are cosmetic; drop them when the mailbox is saturated.
func (e *Engine) enqueueTick(gen uint64, remaining int) {
	select {
	case e.mailbox <- tickMsg{gen: gen, remaining: remaining}:
	default:
	}
}

// Expiry must not be lost; fall back to a blocking send off the timer
// goroutine when the mailbox is full.
func (e *Engine) enqueueExpiry(gen uint64) {
	select {
	case e.mailbox <- expireMsg{gen: gen}:
	default:
		go func() { e.mailbox <- expireMsg{gen: gen} }()
	}
}

func (e *Engine) handleExpiry(ctx context.Context, gen uint64) {
	if gen != e.turnGen || e.state != stateInHand || e.hand == nil || e.hand.toActPos < 0 {
		return
	}
	p := e.seats[e.hand.toActPos]
	if p == nil || !p.CanAct() {
		return
	}
	e.logger.Info("turn timer expired, auto-folding", "user", p.UserID, "position", p.Position)
	e.disarmTurnTimer()
	e.applyAndAdvance(ctx, p, Action{Type: Fold})
}

func (e *Engine) seat(userID, username string) error {
	if e.state == stateEnded || e.state == stateFailed {
		return NewError(KindNotInHand, "room is closed")
	}
	if e.findUser(userID) != -1 {
		return WrapError(KindBadInput, ErrAlreadySeated, "user %s is already seated", userID)
	}
	pos := -1
	for i, p := range e.seats {
		if p == nil {
			pos = i
			break
		}
	}
	if pos == -1 {
		return NewError(KindBadInput, "room is full")
	}
	e.seats[pos] = &PlayerState{
		UserID:   userID,
		Username: username,
		Position: pos,
		Stack:    e.cfg.StartingStack,
	}
	e.logger.Info("player seated", "user", userID, "position", pos, "stack", e.cfg.StartingStack)
	e.maybeScheduleStart()
	return nil
}

func (e *Engine) leave(ctx context.Context, userID string) error {
	pos := e.findUser(userID)
	if pos == -1 {
		return NewError(KindBadInput, "user %s is not seated", userID)
	}
	p := e.seats[pos]
	if e.state == stateInHand && p.InHand {
		// The seat frees up at hand end so the chips already committed
		// stay in the pot partition.
		p.pendingLeave = true
		e.logger.Info("player left mid-hand", "user", userID, "position", pos)
		if p.Contesting() {
			e.forceFold(ctx, p)
		}
		return nil
	}
	e.seats[pos] = nil
	e.logger.Info("player left", "user", userID, "position", pos)
	return nil
}

func (e *Engine) submit(ctx context.Context, userID string, action Action) error {
	p, err := e.actingPlayer(userID)
	if err != nil {
		e.sendClientError(userID, err)
		return err
	}
	if err := e.checkAction(p, action); err != nil {
		e.sendClientError(userID, err)
		return err
	}
	// Validation is pure; nothing before this point mutates state or
	// touches the timer, so a rejected action leaves the turn intact.
	e.disarmTurnTimer()
	e.applyAndAdvance(ctx, p, action)
	return nil
}

func (e *Engine) actingPlayer(userID string) (*PlayerState, error) {
	if e.state != stateInHand || e.hand == nil {
		return nil, NewError(KindNotInHand, "no hand in progress")
	}
	pos := e.findUser(userID)
	if pos == -1 {
		return nil, NewError(KindNotInHand, "user %s is not seated", userID)
	}
	p := e.seats[pos]
	if !p.InHand || p.Folded || p.AllIn || p.Eliminated {
		return nil, NewError(KindNotInHand, "user %s cannot act in this hand", userID)
	}
	if pos != e.hand.toActPos {
		return nil, NewError(KindNotYourTurn, "it is not %s's turn", userID)
	}
	return p, nil
}

func (e *Engine) sendClientError(userID string, err error) {
	var ge *Error
	if !errors.As(err, &ge) {
		return
	}
	e.logger.Debug("rejected action", "user", userID, "kind", ge.Kind, "reason", ge.Message)
	e.broadcaster.SendPrivate(userID, EventGameError, GameErrorPayload{Message: ge.Message, Kind: ge.Kind})
}

// fail moves the engine to the terminal failed state. Chip state is
// not rolled back; operators reconcile from logs.
func (e *Engine) fail(kind ErrorKind, err error) {
	e.logger.Error("room halted", "kind", kind, "error", err)
	e.disarmTurnTimer()
	if e.startTimer != nil {
		e.startTimer.Stop()
	}
	e.startScheduled = false
	e.state = stateFailed
	e.broadcaster.Broadcast(EventGameError, GameErrorPayload{Message: "internal failure, room halted", Kind: kind})
}

// maybeScheduleStart queues the next hand after the inter-hand pause
// once enough players are ready.
func (e *Engine) maybeScheduleStart() {
	if e.state != stateIdle || e.startScheduled {
		return
	}
	if e.readyPlayers() < e.cfg.MinPlayers {
		return
	}
	e.startScheduled = true
	e.startTimer = e.clock.AfterFunc(e.cfg.InterHandPause, func() {
		select {
		case e.mailbox <- startMsg{}:
		default:
			go func() { e.mailbox <- startMsg{} }()
		}
	})
}

func (e *Engine) findUser(userID string) int {
	for i, p := range e.seats {
		if p != nil && p.UserID == userID {
			return i
		}
	}
	return -1
}

func (e *Engine) readyPlayers() int {
	n := 0
	for _, p := range e.seats {
		if p != nil && !p.Eliminated && p.Stack > 0 {
			n++
		}
	}
	return n
}
