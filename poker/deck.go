package poker

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrDeckExhausted is returned by Deal when fewer cards remain than requested.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered deck. Dealing removes cards from the head.
type Deck struct {
	cards []Card
	next  int
}

// NewShuffled creates a full 52-card deck shuffled with a
// cryptographically secure Fisher-Yates pass. Hand outcomes must not be
// predictable from process state, so the shuffle draws from the system
// CSPRNG rather than a seeded generator.
func NewShuffled() *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.shuffle()
	return d
}

// NewDeckFrom returns a deck that deals the given cards in order.
// Useful for replaying recorded hands.
func NewDeckFrom(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

func (d *Deck) shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := secureIntn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// secureIntn returns a uniform int in [0, n) from crypto/rand using
// rejection sampling. n must be in [1, 256].
func secureIntn(n int) int {
	if n <= 1 {
		return 0
	}
	limit := 256 - 256%n
	var b [1]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic(err)
		}
		if int(b[0]) < limit {
			return int(b[0]) % n
		}
	}
}

// Deal removes and returns the first n cards
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deal %d cards", n)
	}
	if d.next+n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// Remaining returns the number of undealt cards
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
