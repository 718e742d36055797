package poker

import (
	"fmt"
	"math/bits"
)

// Category enumerates the hand categories ordered from weakest to strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank is the strength of a hand: the category plus the ordered
// tiebreaker values that decide ties within the category.
//
// Tiebreaker layout per category:
//
//	StraightFlush, Straight: [top]            (wheel top = 5)
//	FourOfAKind:             [quad, kicker]
//	FullHouse:               [trips, pair]
//	Flush, HighCard:         [five values descending]
//	ThreeOfAKind:            [trips, k1, k2]
//	TwoPair:                 [high pair, low pair, kicker]
//	Pair:                    [pair, k1, k2, k3]
type HandRank struct {
	Category    Category
	Tiebreakers []int
}

// String returns the category name
func (r HandRank) String() string {
	return r.Category.String()
}

// Compare orders two hand ranks: category first, then tiebreakers
// lexicographically. Returns 1 when a is stronger, -1 when b is
// stronger, 0 on an exact tie.
func Compare(a, b HandRank) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	n := len(a.Tiebreakers)
	if len(b.Tiebreakers) < n {
		n = len(b.Tiebreakers)
	}
	for i := 0; i < n; i++ {
		if a.Tiebreakers[i] != b.Tiebreakers[i] {
			if a.Tiebreakers[i] > b.Tiebreakers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// FindWinners returns the indexes of the strongest ranks, with ties
// producing multiple winners.
func FindWinners(ranks []HandRank) []int {
	var winners []int
	for i, r := range ranks {
		if len(winners) == 0 {
			winners = []int{i}
			continue
		}
		switch Compare(r, ranks[winners[0]]) {
		case 1:
			winners = []int{i}
		case 0:
			winners = append(winners, i)
		}
	}
	return winners
}

// Evaluate returns the best five-card rank available from the hole and
// board cards together. Between five and seven total cards are
// accepted; every five-card subset is ranked and the maximum kept.
func Evaluate(hole, board []Card) (HandRank, error) {
	n := len(hole) + len(board)
	if n < 5 || n > 7 {
		return HandRank{}, fmt.Errorf("evaluate %d cards: want 5 to 7", n)
	}

	cards := make([]Card, 0, n)
	cards = append(cards, hole...)
	cards = append(cards, board...)

	var best HandRank
	first := true
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						r := evaluateFive([5]Card{cards[a], cards[b], cards[c], cards[d], cards[e]})
						if first || Compare(r, best) > 0 {
							best = r
							first = false
						}
					}
				}
			}
		}
	}
	return best, nil
}

// evaluateFive ranks exactly five cards
func evaluateFive(cards [5]Card) HandRank {
	var counts [15]int
	var rankMask uint16
	flush := true
	for i, c := range cards {
		counts[c.Rank]++
		rankMask |= 1 << (int(c.Rank) - 2)
		if i > 0 && c.Suit != cards[0].Suit {
			flush = false
		}
	}

	straightTop := straightTopValue(rankMask)
	if flush && straightTop > 0 {
		return HandRank{Category: StraightFlush, Tiebreakers: []int{straightTop}}
	}

	var quad, trip int
	var pairs, singles []int
	for v := 14; v >= 2; v-- {
		switch counts[v] {
		case 4:
			quad = v
		case 3:
			trip = v
		case 2:
			pairs = append(pairs, v)
		case 1:
			singles = append(singles, v)
		}
	}

	switch {
	case quad != 0:
		return HandRank{Category: FourOfAKind, Tiebreakers: []int{quad, singles[0]}}
	case trip != 0 && len(pairs) == 1:
		return HandRank{Category: FullHouse, Tiebreakers: []int{trip, pairs[0]}}
	case flush:
		// Five cards of one suit always have five distinct ranks.
		return HandRank{Category: Flush, Tiebreakers: singles}
	case straightTop > 0:
		return HandRank{Category: Straight, Tiebreakers: []int{straightTop}}
	case trip != 0:
		return HandRank{Category: ThreeOfAKind, Tiebreakers: []int{trip, singles[0], singles[1]}}
	case len(pairs) == 2:
		return HandRank{Category: TwoPair, Tiebreakers: []int{pairs[0], pairs[1], singles[0]}}
	case len(pairs) == 1:
		return HandRank{Category: Pair, Tiebreakers: []int{pairs[0], singles[0], singles[1], singles[2]}}
	default:
		return HandRank{Category: HighCard, Tiebreakers: singles}
	}
}

// straightTopValue returns the value (5-14) of the highest straight in
// the rank mask, or 0 when there is none. Bit 0 is the deuce; the
// wheel A-2-3-4-5 counts as a straight topped by the five.
func straightTopValue(mask uint16) int {
	const wheelMask = 0x100F // A + 2-3-4-5
	if mask&wheelMask == wheelMask {
		return 5
	}

	// Bitwise cascade identifies five consecutive set bits in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq == 0 {
		return 0
	}
	low := bits.Len16(seq) - 1
	return low + 6
}
