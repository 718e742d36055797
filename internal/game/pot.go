package game

import (
	"sort"
)

// SidePot is a slice of the pot contested by the players who committed
// at least its level.
type SidePot struct {
	Amount   int
	Level    int   // commitment ceiling that closes this pot
	Eligible []int // seat positions still contesting
}

// buildSidePots partitions the hand's total commitments into side pots.
// Levels are the distinct committedThisHand values of contesting
// players, ascending. Folded players' chips fill every slice they
// reach but grant no eligibility.
func buildSidePots(players []*PlayerState) []SidePot {
	seen := make(map[int]bool)
	levels := make([]int, 0, len(players))
	for _, p := range players {
		if p == nil || !p.Contesting() || p.CommittedThisHand == 0 {
			continue
		}
		if !seen[p.CommittedThisHand] {
			seen[p.CommittedThisHand] = true
			levels = append(levels, p.CommittedThisHand)
		}
	}
	sort.Ints(levels)

	pots := make([]SidePot, 0, len(levels))
	prev := 0
	for _, level := range levels {
		pot := SidePot{Level: level}
		for _, p := range players {
			if p == nil || !p.InHand {
				continue
			}
			c := p.CommittedThisHand
			if c > level {
				c = level
			}
			if c > prev {
				pot.Amount += c - prev
			}
		}
		for _, p := range players {
			if p == nil || !p.Contesting() {
				continue
			}
			if p.CommittedThisHand >= level {
				pot.Eligible = append(pot.Eligible, p.Position)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// Chips committed beyond the highest contested level stay in the
	// final pot so nothing is orphaned.
	excess := 0
	for _, p := range players {
		if p == nil || !p.InHand {
			continue
		}
		if p.CommittedThisHand > prev {
			excess += p.CommittedThisHand - prev
		}
	}
	if excess > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += excess
	}

	return pots
}

// splitPot divides amount among the winning positions: floor shares
// for everyone, then the remainder one chip at a time walking
// clockwise from the seat after the dealer.
func splitPot(amount int, winners []int, dealerPos, numSeats int) map[int]int {
	if len(winners) == 0 {
		return nil
	}

	share := amount / len(winners)
	odd := amount % len(winners)

	awards := make(map[int]int, len(winners))
	isWinner := make(map[int]bool, len(winners))
	for _, pos := range winners {
		awards[pos] = share
		isWinner[pos] = true
	}

	for i := 1; i <= numSeats && odd > 0; i++ {
		pos := (dealerPos + i) % numSeats
		if isWinner[pos] {
			awards[pos]++
			odd--
		}
	}

	return awards
}

// potTotal sums the side pot amounts.
func potTotal(pots []SidePot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}
