package game

import (
	"slices"
)

// Contribution is one player's total commitment to the hand.
type Contribution struct {
	Seat   int
	Amount int64
	Folded bool
}

// BuildPots splits contributions into a main pot and side pots.
//
// Each distinct commitment level closes a tier. A player is eligible for a
// tier when they have not folded and contributed at least its threshold.
// Adjacent tiers with identical eligibility are merged, a tier nobody can win
// is folded into the pot below it, and dead money joins the main pot.
func BuildPots(contribs []Contribution, dead int64) []Pot {
	levels := make([]int64, 0, len(contribs))
	for _, c := range contribs {
		if c.Amount > 0 {
			levels = append(levels, c.Amount)
		}
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)

	var pots []Pot
	var carry int64
	var prev int64
	for _, level := range levels {
		var amount int64
		var eligible []int
		for _, c := range contribs {
			amount += min(c.Amount, level) - min(c.Amount, prev)
			if !c.Folded && c.Amount >= level {
				eligible = append(eligible, c.Seat)
			}
		}
		prev = level
		slices.Sort(eligible)

		switch {
		case len(eligible) == 0 && len(pots) > 0:
			pots[len(pots)-1].Amount += amount
		case len(eligible) == 0:
			carry += amount
		case len(pots) > 0 && slices.Equal(pots[len(pots)-1].Eligible, eligible):
			pots[len(pots)-1].Amount += amount + carry
			carry = 0
		default:
			pots = append(pots, Pot{Amount: amount + carry, Eligible: eligible})
			carry = 0
		}
	}

	if carry > 0 || dead > 0 {
		if len(pots) == 0 {
			var eligible []int
			for _, c := range contribs {
				if !c.Folded {
					eligible = append(eligible, c.Seat)
				}
			}
			slices.Sort(eligible)
			pots = append(pots, Pot{Eligible: eligible})
		}
		pots[0].Amount += carry + dead
	}
	return pots
}

// UncalledExcess returns the seat holding the single highest street
// commitment and how much of it nobody matched. ok is false when the top
// commitment is shared or absent.
func UncalledExcess(commits map[int]int64) (seat int, excess int64, ok bool) {
	var top, second int64
	seat = -1
	for s, amt := range commits {
		switch {
		case amt > top:
			second = top
			top = amt
			seat = s
		case amt > second:
			second = amt
		}
	}
	if seat < 0 || top == second {
		return -1, 0, false
	}
	return seat, top - second, true
}

// SplitAmount divides amount among winners, which must already be ordered
// clockwise from the seat left of the button. Odd chips go one at a time to
// the earliest winners in that order.
func SplitAmount(amount int64, winners []int) map[int]int64 {
	out := make(map[int]int64, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return out
	}
	n := int64(len(winners))
	share, rem := amount/n, amount%n
	for i, seat := range winners {
		out[seat] = share
		if int64(i) < rem {
			out[seat]++
		}
	}
	return out
}

// clockwiseFrom orders seats clockwise starting with the first seat after start.
func clockwiseFrom(seats []int, start, numSeats int) []int {
	out := slices.Clone(seats)
	dist := func(s int) int {
		return ((s-start-1)%numSeats + numSeats) % numSeats
	}
	slices.SortFunc(out, func(a, b int) int { return dist(a) - dist(b) })
	return out
}
