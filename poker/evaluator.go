package poker

import (
	"errors"
	"fmt"
	"slices"
)

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (t HandType) String() string {
	switch t {
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

// RankKey totally orders 5 card hands. Higher values are stronger and equal
// values are equal strength. Bits 20-23 hold the HandType, the low 20 bits
// hold up to five tie-break ranks, most significant first.
type RankKey uint32

const kickerBits = 20

// Type returns the category of the hand.
func (k RankKey) Type() HandType {
	return HandType(k >> kickerBits)
}

// Kickers returns the tie-break ranks encoded in the key, most significant first.
func (k RankKey) Kickers() []uint8 {
	var out []uint8
	for shift := kickerBits - 4; shift >= 0; shift -= 4 {
		out = append(out, uint8(k>>shift)&0xF)
	}
	return out
}

// String describes the hand, e.g. "Full House, Kings full of Sevens".
func (k RankKey) String() string {
	ks := k.Kickers()
	switch k.Type() {
	case StraightFlush:
		if ks[0] == Ace {
			return "Royal Flush"
		}
		return fmt.Sprintf("Straight Flush, %s high", rankName(ks[0]))
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind, %s", rankPlural(ks[0]))
	case FullHouse:
		return fmt.Sprintf("Full House, %s full of %s", rankPlural(ks[0]), rankPlural(ks[1]))
	case Flush:
		return fmt.Sprintf("Flush, %s high", rankName(ks[0]))
	case Straight:
		return fmt.Sprintf("Straight, %s high", rankName(ks[0]))
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind, %s", rankPlural(ks[0]))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", rankPlural(ks[0]), rankPlural(ks[1]))
	case Pair:
		return fmt.Sprintf("Pair of %s", rankPlural(ks[0]))
	default:
		return fmt.Sprintf("High Card, %s", rankName(ks[0]))
	}
}

var rankNames = [...]string{"Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten", "Jack", "Queen", "King", "Ace"}

func rankName(r uint8) string {
	if int(r) >= len(rankNames) {
		return "?"
	}
	return rankNames[r]
}

func rankPlural(r uint8) string {
	if r == Six {
		return "Sixes"
	}
	return rankName(r) + "s"
}

// Compare returns 1 if a is stronger, -1 if b is stronger, 0 for a tie.
func Compare(a, b RankKey) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

func makeKey(t HandType, ranks ...uint8) RankKey {
	key := RankKey(t) << kickerBits
	shift := kickerBits - 4
	for _, r := range ranks {
		key |= RankKey(r) << shift
		shift -= 4
	}
	return key
}

// Rank5 ranks exactly five distinct cards.
func Rank5(cards [5]Card) RankKey {
	var counts [13]uint8
	var suits uint8
	flush := true
	for i, c := range cards {
		counts[c.Rank()]++
		if i == 0 {
			suits = c.Suit()
		} else if c.Suit() != suits {
			flush = false
		}
	}

	// Bucket ranks by multiplicity, then by rank, both descending.
	type bucket struct{ rank, count uint8 }
	buckets := make([]bucket, 0, 5)
	for r := int(Ace); r >= 0; r-- {
		if counts[r] > 0 {
			buckets = append(buckets, bucket{uint8(r), counts[r]})
		}
	}
	slices.SortStableFunc(buckets, func(a, b bucket) int {
		return int(b.count) - int(a.count)
	})
	ranks := make([]uint8, len(buckets))
	for i, b := range buckets {
		ranks[i] = b.rank
	}

	straightHigh, straight := straightTop(ranks)

	switch {
	case straight && flush:
		return makeKey(StraightFlush, straightHigh)
	case buckets[0].count == 4:
		return makeKey(FourOfAKind, ranks...)
	case buckets[0].count == 3 && buckets[1].count == 2:
		return makeKey(FullHouse, ranks...)
	case flush:
		return makeKey(Flush, ranks...)
	case straight:
		return makeKey(Straight, straightHigh)
	case buckets[0].count == 3:
		return makeKey(ThreeOfAKind, ranks...)
	case buckets[0].count == 2 && buckets[1].count == 2:
		return makeKey(TwoPair, ranks...)
	case buckets[0].count == 2:
		return makeKey(Pair, ranks...)
	default:
		return makeKey(HighCard, ranks...)
	}
}

// straightTop expects five distinct ranks in descending order. The wheel
// (A-2-3-4-5) plays the ace low and reports Five as its top card.
func straightTop(ranks []uint8) (uint8, bool) {
	if len(ranks) != 5 {
		return 0, false
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0], true
	}
	if ranks[0] == Ace && ranks[1] == Five && ranks[4] == Two {
		return Five, true
	}
	return 0, false
}

// HoleRule says how many hole cards a made hand must use.
type HoleRule uint8

const (
	// AnyHoleCards allows any five of hole plus board (Hold'em).
	AnyHoleCards HoleRule = iota
	// ExactlyTwoHoleCards requires two hole and three board cards (Omaha).
	ExactlyTwoHoleCards
)

// ErrNotEnoughCards is returned when no legal five card hand exists.
var ErrNotEnoughCards = errors.New("poker: not enough cards for a five card hand")

// HandResult is the best five card hand found by BestHand.
type HandResult struct {
	Cards [5]Card
	Key   RankKey
}

// BestHand enumerates every legal five card combination and returns the strongest.
func BestHand(hole, board []Card, rule HoleRule) (HandResult, error) {
	var best HandResult
	found := false
	consider := func(cards [5]Card) {
		key := Rank5(cards)
		if !found || key > best.Key {
			best = HandResult{Cards: cards, Key: key}
			found = true
		}
	}

	switch rule {
	case ExactlyTwoHoleCards:
		if len(hole) < 2 || len(board) < 3 {
			return HandResult{}, ErrNotEnoughCards
		}
		for _, h := range combinations(len(hole), 2) {
			for _, b := range combinations(len(board), 3) {
				consider([5]Card{hole[h[0]], hole[h[1]], board[b[0]], board[b[1]], board[b[2]]})
			}
		}
	default:
		all := make([]Card, 0, len(hole)+len(board))
		all = append(all, hole...)
		all = append(all, board...)
		if len(all) < 5 {
			return HandResult{}, ErrNotEnoughCards
		}
		for _, idx := range combinations(len(all), 5) {
			consider([5]Card{all[idx[0]], all[idx[1]], all[idx[2]], all[idx[3]], all[idx[4]]})
		}
	}

	SortCards(best.Cards[:])
	return best, nil
}

// combinations lists every k-subset of [0, n) in lexicographic order.
func combinations(n, k int) [][]int {
	var out [][]int
	idx := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			out = append(out, append([]int(nil), idx...))
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			idx[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return out
}
