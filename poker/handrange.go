package poker

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// HandRange is a weighted set of starting hands. Each combination is stored
// as a Hand bitset so two and four card holdings share one representation.
type HandRange struct {
	hands map[Hand]float64
}

// NewHandRange creates an empty range.
func NewHandRange() *HandRange {
	return &HandRange{hands: make(map[Hand]float64)}
}

// ParseHandRange reads standard notation such as "TT+,AKs,A5s-A2s,KQo:0.5".
// A ":w" suffix sets the weight of that part; the default is 1.
func ParseHandRange(notation string) (*HandRange, error) {
	r := NewHandRange()
	for part := range strings.SplitSeq(notation, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		weight := 1.0
		if i := strings.IndexByte(part, ':'); i >= 0 {
			w, err := strconv.ParseFloat(part[i+1:], 64)
			if err != nil || w < 0 || w > 1 {
				return nil, fmt.Errorf("invalid weight in %q", part)
			}
			weight = w
			part = part[:i]
		}
		if err := r.addPart(part, weight); err != nil {
			return nil, fmt.Errorf("invalid range part %q: %w", part, err)
		}
	}
	return r, nil
}

// MustParseHandRange is ParseHandRange for notation known at compile time.
func MustParseHandRange(notation string) *HandRange {
	r, err := ParseHandRange(notation)
	if err != nil {
		panic(err)
	}
	return r
}

type shape struct {
	high, low uint8
	suited    bool
	offsuit   bool
}

func parseShape(s string) (shape, error) {
	if len(s) < 2 || len(s) > 3 {
		return shape{}, fmt.Errorf("invalid notation length: %s", s)
	}
	r1, err := ParseRank(s[0])
	if err != nil {
		return shape{}, err
	}
	r2, err := ParseRank(s[1])
	if err != nil {
		return shape{}, err
	}
	if r2 > r1 {
		r1, r2 = r2, r1
	}
	sh := shape{high: r1, low: r2, suited: true, offsuit: true}
	if len(s) == 3 {
		if r1 == r2 {
			return shape{}, fmt.Errorf("pocket pairs cannot be suited or offsuit: %s", s)
		}
		switch s[2] {
		case 's':
			sh.offsuit = false
		case 'o':
			sh.suited = false
		default:
			return shape{}, fmt.Errorf("invalid modifier: %c", s[2])
		}
	}
	return sh, nil
}

func (r *HandRange) addPart(part string, weight float64) error {
	switch {
	case strings.HasSuffix(part, "+"):
		sh, err := parseShape(strings.TrimSuffix(part, "+"))
		if err != nil {
			return err
		}
		if sh.high == sh.low {
			for rank := sh.high; rank <= Ace; rank++ {
				r.addShape(shape{high: rank, low: rank}, weight)
			}
			return nil
		}
		for low := sh.low; low < sh.high; low++ {
			r.addShape(shape{high: sh.high, low: low, suited: sh.suited, offsuit: sh.offsuit}, weight)
		}
		return nil
	case strings.Contains(part, "-"):
		from, to, _ := strings.Cut(part, "-")
		a, err := parseShape(from)
		if err != nil {
			return err
		}
		b, err := parseShape(to)
		if err != nil {
			return err
		}
		if a.high == a.low && b.high == b.low {
			for rank := min(a.high, b.high); rank <= max(a.high, b.high); rank++ {
				r.addShape(shape{high: rank, low: rank}, weight)
			}
			return nil
		}
		if a.high != b.high || a.suited != b.suited || a.offsuit != b.offsuit {
			return fmt.Errorf("unsupported range format: %s", part)
		}
		for low := min(a.low, b.low); low <= max(a.low, b.low); low++ {
			r.addShape(shape{high: a.high, low: low, suited: a.suited, offsuit: a.offsuit}, weight)
		}
		return nil
	default:
		sh, err := parseShape(part)
		if err != nil {
			return err
		}
		r.addShape(sh, weight)
		return nil
	}
}

func (r *HandRange) addShape(sh shape, weight float64) {
	for s1 := range uint8(4) {
		for s2 := range uint8(4) {
			if sh.high == sh.low && s2 <= s1 {
				continue
			}
			if sh.high != sh.low {
				if s1 == s2 && !sh.suited {
					continue
				}
				if s1 != s2 && !sh.offsuit {
					continue
				}
			}
			r.hands[NewHand(NewCard(sh.high, s1), NewCard(sh.low, s2))] = weight
		}
	}
}

// Add inserts a specific holding (two or four cards) with a weight.
func (r *HandRange) Add(cards []Card, weight float64) {
	r.hands[NewHand(cards...)] = weight
}

// Contains reports whether the exact holding is in the range.
func (r *HandRange) Contains(cards ...Card) bool {
	_, ok := r.hands[NewHand(cards...)]
	return ok
}

// ContainsAny reports whether any two card subset of hole is in the range.
// For Omaha holdings this asks whether a listed starting pair is present.
func (r *HandRange) ContainsAny(hole []Card) bool {
	for _, idx := range combinations(len(hole), 2) {
		if r.Contains(hole[idx[0]], hole[idx[1]]) {
			return true
		}
	}
	return false
}

// Weight returns the weight of a holding, or 0 when absent.
func (r *HandRange) Weight(cards ...Card) float64 {
	return r.hands[NewHand(cards...)]
}

// Size returns the number of combinations.
func (r *HandRange) Size() int {
	return len(r.hands)
}

// Hands returns all combinations sorted by bit value.
func (r *HandRange) Hands() []Hand {
	hands := make([]Hand, 0, len(r.hands))
	for h := range r.hands {
		hands = append(hands, h)
	}
	slices.Sort(hands)
	return hands
}

// Without returns a copy that drops combinations blocked by dead cards.
func (r *HandRange) Without(dead Hand) *HandRange {
	out := NewHandRange()
	for h, w := range r.hands {
		if h&dead == 0 {
			out.hands[h] = w
		}
	}
	return out
}
