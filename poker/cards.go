// Package poker provides card primitives, decks and hand ranking.
package poker

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// Card is a single card stored as one bit of a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs]
type Card uint64

// Hand is a set of cards; multiple bits may be set.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"

	// NoCard is the string used for a card that is absent or hidden.
	NoCard = "??"
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// bit returns the bit position (0-51), or 255 for an invalid card.
func (c Card) bit() uint8 {
	if c == 0 || bits.OnesCount64(uint64(c)) != 1 {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Valid reports whether c is exactly one of the 52 cards.
func (c Card) Valid() bool {
	return c.bit() < 52
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	pos := c.bit()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	pos := c.bit()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// Index is the canonical ordering index, rank*4 + suit (0 = 2c, 51 = As).
func (c Card) Index() int {
	if !c.Valid() {
		return -1
	}
	return int(c.Rank())*4 + int(c.Suit())
}

// String returns the two character form, e.g. "As" or "Td".
func (c Card) String() string {
	rank, suit := c.Rank(), c.Suit()
	if rank > 12 || suit > 3 {
		return NoCard
	}
	return string(rankChars[rank]) + string(suitChars[suit])
}

// MarshalText implements encoding.TextMarshaler.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The hidden card "??"
// decodes to the zero Card.
func (c *Card) UnmarshalText(b []byte) error {
	if string(b) == NoCard {
		*c = 0
		return nil
	}
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseRank converts a rank character into 0-12.
func ParseRank(ch byte) (uint8, error) {
	idx := strings.IndexByte(rankChars, upper(ch))
	if idx < 0 {
		return 0, fmt.Errorf("invalid rank: %c", ch)
	}
	return uint8(idx), nil
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}
	rank, err := ParseRank(s[0])
	if err != nil {
		return 0, err
	}
	suit := strings.IndexByte(suitChars, s[1]|0x20)
	if suit < 0 {
		return 0, fmt.Errorf("invalid suit: %c", s[1])
	}
	return NewCard(rank, uint8(suit)), nil
}

// ParseCards parses a run of cards, with or without separators:
// "AsKd", "As Kd" and "As,Kd" are all accepted.
func ParseCards(s string) ([]Card, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', '\t', '\n':
			return -1
		}
		return r
	}, s)
	if len(compact)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %q", s)
	}
	cards := make([]Card, 0, len(compact)/2)
	var seen Hand
	for i := 0; i < len(compact); i += 2 {
		c, err := ParseCard(compact[i : i+2])
		if err != nil {
			return nil, err
		}
		if seen.HasCard(c) {
			return nil, fmt.Errorf("duplicate card %s", c)
		}
		seen.AddCard(c)
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for fixtures; it panics on error.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// FormatCards joins cards without separators, e.g. "AsKd".
func FormatCards(cards []Card) string {
	var b strings.Builder
	b.Grow(len(cards) * 2)
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

// SortCards orders cards by canonical index, highest first.
func SortCards(cards []Card) {
	slices.SortFunc(cards, func(a, b Card) int {
		return b.Index() - a.Index()
	})
}

// NewHand creates a hand from multiple cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// SuitMask returns the ranks held in one suit as a 13 bit mask.
func (h Hand) SuitMask(suit uint8) uint16 {
	return uint16((h >> (suit * 13)) & 0x1FFF)
}

// RankMask returns the ranks present in any suit.
func (h Hand) RankMask() uint16 {
	var mask uint16
	for suit := range uint8(4) {
		mask |= h.SuitMask(suit)
	}
	return mask
}

// Cards expands the hand into individual cards, highest first.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		cards = append(cards, Card(rest&-rest))
	}
	SortCards(cards)
	return cards
}

func (h Hand) String() string {
	return FormatCards(h.Cards())
}

// FullDeck returns all 52 cards as a hand.
func FullDeck() Hand {
	return Hand(1<<52 - 1)
}
