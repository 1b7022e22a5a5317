package poker

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrDeckExhausted is returned when more cards are requested than remain.
var ErrDeckExhausted = errors.New("poker: deck exhausted")

// RandSource picks a uniform integer in [0, n). *rand.Rand from math/rand/v2
// satisfies it, which lets simulations inject a seeded source.
type RandSource interface {
	IntN(n int) int
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("poker: secure random source failed: " + err.Error())
	}
	return int(v.Int64())
}

// CryptoSource is the default RandSource, backed by crypto/rand.
var CryptoSource RandSource = cryptoSource{}

// Deck is an ordered run of undealt cards, consumed front to back.
type Deck struct {
	cards []Card
}

// NewDeck builds a shuffled 52 card deck. A nil rng uses CryptoSource.
func NewDeck(rng RandSource) *Deck {
	if rng == nil {
		rng = CryptoSource
	}
	ordered := make([]Card, 0, 52)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			ordered = append(ordered, NewCard(rank, suit))
		}
	}

	// Pop a card at a random index until the source is empty.
	d := &Deck{cards: make([]Card, 0, 52)}
	for len(ordered) > 0 {
		i := rng.IntN(len(ordered))
		d.cards = append(d.cards, ordered[i])
		ordered[i] = ordered[len(ordered)-1]
		ordered = ordered[:len(ordered)-1]
	}
	return d
}

// NewDeckFromString restores a predetermined deck, e.g. from a hand history.
// The string may hold fewer than 52 cards but never duplicates.
func NewDeckFromString(s string) (*Deck, error) {
	cards, err := ParseCards(s)
	if err != nil {
		return nil, fmt.Errorf("poker: parse deck: %w", err)
	}
	return &Deck{cards: cards}, nil
}

// Deal removes and returns the next n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Peek returns the next n cards without dealing them.
func (d *Deck) Peek(n int) []Card {
	n = min(n, len(d.cards))
	out := make([]Card, n)
	copy(out, d.cards[:n])
	return out
}

// Remove takes specific cards out of the deck wherever they are.
func (d *Deck) Remove(cards ...Card) {
	drop := NewHand(cards...)
	kept := d.cards[:0]
	for _, c := range d.cards {
		if !drop.HasCard(c) {
			kept = append(kept, c)
		}
	}
	d.cards = kept
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// Clone returns an independent copy.
func (d *Deck) Clone() *Deck {
	return &Deck{cards: append([]Card(nil), d.cards...)}
}

// String serializes the remaining cards, e.g. "AsKd2c...".
func (d *Deck) String() string {
	return FormatCards(d.cards)
}
