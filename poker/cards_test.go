package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardCreation(t *testing.T) {
	t.Parallel()
	aceSpades := NewCard(Ace, Spades)
	if aceSpades.Rank() != Ace {
		t.Errorf("Expected rank Ace, got %d", aceSpades.Rank())
	}
	if aceSpades.Suit() != Spades {
		t.Errorf("Expected suit Spades, got %d", aceSpades.Suit())
	}
	if aceSpades.String() != "As" {
		t.Errorf("Expected 'As', got %s", aceSpades.String())
	}
	if NewCard(Two, Clubs).String() != "2c" {
		t.Errorf("Expected '2c', got %s", NewCard(Two, Clubs).String())
	}
}

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCard Card
		wantErr  bool
	}{
		{name: "ace of spades", input: "As", wantCard: NewCard(Ace, Spades)},
		{name: "two of hearts", input: "2h", wantCard: NewCard(Two, Hearts)},
		{name: "king of diamonds", input: "Kd", wantCard: NewCard(King, Diamonds)},
		{name: "ten of clubs", input: "Tc", wantCard: NewCard(Ten, Clubs)},
		{name: "lowercase rank", input: "qh", wantCard: NewCard(Queen, Hearts)},
		{name: "uppercase suit", input: "9S", wantCard: NewCard(Nine, Spades)},
		{name: "invalid rank", input: "Xs", wantErr: true},
		{name: "invalid suit", input: "Ax", wantErr: true},
		{name: "too long", input: "10s", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCard(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCard, got)
		})
	}
}

func TestAll52Cards(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	indexes := make(map[int]bool)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := NewCard(rank, suit)
			require.True(t, c.Valid())
			s := c.String()
			require.False(t, seen[s], "duplicate card %s", s)
			seen[s] = true

			parsed, err := ParseCard(s)
			require.NoError(t, err)
			require.Equal(t, c, parsed)

			idx := c.Index()
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, 52)
			indexes[idx] = true
		}
	}
	assert.Len(t, seen, 52)
	assert.Len(t, indexes, 52)
}

func TestCanonicalIndexOrdering(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, MustParseCards("2c")[0].Index())
	assert.Equal(t, 51, MustParseCards("As")[0].Index())
	// Rank dominates suit.
	assert.Less(t, MustParseCards("2s")[0].Index(), MustParseCards("3c")[0].Index())

	cards := MustParseCards("2c As Td Th")
	SortCards(cards)
	assert.Equal(t, "AsThTd2c", FormatCards(cards))
}

func TestParseCards(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"AsKd2c", "As Kd 2c", "As,Kd,2c"} {
		cards, err := ParseCards(in)
		require.NoError(t, err, in)
		assert.Equal(t, "AsKd2c", FormatCards(cards))
	}

	_, err := ParseCards("AsA")
	require.Error(t, err)
	_, err = ParseCards("AsAs")
	require.ErrorContains(t, err, "duplicate")
}

func TestHandOperations(t *testing.T) {
	t.Parallel()
	h := NewHand(MustParseCards("AsKsQh")...)
	assert.Equal(t, 3, h.CountCards())
	assert.True(t, h.HasCard(NewCard(Ace, Spades)))
	assert.False(t, h.HasCard(NewCard(Ace, Hearts)))

	h.AddCard(NewCard(Two, Clubs))
	assert.Equal(t, 4, h.CountCards())
	assert.Equal(t, "AsKsQh2c", h.String())

	assert.Equal(t, uint16(1<<Ace|1<<King), h.SuitMask(Spades))
	assert.Equal(t, uint16(1<<Ace|1<<King|1<<Queen|1<<Two), h.RankMask())
	assert.Equal(t, 52, FullDeck().CountCards())
}

func TestCardTextRoundTrip(t *testing.T) {
	t.Parallel()
	cards := MustParseCards("AhTc")
	b, err := json.Marshal(cards)
	require.NoError(t, err)
	assert.JSONEq(t, `["Ah","Tc"]`, string(b))

	var back []Card
	require.NoError(t, json.Unmarshal([]byte(`["Ah","??"]`), &back))
	assert.Equal(t, cards[0], back[0])
	assert.Equal(t, Card(0), back[1])
	assert.Equal(t, NoCard, back[1].String())
}
