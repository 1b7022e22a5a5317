package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHandRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		notation string
		size     int
	}{
		{"AA", 6},
		{"AKs", 4},
		{"AKo", 12},
		{"AK", 16},
		{"TT+", 30},
		{"22-44", 18},
		{"A5s-A2s", 16},
		{"KTs+", 12},
		{"AA,KK,AKs", 16},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			t.Parallel()
			r, err := ParseHandRange(tt.notation)
			require.NoError(t, err)
			assert.Equal(t, tt.size, r.Size())
		})
	}
}

func TestParseHandRangeErrors(t *testing.T) {
	t.Parallel()
	for _, bad := range []string{"AAs", "XK", "AKx", "A", "AKs:2", "A5s-K2s"} {
		_, err := ParseHandRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestHandRangeContainsAndWeights(t *testing.T) {
	t.Parallel()
	r, err := ParseHandRange("QQ+,AKs,KQo:0.5")
	require.NoError(t, err)

	assert.True(t, r.Contains(MustParseCards("AhAd")...))
	assert.True(t, r.Contains(MustParseCards("KsAs")...))
	assert.False(t, r.Contains(MustParseCards("AsKd")...))
	assert.Equal(t, 0.5, r.Weight(MustParseCards("KsQd")...))
	assert.Equal(t, 1.0, r.Weight(MustParseCards("QsQd")...))

	// Omaha holding containing KK.
	assert.True(t, r.ContainsAny(MustParseCards("Kh2c7dKc")))
	assert.False(t, r.ContainsAny(MustParseCards("Jh2c7dTc")))
}

func TestHandRangeWithoutDeadCards(t *testing.T) {
	t.Parallel()
	r, err := ParseHandRange("AA")
	require.NoError(t, err)
	live := r.Without(NewHand(MustParseCards("As")...))
	assert.Equal(t, 3, live.Size())
	assert.Len(t, live.Hands(), 3)

	r.Add(MustParseCards("AsKsQsJs"), 0.25)
	assert.Equal(t, 7, r.Size())
	assert.Equal(t, 0.25, r.Weight(MustParseCards("JsQsKsAs")...))
}
