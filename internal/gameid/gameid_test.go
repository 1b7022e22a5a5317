package gameid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	id := Generate()
	assert.Len(t, id, 26)
	require.NoError(t, Validate(id))

	u, err := Decode(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
	assert.Equal(t, uuid.RFC4122, u.Variant())
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for range 100 {
		id := Generate()
		require.False(t, ids[id], "duplicate %s", id)
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	t.Parallel()

	clk := quartz.NewMock(t)
	g := NewGenerator(clk, nil)
	var ids []string
	for range 10 {
		id, err := g.Generate()
		require.NoError(t, err)
		ids = append(ids, id)
		clk.Advance(time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s >= %s", ids[i-1], ids[i])
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	t.Parallel()

	clk := quartz.NewMock(t)
	seed := bytes.Repeat([]byte{0xa5}, 16)
	a, err := NewGenerator(clk, bytes.NewReader(seed)).Generate()
	require.NoError(t, err)
	b, err := NewGenerator(clk, bytes.NewReader(seed)).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ts, err := Time(a)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().UnixMilli(), ts.UnixMilli())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, u := range []uuid.UUID{
		{},
		uuid.Max,
		uuid.MustParse("0190b5c8-6d2e-7abc-8def-0123456789ab"),
	} {
		id := Encode(u)
		got, err := Decode(id)
		require.NoError(t, err, id)
		assert.Equal(t, u, got)
	}
	assert.Equal(t, strings.Repeat("0", 26), Encode(uuid.UUID{}))
	assert.Equal(t, "7"+strings.Repeat("z", 25), Encode(uuid.Max))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid ID", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcdef", true},
		{"first char too high", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"invalid character", "01h5n0et5q6mt3v7ms1234abci", true},
		{"uppercase not allowed", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			assert.Equal(t, tt.wantErr, err != nil, "Validate(%q) = %v", tt.id, err)
		})
	}
}

func TestAlphabet(t *testing.T) {
	t.Parallel()

	require.Len(t, alphabet, 32)
	seen := make(map[rune]bool)
	for _, c := range alphabet {
		assert.False(t, seen[c], "duplicate %c", c)
		seen[c] = true
	}
	for _, c := range "ilou" {
		assert.NotContains(t, alphabet, string(c))
	}
}
