package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contribs []Contribution
		dead     int64
		want     []Pot
	}{
		{
			name:     "single pot",
			contribs: []Contribution{{Seat: 0, Amount: 8}, {Seat: 1, Amount: 8}, {Seat: 2, Amount: 8}},
			want:     []Pot{{Amount: 24, Eligible: []int{0, 1, 2}}},
		},
		{
			name:     "short stack all in",
			contribs: []Contribution{{Seat: 0, Amount: 100}, {Seat: 1, Amount: 100}, {Seat: 2, Amount: 50}},
			want: []Pot{
				{Amount: 150, Eligible: []int{0, 1, 2}},
				{Amount: 100, Eligible: []int{0, 1}},
			},
		},
		{
			name: "folded money stays in the pot",
			contribs: []Contribution{
				{Seat: 0, Amount: 100, Folded: true},
				{Seat: 1, Amount: 200},
				{Seat: 2, Amount: 200},
			},
			want: []Pot{{Amount: 500, Eligible: []int{1, 2}}},
		},
		{
			name: "tier nobody can win joins the pot below",
			contribs: []Contribution{
				{Seat: 0, Amount: 50, Folded: true},
				{Seat: 1, Amount: 30},
			},
			want: []Pot{{Amount: 80, Eligible: []int{1}}},
		},
		{
			name:     "dead money joins the main pot",
			contribs: []Contribution{{Seat: 0, Amount: 10}, {Seat: 1, Amount: 10}},
			dead:     5,
			want:     []Pot{{Amount: 25, Eligible: []int{0, 1}}},
		},
		{
			name:     "only dead money",
			contribs: []Contribution{{Seat: 3}, {Seat: 1}},
			dead:     3,
			want:     []Pot{{Amount: 3, Eligible: []int{1, 3}}},
		},
		{
			name: "three tiers",
			contribs: []Contribution{
				{Seat: 0, Amount: 25},
				{Seat: 1, Amount: 75},
				{Seat: 2, Amount: 150},
				{Seat: 3, Amount: 150},
			},
			want: []Pot{
				{Amount: 100, Eligible: []int{0, 1, 2, 3}},
				{Amount: 150, Eligible: []int{1, 2, 3}},
				{Amount: 150, Eligible: []int{2, 3}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pots := BuildPots(tt.contribs, tt.dead)
			assert.Equal(t, tt.want, pots)

			var total, in int64
			for _, p := range pots {
				total += p.Amount
			}
			for _, c := range tt.contribs {
				in += c.Amount
			}
			assert.Equal(t, in+tt.dead, total, "pots must hold every chip")
		})
	}
}

func TestUncalledExcess(t *testing.T) {
	t.Parallel()

	seat, excess, ok := UncalledExcess(map[int]int64{0: 100, 1: 40})
	require.True(t, ok)
	assert.Equal(t, 0, seat)
	assert.Equal(t, int64(60), excess)

	_, _, ok = UncalledExcess(map[int]int64{0: 50, 1: 50})
	assert.False(t, ok, "matched bets have no excess")

	seat, excess, ok = UncalledExcess(map[int]int64{2: 30})
	require.True(t, ok)
	assert.Equal(t, 2, seat)
	assert.Equal(t, int64(30), excess)

	_, _, ok = UncalledExcess(nil)
	assert.False(t, ok)
}

func TestSplitAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[int]int64{3: 5, 1: 5}, SplitAmount(10, []int{3, 1}))
	assert.Equal(t, map[int]int64{3: 4, 1: 4, 2: 3}, SplitAmount(11, []int{3, 1, 2}))
	assert.Equal(t, map[int]int64{4: 7}, SplitAmount(7, []int{4}))
	assert.Empty(t, SplitAmount(10, nil))
}

func TestClockwiseFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{5, 0, 2}, clockwiseFrom([]int{0, 2, 5}, 2, 6))
	assert.Equal(t, []int{1, 2, 0}, clockwiseFrom([]int{0, 1, 2}, 0, 3))
}
