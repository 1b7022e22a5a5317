// Package randutil builds reproducible random sources for simulations and
// tests. Live tables use poker.CryptoSource instead.
package randutil

import rand "math/rand/v2"

// New returns a PCG generator whose two seed words are derived from seed,
// so nearby seeds still produce unrelated streams.
func New(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(&s), splitmix(&s)))
}

// Derive mixes a base seed with a path of indexes (table, bot, player) into
// a child seed. Equal paths give equal seeds.
func Derive(seed int64, path ...int64) int64 {
	s := uint64(seed)
	out := splitmix(&s)
	for _, p := range path {
		s = out ^ uint64(p)
		out = splitmix(&s)
	}
	return int64(out)
}

func splitmix(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
