// Package stats summarises play at a table from its event stream.
package stats

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// HandResult is one player's outcome in one hand.
type HandResult struct {
	NetBB    float64 // big blinds won or lost
	Showdown bool    // the hand was decided at showdown
	PotBB    float64 // total paid out, in big blinds
	VPIP     bool    // voluntarily put chips in preflop
}

// Statistics accumulates a player's results in big blinds.
type Statistics struct {
	Hands  int
	Values []float64

	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64
	NonShowdownBB   float64
	AllBB           float64
	VPIPHands       int

	MaxPotBB  float64
	BigPots   int // pots of 50bb or more
	BigPotsBB float64
}

// Add incorporates a hand result.
func (s *Statistics) Add(r HandResult) {
	s.Hands++
	s.Values = append(s.Values, r.NetBB)

	if r.NetBB > 0 {
		if r.Showdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}
	if r.Showdown {
		s.ShowdownBB += r.NetBB
	} else {
		s.NonShowdownBB += r.NetBB
	}
	s.AllBB += r.NetBB
	if r.VPIP {
		s.VPIPHands++
	}

	s.MaxPotBB = max(s.MaxPotBB, r.PotBB)
	if r.PotBB >= 50 {
		s.BigPots++
		s.BigPotsBB += r.NetBB
	}
}

// Mean returns the mean result in big blinds per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	if s.Hands < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(s.Values, nil)
	return std
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return stat.StdErr(s.StdDev(), float64(s.Hands))
}

// BBPer100 is the win rate in big blinds per hundred hands.
func (s *Statistics) BBPer100() float64 {
	return s.Mean() * 100
}

// ConfidenceInterval95 returns a two sided 95% interval for the mean using
// Student's t distribution.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	if s.Hands < 2 {
		return mean, mean
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(s.Hands - 1)}
	margin := t.Quantile(0.975) * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median result.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the linearly interpolated value at p in [0, 1].
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// VPIP is the share of hands where the player put chips in voluntarily.
func (s *Statistics) VPIP() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.VPIPHands) / float64(s.Hands)
}

// IsLedgerBalanced checks that the showdown split adds up to the total.
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllBB-s.ShowdownBB-s.NonShowdownBB) <= 1e-6
}

// Validate checks the accumulated counters for consistency.
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("stats: ledger mismatch: all=%.6f showdown=%.6f non-showdown=%.6f",
			s.AllBB, s.ShowdownBB, s.NonShowdownBB)
	}
	if s.Hands <= 0 {
		return fmt.Errorf("stats: invalid hands count %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("stats: %d values for %d hands", len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("stats: %d wins exceed %d hands", wins, s.Hands)
	}
	return nil
}
