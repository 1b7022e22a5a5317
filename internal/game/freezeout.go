package game

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/lox/pokerengine/internal/ledger"
)

type freezeoutRules struct {
	cfg TournamentConfig
}

// levelFor returns the blind level in force for a hand and its 1-based index.
func levelFor(levels []BlindLevel, hand int64) BlindLevel {
	l, _ := levelIndex(levels, hand)
	return l
}

func levelIndex(levels []BlindLevel, hand int64) (BlindLevel, int) {
	idx := 0
	for i, l := range levels {
		if l.FromHand <= hand {
			idx = i
		}
	}
	return levels[idx], idx + 1
}

func (r *freezeoutRules) sitOutState() PlayingState { return TourneySittingOut }

func (r *freezeoutRules) beforeHand(c *Controller) error {
	if len(r.cfg.Levels) == 0 {
		return nil
	}
	t := c.s.table
	l, idx := levelIndex(r.cfg.Levels, t.HandNumber+1)
	if idx == t.BlindLevel && l.SmallBlind == t.SmallBlind && l.BigBlind == t.BigBlind && l.Ante == t.Ante {
		return nil
	}
	c.log.Info().Int("level", idx).Int64("sb", l.SmallBlind).Int64("bb", l.BigBlind).Msg("Blinds up")
	return c.tableEvent(EventSetBlinds, SetBlindsArgs{Level: idx, SmallBlind: l.SmallBlind, BigBlind: l.BigBlind, Ante: l.Ante})
}

func (r *freezeoutRules) buyIn(c *Controller, a Action) (int64, error) {
	t := c.s.table
	if t.HandNumber > 0 || t.Finished {
		return 0, invalid(a, ReasonTournament, "registration closed")
	}
	return r.cfg.StartingStack, nil
}

func (r *freezeoutRules) settleBuyIn(c *Controller, a Action, _ int64) error {
	return c.transfer(a, ledger.User(a.PlayerID), ledger.Tournament(c.s.table.ID), r.cfg.BuyIn, "tournament buy-in")
}

func (r *freezeoutRules) canLeave(c *Controller, a Action, _ *Player) error {
	t := c.s.table
	if t.HandNumber > 0 && !t.Finished {
		return invalid(a, ReasonTournament, "cannot leave a running tournament")
	}
	return nil
}

func (r *freezeoutRules) cashOut(c *Controller, p *Player) error {
	t := c.s.table
	if p.Stack > 0 {
		if err := c.playerEvent(p, EventCashOut, AmountArgs{Amount: p.Stack}); err != nil {
			return err
		}
	}
	if err := c.playerEvent(p, EventLeaveSeat, NoArgs{}); err != nil {
		return err
	}
	if t.Finished {
		return nil
	}
	a := Action{Type: ActionLeaveSeat, PlayerID: p.ID}
	return c.transfer(a, ledger.Tournament(t.ID), ledger.User(p.ID), r.cfg.BuyIn, "tournament unregister")
}

func (r *freezeoutRules) afterHand(c *Controller) error {
	t := c.s.table
	if t.Finished {
		return nil
	}
	var busted, alive []*Player
	for _, p := range c.s.players {
		if p.Stack == 0 {
			busted = append(busted, p)
		} else {
			alive = append(alive, p)
		}
	}

	// A player who started the hand with more chips finishes ahead.
	start := make(map[string]int64)
	for _, p := range c.handInit.Players {
		start[p.ID] = p.Stack
	}
	slices.SortStableFunc(busted, func(a, b *Player) int { return cmp.Compare(start[a.ID], start[b.ID]) })

	place := len(c.s.players)
	for _, p := range busted {
		if err := c.playerEvent(p, EventEliminate, EliminateArgs{Place: place}); err != nil {
			return err
		}
		c.log.Info().Str("player_id", p.ID).Int("place", place).Msg("Player eliminated")
		place--
	}

	if len(alive) != 1 || len(t.Placements) == 0 {
		return nil
	}
	placements := append(slices.Clone(t.Placements), Placement{PlayerID: alive[0].ID, Place: 1})
	slices.SortFunc(placements, func(a, b Placement) int { return cmp.Compare(a.Place, b.Place) })
	if err := c.tableEvent(EventFinishTournament, FinishTournamentArgs{Placements: placements}); err != nil {
		return err
	}
	r.payPrizes(c, placements)
	return nil
}

// Prizes computes each place's share of the pool. Amounts are rounded down
// to the table precision and the remainder goes to the winner.
func Prizes(pool decimal.Decimal, payouts []int64, places int, precision int32) []decimal.Decimal {
	out := make([]decimal.Decimal, min(len(payouts), places))
	paid := decimal.Zero
	for i := range out {
		out[i] = pool.Mul(decimal.NewFromInt(payouts[i])).Div(decimal.NewFromInt(100)).RoundDown(precision)
		paid = paid.Add(out[i])
	}
	if len(out) > 0 {
		out[0] = out[0].Add(pool.Sub(paid))
	}
	return out
}

func (r *freezeoutRules) payPrizes(c *Controller, placements []Placement) {
	t := c.s.table
	if r.cfg.BuyIn <= 0 || len(r.cfg.Payouts) == 0 {
		return
	}
	pool := t.Chips(r.cfg.BuyIn).Mul(decimal.NewFromInt(int64(len(placements))))
	prizes := Prizes(pool, r.cfg.Payouts, len(placements), t.Precision)
	for i, amount := range prizes {
		c.payout(ledger.Tournament(t.ID), ledger.User(placements[i].PlayerID), amount, "tournament prize")
	}
}
