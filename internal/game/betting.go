package game

import (
	"slices"

	"github.com/lox/pokerengine/poker"
)

func (c *Controller) bet(a Action) error {
	acc := c.Accessor()
	t := c.s.table
	p := acc.PlayerByID(a.PlayerID)
	if p == nil {
		return invalid(a, ReasonNotSeated, "player %s is not seated", a.PlayerID)
	}
	if !acc.HandInProgress() {
		return invalid(a, ReasonNoHand, "")
	}
	if acc.NextToAct() != p {
		return invalid(a, ReasonNotYourTurn, "%s is not to act", p)
	}
	if !slices.Contains(acc.AvailableActions(p), a.Type) {
		return invalid(a, ReasonIllegalAction, "%s may %v", p, acc.AvailableActions(p))
	}

	switch a.Type {
	case ActionFold:
		return c.playerEvent(p, EventFold, AutoArgs{})
	case ActionCheck:
		return c.playerEvent(p, EventCheck, AutoArgs{})
	case ActionCall:
		return c.playerEvent(p, EventCall, CallArgs{Amount: acc.CallAmt(p)})
	}

	lo, hi := acc.ValidBetRange(p)
	if a.Amount < lo || a.Amount > hi || a.Amount <= t.CurrentBet {
		return invalid(a, ReasonBadAmount, "%d outside %d-%d", a.Amount, lo, hi)
	}
	et := EventRaiseTo
	if a.Type == ActionBet {
		et = EventBet
	}
	return c.playerEvent(p, et, BetArgs{Amount: a.Amount})
}

// closeStreet returns any uncalled bet and sweeps the street's bets into
// the pots.
func (c *Controller) closeStreet() error {
	acc := c.Accessor()
	if acc.UncollectedTotal() == 0 {
		return nil
	}
	commits := make(map[int]int64)
	for _, p := range c.s.players {
		if p.UncollectedBets > 0 {
			commits[p.Seat] = p.UncollectedBets
		}
	}
	if seat, excess, ok := UncalledExcess(commits); ok {
		if err := c.playerEvent(c.s.playerAt(seat), EventReturnChips, AmountArgs{Amount: excess}); err != nil {
			return err
		}
	}
	pots := BuildPots(c.contributions((*Player).InHand), c.deadMoney())
	return c.tableEvent(EventCollectPots, CollectPotsArgs{Pots: pots})
}

// nextStreet closes the current street and deals the next one.
func (c *Controller) nextStreet() error {
	t := c.s.table
	if err := c.closeStreet(); err != nil {
		return err
	}
	next := t.Street + 1
	var cards []poker.Card
	if n := next.boardCards() - len(t.Board); n > 0 {
		d, err := poker.NewDeckFromString(t.Deck)
		if err != nil {
			return violation("deck", "%v", err)
		}
		if cards, err = d.Deal(n); err != nil {
			return violation("deck", "%v", err)
		}
	}
	return c.tableEvent(EventNewStreet, NewStreetArgs{Street: next, Cards: cards})
}

// resolveHand finishes a hand whose betting is complete: runs out the
// board if needed, pays the pots and resets the table for the next hand.
func (c *Controller) resolveHand() error {
	acc := c.Accessor()
	var winners []*Player
	var err error
	if len(acc.PlayersInHand()) == 1 {
		winners, err = c.awardUncontested()
	} else {
		for c.s.table.Street < Showdown {
			if err := c.nextStreet(); err != nil {
				return err
			}
		}
		winners, err = c.showdown()
	}
	if err != nil {
		return err
	}
	return c.endHand(winners)
}

func (c *Controller) awardUncontested() ([]*Player, error) {
	if err := c.closeStreet(); err != nil {
		return nil, err
	}
	winner := c.Accessor().PlayersInHand()[0]
	for i, pot := range c.s.table.Sidepots {
		if pot.Amount == 0 {
			continue
		}
		if !slices.Contains(pot.Eligible, winner.Seat) {
			return nil, violation("pots", "last player %s not eligible for pot %d", winner, i)
		}
		if err := c.playerEvent(winner, EventWin, WinArgs{Amount: pot.Amount, Pot: i}); err != nil {
			return nil, err
		}
	}
	return []*Player{winner}, nil
}

type award struct {
	player *Player
	pot    int
	amount int64
}

func (c *Controller) showdown() ([]*Player, error) {
	t := c.s.table
	contenders := c.Accessor().PlayersInHand()
	results := make(map[string]poker.HandResult, len(contenders))
	for _, p := range contenders {
		res, err := poker.BestHand(p.Cards, t.Board, t.Type.HoleRule())
		if err != nil {
			return nil, violation("showdown", "%s: %v", p, err)
		}
		results[p.ID] = res
	}

	var awards []award
	won := make(map[string]bool)
	for i, pot := range t.Sidepots {
		if pot.Amount == 0 {
			continue
		}
		var best poker.RankKey
		var seats []int
		for _, seat := range pot.Eligible {
			p := c.s.playerAt(seat)
			if p == nil || !p.InHand() {
				continue
			}
			switch key := results[p.ID].Key; {
			case len(seats) == 0 || key > best:
				best, seats = key, []int{seat}
			case key == best:
				seats = append(seats, seat)
			}
		}
		if len(seats) == 0 {
			return nil, violation("pots", "pot %d has no eligible player", i)
		}
		ordered := clockwiseFrom(seats, t.Button, t.NumSeats)
		shares := SplitAmount(pot.Amount, ordered)
		for _, seat := range ordered {
			p := c.s.playerAt(seat)
			awards = append(awards, award{player: p, pot: i, amount: shares[seat]})
			won[p.ID] = true
		}
	}

	seats := make([]int, 0, len(contenders))
	for _, p := range contenders {
		seats = append(seats, p.Seat)
	}
	for _, seat := range clockwiseFrom(seats, t.Button, t.NumSeats) {
		p := c.s.playerAt(seat)
		if won[p.ID] || p.AllIn() {
			res := results[p.ID]
			if err := c.playerEvent(p, EventReveal, CardsArgs{Cards: p.Cards, Hand: res.Key.String()}); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.playerEvent(p, EventMuck, AutoArgs{}); err != nil {
			return nil, err
		}
	}

	var winners []*Player
	for _, aw := range awards {
		res := results[aw.player.ID]
		args := WinArgs{Amount: aw.amount, Pot: aw.pot, Showdown: true, Hand: res.Key.String(), Cards: res.Cards[:]}
		if err := c.playerEvent(aw.player, EventWin, args); err != nil {
			return nil, err
		}
		if !slices.Contains(winners, aw.player) {
			winners = append(winners, aw.player)
		}
	}
	return winners, nil
}

func (c *Controller) endHand(winners []*Player) error {
	t := c.s.table
	if t.Type == BountyNLHE {
		if err := c.awardBounty(winners); err != nil {
			return err
		}
	}
	for _, p := range slices.Clone(c.s.players) {
		if p.DealtIn || p.Wagers > 0 || p.DeadMoney > 0 || len(p.Cards) > 0 {
			if err := c.playerEvent(p, EventResetPlayer, NoArgs{}); err != nil {
				return err
			}
		}
	}
	if t.PaidOut != 0 {
		return violation("pots", "%d chips left unpaid at end of hand", t.PaidOut)
	}
	hand := t.HandNumber
	if err := c.tableEvent(EventEndHand, EndHandArgs{HandNumber: hand}); err != nil {
		return err
	}
	c.log.Debug().Int64("hand_number", hand).Int("winners", len(winners)).Msg("Hand complete")
	if c.cfg.replaying {
		return nil
	}
	return c.rules.afterHand(c)
}
