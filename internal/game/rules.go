package game

import (
	"slices"

	"github.com/lox/pokerengine/internal/ledger"
)

// Rules are the parts of a table's lifecycle that differ between a cash
// ring game and a freezeout tournament.
type Rules interface {
	// beforeHand runs before a hand is planned.
	beforeHand(c *Controller) error
	// afterHand runs after END_HAND, so its events open the next hand's
	// preamble.
	afterHand(c *Controller) error
	// buyIn validates a TAKE_SEAT and returns the starting chips.
	buyIn(c *Controller, a Action) (int64, error)
	// settleBuyIn moves the money for a seat once its events are applied.
	settleBuyIn(c *Controller, a Action, chips int64) error
	canLeave(c *Controller, a Action, p *Player) error
	// cashOut removes a player who holds no cards.
	cashOut(c *Controller, p *Player) error
	sitOutState() PlayingState
}

type ringRules struct{}

func (ringRules) beforeHand(*Controller) error { return nil }

func (ringRules) sitOutState() PlayingState { return SittingOut }

func (ringRules) canLeave(*Controller, Action, *Player) error { return nil }

func (ringRules) buyIn(c *Controller, a Action) (int64, error) {
	t := c.s.table
	if a.Amount < t.MinBuyin || a.Amount > t.MaxBuyin {
		return 0, invalid(a, ReasonBadAmount, "buy-in %d outside %d-%d", a.Amount, t.MinBuyin, t.MaxBuyin)
	}
	return a.Amount, nil
}

func (ringRules) settleBuyIn(c *Controller, a Action, chips int64) error {
	return c.transfer(a, ledger.User(a.PlayerID), ledger.Table(c.s.table.ID), chips, "buy-in")
}

func (ringRules) cashOut(c *Controller, p *Player) error {
	stack := p.Stack
	if stack > 0 {
		if err := c.playerEvent(p, EventCashOut, AmountArgs{Amount: stack}); err != nil {
			return err
		}
	}
	if err := c.playerEvent(p, EventLeaveSeat, NoArgs{}); err != nil {
		return err
	}
	a := Action{Type: ActionLeaveSeat, PlayerID: p.ID}
	return c.transfer(a, ledger.Table(c.s.table.ID), ledger.User(p.ID), stack, "cash-out")
}

func (ringRules) afterHand(c *Controller) error {
	t := c.s.table
	for _, p := range slices.Clone(c.s.players) {
		switch {
		case p.State == LeaveSeatPending:
			if p.Stack > 0 {
				c.payout(ledger.Table(t.ID), ledger.User(p.ID), t.Chips(p.Stack), "cash-out")
				if err := c.playerEvent(p, EventCashOut, AmountArgs{Amount: p.Stack}); err != nil {
					return err
				}
			}
			if err := c.playerEvent(p, EventLeaveSeat, NoArgs{}); err != nil {
				return err
			}

		case p.Stack == 0 && p.AutoRebuy > 0:
			amount := min(p.AutoRebuy, t.MaxBuyin)
			if !c.canAfford(ledger.User(p.ID), t.Chips(amount)) {
				c.log.Info().Str("player_id", p.ID).Int64("amount", amount).Msg("Auto rebuy unaffordable, sitting out")
				if p.State != SittingOut {
					if err := c.playerEvent(p, EventSitOut, StateArgs{State: SittingOut}); err != nil {
						return err
					}
				}
				continue
			}
			c.payout(ledger.User(p.ID), ledger.Table(t.ID), t.Chips(amount), "rebuy")
			if err := c.playerEvent(p, EventBuy, AmountArgs{Amount: amount}); err != nil {
				return err
			}

		case p.Stack == 0 && p.State != SittingOut:
			if err := c.playerEvent(p, EventSitOut, StateArgs{State: SittingOut}); err != nil {
				return err
			}
		}
	}
	return nil
}
