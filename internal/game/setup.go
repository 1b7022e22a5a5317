package game

import (
	"fmt"

	"github.com/lox/pokerengine/poker"
)

// handPlan is who plays the next hand and where the blinds sit.
type handPlan struct {
	pos      BlindPosArgs
	dealt    []*Player // clockwise from the small blind
	sitIn    []*Player
	missedSB []*Player
	missedBB []*Player
}

// nextSeat returns the first seat clockwise after from that satisfies ok.
func (c *Controller) nextSeat(from int, ok func(*Player) bool) *Player {
	n := c.s.table.NumSeats
	for i := 1; i <= n; i++ {
		p := c.s.playerAt(((from+i)%n + n) % n)
		if p != nil && ok(p) {
			return p
		}
	}
	return nil
}

// between reports whether seat lies strictly between from and to, clockwise.
func between(seat, from, to, numSeats int) bool {
	d := func(s int) int { return ((s-from)%numSeats + numSeats) % numSeats }
	return d(seat) > 0 && d(seat) < d(to)
}

func (c *Controller) planHand(forced *BlindPosArgs) (handPlan, error) {
	t := c.s.table
	var plan handPlan

	acc := c.Accessor()
	var ready, atBlinds []*Player
	for _, p := range c.s.players {
		switch {
		case acc.ready(p):
			ready = append(ready, p)
		case p.State == SitInAtBlindsPending && p.Stack > 0:
			atBlinds = append(atBlinds, p)
		}
	}
	if len(ready) < 2 {
		// Nobody to wait for: join straight away.
		ready = append(ready, atBlinds...)
		atBlinds = nil
		sortBySeat(ready)
	}
	if len(ready) < 2 {
		return plan, ErrNotEnoughPlayers
	}
	inPlan := make(map[string]bool)
	for _, p := range ready {
		inPlan[p.ID] = true
	}
	isReady := func(p *Player) bool { return inPlan[p.ID] }

	if forced != nil {
		plan.pos = *forced
		for _, p := range atBlinds {
			if p.Seat == forced.BB {
				inPlan[p.ID] = true
			}
		}
	} else {
		btn := c.nextSeat(t.Button, isReady)
		sb := c.nextSeat(btn.Seat, isReady)
		if len(ready) == 2 {
			sb = btn
		}
		bb := c.nextSeat(sb.Seat, isReady)
		plan.pos = BlindPosArgs{Button: btn.Seat, SB: sb.Seat, BB: bb.Seat}

		if len(ready) > 2 {
			for _, p := range atBlinds {
				if between(p.Seat, sb.Seat, bb.Seat, t.NumSeats) {
					plan.pos.BB = p.Seat
					inPlan[p.ID] = true
					break
				}
			}
		}
	}

	for _, p := range c.s.players {
		if inPlan[p.ID] {
			if p.State != SittingIn && p.State != TourneySittingOut {
				plan.sitIn = append(plan.sitIn, p)
			}
			continue
		}
		if t.Format != Ring || t.HandNumber == 0 {
			continue
		}
		if between(p.Seat, plan.pos.Button, plan.pos.SB, t.NumSeats) && !p.OwesSB {
			plan.missedSB = append(plan.missedSB, p)
		}
		if between(p.Seat, plan.pos.SB, plan.pos.BB, t.NumSeats) && !p.OwesBB {
			plan.missedBB = append(plan.missedBB, p)
		}
	}

	sb := plan.pos.SB
	for i := range t.NumSeats {
		if p := c.s.playerAt((sb + i) % t.NumSeats); p != nil && inPlan[p.ID] {
			plan.dealt = append(plan.dealt, p)
		}
	}
	return plan, nil
}

func (c *Controller) setupHand(h handSetup) error {
	t := c.s.table
	if t.Street != Between {
		return ErrHandInProgress
	}
	if t.Finished {
		return ErrNotEnoughPlayers
	}
	if err := c.rules.beforeHand(c); err != nil {
		return err
	}
	plan, err := c.planHand(h.positions)
	if err != nil {
		return err
	}

	for _, p := range plan.sitIn {
		if err := c.playerEvent(p, EventSitIn, StateArgs{State: SittingIn}); err != nil {
			return err
		}
	}
	for _, p := range plan.missedSB {
		if err := c.playerEvent(p, EventMissedBlinds, MissedBlindsArgs{SB: true}); err != nil {
			return err
		}
	}
	for _, p := range plan.missedBB {
		if err := c.playerEvent(p, EventMissedBlinds, MissedBlindsArgs{BB: true}); err != nil {
			return err
		}
	}

	deck := h.deck
	if deck == "" {
		deck = poker.NewDeck(c.cfg.rng).String()
	}
	if err := checkDeck(deck, len(plan.dealt)*t.Type.HoleCards()+5); err != nil {
		return err
	}

	c.logSnapshot()
	if err := c.tableEvent(EventNewHand, NewHandArgs{HandNumber: t.HandNumber + 1, Deck: deck}); err != nil {
		return err
	}
	if err := c.tableEvent(EventSetBlindPos, plan.pos); err != nil {
		return err
	}
	if err := c.postForcedBets(plan); err != nil {
		return err
	}

	d, err := poker.NewDeckFromString(c.s.table.Deck)
	if err != nil {
		return violation("deck", "%v", err)
	}
	for _, p := range plan.dealt {
		cards, err := d.Deal(t.Type.HoleCards())
		if err != nil {
			return violation("deck", "%v", err)
		}
		if err := c.playerEvent(p, EventDeal, CardsArgs{Cards: cards}); err != nil {
			return err
		}
	}

	c.log.Debug().
		Int64("hand_number", t.HandNumber).
		Int("button", t.Button).
		Int("players", len(plan.dealt)).
		Msg("Hand dealt")
	return nil
}

func checkDeck(deck string, need int) error {
	d, err := poker.NewDeckFromString(deck)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if d.CardsRemaining() != 52 {
		return fmt.Errorf("game: deck has %d cards, want 52", d.CardsRemaining())
	}
	if need > 52 {
		return fmt.Errorf("game: %d cards needed, deck has 52", need)
	}
	return nil
}

// postForcedBets posts antes and dead blinds, sweeps them into the pot, then
// posts the live blinds.
func (c *Controller) postForcedBets(plan handPlan) error {
	t := c.s.table
	dealt := make(map[string]bool, len(plan.dealt))
	for _, p := range plan.dealt {
		dealt[p.ID] = true
	}

	var swept bool
	if t.Ante > 0 {
		for _, p := range plan.dealt {
			if amt := min(t.Ante, p.Stack); amt > 0 {
				if err := c.playerEvent(p, EventAnte, AmountArgs{Amount: amt}); err != nil {
					return err
				}
				swept = true
			}
		}
	}
	for _, p := range plan.dealt {
		if !p.OwesSB || p.Seat == t.SBIdx || p.Seat == t.BBIdx {
			continue
		}
		if amt := min(t.SmallBlind, p.Stack); amt > 0 {
			if err := c.playerEvent(p, EventPostDead, AmountArgs{Amount: amt}); err != nil {
				return err
			}
			swept = true
		}
	}
	if swept {
		pots := BuildPots(c.contributions(func(p *Player) bool { return dealt[p.ID] }), c.deadMoney())
		if err := c.tableEvent(EventCollectPots, CollectPotsArgs{Pots: pots}); err != nil {
			return err
		}
	}

	post := func(seat int, amount int64, kind BlindKind) error {
		p := c.s.playerAt(seat)
		if p == nil || !dealt[p.ID] {
			return nil
		}
		if amt := min(amount, p.Stack); amt > 0 {
			return c.playerEvent(p, EventPost, PostArgs{Amount: amt, Blind: kind})
		}
		return nil
	}
	if t.SBIdx != t.BBIdx {
		if err := post(t.SBIdx, t.SmallBlind, BlindSmall); err != nil {
			return err
		}
	}
	if err := post(t.BBIdx, t.BigBlind, BlindBig); err != nil {
		return err
	}
	for _, p := range plan.dealt {
		if p.OwesBB && p.Seat != t.SBIdx && p.Seat != t.BBIdx {
			if err := post(p.Seat, t.BigBlind, BlindOwedBig); err != nil {
				return err
			}
		}
	}
	return nil
}

// contributions lists every committed player. live decides who may still win.
func (c *Controller) contributions(live func(*Player) bool) []Contribution {
	var out []Contribution
	for _, p := range c.s.players {
		if p.Wagers > 0 || live(p) {
			out = append(out, Contribution{Seat: p.Seat, Amount: p.Wagers, Folded: !live(p)})
		}
	}
	return out
}

func (c *Controller) deadMoney() int64 {
	var dead int64
	for _, p := range c.s.players {
		dead += p.DeadMoney
	}
	return dead
}
