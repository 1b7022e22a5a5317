package game

import (
	"github.com/lox/pokerengine/poker"
)

// isSevenDeuce reports whether hole cards are exactly seven-deuce offsuit.
func isSevenDeuce(cards []poker.Card) bool {
	if len(cards) != 2 || cards[0].Suit() == cards[1].Suit() {
		return false
	}
	r0, r1 := cards[0].Rank(), cards[1].Rank()
	return r0 == poker.Seven && r1 == poker.Two || r0 == poker.Two && r1 == poker.Seven
}

// awardBounty pays the seven-deuce bounty. Every other player dealt in pays
// the bounty size; anyone who cannot cover it is all in against the winner
// on a board dealt from the deck frozen into BOUNTY_WIN.
func (c *Controller) awardBounty(winners []*Player) error {
	t := c.s.table
	if t.BountySize <= 0 {
		return nil
	}
	var winner *Player
	for _, w := range winners {
		if isSevenDeuce(w.Cards) {
			winner = w
			break
		}
	}
	if winner == nil {
		return nil
	}

	var payments []BountyPayment
	var flippers []*Player
	for i := 1; i < t.NumSeats; i++ {
		p := c.s.playerAt((winner.Seat + i) % t.NumSeats)
		if p == nil || !p.DealtIn || p.Stack == 0 {
			continue
		}
		if p.Stack > t.BountySize {
			payments = append(payments, BountyPayment{PlayerID: p.ID, Seat: p.Seat, Amount: t.BountySize})
		} else {
			flippers = append(flippers, p)
		}
	}
	if len(payments) == 0 && len(flippers) == 0 {
		return nil
	}
	if err := c.playerEvent(winner, EventBountyWin, BountyWinArgs{Payments: payments, Deck: t.Deck}); err != nil {
		return err
	}
	c.log.Info().Str("player_id", winner.ID).Int("payers", len(payments)).Int("flips", len(flippers)).Msg("Bounty won")

	if len(flippers) == 0 {
		return nil
	}
	d, err := poker.NewDeckFromString(t.Deck)
	if err != nil {
		return violation("deck", "%v", err)
	}
	board := d.Peek(5)
	if len(board) < 5 {
		return violation("bounty", "frozen deck has %d cards, need 5", len(board))
	}
	for _, p := range flippers {
		stake := min(p.Stack, winner.Stack)
		if stake == 0 {
			continue
		}
		mine, err := poker.BestHand(p.Cards, board, poker.AnyHoleCards)
		if err != nil {
			return violation("bounty", "%s: %v", p, err)
		}
		theirs, err := poker.BestHand(winner.Cards, board, poker.AnyHoleCards)
		if err != nil {
			return violation("bounty", "%s: %v", winner, err)
		}
		var winnerID string
		switch poker.Compare(mine.Key, theirs.Key) {
		case 1:
			winnerID = p.ID
		case -1:
			winnerID = winner.ID
		}
		args := BountyFlipArgs{Opponent: winner.ID, Stake: stake, Board: board, WinnerID: winnerID}
		if err := c.playerEvent(p, EventBountyFlip, args); err != nil {
			return err
		}
	}
	return nil
}
