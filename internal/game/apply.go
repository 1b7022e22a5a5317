package game

import (
	"fmt"
	"slices"

	"github.com/lox/pokerengine/poker"
)

// state is the mutable aggregate: one table plus its players ordered by seat.
type state struct {
	table   *Table
	players []*Player
}

func newState(snap Snapshot) *state {
	t, players := snap.restore()
	return &state{table: t, players: players}
}

func (s *state) snapshot() Snapshot {
	return snapshotOf(s.table, s.players)
}

func (s *state) clone() *state {
	return newState(s.snapshot())
}

func (s *state) playerByID(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *state) playerAt(seat int) *Player {
	for _, p := range s.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

func (s *state) removePlayer(id string) {
	s.players = slices.DeleteFunc(s.players, func(p *Player) bool { return p.ID == id })
}

func argsAs[T EventArgs](e Event) (T, error) {
	a, ok := e.Args.(T)
	if !ok {
		var zero T
		return zero, violation("apply", "%s carries %T, want %T", e.Type, e.Args, zero)
	}
	return a, nil
}

func removeFromDeck(deck string, cards []poker.Card) (string, error) {
	d, err := poker.NewDeckFromString(deck)
	if err != nil {
		return "", violation("deck", "%v", err)
	}
	before := d.CardsRemaining()
	d.Remove(cards...)
	if d.CardsRemaining() != before-len(cards) {
		return "", violation("deck", "cards %s not all in deck", poker.FormatCards(cards))
	}
	return d.String(), nil
}

func debit(p *Player, amount int64, what string) error {
	if amount < 0 {
		return violation("chips", "negative %s of %d for %s", what, amount, p)
	}
	if amount > p.Stack {
		return violation("chips", "%s of %d exceeds stack %d for %s", what, amount, p.Stack, p)
	}
	p.Stack -= amount
	return nil
}

// Apply folds events onto a snapshot and returns the resulting state.
// It performs no validation beyond what keeps the arithmetic sound.
func Apply(snap Snapshot, events ...Event) (Snapshot, error) {
	s := newState(snap)
	for _, e := range events {
		if err := s.apply(e); err != nil {
			return Snapshot{}, fmt.Errorf("event #%d %s: %w", e.Seq, e.Type, err)
		}
	}
	return s.snapshot(), nil
}

// apply is the only place table and player state changes.
func (s *state) apply(e Event) error {
	t := s.table
	if e.Seq > t.Seq {
		t.Seq = e.Seq
	}

	var p *Player
	if e.Subject.Kind == SubjectPlayer && e.Type != EventTakeSeat {
		p = s.playerByID(e.Subject.ID)
		if p == nil {
			return violation("apply", "%s for unknown player %q", e.Type, e.Subject.ID)
		}
	}

	switch e.Type {
	case EventNewHand:
		a, err := argsAs[NewHandArgs](e)
		if err != nil {
			return err
		}
		t.HandNumber = a.HandNumber
		t.Deck = a.Deck
		t.Street = Preflop
		t.Board = nil
		t.Sidepots = nil
		t.CurrentBet = 0
		t.LastFullBet = 0
		t.MinRaiseBy = t.BigBlind
		t.LastActor = -1
		t.LastAggressor = -1
		for _, pl := range s.players {
			pl.DealtIn = false
			pl.Folded = false
			pl.Acted = false
			pl.ActedAtBet = 0
			pl.LastAction = ActionNone
		}

	case EventSetBlindPos:
		a, err := argsAs[BlindPosArgs](e)
		if err != nil {
			return err
		}
		t.Button, t.SBIdx, t.BBIdx = a.Button, a.SB, a.BB
		t.LastActor = a.BB

	case EventPost:
		a, err := argsAs[PostArgs](e)
		if err != nil {
			return err
		}
		if err := debit(p, a.Amount, "blind"); err != nil {
			return err
		}
		p.Wagers += a.Amount
		p.UncollectedBets += a.Amount
		switch a.Blind {
		case BlindSmall:
			p.OwesSB = false
		case BlindBig:
			p.OwesSB = false
			p.OwesBB = false
		case BlindOwedBig:
			p.OwesBB = false
		}
		level := p.UncollectedBets
		if a.Blind == BlindBig || a.Blind == BlindOwedBig {
			level = max(level, t.BigBlind)
			t.LastFullBet = max(t.LastFullBet, level)
		}
		t.CurrentBet = max(t.CurrentBet, level)

	case EventPostDead:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		if err := debit(p, a.Amount, "dead blind"); err != nil {
			return err
		}
		p.DeadMoney += a.Amount
		p.OwesSB = false

	case EventAnte:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		if err := debit(p, a.Amount, "ante"); err != nil {
			return err
		}
		p.Wagers += a.Amount

	case EventDeal:
		a, err := argsAs[CardsArgs](e)
		if err != nil {
			return err
		}
		deck, err := removeFromDeck(t.Deck, a.Cards)
		if err != nil {
			return err
		}
		t.Deck = deck
		p.Cards = slices.Clone(a.Cards)
		p.DealtIn = true

	case EventReveal, EventMuck:
		// Informational: showdown cards are already in state.

	case EventNewStreet:
		a, err := argsAs[NewStreetArgs](e)
		if err != nil {
			return err
		}
		for _, pl := range s.players {
			if pl.UncollectedBets != 0 {
				return violation("street", "%s still has %d uncollected", pl, pl.UncollectedBets)
			}
			pl.Acted = false
			pl.ActedAtBet = 0
		}
		deck, err := removeFromDeck(t.Deck, a.Cards)
		if err != nil {
			return err
		}
		t.Deck = deck
		t.Street = a.Street
		t.Board = append(t.Board, a.Cards...)
		t.CurrentBet = 0
		t.LastFullBet = 0
		t.MinRaiseBy = t.BigBlind
		t.LastActor = t.Button
		t.LastAggressor = -1

	case EventBet, EventRaiseTo:
		a, err := argsAs[BetArgs](e)
		if err != nil {
			return err
		}
		delta := a.Amount - p.UncollectedBets
		if delta <= 0 {
			return violation("bet", "%s to %d does not add chips", e.Type, a.Amount)
		}
		if err := debit(p, delta, "bet"); err != nil {
			return err
		}
		p.Wagers += delta
		p.UncollectedBets = a.Amount
		if raiseBy := a.Amount - t.CurrentBet; raiseBy >= t.MinRaiseBy {
			t.MinRaiseBy = raiseBy
			t.LastFullBet = a.Amount
		}
		t.CurrentBet = max(t.CurrentBet, a.Amount)
		t.LastAggressor = p.Seat
		s.acted(p, e.Type, a.Auto)

	case EventCall:
		a, err := argsAs[CallArgs](e)
		if err != nil {
			return err
		}
		if err := debit(p, a.Amount, "call"); err != nil {
			return err
		}
		p.Wagers += a.Amount
		p.UncollectedBets += a.Amount
		s.acted(p, e.Type, a.Auto)

	case EventCheck:
		a, err := argsAs[AutoArgs](e)
		if err != nil {
			return err
		}
		s.acted(p, e.Type, a.Auto)

	case EventFold:
		a, err := argsAs[AutoArgs](e)
		if err != nil {
			return err
		}
		p.Folded = true
		for i := range t.Sidepots {
			t.Sidepots[i].Eligible = slices.DeleteFunc(t.Sidepots[i].Eligible, func(seat int) bool { return seat == p.Seat })
		}
		s.acted(p, e.Type, a.Auto)

	case EventReturnChips:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		if a.Amount <= 0 || a.Amount > p.UncollectedBets {
			return violation("chips", "return of %d exceeds uncollected %d for %s", a.Amount, p.UncollectedBets, p)
		}
		p.Stack += a.Amount
		p.Wagers -= a.Amount
		p.UncollectedBets -= a.Amount
		t.CurrentBet = 0
		for _, pl := range s.players {
			t.CurrentBet = max(t.CurrentBet, pl.UncollectedBets)
		}

	case EventCollectPots:
		a, err := argsAs[CollectPotsArgs](e)
		if err != nil {
			return err
		}
		t.Sidepots = clonePots(a.Pots)
		for _, pl := range s.players {
			pl.UncollectedBets = 0
		}

	case EventWin:
		a, err := argsAs[WinArgs](e)
		if err != nil {
			return err
		}
		if a.Pot < 0 || a.Pot >= len(t.Sidepots) {
			return violation("pots", "win from missing pot %d", a.Pot)
		}
		if a.Amount < 0 || a.Amount > t.Sidepots[a.Pot].Amount {
			return violation("pots", "win of %d exceeds pot %d holding %d", a.Amount, a.Pot, t.Sidepots[a.Pot].Amount)
		}
		t.Sidepots[a.Pot].Amount -= a.Amount
		t.PaidOut += a.Amount
		p.Stack += a.Amount

	case EventBuy:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		if a.Amount <= 0 {
			return violation("chips", "buy of %d", a.Amount)
		}
		p.Stack += a.Amount
		t.ChipsInPlay += a.Amount

	case EventCashOut:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		if err := debit(p, a.Amount, "cash out"); err != nil {
			return err
		}
		t.ChipsInPlay -= a.Amount

	case EventBountyWin:
		a, err := argsAs[BountyWinArgs](e)
		if err != nil {
			return err
		}
		for _, pay := range a.Payments {
			payer := s.playerByID(pay.PlayerID)
			if payer == nil {
				return violation("bounty", "unknown payer %q", pay.PlayerID)
			}
			if err := debit(payer, pay.Amount, "bounty"); err != nil {
				return err
			}
			p.Stack += pay.Amount
		}
		t.Deck = a.Deck

	case EventBountyFlip:
		a, err := argsAs[BountyFlipArgs](e)
		if err != nil {
			return err
		}
		opp := s.playerByID(a.Opponent)
		if opp == nil {
			return violation("bounty", "unknown flip opponent %q", a.Opponent)
		}
		frozen, err := poker.NewDeckFromString(t.Deck)
		if err != nil {
			return violation("deck", "%v", err)
		}
		if head := frozen.Peek(len(a.Board)); !slices.Equal(head, a.Board) {
			return violation("bounty", "flip board %s is not the top of the frozen deck", poker.FormatCards(a.Board))
		}
		switch a.WinnerID {
		case p.ID:
			if err := debit(opp, a.Stake, "flip"); err != nil {
				return err
			}
			p.Stack += a.Stake
		case opp.ID:
			if err := debit(p, a.Stake, "flip"); err != nil {
				return err
			}
			opp.Stack += a.Stake
		}

	case EventTakeSeat:
		a, err := argsAs[TakeSeatArgs](e)
		if err != nil {
			return err
		}
		if s.playerByID(e.Subject.ID) != nil || s.playerAt(a.Seat) != nil {
			return violation("seating", "seat %d or player %q already taken", a.Seat, e.Subject.ID)
		}
		s.players = append(s.players, &Player{
			ID:       e.Subject.ID,
			Username: a.Username,
			TableID:  t.ID,
			Seat:     a.Seat,
			IsBot:    a.IsBot,
			State:    SittingOut,
		})
		sortBySeat(s.players)

	case EventLeaveSeat:
		if p.Stack != 0 || p.Wagers != 0 || p.InHand() {
			return violation("seating", "%s left with %d chips behind", p, p.Stack)
		}
		s.removePlayer(p.ID)

	case EventSitIn, EventSitOut, EventSitInPending:
		a, err := argsAs[StateArgs](e)
		if err != nil {
			return err
		}
		p.State = a.State

	case EventSetAutoRebuy:
		a, err := argsAs[AmountArgs](e)
		if err != nil {
			return err
		}
		p.AutoRebuy = a.Amount

	case EventMissedBlinds:
		a, err := argsAs[MissedBlindsArgs](e)
		if err != nil {
			return err
		}
		p.OwesSB = p.OwesSB || a.SB
		p.OwesBB = p.OwesBB || a.BB

	case EventResetPlayer:
		t.PaidOut -= p.Wagers + p.DeadMoney
		p.Wagers = 0
		p.DeadMoney = 0
		p.UncollectedBets = 0
		p.Cards = nil
		p.DealtIn = false
		p.Folded = false
		p.Acted = false
		p.ActedAtBet = 0
		p.LastAction = ActionNone

	case EventEndHand:
		t.Street = Between
		t.Board = nil
		t.Sidepots = nil
		t.CurrentBet = 0
		t.LastFullBet = 0
		t.LastActor = -1
		t.LastAggressor = -1

	case EventSetBlinds:
		a, err := argsAs[SetBlindsArgs](e)
		if err != nil {
			return err
		}
		t.BlindLevel = a.Level
		t.SmallBlind, t.BigBlind, t.Ante = a.SmallBlind, a.BigBlind, a.Ante

	case EventEliminate:
		a, err := argsAs[EliminateArgs](e)
		if err != nil {
			return err
		}
		if p.Stack != 0 {
			return violation("tournament", "%s eliminated holding %d", p, p.Stack)
		}
		t.Placements = append(t.Placements, Placement{PlayerID: p.ID, Place: a.Place})
		s.removePlayer(p.ID)

	case EventFinishTournament:
		a, err := argsAs[FinishTournamentArgs](e)
		if err != nil {
			return err
		}
		t.Placements = slices.Clone(a.Placements)
		t.Finished = true

	case EventTimeout:
		a, err := argsAs[TimeoutArgs](e)
		if err != nil {
			return err
		}
		p.Timeouts = a.Count

	case EventPause:
		a, err := argsAs[PauseArgs](e)
		if err != nil {
			return err
		}
		t.Halted = true
		t.HaltReason = a.Reason

	case EventResume:
		t.Halted = false
		t.HaltReason = ""

	default:
		return violation("apply", "unhandled event type %s", e.Type)
	}
	return nil
}

var eventToAction = map[EventType]ActionType{
	EventBet:     ActionBet,
	EventRaiseTo: ActionRaiseTo,
	EventCall:    ActionCall,
	EventCheck:   ActionCheck,
	EventFold:    ActionFold,
}

func (s *state) acted(p *Player, et EventType, auto bool) {
	p.Acted = true
	p.ActedAtBet = s.table.LastFullBet
	p.LastAction = eventToAction[et]
	s.table.LastActor = p.Seat
	if !auto {
		p.Timeouts = 0
	}
}
