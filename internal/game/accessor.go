package game

import (
	"slices"

	"github.com/lox/pokerengine/poker"
)

// Accessor answers questions about the current table state. It never
// mutates and never caches, so every answer reflects the latest event.
type Accessor struct {
	s *state
}

// NewAccessor wraps a snapshot for read-only queries.
func NewAccessor(snap Snapshot) Accessor {
	return Accessor{s: newState(snap)}
}

// Table returns the live table record. Callers must not modify it; take a
// Snapshot for a copy that outlives the next step.
func (a Accessor) Table() *Table { return a.s.table }

// Players returns the live seated players in seat order. Neither the slice
// nor the players may be modified.
func (a Accessor) Players() []*Player { return a.s.players }

// Snapshot returns a deep copy of the state.
func (a Accessor) Snapshot() Snapshot { return a.s.snapshot() }

// Sidepots returns the pots collected so far this hand, main pot first.
func (a Accessor) Sidepots() []Pot { return a.s.table.Sidepots }

// HandNumber is the number of the current or last dealt hand.
func (a Accessor) HandNumber() int64 { return a.s.table.HandNumber }

// Street is Between when no hand is running.
func (a Accessor) Street() Street { return a.s.table.Street }

// IsPreflop reports whether the hand is on its first betting round.
func (a Accessor) IsPreflop() bool { return a.s.table.Street == Preflop }

// IsFlop reports whether three board cards are out.
func (a Accessor) IsFlop() bool { return a.s.table.Street == Flop }

// IsTurn reports whether four board cards are out.
func (a Accessor) IsTurn() bool { return a.s.table.Street == Turn }

// IsRiver reports whether the board is complete.
func (a Accessor) IsRiver() bool { return a.s.table.Street == River }

// HandInProgress reports whether a hand has been dealt and not yet ended.
func (a Accessor) HandInProgress() bool { return a.s.table.Street != Between }

// PlayerByID returns nil when the player is not seated.
func (a Accessor) PlayerByID(id string) *Player {
	return a.s.playerByID(id)
}

// PlayerAt returns the occupant of a seat, or nil.
func (a Accessor) PlayerAt(seat int) *Player {
	return a.s.playerAt(seat)
}

// SeatedPlayers returns every occupied seat in seat order.
func (a Accessor) SeatedPlayers() []*Player {
	return slices.Clone(a.s.players)
}

// PlayersInHand returns dealt-in players that have not folded.
func (a Accessor) PlayersInHand() []*Player {
	var out []*Player
	for _, p := range a.s.players {
		if p.InHand() {
			out = append(out, p)
		}
	}
	return out
}

// ActivePlayers returns players in the hand who still have chips behind.
func (a Accessor) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range a.s.players {
		if p.CanAct() {
			out = append(out, p)
		}
	}
	return out
}

// ReadyPlayers returns players who will be dealt into the next hand. Players
// waiting for the big blind are not included.
func (a Accessor) ReadyPlayers() []*Player {
	var out []*Player
	for _, p := range a.s.players {
		if a.ready(p) {
			out = append(out, p)
		}
	}
	return out
}

func (a Accessor) ready(p *Player) bool {
	if p.Stack <= 0 {
		return false
	}
	switch p.State {
	case SittingIn, SitInPending:
		return true
	case TourneySittingOut:
		return a.s.table.Format == Freezeout
	}
	return false
}

// EmptySeats lists unoccupied seat indexes.
func (a Accessor) EmptySeats() []int {
	var out []int
	for seat := range a.s.table.NumSeats {
		if a.s.playerAt(seat) == nil {
			out = append(out, seat)
		}
	}
	return out
}

// EnoughPlayersToPlay reports whether a hand can be dealt.
func (a Accessor) EnoughPlayersToPlay() bool {
	if a.s.table.Finished || a.s.table.Halted {
		return false
	}
	n := 0
	for _, p := range a.s.players {
		if a.ready(p) || p.State == SitInAtBlindsPending && p.Stack > 0 {
			n++
		}
	}
	return n >= 2
}

// HeadsUp reports whether exactly two players are contesting the hand, or,
// between hands, whether exactly two are ready to play.
func (a Accessor) HeadsUp() bool {
	if a.HandInProgress() {
		n := 0
		for _, p := range a.s.players {
			if p.DealtIn {
				n++
			}
		}
		return n == 2
	}
	return len(a.ReadyPlayers()) == 2
}

// CurrentPot is every chip committed this hand and not yet paid out.
func (a Accessor) CurrentPot() int64 {
	var total int64
	for _, p := range a.s.players {
		total += p.Wagers + p.DeadMoney
	}
	return total - a.s.table.PaidOut
}

// UncollectedTotal sums chips bet this street and not yet swept.
func (a Accessor) UncollectedTotal() int64 {
	var total int64
	for _, p := range a.s.players {
		total += p.UncollectedBets
	}
	return total
}

// CurrentBet is the street commitment a player must match to stay in.
func (a Accessor) CurrentBet() int64 {
	return a.s.table.CurrentBet
}

// CallAmt is how many chips p must add to call, capped by their stack.
func (a Accessor) CallAmt(p *Player) int64 {
	diff := a.s.table.CurrentBet - p.UncollectedBets
	if diff <= 0 {
		return 0
	}
	return min(diff, p.Stack)
}

// MinBetAmt is the smallest opening bet on a street with no bet yet.
func (a Accessor) MinBetAmt() int64 {
	return a.s.table.BigBlind
}

// MinRaiseTo is the smallest legal raise-to amount, ignoring stack limits.
func (a Accessor) MinRaiseTo() int64 {
	t := a.s.table
	if t.CurrentBet == 0 {
		return t.BigBlind
	}
	return t.CurrentBet + max(t.MinRaiseBy, t.BigBlind)
}

// MaxBetAmt is the largest street commitment p may make: the full stack in
// no-limit, the size of the pot after calling in pot-limit.
func (a Accessor) MaxBetAmt(p *Player) int64 {
	allIn := p.Stack + p.UncollectedBets
	if !a.s.table.Type.PotLimit() {
		return allIn
	}
	call := a.CallAmt(p)
	potAfterCall := a.CurrentPot() + call
	return min(allIn, a.s.table.CurrentBet+potAfterCall)
}

// canReopen reports whether p may raise: either they have not acted this
// street or a full raise has happened since they did.
func (a Accessor) canReopen(p *Player) bool {
	return !p.Acted || a.s.table.LastFullBet > p.ActedAtBet
}

func (a Accessor) needsToAct(p *Player) bool {
	if !p.CanAct() {
		return false
	}
	owes := p.UncollectedBets < a.s.table.CurrentBet
	if !owes && len(a.ActivePlayers()) <= 1 {
		// Nobody left to bet against.
		return false
	}
	return !p.Acted || owes
}

// NextToAct returns the next player who must act, walking clockwise from
// the last actor, or nil when the betting round or hand is complete.
func (a Accessor) NextToAct() *Player {
	t := a.s.table
	if t.Street < Preflop || t.Street > River || len(a.PlayersInHand()) < 2 {
		return nil
	}
	for i := 1; i <= t.NumSeats; i++ {
		p := a.s.playerAt((t.LastActor + i + t.NumSeats) % t.NumSeats)
		if p != nil && a.needsToAct(p) {
			return p
		}
	}
	return nil
}

// BettingRoundOver reports whether nobody is left to act on this street.
func (a Accessor) BettingRoundOver() bool {
	return a.HandInProgress() && a.s.table.Street <= River && a.NextToAct() == nil
}

// HandIsOver reports whether no further betting or dealing can change the
// outcome: one player remains, or the river betting is complete.
func (a Accessor) HandIsOver() bool {
	if !a.HandInProgress() {
		return false
	}
	if len(a.PlayersInHand()) <= 1 {
		return true
	}
	return a.s.table.Street == Showdown || a.s.table.Street == River && a.BettingRoundOver()
}

// NeedsRunout reports whether the remaining streets must be dealt with no
// more betting because at most one contesting player has chips.
func (a Accessor) NeedsRunout() bool {
	return a.BettingRoundOver() && len(a.PlayersInHand()) >= 2 && len(a.ActivePlayers()) <= 1
}

// AvailableActions lists the legal betting actions for p, in code order.
func (a Accessor) AvailableActions(p *Player) []ActionType {
	if p == nil || a.NextToAct() != p {
		return nil
	}
	t := a.s.table
	call := a.CallAmt(p)
	actions := []ActionType{ActionFold}
	if call == 0 {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}

	others := 0
	for _, o := range a.ActivePlayers() {
		if o != p {
			others++
		}
	}
	if others > 0 && p.Stack > call && a.canReopen(p) {
		if t.CurrentBet == 0 {
			actions = append(actions, ActionBet)
		} else {
			actions = append(actions, ActionRaiseTo)
		}
	}
	slices.Sort(actions)
	return actions
}

// ValidBetRange returns the inclusive raise-to bounds for p. The minimum
// collapses to an all-in when p cannot afford a full raise.
func (a Accessor) ValidBetRange(p *Player) (lo, hi int64) {
	hi = a.MaxBetAmt(p)
	lo = min(a.MinRaiseTo(), p.Stack+p.UncollectedBets)
	return lo, hi
}

// CheckInvariants verifies chip conservation and the pot/uncollected identity.
func (a Accessor) CheckInvariants() error {
	t := a.s.table
	var total int64
	for _, p := range a.s.players {
		if p.Stack < 0 || p.Wagers < 0 || p.UncollectedBets < 0 || p.DeadMoney < 0 {
			return violation("chips", "negative chip field on %s", p)
		}
		if p.UncollectedBets > p.Wagers {
			return violation("chips", "%s uncollected %d exceeds wagers %d", p, p.UncollectedBets, p.Wagers)
		}
		total += p.Stack + p.Wagers + p.DeadMoney
	}
	if got := total - t.PaidOut; got != t.ChipsInPlay {
		return violation("conservation", "players hold %d, chips in play %d", got, t.ChipsInPlay)
	}

	var pots int64
	for i, pot := range t.Sidepots {
		if pot.Amount < 0 {
			return violation("pots", "pot %d is negative (%d)", i, pot.Amount)
		}
		pots += pot.Amount
	}
	if pots+a.UncollectedTotal() != a.CurrentPot() {
		return violation("pots", "sidepots %d + uncollected %d != current pot %d", pots, a.UncollectedTotal(), a.CurrentPot())
	}
	return a.checkCards()
}

func (a Accessor) checkCards() error {
	t := a.s.table
	if !a.HandInProgress() {
		return nil
	}
	seen := make(map[string]string)
	mark := func(owner string, cards []poker.Card) error {
		for _, c := range cards {
			if prev, ok := seen[c.String()]; ok {
				return violation("deck", "card %s held by %s and %s", c, prev, owner)
			}
			seen[c.String()] = owner
		}
		return nil
	}
	if err := mark("board", t.Board); err != nil {
		return err
	}
	for _, p := range a.s.players {
		if err := mark(p.ID, p.Cards); err != nil {
			return err
		}
	}
	if len(t.Deck)%2 != 0 {
		return violation("deck", "malformed deck string")
	}
	for i := 0; i+2 <= len(t.Deck); i += 2 {
		if prev, ok := seen[t.Deck[i:i+2]]; ok {
			return violation("deck", "card %s both dealt to %s and undealt", t.Deck[i:i+2], prev)
		}
		seen[t.Deck[i:i+2]] = "deck"
	}
	if len(seen) != 52 {
		return violation("deck", "%d distinct cards accounted for, want 52", len(seen))
	}
	return nil
}
