package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

var (
	// ErrNotEnoughPlayers is returned by SetupHand when fewer than two
	// players are ready.
	ErrNotEnoughPlayers = errors.New("game: not enough players to deal")
	// ErrHandInProgress is returned by SetupHand while a hand is running.
	ErrHandInProgress = errors.New("game: hand already in progress")
	// ErrHandNotOver is returned by EndHand while betting can still continue.
	ErrHandNotOver = errors.New("game: hand is not over")
)

const (
	maxTimeouts  = 2
	recentEvents = 64
)

// Controller is the write model for one table. It is not safe for
// concurrent use; a single worker goroutine owns each Controller.
type Controller struct {
	cfg   *config
	log   zerolog.Logger
	rules Rules

	s *state

	// pending holds entries produced by the current step. They reach the
	// hand logger and subscribers only if the step succeeds.
	pending   []entry
	transfers []transferOp
	recent    []Event

	seenIDs  map[string]struct{}
	idOrder  []string
	handInit Snapshot
}

type entry struct {
	snapshot *Snapshot
	action   *Action
	seq      int64
	event    *Event
}

// New restores a Controller from a snapshot. The rules are chosen from the
// table's format and type.
func New(snap Snapshot, opts ...Option) (*Controller, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validateTable(&snap.Table); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:     cfg,
		s:       newState(snap),
		seenIDs: make(map[string]struct{}),
	}
	c.log = cfg.logger.With().
		Str("component", "controller").
		Str("table_id", snap.Table.ID).
		Logger()

	switch snap.Table.Format {
	case Freezeout:
		c.rules = &freezeoutRules{cfg: cfg.tournament}
	default:
		c.rules = ringRules{}
	}
	return c, nil
}

// NewRingController opens an empty cash table.
func NewRingController(t Table, opts ...Option) (*Controller, error) {
	t.Format = Ring
	return New(NewTableSnapshot(t), opts...)
}

// NewBountyController opens an empty cash table where winning with seven
// deuce offsuit collects a bounty from every other player dealt in.
func NewBountyController(t Table, opts ...Option) (*Controller, error) {
	t.Format = Ring
	t.Type = BountyNLHE
	if t.BountySize <= 0 {
		t.BountySize = t.BigBlind
	}
	return New(NewTableSnapshot(t), opts...)
}

// NewFreezeoutController opens a single-table tournament.
func NewFreezeoutController(t Table, tc TournamentConfig, opts ...Option) (*Controller, error) {
	if tc.StartingStack <= 0 {
		return nil, fmt.Errorf("game: freezeout needs a starting stack")
	}
	var total int64
	for _, pct := range tc.Payouts {
		total += pct
	}
	if len(tc.Payouts) > 0 && total != 100 {
		return nil, fmt.Errorf("game: freezeout payouts sum to %d%%, want 100%%", total)
	}
	t.Format = Freezeout
	if len(tc.Levels) > 0 {
		l := levelFor(tc.Levels, 1)
		t.SmallBlind, t.BigBlind, t.Ante = l.SmallBlind, l.BigBlind, l.Ante
	}
	return New(NewTableSnapshot(t), append(opts, WithTournament(tc))...)
}

// NewTableSnapshot returns the state of a freshly opened, empty table.
func NewTableSnapshot(t Table) Snapshot {
	t.Button, t.SBIdx, t.BBIdx = -1, -1, -1
	t.LastActor, t.LastAggressor = -1, -1
	t.Street = Between
	if t.Type == 0 {
		t.Type = NLHE
	}
	if t.Precision == 0 {
		t.Precision = 2
	}
	return Snapshot{Table: t}
}

func validateTable(t *Table) error {
	switch {
	case t.ID == "":
		return errors.New("game: table id is required")
	case t.NumSeats < 2 || t.NumSeats > 10:
		return fmt.Errorf("game: table %s has %d seats, want 2-10", t.ID, t.NumSeats)
	case t.SmallBlind <= 0 || t.BigBlind < t.SmallBlind:
		return fmt.Errorf("game: table %s has invalid blinds %d/%d", t.ID, t.SmallBlind, t.BigBlind)
	case t.Ante < 0:
		return fmt.Errorf("game: table %s has negative ante", t.ID)
	case t.Format == Ring && (t.MinBuyin <= 0 || t.MaxBuyin < t.MinBuyin):
		return fmt.Errorf("game: table %s has invalid buy-in range %d-%d", t.ID, t.MinBuyin, t.MaxBuyin)
	}
	if _, ok := tableTypeNames[t.Type]; !ok {
		return fmt.Errorf("game: table %s has unknown type %d", t.ID, t.Type)
	}
	return nil
}

// Accessor returns a read view of the current state. It is invalidated by
// the next call that may roll back state, so fetch a fresh one per step.
func (c *Controller) Accessor() Accessor {
	return Accessor{s: c.s}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	return c.s.snapshot()
}

// TableID returns the table this controller owns.
func (c *Controller) TableID() string {
	return c.s.table.ID
}

// Halted reports whether the table is paused after a consistency violation.
func (c *Controller) Halted() bool {
	return c.s.table.Halted
}

// Dispatch validates and applies one action along with any automatic play
// it triggers, up to the next player who must act or the end of the hand.
// Step still commits and deals. On an InvalidActionError the state is
// untouched and nothing is recorded.
func (c *Controller) Dispatch(a Action) ([]Event, error) {
	if c.s.table.Halted {
		return nil, invalid(a, ReasonTablePaused, "%s", c.s.table.HaltReason)
	}
	if a.ID != "" {
		if _, dup := c.seenIDs[a.ID]; dup {
			return nil, invalid(a, ReasonDuplicate, "action %s already applied", a.ID)
		}
	}
	events, err := c.transact(func() error {
		if err := c.dispatch(a); err != nil {
			return err
		}
		return c.settle()
	})
	if err == nil && a.ID != "" {
		c.remember(a.ID)
	}
	return events, err
}

func (c *Controller) remember(id string) {
	c.seenIDs[id] = struct{}{}
	c.idOrder = append(c.idOrder, id)
	if len(c.idOrder) > c.cfg.recentIDs {
		delete(c.seenIDs, c.idOrder[0])
		c.idOrder = c.idOrder[1:]
	}
}

func (c *Controller) dispatch(a Action) error {
	t := c.s.table
	if a.Timestamp.IsZero() {
		a.Timestamp = c.cfg.clock.Now()
	}
	if a.HandNumber != 0 && a.HandNumber != t.HandNumber {
		return invalid(a, ReasonStale, "action for hand %d, table is on hand %d", a.HandNumber, t.HandNumber)
	}
	if a.Street != Between && a.Street != t.Street {
		return invalid(a, ReasonStale, "action for %s, table is on %s", a.Street, t.Street)
	}
	c.logAction(a)

	switch a.Type {
	case ActionBet, ActionRaiseTo, ActionCall, ActionCheck, ActionFold:
		return c.bet(a)
	case ActionTakeSeat:
		return c.takeSeat(a)
	case ActionLeaveSeat:
		return c.leaveSeat(a)
	case ActionSitIn:
		return c.sitIn(a)
	case ActionSitOut:
		return c.sitOut(a)
	case ActionSitInAtBlinds:
		return c.sitInAtBlinds(a)
	case ActionSetAutoRebuy:
		return c.setAutoRebuy(a)
	case ActionNone:
	}
	return invalid(a, ReasonUnknownAction, "unsupported action %s", a.Type)
}

// TimedDispatch acts for a player whose clock ran out: check when free,
// otherwise fold. Repeated timeouts sit the player out.
func (c *Controller) TimedDispatch(playerID string) ([]Event, error) {
	t := c.s.table
	a := Action{PlayerID: playerID, Source: SourceTimeout, HandNumber: t.HandNumber, Street: t.Street}
	if t.Halted {
		return nil, invalid(a, ReasonTablePaused, "%s", t.HaltReason)
	}
	return c.transact(func() error {
		acc := c.Accessor()
		p := acc.PlayerByID(playerID)
		if p == nil {
			return invalid(a, ReasonNotSeated, "player %s is not seated", playerID)
		}
		if acc.NextToAct() != p {
			return invalid(a, ReasonNotYourTurn, "%s is not to act", p)
		}
		a.Type = ActionFold
		if acc.CallAmt(p) == 0 {
			a.Type = ActionCheck
		}
		a.Timestamp = c.cfg.clock.Now()
		c.logAction(a)

		count := p.Timeouts + 1
		if err := c.playerEvent(p, EventTimeout, TimeoutArgs{Count: count}); err != nil {
			return err
		}
		if err := c.autoAct(p); err != nil {
			return err
		}
		if count >= maxTimeouts && p.State == SittingIn {
			if err := c.playerEvent(p, EventSitOut, StateArgs{State: c.rules.sitOutState()}); err != nil {
				return err
			}
		}
		return c.settle()
	})
}

// Step advances the table without player input: it deals streets, acts for
// players who are sitting out, resolves finished hands and deals the next
// hand. It returns once a player must act or nothing more can happen.
func (c *Controller) Step() ([]Event, error) {
	if c.s.table.Halted {
		return nil, ErrHalted
	}
	events, err := c.transact(c.progress)
	c.commit()
	return events, err
}

// SetupHand deals a new hand. Options fix the deck and blind positions.
func (c *Controller) SetupHand(opts ...HandOption) ([]Event, error) {
	if c.s.table.Halted {
		return nil, ErrHalted
	}
	var h handSetup
	for _, opt := range opts {
		opt(&h)
	}
	events, err := c.transact(func() error {
		if err := c.setupHand(h); err != nil {
			return err
		}
		return c.settle()
	})
	c.commit()
	return events, err
}

// EndHand pays out the pots of a finished hand and resets it.
func (c *Controller) EndHand() ([]Event, error) {
	if c.s.table.Halted {
		return nil, ErrHalted
	}
	events, err := c.transact(func() error {
		if !c.Accessor().HandIsOver() {
			return ErrHandNotOver
		}
		return c.resolveHand()
	})
	c.commit()
	return events, err
}

// Resume clears a halt after an operator has reviewed the incident.
func (c *Controller) Resume(reason string) ([]Event, error) {
	if !c.s.table.Halted {
		return nil, nil
	}
	events, err := c.transact(func() error {
		return c.tableEvent(EventResume, PauseArgs{Reason: reason})
	})
	c.commit()
	return events, err
}

func (c *Controller) progress() error {
	if err := c.settle(); err != nil {
		return err
	}
	acc := c.Accessor()
	if acc.HandInProgress() || c.cfg.stopAtEnd || !acc.EnoughPlayersToPlay() {
		return nil
	}
	if err := c.setupHand(handSetup{}); err != nil {
		return err
	}
	return c.settle()
}

// settle plays the current hand forward until a player who is sitting in
// must act or the hand is over and resolved.
func (c *Controller) settle() error {
	for {
		acc := c.Accessor()
		if !acc.HandInProgress() {
			return nil
		}

		if p := acc.NextToAct(); p != nil {
			if !sittingOut(p) {
				return nil
			}
			if err := c.autoAct(p); err != nil {
				return err
			}
			continue
		}

		if acc.HandIsOver() {
			if err := c.resolveHand(); err != nil {
				return err
			}
			continue
		}
		if err := c.nextStreet(); err != nil {
			return err
		}
	}
}

func sittingOut(p *Player) bool {
	switch p.State {
	case SittingOut, TourneySittingOut, LeaveSeatPending:
		return true
	}
	return false
}

// autoAct checks when that is free and folds otherwise.
func (c *Controller) autoAct(p *Player) error {
	if c.Accessor().CallAmt(p) == 0 {
		return c.playerEvent(p, EventCheck, AutoArgs{Auto: true})
	}
	return c.playerEvent(p, EventFold, AutoArgs{Auto: true})
}

// transact runs fn against the live state and either publishes everything
// it produced or rolls the state back. Queued ledger transfers run only once
// the new state has passed the invariant checks.
func (c *Controller) transact(fn func() error) ([]Event, error) {
	backup := c.s.clone()
	c.pending = c.pending[:0]
	c.transfers = c.transfers[:0]

	err := fn()
	if err == nil {
		err = c.Accessor().CheckInvariants()
	}
	if err == nil {
		err = c.settleTransfers()
	}
	if err != nil {
		c.s = backup
		c.pending = c.pending[:0]
		c.transfers = c.transfers[:0]
		var inv *invariantError
		if errors.As(err, &inv) {
			return c.halt(inv)
		}
		return nil, err
	}
	return c.flush(), nil
}

func (c *Controller) halt(inv *invariantError) ([]Event, error) {
	cv := &ConsistencyViolationError{
		TableID:  c.s.table.ID,
		Check:    inv.check,
		Detail:   inv.detail,
		Snapshot: c.s.snapshot(),
		Recent:   slices.Clone(c.recent),
	}
	c.log.Error().
		Str("check", inv.check).
		Str("detail", inv.detail).
		Int64("hand_number", c.s.table.HandNumber).
		Msg("Consistency violation, halting table")

	if err := c.tableEvent(EventPause, PauseArgs{Reason: inv.Error()}); err != nil {
		c.log.Error().Err(err).Msg("Failed to record pause")
	}
	events := c.flush()
	c.commit()
	if c.cfg.incidents != nil {
		c.cfg.incidents.Report(context.Background(), cv)
	}
	return events, cv
}

func (c *Controller) flush() []Event {
	var events []Event
	for _, en := range c.pending {
		switch {
		case en.snapshot != nil:
			if h := c.cfg.handLogger; h != nil {
				if err := h.WriteSnapshot(*en.snapshot); err != nil {
					c.log.Warn().Err(err).Msg("Failed to record snapshot")
				}
			}
		case en.action != nil:
			if h := c.cfg.handLogger; h != nil {
				if err := h.WriteAction(en.seq, *en.action); err != nil {
					c.log.Warn().Err(err).Msg("Failed to record action")
				}
			}
		case en.event != nil:
			e := *en.event
			events = append(events, e)
			if h := c.cfg.handLogger; h != nil {
				if err := h.WriteEvent(e); err != nil {
					c.log.Warn().Err(err).Stringer("event", e).Msg("Failed to record event")
				}
			}
			for _, sub := range c.cfg.subscribers {
				sub.Dispatch(e)
			}
			c.recent = append(c.recent, e)
		}
	}
	if over := len(c.recent) - recentEvents; over > 0 {
		c.recent = slices.Delete(c.recent, 0, over)
	}
	c.pending = c.pending[:0]
	return events
}

func (c *Controller) commit() {
	if h := c.cfg.handLogger; h != nil {
		if err := h.Commit(); err != nil {
			c.log.Warn().Err(err).Msg("Hand logger commit failed")
		}
	}
	for _, sub := range c.cfg.subscribers {
		if err := sub.Commit(); err != nil {
			c.log.Warn().Err(err).Msg("Subscriber commit failed")
		}
	}
}

func (c *Controller) logAction(a Action) {
	c.pending = append(c.pending, entry{action: &a, seq: c.s.table.Seq + 1})
}

func (c *Controller) logSnapshot() {
	snap := c.s.snapshot()
	c.handInit = snap
	c.pending = append(c.pending, entry{snapshot: &snap})
}

func (c *Controller) emit(subj Subject, et EventType, args EventArgs) error {
	e := Event{
		Seq:       c.s.table.Seq + 1,
		Type:      et,
		Subject:   subj,
		Args:      args,
		Timestamp: c.cfg.clock.Now(),
	}
	if err := c.s.apply(e); err != nil {
		return err
	}
	c.pending = append(c.pending, entry{event: &e})
	return nil
}

func (c *Controller) tableEvent(et EventType, args EventArgs) error {
	return c.emit(Subject{Kind: SubjectTable, ID: c.s.table.ID, Seat: -1}, et, args)
}

func (c *Controller) playerEvent(p *Player, et EventType, args EventArgs) error {
	return c.emit(Subject{Kind: SubjectPlayer, ID: p.ID, Seat: p.Seat}, et, args)
}
