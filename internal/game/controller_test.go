package game

import (
	"context"
	"errors"
	"testing"

	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerengine/internal/ledger"
	"github.com/lox/pokerengine/internal/randutil"
	"github.com/lox/pokerengine/poker"
)

func TestFourHandedShowdown(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", Name: "four", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 500, NumSeats: 4}
	c, log := newTestController(t, tbl, WithEndHandStop())
	start := c.Snapshot()

	seatAll(t, c,
		seat{"pirate", 400},
		seat{"cuttlefish", 300},
		seat{"ajfenix", 200},
		seat{"cowpig", 100},
	)

	// Dealt from the small blind: cuttlefish, ajfenix, cowpig, pirate.
	deck := stackedDeck(t, "QsQd 3c3d 5s6s AhKh 2h4h7d 9c Jh")
	_, err := c.SetupHand(WithDeck(deck), WithBlindPositions(0, 1, 2))
	require.NoError(t, err)

	acc := c.Accessor()
	require.Equal(t, "cowpig", acc.NextToAct().ID)
	assert.Equal(t, int64(3), acc.CurrentPot())

	act(t, c, ActionCall, 0)
	assert.Equal(t, "pirate", act(t, c, ActionRaiseTo, 8).ID)
	act(t, c, ActionCall, 0)
	act(t, c, ActionCall, 0)
	act(t, c, ActionCall, 0)

	require.True(t, c.Accessor().IsFlop())
	assert.Equal(t, []Pot{{Amount: 32, Eligible: []int{0, 1, 2, 3}}}, c.Accessor().Sidepots())

	for c.Accessor().HandInProgress() {
		act(t, c, ActionCheck, 0)
	}

	wins := log.ofType(EventWin)
	require.Len(t, wins, 1)
	assert.Equal(t, "pirate", wins[0].Subject.ID)
	win := wins[0].Args.(WinArgs)
	assert.Equal(t, int64(32), win.Amount)
	assert.True(t, win.Showdown)

	assert.Len(t, log.ofType(EventReveal), 1)
	assert.Len(t, log.ofType(EventMuck), 3)
	assert.Equal(t, map[string]int64{
		"pirate":     424,
		"cuttlefish": 292,
		"ajfenix":    192,
		"cowpig":     92,
	}, stacks(c))

	final := requireConserved(t, start, log.events)
	for _, p := range final.Players {
		assert.Equal(t, stacks(c)[p.ID], p.Stack, "replaying events reproduces %s", p.ID)
	}
	assert.Equal(t, int64(1000), final.Table.ChipsInPlay)
	assert.Equal(t, int64(1), final.Table.HandNumber)
}

func TestSidePots(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 1000, NumSeats: 3}
	c, log := newTestController(t, tbl, WithEndHandStop())
	start := c.Snapshot()
	seatAll(t, c, seat{"a", 400}, seat{"b", 100}, seat{"c", 50})

	// b holds kings, c holds aces, a has nothing.
	deck := stackedDeck(t, "KsKd AsAd 2c7h 3h8d9c Jh 4s")
	_, err := c.SetupHand(WithDeck(deck), WithBlindPositions(0, 1, 2))
	require.NoError(t, err)

	act(t, c, ActionCall, 0)
	act(t, c, ActionRaiseTo, 100)
	act(t, c, ActionCall, 0)
	act(t, c, ActionCall, 0)

	require.False(t, c.Accessor().HandInProgress(), "everyone but a is all in")

	collects := log.ofType(EventCollectPots)
	require.Len(t, collects, 1)
	assert.Equal(t, []Pot{
		{Amount: 150, Eligible: []int{0, 1, 2}},
		{Amount: 100, Eligible: []int{0, 1}},
	}, collects[0].Args.(CollectPotsArgs).Pots)

	wins := log.ofType(EventWin)
	require.Len(t, wins, 2)
	assert.Equal(t, "c", wins[0].Subject.ID)
	assert.Equal(t, WinArgs{Amount: 150, Pot: 0, Showdown: true}, stripWin(wins[0]))
	assert.Equal(t, "b", wins[1].Subject.ID)
	assert.Equal(t, WinArgs{Amount: 100, Pot: 1, Showdown: true}, stripWin(wins[1]))

	// All-in players show, a mucks.
	for _, e := range log.ofType(EventReveal) {
		assert.Contains(t, []string{"b", "c"}, e.Subject.ID)
	}
	mucks := log.ofType(EventMuck)
	require.Len(t, mucks, 1)
	assert.Equal(t, "a", mucks[0].Subject.ID)

	assert.Equal(t, map[string]int64{"a": 300, "b": 100, "c": 150}, stacks(c))
	requireConserved(t, start, log.events)
}

func stripWin(e Event) WinArgs {
	w := e.Args.(WinArgs)
	return WinArgs{Amount: w.Amount, Pot: w.Pot, Showdown: w.Showdown}
}

func TestUncalledBetReturned(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 1000, NumSeats: 2}
	c, log := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(7)))
	seatAll(t, c, seat{"a", 100}, seat{"b", 100})
	_, err := c.SetupHand(WithBlindPositions(0, 0, 1))
	require.NoError(t, err)

	act(t, c, ActionRaiseTo, 30)
	act(t, c, ActionFold, 0)

	returns := log.ofType(EventReturnChips)
	require.Len(t, returns, 1)
	assert.Equal(t, "a", returns[0].Subject.ID)
	assert.Equal(t, AmountArgs{Amount: 28}, returns[0].Args)

	wins := log.ofType(EventWin)
	require.Len(t, wins, 1)
	assert.Equal(t, WinArgs{Amount: 4, Pot: 0}, wins[0].Args)
	assert.Equal(t, map[string]int64{"a": 102, "b": 98}, stacks(c))
}

func TestBetValidation(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 5, BigBlind: 10, MinBuyin: 20, MaxBuyin: 2000, NumSeats: 3}
	c, _ := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(1)))

	_, err := c.Dispatch(Action{Type: ActionCall, PlayerID: "a"})
	assert.True(t, IsInvalidAction(err, ReasonNotSeated))

	seatAll(t, c, seat{"a", 1000}, seat{"b", 1000}, seat{"c", 25})

	_, err = c.Dispatch(Action{Type: ActionCall, PlayerID: "a"})
	assert.True(t, IsInvalidAction(err, ReasonNoHand))

	_, err = c.SetupHand(WithBlindPositions(0, 1, 2))
	require.NoError(t, err)
	seq := c.Snapshot().Table.Seq

	_, err = c.Dispatch(Action{Type: ActionCall, PlayerID: "b"})
	assert.True(t, IsInvalidAction(err, ReasonNotYourTurn))

	_, err = c.Dispatch(Action{Type: ActionCheck, PlayerID: "a"})
	assert.True(t, IsInvalidAction(err, ReasonIllegalAction))

	_, err = c.Dispatch(Action{Type: ActionRaiseTo, PlayerID: "a", Amount: 15})
	assert.True(t, IsInvalidAction(err, ReasonBadAmount))

	_, err = c.Dispatch(Action{Type: ActionRaiseTo, PlayerID: "a", Amount: 20, HandNumber: 7})
	assert.True(t, IsInvalidAction(err, ReasonStale))

	assert.Equal(t, seq, c.Snapshot().Table.Seq, "rejected actions leave no trace")

	raise := Action{ID: "a1", Type: ActionRaiseTo, PlayerID: "a", Amount: 20, HandNumber: 1, Street: Preflop}
	events, err := c.Dispatch(raise)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventRaiseTo, events[0].Type)

	_, err = c.Dispatch(raise)
	assert.True(t, IsInvalidAction(err, ReasonDuplicate))

	_, err = c.Step()
	require.NoError(t, err)
	act(t, c, ActionCall, 0)

	// c has 15 behind the big blind: the only raise is an all-in to 25.
	acc := c.Accessor()
	p := acc.NextToAct()
	require.Equal(t, "c", p.ID)
	lo, hi := acc.ValidBetRange(p)
	assert.Equal(t, int64(25), lo)
	assert.Equal(t, int64(25), hi)
	act(t, c, ActionRaiseTo, 25)

	// The short all-in is not a full raise, so a may only call or fold.
	acc = c.Accessor()
	p = acc.NextToAct()
	require.Equal(t, "a", p.ID)
	assert.ElementsMatch(t, []ActionType{ActionFold, ActionCall}, acc.AvailableActions(p))
	assert.Equal(t, int64(5), acc.CallAmt(p))

	_, err = c.Dispatch(Action{Type: ActionRaiseTo, PlayerID: "a", Amount: 50})
	assert.True(t, IsInvalidAction(err, ReasonIllegalAction))
}

func TestPotLimitMaxBet(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "plo", Type: PLO, SmallBlind: 5, BigBlind: 10, MinBuyin: 100, MaxBuyin: 2000, NumSeats: 3}
	c, _ := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(2)))
	seatAll(t, c, seat{"a", 1000}, seat{"b", 1000}, seat{"c", 1000})
	_, err := c.SetupHand(WithBlindPositions(0, 1, 2))
	require.NoError(t, err)

	acc := c.Accessor()
	for _, p := range acc.Players() {
		assert.Len(t, p.Cards, 4)
	}

	a := acc.NextToAct()
	require.Equal(t, "a", a.ID)
	lo, hi := acc.ValidBetRange(a)
	assert.Equal(t, int64(20), lo)
	assert.Equal(t, int64(35), hi, "call 10 plus a pot of 25")

	_, err = c.Dispatch(Action{Type: ActionRaiseTo, PlayerID: "a", Amount: 36})
	assert.True(t, IsInvalidAction(err, ReasonBadAmount))

	act(t, c, ActionRaiseTo, 35)

	acc = c.Accessor()
	b := acc.NextToAct()
	require.Equal(t, "b", b.ID)
	_, hi = acc.ValidBetRange(b)
	assert.Equal(t, int64(115), hi)
}

func TestTimeouts(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 1000, NumSeats: 2}
	c, _ := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(3)))
	seatAll(t, c, seat{"a", 100}, seat{"b", 100})

	_, err := c.SetupHand(WithBlindPositions(0, 0, 1))
	require.NoError(t, err)

	_, err = c.TimedDispatch("b")
	assert.True(t, IsInvalidAction(err, ReasonNotYourTurn))

	events, err := c.TimedDispatch("a")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, EventTimeout, events[0].Type)
	assert.Equal(t, TimeoutArgs{Count: 1}, events[0].Args)
	assert.Equal(t, EventFold, events[1].Type)
	assert.Equal(t, AutoArgs{Auto: true}, events[1].Args)
	assert.Equal(t, EventEndHand, events[len(events)-1].Type, "the fold ends the hand")
	assert.Equal(t, map[string]int64{"a": 99, "b": 101}, stacks(c))

	events, err = c.Step()
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = c.SetupHand(WithBlindPositions(1, 1, 0))
	require.NoError(t, err)
	act(t, c, ActionCall, 0)

	// a only needs to check the big blind, so the second timeout checks
	// and then sits a out.
	events, err = c.TimedDispatch("a")
	require.NoError(t, err)
	require.Greater(t, len(events), 3)
	assert.Equal(t, []EventType{EventTimeout, EventCheck, EventSitOut}, []EventType{events[0].Type, events[1].Type, events[2].Type})
	assert.Equal(t, StateArgs{State: SittingOut}, events[2].Args)

	a := c.Accessor().PlayerByID("a")
	assert.Equal(t, 2, a.Timeouts)
	assert.Equal(t, SittingOut, a.State)

	// Sitting out players are checked through on later streets.
	acc := c.Accessor()
	require.True(t, acc.IsFlop())
	assert.Equal(t, "b", acc.NextToAct().ID)
	assert.Equal(t, ActionCheck, acc.PlayerByID("a").LastAction)
}

type incidents struct {
	reports []*ConsistencyViolationError
}

func (r *incidents) Report(_ context.Context, cv *ConsistencyViolationError) {
	r.reports = append(r.reports, cv)
}

func TestConsistencyViolationHaltsTable(t *testing.T) {
	t.Parallel()

	snap := NewTableSnapshot(Table{ID: "broken", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 100, NumSeats: 2})
	snap.Players = []Player{{ID: "a", Username: "a", TableID: "broken", Seat: 0, Stack: 100, State: SittingOut}}
	snap.Table.ChipsInPlay = 50

	rep := &incidents{}
	log := &eventLog{}
	c, err := New(snap, WithClock(quartz.NewMock(t)), WithIncidentReporter(rep), WithSubscribers(log))
	require.NoError(t, err)

	events, err := c.Dispatch(Action{Type: ActionSitIn, PlayerID: "a"})
	var cv *ConsistencyViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "conservation", cv.Check)
	assert.Equal(t, "broken", cv.TableID)

	require.Len(t, events, 1)
	assert.Equal(t, EventPause, events[0].Type)
	assert.True(t, c.Halted())
	require.Len(t, rep.reports, 1)
	assert.Same(t, cv, rep.reports[0])
	assert.Equal(t, 1, log.commits)

	// The offending action was rolled back.
	assert.Equal(t, SittingOut, c.Accessor().PlayerByID("a").State)

	_, err = c.Dispatch(Action{Type: ActionSitIn, PlayerID: "a"})
	assert.True(t, IsInvalidAction(err, ReasonTablePaused))
	_, err = c.Step()
	assert.ErrorIs(t, err, ErrHalted)
}

func TestRolledBackStepMovesNoMoney(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := ledger.NewMemory(quartz.NewMock(t))
	_, err := mem.Deposit(ctx, "a", decimal.NewFromInt(10))
	require.NoError(t, err)

	snap := NewTableSnapshot(Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 1000, NumSeats: 2})
	snap.Table.ChipsInPlay = 50
	c, err := New(snap, WithClock(quartz.NewMock(t)), WithLedger(mem))
	require.NoError(t, err)

	_, err = c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: "a", Seat: 0, Amount: 100})
	var cv *ConsistencyViolationError
	require.True(t, errors.As(err, &cv), "got %v", err)
	assert.Nil(t, c.Accessor().PlayerByID("a"))

	bal, err := mem.Balance(ctx, ledger.User("a"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", bal.StringFixed(2), "the buy-in was never taken")
	bal, err = mem.Balance(ctx, ledger.Table("t1"))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	assert.Len(t, mem.History(), 1, "only the deposit")
}

func TestAccessorViewsAreLive(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 1000, NumSeats: 2}
	c, _ := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(9)))
	seatAll(t, c, seat{"a", 100}, seat{"b", 100})

	acc := c.Accessor()
	live, players := acc.Table(), acc.Players()
	snap := acc.Snapshot()

	_, err := c.SetupHand(WithBlindPositions(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(1), live.HandNumber, "the table record follows the controller")
	assert.Equal(t, int64(99), players[0].Stack)
	assert.True(t, acc.IsPreflop())
	assert.Zero(t, snap.Table.HandNumber, "a snapshot is a copy")
	assert.Equal(t, int64(100), snap.Players[0].Stack)

	snap.Players[0].Stack = 1
	assert.Equal(t, int64(99), c.Accessor().PlayerByID("a").Stack)
}

func TestLeaveSeatMidHand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := ledger.NewMemory(quartz.NewMock(t))
	for _, id := range []string{"a", "b", "c"} {
		_, err := mem.Deposit(ctx, id, decimal.NewFromInt(10))
		require.NoError(t, err)
	}

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 4}
	c, log := newTestController(t, tbl, WithLedger(mem), WithRandSource(randutil.New(4)))
	seatAll(t, c, seat{"a", 100}, seat{"b", 100}, seat{"c", 100})

	_, err := c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: "d", Seat: 3, Amount: 100})
	assert.True(t, IsInvalidAction(err, ReasonInsufficientBalance))
	assert.Nil(t, c.Accessor().PlayerByID("d"))

	_, err = c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: "e", Seat: 3, Amount: 10})
	assert.True(t, IsInvalidAction(err, ReasonBadAmount))

	_, err = c.SetupHand(WithBlindPositions(0, 1, 2))
	require.NoError(t, err)

	// b is not to act: they stay in the hand until their turn comes.
	events, err := c.Dispatch(Action{Type: ActionLeaveSeat, PlayerID: "b"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, StateArgs{State: LeaveSeatPending}, events[0].Args)

	_, err = c.Dispatch(Action{Type: ActionLeaveSeat, PlayerID: "b"})
	assert.True(t, IsInvalidAction(err, ReasonNoChange))

	act(t, c, ActionFold, 0)

	assert.Nil(t, c.Accessor().PlayerByID("b"), "b cashed out after the hand")
	require.Len(t, log.ofType(EventCashOut), 1)
	assert.Equal(t, AmountArgs{Amount: 99}, log.ofType(EventCashOut)[0].Args)
	assert.Equal(t, int64(2), c.Accessor().HandNumber(), "the next hand is dealt heads up")

	bal, err := mem.Balance(ctx, ledger.User("b"))
	require.NoError(t, err)
	assert.Equal(t, "9.99", bal.StringFixed(2))

	bal, err = mem.Balance(ctx, ledger.Table("t1"))
	require.NoError(t, err)
	assert.Equal(t, "2.01", bal.StringFixed(2))
	assert.Equal(t, int64(201), c.Accessor().Table().ChipsInPlay)
}

func TestLeaveSeatBetweenHands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := ledger.NewMemory(quartz.NewMock(t))
	_, err := mem.Deposit(ctx, "a", decimal.NewFromInt(5))
	require.NoError(t, err)

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 2}
	c, _ := newTestController(t, tbl, WithLedger(mem))
	seatAll(t, c, seat{"a", 150})

	events, err := c.Dispatch(Action{Type: ActionLeaveSeat, PlayerID: "a"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventCashOut, events[0].Type)
	assert.Equal(t, EventLeaveSeat, events[1].Type)
	assert.Empty(t, c.Accessor().Players())

	bal, err := mem.Balance(ctx, ledger.User("a"))
	require.NoError(t, err)
	assert.Equal(t, "5.00", bal.StringFixed(2))
}

func TestMissedBlindsOwedOnReturn(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 4}
	c, log := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(5)))
	for _, s := range []struct {
		id   string
		seat int
	}{{"a", 0}, {"b", 2}, {"c", 3}} {
		_, err := c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: s.id, Seat: s.seat, Amount: 100})
		require.NoError(t, err)
	}

	_, err := c.SetupHand()
	require.NoError(t, err)
	tb := c.Accessor().Table()
	assert.Equal(t, []int{0, 2, 3}, []int{tb.Button, tb.SBIdx, tb.BBIdx})
	act(t, c, ActionFold, 0)
	act(t, c, ActionFold, 0)
	require.False(t, c.Accessor().HandInProgress())

	events, err := c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: "d", Seat: 1, Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventTakeSeat, EventBuy, EventMissedBlinds, EventSitInPending},
		[]EventType{events[0].Type, events[1].Type, events[2].Type, events[3].Type})
	assert.True(t, c.Accessor().PlayerByID("d").OwesBB)

	// d takes the button and posts the owed big blind live.
	events, err = c.SetupHand()
	require.NoError(t, err)
	tb = c.Accessor().Table()
	assert.Equal(t, []int{1, 2, 3}, []int{tb.Button, tb.SBIdx, tb.BBIdx})

	var owed []Event
	for _, e := range events {
		if e.Type == EventPost && e.Args.(PostArgs).Blind == BlindOwedBig {
			owed = append(owed, e)
		}
	}
	require.Len(t, owed, 1)
	assert.Equal(t, "d", owed[0].Subject.ID)
	assert.Equal(t, int64(2), owed[0].Args.(PostArgs).Amount)

	d := c.Accessor().PlayerByID("d")
	assert.False(t, d.OwesBB)
	assert.True(t, d.DealtIn)
	assert.Equal(t, int64(98), d.Stack)
	assert.Len(t, log.ofType(EventSitIn), 4)
}

func TestSitOutMissesBlinds(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 4}
	c, _ := newTestController(t, tbl, WithEndHandStop(), WithRandSource(randutil.New(6)))
	seatAll(t, c, seat{"a", 100}, seat{"b", 100}, seat{"c", 100}, seat{"d", 100})

	_, err := c.SetupHand(WithBlindPositions(3, 0, 1))
	require.NoError(t, err)
	for c.Accessor().HandInProgress() {
		act(t, c, ActionFold, 0)
	}

	_, err = c.Dispatch(Action{Type: ActionSitOut, PlayerID: "b"})
	require.NoError(t, err)
	_, err = c.Dispatch(Action{Type: ActionSitOut, PlayerID: "b"})
	assert.True(t, IsInvalidAction(err, ReasonNoChange))

	// Button moves to a; b would have been the small blind.
	events, err := c.SetupHand()
	require.NoError(t, err)
	tb := c.Accessor().Table()
	assert.Equal(t, []int{0, 2, 3}, []int{tb.Button, tb.SBIdx, tb.BBIdx})

	var missed []MissedBlindsArgs
	for _, e := range events {
		if e.Type == EventMissedBlinds {
			require.Equal(t, "b", e.Subject.ID)
			missed = append(missed, e.Args.(MissedBlindsArgs))
		}
	}
	assert.Equal(t, []MissedBlindsArgs{{SB: true}}, missed)
	b := c.Accessor().PlayerByID("b")
	assert.True(t, b.OwesSB)
	assert.False(t, b.DealtIn)
}

func TestViewForHidesOtherHands(t *testing.T) {
	t.Parallel()

	tbl := Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 2}
	c, _ := newTestController(t, tbl, WithEndHandStop())
	seatAll(t, c, seat{"a", 100}, seat{"b", 100})
	_, err := c.SetupHand(WithDeck(stackedDeck(t, "AsKs QdQc")), WithBlindPositions(0, 0, 1))
	require.NoError(t, err)

	v := c.Accessor().ViewFor("a")
	assert.True(t, v.ToAct)
	assert.Equal(t, "AsKs", poker.FormatCards(v.HoleCards))
	assert.Equal(t, int64(1), v.CallAmount)
	assert.Equal(t, int64(4), v.MinRaiseTo)
	assert.Equal(t, int64(100), v.MaxRaiseTo)
	for _, s := range v.Seats {
		if s.PlayerID == "b" {
			assert.Empty(t, s.Cards)
		}
	}

	v = c.Accessor().ViewFor("b")
	assert.False(t, v.ToAct)
	assert.Empty(t, v.Legal)

	v = c.Accessor().ViewFor(ViewerAll)
	for _, s := range v.Seats {
		assert.Len(t, s.Cards, 2)
	}
}
