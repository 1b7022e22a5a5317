package table

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerengine/internal/bot"
	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/handhistory"
	"github.com/lox/pokerengine/internal/ledger"
	"github.com/lox/pokerengine/internal/randutil"
)

func headsUp() game.Table {
	return game.Table{ID: "hu", Name: "Heads up", SmallBlind: 1, BigBlind: 2, MinBuyin: 40, MaxBuyin: 400, NumSeats: 2}
}

func seat(id string, pos int) game.Action {
	return game.Action{Type: game.ActionTakeSeat, PlayerID: id, Seat: pos, Amount: 200}
}

func newWorker(t *testing.T, clock quartz.Clock, opts ...WorkerOption) *Worker {
	t.Helper()
	ctrl, err := game.NewRingController(headsUp(),
		game.WithClock(clock),
		game.WithRandSource(randutil.New(21)),
		game.WithEndHandStop(),
	)
	require.NoError(t, err)
	return NewWorker(ctrl, append([]WorkerOption{WithClock(clock)}, opts...)...)
}

func callers(t *testing.T, ids ...string) *bot.Host {
	t.Helper()
	host, err := bot.NewHost(zerolog.Nop(), 0)
	require.NoError(t, err)
	for _, id := range ids {
		host.Add(id, bot.CallBot{})
	}
	return host
}

func TestWorkerStopsAtHandLimit(t *testing.T) {
	t.Parallel()

	w := newWorker(t, quartz.NewMock(t), WithHandLimit(5), WithDecider(callers(t, "a", "b")))
	require.NoError(t, w.Submit(seat("a", 0)))
	require.NoError(t, w.Submit(seat("b", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, Stats{Hands: 5}, w.Stats())
	assert.Equal(t, int64(5), w.ctrl.Accessor().HandNumber())
	assert.False(t, w.ctrl.Accessor().HandInProgress())

	var total int64
	for _, p := range w.ctrl.Accessor().Players() {
		total += p.Stack
	}
	assert.Equal(t, int64(400), total)

	require.ErrorIs(t, w.Submit(seat("c", 0)), ErrQueueClosed)
	require.ErrorIs(t, w.Do(ctx, func(game.Accessor) {}), ErrStopped)
}

// shover moves all in whenever it can and calls otherwise.
type shover struct{}

func (shover) Decide(acc game.Accessor, p *game.Player) (game.Action, bool) {
	a := game.Action{Type: game.ActionCall, PlayerID: p.ID}
	legal := acc.AvailableActions(p)
	switch {
	case slices.Contains(legal, game.ActionRaiseTo):
		a.Type = game.ActionRaiseTo
		_, a.Amount = acc.ValidBetRange(p)
	case slices.Contains(legal, game.ActionBet):
		a.Type = game.ActionBet
		_, a.Amount = acc.ValidBetRange(p)
	case slices.Contains(legal, game.ActionCheck):
		a.Type = game.ActionCheck
	}
	return a, true
}

func fund(t *testing.T, mem *ledger.Memory, amount int64, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := mem.Deposit(context.Background(), id, decimal.NewFromInt(amount))
		require.NoError(t, err)
	}
}

func balance(t *testing.T, mem *ledger.Memory, id string) decimal.Decimal {
	t.Helper()
	bal, err := mem.Balance(context.Background(), ledger.User(id))
	require.NoError(t, err)
	return bal
}

func TestWorkerFinishesFreezeout(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	mem := ledger.NewMemory(clock)
	fund(t, mem, 10, "a", "b", "c")

	tbl := game.Table{ID: "ft", SmallBlind: 5, BigBlind: 10, NumSeats: 3}
	tc := game.TournamentConfig{
		BuyIn:         1000,
		StartingStack: 100,
		Levels:        []game.BlindLevel{{FromHand: 1, SmallBlind: 5, BigBlind: 10}},
		Payouts:       []int64{70, 30},
	}
	ctrl, err := game.NewFreezeoutController(tbl, tc,
		game.WithClock(clock),
		game.WithLedger(mem),
		game.WithRandSource(randutil.New(31)),
		game.WithEndHandStop(),
	)
	require.NoError(t, err)
	for i, id := range []string{"a", "b", "c"} {
		_, err := ctrl.Dispatch(seat(id, i))
		require.NoError(t, err)
	}

	w := NewWorker(ctrl, WithClock(clock), WithDecider(shover{}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))
	require.NoError(t, ctx.Err(), "the worker stopped because the tournament finished")

	tb := ctrl.Accessor().Table()
	require.True(t, tb.Finished)
	require.Len(t, tb.Placements, 3)
	require.Len(t, ctrl.Accessor().Players(), 1, "busted players are eliminated")

	want := map[int]string{1: "21.00", 2: "9.00", 3: "0.00"}
	for _, p := range tb.Placements {
		bal, err := mem.Balance(ctx, ledger.User(p.PlayerID))
		require.NoError(t, err)
		assert.Equal(t, want[p.Place], bal.StringFixed(2), "place %d", p.Place)
	}
	bal, err := mem.Balance(ctx, ledger.Tournament("ft"))
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "the prize pool is paid out")
}

func TestWorkerCashesOutMidHandLeave(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	mem := ledger.NewMemory(clock)
	fund(t, mem, 2, "a", "b", "c")

	tbl := game.Table{ID: "ring", SmallBlind: 1, BigBlind: 2, MinBuyin: 40, MaxBuyin: 400, NumSeats: 3}
	ctrl, err := game.NewRingController(tbl,
		game.WithClock(clock),
		game.WithLedger(mem),
		game.WithRandSource(randutil.New(32)),
		game.WithEndHandStop(),
	)
	require.NoError(t, err)
	for i, id := range []string{"a", "b", "c"} {
		_, err := ctrl.Dispatch(seat(id, i))
		require.NoError(t, err)
	}

	// Only a and b are bots, so the hand waits on c.
	w := NewWorker(ctrl, WithClock(clock), WithHandLimit(1), WithDecider(callers(t, "a", "b")))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		var waiting bool
		err := w.Do(ctx, func(acc game.Accessor) {
			p := acc.NextToAct()
			waiting = p != nil && p.ID == "c"
		})
		return err == nil && waiting
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, w.Submit(game.Action{Type: game.ActionLeaveSeat, PlayerID: "c"}))
	require.NoError(t, <-errc)
	require.NoError(t, ctx.Err(), "the worker stopped at the hand limit")

	acc := ctrl.Accessor()
	assert.False(t, acc.HandInProgress())
	assert.Nil(t, acc.PlayerByID("c"), "c left once the hand was over")

	var chips int64
	for _, p := range acc.Players() {
		chips += p.Stack
	}
	assert.Equal(t, chips, acc.Table().ChipsInPlay)

	table, err := mem.Balance(ctx, ledger.Table("ring"))
	require.NoError(t, err)
	assert.Equal(t, acc.Table().Chips(chips).StringFixed(2), table.StringFixed(2), "the table account backs exactly the chips left")

	left, err := mem.Balance(ctx, ledger.User("c"))
	require.NoError(t, err)
	assert.True(t, left.IsPositive(), "c was paid their stack")
	assert.Equal(t, "6.00", left.Add(table).Add(balance(t, mem, "a")).Add(balance(t, mem, "b")).StringFixed(2))
}

func TestWorkerTimeBank(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	w := newWorker(t, clock, WithTimeBank(10*time.Second))
	require.NoError(t, w.Submit(seat("a", 0)))
	require.NoError(t, w.Submit(seat("b", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	var toAct string
	require.Eventually(t, func() bool {
		err := w.Do(ctx, func(acc game.Accessor) {
			if p := acc.NextToAct(); p != nil {
				toAct = p.ID
			}
		})
		return err == nil && toAct != ""
	}, 5*time.Second, time.Millisecond)

	clock.Advance(10 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return w.Stats().Timeouts == 1 }, 5*time.Second, time.Millisecond)

	var timeouts int
	require.NoError(t, w.Do(ctx, func(acc game.Accessor) {
		timeouts = acc.PlayerByID(toAct).Timeouts
	}))
	assert.Equal(t, 1, timeouts)

	cancel()
	require.NoError(t, <-errc)
}

func TestWorkerIgnoresStaleTimer(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	w := newWorker(t, clock, WithTimeBank(10*time.Second))
	require.NoError(t, w.Submit(seat("a", 0)))
	require.NoError(t, w.Submit(seat("b", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	var hand int64
	var toAct string
	require.Eventually(t, func() bool {
		err := w.Do(ctx, func(acc game.Accessor) {
			if p := acc.NextToAct(); p != nil {
				toAct, hand = p.ID, acc.HandNumber()
			}
		})
		return err == nil && toAct != ""
	}, 5*time.Second, time.Millisecond)

	// Acting before the time bank runs out disarms the timer.
	clock.Advance(5 * time.Second).MustWait(ctx)
	require.NoError(t, w.Submit(game.Action{Type: game.ActionCall, PlayerID: toAct, HandNumber: hand}))
	require.Eventually(t, func() bool {
		var moved bool
		err := w.Do(ctx, func(acc game.Accessor) {
			p := acc.NextToAct()
			moved = p != nil && p.ID != toAct
		})
		return err == nil && moved
	}, 5*time.Second, time.Millisecond)

	clock.Advance(5 * time.Second).MustWait(ctx)
	require.NoError(t, w.Do(ctx, func(game.Accessor) {}))
	assert.Zero(t, w.Stats().Timeouts)

	cancel()
	require.NoError(t, <-errc)
}

func TestWorkerRejectsInvalidActions(t *testing.T) {
	t.Parallel()

	w := newWorker(t, quartz.NewMock(t))
	require.NoError(t, w.Submit(seat("a", 0)))
	require.NoError(t, w.Submit(game.Action{Type: game.ActionCall, PlayerID: "ghost"}))
	require.NoError(t, w.Submit(seat("a", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return w.Stats().Rejected == 2 }, 5*time.Second, time.Millisecond)
	require.NoError(t, w.Resume(ctx, "not halted"))

	cancel()
	require.NoError(t, <-errc)
	assert.Zero(t, w.Stats().Hands)
}

func TestManagerRunsTables(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	history := handhistory.NewManager(zerolog.Nop(), handhistory.ManagerConfig{Clock: clock})
	defer history.Shutdown()
	validator, err := NewValidator()
	require.NoError(t, err)

	m := NewManager(zerolog.Nop(), Config{
		Clock:     clock,
		History:   history,
		Bots:      callers(t, "a", "b", "c"),
		Validator: validator,
	})

	ring, err := m.Open(TableOptions{Table: headsUp(), HandLimit: 3, Rand: randutil.New(1)})
	require.NoError(t, err)
	_, err = m.Open(TableOptions{Table: headsUp()})
	require.Error(t, err, "duplicate table id")

	bounty := headsUp()
	bounty.ID = ""
	bounty.Type = game.BountyNLHE
	bounty.NumSeats = 3
	bw, err := m.Open(TableOptions{Table: bounty, HandLimit: 2, Rand: randutil.New(2)})
	require.NoError(t, err)
	require.NotEmpty(t, bw.TableID())

	_, err = m.Open(TableOptions{Table: game.Table{ID: "ft", Format: game.Freezeout, SmallBlind: 1, BigBlind: 2, NumSeats: 2}})
	require.Error(t, err, "freezeout without tournament config")

	assert.Len(t, m.Tables(), 2)

	require.NoError(t, m.Submit("hu", []byte(`{"type":"TAKE_SEAT","player_id":"a","amount":200,"seat":0}`)))
	require.NoError(t, m.Submit("hu", []byte(`{"type":"TAKE_SEAT","player_id":"b","amount":200,"seat":1}`)))
	require.Error(t, m.Submit("hu", []byte(`{"type":"TAKE_SEAT"}`)))
	require.Error(t, m.Submit("nope", []byte(`{"type":"CALL","player_id":"a"}`)))
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, bw.Submit(seat(id, i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	assert.Empty(t, m.Tables())
	assert.Equal(t, int64(3), ring.Stats().Hands)
	assert.Equal(t, int64(2), bw.Stats().Hands)

	rows, err := history.Store().Load(ctx, "hu")
	require.NoError(t, err)
	hands, err := handhistory.BuildHands(rows)
	require.NoError(t, err)
	require.Len(t, hands, 3)
	for _, h := range hands {
		assert.True(t, h.Complete(), "hand %d", h.Number)
	}
}

func TestIncidentLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log := NewIncidentLog(zerolog.Nop(), dir, func() time.Time { return now })

	snap := game.NewTableSnapshot(headsUp())
	snap.Table.Seq = 17
	log.Report(context.Background(), &game.ConsistencyViolationError{
		TableID:  "hu",
		Check:    "conservation",
		Detail:   "players hold 399, chips in play 400",
		Snapshot: snap,
	})

	incidents := log.Incidents()
	require.Len(t, incidents, 1)
	assert.Equal(t, now, incidents[0].Reported)

	data, err := os.ReadFile(filepath.Join(dir, "incident-hu-17.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"check": "conservation"`)
}
