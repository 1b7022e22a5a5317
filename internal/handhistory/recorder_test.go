package handhistory

import (
	"context"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/poker"
)

func TestRecorderGroupsHands(t *testing.T) {
	t.Parallel()

	clk := quartz.NewMock(t)
	rec := NewRecorder("t1", NewMemoryStore(), WithClock(clk))
	playHands(t, clk, rec, 2)
	assert.Zero(t, rec.Pending(), "every step commits")

	log, err := rec.GetLog(context.Background(), Filter{Viewer: ViewerAll})
	require.NoError(t, err)
	require.Len(t, log.Hands, 2)
	assert.Equal(t, Release, log.Release)

	var seq int64
	for i, h := range log.Hands {
		assert.Equal(t, int64(i+1), h.Number)
		require.NotNil(t, h.Table, "hand %d has a snapshot", h.Number)
		assert.Equal(t, int64(i), h.Table.HandNumber)
		assert.Len(t, h.Players, 2)
		assert.True(t, h.Complete())

		require.NotEmpty(t, h.Events)
		assert.Equal(t, game.EventNewHand, h.Events[0].Type)
		start := h.NewHandSeq()
		for _, e := range h.Preamble {
			assert.Less(t, e.Seq, start)
		}
		for _, e := range h.AllEvents() {
			seq++
			require.Equal(t, seq, e.Seq, "no gaps or duplicates")
		}
	}

	var seats int
	for _, a := range log.Hands[0].Actions {
		if a.Action.Type == game.ActionTakeSeat {
			seats++
			assert.Less(t, a.Seq, log.Hands[0].NewHandSeq())
		}
	}
	assert.Equal(t, 2, seats, "seating belongs to the first hand's preamble")
}

func TestGetLogRedactsForViewer(t *testing.T) {
	t.Parallel()

	clk := quartz.NewMock(t)
	rec := NewRecorder("t1", NewMemoryStore(), WithClock(clk))
	playHands(t, clk, rec, 1)
	ctx := context.Background()

	mine, err := rec.GetLog(ctx, Filter{Viewer: "a"})
	require.NoError(t, err)
	require.Len(t, mine.Hands, 1)
	h := mine.Hands[0]
	assert.Empty(t, h.Table.Deck)

	var deals int
	for _, e := range h.Events {
		switch args := e.Args.(type) {
		case game.NewHandArgs:
			assert.Empty(t, args.Deck)
		case game.CardsArgs:
			if e.Type != game.EventDeal {
				continue
			}
			deals++
			require.Len(t, args.Cards, 2)
			if e.Subject.ID == "a" {
				assert.True(t, args.Cards[0].Valid())
			} else {
				assert.Equal(t, []poker.Card{0, 0}, args.Cards)
			}
		}
	}
	assert.Equal(t, 2, deals)

	all, err := rec.GetLog(ctx, Filter{Viewer: ViewerAll})
	require.NoError(t, err)
	assert.NotEmpty(t, all.Hands[0].Events[0].Args.(game.NewHandArgs).Deck)
	for _, e := range all.Hands[0].Events {
		if e.Type == game.EventDeal {
			assert.True(t, e.Args.(game.CardsArgs).Cards[0].Valid())
		}
	}
}

func TestGetLogFilters(t *testing.T) {
	t.Parallel()

	clk := quartz.NewMock(t)
	rec := NewRecorder("t1", NewMemoryStore(), WithClock(clk))
	playHands(t, clk, rec, 3)
	require.NoError(t, rec.AddNote("check hand 4 setup"))
	ctx := context.Background()

	all, err := rec.GetLog(ctx, Filter{Viewer: ViewerAll})
	require.NoError(t, err)
	require.Len(t, all.Hands, 4, "the note opens a record for the next hand")

	numbers := func(f *File) []int64 {
		var out []int64
		for _, h := range f.Hands {
			out = append(out, h.Number)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "hand range", filter: Filter{FromHand: 2, ToHand: 3}, want: []int64{2, 3}},
		{name: "from hand", filter: Filter{FromHand: 3}, want: []int64{3, 4}},
		{name: "since", filter: Filter{Since: all.Hands[1].TS}, want: []int64{2, 3, 4}},
		{name: "until", filter: Filter{Until: all.Hands[0].TS}, want: []int64{1}},
		{name: "notes only", filter: Filter{NotesOnly: true}, want: []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := rec.GetLog(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbers(got))
		})
	}
}

func TestCommitKeepsRowsUntilStored(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(1)
	rec := NewRecorder("t1", store)
	require.NoError(t, rec.WriteEvent(sitIn(1, "a")))
	require.NoError(t, rec.WriteEvent(sitIn(2, "b")))

	err := rec.Commit()
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 2, rec.Pending())

	rows, err := rec.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2, "unflushed rows are visible")

	require.NoError(t, rec.Commit())
	assert.Zero(t, rec.Pending())
	require.NoError(t, rec.Commit())
	assert.Equal(t, 2, store.appendCalls(), "commit with nothing buffered does not touch the store")

	rows, err = rec.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Seq)
	assert.Equal(t, int64(2), rows[1].Seq)
}

func TestWriteEventRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	rec := NewRecorder("t1", NewMemoryStore())
	require.NoError(t, rec.WriteEvent(sitIn(5, "a")))
	assert.Error(t, rec.WriteEvent(sitIn(5, "a")))
	assert.Error(t, rec.WriteEvent(sitIn(3, "a")))
	assert.Equal(t, 1, rec.Pending())
}

func TestMerge(t *testing.T) {
	t.Parallel()

	row := func(seq int64, kind RowKind) Row { return Row{TableID: "t1", Seq: seq, Kind: kind} }
	durable := []Row{row(1, KindEvent), row(2, KindEvent), row(2, KindSnapshot), row(3, KindEvent)}
	pending := []Row{row(3, KindEvent), row(3, KindAction), row(4, KindEvent)}

	got := Merge(durable, pending)
	want := []Row{
		row(1, KindEvent),
		row(2, KindEvent),
		row(2, KindSnapshot),
		row(3, KindAction),
		row(3, KindEvent),
		row(4, KindEvent),
	}
	assert.Equal(t, want, got)
}

func TestDisabledRecorderDropsWrites(t *testing.T) {
	t.Parallel()

	rec := NewRecorder("t1", NewMemoryStore())
	require.NoError(t, rec.WriteEvent(sitIn(1, "a")))
	assert.Equal(t, 1, rec.Disable())
	require.NoError(t, rec.WriteEvent(sitIn(2, "a")))
	require.NoError(t, rec.AddNote("ignored"))
	assert.Zero(t, rec.Pending())
}
