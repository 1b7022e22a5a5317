package game

import (
	"slices"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerengine/poker"
)

// eventLog is a Subscriber that keeps everything it is sent.
type eventLog struct {
	events  []Event
	commits int
}

func (l *eventLog) Dispatch(e Event) { l.events = append(l.events, e) }

func (l *eventLog) Commit() error {
	l.commits++
	return nil
}

func (l *eventLog) ofType(et EventType) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

type seat struct {
	id    string
	stack int64
}

// seatAll seats players in order from seat 0.
func seatAll(t *testing.T, c *Controller, seats ...seat) {
	t.Helper()
	for i, s := range seats {
		_, err := c.Dispatch(Action{Type: ActionTakeSeat, PlayerID: s.id, Seat: i, Amount: s.stack})
		require.NoError(t, err)
	}
}

// newTestController opens a ring table with a mock clock and an event log.
func newTestController(t *testing.T, tbl Table, opts ...Option) (*Controller, *eventLog) {
	t.Helper()
	log := &eventLog{}
	opts = append([]Option{WithClock(quartz.NewMock(t)), WithSubscribers(log)}, opts...)
	c, err := NewRingController(tbl, opts...)
	require.NoError(t, err)
	return c, log
}

// stackedDeck puts the given cards on top of an otherwise ordered deck.
func stackedDeck(t *testing.T, top string) string {
	t.Helper()
	first := poker.MustParseCards(top)
	rest := poker.FullDeck().Cards()
	rest = slices.DeleteFunc(rest, func(c poker.Card) bool { return slices.Contains(first, c) })
	deck := append(first, rest...)
	require.Len(t, deck, 52)
	return poker.FormatCards(deck)
}

// act dispatches for whoever is next to act and then steps the table.
func act(t *testing.T, c *Controller, typ ActionType, amount int64) *Player {
	t.Helper()
	p := c.Accessor().NextToAct()
	require.NotNil(t, p, "nobody to act for %s", typ)
	_, err := c.Dispatch(Action{Type: typ, PlayerID: p.ID, Amount: amount})
	require.NoError(t, err, "%s %s", p.ID, typ)
	_, err = c.Step()
	require.NoError(t, err)
	return p
}

func stacks(c *Controller) map[string]int64 {
	out := make(map[string]int64)
	for _, p := range c.Accessor().Players() {
		out[p.ID] = p.Stack
	}
	return out
}

// requireConserved folds events one at a time and checks that no chip is
// created or lost along the way. It returns the final snapshot.
func requireConserved(t *testing.T, start Snapshot, events []Event) Snapshot {
	t.Helper()
	snap := start
	for _, e := range events {
		var err error
		snap, err = Apply(snap, e)
		require.NoError(t, err, "apply %s", e)
		var total int64
		for _, p := range snap.Players {
			total += p.Stack + p.Wagers + p.DeadMoney
		}
		require.Equal(t, snap.Table.ChipsInPlay, total-snap.Table.PaidOut, "after %s", e)
	}
	return snap
}
