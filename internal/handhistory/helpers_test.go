package handhistory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/randutil"
)

// playHands seats two players and plays n check-down hands, advancing clk by
// an hour between hands. Every step commits to the hand logger.
func playHands(t *testing.T, clk *quartz.Mock, h game.HandLogger, n int) *game.Controller {
	t.Helper()
	tbl := game.Table{ID: "t1", SmallBlind: 1, BigBlind: 2, MinBuyin: 10, MaxBuyin: 500, NumSeats: 2}
	c, err := game.NewRingController(tbl,
		game.WithClock(clk),
		game.WithHandLogger(h),
		game.WithEndHandStop(),
		game.WithRandSource(randutil.New(7)),
	)
	require.NoError(t, err)

	for i, id := range []string{"a", "b"} {
		_, err := c.Dispatch(game.Action{Type: game.ActionTakeSeat, PlayerID: id, Seat: i, Amount: 100})
		require.NoError(t, err)
	}

	for range n {
		_, err := c.SetupHand()
		require.NoError(t, err)
		for c.Accessor().HandInProgress() {
			acc := c.Accessor()
			if p := acc.NextToAct(); p != nil {
				a := game.Action{Type: game.ActionCheck, PlayerID: p.ID}
				if acc.CallAmt(p) > 0 {
					a.Type = game.ActionCall
				}
				_, err := c.Dispatch(a)
				require.NoError(t, err)
			}
			_, err := c.Step()
			require.NoError(t, err)
		}
		clk.Advance(time.Hour).MustWait(context.Background())
	}
	return c
}

// flakyStore fails the first fails appends, or every append when fails < 0.
type flakyStore struct {
	*MemoryStore

	mu      sync.Mutex
	fails   int
	appends int
}

var errStoreDown = errors.New("store down")

func newFlakyStore(fails int) *flakyStore {
	return &flakyStore{MemoryStore: NewMemoryStore(), fails: fails}
}

func (s *flakyStore) Append(ctx context.Context, tableID string, rows []Row) error {
	s.mu.Lock()
	s.appends++
	fail := s.fails != 0
	if s.fails > 0 {
		s.fails--
	}
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.MemoryStore.Append(ctx, tableID, rows)
}

func (s *flakyStore) appendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

func sitIn(seq int64, id string) game.Event {
	return game.Event{
		Seq:     seq,
		Type:    game.EventSitIn,
		Subject: game.Subject{Kind: game.SubjectPlayer, ID: id},
		Args:    game.StateArgs{State: game.SittingIn},
	}
}
