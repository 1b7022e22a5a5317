// Package table runs tables: one worker goroutine per table owns its
// controller and applies queued actions, bot decisions and time bank
// expiries in order.
package table

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/game"
)

// ErrStopped is returned when talking to a worker that has exited.
var ErrStopped = errors.New("table: worker stopped")

// maxAutoActs bounds how many bot decisions are applied before the worker
// looks at its inputs again.
const maxAutoActs = 64

// Decider acts for players the worker does not wait on, such as bots.
type Decider interface {
	Decide(acc game.Accessor, p *game.Player) (game.Action, bool)
}

// Stats are running counters of a worker.
type Stats struct {
	Hands    int64 `json:"hands"`
	Rejected int64 `json:"rejected"`
	Timeouts int64 `json:"timeouts"`
}

type workerConfig struct {
	clock     quartz.Clock
	logger    zerolog.Logger
	timeBank  time.Duration
	handLimit int64
	handDelay time.Duration
	decider   Decider
	queue     *Queue
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerConfig)

// WithClock sets the clock for time bank and hand delay timers.
func WithClock(c quartz.Clock) WorkerOption {
	return func(cfg *workerConfig) { cfg.clock = c }
}

// WithLogger sets the worker logger.
func WithLogger(l zerolog.Logger) WorkerOption {
	return func(cfg *workerConfig) { cfg.logger = l }
}

// WithTimeBank sets how long a player may think before the worker checks
// or folds for them. Zero waits forever.
func WithTimeBank(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) { cfg.timeBank = d }
}

// WithHandLimit stops the worker once n hands have been dealt and the last
// one is over. Zero means unlimited.
func WithHandLimit(n int64) WorkerOption {
	return func(cfg *workerConfig) { cfg.handLimit = n }
}

// WithHandDelay waits d between the end of one hand and the next deal.
func WithHandDelay(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) { cfg.handDelay = d }
}

// WithDecider lets d act for players whenever it wants to.
func WithDecider(d Decider) WorkerOption {
	return func(cfg *workerConfig) { cfg.decider = d }
}

// WithQueue uses q as the inbound action queue.
func WithQueue(q *Queue) WorkerOption {
	return func(cfg *workerConfig) { cfg.queue = q }
}

type turn struct {
	playerID string
	seq      int64
}

type job struct {
	fn   func()
	done chan struct{}
}

// Worker is the single mutator of one table. The controller must be built
// with game.WithEndHandStop so that the worker decides when to deal.
type Worker struct {
	ctrl   *game.Controller
	cfg    workerConfig
	queue  *Queue
	logger zerolog.Logger

	jobs     chan job
	expired  chan turn
	done     chan struct{}
	timer    *quartz.Timer
	turn     turn
	nextHand *quartz.Timer

	hands    atomic.Int64
	rejected atomic.Int64
	timeouts atomic.Int64
}

// NewWorker wraps ctrl.
func NewWorker(ctrl *game.Controller, opts ...WorkerOption) *Worker {
	cfg := workerConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = quartz.NewReal()
	}
	if cfg.queue == nil {
		cfg.queue = NewQueue(DefaultQueueSize, nil)
	}
	return &Worker{
		ctrl:    ctrl,
		cfg:     cfg,
		queue:   cfg.queue,
		logger:  cfg.logger.With().Str("component", "table").Str("table_id", ctrl.TableID()).Logger(),
		jobs:    make(chan job),
		expired: make(chan turn, 1),
		done:    make(chan struct{}),
	}
}

// TableID returns the id of the table the worker runs.
func (w *Worker) TableID() string { return w.ctrl.TableID() }

// Queue returns the inbound action queue.
func (w *Worker) Queue() *Queue { return w.queue }

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Submit enqueues an action for the table.
func (w *Worker) Submit(a game.Action) error { return w.queue.Push(a) }

// Stats returns the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Hands:    w.hands.Load(),
		Rejected: w.rejected.Load(),
		Timeouts: w.timeouts.Load(),
	}
}

// Do runs fn on the worker goroutine with a consistent view of the table.
// fn must not retain the accessor.
func (w *Worker) Do(ctx context.Context, fn func(game.Accessor)) error {
	return w.do(ctx, func() { fn(w.ctrl.Accessor()) })
}

// Resume clears a halt after an incident has been reviewed.
func (w *Worker) Resume(ctx context.Context, reason string) error {
	var err error
	if doErr := w.do(ctx, func() {
		if _, err = w.ctrl.Resume(reason); err == nil {
			w.logger.Warn().Str("reason", reason).Msg("Table resumed")
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

func (w *Worker) do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case w.jobs <- j:
	case <-w.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-w.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes the table until ctx is done, the queue is closed, the hand
// limit is reached or a tournament finishes.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)
	defer func() {
		w.disarm()
		if w.nextHand != nil {
			w.nextHand.Stop()
		}
	}()
	defer w.queue.Close()

	w.logger.Info().
		Dur("time_bank", w.cfg.timeBank).
		Int64("hand_limit", w.cfg.handLimit).
		Msg("Table worker started")

	w.step()
	for {
		w.advance()
		if w.finished() {
			w.logger.Info().Int64("hands", w.hands.Load()).Msg("Table worker finished")
			return nil
		}

		var next <-chan time.Time
		if w.nextHand != nil {
			next = w.nextHand.C
		}
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Table worker stopping")
			return nil
		case a, ok := <-w.queue.ch:
			if !ok {
				return nil
			}
			w.apply(a)
		case t := <-w.expired:
			w.expire(t)
		case j := <-w.jobs:
			j.fn()
			close(j.done)
		case <-next:
			w.nextHand = nil
			w.deal()
		}
	}
}

func (w *Worker) finished() bool {
	acc := w.ctrl.Accessor()
	if acc.Table().Finished {
		return true
	}
	return w.cfg.handLimit > 0 && w.hands.Load() >= w.cfg.handLimit && !acc.HandInProgress()
}

// advance deals when possible, lets the decider act and arms the time bank
// of the player the table is waiting on.
func (w *Worker) advance() {
	for range maxAutoActs {
		if w.ctrl.Halted() || w.finished() {
			w.disarm()
			return
		}
		acc := w.ctrl.Accessor()
		if !acc.HandInProgress() {
			w.disarm()
			if w.nextHand != nil || !acc.EnoughPlayersToPlay() {
				return
			}
			if w.cfg.handDelay > 0 && w.hands.Load() > 0 {
				w.nextHand = w.cfg.clock.NewTimer(w.cfg.handDelay, "table", "next_hand")
				return
			}
			if !w.deal() {
				return
			}
			continue
		}

		p := acc.NextToAct()
		if p == nil {
			return
		}
		if w.cfg.decider != nil {
			if a, ok := w.cfg.decider.Decide(acc, p); ok {
				w.apply(a)
				continue
			}
		}
		w.arm(p.ID, acc.Table().Seq)
		return
	}
}

func (w *Worker) deal() bool {
	if _, err := w.ctrl.SetupHand(); err != nil {
		switch {
		case errors.Is(err, game.ErrNotEnoughPlayers), errors.Is(err, game.ErrHandInProgress):
		default:
			w.fail(err, "Failed to deal hand")
		}
		return false
	}
	n := w.hands.Add(1)
	w.logger.Debug().Int64("hand_number", w.ctrl.Accessor().HandNumber()).Int64("hands", n).Msg("Hand dealt")
	w.step()
	return true
}

func (w *Worker) step() {
	if _, err := w.ctrl.Step(); err != nil && !errors.Is(err, game.ErrHalted) {
		w.fail(err, "Step failed")
	}
}

func (w *Worker) apply(a game.Action) {
	if _, err := w.ctrl.Dispatch(a); err != nil {
		w.reject(a, err)
		return
	}
	w.step()
}

func (w *Worker) reject(a game.Action, err error) {
	var inv *game.InvalidActionError
	if errors.As(err, &inv) {
		w.rejected.Add(1)
		w.logger.Warn().
			Str("player_id", a.PlayerID).
			Stringer("action", a.Type).
			Int64("amount", a.Amount).
			Str("reason", string(inv.Reason)).
			Str("detail", inv.Detail).
			Msg("Action rejected")
		return
	}
	w.fail(err, "Action failed")
}

func (w *Worker) fail(err error, msg string) {
	var cv *game.ConsistencyViolationError
	if errors.As(err, &cv) {
		w.logger.Error().Str("check", cv.Check).Str("detail", cv.Detail).Msg("Table halted")
		return
	}
	w.logger.Error().Err(err).Msg(msg)
}

func (w *Worker) arm(playerID string, seq int64) {
	t := turn{playerID: playerID, seq: seq}
	if t == w.turn || w.cfg.timeBank <= 0 {
		return
	}
	w.disarm()
	w.turn = t
	w.timer = w.cfg.clock.AfterFunc(w.cfg.timeBank, func() {
		select {
		case w.expired <- t:
		case <-w.done:
		}
	}, "table", "time_bank")
}

func (w *Worker) disarm() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.turn = turn{}
}

// expire acts for a player whose time bank ran out, unless they acted in
// the meantime.
func (w *Worker) expire(t turn) {
	if t != w.turn {
		return
	}
	w.turn = turn{}
	w.timer = nil
	acc := w.ctrl.Accessor()
	if p := acc.NextToAct(); p == nil || p.ID != t.playerID || acc.Table().Seq != t.seq {
		return
	}
	if _, err := w.ctrl.TimedDispatch(t.playerID); err != nil {
		w.reject(game.Action{PlayerID: t.playerID, Source: game.SourceTimeout}, err)
		return
	}
	w.timeouts.Add(1)
	w.logger.Info().Str("player_id", t.playerID).Msg("Time bank expired")
	w.step()
}
