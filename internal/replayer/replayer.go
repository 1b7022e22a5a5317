// Package replayer rebuilds tables from their hand history and checks that
// the engine still produces exactly what was logged.
package replayer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/handhistory"
)

var (
	ErrStartOfHand = errors.New("replayer: at start of hand")
	ErrEndOfHand   = errors.New("replayer: hand is complete")
	ErrNoMoreHands = errors.New("replayer: no more hands")
	ErrNoSuchHand  = errors.New("replayer: hand not in log")
)

// ReplayDivergenceError reports the first replayed event that differs from
// the log. Want or Got is nil when one side ran out of events.
type ReplayDivergenceError struct {
	Hand  int64
	Index int
	Want  *game.Event
	Got   *game.Event
}

func (e *ReplayDivergenceError) Error() string {
	describe := func(ev *game.Event) string {
		if ev == nil {
			return "nothing"
		}
		return ev.String()
	}
	return fmt.Sprintf("replayer: hand %d diverged at event %d: logged %s, replayed %s",
		e.Hand, e.Index, describe(e.Want), describe(e.Got))
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithLogger sets the replayer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Replayer) { r.logger = l }
}

// WithControllerOptions passes options to every controller the replayer
// builds. Freezeout logs need the tournament configuration here.
func WithControllerOptions(opts ...game.Option) Option {
	return func(r *Replayer) { r.ctrlOpts = append(r.ctrlOpts, opts...) }
}

// step is one unit of replay: dealing the hand or one logged action, each
// followed by a controller Step.
type step struct {
	setup  bool
	action game.Action
}

// Replayer walks the hands of a log one action at a time.
type Replayer struct {
	hands    []handhistory.HandRecord
	ctrlOpts []game.Option
	logger   zerolog.Logger

	idx    int
	ctrl   *game.Controller
	steps  []step
	pos    int
	events []game.Event
}

// New returns a replayer positioned at the start of the first dealt hand.
// Records without a snapshot or a NEW_HAND event are skipped.
func New(hands []handhistory.HandRecord, opts ...Option) (*Replayer, error) {
	r := &Replayer{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	for _, h := range hands {
		if _, ok := h.Snapshot(); ok && h.NewHandSeq() != 0 {
			r.hands = append(r.hands, h)
		}
	}
	if len(r.hands) == 0 {
		return nil, errors.New("replayer: log has no replayable hands")
	}
	if err := r.load(0); err != nil {
		return nil, err
	}
	return r, nil
}

// Hands returns the replayable hand records.
func (r *Replayer) Hands() []handhistory.HandRecord { return r.hands }

// Hand returns the record being replayed.
func (r *Replayer) Hand() *handhistory.HandRecord { return &r.hands[r.idx] }

// Accessor exposes the replayed table.
func (r *Replayer) Accessor() game.Accessor { return r.ctrl.Accessor() }

// Events returns the events replayed so far in the current hand.
func (r *Replayer) Events() []game.Event { return r.events }

// Position is the number of steps applied in the current hand.
func (r *Replayer) Position() int { return r.pos }

// Steps is the number of steps in the current hand: dealing plus one per
// logged action.
func (r *Replayer) Steps() int { return len(r.steps) }

// Done reports whether every step of the current hand has been replayed.
func (r *Replayer) Done() bool { return r.pos == len(r.steps) }

func (r *Replayer) load(idx int) error {
	h := &r.hands[idx]
	snap, _ := h.Snapshot()
	opts := append([]game.Option{game.WithReplay()}, r.ctrlOpts...)
	ctrl, err := game.New(snap.Clone(), opts...)
	if err != nil {
		return fmt.Errorf("replayer: hand %d: %w", h.Number, err)
	}

	start := h.NewHandSeq()
	steps := []step{{setup: true}}
	for _, a := range h.Actions {
		if a.Seq >= start {
			steps = append(steps, step{action: a.Action})
		}
	}

	r.idx = idx
	r.ctrl = ctrl
	r.steps = steps
	r.pos = 0
	r.events = nil
	r.logger.Debug().Int64("hand_number", h.Number).Int("steps", len(steps)).Msg("Loaded hand")
	return nil
}

func (r *Replayer) setupOptions() ([]game.HandOption, error) {
	h := r.Hand()
	var opts []game.HandOption
	for _, e := range h.Events {
		switch args := e.Args.(type) {
		case game.NewHandArgs:
			if args.Deck == "" {
				return nil, fmt.Errorf("replayer: hand %d has no recorded deck", h.Number)
			}
			opts = append(opts, game.WithDeck(args.Deck))
		case game.BlindPosArgs:
			return append(opts, game.WithBlindPositions(args.Button, args.SB, args.BB)), nil
		}
	}
	return nil, fmt.Errorf("replayer: hand %d has no blind positions", h.Number)
}

// StepForward replays the next step and returns the events it produced.
func (r *Replayer) StepForward() ([]game.Event, error) {
	if r.Done() {
		return nil, ErrEndOfHand
	}
	st := r.steps[r.pos]

	var produced []game.Event
	var err error
	switch {
	case st.setup:
		var opts []game.HandOption
		if opts, err = r.setupOptions(); err != nil {
			return nil, err
		}
		produced, err = r.ctrl.SetupHand(opts...)
	case st.action.Source == game.SourceTimeout:
		produced, err = r.ctrl.TimedDispatch(st.action.PlayerID)
	default:
		produced, err = r.ctrl.Dispatch(st.action)
	}
	if err != nil {
		return nil, fmt.Errorf("replayer: hand %d step %d: %w", r.Hand().Number, r.pos, err)
	}
	more, err := r.ctrl.Step()
	if err != nil {
		return nil, fmt.Errorf("replayer: hand %d step %d: %w", r.Hand().Number, r.pos, err)
	}
	produced = append(produced, more...)

	if err := r.compare(produced); err != nil {
		return nil, err
	}
	r.events = append(r.events, produced...)
	r.pos++
	if r.Done() {
		if err := r.compareEnd(); err != nil {
			return nil, err
		}
	}
	return produced, nil
}

func (r *Replayer) compare(produced []game.Event) error {
	logged := r.Hand().Events
	for i := range produced {
		at := len(r.events) + i
		got := produced[i]
		if at >= len(logged) {
			return &ReplayDivergenceError{Hand: r.Hand().Number, Index: at, Got: &got}
		}
		want := logged[at]
		if want.Seq != got.Seq || !want.Equivalent(got) {
			return &ReplayDivergenceError{Hand: r.Hand().Number, Index: at, Want: &want, Got: &got}
		}
	}
	return nil
}

func (r *Replayer) compareEnd() error {
	logged := r.Hand().Events
	if n := len(r.events); n < len(logged) {
		want := logged[n]
		return &ReplayDivergenceError{Hand: r.Hand().Number, Index: n, Want: &want}
	}
	return nil
}

// StepBack undoes the last step by replaying the hand up to the one before.
func (r *Replayer) StepBack() error {
	if r.pos == 0 {
		return ErrStartOfHand
	}
	target := r.pos - 1
	if err := r.load(r.idx); err != nil {
		return err
	}
	for r.pos < target {
		if _, err := r.StepForward(); err != nil {
			return err
		}
	}
	return nil
}

// PlayHand replays the rest of the current hand.
func (r *Replayer) PlayHand() error {
	for !r.Done() {
		if _, err := r.StepForward(); err != nil {
			return err
		}
	}
	return nil
}

// SkipToIndex replays the current hand until at least i events have been
// produced. Indexes past the end replay the whole hand.
func (r *Replayer) SkipToIndex(i int) error {
	if i < len(r.events) {
		if err := r.load(r.idx); err != nil {
			return err
		}
	}
	for len(r.events) < i && !r.Done() {
		if _, err := r.StepForward(); err != nil {
			return err
		}
	}
	return nil
}

// SkipToHand positions the replayer at the start of hand number.
func (r *Replayer) SkipToHand(number int64) error {
	for i := range r.hands {
		if r.hands[i].Number == number {
			return r.load(i)
		}
	}
	return fmt.Errorf("%w: %d", ErrNoSuchHand, number)
}

// NextHand moves to the start of the following hand.
func (r *Replayer) NextHand() error {
	if r.idx+1 >= len(r.hands) {
		return ErrNoMoreHands
	}
	return r.load(r.idx + 1)
}

// StateAtEvent folds the first k logged events of the current hand onto its
// snapshot without running the controller.
func (r *Replayer) StateAtEvent(k int) (game.Snapshot, error) {
	h := r.Hand()
	if k < 0 || k > len(h.Events) {
		return game.Snapshot{}, fmt.Errorf("replayer: event %d out of range 0-%d", k, len(h.Events))
	}
	snap, _ := h.Snapshot()
	return game.Apply(snap, h.Events[:k]...)
}
