package game

import (
	"context"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/ledger"
	"github.com/lox/pokerengine/poker"
)

// HandLogger persists the event and action stream of a table. Entries are
// handed over only after the step that produced them succeeded.
type HandLogger interface {
	// WriteSnapshot is called immediately before each NEW_HAND event.
	WriteSnapshot(Snapshot) error
	// WriteAction records an accepted action. seq is the sequence number of
	// the first event the action produced.
	WriteAction(seq int64, a Action) error
	WriteEvent(Event) error
	Commit() error
}

// Subscriber observes events as they are produced. Commit is called once
// per controller step.
type Subscriber interface {
	Dispatch(Event)
	Commit() error
}

// IncidentReporter receives consistency violations after the table halts.
type IncidentReporter interface {
	Report(ctx context.Context, err *ConsistencyViolationError)
}

// BlindLevel is one entry in a tournament blind schedule. A level applies
// from hand FromHand onwards until the next level starts.
type BlindLevel struct {
	FromHand   int64 `hcl:"from_hand" json:"from_hand"`
	SmallBlind int64 `hcl:"small_blind" json:"sb"`
	BigBlind   int64 `hcl:"big_blind" json:"bb"`
	Ante       int64 `hcl:"ante,optional" json:"ante"`
}

// TournamentConfig carries freezeout rules that are not part of the table
// state: they only influence events that are themselves recorded.
type TournamentConfig struct {
	BuyIn         int64
	StartingStack int64
	Levels        []BlindLevel
	// Payouts are percentages of the prize pool by finishing place.
	Payouts []int64
}

// Option configures a Controller.
type Option func(*config)

type config struct {
	clock       quartz.Clock
	logger      zerolog.Logger
	ledger      ledger.Ledger
	handLogger  HandLogger
	subscribers []Subscriber
	rng         poker.RandSource
	incidents   IncidentReporter
	stopAtEnd   bool
	replaying   bool
	tournament  TournamentConfig
	recentIDs   int
}

func defaultConfig() *config {
	return &config{
		clock:     quartz.NewReal(),
		logger:    zerolog.Nop(),
		ledger:    ledger.Nop{},
		rng:       poker.CryptoSource,
		recentIDs: 256,
	}
}

// WithClock sets the clock used for event timestamps.
func WithClock(c quartz.Clock) Option {
	return func(cfg *config) { cfg.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithLedger sets the ledger backing buy-ins, cash-outs and prizes.
func WithLedger(l ledger.Ledger) Option {
	return func(cfg *config) { cfg.ledger = l }
}

// WithHandLogger sets where events and actions are recorded.
func WithHandLogger(h HandLogger) Option {
	return func(cfg *config) { cfg.handLogger = h }
}

// WithSubscribers adds event subscribers.
func WithSubscribers(subs ...Subscriber) Option {
	return func(cfg *config) { cfg.subscribers = append(cfg.subscribers, subs...) }
}

// WithRandSource sets the shuffle source for new decks.
func WithRandSource(r poker.RandSource) Option {
	return func(cfg *config) { cfg.rng = r }
}

// WithIncidentReporter sets who is told about consistency violations.
func WithIncidentReporter(r IncidentReporter) Option {
	return func(cfg *config) { cfg.incidents = r }
}

// WithEndHandStop makes Step stop after END_HAND: it never deals a hand
// and callers start each hand with SetupHand. The between-hands
// housekeeping (cash-outs, rebuys, eliminations, prizes) still runs.
func WithEndHandStop() Option {
	return func(cfg *config) { cfg.stopAtEnd = true }
}

// WithReplay marks a controller that re-executes a recorded log. The
// between-hands housekeeping is skipped because it is applied from the
// next hand's preamble instead, and no ledger transfers are made.
func WithReplay() Option {
	return func(cfg *config) {
		cfg.stopAtEnd = true
		cfg.replaying = true
	}
}

// WithTournament sets the freezeout schedule, buy-in and payouts.
func WithTournament(t TournamentConfig) Option {
	return func(cfg *config) { cfg.tournament = t }
}

// HandOption adjusts a single SetupHand call.
type HandOption func(*handSetup)

type handSetup struct {
	deck      string
	positions *BlindPosArgs
}

// WithDeck deals the next hand from a predetermined deck string instead of
// shuffling. Used for replay and tests.
func WithDeck(deck string) HandOption {
	return func(h *handSetup) { h.deck = deck }
}

// WithBlindPositions forces the button and blind seats of the next hand.
func WithBlindPositions(button, sb, bb int) HandOption {
	return func(h *handSetup) { h.positions = &BlindPosArgs{Button: button, SB: sb, BB: bb} }
}
