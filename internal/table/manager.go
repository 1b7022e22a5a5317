package table

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerengine/internal/bot"
	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/gameid"
	"github.com/lox/pokerengine/internal/handhistory"
	"github.com/lox/pokerengine/internal/ledger"
	"github.com/lox/pokerengine/poker"
)

// Config wires shared services into every table a Manager opens. All
// fields are optional.
type Config struct {
	Clock     quartz.Clock
	History   *handhistory.Manager
	Bots      *bot.Host
	Ledger    ledger.Ledger
	Incidents game.IncidentReporter
	Validator *Validator
	IDs       *gameid.Generator
	// Subscribers returns extra subscribers for a newly opened table.
	Subscribers func(tableID string) []game.Subscriber
}

// TableOptions describes one table to open.
type TableOptions struct {
	Table game.Table
	// Tournament makes the table a freezeout.
	Tournament *game.TournamentConfig
	Rand       poker.RandSource

	TimeBank  time.Duration
	HandDelay time.Duration
	HandLimit int64
	QueueSize int
}

// Manager opens tables and runs their workers in parallel.
type Manager struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.RWMutex
	workers map[string]*Worker
}

// NewManager returns a manager with no tables.
func NewManager(logger zerolog.Logger, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.IDs == nil {
		cfg.IDs = gameid.NewGenerator(cfg.Clock, nil)
	}
	return &Manager{
		cfg:     cfg,
		logger:  logger.With().Str("component", "table_manager").Logger(),
		workers: make(map[string]*Worker),
	}
}

// Open builds the controller and worker for a table. A table without an id
// gets a generated one.
func (m *Manager) Open(opts TableOptions) (*Worker, error) {
	t := opts.Table
	if t.ID == "" {
		id, err := m.cfg.IDs.Generate()
		if err != nil {
			return nil, fmt.Errorf("table: generate id: %w", err)
		}
		t.ID = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.workers[t.ID]; exists {
		return nil, fmt.Errorf("table: %s is already open", t.ID)
	}

	gameOpts := []game.Option{
		game.WithClock(m.cfg.Clock),
		game.WithLogger(m.logger),
		game.WithEndHandStop(),
	}
	if m.cfg.Ledger != nil {
		gameOpts = append(gameOpts, game.WithLedger(m.cfg.Ledger))
	}
	if m.cfg.Incidents != nil {
		gameOpts = append(gameOpts, game.WithIncidentReporter(m.cfg.Incidents))
	}
	if opts.Rand != nil {
		gameOpts = append(gameOpts, game.WithRandSource(opts.Rand))
	}
	var subs []game.Subscriber
	if m.cfg.Bots != nil {
		subs = append(subs, m.cfg.Bots.Observer(t.ID))
	}
	if m.cfg.Subscribers != nil {
		subs = append(subs, m.cfg.Subscribers(t.ID)...)
	}
	if len(subs) > 0 {
		gameOpts = append(gameOpts, game.WithSubscribers(subs...))
	}
	if m.cfg.History != nil {
		rec, err := m.cfg.History.CreateRecorder(t.ID)
		if err != nil {
			return nil, err
		}
		gameOpts = append(gameOpts, game.WithHandLogger(rec))
	}

	ctrl, err := newController(t, opts.Tournament, gameOpts)
	if err != nil {
		if m.cfg.History != nil {
			m.cfg.History.RemoveRecorder(t.ID)
		}
		return nil, err
	}

	workerOpts := []WorkerOption{
		WithClock(m.cfg.Clock),
		WithLogger(m.logger),
		WithTimeBank(opts.TimeBank),
		WithHandDelay(opts.HandDelay),
		WithHandLimit(opts.HandLimit),
		WithQueue(NewQueue(opts.QueueSize, m.cfg.Validator)),
	}
	if m.cfg.Bots != nil {
		workerOpts = append(workerOpts, WithDecider(m.cfg.Bots))
	}
	w := NewWorker(ctrl, workerOpts...)
	m.workers[t.ID] = w

	m.logger.Info().
		Str("table_id", t.ID).
		Str("name", t.Name).
		Stringer("type", t.Type).
		Stringer("format", ctrl.Accessor().Table().Format).
		Int64("sb", ctrl.Accessor().Table().SmallBlind).
		Int64("bb", ctrl.Accessor().Table().BigBlind).
		Msg("Table opened")
	return w, nil
}

func newController(t game.Table, tc *game.TournamentConfig, opts []game.Option) (*game.Controller, error) {
	switch {
	case tc != nil || t.Format == game.Freezeout:
		if tc == nil {
			return nil, fmt.Errorf("table: freezeout %s needs a tournament config", t.ID)
		}
		return game.NewFreezeoutController(t, *tc, opts...)
	case t.Type == game.BountyNLHE:
		return game.NewBountyController(t, opts...)
	default:
		return game.NewRingController(t, opts...)
	}
}

// Worker returns the worker of an open table.
func (m *Manager) Worker(tableID string) (*Worker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[tableID]
	return w, ok
}

// Tables returns the ids of all open tables in order.
func (m *Manager) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.workers))
}

// Submit validates a JSON action and queues it for tableID.
func (m *Manager) Submit(tableID string, data []byte) error {
	w, ok := m.Worker(tableID)
	if !ok {
		return fmt.Errorf("table: unknown table %s", tableID)
	}
	return w.Queue().PushJSON(data)
}

// Run runs every open table until all workers return. The first worker
// error cancels the rest.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.RLock()
	workers := slices.Collect(maps.Values(m.workers))
	m.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			defer m.close(w)
			if err := w.Run(ctx); err != nil {
				return fmt.Errorf("table %s: %w", w.TableID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) close(w *Worker) {
	id := w.TableID()
	if m.cfg.History != nil {
		m.cfg.History.RemoveRecorder(id)
	}
	if m.cfg.Bots != nil {
		m.cfg.Bots.Forget(id)
	}
	m.mu.Lock()
	delete(m.workers, id)
	m.mu.Unlock()
	m.logger.Info().Str("table_id", id).Interface("stats", w.Stats()).Msg("Table closed")
}
