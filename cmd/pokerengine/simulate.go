package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerengine/internal/bot"
	"github.com/lox/pokerengine/internal/config"
	"github.com/lox/pokerengine/internal/fileutil"
	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/handhistory"
	"github.com/lox/pokerengine/internal/ledger"
	"github.com/lox/pokerengine/internal/randutil"
	"github.com/lox/pokerengine/internal/stats"
	"github.com/lox/pokerengine/internal/table"
	"github.com/lox/pokerengine/poker"
)

type SimulateCmd struct {
	Config     string        `short:"c" default:"pokerengine.hcl" help:"Path to HCL configuration file"`
	Hands      int64         `help:"Stop each ring table after N hands (overrides hand_limit, 0 keeps the config)"`
	Seed       int64         `help:"Seed for deterministic decks and bots (overrides engine.seed, 0 for random)"`
	HistoryDir string        `name:"history-dir" help:"Directory for hand history files (overrides history.dir)"`
	Progress   time.Duration `default:"5s" help:"Interval between progress reports (0 disables)"`
	WriteStats string        `name:"write-stats" help:"Write per-table statistics as JSON to this file on exit"`
}

type tableResult struct {
	TableID string        `json:"table_id"`
	Worker  table.Stats   `json:"worker"`
	Summary stats.Summary `json:"summary"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.HistoryDir != "" {
		cfg.History.Dir = c.HistoryDir
	}
	seed := cfg.Engine.Seed
	if c.Seed != 0 {
		seed = c.Seed
	}

	logger := setupLogger(g, cfg.Engine.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	clock := quartz.NewReal()
	var store handhistory.Store = handhistory.NewMemoryStore()
	if cfg.History.Dir != "" {
		fs, err := handhistory.NewFileStore(cfg.History.Dir, logger)
		if err != nil {
			return err
		}
		store = fs
	}
	history := handhistory.NewManager(logger, handhistory.ManagerConfig{
		Store:         store,
		FlushInterval: config.Duration(cfg.History.FlushInterval),
		MaxFailures:   cfg.History.MaxFailures,
		Clock:         clock,
	})
	defer history.Shutdown()

	host, err := bot.NewHost(logger, 0)
	if err != nil {
		return err
	}
	validator, err := table.NewValidator()
	if err != nil {
		return err
	}
	bank := ledger.NewMemory(clock)

	var (
		mu         sync.Mutex
		collectors = make(map[string]*stats.Collector)
	)
	manager := table.NewManager(logger, table.Config{
		Clock:     clock,
		History:   history,
		Bots:      host,
		Ledger:    bank,
		Incidents: table.NewIncidentLog(logger, cfg.Engine.IncidentDir, func() time.Time { return clock.Now() }),
		Validator: validator,
		Subscribers: func(tableID string) []game.Subscriber {
			tc, _ := cfg.Table(tableID)
			col := stats.NewCollector(logger, tc.BigBlind)
			mu.Lock()
			collectors[tableID] = col
			mu.Unlock()
			return []game.Subscriber{col}
		},
	})

	workers := make(map[string]*table.Worker)
	for i, tc := range cfg.Tables {
		w, err := c.open(ctx, manager, host, bank, cfg, tc, seed, int64(i))
		if err != nil {
			return err
		}
		workers[tc.Name] = w
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	grp, gctx := errgroup.WithContext(runCtx)
	grp.Go(func() error {
		defer stop()
		return manager.Run(gctx)
	})
	if c.Progress > 0 {
		grp.Go(func() error {
			reportProgress(gctx, clock, c.Progress, logger, workers)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	results := make([]tableResult, 0, len(cfg.Tables))
	for _, tc := range cfg.Tables {
		res := tableResult{TableID: tc.Name, Worker: workers[tc.Name].Stats()}
		if col := collectors[tc.Name]; col != nil {
			res.Summary = col.Summary()
		}
		results = append(results, res)
		logSummary(logger, res)
	}
	logger.Info().Stringer("ledger_total", bank.Total()).Msg("Simulation finished")

	if c.WriteStats != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		if err := fileutil.WriteFileAtomic(c.WriteStats, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
		logger.Info().Str("path", c.WriteStats).Msg("Wrote statistics")
	}
	return nil
}

// open creates one table and queues its bots' buy-ins.
func (c *SimulateCmd) open(ctx context.Context, m *table.Manager, host *bot.Host, bank *ledger.Memory, cfg *config.Config, tc config.TableConfig, seed, idx int64) (*table.Worker, error) {
	tbl, err := tc.GameTable(tc.Name)
	if err != nil {
		return nil, err
	}
	limit := tc.HandLimit
	if c.Hands > 0 && tbl.Format == game.Ring {
		limit = c.Hands
	}

	opts := table.TableOptions{
		Table:      tbl,
		Tournament: tc.Tournament(),
		TimeBank:   config.Duration(cfg.Engine.TimeBank),
		HandDelay:  config.Duration(cfg.Engine.HandDelay),
		HandLimit:  limit,
	}
	if seed != 0 {
		opts.Rand = randutil.New(randutil.Derive(seed, idx))
	}
	w, err := m.Open(opts)
	if err != nil {
		return nil, err
	}

	for bi, bc := range cfg.BotsForTable(tc.Name) {
		for pi, id := range bc.PlayerIDs() {
			var rng poker.RandSource
			if seed != 0 {
				rng = randutil.New(randutil.Derive(seed, idx, int64(bi), int64(pi)))
			}
			b, err := bot.New(bc.Kind, bot.Options{Rand: rng, OpenRange: bc.OpenRange, DefendRange: bc.DefendRange})
			if err != nil {
				return nil, err
			}
			host.Add(id, b)

			buyIn := bc.BuyInFor(tc)
			fund := buyIn
			if opts.Tournament != nil {
				fund = opts.Tournament.BuyIn
			}
			if fund > 0 {
				if _, err := bank.Deposit(ctx, id, tbl.Chips(fund)); err != nil {
					return nil, err
				}
			}
			if err := w.Submit(game.Action{
				Type:     game.ActionTakeSeat,
				PlayerID: id,
				Username: id,
				Seat:     -1,
				Amount:   buyIn,
				Source:   game.SourceBot,
			}); err != nil {
				return nil, fmt.Errorf("seat %s at %s: %w", id, tc.Name, err)
			}
		}
	}
	return w, nil
}

func reportProgress(ctx context.Context, clock quartz.Clock, every time.Duration, logger zerolog.Logger, workers map[string]*table.Worker) {
	ticker := clock.NewTicker(every, "simulate", "progress")
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id, w := range workers {
				s := w.Stats()
				logger.Info().
					Str("table_id", id).
					Int64("hands", s.Hands).
					Int64("rejected", s.Rejected).
					Int64("timeouts", s.Timeouts).
					Msg("Progress")
			}
		}
	}
}

func logSummary(logger zerolog.Logger, res tableResult) {
	s := res.Summary
	logger.Info().
		Str("table_id", res.TableID).
		Int("hands", s.Hands).
		Float64("avg_pot", s.AvgPot).
		Float64("showdown_rate", s.ShowdownRate).
		Int64("rejected", res.Worker.Rejected).
		Msg("Table summary")
	for _, p := range s.Players {
		logger.Info().
			Str("table_id", res.TableID).
			Str("player_id", p.PlayerID).
			Int("hands", p.Hands).
			Float64("net_bb", p.NetBB).
			Float64("bb_per_100", p.BBPer100).
			Float64("vpip", p.VPIP).
			Msg("Player summary")
	}
}
