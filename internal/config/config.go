// Package config loads engine, table, bot and hand history settings from
// HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerengine/internal/bot"
	"github.com/lox/pokerengine/internal/game"
)

// Config is the complete engine configuration.
type Config struct {
	Engine  *EngineSettings `hcl:"engine,block"`
	Tables  []TableConfig   `hcl:"table,block"`
	Bots    []BotConfig     `hcl:"bot,block"`
	History *HistoryConfig  `hcl:"history,block"`
}

// EngineSettings are process wide settings.
type EngineSettings struct {
	LogLevel    string `hcl:"log_level,optional"`
	TimeBank    string `hcl:"time_bank,optional"`
	HandDelay   string `hcl:"hand_delay,optional"`
	IncidentDir string `hcl:"incident_dir,optional"`
	Seed        int64  `hcl:"seed,optional"`
}

// TableConfig defines one table.
type TableConfig struct {
	Name       string `hcl:"name,label"`
	Type       string `hcl:"type,optional"`
	Format     string `hcl:"format,optional"`
	Seats      int    `hcl:"seats,optional"`
	SmallBlind int64  `hcl:"small_blind,optional"`
	BigBlind   int64  `hcl:"big_blind,optional"`
	Ante       int64  `hcl:"ante,optional"`
	BuyInMin   int64  `hcl:"buy_in_min,optional"`
	BuyInMax   int64  `hcl:"buy_in_max,optional"`
	Precision  int32  `hcl:"precision,optional"`
	BountySize int64  `hcl:"bounty_size,optional"`
	HandLimit  int64  `hcl:"hand_limit,optional"`

	// Freezeout settings.
	BuyIn         int64             `hcl:"buy_in,optional"`
	StartingStack int64             `hcl:"starting_stack,optional"`
	Payouts       []int64           `hcl:"payouts,optional"`
	Levels        []game.BlindLevel `hcl:"blind_level,block"`
}

// BotConfig seats built-in bots at tables.
type BotConfig struct {
	Name        string   `hcl:"name,label"`
	Kind        string   `hcl:"kind"`
	Count       int      `hcl:"count,optional"`
	Tables      []string `hcl:"tables,optional"`
	BuyIn       int64    `hcl:"buy_in,optional"`
	OpenRange   string   `hcl:"open_range,optional"`
	DefendRange string   `hcl:"defend_range,optional"`
}

// HistoryConfig controls hand history persistence. An empty Dir keeps
// histories in memory.
type HistoryConfig struct {
	Dir           string `hcl:"dir,optional"`
	FlushInterval string `hcl:"flush_interval,optional"`
	MaxFailures   int    `hcl:"max_failures,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{
		Tables: []TableConfig{{Name: "main", SmallBlind: 1, BigBlind: 2}},
		Bots: []BotConfig{
			{Name: "caller", Kind: "call"},
			{Name: "ranger", Kind: "range", Count: 2},
			{Name: "random", Kind: "random"},
		},
	}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields Default().
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and applies defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %s", filename, diags.Error())
	}

	var c Config
	if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %s", filename, diags.Error())
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Engine == nil {
		c.Engine = &EngineSettings{}
	}
	if c.Engine.LogLevel == "" {
		c.Engine.LogLevel = "info"
	}
	if c.Engine.TimeBank == "" {
		c.Engine.TimeBank = "30s"
	}
	if c.History == nil {
		c.History = &HistoryConfig{}
	}
	if c.History.FlushInterval == "" {
		c.History.FlushInterval = "10s"
	}
	if c.History.MaxFailures == 0 {
		c.History.MaxFailures = 3
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Type == "" {
			t.Type = "NLHE"
		}
		if t.Format == "" {
			t.Format = "ring"
		}
		if t.Seats == 0 {
			t.Seats = 6
		}
		if len(t.Levels) > 0 && t.SmallBlind == 0 && t.BigBlind == 0 {
			t.SmallBlind, t.BigBlind, t.Ante = t.Levels[0].SmallBlind, t.Levels[0].BigBlind, t.Levels[0].Ante
		}
		if t.BuyInMin == 0 {
			t.BuyInMin = t.BigBlind * 20
		}
		if t.BuyInMax == 0 {
			t.BuyInMax = t.BigBlind * 200
		}
		if t.Format == "freezeout" && t.StartingStack == 0 {
			t.StartingStack = t.BigBlind * 100
		}
	}

	for i := range c.Bots {
		b := &c.Bots[i]
		if b.Count == 0 {
			b.Count = 1
		}
		if len(b.Tables) == 0 {
			for _, t := range c.Tables {
				b.Tables = append(b.Tables, t.Name)
			}
		}
	}
}

// Validate checks the configuration for mistakes decoding cannot catch.
func (c *Config) Validate() error {
	if len(c.Tables) == 0 {
		return errors.New("config: at least one table must be configured")
	}
	for _, d := range []struct{ name, value string }{
		{"engine.time_bank", c.Engine.TimeBank},
		{"engine.hand_delay", c.Engine.HandDelay},
		{"history.flush_interval", c.History.FlushInterval},
	} {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			return fmt.Errorf("config: %s: invalid duration %q", d.name, d.value)
		}
	}

	names := make(map[string]bool)
	for _, t := range c.Tables {
		if names[t.Name] {
			return fmt.Errorf("config: table %s is defined twice", t.Name)
		}
		names[t.Name] = true
		if err := t.validate(); err != nil {
			return err
		}
	}

	for _, b := range c.Bots {
		if !slices.Contains(bot.Kinds, strings.ToLower(b.Kind)) {
			return fmt.Errorf("config: bot %s: unknown kind %q, want one of %s", b.Name, b.Kind, strings.Join(bot.Kinds, ", "))
		}
		if b.Count < 0 {
			return fmt.Errorf("config: bot %s: count must not be negative", b.Name)
		}
		if b.BuyIn < 0 {
			return fmt.Errorf("config: bot %s: buy-in must not be negative", b.Name)
		}
		for _, name := range b.Tables {
			if !names[name] {
				return fmt.Errorf("config: bot %s: unknown table %s", b.Name, name)
			}
		}
		if _, err := bot.New(b.Kind, bot.Options{OpenRange: b.OpenRange, DefendRange: b.DefendRange}); err != nil {
			return fmt.Errorf("config: bot %s: %w", b.Name, err)
		}
	}
	return nil
}

func (t TableConfig) validate() error {
	if _, err := game.ParseTableType(t.Type); err != nil {
		return fmt.Errorf("config: table %s: %w", t.Name, err)
	}
	switch {
	case t.Seats < 2 || t.Seats > 10:
		return fmt.Errorf("config: table %s: seats must be between 2 and 10", t.Name)
	case t.SmallBlind <= 0:
		return fmt.Errorf("config: table %s: small blind must be positive", t.Name)
	case t.BigBlind < t.SmallBlind:
		return fmt.Errorf("config: table %s: big blind must be at least the small blind", t.Name)
	case t.Ante < 0:
		return fmt.Errorf("config: table %s: ante must not be negative", t.Name)
	case t.BuyInMin > t.BuyInMax:
		return fmt.Errorf("config: table %s: buy-in minimum exceeds maximum", t.Name)
	case t.Precision < 0:
		return fmt.Errorf("config: table %s: precision must not be negative", t.Name)
	}

	switch t.Format {
	case "ring":
		if len(t.Levels) > 0 || len(t.Payouts) > 0 {
			return fmt.Errorf("config: table %s: blind levels and payouts need format = \"freezeout\"", t.Name)
		}
	case "freezeout":
		if t.Type == "BNTY" {
			return fmt.Errorf("config: table %s: bounty tables are ring games", t.Name)
		}
		var total int64
		for _, p := range t.Payouts {
			total += p
		}
		if len(t.Payouts) > 0 && total != 100 {
			return fmt.Errorf("config: table %s: payouts sum to %d%%, want 100%%", t.Name, total)
		}
		var from int64
		for i, l := range t.Levels {
			if l.FromHand <= from {
				return fmt.Errorf("config: table %s: blind level %d must start after hand %d", t.Name, i+1, from)
			}
			if l.SmallBlind <= 0 || l.BigBlind < l.SmallBlind {
				return fmt.Errorf("config: table %s: blind level %d has invalid blinds", t.Name, i+1)
			}
			from = l.FromHand
		}
		if len(t.Levels) > 0 && t.Levels[0].FromHand != 1 {
			return fmt.Errorf("config: table %s: first blind level must start at hand 1", t.Name)
		}
	default:
		return fmt.Errorf("config: table %s: unknown format %q", t.Name, t.Format)
	}
	return nil
}

// Table returns the named table.
func (c *Config) Table(name string) (TableConfig, bool) {
	i := slices.IndexFunc(c.Tables, func(t TableConfig) bool { return t.Name == name })
	if i < 0 {
		return TableConfig{}, false
	}
	return c.Tables[i], true
}

// BotsForTable returns the bots configured to sit at tableName.
func (c *Config) BotsForTable(tableName string) []BotConfig {
	var bots []BotConfig
	for _, b := range c.Bots {
		if slices.Contains(b.Tables, tableName) {
			bots = append(bots, b)
		}
	}
	return bots
}

// GameTable converts the settings into the table the controller opens.
func (t TableConfig) GameTable(id string) (game.Table, error) {
	typ, err := game.ParseTableType(t.Type)
	if err != nil {
		return game.Table{}, err
	}
	var format game.Format
	if err := format.UnmarshalText([]byte(t.Format)); err != nil {
		return game.Table{}, err
	}
	return game.Table{
		ID:         id,
		Name:       t.Name,
		Type:       typ,
		Format:     format,
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		Ante:       t.Ante,
		MinBuyin:   t.BuyInMin,
		MaxBuyin:   t.BuyInMax,
		NumSeats:   t.Seats,
		Precision:  t.Precision,
		BountySize: t.BountySize,
	}, nil
}

// Tournament returns the freezeout rules, or nil for ring tables.
func (t TableConfig) Tournament() *game.TournamentConfig {
	if t.Format != "freezeout" {
		return nil
	}
	return &game.TournamentConfig{
		BuyIn:         t.BuyIn,
		StartingStack: t.StartingStack,
		Levels:        slices.Clone(t.Levels),
		Payouts:       slices.Clone(t.Payouts),
	}
}

// BuyInFor returns the chips a bot brings to t: its configured buy-in or
// 100 big blinds, clamped to the table limits.
func (b BotConfig) BuyInFor(t TableConfig) int64 {
	amount := b.BuyIn
	if amount == 0 {
		amount = t.BigBlind * 100
	}
	return min(max(amount, t.BuyInMin), t.BuyInMax)
}

// PlayerIDs returns the player ids of the bots b seats.
func (b BotConfig) PlayerIDs() []string {
	if b.Count <= 1 {
		return []string{b.Name}
	}
	ids := make([]string, b.Count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", b.Name, i+1)
	}
	return ids
}

// Duration parses one of the duration settings. Empty values are zero.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
