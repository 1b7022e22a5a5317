package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/lox/pokerengine/internal/handhistory"
)

type LogCmd struct {
	HistorySource

	Viewer    string `help:"Show hole cards only for this player id (\"all\" shows everything)"`
	From      int64  `help:"First hand number to include"`
	To        int64  `help:"Last hand number to include"`
	NotesOnly bool   `name:"notes-only" help:"Only include hands with notes"`
	Out       string `short:"o" help:"Write the log to this file instead of stdout"`
}

func (c *LogCmd) Run(g *Globals) error {
	logger := setupLogger(g, "")
	hands, err := c.hands(context.Background(), logger)
	if err != nil {
		return err
	}

	f := handhistory.View(hands, handhistory.Filter{
		Viewer:    c.Viewer,
		NotesOnly: c.NotesOnly,
		FromHand:  c.From,
		ToHand:    c.To,
	}, time.Now())

	if c.Out != "" {
		if err := handhistory.WriteFile(c.Out, f); err != nil {
			return err
		}
		logger.Info().Int("hands", len(f.Hands)).Str("path", c.Out).Msg("Wrote hand history")
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}
