package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/lox/pokerengine/internal/fileutil"
	"github.com/lox/pokerengine/internal/phh"
)

type ExportPHHCmd struct {
	HistorySource

	Out string `short:"o" default:"-" help:"Output .phhs file (- for stdout)"`
}

func (c *ExportPHHCmd) Run(g *Globals) error {
	logger := setupLogger(g, "")
	records, err := c.hands(context.Background(), logger)
	if err != nil {
		return err
	}
	hands, err := phh.FromHands(records)
	if err != nil {
		return err
	}
	if len(hands) == 0 {
		return errors.New("no complete hands to export")
	}

	write := func(w io.Writer) error {
		_, err := phh.EncodeSession(w, 0, hands)
		return err
	}
	if c.Out == "-" {
		return write(os.Stdout)
	}
	if err := fileutil.WriteAtomic(c.Out, 0o644, write); err != nil {
		return err
	}
	logger.Info().Int("hands", len(hands)).Str("path", c.Out).Msg("Exported PHH session")
	return nil
}
