package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lox/pokerengine/internal/replayer"
)

type ReplayCmd struct {
	HistorySource

	Hand int64 `help:"Print the replayed events of one hand instead of verifying the whole log"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	logger := setupLogger(g, "")
	hands, err := c.hands(context.Background(), logger)
	if err != nil {
		return err
	}
	r, err := replayer.New(hands, replayer.WithLogger(logger))
	if err != nil {
		return err
	}

	if c.Hand > 0 {
		if err := r.SkipToHand(c.Hand); err != nil {
			return err
		}
		for !r.Done() {
			events, err := r.StepForward()
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Fprintln(os.Stdout, e)
			}
		}
		return nil
	}

	if err := r.Verify(); err != nil {
		var div *replayer.ReplayDivergenceError
		var mis *replayer.MismatchError
		switch {
		case errors.As(err, &div):
			logger.Error().Int64("hand_number", div.Hand).Int("index", div.Index).Msg("Replay diverged from the log")
		case errors.As(err, &mis):
			logger.Error().Int64("hand_number", mis.Hand).Msg("Replayed state does not match the next snapshot")
		}
		return err
	}
	logger.Info().Int("hands", len(r.Hands())).Msg("Hand history verified")
	return nil
}
