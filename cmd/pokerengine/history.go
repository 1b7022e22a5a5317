package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/handhistory"
)

// HistorySource selects hands either from a history directory written by
// simulate or from an exported JSON hand history file.
type HistorySource struct {
	HistoryDir string `name:"history-dir" help:"Hand history directory"`
	File       string `type:"existingfile" help:"Hand history JSON file"`
	Table      string `arg:"" optional:"" help:"Table id inside the history directory"`
}

func (s HistorySource) hands(ctx context.Context, logger zerolog.Logger) ([]handhistory.HandRecord, error) {
	if s.File != "" {
		f, err := handhistory.ReadFile(s.File)
		if err != nil {
			return nil, err
		}
		return f.Hands, nil
	}
	if s.HistoryDir == "" || s.Table == "" {
		return nil, errors.New("either --file or --history-dir with a table id is required")
	}

	store, err := handhistory.NewFileStore(s.HistoryDir, logger)
	if err != nil {
		return nil, err
	}
	rows, err := store.Load(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		tables, _ := store.Tables()
		return nil, fmt.Errorf("no hand history for table %q (known tables: %v)", s.Table, tables)
	}
	return handhistory.BuildHands(rows)
}
