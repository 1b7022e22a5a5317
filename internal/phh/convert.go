package phh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/internal/handhistory"
)

var variants = map[game.TableType]string{
	game.NLHE:       VariantNoLimitHoldem,
	game.BountyNLHE: VariantNoLimitHoldem,
	game.PLO:        VariantPotLimitOmaha,
}

// FromHand converts a complete logged hand. Players are numbered from the
// small blind clockwise, so the button is the last player.
func FromHand(h *handhistory.HandRecord) (*HandHistory, error) {
	snap, ok := h.Snapshot()
	if !ok {
		return nil, fmt.Errorf("phh: hand %d has no snapshot", h.Number)
	}
	if !h.Complete() {
		return nil, fmt.Errorf("phh: hand %d is not complete", h.Number)
	}
	variant, ok := variants[snap.Table.Type]
	if !ok {
		return nil, fmt.Errorf("phh: no PHH variant for %s", snap.Table.Type)
	}

	var pos *game.BlindPosArgs
	var dealt []int
	for _, e := range h.Events {
		switch args := e.Args.(type) {
		case game.BlindPosArgs:
			pos = &args
		case game.CardsArgs:
			if e.Type == game.EventDeal {
				dealt = append(dealt, e.Subject.Seat)
			}
		}
	}
	if pos == nil {
		return nil, errors.New("phh: hand has no blind positions")
	}
	seats := orderFrom(dealt, pos.SB, snap.Table.NumSeats)
	index := make(map[string]int, len(seats))

	n := len(seats)
	out := &HandHistory{
		Variant:           variant,
		Table:             snap.Table.Name,
		SeatCount:         snap.Table.NumSeats,
		Seats:             make([]int, n),
		Antes:             make([]int64, n),
		BlindsOrStraddles: make([]int64, n),
		MinBet:            snap.Table.BigBlind,
		StartingStacks:    make([]int64, n),
		FinishingStacks:   make([]int64, n),
		Winnings:          make([]int64, n),
		Players:           make([]string, n),
		HandID:            fmt.Sprintf("%s-%d", snap.Table.ID, h.Number),
		Timestamp:         h.TS,
	}
	if out.Table == "" {
		out.Table = snap.Table.ID
	}
	for i, seat := range seats {
		p := playerAt(snap.Players, seat)
		if p == nil {
			return nil, fmt.Errorf("phh: hand %d deals to empty seat %d", h.Number, seat)
		}
		index[p.ID] = i
		out.Seats[i] = seat + 1
		out.StartingStacks[i] = p.Stack
		out.Players[i] = p.Username
	}

	for _, e := range h.Events {
		i, isPlayer := index[e.Subject.ID]
		if e.Subject.Kind != game.SubjectPlayer {
			isPlayer = false
		}
		switch args := e.Args.(type) {
		case game.PostArgs:
			if isPlayer && args.Blind != game.BlindOwedBig {
				out.BlindsOrStraddles[i] += args.Amount
			}
		case game.AmountArgs:
			if isPlayer && e.Type == game.EventAnte {
				out.Antes[i] += args.Amount
			}
		case game.WinArgs:
			if isPlayer {
				out.Winnings[i] += args.Amount
			}
		}
		if e.Subject.Kind == game.SubjectPlayer && !isPlayer {
			continue
		}
		if action, ok := FormatAction(i, e); ok {
			out.Actions = append(out.Actions, action)
		}
	}

	end, err := game.Apply(snap, h.Events...)
	if err != nil {
		return nil, fmt.Errorf("phh: hand %d: %w", h.Number, err)
	}
	for i, seat := range seats {
		if p := playerAt(end.Players, seat); p != nil {
			out.FinishingStacks[i] = p.Stack
		}
	}

	if !h.TS.IsZero() {
		ts := h.TS.UTC()
		out.Time = ts.Format("15:04:05")
		out.TimeZone = "UTC"
		out.Day, out.Month, out.Year = ts.Day(), int(ts.Month()), ts.Year()
	}
	if snap.Table.Format == game.Freezeout {
		out.Event = "freezeout " + snap.Table.ID
	}
	out.Metadata = &Metadata{HandNumber: h.Number, TableType: snap.Table.Type.String()}
	if snap.Table.Type == game.BountyNLHE {
		out.Metadata.Bounty = snap.Table.BountySize
	}
	return out, nil
}

// FromHands converts every complete hand, skipping the rest.
func FromHands(hands []handhistory.HandRecord) ([]*HandHistory, error) {
	var out []*HandHistory
	for i := range hands {
		if _, ok := hands[i].Snapshot(); !ok || !hands[i].Complete() {
			continue
		}
		hh, err := FromHand(&hands[i])
		if err != nil {
			return nil, err
		}
		out = append(out, hh)
	}
	return out, nil
}

// orderFrom sorts seats clockwise starting at first.
func orderFrom(seats []int, first, numSeats int) []int {
	out := slices.Clone(seats)
	dist := func(s int) int { return (s - first + numSeats) % numSeats }
	slices.SortFunc(out, func(a, b int) int { return dist(a) - dist(b) })
	return out
}

func playerAt(players []game.Player, seat int) *game.Player {
	for i := range players {
		if players[i].Seat == seat {
			return &players[i]
		}
	}
	return nil
}
