package handhistory

import (
	"slices"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/poker"
)

// Redact hides what viewer is not allowed to see: other players' hole
// cards and every copy of the deck. Revealed and winning hands stay.
func Redact(h HandRecord, viewer string) HandRecord {
	if h.Table != nil {
		t := *h.Table
		t.Deck = ""
		h.Table = &t
	}
	if h.Players != nil {
		players := slices.Clone(h.Players)
		for i := range players {
			if players[i].ID != viewer {
				players[i].Cards = hidden(players[i].Cards)
			}
		}
		h.Players = players
	}
	h.Preamble = redactEvents(h.Preamble, viewer)
	h.Events = redactEvents(h.Events, viewer)
	return h
}

func redactEvents(events []game.Event, viewer string) []game.Event {
	if events == nil {
		return nil
	}
	out := slices.Clone(events)
	for i, e := range out {
		switch args := e.Args.(type) {
		case game.NewHandArgs:
			args.Deck = ""
			out[i].Args = args
		case game.BountyWinArgs:
			args.Deck = ""
			out[i].Args = args
		case game.CardsArgs:
			if e.Type == game.EventDeal && e.Subject.ID != viewer {
				args.Cards = hidden(args.Cards)
				out[i].Args = args
			}
		}
	}
	return out
}

func hidden(cards []poker.Card) []poker.Card {
	if cards == nil {
		return nil
	}
	return make([]poker.Card, len(cards))
}
