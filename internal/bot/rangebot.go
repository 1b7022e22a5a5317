package bot

import (
	"fmt"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/poker"
)

const (
	DefaultOpenRange   = "22+,A2s+,K9s+,QTs+,J9s+,T9s,98s,87s,ATo+,KJo+,QJo"
	DefaultDefendRange = "88+,ATs+,KJs+,AQo+"

	// pushStack is the stack, in big blinds, below which strong hands move
	// all in preflop.
	pushStack = 15
)

// RangeBot plays a fixed preflop range, tighter when facing a raise, and
// continues postflop according to made hand strength.
type RangeBot struct {
	open   *poker.HandRange
	defend *poker.HandRange
}

// NewRangeBot parses the opening and defending ranges. Empty strings use
// the defaults.
func NewRangeBot(open, defend string) (*RangeBot, error) {
	if open == "" {
		open = DefaultOpenRange
	}
	if defend == "" {
		defend = DefaultDefendRange
	}
	o, err := poker.ParseHandRange(open)
	if err != nil {
		return nil, fmt.Errorf("bot: open range: %w", err)
	}
	d, err := poker.ParseHandRange(defend)
	if err != nil {
		return nil, fmt.Errorf("bot: defend range: %w", err)
	}
	return &RangeBot{open: o, defend: d}, nil
}

func (r *RangeBot) ChooseAction(ctx *Context, view game.GameView) game.Action {
	if view.Street == game.Preflop {
		return r.preflop(ctx, view)
	}
	return r.postflop(view)
}

func (r *RangeBot) preflop(ctx *Context, view game.GameView) game.Action {
	raised := view.CurrentBet > view.BigBlind || ctx.RaisesOn(game.Preflop) > 0
	rng := r.open
	if raised {
		rng = r.defend
	}
	if !rng.ContainsAny(view.HoleCards) {
		return checkOr(view, game.ActionFold)
	}

	if len(view.HoleCards) == 2 && r.stackBB(view) <= pushStack {
		switch poker.Categorize(view.HoleCards) {
		case poker.CategoryPremium, poker.CategoryStrong:
			if a, ok := aggress(view, view.MaxRaiseTo); ok {
				return a
			}
		}
	}
	if !raised {
		if a, ok := aggress(view, 3*view.BigBlind); ok {
			return a
		}
	}
	if can(view, game.ActionCall) {
		return game.Action{Type: game.ActionCall}
	}
	return checkOr(view, game.ActionFold)
}

func (r *RangeBot) postflop(view game.GameView) game.Action {
	best, err := poker.BestHand(view.HoleCards, view.Board, view.Type.HoleRule())
	if err != nil {
		return checkOr(view, game.ActionFold)
	}
	switch ht := best.Key.Type(); {
	case ht >= poker.TwoPair:
		if a, ok := aggress(view, view.Pot/2); ok {
			return a
		}
		if can(view, game.ActionCall) {
			return game.Action{Type: game.ActionCall}
		}
	case ht == poker.Pair:
		if can(view, game.ActionCall) && 2*view.CallAmount <= view.Pot {
			return game.Action{Type: game.ActionCall}
		}
	}
	return checkOr(view, game.ActionFold)
}

func (r *RangeBot) stackBB(view game.GameView) int64 {
	for _, s := range view.Seats {
		if s.PlayerID == view.Viewer {
			return (s.Stack + s.Bet) / max(view.BigBlind, 1)
		}
	}
	return 0
}
