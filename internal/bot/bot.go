// Package bot provides built-in players and the host that seats them at a
// table. Bots see only their own GameView and answer with an action.
package bot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lox/pokerengine/internal/game"
	"github.com/lox/pokerengine/poker"
)

// Bot chooses an action for the player the view belongs to. It is only
// asked when view.ToAct is true. The returned action needs a Type and, for
// bets and raises, an Amount; the host fills in the rest.
type Bot interface {
	ChooseAction(ctx *Context, view game.GameView) game.Action
}

// Kinds lists the names accepted by New.
var Kinds = []string{"call", "fold", "random", "range"}

// Options configures bots built by New.
type Options struct {
	Rand        poker.RandSource
	OpenRange   string
	DefendRange string
}

// New builds a bot by name.
func New(kind string, opts Options) (Bot, error) {
	switch strings.ToLower(kind) {
	case "call":
		return CallBot{}, nil
	case "fold":
		return FoldBot{}, nil
	case "random":
		rng := opts.Rand
		if rng == nil {
			rng = poker.CryptoSource
		}
		return NewRandBot(rng), nil
	case "range":
		return NewRangeBot(opts.OpenRange, opts.DefendRange)
	}
	return nil, fmt.Errorf("bot: unknown kind %q, want one of %s", kind, strings.Join(Kinds, ", "))
}

func can(view game.GameView, at game.ActionType) bool {
	return slices.Contains(view.Legal, at)
}

// checkOr checks when that is free and otherwise takes fallback.
func checkOr(view game.GameView, fallback game.ActionType) game.Action {
	if can(view, game.ActionCheck) {
		return game.Action{Type: game.ActionCheck}
	}
	return game.Action{Type: fallback}
}

// aggress bets or raises to amount, clamped to the legal range. It returns
// false when neither is legal.
func aggress(view game.GameView, amount int64) (game.Action, bool) {
	amount = min(max(amount, view.MinRaiseTo), view.MaxRaiseTo)
	switch {
	case can(view, game.ActionBet):
		return game.Action{Type: game.ActionBet, Amount: amount}, true
	case can(view, game.ActionRaiseTo):
		return game.Action{Type: game.ActionRaiseTo, Amount: amount}, true
	}
	return game.Action{}, false
}

// CallBot checks or calls every street.
type CallBot struct{}

func (CallBot) ChooseAction(_ *Context, view game.GameView) game.Action {
	if can(view, game.ActionCall) {
		return game.Action{Type: game.ActionCall}
	}
	return checkOr(view, game.ActionFold)
}

// FoldBot checks when free and folds otherwise.
type FoldBot struct{}

func (FoldBot) ChooseAction(_ *Context, view game.GameView) game.Action {
	return checkOr(view, game.ActionFold)
}

// RandBot picks a uniformly random legal action. Bets and raises pick a
// uniformly random legal amount.
type RandBot struct {
	rng poker.RandSource
}

// NewRandBot returns a RandBot drawing from rng.
func NewRandBot(rng poker.RandSource) *RandBot {
	return &RandBot{rng: rng}
}

func (r *RandBot) ChooseAction(_ *Context, view game.GameView) game.Action {
	if len(view.Legal) == 0 {
		return game.Action{Type: game.ActionFold}
	}
	a := game.Action{Type: view.Legal[r.rng.IntN(len(view.Legal))]}
	if a.Type == game.ActionBet || a.Type == game.ActionRaiseTo {
		a.Amount = view.MinRaiseTo
		if spread := view.MaxRaiseTo - view.MinRaiseTo; spread > 0 {
			a.Amount += int64(r.rng.IntN(int(spread + 1)))
		}
	}
	return a
}
