package bot

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/lox/pokerengine/internal/game"
)

// Host seats bots at tables and decides for them. One host may serve many
// tables; contexts are keyed by table and hand.
type Host struct {
	mu       sync.RWMutex
	bots     map[string]Bot
	contexts *ContextCache
	logger   zerolog.Logger
}

// NewHost returns a host with an empty roster.
func NewHost(logger zerolog.Logger, contextSize int) (*Host, error) {
	contexts, err := NewContextCache(contextSize)
	if err != nil {
		return nil, err
	}
	return &Host{
		bots:     make(map[string]Bot),
		contexts: contexts,
		logger:   logger.With().Str("component", "bots").Logger(),
	}, nil
}

// Add registers b to play for playerID.
func (h *Host) Add(playerID string, b Bot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bots[playerID] = b
}

// Remove stops deciding for playerID.
func (h *Host) Remove(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.bots, playerID)
}

// Controls reports whether a bot plays for playerID.
func (h *Host) Controls(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.bots[playerID]
	return ok
}

// Decide returns the action of the bot playing for p. It returns false when
// no bot plays for p or p is not to act.
func (h *Host) Decide(acc game.Accessor, p *game.Player) (game.Action, bool) {
	if p == nil {
		return game.Action{}, false
	}
	h.mu.RLock()
	b, ok := h.bots[p.ID]
	h.mu.RUnlock()
	if !ok {
		return game.Action{}, false
	}

	view := acc.ViewFor(p.ID)
	if !view.ToAct {
		return game.Action{}, false
	}
	a := b.ChooseAction(h.contexts.Get(view.TableID, view.HandNumber), view)
	a.PlayerID = p.ID
	a.Source = game.SourceBot
	a.HandNumber = view.HandNumber
	a.Street = view.Street

	h.logger.Debug().
		Str("table_id", view.TableID).
		Int64("hand_number", view.HandNumber).
		Str("player_id", p.ID).
		Stringer("action", a.Type).
		Int64("amount", a.Amount).
		Msg("Bot decided")
	return a, true
}

// Observer returns a subscriber that feeds the events of tableID into the
// bots' hand contexts.
func (h *Host) Observer(tableID string) game.Subscriber {
	return &observer{host: h, tableID: tableID}
}

// Forget drops everything remembered about tableID.
func (h *Host) Forget(tableID string) {
	h.contexts.Forget(tableID)
}

type observer struct {
	host    *Host
	tableID string
	hand    int64
	street  game.Street
}

func (o *observer) Dispatch(e game.Event) {
	switch args := e.Args.(type) {
	case game.NewHandArgs:
		o.hand = args.HandNumber
		o.street = game.Preflop
		return
	case game.NewStreetArgs:
		o.street = args.Street
		return
	}
	if o.hand == 0 {
		return
	}
	if e.Type == game.EventBet || e.Type == game.EventRaiseTo {
		o.host.contexts.Get(o.tableID, o.hand).Observe(o.street, e)
	}
}

func (o *observer) Commit() error { return nil }
