package stats

import (
	"cmp"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/lox/pokerengine/internal/game"
)

// Collector is a game.Subscriber that accounts every hand played at one
// table. Hands finished during a step become visible after its Commit.
type Collector struct {
	logger zerolog.Logger

	// owned by the dispatching goroutine
	bigBlind int64
	cur      *handAcc
	done     []handAcc

	mu       sync.Mutex
	hands    int
	pots     []float64
	showdown int
	timeouts int
	players  map[string]*Statistics
}

var _ game.Subscriber = (*Collector)(nil)

type handAcc struct {
	number      int64
	street      game.Street
	dealt       []string
	net         map[string]int64
	uncollected map[string]int64
	vpip        map[string]bool
	paid        int64
	showdown    bool
	timeouts    int
}

// NewCollector returns a collector for a table whose big blind is bigBlind.
// Blind changes are picked up from SET_BLINDS events.
func NewCollector(logger zerolog.Logger, bigBlind int64) *Collector {
	return &Collector{
		logger:   logger.With().Str("component", "stats").Logger(),
		bigBlind: max(bigBlind, 1),
		players:  make(map[string]*Statistics),
	}
}

// Dispatch implements game.Subscriber.
func (c *Collector) Dispatch(e game.Event) {
	if args, ok := e.Args.(game.SetBlindsArgs); ok && args.BigBlind > 0 {
		c.bigBlind = args.BigBlind
	}
	if e.Type == game.EventNewHand {
		args, _ := e.Args.(game.NewHandArgs)
		c.cur = &handAcc{
			number:      args.HandNumber,
			street:      game.Preflop,
			net:         make(map[string]int64),
			uncollected: make(map[string]int64),
			vpip:        make(map[string]bool),
		}
		return
	}
	h := c.cur
	if h == nil {
		return
	}
	id := e.Subject.ID

	switch args := e.Args.(type) {
	case game.CardsArgs:
		if e.Type == game.EventDeal {
			h.dealt = append(h.dealt, id)
		}
	case game.NewStreetArgs:
		h.street = args.Street
		clear(h.uncollected)
	case game.CollectPotsArgs:
		clear(h.uncollected)
	case game.PostArgs:
		h.net[id] -= args.Amount
		h.uncollected[id] += args.Amount
	case game.AmountArgs:
		switch e.Type {
		case game.EventPostDead, game.EventAnte:
			h.net[id] -= args.Amount
		case game.EventReturnChips:
			h.net[id] += args.Amount
			h.uncollected[id] -= args.Amount
		}
	case game.BetArgs:
		h.net[id] -= args.Amount - h.uncollected[id]
		h.uncollected[id] = args.Amount
		h.voluntary(id)
	case game.CallArgs:
		h.net[id] -= args.Amount
		h.uncollected[id] += args.Amount
		h.voluntary(id)
	case game.WinArgs:
		h.net[id] += args.Amount
		h.paid += args.Amount
		h.showdown = h.showdown || args.Showdown
	case game.BountyWinArgs:
		for _, pay := range args.Payments {
			h.net[pay.PlayerID] -= pay.Amount
			h.net[id] += pay.Amount
		}
	case game.BountyFlipArgs:
		switch args.WinnerID {
		case id:
			h.net[id] += args.Stake
			h.net[args.Opponent] -= args.Stake
		case args.Opponent:
			h.net[id] -= args.Stake
			h.net[args.Opponent] += args.Stake
		}
	case game.TimeoutArgs:
		h.timeouts++
	case game.EndHandArgs:
		c.done = append(c.done, *h)
		c.cur = nil
	}
}

func (h *handAcc) voluntary(id string) {
	if h.street == game.Preflop {
		h.vpip[id] = true
	}
}

// Commit implements game.Subscriber.
func (c *Collector) Commit() error {
	if len(c.done) == 0 {
		return nil
	}
	bb := float64(c.bigBlind)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.done {
		var sum int64
		for _, v := range h.net {
			sum += v
		}
		if sum != 0 {
			c.logger.Warn().Int64("hand_number", h.number).Int64("imbalance", sum).Msg("Hand results do not sum to zero")
		}

		c.hands++
		c.pots = append(c.pots, float64(h.paid))
		if h.showdown {
			c.showdown++
		}
		c.timeouts += h.timeouts
		for _, id := range h.dealt {
			s := c.players[id]
			if s == nil {
				s = &Statistics{}
				c.players[id] = s
			}
			s.Add(HandResult{
				NetBB:    float64(h.net[id]) / bb,
				Showdown: h.showdown,
				PotBB:    float64(h.paid) / bb,
				VPIP:     h.vpip[id],
			})
		}
	}
	c.done = c.done[:0]
	return nil
}

// Summary describes a table's play so far.
type Summary struct {
	Hands        int             `json:"hands"`
	AvgPot       float64         `json:"avg_pot"`
	MedianPot    float64         `json:"median_pot"`
	ShowdownRate float64         `json:"showdown_rate"`
	Timeouts     int             `json:"timeouts"`
	Players      []PlayerSummary `json:"players"`
}

// PlayerSummary is one player's line in a Summary.
type PlayerSummary struct {
	PlayerID string  `json:"player_id"`
	Hands    int     `json:"hands"`
	NetBB    float64 `json:"net_bb"`
	BBPer100 float64 `json:"bb_per_100"`
	StdDevBB float64 `json:"std_dev_bb"`
	CI95Low  float64 `json:"ci95_low"`
	CI95High float64 `json:"ci95_high"`
	VPIP     float64 `json:"vpip"`
}

// Summary returns the committed statistics. It is safe to call from any
// goroutine.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Hands: c.hands, Timeouts: c.timeouts}
	if c.hands > 0 {
		s.AvgPot = stat.Mean(c.pots, nil)
		sorted := slices.Clone(c.pots)
		slices.Sort(sorted)
		s.MedianPot = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		s.ShowdownRate = float64(c.showdown) / float64(c.hands)
	}
	for id, st := range c.players {
		lo, hi := st.ConfidenceInterval95()
		s.Players = append(s.Players, PlayerSummary{
			PlayerID: id,
			Hands:    st.Hands,
			NetBB:    st.AllBB,
			BBPer100: st.BBPer100(),
			StdDevBB: st.StdDev(),
			CI95Low:  lo,
			CI95High: hi,
			VPIP:     st.VPIP(),
		})
	}
	slices.SortFunc(s.Players, func(a, b PlayerSummary) int {
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return s
}

// Player returns a copy of one player's statistics.
func (c *Collector) Player(id string) (Statistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.players[id]
	if !ok {
		return Statistics{}, false
	}
	out := *s
	out.Values = slices.Clone(s.Values)
	return out, true
}
