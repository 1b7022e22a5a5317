package game

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/lox/pokerengine/poker"
)

// TableType selects the game played at a table.
type TableType uint8

const (
	NLHE TableType = iota + 1
	PLO
	BountyNLHE
)

var tableTypeNames = map[TableType]string{
	NLHE:       "NLHE",
	PLO:        "PLO",
	BountyNLHE: "BNTY",
}

func (t TableType) String() string {
	if s, ok := tableTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TableType(%d)", uint8(t))
}

// HoleCards is the number of cards dealt to each player.
func (t TableType) HoleCards() int {
	if t == PLO {
		return 4
	}
	return 2
}

// HoleRule is the showdown rule for the variant.
func (t TableType) HoleRule() poker.HoleRule {
	if t == PLO {
		return poker.ExactlyTwoHoleCards
	}
	return poker.AnyHoleCards
}

// PotLimit reports whether bets are capped at the pot size.
func (t TableType) PotLimit() bool {
	return t == PLO
}

func (t TableType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TableType) UnmarshalText(b []byte) error {
	for k, v := range tableTypeNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("game: unknown table type %q", b)
}

// ParseTableType converts a config string such as "NLHE" into a TableType.
func ParseTableType(s string) (TableType, error) {
	var t TableType
	err := t.UnmarshalText([]byte(s))
	return t, err
}

// Format is the table's lifecycle: cash ring game or freezeout tournament.
type Format uint8

const (
	Ring Format = iota
	Freezeout
)

func (f Format) String() string {
	if f == Freezeout {
		return "freezeout"
	}
	return "ring"
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ring", "":
		*f = Ring
	case "freezeout":
		*f = Freezeout
	default:
		return fmt.Errorf("game: unknown format %q", b)
	}
	return nil
}

// Street is the current betting round. Between means no hand is in progress.
type Street uint8

const (
	Between Street = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

var streetNames = [...]string{"between", "preflop", "flop", "turn", "river", "showdown"}

func (s Street) String() string {
	if int(s) < len(streetNames) {
		return streetNames[s]
	}
	return fmt.Sprintf("Street(%d)", uint8(s))
}

func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Street) UnmarshalText(b []byte) error {
	idx := slices.Index(streetNames[:], string(b))
	if idx < 0 {
		return fmt.Errorf("game: unknown street %q", b)
	}
	*s = Street(idx)
	return nil
}

// boardCards is the number of community cards on the table once s is dealt.
func (s Street) boardCards() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown:
		return 5
	}
	return 0
}

// PlayingState describes whether a seated player is dealt into hands.
type PlayingState uint8

const (
	SittingIn PlayingState = iota
	SittingOut
	SitInPending
	SitInAtBlindsPending
	TourneySittingOut
	LeaveSeatPending
)

var playingStateNames = [...]string{
	"SITTING_IN",
	"SITTING_OUT",
	"SIT_IN_PENDING",
	"SIT_IN_AT_BLINDS_PENDING",
	"TOURNEY_SITTING_OUT",
	"LEAVE_SEAT_PENDING",
}

func (s PlayingState) String() string {
	if int(s) < len(playingStateNames) {
		return playingStateNames[s]
	}
	return fmt.Sprintf("PlayingState(%d)", uint8(s))
}

func (s PlayingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PlayingState) UnmarshalText(b []byte) error {
	idx := slices.Index(playingStateNames[:], string(b))
	if idx < 0 {
		return fmt.Errorf("game: unknown playing state %q", b)
	}
	*s = PlayingState(idx)
	return nil
}

// Pot is one main or side pot. Eligible holds seat indexes.
type Pot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"`
}

// Placement records where a player finished in a tournament.
type Placement struct {
	PlayerID string `json:"player_id"`
	Place    int    `json:"place"`
}

// Table is the root aggregate for one physical table. Players reference it
// by ID and are addressed by seat index.
type Table struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       TableType `json:"table_type"`
	Format     Format    `json:"format"`
	SmallBlind int64     `json:"sb"`
	BigBlind   int64     `json:"bb"`
	Ante       int64     `json:"ante"`
	MinBuyin   int64     `json:"min_buyin"`
	MaxBuyin   int64     `json:"max_buyin"`
	NumSeats   int       `json:"num_seats"`
	Precision  int32     `json:"precision"`
	BountySize int64     `json:"bounty_size,omitempty"`

	Button     int   `json:"btn_idx"`
	SBIdx      int   `json:"sb_idx"`
	BBIdx      int   `json:"bb_idx"`
	HandNumber int64 `json:"hand_number"`

	Street Street       `json:"street"`
	Board  []poker.Card `json:"board"`
	Deck   string       `json:"deck_str"`

	CurrentBet    int64 `json:"current_bet"`
	MinRaiseBy    int64 `json:"min_raise_by"`
	LastFullBet   int64 `json:"last_full_bet"`
	LastActor     int   `json:"last_actor"`
	LastAggressor int   `json:"last_aggressor"`

	Sidepots    []Pot `json:"sidepots"`
	PaidOut     int64 `json:"paid_out"`
	ChipsInPlay int64 `json:"chips_in_play"`

	BlindLevel int         `json:"blind_level,omitempty"`
	Placements []Placement `json:"placements,omitempty"`
	Finished   bool        `json:"finished,omitempty"`

	Halted     bool   `json:"halted,omitempty"`
	HaltReason string `json:"halt_reason,omitempty"`

	// Seq is the last event sequence number issued at this table.
	Seq int64 `json:"seq" hash:"ignore"`
}

// Chips converts an integer chip amount into a decimal using the table precision.
func (t *Table) Chips(amount int64) decimal.Decimal {
	return decimal.New(amount, -t.Precision)
}

func (t *Table) clone() *Table {
	out := *t
	out.Board = slices.Clone(t.Board)
	out.Placements = slices.Clone(t.Placements)
	out.Sidepots = clonePots(t.Sidepots)
	return &out
}

func clonePots(pots []Pot) []Pot {
	if pots == nil {
		return nil
	}
	out := make([]Pot, len(pots))
	for i, p := range pots {
		out[i] = Pot{Amount: p.Amount, Eligible: slices.Clone(p.Eligible)}
	}
	return out
}

// Player is one seat occupancy for one user or bot.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	TableID  string `json:"table_id"`
	Seat     int    `json:"position"`
	IsBot    bool   `json:"is_bot,omitempty"`

	Stack           int64 `json:"stack"`
	Wagers          int64 `json:"wagers"`
	UncollectedBets int64 `json:"uncollected_bets"`
	DeadMoney       int64 `json:"dead_money"`

	Cards      []poker.Card `json:"cards"`
	State      PlayingState `json:"playing_state"`
	LastAction ActionType   `json:"last_action"`

	DealtIn    bool  `json:"dealt_in"`
	Folded     bool  `json:"folded"`
	Acted      bool  `json:"acted"`
	ActedAtBet int64 `json:"acted_at_bet"`

	OwesSB    bool  `json:"owes_sb,omitempty"`
	OwesBB    bool  `json:"owes_bb,omitempty"`
	AutoRebuy int64 `json:"auto_rebuy_amt,omitempty"`
	Timeouts  int   `json:"timeouts,omitempty"`
}

// InHand reports whether the player still contests the current hand.
func (p *Player) InHand() bool {
	return p.DealtIn && !p.Folded
}

// AllIn reports whether the player is in the hand with no chips behind.
func (p *Player) AllIn() bool {
	return p.InHand() && p.Stack == 0
}

// CanAct reports whether the player can still put chips in.
func (p *Player) CanAct() bool {
	return p.InHand() && p.Stack > 0
}

func (p *Player) clone() *Player {
	out := *p
	out.Cards = slices.Clone(p.Cards)
	return &out
}

func (p *Player) String() string {
	return fmt.Sprintf("%s@%d", p.Username, p.Seat)
}

// Snapshot is a full copy of Table and Players, taken immediately before a
// hand's NEW_HAND event. It is the replayer's starting point.
type Snapshot struct {
	Table   Table    `json:"table"`
	Players []Player `json:"players"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Table: *s.Table.clone(), Players: make([]Player, len(s.Players))}
	for i := range s.Players {
		out.Players[i] = *s.Players[i].clone()
	}
	return out
}

// MarshalIndent is a convenience for debug output and incident reports.
func (s Snapshot) MarshalIndent() []byte {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return []byte(err.Error())
	}
	return b
}

func snapshotOf(t *Table, players []*Player) Snapshot {
	s := Snapshot{Table: *t.clone(), Players: make([]Player, len(players))}
	for i, p := range players {
		s.Players[i] = *p.clone()
	}
	return s
}

func (s Snapshot) restore() (*Table, []*Player) {
	c := s.Clone()
	players := make([]*Player, len(c.Players))
	for i := range c.Players {
		players[i] = &c.Players[i]
	}
	sortBySeat(players)
	return &c.Table, players
}

func sortBySeat(players []*Player) {
	slices.SortFunc(players, func(a, b *Player) int { return a.Seat - b.Seat })
}
