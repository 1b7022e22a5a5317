package game

import (
	"slices"

	"github.com/lox/pokerengine/poker"
)

// ViewerAll sees every hole card. Any other viewer sees only their own.
const ViewerAll = "all"

// SeatView is the public part of one seated player.
type SeatView struct {
	PlayerID   string       `json:"player_id"`
	Username   string       `json:"username"`
	Seat       int          `json:"seat"`
	Stack      int64        `json:"stack"`
	Bet        int64        `json:"bet"`
	State      PlayingState `json:"state"`
	DealtIn    bool         `json:"dealt_in"`
	Folded     bool         `json:"folded"`
	AllIn      bool         `json:"all_in"`
	LastAction ActionType   `json:"last_action"`
	Cards      []poker.Card `json:"cards,omitempty"`
}

// GameView is what one viewer is allowed to know about a table, plus the
// decision context when it is their turn.
type GameView struct {
	TableID    string       `json:"table_id"`
	Type       TableType    `json:"table_type"`
	HandNumber int64        `json:"hand_number"`
	Street     Street       `json:"street"`
	Board      []poker.Card `json:"board"`
	Pot        int64        `json:"pot"`
	Sidepots   []Pot        `json:"sidepots"`
	SmallBlind int64        `json:"sb"`
	BigBlind   int64        `json:"bb"`
	Button     int          `json:"btn_idx"`
	CurrentBet int64        `json:"current_bet"`
	Seats      []SeatView   `json:"seats"`

	Viewer     string       `json:"viewer"`
	HoleCards  []poker.Card `json:"hole_cards,omitempty"`
	ToAct      bool         `json:"to_act"`
	Legal      []ActionType `json:"legal,omitempty"`
	CallAmount int64        `json:"call_amount,omitempty"`
	MinRaiseTo int64        `json:"min_raise_to,omitempty"`
	MaxRaiseTo int64        `json:"max_raise_to,omitempty"`
}

// ViewFor builds the view of viewer, which is a player ID or ViewerAll.
func (a Accessor) ViewFor(viewer string) GameView {
	t := a.s.table
	v := GameView{
		TableID:    t.ID,
		Type:       t.Type,
		HandNumber: t.HandNumber,
		Street:     t.Street,
		Board:      slices.Clone(t.Board),
		Pot:        a.CurrentPot(),
		Sidepots:   clonePots(t.Sidepots),
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		Button:     t.Button,
		CurrentBet: t.CurrentBet,
		Viewer:     viewer,
	}
	for _, p := range a.s.players {
		sv := SeatView{
			PlayerID:   p.ID,
			Username:   p.Username,
			Seat:       p.Seat,
			Stack:      p.Stack,
			Bet:        p.UncollectedBets,
			State:      p.State,
			DealtIn:    p.DealtIn,
			Folded:     p.Folded,
			AllIn:      p.AllIn(),
			LastAction: p.LastAction,
		}
		if viewer == ViewerAll || viewer == p.ID {
			sv.Cards = slices.Clone(p.Cards)
		}
		v.Seats = append(v.Seats, sv)
	}

	p := a.s.playerByID(viewer)
	if p == nil {
		return v
	}
	v.HoleCards = slices.Clone(p.Cards)
	if a.NextToAct() == p {
		v.ToAct = true
		v.Legal = a.AvailableActions(p)
		v.CallAmount = a.CallAmt(p)
		v.MinRaiseTo, v.MaxRaiseTo = a.ValidBetRange(p)
	}
	return v
}
