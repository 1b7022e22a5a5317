package game

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lox/pokerengine/poker"
)

// EventType identifies an event. The integer codes are the storage format:
// they are never renumbered or reused, new types get new codes.
type EventType uint16

const (
	EventNewHand     EventType = 1
	EventSetBlindPos EventType = 2
	EventNewStreet   EventType = 3
	EventEndHand     EventType = 4

	EventPost     EventType = 10
	EventPostDead EventType = 11
	EventAnte     EventType = 12

	EventDeal   EventType = 20
	EventReveal EventType = 22
	EventMuck   EventType = 23

	EventBet     EventType = 30
	EventRaiseTo EventType = 31
	EventCall    EventType = 32
	EventCheck   EventType = 33
	EventFold    EventType = 34

	EventReturnChips EventType = 40
	EventWin         EventType = 41
	EventBuy         EventType = 42
	EventCashOut     EventType = 43
	EventCollectPots EventType = 44
	EventBountyWin   EventType = 45
	EventBountyFlip  EventType = 46

	EventTakeSeat     EventType = 50
	EventLeaveSeat    EventType = 51
	EventSitIn        EventType = 52
	EventSitOut       EventType = 53
	EventSitInPending EventType = 54
	EventSetAutoRebuy EventType = 55
	EventMissedBlinds EventType = 56

	EventResetPlayer EventType = 60

	EventSetBlinds        EventType = 70
	EventEliminate        EventType = 71
	EventFinishTournament EventType = 72

	EventTimeout EventType = 80

	EventPause  EventType = 90
	EventResume EventType = 91
)

var eventNames = map[EventType]string{
	EventNewHand:          "NEW_HAND",
	EventSetBlindPos:      "SET_BLIND_POS",
	EventNewStreet:        "NEW_STREET",
	EventEndHand:          "END_HAND",
	EventPost:             "POST",
	EventPostDead:         "POST_DEAD",
	EventAnte:             "ANTE",
	EventDeal:             "DEAL",
	EventReveal:           "REVEAL_HAND",
	EventMuck:             "MUCK",
	EventBet:              "BET",
	EventRaiseTo:          "RAISE_TO",
	EventCall:             "CALL",
	EventCheck:            "CHECK",
	EventFold:             "FOLD",
	EventReturnChips:      "RETURN_CHIPS",
	EventWin:              "WIN",
	EventBuy:              "BUY",
	EventCashOut:          "CASH_OUT",
	EventCollectPots:      "COLLECT_POTS",
	EventBountyWin:        "BOUNTY_WIN",
	EventBountyFlip:       "BOUNTY_FLIP",
	EventTakeSeat:         "TAKE_SEAT",
	EventLeaveSeat:        "LEAVE_SEAT",
	EventSitIn:            "SIT_IN",
	EventSitOut:           "SIT_OUT",
	EventSitInPending:     "SIT_IN_PENDING",
	EventSetAutoRebuy:     "SET_AUTO_REBUY",
	EventMissedBlinds:     "MISSED_BLINDS",
	EventResetPlayer:      "RESET",
	EventSetBlinds:        "SET_BLINDS",
	EventEliminate:        "ELIMINATE",
	EventFinishTournament: "FINISH_TOURNAMENT",
	EventTimeout:          "TIMEOUT",
	EventPause:            "PAUSE",
	EventResume:           "RESUME",
}

// legacyEventNames maps older symbolic names found in historical files.
var legacyEventNames = map[string]EventType{
	"REVEAL":        EventReveal,
	"RESET_PLAYER":  EventResetPlayer,
	"UPDATE_STACK":  EventReturnChips,
	"SET_BLIND_POS": EventSetBlindPos,
	"POST_ANTE":     EventAnte,
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", uint16(t))
}

// Known reports whether the code is assigned.
func (t EventType) Known() bool {
	_, ok := eventNames[t]
	return ok
}

// ParseEventType resolves a symbolic name, including legacy aliases.
func ParseEventType(name string) (EventType, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for k, v := range eventNames {
		if v == name {
			return k, nil
		}
	}
	if t, ok := legacyEventNames[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("game: unknown event type %q", name)
}

func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint16(t))
}

// UnmarshalJSON accepts the integer code or, for old files, the name.
func (t *EventType) UnmarshalJSON(b []byte) error {
	var code uint16
	if err := json.Unmarshal(b, &code); err == nil {
		*t = EventType(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("game: event type must be a number or name: %s", b)
	}
	parsed, err := ParseEventType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SubjectKind says what an event is about.
type SubjectKind uint8

const (
	SubjectTable SubjectKind = iota
	SubjectPlayer
	SubjectSideEffect
)

var subjectNames = [...]string{"table", "player", "side_effect"}

func (k SubjectKind) String() string {
	if int(k) < len(subjectNames) {
		return subjectNames[k]
	}
	return "unknown"
}

func (k SubjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SubjectKind) UnmarshalText(b []byte) error {
	for i, n := range subjectNames {
		if n == string(b) {
			*k = SubjectKind(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown subject kind %q", b)
}

// Subject identifies the table or player an event concerns.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
	Seat int         `json:"seat"`
}

// Event is an immutable record of something that happened at the table.
type Event struct {
	Seq       int64     `json:"seq"`
	Type      EventType `json:"type"`
	Subject   Subject   `json:"subject"`
	Args      EventArgs `json:"args"`
	Timestamp time.Time `json:"ts"`
}

func (e Event) String() string {
	switch e.Subject.Kind {
	case SubjectPlayer:
		return fmt.Sprintf("#%d %s %s %+v", e.Seq, e.Subject.ID, e.Type, e.Args)
	default:
		return fmt.Sprintf("#%d %s %+v", e.Seq, e.Type, e.Args)
	}
}

// Equivalent compares two events ignoring sequence numbers and timestamps.
func (e Event) Equivalent(o Event) bool {
	if e.Type != o.Type || e.Subject != o.Subject {
		return false
	}
	a, err1 := json.Marshal(e.Args)
	b, err2 := json.Marshal(o.Args)
	return err1 == nil && err2 == nil && string(a) == string(b)
}

type eventJSON struct {
	Seq       int64           `json:"seq"`
	Type      EventType       `json:"type"`
	Subject   Subject         `json:"subject"`
	Args      json.RawMessage `json:"args"`
	Timestamp time.Time       `json:"ts"`
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	args, err := DecodeEventArgs(raw.Type, raw.Args)
	if err != nil {
		return fmt.Errorf("game: decode %s args: %w", raw.Type, err)
	}
	*e = Event{Seq: raw.Seq, Type: raw.Type, Subject: raw.Subject, Args: args, Timestamp: raw.Timestamp}
	return nil
}

// EventArgs is the closed set of per-type event payloads.
type EventArgs interface {
	isEventArgs()
}

type (
	NewHandArgs struct {
		HandNumber int64  `json:"hand_number"`
		Deck       string `json:"deck"`
	}
	BlindPosArgs struct {
		Button int `json:"btn_idx"`
		SB     int `json:"sb_idx"`
		BB     int `json:"bb_idx"`
	}
	NewStreetArgs struct {
		Street Street       `json:"street"`
		Cards  []poker.Card `json:"cards"`
	}
	EndHandArgs struct {
		HandNumber int64 `json:"hand_number"`
	}
	PostArgs struct {
		Amount int64     `json:"amt"`
		Blind  BlindKind `json:"blind"`
	}
	AmountArgs struct {
		Amount int64 `json:"amt"`
	}
	CardsArgs struct {
		Cards []poker.Card `json:"cards"`
		Hand  string       `json:"hand,omitempty"`
	}
	// BetArgs.Amount is the player's total commitment for the street.
	BetArgs struct {
		Amount int64 `json:"amt"`
		Auto   bool  `json:"auto,omitempty"`
	}
	// CallArgs.Amount is the number of chips added.
	CallArgs struct {
		Amount int64 `json:"amt"`
		Auto   bool  `json:"auto,omitempty"`
	}
	AutoArgs struct {
		Auto bool `json:"auto,omitempty"`
	}
	WinArgs struct {
		Amount   int64        `json:"amt"`
		Pot      int          `json:"pot_id"`
		Showdown bool         `json:"showdown"`
		Hand     string       `json:"hand,omitempty"`
		Cards    []poker.Card `json:"cards,omitempty"`
	}
	CollectPotsArgs struct {
		Pots []Pot `json:"pots"`
	}
	BountyPayment struct {
		PlayerID string `json:"player_id"`
		Seat     int    `json:"seat"`
		Amount   int64  `json:"amt"`
	}
	BountyWinArgs struct {
		Payments []BountyPayment `json:"payments"`
		Deck     string          `json:"deck"`
	}
	BountyFlipArgs struct {
		Opponent string       `json:"opponent"`
		Stake    int64        `json:"stake"`
		Board    []poker.Card `json:"board"`
		WinnerID string       `json:"winner_id,omitempty"`
	}
	TakeSeatArgs struct {
		Seat     int    `json:"seat"`
		Username string `json:"username"`
		IsBot    bool   `json:"is_bot,omitempty"`
	}
	StateArgs struct {
		State PlayingState `json:"playing_state"`
	}
	MissedBlindsArgs struct {
		SB bool `json:"sb"`
		BB bool `json:"bb"`
	}
	NoArgs        struct{}
	SetBlindsArgs struct {
		Level      int   `json:"level"`
		SmallBlind int64 `json:"sb"`
		BigBlind   int64 `json:"bb"`
		Ante       int64 `json:"ante"`
	}
	EliminateArgs struct {
		Place int `json:"place"`
	}
	FinishTournamentArgs struct {
		Placements []Placement `json:"placements"`
	}
	TimeoutArgs struct {
		Count int `json:"count"`
	}
	PauseArgs struct {
		Reason string `json:"reason"`
	}
)

func (NewHandArgs) isEventArgs()          {}
func (BlindPosArgs) isEventArgs()         {}
func (NewStreetArgs) isEventArgs()        {}
func (EndHandArgs) isEventArgs()          {}
func (PostArgs) isEventArgs()             {}
func (AmountArgs) isEventArgs()           {}
func (CardsArgs) isEventArgs()            {}
func (BetArgs) isEventArgs()              {}
func (CallArgs) isEventArgs()             {}
func (AutoArgs) isEventArgs()             {}
func (WinArgs) isEventArgs()              {}
func (CollectPotsArgs) isEventArgs()      {}
func (BountyWinArgs) isEventArgs()        {}
func (BountyFlipArgs) isEventArgs()       {}
func (TakeSeatArgs) isEventArgs()         {}
func (StateArgs) isEventArgs()            {}
func (MissedBlindsArgs) isEventArgs()     {}
func (NoArgs) isEventArgs()               {}
func (SetBlindsArgs) isEventArgs()        {}
func (EliminateArgs) isEventArgs()        {}
func (FinishTournamentArgs) isEventArgs() {}
func (TimeoutArgs) isEventArgs()          {}
func (PauseArgs) isEventArgs()            {}

// BlindKind is the blind paid by a POST event.
type BlindKind string

const (
	BlindSmall    BlindKind = "sb"
	BlindBig      BlindKind = "bb"
	BlindOwedBig  BlindKind = "owed_bb"
	BlindStraddle BlindKind = "straddle"
)

func decodeArgs[T EventArgs](raw []byte) (EventArgs, error) {
	var v T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// DecodeEventArgs decodes the JSON payload for an event type.
func DecodeEventArgs(t EventType, raw []byte) (EventArgs, error) {
	switch t {
	case EventNewHand:
		return decodeArgs[NewHandArgs](raw)
	case EventSetBlindPos:
		return decodeArgs[BlindPosArgs](raw)
	case EventNewStreet:
		return decodeArgs[NewStreetArgs](raw)
	case EventEndHand:
		return decodeArgs[EndHandArgs](raw)
	case EventPost:
		return decodeArgs[PostArgs](raw)
	case EventPostDead, EventAnte, EventReturnChips, EventBuy, EventCashOut, EventSetAutoRebuy:
		return decodeArgs[AmountArgs](raw)
	case EventDeal, EventReveal:
		return decodeArgs[CardsArgs](raw)
	case EventBet, EventRaiseTo:
		return decodeArgs[BetArgs](raw)
	case EventCall:
		return decodeArgs[CallArgs](raw)
	case EventCheck, EventFold, EventMuck:
		return decodeArgs[AutoArgs](raw)
	case EventWin:
		return decodeArgs[WinArgs](raw)
	case EventCollectPots:
		return decodeArgs[CollectPotsArgs](raw)
	case EventBountyWin:
		return decodeArgs[BountyWinArgs](raw)
	case EventBountyFlip:
		return decodeArgs[BountyFlipArgs](raw)
	case EventTakeSeat:
		return decodeArgs[TakeSeatArgs](raw)
	case EventSitIn, EventSitOut, EventSitInPending:
		return decodeArgs[StateArgs](raw)
	case EventMissedBlinds:
		return decodeArgs[MissedBlindsArgs](raw)
	case EventLeaveSeat, EventResetPlayer:
		return decodeArgs[NoArgs](raw)
	case EventSetBlinds:
		return decodeArgs[SetBlindsArgs](raw)
	case EventEliminate:
		return decodeArgs[EliminateArgs](raw)
	case EventFinishTournament:
		return decodeArgs[FinishTournamentArgs](raw)
	case EventTimeout:
		return decodeArgs[TimeoutArgs](raw)
	case EventPause, EventResume:
		return decodeArgs[PauseArgs](raw)
	}
	return nil, fmt.Errorf("unknown event type %d", uint16(t))
}
