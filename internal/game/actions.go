package game

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionType enumerates player commands. Codes are persisted and never reused.
type ActionType uint8

const (
	ActionNone          ActionType = 0
	ActionBet           ActionType = 1
	ActionRaiseTo       ActionType = 2
	ActionCall          ActionType = 3
	ActionCheck         ActionType = 4
	ActionFold          ActionType = 5
	ActionTakeSeat      ActionType = 10
	ActionLeaveSeat     ActionType = 11
	ActionSitIn         ActionType = 12
	ActionSitOut        ActionType = 13
	ActionSetAutoRebuy  ActionType = 14
	ActionSitInAtBlinds ActionType = 15
)

var actionNames = map[ActionType]string{
	ActionNone:          "NONE",
	ActionBet:           "BET",
	ActionRaiseTo:       "RAISE_TO",
	ActionCall:          "CALL",
	ActionCheck:         "CHECK",
	ActionFold:          "FOLD",
	ActionTakeSeat:      "TAKE_SEAT",
	ActionLeaveSeat:     "LEAVE_SEAT",
	ActionSitIn:         "SIT_IN",
	ActionSitOut:        "SIT_OUT",
	ActionSetAutoRebuy:  "SET_AUTO_REBUY",
	ActionSitInAtBlinds: "SIT_IN_AT_BLINDS",
}

func (a ActionType) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ActionType(%d)", uint8(a))
}

// IsBetting reports whether the action is a betting decision during a hand.
func (a ActionType) IsBetting() bool {
	switch a {
	case ActionBet, ActionRaiseTo, ActionCall, ActionCheck, ActionFold:
		return true
	}
	return false
}

// ParseActionType accepts either the symbolic name ("raise_to", "RAISE_TO")
// or the numeric code.
func ParseActionType(s string) (ActionType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for k, v := range actionNames {
		if v == name && k != ActionNone {
			return k, nil
		}
	}
	var code uint8
	if _, err := fmt.Sscanf(s, "%d", &code); err == nil {
		if _, ok := actionNames[ActionType(code)]; ok {
			return ActionType(code), nil
		}
	}
	return ActionNone, fmt.Errorf("game: unknown action type %q", s)
}

func (a ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(a))
}

func (a *ActionType) UnmarshalJSON(b []byte) error {
	var code uint8
	if err := json.Unmarshal(b, &code); err == nil {
		*a = ActionType(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("game: action type must be a number or name: %s", b)
	}
	parsed, err := ParseActionType(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionSource records who originated an action.
type ActionSource uint8

const (
	SourcePlayer ActionSource = iota
	SourceBot
	SourceTimeout
	SourceAdmin
)

var sourceNames = [...]string{"player", "bot", "timeout", "admin"}

func (s ActionSource) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("ActionSource(%d)", uint8(s))
}

func (s ActionSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ActionSource) UnmarshalText(b []byte) error {
	for i, n := range sourceNames {
		if n == string(b) {
			*s = ActionSource(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown action source %q", b)
}

// Action is a command a player, bot, timer or operator wants to perform.
// HandNumber and Street are optional expectations; when set, the action is
// rejected as stale if the table has moved on.
type Action struct {
	ID         string       `json:"id,omitempty"`
	Type       ActionType   `json:"type"`
	PlayerID   string       `json:"player_id"`
	Amount     int64        `json:"amount,omitempty"`
	Seat       int          `json:"seat,omitempty"`
	Username   string       `json:"username,omitempty"`
	HandNumber int64        `json:"hand_number,omitempty"`
	Street     Street       `json:"street,omitempty"`
	Source     ActionSource `json:"source"`
	Timestamp  time.Time    `json:"ts"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionBet, ActionRaiseTo, ActionTakeSeat, ActionSetAutoRebuy:
		return fmt.Sprintf("%s %s %d", a.PlayerID, a.Type, a.Amount)
	}
	return fmt.Sprintf("%s %s", a.PlayerID, a.Type)
}
