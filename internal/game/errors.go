package game

import (
	"errors"
	"fmt"
)

// Reason is a machine readable code explaining why an action was refused.
type Reason string

const (
	ReasonTablePaused         Reason = "table_paused"
	ReasonUnknownAction       Reason = "unknown_action"
	ReasonNotSeated           Reason = "not_seated"
	ReasonAlreadySeated       Reason = "already_seated"
	ReasonSeatTaken           Reason = "seat_taken"
	ReasonTableFull           Reason = "table_full"
	ReasonNotYourTurn         Reason = "not_your_turn"
	ReasonNoHand              Reason = "no_hand_in_progress"
	ReasonIllegalAction       Reason = "illegal_action"
	ReasonBadAmount           Reason = "bad_amount"
	ReasonDuplicate           Reason = "duplicate_action"
	ReasonStale               Reason = "stale_action"
	ReasonNoChange            Reason = "no_change"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonTournament          Reason = "tournament_rules"
)

// InvalidActionError is returned when client input is rejected. State is
// unchanged and no events were recorded.
type InvalidActionError struct {
	Reason Reason
	Action Action
	Detail string
	Err    error
}

func (e *InvalidActionError) Error() string {
	msg := fmt.Sprintf("invalid action %s: %s", e.Action.Type, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *InvalidActionError) Unwrap() error {
	return e.Err
}

func invalid(a Action, reason Reason, format string, args ...any) *InvalidActionError {
	return &InvalidActionError{Reason: reason, Action: a, Detail: fmt.Sprintf(format, args...)}
}

// IsInvalidAction reports whether err is an InvalidActionError with the given
// reason. An empty reason matches any.
func IsInvalidAction(err error, reason Reason) bool {
	var ia *InvalidActionError
	if !errors.As(err, &ia) {
		return false
	}
	return reason == "" || ia.Reason == reason
}

// ConsistencyViolationError means the engine detected a broken invariant.
// The table is halted; the snapshot and recent events are attached for the
// incident report.
type ConsistencyViolationError struct {
	TableID  string
	Check    string
	Detail   string
	Snapshot Snapshot
	Recent   []Event
}

func (e *ConsistencyViolationError) Error() string {
	return fmt.Sprintf("consistency violation at table %s: %s: %s", e.TableID, e.Check, e.Detail)
}

// ErrHalted is returned by Step when the table is paused pending review.
var ErrHalted = errors.New("game: table halted")

// invariantError is raised inside the engine and converted into a
// ConsistencyViolationError at the dispatch boundary.
type invariantError struct {
	check  string
	detail string
}

func (e *invariantError) Error() string {
	return e.check + ": " + e.detail
}

func violation(check, format string, args ...any) error {
	return &invariantError{check: check, detail: fmt.Sprintf(format, args...)}
}
