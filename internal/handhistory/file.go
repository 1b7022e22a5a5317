package handhistory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/lox/pokerengine/internal/fileutil"
	"github.com/lox/pokerengine/internal/game"
)

// File is the exported hand history document.
type File struct {
	Release  string          `json:"release,omitempty"`
	Accessed time.Time       `json:"accessed,omitzero"`
	Notes    json.RawMessage `json:"notes,omitempty"`
	Hands    []HandRecord    `json:"hands"`
}

// HandRecord is everything logged for one hand. Table and Players are the
// snapshot taken before NEW_HAND. Preamble holds the seat changes that were
// logged between the previous hand and this one.
type HandRecord struct {
	Number   int64          `json:"number"`
	TS       time.Time      `json:"ts"`
	Table    *game.Table    `json:"table,omitempty"`
	Players  []game.Player  `json:"players,omitempty"`
	Preamble []game.Event   `json:"preamble,omitempty"`
	Events   []game.Event   `json:"events"`
	Actions  []ActionRecord `json:"actions"`
	Notes    []string       `json:"notes,omitempty"`
}

// ActionRecord pairs an accepted action with the sequence number of the
// first event it produced.
type ActionRecord struct {
	Seq    int64       `json:"seq"`
	Action game.Action `json:"action"`
}

// Snapshot returns the hand's starting snapshot.
func (h *HandRecord) Snapshot() (game.Snapshot, bool) {
	if h.Table == nil {
		return game.Snapshot{}, false
	}
	return game.Snapshot{Table: *h.Table, Players: h.Players}, true
}

// NewHandSeq is the sequence number of the hand's NEW_HAND event, or zero
// when the hand was never dealt.
func (h *HandRecord) NewHandSeq() int64 {
	for _, e := range h.Events {
		if e.Type == game.EventNewHand {
			return e.Seq
		}
	}
	return 0
}

// Complete reports whether the hand reached END_HAND.
func (h *HandRecord) Complete() bool {
	n := len(h.Events)
	return n > 0 && h.Events[n-1].Type == game.EventEndHand
}

type fileJSON struct {
	Release     string          `json:"release"`
	Accessed    time.Time       `json:"accessed"`
	Notes       json.RawMessage `json:"notes"`
	Hands       []HandRecord    `json:"hands"`
	HandHistory []HandRecord    `json:"hand_history"`
}

// UnmarshalJSON accepts files without release, accessed or notes and files
// that use the older hand_history key.
func (f *File) UnmarshalJSON(b []byte) error {
	var raw fileJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*f = File{Release: raw.Release, Accessed: raw.Accessed, Notes: raw.Notes, Hands: raw.Hands}
	if f.Hands == nil {
		f.Hands = raw.HandHistory
	}
	return nil
}

// Decode reads a hand history document.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("handhistory: decode: %w", err)
	}
	return &f, nil
}

// ReadFile loads a hand history document from disk.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("handhistory: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// WriteFile stores the document atomically.
func WriteFile(path string, f *File) error {
	if f == nil {
		return errors.New("handhistory: nil file")
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("handhistory: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("handhistory: write %s: %w", path, err)
	}
	return nil
}

// BuildHands groups ordered rows into hand records.
func BuildHands(rows []Row) ([]HandRecord, error) {
	var hands []HandRecord
	idx := make(map[int64]int)
	hand := func(r Row) *HandRecord {
		i, ok := idx[r.Hand]
		if !ok {
			i = len(hands)
			idx[r.Hand] = i
			hands = append(hands, HandRecord{Number: r.Hand, TS: r.TS})
		}
		return &hands[i]
	}

	for _, r := range rows {
		h := hand(r)
		switch r.Kind {
		case KindSnapshot:
			var s game.Snapshot
			if err := json.Unmarshal(r.Payload, &s); err != nil {
				return nil, fmt.Errorf("handhistory: decode snapshot for hand %d: %w", r.Hand, err)
			}
			h.Table = &s.Table
			h.Players = s.Players
		case KindAction:
			var a game.Action
			if err := json.Unmarshal(r.Payload, &a); err != nil {
				return nil, fmt.Errorf("handhistory: decode action %d: %w", r.Seq, err)
			}
			h.Actions = append(h.Actions, ActionRecord{Seq: r.Seq, Action: a})
		case KindEvent:
			var e game.Event
			if err := json.Unmarshal(r.Payload, &e); err != nil {
				return nil, fmt.Errorf("handhistory: decode event %d: %w", r.Seq, err)
			}
			if e.Type == game.EventNewHand {
				h.TS = e.Timestamp
			}
			h.Events = append(h.Events, e)
		case KindNote:
			var note string
			if err := json.Unmarshal(r.Payload, &note); err != nil {
				return nil, fmt.Errorf("handhistory: decode note: %w", err)
			}
			h.Notes = append(h.Notes, note)
		default:
			return nil, fmt.Errorf("handhistory: unknown row kind %s", r.Kind)
		}
	}

	for i := range hands {
		splitPreamble(&hands[i])
	}
	return hands, nil
}

// splitPreamble moves events logged before NEW_HAND into the preamble.
func splitPreamble(h *HandRecord) {
	start := h.NewHandSeq()
	if start == 0 {
		h.Preamble = append(h.Preamble, h.Events...)
		h.Events = nil
		return
	}
	cut := slices.IndexFunc(h.Events, func(e game.Event) bool { return e.Seq >= start })
	h.Preamble = append(h.Preamble, h.Events[:cut]...)
	h.Events = h.Events[cut:]
}

// AllEvents returns the preamble and hand events in sequence order.
func (h *HandRecord) AllEvents() []game.Event {
	out := make([]game.Event, 0, len(h.Preamble)+len(h.Events))
	out = append(out, h.Preamble...)
	return append(out, h.Events...)
}
