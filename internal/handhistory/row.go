// Package handhistory records the event and action stream of a table,
// persists it, and serves it back as per-hand log views.
package handhistory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/lox/pokerengine/internal/game"
)

// RowKind identifies what a durable row holds.
type RowKind uint8

const (
	KindEvent    RowKind = 1
	KindAction   RowKind = 2
	KindSnapshot RowKind = 3
	KindNote     RowKind = 4
)

func (k RowKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindAction:
		return "action"
	case KindSnapshot:
		return "snapshot"
	case KindNote:
		return "note"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// order breaks ties between rows with the same sequence number. A snapshot
// carries the sequence of the event before it and an action the sequence of
// the first event it produced.
func (k RowKind) order() int {
	switch k {
	case KindAction:
		return 0
	case KindEvent:
		return 1
	case KindSnapshot:
		return 2
	}
	return 3
}

// Row is one durable log entry. Payload is the JSON encoding of the game
// value (Event, Action, Snapshot or note text).
type Row struct {
	TableID string
	Seq     int64
	Kind    RowKind
	Hand    int64
	TS      time.Time
	Payload []byte
}

type rowKey struct {
	kind RowKind
	seq  int64
	note string
}

func (r Row) key() rowKey {
	k := rowKey{kind: r.Kind, seq: r.Seq}
	if r.Kind == KindNote {
		k.note = string(r.Payload)
	}
	return k
}

func eventRow(tableID string, hand int64, e game.Event) (Row, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return Row{}, fmt.Errorf("handhistory: encode event %d: %w", e.Seq, err)
	}
	return Row{TableID: tableID, Seq: e.Seq, Kind: KindEvent, Hand: hand, TS: e.Timestamp, Payload: b}, nil
}

func actionRow(tableID string, hand, seq int64, a game.Action) (Row, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return Row{}, fmt.Errorf("handhistory: encode action: %w", err)
	}
	return Row{TableID: tableID, Seq: seq, Kind: KindAction, Hand: hand, TS: a.Timestamp, Payload: b}, nil
}

func snapshotRow(tableID string, hand int64, ts time.Time, s game.Snapshot) (Row, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return Row{}, fmt.Errorf("handhistory: encode snapshot: %w", err)
	}
	return Row{TableID: tableID, Seq: s.Table.Seq, Kind: KindSnapshot, Hand: hand, TS: ts, Payload: b}, nil
}

// MarshalMsg implements msgp.Marshaler.
func (r *Row) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, r.Msgsize())
	o = msgp.AppendMapHeader(o, 6)
	o = msgp.AppendString(o, "table")
	o = msgp.AppendString(o, r.TableID)
	o = msgp.AppendString(o, "seq")
	o = msgp.AppendInt64(o, r.Seq)
	o = msgp.AppendString(o, "kind")
	o = msgp.AppendUint8(o, uint8(r.Kind))
	o = msgp.AppendString(o, "hand")
	o = msgp.AppendInt64(o, r.Hand)
	o = msgp.AppendString(o, "ts")
	o = msgp.AppendTime(o, r.TS)
	o = msgp.AppendString(o, "payload")
	o = msgp.AppendBytes(o, r.Payload)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler. Unknown fields are skipped.
func (r *Row) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	for ; sz > 0; sz-- {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		switch string(field) {
		case "table":
			r.TableID, bts, err = msgp.ReadStringBytes(bts)
		case "seq":
			r.Seq, bts, err = msgp.ReadInt64Bytes(bts)
		case "kind":
			var k uint8
			k, bts, err = msgp.ReadUint8Bytes(bts)
			r.Kind = RowKind(k)
		case "hand":
			r.Hand, bts, err = msgp.ReadInt64Bytes(bts)
		case "ts":
			r.TS, bts, err = msgp.ReadTimeBytes(bts)
		case "payload":
			r.Payload, bts, err = msgp.ReadBytesBytes(bts, r.Payload[:0])
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, msgp.WrapError(err, string(field))
		}
	}
	return bts, nil
}

// Msgsize returns an upper bound for the encoded size.
func (r *Row) Msgsize() int {
	return msgp.MapHeaderSize +
		6*(msgp.StringPrefixSize+8) +
		msgp.StringPrefixSize + len(r.TableID) +
		2*msgp.Int64Size + msgp.Uint8Size + msgp.TimeSize +
		msgp.BytesPrefixSize + len(r.Payload)
}
