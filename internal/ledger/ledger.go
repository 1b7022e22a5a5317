// Package ledger moves money between balance holders. Chips on a table are
// backed by ledger balances: buying in debits a user and credits the table,
// cashing out does the reverse.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when the source cannot cover a transfer.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// ErrInvalidAmount is returned for zero or negative transfers.
var ErrInvalidAmount = errors.New("ledger: amount must be positive")

// ErrUntracked is returned by Balance on a ledger that keeps no balances.
var ErrUntracked = errors.New("ledger: balances are not tracked")

// HolderKind is the closed set of things that can hold a balance.
type HolderKind uint8

const (
	KindUser HolderKind = iota + 1
	KindTable
	KindCashier
	KindTournament
)

func (k HolderKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindTable:
		return "table"
	case KindCashier:
		return "cashier"
	case KindTournament:
		return "tournament"
	}
	return fmt.Sprintf("HolderKind(%d)", uint8(k))
}

// BalanceHolder identifies one account. The pair (Kind, ID) is stable.
type BalanceHolder struct {
	Kind HolderKind `json:"kind"`
	ID   string     `json:"id"`
}

func User(id string) BalanceHolder       { return BalanceHolder{Kind: KindUser, ID: id} }
func Table(id string) BalanceHolder      { return BalanceHolder{Kind: KindTable, ID: id} }
func Tournament(id string) BalanceHolder { return BalanceHolder{Kind: KindTournament, ID: id} }

// Cashier is the house account. It may go negative when funding deposits.
var Cashier = BalanceHolder{Kind: KindCashier, ID: "cashier"}

func (h BalanceHolder) String() string {
	return h.Kind.String() + ":" + h.ID
}

// TransferRecord is the receipt of a completed transfer.
type TransferRecord struct {
	ID     uuid.UUID       `json:"id"`
	Src    BalanceHolder   `json:"src"`
	Dst    BalanceHolder   `json:"dst"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
	At     time.Time       `json:"at"`
}

// Ledger is the money-movement contract the game engine depends on.
type Ledger interface {
	Transfer(ctx context.Context, src, dst BalanceHolder, amount decimal.Decimal, note string) (TransferRecord, error)
	Balance(ctx context.Context, h BalanceHolder) (decimal.Decimal, error)
}

// Nop accepts every transfer without tracking balances. The replayer uses it
// so that re-running a hand never depends on historical balances.
type Nop struct{}

func (Nop) Transfer(_ context.Context, src, dst BalanceHolder, amount decimal.Decimal, note string) (TransferRecord, error) {
	return TransferRecord{Src: src, Dst: dst, Amount: amount, Note: note}, nil
}

func (Nop) Balance(context.Context, BalanceHolder) (decimal.Decimal, error) {
	return decimal.Zero, ErrUntracked
}
