package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-process ledger. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	clock    quartz.Clock
	balances map[BalanceHolder]decimal.Decimal
	history  []TransferRecord
}

// NewMemory returns an empty ledger. A nil clock uses the real clock.
func NewMemory(clock quartz.Clock) *Memory {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Memory{
		clock:    clock,
		balances: make(map[BalanceHolder]decimal.Decimal),
	}
}

// Deposit credits a user from the cashier.
func (m *Memory) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (TransferRecord, error) {
	return m.Transfer(ctx, Cashier, User(userID), amount, "deposit")
}

func (m *Memory) Transfer(ctx context.Context, src, dst BalanceHolder, amount decimal.Decimal, note string) (TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return TransferRecord{}, err
	}
	if !amount.IsPositive() {
		return TransferRecord{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if src == dst {
		return TransferRecord{}, fmt.Errorf("ledger: transfer from %s to itself", src)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if src.Kind != KindCashier && m.balances[src].LessThan(amount) {
		return TransferRecord{}, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, src, m.balances[src], amount)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return TransferRecord{}, fmt.Errorf("ledger: transfer id: %w", err)
	}
	m.balances[src] = m.balances[src].Sub(amount)
	m.balances[dst] = m.balances[dst].Add(amount)
	rec := TransferRecord{ID: id, Src: src, Dst: dst, Amount: amount, Note: note, At: m.clock.Now()}
	m.history = append(m.history, rec)
	return rec, nil
}

func (m *Memory) Balance(_ context.Context, h BalanceHolder) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[h], nil
}

// History returns every completed transfer in order.
func (m *Memory) History() []TransferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransferRecord, len(m.history))
	copy(out, m.history)
	return out
}

// Total sums every balance. Transfers never create money, so the total is
// always zero with the cashier's deficit offsetting deposits.
func (m *Memory) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, b := range m.balances {
		total = total.Add(b)
	}
	return total
}
