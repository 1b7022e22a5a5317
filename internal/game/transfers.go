package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lox/pokerengine/internal/ledger"
)

// transferOp is a ledger movement queued by the current step. It runs only
// after the step's state passes the invariant checks.
type transferOp struct {
	// action is set when a failed transfer must reject the whole step.
	action *Action
	src    ledger.BalanceHolder
	dst    ledger.BalanceHolder
	amount decimal.Decimal
	note   string
}

// transfer queues a chips-denominated movement that the step depends on.
// Insufficient funds reject the step with an InvalidActionError.
func (c *Controller) transfer(a Action, src, dst ledger.BalanceHolder, chips int64, note string) error {
	if chips <= 0 {
		return nil
	}
	c.transfers = append(c.transfers, transferOp{action: &a, src: src, dst: dst, amount: c.s.table.Chips(chips), note: note})
	return nil
}

// payout queues a movement that cannot undo a finished hand. A failure is
// logged and the step still commits.
func (c *Controller) payout(src, dst ledger.BalanceHolder, amount decimal.Decimal, note string) {
	if !amount.IsPositive() {
		return
	}
	c.transfers = append(c.transfers, transferOp{src: src, dst: dst, amount: amount, note: note})
}

// canAfford reports whether h currently holds at least amount. Ledgers that
// keep no balances can always afford.
func (c *Controller) canAfford(h ledger.BalanceHolder, amount decimal.Decimal) bool {
	bal, err := c.cfg.ledger.Balance(context.Background(), h)
	switch {
	case errors.Is(err, ledger.ErrUntracked):
		return true
	case err != nil:
		c.log.Warn().Err(err).Str("holder", h.String()).Msg("Balance lookup failed")
		return false
	}
	return bal.GreaterThanOrEqual(amount)
}

// settleTransfers runs the queued transfers in order. If a transfer the step
// depends on fails, the ones already made are reversed.
func (c *Controller) settleTransfers() error {
	ops := c.transfers
	c.transfers = c.transfers[:0]
	if c.cfg.replaying {
		return nil
	}

	ctx := context.Background()
	var done []transferOp
	for _, op := range ops {
		_, err := c.cfg.ledger.Transfer(ctx, op.src, op.dst, op.amount, op.note)
		if err == nil {
			done = append(done, op)
			continue
		}
		if op.action == nil {
			c.log.Error().Err(err).
				Str("src", op.src.String()).
				Str("dst", op.dst.String()).
				Str("amount", op.amount.String()).
				Str("note", op.note).
				Msg("Ledger transfer failed")
			continue
		}
		c.reverse(ctx, done)
		return c.transferError(op, err)
	}
	return nil
}

func (c *Controller) reverse(ctx context.Context, done []transferOp) {
	for i := len(done) - 1; i >= 0; i-- {
		op := done[i]
		if _, err := c.cfg.ledger.Transfer(ctx, op.dst, op.src, op.amount, op.note+" reversal"); err != nil {
			c.log.Error().Err(err).
				Str("src", op.dst.String()).
				Str("dst", op.src.String()).
				Str("amount", op.amount.String()).
				Msg("Ledger reversal failed")
		}
	}
}

func (c *Controller) transferError(op transferOp, err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		e := invalid(*op.action, ReasonInsufficientBalance, "%s cannot cover %s", op.src, op.amount)
		e.Err = err
		return e
	}
	return fmt.Errorf("game: %s transfer %s -> %s: %w", op.note, op.src, op.dst, err)
}
