package table

import (
	"context"
	"errors"
	"sync"

	"github.com/lox/pokerengine/internal/game"
)

var (
	ErrQueueFull   = errors.New("table: action queue full")
	ErrQueueClosed = errors.New("table: action queue closed")
)

// DefaultQueueSize is the number of actions a table buffers before Push
// starts rejecting.
const DefaultQueueSize = 256

// Queue is the inbound action queue of one table. Producers never block;
// the table worker is the only consumer.
type Queue struct {
	ch        chan game.Action
	validator *Validator

	mu     sync.RWMutex
	closed bool
}

// NewQueue returns a queue buffering up to size actions. validator may be
// nil when only typed actions are pushed.
func NewQueue(size int, validator *Validator) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan game.Action, size), validator: validator}
}

// Push enqueues a without blocking.
func (q *Queue) Push(a game.Action) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

// PushJSON validates and decodes data before enqueueing it.
func (q *Queue) PushJSON(data []byte) error {
	if q.validator == nil {
		return errors.New("table: queue has no validator")
	}
	a, err := q.validator.Decode(data)
	if err != nil {
		return err
	}
	return q.Push(a)
}

// Pop blocks until an action is available or ctx is done. Actions still
// buffered after Close are drained before ErrQueueClosed is returned.
func (q *Queue) Pop(ctx context.Context) (game.Action, error) {
	select {
	case a, ok := <-q.ch:
		if !ok {
			return game.Action{}, ErrQueueClosed
		}
		return a, nil
	case <-ctx.Done():
		return game.Action{}, ctx.Err()
	}
}

// Len returns the number of buffered actions.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops accepting actions.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
