package bot

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lox/pokerengine/internal/game"
)

// DefaultContextSize bounds how many hands of context are kept across all
// tables a host serves.
const DefaultContextSize = 1024

// Context is what bots remember about one hand at one table.
type Context struct {
	TableID    string
	HandNumber int64

	// Raises counts bets and raises per player on each street.
	Raises map[game.Street]map[string]int
	// Aggressor is the last player to bet or raise.
	Aggressor string
}

// RaisesOn returns how many bets and raises were made on street.
func (c *Context) RaisesOn(street game.Street) int {
	var n int
	for _, v := range c.Raises[street] {
		n += v
	}
	return n
}

// Observe records a hand event.
func (c *Context) Observe(street game.Street, e game.Event) {
	if e.Type != game.EventBet && e.Type != game.EventRaiseTo {
		return
	}
	if c.Raises[street] == nil {
		c.Raises[street] = make(map[string]int)
	}
	c.Raises[street][e.Subject.ID]++
	c.Aggressor = e.Subject.ID
}

type contextKey struct {
	tableID string
	hand    int64
}

// ContextCache keeps recent hand contexts in a bounded LRU keyed by table
// and hand number.
type ContextCache struct {
	mu    sync.Mutex
	cache *lru.Cache[contextKey, *Context]
}

// NewContextCache returns a cache holding at most size contexts.
func NewContextCache(size int) (*ContextCache, error) {
	if size <= 0 {
		size = DefaultContextSize
	}
	cache, err := lru.New[contextKey, *Context](size)
	if err != nil {
		return nil, err
	}
	return &ContextCache{cache: cache}, nil
}

// Get returns the context for a hand, creating it on first use.
func (c *ContextCache) Get(tableID string, hand int64) *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := contextKey{tableID, hand}
	if ctx, ok := c.cache.Get(k); ok {
		return ctx
	}
	ctx := &Context{
		TableID:    tableID,
		HandNumber: hand,
		Raises:     make(map[game.Street]map[string]int),
	}
	c.cache.Add(k, ctx)
	return ctx
}

// Forget drops every context of a table.
func (c *ContextCache) Forget(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.cache.Keys() {
		if k.tableID == tableID {
			c.cache.Remove(k)
		}
	}
}

// Len returns the number of cached contexts.
func (c *ContextCache) Len() int {
	return c.cache.Len()
}
