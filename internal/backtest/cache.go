package backtest

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/trendlab/faber/internal/core"
)

// Cache memoizes computed tables by the content of their inputs. It is an
// optimization only: identical inputs always recompute to identical tables,
// so correctness never depends on a hit. Bounded with oldest-first
// eviction.
type Cache struct {
	tables  map[[32]byte]*Table
	order   [][32]byte
	maxSize int
	mu      sync.RWMutex
}

// NewCache creates a cache holding at most maxSize tables.
func NewCache(maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		tables:  make(map[[32]byte]*Table),
		order:   make([][32]byte, 0, maxSize),
		maxSize: maxSize,
	}
}

// cacheKey hashes the full series content plus the engine parameters, so a
// revised series for the same symbol never aliases a stale entry.
func cacheKey(prices core.PriceSeries, startYear, smaWindow int) [32]byte {
	h := sha256.New()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(startYear))
	binary.BigEndian.PutUint64(buf[8:], uint64(smaWindow))
	h.Write(buf[:])
	for _, p := range prices {
		binary.BigEndian.PutUint64(buf[:8], uint64(p.Time.UnixNano()))
		binary.BigEndian.PutUint64(buf[8:], math.Float64bits(p.Close))
		h.Write(buf[:])
	}
	var key [32]byte
	h.Sum(key[:0])
	return key
}

// Get returns the cached table for the inputs, if present.
func (c *Cache) Get(prices core.PriceSeries, startYear, smaWindow int) (*Table, bool) {
	key := cacheKey(prices, startYear, smaWindow)
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key]
	return t, ok
}

// Put stores a computed table, evicting the oldest entry at capacity.
func (c *Cache) Put(prices core.PriceSeries, startYear, smaWindow int, t *Table) {
	key := cacheKey(prices, startYear, smaWindow)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[key]; exists {
		c.tables[key] = t
		return
	}
	if len(c.tables) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		delete(c.tables, oldest)
		c.order = c.order[1:]
	}
	c.tables[key] = t
	c.order = append(c.order, key)
}

// Len reports the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
