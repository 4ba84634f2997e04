// Package cache provides a thread-safe LRU cache of compiled jexpr
// expressions.
//
// jexpr.ExpressionCache (and anything else that compiles the same query string
// repeatedly against different input documents) uses this cache to skip
// re-lexing/re-parsing on every call. The eviction policy is a plain LRU:
// once Capacity is reached, the entry that hasn't been touched longest is
// dropped to make room for the new one.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("$.items[price > 100]", compile)
package cache

import (
	"sync"

	"github.com/sandrolain/jexpr/pkg/ast"
)

// node is one slot in the intrusive doubly-linked recency list. head.next
// is the most recently touched slot, tail.prev the least.
type node struct {
	key        string
	expr       *ast.Expression
	prev, next *node
}

// Cache is a thread-safe, fixed-capacity LRU cache of compiled
// expressions, safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	size     int
	index    map[string]*node
	head     *node // sentinel: head.next is MRU
	tail     *node // sentinel: tail.prev is LRU
}

// New builds an LRU cache holding up to capacity compiled expressions.
// A non-positive capacity falls back to a default of 256.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	head, tail := &node{}, &node{}
	head.next = tail
	tail.prev = head
	return &Cache{
		capacity: capacity,
		index:    make(map[string]*node, capacity),
		head:     head,
		tail:     tail,
	}
}

// unlink detaches n from the recency list. Caller holds c.mu.
func unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// pushFront re-attaches n immediately after the head sentinel, marking it
// most recently used. Caller holds c.mu.
func (c *Cache) pushFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

// touch moves an already-linked node to the front. Caller holds c.mu.
func (c *Cache) touch(n *node) {
	if c.head.next == n {
		return
	}
	unlink(n)
	c.pushFront(n)
}

// Get returns the cached expression for key and promotes it to
// most-recently-used, or (nil, false) if key isn't cached.
func (c *Cache) Get(key string) (*ast.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.touch(n)
	return n.expr, true
}

// Set stores expr under key, evicting the least-recently-used entry first
// if the cache is already at capacity. Setting an existing key replaces
// its value and promotes it.
func (c *Cache) Set(key string, expr *ast.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.index[key]; ok {
		n.expr = expr
		c.touch(n)
		return
	}

	if c.size >= c.capacity {
		c.evictOldest()
	}

	n := &node{key: key, expr: expr}
	c.pushFront(n)
	c.index[key] = n
	c.size++
}

// GetOrCompile returns the cached expression for key, or calls compile to
// produce and cache one. compile runs on every miss: the lock is not held
// while it runs, so concurrent misses for the same key may each call it
// (the last Set wins), and a key that was evicted is compiled again. A
// compile error is returned to the caller and never cached.
func (c *Cache) GetOrCompile(key string, compile func() (*ast.Expression, error)) (*ast.Expression, error) {
	if expr, ok := c.Get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, expr)
	return expr, nil
}

// Len reports how many entries are currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Capacity reports the maximum number of entries the cache will hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate drops key from the cache, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[key]
	if !ok {
		return
	}
	unlink(n)
	delete(c.index, key)
	c.size--
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head.next = c.tail
	c.tail.prev = c.head
	c.index = make(map[string]*node, c.capacity)
	c.size = 0
}

// evictOldest drops the least-recently-used entry. Caller holds c.mu.
func (c *Cache) evictOldest() {
	lru := c.tail.prev
	if lru == c.head {
		return
	}
	unlink(lru)
	delete(c.index, lru.key)
	c.size--
}
