// Package lrucache implements the sharded LRU cache: 16 independent
// shards, each an LRUCache with its own mutex, hash table, and pair of
// intrusive circular linked lists separating pinned ("in use") entries
// from unpinned ones eligible for eviction.
package lrucache

import "sync"

// Deleter is invoked exactly once per entry, after its last release or
// eviction, so callers can release whatever value is associated with key.
type Deleter func(key string, value any)

// entry is one node of both the hash table chain and an LRU list. An
// entry belongs to at most one of the two lists (lru or inUse) at a time,
// tracked by inCache/refs per the state machine in LRUCache.
type entry struct {
	value   any
	deleter Deleter
	charge  int

	key  string
	hash uint32

	inCache bool
	refs    int

	nextHash *entry
	next     *entry
	prev     *entry
}

// Handle is an opaque reference returned by Insert/Lookup. The caller must
// pass it to Release exactly once per handle received.
type Handle struct{ e *entry }

// LRUCache is a single shard: capacity, usage, a hash table, and the lru /
// inUse list pair. An entry in lru has refs==1 and inCache==true; an
// entry in inUse has refs>=2 and inCache==true. Eviction only ever visits
// lru, so a pinned entry (an outstanding Handle) is never reclaimed.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	usage    int

	lru   entry // sentinel head of the circular list of unpinned entries
	inUse entry // sentinel head of the circular list of pinned entries

	table *handleTable
}

// NewLRUCache returns an empty shard with the given capacity. A capacity
// of 0 disables caching: entries are handed back as unpinned handles that
// the caller alone owns.
func NewLRUCache(capacity int) *LRUCache {
	c := &LRUCache{capacity: capacity, table: newHandleTable()}
	c.lru.next, c.lru.prev = &c.lru, &c.lru
	c.inUse.next, c.inUse.prev = &c.inUse, &c.inUse
	return c
}

func lruRemove(e *entry) {
	e.next.prev = e.prev
	e.prev.next = e.next
}

func lruAppend(list, e *entry) {
	e.next = list
	e.prev = list.prev
	e.prev.next = e
	e.next.prev = e
}

func (c *LRUCache) ref(e *entry) {
	if e.refs == 1 && e.inCache {
		lruRemove(e)
		lruAppend(&c.inUse, e)
	}
	e.refs++
}

func (c *LRUCache) unref(e *entry) {
	if e.refs <= 0 {
		panic("lrucache: unref of entry with no outstanding references")
	}
	e.refs--
	if e.refs == 0 {
		if e.deleter != nil {
			e.deleter(e.key, e.value)
		}
	} else if e.inCache && e.refs == 1 {
		lruRemove(e)
		lruAppend(&c.lru, e)
	}
}

// finishErase unlinks e (if non-nil) from its LRU list, subtracts its
// charge from usage, marks it no longer cached, and unrefs it. It is the
// single point where inCache transitions from true to false.
func (c *LRUCache) finishErase(e *entry) bool {
	if e == nil {
		return false
	}
	lruRemove(e)
	e.inCache = false
	c.usage -= e.charge
	c.unref(e)
	return true
}

// Insert adds (key, value) to the cache with the given charge against
// capacity and deleter. It always succeeds and returns a pinned Handle
// the caller must Release.
func (c *LRUCache) Insert(key string, hash uint32, value any, charge int, deleter Deleter) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{
		value:   value,
		deleter: deleter,
		charge:  charge,
		key:     key,
		hash:    hash,
		refs:    1,
	}

	if c.capacity > 0 {
		e.refs++
		e.inCache = true
		lruAppend(&c.inUse, e)
		c.usage += charge
		c.finishErase(c.table.insert(e))
	}

	for c.usage > c.capacity && c.lru.next != &c.lru {
		oldest := c.lru.next
		c.finishErase(c.table.remove(oldest.key, oldest.hash))
	}

	return &Handle{e: e}
}

// Lookup returns a pinned Handle for key if present, or nil on a miss.
func (c *LRUCache) Lookup(key string, hash uint32) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.table.lookup(key, hash)
	if e == nil {
		return nil
	}
	c.ref(e)
	return &Handle{e: e}
}

// Release gives up a handle previously returned by Insert or Lookup.
func (c *LRUCache) Release(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unref(h.e)
}

// Value returns the value associated with a handle. Valid until Release.
func (h *Handle) Value() any { return h.e.value }

// Erase removes key from the cache if present. Any outstanding handle
// keeps the entry's value alive until that handle is released.
func (c *LRUCache) Erase(key string, hash uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishErase(c.table.remove(key, hash))
}

// Prune evicts every currently-unpinned entry.
func (c *LRUCache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.lru.next != &c.lru {
		e := c.lru.next
		c.finishErase(c.table.remove(e.key, e.hash))
	}
}

// TotalCharge returns the sum of charges currently held by this shard.
func (c *LRUCache) TotalCharge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}
