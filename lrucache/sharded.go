package lrucache

import (
	"sync/atomic"

	"github.com/kvforge/lsmstore/lhash"
)

const (
	numShardBits = 4
	numShards    = 1 << numShardBits
)

// ShardedCache spreads entries across 16 independent LRUCache shards, each
// guarded by its own mutex, so unrelated keys never contend on the same
// lock. Shard assignment uses the top numShardBits bits of the key hash.
type ShardedCache struct {
	shards [numShards]*LRUCache
	lastID atomic.Uint64
}

// NewShardedCache returns a cache with the given total capacity, split
// evenly (rounding up) across the 16 shards.
func NewShardedCache(capacity int) *ShardedCache {
	perShard := (capacity + numShards - 1) / numShards
	c := &ShardedCache{}
	for i := range c.shards {
		c.shards[i] = NewLRUCache(perShard)
	}
	return c
}

func hashKey(key string) uint32 { return lhash.Hash([]byte(key), 0) }

func shardIndex(hash uint32) uint32 { return hash >> (32 - numShardBits) }

func (c *ShardedCache) shardFor(hash uint32) *LRUCache {
	return c.shards[shardIndex(hash)]
}

// Insert adds (key, value) to the shard key hashes to.
func (c *ShardedCache) Insert(key string, value any, charge int, deleter Deleter) *Handle {
	hash := hashKey(key)
	return c.shardFor(hash).Insert(key, hash, value, charge, deleter)
}

// Lookup returns a pinned handle for key, or nil on a miss.
func (c *ShardedCache) Lookup(key string) *Handle {
	hash := hashKey(key)
	return c.shardFor(hash).Lookup(key, hash)
}

// Release gives up a handle previously returned by Insert or Lookup.
func (c *ShardedCache) Release(h *Handle) {
	c.shardFor(h.e.hash).Release(h)
}

// Erase removes key from whichever shard holds it.
func (c *ShardedCache) Erase(key string) {
	hash := hashKey(key)
	c.shardFor(hash).Erase(key, hash)
}

// Prune evicts every unpinned entry across all shards.
func (c *ShardedCache) Prune() {
	for _, s := range c.shards {
		s.Prune()
	}
}

// NewID returns a monotonically increasing id, for callers (e.g. a table
// cache) that need a cache-wide unique identifier.
func (c *ShardedCache) NewID() uint64 { return c.lastID.Add(1) }

// TotalCharge sums TotalCharge across all shards.
func (c *ShardedCache) TotalCharge() int {
	total := 0
	for _, s := range c.shards {
		total += s.TotalCharge()
	}
	return total
}
