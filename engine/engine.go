// Package engine composes the memtable, write-ahead log, sharded cache and
// Bloom filter primitives into a small usable key-value store. It exists
// to exercise those primitives end to end; it has no table files,
// compaction, or manifest, and is not a production database (see
// Non-goals).
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/kvforge/lsmstore/bloom"
	"github.com/kvforge/lsmstore/comparator"
	"github.com/kvforge/lsmstore/envkit"
	"github.com/kvforge/lsmstore/lrucache"
	"github.com/kvforge/lsmstore/memtable"
	"github.com/kvforge/lsmstore/status"
	"github.com/kvforge/lsmstore/wal"
	"github.com/kvforge/lsmstore/walseg"
)

// Options configures a new Engine.
type Options struct {
	// Dir is the directory the WAL segments live in.
	Dir string

	// CacheCapacity bounds the sharded cache's total charge.
	CacheCapacity int

	// FilterBitsPerKey parameterizes the Bloom filter. Zero disables it.
	FilterBitsPerKey int

	// SegmentBlocks is the number of 32 KiB blocks a WAL segment holds
	// before walseg rotates to the next one at the next block-aligned flush.
	SegmentBlocks int

	// FS is the environment the engine runs against; nil selects
	// envkit.NewReal().
	FS envkit.FS
}

// Engine is a single-node, single-process key-value store: every Put and
// Delete is sequenced, appended to the WAL, and applied to an in-memory
// memtable. Get only ever consults that memtable; there is no flush to a
// table file and no compaction.
type Engine struct {
	mu      sync.Mutex
	mem     *memtable.MemTable
	wr      *wal.Writer
	seg     *walseg.Manager
	cache   *lrucache.ShardedCache
	filter  *bloom.FilterPolicy
	door    *bloom.Doorkeeper
	nextSeq atomic.Uint64
}

// Open creates or resumes an engine rooted at opts.Dir. Resuming replays
// every record in the existing WAL segments to rebuild the in-memory
// memtable; this is the minimum needed to make the facade usable across
// process restarts in tests, not general crash recovery (no manifest or
// table files are involved, per Non-goals).
func Open(opts Options) (*Engine, error) {
	fs := opts.FS
	if fs == nil {
		fs = envkit.NewReal()
	}
	if opts.SegmentBlocks < 1 {
		opts.SegmentBlocks = 4
	}

	seg, err := walseg.OpenManager(fs, opts.Dir, opts.SegmentBlocks)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		mem:    memtable.New(comparator.BytewiseComparator()),
		seg:    seg,
		cache:  lrucache.NewShardedCache(opts.CacheCapacity),
		door:   bloom.NewDoorkeeper(1024),
		wr:     wal.NewWriter(seg),
	}
	if opts.FilterBitsPerKey > 0 {
		e.filter = bloom.New(opts.FilterBitsPerKey)
	}

	maxSeq, err := e.replay(fs)
	if err != nil {
		return nil, err
	}
	e.nextSeq.Store(maxSeq + 1)

	return e, nil
}

// replay reads every existing WAL segment in order and reapplies its
// records to the memtable, returning the highest sequence number seen.
func (e *Engine) replay(fs envkit.FS) (uint64, error) {
	var maxSeq uint64
	for _, path := range e.seg.SegmentPaths() {
		if !fs.Exists(path) {
			continue
		}
		if err := e.replaySegment(fs, path, &maxSeq); err != nil {
			return 0, err
		}
	}
	return maxSeq, nil
}

func (e *Engine) replaySegment(fs envkit.FS, path string, maxSeq *uint64) error {
	f, err := fs.NewSequentialFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := wal.NewReader(f, nil, true, 0)
	for {
		rec, ok := r.ReadRecord()
		if !ok {
			return nil
		}
		seq, typ, userKey, value, ok := decodeWALRecord(rec)
		if !ok {
			continue
		}
		e.mem.Add(memtable.SequenceNumber(seq), typ, userKey, value)
		if seq > *maxSeq {
			*maxSeq = seq
		}
	}
}

// Put inserts or overwrites key's value.
func (e *Engine) Put(key, value []byte) error {
	return e.apply(memtable.TypeValue, key, value)
}

// Delete records a tombstone for key.
func (e *Engine) Delete(key []byte) error {
	return e.apply(memtable.TypeDeletion, key, nil)
}

func (e *Engine) apply(typ memtable.ValueType, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.nextSeq.Add(1) - 1
	rec := encodeWALRecord(seq, typ, key, value)
	if err := e.wr.AddRecord(rec); err != nil {
		return err
	}
	e.mem.Add(memtable.SequenceNumber(seq), typ, key, value)
	e.cache.Erase(string(key))
	return nil
}

// Get returns the value for key. It first consults the sharded cache
// (admitted only once a key has been seen twice, via the doorkeeper
// sketch), falling back to the memtable and, on a hit, populating the
// cache for next time. The Bloom filter (when configured) is consulted
// the way a higher layer backed by table files would, even though this
// facade has no table files of its own to skip.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if h := e.cache.Lookup(string(key)); h != nil {
		defer e.cache.Release(h)
		if v, ok := h.Value().([]byte); ok {
			return v, nil
		}
	}

	if e.filter != nil && !e.filter.KeyMayMatch(key, e.currentFilter()) {
		return nil, status.NewNotFound("key not present (filtered)").AsError()
	}

	e.mu.Lock()
	lk := memtable.NewLookupKey(key, memtable.SequenceNumber(e.nextSeq.Load()-1))
	value, result := e.mem.Get(lk)
	e.mu.Unlock()

	switch result {
	case memtable.Found:
		if e.door.Seen(key) {
			cp := append([]byte(nil), value...)
			h := e.cache.Insert(string(key), cp, len(cp)+1, nil)
			e.cache.Release(h)
		}
		return value, nil
	case memtable.Deleted:
		return nil, status.NewNotFound("key deleted").AsError()
	default:
		return nil, status.NewNotFound("key not found").AsError()
	}
}

// currentFilter rebuilds a Bloom filter over every user key currently in
// the memtable. A production engine would build one filter per table file
// at flush time; this facade has no table files, so it recomputes on
// demand purely to exercise FilterPolicy end to end.
func (e *Engine) currentFilter() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	var keys [][]byte
	it := e.mem.NewIterator()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keys = append(keys, append([]byte(nil), memtable.ExtractUserKey(it.InternalKey())...))
	}
	return e.filter.CreateFilter(keys)
}

// Close flushes and closes the active WAL segment.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seg.Close()
}
