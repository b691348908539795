package memtable

import (
	"sync/atomic"

	"github.com/kvforge/lsmstore/arena"
	"github.com/kvforge/lsmstore/coding"
	"github.com/kvforge/lsmstore/comparator"
	"github.com/kvforge/lsmstore/skiplist"
)

// LookupResult classifies the outcome of Get.
type LookupResult int

const (
	Missing LookupResult = iota
	Found
	Deleted
)

// MemTable is a reference-counted, versioned in-memory table. Entries are
// length-prefixed internal-key/value blobs allocated from an arena and
// indexed by a skip list ordered on the internal-key portion of each blob.
type MemTable struct {
	icmp  *InternalKeyComparator
	arena *arena.Arena
	list  *skiplist.SkipList
	refs  atomic.Int32
}

// New returns a MemTable with one reference held by the caller.
func New(userCmp comparator.Comparator) *MemTable {
	icmp := NewInternalKeyComparator(userCmp)
	a := arena.New()
	m := &MemTable{
		icmp:  icmp,
		arena: a,
		list:  skiplist.New(func(x, y []byte) int { return icmp.Compare(internalKeyOf(x), internalKeyOf(y)) }),
	}
	m.refs.Store(1)
	return m
}

// Ref increments the reference count.
func (m *MemTable) Ref() { m.refs.Add(1) }

// Unref decrements the reference count. The memtable (and its arena, whose
// memory Go's GC reclaims once nothing references it any longer) becomes
// eligible for collection once the count reaches zero; callers must not
// use the memtable after their matching Unref.
func (m *MemTable) Unref() {
	if m.refs.Add(-1) < 0 {
		panic("memtable: Unref called more times than Ref")
	}
}

// internalKeyOf extracts the user_key||tag portion out of a full memtable
// entry (varint32(internal_key_len) || internal_key || varint32(value_len)
// || value), which is what the skip list's comparator and iterator operate
// on.
func internalKeyOf(entry []byte) []byte {
	klen, n, ok := coding.GetVarint32(entry)
	if !ok {
		panic("memtable: corrupt entry: bad internal key length prefix")
	}
	return entry[n : n+int(klen)]
}

// Add encodes (seq, typ, userKey, value) as an arena-backed entry and
// inserts it into the skip list. Multiple entries for the same user key
// with different sequence numbers coexist.
func (m *MemTable) Add(seq SequenceNumber, typ ValueType, userKey, value []byte) {
	keyLen := len(userKey) + 8
	valLen := len(value)

	encoded := make([]byte, 0, coding.VarintLength(uint64(keyLen))+keyLen+coding.VarintLength(uint64(valLen))+valLen)
	encoded = coding.PutVarint32(encoded, uint32(keyLen))
	encoded = append(encoded, userKey...)
	encoded = coding.PutFixed64(encoded, packTag(seq, typ))
	encoded = coding.PutVarint32(encoded, uint32(valLen))
	encoded = append(encoded, value...)

	buf := m.arena.Allocate(len(encoded))
	copy(buf, encoded)
	m.list.Insert(buf)
}

// Get looks up the newest entry for lookupKey.UserKey() with sequence <=
// the sequence encoded in lookupKey.
func (m *MemTable) Get(lk LookupKey) (value []byte, result LookupResult) {
	it := skiplist.NewIterator(m.list)
	it.Seek(lk.MemtableKey())
	if !it.Valid() {
		return nil, Missing
	}

	entry := it.Key()
	klen, n, ok := coding.GetVarint32(entry)
	if !ok {
		return nil, Missing
	}
	internalKey := entry[n : n+int(klen)]
	userKey := ExtractUserKey(internalKey)

	if m.icmp.UserComparator().Compare(userKey, lk.UserKey()) != 0 {
		return nil, Missing
	}

	tag := coding.DecodeFixed64(internalKey[len(internalKey)-8:])
	_, typ := unpackTag(tag)

	rest := entry[n+int(klen):]
	vlen, vn, ok := coding.GetVarint32(rest)
	if !ok {
		return nil, Missing
	}
	val := rest[vn : vn+int(vlen)]

	switch typ {
	case TypeValue:
		return val, Found
	case TypeDeletion:
		return nil, Deleted
	default:
		return nil, Missing
	}
}

// ApproximateMemoryUsage reports the arena's cumulative allocation size.
func (m *MemTable) ApproximateMemoryUsage() uint64 {
	return m.arena.MemoryUsage()
}

// Iterator walks a memtable's entries in internal-key order.
type Iterator struct {
	it *skiplist.Iterator
}

// NewIterator returns an Iterator over m.
func (m *MemTable) NewIterator() *Iterator {
	return &Iterator{it: skiplist.NewIterator(m.list)}
}

func (i *Iterator) Valid() bool      { return i.it.Valid() }
func (i *Iterator) SeekToFirst()     { i.it.SeekToFirst() }
func (i *Iterator) SeekToLast()      { i.it.SeekToLast() }
func (i *Iterator) Next()            { i.it.Next() }
func (i *Iterator) Prev()            { i.it.Prev() }

// Seek positions the iterator at the first entry whose memtable key is >=
// the one encoded in lk (i.e. the same seek lk.MemtableKey() would do
// through Get, but exposed for scanning).
func (i *Iterator) Seek(lk LookupKey) { i.it.Seek(lk.MemtableKey()) }

// InternalKey returns the user_key||tag portion of the current entry.
func (i *Iterator) InternalKey() []byte {
	entry := i.it.Key()
	klen, n, _ := coding.GetVarint32(entry)
	return entry[n : n+int(klen)]
}

// Value returns the value bytes of the current entry.
func (i *Iterator) Value() []byte {
	entry := i.it.Key()
	klen, n, _ := coding.GetVarint32(entry)
	rest := entry[n+int(klen):]
	vlen, vn, _ := coding.GetVarint32(rest)
	return rest[vn : vn+int(vlen)]
}
