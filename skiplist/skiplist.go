// Package skiplist implements the single-writer, multiple-concurrent-reader
// ordered skip list the memtable indexes its entries with. Insert requires
// external synchronization against other Inserts, but any number of readers
// may run concurrently with a single in-flight Insert without locking,
// relying on the acquire/release ordering documented on node.Next and
// node.SetNext.
package skiplist

import (
	"sync/atomic"

	"github.com/kvforge/lsmstore/lrand"
)

const (
	maxHeight = 12
	branching = 4
)

// Comparator orders two keys the same way bytes.Compare does: <0, 0, or >0.
type Comparator func(a, b []byte) int

type node struct {
	key  []byte
	next [maxHeight]atomic.Pointer[node]
}

// Next returns the successor at level. Backed by atomic.Pointer.Load, which
// provides acquire semantics: everything the writer did before publishing
// this node via SetNext is visible to the reader once it observes the new
// pointer.
func (n *node) Next(level int) *node {
	return n.next[level].Load()
}

// SetNext publishes x as the successor at level with release semantics.
func (n *node) SetNext(level int, x *node) {
	n.next[level].Store(x)
}

// SkipList is an ordered set of distinct byte-slice keys.
type SkipList struct {
	compare   Comparator
	head      *node
	maxHeight atomic.Int32
	rnd       *lrand.Random
}

// New returns an empty SkipList ordered by cmp. Keys passed to Insert are
// not copied by the skip list itself; callers that need the key's bytes to
// outlive their own buffer should allocate them from an arena first (the
// memtable package does this).
func New(cmp Comparator) *SkipList {
	l := &SkipList{
		compare: cmp,
		head:    &node{},
		rnd:     lrand.New(0xdeadbeef),
	}
	l.maxHeight.Store(1)
	return l
}

func (l *SkipList) getMaxHeight() int {
	return int(l.maxHeight.Load())
}

func (l *SkipList) randomHeight() int {
	height := 1
	for height < maxHeight && l.rnd.OneIn(branching) {
		height++
	}
	return height
}

func (l *SkipList) keyIsAfterNode(key []byte, n *node) bool {
	return n != nil && l.compare(n.key, key) < 0
}

// findGreaterOrEqual returns the first node whose key is >= key, or nil if
// none exists. When prev is non-nil, prev[level] is set to the last node
// visited at each level before descending, for use as an Insert splice
// point.
func (l *SkipList) findGreaterOrEqual(key []byte, prev []*node) *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.Next(level)
		if l.keyIsAfterNode(key, next) {
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return next
		}
		level--
	}
}

func (l *SkipList) findLessThan(key []byte) *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.Next(level)
		if next == nil || l.compare(next.key, key) >= 0 {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}

func (l *SkipList) findLast() *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.Next(level)
		if next == nil {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}

// Insert adds key to the list. The caller must ensure key does not already
// compare equal to an existing entry and must not call Insert concurrently
// with any other Insert.
func (l *SkipList) Insert(key []byte) {
	var prev [maxHeight]*node
	x := l.findGreaterOrEqual(key, prev[:])

	height := l.randomHeight()
	if cur := l.getMaxHeight(); height > cur {
		for i := cur; i < height; i++ {
			prev[i] = l.head
		}
		// No synchronization needed: a concurrent reader that observes the
		// new height before this node is linked in just falls through to
		// nil at that level, which every comparator treats as "greater
		// than all keys", so findGreaterOrEqual keeps descending correctly.
		l.maxHeight.Store(int32(height))
	}

	x = &node{key: key}
	for i := 0; i < height; i++ {
		x.next[i].Store(prev[i].Next(i))
		prev[i].SetNext(i, x)
	}
}

// Contains reports whether an entry comparing equal to key is present.
func (l *SkipList) Contains(key []byte) bool {
	x := l.findGreaterOrEqual(key, nil)
	return x != nil && l.compare(key, x.key) == 0
}

// Iterator walks the list in key order. A zero-value Iterator is invalid
// until one of Seek, SeekToFirst, or SeekToLast is called.
type Iterator struct {
	list *SkipList
	node *node
}

// NewIterator returns an Iterator over l. Safe to use concurrently with at
// most one in-flight Insert on l.
func NewIterator(l *SkipList) *Iterator {
	return &Iterator{list: l}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool { return it.node != nil }

// Key returns the key at the iterator's current position. Valid must be
// true.
func (it *Iterator) Key() []byte { return it.node.key }

// Next advances to the next entry. Valid must be true.
func (it *Iterator) Next() { it.node = it.node.Next(0) }

// Prev moves to the previous entry. Valid must be true.
func (it *Iterator) Prev() {
	it.node = it.list.findLessThan(it.node.key)
	if it.node == it.list.head {
		it.node = nil
	}
}

// Seek positions the iterator at the first entry >= target.
func (it *Iterator) Seek(target []byte) {
	it.node = it.list.findGreaterOrEqual(target, nil)
}

// SeekToFirst positions the iterator at the first entry in the list.
func (it *Iterator) SeekToFirst() {
	it.node = it.list.head.Next(0)
}

// SeekToLast positions the iterator at the last entry in the list.
func (it *Iterator) SeekToLast() {
	it.node = it.list.findLast()
	if it.node == it.list.head {
		it.node = nil
	}
}
