package lrucache

// handleTable is an open-addressed bucket array of singly linked chains,
// the same structure leveldb's HandleTable uses instead of reaching for a
// generic hash map: the chain pointers live directly on each entry (field
// nextHash), so insert/lookup/remove touch no extra allocation.
type handleTable struct {
	list  []*entry
	elems int
}

func newHandleTable() *handleTable {
	t := &handleTable{}
	t.resize()
	return t
}

func (t *handleTable) lookup(key string, hash uint32) *entry {
	return *t.findPointer(key, hash)
}

// insert installs e, returning whatever entry previously occupied its
// (hash, key) slot so the caller can finish-erase it.
func (t *handleTable) insert(e *entry) *entry {
	ptr := t.findPointer(e.key, e.hash)
	old := *ptr
	if old != nil {
		e.nextHash = old.nextHash
	} else {
		e.nextHash = nil
	}
	*ptr = e
	if old == nil {
		t.elems++
		if t.elems > len(t.list) {
			t.resize()
		}
	}
	return old
}

func (t *handleTable) remove(key string, hash uint32) *entry {
	ptr := t.findPointer(key, hash)
	result := *ptr
	if result != nil {
		*ptr = result.nextHash
		t.elems--
	}
	return result
}

// findPointer returns the address of the slot that holds (or would hold)
// the entry for (key, hash): either the list bucket head, or some prior
// entry's nextHash field.
func (t *handleTable) findPointer(key string, hash uint32) **entry {
	ptr := &t.list[hash&uint32(len(t.list)-1)]
	for *ptr != nil && ((*ptr).hash != hash || (*ptr).key != key) {
		ptr = &(*ptr).nextHash
	}
	return ptr
}

func (t *handleTable) resize() {
	newLength := 4
	for newLength < t.elems {
		newLength *= 2
	}

	newList := make([]*entry, newLength)
	count := 0
	for _, head := range t.list {
		e := head
		for e != nil {
			next := e.nextHash
			idx := e.hash & uint32(newLength-1)
			e.nextHash = newList[idx]
			newList[idx] = e
			e = next
			count++
		}
	}
	t.list = newList
}
