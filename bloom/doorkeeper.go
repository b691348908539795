package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/kvforge/lsmstore/lhash"
)

// Doorkeeper is a small admission sketch: it tracks which keys have been
// seen before, so a caller (the cache layer) can require a key be observed
// twice before it earns cache space. Unlike FilterPolicy it is not
// serialized to disk; it exists purely as an in-memory gate and is safe
// for concurrent use.
type Doorkeeper struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	size uint
}

// NewDoorkeeper returns a Doorkeeper backed by a bit array sized for
// roughly expectedKeys entries at a low false-positive rate.
func NewDoorkeeper(expectedKeys int) *Doorkeeper {
	size := uint(expectedKeys * 8)
	if size < 1024 {
		size = 1024
	}
	return &Doorkeeper{bits: bitset.New(size), size: size}
}

// Seen reports whether key has been observed before, and records it as
// seen for future calls. The first call for a given key returns false;
// subsequent calls return true (modulo the sketch's false-positive rate).
func (d *Doorkeeper) Seen(key []byte) bool {
	positions := d.positions(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	alreadySet := true
	for _, p := range positions {
		if !d.bits.Test(p) {
			alreadySet = false
		}
		d.bits.Set(p)
	}
	return alreadySet
}

// Reset clears every bit, forgetting every key seen so far.
func (d *Doorkeeper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bits.ClearAll()
}

func (d *Doorkeeper) positions(key []byte) [2]uint {
	h1 := lhash.Hash(key, 0x9e3779b9)
	h2 := lhash.Hash(key, 0x85ebca6b)
	return [2]uint{uint(h1) % d.size, uint(h2) % d.size}
}
