// Package bloom implements the engine's Bloom filter policy, bit-exact to
// leveldb's "leveldb.BuiltinBloomFilter2" byte layout, plus a small
// admission-sketch doorkeeper used by the cache layer.
package bloom

import (
	"math"

	"github.com/kvforge/lsmstore/lhash"
	"github.com/kvforge/lsmstore/memtable"
)

const bloomSeed = 0xbc9f1d34

var _ memtable.FilterPolicy = (*FilterPolicy)(nil)

// FilterPolicy builds and probes a Bloom filter parameterized by the
// number of bits of filter space reserved per key.
type FilterPolicy struct {
	bitsPerKey int
	k          int
}

// New returns a FilterPolicy reserving bitsPerKey bits of filter space for
// each key it is asked to filter. The number of hash probes k is derived
// as clamp(round(bitsPerKey * ln2), 1, 30).
func New(bitsPerKey int) *FilterPolicy {
	k := int(math.Round(float64(bitsPerKey) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 30 {
		k = 30
	}
	return &FilterPolicy{bitsPerKey: bitsPerKey, k: k}
}

// Name identifies the on-disk encoding; it matches leveldb's name exactly
// so filters built by either implementation are byte-for-byte compatible.
func (p *FilterPolicy) Name() string { return "leveldb.BuiltinBloomFilter2" }

// CreateFilter builds a filter covering keys and returns its encoded bytes.
func (p *FilterPolicy) CreateFilter(keys [][]byte) []byte {
	bits := len(keys) * p.bitsPerKey
	if bits < 64 {
		bits = 64
	}
	bytes := (bits + 7) / 8
	bits = bytes * 8

	dst := make([]byte, bytes+1)
	dst[bytes] = byte(p.k)

	for _, key := range keys {
		h := lhash.Hash(key, bloomSeed)
		delta := (h >> 17) | (h << 15)
		for j := 0; j < p.k; j++ {
			bitpos := h % uint32(bits)
			dst[bitpos/8] |= 1 << (bitpos % 8)
			h += delta
		}
	}
	return dst
}

// KeyMayMatch reports whether key might be a member of the set that
// produced filter. False positives are possible; false negatives are not.
func (p *FilterPolicy) KeyMayMatch(key, filter []byte) bool {
	if len(filter) < 2 {
		return false
	}
	n := len(filter)
	bits := uint32(n-1) * 8

	k := int(filter[n-1])
	if k > 30 {
		// Reserved for future short-filter encodings; treat as a match.
		return true
	}

	h := lhash.Hash(key, bloomSeed)
	delta := (h >> 17) | (h << 15)
	for j := 0; j < k; j++ {
		bitpos := h % bits
		if filter[bitpos/8]&(1<<(bitpos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
