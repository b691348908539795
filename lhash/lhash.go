// Package lhash provides the murmur-like hash function shared by the Bloom
// filter and the sharded cache's hash table, so both pick shards/bits off
// the same well-distributed 32-bit value.
package lhash

import "encoding/binary"

// Hash computes a 32-bit hash of data seeded with seed. It processes data
// four bytes at a time and folds in any trailing 1-3 bytes, matching the
// classic murmur2-style mixing leveldb uses for both its Bloom filter and
// its block hash index.
func Hash(data []byte, seed uint32) uint32 {
	const m = 0xc6a4a793
	const r = 24

	h := seed ^ (uint32(len(data)) * m)

	for len(data) >= 4 {
		w := binary.LittleEndian.Uint32(data)
		data = data[4:]
		h += w
		h *= m
		h ^= h >> 16
	}

	switch len(data) {
	case 3:
		h += uint32(data[2]) << 16
		fallthrough
	case 2:
		h += uint32(data[1]) << 8
		fallthrough
	case 1:
		h += uint32(data[0])
		h *= m
		h ^= h >> r
	}
	return h
}
