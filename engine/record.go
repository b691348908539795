package engine

import (
	"github.com/kvforge/lsmstore/coding"
	"github.com/kvforge/lsmstore/memtable"
)

// encodeWALRecord packs one memtable mutation as a WAL payload:
// fixed64(seq) || type(1) || varint32(keyLen) || key || varint32(valueLen) || value.
func encodeWALRecord(seq uint64, typ memtable.ValueType, key, value []byte) []byte {
	dst := make([]byte, 0, 8+1+coding.VarintLength(uint64(len(key)))+len(key)+coding.VarintLength(uint64(len(value)))+len(value))
	dst = coding.PutFixed64(dst, seq)
	dst = append(dst, byte(typ))
	dst = coding.PutVarint32(dst, uint32(len(key)))
	dst = append(dst, key...)
	dst = coding.PutVarint32(dst, uint32(len(value)))
	dst = append(dst, value...)
	return dst
}

// decodeWALRecord reverses encodeWALRecord. ok is false for a malformed
// record, which the caller treats the same as any other WAL-level
// corruption: skip it and keep replaying.
func decodeWALRecord(rec []byte) (seq uint64, typ memtable.ValueType, key, value []byte, ok bool) {
	if len(rec) < 9 {
		return 0, 0, nil, nil, false
	}
	seq = coding.DecodeFixed64(rec)
	typ = memtable.ValueType(rec[8])
	rest := rec[9:]

	keyLen, n, good := coding.GetVarint32(rest)
	if !good || n+int(keyLen) > len(rest) {
		return 0, 0, nil, nil, false
	}
	key = rest[n : n+int(keyLen)]
	rest = rest[n+int(keyLen):]

	valLen, n, good := coding.GetVarint32(rest)
	if !good || n+int(valLen) > len(rest) {
		return 0, 0, nil, nil, false
	}
	value = rest[n : n+int(valLen)]
	return seq, typ, key, value, true
}
