// Package coding provides the fixed-width and variable-width integer
// encoders the rest of the engine builds its on-disk and in-arena formats
// on top of, plus the CRC32C masking transform used by the write-ahead log.
//
// The variable-length encoding is the standard base-128 varint: each byte's
// top bit marks continuation, the low 7 bits carry payload, least
// significant group first.
package coding

import (
	"encoding/binary"
	"hash/crc32"
)

// castagnoli is the CRC32C polynomial table; the stdlib ships it directly,
// so there is no third-party CRC32C implementation to reach for.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ChecksumCRC32C returns the unmasked CRC32C of data.
func ChecksumCRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// ExtendCRC32C continues a CRC32C computation: ExtendCRC32C(crc, more) is
// the CRC32C of whatever bytes produced crc, followed by more. This lets a
// caller precompute the checksum of a fixed prefix (the log writer does
// this once per record type) and cheaply extend it per record.
func ExtendCRC32C(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, castagnoli, data)
}

const maskDelta = 0xa282ead8

// MaskCRC32C applies the log format's masking transform so that it is
// not possible to compute the CRC of data containing an embedded CRC.
func MaskCRC32C(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// UnmaskCRC32C reverses MaskCRC32C.
func UnmaskCRC32C(masked uint32) uint32 {
	rot := masked - maskDelta
	return (rot >> 17) | (rot << 15)
}

// PutFixed32 appends a little-endian uint32 to dst.
func PutFixed32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// PutFixed64 appends a little-endian uint64 to dst.
func PutFixed64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// DecodeFixed32 reads a little-endian uint32 from the front of b.
func DecodeFixed32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// DecodeFixed64 reads a little-endian uint64 from the front of b.
func DecodeFixed64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// VarintLength returns the number of bytes PutVarint64 would append.
func VarintLength(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// PutVarint32 appends a base-128 varint encoding of v to dst.
func PutVarint32(dst []byte, v uint32) []byte {
	return PutVarint64(dst, uint64(v))
}

// PutVarint64 appends a base-128 varint encoding of v to dst.
func PutVarint64(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// GetVarint32 decodes a varint32 from the front of b, returning the value
// and the number of bytes consumed, or ok=false if b does not contain a
// complete, in-range varint.
func GetVarint32(b []byte) (v uint32, n int, ok bool) {
	val, m, good := GetVarint64(b)
	if !good || val > 0xffffffff {
		return 0, 0, false
	}
	return uint32(val), m, true
}

// GetVarint64 decodes a varint64 from the front of b.
func GetVarint64(b []byte) (v uint64, n int, ok bool) {
	val, m := binary.Uvarint(b)
	if m <= 0 {
		return 0, 0, false
	}
	return val, m, true
}
