// Package memtable provides the internal-key encoding and the skip-list-
// backed, versioned in-memory table built on top of it.
package memtable

import (
	"fmt"

	"github.com/kvforge/lsmstore/coding"
)

// ValueType distinguishes a live value from a tombstone within the internal
// key's tag.
type ValueType uint8

const (
	TypeDeletion ValueType = 0x0
	TypeValue    ValueType = 0x1

	// ValueTypeForSeek is attached to sentinel internal keys built for
	// seeking: it is the largest type value actually used, so a lookup key
	// built with it and the maximum sequence number sorts before any real
	// entry sharing the same user key.
	ValueTypeForSeek = TypeValue
)

// SequenceNumber is a 56-bit monotonically assigned write version. 0 is
// reserved as the "no sequence yet" sentinel by convention of callers.
type SequenceNumber uint64

// MaxSequenceNumber is the largest representable sequence number, (1<<56)-1.
const MaxSequenceNumber SequenceNumber = (1 << 56) - 1

// packTag combines a sequence number and a value type into the 8-byte tag
// appended to every internal key: the sequence occupies the high 56 bits,
// the type the low 8.
func packTag(seq SequenceNumber, t ValueType) uint64 {
	return (uint64(seq) << 8) | uint64(t)
}

func unpackTag(tag uint64) (SequenceNumber, ValueType) {
	return SequenceNumber(tag >> 8), ValueType(tag & 0xff)
}

// ParsedInternalKey is the decoded form of an internal key: a user key plus
// its sequence number and value type.
type ParsedInternalKey struct {
	UserKey  []byte
	Sequence SequenceNumber
	Type     ValueType
}

// InternalKeyEncodingLength returns the byte length AppendInternalKey would
// produce for key.
func InternalKeyEncodingLength(key ParsedInternalKey) int {
	return len(key.UserKey) + 8
}

// AppendInternalKey appends the encoded form of key (user_key || tag) to
// dst and returns the extended slice.
func AppendInternalKey(dst []byte, key ParsedInternalKey) []byte {
	dst = append(dst, key.UserKey...)
	dst = coding.PutFixed64(dst, packTag(key.Sequence, key.Type))
	return dst
}

// ParseInternalKey decodes internalKey (user_key || tag) into its parts. ok
// is false if internalKey is too short to hold a tag or the tag's type byte
// is out of range.
func ParseInternalKey(internalKey []byte) (parsed ParsedInternalKey, ok bool) {
	n := len(internalKey)
	if n < 8 {
		return ParsedInternalKey{}, false
	}
	tag := coding.DecodeFixed64(internalKey[n-8:])
	seq, typ := unpackTag(tag)
	if typ > TypeValue {
		return ParsedInternalKey{}, false
	}
	return ParsedInternalKey{
		UserKey:  internalKey[:n-8],
		Sequence: seq,
		Type:     typ,
	}, true
}

// ExtractUserKey strips the 8-byte tag off an internal key.
func ExtractUserKey(internalKey []byte) []byte {
	n := len(internalKey)
	if n < 8 {
		panic(fmt.Sprintf("memtable: internal key too short: %d bytes", n))
	}
	return internalKey[:n-8]
}
