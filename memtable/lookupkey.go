package memtable

import "github.com/kvforge/lsmstore/coding"

// LookupKey packages a user key and a sequence number the way a memtable
// lookup needs them: a varint32-length-prefixed internal key, so the same
// buffer can serve as a memtable key (for seeking the skip list), an
// internal key (user key + tag), or just the user key.
type LookupKey struct {
	buf      []byte
	keyStart int // offset where the internal key (user key || tag) begins
}

// NewLookupKey builds a LookupKey for userKey at seq, seeking for the
// newest entry with sequence <= seq (ValueTypeForSeek sentinel type).
func NewLookupKey(userKey []byte, seq SequenceNumber) LookupKey {
	internalLen := len(userKey) + 8
	buf := coding.PutVarint32(make([]byte, 0, 5+internalLen), uint32(internalLen))
	keyStart := len(buf)
	buf = AppendInternalKey(buf, ParsedInternalKey{
		UserKey:  userKey,
		Sequence: seq,
		Type:     ValueTypeForSeek,
	})
	return LookupKey{buf: buf, keyStart: keyStart}
}

// MemtableKey returns the full varint32(len) || internal_key encoding, the
// form the skip list indexes memtable entries by.
func (lk LookupKey) MemtableKey() []byte { return lk.buf }

// InternalKey returns the user_key || tag encoding.
func (lk LookupKey) InternalKey() []byte { return lk.buf[lk.keyStart:] }

// UserKey returns just the user key portion.
func (lk LookupKey) UserKey() []byte { return lk.buf[lk.keyStart : len(lk.buf)-8] }
