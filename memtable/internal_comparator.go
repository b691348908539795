package memtable

import (
	"github.com/kvforge/lsmstore/coding"
	"github.com/kvforge/lsmstore/comparator"
)

// InternalKeyComparator orders internal keys (user_key || tag) ascending by
// the user comparator, and for equal user keys, descending by tag: higher
// sequence numbers sort first, and for equal sequence, Value sorts before
// Deletion. This makes a seek for (user_key, S) land on the newest entry
// with sequence <= S.
type InternalKeyComparator struct {
	userCmp comparator.Comparator
}

// NewInternalKeyComparator wraps a user comparator for internal-key
// ordering.
func NewInternalKeyComparator(userCmp comparator.Comparator) *InternalKeyComparator {
	return &InternalKeyComparator{userCmp: userCmp}
}

// UserComparator returns the wrapped user-key comparator.
func (c *InternalKeyComparator) UserComparator() comparator.Comparator { return c.userCmp }

func (c *InternalKeyComparator) Name() string { return "leveldb.InternalKeyComparator" }

func (c *InternalKeyComparator) Compare(a, b []byte) int {
	if r := c.userCmp.Compare(ExtractUserKey(a), ExtractUserKey(b)); r != 0 {
		return r
	}
	aTag := coding.DecodeFixed64(a[len(a)-8:])
	bTag := coding.DecodeFixed64(b[len(b)-8:])
	switch {
	case aTag > bTag:
		return -1
	case aTag < bTag:
		return 1
	default:
		return 0
	}
}

func (c *InternalKeyComparator) FindShortestSeparator(start, limit []byte) []byte {
	userStart := ExtractUserKey(start)
	userLimit := ExtractUserKey(limit)
	shortened := c.userCmp.FindShortestSeparator(userStart, userLimit)
	if len(shortened) < len(userStart) && c.userCmp.Compare(userStart, shortened) < 0 {
		return appendSentinelTag(shortened)
	}
	return start
}

func (c *InternalKeyComparator) FindShortSuccessor(key []byte) []byte {
	userKey := ExtractUserKey(key)
	shortened := c.userCmp.FindShortSuccessor(userKey)
	if len(shortened) < len(userKey) && c.userCmp.Compare(userKey, shortened) < 0 {
		return appendSentinelTag(shortened)
	}
	return key
}

// appendSentinelTag reattaches the maximal (sequence, type) tag so a
// shortened user key still sorts strictly before any real internal key
// sharing that user key.
func appendSentinelTag(userKey []byte) []byte {
	return coding.PutFixed64(append([]byte{}, userKey...), packTag(MaxSequenceNumber, ValueTypeForSeek))
}

// InternalFilterPolicy adapts a user-key FilterPolicy to operate over
// internal keys by stripping the tag before delegating.
type InternalFilterPolicy struct {
	user FilterPolicy
}

// FilterPolicy is the minimal contract §4.7's Bloom filter implements: this
// package only needs to strip internal-key tags before delegating, so it
// depends on this narrow interface rather than the bloom package directly.
type FilterPolicy interface {
	Name() string
	CreateFilter(keys [][]byte) []byte
	KeyMayMatch(key, filter []byte) bool
}

// NewInternalFilterPolicy wraps a user-key filter policy for use with
// internal keys.
func NewInternalFilterPolicy(user FilterPolicy) *InternalFilterPolicy {
	return &InternalFilterPolicy{user: user}
}

func (p *InternalFilterPolicy) Name() string { return p.user.Name() }

func (p *InternalFilterPolicy) CreateFilter(keys [][]byte) []byte {
	userKeys := make([][]byte, len(keys))
	for i, k := range keys {
		userKeys[i] = ExtractUserKey(k)
	}
	return p.user.CreateFilter(userKeys)
}

func (p *InternalFilterPolicy) KeyMayMatch(key, filter []byte) bool {
	return p.user.KeyMayMatch(ExtractUserKey(key), filter)
}
