package memtable

import (
	"testing"

	"github.com/kvforge/lsmstore/comparator"
	"github.com/stretchr/testify/require"
)

func encode(user string, seq SequenceNumber, typ ValueType) []byte {
	return AppendInternalKey(nil, ParsedInternalKey{UserKey: []byte(user), Sequence: seq, Type: typ})
}

func TestInternalKeyComparatorOrdersByUserKeyThenDescendingSeq(t *testing.T) {
	icmp := NewInternalKeyComparator(comparator.BytewiseComparator())

	require.Negative(t, icmp.Compare(encode("a", 1, TypeValue), encode("b", 1, TypeValue)))

	// Same user key: higher sequence sorts first (compares less).
	require.Negative(t, icmp.Compare(encode("a", 5, TypeValue), encode("a", 3, TypeValue)))
	require.Positive(t, icmp.Compare(encode("a", 3, TypeValue), encode("a", 5, TypeValue)))

	// Same user key and sequence: Value (1) sorts before Deletion (0).
	require.Negative(t, icmp.Compare(encode("a", 5, TypeValue), encode("a", 5, TypeDeletion)))

	require.Equal(t, 0, icmp.Compare(encode("a", 5, TypeValue), encode("a", 5, TypeValue)))
}

func TestInternalKeyFindShortSuccessorPreservesOrdering(t *testing.T) {
	icmp := NewInternalKeyComparator(comparator.BytewiseComparator())
	key := encode("abc", 10, TypeValue)
	succ := icmp.FindShortSuccessor(append([]byte{}, key...))
	require.True(t, icmp.Compare(key, succ) < 0)
}

func TestInternalFilterPolicyStripsTagBeforeDelegating(t *testing.T) {
	fake := &recordingPolicy{}
	wrapped := NewInternalFilterPolicy(fake)

	ik := encode("user-key", 1, TypeValue)
	wrapped.CreateFilter([][]byte{ik})
	require.Equal(t, [][]byte{[]byte("user-key")}, fake.created)

	wrapped.KeyMayMatch(ik, nil)
	require.Equal(t, "user-key", string(fake.matchedKey))
}

type recordingPolicy struct {
	created    [][]byte
	matchedKey []byte
}

func (p *recordingPolicy) Name() string { return "recording" }
func (p *recordingPolicy) CreateFilter(keys [][]byte) []byte {
	p.created = keys
	return nil
}
func (p *recordingPolicy) KeyMayMatch(key, filter []byte) bool {
	p.matchedKey = key
	return true
}
