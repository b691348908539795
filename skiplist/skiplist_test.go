package skiplist

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func bytewise(a, b []byte) int { return bytes.Compare(a, b) }

func TestInsertAndContains(t *testing.T) {
	l := New(bytewise)
	require.False(t, l.Contains([]byte("a")))

	l.Insert([]byte("b"))
	l.Insert([]byte("a"))
	l.Insert([]byte("c"))

	require.True(t, l.Contains([]byte("a")))
	require.True(t, l.Contains([]byte("b")))
	require.True(t, l.Contains([]byte("c")))
	require.False(t, l.Contains([]byte("d")))
}

func TestIteratorWalksInOrder(t *testing.T) {
	l := New(bytewise)
	keys := []string{"m", "a", "z", "f", "c"}
	for _, k := range keys {
		l.Insert([]byte(k))
	}

	it := NewIterator(l)
	it.SeekToFirst()
	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.Equal(t, []string{"a", "c", "f", "m", "z"}, got)
}

func TestIteratorSeekAndPrev(t *testing.T) {
	l := New(bytewise)
	for _, k := range []string{"a", "c", "e", "g"} {
		l.Insert([]byte(k))
	}

	it := NewIterator(l)
	it.Seek([]byte("d"))
	require.True(t, it.Valid())
	require.Equal(t, "e", string(it.Key()))

	it.Prev()
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))

	it.Prev()
	require.True(t, it.Valid())
	require.Equal(t, "a", string(it.Key()))

	it.Prev()
	require.False(t, it.Valid())
}

func TestIteratorSeekToLast(t *testing.T) {
	l := New(bytewise)
	for _, k := range []string{"a", "b", "c"} {
		l.Insert([]byte(k))
	}
	it := NewIterator(l)
	it.SeekToLast()
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))
}

func TestSeekPastEndIsInvalid(t *testing.T) {
	l := New(bytewise)
	l.Insert([]byte("a"))
	it := NewIterator(l)
	it.Seek([]byte("z"))
	require.False(t, it.Valid())
}

func TestConcurrentReadsDuringInsert(t *testing.T) {
	l := New(bytewise)
	const n = 2000
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			for j := 0; j < 4; j++ {
				it := NewIterator(l)
				it.SeekToFirst()
				for it.Valid() {
					it.Next()
				}
			}
		}
	}()

	for i := 0; i < n; i++ {
		l.Insert([]byte(fmt.Sprintf("key-%05d", i)))
	}
	<-done

	for i := 0; i < n; i++ {
		require.True(t, l.Contains([]byte(fmt.Sprintf("key-%05d", i))))
	}
}

func TestRandomInsertOrderProducesSortedIteration(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	n := 500
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%08d", i)
	}
	shuffled := append([]string(nil), keys...)
	rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	l := New(bytewise)
	for _, k := range shuffled {
		l.Insert([]byte(k))
	}

	it := NewIterator(l)
	it.SeekToFirst()
	i := 0
	for it.Valid() {
		require.Equal(t, keys[i], string(it.Key()))
		it.Next()
		i++
	}
	require.Equal(t, n, i)
}
