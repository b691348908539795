package walseg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvforge/lsmstore/envkit"
	"github.com/kvforge/lsmstore/wal"
)

func TestNewManagerCreatesFirstSegment(t *testing.T) {
	env := envkit.NewReal()
	dir := t.TempDir()

	m, err := NewManager(env, dir, 1)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, 1, m.activeID)
	require.True(t, env.Exists(m.idToPath(1)))
}

func TestWriteRotatesOnlyOnBlockBoundary(t *testing.T) {
	env := envkit.NewReal()
	dir := t.TempDir()

	m, err := NewManager(env, dir, 1)
	require.NoError(t, err)
	defer m.Close()

	// Write less than a full block; must not rotate even after Flush.
	_, err = m.Write(make([]byte, wal.BlockSize-100))
	require.NoError(t, err)
	require.NoError(t, m.Flush())
	require.Equal(t, 1, m.activeID)

	// Completing the block (and crossing the one-block budget) rotates.
	_, err = m.Write(make([]byte, 100))
	require.NoError(t, err)
	require.NoError(t, m.Flush())
	require.Equal(t, 2, m.activeID)
}

func TestSegmentPathsListsInOrder(t *testing.T) {
	env := envkit.NewReal()
	dir := t.TempDir()

	m, err := NewManager(env, dir, 1)
	require.NoError(t, err)
	defer m.Close()

	_, _ = m.Write(make([]byte, wal.BlockSize))
	require.NoError(t, m.Flush())
	_, _ = m.Write(make([]byte, wal.BlockSize))
	require.NoError(t, m.Flush())

	paths := m.SegmentPaths()
	require.Len(t, paths, 3)
	require.Equal(t, m.idToPath(1), paths[0])
	require.Equal(t, m.idToPath(3), paths[2])
}

func TestOpenManagerResumesActiveSegment(t *testing.T) {
	env := envkit.NewReal()
	dir := t.TempDir()

	m1, err := NewManager(env, dir, 1)
	require.NoError(t, err)
	_, err = m1.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, m1.Flush())
	require.NoError(t, m1.Close())

	m2, err := OpenManager(env, dir, 1)
	require.NoError(t, err)
	defer m2.Close()
	require.Equal(t, m1.activeID, m2.activeID)

	_, err = m2.Write([]byte(" world"))
	require.NoError(t, err)
	require.NoError(t, m2.Flush())
	require.NoError(t, m2.Sync())

	f, err := env.NewSequentialFile(m2.idToPath(m2.activeID))
	require.NoError(t, err)
	defer f.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(f)
	require.NoError(t, err)
	require.Equal(t, "hello world", buf.String())
}

func TestWalWriterWorksAtopManager(t *testing.T) {
	env := envkit.NewReal()
	dir := t.TempDir()

	m, err := NewManager(env, dir, 4)
	require.NoError(t, err)
	defer m.Close()

	w := wal.NewWriter(m)
	require.NoError(t, w.AddRecord([]byte("first record")))
	require.NoError(t, w.AddRecord([]byte("second record")))

	f, err := env.NewSequentialFile(m.idToPath(1))
	require.NoError(t, err)
	defer f.Close()

	r := wal.NewReader(f, nil, true, 0)
	rec1, ok := r.ReadRecord()
	require.True(t, ok)
	require.Equal(t, "first record", string(rec1))

	rec2, ok := r.ReadRecord()
	require.True(t, ok)
	require.Equal(t, "second record", string(rec2))
}
