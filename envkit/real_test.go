package envkit

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWritableFileWritesAndSyncs(t *testing.T) {
	env := NewReal()
	path := filepath.Join(t.TempDir(), "out.log")

	w, err := env.NewWritableFile(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	data, err := io.ReadAll(mustOpen(t, env, path))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestAppendableFileAppends(t *testing.T) {
	env := NewReal()
	path := filepath.Join(t.TempDir(), "out.log")

	w, err := env.NewWritableFile(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	a, err := env.NewAppendableFile(path)
	require.NoError(t, err)
	_, err = a.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	data, err := io.ReadAll(mustOpen(t, env, path))
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(data))
}

func TestExistsAndRemove(t *testing.T) {
	env := NewReal()
	path := filepath.Join(t.TempDir(), "f")
	require.False(t, env.Exists(path))

	w, err := env.NewWritableFile(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.True(t, env.Exists(path))

	require.NoError(t, env.Remove(path))
	require.False(t, env.Exists(path))
	require.NoError(t, env.Remove(path)) // removing twice is not an error
}

func TestWriteFileAtomicReplacesContents(t *testing.T) {
	env := NewReal()
	path := filepath.Join(t.TempDir(), "atomic")

	require.NoError(t, env.WriteFileAtomic(path, []byte("v1")))
	require.NoError(t, env.WriteFileAtomic(path, []byte("v2")))

	data, err := io.ReadAll(mustOpen(t, env, path))
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestLockFileCanBeReacquiredAfterRelease(t *testing.T) {
	env := NewReal()
	path := filepath.Join(t.TempDir(), "LOCK")

	lock, err := env.LockFile(path)
	require.NoError(t, err)
	require.NoError(t, lock.Close())

	lock2, err := env.LockFile(path)
	require.NoError(t, err)
	require.NoError(t, lock2.Close())
}

func TestSystemClockSleepBlocksForAtLeastTheRequestedDuration(t *testing.T) {
	clock := NewSystemClock()
	start := clock.Now()
	clock.Sleep(1000) // 1ms
	require.GreaterOrEqual(t, clock.Now().Sub(start), time.Millisecond)
}

func TestSchedulerRunsScheduledWork(t *testing.T) {
	s := NewScheduler(2)
	var wg sync.WaitGroup
	wg.Add(1)
	var ran bool
	s.Schedule(func(arg any) {
		ran = arg.(bool)
		wg.Done()
	}, true)
	wg.Wait()
	require.True(t, ran)
}

func TestSchedulerRunsStartThreadWork(t *testing.T) {
	s := NewScheduler(1)
	done := make(chan struct{})
	s.StartThread(func(arg any) { close(done) }, nil)
	<-done
}

func mustOpen(t *testing.T, env FS, path string) SequentialFile {
	t.Helper()
	f, err := env.NewSequentialFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
