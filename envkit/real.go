package envkit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/natefinch/atomic"
)

// Real implements FS against the actual filesystem.
type Real struct{}

// NewReal returns an FS backed by the os package.
func NewReal() *Real { return &Real{} }

func (r *Real) NewSequentialFile(path string) (SequentialFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &realSequentialFile{f: f}, nil
}

// realSequentialFile wraps *os.File to add Skip, completing the
// SequentialFile contract.
type realSequentialFile struct {
	f *os.File
}

func (s *realSequentialFile) Read(p []byte) (int, error) { return s.f.Read(p) }
func (s *realSequentialFile) Close() error                { return s.f.Close() }
func (s *realSequentialFile) Skip(n int64) error {
	_, err := s.f.Seek(n, os.SEEK_CUR)
	return err
}

func (r *Real) NewRandomAccessFile(path string) (RandomAccessFile, error) {
	return os.Open(path)
}

func (r *Real) NewWritableFile(path string) (WritableFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &realWritableFile{f: f}, nil
}

func (r *Real) NewAppendableFile(path string) (WritableFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &realWritableFile{f: f}, nil
}

func (r *Real) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *Real) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (r *Real) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (r *Real) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (r *Real) WriteFileAtomic(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// realWritableFile wraps an *os.File as a WritableFile. Flush is a no-op
// since os.File is unbuffered; it exists so callers can layer a bufio.Writer
// in front without changing the WritableFile contract.
type realWritableFile struct {
	f *os.File
}

func (w *realWritableFile) Write(p []byte) (int, error) { return w.f.Write(p) }
func (w *realWritableFile) Flush() error                { return nil }
func (w *realWritableFile) Sync() error                 { return w.f.Sync() }
func (w *realWritableFile) Close() error                { return w.f.Close() }

// realLock holds an exclusive advisory lock acquired with flock(2).
type realLock struct {
	f *os.File
}

func (l *realLock) Close() error {
	fd := int(l.f.Fd())
	unlockErr := flockRetryEINTR(fd, syscall.LOCK_UN)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlocking: %w", unlockErr)
	}
	return closeErr
}

// LockFile acquires a blocking exclusive lock on path, creating it if
// absent. It verifies the inode at path still matches the open descriptor
// after the flock call succeeds, retrying if the path was replaced in the
// meantime (e.g. by a concurrent opener racing the same check).
func (r *Real) LockFile(path string) (Locker, error) {
	for {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
		if err != nil {
			return nil, err
		}

		fd := int(f.Fd())
		if err := flockRetryEINTR(fd, syscall.LOCK_EX); err != nil {
			f.Close()
			return nil, err
		}

		match, err := inodeMatchesPath(path, f)
		if err != nil {
			flockRetryEINTR(fd, syscall.LOCK_UN)
			f.Close()
			return nil, err
		}
		if !match {
			flockRetryEINTR(fd, syscall.LOCK_UN)
			f.Close()
			continue
		}

		return &realLock{f: f}, nil
	}
}

func inodeMatchesPath(path string, f *os.File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}
	pathInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	openSys, ok1 := openInfo.Sys().(*syscall.Stat_t)
	pathSys, ok2 := pathInfo.Sys().(*syscall.Stat_t)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("envkit: unsupported platform for inode comparison")
	}
	return openSys.Dev == pathSys.Dev && openSys.Ino == pathSys.Ino, nil
}

// flockRetryEINTR retries flock when interrupted by a signal, which is not
// a real failure, just an incomplete syscall.
func flockRetryEINTR(fd int, how int) error {
	const maxEINTRRetries = 10000
	var err error
	for range maxEINTRRetries {
		err = syscall.Flock(fd, how)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}
	return err
}

var _ FS = (*Real)(nil)
