// Package walseg rotates the write-ahead log across a sequence of segment
// files instead of one unbounded file, while staying invisible to the
// wal.Writer sitting on top of it: Manager implements envkit.WritableFile,
// so wal.Writer fragments and frames records exactly as if it were talking
// to a single file.
//
// Rotation is deliberately naive compared to a real manifest-backed store
// (no compaction, no cross-segment garbage collection — see Non-goals):
// Manager exists to prove the wal package composes with something other
// than a single os.File, not to be a production segment store.
package walseg

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/kvforge/lsmstore/envkit"
	"github.com/kvforge/lsmstore/wal"
)

const (
	logFileExt  = ".log"
	currentFile = "CURRENT"
)

// Manager hands a wal.Writer a WritableFile that transparently rotates to
// a new segment file once at least maxSegmentBlocks wal.BlockSize blocks
// have been written to the active one. It only ever rotates on a Flush that
// finds the write position exactly on a block boundary, so a segment can
// grow past the budget until such a Flush happens, and it never splits a
// wal record across segment files.
type Manager struct {
	fs               envkit.FS
	dir              string
	maxSegmentBlocks int

	mu            sync.Mutex
	active        envkit.WritableFile
	activeID      int
	posInBlock    int64
	blocksWritten int
}

// NewManager creates dir if needed and opens the first segment file,
// segment-000001.log.
func NewManager(fs envkit.FS, dir string, maxSegmentBlocks int) (*Manager, error) {
	if maxSegmentBlocks < 1 {
		maxSegmentBlocks = 1
	}
	if err := fs.MkdirAll(dir); err != nil {
		return nil, err
	}
	m := &Manager{fs: fs, dir: dir, maxSegmentBlocks: maxSegmentBlocks}
	if err := m.rotate(); err != nil {
		return nil, err
	}
	return m, nil
}

// OpenManager resumes from the CURRENT marker left by a prior Manager,
// appending to whatever segment was active when it last rotated.
func OpenManager(fs envkit.FS, dir string, maxSegmentBlocks int) (*Manager, error) {
	if maxSegmentBlocks < 1 {
		maxSegmentBlocks = 1
	}
	markerPath := filepath.Join(dir, currentFile)
	if !fs.Exists(markerPath) {
		return NewManager(fs, dir, maxSegmentBlocks)
	}

	id, err := readMarker(fs, markerPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{fs: fs, dir: dir, maxSegmentBlocks: maxSegmentBlocks, activeID: id}
	f, err := fs.NewAppendableFile(m.idToPath(id))
	if err != nil {
		return nil, err
	}
	m.active = f
	return m, nil
}

func readMarker(fs envkit.FS, path string) (int, error) {
	f, err := fs.NewSequentialFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, err
	}
	var id int
	if _, err := fmt.Sscanf(string(data), "%d", &id); err != nil {
		return 0, fmt.Errorf("walseg: malformed CURRENT marker: %w", err)
	}
	return id, nil
}

// SegmentPaths returns the path of every segment from the first through
// the currently active one, in order — the sequence a WAL replay should
// open and read in turn.
func (m *Manager) SegmentPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, m.activeID)
	for i := 1; i <= m.activeID; i++ {
		paths[i-1] = m.idToPath(i)
	}
	return paths
}

func (m *Manager) idToPath(id int) string {
	return filepath.Join(m.dir, fmt.Sprintf("segment-%06d%s", id, logFileExt))
}

func (m *Manager) rotate() error {
	if m.active != nil {
		if err := m.active.Close(); err != nil {
			return err
		}
	}
	m.activeID++
	f, err := m.fs.NewWritableFile(m.idToPath(m.activeID))
	if err != nil {
		return err
	}
	m.active = f
	m.posInBlock = 0
	m.blocksWritten = 0
	marker := fmt.Sprintf("%d", m.activeID)
	return m.fs.WriteFileAtomic(filepath.Join(m.dir, currentFile), []byte(marker))
}

// Write implements envkit.WritableFile, forwarding to the active segment
// and tracking position within the current 32 KiB block.
func (m *Manager) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.active.Write(p)
	if err != nil {
		return n, err
	}
	m.posInBlock += int64(n)
	for m.posInBlock >= wal.BlockSize {
		m.posInBlock -= wal.BlockSize
		m.blocksWritten++
	}
	return n, nil
}

// Flush flushes the active segment, then rotates to a new segment file if
// the current one has reached its block budget and we are sitting exactly
// on a block boundary.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.active.Flush(); err != nil {
		return err
	}
	if m.posInBlock == 0 && m.blocksWritten >= m.maxSegmentBlocks {
		return m.rotate()
	}
	return nil
}

// Sync fsyncs the active segment.
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Sync()
}

// Close closes the active segment.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Close()
}

var _ envkit.WritableFile = (*Manager)(nil)
