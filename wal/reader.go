package wal

import (
	"io"

	"github.com/kvforge/lsmstore/coding"
	"github.com/kvforge/lsmstore/envkit"
	"github.com/kvforge/lsmstore/status"
)

// Reporter receives corruption notices from a Reader. Bytes is the
// approximate number of bytes dropped because of the corruption.
type Reporter interface {
	Corruption(bytes int, reason status.Status)
}

const (
	recordTypeEOF       = int(maxRecordType) + 1
	recordTypeBadRecord = int(maxRecordType) + 2
)

// Reader reassembles logical records out of a sequential file's physical
// block framing. Reader is single-threaded.
type Reader struct {
	file     envkit.SequentialFile
	reporter Reporter
	checksum bool

	buffer          []byte
	backingStore    []byte
	eof             bool
	lastRecordOffset  int64
	endOfBufferOffset int64
	initialOffset     int64
	resyncing         bool
}

// NewReader returns a Reader that begins at or after initialOffset in
// file. If reporter is non-nil, corruption is reported to it as the reader
// encounters and skips it. If checksum is true, CRCs are validated.
func NewReader(file envkit.SequentialFile, reporter Reporter, checksum bool, initialOffset int64) *Reader {
	return &Reader{
		file:          file,
		reporter:      reporter,
		checksum:      checksum,
		backingStore:  make([]byte, BlockSize),
		initialOffset: initialOffset,
		resyncing:     initialOffset > 0,
	}
}

// LastRecordOffset reports the file offset at which the most recently
// returned logical record began.
func (r *Reader) LastRecordOffset() int64 { return r.lastRecordOffset }

func (r *Reader) skipToInitialBlock() bool {
	offsetInBlock := r.initialOffset % BlockSize
	blockStart := r.initialOffset - offsetInBlock

	if offsetInBlock > BlockSize-6 {
		blockStart += BlockSize
	}
	r.endOfBufferOffset = blockStart

	if blockStart > 0 {
		if err := r.file.Skip(blockStart); err != nil {
			r.reportDrop(blockStart, status.NewIOError(err.Error()))
			return false
		}
	}
	return true
}

// ReadRecord returns the next logical record, or ok=false at end of file.
func (r *Reader) ReadRecord() (record []byte, ok bool) {
	if r.lastRecordOffset < r.initialOffset {
		if !r.skipToInitialBlock() {
			return nil, false
		}
	}

	var scratch []byte
	inFragmentedRecord := false
	var prospectiveOffset int64

	for {
		fragment, recordType, physicalOffset := r.readPhysicalRecord()

		if r.resyncing {
			switch recordType {
			case int(MiddleType):
				continue
			case int(LastType):
				r.resyncing = false
				continue
			default:
				r.resyncing = false
			}
		}

		switch recordType {
		case int(FullType):
			if inFragmentedRecord && len(scratch) != 0 {
				r.reportCorruption(len(scratch), "partial record without end(1)")
			}
			prospectiveOffset = physicalOffset
			scratch = nil
			r.lastRecordOffset = prospectiveOffset
			return fragment, true

		case int(FirstType):
			if inFragmentedRecord && len(scratch) != 0 {
				r.reportCorruption(len(scratch), "partial record without end(2)")
			}
			prospectiveOffset = physicalOffset
			scratch = append([]byte(nil), fragment...)
			inFragmentedRecord = true

		case int(MiddleType):
			if !inFragmentedRecord {
				r.reportCorruption(len(fragment), "missing start of fragmented record(1)")
			} else {
				scratch = append(scratch, fragment...)
			}

		case int(LastType):
			if !inFragmentedRecord {
				r.reportCorruption(len(fragment), "missing start of fragmented record(2)")
			} else {
				scratch = append(scratch, fragment...)
				r.lastRecordOffset = prospectiveOffset
				return scratch, true
			}

		case recordTypeEOF:
			if inFragmentedRecord {
				// The writer likely died mid-record; this is not corruption.
				scratch = nil
			}
			return nil, false

		case recordTypeBadRecord:
			if inFragmentedRecord {
				r.reportCorruption(len(scratch), "error in middle of record")
				inFragmentedRecord = false
				scratch = nil
			}

		default:
			r.reportCorruption(len(fragment)+condLen(inFragmentedRecord, len(scratch)), "unknown record type")
			inFragmentedRecord = false
			scratch = nil
		}
	}
}

func condLen(b bool, n int) int {
	if b {
		return n
	}
	return 0
}

func (r *Reader) reportCorruption(bytes int, reason string) {
	r.reportDrop(int64(bytes), status.NewCorruption(reason))
}

func (r *Reader) reportDrop(bytes int64, reason status.Status) {
	if r.reporter != nil && r.endOfBufferOffset-int64(len(r.buffer))-bytes >= r.initialOffset {
		r.reporter.Corruption(int(bytes), reason)
	}
}

// readPhysicalRecord returns the next physical record's payload, its type
// (or one of recordTypeEOF/recordTypeBadRecord), and its starting offset.
func (r *Reader) readPhysicalRecord() (fragment []byte, recordType int, physicalOffset int64) {
	for {
		if len(r.buffer) < HeaderSize {
			if !r.eof {
				n, err := io.ReadFull(r.file, r.backingStore)
				if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
					r.buffer = nil
					r.reportDrop(BlockSize, status.NewIOError(err.Error()))
					r.eof = true
					return nil, recordTypeEOF, 0
				}
				r.buffer = r.backingStore[:n]
				r.endOfBufferOffset += int64(n)
				if n < BlockSize {
					r.eof = true
				}
				continue
			}
			r.buffer = nil
			return nil, recordTypeEOF, 0
		}

		header := r.buffer[:HeaderSize]
		a := uint32(header[4])
		b := uint32(header[5])
		typ := int(header[6])
		length := int(a | (b << 8))

		if HeaderSize+length > len(r.buffer) {
			dropSize := len(r.buffer)
			r.buffer = nil
			if !r.eof {
				r.reportCorruption(dropSize, "bad record length")
				return nil, recordTypeBadRecord, 0
			}
			return nil, recordTypeEOF, 0
		}

		if RecordType(typ) == ZeroType && length == 0 {
			r.buffer = nil
			return nil, recordTypeBadRecord, 0
		}

		if r.checksum {
			expected := coding.UnmaskCRC32C(coding.DecodeFixed32(header))
			actual := coding.ChecksumCRC32C(r.buffer[6 : 6+1+length])
			if actual != expected {
				dropSize := len(r.buffer)
				r.buffer = nil
				r.reportCorruption(dropSize, "checksum mismatch")
				return nil, recordTypeBadRecord, 0
			}
		}

		data := r.buffer[HeaderSize : HeaderSize+length]
		r.buffer = r.buffer[HeaderSize+length:]

		start := r.endOfBufferOffset - int64(len(r.buffer)) - int64(HeaderSize) - int64(length)
		if start < r.initialOffset {
			return nil, recordTypeBadRecord, 0
		}

		return data, typ, start
	}
}
