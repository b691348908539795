package wal

import (
	"github.com/kvforge/lsmstore/coding"
	"github.com/kvforge/lsmstore/envkit"
)

// Writer appends opaque payloads to a WritableFile, framing them into the
// 32 KiB block format. Writer is single-threaded: callers must not invoke
// AddRecord concurrently.
type Writer struct {
	dest        envkit.WritableFile
	blockOffset int
	typeCRC     [maxRecordType + 1]uint32
}

// NewWriter returns a Writer appending to a fresh (empty) destination.
func NewWriter(dest envkit.WritableFile) *Writer {
	return &Writer{dest: dest, typeCRC: precomputeTypeCRCs()}
}

// NewWriterAtOffset returns a Writer that continues appending to dest,
// which already holds destLength bytes of valid log data; the writer
// begins at the corresponding offset within its current block.
func NewWriterAtOffset(dest envkit.WritableFile, destLength int64) *Writer {
	return &Writer{
		dest:        dest,
		blockOffset: int(destLength % BlockSize),
		typeCRC:     precomputeTypeCRCs(),
	}
}

func precomputeTypeCRCs() [maxRecordType + 1]uint32 {
	var crcs [maxRecordType + 1]uint32
	for t := RecordType(0); t <= maxRecordType; t++ {
		crcs[t] = coding.ChecksumCRC32C([]byte{byte(t)})
	}
	return crcs
}

var zeroPad = make([]byte, BlockSize)

// AddRecord writes payload as one or more physical records, splitting it
// at block boundaries as needed.
func (w *Writer) AddRecord(payload []byte) error {
	left := payload
	begin := true

	for {
		leftover := BlockSize - w.blockOffset
		if leftover < HeaderSize {
			if leftover > 0 {
				if _, err := w.dest.Write(zeroPad[:leftover]); err != nil {
					return err
				}
			}
			w.blockOffset = 0
		}

		avail := BlockSize - w.blockOffset - HeaderSize
		fragmentLen := len(left)
		if fragmentLen > avail {
			fragmentLen = avail
		}

		end := fragmentLen == len(left)
		var typ RecordType
		switch {
		case begin && end:
			typ = FullType
		case begin:
			typ = FirstType
		case end:
			typ = LastType
		default:
			typ = MiddleType
		}

		if err := w.emitPhysicalRecord(typ, left[:fragmentLen]); err != nil {
			return err
		}
		left = left[fragmentLen:]
		begin = false

		if len(left) == 0 {
			break
		}
	}
	return nil
}

func (w *Writer) emitPhysicalRecord(t RecordType, data []byte) error {
	if len(data) > 0xffff {
		panic("wal: fragment longer than a record can encode")
	}

	var header [HeaderSize]byte
	header[4] = byte(len(data) & 0xff)
	header[5] = byte(len(data) >> 8)
	header[6] = byte(t)

	crc := coding.ExtendCRC32C(w.typeCRC[t], data)
	crc = coding.MaskCRC32C(crc)
	coding.PutFixed32(header[:0], crc)

	if _, err := w.dest.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.dest.Write(data); err != nil {
		return err
	}
	if err := w.dest.Flush(); err != nil {
		return err
	}
	w.blockOffset += HeaderSize + len(data)
	return nil
}
