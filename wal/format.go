// Package wal implements the write-ahead log's on-disk block/record
// framing: a Writer that fragments payloads across fixed 32 KiB blocks, and
// a Reader that reassembles them, tolerating truncation and checksum
// corruption the way a writer crash would produce.
package wal

const (
	// BlockSize is the fixed size of each physical block in the log file.
	BlockSize = 32768

	// HeaderSize is crc32c(4) || length(2) || type(1).
	HeaderSize = 7
)

// RecordType tags each physical record with its role in reassembling a
// (possibly fragmented) logical record.
type RecordType byte

const (
	// ZeroType is reserved for preallocated file regions; a reader treats
	// it as an empty, non-corrupt record to be skipped.
	ZeroType RecordType = 0
	FullType RecordType = 1

	FirstType  RecordType = 2
	MiddleType RecordType = 3
	LastType   RecordType = 4

	maxRecordType = LastType
)
