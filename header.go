package rdb

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// blockHeaderSize is identifier(8) version(2) compression(1) reserved(4) count(4).
	blockHeaderSize = 19
	// indexEntrySize is the size of one block index entry.
	indexEntrySize = 8
	// chunkChecksumSize prefixes every chunk body.
	chunkChecksumSize = 4
)

// BlockHeader is the Raw Data Block header.
type BlockHeader struct {
	Identifier  uint64
	Version     int16
	Compression Compression
	BlockCount  int32
}

// BlockIndexEntry holds the sizes of one chunk.
type BlockIndexEntry struct {
	UncompressedSize int32
	CompressedSize   int32
}

// Stored reports whether the chunk is kept verbatim.
func (e BlockIndexEntry) Stored() bool {
	return e.CompressedSize == e.UncompressedSize
}

// DataChunk is one chunk body as read from the source.
type DataChunk struct {
	Checksum uint32
	Data     []byte
}

// remaining returns the unread byte count of sr.
func remaining(sr *io.SectionReader) (int64, error) {
	pos, err := sr.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	return sr.Size() - pos, nil
}

// ReadBlockHeader reads the header at the current position of sr.
// The block count is bounded by the bytes left for the index.
func ReadBlockHeader(sr *io.SectionReader) (*BlockHeader, error) {
	var raw [blockHeaderSize]byte
	if _, err := io.ReadFull(sr, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: reading block header: %v", ErrMalformedContainer, err)
	}

	hdr := &BlockHeader{
		Identifier: binary.LittleEndian.Uint64(raw[0:8]),
		Version:    int16(binary.LittleEndian.Uint16(raw[8:10])), // #nosec G115 -- reinterpreting the wire field
	}
	if hdr.Identifier != Magic {
		return nil, fmt.Errorf("%w: identifier 0x%016x", ErrMalformedContainer, hdr.Identifier)
	}

	kind, err := ParseCompression(raw[10])
	if err != nil {
		return nil, err
	}
	hdr.Compression = kind

	// raw[11:15] is reserved
	hdr.BlockCount = int32(binary.LittleEndian.Uint32(raw[15:19])) // #nosec G115 -- reinterpreting the wire field

	left, err := remaining(sr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if hdr.BlockCount < 0 || int64(hdr.BlockCount) > left/indexEntrySize {
		return nil, fmt.Errorf("%w: %d (remaining %d bytes)", ErrInvalidBlockCount, hdr.BlockCount, left)
	}

	return hdr, nil
}

// ReadBlockIndex reads count index entries in file order.
func ReadBlockIndex(r io.Reader, count int32) ([]BlockIndexEntry, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockCount, count)
	}

	entries := make([]BlockIndexEntry, count)
	var raw [indexEntrySize]byte
	for i := range entries {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("%w: reading index entry %d: %v", ErrMalformedContainer, i, err)
		}

		e := BlockIndexEntry{
			UncompressedSize: int32(binary.LittleEndian.Uint32(raw[0:4])), // #nosec G115
			CompressedSize:   int32(binary.LittleEndian.Uint32(raw[4:8])), // #nosec G115
		}
		if e.UncompressedSize < 0 || e.CompressedSize < 0 {
			return nil, fmt.Errorf("%w: entry %d sizes %d/%d", ErrInvalidBlockCount, i, e.UncompressedSize, e.CompressedSize)
		}
		entries[i] = e
	}

	return entries, nil
}

// readChunk reads the checksum and body of one chunk.
func readChunk(sr *io.SectionReader, e BlockIndexEntry) (*DataChunk, error) {
	left, err := remaining(sr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if left < chunkChecksumSize+int64(e.CompressedSize) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedChunk, chunkChecksumSize+int64(e.CompressedSize), left)
	}

	var sum [chunkChecksumSize]byte
	if _, err := io.ReadFull(sr, sum[:]); err != nil {
		return nil, fmt.Errorf("%w: reading checksum: %v", ErrTruncatedChunk, err)
	}

	data := make([]byte, e.CompressedSize)
	if _, err := io.ReadFull(sr, data); err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTruncatedChunk, err)
	}

	return &DataChunk{Checksum: binary.LittleEndian.Uint32(sum[:]), Data: data}, nil
}
