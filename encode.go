package rdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the uncompressed chunk size used by Encode.
const DefaultChunkSize = 256 * 1024

// EncodeOptions configures Encode.
type EncodeOptions struct {
	// Compression is written to the header and selects the codec.
	Compression Compression
	// Version is written to the header as is.
	Version int16
	// ChunkSize splits the stream; 0 means DefaultChunkSize.
	ChunkSize int
	// Codecs resolves Compression. Nil uses DefaultCodecs.
	Codecs Codecs
	// Checksum computes the per-chunk checksum; nil writes zero.
	Checksum func([]byte) uint32
	// Store disables compression; every chunk is kept verbatim.
	Store bool
}

// Encode writes data as a Raw Data Block preceded by a magic marker.
// A chunk whose compressed form is not smaller than its input is stored.
func Encode(w io.Writer, data []byte, opts *EncodeOptions) error {
	if opts == nil {
		opts = &EncodeOptions{Compression: CompressionLZ4}
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if _, err := i32FromInt(chunkSize); err != nil {
		return err
	}
	if _, err := ParseCompression(uint8(opts.Compression)); err != nil {
		return err
	}

	var comp Compressor
	if !opts.Store {
		codecs := opts.Codecs
		if codecs == nil {
			codecs = DefaultCodecs()
		}
		c, err := codecs.Lookup(opts.Compression)
		if err != nil {
			return err
		}
		comp = c
	}

	var (
		index  []BlockIndexEntry
		chunks [][]byte
		sums   []uint32
	)
	for i := 0; i < len(data); i += chunkSize {
		src := data[i:min(i+chunkSize, len(data))]

		body := src
		if comp != nil {
			packed, err := comp.Compress(src)
			if err != nil {
				return fmt.Errorf("%w: chunk %d: %v", ErrWriteBlock, len(chunks), err)
			}
			if len(packed) < len(src) {
				body = packed
			}
		}

		var sum uint32
		if opts.Checksum != nil {
			sum = opts.Checksum(src)
		}

		// sizes fit: chunkSize was validated above and body is never larger than src
		index = append(index, BlockIndexEntry{
			UncompressedSize: int32(len(src)),  // #nosec G115
			CompressedSize:   int32(len(body)), // #nosec G115
		})
		chunks = append(chunks, body)
		sums = append(sums, sum)
	}

	count, err := i32FromInt(len(index))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	var raw [blockHeaderSize]byte
	binary.LittleEndian.PutUint64(raw[0:8], Magic)
	if _, err := bw.Write(raw[0:8]); err != nil {
		return fmt.Errorf("%w: marker: %v", ErrWriteBlock, err)
	}

	binary.LittleEndian.PutUint16(raw[8:10], uint16(opts.Version)) // #nosec G115
	raw[10] = byte(opts.Compression)
	binary.LittleEndian.PutUint32(raw[15:19], uint32(count)) // #nosec G115
	if _, err := bw.Write(raw[:]); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWriteBlock, err)
	}

	var entry [indexEntrySize]byte
	for i, e := range index {
		binary.LittleEndian.PutUint32(entry[0:4], uint32(e.UncompressedSize)) // #nosec G115
		binary.LittleEndian.PutUint32(entry[4:8], uint32(e.CompressedSize))   // #nosec G115
		if _, err := bw.Write(entry[:]); err != nil {
			return fmt.Errorf("%w: index entry %d: %v", ErrWriteBlock, i, err)
		}
	}

	var sum [chunkChecksumSize]byte
	for i, body := range chunks {
		binary.LittleEndian.PutUint32(sum[:], sums[i])
		if _, err := bw.Write(sum[:]); err != nil {
			return fmt.Errorf("%w: chunk %d checksum: %v", ErrWriteBlock, i, err)
		}
		if _, err := bw.Write(body); err != nil {
			return fmt.Errorf("%w: chunk %d body: %v", ErrWriteBlock, i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteBlock, err)
	}

	return nil
}

// EncodeFile writes data as a Raw Data Block to path.
func EncodeFile(path string, data []byte, opts *EncodeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := Encode(f, data, opts); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteBlock, path, err)
	}

	return f.Close()
}
