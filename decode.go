package rdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// DecodedSuffix is appended to a source name to address its decoded stream.
const DecodedSuffix = ".dec"

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// Codecs resolves the header compression kind. Nil uses DefaultCodecs.
	Codecs Codecs
	// Checksum, when set, is computed over each decoded chunk and compared
	// with the stored checksum. Verification is off when nil.
	Checksum func([]byte) uint32
}

func (o *DecodeOptions) codecs() Codecs {
	if o == nil || o.Codecs == nil {
		return DefaultCodecs()
	}

	return o.Codecs
}

// Block is a parsed Raw Data Block with its decoded stream.
type Block struct {
	Offset int64
	Header BlockHeader
	Index  []BlockIndexEntry
	Data   []byte
}

// Decode locates the Raw Data Block in r, decodes every chunk in order and
// returns the concatenated stream. ctx is checked between chunks.
func Decode(ctx context.Context, r io.ReaderAt, size int64, opts *DecodeOptions) (*Block, error) {
	start, err := BlockStart(r, size)
	if err != nil {
		return nil, err
	}

	sr := io.NewSectionReader(r, start, size-start)
	hdr, err := ReadBlockHeader(sr)
	if err != nil {
		return nil, err
	}

	index, err := ReadBlockIndex(sr, hdr.BlockCount)
	if err != nil {
		return nil, err
	}

	data, err := decodeChunks(ctx, sr, hdr.Compression, index, opts)
	if err != nil {
		return nil, err
	}

	return &Block{Offset: start, Header: *hdr, Index: index, Data: data}, nil
}

// DecodeBytes runs Decode over an in-memory Raw Data Block.
func DecodeBytes(ctx context.Context, raw []byte, opts *DecodeOptions) ([]byte, error) {
	block, err := Decode(ctx, bytes.NewReader(raw), int64(len(raw)), opts)
	if err != nil {
		return nil, err
	}

	return block.Data, nil
}

// decodeChunks reads and inflates the chunks described by index.
func decodeChunks(ctx context.Context, sr *io.SectionReader, kind Compression, index []BlockIndexEntry, opts *DecodeOptions) ([]byte, error) {
	total, err := decodedSize(index)
	if err != nil {
		return nil, err
	}

	// stored chunks cannot produce more than what is left in the section;
	// compressed output grows the buffer as chunks actually inflate
	left, err := remaining(sr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	var codec Decompressor
	out := make([]byte, 0, min(total, left))
	for i, e := range index {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := readChunk(sr, e)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}

		data := chunk.Data
		if !e.Stored() {
			if codec == nil {
				c, err := opts.codecs().Lookup(kind)
				if err != nil {
					return nil, fmt.Errorf("%w: chunk %d: %v", ErrDecompressionFailure, i, err)
				}
				codec = c
			}

			data, err = codec.Decompress(chunk.Data, int(e.CompressedSize), int(e.UncompressedSize))
			if err != nil {
				return nil, fmt.Errorf("%w: chunk %d: %v", ErrDecompressionFailure, i, err)
			}
			if len(data) != int(e.UncompressedSize) {
				return nil, fmt.Errorf("%w: chunk %d: expected %d bytes, got %d", ErrDecompressionFailure, i, e.UncompressedSize, len(data))
			}
		}

		if opts != nil && opts.Checksum != nil {
			if sum := opts.Checksum(data); sum != chunk.Checksum {
				return nil, fmt.Errorf("%w: chunk %d: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, i, chunk.Checksum, sum)
			}
		}

		out = append(out, data...)
	}

	return out, nil
}

// DecodedPath returns the path of the decoded stream for name.
func DecodedPath(name string) string {
	return name + DecodedSuffix
}

// DecodeFile decodes the Raw Data Block in path and writes the stream to
// DecodedPath(path). The output is synced before DecodeFile returns.
func DecodeFile(ctx context.Context, path string, opts *DecodeOptions) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}

	block, err := Decode(ctx, f, fi.Size(), opts)
	if err != nil {
		return nil, err
	}

	if err := writeFileSync(DecodedPath(path), block.Data); err != nil {
		return nil, err
	}

	return block, nil
}

// writeFileSync creates path, writes data and flushes it to stable storage.
func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}

	return f.Close()
}
