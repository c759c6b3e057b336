package rdb

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the compression kind code stored in a block header.
type Compression uint8

// Known compression kinds. LZO and Oodle are recognized but ship no codec;
// register one with Codecs.Register to decode their compressed chunks.
const (
	CompressionLZO1X Compression = 0x00
	CompressionLZO2A Compression = 0x01
	CompressionLZO1C Compression = 0x02
	CompressionOodle Compression = 0x08
	CompressionLZ4   Compression = 0x10
	CompressionZstd  Compression = 0x11
)

// ParseCompression maps a header code to a Compression.
func ParseCompression(code uint8) (Compression, error) {
	switch c := Compression(code); c {
	case CompressionLZO1X, CompressionLZO2A, CompressionLZO1C,
		CompressionOodle, CompressionLZ4, CompressionZstd:
		return c, nil
	default:
		return 0, fmt.Errorf("%w: code 0x%02x", ErrUnsupportedCompression, code)
	}
}

// CompressionByName maps a lowercase name to a Compression.
func CompressionByName(name string) (Compression, error) {
	switch name {
	case "lzo1x":
		return CompressionLZO1X, nil
	case "lzo2a":
		return CompressionLZO2A, nil
	case "lzo1c":
		return CompressionLZO1C, nil
	case "oodle":
		return CompressionOodle, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCompression, name)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionLZO1X:
		return "lzo1x"
	case CompressionLZO2A:
		return "lzo2a"
	case CompressionLZO1C:
		return "lzo1c"
	case CompressionOodle:
		return "oodle"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(0x%02x)", uint8(c))
	}
}

// Decompressor inflates one chunk. It must return exactly
// uncompressedSize bytes or an error.
type Decompressor interface {
	Decompress(src []byte, compressedSize, uncompressedSize int) ([]byte, error)
}

// Compressor deflates one chunk. Encode stores the chunk verbatim
// when the result is not smaller than src.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
}

// Codec is a Compressor and a Decompressor for one compression kind.
type Codec interface {
	Compressor
	Decompressor
}

// Codecs maps compression kinds to codecs.
type Codecs map[Compression]Codec

// DefaultCodecs returns the codecs bundled with the package.
func DefaultCodecs() Codecs {
	return Codecs{
		CompressionLZ4:  LZ4Codec{},
		CompressionZstd: ZstdCodec{},
	}
}

// Register adds or replaces the codec for kind.
func (cs Codecs) Register(kind Compression, c Codec) {
	cs[kind] = c
}

// Lookup returns the codec for kind.
func (cs Codecs) Lookup(kind Compression) (Codec, error) {
	c, ok := cs[kind]
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, kind)
	}

	return c, nil
}

// Upper bounds on output bytes per input byte. An LZ4 length extension byte
// adds at most 255 bytes. A 4-byte zstd RLE block expands to at most 128 KiB.
const (
	lz4MaxExpansion  = 256
	zstdMaxExpansion = 32 << 10
)

// checkExpansion rejects a declared output size no valid stream of
// compressedSize bytes can produce, before any buffer is allocated.
func checkExpansion(name string, compressedSize, uncompressedSize, ratio int) error {
	if uncompressedSize < 0 || int64(uncompressedSize) > int64(compressedSize)*int64(ratio)+16 {
		return fmt.Errorf("%s: %d bytes cannot expand to %d", name, compressedSize, uncompressedSize)
	}

	return nil
}

// LZ4Codec compresses chunks as raw LZ4 blocks.
type LZ4Codec struct{}

// Compress implements Compressor.
func (LZ4Codec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlockHC(src, dst, 0, nil, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// incompressible; signal with a copy that Encode will store
		return append([]byte(nil), src...), nil
	}

	return dst[:n], nil
}

// Decompress implements Decompressor.
func (LZ4Codec) Decompress(src []byte, compressedSize, uncompressedSize int) ([]byte, error) {
	if len(src) != compressedSize {
		return nil, fmt.Errorf("lz4: have %d bytes, expected %d", len(src), compressedSize)
	}
	if err := checkExpansion("lz4", compressedSize, uncompressedSize, lz4MaxExpansion); err != nil {
		return nil, err
	}
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecodeAllCapLimit(true))
	})

	return zstdEncoder, zstdDecoder, zstdErr
}

// ZstdCodec compresses chunks as single Zstandard frames.
type ZstdCodec struct{}

// Compress implements Compressor.
func (ZstdCodec) Compress(src []byte) ([]byte, error) {
	enc, _, err := zstdCoders()
	if err != nil {
		return nil, err
	}

	return enc.EncodeAll(src, nil), nil
}

// Decompress implements Decompressor.
func (ZstdCodec) Decompress(src []byte, compressedSize, uncompressedSize int) ([]byte, error) {
	_, dec, err := zstdCoders()
	if err != nil {
		return nil, err
	}
	if len(src) != compressedSize {
		return nil, fmt.Errorf("zstd: have %d bytes, expected %d", len(src), compressedSize)
	}
	if err := checkExpansion("zstd", compressedSize, uncompressedSize, zstdMaxExpansion); err != nil {
		return nil, err
	}

	// output is capped at uncompressedSize; a larger frame fails early
	return dec.DecodeAll(src, make([]byte, 0, uncompressedSize))
}
