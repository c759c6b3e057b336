package rdb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestParseCompression(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{CompressionLZO1X, CompressionLZO2A, CompressionLZO1C, CompressionOodle, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(uint8(c))
		if err != nil || got != c {
			t.Fatalf("ParseCompression(0x%02x) = %v, %v", uint8(c), got, err)
		}

		byName, err := CompressionByName(c.String())
		if err != nil || byName != c {
			t.Fatalf("CompressionByName(%q) = %v, %v", c.String(), byName, err)
		}
	}

	if _, err := ParseCompression(0x42); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
	if _, err := CompressionByName("deflate"); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("raw data block chunk "), 512)

	for kind, codec := range DefaultCodecs() {
		packed, err := codec.Compress(data)
		if err != nil {
			t.Fatalf("%s Compress: %v", kind, err)
		}
		if len(packed) >= len(data) {
			t.Fatalf("%s did not compress: %d >= %d", kind, len(packed), len(data))
		}

		out, err := codec.Decompress(packed, len(packed), len(data))
		if err != nil {
			t.Fatalf("%s Decompress: %v", kind, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("%s round-trip mismatch", kind)
		}

		if _, err := codec.Decompress(packed, len(packed)+1, len(data)); err == nil {
			t.Fatalf("%s accepted a compressed size mismatch", kind)
		}
	}
}

func TestCodecsRegister(t *testing.T) {
	t.Parallel()

	cs := Codecs{}
	if _, err := cs.Lookup(CompressionOodle); !errors.Is(err, ErrNoCodec) {
		t.Fatalf("expected ErrNoCodec, got %v", err)
	}

	cs.Register(CompressionOodle, LZ4Codec{})
	if c, err := cs.Lookup(CompressionOodle); err != nil || c == nil {
		t.Fatalf("Lookup after Register: %v", err)
	}
}

func TestCodecsRejectOutputPastDeclaredSize(t *testing.T) {
	t.Parallel()

	if _, err := (LZ4Codec{}).Decompress([]byte{0}, 1, 1<<30); err == nil {
		t.Fatalf("lz4 accepted a 1 byte chunk declaring 1 GiB")
	}
	if _, err := (ZstdCodec{}).Decompress([]byte{0}, 1, 1<<30); err == nil {
		t.Fatalf("zstd accepted a 1 byte chunk declaring 1 GiB")
	}

	data := make([]byte, 1<<20)
	packed, err := ZstdCodec{}.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := (ZstdCodec{}).Decompress(packed, len(packed), 16); !errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		t.Fatalf("expected zstd.ErrDecoderSizeExceeded, got %v", err)
	}

	out, err := ZstdCodec{}.Decompress(packed, len(packed), len(data))
	if err != nil || len(out) != len(data) {
		t.Fatalf("exact size decode: %d bytes, %v", len(out), err)
	}
}
