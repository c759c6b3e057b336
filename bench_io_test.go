package rdb

import (
	"bytes"
	"context"
	"testing"
)

// benchStream builds a deterministic stream with mixed low/high frequencies.
func benchStream(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((i*7 + (i>>9)*3) ^ (i >> 2))
	}

	return data
}

// benchBlock encodes data into a Raw Data Block for decode benchmarks.
func benchBlock(b *testing.B, data []byte, opts *EncodeOptions) []byte {
	b.Helper()

	var buf bytes.Buffer
	if err := Encode(&buf, data, opts); err != nil {
		b.Fatalf("prepare block: %v", err)
	}

	return buf.Bytes()
}

func BenchmarkEncode(b *testing.B) {
	data := benchStream(4 << 20)

	for _, opts := range []*EncodeOptions{
		{Compression: CompressionLZ4, Store: true},
		{Compression: CompressionLZ4},
		{Compression: CompressionZstd},
	} {
		name := opts.Compression.String()
		if opts.Store {
			name = "stored"
		}
		b.Run(name, func(b *testing.B) {
			var buf bytes.Buffer
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			for b.Loop() {
				buf.Reset()
				if err := Encode(&buf, data, opts); err != nil {
					b.Fatalf("encode: %v", err)
				}
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	data := benchStream(4 << 20)

	for _, opts := range []*EncodeOptions{
		{Compression: CompressionLZ4, Store: true},
		{Compression: CompressionLZ4},
		{Compression: CompressionZstd},
	} {
		name := opts.Compression.String()
		if opts.Store {
			name = "stored"
		}
		raw := benchBlock(b, data, opts)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			for b.Loop() {
				if _, err := DecodeBytes(context.Background(), raw, nil); err != nil {
					b.Fatalf("decode: %v", err)
				}
			}
		})
	}
}
