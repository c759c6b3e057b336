package rdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"testing"
)

type testChunk struct {
	usize int32
	body  []byte
	sum   uint32
}

func stored(body []byte) testChunk {
	return testChunk{usize: int32(len(body)), body: body}
}

// buildBlock assembles a Raw Data Block with junk before the sentinel
// marker and between the marker and the block itself.
func buildBlock(kind Compression, count int32, chunks []testChunk) []byte {
	le := binary.LittleEndian

	var buf bytes.Buffer
	buf.WriteString("junk")
	_ = binary.Write(&buf, le, Magic)
	buf.WriteString("pad")
	_ = binary.Write(&buf, le, Magic)
	_ = binary.Write(&buf, le, int16(3))
	buf.WriteByte(byte(kind))
	buf.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	_ = binary.Write(&buf, le, count)
	for _, c := range chunks {
		_ = binary.Write(&buf, le, c.usize)
		_ = binary.Write(&buf, le, int32(len(c.body)))
	}
	for _, c := range chunks {
		_ = binary.Write(&buf, le, c.sum)
		buf.Write(c.body)
	}

	return buf.Bytes()
}

func patternBytes(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*31) + seed
	}

	return out
}

type codecCall struct {
	src              []byte
	compressedSize   int
	uncompressedSize int
}

// recordingCodec fills the output with the first source byte. A non-zero
// short makes it return that many bytes fewer than requested.
type recordingCodec struct {
	calls []codecCall
	short int
	err   error
}

func (c *recordingCodec) Compress(src []byte) ([]byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (c *recordingCodec) Decompress(src []byte, compressedSize, uncompressedSize int) ([]byte, error) {
	c.calls = append(c.calls, codecCall{
		src:              append([]byte(nil), src...),
		compressedSize:   compressedSize,
		uncompressedSize: uncompressedSize,
	})
	if c.err != nil {
		return nil, c.err
	}

	return bytes.Repeat(src[:1], uncompressedSize-c.short), nil
}

// memArchive is an in-memory Archive keyed by entry name.
type memArchive map[string][]byte

func (m memArchive) Find(substr string) ([]Entry, error) {
	var out []Entry
	for name, data := range m {
		if strings.Contains(name, substr) {
			out = append(out, Entry{ID: EntryID(name), Name: name, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (m memArchive) Lookup(name string) (Entry, error) {
	data, ok := m[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}

	return Entry{ID: EntryID(name), Name: name, Size: int64(len(data))}, nil
}

func (m memArchive) RawData(e Entry) ([]byte, error) {
	data, ok := m[e.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, e.Name)
	}

	return data, nil
}

type recordingConverter struct {
	textures []*Texture
}

func (c *recordingConverter) Convert(_ context.Context, tex *Texture) error {
	c.textures = append(c.textures, tex)
	return nil
}

func writeTopMip(buf *bytes.Buffer, m TopMip) {
	le := binary.LittleEndian
	_ = binary.Write(buf, le, m.Width)
	_ = binary.Write(buf, le, m.Height)
	buf.Write(make([]byte, 8))
	_ = binary.Write(buf, le, int32(m.Format))
	buf.Write(make([]byte, 4))
	_ = binary.Write(buf, le, m.MipCount)
}

// textureStream builds a decoded texture map stream with an inline payload.
func textureStream(t *testing.T, name string, mip0, mip1 TopMip, inline []byte) []byte {
	t.Helper()

	var body bytes.Buffer
	body.Write(make([]byte, descriptorLeadSkip))
	writeTopMip(&body, mip0)
	body.Write(make([]byte, descriptorGapSkip))
	writeTopMip(&body, mip1)
	body.Write(make([]byte, inlinePayloadSkip))
	_ = binary.Write(&body, binary.LittleEndian, int32(len(inline)))
	body.Write(inline)

	var buf bytes.Buffer
	hdr := &DatafileHeader{ResourceType: ResourceTextureMap, FileSize: int32(body.Len()), FileName: name}
	if err := WriteDatafileHeader(&buf, hdr); err != nil {
		t.Fatalf("WriteDatafileHeader: %v", err)
	}
	buf.Write(body.Bytes())

	return buf.Bytes()
}

// topMipEntry builds the raw, LZ4 encoded archive entry of a top mip.
func topMipEntry(t *testing.T, name string, pixels []byte) []byte {
	t.Helper()

	var stream bytes.Buffer
	hdr := &DatafileHeader{ResourceType: ResourceMipmap, FileSize: int32(topMipPayloadSkip + len(pixels)), FileName: name}
	if err := WriteDatafileHeader(&stream, hdr); err != nil {
		t.Fatalf("WriteDatafileHeader: %v", err)
	}
	stream.Write(make([]byte, topMipPayloadSkip))
	stream.Write(pixels)

	var raw bytes.Buffer
	if err := Encode(&raw, stream.Bytes(), &EncodeOptions{Compression: CompressionLZ4, ChunkSize: 64}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	return raw.Bytes()
}
