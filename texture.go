package rdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/woozymasta/bcn"
)

// Fixed gaps of the texture map layouts.
const (
	descriptorLeadSkip = 14
	descriptorGapSkip  = 81
	inlinePayloadSkip  = 25
	topMipPayloadSkip  = 18

	// topMipSize is width(4) height(4) skip(8) format(4) skip(4) mips(4).
	topMipSize = 28
)

// TopMipSuffix names the sibling entries holding a texture's top mips.
const TopMipSuffix = "_TopMip"

// Layout selects where a texture's top mip is stored.
type Layout int

const (
	// LayoutInline keeps the pixel data in the texture map stream.
	LayoutInline Layout = iota
	// LayoutExternalTopMip keeps the top mip in a sibling archive entry.
	LayoutExternalTopMip
)

func (l Layout) String() string {
	switch l {
	case LayoutInline:
		return "inline"
	case LayoutExternalTopMip:
		return "external-topmip"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// TopMip describes one top mip level.
type TopMip struct {
	Width    int32
	Height   int32
	Format   PixelFormat
	MipCount int32
}

// TextureMap is the inline payload of a texture map.
type TextureMap struct {
	TopMip
	DataSize int32
	Data     []byte
}

// Texture is a texture ready for container synthesis.
type Texture struct {
	Name     string
	Layout   Layout
	Width    int
	Height   int
	MipCount int
	Format   PixelFormat
	Data     []byte
}

// Levels returns the number of whole mip levels present in Data.
func (t *Texture) Levels() int {
	return levelsPresent(t.Format, t.Width, t.Height, max(t.MipCount, 1), len(t.Data))
}

// TopLevel returns the bytes of the largest mip level.
func (t *Texture) TopLevel() ([]byte, error) {
	size := expectedDataLength(t.Format.bcn(), t.Width, t.Height)
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, t.Format)
	}
	if len(t.Data) < size {
		return nil, fmt.Errorf("%w: top level needs %d bytes, have %d", ErrMalformedContainer, size, len(t.Data))
	}

	return t.Data[:size], nil
}

// WriteDDS writes the texture as a DDS container. The mip count in the
// header is limited to the levels actually present in Data.
func (t *Texture) WriteDDS(w io.Writer) error {
	levels := t.Levels()
	if levels == 0 {
		return fmt.Errorf("%w: %q: no complete mip level in %d bytes", ErrWriteDDS, t.Name, len(t.Data))
	}

	w32, err := u32FromInt(t.Width)
	if err != nil {
		return err
	}
	h32, err := u32FromInt(t.Height)
	if err != nil {
		return err
	}
	mip32, err := u32FromInt(levels)
	if err != nil {
		return err
	}

	header, err := makeDDSHeader(w32, h32, mip32, t.Format.bcn())
	if err != nil {
		return err
	}

	if err := bcn.WriteDDSMagic(w); err != nil {
		return fmt.Errorf("%w: magic: %v", ErrWriteDDS, err)
	}
	if err := bcn.WriteDDSHeader(w, header); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWriteDDS, err)
	}
	if _, err := w.Write(t.Data); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrWriteDDS, err)
	}

	return nil
}

// Converter receives a synthesized texture. It is called once per asset.
type Converter interface {
	Convert(ctx context.Context, tex *Texture) error
}

func skip(r *bytes.Reader, n int) error {
	if r.Len() < n {
		return fmt.Errorf("%w: skip %d bytes, have %d", ErrMalformedContainer, n, r.Len())
	}
	_, err := r.Seek(int64(n), io.SeekCurrent)

	return err
}

func readInt32(r *bytes.Reader) (int32, error) {
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	return int32(binary.LittleEndian.Uint32(raw[:])), nil // #nosec G115
}

// topMipRecord is the on-disk layout of a top mip descriptor.
type topMipRecord struct {
	Width    int32
	Height   int32
	_        [8]byte
	Format   int32
	_        [4]byte
	MipCount int32
}

// readTopMip reads a descriptor without validating its format code.
func readTopMip(r *bytes.Reader) (TopMip, error) {
	var rec topMipRecord
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return TopMip{}, fmt.Errorf("%w: top mip descriptor: %v", ErrMalformedContainer, err)
	}

	return TopMip{
		Width:    rec.Width,
		Height:   rec.Height,
		Format:   PixelFormat(rec.Format),
		MipCount: rec.MipCount,
	}, nil
}

// ReadTextureDescriptors reads the two top mip descriptors that follow the
// DatafileHeader of a texture map. Only mip0 must carry a known format.
func ReadTextureDescriptors(r *bytes.Reader) (mip0, mip1 TopMip, err error) {
	if err := skip(r, descriptorLeadSkip); err != nil {
		return mip0, mip1, err
	}
	if mip0, err = readTopMip(r); err != nil {
		return mip0, mip1, err
	}
	if _, err := ParsePixelFormat(int32(mip0.Format)); err != nil {
		return mip0, mip1, err
	}
	if mip0.Width <= 0 || mip0.Height <= 0 {
		return mip0, mip1, fmt.Errorf("%w: top mip %dx%d", ErrMalformedContainer, mip0.Width, mip0.Height)
	}

	if err := skip(r, descriptorGapSkip); err != nil {
		return mip0, mip1, err
	}
	if mip1, err = readTopMip(r); err != nil {
		return mip0, mip1, err
	}

	return mip0, mip1, nil
}

// ReadInlineTextureMap reads the inline payload that follows mip1.
func ReadInlineTextureMap(r *bytes.Reader, mip0 TopMip) (*TextureMap, error) {
	if err := skip(r, inlinePayloadSkip); err != nil {
		return nil, err
	}

	size, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if size < 0 || int64(size) > int64(r.Len()) {
		return nil, fmt.Errorf("%w: inline data size %d (remaining %d)", ErrMalformedContainer, size, r.Len())
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	return &TextureMap{TopMip: mip0, DataSize: size, Data: data}, nil
}

// ReadTopMipPayload returns the pixel payload of a decoded top mip entry.
func ReadTopMipPayload(decoded []byte) (*DatafileHeader, []byte, error) {
	r := bytes.NewReader(decoded)
	hdr, err := ReadDatafileHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if err := skip(r, topMipPayloadSkip); err != nil {
		return nil, nil, err
	}

	size := int64(hdr.FileSize) - topMipPayloadSkip
	if size < 0 || size > int64(r.Len()) {
		return nil, nil, fmt.Errorf("%w: top mip payload %d (remaining %d)", ErrMalformedContainer, size, r.Len())
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	return hdr, data, nil
}

// SelectLayout picks the external top mip layout when the archive holds
// exactly two "<base>_TopMip" entries and the inline layout otherwise.
func SelectLayout(a Archive, base string) (Layout, error) {
	entries, err := a.Find(base + TopMipSuffix)
	if err != nil {
		return LayoutInline, err
	}
	if len(entries) == 2 {
		return LayoutExternalTopMip, nil
	}

	return LayoutInline, nil
}

// Extractor turns decoded texture map streams into converted textures.
type Extractor struct {
	// Archive resolves sibling top mip entries.
	Archive Archive
	// Converter receives every extracted texture.
	Converter Converter
	// Decode configures decoding of sibling entries.
	Decode *DecodeOptions
	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
	// OnComplete, if set, is called after Converter returns successfully.
	OnComplete func(tex *Texture)
}

func (x *Extractor) log() logrus.FieldLogger {
	if x.Log == nil {
		return logrus.StandardLogger()
	}

	return x.Log
}

// ExtractTexture extracts the texture map named base from its decoded
// stream and passes it to the Converter. It returns after the Converter
// and OnComplete have returned.
func (x *Extractor) ExtractTexture(ctx context.Context, base string, decoded []byte) (*Texture, error) {
	log := x.log().WithField("asset", base)

	r := bytes.NewReader(decoded)
	hdr, err := ReadDatafileHeader(r)
	if err != nil {
		return nil, err
	}
	log.WithField("type", hdr.ResourceType).Debugf("datafile %q, %d bytes", hdr.FileName, hdr.FileSize)

	mip0, mip1, err := ReadTextureDescriptors(r)
	if err != nil {
		return nil, err
	}
	log.Debugf("mip0 %dx%d %s (%d mips), mip1 %dx%d", mip0.Width, mip0.Height, mip0.Format, mip0.MipCount, mip1.Width, mip1.Height)

	layout, err := SelectLayout(x.Archive, base)
	if err != nil {
		return nil, err
	}
	log = log.WithField("layout", layout)

	var data []byte
	switch layout {
	case LayoutExternalTopMip:
		data, err = x.externalTopMip(ctx, log, base)
	default:
		var tm *TextureMap
		tm, err = ReadInlineTextureMap(r, mip0)
		if tm != nil {
			data = tm.Data
		}
	}
	if err != nil {
		return nil, err
	}

	tex := &Texture{
		Name:     base,
		Layout:   layout,
		Width:    int(mip0.Width),
		Height:   int(mip0.Height),
		MipCount: int(mip0.MipCount),
		Format:   mip0.Format,
		Data:     data,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := x.Converter.Convert(ctx, tex); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrConvert, base, err)
	}
	log.Infof("extracted %dx%d %s", tex.Width, tex.Height, tex.Format)

	if x.OnComplete != nil {
		x.OnComplete(tex)
	}

	return tex, nil
}

func (x *Extractor) externalTopMip(ctx context.Context, log logrus.FieldLogger, base string) ([]byte, error) {
	entry, err := x.Archive.Lookup(base + TopMipSuffix + "_0")
	if err != nil {
		return nil, err
	}
	log = log.WithField("entry", entry.Name)

	raw, err := x.Archive.RawData(entry)
	if err != nil {
		return nil, err
	}

	decoded, err := DecodeBytes(ctx, raw, x.Decode)
	if err != nil {
		return nil, fmt.Errorf("top mip %q: %w", entry.Name, err)
	}
	log.Debugf("decoded top mip: %d raw bytes, %d decoded", len(raw), len(decoded))

	_, data, err := ReadTopMipPayload(decoded)
	if err != nil {
		return nil, fmt.Errorf("top mip %q: %w", entry.Name, err)
	}

	return data, nil
}

// ExtractTextureFile extracts the texture map whose decoded stream is
// stored at DecodedPath(path). The asset name is the base name of path.
func (x *Extractor) ExtractTextureFile(ctx context.Context, path string) (*Texture, error) {
	decoded, err := os.ReadFile(DecodedPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, DecodedPath(path), err)
	}

	return x.ExtractTexture(ctx, filepath.Base(path), decoded)
}
