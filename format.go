package rdb

import (
	"fmt"

	"github.com/woozymasta/bcn"
)

// PixelFormat is the texture format code stored in a top-mip descriptor.
type PixelFormat int32

// Known pixel formats.
const (
	PixelFormatBGRA8 PixelFormat = 0
	PixelFormatDXT1  PixelFormat = 1
	PixelFormatDXT1A PixelFormat = 2
	PixelFormatDXT3  PixelFormat = 3
	PixelFormatDXT5  PixelFormat = 4
	PixelFormatBC4   PixelFormat = 5
	PixelFormatBC5   PixelFormat = 6
	PixelFormatRGBA8 PixelFormat = 7
)

// ParsePixelFormat maps a descriptor code to a PixelFormat.
func ParsePixelFormat(code int32) (PixelFormat, error) {
	f := PixelFormat(code)
	if f.bcn() == bcn.FormatUnknown {
		return 0, fmt.Errorf("%w: code %d", ErrUnsupportedPixelFormat, code)
	}

	return f, nil
}

func (f PixelFormat) bcn() bcn.Format {
	switch f {
	case PixelFormatBGRA8:
		return bcn.FormatBGRA8
	case PixelFormatDXT1, PixelFormatDXT1A:
		return bcn.FormatDXT1
	case PixelFormatDXT3:
		return bcn.FormatDXT3
	case PixelFormatDXT5:
		return bcn.FormatDXT5
	case PixelFormatBC4:
		return bcn.FormatBC4
	case PixelFormatBC5:
		return bcn.FormatBC5
	case PixelFormatRGBA8:
		return bcn.FormatRGBA8
	default:
		return bcn.FormatUnknown
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGRA8:
		return "BGRA8"
	case PixelFormatDXT1:
		return "DXT1"
	case PixelFormatDXT1A:
		return "DXT1A"
	case PixelFormatDXT3:
		return "DXT3"
	case PixelFormatDXT5:
		return "DXT5"
	case PixelFormatBC4:
		return "BC4"
	case PixelFormatBC5:
		return "BC5"
	case PixelFormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int32(f))
	}
}

func expectedDataLength(format bcn.Format, width, height int) int {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	switch format {
	case bcn.FormatDXT1, bcn.FormatBC4:
		return blocksW * blocksH * 8
	case bcn.FormatDXT3, bcn.FormatDXT5, bcn.FormatBC5:
		return blocksW * blocksH * 16
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return width * height * 4
	default:
		return -1
	}
}

func makeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

func makeDDSHeader(width, height, mipMapCount uint32, format bcn.Format) (*bcn.DDSHeader, error) {
	flags := uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat)
	caps := uint32(bcn.DDSCapsTexture)
	if mipMapCount > 1 {
		flags |= bcn.DDSFlagMipmapCount
		caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: mipMapCount,
		Caps:        caps,
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize

	var fourCC uint32
	switch format {
	case bcn.FormatDXT1:
		fourCC = makeFourCC('D', 'X', 'T', '1')
	case bcn.FormatDXT3:
		fourCC = makeFourCC('D', 'X', 'T', '3')
	case bcn.FormatDXT5:
		fourCC = makeFourCC('D', 'X', 'T', '5')
	case bcn.FormatBC4:
		fourCC = makeFourCC('A', 'T', 'I', '1')
	case bcn.FormatBC5:
		fourCC = makeFourCC('A', 'T', 'I', '2')
	case bcn.FormatRGBA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x000000ff
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x00ff0000
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
		return hdr, nil
	case bcn.FormatBGRA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x00ff0000
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x000000ff
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
		return hdr, nil
	default:
		return nil, fmt.Errorf("%w: bcn format %v", ErrUnsupportedPixelFormat, format)
	}

	linear, err := u32FromInt(expectedDataLength(format, int(width), int(height)))
	if err != nil {
		return nil, err
	}
	hdr.Flags |= bcn.DDSFlagLinearSize
	hdr.PixelFormat.Flags = bcn.DDSPFFourCC
	hdr.PixelFormat.FourCC = fourCC
	hdr.PitchOrLinearSize = linear

	return hdr, nil
}
