package rdb

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/woozymasta/bcn"
)

// PNGConverter writes each texture as <Dir>/<name>.dds and <Dir>/<name>.png.
// Both files are synced before Convert returns.
type PNGConverter struct {
	Dir string
	// DecodeOptions are passed to the BCn decoder (e.g. Workers).
	DecodeOptions *bcn.DecodeOptions
	// SkipDDS drops the intermediate DDS file.
	SkipDDS bool
}

// Convert implements Converter.
func (c *PNGConverter) Convert(ctx context.Context, tex *Texture) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, c.Dir, err)
	}

	if !c.SkipDDS {
		if err := WriteDDSFile(filepath.Join(c.Dir, tex.Name+".dds"), tex); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := DecodeTopLevel(tex, c.DecodeOptions)
	if err != nil {
		return err
	}

	path := filepath.Join(c.Dir, tex.Name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(f)
	if err := png.Encode(bw, img); err != nil {
		return fmt.Errorf("%w: encode png: %v", ErrConvert, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}

	return f.Close()
}

// DecodeTopLevel decodes the largest mip level of tex into an image.
func DecodeTopLevel(tex *Texture, opts *bcn.DecodeOptions) (image.Image, error) {
	top, err := tex.TopLevel()
	if err != nil {
		return nil, err
	}

	img, err := bcn.DecodeImageWithOptions(top, tex.Width, tex.Height, tex.Format.bcn(), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrConvert, tex.Format, err)
	}

	return img, nil
}

// WriteDDSFile writes tex as a DDS file and syncs it.
func WriteDDSFile(path string, tex *Texture) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(f)
	if err := tex.WriteDDS(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteDDS, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteDDS, path, err)
	}

	return f.Close()
}

// ReadDDSConfig reads the dimensions of a DDS file without decoding it.
func ReadDDSConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	header, err := bcn.ReadDDSHeader(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %q: %v", ErrMalformedContainer, path, err)
	}

	return image.Config{
		Width:      int(header.Width),
		Height:     int(header.Height),
		ColorModel: color.RGBAModel,
	}, nil
}
