package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/rdb"
)

func prepare(c *cli.Context) (Config, error) {
	cfg, err := configFromContext(c)
	if err != nil {
		return cfg, err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func decodeAction(c *cli.Context) error {
	cfg, err := prepare(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errors.New("at least one FILE is required")
	}
	opts, err := cfg.decodeOptions()
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range c.Args().Slice() {
		block, err := rdb.DecodeFile(c.Context, path, opts)
		if err != nil {
			logrus.WithField("file", path).WithError(err).Error("decode failed")
			failed++
			continue
		}
		logrus.WithFields(logrus.Fields{
			"file":        path,
			"compression": block.Header.Compression,
			"chunks":      len(block.Index),
			"size":        len(block.Data),
		}).Infof("wrote %s", rdb.DecodedPath(path))
	}

	if failed > 0 {
		return errors.Errorf("%d of %d files failed to decode", failed, c.NArg())
	}

	return nil
}

func infoAction(c *cli.Context) error {
	cfg, err := prepare(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return errors.New("exactly one FILE is required")
	}
	opts, err := cfg.decodeOptions()
	if err != nil {
		return err
	}

	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open raw entry")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat raw entry")
	}

	block, err := rdb.Decode(c.Context, f, fi.Size(), opts)
	if err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}

	return writeInfo(c.App.Writer, block)
}

func writeInfo(w io.Writer, block *rdb.Block) error {
	fmt.Fprintf(w, "block offset:  %d\n", block.Offset)
	fmt.Fprintf(w, "version:       %d\n", block.Header.Version)
	fmt.Fprintf(w, "compression:   %s\n", block.Header.Compression)
	fmt.Fprintf(w, "chunks:        %d\n", block.Header.BlockCount)
	for i, e := range block.Index {
		mode := "compressed"
		if e.Stored() {
			mode = "stored"
		}
		fmt.Fprintf(w, "  #%d %d -> %d (%s)\n", i, e.CompressedSize, e.UncompressedSize, mode)
	}
	fmt.Fprintf(w, "decoded size:  %d\n", len(block.Data))

	r := bytes.NewReader(block.Data)
	hdr, err := rdb.ReadDatafileHeader(r)
	if err != nil {
		return errors.Wrap(err, "read datafile header")
	}
	fmt.Fprintf(w, "resource type: %s\n", hdr.ResourceType)
	fmt.Fprintf(w, "file name:     %s\n", hdr.FileName)
	fmt.Fprintf(w, "file size:     %d\n", hdr.FileSize)

	switch hdr.ResourceType {
	case rdb.ResourceTextureMap:
		mip0, mip1, err := rdb.ReadTextureDescriptors(r)
		if err != nil {
			return errors.Wrap(err, "read texture descriptors")
		}
		fmt.Fprintf(w, "top mip 0:     %dx%d %s, %d mips\n", mip0.Width, mip0.Height, mip0.Format, mip0.MipCount)
		fmt.Fprintf(w, "top mip 1:     %dx%d %s, %d mips\n", mip1.Width, mip1.Height, mip1.Format, mip1.MipCount)
	case rdb.ResourceMesh:
		if _, err := rdb.ReadModel(block.Data); err != nil {
			fmt.Fprintf(w, "model:         %v\n", err)
		}
	}

	return nil
}

type textureResult struct {
	name string
	err  error
}

func textureAction(c *cli.Context) error {
	cfg, err := prepare(c)
	if err != nil {
		return err
	}
	if cfg.Archive == "" {
		return errors.New("--archive is required")
	}
	if c.NArg() == 0 {
		return errors.New("at least one ENTRY is required")
	}
	opts, err := cfg.decodeOptions()
	if err != nil {
		return err
	}

	archive, err := rdb.NewDirArchive(cfg.Archive)
	if err != nil {
		return errors.Wrap(err, "open archive")
	}

	var (
		mu   sync.Mutex
		done int
	)
	x := &rdb.Extractor{
		Archive:   archive,
		Converter: &rdb.PNGConverter{Dir: cfg.Output, SkipDDS: c.Bool("skip-dds")},
		Decode:    opts,
		Log:       logrus.StandardLogger(),
		OnComplete: func(tex *rdb.Texture) {
			mu.Lock()
			done++
			mu.Unlock()
		},
	}

	names := c.Args().Slice()
	results := make([]textureResult, len(names))

	eg, ctx := errgroup.WithContext(c.Context)
	eg.SetLimit(cfg.Workers)
	for idx, name := range names {
		eg.Go(func() error {
			results[idx] = textureResult{name: name, err: extractEntry(ctx, x, archive, name)}
			// one failed asset must not cancel the rest of the batch
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.err != nil {
			logrus.WithField("asset", res.name).WithError(res.err).Error("texture extraction failed")
			failed++
		}
	}
	logrus.Infof("extracted %d of %d textures to %s", done, len(names), cfg.Output)

	if failed > 0 {
		return errors.Errorf("%d of %d textures failed", failed, len(names))
	}

	return nil
}

// extractEntry decodes the archive entry name and extracts it as a texture map.
func extractEntry(ctx context.Context, x *rdb.Extractor, archive rdb.Archive, name string) error {
	entry, err := archive.Lookup(name)
	if err != nil {
		return err
	}
	raw, err := archive.RawData(entry)
	if err != nil {
		return err
	}

	decoded, err := rdb.DecodeBytes(ctx, raw, x.Decode)
	if err != nil {
		return errors.Wrapf(err, "decode entry 0x%016x", entry.ID)
	}
	_, err = x.ExtractTexture(ctx, entry.Name, decoded)

	return err
}

func packAction(c *cli.Context) error {
	cfg, err := prepare(c)
	if err != nil {
		return err
	}
	if c.NArg() != 2 {
		return errors.New("INPUT and OUTPUT are required")
	}
	opts, err := cfg.encodeOptions(c.Bool("store"))
	if err != nil {
		return err
	}

	in, out := c.Args().Get(0), c.Args().Get(1)
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	if err := rdb.EncodeFile(out, data, opts); err != nil {
		return errors.Wrapf(err, "pack %s", in)
	}

	logrus.WithFields(logrus.Fields{
		"input":       in,
		"compression": opts.Compression,
		"size":        len(data),
	}).Infof("wrote %s", out)

	return nil
}
