package main

import (
	"hash/crc32"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/woozymasta/rdb"
)

// Config holds settings shared by all commands. Values from the config
// file are overridden by flags set on the command line.
type Config struct {
	Archive     string `toml:"archive"`
	Output      string `toml:"output"`
	Workers     int    `toml:"workers"`
	Compression string `toml:"compression"`
	ChunkSize   int    `toml:"chunk_size"`
	Checksum    string `toml:"checksum"`
	LogLevel    string `toml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Output:      "./out",
		Workers:     4,
		Compression: "lz4",
		ChunkSize:   rdb.DefaultChunkSize,
		LogLevel:    "info",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config file")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config file %s", path)
	}

	return cfg, nil
}

// configFromContext loads the --config file and applies explicitly set flags.
func configFromContext(c *cli.Context) (Config, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("archive") {
		cfg.Archive = c.String("archive")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("compression") {
		cfg.Compression = c.String("compression")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("checksum") {
		cfg.Checksum = c.String("checksum")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if cfg.Workers < 1 {
		return cfg, errors.Errorf("invalid workers %d", cfg.Workers)
	}

	return cfg, nil
}

func (cfg Config) checksum() (func([]byte) uint32, error) {
	switch cfg.Checksum {
	case "", "none":
		return nil, nil
	case "crc32":
		return crc32.ChecksumIEEE, nil
	default:
		return nil, errors.Errorf("unsupported checksum %q", cfg.Checksum)
	}
}

func (cfg Config) decodeOptions() (*rdb.DecodeOptions, error) {
	sum, err := cfg.checksum()
	if err != nil {
		return nil, err
	}

	return &rdb.DecodeOptions{Codecs: rdb.DefaultCodecs(), Checksum: sum}, nil
}

func (cfg Config) encodeOptions(store bool) (*rdb.EncodeOptions, error) {
	kind, err := rdb.CompressionByName(cfg.Compression)
	if err != nil {
		return nil, err
	}
	sum, err := cfg.checksum()
	if err != nil {
		return nil, err
	}

	return &rdb.EncodeOptions{
		Compression: kind,
		ChunkSize:   cfg.ChunkSize,
		Codecs:      rdb.DefaultCodecs(),
		Checksum:    sum,
		Store:       store,
	}, nil
}

func setupLogger(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	logrus.SetLevel(logLevel)

	return nil
}
