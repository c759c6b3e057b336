package rdb

import "errors"

var (
	// ErrMalformedContainer indicates a missing magic, identifier mismatch or a field out of bounds.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrUnsupportedCompression indicates an unknown compression code.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrInvalidBlockCount indicates a negative or implausible block count or chunk size.
	ErrInvalidBlockCount = errors.New("invalid block count")
	// ErrTruncatedChunk indicates a chunk declares more bytes than the source holds.
	ErrTruncatedChunk = errors.New("truncated chunk")
	// ErrDecompressionFailure indicates a codec error or decoded length mismatch.
	ErrDecompressionFailure = errors.New("decompression failure")
	// ErrUnsupportedPixelFormat indicates an unknown texture format code.
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	// ErrUnimplemented indicates a resource payload this package does not interpret.
	ErrUnimplemented = errors.New("unimplemented")
	// ErrChecksumMismatch indicates a chunk checksum did not verify.
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrEntryNotFound indicates an archive entry lookup failed.
	ErrEntryNotFound = errors.New("archive entry not found")
	// ErrOpenFile indicates file open failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrWriteBlock indicates writing a Raw Data Block failed.
	ErrWriteBlock = errors.New("writing raw data block failed")
	// ErrWriteDDS indicates writing a DDS container failed.
	ErrWriteDDS = errors.New("writing DDS failed")
	// ErrConvert indicates the image converter failed.
	ErrConvert = errors.New("texture conversion failed")
	// ErrNoCodec indicates no codec is registered for a compression kind.
	ErrNoCodec = errors.New("no codec registered")
)
