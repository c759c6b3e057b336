package rdb

import (
	"fmt"
	"math"
)

const maxInt32 = math.MaxInt32

// i32FromInt narrows a length to the signed 32-bit fields of the container.
func i32FromInt(n int) (int32, error) {
	if n < 0 || n > maxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrSizeOverflow, n)
	}

	return int32(n), nil
}

// u32FromInt narrows a length to the unsigned 32-bit fields of a DDS header.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrSizeOverflow, n)
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}

// decodedSize sums the uncompressed sizes of index. The decoded stream of
// one block must stay addressable by an int32 offset.
func decodedSize(index []BlockIndexEntry) (int64, error) {
	var total int64
	for _, e := range index {
		total += int64(e.UncompressedSize)
		if total > maxInt32 {
			return 0, fmt.Errorf("%w: decoded size exceeds %d", ErrSizeOverflow, maxInt32)
		}
	}

	return total, nil
}
