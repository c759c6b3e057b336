package rdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the Raw Data Block identifier.
const Magic uint64 = 0x1004FA9957FBAA33

const scanWindow = 64 * 1024

// LocateMagic scans size bytes of r and returns every offset where magic
// starts, in ascending order. Overlapping matches are reported.
func LocateMagic(r io.ReaderAt, size int64, magic uint64) ([]int64, error) {
	var pattern [8]byte
	binary.LittleEndian.PutUint64(pattern[:], magic)

	var offsets []int64
	buf := make([]byte, scanWindow+len(pattern)-1)
	for base := int64(0); base < size; base += scanWindow {
		want := int64(len(buf))
		if rem := size - base; rem < want {
			want = rem
		}
		n, err := r.ReadAt(buf[:want], base)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: scanning at %d: %v", ErrMalformedContainer, base, err)
		}
		window := buf[:n]

		for i := 0; ; {
			j := bytes.Index(window[i:], pattern[:])
			if j < 0 {
				break
			}
			pos := i + j
			// matches starting in the overlap belong to the next window
			if pos >= scanWindow {
				break
			}
			offsets = append(offsets, base+int64(pos))
			i = pos + 1
		}
	}

	return offsets, nil
}

// BlockStart returns the offset of the Raw Data Block in r. The first
// magic occurrence is a preceding marker; the block starts at the second.
func BlockStart(r io.ReaderAt, size int64) (int64, error) {
	offsets, err := LocateMagic(r, size, Magic)
	if err != nil {
		return 0, err
	}
	if len(offsets) < 2 {
		return 0, fmt.Errorf("%w: found %d magic occurrences, need 2", ErrMalformedContainer, len(offsets))
	}

	return offsets[1], nil
}
