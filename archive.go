package rdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Entry is one named entry of a forge archive.
type Entry struct {
	ID   uint64
	Name string
	Size int64
}

// Archive enumerates forge entries and supplies their raw bytes.
type Archive interface {
	// Find returns the entries whose name contains substr.
	Find(substr string) ([]Entry, error)
	// Lookup returns the entry with exactly this name.
	Lookup(name string) (Entry, error)
	// RawData returns the raw (still encoded) bytes of e.
	RawData(e Entry) ([]byte, error)
}

// EntryID derives a stable 64-bit entry ID from a name.
func EntryID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// DirArchive serves entries from a directory holding one file per raw
// forge entry. The file name is the entry name.
type DirArchive struct {
	Root string
}

// NewDirArchive returns a DirArchive rooted at dir.
func NewDirArchive(dir string) (*DirArchive, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrOpenFile, dir)
	}

	return &DirArchive{Root: dir}, nil
}

func (d *DirArchive) entries() ([]Entry, error) {
	des, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, d.Root, err)
	}

	out := make([]Entry, 0, len(des))
	for _, de := range des {
		// decoded streams live next to their raw entries
		if de.IsDir() || strings.HasSuffix(de.Name(), DecodedSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, de.Name(), err)
		}
		out = append(out, Entry{ID: EntryID(de.Name()), Name: de.Name(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// Find implements Archive.
func (d *DirArchive) Find(substr string) ([]Entry, error) {
	all, err := d.entries()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range all {
		if strings.Contains(e.Name, substr) {
			out = append(out, e)
		}
	}

	return out, nil
}

// Lookup implements Archive.
func (d *DirArchive) Lookup(name string) (Entry, error) {
	if name != filepath.Base(name) {
		return Entry{}, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}

	fi, err := os.Stat(filepath.Join(d.Root, name))
	if err != nil || fi.IsDir() {
		return Entry{}, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}

	return Entry{ID: EntryID(name), Name: name, Size: fi.Size()}, nil
}

// RawData implements Archive.
func (d *DirArchive) RawData(e Entry) ([]byte, error) {
	if e.ID != EntryID(e.Name) {
		return nil, fmt.Errorf("%w: %q: id 0x%016x does not match", ErrEntryNotFound, e.Name, e.ID)
	}

	data, err := os.ReadFile(filepath.Join(d.Root, e.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrEntryNotFound, e.Name, err)
	}

	return data, nil
}
