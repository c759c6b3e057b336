package rdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ResourceType identifies the kind of resource in a decoded stream.
type ResourceType uint32

// Known resource types.
const (
	ResourceTextureMap ResourceType = 0xA2B7E917
	ResourceMipmap     ResourceType = 0x1D4B87A3
	ResourceMesh       ResourceType = 0x415D9568
	ResourceMaterial   ResourceType = 0x85C817C3
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTextureMap:
		return "TextureMap"
	case ResourceMipmap:
		return "Mipmap"
	case ResourceMesh:
		return "Mesh"
	case ResourceMaterial:
		return "Material"
	default:
		return fmt.Sprintf("ResourceType(0x%08X)", uint32(t))
	}
}

// datafileFixedSize is resourceType(4) fileSize(4) fileNameSize(4).
const datafileFixedSize = 12

// DatafileHeader prefixes every resource in a decoded stream.
type DatafileHeader struct {
	ResourceType ResourceType
	FileSize     int32
	FileName     string
}

// Size returns the encoded size of the header.
func (h *DatafileHeader) Size() int {
	return datafileFixedSize + len(h.FileName)
}

// ReadDatafileHeader reads a DatafileHeader at the current position of r.
func ReadDatafileHeader(r *bytes.Reader) (*DatafileHeader, error) {
	var raw [datafileFixedSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: reading datafile header: %v", ErrMalformedContainer, err)
	}

	hdr := &DatafileHeader{
		ResourceType: ResourceType(binary.LittleEndian.Uint32(raw[0:4])),
		FileSize:     int32(binary.LittleEndian.Uint32(raw[4:8])), // #nosec G115
	}

	nameSize := int32(binary.LittleEndian.Uint32(raw[8:12])) // #nosec G115
	if nameSize < 0 || int64(nameSize) > int64(r.Len()) {
		return nil, fmt.Errorf("%w: file name size %d (remaining %d)", ErrMalformedContainer, nameSize, r.Len())
	}

	name := make([]byte, nameSize)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("%w: reading file name: %v", ErrMalformedContainer, err)
	}
	hdr.FileName = string(name)

	return hdr, nil
}

// WriteDatafileHeader writes hdr to w.
func WriteDatafileHeader(w io.Writer, hdr *DatafileHeader) error {
	nameSize, err := i32FromInt(len(hdr.FileName))
	if err != nil {
		return err
	}

	var raw [datafileFixedSize]byte
	binary.LittleEndian.PutUint32(raw[0:4], uint32(hdr.ResourceType))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(hdr.FileSize)) // #nosec G115
	binary.LittleEndian.PutUint32(raw[8:12], uint32(nameSize)) // #nosec G115
	if _, err := w.Write(raw[:]); err != nil {
		return err
	}
	_, err = io.WriteString(w, hdr.FileName)

	return err
}
