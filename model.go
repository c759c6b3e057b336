package rdb

import (
	"bytes"
	"fmt"
)

// Model is a mesh resource. Only its DatafileHeader is interpreted.
type Model struct {
	Header DatafileHeader
	// Payload is the uninterpreted remainder of the stream.
	Payload []byte
}

// ReadModel reads the DatafileHeader of a mesh resource. The payload layout
// is unknown, so a non-nil Model is always returned together with an error
// wrapping ErrUnimplemented when the header itself is valid.
func ReadModel(decoded []byte) (*Model, error) {
	r := bytes.NewReader(decoded)
	hdr, err := ReadDatafileHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Model{Header: *hdr, Payload: decoded[len(decoded)-r.Len():]}

	return m, fmt.Errorf("%w: model payload for %q (%d bytes)", ErrUnimplemented, hdr.FileName, len(m.Payload))
}
