// Package fbs reads and writes the FlatBuffers tables of the container.
//
// The bindings are written by hand against the FlatBuffers runtime and
// verify every offset before use. Corrupt buffers yield errors, not panics.
package fbs

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Buffer errors.
var (
	ErrInvalidBuffer = errors.New("invalid flatbuffer")
	ErrBadIdentifier = errors.New("wrong payload identifier")
)

// Payload file identifiers at bytes 8-11 of a size-prefixed buffer.
const (
	identifierEvents   = "EVTS"
	identifierFrame    = "FRME"
	identifierImu      = "IMUS"
	identifierTrigger  = "TRIG"
	identifierMinBytes = 12 // size prefix + root offset + identifier
)

// PayloadIdentifier returns the file identifier of a size-prefixed payload.
func PayloadIdentifier(buf []byte) (string, error) {
	if len(buf) < identifierMinBytes {
		return "", fmt.Errorf("%w: %d byte payload", ErrInvalidBuffer, len(buf))
	}
	return string(buf[8:12]), nil
}

// table is a bounds-checked view over a single flatbuffer table.
type table struct {
	tab flatbuffers.Table
}

// rootTable verifies the root offset and vtable of a plain buffer.
func rootTable(buf []byte) (table, error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return table{}, fmt.Errorf("%w: %d byte buffer", ErrInvalidBuffer, len(buf))
	}
	return tableAt(buf, int64(flatbuffers.GetUOffsetT(buf)))
}

// payloadRoot verifies a size-prefixed payload buffer and its identifier.
func payloadRoot(buf []byte, identifier string) (table, error) {
	id, err := PayloadIdentifier(buf)
	if err != nil {
		return table{}, err
	}
	if id != identifier {
		return table{}, fmt.Errorf("%w: %q, expected %q", ErrBadIdentifier, id, identifier)
	}
	size := int64(flatbuffers.GetSizePrefix(buf, 0))
	if size+flatbuffers.SizeUint32 > int64(len(buf)) {
		return table{}, fmt.Errorf("%w: declared size %d", ErrInvalidBuffer, size)
	}
	pos := int64(flatbuffers.GetUOffsetT(buf[flatbuffers.SizeUint32:]))
	return tableAt(buf, pos+flatbuffers.SizeUint32)
}

func tableAt(buf []byte, pos int64) (table, error) {
	if pos < 0 || pos+flatbuffers.SizeSOffsetT > int64(len(buf)) {
		return table{}, fmt.Errorf("%w: table offset %d", ErrInvalidBuffer, pos)
	}
	vtable := pos - int64(flatbuffers.GetSOffsetT(buf[pos:]))
	if vtable < 0 || vtable+flatbuffers.SizeVOffsetT > int64(len(buf)) {
		return table{}, fmt.Errorf("%w: vtable offset %d", ErrInvalidBuffer, vtable)
	}
	vtableSize := int64(flatbuffers.GetVOffsetT(buf[vtable:]))
	if vtableSize < 4 || vtableSize%2 != 0 || vtable+vtableSize > int64(len(buf)) {
		return table{}, fmt.Errorf("%w: vtable size %d", ErrInvalidBuffer, vtableSize)
	}
	return table{tab: flatbuffers.Table{
		Bytes: buf,
		Pos:   flatbuffers.UOffsetT(pos),
	}}, nil
}

// fieldPos returns the byte position of a scalar field.
// exist is false when the field is absent from the table.
func (t table) fieldPos(slot int, size int64) (flatbuffers.UOffsetT, bool, error) {
	off := t.tab.Offset(flatbuffers.VOffsetT(4 + 2*slot))
	if off == 0 {
		return 0, false, nil
	}
	pos := int64(t.tab.Pos) + int64(off)
	if pos+size > int64(len(t.tab.Bytes)) {
		return 0, false, fmt.Errorf("%w: field %d beyond buffer", ErrInvalidBuffer, slot)
	}
	return flatbuffers.UOffsetT(pos), true, nil
}

func (t table) int64Field(slot int, def int64) (int64, error) {
	pos, exist, err := t.fieldPos(slot, flatbuffers.SizeInt64)
	if err != nil || !exist {
		return def, err
	}
	return t.tab.GetInt64(pos), nil
}

func (t table) int16Field(slot int, def int16) (int16, error) {
	pos, exist, err := t.fieldPos(slot, flatbuffers.SizeInt16)
	if err != nil || !exist {
		return def, err
	}
	return t.tab.GetInt16(pos), nil
}

func (t table) int8Field(slot int, def int8) (int8, error) {
	pos, exist, err := t.fieldPos(slot, flatbuffers.SizeInt8)
	if err != nil || !exist {
		return def, err
	}
	return t.tab.GetInt8(pos), nil
}

// vectorField resolves a string or vector field to the position of its
// first element and the element count. Absent fields return n = -1.
func (t table) vectorField(slot int, elemSize int64) (flatbuffers.UOffsetT, int, error) {
	pos, exist, err := t.fieldPos(slot, flatbuffers.SizeUOffsetT)
	if err != nil {
		return 0, 0, err
	}
	if !exist {
		return 0, -1, nil
	}

	buf := t.tab.Bytes
	target := int64(pos) + int64(flatbuffers.GetUOffsetT(buf[pos:]))
	if target+flatbuffers.SizeUOffsetT > int64(len(buf)) {
		return 0, 0, fmt.Errorf("%w: vector offset %d", ErrInvalidBuffer, target)
	}
	n := int64(flatbuffers.GetUOffsetT(buf[target:]))
	start := target + flatbuffers.SizeUOffsetT
	if start+n*elemSize > int64(len(buf)) {
		return 0, 0, fmt.Errorf(
			"%w: vector of %d elements beyond buffer", ErrInvalidBuffer, n)
	}
	return flatbuffers.UOffsetT(start), int(n), nil
}

func (t table) stringField(slot int) (string, error) {
	pos, n, err := t.vectorField(slot, 1)
	if err != nil || n < 0 {
		return "", err
	}
	return string(t.tab.Bytes[pos:][:n]), nil
}

func (t table) byteVectorField(slot int) ([]byte, error) {
	pos, n, err := t.vectorField(slot, 1)
	if err != nil || n < 0 {
		return nil, err
	}
	return t.tab.Bytes[pos:][:n], nil
}
