package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// IOHeader is the header table at the start of a file.
// FileDataPosition is negative when the file carries no trailing
// file-data table.
type IOHeader struct {
	FileDataPosition int64
	Description      string
}

// AsIOHeader parses an IOHeader buffer. Not size-prefixed.
func AsIOHeader(buf []byte) (IOHeader, error) {
	t, err := rootTable(buf)
	if err != nil {
		return IOHeader{}, err
	}

	var header IOHeader
	header.FileDataPosition, err = t.int64Field(0, -1)
	if err != nil {
		return IOHeader{}, err
	}
	header.Description, err = t.stringField(1)
	if err != nil {
		return IOHeader{}, err
	}
	return header, nil
}

// BuildIOHeader marshals an IOHeader.
func BuildIOHeader(header IOHeader) []byte {
	b := flatbuffers.NewBuilder(len(header.Description) + 64)

	description := b.CreateString(header.Description)

	b.StartObject(2)
	b.PrependInt64Slot(0, header.FileDataPosition, -1)
	b.PrependUOffsetTSlot(1, description, 0)
	root := b.EndObject()
	b.Finish(root)
	return b.FinishedBytes()
}
