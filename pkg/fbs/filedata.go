package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// FileDataEntry locates one packet in the file. ByteOffset points at
// the packet record header.
type FileDataEntry struct {
	ByteOffset     int64
	TimestampStart int64
	TimestampEnd   int64
	StreamID       int32
	ElementCount   int32
}

// FileDataEntry struct layout.
const (
	fileDataEntrySize  = 32
	fileDataEntryAlign = 8

	fileDataByteOffsetOff     = 0
	fileDataTimestampStartOff = 8
	fileDataTimestampEndOff   = 16
	fileDataStreamIDOff       = 24
	fileDataElementCountOff   = 28
)

// FileDataTable is a read view over the trailing packet table.
type FileDataTable struct {
	tab  flatbuffers.Table
	elem flatbuffers.UOffsetT
	n    int
}

// AsFileDataTable parses a file-data buffer. Not size-prefixed.
func AsFileDataTable(buf []byte) (FileDataTable, error) {
	t, err := rootTable(buf)
	if err != nil {
		return FileDataTable{}, err
	}
	elem, n, err := t.vectorField(0, fileDataEntrySize)
	if err != nil {
		return FileDataTable{}, err
	}
	if n < 0 {
		n = 0
	}
	return FileDataTable{tab: t.tab, elem: elem, n: n}, nil
}

// Len returns the entry count.
func (t FileDataTable) Len() int { return t.n }

// At returns entry i. i must be below Len.
func (t FileDataTable) At(i int) FileDataEntry {
	pos := t.elem + flatbuffers.UOffsetT(i*fileDataEntrySize)
	return FileDataEntry{
		ByteOffset:     t.tab.GetInt64(pos + fileDataByteOffsetOff),
		TimestampStart: t.tab.GetInt64(pos + fileDataTimestampStartOff),
		TimestampEnd:   t.tab.GetInt64(pos + fileDataTimestampEndOff),
		StreamID:       t.tab.GetInt32(pos + fileDataStreamIDOff),
		ElementCount:   t.tab.GetInt32(pos + fileDataElementCountOff),
	}
}

// BuildFileDataTable marshals a file-data buffer.
func BuildFileDataTable(entries []FileDataEntry) []byte {
	b := flatbuffers.NewBuilder(fileDataEntrySize*len(entries) + 64)

	b.StartVector(fileDataEntrySize, len(entries), fileDataEntryAlign)
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		b.Prep(fileDataEntryAlign, fileDataEntrySize)
		b.PrependInt32(entry.ElementCount)
		b.PrependInt32(entry.StreamID)
		b.PrependInt64(entry.TimestampEnd)
		b.PrependInt64(entry.TimestampStart)
		b.PrependInt64(entry.ByteOffset)
	}
	elements := b.EndVector(len(entries))

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, elements, 0)
	root := b.EndObject()
	b.Finish(root)
	return b.FinishedBytes()
}
