// Package aedattest assembles in-memory files for tests.
package aedattest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"aedat/pkg/codec"
	"aedat/pkg/fbs"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// Magic is the header magic of a version 4.0 file.
const Magic = "#!AER-DAT4.0\r\n"

// Stream describes one stream node of a description document.
type Stream struct {
	ID     string // Empty for an implicit id.
	Type   string
	Width  int
	Height int
}

// Description builds a description document.
func Description(streams ...Stream) string {
	var b strings.Builder
	b.WriteString(`<dv version="2.0"><node name="outInfo">`)
	for _, stream := range streams {
		if stream.ID == "" {
			b.WriteString("<node>")
		} else {
			fmt.Fprintf(&b, `<node name=%q>`, stream.ID)
		}
		fmt.Fprintf(&b, `<attr key="typeIdentifier">%s</attr>`, stream.Type)
		if stream.Width != 0 || stream.Height != 0 {
			fmt.Fprintf(&b,
				`<node name="info"><attr key="sizeX">%d</attr><attr key="sizeY">%d</attr></node>`,
				stream.Width, stream.Height)
		}
		b.WriteString("</node>")
	}
	b.WriteString("</node></dv>")
	return b.String()
}

// File assembles packet records into a complete file.
type File struct {
	Description string
	packets     []filePacket
}

type filePacket struct {
	streamID         int32
	kind             codec.Kind
	payload          []byte // Uncompressed payload, nil for raw records.
	raw              []byte // Record body used as-is.
	uncompressedSize int32
}

// NewFile creates a file with the given description document.
func NewFile(description string) *File {
	return &File{Description: description}
}

// AddPacket appends a packet. The payload is compressed with kind and
// the expanded size is declared in the record header.
func (f *File) AddPacket(streamID int32, kind codec.Kind, payload []byte) *File {
	f.packets = append(f.packets, filePacket{
		streamID:         streamID,
		kind:             kind,
		payload:          payload,
		uncompressedSize: int32(len(payload)),
	})
	return f
}

// AddPacketUndeclared appends a packet without declaring the expanded size.
func (f *File) AddPacketUndeclared(streamID int32, kind codec.Kind, payload []byte) *File {
	f.packets = append(f.packets, filePacket{
		streamID:         streamID,
		kind:             kind,
		payload:          payload,
		uncompressedSize: -1,
	})
	return f
}

// AddRaw appends a packet record with the body used as-is.
func (f *File) AddRaw(streamID int32, kind codec.Kind, body []byte, uncompressedSize int32) *File {
	f.packets = append(f.packets, filePacket{
		streamID:         streamID,
		kind:             kind,
		raw:              body,
		uncompressedSize: uncompressedSize,
	})
	return f
}

// Build marshals the file without a file data table.
func (f *File) Build(t testing.TB) []byte {
	t.Helper()
	return f.build(t, false)
}

// BuildIndexed marshals the file with a file data table derived from
// the packet payloads.
func (f *File) BuildIndexed(t testing.TB) []byte {
	t.Helper()
	return f.build(t, true)
}

func (f *File) build(t testing.TB, indexed bool) []byte {
	t.Helper()

	var packets bytes.Buffer
	entries := make([]fbs.FileDataEntry, 0, len(f.packets))
	for _, packet := range f.packets {
		body := packet.raw
		if body == nil {
			body = Compress(t, packet.kind, packet.payload)
		}

		start, end, count := timeRange(packet.payload)
		entries = append(entries, fbs.FileDataEntry{
			ByteOffset:     int64(packets.Len()), // Relative, adjusted below.
			TimestampStart: start,
			TimestampEnd:   end,
			StreamID:       packet.streamID,
			ElementCount:   count,
		})

		header := make([]byte, 16)
		binary.LittleEndian.PutUint32(header[0:4], uint32(packet.streamID))
		header[4] = uint8(packet.kind)
		binary.LittleEndian.PutUint32(header[8:12], uint32(len(body)))
		binary.LittleEndian.PutUint32(header[12:16], uint32(packet.uncompressedSize))
		packets.Write(header)
		packets.Write(body)
	}

	fileDataPosition := int64(-1)
	if indexed {
		fileDataPosition = 0 // Placeholder with the same marshaled size.
	}
	ioHeader := fbs.BuildIOHeader(fbs.IOHeader{
		FileDataPosition: fileDataPosition,
		Description:      f.Description,
	})
	dataStart := int64(len(Magic) + 4 + len(ioHeader))

	if indexed {
		fileDataPosition = dataStart + int64(packets.Len())
		ioHeader = fbs.BuildIOHeader(fbs.IOHeader{
			FileDataPosition: fileDataPosition,
			Description:      f.Description,
		})
		for i := range entries {
			entries[i].ByteOffset += dataStart
		}
	}

	var file bytes.Buffer
	file.WriteString(Magic)
	writeBlock(&file, ioHeader)
	file.Write(packets.Bytes())
	if indexed {
		writeBlock(&file, fbs.BuildFileDataTable(entries))
	}
	return file.Bytes()
}

func writeBlock(dst *bytes.Buffer, block []byte) {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(block)))
	dst.Write(lenBuf)
	dst.Write(block)
}

// Compress compresses a packet body with kind.
func Compress(t testing.TB, kind codec.Kind, payload []byte) []byte {
	t.Helper()

	switch kind {
	case codec.None:
		return payload

	case codec.LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()

	case codec.Zstd:
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(payload, nil)
	}

	t.Fatalf("no compressor for kind %v", kind)
	return nil
}

// timeRange extracts the timestamp range and element count of a payload.
func timeRange(payload []byte) (int64, int64, int32) {
	id, err := fbs.PayloadIdentifier(payload)
	if err != nil {
		return 0, 0, 0
	}

	switch id {
	case "EVTS":
		p, err := fbs.AsEventPacket(payload)
		if err != nil || p.Len() == 0 {
			return 0, 0, 0
		}
		return p.At(0).T, p.At(p.Len() - 1).T, int32(p.Len())

	case "FRME":
		frame, err := fbs.AsFrame(payload)
		if err != nil {
			return 0, 0, 0
		}
		return frame.T, frame.T, 1

	case "IMUS":
		p, err := fbs.AsImuPacket(payload)
		if err != nil || p.Len() == 0 {
			return 0, 0, 0
		}
		return p.At(0).T, p.At(p.Len() - 1).T, int32(p.Len())

	case "TRIG":
		p, err := fbs.AsTriggerPacket(payload)
		if err != nil || p.Len() == 0 {
			return 0, 0, 0
		}
		return p.At(0).T, p.At(p.Len() - 1).T, int32(p.Len())
	}
	return 0, 0, 0
}
