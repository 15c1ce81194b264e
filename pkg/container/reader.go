package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"aedat/pkg/codec"
	"aedat/pkg/fbs"
)

// PacketHeader is the fixed-size record header in front of each
// packet body.
type PacketHeader struct {
	StreamID       int32
	Codec          codec.Kind
	CompressedSize int32

	// UncompressedSize is the declared expanded size of the body,
	// negative when undeclared.
	UncompressedSize int32
}

const (
	packetHeaderSize = 16

	// Sanity cap for a single packet body.
	maxPacketSize = 1 << 30
)

// Reader reads the packet records of a single file sequentially.
type Reader struct {
	in        io.ReadSeeker
	header    Header
	dataStart int64
	pos       int64
}

// NewReader reads the file header and creates a reader positioned at
// the first packet record.
func NewReader(in io.ReadSeeker) (*Reader, *Header, error) {
	header, headerSize, err := readHeader(in)
	if err != nil {
		return nil, nil, err
	}
	if header.HasFileData() && header.FileDataPosition < headerSize {
		return nil, nil, fmt.Errorf("%w: file data position %d inside the header",
			ErrInvalidRecord, header.FileDataPosition)
	}

	r := &Reader{
		in:        in,
		header:    header,
		dataStart: headerSize,
		pos:       headerSize,
	}
	return r, &header, nil
}

// NextRecord reads the next packet record. io.EOF marks the clean end
// of the packet region, a packet straddling the end of the region
// returns ErrTruncated.
func (r *Reader) NextRecord() (PacketHeader, []byte, error) {
	if r.header.HasFileData() && r.pos >= r.header.FileDataPosition {
		return PacketHeader{}, nil, io.EOF
	}

	buf := make([]byte, packetHeaderSize)
	n, err := io.ReadFull(r.in, buf)
	r.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return PacketHeader{}, nil, io.EOF
		}
		return PacketHeader{}, nil, fmt.Errorf("%w: packet header: %v", ErrTruncated, err)
	}

	header, err := parsePacketHeader(buf)
	if err != nil {
		return PacketHeader{}, nil, err
	}
	if r.header.HasFileData() &&
		r.pos+int64(header.CompressedSize) > r.header.FileDataPosition {
		return PacketHeader{}, nil, fmt.Errorf(
			"%w: packet crosses the file data table", ErrTruncated)
	}

	body := make([]byte, header.CompressedSize)
	n, err = io.ReadFull(r.in, body)
	r.pos += int64(n)
	if err != nil {
		return PacketHeader{}, nil, fmt.Errorf("%w: packet body: %v", ErrTruncated, err)
	}
	return header, body, nil
}

func parsePacketHeader(buf []byte) (PacketHeader, error) {
	header := PacketHeader{
		StreamID:         int32(binary.LittleEndian.Uint32(buf[0:4])),
		Codec:            codec.Kind(buf[4]),
		CompressedSize:   int32(binary.LittleEndian.Uint32(buf[8:12])),
		UncompressedSize: int32(binary.LittleEndian.Uint32(buf[12:16])),
	}
	if header.CompressedSize < 0 || header.CompressedSize > maxPacketSize {
		return PacketHeader{}, fmt.Errorf(
			"%w: compressed size %d", ErrInvalidRecord, header.CompressedSize)
	}
	if header.UncompressedSize < -1 {
		return PacketHeader{}, fmt.Errorf(
			"%w: uncompressed size %d", ErrInvalidRecord, header.UncompressedSize)
	}
	return header, nil
}

// SeekTo repositions the reader to a packet record boundary, usually
// an offset from the file data table.
func (r *Reader) SeekTo(offset int64) error {
	if offset < r.dataStart ||
		(r.header.HasFileData() && offset > r.header.FileDataPosition) {
		return fmt.Errorf("%w: seek to %d", ErrInvalidRecord, offset)
	}
	if _, err := r.in.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.pos = offset
	return nil
}

// ReadFileData reads the trailing file data table into an index and
// restores the sequential read position.
func (r *Reader) ReadFileData() (*Index, error) {
	if !r.header.HasFileData() {
		return nil, ErrNoFileData
	}
	if _, err := r.in.Seek(r.header.FileDataPosition, io.SeekStart); err != nil {
		return nil, err
	}

	index, err := r.readFileData()

	if _, serr := r.in.Seek(r.pos, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	return index, nil
}

func (r *Reader) readFileData() (*Index, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r.in, lenBuf); err != nil {
		return nil, fmt.Errorf("%w: file data table: %v", ErrTruncated, err)
	}
	size := binary.LittleEndian.Uint32(lenBuf)
	if size > maxBlockSize {
		return nil, fmt.Errorf("%w: file data table length %d", ErrHeaderTooLarge, size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.in, buf); err != nil {
		return nil, fmt.Errorf("%w: file data table: %v", ErrTruncated, err)
	}
	table, err := fbs.AsFileDataTable(buf)
	if err != nil {
		return nil, fmt.Errorf("file data table: %w", err)
	}
	return newIndex(table), nil
}
