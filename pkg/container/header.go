package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"aedat/pkg/fbs"
)

// Container errors.
var (
	ErrNotAedat4          = errors.New("not an aedat4 file")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrHeaderTooLarge     = errors.New("header too large")
	ErrTruncated          = errors.New("unexpected end of file")
	ErrInvalidRecord      = errors.New("invalid packet record")
	ErrNoFileData         = errors.New("no file data table")
)

const (
	magicPrefix = "#!AER-DAT"
	magicSize   = 14 // prefix + "X.Y\r\n"

	supportedVersion = "4.0"

	// Sanity cap for the header and file data blocks.
	maxBlockSize = 1 << 24
)

// Header is the parsed file header.
type Header struct {
	Version     string
	Description string

	// FileDataPosition is the byte offset of the trailing file data
	// table, negative when the file has none.
	FileDataPosition int64
}

// HasFileData reports whether the file declares a file data table.
func (h Header) HasFileData() bool { return h.FileDataPosition >= 0 }

// readHeader parses the magic and the header block.
// Returns the number of bytes consumed.
func readHeader(r io.Reader) (Header, int64, error) {
	magic := make([]byte, magicSize)
	if _, err := io.ReadFull(r, magic); err != nil {
		return Header{}, 0, fmt.Errorf("%w: %v", ErrNotAedat4, err)
	}
	if !bytes.HasPrefix(magic, []byte(magicPrefix)) {
		return Header{}, 0, ErrNotAedat4
	}
	if string(magic[magicSize-2:]) != "\r\n" {
		return Header{}, 0, ErrNotAedat4
	}
	version := string(magic[len(magicPrefix) : magicSize-2])
	if version != supportedVersion {
		return Header{}, 0, fmt.Errorf("%w: %v", ErrUnsupportedVersion, version)
	}

	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return Header{}, 0, fmt.Errorf("%w: header block: %v", ErrTruncated, err)
	}
	size := binary.LittleEndian.Uint32(lenBuf)
	if size > maxBlockSize {
		return Header{}, 0, fmt.Errorf("%w: header block length %d", ErrHeaderTooLarge, size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, 0, fmt.Errorf("%w: header block: %v", ErrTruncated, err)
	}
	ioHeader, err := fbs.AsIOHeader(buf)
	if err != nil {
		return Header{}, 0, fmt.Errorf("header block: %w", err)
	}

	header := Header{
		Version:          version,
		Description:      ioHeader.Description,
		FileDataPosition: ioHeader.FileDataPosition,
	}
	return header, int64(magicSize + 4 + size), nil
}
