package aedat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"aedat/pkg/codec"
	"aedat/pkg/container"
	"aedat/pkg/payload"
	"aedat/pkg/schema"
)

// Decoder errors.
var (
	// ErrUnknownStreamID stream id without a descriptor.
	ErrUnknownStreamID = errors.New("unknown stream id")

	// ErrSeekUnsupported the file has no file data table.
	ErrSeekUnsupported = errors.New("seek unsupported")

	// ErrStreamNotIndexed the file data table has no entries for the stream.
	ErrStreamNotIndexed = errors.New("stream not indexed")

	// ErrClosed decoder is closed.
	ErrClosed = errors.New("decoder is closed")
)

type decoderState uint8

const (
	stateReady decoderState = iota
	stateExhausted
	stateFaulted
)

// Decoder reads one file packet by packet in file order.
//
// A decode error is terminal. The decoder faults and every further
// call returns the captured error. Not safe for concurrent use, open
// one decoder per goroutine instead.
type Decoder struct {
	r      *container.Reader
	closer io.Closer
	dec    codec.Decompressor

	header  container.Header
	streams []schema.Descriptor
	byID    map[int32]int // Stream id to streams index.

	state decoderState
	err   error

	// Last batch timestamp per stream, for order tracking.
	lastT map[int32]int64

	indexOnce sync.Once
	index     *container.Index
	indexErr  error
}

// Packet is one decoded record.
type Packet struct {
	StreamID    int32
	Kind        schema.StreamKind
	Codec       codec.Kind
	Batch       payload.Batch
	Diagnostics []payload.Diagnostic
}

// New creates a decoder with the default decompressor.
func New(in io.ReadSeeker) (*Decoder, error) {
	return NewWithDecompressor(in, codec.Default())
}

// NewWithDecompressor creates a decoder with a custom decompressor.
func NewWithDecompressor(in io.ReadSeeker, dec codec.Decompressor) (*Decoder, error) {
	r, header, err := container.NewReader(in)
	if err != nil {
		return nil, err
	}

	streams, err := schema.Parse(header.Description)
	if err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}

	byID := make(map[int32]int, len(streams))
	for i, stream := range streams {
		byID[stream.ID] = i
	}

	return &Decoder{
		r:       r,
		dec:     dec,
		header:  *header,
		streams: streams,
		byID:    byID,
		lastT:   make(map[int32]int64, len(streams)),
	}, nil
}

// OpenFile creates a decoder that owns the opened file.
// Caller must call Close() when done.
func OpenFile(path string) (*Decoder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d, err := New(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	d.closer = file
	return d, nil
}

// Header returns the container header.
func (d *Decoder) Header() container.Header {
	return d.header
}

// Streams returns the declared streams in description order.
// The returned slice is a copy.
func (d *Decoder) Streams() []schema.Descriptor {
	streams := make([]schema.Descriptor, len(d.streams))
	copy(streams, d.streams)
	return streams
}

// Next reads, decompresses and decodes the next packet.
// End of data returns io.EOF.
func (d *Decoder) Next() (*Packet, error) {
	switch d.state {
	case stateFaulted:
		return nil, d.err
	case stateExhausted:
		return nil, io.EOF
	case stateReady:
	}

	hdr, body, err := d.r.NextRecord()
	if errors.Is(err, io.EOF) {
		d.state = stateExhausted
		return nil, io.EOF
	} else if err != nil {
		return nil, d.fault(err)
	}

	i, exist := d.byID[hdr.StreamID]
	if !exist {
		return nil, d.fault(fmt.Errorf("%w: %d", ErrUnknownStreamID, hdr.StreamID))
	}
	stream := d.streams[i]

	data, err := d.dec.Decompress(hdr.Codec, body, int(hdr.UncompressedSize))
	if err != nil {
		return nil, d.fault(fmt.Errorf("stream %d: %w", stream.ID, err))
	}

	batch, diags, err := payload.Decode(stream, data)
	if err != nil {
		return nil, d.fault(fmt.Errorf("stream %d: %w", stream.ID, err))
	}

	if diag, regressed := d.checkOrder(stream.ID, batch); regressed {
		diags = append(diags, diag)
	}

	return &Packet{
		StreamID:    stream.ID,
		Kind:        stream.Kind,
		Codec:       hdr.Codec,
		Batch:       batch,
		Diagnostics: diags,
	}, nil
}

// checkOrder flags batches that start before the previous batch of
// the same stream ended.
func (d *Decoder) checkOrder(streamID int32, batch payload.Batch) (payload.Diagnostic, bool) {
	first, last, ok := batch.TimeRange()
	if !ok {
		return payload.Diagnostic{}, false
	}

	prev, seen := d.lastT[streamID]
	d.lastT[streamID] = last
	if !seen || first >= prev {
		return payload.Diagnostic{}, false
	}

	return payload.Diagnostic{
		Code:     payload.DiagTimestampRegression,
		StreamID: streamID,
		Msg:      fmt.Sprintf("timestamp %d after %d", first, prev),
	}, true
}

// Seek repositions the decoder to the indexed packet covering
// timestamp on the given stream. Timestamps before the first entry
// clamp to the first entry. The file data table is loaded on first
// use and cached.
//
// Seeking an exhausted decoder makes it ready again, a faulted
// decoder stays faulted.
func (d *Decoder) Seek(streamID int32, timestamp int64) error {
	if d.state == stateFaulted {
		return d.err
	}

	if _, exist := d.byID[streamID]; !exist {
		return fmt.Errorf("%w: %d", ErrUnknownStreamID, streamID)
	}

	d.indexOnce.Do(func() {
		d.index, d.indexErr = d.r.ReadFileData()
		if errors.Is(d.indexErr, container.ErrNoFileData) {
			d.indexErr = ErrSeekUnsupported
		}
	})
	if d.indexErr != nil {
		return d.indexErr
	}

	entry, exist := d.index.Find(streamID, timestamp)
	if !exist {
		return fmt.Errorf("%w: %d", ErrStreamNotIndexed, streamID)
	}

	if err := d.r.SeekTo(entry.Offset); err != nil {
		return err
	}

	// Order tracking restarts from the new position.
	for id := range d.lastT {
		delete(d.lastT, id)
	}
	d.state = stateReady
	return nil
}

// fault moves the decoder to the terminal faulted state.
func (d *Decoder) fault(err error) error {
	d.state = stateFaulted
	d.err = err
	return err
}

// Close releases the file if the decoder owns one and faults the
// decoder with ErrClosed.
func (d *Decoder) Close() error {
	var err error
	if d.closer != nil {
		err = d.closer.Close()
		d.closer = nil
	}
	d.fault(ErrClosed)
	return err
}
