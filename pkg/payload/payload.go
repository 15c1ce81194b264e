// Package payload decodes packet payloads into record batches.
package payload

import (
	"errors"
	"fmt"

	"aedat/pkg/fbs"
	"aedat/pkg/schema"
)

// Decode errors.
var (
	ErrSchemaMismatch   = errors.New("payload does not match the stream type")
	ErrTruncated        = errors.New("truncated payload")
	ErrGeometryMismatch = errors.New("frame geometry does not match the stream")
	ErrCoordOutOfRange  = errors.New("event coordinate outside the sensor")
)

// Batch is a single decoded payload.
type Batch interface {
	// Kind returns the stream kind that produced the batch.
	Kind() schema.StreamKind

	// TimeRange returns the first and last timestamp of the batch in
	// stored order. ok is false when the batch carries no timestamps.
	TimeRange() (first, last int64, ok bool)
}

// DiagCode classifies a diagnostic.
type DiagCode uint8

// Diagnostic codes.
const (
	DiagUnknownStream DiagCode = iota + 1
	DiagTimestampRegression
)

func (c DiagCode) String() string {
	switch c {
	case DiagUnknownStream:
		return "unknown stream type"
	case DiagTimestampRegression:
		return "timestamp regression"
	}
	return fmt.Sprintf("diagnostic(%d)", uint8(c))
}

// Diagnostic is a non-fatal anomaly observed while decoding.
type Diagnostic struct {
	Code     DiagCode
	StreamID int32
	Msg      string
}

// Decode decodes a decompressed payload according to the stream
// descriptor. The returned batch takes ownership of data. Diagnostics
// carry non-fatal anomalies, at most one timestamp regression is
// reported per batch.
func Decode(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	switch stream.Kind {
	case schema.KindEvents:
		return decodeEvents(stream, data)
	case schema.KindFrame:
		return decodeFrame(stream, data)
	case schema.KindImu:
		return decodeImus(stream, data)
	case schema.KindTrigger:
		return decodeTriggers(stream, data)
	}
	return decodeUnknown(stream, data)
}

// UnknownBatch is the raw payload of a stream with an unrecognized
// type identifier.
type UnknownBatch struct {
	TypeIdentifier string
	Raw            []byte
}

// Kind implements Batch.
func (b *UnknownBatch) Kind() schema.StreamKind { return schema.KindUnknown }

// TimeRange implements Batch.
func (b *UnknownBatch) TimeRange() (int64, int64, bool) { return 0, 0, false }

func decodeUnknown(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	batch := &UnknownBatch{
		TypeIdentifier: stream.TypeIdentifier,
		Raw:            data,
	}
	diags := []Diagnostic{{
		Code:     DiagUnknownStream,
		StreamID: stream.ID,
		Msg:      fmt.Sprintf("type identifier %q", stream.TypeIdentifier),
	}}
	return batch, diags, nil
}

// mapBufferError translates buffer errors into the decode taxonomy.
func mapBufferError(err error) error {
	if errors.Is(err, fbs.ErrBadIdentifier) {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if errors.Is(err, fbs.ErrInvalidBuffer) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}

func timestampDiag(streamID int32, prev, cur int64) Diagnostic {
	return Diagnostic{
		Code:     DiagTimestampRegression,
		StreamID: streamID,
		Msg:      fmt.Sprintf("timestamp %d after %d", cur, prev),
	}
}
