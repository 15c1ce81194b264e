package payload

import (
	"errors"
	"fmt"

	"aedat/pkg/fbs"
	"aedat/pkg/schema"
)

// FrameFormat is the pixel format of a frame, using OpenCV type codes.
type FrameFormat int8

// Frame pixel formats.
const (
	FormatGray FrameFormat = 0
	FormatBGR  FrameFormat = 16
	FormatBGRA FrameFormat = 24
)

func (f FrameFormat) String() string {
	switch f {
	case FormatGray:
		return "gray"
	case FormatBGR:
		return "bgr"
	case FormatBGRA:
		return "bgra"
	}
	return fmt.Sprintf("unknown(%d)", int8(f))
}

// Channels returns the number of color channels, zero for an
// unrecognized format.
func (f FrameFormat) Channels() int {
	switch f {
	case FormatGray:
		return 1
	case FormatBGR:
		return 3
	case FormatBGRA:
		return 4
	}
	return 0
}

// ErrUnknownFormat unrecognized pixel format.
var ErrUnknownFormat = errors.New("unknown frame format")

// Frame is a single decoded camera frame. Pixels are packed row-major
// with Channels interleaved bytes per pixel. OffsetX and OffsetY
// position the readout region on the sensor.
type Frame struct {
	T             int64
	ExposureBegin int64
	ExposureEnd   int64
	Format        FrameFormat
	Width         int16
	Height        int16
	OffsetX       int16
	OffsetY       int16
	Pixels        []uint8
}

// Kind implements Batch.
func (f *Frame) Kind() schema.StreamKind { return schema.KindFrame }

// TimeRange implements Batch.
func (f *Frame) TimeRange() (int64, int64, bool) { return f.T, f.T, true }

func decodeFrame(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	raw, err := fbs.AsFrame(data)
	if err != nil {
		return nil, nil, mapBufferError(err)
	}

	if int(raw.Width) != int(stream.Width) || int(raw.Height) != int(stream.Height) {
		return nil, nil, fmt.Errorf("%w: %dx%d, stream is %dx%d",
			ErrGeometryMismatch, raw.Width, raw.Height, stream.Width, stream.Height)
	}

	format := FrameFormat(raw.Format)
	channels := format.Channels()
	if channels == 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFormat, raw.Format)
	}

	expected := int(raw.Width) * int(raw.Height) * channels
	if len(raw.Pixels) != expected {
		return nil, nil, fmt.Errorf("%w: %d pixel bytes, expected %d",
			ErrTruncated, len(raw.Pixels), expected)
	}

	frame := &Frame{
		T:             raw.T,
		ExposureBegin: raw.ExposureBegin,
		ExposureEnd:   raw.ExposureEnd,
		Format:        format,
		Width:         raw.Width,
		Height:        raw.Height,
		OffsetX:       raw.OffsetX,
		OffsetY:       raw.OffsetY,
		Pixels:        raw.Pixels,
	}
	return frame, nil, nil
}
