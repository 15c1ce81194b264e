package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Frame is a FRME payload. ExposureBegin and ExposureEnd bound the
// exposure interval, OffsetX and OffsetY position the readout region
// on the sensor. Pixels aliases the payload buffer.
type Frame struct {
	T             int64
	ExposureBegin int64
	ExposureEnd   int64
	Format        int8
	Width         int16
	Height        int16
	OffsetX       int16
	OffsetY       int16
	Pixels        []byte
}

// AsFrame parses a size-prefixed FRME payload.
func AsFrame(buf []byte) (Frame, error) { //nolint:funlen
	t, err := payloadRoot(buf, identifierFrame)
	if err != nil {
		return Frame{}, err
	}

	var frame Frame
	frame.T, err = t.int64Field(0, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.ExposureBegin, err = t.int64Field(1, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.ExposureEnd, err = t.int64Field(2, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.Format, err = t.int8Field(3, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.Width, err = t.int16Field(4, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.Height, err = t.int16Field(5, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.OffsetX, err = t.int16Field(6, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.OffsetY, err = t.int16Field(7, 0)
	if err != nil {
		return Frame{}, err
	}
	frame.Pixels, err = t.byteVectorField(8)
	if err != nil {
		return Frame{}, err
	}
	return frame, nil
}

// BuildFrame marshals a size-prefixed FRME payload.
func BuildFrame(frame Frame) []byte {
	b := flatbuffers.NewBuilder(len(frame.Pixels) + 128)

	pixels := b.CreateByteVector(frame.Pixels)

	b.StartObject(9)
	b.PrependInt64Slot(0, frame.T, 0)
	b.PrependInt64Slot(1, frame.ExposureBegin, 0)
	b.PrependInt64Slot(2, frame.ExposureEnd, 0)
	b.PrependInt8Slot(3, frame.Format, 0)
	b.PrependInt16Slot(4, frame.Width, 0)
	b.PrependInt16Slot(5, frame.Height, 0)
	b.PrependInt16Slot(6, frame.OffsetX, 0)
	b.PrependInt16Slot(7, frame.OffsetY, 0)
	b.PrependUOffsetTSlot(8, pixels, 0)
	root := b.EndObject()
	b.FinishSizePrefixedWithFileIdentifier(root, []byte(identifierFrame))
	return b.FinishedBytes()
}
