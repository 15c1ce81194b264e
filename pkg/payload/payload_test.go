package payload

import (
	"testing"

	"aedat/pkg/fbs"
	"aedat/pkg/schema"

	"github.com/stretchr/testify/require"
)

var (
	eventStream = schema.Descriptor{
		ID:             0,
		Kind:           schema.KindEvents,
		TypeIdentifier: "EVTS",
		Width:          4,
		Height:         4,
	}
	frameStream = schema.Descriptor{
		ID:             1,
		Kind:           schema.KindFrame,
		TypeIdentifier: "FRME",
		Width:          2,
		Height:         2,
	}
	imuStream = schema.Descriptor{
		ID:             2,
		Kind:           schema.KindImu,
		TypeIdentifier: "IMUS",
	}
	triggerStream = schema.Descriptor{
		ID:             3,
		Kind:           schema.KindTrigger,
		TypeIdentifier: "TRIG",
	}
)

func TestDecodeEvents(t *testing.T) {
	data := fbs.BuildEventPacket([]fbs.Event{
		{T: 100, X: 1, Y: 1, On: true},
		{T: 101, X: 2, Y: 0, On: false},
		{T: 102, X: 3, Y: 3, On: true},
	})

	batch, diags, err := Decode(eventStream, data)
	require.NoError(t, err)
	require.Empty(t, diags)

	events, ok := batch.(*EventBatch)
	require.True(t, ok)
	require.Equal(t, schema.KindEvents, events.Kind())
	require.Equal(t, 3, events.Len())
	require.Equal(t, []int64{100, 101, 102}, events.T)
	require.Equal(t, []int16{1, 2, 3}, events.X)
	require.Equal(t, []int16{1, 0, 3}, events.Y)
	require.Equal(t, []bool{true, false, true}, events.On)

	first, last, ok := events.TimeRange()
	require.True(t, ok)
	require.Equal(t, int64(100), first)
	require.Equal(t, int64(102), last)
}

func TestDecodeEventsEmpty(t *testing.T) {
	batch, diags, err := Decode(eventStream, fbs.BuildEventPacket(nil))
	require.NoError(t, err)
	require.Empty(t, diags)

	events := batch.(*EventBatch)
	require.Equal(t, 0, events.Len())

	_, _, ok := events.TimeRange()
	require.False(t, ok)
}

func TestDecodeEventsOutOfRange(t *testing.T) {
	testCases := []struct {
		name  string
		event fbs.Event
	}{
		{"xTooBig", fbs.Event{T: 100, X: 4, Y: 0}},
		{"yTooBig", fbs.Event{T: 100, X: 0, Y: 4}},
		{"negativeX", fbs.Event{T: 100, X: -1, Y: 0}},
		{"negativeY", fbs.Event{T: 100, X: 0, Y: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := fbs.BuildEventPacket([]fbs.Event{tc.event})
			_, _, err := Decode(eventStream, data)
			require.ErrorIs(t, err, ErrCoordOutOfRange)
		})
	}
}

func TestDecodeEventsRegression(t *testing.T) {
	data := fbs.BuildEventPacket([]fbs.Event{
		{T: 100, X: 0, Y: 0},
		{T: 99, X: 0, Y: 0},
		{T: 98, X: 0, Y: 0},
	})

	batch, diags, err := Decode(eventStream, data)
	require.NoError(t, err)

	// Decoding continues, one diagnostic per batch.
	require.Equal(t, []int64{100, 99, 98}, batch.(*EventBatch).T)
	require.Len(t, diags, 1)
	require.Equal(t, DiagTimestampRegression, diags[0].Code)
	require.Equal(t, int32(0), diags[0].StreamID)
}

func TestDecodeFrame(t *testing.T) {
	data := fbs.BuildFrame(fbs.Frame{
		T:             5000,
		ExposureBegin: 4990,
		ExposureEnd:   5010,
		Format:        int8(FormatGray),
		Width:         2,
		Height:        2,
		OffsetX:       4,
		OffsetY:       8,
		Pixels:        []byte{10, 20, 30, 40},
	})

	batch, diags, err := Decode(frameStream, data)
	require.NoError(t, err)
	require.Empty(t, diags)

	frame, ok := batch.(*Frame)
	require.True(t, ok)
	require.Equal(t, &Frame{
		T:             5000,
		ExposureBegin: 4990,
		ExposureEnd:   5010,
		Format:        FormatGray,
		Width:         2,
		Height:        2,
		OffsetX:       4,
		OffsetY:       8,
		Pixels:        []byte{10, 20, 30, 40},
	}, frame)

	first, last, ok := frame.TimeRange()
	require.True(t, ok)
	require.Equal(t, int64(5000), first)
	require.Equal(t, int64(5000), last)
}

func TestDecodeFrameBGR(t *testing.T) {
	pixels := make([]byte, 2*2*3)
	data := fbs.BuildFrame(fbs.Frame{
		T:      1,
		Format: int8(FormatBGR),
		Width:  2,
		Height: 2,
		Pixels: pixels,
	})

	batch, _, err := Decode(frameStream, data)
	require.NoError(t, err)
	require.Equal(t, FormatBGR, batch.(*Frame).Format)
}

func TestDecodeFrameErrors(t *testing.T) {
	t.Run("geometryMismatch", func(t *testing.T) {
		data := fbs.BuildFrame(fbs.Frame{
			Format: int8(FormatGray),
			Width:  3,
			Height: 3,
			Pixels: make([]byte, 9),
		})
		_, _, err := Decode(frameStream, data)
		require.ErrorIs(t, err, ErrGeometryMismatch)
	})
	t.Run("unknownFormat", func(t *testing.T) {
		data := fbs.BuildFrame(fbs.Frame{
			Format: 99,
			Width:  2,
			Height: 2,
			Pixels: make([]byte, 4),
		})
		_, _, err := Decode(frameStream, data)
		require.ErrorIs(t, err, ErrUnknownFormat)
	})
	t.Run("pixelCount", func(t *testing.T) {
		data := fbs.BuildFrame(fbs.Frame{
			Format: int8(FormatGray),
			Width:  2,
			Height: 2,
			Pixels: []byte{1, 2, 3},
		})
		_, _, err := Decode(frameStream, data)
		require.ErrorIs(t, err, ErrTruncated)
	})
}

func TestDecodeImus(t *testing.T) {
	data := fbs.BuildImuPacket([]fbs.Imu{
		{
			T:           200,
			Temperature: 25,
			AccelX:      0.1, AccelY: 0.2, AccelZ: 9.8,
			GyroX: 1.5, GyroY: -1.5, GyroZ: 0.25,
			MagX: 0.5, MagY: 0.75, MagZ: -0.5,
		},
		{T: 300, Temperature: 25.5},
	})

	batch, diags, err := Decode(imuStream, data)
	require.NoError(t, err)
	require.Empty(t, diags)

	imus, ok := batch.(*ImuBatch)
	require.True(t, ok)
	require.Equal(t, 2, imus.Len())
	require.Equal(t, ImuSample{
		T:           200,
		Temperature: 25,
		AccelX:      0.1, AccelY: 0.2, AccelZ: 9.8,
		GyroX: 1.5, GyroY: -1.5, GyroZ: 0.25,
		MagX: 0.5, MagY: 0.75, MagZ: -0.5,
	}, imus.Samples[0])
	require.Equal(t, int64(300), imus.Samples[1].T)
}

func TestDecodeTriggers(t *testing.T) {
	data := fbs.BuildTriggerPacket([]fbs.Trigger{
		{T: 400, Source: int8(SourceExternalRising)},
		{T: 500, Source: int8(SourceExposureEnd)},
	})

	batch, diags, err := Decode(triggerStream, data)
	require.NoError(t, err)
	require.Empty(t, diags)

	triggers, ok := batch.(*TriggerBatch)
	require.True(t, ok)
	require.Equal(t, []Trigger{
		{T: 400, Source: SourceExternalRising},
		{T: 500, Source: SourceExposureEnd},
	}, triggers.Triggers)
}

func TestDecodeUnknown(t *testing.T) {
	stream := schema.Descriptor{
		ID:             9,
		Kind:           schema.KindUnknown,
		TypeIdentifier: "CSTM",
	}
	raw := []byte{1, 2, 3, 4}

	batch, diags, err := Decode(stream, raw)
	require.NoError(t, err)

	unknown, ok := batch.(*UnknownBatch)
	require.True(t, ok)
	require.Equal(t, "CSTM", unknown.TypeIdentifier)
	require.Equal(t, raw, unknown.Raw)

	require.Len(t, diags, 1)
	require.Equal(t, DiagUnknownStream, diags[0].Code)
	require.Equal(t, int32(9), diags[0].StreamID)

	_, _, hasTime := unknown.TimeRange()
	require.False(t, hasTime)
}

func TestDecodeSchemaMismatch(t *testing.T) {
	// A frame payload on an event stream.
	data := fbs.BuildFrame(fbs.Frame{
		Format: int8(FormatGray),
		Width:  4,
		Height: 4,
		Pixels: make([]byte, 16),
	})

	_, _, err := Decode(eventStream, data)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDecodeTruncatedBuffer(t *testing.T) {
	data := fbs.BuildEventPacket([]fbs.Event{{T: 100, X: 0, Y: 0}})

	_, _, err := Decode(eventStream, data[:len(data)-4])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFrameFormat(t *testing.T) {
	require.Equal(t, 1, FormatGray.Channels())
	require.Equal(t, 3, FormatBGR.Channels())
	require.Equal(t, 4, FormatBGRA.Channels())
	require.Equal(t, 0, FrameFormat(99).Channels())

	require.Equal(t, "gray", FormatGray.String())
	require.Equal(t, "bgr", FormatBGR.String())
	require.Equal(t, "bgra", FormatBGRA.String())
	require.Equal(t, "unknown(99)", FrameFormat(99).String())
}

func TestTriggerSourceString(t *testing.T) {
	require.Equal(t, "timestamp reset", SourceTimestampReset.String())
	require.Equal(t, "exposure end", SourceExposureEnd.String())
	require.Equal(t, "unknown(42)", TriggerSource(42).String())
}

func BenchmarkDecodeEvents(b *testing.B) {
	stream := schema.Descriptor{
		ID:             0,
		Kind:           schema.KindEvents,
		TypeIdentifier: "EVTS",
		Width:          640,
		Height:         480,
	}

	events := make([]fbs.Event, 8192)
	for i := range events {
		events[i] = fbs.Event{
			T:  int64(i),
			X:  int16(i % 640),
			Y:  int16(i / 640),
			On: i%2 == 0,
		}
	}
	data := fbs.BuildEventPacket(events)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := Decode(stream, data)
		require.NoError(b, err)
	}
}
