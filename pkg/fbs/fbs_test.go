package fbs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventPacket(t *testing.T) {
	events := []Event{
		{T: 100, X: 1, Y: 1, On: true},
		{T: 101, X: 2, Y: 0, On: false},
		{T: 102, X: 3, Y: 3, On: true},
	}

	buf := BuildEventPacket(events)

	id, err := PayloadIdentifier(buf)
	require.NoError(t, err)
	require.Equal(t, "EVTS", id)

	packet, err := AsEventPacket(buf)
	require.NoError(t, err)
	require.Equal(t, 3, packet.Len())
	for i, event := range events {
		require.Equal(t, event, packet.At(i))
	}
}

func TestEventPacketEmpty(t *testing.T) {
	packet, err := AsEventPacket(BuildEventPacket(nil))
	require.NoError(t, err)
	require.Equal(t, 0, packet.Len())
}

func TestFrame(t *testing.T) {
	frame := Frame{
		T:             5000,
		ExposureBegin: 4990,
		ExposureEnd:   5010,
		Format:        16,
		Width:         3,
		Height:        2,
		OffsetX:       10,
		OffsetY:       20,
		Pixels:        []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18},
	}

	buf := BuildFrame(frame)

	id, err := PayloadIdentifier(buf)
	require.NoError(t, err)
	require.Equal(t, "FRME", id)

	actual, err := AsFrame(buf)
	require.NoError(t, err)
	require.Equal(t, frame, actual)
}

func TestFrameZero(t *testing.T) {
	actual, err := AsFrame(BuildFrame(Frame{Pixels: []byte{}}))
	require.NoError(t, err)
	require.Equal(t, Frame{Pixels: []byte{}}, actual)
}

func TestImuPacket(t *testing.T) {
	samples := []Imu{
		{
			T:           200,
			Temperature: 25.0,
			AccelX:      0.1, AccelY: 0.2, AccelZ: 9.8,
			GyroX: 1.5, GyroY: -1.5, GyroZ: 0.25,
			MagX: 0.5, MagY: 0.75, MagZ: -0.5,
		},
		{T: 300, Temperature: 25.5},
	}

	buf := BuildImuPacket(samples)

	id, err := PayloadIdentifier(buf)
	require.NoError(t, err)
	require.Equal(t, "IMUS", id)

	packet, err := AsImuPacket(buf)
	require.NoError(t, err)
	require.Equal(t, 2, packet.Len())
	require.Equal(t, samples[0], packet.At(0))
	require.Equal(t, samples[1], packet.At(1))
}

func TestTriggerPacket(t *testing.T) {
	triggers := []Trigger{
		{T: 400, Source: 1},
		{T: 500, Source: 3},
	}

	buf := BuildTriggerPacket(triggers)

	id, err := PayloadIdentifier(buf)
	require.NoError(t, err)
	require.Equal(t, "TRIG", id)

	packet, err := AsTriggerPacket(buf)
	require.NoError(t, err)
	require.Equal(t, 2, packet.Len())
	require.Equal(t, triggers[0], packet.At(0))
	require.Equal(t, triggers[1], packet.At(1))
}

func TestIOHeader(t *testing.T) {
	testCases := []struct {
		name   string
		header IOHeader
	}{
		{
			"fileData",
			IOHeader{
				FileDataPosition: 4096,
				Description:      "<dv><node name=\"outInfo\"></node></dv>",
			},
		},
		{
			"noFileData",
			IOHeader{FileDataPosition: -1, Description: "x"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := AsIOHeader(BuildIOHeader(tc.header))
			require.NoError(t, err)
			require.Equal(t, tc.header, actual)
		})
	}
}

func TestFileDataTable(t *testing.T) {
	entries := []FileDataEntry{
		{
			ByteOffset:     142,
			TimestampStart: 100,
			TimestampEnd:   102,
			StreamID:       0,
			ElementCount:   3,
		},
		{
			ByteOffset:     300,
			TimestampStart: 200,
			TimestampEnd:   300,
			StreamID:       1,
			ElementCount:   2,
		},
	}

	table, err := AsFileDataTable(BuildFileDataTable(entries))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	require.Equal(t, entries[0], table.At(0))
	require.Equal(t, entries[1], table.At(1))
}

func TestPayloadIdentifierErrors(t *testing.T) {
	_, err := PayloadIdentifier([]byte{0, 1, 2})
	require.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestWrongIdentifier(t *testing.T) {
	buf := BuildFrame(Frame{Pixels: []byte{}})

	_, err := AsEventPacket(buf)
	require.ErrorIs(t, err, ErrBadIdentifier)
}

func TestTruncatedPayload(t *testing.T) {
	buf := BuildEventPacket([]Event{{T: 1, X: 2, Y: 3, On: true}})

	// The size prefix now exceeds the buffer.
	_, err := AsEventPacket(buf[:len(buf)-4])
	require.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestCorruptRootOffset(t *testing.T) {
	buf := BuildEventPacket(nil)
	binary.LittleEndian.PutUint32(buf[4:8], 0xffffff)

	_, err := AsEventPacket(buf)
	require.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestCorruptVTable(t *testing.T) {
	buf := []byte{
		0x04, 0x00, 0x00, 0x00, // Root table at 4.
		0x80, 0x00, 0x00, 0x00, // Vtable 128 bytes before the table.
	}
	_, err := AsIOHeader(buf)
	require.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestCorruptVectorLength(t *testing.T) {
	buf := []byte{
		0x0c, 0x00, 0x00, 0x00, // Root table at 12.
		0x06, 0x00, // Vtable size 6.
		0x08, 0x00, // Table inline size 8.
		0x04, 0x00, // Field 0 at table offset 4.
		0x00, 0x00, // Padding.
		0x08, 0x00, 0x00, 0x00, // Vtable 8 bytes before the table.
		0x04, 0x00, 0x00, 0x00, // Entries vector at 20.
		0xe8, 0x03, 0x00, 0x00, // 1000 entries, far beyond the buffer.
	}
	_, err := AsFileDataTable(buf)
	require.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestShortBuffers(t *testing.T) {
	_, err := AsIOHeader(nil)
	require.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = AsIOHeader([]byte{10, 0, 0, 0})
	require.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = AsFileDataTable([]byte{1})
	require.ErrorIs(t, err, ErrInvalidBuffer)
}
