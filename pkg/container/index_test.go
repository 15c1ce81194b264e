package container

import (
	"testing"

	"aedat/pkg/fbs"

	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()

	// Stream 0 entries are deliberately out of order.
	table, err := fbs.AsFileDataTable(fbs.BuildFileDataTable([]fbs.FileDataEntry{
		{ByteOffset: 100, TimestampStart: 1000, TimestampEnd: 1999, StreamID: 0, ElementCount: 10},
		{ByteOffset: 300, TimestampStart: 3000, TimestampEnd: 3999, StreamID: 0, ElementCount: 30},
		{ByteOffset: 200, TimestampStart: 2000, TimestampEnd: 2999, StreamID: 0, ElementCount: 20},
		{ByteOffset: 900, TimestampStart: 1500, TimestampEnd: 1600, StreamID: 7, ElementCount: 5},
	}))
	require.NoError(t, err)
	return newIndex(table)
}

func TestIndexEntries(t *testing.T) {
	index := testIndex(t)

	require.Equal(t, []int32{0, 7}, index.StreamIDs())

	entries := index.Entries(0)
	require.Len(t, entries, 3)
	require.Equal(t, int64(100), entries[0].Offset)
	require.Equal(t, int64(200), entries[1].Offset)
	require.Equal(t, int64(300), entries[2].Offset)

	require.Empty(t, index.Entries(5))
}

func TestIndexFind(t *testing.T) {
	index := testIndex(t)

	testCases := []struct {
		name      string
		streamID  int32
		timestamp int64
		offset    int64
	}{
		{"beforeFirst", 0, 999, 100},
		{"exactFirst", 0, 1000, 100},
		{"insideFirst", 0, 1500, 100},
		{"exactSecond", 0, 2000, 200},
		{"insideSecond", 0, 2500, 200},
		{"exactLast", 0, 3000, 300},
		{"pastEnd", 0, 99999, 300},
		{"otherStream", 7, 0, 900},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, exist := index.Find(tc.streamID, tc.timestamp)
			require.True(t, exist)
			require.Equal(t, tc.offset, entry.Offset)
		})
	}

	t.Run("unknownStream", func(t *testing.T) {
		_, exist := index.Find(5, 1000)
		require.False(t, exist)
	})
}
