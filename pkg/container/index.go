package container

import (
	"sort"

	"aedat/pkg/fbs"
)

// Index locates packets by stream and start timestamp.
type Index struct {
	streams map[int32][]IndexEntry
}

// IndexEntry locates a single packet of a stream.
type IndexEntry struct {
	// Offset is the byte offset of the packet record header.
	Offset int64

	TimestampStart int64
	TimestampEnd   int64
	ElementCount   int32
}

func newIndex(table fbs.FileDataTable) *Index {
	streams := make(map[int32][]IndexEntry)
	for i := 0; i < table.Len(); i++ {
		entry := table.At(i)
		streams[entry.StreamID] = append(streams[entry.StreamID], IndexEntry{
			Offset:         entry.ByteOffset,
			TimestampStart: entry.TimestampStart,
			TimestampEnd:   entry.TimestampEnd,
			ElementCount:   entry.ElementCount,
		})
	}
	for _, entries := range streams {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].TimestampStart < entries[j].TimestampStart
		})
	}
	return &Index{streams: streams}
}

// StreamIDs returns the indexed stream ids in ascending order.
func (idx *Index) StreamIDs() []int32 {
	ids := make([]int32, 0, len(idx.streams))
	for id := range idx.streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Entries returns the entries of a stream sorted by start timestamp.
func (idx *Index) Entries(streamID int32) []IndexEntry {
	return idx.streams[streamID]
}

// Find returns the entry with the greatest start timestamp at or
// below timestamp, clamped to the first entry when timestamp precedes
// the stream. exist is false when the stream has no entries.
func (idx *Index) Find(streamID int32, timestamp int64) (IndexEntry, bool) {
	entries := idx.streams[streamID]
	if len(entries) == 0 {
		return IndexEntry{}, false
	}

	// First entry starting after timestamp.
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].TimestampStart > timestamp
	})
	if i == 0 {
		return entries[0], true
	}
	return entries[i-1], true
}
