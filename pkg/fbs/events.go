package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Event is a single change-detection event.
type Event struct {
	T  int64
	X  int16
	Y  int16
	On bool
}

// Event struct layout.
const (
	eventSize  = 16
	eventAlign = 8

	eventTOff  = 0
	eventXOff  = 8
	eventYOff  = 10
	eventOnOff = 12
)

// EventPacket is a read view over an EVTS payload.
type EventPacket struct {
	tab  flatbuffers.Table
	elem flatbuffers.UOffsetT
	n    int
}

// AsEventPacket parses a size-prefixed EVTS payload.
func AsEventPacket(buf []byte) (EventPacket, error) {
	t, err := payloadRoot(buf, identifierEvents)
	if err != nil {
		return EventPacket{}, err
	}
	elem, n, err := t.vectorField(0, eventSize)
	if err != nil {
		return EventPacket{}, err
	}
	if n < 0 {
		n = 0
	}
	return EventPacket{tab: t.tab, elem: elem, n: n}, nil
}

// Len returns the element count.
func (p EventPacket) Len() int { return p.n }

// At returns element i. i must be below Len.
func (p EventPacket) At(i int) Event {
	pos := p.elem + flatbuffers.UOffsetT(i*eventSize)
	return Event{
		T:  p.tab.GetInt64(pos + eventTOff),
		X:  p.tab.GetInt16(pos + eventXOff),
		Y:  p.tab.GetInt16(pos + eventYOff),
		On: p.tab.GetBool(pos + eventOnOff),
	}
}

// BuildEventPacket marshals a size-prefixed EVTS payload.
func BuildEventPacket(events []Event) []byte {
	b := flatbuffers.NewBuilder(eventSize*len(events) + 64)

	b.StartVector(eventSize, len(events), eventAlign)
	for i := len(events) - 1; i >= 0; i-- {
		event := events[i]
		b.Prep(eventAlign, eventSize)
		b.Pad(3)
		b.PrependBool(event.On)
		b.PrependInt16(event.Y)
		b.PrependInt16(event.X)
		b.PrependInt64(event.T)
	}
	elements := b.EndVector(len(events))

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, elements, 0)
	root := b.EndObject()
	b.FinishSizePrefixedWithFileIdentifier(root, []byte(identifierEvents))
	return b.FinishedBytes()
}
