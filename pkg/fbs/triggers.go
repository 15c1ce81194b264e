package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Trigger is a single external trigger pulse.
type Trigger struct {
	T      int64
	Source int8
}

// Trigger struct layout.
const (
	triggerSize  = 16
	triggerAlign = 8

	triggerTOff      = 0
	triggerSourceOff = 8
)

// TriggerPacket is a read view over a TRIG payload.
type TriggerPacket struct {
	tab  flatbuffers.Table
	elem flatbuffers.UOffsetT
	n    int
}

// AsTriggerPacket parses a size-prefixed TRIG payload.
func AsTriggerPacket(buf []byte) (TriggerPacket, error) {
	t, err := payloadRoot(buf, identifierTrigger)
	if err != nil {
		return TriggerPacket{}, err
	}
	elem, n, err := t.vectorField(0, triggerSize)
	if err != nil {
		return TriggerPacket{}, err
	}
	if n < 0 {
		n = 0
	}
	return TriggerPacket{tab: t.tab, elem: elem, n: n}, nil
}

// Len returns the element count.
func (p TriggerPacket) Len() int { return p.n }

// At returns element i. i must be below Len.
func (p TriggerPacket) At(i int) Trigger {
	pos := p.elem + flatbuffers.UOffsetT(i*triggerSize)
	return Trigger{
		T:      p.tab.GetInt64(pos + triggerTOff),
		Source: p.tab.GetInt8(pos + triggerSourceOff),
	}
}

// BuildTriggerPacket marshals a size-prefixed TRIG payload.
func BuildTriggerPacket(triggers []Trigger) []byte {
	b := flatbuffers.NewBuilder(triggerSize*len(triggers) + 64)

	b.StartVector(triggerSize, len(triggers), triggerAlign)
	for i := len(triggers) - 1; i >= 0; i-- {
		trigger := triggers[i]
		b.Prep(triggerAlign, triggerSize)
		b.Pad(7)
		b.PrependInt8(trigger.Source)
		b.PrependInt64(trigger.T)
	}
	elements := b.EndVector(len(triggers))

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, elements, 0)
	root := b.EndObject()
	b.FinishSizePrefixedWithFileIdentifier(root, []byte(identifierTrigger))
	return b.FinishedBytes()
}
