package payload

import (
	"fmt"

	"aedat/pkg/fbs"
	"aedat/pkg/schema"
)

// TriggerSource identifies what produced a trigger pulse.
type TriggerSource int8

// Trigger sources.
const (
	SourceTimestampReset TriggerSource = iota
	SourceExternalRising
	SourceExternalFalling
	SourceExternalPulse
	SourceGeneratorRising
	SourceGeneratorFalling
	SourceFrameBegin
	SourceFrameEnd
	SourceExposureBegin
	SourceExposureEnd
)

func (s TriggerSource) String() string {
	switch s {
	case SourceTimestampReset:
		return "timestamp reset"
	case SourceExternalRising:
		return "external signal rising edge"
	case SourceExternalFalling:
		return "external signal falling edge"
	case SourceExternalPulse:
		return "external signal pulse"
	case SourceGeneratorRising:
		return "external generator rising edge"
	case SourceGeneratorFalling:
		return "external generator falling edge"
	case SourceFrameBegin:
		return "frame begin"
	case SourceFrameEnd:
		return "frame end"
	case SourceExposureBegin:
		return "exposure begin"
	case SourceExposureEnd:
		return "exposure end"
	}
	return fmt.Sprintf("unknown(%d)", int8(s))
}

// Trigger is a single trigger pulse.
type Trigger struct {
	T      int64
	Source TriggerSource
}

// TriggerBatch is a batch of trigger pulses.
type TriggerBatch struct {
	Triggers []Trigger
}

// Kind implements Batch.
func (b *TriggerBatch) Kind() schema.StreamKind { return schema.KindTrigger }

// Len returns the number of triggers.
func (b *TriggerBatch) Len() int { return len(b.Triggers) }

// TimeRange implements Batch.
func (b *TriggerBatch) TimeRange() (int64, int64, bool) {
	if len(b.Triggers) == 0 {
		return 0, 0, false
	}
	return b.Triggers[0].T, b.Triggers[len(b.Triggers)-1].T, true
}

func decodeTriggers(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	packet, err := fbs.AsTriggerPacket(data)
	if err != nil {
		return nil, nil, mapBufferError(err)
	}

	n := packet.Len()
	batch := &TriggerBatch{Triggers: make([]Trigger, n)}

	var diags []Diagnostic
	regressed := false
	for i := 0; i < n; i++ {
		trigger := packet.At(i)
		if i > 0 && trigger.T < batch.Triggers[i-1].T && !regressed {
			diags = append(diags, timestampDiag(stream.ID, batch.Triggers[i-1].T, trigger.T))
			regressed = true
		}

		batch.Triggers[i] = Trigger{
			T:      trigger.T,
			Source: TriggerSource(trigger.Source),
		}
	}
	return batch, diags, nil
}
