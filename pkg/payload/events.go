package payload

import (
	"fmt"

	"aedat/pkg/fbs"
	"aedat/pkg/schema"
)

// EventBatch is a batch of change-detection events in columnar
// layout. The slices all have the same length.
type EventBatch struct {
	T  []int64
	X  []int16
	Y  []int16
	On []bool
}

// Kind implements Batch.
func (b *EventBatch) Kind() schema.StreamKind { return schema.KindEvents }

// Len returns the number of events.
func (b *EventBatch) Len() int { return len(b.T) }

// TimeRange implements Batch.
func (b *EventBatch) TimeRange() (int64, int64, bool) {
	if len(b.T) == 0 {
		return 0, 0, false
	}
	return b.T[0], b.T[len(b.T)-1], true
}

func decodeEvents(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	packet, err := fbs.AsEventPacket(data)
	if err != nil {
		return nil, nil, mapBufferError(err)
	}

	n := packet.Len()
	batch := &EventBatch{
		T:  make([]int64, n),
		X:  make([]int16, n),
		Y:  make([]int16, n),
		On: make([]bool, n),
	}

	var diags []Diagnostic
	regressed := false
	for i := 0; i < n; i++ {
		event := packet.At(i)
		if int(event.X) < 0 || int(event.X) >= int(stream.Width) ||
			int(event.Y) < 0 || int(event.Y) >= int(stream.Height) {
			return nil, nil, fmt.Errorf("%w: (%d,%d) at index %d",
				ErrCoordOutOfRange, event.X, event.Y, i)
		}
		if i > 0 && event.T < batch.T[i-1] && !regressed {
			diags = append(diags, timestampDiag(stream.ID, batch.T[i-1], event.T))
			regressed = true
		}

		batch.T[i] = event.T
		batch.X[i] = event.X
		batch.Y[i] = event.Y
		batch.On[i] = event.On
	}
	return batch, diags, nil
}
