package payload

import (
	"aedat/pkg/fbs"
	"aedat/pkg/schema"
)

// ImuSample is a single inertial measurement. Acceleration is in g,
// rotation in deg/s, magnetic flux in gauss and temperature in °C.
type ImuSample struct {
	T           int64
	Temperature float32

	AccelX, AccelY, AccelZ float32
	GyroX, GyroY, GyroZ    float32
	MagX, MagY, MagZ       float32
}

// ImuBatch is a batch of inertial measurements.
type ImuBatch struct {
	Samples []ImuSample
}

// Kind implements Batch.
func (b *ImuBatch) Kind() schema.StreamKind { return schema.KindImu }

// Len returns the number of samples.
func (b *ImuBatch) Len() int { return len(b.Samples) }

// TimeRange implements Batch.
func (b *ImuBatch) TimeRange() (int64, int64, bool) {
	if len(b.Samples) == 0 {
		return 0, 0, false
	}
	return b.Samples[0].T, b.Samples[len(b.Samples)-1].T, true
}

func decodeImus(stream schema.Descriptor, data []byte) (Batch, []Diagnostic, error) {
	packet, err := fbs.AsImuPacket(data)
	if err != nil {
		return nil, nil, mapBufferError(err)
	}

	n := packet.Len()
	batch := &ImuBatch{Samples: make([]ImuSample, n)}

	var diags []Diagnostic
	regressed := false
	for i := 0; i < n; i++ {
		sample := packet.At(i)
		if i > 0 && sample.T < batch.Samples[i-1].T && !regressed {
			diags = append(diags, timestampDiag(stream.ID, batch.Samples[i-1].T, sample.T))
			regressed = true
		}

		batch.Samples[i] = ImuSample{
			T:           sample.T,
			Temperature: sample.Temperature,
			AccelX:      sample.AccelX,
			AccelY:      sample.AccelY,
			AccelZ:      sample.AccelZ,
			GyroX:       sample.GyroX,
			GyroY:       sample.GyroY,
			GyroZ:       sample.GyroZ,
			MagX:        sample.MagX,
			MagY:        sample.MagY,
			MagZ:        sample.MagZ,
		}
	}
	return batch, diags, nil
}
