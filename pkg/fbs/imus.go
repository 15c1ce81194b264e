package fbs

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Imu is a single inertial measurement. Acceleration is in g,
// rotation in deg/s, magnetic flux in gauss and temperature in °C.
type Imu struct {
	T           int64
	Temperature float32

	AccelX, AccelY, AccelZ float32
	GyroX, GyroY, GyroZ    float32
	MagX, MagY, MagZ       float32
}

// Imu struct layout.
const (
	imuSize  = 48
	imuAlign = 8

	imuTOff           = 0
	imuTemperatureOff = 8
	imuAccelOff       = 12
	imuGyroOff        = 24
	imuMagOff         = 36
)

// ImuPacket is a read view over an IMUS payload.
type ImuPacket struct {
	tab  flatbuffers.Table
	elem flatbuffers.UOffsetT
	n    int
}

// AsImuPacket parses a size-prefixed IMUS payload.
func AsImuPacket(buf []byte) (ImuPacket, error) {
	t, err := payloadRoot(buf, identifierImu)
	if err != nil {
		return ImuPacket{}, err
	}
	elem, n, err := t.vectorField(0, imuSize)
	if err != nil {
		return ImuPacket{}, err
	}
	if n < 0 {
		n = 0
	}
	return ImuPacket{tab: t.tab, elem: elem, n: n}, nil
}

// Len returns the element count.
func (p ImuPacket) Len() int { return p.n }

// At returns element i. i must be below Len.
func (p ImuPacket) At(i int) Imu {
	pos := p.elem + flatbuffers.UOffsetT(i*imuSize)
	return Imu{
		T:           p.tab.GetInt64(pos + imuTOff),
		Temperature: p.tab.GetFloat32(pos + imuTemperatureOff),
		AccelX:      p.tab.GetFloat32(pos + imuAccelOff),
		AccelY:      p.tab.GetFloat32(pos + imuAccelOff + 4),
		AccelZ:      p.tab.GetFloat32(pos + imuAccelOff + 8),
		GyroX:       p.tab.GetFloat32(pos + imuGyroOff),
		GyroY:       p.tab.GetFloat32(pos + imuGyroOff + 4),
		GyroZ:       p.tab.GetFloat32(pos + imuGyroOff + 8),
		MagX:        p.tab.GetFloat32(pos + imuMagOff),
		MagY:        p.tab.GetFloat32(pos + imuMagOff + 4),
		MagZ:        p.tab.GetFloat32(pos + imuMagOff + 8),
	}
}

// BuildImuPacket marshals a size-prefixed IMUS payload.
func BuildImuPacket(samples []Imu) []byte {
	b := flatbuffers.NewBuilder(imuSize*len(samples) + 64)

	b.StartVector(imuSize, len(samples), imuAlign)
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		b.Prep(imuAlign, imuSize)
		b.PrependFloat32(s.MagZ)
		b.PrependFloat32(s.MagY)
		b.PrependFloat32(s.MagX)
		b.PrependFloat32(s.GyroZ)
		b.PrependFloat32(s.GyroY)
		b.PrependFloat32(s.GyroX)
		b.PrependFloat32(s.AccelZ)
		b.PrependFloat32(s.AccelY)
		b.PrependFloat32(s.AccelX)
		b.PrependFloat32(s.Temperature)
		b.PrependInt64(s.T)
	}
	elements := b.EndVector(len(samples))

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, elements, 0)
	root := b.EndObject()
	b.FinishSizePrefixedWithFileIdentifier(root, []byte(identifierImu))
	return b.FinishedBytes()
}
