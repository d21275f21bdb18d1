package geom

import "math"

// QuantumScale is the number of QPoint steps per grid unit.
const QuantumScale = 256

// QPoint is a reduced-precision point. Two positions that quantize to the
// same QPoint are indistinguishable to an observer.
type QPoint struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Quantize rounds v to the nearest QPoint.
func Quantize(v Vec) QPoint {
	return QPoint{
		X: int32(math.Round(v.X * QuantumScale)),
		Y: int32(math.Round(v.Y * QuantumScale)),
	}
}

// Vec converts q back to continuous space.
func (q QPoint) Vec() Vec {
	return Vec{X: float64(q.X) / QuantumScale, Y: float64(q.Y) / QuantumScale}
}
