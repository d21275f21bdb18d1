// Package geom provides continuous-space vector math shared by the
// visibility engine and the simulation.
package geom

import "math"

// Vec is a point or direction in continuous grid space. One unit is one cell;
// y grows southward.
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y} }
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vec) Len() float64 { return math.Sqrt(v.LenSq()) }
func (v Vec) DistSq(o Vec) float64 { return v.Sub(o).LenSq() }
func (v Vec) Dist(o Vec) float64 { return v.Sub(o).Len() }
func (v Vec) IsFinite() bool { return !math.IsNaN(v.X+v.Y) && !math.IsInf(v.X+v.Y, 0) }
func (v Vec) Lerp(o Vec, t float64) Vec { return v.Add(o.Sub(v).Scale(t)) }

// Perp returns the perpendicular dot product v.X*o.Y - v.Y*o.X. It is positive
// when o is clockwise from v on screen.
func (v Vec) Perp(o Vec) float64 { return v.X*o.Y - v.Y*o.X }

// TryNormalize returns v scaled to unit length, or false when its length is
// at most epsilon.
//
// Postcondition: when ok is true the result has length 1 within float error.
func (v Vec) TryNormalize(epsilon float64) (Vec, bool) {
	l := v.Len()
	if l <= epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec{}, false
	}
	return v.Scale(1 / l), true
}

// Rotate returns v rotated by angle radians (clockwise on screen).
func (v Vec) Rotate(angle float64) Vec {
	s, c := math.Sincos(angle)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Angle returns the unsigned angle in radians between v and o, or 0 when
// either is degenerate.
func (v Vec) Angle(o Vec) float64 {
	l := v.Len() * o.Len()
	if l == 0 {
		return 0
	}
	c := v.Dot(o) / l
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Floor returns the components rounded toward negative infinity.
func (v Vec) Floor() (int, int) {
	return int(math.Floor(v.X)), int(math.Floor(v.Y))
}

// SegmentsIntersect reports whether the closed segments ab and cd share a point.
// Collinear overlapping segments intersect.
func SegmentsIntersect(a, b, c, d Vec, epsilon float64) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	if ((d1 > epsilon && d2 < -epsilon) || (d1 < -epsilon && d2 > epsilon)) &&
		((d3 > epsilon && d4 < -epsilon) || (d3 < -epsilon && d4 > epsilon)) {
		return true
	}
	return (math.Abs(d1) <= epsilon && onSegment(c, d, a, epsilon)) ||
		(math.Abs(d2) <= epsilon && onSegment(c, d, b, epsilon)) ||
		(math.Abs(d3) <= epsilon && onSegment(a, b, c, epsilon)) ||
		(math.Abs(d4) <= epsilon && onSegment(a, b, d, epsilon))
}

// DistToSegmentSq returns the squared distance from p to the segment ab.
func DistToSegmentSq(p, a, b Vec) float64 {
	ab := b.Sub(a)
	l := ab.LenSq()
	if l == 0 {
		return p.DistSq(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l))
	return p.DistSq(a.Add(ab.Scale(t)))
}

func orient(a, b, c Vec) float64 {
	return b.Sub(a).Perp(c.Sub(a))
}

func onSegment(a, b, p Vec, epsilon float64) bool {
	return p.X >= math.Min(a.X, b.X)-epsilon && p.X <= math.Max(a.X, b.X)+epsilon &&
		p.Y >= math.Min(a.Y, b.Y)-epsilon && p.Y <= math.Max(a.Y, b.Y)+epsilon
}
