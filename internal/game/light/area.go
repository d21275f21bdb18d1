package light

import (
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
)

// AngleRange is a field-of-view cone sweeping clockwise on screen from Left
// to Right.
type AngleRange struct {
	Left  geom.Vec
	Right geom.Vec
}

// RangeFromDirection builds a cone of the given width in radians centred on
// direction.
//
// Precondition: direction has unit length.
func RangeFromDirection(direction geom.Vec, width float64) AngleRange {
	return AngleRange{
		Left:  direction.Rotate(-width / 2),
		Right: direction.Rotate(width / 2),
	}
}

// ContainsOffset reports whether the direction of off lies inside the cone.
// Cones wider than a half turn are the union of the two half planes, narrower
// cones their intersection.
func (r AngleRange) ContainsOffset(off geom.Vec) bool {
	const eps = 1e-6
	lr := r.Left.Perp(r.Right)
	switch {
	case lr < 0:
		return r.Left.Perp(off) >= -eps || r.Right.Perp(off) <= eps
	case lr > 0:
		return r.Left.Perp(off) >= -eps && r.Right.Perp(off) <= eps
	case lr == 0:
		return r.Left.Perp(off) >= 0
	default:
		return false
	}
}

// AreaRay is one vertex of a visibility fan, relative to the area origin.
type AreaRay struct {
	Offset geom.Vec
	Normal Normal
}

// Area is the exact visibility polygon seen from Origin: the ray endpoints in
// angular order, closed back through Origin when Range is set.
type Area struct {
	Origin geom.Vec
	Rays   []AreaRay
	Range  *AngleRange
}

// Polygon returns the absolute outline of the area.
func (a *Area) Polygon() []geom.Vec {
	pts := make([]geom.Vec, 0, len(a.Rays)+1)
	for _, r := range a.Rays {
		pts = append(pts, a.Origin.Add(r.Offset))
	}
	if a.Range != nil {
		pts = append(pts, a.Origin)
	}
	return pts
}

// ContainsPoint reports whether p lies inside or on the boundary of the area.
func (a *Area) ContainsPoint(p geom.Vec) bool {
	const eps = 1e-6
	poly := a.Polygon()
	if len(poly) < 3 {
		return false
	}
	inside := false
	for i := range poly {
		u, v := poly[i], poly[(i+1)%len(poly)]
		if geom.DistToSegmentSq(p, u, v) <= eps*eps {
			return true
		}
		if (u.Y > p.Y) != (v.Y > p.Y) {
			x := u.X + (p.Y-u.Y)*(v.X-u.X)/(v.Y-u.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// EdgeIntersectsLine reports whether any part of the segment from p to q is
// inside the area.
func (a *Area) EdgeIntersectsLine(p, q geom.Vec) bool {
	const eps = 1e-9
	if a.ContainsPoint(p) || a.ContainsPoint(q) {
		return true
	}
	poly := a.Polygon()
	if len(poly) < 3 {
		return false
	}
	for i := range poly {
		if geom.SegmentsIntersect(p, q, poly[i], poly[(i+1)%len(poly)], eps) {
			return true
		}
	}
	return false
}

// IntersectsRect reports whether any part of the axis-aligned box [lo, hi]
// is inside the area. Entities with extent use this instead of a centre test.
func (a *Area) IntersectsRect(lo, hi geom.Vec) bool {
	if len(a.Rays) == 0 {
		return false
	}
	if a.Origin.X >= lo.X && a.Origin.X <= hi.X && a.Origin.Y >= lo.Y && a.Origin.Y <= hi.Y {
		return true
	}
	tr, bl := geom.V(hi.X, lo.Y), geom.V(lo.X, hi.Y)
	return a.EdgeIntersectsLine(lo, tr) || a.EdgeIntersectsLine(tr, hi) ||
		a.EdgeIntersectsLine(hi, bl) || a.EdgeIntersectsLine(bl, lo)
}

// Radius returns the distance to the farthest vertex of the fan.
func (a *Area) Radius() float64 {
	var r float64
	for _, ray := range a.Rays {
		r = math.Max(r, ray.Offset.Len())
	}
	return r
}
