package light

import (
	"cmp"
	"math"
	"slices"

	"github.com/cory-johannsen/paradox/internal/game/geom"
)

// RayPartition breaks ties between rays at the same angle. When a tied
// short and long ray are both kept, the one whose partition sorts lower is
// placed on the far side of the fan from it.
type RayPartition uint8

// Partitions in sort order.
const (
	// PartitionLeft marks a ray bounding the lit side left of a corner.
	PartitionLeft RayPartition = iota
	// PartitionLeftEdge marks the ray cast along the right bound of a cone.
	PartitionLeftEdge
	// PartitionNone marks a ray with no tie preference.
	PartitionNone
	// PartitionRightEdge marks the ray cast along the left bound of a cone.
	PartitionRightEdge
	// PartitionRight marks a ray bounding the lit side right of a corner.
	PartitionRight
)

// sentinelDirections seed a full-circle trace. The irrational slope keeps them
// off lattice vertices.
var sentinelDirections = func() [4]geom.Vec {
	var out [4]geom.Vec
	base, _ := geom.V(1, math.Pi).TryNormalize(0)
	for i := range out {
		out[i] = base.Rotate(float64(i) * math.Pi / 2)
	}
	return out
}()

type ray struct {
	offset    geom.Vec
	magnitude float64
	partition RayPartition
	normal    Normal
}

func newRay(offset geom.Vec, partition RayPartition, normal Normal) ray {
	return ray{offset: offset, magnitude: offset.Len(), partition: partition, normal: normal}
}

// Trace computes the exact visibility area from origin, limited to r when r
// is non-nil.
//
// Rays are cast toward every corner whose open side faces the origin. A
// corner that light can wrap around also produces a continuation ray past it.
// Rays are then sorted by angle and ties collapsed into notch pairs.
//
// Postcondition: the returned area shares no memory with g.
func (g *Grid) Trace(origin geom.Vec, r *AngleRange) *Area {
	t := g.Tuning.withDefaults()
	blocked := g.blockFunc()
	cast := func(dir geom.Vec) Hit { return t.Raycast(blocked, origin, dir, t.MaxRange) }

	area := &Area{Origin: origin}
	if r != nil {
		cp := *r
		area.Range = &cp
	}

	var rays []ray
	add := func(p geom.Vec, part RayPartition, n Normal) {
		rr := newRay(p.Sub(origin), part, n)
		if rr.magnitude > t.Epsilon {
			rays = append(rays, rr)
		}
	}

	if r != nil {
		h := cast(r.Left)
		add(h.Point, PartitionRightEdge, h.Normal)
		h = cast(r.Right)
		add(h.Point, PartitionLeftEdge, h.Normal)
	} else {
		for _, d := range sentinelDirections {
			h := cast(d)
			add(h.Point, PartitionNone, h.Normal)
		}
	}

	for _, c := range g.Corners() {
		off := c.Location.Sub(origin)
		back := off.Neg()
		if !c.Direction.ContainsOffset(back) || (r != nil && !r.ContainsOffset(off)) {
			continue
		}
		dir, ok := off.TryNormalize(math.SmallestNonzeroFloat64)
		if !ok {
			continue
		}
		h := cast(dir)
		if h.Point.DistSq(origin) < off.LenSq()-t.Epsilon {
			continue
		}

		if !c.Direction.ShouldSkip(back) {
			part := PartitionNone
			onEdge := c.Direction.IsOnEdge(back)
			if onEdge {
				if c.Direction.IsConvex() != c.Direction.IsOnLeftEdge(back) {
					part = PartitionRight
				} else {
					part = PartitionLeft
				}
			}
			add(c.Location, part, Normal{Kind: NormalCorner, Corner: c.Direction, Glancing: onEdge})
		}

		if c.Direction.IsConcave() || c.Direction.ContainsOffsetStrict(back) {
			continue
		}
		part := PartitionLeft
		if c.Direction.IsOffsetToLeft(back) {
			part = PartitionRight
		}
		add(h.Point, part, h.Normal)
	}

	if len(rays) == 0 {
		return area
	}

	var reference geom.Vec
	if r != nil {
		reference = r.Left
	} else {
		reference = rays[0].offset.Scale(1 / rays[0].magnitude)
	}

	slices.SortFunc(rays, func(a, b ray) int { return compareAngles(a, b, reference, 0, t.Epsilon) })

	area.Rays = make([]AreaRay, 0, len(rays))
	for start := 0; start < len(rays); {
		end := start + 1
		for end < len(rays) && compareAngles(rays[end-1], rays[end], reference, t.Epsilon, t.Epsilon) == 0 {
			end++
		}
		area.Rays = appendChunk(area.Rays, rays[start:end], t.Epsilon)
		start = end
	}
	return area
}

// appendChunk keeps one ray of an angularly tied chunk when all have the
// same length, otherwise the shortest and the longest ordered by partition.
func appendChunk(out []AreaRay, chunk []ray, eps float64) []AreaRay {
	if len(chunk) == 1 {
		return append(out, AreaRay{Offset: chunk[0].offset, Normal: chunk[0].normal})
	}
	shortest, longest := chunk[0], chunk[0]
	for _, rr := range chunk[1:] {
		if rr.magnitude < shortest.magnitude {
			shortest = rr
		}
		if rr.magnitude > longest.magnitude {
			longest = rr
		}
	}
	if math.Abs(shortest.magnitude-longest.magnitude) <= eps {
		return append(out, AreaRay{Offset: shortest.offset, Normal: shortest.normal})
	}
	first, second := shortest, longest
	if shortest.partition < longest.partition {
		first, second = longest, shortest
	}
	return append(out,
		AreaRay{Offset: first.offset, Normal: first.normal},
		AreaRay{Offset: second.offset, Normal: second.normal},
	)
}

// compareAngles orders rays by their angle from reference. Rays within eps
// of each other compare equal.
func compareAngles(a, b ray, reference geom.Vec, eps, hemisphereEps float64) int {
	ka := angleKey(a, reference, hemisphereEps)
	kb := angleKey(b, reference, hemisphereEps)
	if math.Abs(ka-kb) <= eps {
		return 0
	}
	return cmp.Compare(ka, kb)
}

// angleKey maps the angle from reference to a monotonic key: the first half
// turn to [-1, 1] by negated cosine, the second to [2, 4].
func angleKey(r ray, reference geom.Vec, eps float64) float64 {
	c := r.offset.Dot(reference) / r.magnitude
	if reference.Perp(r.offset) >= -eps {
		return -c
	}
	return c + 3
}
