package light

import (
	"fmt"

	"github.com/cory-johannsen/paradox/internal/game/geom"
)

// CornerDirection is one of eight corner orientations packed into three bits.
// For a convex corner the direction points away from the single blocking
// cell; for a concave corner it points into the single open cell.
type CornerDirection uint8

const (
	cornerWest    CornerDirection = 0b001
	cornerSouth   CornerDirection = 0b010
	cornerConcave CornerDirection = 0b100
)

// The eight corner orientations.
const (
	ConvexNorthEast  CornerDirection = 0
	ConvexNorthWest  CornerDirection = cornerWest
	ConvexSouthEast  CornerDirection = cornerSouth
	ConvexSouthWest  CornerDirection = cornerSouth | cornerWest
	ConcaveNorthEast CornerDirection = cornerConcave
	ConcaveNorthWest CornerDirection = cornerConcave | cornerWest
	ConcaveSouthEast CornerDirection = cornerConcave | cornerSouth
	ConcaveSouthWest CornerDirection = cornerConcave | cornerSouth | cornerWest
)

// Neighborhood is the blocking state of the four cells around a lattice
// vertex, indexed [row][column]: row 0 is north of the vertex, column 0 is
// west of it.
type Neighborhood [2][2]bool

// CornersOf classifies a 2×2 neighborhood. It returns no directions for
// uniform cells and straight edges, one direction for a single blocking or
// single open cell, and two concave directions for a diagonal pair.
func CornersOf(n Neighborhood) []CornerDirection {
	const (
		nw = 1 << iota
		ne
		sw
		se
	)
	var bits uint8
	if n[0][0] {
		bits |= nw
	}
	if n[0][1] {
		bits |= ne
	}
	if n[1][0] {
		bits |= sw
	}
	if n[1][1] {
		bits |= se
	}
	switch bits {
	case 0, nw | ne | sw | se, nw | ne, sw | se, ne | se, nw | sw:
		return nil
	case nw:
		return []CornerDirection{ConvexSouthEast}
	case ne:
		return []CornerDirection{ConvexSouthWest}
	case sw:
		return []CornerDirection{ConvexNorthEast}
	case se:
		return []CornerDirection{ConvexNorthWest}
	case nw | se:
		return []CornerDirection{ConcaveNorthEast, ConcaveSouthWest}
	case ne | sw:
		return []CornerDirection{ConcaveNorthWest, ConcaveSouthEast}
	case nw | sw | se:
		return []CornerDirection{ConcaveNorthEast}
	case nw | ne | se:
		return []CornerDirection{ConcaveSouthWest}
	case ne | sw | se:
		return []CornerDirection{ConcaveNorthWest}
	case nw | ne | sw:
		return []CornerDirection{ConcaveSouthEast}
	}
	panic(fmt.Sprintf("light: unreachable neighborhood pattern %04b", bits))
}

// IsConcave reports whether the corner is an inside corner of the outline.
func (d CornerDirection) IsConcave() bool { return d&cornerConcave != 0 }

// IsConvex reports whether light can wrap around the corner.
func (d CornerDirection) IsConvex() bool { return !d.IsConcave() }

// IsSouth reports whether the corner points toward +y.
func (d CornerDirection) IsSouth() bool { return d&cornerSouth != 0 }

// IsNorth reports whether the corner points toward -y.
func (d CornerDirection) IsNorth() bool { return !d.IsSouth() }

// IsWest reports whether the corner points toward -x.
func (d CornerDirection) IsWest() bool { return d&cornerWest != 0 }

// IsEast reports whether the corner points toward +x.
func (d CornerDirection) IsEast() bool { return !d.IsWest() }

// Out is the diagonal unit step the direction points along.
func (d CornerDirection) Out() geom.Vec {
	v := geom.V(1, -1)
	if d.IsWest() {
		v.X = -1
	}
	if d.IsSouth() {
		v.Y = 1
	}
	return v
}

// filter reports whether the offset lies on the direction's side of each axis.
func (d CornerDirection) filter(off geom.Vec) (horizontal, vertical bool) {
	if d.IsEast() {
		horizontal = off.X >= 0
	} else {
		horizontal = off.X <= 0
	}
	if d.IsNorth() {
		vertical = off.Y <= 0
	} else {
		vertical = off.Y >= 0
	}
	return horizontal, vertical
}

// ContainsOffset reports whether a point at off from the corner is on the
// open side of it: either half-plane for convex corners, the open quadrant
// for concave ones.
func (d CornerDirection) ContainsOffset(off geom.Vec) bool {
	h, v := d.filter(off)
	if d.IsConvex() {
		return h || v
	}
	return h && v
}

// ContainsOffsetStrict reports whether off lies in the quadrant the
// direction points into.
func (d CornerDirection) ContainsOffsetStrict(off geom.Vec) bool {
	h, v := d.filter(off)
	return h && v
}

// IsOffsetToLeft reports whether off lies on the counter-clockwise side of
// the corner as seen looking along Out.
func (d CornerDirection) IsOffsetToLeft(off geom.Vec) bool {
	switch d & (cornerSouth | cornerWest) {
	case ConvexSouthWest:
		return off.X >= 0 && off.Y >= 0
	case ConvexSouthEast:
		return off.X >= 0 && off.Y <= 0
	case ConvexNorthWest:
		return off.X <= 0 && off.Y >= 0
	default:
		return off.X <= 0 && off.Y <= 0
	}
}

// IsOnLeftEdge reports whether off lies on the counter-clockwise edge line
// leaving the corner.
func (d CornerDirection) IsOnLeftEdge(off geom.Vec) bool {
	switch d & (cornerSouth | cornerWest) {
	case ConvexSouthWest:
		return off.Y >= 0 && off.X == 0
	case ConvexSouthEast:
		return off.X >= 0 && off.Y == 0
	case ConvexNorthWest:
		return off.X <= 0 && off.Y == 0
	default:
		return off.Y <= 0 && off.X == 0
	}
}

// IsOnRightEdge reports whether off lies on the clockwise edge line leaving
// the corner.
func (d CornerDirection) IsOnRightEdge(off geom.Vec) bool {
	switch d & (cornerSouth | cornerWest) {
	case ConvexSouthWest:
		return off.X <= 0 && off.Y == 0
	case ConvexSouthEast:
		return off.Y >= 0 && off.X == 0
	case ConvexNorthWest:
		return off.Y <= 0 && off.X == 0
	default:
		return off.X >= 0 && off.Y == 0
	}
}

// IsOnEdge reports whether off lies along either edge leaving the corner.
func (d CornerDirection) IsOnEdge(off geom.Vec) bool {
	return d.IsOnLeftEdge(off) || d.IsOnRightEdge(off)
}

// ShouldSkip reports whether a viewer at off sees the corner only along the
// back side of one of its edges, where the corner adds no vertex.
func (d CornerDirection) ShouldSkip(off geom.Vec) bool {
	switch d & (cornerSouth | cornerWest) {
	case ConvexSouthWest:
		return (off.X >= 0 && off.Y == 0) || (off.Y <= 0 && off.X == 0)
	case ConvexSouthEast:
		return (off.X <= 0 && off.Y == 0) || (off.Y <= 0 && off.X == 0)
	case ConvexNorthWest:
		return (off.X >= 0 && off.Y == 0) || (off.Y >= 0 && off.X == 0)
	default:
		return (off.X <= 0 && off.Y == 0) || (off.Y >= 0 && off.X == 0)
	}
}

func (d CornerDirection) String() string {
	names := [...]string{
		"convex-ne", "convex-nw", "convex-se", "convex-sw",
		"concave-ne", "concave-nw", "concave-se", "concave-sw",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("corner(%d)", uint8(d))
}

// Corner is a lattice vertex where the occluder outline turns.
type Corner struct {
	Location  geom.Vec
	Direction CornerDirection
}
