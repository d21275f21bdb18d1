package light

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
)

// Tuning holds the numeric tolerances of the visibility engine.
type Tuning struct {
	// Epsilon snaps near-grid-line coordinates, merges near-simultaneous
	// axis crossings and pads distance comparisons.
	Epsilon float64
	// MaxRange caps every ray cast by the tracer.
	MaxRange float64
}

// DefaultTuning is used wherever a Tuning field is left zero.
var DefaultTuning = Tuning{Epsilon: 1e-6, MaxRange: 256}

func (t Tuning) withDefaults() Tuning {
	if t.Epsilon <= 0 {
		t.Epsilon = DefaultTuning.Epsilon
	}
	if t.MaxRange <= 0 {
		t.MaxRange = DefaultTuning.MaxRange
	}
	return t
}

// BlockFunc reports whether the cell at i stops a ray that has reached p.
type BlockFunc func(p geom.Vec, i grid.Index) bool

// NormalKind classifies what a ray struck.
type NormalKind uint8

const (
	// NormalNone means the ray reached its maximum distance.
	NormalNone NormalKind = iota
	// NormalInside means the ray started inside a blocked region.
	NormalInside
	// NormalFace means the ray struck a flat wall face.
	NormalFace
	// NormalCorner means the ray struck a lattice vertex on the outline.
	NormalCorner
)

// Face names the outward normal of a struck wall face.
type Face uint8

const (
	// FaceNorth is the face looking toward -y.
	FaceNorth Face = iota
	// FaceSouth is the face looking toward +y.
	FaceSouth
	// FaceEast is the face looking toward +x.
	FaceEast
	// FaceWest is the face looking toward -x.
	FaceWest
)

// String returns the lower-case compass name of the face.
func (f Face) String() string {
	return [...]string{"north", "south", "east", "west"}[f]
}

// Normal describes the surface a ray stopped against.
type Normal struct {
	Kind NormalKind
	// Face is set when Kind is NormalFace.
	Face Face
	// Corner is set when Kind is NormalCorner.
	Corner CornerDirection
	// Glancing is true when the ray arrived sliding along an edge or
	// squeezed between a diagonal pair rather than entering a cell head on.
	Glancing bool
}

func (n Normal) String() string {
	switch n.Kind {
	case NormalInside:
		return "inside"
	case NormalFace:
		return "face-" + n.Face.String()
	case NormalCorner:
		if n.Glancing {
			return n.Corner.String() + "(glancing)"
		}
		return n.Corner.String()
	default:
		return "none"
	}
}

// Hit is the result of a raycast.
type Hit struct {
	Point  geom.Vec
	Normal Normal
}

// Blocked reports whether the ray stopped against something before its
// maximum distance.
func (h Hit) Blocked() bool { return h.Normal.Kind != NormalNone }

// Raycast casts a ray with DefaultTuning. See Tuning.Raycast.
func Raycast(blocked BlockFunc, start, direction geom.Vec, maxDistance float64) Hit {
	return DefaultTuning.Raycast(blocked, start, direction, maxDistance)
}

type step uint8

const (
	stepX step = iota
	stepY
	stepBoth
)

// Raycast walks the cells crossed by the ray from start along direction and
// returns the first point where it is stopped. A ray running exactly along a
// grid line is stopped only once both cells flanking the line have been
// blocked somewhere along its path; a ray passing exactly through a lattice
// vertex is stopped by a diagonal pair of blocked cells.
//
// Precondition: direction has unit length.
// Postcondition: if no cell stops the ray, the hit point lies exactly
// maxDistance from start and Blocked() is false.
func (t Tuning) Raycast(blocked BlockFunc, start, direction geom.Vec, maxDistance float64) Hit {
	t = t.withDefaults()
	eps := t.Epsilon
	if !direction.IsFinite() || math.Abs(direction.LenSq()-1) > 1e-3 {
		panic(fmt.Sprintf("light: raycast direction %v is not a unit vector", direction))
	}

	loc := start
	var onXEdge, onYEdge bool
	switch {
	case math.Abs(direction.X) <= eps:
		direction = geom.V(0, signum(direction.Y))
		onXEdge = true
	case math.Abs(direction.Y) <= eps:
		direction = geom.V(signum(direction.X), 0)
		onYEdge = true
	}

	snappedX, snappedY := nearGridLine(loc.X, eps), nearGridLine(loc.Y, eps)
	if snappedX {
		loc.X = math.Round(loc.X)
	} else {
		onXEdge = false
	}
	if snappedY {
		loc.Y = math.Round(loc.Y)
	} else {
		onYEdge = false
	}
	edge := onXEdge || onYEdge
	side := grid.I(0, -1)
	if onXEdge {
		side = grid.I(-1, 0)
	}
	sx, sy := stepSign(direction.X), stepSign(direction.Y)

	idx := cellAhead(loc, direction)
	sideB := blocked(loc, idx)
	sideA := false
	if edge {
		sideA = blocked(loc, idx.Add(side))
		if sideA && sideB {
			return Hit{Point: loc, Normal: Normal{Kind: NormalInside}}
		}
	} else {
		if sideB {
			return Hit{Point: loc, Normal: Normal{Kind: NormalInside}}
		}
		if snappedX && snappedY && blocked(loc, idx.Sub(grid.I(sx, 0))) && blocked(loc, idx.Sub(grid.I(0, sy))) {
			return Hit{Point: loc, Normal: vertexNormal(blocked, loc, direction, true)}
		}
	}

	maxSq := (maxDistance - eps) * (maxDistance - eps)
	for {
		tx := (1 - remEuclid(loc.X*signum(direction.X), 1)) / math.Abs(direction.X)
		ty := (1 - remEuclid(loc.Y*signum(direction.Y), 1)) / math.Abs(direction.Y)
		if math.Abs(tx-ty) < eps {
			tx = ty
		}

		var s step
		switch {
		case tx < ty:
			loc.X = nextGridLine(loc.X, direction.X)
			loc.Y += tx * direction.Y
			s = stepX
		case tx > ty:
			loc.X += ty * direction.X
			loc.Y = nextGridLine(loc.Y, direction.Y)
			s = stepY
		default:
			loc.X = nextGridLine(loc.X, direction.X)
			loc.Y = nextGridLine(loc.Y, direction.Y)
			s = stepBoth
		}

		if start.DistSq(loc) >= maxSq {
			return Hit{Point: start.Add(direction.Scale(maxDistance))}
		}

		idx = cellAhead(loc, direction)
		if edge {
			if !sideA {
				sideA = blocked(loc, idx.Add(side))
			}
			if !sideB {
				sideB = blocked(loc, idx)
			}
			if sideA && sideB {
				return Hit{Point: loc, Normal: vertexNormal(blocked, loc, direction, true)}
			}
			continue
		}

		if blocked(loc, idx) {
			return Hit{Point: loc, Normal: entryNormal(blocked, s, loc, direction)}
		}
		if s == stepBoth && blocked(loc, idx.Sub(grid.I(sx, 0))) && blocked(loc, idx.Sub(grid.I(0, sy))) {
			return Hit{Point: loc, Normal: vertexNormal(blocked, loc, direction, true)}
		}
	}
}

// entryNormal names the surface crossed when the ray entered a blocked cell.
func entryNormal(blocked BlockFunc, s step, loc, direction geom.Vec) Normal {
	switch s {
	case stepX:
		if direction.X > 0 {
			return Normal{Kind: NormalFace, Face: FaceWest}
		}
		return Normal{Kind: NormalFace, Face: FaceEast}
	case stepY:
		if direction.Y > 0 {
			return Normal{Kind: NormalFace, Face: FaceNorth}
		}
		return Normal{Kind: NormalFace, Face: FaceSouth}
	default:
		return vertexNormal(blocked, loc, direction, false)
	}
}

// vertexNormal classifies a hit at the lattice vertex v from the four cells
// around it. Straight walls become faces; a diagonal pair resolves to the
// concave corner facing the ray.
func vertexNormal(blocked BlockFunc, v, direction geom.Vec, glancing bool) Normal {
	vx, vy := int(math.Round(v.X)), int(math.Round(v.Y))
	n := Neighborhood{
		{blocked(v, grid.I(vx-1, vy-1)), blocked(v, grid.I(vx, vy-1))},
		{blocked(v, grid.I(vx-1, vy)), blocked(v, grid.I(vx, vy))},
	}
	dirs := CornersOf(n)
	switch len(dirs) {
	case 1:
		return Normal{Kind: NormalCorner, Corner: dirs[0], Glancing: glancing}
	case 2:
		for _, d := range dirs {
			if d.Out().Dot(direction) < 0 {
				return Normal{Kind: NormalCorner, Corner: d, Glancing: glancing}
			}
		}
		return Normal{Kind: NormalCorner, Corner: dirs[0], Glancing: glancing}
	}

	nw, ne, sw, se := n[0][0], n[0][1], n[1][0], n[1][1]
	switch {
	case nw && ne && !sw && !se:
		return Normal{Kind: NormalFace, Face: FaceSouth}
	case sw && se && !nw && !ne:
		return Normal{Kind: NormalFace, Face: FaceNorth}
	case nw && sw && !ne && !se:
		return Normal{Kind: NormalFace, Face: FaceEast}
	case ne && se && !nw && !sw:
		return Normal{Kind: NormalFace, Face: FaceWest}
	}
	return Normal{Kind: NormalFace, Face: facing(direction)}
}

// facing returns the face a ray travelling along direction would strike on
// a wall perpendicular to its dominant axis.
func facing(direction geom.Vec) Face {
	if math.Abs(direction.X) >= math.Abs(direction.Y) {
		if direction.X > 0 {
			return FaceWest
		}
		return FaceEast
	}
	if direction.Y > 0 {
		return FaceNorth
	}
	return FaceSouth
}

// cellAhead is the cell a ray at loc enters next. Coordinates on a grid line
// resolve toward the direction of travel.
func cellAhead(loc, direction geom.Vec) grid.Index {
	return grid.I(cellCoord(loc.X, direction.X), cellCoord(loc.Y, direction.Y))
}

func cellCoord(v, d float64) int {
	if d >= 0 {
		return int(math.Floor(v))
	}
	return int(math.Ceil(v)) - 1
}

func nextGridLine(v, d float64) float64 {
	if d > 0 {
		return math.Floor(v) + 1
	}
	return math.Ceil(v) - 1
}

func nearGridLine(v, eps float64) bool {
	return math.Abs(remEuclid(v+0.5, 1)-0.5) <= eps
}

func remEuclid(a, b float64) float64 {
	r := math.Mod(a, b)
	if r < 0 {
		r += b
	}
	return r
}

// signum returns 1 for +0 as well as positive values.
func signum(v float64) float64 {
	if v < 0 || (v == 0 && math.Signbit(v)) {
		return -1
	}
	return 1
}

func stepSign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}
