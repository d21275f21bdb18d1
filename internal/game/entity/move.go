package entity

import (
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

// Axis selects a coordinate for Sweep.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

const (
	sweepEpsilon = 1e-12
	// boxInset keeps a box resting flush on a grid line out of the next cell.
	boxInset = 1e-9
)

// Sweep moves a box of size centred on pos by d along axis. The box stops
// flush against the nearest motion-blocking cell in its path.
//
// Precondition: the box at pos overlaps no motion-blocking cell.
func Sweep(g *light.Grid, pos, size geom.Vec, axis Axis, d float64) geom.Vec {
	if math.Abs(d) <= sweepEpsilon {
		return pos
	}
	old := component(pos, axis)
	next := withComponent(pos, axis, old+d)

	lo := geom.V(math.Min(pos.X, next.X), math.Min(pos.Y, next.Y)).Sub(size.Scale(0.5))
	hi := geom.V(math.Max(pos.X, next.X), math.Max(pos.Y, next.Y)).Add(size.Scale(0.5))
	path := grid.RectCovering(lo.X+boxInset, lo.Y+boxInset, hi.X-boxInset, hi.Y-boxInset)

	found := false
	var hit int
	path.Each(func(i grid.Index) {
		if !g.BlocksMotion(i) {
			return
		}
		c := i.X
		if axis == AxisY {
			c = i.Y
		}
		if !found || (d > 0 && c < hit) || (d < 0 && c > hit) {
			hit, found = c, true
		}
	})
	if !found {
		return next
	}

	edge := float64(hit)
	if d < 0 {
		edge++
	}
	v := edge - component(size, axis)*math.Copysign(0.5, d)
	if (v < old) != (d < 0) || math.Abs(v-old) > math.Abs(d) {
		v = old
	}
	return withComponent(pos, axis, v)
}

// Move applies a displacement one axis at a time, X first.
func Move(g *light.Grid, pos, size, delta geom.Vec) geom.Vec {
	pos = Sweep(g, pos, size, AxisX, delta.X)
	return Sweep(g, pos, size, AxisY, delta.Y)
}

func component(v geom.Vec, axis Axis) float64 {
	if axis == AxisY {
		return v.Y
	}
	return v.X
}

func withComponent(v geom.Vec, axis Axis, c float64) geom.Vec {
	if axis == AxisY {
		v.Y = c
	} else {
		v.X = c
	}
	return v
}
