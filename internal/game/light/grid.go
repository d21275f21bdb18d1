package light

import (
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
)

// Grid is the occluder grid the tracer runs against. It caches the corner
// list and rebuilds it on the first query after any write.
//
// A Grid is not safe for concurrent use: Corners and Trace refresh the cache.
type Grid struct {
	Tuning Tuning

	cells   grid.Grid[Material]
	dirty   bool
	corners []Corner
}

// NewGrid returns an empty grid with the given tolerances.
func NewGrid(t Tuning) *Grid {
	return &Grid{Tuning: t.withDefaults()}
}

// Bounds returns the storage rectangle of the grid.
func (g *Grid) Bounds() grid.Rect { return g.cells.Bounds() }

// Get returns the material at i; cells outside the bounds are Empty.
func (g *Grid) Get(i grid.Index) Material { return g.cells.Get(i) }

// Cell returns a writable pointer to the cell at i, growing the grid if
// needed, and marks the corner cache stale.
func (g *Grid) Cell(i grid.Index) *Material {
	g.dirty = true
	return g.cells.Ptr(i)
}

// Set stores m at i.
func (g *Grid) Set(i grid.Index, m Material) {
	*g.Cell(i) = m
}

// Fill stores m in every cell of r.
func (g *Grid) Fill(r grid.Rect, m Material) {
	g.dirty = true
	g.cells.Fill(r, m)
}

// ExpandToFit grows the storage to cover r. See grid.Grid.ExpandToFit.
func (g *Grid) ExpandToFit(r grid.Rect) bool {
	return g.cells.ExpandToFit(r)
}

// SetBounds resizes the storage, keeping overlapping cells.
func (g *Grid) SetBounds(r grid.Rect) {
	g.dirty = true
	g.cells.SetBounds(r)
}

// ShrinkToFit trims the storage to the cells that are not Empty.
func (g *Grid) ShrinkToFit() {
	g.dirty = true
	g.cells.ShrinkToFit()
}

// Each visits every stored cell.
func (g *Grid) Each(fn func(grid.Index, Material)) { g.cells.Each(fn) }

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	return &Grid{Tuning: g.Tuning, cells: *g.cells.Clone(), dirty: true}
}

// BlocksLight reports whether the cell at i stops rays.
func (g *Grid) BlocksLight(i grid.Index) bool { return g.cells.Get(i).BlocksLight() }

// BlocksMotion reports whether the cell at i stops entities.
func (g *Grid) BlocksMotion(i grid.Index) bool { return g.cells.Get(i).BlocksMotion() }

func (g *Grid) blockFunc() BlockFunc {
	return func(_ geom.Vec, i grid.Index) bool { return g.BlocksLight(i) }
}

// Corners returns every outline corner of the light-blocking cells,
// regenerating the list if the grid was written since the last call.
//
// Postcondition: the slice is valid until the next write to g.
func (g *Grid) Corners() []Corner {
	if g.dirty {
		g.dirty = false
		g.corners = extractCorners(&g.cells, g.corners[:0])
	}
	return g.corners
}

// extractCorners scans every lattice vertex touching the bounds, one past
// the far edge on each axis.
func extractCorners(cells *grid.Grid[Material], out []Corner) []Corner {
	b := cells.Bounds()
	if b.IsEmpty() {
		return out
	}
	blocks := func(x, y int) bool { return cells.Get(grid.I(x, y)).BlocksLight() }
	for x := b.Left(); x <= b.Right()+1; x++ {
		for y := b.Top(); y <= b.Bottom()+1; y++ {
			n := Neighborhood{
				{blocks(x-1, y-1), blocks(x, y-1)},
				{blocks(x-1, y), blocks(x, y)},
			}
			for _, d := range CornersOf(n) {
				out = append(out, Corner{Location: geom.V(float64(x), float64(y)), Direction: d})
			}
		}
	}
	return out
}

// Raycast casts a ray against the light-blocking cells.
func (g *Grid) Raycast(start, direction geom.Vec, maxDistance float64) Hit {
	return g.Tuning.Raycast(g.blockFunc(), start, direction, maxDistance)
}

// ContainsPath reports whether the straight segment from a to b is free of
// light-blocking cells.
func (g *Grid) ContainsPath(a, b geom.Vec) bool {
	t := g.Tuning.withDefaults()
	d := b.Sub(a)
	dir, ok := d.TryNormalize(math.SmallestNonzeroFloat64)
	if !ok {
		return !g.BlocksLight(grid.I(a.Floor()))
	}
	dist := d.Len()
	hit := t.Raycast(g.blockFunc(), a, dir, dist)
	return !hit.Blocked() || hit.Point.DistSq(a) >= dist*dist-t.Epsilon
}
