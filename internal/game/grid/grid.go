package grid

// Grid is a dense 2D array of T over a movable bounding Rect. Reads outside
// the bounds return the zero T; writes outside the bounds grow the storage
// first. The zero Grid is empty and ready to use.
type Grid[T comparable] struct {
	bounds Rect
	cells  []T
}

// New returns a grid pre-sized to bounds.
func New[T comparable](bounds Rect) *Grid[T] {
	g := &Grid[T]{}
	g.SetBounds(bounds)
	return g
}

// Bounds returns the current storage rectangle.
func (g *Grid[T]) Bounds() Rect { return g.bounds }

// Get returns the value at i, or the zero T when i is out of bounds.
func (g *Grid[T]) Get(i Index) T {
	if n, ok := g.bounds.offset(i); ok {
		return g.cells[n]
	}
	var zero T
	return zero
}

// Ptr returns a pointer to the cell at i, growing the grid first if needed.
//
// Postcondition: Bounds().Contains(i). The pointer is invalidated by the
// next call that grows or resizes the grid.
func (g *Grid[T]) Ptr(i Index) *T {
	g.ExpandToFit(Rect{Origin: i, Width: 1, Height: 1})
	n, _ := g.bounds.offset(i)
	return &g.cells[n]
}

// Set stores v at i, growing the grid if needed.
func (g *Grid[T]) Set(i Index, v T) {
	*g.Ptr(i) = v
}

// Fill stores v in every cell of r.
func (g *Grid[T]) Fill(r Rect, v T) {
	if r.IsEmpty() {
		return
	}
	g.ExpandToFit(r)
	r.Each(func(i Index) {
		n, _ := g.bounds.offset(i)
		g.cells[n] = v
	})
}

// ExpandToFit grows the storage so it contains r. An axis that must grow
// grows by at least half its current length, so repeated nearby writes
// amortize to few reallocations. It reports whether the storage changed.
func (g *Grid[T]) ExpandToFit(r Rect) bool {
	next, grown := g.bounds.expandedToInclude(r, g.bounds.Width/2, g.bounds.Height/2)
	if grown {
		g.SetBounds(next)
	}
	return grown
}

// SetBounds reallocates storage to exactly r, keeping every cell that lies
// in both the old and new bounds and zero-filling the rest.
func (g *Grid[T]) SetBounds(r Rect) {
	if r.Width < 0 || r.Height < 0 {
		panic("grid: negative bounds " + r.String())
	}
	if r == g.bounds {
		return
	}
	cells := make([]T, r.Area())
	keep := g.bounds.Intersection(r)
	for y := keep.Top(); y <= keep.Bottom(); y++ {
		src, _ := g.bounds.offset(Index{keep.Left(), y})
		dst, _ := r.offset(Index{keep.Left(), y})
		copy(cells[dst:dst+keep.Width], g.cells[src:src+keep.Width])
	}
	g.bounds = r
	g.cells = cells
}

// ShrinkToFit sets the bounds to the tightest rectangle holding every
// non-zero cell.
func (g *Grid[T]) ShrinkToFit() {
	g.SetBounds(g.Occupied())
}

// Occupied returns the tightest rectangle holding every non-zero cell.
func (g *Grid[T]) Occupied() Rect {
	var zero T
	var used Rect
	for n, v := range g.cells {
		if v == zero {
			continue
		}
		i := Index{g.bounds.Origin.X + n%g.bounds.Width, g.bounds.Origin.Y + n/g.bounds.Width}
		used = used.Union(Rect{Origin: i, Width: 1, Height: 1})
	}
	return used
}

// Each calls fn for every cell in the current bounds.
func (g *Grid[T]) Each(fn func(Index, T)) {
	g.bounds.Each(func(i Index) {
		n, _ := g.bounds.offset(i)
		fn(i, g.cells[n])
	})
}

// Clone returns an independent copy of g.
func (g *Grid[T]) Clone() *Grid[T] {
	return &Grid[T]{bounds: g.bounds, cells: append([]T(nil), g.cells...)}
}
