// Package grid provides an origin-relative, auto-expanding dense 2D grid and
// the integer geometry it is indexed by.
package grid

import (
	"fmt"
	"math"
)

// Index addresses one cell. Cell (x, y) covers [x, x+1) × [y, y+1) in
// continuous space.
type Index struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// I is shorthand for Index{X: x, Y: y}.
func I(x, y int) Index { return Index{X: x, Y: y} }

// Add returns i+o.
func (i Index) Add(o Index) Index { return Index{i.X + o.X, i.Y + o.Y} }

// Sub returns i-o.
func (i Index) Sub(o Index) Index { return Index{i.X - o.X, i.Y - o.Y} }

func (i Index) String() string { return fmt.Sprintf("(%d,%d)", i.X, i.Y) }

// Rect is a half-open rectangle of cells: Origin inclusive, Origin+Size exclusive.
// The zero Rect is empty.
type Rect struct {
	Origin Index
	Width  int
	Height int
}

// R builds a Rect from its origin and size.
//
// Precondition: w >= 0 and h >= 0.
func R(x, y, w, h int) Rect {
	if w < 0 || h < 0 {
		panic(fmt.Sprintf("grid: negative rect size %dx%d", w, h))
	}
	return Rect{Origin: Index{x, y}, Width: w, Height: h}
}

// RectFromCorners builds the smallest Rect containing both inclusive corners.
func RectFromCorners(a, b Index) Rect {
	minX, maxX := min(a.X, b.X), max(a.X, b.X)
	minY, maxY := min(a.Y, b.Y), max(a.Y, b.Y)
	return Rect{Origin: Index{minX, minY}, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// RectCovering returns the cells touched by the continuous box [min, max],
// boundaries included, so a box whose edge lies on a grid line also covers
// the cell beyond it.
func RectCovering(minX, minY, maxX, maxY float64) Rect {
	return RectFromCorners(
		Index{int(math.Floor(minX)), int(math.Floor(minY))},
		Index{int(math.Floor(maxX)), int(math.Floor(maxY))},
	)
}

// Left is the leftmost column inside r.
func (r Rect) Left() int { return r.Origin.X }

// Top is the topmost row inside r.
func (r Rect) Top() int { return r.Origin.Y }

// Right is the rightmost column inside r (inclusive).
func (r Rect) Right() int { return r.Origin.X + r.Width - 1 }

// Bottom is the bottom row inside r (inclusive).
func (r Rect) Bottom() int { return r.Origin.Y + r.Height - 1 }

// End is the exclusive far corner of r.
func (r Rect) End() Index { return Index{r.Origin.X + r.Width, r.Origin.Y + r.Height} }

// Area is the number of cells in r.
func (r Rect) Area() int { return r.Width * r.Height }

// IsEmpty reports whether r contains no cells.
func (r Rect) IsEmpty() bool { return r.Width == 0 || r.Height == 0 }

// Contains reports whether i lies inside r.
func (r Rect) Contains(i Index) bool {
	_, ok := r.offset(i)
	return ok
}

// ContainsRect reports whether o lies entirely inside r. Empty rects are
// contained by everything.
func (r Rect) ContainsRect(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	return r.Contains(o.Origin) && r.Contains(Index{o.Right(), o.Bottom()})
}

// Intersects reports whether r and o share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersection(o).IsEmpty()
}

// Intersection returns the cells shared by r and o.
func (r Rect) Intersection(o Rect) Rect {
	x0, y0 := max(r.Origin.X, o.Origin.X), max(r.Origin.Y, o.Origin.Y)
	x1, y1 := min(r.End().X, o.End().X), min(r.End().Y, o.End().Y)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{Origin: Index{x0, y0}, Width: x1 - x0, Height: y1 - y0}
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x0, y0 := min(r.Origin.X, o.Origin.X), min(r.Origin.Y, o.Origin.Y)
	x1, y1 := max(r.End().X, o.End().X), max(r.End().Y, o.End().Y)
	return Rect{Origin: Index{x0, y0}, Width: x1 - x0, Height: y1 - y0}
}

// Each calls fn for every index in r in row-major order.
func (r Rect) Each(fn func(Index)) {
	for y := r.Top(); y <= r.Bottom(); y++ {
		for x := r.Left(); x <= r.Right(); x++ {
			fn(Index{x, y})
		}
	}
}

// offset maps i to its row-major position in r. The signed offset is
// converted to unsigned so a single comparison rejects both sides.
func (r Rect) offset(i Index) (int, bool) {
	dx, dy := uint(i.X-r.Origin.X), uint(i.Y-r.Origin.Y)
	if dx >= uint(r.Width) || dy >= uint(r.Height) {
		return 0, false
	}
	return int(dx) + int(dy)*r.Width, true
}

// expandedToInclude returns r grown so it contains o. When an axis needs to
// grow it grows by at least minExpand cells in that direction.
func (r Rect) expandedToInclude(o Rect, minW, minH int) (Rect, bool) {
	if o.IsEmpty() || r.ContainsRect(o) {
		return r, false
	}
	if r.IsEmpty() {
		return o, true
	}
	x0, y0 := r.Origin.X, r.Origin.Y
	x1, y1 := r.End().X, r.End().Y
	if o.Origin.X < x0 {
		x0 = min(o.Origin.X, x0-minW)
	}
	if o.Origin.Y < y0 {
		y0 = min(o.Origin.Y, y0-minH)
	}
	if o.End().X > x1 {
		x1 = max(o.End().X, x1+minW)
	}
	if o.End().Y > y1 {
		y1 = max(o.End().Y, y1+minH)
	}
	return Rect{Origin: Index{x0, y0}, Width: x1 - x0, Height: y1 - y0}, true
}

func (r Rect) String() string {
	return fmt.Sprintf("%v+%dx%d", r.Origin, r.Width, r.Height)
}
