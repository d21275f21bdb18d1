// Package terminal draws a running simulation as a grid of glyphs and
// drives it interactively on a tcell screen.
package terminal

import (
	"strings"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// Class tells the screen how to style a cell.
type Class uint8

const (
	// ClassUnseen is a tile outside the observer's view.
	ClassUnseen Class = iota
	// ClassLit is a tile inside the observer's view.
	ClassLit
	ClassEntity
	ClassPlayer
	ClassPastSelf
	ClassDead
)

// UnknownGlyph marks a material the registry has no glyph for.
const UnknownGlyph = '?'

// Cell is one rasterized grid cell.
type Cell struct {
	Glyph rune
	Class Class
}

// Frame is a rectangle of rasterized cells in grid coordinates.
type Frame struct {
	Bounds grid.Rect
	cells  []Cell
}

// At returns the cell at i, or a blank unseen cell outside Bounds.
func (f *Frame) At(i grid.Index) Cell {
	if !f.Bounds.Contains(i) {
		return Cell{Glyph: ' '}
	}
	off := (i.Y-f.Bounds.Top())*f.Bounds.Width + (i.X - f.Bounds.Left())
	return f.cells[off]
}

func (f *Frame) set(i grid.Index, c Cell) {
	if !f.Bounds.Contains(i) {
		return
	}
	f.cells[(i.Y-f.Bounds.Top())*f.Bounds.Width+(i.X-f.Bounds.Left())] = c
}

// Rows returns the glyphs of f, top row first.
func (f *Frame) Rows() []string {
	rows := make([]string, f.Bounds.Height)
	var b strings.Builder
	for y := 0; y < f.Bounds.Height; y++ {
		b.Reset()
		for x := 0; x < f.Bounds.Width; x++ {
			b.WriteRune(f.cells[y*f.Bounds.Width+x].Glyph)
		}
		rows[y] = b.String()
	}
	return rows
}

// Viewport returns the width by height rectangle centred on the cell
// holding center.
func Viewport(center geom.Vec, width, height int) grid.Rect {
	cx, cy := center.Floor()
	return grid.R(cx-width/2, cy-height/2, width, height)
}

// Rasterize draws the tiles of g and the entities visible in view over the
// cells of bounds. A nil view shows everything. The live player is always
// drawn, last.
//
// Precondition: g and reg must be non-nil.
func Rasterize(g *light.Grid, reg *level.Registry, view *light.Area, entities []*entity.Entity, bounds grid.Rect) *Frame {
	f := &Frame{Bounds: bounds, cells: make([]Cell, bounds.Area())}
	bounds.Each(func(i grid.Index) {
		glyph, ok := reg.Glyph(g.Get(i))
		if !ok {
			glyph = UnknownGlyph
		}
		class := ClassLit
		if view != nil && !view.ContainsPoint(geom.V(float64(i.X)+0.5, float64(i.Y)+0.5)) {
			class = ClassUnseen
		}
		f.set(i, Cell{Glyph: glyph, Class: class})
	})

	var live *entity.Entity
	for _, e := range entities {
		if e.IsLivePlayer() {
			live = e
			continue
		}
		if view != nil && !e.WithinArea(view) {
			continue
		}
		if c, ok := entityCell(e); ok {
			f.set(cellOf(e.Position), c)
		}
	}
	if live != nil {
		f.set(cellOf(live.Position), Cell{Glyph: '@', Class: ClassPlayer})
	}
	return f
}

func cellOf(p geom.Vec) grid.Index {
	x, y := p.Floor()
	return grid.I(x, y)
}

// entityCell returns the glyph of e. Doors draw through the occluder grid
// and gates have no body, so neither gets one.
func entityCell(e *entity.Entity) (Cell, bool) {
	switch e.Kind {
	case entity.KindPlayer:
		if e.Actor != nil && e.Actor.Observer != nil && e.Actor.Observer.State() == paradox.Dead {
			return Cell{Glyph: 'x', Class: ClassDead}, true
		}
		return Cell{Glyph: '&', Class: ClassPastSelf}, true
	case entity.KindDummy:
		return Cell{Glyph: 'D', Class: ClassEntity}, true
	case entity.KindButton:
		if e.Signal {
			return Cell{Glyph: 'o', Class: ClassEntity}, true
		}
		return Cell{Glyph: '_', Class: ClassEntity}, true
	case entity.KindElevator:
		return Cell{Glyph: 'E', Class: ClassEntity}, true
	}
	return Cell{}, false
}
