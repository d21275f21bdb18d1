package entity

import (
	"slices"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// Entity is one thing in a level. Kind selects which of the variant fields
// is set: Actor for players and dummies, Door, Gate or Elevator for those
// kinds. Buttons need only the common fields.
type Entity struct {
	ID   ID
	Kind Kind
	// Name is the level-authored handle used to wire signals.
	Name     string
	Position geom.Vec
	// Size is the full extent of the entity's box, centred on Position.
	Size geom.Vec
	// Signal is the output of buttons and gates.
	Signal bool

	Actor    *Actor
	Door     *Door
	Gate     *Gate
	Elevator *Elevator
}

// Input is the control state of a live player for one frame.
type Input struct {
	// Move is the desired walking direction; its length is ignored.
	Move geom.Vec
	// Look is the world-space point the player faces.
	Look geom.Vec
}

// Actor holds the state shared by players and dummies.
type Actor struct {
	Facing    geom.Vec
	ViewWidth float64
	Speed     float64
	Input     Input
	// Observer is set for players once they are spawned into a timeline.
	Observer *paradox.Observer
}

// Door is a line of cells that fills with Solid one cell per frame while
// closed and empties while its source signal holds it open.
type Door struct {
	Orientation Orientation
	Length      int
	Extent      int
	// Source is the entity whose signal opens the door; zero keeps it shut.
	Source  ID
	Open    bool
	Blocked bool

	painted bool
}

// Gate combines the signals of its inputs.
type Gate struct {
	Op     GateOp
	Inputs []ID
}

// Elevator rewinds time when a live player stands fully inside it.
type Elevator struct {
	Triggered bool
}

// World is what an entity update may read and write besides other entities.
type World struct {
	Frame history.Frame
	DT    float64
	Light *light.Grid
}

// Action is a request from an entity update to the simulation.
type Action uint8

const (
	ActionNone Action = iota
	// ActionRewind asks for the live player to become a past self.
	ActionRewind
)

// Clone returns a deep copy of e. An actor's observer is shared.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Actor != nil {
		a := *e.Actor
		c.Actor = &a
	}
	if e.Door != nil {
		d := *e.Door
		c.Door = &d
	}
	if e.Gate != nil {
		g := *e.Gate
		g.Inputs = slices.Clone(g.Inputs)
		c.Gate = &g
	}
	if e.Elevator != nil {
		el := *e.Elevator
		c.Elevator = &el
	}
	return &c
}

// Update runs one frame of e's behaviour.
func (e *Entity) Update(others Guard, w *World) Action {
	if fn := behaviours[e.Kind].update; fn != nil {
		return fn(e, others, w)
	}
	return ActionNone
}

// VisibleState returns what observers perceive of e, or false if e cannot be seen.
func (e *Entity) VisibleState() (paradox.VisibleState, bool) {
	if fn := behaviours[e.Kind].visible; fn != nil {
		return fn(e)
	}
	return paradox.VisibleState{}, false
}

// Bounds returns e's box.
func (e *Entity) Bounds() (lo, hi geom.Vec) {
	if fn := behaviours[e.Kind].bounds; fn != nil {
		return fn(e)
	}
	half := e.Size.Scale(0.5)
	return e.Position.Sub(half), e.Position.Add(half)
}

// Collider returns the box other entities collide with, if any.
func (e *Entity) Collider() (lo, hi geom.Vec, ok bool) {
	if fn := behaviours[e.Kind].solid; fn == nil || !fn(e) {
		return geom.Vec{}, geom.Vec{}, false
	}
	lo, hi = e.Bounds()
	return lo, hi, true
}

// WithinArea reports whether any part of e's box is inside a. Entities
// without extent are tested at their position.
func (e *Entity) WithinArea(a *light.Area) bool {
	lo, hi := e.Bounds()
	if lo == hi {
		return a.ContainsPoint(lo)
	}
	return a.IntersectsRect(lo, hi)
}

// IsLivePlayer reports whether e is a player still under live control.
func (e *Entity) IsLivePlayer() bool {
	return e.Kind == KindPlayer && e.Actor != nil && e.Actor.Observer != nil &&
		e.Actor.Observer.State() == paradox.Active
}

// Subject adapts e for the paradox evaluator.
func (e *Entity) Subject() paradox.Subject { return subject{e} }

type subject struct{ e *Entity }

func (s subject) ID() paradox.EntityID { return s.e.ID }
func (s subject) Position() geom.Vec { return s.e.Position }
func (s subject) VisibleState() (paradox.VisibleState, bool) { return s.e.VisibleState() }
func (s subject) WithinArea(a *light.Area) bool { return s.e.WithinArea(a) }

// Overlaps reports whether the open boxes [alo, ahi] and [blo, bhi] share area.
func Overlaps(alo, ahi, blo, bhi geom.Vec) bool {
	return alo.X < bhi.X && blo.X < ahi.X && alo.Y < bhi.Y && blo.Y < ahi.Y
}

// Encloses reports whether [blo, bhi] lies inside [alo, ahi].
func Encloses(alo, ahi, blo, bhi geom.Vec) bool {
	return blo.X >= alo.X && blo.Y >= alo.Y && bhi.X <= ahi.X && bhi.Y <= ahi.Y
}
