package entity

import (
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// behaviour is the per-kind dispatch entry. Nil entries fall back to the
// defaults in entity.go.
type behaviour struct {
	update  func(e *Entity, others Guard, w *World) Action
	visible func(e *Entity) (paradox.VisibleState, bool)
	bounds  func(e *Entity) (lo, hi geom.Vec)
	solid   func(e *Entity) bool
}

var behaviours [kindCount]behaviour

func init() {
	behaviours = [kindCount]behaviour{
		KindPlayer: {
			update:  updatePlayer,
			visible: playerVisible,
			solid:   func(e *Entity) bool { return !playerDead(e) },
		},
		KindDummy: {
			visible: func(e *Entity) (paradox.VisibleState, bool) {
				return paradox.NewVisibleState(e.Position, dummyKey), true
			},
			solid: func(*Entity) bool { return true },
		},
		KindDoor: {
			update:  updateDoor,
			visible: doorVisible,
			bounds:  doorBounds,
			solid:   func(e *Entity) bool { return e.Door.Extent > 0 },
		},
		KindButton: {
			update: updateButton,
		},
		KindGate: {
			update: updateGate,
		},
		KindElevator: {
			update: updateElevator,
		},
	}
}

var (
	playerKey = paradox.StateKey("player")
	dummyKey  = paradox.StateKey("dummy")
)

func playerDead(e *Entity) bool {
	return e.Actor.Observer != nil && e.Actor.Observer.State() == paradox.Dead
}

func playerVisible(e *Entity) (paradox.VisibleState, bool) {
	if playerDead(e) {
		return paradox.VisibleState{}, false
	}
	return paradox.NewVisibleState(e.Position, playerKey), true
}

// updatePlayer walks and turns a live player from its input, and moves a
// past self to its recorded pose. Dead players stay put.
func updatePlayer(e *Entity, _ Guard, w *World) Action {
	a := e.Actor
	if a.Observer == nil {
		return ActionNone
	}
	switch a.Observer.State() {
	case paradox.Active:
		if facing, ok := a.Input.Look.Sub(e.Position).TryNormalize(1e-9); ok {
			a.Facing = facing
		}
		if dir, ok := a.Input.Move.TryNormalize(1e-9); ok {
			e.Position = Move(w.Light, e.Position, e.Size, dir.Scale(a.Speed*w.DT))
		}
	case paradox.Replaying:
		if pose, ok := a.Observer.PoseAt(w.Frame); ok {
			e.Position = pose.Position
			a.Facing = pose.Facing
		}
	}
	return ActionNone
}

// Pose returns the actor's current position and facing.
func (e *Entity) Pose() paradox.Pose {
	return paradox.Pose{Position: e.Position, Facing: e.Actor.Facing}
}

// DoorCells returns the cells a door occupies, in fill order.
func (e *Entity) DoorCells() []grid.Index {
	d := e.Door
	x, y := e.Position.Floor()
	cells := make([]grid.Index, d.Length)
	for i := range cells {
		if d.Orientation == Vertical {
			cells[i] = grid.I(x, y+i)
		} else {
			cells[i] = grid.I(x+i, y)
		}
	}
	return cells
}

func doorBounds(e *Entity) (lo, hi geom.Vec) {
	x, y := e.Position.Floor()
	lo = geom.V(float64(x), float64(y))
	if e.Door.Orientation == Vertical {
		return lo, lo.Add(geom.V(1, float64(e.Door.Length)))
	}
	return lo, lo.Add(geom.V(float64(e.Door.Length), 1))
}

func doorVisible(e *Entity) (paradox.VisibleState, bool) {
	return paradox.NewVisibleState(e.Position, paradox.StateKey("door", int64(e.Door.Extent))), true
}

// updateDoor retracts an open door one cell per frame and extends a closed
// one, unless something stands in the empty doorway.
func updateDoor(e *Entity, others Guard, w *World) Action {
	d := e.Door
	prev := d.Extent
	d.Open = false
	if d.Source != 0 {
		if src, ok := others.Get(d.Source); ok {
			d.Open = src.Signal
		}
	}

	d.Blocked = false
	switch {
	case d.Open:
		d.Extent = max(0, d.Extent-1)
	case d.Extent > 0 || !occupied(e, others):
		d.Extent = min(d.Length, d.Extent+1)
	default:
		d.Blocked = true
	}

	if d.Extent != prev || !d.painted {
		paintDoor(e, w.Light)
	}
	return ActionNone
}

func occupied(e *Entity, others Guard) bool {
	lo, hi := e.Bounds()
	hit := false
	others.Each(func(o *Entity) {
		if olo, ohi, ok := o.Collider(); ok && Overlaps(lo, hi, olo, ohi) {
			hit = true
		}
	})
	return hit
}

func paintDoor(e *Entity, g *light.Grid) {
	for i, c := range e.DoorCells() {
		m := light.Empty
		if i < e.Door.Extent {
			m = light.Solid
		}
		if g.Get(c) != m {
			g.Set(c, m)
		}
	}
	e.Door.painted = true
}

// updateButton signals while any solid entity overlaps it.
func updateButton(e *Entity, others Guard, _ *World) Action {
	lo, hi := e.Bounds()
	e.Signal = false
	others.Each(func(o *Entity) {
		if olo, ohi, ok := o.Collider(); ok && Overlaps(lo, hi, olo, ohi) {
			e.Signal = true
		}
	})
	return ActionNone
}

func updateGate(e *Entity, others Guard, _ *World) Action {
	inputs := make([]bool, 0, len(e.Gate.Inputs))
	for _, id := range e.Gate.Inputs {
		src, ok := others.Get(id)
		inputs = append(inputs, ok && src.Signal)
	}
	e.Signal = e.Gate.Op.Apply(inputs)
	return ActionNone
}

// updateElevator fires once, when a live player is wholly inside it.
func updateElevator(e *Entity, others Guard, _ *World) Action {
	if e.Elevator.Triggered {
		return ActionNone
	}
	lo, hi := e.Bounds()
	others.Each(func(o *Entity) {
		if !o.IsLivePlayer() {
			return
		}
		if olo, ohi, ok := o.Collider(); ok && Encloses(lo, hi, olo, ohi) {
			e.Elevator.Triggered = true
		}
	})
	if e.Elevator.Triggered {
		return ActionRewind
	}
	return ActionNone
}
