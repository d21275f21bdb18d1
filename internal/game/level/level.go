// Package level provides level definitions: the tile map that seeds the
// occluder grid, the player spawn and the initial entities.
package level

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

// PlayerSpec configures the player body for a level.
type PlayerSpec struct {
	// Size is the side of the player's square box.
	Size float64
	// Speed is in cells per second.
	Speed float64
	// ViewWidth is the field of view in radians; 0 uses the simulation default.
	ViewWidth float64
	// Facing is the initial look direction.
	Facing geom.Vec
}

// EntitySpec describes one initial entity. Which fields apply depends on Kind.
type EntitySpec struct {
	// Name is unique within the level; doors and gates refer to it.
	Name     string
	Kind     entity.Kind
	Position geom.Vec
	Size     geom.Vec
	// Facing and ViewWidth apply to dummies.
	Facing    geom.Vec
	ViewWidth float64
	// Orientation and Length apply to doors.
	Orientation entity.Orientation
	Length      int
	// Source names the entity whose signal opens a door.
	Source string
	// Op and Inputs apply to gates.
	Op     entity.GateOp
	Inputs []string
}

// Level is a validated level definition.
type Level struct {
	ID          string
	Name        string
	Description string
	// Origin is the grid index of the first map glyph.
	Origin grid.Index
	// Map holds one string per grid row, one glyph per cell.
	Map      []string
	Spawn    geom.Vec
	Player   PlayerSpec
	Entities []EntitySpec
	// Script is the path of the level's Lua script. Empty = no script.
	Script string
	// Checksum identifies the exact definition the level was loaded from.
	Checksum uint64
}

// Validate checks level invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (l *Level) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("level ID must not be empty")
	}
	if len(l.Map) == 0 {
		return fmt.Errorf("level %q: map must not be empty", l.ID)
	}
	if !l.Spawn.IsFinite() {
		return fmt.Errorf("level %q: spawn must be finite", l.ID)
	}
	if l.Player.Size <= 0 || l.Player.Size >= 1 {
		return fmt.Errorf("level %q: player size must be in (0, 1)", l.ID)
	}
	if l.Player.Speed < 0 {
		return fmt.Errorf("level %q: player speed must not be negative", l.ID)
	}
	if l.Player.ViewWidth < 0 || l.Player.ViewWidth > 2*math.Pi {
		return fmt.Errorf("level %q: player view width must be in [0, 2π]", l.ID)
	}

	names := make(map[string]entity.Kind, len(l.Entities))
	for i, e := range l.Entities {
		if e.Name == "" {
			return fmt.Errorf("level %q: entity %d: name must not be empty", l.ID, i)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("level %q: duplicate entity name %q", l.ID, e.Name)
		}
		names[e.Name] = e.Kind
	}
	for _, e := range l.Entities {
		if err := l.validateEntity(e, names); err != nil {
			return fmt.Errorf("level %q: entity %q: %w", l.ID, e.Name, err)
		}
	}
	return nil
}

func (l *Level) validateEntity(e EntitySpec, names map[string]entity.Kind) error {
	if !e.Position.IsFinite() {
		return fmt.Errorf("position must be finite")
	}
	signal := func(name string) error {
		kind, ok := names[name]
		if !ok {
			return fmt.Errorf("references unknown entity %q", name)
		}
		if kind != entity.KindButton && kind != entity.KindGate {
			return fmt.Errorf("references %q, a %v, which has no signal", name, kind)
		}
		if name == e.Name {
			return fmt.Errorf("references itself")
		}
		return nil
	}

	switch e.Kind {
	case entity.KindPlayer:
		return fmt.Errorf("players spawn at the level spawn point, not as entities")
	case entity.KindDoor:
		if e.Length <= 0 {
			return fmt.Errorf("door length must be positive")
		}
		if e.Source != "" {
			return signal(e.Source)
		}
	case entity.KindGate:
		if len(e.Inputs) == 0 {
			return fmt.Errorf("gate needs at least one input")
		}
		for _, in := range e.Inputs {
			if err := signal(in); err != nil {
				return err
			}
		}
	case entity.KindButton, entity.KindElevator, entity.KindDummy:
		if e.Size.X <= 0 || e.Size.Y <= 0 {
			return fmt.Errorf("size must be positive")
		}
	}
	return nil
}

// Occluders builds the level's initial occluder grid.
//
// Postcondition: returns ErrUnknownTile for glyphs reg does not hold.
func (l *Level) Occluders(reg *Registry, t light.Tuning) (*light.Grid, error) {
	g := light.NewGrid(t)
	width := 0
	for _, row := range l.Map {
		width = max(width, len([]rune(row)))
	}
	g.SetBounds(grid.Rect{Origin: l.Origin, Width: width, Height: len(l.Map)})

	for y, row := range l.Map {
		x := 0
		for _, glyph := range row {
			kind, err := reg.Lookup(glyph)
			if err != nil {
				return nil, fmt.Errorf("level %q: row %d column %d: %w", l.ID, y, x, err)
			}
			if kind.Material != light.Empty {
				g.Set(l.Origin.Add(grid.I(x, y)), kind.Material)
			}
			x++
		}
	}
	return g, nil
}

// Populate spawns the level's entities into a new arena, resolving name
// references to IDs.
//
// Precondition: l is valid.
func (l *Level) Populate(capacity int) *entity.Arena {
	a := entity.NewArena(capacity)
	ids := make(map[string]entity.ID, len(l.Entities))
	spawned := make([]*entity.Entity, len(l.Entities))
	for i, spec := range l.Entities {
		e := &entity.Entity{Kind: spec.Kind, Name: spec.Name, Position: spec.Position, Size: spec.Size}
		switch spec.Kind {
		case entity.KindDummy:
			facing, ok := spec.Facing.TryNormalize(1e-9)
			if !ok {
				facing = geom.V(1, 0)
			}
			e.Actor = &entity.Actor{Facing: facing, ViewWidth: spec.ViewWidth}
		case entity.KindDoor:
			e.Door = &entity.Door{Orientation: spec.Orientation, Length: spec.Length}
		case entity.KindGate:
			e.Gate = &entity.Gate{Op: spec.Op}
		case entity.KindElevator:
			e.Elevator = &entity.Elevator{}
		}
		spawned[i] = a.Spawn(e)
		ids[spec.Name] = e.ID
	}

	for i, spec := range l.Entities {
		e := spawned[i]
		if e.Door != nil && spec.Source != "" {
			e.Door.Source = ids[spec.Source]
		}
		if e.Gate != nil {
			for _, in := range spec.Inputs {
				e.Gate.Inputs = append(e.Gate.Inputs, ids[in])
			}
		}
	}
	return a
}
