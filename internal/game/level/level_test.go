package level_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

func TestLoadLevelFromFile(t *testing.T) {
	path := filepath.Join("testdata", "levels", "corridor.yaml")
	lv, err := level.LoadLevelFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "corridor", lv.ID)
	assert.Equal(t, "The Corridor", lv.Name)
	assert.Equal(t, "A straight corridor with a door held open by a button.", lv.Description)
	assert.Equal(t, geom.V(1.5, 1.5), lv.Spawn)
	assert.Equal(t, filepath.Join("testdata", "scripts", "walk.lua"), lv.Script)
	assert.Len(t, lv.Map, 4)
	assert.Equal(t, 0.5, lv.Player.Size)
	assert.Equal(t, 3.0, lv.Player.Speed)
	assert.InDelta(t, math.Pi/2, lv.Player.ViewWidth, 1e-12)
	assert.NotZero(t, lv.Checksum)

	require.Len(t, lv.Entities, 5)
	assert.Equal(t, entity.KindButton, lv.Entities[0].Kind)
	assert.Equal(t, geom.V(1, 1), lv.Entities[0].Size, "buttons default to one cell")
	assert.Equal(t, entity.Vertical, lv.Entities[1].Orientation)
	assert.Equal(t, 2, lv.Entities[1].Length)
	assert.Equal(t, geom.V(0.5, 0.5), lv.Entities[2].Size, "dummies default to the player size")
	assert.InDelta(t, math.Pi/3, lv.Entities[2].ViewWidth, 1e-12)
	assert.Equal(t, entity.GateAnd, lv.Entities[3].Op)
	assert.Equal(t, []string{"plate"}, lv.Entities[3].Inputs)
}

func TestLoadLevelFromBytes_Defaults(t *testing.T) {
	data := []byte("level:\n  id: tiny\n  map: \"#\"\n")
	lv, err := level.LoadLevelFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, level.DefaultPlayerSize, lv.Player.Size)
	assert.Equal(t, level.DefaultPlayerSpeed, lv.Player.Speed)
	assert.Equal(t, []string{"#"}, lv.Map)
	assert.Equal(t, xxhash.Sum64(data), lv.Checksum)
}

func TestLoadLevelFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "level: [", "parsing level YAML"},
		{"no id", "level:\n  map: \"#\"\n", "level ID must not be empty"},
		{"no map", "level:\n  id: a\n", "map must not be empty"},
		{"unknown kind", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: x, kind: dragon}\n", "unknown entity kind"},
		{"unknown op", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: x, kind: gate, op: xor}\n", "unknown gate op"},
		{"player entity", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: p, kind: player}\n", "not as entities"},
		{"duplicate", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: b, kind: button}\n    - {name: b, kind: button}\n", "duplicate entity name"},
		{"door without length", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: d, kind: door}\n", "door length must be positive"},
		{"door unknown source", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: d, kind: door, length: 1, source: nope}\n", "unknown entity \"nope\""},
		{"door dummy source", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: m, kind: dummy}\n    - {name: d, kind: door, length: 1, source: m}\n", "has no signal"},
		{"gate without inputs", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: g, kind: gate, op: or}\n", "at least one input"},
		{"gate feeds itself", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: g, kind: gate, op: not, inputs: [g]}\n", "references itself"},
		{"oversized player", "level:\n  id: a\n  map: \"#\"\n  player: {size: 1.5}\n", "player size"},
		{"wide view", "level:\n  id: a\n  map: \"#\"\n  player: {view_width_degrees: 400}\n", "view width"},
		{"elevator without size", "level:\n  id: a\n  map: \"#\"\n  entities:\n    - {name: e, kind: elevator}\n", "size must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := level.LoadLevelFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadLevelsFromDir(t *testing.T) {
	levels, err := level.LoadLevelsFromDir(filepath.Join("testdata", "levels"))
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "closet", levels[0].ID)
	assert.Equal(t, "corridor", levels[1].ID)
}

func TestLoadLevelsFromDir_ShippedContent(t *testing.T) {
	levels, err := level.LoadLevelsFromDir(filepath.Join("..", "..", "..", "content", "levels"))
	require.NoError(t, err)
	require.NotEmpty(t, levels)
	for _, lv := range levels {
		_, err := lv.Occluders(level.DefaultRegistry(), light.DefaultTuning)
		assert.NoError(t, err, lv.ID)
		assert.FileExists(t, lv.Script, lv.ID)
	}
}

func TestLoadLevelsFromDir_Empty(t *testing.T) {
	_, err := level.LoadLevelsFromDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no level files found")
}

func TestLevel_Occluders(t *testing.T) {
	lv, err := level.LoadLevelFromFile(filepath.Join("testdata", "levels", "corridor.yaml"))
	require.NoError(t, err)

	g, err := lv.Occluders(level.DefaultRegistry(), light.DefaultTuning)
	require.NoError(t, err)
	assert.Equal(t, light.Solid, g.Get(grid.I(0, 0)))
	assert.Equal(t, light.Empty, g.Get(grid.I(1, 1)))
	assert.Equal(t, light.Glass, g.Get(grid.I(4, 2)))
	assert.Equal(t, light.Solid, g.Get(grid.I(9, 3)))
}

func TestLevel_OccludersUnknownGlyph(t *testing.T) {
	lv, err := level.LoadLevelFromBytes([]byte("level:\n  id: a\n  map: |\n    ##\n    #?\n"))
	require.NoError(t, err)

	_, err = lv.Occluders(level.DefaultRegistry(), light.DefaultTuning)
	require.ErrorIs(t, err, level.ErrUnknownTile)
	assert.Contains(t, err.Error(), "row 1 column 1")
}

func TestLevel_Populate(t *testing.T) {
	lv, err := level.LoadLevelFromFile(filepath.Join("testdata", "levels", "corridor.yaml"))
	require.NoError(t, err)

	a := lv.Populate(entity.DefaultCapacity)
	assert.Equal(t, 5, a.Len())

	plate, _ := a.Get(1)
	require.NotNil(t, plate)
	assert.Equal(t, "plate", plate.Name)

	hatch, _ := a.Get(2)
	require.NotNil(t, hatch)
	require.NotNil(t, hatch.Door)
	assert.Equal(t, plate.ID, hatch.Door.Source)

	watcher, _ := a.Get(3)
	require.NotNil(t, watcher.Actor)
	assert.Equal(t, geom.V(-1, 0), watcher.Actor.Facing)

	gate, _ := a.Get(4)
	require.NotNil(t, gate.Gate)
	assert.Equal(t, []entity.ID{plate.ID}, gate.Gate.Inputs)

	elevator, _ := a.Get(5)
	assert.NotNil(t, elevator.Elevator)
}

func TestRegistry(t *testing.T) {
	reg := level.DefaultRegistry()

	k, err := reg.Lookup('#')
	require.NoError(t, err)
	assert.Equal(t, light.Solid, k.Material)

	_, err = reg.Lookup('?')
	assert.ErrorIs(t, err, level.ErrUnknownTile)

	assert.Error(t, reg.Register(level.TileKind{Glyph: '#', Name: "again"}))
	require.NoError(t, reg.Register(level.TileKind{Glyph: '~', Name: "pane", Material: light.Glass}))

	g, ok := reg.Glyph(light.Empty)
	assert.True(t, ok)
	assert.Equal(t, ' ', g, "space sorts before '.'")
	g, ok = reg.Glyph(light.Glass)
	assert.True(t, ok)
	assert.Equal(t, '=', g)
	assert.Len(t, reg.Kinds(), 6)
}
