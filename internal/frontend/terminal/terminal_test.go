package terminal

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
	"github.com/cory-johannsen/paradox/internal/game/sim"
)

func occluders(t *testing.T, rows ...string) *light.Grid {
	t.Helper()
	lv := &level.Level{ID: "test", Map: rows}
	g, err := lv.Occluders(level.DefaultRegistry(), light.DefaultTuning)
	require.NoError(t, err)
	return g
}

func player(id entity.ID, pos geom.Vec, replaying bool) *entity.Entity {
	o := paradox.NewObserver(id, 1, history.DefaultLimits)
	if replaying {
		o.BeginReplay()
	}
	return &entity.Entity{
		ID:       id,
		Kind:     entity.KindPlayer,
		Position: pos,
		Size:     geom.V(0.5, 0.5),
		Actor:    &entity.Actor{Facing: geom.V(1, 0), Observer: o},
	}
}

func TestRasterize_TilesAndEntities(t *testing.T) {
	g := occluders(t,
		"#####",
		"#...#",
		"#.=.#",
		"#####",
	)
	entities := []*entity.Entity{
		player(1, geom.V(1.5, 2.5), false),
		player(2, geom.V(1.5, 1.5), true),
		{ID: 3, Kind: entity.KindDummy, Position: geom.V(3.5, 1.5), Size: geom.V(0.5, 0.5)},
		{ID: 4, Kind: entity.KindButton, Position: geom.V(3.5, 2.5), Size: geom.V(1, 1)},
		{ID: 5, Kind: entity.KindGate, Position: geom.V(2.5, 1.5)},
	}

	f := Rasterize(g, level.DefaultRegistry(), nil, entities, grid.R(0, 0, 5, 4))
	assert.Equal(t, []string{
		"#####",
		"#& D#",
		"#@=_#",
		"#####",
	}, f.Rows())
	assert.Equal(t, ClassPlayer, f.At(grid.I(1, 2)).Class)
	assert.Equal(t, ClassPastSelf, f.At(grid.I(1, 1)).Class)
	assert.Equal(t, ClassLit, f.At(grid.I(0, 0)).Class)
	assert.Equal(t, Cell{Glyph: ' '}, f.At(grid.I(9, 9)))
}

func TestRasterize_PressedButton(t *testing.T) {
	g := occluders(t, "...")
	b := &entity.Entity{ID: 1, Kind: entity.KindButton, Position: geom.V(1.5, 0.5), Size: geom.V(1, 1), Signal: true}
	f := Rasterize(g, level.DefaultRegistry(), nil, []*entity.Entity{b}, grid.R(0, 0, 3, 1))
	assert.Equal(t, []string{" o "}, f.Rows())
}

func TestRasterize_UnknownMaterialGlyph(t *testing.T) {
	g := occluders(t, "#%#")
	reg := level.NewRegistry()
	require.NoError(t, reg.Register(level.TileKind{Glyph: '.', Name: "floor", Material: light.Empty}))
	require.NoError(t, reg.Register(level.TileKind{Glyph: '#', Name: "wall", Material: light.Solid}))

	f := Rasterize(g, reg, nil, nil, grid.R(0, 0, 3, 1))
	assert.Equal(t, []string{"#?#"}, f.Rows())
}

func TestViewport(t *testing.T) {
	assert.Equal(t, grid.R(-9, 0, 20, 3), Viewport(geom.V(1.5, 1.5), 20, 3))
	assert.Equal(t, grid.R(-3, -3, 5, 5), Viewport(geom.V(-0.5, -0.5), 5, 5))
}

// Property: the frame always matches the requested viewport and the live
// player is always drawn when inside it.
func TestPropertyRasterizeShape(t *testing.T) {
	g := occluders(t, "#####", "#...#", "#####")
	reg := level.DefaultRegistry()
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 12).Draw(t, "w")
		h := rapid.IntRange(1, 8).Draw(t, "h")
		x := rapid.IntRange(-5, 5).Draw(t, "x")
		y := rapid.IntRange(-5, 5).Draw(t, "y")
		bounds := grid.R(x, y, w, h)
		p := player(1, geom.V(2.5, 1.5), false)

		f := Rasterize(g, reg, nil, []*entity.Entity{p}, bounds)
		rows := f.Rows()
		if len(rows) != h {
			t.Fatalf("got %d rows, want %d", len(rows), h)
		}
		for _, row := range rows {
			if len([]rune(row)) != w {
				t.Fatalf("row %q is not %d wide", row, w)
			}
		}
		if bounds.Contains(grid.I(2, 1)) && f.At(grid.I(2, 1)).Glyph != '@' {
			t.Fatalf("live player missing from %v", rows)
		}
	})
}

type fakeCanvas struct {
	w, h  int
	runes map[[2]int]rune
}

func newFakeCanvas(w, h int) *fakeCanvas {
	return &fakeCanvas{w: w, h: h, runes: make(map[[2]int]rune)}
}

func (c *fakeCanvas) SetContent(x, y int, primary rune, _ []rune, _ tcell.Style) {
	c.runes[[2]int{x, y}] = primary
}

func (c *fakeCanvas) Size() (int, int) { return c.w, c.h }

func (c *fakeCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < c.w; x++ {
		b.WriteRune(c.runes[[2]int{x, y}])
	}
	return b.String()
}

func corridorViewer(t *testing.T) *Viewer {
	t.Helper()
	lv := &level.Level{
		ID: "corridor",
		Map: []string{
			"#########",
			"#.......#",
			"#########",
		},
		Spawn:  geom.V(1.5, 1.5),
		Player: level.PlayerSpec{Size: 0.5, Speed: 4, Facing: geom.V(1, 0)},
		Entities: []level.EntitySpec{
			{Name: "watcher", Kind: entity.KindDummy, Position: geom.V(7.5, 1.5), Size: geom.V(0.5, 0.5), Facing: geom.V(-1, 0), ViewWidth: 1},
		},
	}
	require.NoError(t, lv.Validate())
	s, err := sim.New(lv, level.DefaultRegistry(), sim.Options{TickRate: 4}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return &Viewer{sim: s, reg: level.DefaultRegistry(), logger: zaptest.NewLogger(t), facing: geom.V(1, 0)}
}

func TestViewer_Draw(t *testing.T) {
	v := corridorViewer(t)
	v.Tick(1)

	c := newFakeCanvas(60, 4)
	v.draw(c)

	// The viewport spans x in [-29, 30], so level column 0 is screen column 29.
	assert.Equal(t, '#', c.runes[[2]int{29, 0}])
	assert.Equal(t, '@', c.runes[[2]int{30, 1}])
	assert.Equal(t, 'D', c.runes[[2]int{36, 1}])
	assert.True(t, strings.HasPrefix(c.row(3), "corridor  frame 1  past selves 0"), c.row(3))
}

func TestViewer_DrawTooSmall(t *testing.T) {
	v := corridorViewer(t)
	c := newFakeCanvas(10, 1)
	v.draw(c)
	assert.Empty(t, c.runes)
}

func TestViewer_Keys(t *testing.T) {
	v := corridorViewer(t)

	assert.True(t, v.handleKey(tcell.KeyRune, 'd'))
	assert.Equal(t, geom.V(1, 0), v.move)
	v.Tick(2)
	assert.Equal(t, geom.V(3.5, 1.5), v.sim.Player().Position)
	assert.Equal(t, geom.Vec{}, v.move, "movement lasts one tick")

	assert.True(t, v.handleKey(tcell.KeyRight, 0))
	assert.InDelta(t, turnStep, geom.V(1, 0).Angle(v.facing), 1e-9)

	assert.True(t, v.handleKey(tcell.KeyRune, 'r'))
	assert.Len(t, v.sim.PastSelves(), 1)
	assert.Equal(t, history.Frame(0), v.sim.Frame())

	assert.False(t, v.handleKey(tcell.KeyRune, 'q'))
	assert.False(t, v.handleKey(tcell.KeyEscape, 0))
}
