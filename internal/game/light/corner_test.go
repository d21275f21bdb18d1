package light_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

const (
	o = false
	X = true
)

func TestCornersOf_Table(t *testing.T) {
	cases := []struct {
		name string
		n    light.Neighborhood
		want []light.CornerDirection
	}{
		{"open", light.Neighborhood{{o, o}, {o, o}}, nil},
		{"solid", light.Neighborhood{{X, X}, {X, X}}, nil},
		{"top wall", light.Neighborhood{{X, X}, {o, o}}, nil},
		{"bottom wall", light.Neighborhood{{o, o}, {X, X}}, nil},
		{"left wall", light.Neighborhood{{X, o}, {X, o}}, nil},
		{"right wall", light.Neighborhood{{o, X}, {o, X}}, nil},
		{"nw block", light.Neighborhood{{X, o}, {o, o}}, []light.CornerDirection{light.ConvexSouthEast}},
		{"ne block", light.Neighborhood{{o, X}, {o, o}}, []light.CornerDirection{light.ConvexSouthWest}},
		{"sw block", light.Neighborhood{{o, o}, {X, o}}, []light.CornerDirection{light.ConvexNorthEast}},
		{"se block", light.Neighborhood{{o, o}, {o, X}}, []light.CornerDirection{light.ConvexNorthWest}},
		{"nw-se pair", light.Neighborhood{{X, o}, {o, X}}, []light.CornerDirection{light.ConcaveNorthEast, light.ConcaveSouthWest}},
		{"ne-sw pair", light.Neighborhood{{o, X}, {X, o}}, []light.CornerDirection{light.ConcaveNorthWest, light.ConcaveSouthEast}},
		{"ne open", light.Neighborhood{{X, o}, {X, X}}, []light.CornerDirection{light.ConcaveNorthEast}},
		{"nw open", light.Neighborhood{{o, X}, {X, X}}, []light.CornerDirection{light.ConcaveNorthWest}},
		{"se open", light.Neighborhood{{X, X}, {X, o}}, []light.CornerDirection{light.ConcaveSouthEast}},
		{"sw open", light.Neighborhood{{X, X}, {o, X}}, []light.CornerDirection{light.ConcaveSouthWest}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, light.CornersOf(tc.n))
		})
	}
}

func TestCornerDirection_Bits(t *testing.T) {
	assert.True(t, light.ConcaveSouthWest.IsConcave())
	assert.True(t, light.ConcaveSouthWest.IsSouth())
	assert.True(t, light.ConcaveSouthWest.IsWest())
	assert.True(t, light.ConvexNorthEast.IsConvex())
	assert.True(t, light.ConvexNorthEast.IsNorth())
	assert.True(t, light.ConvexNorthEast.IsEast())
	assert.Equal(t, geom.V(-1, 1), light.ConvexSouthWest.Out())
	assert.Equal(t, geom.V(1, -1), light.ConcaveNorthEast.Out())
}

func TestCornerDirection_ContainsOffset(t *testing.T) {
	// Convex corners accept either half plane, concave ones only the quadrant.
	assert.True(t, light.ConvexSouthEast.ContainsOffset(geom.V(1, -1)))
	assert.True(t, light.ConvexSouthEast.ContainsOffset(geom.V(-1, 1)))
	assert.False(t, light.ConvexSouthEast.ContainsOffset(geom.V(-1, -1)))
	assert.True(t, light.ConcaveSouthEast.ContainsOffset(geom.V(1, 1)))
	assert.False(t, light.ConcaveSouthEast.ContainsOffset(geom.V(1, -1)))
	assert.False(t, light.ConvexSouthEast.ContainsOffsetStrict(geom.V(1, -1)))
	assert.True(t, light.ConvexSouthEast.ContainsOffsetStrict(geom.V(2, 3)))
}

func TestCornerDirection_Edges(t *testing.T) {
	assert.True(t, light.ConvexNorthEast.IsOnLeftEdge(geom.V(0, -2)))
	assert.True(t, light.ConvexNorthEast.IsOnRightEdge(geom.V(2, 0)))
	assert.False(t, light.ConvexNorthEast.IsOnEdge(geom.V(1, -1)))
	assert.True(t, light.ConvexSouthWest.ShouldSkip(geom.V(3, 0)))
	assert.False(t, light.ConvexSouthWest.ShouldSkip(geom.V(-3, 0)))
}

func TestGrid_CornersOfSingleCell(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	g.Set(grid.I(3, 0), light.Solid)

	got := map[geom.Vec]light.CornerDirection{}
	for _, c := range g.Corners() {
		got[c.Location] = c.Direction
	}
	assert.Equal(t, map[geom.Vec]light.CornerDirection{
		geom.V(3, 0): light.ConvexNorthWest,
		geom.V(4, 0): light.ConvexNorthEast,
		geom.V(3, 1): light.ConvexSouthWest,
		geom.V(4, 1): light.ConvexSouthEast,
	}, got)
}

func TestGrid_CornerCacheRefreshesAfterWrite(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	assert.Empty(t, g.Corners())

	g.Set(grid.I(0, 0), light.Solid)
	require.Len(t, g.Corners(), 4)

	g.Set(grid.I(1, 0), light.Solid)
	assert.Len(t, g.Corners(), 4, "a 2x1 block still has four corners")

	g.Set(grid.I(0, 0), light.Empty)
	g.Set(grid.I(1, 0), light.Empty)
	assert.Empty(t, g.Corners())
}

func TestGrid_GlassDoesNotCastCorners(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	g.Set(grid.I(0, 0), light.Glass)
	assert.Empty(t, g.Corners())
	assert.True(t, g.BlocksMotion(grid.I(0, 0)))
	assert.False(t, g.BlocksLight(grid.I(0, 0)))
}
