package entity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

var box = geom.V(0.5, 0.5)

func TestSweep_StopsFlushAgainstWall(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	g.Set(grid.I(3, 0), light.Solid)
	g.Set(grid.I(-2, 0), light.Glass)

	got := entity.Sweep(g, geom.V(0.5, 0.5), box, entity.AxisX, 5)
	assert.Equal(t, geom.V(2.75, 0.5), got)
	assert.Equal(t, got, entity.Sweep(g, got, box, entity.AxisX, 1), "already flush")

	got = entity.Sweep(g, geom.V(0.5, 0.5), box, entity.AxisX, -5)
	assert.Equal(t, geom.V(-0.75, 0.5), got, "glass blocks motion and the long step does not tunnel")
}

func TestSweep_SlidesAlongWall(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	g.Fill(grid.R(3, -5, 1, 10), light.Solid)

	got := entity.Move(g, geom.V(2.75, 0.5), box, geom.V(1, 2))
	assert.Equal(t, geom.V(2.75, 2.5), got)
}

func TestSweep_VerticalAndNoop(t *testing.T) {
	g := light.NewGrid(light.DefaultTuning)
	g.Set(grid.I(0, -3), light.Solid)

	got := entity.Sweep(g, geom.V(0.5, 0.5), box, entity.AxisY, -10)
	assert.Equal(t, geom.V(0.5, -1.75), got)
	assert.Equal(t, geom.V(0.5, 0.5), entity.Sweep(g, geom.V(0.5, 0.5), box, entity.AxisY, 0))
}

func TestPropertySweepNeverEntersWalls(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := light.NewGrid(light.DefaultTuning)
		for i := rapid.IntRange(0, 30).Draw(t, "walls"); i > 0; i-- {
			g.Set(grid.I(rapid.IntRange(-6, 6).Draw(t, "wx"), rapid.IntRange(-6, 6).Draw(t, "wy")), light.Solid)
		}
		size := geom.V(rapid.Float64Range(0.1, 0.9).Draw(t, "w"), rapid.Float64Range(0.1, 0.9).Draw(t, "h"))
		pos := geom.V(0.5, 0.5)
		g.Set(grid.I(0, 0), light.Empty)

		for i := rapid.IntRange(1, 20).Draw(t, "moves"); i > 0; i-- {
			delta := geom.V(rapid.Float64Range(-3, 3).Draw(t, "dx"), rapid.Float64Range(-3, 3).Draw(t, "dy"))
			pos = entity.Move(g, pos, size, delta)
			lo, hi := pos.Sub(size.Scale(0.5)), pos.Add(size.Scale(0.5))
			grid.RectCovering(lo.X+1e-7, lo.Y+1e-7, hi.X-1e-7, hi.Y-1e-7).Each(func(c grid.Index) {
				if g.BlocksMotion(c) {
					t.Fatalf("box at %v overlaps wall %v", pos, c)
				}
			})
			if !pos.IsFinite() || math.Abs(pos.X) > 100 {
				t.Fatalf("runaway position %v", pos)
			}
		}
	})
}
