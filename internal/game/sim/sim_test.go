package sim_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
	"github.com/cory-johannsen/paradox/internal/game/sim"
)

// openLevel is a 40x40 floor centred on the origin.
func openLevel(spawn geom.Vec, entities ...level.EntitySpec) *level.Level {
	rows := make([]string, 40)
	for i := range rows {
		rows[i] = strings.Repeat(".", 40)
	}
	return &level.Level{
		ID:       "open",
		Origin:   grid.I(-20, -20),
		Map:      rows,
		Spawn:    spawn,
		Player:   level.PlayerSpec{Size: 0.5, Speed: 4, Facing: geom.V(1, 0)},
		Entities: entities,
	}
}

// options run at four frames per second so a player at speed 4 covers
// exactly one unit per frame.
var options = sim.Options{TickRate: 4, Light: light.Tuning{MaxRange: 50}}

func newSim(t *testing.T, lv *level.Level, logger *zap.Logger) *sim.Simulation {
	t.Helper()
	require.NoError(t, lv.Validate())
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	s, err := sim.New(lv, level.DefaultRegistry(), options, logger)
	require.NoError(t, err)
	return s
}

func walk(s *sim.Simulation, dx float64) {
	s.SetInput(entity.Input{Move: geom.V(dx, 0), Look: geom.V(1000, 0)})
}

func TestNew_SpawnsLivePlayer(t *testing.T) {
	s := newSim(t, openLevel(geom.V(1.5, 2.5)), nil)

	p := s.Player()
	require.NotNil(t, p)
	assert.True(t, p.IsLivePlayer())
	assert.Equal(t, geom.V(1.5, 2.5), p.Position)
	assert.Equal(t, 0.25, s.DT())
	assert.Equal(t, history.Frame(0), s.Frame())
	assert.Empty(t, s.PastSelves())
	assert.False(t, s.Collapsed())
}

func TestNew_UnknownTile(t *testing.T) {
	lv := openLevel(geom.V(0, 0))
	lv.Map[3] = "?"
	_, err := sim.New(lv, level.DefaultRegistry(), options, zaptest.NewLogger(t))
	require.ErrorIs(t, err, level.ErrUnknownTile)
}

func TestStep_RecordsLiveView(t *testing.T) {
	s := newSim(t, openLevel(geom.V(0, 0)), nil)
	res := s.Step()
	assert.Equal(t, history.Frame(0), res.Frame)
	assert.Empty(t, res.Reports)

	area, ok := s.ViewArea(s.Player().ID)
	require.True(t, ok)
	assert.True(t, area.ContainsPoint(geom.V(3, 0)))
	assert.False(t, area.ContainsPoint(geom.V(-3, 0)))
}

func TestRewind_ReplaysWalkExactly(t *testing.T) {
	s := newSim(t, openLevel(geom.V(0, 0)), nil)
	walk(s, 0)
	s.Step()
	walk(s, 1)
	for i := 0; i < 10; i++ {
		s.Step()
	}

	o := s.Player().Actor.Observer
	for f := 0; f <= 10; f++ {
		pose, ok := o.PoseAt(history.Frame(f))
		require.True(t, ok)
		assert.Equal(t, geom.V(float64(f), 0), pose.Position)
	}

	s.Rewind()
	require.Len(t, s.PastSelves(), 1)
	assert.Equal(t, paradox.Replaying, o.State())
	assert.NotEqual(t, o.ID(), s.Player().ID)

	// The new self walks away behind the past one's view.
	walk(s, -1)
	for f := 0; f <= 10; f++ {
		res := s.Step()
		require.Len(t, res.Reports, 1)
		rep := res.Reports[0]
		require.True(t, rep.HasPose)
		assert.Equal(t, geom.V(float64(f), 0), rep.Pose.Position)
		assert.Zero(t, rep.Level)
		assert.Zero(t, rep.Confusion)
		past, ok := findEntity(s, o.ID())
		require.True(t, ok)
		assert.Equal(t, geom.V(float64(f), 0), past.Position)
	}
	assert.False(t, s.Collapsed())

	// Past the end of the recording the past self holds still.
	rep := s.Step().Reports[0]
	assert.False(t, rep.HasPose)
	past, _ := findEntity(s, o.ID())
	assert.Equal(t, geom.V(10, 0), past.Position)
}

func TestRewind_SeenSelfCollapsesTimeline(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newSim(t, openLevel(geom.V(0, 0)), zap.New(core))
	walk(s, 0)
	for i := 0; i < 20; i++ {
		s.Step()
	}
	s.Rewind()
	assert.Equal(t, 1, logs.FilterMessage("rewind").Len())

	// Walk three cells into the past self's view and stand there.
	walk(s, 1)
	var reports []paradox.Report
	for f := 0; f < 12; f++ {
		if f == 3 {
			walk(s, 0)
		}
		reports = append(reports, s.Step().Reports[0])
	}

	for f := 0; f < 8; f++ {
		assert.Equal(t, 1.0, reports[f].Level, "frame %d", f)
		assert.Equal(t, s.Player().ID, reports[f].Culprit)
		assert.False(t, reports[f].Died)
	}
	assert.True(t, reports[8].Died)
	assert.Equal(t, paradox.Dead, reports[8].State)
	assert.True(t, s.Collapsed())
	assert.Equal(t, 1, logs.FilterMessage("past self collapsed").Len())

	assert.Less(t, reports[11].Confusion, reports[8].Confusion, "dead observers only recover")
	past, ok := findEntity(s, s.PastSelves()[0].ID())
	require.True(t, ok)
	_, visible := past.VisibleState()
	assert.False(t, visible)
}

func TestRewind_ClearsConfusionOfReplayingSelves(t *testing.T) {
	s := newSim(t, openLevel(geom.V(0, 0)), nil)
	walk(s, 0)
	for i := 0; i < 20; i++ {
		s.Step()
	}
	s.Rewind()
	past := s.PastSelves()[0]

	// Shown a changed present for a few frames, short of collapsing.
	walk(s, 1)
	for f := 0; f < 5; f++ {
		if f == 3 {
			walk(s, 0)
		}
		s.Step()
	}
	require.Equal(t, paradox.Replaying, past.State())
	require.Greater(t, past.Confusion(), 0.0)

	s.Rewind()
	require.Len(t, s.PastSelves(), 2)
	assert.Equal(t, paradox.Replaying, past.State())
	assert.Zero(t, past.Confusion(), "the replay starts again from frame 0")
}

func TestStep_ElevatorRewinds(t *testing.T) {
	lift := level.EntitySpec{Name: "lift", Kind: entity.KindElevator, Position: geom.V(3.5, 0.5), Size: geom.V(1, 1)}
	s := newSim(t, openLevel(geom.V(0.5, 0.5), lift), nil)
	s.SetInput(entity.Input{Move: geom.V(1, 0), Look: geom.V(1000, 0.5)})

	for f := 0; f < 3; f++ {
		assert.False(t, s.Step().Rewound, "frame %d", f)
	}
	res := s.Step()
	assert.True(t, res.Rewound)
	assert.Equal(t, history.Frame(3), res.Frame)

	assert.Equal(t, history.Frame(0), s.Frame())
	require.Len(t, s.PastSelves(), 1)
	assert.Equal(t, entity.ID(2), s.PastSelves()[0].ID())
	assert.Equal(t, entity.ID(3), s.Player().ID)
	assert.Equal(t, geom.V(0.5, 0.5), s.Player().Position)
	assert.Len(t, s.Entities(), 3)
	assert.False(t, s.Entities()[0].Elevator.Triggered)

	// The past self reaching the elevator again does not rewind.
	for f := 0; f < 6; f++ {
		assert.False(t, s.Step().Rewound, "replayed frame %d", f)
	}
}

func TestRewind_RestoresOccluders(t *testing.T) {
	hatch := level.EntitySpec{Name: "hatch", Kind: entity.KindDoor, Position: geom.V(5, 0), Length: 2}
	s := newSim(t, openLevel(geom.V(0.5, 0.5), hatch), nil)

	assert.Equal(t, light.Empty, s.Grid().Get(grid.I(5, 0)))
	s.Step()
	assert.Equal(t, light.Solid, s.Grid().Get(grid.I(5, 0)))
	assert.Equal(t, light.Empty, s.Grid().Get(grid.I(5, 1)))
	s.Step()
	assert.Equal(t, light.Solid, s.Grid().Get(grid.I(5, 1)))

	s.Rewind()
	assert.Equal(t, light.Empty, s.Grid().Get(grid.I(5, 0)))
	assert.Equal(t, light.Empty, s.Grid().Get(grid.I(5, 1)))
	s.Step()
	assert.Equal(t, light.Solid, s.Grid().Get(grid.I(5, 0)))
}

func TestClock_Advance(t *testing.T) {
	c := sim.NewClock(4, 4)
	assert.Equal(t, 0.25, c.Step())

	assert.Equal(t, 0, c.Advance(125*time.Millisecond))
	assert.Equal(t, 1, c.Advance(125*time.Millisecond))
	assert.Equal(t, 4, c.Advance(10*time.Second), "catch-up is capped")
	assert.Equal(t, 0, c.Advance(0), "excess frames are dropped")
	assert.Equal(t, 1, c.Advance(375*time.Millisecond))
	assert.Equal(t, 1, c.Advance(125*time.Millisecond), "remainder carries")
	assert.Equal(t, 0, c.Advance(-time.Second))
}

func TestClock_PanicsOnBadRate(t *testing.T) {
	assert.Panics(t, func() { sim.NewClock(0, 4) })
	assert.Panics(t, func() { sim.NewClock(60, 0) })
}

func findEntity(s *sim.Simulation, id entity.ID) (*entity.Entity, bool) {
	for _, e := range s.Entities() {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}
