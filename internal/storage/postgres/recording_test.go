package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
	"github.com/cory-johannsen/paradox/internal/storage/postgres"
	"github.com/cory-johannsen/paradox/internal/testutil"
)

var corridor = &level.Level{ID: "corridor", Checksum: 0xfeedfacecafebeef}

// recordWalk records an observer walking along +x for the given positions.
func recordWalk(id paradox.EntityID, xs []float64) *paradox.Observer {
	o := paradox.NewObserver(id, 1.5, history.DefaultLimits)
	g := light.NewGrid(light.Tuning{MaxRange: 20})
	for f, x := range xs {
		o.Record(history.Frame(f), paradox.Pose{Position: geom.V(x, 0), Facing: geom.V(1, 0)}, g, nil)
	}
	return o
}

func TestNewRecording_TimelineMatchesObserver(t *testing.T) {
	o := recordWalk(2, []float64{0, 0, 0, 0, 0, 0, 1, 2, 3, 4})
	o.BeginReplay()
	runID := uuid.New()

	rec := postgres.NewRecording(runID, corridor, o)
	assert.Equal(t, runID, rec.RunID)
	assert.Equal(t, "corridor", rec.LevelID)
	assert.Equal(t, corridor.Checksum, rec.Checksum)
	assert.Equal(t, uint32(2), rec.Observer)
	assert.Equal(t, "replaying", rec.State)
	assert.Equal(t, 10, rec.Frames)

	h, err := rec.Timeline(history.DefaultLimits)
	require.NoError(t, err)
	for f := history.Frame(0); f < 10; f++ {
		want, _ := o.PoseAt(f)
		got, ok := h.Get(f)
		require.True(t, ok, "frame %d", f)
		assert.Equal(t, want, got, "frame %d", f)
	}
	_, ok := h.Get(10)
	assert.False(t, ok)
}

func TestRecording_TimelineRejectsMalformed(t *testing.T) {
	rec := postgres.Recording{Poses: []history.Record[paradox.Pose]{{Start: 3, Finish: 3}}}
	_, err := rec.Timeline(history.DefaultLimits)
	assert.ErrorIs(t, err, history.ErrMalformed)
}

// Property: an archived timeline reproduces every recorded pose.
func TestPropertyRecordingTimeline(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfN(rapid.IntRange(-5, 5), 1, 60).Draw(t, "xs")
		pos := make([]float64, len(xs))
		for i, x := range xs {
			pos[i] = float64(x)
		}
		o := recordWalk(1, pos)
		h, err := postgres.NewRecording(uuid.New(), corridor, o).Timeline(history.DefaultLimits)
		if err != nil {
			t.Fatalf("Timeline: %v", err)
		}
		for f := range pos {
			got, ok := h.Get(history.Frame(f))
			if !ok || got.Position.X != pos[f] {
				t.Fatalf("frame %d: got %v (%v), want x=%v", f, got, ok, pos[f])
			}
		}
	})
}

func TestRecordingRepository(t *testing.T) {
	repo := testutil.NewPool(t).Recordings()
	ctx := context.Background()

	t.Run("Save and GetByID", func(t *testing.T) {
		rec := postgres.NewRecording(uuid.New(), corridor, recordWalk(2, []float64{0, 1, 2, 3}))
		saved, err := repo.Save(ctx, rec)
		require.NoError(t, err)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.RunID, got.RunID)
		assert.Equal(t, corridor.Checksum, got.Checksum, "full 64-bit checksum survives")
		assert.Equal(t, rec.Poses, got.Poses)
		assert.Equal(t, 4, got.Frames)
	})

	t.Run("Save duplicate observer", func(t *testing.T) {
		runID := uuid.New()
		_, err := repo.Save(ctx, postgres.NewRecording(runID, corridor, recordWalk(2, []float64{0})))
		require.NoError(t, err)
		_, err = repo.Save(ctx, postgres.NewRecording(runID, corridor, recordWalk(2, []float64{1})))
		assert.ErrorIs(t, err, postgres.ErrRecordingExists)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, postgres.ErrRecordingNotFound)
	})

	t.Run("SaveRun and ListByRun", func(t *testing.T) {
		runID := uuid.New()
		recs := []postgres.Recording{
			postgres.NewRecording(runID, corridor, recordWalk(3, []float64{0, 0, 1})),
			postgres.NewRecording(runID, corridor, recordWalk(2, []float64{5, 4})),
		}
		require.NoError(t, repo.SaveRun(ctx, recs))

		got, err := repo.ListByRun(ctx, runID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, uint32(2), got[0].Observer)
		assert.Equal(t, uint32(3), got[1].Observer)
	})

	t.Run("SaveRun is atomic", func(t *testing.T) {
		runID := uuid.New()
		recs := []postgres.Recording{
			postgres.NewRecording(runID, corridor, recordWalk(2, []float64{0})),
			postgres.NewRecording(runID, corridor, recordWalk(2, []float64{1})),
		}
		assert.Error(t, repo.SaveRun(ctx, recs))

		got, err := repo.ListByRun(ctx, runID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ListByLevel", func(t *testing.T) {
		closet := &level.Level{ID: "closet"}
		for i := 0; i < 3; i++ {
			_, err := repo.Save(ctx, postgres.NewRecording(uuid.New(), closet, recordWalk(1, []float64{0})))
			require.NoError(t, err)
		}
		got, err := repo.ListByLevel(ctx, "closet", 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		for _, rec := range got {
			assert.Equal(t, "closet", rec.LevelID)
		}
	})
}
