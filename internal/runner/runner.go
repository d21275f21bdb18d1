// Package runner plays levels headlessly: each level's Lua input hook drives
// the live player until the script finishes, the timeline collapses or the
// frame budget runs out.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
	"github.com/cory-johannsen/paradox/internal/game/sim"
	"github.com/cory-johannsen/paradox/internal/observability"
	"github.com/cory-johannsen/paradox/internal/scripting"
	"github.com/cory-johannsen/paradox/internal/storage/postgres"
)

// Archive stores the recordings of a finished run.
type Archive interface {
	SaveRun(ctx context.Context, recs []postgres.Recording) error
}

// Outcome summarises one level run.
type Outcome struct {
	LevelID string
	// Frames counts every frame stepped, across rewinds.
	Frames     int
	Rewinds    int
	PastSelves int
	// Collapsed is set when a past self died of confusion.
	Collapsed bool
	// Finished is set when the script reported done.
	Finished   bool
	Recordings []postgres.Recording
}

// Options configures a Runner.
type Options struct {
	Sim sim.Options
	// MaxFrames bounds each level run.
	MaxFrames int
	// InstructionLimit caps each script hook call; 0 uses the scripting default.
	InstructionLimit int
}

// Runner plays levels. It is safe to run different levels concurrently.
type Runner struct {
	reg     *level.Registry
	scripts *scripting.Manager
	archive Archive
	opts    Options
	logger  *zap.Logger
}

// New returns a Runner. archive may be nil to skip archiving.
//
// Precondition: reg, scripts and logger must be non-nil; opts.MaxFrames > 0.
func New(reg *level.Registry, scripts *scripting.Manager, archive Archive, opts Options, logger *zap.Logger) *Runner {
	if opts.MaxFrames <= 0 {
		panic("runner: MaxFrames must be positive")
	}
	return &Runner{reg: reg, scripts: scripts, archive: archive, opts: opts, logger: logger}
}

// RunAll plays every level concurrently, one goroutine per level. The first
// error cancels the remaining runs.
//
// Postcondition: on success outcomes[i] belongs to levels[i].
func (r *Runner) RunAll(ctx context.Context, runID uuid.UUID, levels []*level.Level) ([]Outcome, error) {
	outcomes := make([]Outcome, len(levels))
	g, ctx := errgroup.WithContext(ctx)
	for i, lv := range levels {
		g.Go(func() error {
			out, err := r.Run(ctx, runID, lv)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Run plays one level to completion and archives its recordings.
//
// Precondition: lv is valid.
// Postcondition: Returns the run's Outcome, or an error for unknown tiles,
// broken scripts, a malformed input command, cancellation or a failed save.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID, lv *level.Level) (Outcome, error) {
	start := time.Now()
	logger := observability.RunLogger(r.logger, runID)

	s, err := sim.New(lv, r.reg, r.opts.Sim, logger)
	if err != nil {
		return Outcome{}, fmt.Errorf("level %q: %w", lv.ID, err)
	}
	if lv.Script != "" {
		if err := r.scripts.LoadLevel(lv.ID, lv.Script, r.opts.InstructionLimit); err != nil {
			return Outcome{}, fmt.Errorf("level %q: %w", lv.ID, err)
		}
	}

	out := Outcome{LevelID: lv.ID}
	for out.Frames < r.opts.MaxFrames {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("level %q: %w", lv.ID, err)
		}
		cmd, err := r.scripts.Input(lv.ID, playerInfo(s))
		if err != nil {
			return Outcome{}, err
		}
		if cmd.Done {
			out.Finished = true
			break
		}
		if cmd.Rewind {
			s.Rewind()
			out.Rewinds++
		}
		s.SetInput(input(s.Player(), cmd))
		if s.Step().Rewound {
			out.Rewinds++
		}
		out.Frames++
		if s.Collapsed() {
			out.Collapsed = true
			break
		}
	}

	out.PastSelves = len(s.PastSelves())
	for _, o := range s.PastSelves() {
		out.Recordings = append(out.Recordings, postgres.NewRecording(runID, lv, o))
	}
	if o := s.Player().Actor.Observer; o.Poses().Frames() > 0 {
		out.Recordings = append(out.Recordings, postgres.NewRecording(runID, lv, o))
	}
	if r.archive != nil {
		if err := r.archive.SaveRun(ctx, out.Recordings); err != nil {
			return Outcome{}, fmt.Errorf("archiving level %q: %w", lv.ID, err)
		}
	}

	logger.Info("level run complete",
		zap.String("level_id", lv.ID),
		zap.Int("frames", out.Frames),
		zap.Int("rewinds", out.Rewinds),
		zap.Int("past_selves", out.PastSelves),
		zap.Bool("collapsed", out.Collapsed),
		zap.Bool("finished", out.Finished),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func playerInfo(s *sim.Simulation) scripting.PlayerInfo {
	p := s.Player()
	confusion := 0.0
	for _, o := range s.PastSelves() {
		if o.State() != paradox.Dead {
			confusion = max(confusion, o.Confusion())
		}
	}
	return scripting.PlayerInfo{
		Frame:      s.Frame(),
		Position:   p.Position,
		Facing:     p.Actor.Facing,
		PastSelves: len(s.PastSelves()),
		Confusion:  confusion,
	}
}

// input turns a script command into player controls. Without a look target
// the player keeps facing the same way.
func input(p *entity.Entity, cmd scripting.Command) entity.Input {
	look := cmd.Look
	if !cmd.HasLook {
		look = p.Position.Add(p.Actor.Facing)
	}
	return entity.Input{Move: cmd.Move, Look: look}
}
