// Package sim drives a level frame by frame: entities update, doors write
// the occluder grid, then every player observer records or replays.
package sim

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// Options tunes a Simulation. Zero fields take their DefaultOptions value.
type Options struct {
	Light   light.Tuning
	History history.Limits
	Paradox paradox.Tuning
	// TickRate is the number of frames per simulated second.
	TickRate float64
	// MaxUpdatesPerTick caps the frames a Clock releases per Advance.
	MaxUpdatesPerTick int
	// Capacity is the entity arena size.
	Capacity int
	// ViewWidth is the player field of view in radians for levels that do
	// not set one.
	ViewWidth float64
}

// DefaultOptions are the stock simulation settings.
var DefaultOptions = Options{
	Light:             light.DefaultTuning,
	History:           history.DefaultLimits,
	Paradox:           paradox.DefaultTuning,
	TickRate:          60,
	MaxUpdatesPerTick: 4,
	Capacity:          entity.DefaultCapacity,
	ViewWidth:         math.Pi / 2,
}

func (o Options) withDefaults() Options {
	if o.TickRate <= 0 {
		o.TickRate = DefaultOptions.TickRate
	}
	if o.MaxUpdatesPerTick <= 0 {
		o.MaxUpdatesPerTick = DefaultOptions.MaxUpdatesPerTick
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultOptions.Capacity
	}
	if o.ViewWidth <= 0 {
		o.ViewWidth = DefaultOptions.ViewWidth
	}
	return o
}

// StepResult summarises one frame.
type StepResult struct {
	Frame history.Frame
	// Reports holds one entry per past self, in creation order.
	Reports []paradox.Report
	// Rewound is true when the frame ended in a rewind.
	Rewound bool
}

// Simulation owns the mutable state of one level run.
type Simulation struct {
	level  *level.Level
	opts   Options
	logger *zap.Logger
	eval   paradox.Evaluator
	dt     float64

	base    *light.Grid
	initial *entity.Arena

	grid   *light.Grid
	arena  *entity.Arena
	frame  history.Frame
	player entity.ID
	pasts  []*paradox.Observer
	areas  map[entity.ID]*light.Area
}

// New builds the level's occluder grid and entities and spawns a live
// player at the level spawn point.
//
// Precondition: lv is valid and logger is non-nil.
// Postcondition: Returns a Simulation at frame 0 or an error for unknown tiles.
func New(lv *level.Level, reg *level.Registry, opts Options, logger *zap.Logger) (*Simulation, error) {
	opts = opts.withDefaults()
	base, err := lv.Occluders(reg, opts.Light)
	if err != nil {
		return nil, fmt.Errorf("building occluders: %w", err)
	}
	s := &Simulation{
		level:   lv,
		opts:    opts,
		logger:  logger.With(zap.String("level_id", lv.ID)),
		eval:    paradox.Evaluator{Tuning: opts.Paradox},
		dt:      1 / opts.TickRate,
		base:    base,
		initial: lv.Populate(opts.Capacity),
	}
	s.reset()
	return s, nil
}

// reset restores the level's initial state at frame 0, re-spawns every
// past self with its confusion cleared and spawns a fresh live player.
func (s *Simulation) reset() {
	s.grid = s.base.Clone()
	s.arena = s.initial.Clone()
	s.frame = 0
	s.areas = make(map[entity.ID]*light.Area)

	for _, o := range s.pasts {
		o.Restart()
		e := s.arena.Spawn(s.newPlayer(o))
		if e.ID != o.ID() {
			panic(fmt.Sprintf("sim: past self %d respawned as %d", o.ID(), e.ID))
		}
	}
	e := s.arena.Spawn(s.newPlayer(nil))
	e.Actor.Observer = paradox.NewObserver(e.ID, e.Actor.ViewWidth, s.opts.History)
	s.player = e.ID
}

func (s *Simulation) newPlayer(o *paradox.Observer) *entity.Entity {
	p := s.level.Player
	facing, ok := p.Facing.TryNormalize(1e-9)
	if !ok {
		facing = geom.V(1, 0)
	}
	width := p.ViewWidth
	if width <= 0 {
		width = s.opts.ViewWidth
	}
	return &entity.Entity{
		Kind:     entity.KindPlayer,
		Name:     "player",
		Position: s.level.Spawn,
		Size:     geom.V(p.Size, p.Size),
		Actor: &entity.Actor{
			Facing:    facing,
			ViewWidth: width,
			Speed:     p.Speed,
			Observer:  o,
		},
	}
}

// Step advances the simulation by one frame.
//
// Postcondition: Frame() has advanced by one, or is 0 after a rewind.
func (s *Simulation) Step() StepResult {
	w := &entity.World{Frame: s.frame, DT: s.dt, Light: s.grid}
	rewind := false
	for _, e := range s.arena.Entities() {
		if e.Update(s.arena.Guard(e.ID), w) == entity.ActionRewind {
			rewind = true
		}
	}

	entities := s.arena.Entities()
	subjects := make([]paradox.Subject, len(entities))
	for i, e := range entities {
		subjects[i] = e.Subject()
	}

	res := StepResult{Frame: s.frame}
	for _, e := range entities {
		if e.Kind != entity.KindPlayer || e.Actor.Observer == nil {
			continue
		}
		o := e.Actor.Observer
		if o.State() == paradox.Active {
			s.areas[e.ID] = o.Record(s.frame, e.Pose(), s.grid, subjects)
			continue
		}
		rep := s.eval.Replay(o, s.frame, s.dt, s.grid, subjects)
		s.areas[e.ID] = rep.Area
		res.Reports = append(res.Reports, rep)
		s.logReport(e.ID, rep)
	}

	s.frame++
	if rewind {
		s.Rewind()
		res.Rewound = true
	}
	return res
}

func (s *Simulation) logReport(id entity.ID, rep paradox.Report) {
	if rep.Died {
		s.logger.Info("past self collapsed",
			zap.Uint32("entity", uint32(id)),
			zap.Int("frame", int(rep.Frame)),
			zap.Uint32("culprit", uint32(rep.Culprit)),
			zap.Float64("confusion", rep.Confusion),
		)
		return
	}
	if rep.Level > 0 {
		s.logger.Debug("paradox",
			zap.Uint32("entity", uint32(id)),
			zap.Int("frame", int(rep.Frame)),
			zap.Float64("paradox_level", rep.Level),
			zap.Uint32("culprit", uint32(rep.Culprit)),
			zap.Float64("confusion", rep.Confusion),
		)
	}
}

// Rewind turns the live player into a past self replaying its recording
// and restarts the level from frame 0 with a fresh live player.
func (s *Simulation) Rewind() {
	e, ok := s.arena.Get(s.player)
	if !ok {
		panic(fmt.Sprintf("sim: live player %d missing", s.player))
	}
	o := e.Actor.Observer
	o.BeginReplay()
	s.pasts = append(s.pasts, o)
	s.logger.Info("rewind",
		zap.Uint32("entity", uint32(o.ID())),
		zap.Int("frames", int(s.frame)),
		zap.Int("past_selves", len(s.pasts)),
	)
	s.reset()
}

// SetInput sets the live player's control state for the following frames.
func (s *Simulation) SetInput(in entity.Input) {
	if e, ok := s.arena.Get(s.player); ok {
		e.Actor.Input = in
	}
}

// Player returns the live player.
func (s *Simulation) Player() *entity.Entity {
	e, _ := s.arena.Get(s.player)
	return e
}

// PastSelves returns the observers of every past self in creation order.
func (s *Simulation) PastSelves() []*paradox.Observer { return s.pasts }

// Collapsed reports whether any past self has died of confusion.
func (s *Simulation) Collapsed() bool {
	for _, o := range s.pasts {
		if o.State() == paradox.Dead {
			return true
		}
	}
	return false
}

func (s *Simulation) Level() *level.Level { return s.level }
func (s *Simulation) Grid() *light.Grid { return s.grid }
func (s *Simulation) Frame() history.Frame { return s.frame }
func (s *Simulation) DT() float64 { return s.dt }
func (s *Simulation) Options() Options { return s.opts }

// Entities returns the live entities in update order.
func (s *Simulation) Entities() []*entity.Entity { return s.arena.Entities() }

// ViewArea returns the area an observer saw on the last frame, if any.
func (s *Simulation) ViewArea(id entity.ID) (*light.Area, bool) {
	a, ok := s.areas[id]
	return a, ok && a != nil
}

// NewClock returns a clock paced for this simulation's tick rate.
func (s *Simulation) NewClock() *Clock {
	return NewClock(s.opts.TickRate, s.opts.MaxUpdatesPerTick)
}
