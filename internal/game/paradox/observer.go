package paradox

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

// State is the lifecycle stage of an Observer.
type State uint8

const (
	// Active observers are live-controlled and record what they see.
	Active State = iota
	// Replaying observers follow their recording and check it against the world.
	Replaying
	// Dead observers were overwhelmed by confusion. Terminal.
	Dead
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Replaying:
		return "replaying"
	case Dead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Observer is a replayable entity's memory: its own poses and, per observed
// entity, the visible states it saw frame by frame.
type Observer struct {
	id        EntityID
	viewWidth float64
	limits    history.Limits

	state     State
	confusion float64
	poses     *history.History[Pose]
	perceived map[EntityID]*history.History[VisibleState]
}

// NewObserver returns an Active observer with an empty recording. A view
// width of 2π or more means an unrestricted view.
//
// Precondition: viewWidth > 0.
func NewObserver(id EntityID, viewWidth float64, limits history.Limits) *Observer {
	if viewWidth <= 0 {
		panic(fmt.Sprintf("paradox: non-positive view width %v", viewWidth))
	}
	return &Observer{
		id:        id,
		viewWidth: viewWidth,
		limits:    limits,
		poses:     history.New[Pose](limits),
		perceived: make(map[EntityID]*history.History[VisibleState]),
	}
}

func (o *Observer) ID() EntityID { return o.id }
func (o *Observer) State() State { return o.state }
func (o *Observer) Confusion() float64 { return o.confusion }
func (o *Observer) ViewWidth() float64 { return o.viewWidth }

// Poses exposes the observer's own recording.
func (o *Observer) Poses() *history.History[Pose] { return o.poses }

// PoseAt returns the recorded pose at f.
func (o *Observer) PoseAt(f history.Frame) (Pose, bool) { return o.poses.Get(f) }

// Perceived returns the recorded visible states of subject, or nil if the
// observer never saw it.
func (o *Observer) Perceived(subject EntityID) *history.History[VisibleState] {
	return o.perceived[subject]
}

// ViewRange returns the field of view for pose, or nil for an unrestricted view.
func (o *Observer) ViewRange(pose Pose) *light.AngleRange {
	if o.viewWidth >= 2*math.Pi {
		return nil
	}
	facing, ok := pose.Facing.TryNormalize(1e-9)
	if !ok {
		facing = geom.V(1, 0)
	}
	r := light.RangeFromDirection(facing, o.viewWidth)
	return &r
}

// Record stores pose at frame f, traces the observer's view and stores the
// visible state of every subject inside it. It returns the traced area.
//
// Precondition: the observer is Active.
func (o *Observer) Record(f history.Frame, pose Pose, tracer Tracer, subjects []Subject) *light.Area {
	if o.state != Active {
		panic(fmt.Sprintf("paradox: observer %d records while %v", o.id, o.state))
	}
	o.poses.TryInsert(f, pose)
	area := tracer.Trace(pose.Position, o.ViewRange(pose))
	for _, s := range subjects {
		if s.ID() == o.id {
			continue
		}
		vs, ok := s.VisibleState()
		if !ok || !s.WithinArea(area) {
			continue
		}
		h, ok := o.perceived[s.ID()]
		if !ok {
			h = history.New[VisibleState](o.limits)
			o.perceived[s.ID()] = h
		}
		h.TryInsert(f, vs)
	}
	return area
}

// BeginReplay moves an Active observer to Replaying. It reports whether the
// state changed.
func (o *Observer) BeginReplay() bool {
	if o.state != Active {
		return false
	}
	o.state = Replaying
	return true
}

// Restart prepares a Replaying observer to replay its timeline again from
// frame 0 by clearing its confusion. Dead observers keep theirs.
func (o *Observer) Restart() {
	if o.state == Replaying {
		o.confusion = 0
	}
}
