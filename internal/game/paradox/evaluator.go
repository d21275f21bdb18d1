package paradox

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

// Tuning controls how mismatches turn into confusion.
type Tuning struct {
	// FalloffDistance is the distance within which a mismatch counts fully.
	FalloffDistance float64
	// ConfusionTime is the seconds of a full-strength paradox needed to kill.
	ConfusionTime float64
	// RecoveryTime is the seconds needed to recover from full confusion.
	RecoveryTime float64
	// FrameWindow is how many frames either side of the current one may
	// explain an observation.
	FrameWindow int
	// MinAngularWeight floors the weight of mismatches at the edge of view.
	MinAngularWeight float64
}

// DefaultTuning is used for any Tuning field left zero.
var DefaultTuning = Tuning{
	FalloffDistance:  8,
	ConfusionTime:    2,
	RecoveryTime:     4,
	FrameWindow:      2,
	MinAngularWeight: 0.25,
}

func (t Tuning) withDefaults() Tuning {
	if t.FalloffDistance <= 0 {
		t.FalloffDistance = DefaultTuning.FalloffDistance
	}
	if t.ConfusionTime <= 0 {
		t.ConfusionTime = DefaultTuning.ConfusionTime
	}
	if t.RecoveryTime <= 0 {
		t.RecoveryTime = DefaultTuning.RecoveryTime
	}
	if t.FrameWindow <= 0 {
		t.FrameWindow = DefaultTuning.FrameWindow
	}
	if t.MinAngularWeight <= 0 {
		t.MinAngularWeight = DefaultTuning.MinAngularWeight
	}
	return t
}

// Evaluator scores replaying observers against the live world.
type Evaluator struct {
	Tuning Tuning
}

// Report summarises one replayed frame of one observer.
type Report struct {
	Frame history.Frame
	// Pose is the reconstructed pose; HasPose is false once the recording
	// has run out.
	Pose    Pose
	HasPose bool
	Area    *light.Area
	// Level is the paradox level in [0, 1]; Culprit is the entity that
	// produced it.
	Level     float64
	Culprit   EntityID
	Confusion float64
	State     State
	// Died is true on the frame the observer became Dead.
	Died bool
}

// Replay advances a Replaying or Dead observer by one frame of dt seconds.
// Confusion grows with the frame's paradox level and decays when there is
// none. A Replaying observer whose confusion exceeds 1 becomes Dead.
//
// Precondition: the observer is not Active.
func (e Evaluator) Replay(o *Observer, f history.Frame, dt float64, tracer Tracer, subjects []Subject) Report {
	if o.state == Active {
		panic(fmt.Sprintf("paradox: observer %d replayed while active", o.id))
	}
	t := e.Tuning.withDefaults()
	rep := Report{Frame: f, State: o.state}

	if o.state == Replaying {
		rep.Pose, rep.HasPose = o.poses.Get(f)
		if rep.HasPose {
			rep.Area = tracer.Trace(rep.Pose.Position, o.ViewRange(rep.Pose))
			rep.Level, rep.Culprit = e.Level(o, f, rep.Pose, rep.Area, subjects)
		}
	}

	if rep.Level > 0 {
		o.confusion += rep.Level / t.ConfusionTime * dt
	} else {
		o.confusion = math.Max(0, o.confusion-dt/t.RecoveryTime)
	}
	if o.state == Replaying && o.confusion > 1 {
		o.state = Dead
		rep.Died = true
	}
	rep.Confusion = o.confusion
	rep.State = o.state
	return rep
}

// Level returns the paradox level at frame f for an observer at pose seeing
// area, and the subject responsible. Each subject is scored by the best
// matching frame in the window around f; the worst subject wins.
func (e Evaluator) Level(o *Observer, f history.Frame, pose Pose, area *light.Area, subjects []Subject) (float64, EntityID) {
	t := e.Tuning.withDefaults()
	var worst float64
	var culprit EntityID
	for _, s := range subjects {
		if s.ID() == o.id {
			continue
		}
		current, visible := s.VisibleState()
		inView := visible && s.WithinArea(area)
		expected := o.perceived[s.ID()]
		if !inView && expected == nil {
			continue
		}

		best := math.Inf(1)
		for w := f - history.Frame(t.FrameWindow); w <= f+history.Frame(t.FrameWindow); w++ {
			if w < 0 {
				continue
			}
			var want VisibleState
			had := false
			if expected != nil {
				want, had = expected.Get(w)
			}
			var lvl float64
			switch {
			case had && inView && want == current, !had && !inView:
				lvl = 0
			case had && inView:
				lvl = t.weight(pose, o.viewWidth, current.Position.Vec())
			case had:
				lvl = t.weight(pose, o.viewWidth, want.Position.Vec())
			default:
				lvl = t.weight(pose, o.viewWidth, s.Position())
			}
			best = math.Min(best, lvl)
		}
		if !math.IsInf(best, 1) && best > worst {
			worst, culprit = best, s.ID()
		}
	}
	return worst, culprit
}

// weight scores a mismatch at target: full within the falloff distance and
// dead ahead, fading with distance and toward the edge of view.
func (t Tuning) weight(pose Pose, viewWidth float64, target geom.Vec) float64 {
	off := target.Sub(pose.Position)
	dist := off.Len()
	distance := 1.0
	if dist > 0 {
		distance = clamp(t.FalloffDistance/dist, 0, 1)
	}
	angle := pose.Facing.Angle(off)
	angular := clamp(1-2*angle/viewWidth, t.MinAngularWeight, 1)
	return distance * angular
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
