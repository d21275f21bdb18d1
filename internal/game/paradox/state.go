// Package paradox records what replayable observers perceive and, when their
// recording is replayed, measures how far the live world has diverged from
// it.
package paradox

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/light"
)

// EntityID identifies an entity within one simulation.
type EntityID uint32

// VisibleState is what an observer perceives of an entity at one instant.
// Two equal states are indistinguishable.
type VisibleState struct {
	Position geom.QPoint `json:"position"`
	Extra    uint64      `json:"extra"`
}

// NewVisibleState quantizes position and attaches an opaque discriminant.
func NewVisibleState(position geom.Vec, extra uint64) VisibleState {
	return VisibleState{Position: geom.Quantize(position), Extra: extra}
}

// StateKey hashes a kind name and kind-specific fields into a discriminant
// for VisibleState.Extra.
func StateKey(kind string, fields ...int64) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(kind)
	var buf [8]byte
	for _, f := range fields {
		binary.LittleEndian.PutUint64(buf[:], uint64(f))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Pose is an observer's recorded position and unit facing.
type Pose struct {
	Position geom.Vec `json:"position"`
	Facing   geom.Vec `json:"facing"`
}

// Subject is an entity that observers can perceive.
type Subject interface {
	ID() EntityID
	// VisibleState returns false for entities that currently cannot be seen
	// at all, such as ones that have left the level.
	VisibleState() (VisibleState, bool)
	// WithinArea reports whether any part of the entity lies in a.
	WithinArea(a *light.Area) bool
	Position() geom.Vec
}

// Tracer computes visibility areas.
type Tracer interface {
	Trace(origin geom.Vec, r *light.AngleRange) *light.Area
}
