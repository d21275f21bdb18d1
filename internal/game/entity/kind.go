// Package entity defines the closed set of things that live in a level, the
// arena that stores them and the per-kind behaviour run each frame.
package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// ID is an entity's arena handle. The zero ID refers to no entity.
type ID = paradox.EntityID

// Kind tags the variant an Entity holds.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindDummy
	KindDoor
	KindButton
	KindGate
	KindElevator
	kindCount
)

// ErrUnknownEntityKind is returned when parsing an unrecognised kind name.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

var kindNames = [kindCount]string{
	KindPlayer:   "player",
	KindDummy:    "dummy",
	KindDoor:     "door",
	KindButton:   "button",
	KindGate:     "gate",
	KindElevator: "elevator",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a lower-case kind name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEntityKind, s)
}

// GateOp is the boolean function a logic gate applies to its inputs.
type GateOp uint8

const (
	GateAnd GateOp = iota
	GateOr
	GateNot
	GatePassthrough
)

var gateOpNames = [...]string{
	GateAnd:         "and",
	GateOr:          "or",
	GateNot:         "not",
	GatePassthrough: "passthrough",
}

func (op GateOp) String() string {
	if int(op) < len(gateOpNames) {
		return gateOpNames[op]
	}
	return fmt.Sprintf("gate(%d)", uint8(op))
}

// ParseGateOp maps a gate name to its GateOp.
func ParseGateOp(s string) (GateOp, error) {
	for op, name := range gateOpNames {
		if strings.EqualFold(s, name) {
			return GateOp(op), nil
		}
	}
	return 0, fmt.Errorf("unknown gate op %q", s)
}

// Apply evaluates op over inputs. Gates with no inputs output false.
func (op GateOp) Apply(inputs []bool) bool {
	if len(inputs) == 0 {
		return false
	}
	switch op {
	case GateAnd:
		for _, v := range inputs {
			if !v {
				return false
			}
		}
		return true
	case GateOr:
		for _, v := range inputs {
			if v {
				return true
			}
		}
		return false
	case GateNot:
		return !inputs[0]
	default:
		return inputs[0]
	}
}

// Orientation is the axis a door's cells run along.
type Orientation uint8

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseOrientation maps "vertical" or "horizontal" to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "", "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q", s)
	}
}
