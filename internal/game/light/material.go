// Package light implements the visibility engine: an occluder grid, corner
// extraction, a grid raycaster, and the corner-driven visibility tracer that
// produces exact polygonal visibility areas.
package light

// Material is the contents of one occluder cell.
type Material uint8

const (
	// Empty lets light and motion through. It is the zero value.
	Empty Material = iota
	// Solid blocks light and motion.
	Solid
	// Mirror blocks light and motion.
	Mirror
	// Glass blocks motion only.
	Glass
)

// BlocksLight reports whether rays stop at this material.
func (m Material) BlocksLight() bool { return m == Solid || m == Mirror }

// BlocksMotion reports whether entities collide with this material.
func (m Material) BlocksMotion() bool { return m != Empty }

func (m Material) String() string {
	switch m {
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case Mirror:
		return "mirror"
	case Glass:
		return "glass"
	default:
		return "unknown"
	}
}

// ParseMaterial maps a material name to its value.
func ParseMaterial(s string) (Material, bool) {
	for _, m := range []Material{Empty, Solid, Mirror, Glass} {
		if m.String() == s {
			return m, true
		}
	}
	return Empty, false
}
