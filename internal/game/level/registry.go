package level

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/paradox/internal/game/light"
)

// ErrUnknownTile is returned when a map uses a glyph the registry lacks.
var ErrUnknownTile = errors.New("unknown tile")

// TileKind maps a map glyph to the material it places.
type TileKind struct {
	Glyph    rune
	Name     string
	Material light.Material
}

// Registry holds the tile kinds levels may use. It is built once at startup
// and passed to whatever loads levels.
type Registry struct {
	kinds map[rune]TileKind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[rune]TileKind)}
}

// DefaultRegistry returns a registry with the standard glyphs:
// '.' and ' ' floor, '#' wall, '%' mirror, '=' glass.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range []TileKind{
		{Glyph: '.', Name: "floor", Material: light.Empty},
		{Glyph: ' ', Name: "void", Material: light.Empty},
		{Glyph: '#', Name: "wall", Material: light.Solid},
		{Glyph: '%', Name: "mirror", Material: light.Mirror},
		{Glyph: '=', Name: "glass", Material: light.Glass},
	} {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds k.
//
// Postcondition: returns an error if k.Glyph is already registered.
func (r *Registry) Register(k TileKind) error {
	if _, ok := r.kinds[k.Glyph]; ok {
		return fmt.Errorf("tile glyph %q already registered", k.Glyph)
	}
	r.kinds[k.Glyph] = k
	return nil
}

// Lookup returns the tile kind for glyph.
func (r *Registry) Lookup(glyph rune) (TileKind, error) {
	k, ok := r.kinds[glyph]
	if !ok {
		return TileKind{}, fmt.Errorf("%w: %q", ErrUnknownTile, glyph)
	}
	return k, nil
}

// Glyph returns the first registered glyph, in code point order, placing m.
func (r *Registry) Glyph(m light.Material) (rune, bool) {
	for _, k := range r.Kinds() {
		if k.Material == m {
			return k.Glyph, true
		}
	}
	return 0, false
}

// Kinds returns every registered kind ordered by glyph.
func (r *Registry) Kinds() []TileKind {
	out := make([]TileKind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Glyph < out[j].Glyph })
	return out
}
