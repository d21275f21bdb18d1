package level

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/grid"
)

// Defaults applied to fields a level file leaves unset.
const (
	DefaultPlayerSize  = 0.6
	DefaultPlayerSpeed = 4.0
)

// yamlLevelFile is the top-level YAML structure for level files.
type yamlLevelFile struct {
	Level yamlLevel `yaml:"level"`
}

type yamlLevel struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Origin      yamlIndex    `yaml:"origin"`
	Map         string       `yaml:"map"`
	Spawn       geom.Vec     `yaml:"spawn"`
	Player      yamlPlayer   `yaml:"player"`
	Entities    []yamlEntity `yaml:"entities"`
	Script      string       `yaml:"script"`
}

type yamlIndex struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type yamlPlayer struct {
	Size             float64  `yaml:"size"`
	Speed            float64  `yaml:"speed"`
	ViewWidthDegrees float64  `yaml:"view_width_degrees"`
	Facing           geom.Vec `yaml:"facing"`
}

type yamlEntity struct {
	Name             string   `yaml:"name"`
	Kind             string   `yaml:"kind"`
	Position         geom.Vec `yaml:"position"`
	Size             geom.Vec `yaml:"size"`
	Facing           geom.Vec `yaml:"facing"`
	ViewWidthDegrees float64  `yaml:"view_width_degrees"`
	Orientation      string   `yaml:"orientation"`
	Length           int      `yaml:"length"`
	Source           string   `yaml:"source"`
	Op               string   `yaml:"op"`
	Inputs           []string `yaml:"inputs"`
}

// LoadLevelFromFile reads and validates a single level YAML file. A
// relative script path is resolved against the file's directory.
//
// Precondition: path must point to a valid YAML level file.
// Postcondition: Returns a validated Level or a non-nil error.
func LoadLevelFromFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file %s: %w", path, err)
	}
	lv, err := LoadLevelFromBytes(data)
	if err != nil {
		return nil, err
	}
	if lv.Script != "" && !filepath.IsAbs(lv.Script) {
		lv.Script = filepath.Join(filepath.Dir(path), lv.Script)
	}
	return lv, nil
}

// LoadLevelFromBytes parses and validates a level from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the level schema.
// Postcondition: Returns a validated Level or a non-nil error.
func LoadLevelFromBytes(data []byte) (*Level, error) {
	var file yamlLevelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}

	lv, err := convertYAMLLevel(file.Level)
	if err != nil {
		return nil, fmt.Errorf("converting level %q: %w", file.Level.ID, err)
	}
	lv.Checksum = xxhash.Sum64(data)
	if err := lv.Validate(); err != nil {
		return nil, fmt.Errorf("validating level: %w", err)
	}
	return lv, nil
}

// LoadLevelsFromDir loads all YAML files in a directory as levels, ordered by ID.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated levels or the first error encountered.
func LoadLevelsFromDir(dir string) ([]*Level, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading level directory %s: %w", dir, err)
	}

	var levels []*Level
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		lv, err := LoadLevelFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading level from %s: %w", name, err)
		}
		if prev, dup := seen[lv.ID]; dup {
			return nil, fmt.Errorf("level %q defined in both %s and %s", lv.ID, prev, name)
		}
		seen[lv.ID] = name
		levels = append(levels, lv)
	}

	if len(levels) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	return levels, nil
}

func convertYAMLLevel(yl yamlLevel) (*Level, error) {
	lv := &Level{
		ID:          yl.ID,
		Name:        yl.Name,
		Description: strings.TrimSpace(yl.Description),
		Origin:      grid.I(yl.Origin.X, yl.Origin.Y),
		Map:         splitMap(yl.Map),
		Spawn:       yl.Spawn,
		Player: PlayerSpec{
			Size:      yl.Player.Size,
			Speed:     yl.Player.Speed,
			ViewWidth: yl.Player.ViewWidthDegrees * math.Pi / 180,
			Facing:    yl.Player.Facing,
		},
		Script: yl.Script,
	}
	if lv.Player.Size == 0 {
		lv.Player.Size = DefaultPlayerSize
	}
	if lv.Player.Speed == 0 {
		lv.Player.Speed = DefaultPlayerSpeed
	}

	for _, ye := range yl.Entities {
		kind, err := entity.ParseKind(ye.Kind)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", ye.Name, err)
		}
		spec := EntitySpec{
			Name:      ye.Name,
			Kind:      kind,
			Position:  ye.Position,
			Size:      ye.Size,
			Facing:    ye.Facing,
			ViewWidth: ye.ViewWidthDegrees * math.Pi / 180,
			Length:    ye.Length,
			Source:    ye.Source,
			Inputs:    ye.Inputs,
		}
		switch kind {
		case entity.KindDoor:
			if spec.Orientation, err = entity.ParseOrientation(ye.Orientation); err != nil {
				return nil, fmt.Errorf("entity %q: %w", ye.Name, err)
			}
		case entity.KindGate:
			if spec.Op, err = entity.ParseGateOp(ye.Op); err != nil {
				return nil, fmt.Errorf("entity %q: %w", ye.Name, err)
			}
		case entity.KindButton:
			if spec.Size == (geom.Vec{}) {
				spec.Size = geom.V(1, 1)
			}
		case entity.KindDummy:
			if spec.Size == (geom.Vec{}) {
				spec.Size = geom.V(lv.Player.Size, lv.Player.Size)
			}
		}
		lv.Entities = append(lv.Entities, spec)
	}
	return lv, nil
}

// splitMap breaks a block scalar into rows, dropping the trailing newline
// YAML keeps on literal blocks.
func splitMap(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
