package sim

import (
	"math"

	"github.com/cory-johannsen/paradox/internal/config"
	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/light"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// OptionsFromConfig maps the simulation, history and paradox sections of cfg
// onto simulation Options. Durations become seconds and angles radians.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Light: light.Tuning{
			Epsilon:  cfg.Simulation.Epsilon,
			MaxRange: cfg.Simulation.MaxRayRange,
		},
		History: history.Limits{
			ConversionThreshold: cfg.History.ConversionThreshold,
			MaxRecordLength:     cfg.History.MaxRecordLength,
		},
		Paradox: paradox.Tuning{
			FalloffDistance:  cfg.Paradox.FalloffDistance,
			ConfusionTime:    cfg.Paradox.ConfusionTime.Seconds(),
			RecoveryTime:     cfg.Paradox.RecoveryTime.Seconds(),
			FrameWindow:      cfg.Paradox.FrameWindow,
			MinAngularWeight: cfg.Paradox.MinAngularWeight,
		},
		TickRate:          cfg.Simulation.TickRate,
		MaxUpdatesPerTick: cfg.Simulation.MaxUpdatesPerTick,
		Capacity:          cfg.Simulation.EntityCapacity,
		ViewWidth:         cfg.Paradox.ViewWidthDegrees * math.Pi / 180,
	}
}
