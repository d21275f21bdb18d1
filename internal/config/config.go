// Package config provides Viper-based configuration loading for the paradox
// simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output from stderr to the named file. The terminal
	// viewer sets it so logs do not draw over the screen.
	File string `mapstructure:"file"`
}

// SimulationConfig holds frame stepping and raycasting settings.
type SimulationConfig struct {
	// TickRate is the number of simulated frames per second.
	TickRate float64 `mapstructure:"tick_rate"`
	// MaxUpdatesPerTick caps the frames simulated per rendered frame.
	MaxUpdatesPerTick int `mapstructure:"max_updates_per_tick"`
	// Epsilon is the raycaster's grid-line snapping tolerance.
	Epsilon float64 `mapstructure:"epsilon"`
	// MaxRayRange caps the length of every visibility ray.
	MaxRayRange float64 `mapstructure:"max_ray_range"`
	// EntityCapacity is the size of each level's entity arena.
	EntityCapacity int `mapstructure:"entity_capacity"`
	// MaxFrames bounds a headless run.
	MaxFrames int `mapstructure:"max_frames"`
}

// HistoryConfig holds the history record encoding limits.
type HistoryConfig struct {
	ConversionThreshold int `mapstructure:"conversion_threshold"`
	MaxRecordLength     int `mapstructure:"max_record_length"`
}

// ParadoxConfig holds the paradox evaluator tuning.
type ParadoxConfig struct {
	FalloffDistance  float64       `mapstructure:"falloff_distance"`
	ConfusionTime    time.Duration `mapstructure:"confusion_time"`
	RecoveryTime     time.Duration `mapstructure:"recovery_time"`
	FrameWindow      int           `mapstructure:"frame_window"`
	MinAngularWeight float64       `mapstructure:"min_angular_weight"`
	// ViewWidthDegrees is the player field of view for levels that do not set one.
	ViewWidthDegrees float64 `mapstructure:"view_width_degrees"`
}

// LevelsConfig locates level content.
type LevelsConfig struct {
	// Dir holds the level YAML files.
	Dir string `mapstructure:"dir"`
	// ScriptInstructionLimit caps the Lua opcodes of each script hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// ArchiveConfig controls recording persistence.
type ArchiveConfig struct {
	// Enabled stores finished runs in the database.
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	History    HistoryConfig    `mapstructure:"history"`
	Paradox    ParadoxConfig    `mapstructure:"paradox"`
	Levels     LevelsConfig     `mapstructure:"levels"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// Validate checks all configuration invariants. The database section is
// checked only when the archive is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateHistory(c.History),
		validateParadox(c.Paradox),
		validateLevels(c.Levels),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Archive.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRate <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate must be > 0, got %v", s.TickRate))
	}
	if s.MaxUpdatesPerTick < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_updates_per_tick must be >= 1, got %d", s.MaxUpdatesPerTick))
	}
	if s.Epsilon <= 0 || s.Epsilon >= 0.5 {
		errs = append(errs, fmt.Sprintf("simulation.epsilon must be in (0, 0.5), got %v", s.Epsilon))
	}
	if s.MaxRayRange <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.max_ray_range must be > 0, got %v", s.MaxRayRange))
	}
	if s.EntityCapacity < 1 {
		errs = append(errs, fmt.Sprintf("simulation.entity_capacity must be >= 1, got %d", s.EntityCapacity))
	}
	if s.MaxFrames < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_frames must be >= 1, got %d", s.MaxFrames))
	}
	return joined(errs)
}

func validateHistory(h HistoryConfig) error {
	var errs []string
	if h.ConversionThreshold < 2 {
		errs = append(errs, fmt.Sprintf("history.conversion_threshold must be >= 2, got %d", h.ConversionThreshold))
	}
	if h.MaxRecordLength < h.ConversionThreshold {
		errs = append(errs, "history.max_record_length must not be less than history.conversion_threshold")
	}
	return joined(errs)
}

func validateParadox(p ParadoxConfig) error {
	var errs []string
	if p.FalloffDistance <= 0 {
		errs = append(errs, fmt.Sprintf("paradox.falloff_distance must be > 0, got %v", p.FalloffDistance))
	}
	if p.ConfusionTime <= 0 {
		errs = append(errs, "paradox.confusion_time must be positive")
	}
	if p.RecoveryTime <= 0 {
		errs = append(errs, "paradox.recovery_time must be positive")
	}
	if p.FrameWindow < 1 {
		errs = append(errs, fmt.Sprintf("paradox.frame_window must be >= 1, got %d", p.FrameWindow))
	}
	if p.MinAngularWeight <= 0 || p.MinAngularWeight > 1 {
		errs = append(errs, fmt.Sprintf("paradox.min_angular_weight must be in (0, 1], got %v", p.MinAngularWeight))
	}
	if p.ViewWidthDegrees <= 0 || p.ViewWidthDegrees > 360 {
		errs = append(errs, fmt.Sprintf("paradox.view_width_degrees must be in (0, 360], got %v", p.ViewWidthDegrees))
	}
	return joined(errs)
}

func validateLevels(l LevelsConfig) error {
	var errs []string
	if l.Dir == "" {
		errs = append(errs, "levels.dir must not be empty")
	}
	if l.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("levels.script_instruction_limit must be >= 0, got %d", l.ScriptInstructionLimit))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with PARADOX_ prefix
	v.SetEnvPrefix("PARADOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default configuration.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("simulation.tick_rate", 60)
	v.SetDefault("simulation.max_updates_per_tick", 4)
	v.SetDefault("simulation.epsilon", 1e-6)
	v.SetDefault("simulation.max_ray_range", 256)
	v.SetDefault("simulation.entity_capacity", 1024)
	v.SetDefault("simulation.max_frames", 3600)

	v.SetDefault("history.conversion_threshold", 5)
	v.SetDefault("history.max_record_length", 256)

	v.SetDefault("paradox.falloff_distance", 8)
	v.SetDefault("paradox.confusion_time", "2s")
	v.SetDefault("paradox.recovery_time", "4s")
	v.SetDefault("paradox.frame_window", 2)
	v.SetDefault("paradox.min_angular_weight", 0.25)
	v.SetDefault("paradox.view_width_degrees", 90)

	v.SetDefault("levels.dir", "content/levels")
	v.SetDefault("levels.script_instruction_limit", 100000)

	v.SetDefault("archive.enabled", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "paradox")
	v.SetDefault("database.password", "paradox")
	v.SetDefault("database.name", "paradox")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
