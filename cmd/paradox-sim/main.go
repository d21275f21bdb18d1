// Package main provides the headless simulator binary. It plays every level
// in the levels directory through its Lua script and reports the outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/paradox/internal/config"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/sim"
	"github.com/cory-johannsen/paradox/internal/observability"
	"github.com/cory-johannsen/paradox/internal/runner"
	"github.com/cory-johannsen/paradox/internal/scripting"
	"github.com/cory-johannsen/paradox/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	levelsDir := flag.String("levels", "", "path to level YAML files directory; overrides levels.dir")
	only := flag.String("level", "", "run only the level with this ID")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *levelsDir != "" {
		cfg.Levels.Dir = *levelsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	runID := uuid.New()
	runLogger := observability.RunLogger(logger, runID)
	runLogger.Info("starting paradox simulator", zap.String("levels_dir", cfg.Levels.Dir))

	levels, err := level.LoadLevelsFromDir(cfg.Levels.Dir)
	if err != nil {
		logger.Fatal("loading levels", zap.Error(err))
	}
	if *only != "" {
		levels = filterLevels(levels, *only)
		if len(levels) == 0 {
			logger.Fatal("unknown level", zap.String("level_id", *only))
		}
	}
	logger.Info("levels loaded", zap.Int("count", len(levels)))

	var archive runner.Archive
	if cfg.Archive.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.CheckSchema(ctx, 5*time.Second); err != nil {
			logger.Fatal("checking archive schema", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		archive = pool.Recordings()
	}

	scripts := scripting.NewManager(logger)
	defer scripts.Close()

	r := runner.New(level.DefaultRegistry(), scripts, archive, runner.Options{
		Sim:              sim.OptionsFromConfig(cfg),
		MaxFrames:        cfg.Simulation.MaxFrames,
		InstructionLimit: cfg.Levels.ScriptInstructionLimit,
	}, logger)

	outcomes, err := r.RunAll(ctx, runID, levels)
	if err != nil {
		logger.Fatal("running levels", zap.Error(err))
	}

	for _, out := range outcomes {
		result := "timed out"
		switch {
		case out.Collapsed:
			result = "collapsed"
		case out.Finished:
			result = "finished"
		}
		fmt.Fprintf(os.Stdout, "%-20s %-10s frames=%d rewinds=%d past_selves=%d\n",
			out.LevelID, result, out.Frames, out.Rewinds, out.PastSelves)
	}
	runLogger.Info("run complete",
		zap.Int("levels", len(outcomes)),
		zap.Bool("archived", archive != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func filterLevels(levels []*level.Level, id string) []*level.Level {
	for _, lv := range levels {
		if lv.ID == id {
			return []*level.Level{lv}
		}
	}
	return nil
}
