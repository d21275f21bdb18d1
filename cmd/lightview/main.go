// Package main provides an interactive terminal viewer: walk a level, watch
// the visibility area and create past selves by rewinding.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/paradox/internal/config"
	"github.com/cory-johannsen/paradox/internal/frontend/terminal"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/sim"
	"github.com/cory-johannsen/paradox/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	levelPath := flag.String("level", "content/levels/corridor.yaml", "path to the level YAML file")
	logFile := flag.String("log", "lightview.log", "log file; the terminal is taken over by the viewer")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.Logging.File = *logFile

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	lv, err := level.LoadLevelFromFile(*levelPath)
	if err != nil {
		logger.Fatal("loading level", zap.String("path", *levelPath), zap.Error(err))
	}
	reg := level.DefaultRegistry()
	s, err := sim.New(lv, reg, sim.OptionsFromConfig(cfg), logger)
	if err != nil {
		logger.Fatal("starting simulation", zap.String("level_id", lv.ID), zap.Error(err))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	logger.Info("viewer started", zap.String("level_id", lv.ID))
	err = terminal.NewViewer(screen, s, reg, logger).Run(ctx)
	screen.Fini()
	if err != nil && ctx.Err() == nil {
		logger.Error("viewer stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer stopped",
		zap.Int("past_selves", len(s.PastSelves())),
		zap.Bool("collapsed", s.Collapsed()),
	)
}
