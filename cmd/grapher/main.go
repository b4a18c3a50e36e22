// Package main is the entry point for the grapher, an interactive 3D function plotter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/grapher/internal/camera"
	"github.com/Faultbox/grapher/internal/config"
	"github.com/Faultbox/grapher/internal/engine"
	"github.com/Faultbox/grapher/internal/engine/renderer"
	"github.com/Faultbox/grapher/internal/engine/screenshot"
	"github.com/Faultbox/grapher/internal/engine/window"
	"github.com/Faultbox/grapher/internal/equation"
	"github.com/Faultbox/grapher/internal/grapher"
	"github.com/Faultbox/grapher/internal/logger"
	"github.com/Faultbox/grapher/internal/surface"
)

const windowTitle = "Grapher"

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("config written to %s\n", path)
		return
	}

	// Initialize logger
	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.FileConfig{
			Path:       cfg.Logging.LogFile,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Grapher ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("grapher error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("grapher closed normally")
}

func run(cfg *config.Config) error {
	// The dialog has to finish before SDL owns the main thread's event loop.
	if cfg.Input.Mode == config.InputFile && cfg.Input.Pick {
		path, err := surface.PickFile()
		if errors.Is(err, surface.ErrCancelled) {
			logger.Info("no equation file selected")
			return nil
		}
		if err != nil {
			return fmt.Errorf("picking equation file: %w", err)
		}
		cfg.Input.File = path
	}

	// Window and GL context come up before any input is accepted.
	win, err := window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, logger.Named("window"))
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	width, height := win.Size()
	r, err := renderer.New(renderer.Config{Width: width, Height: height}, logger.Named("renderer"))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Close()
	r.SetWireframe(cfg.Graphics.Wireframe)

	ch := equation.NewChannel()

	cam := camera.New()
	cam.FOV = cfg.Camera.FOV
	cam.Near = cfg.Camera.Near
	cam.Far = cfg.Camera.Far
	cam.Speed = cfg.Camera.Speed
	cam.Position = cfg.Camera.Position
	// Unit sensitivity so the configured angles go through clamp and wrap as-is.
	cam.Sensitivity = 1
	cam.Crane(cfg.Camera.Pitch)
	cam.Spin(cfg.Camera.Yaw)
	cam.Sensitivity = cfg.Camera.Sensitivity

	app := grapher.New(cam, ch, grapher.Options{
		Params:     cfg.MeshParams(),
		Animate:    cfg.Plot.Animate,
		MouseScale: cfg.Camera.MouseScale,
		MoveScale:  cfg.Camera.MoveScale,
		ExportDir:  cfg.Output.ExportDir,
	}, logger.Named("grapher"))

	var surf surface.Surface
	switch cfg.Input.Mode {
	case config.InputFile:
		debounce := time.Duration(cfg.Input.DebounceMS) * time.Millisecond
		surf = surface.NewFile(cfg.Input.File, debounce, ch, logger.Named("surface"))
	default:
		console := surface.NewConsole(os.Stdin, os.Stdout, ch, logger.Named("surface"))
		console.SetBuffer(cfg.Plot.Equations)
		ch.Publish(cfg.Plot.Equations)
		surf = console
	}

	format, _ := screenshot.ParseFormat(cfg.Output.ScreenshotFormat)
	shots := screenshot.New(cfg.Output.ScreenshotDir, "grapher", format)

	loop := engine.NewLoop(engine.LoopConfig{FPSLimit: cfg.Graphics.FPSLimit, Title: windowTitle}, win, r, app, shots, logger.Named("engine"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Closing the input surface closes the plotter.
		defer app.Stop()
		return surf.Run(gctx)
	})

	runErr := loop.Run()
	cancel()
	if err := g.Wait(); err != nil {
		logger.Warn("input surface failed", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	logger.Info("session stats", zap.Uint64("frames", loop.Frames()), zap.Uint64("dropped_snapshots", ch.Dropped()))
	return runErr
}
