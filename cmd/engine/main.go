package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/config"
	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/engine"
	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/gfx/ebitenbackend"
	"github.com/feacur/customengine/internal/persist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("ENGINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// Checks are process-wide; set them once before anything can trip one.
	check.SetEnabled(cfg.Engine.Assertions == "debug")

	switch cfg.Debug.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Debug.ProfileDir), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.Debug.ProfileDir), profile.NoShutdownHook).Stop()
	}

	// 3. Asset source: a directory tree or a Postgres archive
	src, closeSrc, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSrc()

	// 4. Hot reload watcher. The poll watcher asks the store for names,
	// which only exists once the context is built.
	var ctx *engine.Context
	names := func() []string {
		if ctx == nil {
			return nil
		}
		return ctx.Store.Resources()
	}
	var watcher asset.Watcher
	if cfg.Assets.Watch {
		watcher = openWatcher(cfg, src, names, log)
	}

	// 5. Backend
	var backend gfx.Backend
	var screen *ebitenbackend.Backend
	if cfg.Engine.Headless {
		backend = gfx.NewLogBackend(log.Named("backend"))
	} else {
		screen = ebitenbackend.New(log.Named("backend"))
		backend = screen
	}

	// 6. Engine context
	ctx, err = engine.New(cfg, engine.Deps{
		Source:  src,
		Watcher: watcher,
		Backend: backend,
		Log:     log,
	})
	if err != nil {
		if watcher != nil {
			watcher.Close()
		}
		return fmt.Errorf("engine: %w", err)
	}
	defer func() {
		if err := ctx.Close(); err != nil {
			log.Warn("engine close", zap.Error(err))
		}
	}()

	if err := ctx.Preload(cfg.Assets.Manifest); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("preload: %w", err)
		}
		log.Warn("no asset manifest", zap.String("manifest", cfg.Assets.Manifest))
	}
	if p := cfg.Engine.StartupPrefab; p != "" {
		if e := ctx.Spawn(p); e.IsEmpty() {
			log.Warn("startup prefab did not load", zap.String("prefab", p))
		}
	}

	// 7. Main loop
	if cfg.Engine.Headless {
		return runHeadless(ctx, cfg.Engine, log)
	}
	return runWindow(ctx, screen, cfg.Engine, log)
}

func openSource(cfg *config.Config, log *zap.Logger) (asset.Source, func(), error) {
	if cfg.Assets.Source != "postgres" {
		log.Info("asset source", zap.String("root", cfg.Assets.Root))
		return asset.DirSource{Root: cfg.Assets.Root}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	log.Info("asset source", zap.String("archive", "postgres"))
	return persist.NewArchive(db), db.Close, nil
}

func openWatcher(cfg *config.Config, src asset.Source, names func() []string, log *zap.Logger) asset.Watcher {
	if cfg.Assets.Source == "fs" {
		fw, err := asset.NewFSWatcher(filepath.Clean(cfg.Assets.Root), log.Named("watch"))
		if err == nil {
			return fw
		}
		log.Warn("fsnotify unavailable, polling instead", zap.Error(err))
	}
	return asset.NewPollWatcher(src, names, cfg.Assets.PollInterval)
}

func runHeadless(ctx *engine.Context, cfg config.EngineConfig, log *zap.Logger) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.TickRate)
	defer ticker.Stop()

	log.Info("headless loop started", zap.Duration("tick", cfg.TickRate), zap.Int("max_frames", cfg.MaxFrames))
	for {
		select {
		case <-ticker.C:
			if err := ctx.Step(cfg.TickRate); err != nil {
				return fmt.Errorf("frame %d: %w", ctx.Frames(), err)
			}
			if cfg.MaxFrames > 0 && ctx.Frames() >= uint64(cfg.MaxFrames) {
				log.Info("frame limit reached", zap.Uint64("frames", ctx.Frames()))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func runWindow(ctx *engine.Context, screen *ebitenbackend.Backend, cfg config.EngineConfig, log *zap.Logger) error {
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowTitle(cfg.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)

	g := newGame(ctx, screen, cfg.MaxFrames, log)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
