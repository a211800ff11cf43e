// Package engine owns one running engine instance: the world, the asset
// store, the two command buffers and the frame systems. Nothing here is
// package-level state; tests and tools can run several contexts at once.
// The assertion mode in package check is process-wide and is set by the
// binary, not by New.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/config"
	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/core/event"
	coresys "github.com/feacur/customengine/internal/core/system"
	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/gfx/bytecode"
	"github.com/feacur/customengine/internal/scripting"
	"github.com/feacur/customengine/internal/system"
)

const bufferCapacity = 64 << 10

// Deps are the collaborators a Context does not build itself.
type Deps struct {
	Source  asset.Source
	Watcher asset.Watcher // nil disables hot reload
	Backend gfx.Backend
	Log     *zap.Logger
}

// Context is one engine instance. It is driven from a single goroutine.
type Context struct {
	World      *ecs.World
	Components *component.Set
	Store      *asset.Store
	Shaders    *asset.Type[asset.Shader]
	Textures   *asset.Type[asset.Texture]
	Meshes     *asset.Type[asset.Mesh]
	Configs    *asset.Type[asset.Config]
	Prefabs    *asset.PrefabType
	Lua        *scripting.Engine
	Bus        *event.Bus

	// Loader receives resource uploads; Renderer receives per-frame draws.
	// Present drains Loader first so resources exist before they are used.
	Loader   *bytecode.Buffer
	Renderer *bytecode.Buffer

	runner  *coresys.Runner
	render  *system.RenderSystem
	vm      *gfx.VM
	watcher asset.Watcher
	log     *zap.Logger

	width, height int32
	frames        uint64
}

func New(cfg *config.Config, deps Deps) (*Context, error) {
	layout, err := ecs.ParseLayout(cfg.Engine.Storage)
	if err != nil {
		return nil, err
	}
	log := deps.Log

	c := &Context{
		Loader:   bytecode.New(bufferCapacity),
		Renderer: bytecode.New(bufferCapacity),
		Bus:      event.NewBus(),
		runner:   coresys.NewRunner(),
		watcher:  deps.Watcher,
		log:      log,
		width:    int32(cfg.Engine.WindowWidth),
		height:   int32(cfg.Engine.WindowHeight),
	}

	c.Store = asset.NewStore(deps.Source, c.Loader, log.Named("asset"))
	c.Shaders = asset.RegisterShader(c.Store)
	c.Textures = asset.RegisterTexture(c.Store)
	c.Meshes = asset.RegisterMesh(c.Store)
	c.Configs = asset.RegisterConfig(c.Store)
	c.Lua = scripting.NewEngine(c.Store, log.Named("lua"))

	reg := ecs.NewRegistry()
	c.Components = component.RegisterAll(reg, component.Assets{
		Shaders:  c.Shaders,
		Textures: c.Textures,
		Meshes:   c.Meshes,
		Scripts:  c.Lua.Scripts(),
	})
	c.World = ecs.NewWorld(reg, layout, log.Named("world"))
	c.Prefabs = asset.RegisterPrefab(c.Store, c.World)
	c.Lua.Bind(c.World, c.Components, c.Prefabs)

	if dir := cfg.Scripting.LibDir; dir != "" {
		if err := c.Lua.LoadDir(dir); err != nil {
			c.Lua.Close()
			return nil, fmt.Errorf("load lua libraries: %w", err)
		}
	}

	c.render = system.NewRenderSystem(c.World, c.Components, system.GPUAssets{
		Shaders:  c.Shaders,
		Textures: c.Textures,
		Meshes:   c.Meshes,
	}, c.Renderer, c.TargetSize)

	if c.watcher != nil {
		c.runner.Register(system.NewWatchSystem(c.watcher, c.Bus, log))
		system.SubscribeHotReload(c.Bus, c.Store)
	}
	c.runner.Register(system.NewEventDispatchSystem(c.Bus))
	c.runner.Register(system.NewScriptSystem(c.World, c.Components, c.Lua, log))
	c.runner.Register(c.render)
	c.runner.Register(system.NewCleanupSystem(c.World, c.Bus))

	c.vm = gfx.NewVM(deps.Backend, log.Named("gfx"))

	log.Info("engine context ready",
		zap.Stringer("storage", layout),
		zap.Int("components", reg.Count()),
		zap.Int("asset_types", c.Store.TypeCount()),
		zap.Bool("hot_reload", c.watcher != nil),
	)
	return c, nil
}

// Preload loads the manifest and every asset it lists.
func (c *Context) Preload(manifest string) error {
	m, err := c.Store.LoadManifest(manifest)
	if err != nil {
		return err
	}
	c.Store.Preload(m)
	return nil
}

// Spawn instantiates a prefab resource, loading it first when needed.
func (c *Context) Spawn(resource string) ecs.Entity {
	return c.Prefabs.Instantiate(c.Prefabs.Add(resource))
}

// SetTargetSize records the render target size used for camera viewports.
func (c *Context) SetTargetSize(width, height int32) {
	c.width, c.height = width, height
}

func (c *Context) TargetSize() (int32, int32) { return c.width, c.height }

// Frame runs every system once.
func (c *Context) Frame(dt time.Duration) {
	c.runner.Tick(dt)
	c.frames++
	if ce := c.log.Check(zap.DebugLevel, "frame timings"); ce != nil {
		ce.Write(
			zap.Uint64("frame", c.frames),
			zap.Duration("input", c.runner.Timing(coresys.PhaseInput)),
			zap.Duration("pre_update", c.runner.Timing(coresys.PhasePreUpdate)),
			zap.Duration("update", c.runner.Timing(coresys.PhaseUpdate)),
			zap.Duration("render", c.runner.Timing(coresys.PhaseRender)),
			zap.Duration("cleanup", c.runner.Timing(coresys.PhaseCleanup)),
		)
	}
}

func (c *Context) Frames() uint64 { return c.frames }

// Drawn returns the draws recorded by the last frame.
func (c *Context) Drawn() int { return c.render.Drawn() }

// Present plays the loader buffer, then the renderer buffer, through the
// VM and resets both.
func (c *Context) Present() error {
	defer c.Loader.Reset()
	defer c.Renderer.Reset()
	if err := c.vm.Render(c.Loader); err != nil {
		return fmt.Errorf("present loader: %w", err)
	}
	if err := c.vm.Render(c.Renderer); err != nil {
		return fmt.Errorf("present renderer: %w", err)
	}
	return nil
}

// Step runs one frame and presents it. A failed check inside the frame is
// returned as an error instead of unwinding the caller.
func (c *Context) Step(dt time.Duration) error {
	var perr error
	if err := check.Catch(func() {
		c.Frame(dt)
		perr = c.Present()
	}); err != nil {
		c.log.Error("check failed during frame", zap.Uint64("frame", c.frames), zap.Error(err))
		return err
	}
	return perr
}

// Resident reports what the VM currently holds on the backend.
func (c *Context) Resident() (shaders, textures, meshes int) { return c.vm.Resident() }

// Close releases every asset, flushes the resulting frees to the backend
// and stops the watcher and the Lua VM.
func (c *Context) Close() error {
	c.Store.Shutdown()
	err := c.Present()
	if c.watcher != nil {
		if werr := c.watcher.Close(); werr != nil && err == nil {
			err = werr
		}
	}
	c.Lua.Close()
	return err
}
