package system_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/core/event"
	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/gfx/bytecode"
	"github.com/feacur/customengine/internal/scripting"
	"github.com/feacur/customengine/internal/system"
)

type fixture struct {
	src      *asset.MemSource
	store    *asset.Store
	shaders  *asset.Type[asset.Shader]
	textures *asset.Type[asset.Texture]
	meshes   *asset.Type[asset.Mesh]
	configs  *asset.Type[asset.Config]
	lua      *scripting.Engine
	world    *ecs.World
	set      *component.Set
	bus      *event.Bus
	vm       *gfx.VM
	logs     *observer.ObservedLogs
	log      *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	f := &fixture{src: asset.NewMemSource(), bus: event.NewBus(), logs: logs, log: log}
	f.src.Put("s.kage", []byte("package main"))
	f.src.Put("m.obj", []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))

	f.store = asset.NewStore(f.src, bytecode.New(4096), log)
	f.shaders = asset.RegisterShader(f.store)
	f.textures = asset.RegisterTexture(f.store)
	f.meshes = asset.RegisterMesh(f.store)
	f.configs = asset.RegisterConfig(f.store)
	f.lua = scripting.NewEngine(f.store, log)
	t.Cleanup(f.lua.Close)

	reg := ecs.NewRegistry()
	f.set = component.RegisterAll(reg, component.Assets{
		Shaders:  f.shaders,
		Textures: f.textures,
		Meshes:   f.meshes,
		Scripts:  f.lua.Scripts(),
	})
	f.world = ecs.NewWorld(reg, ecs.LayoutSparse, log)
	f.lua.Bind(f.world, f.set, nil)
	f.vm = gfx.NewVM(gfx.NewLogBackend(log), log)
	return f
}

func (f *fixture) play(t *testing.T, buf *bytecode.Buffer) {
	t.Helper()
	require.NoError(t, f.vm.Render(buf))
	buf.Reset()
}

func (f *fixture) visual(shader, mesh string) *component.Visual {
	e := f.world.Create()
	f.set.Transform.Add(f.world, e)
	v := f.set.Visual.Add(f.world, e)
	v.Shader = f.shaders.Add(shader)
	v.Mesh = f.meshes.Add(mesh)
	return v
}

func TestRenderOrdersCamerasAndSkipsNonResident(t *testing.T) {
	f := newFixture(t)

	late := f.world.Create()
	f.set.Camera.Add(f.world, late).Order = 2
	early := f.world.Create()
	cam := f.set.Camera.Add(f.world, early)
	cam.Order = 1
	cam.Viewport = [4]int32{0, 0, 10, 10}

	f.visual("s.kage", "m.obj")
	f.visual("s.kage", "missing.obj")
	f.visual("s.kage", "m.obj").Hidden = true
	f.play(t, f.store.Loader())

	buf := bytecode.New(4096)
	render := system.NewRenderSystem(f.world, f.set, system.GPUAssets{
		Shaders:  f.shaders,
		Textures: f.textures,
		Meshes:   f.meshes,
	}, buf, func() (int32, int32) { return 640, 480 })
	render.Update(0)
	assert.Equal(t, 2, render.Drawn(), "one visible visual per camera")

	f.play(t, buf)
	viewports := f.logs.FilterMessage("viewport").All()
	require.Len(t, viewports, 2)
	assert.EqualValues(t, 10, viewports[0].ContextMap()["w"])
	assert.EqualValues(t, 640, viewports[1].ContextMap()["w"])
	assert.Equal(t, 2, f.logs.FilterMessage("draw").Len())
}

func TestRenderWithoutCamerasRecordsNothing(t *testing.T) {
	f := newFixture(t)
	f.visual("s.kage", "m.obj")

	buf := bytecode.New(256)
	render := system.NewRenderSystem(f.world, f.set, system.GPUAssets{
		Shaders: f.shaders, Textures: f.textures, Meshes: f.meshes,
	}, buf, func() (int32, int32) { return 1, 1 })
	render.Update(0)
	assert.Zero(t, render.Drawn())
	assert.Zero(t, buf.Len())
}

const mover = `
return {
  update = function(e, dt)
    local t = e:get("Transform")
    local x, y, z = t:get("position")
    t:set("position", x + 1, y, z)
  end,
}
`

func TestScriptSystemRunsUpdates(t *testing.T) {
	f := newFixture(t)
	f.src.Put("mover.lua", []byte(mover))
	f.src.Put("bad.lua", []byte(`return { update = function(e, dt) error("boom") end }`))

	spawn := func(script string, disabled bool) ecs.Entity {
		e := f.world.Create()
		f.set.Transform.Add(f.world, e)
		s := f.set.Script.Add(f.world, e)
		s.Asset = f.lua.Scripts().Add(script)
		s.Disabled = disabled
		return e
	}
	moving := spawn("mover.lua", false)
	paused := spawn("mover.lua", true)
	spawn("bad.lua", false)

	sys := system.NewScriptSystem(f.world, f.set, f.lua, f.log)
	sys.Update(0)
	sys.Update(0)

	assert.InDelta(t, 2, f.set.Transform.Of(f.world, moving).Position.X, 1e-6)
	assert.Zero(t, f.set.Transform.Of(f.world, paused).Position.X)
	assert.Equal(t, 2, f.logs.FilterMessage("script update failed").Len())
}

func TestCleanupAnnouncesDestroyedEntities(t *testing.T) {
	f := newFixture(t)
	var got []ecs.Entity
	event.Subscribe(f.bus, func(ev event.EntityDestroyed) { got = append(got, ev.Entity) })

	e := f.world.Create()
	f.world.MarkForDestruction(e)
	f.world.MarkForDestruction(e)

	system.NewCleanupSystem(f.world, f.bus).Update(0)
	assert.False(t, f.world.Exists(e))
	assert.Empty(t, got, "delivery waits for dispatch")

	system.NewEventDispatchSystem(f.bus).Update(0)
	assert.Equal(t, []ecs.Entity{e}, got)
}

type stubWatcher struct {
	events []asset.FileEvent
}

func (w *stubWatcher) Drain() []asset.FileEvent {
	out := w.events
	w.events = nil
	return out
}

func (w *stubWatcher) Close() error { return nil }

func TestWatchFeedsHotReload(t *testing.T) {
	f := newFixture(t)
	f.src.Put("game.toml", []byte("speed = 1\n"))
	ref := f.configs.Add("game.toml")
	require.EqualValues(t, 1, f.configs.Get(ref).GetInt("speed", 0))

	var reloaded []event.AssetReloaded
	event.Subscribe(f.bus, func(ev event.AssetReloaded) { reloaded = append(reloaded, ev) })
	system.SubscribeHotReload(f.bus, f.store)

	w := &stubWatcher{}
	watch := system.NewWatchSystem(w, f.bus, f.log)
	dispatch := system.NewEventDispatchSystem(f.bus)

	f.src.Put("game.toml", []byte("speed = 3\n"))
	w.events = []asset.FileEvent{{Name: "game.toml", Action: asset.Modified}}
	watch.Update(0)
	dispatch.Update(0)

	assert.EqualValues(t, 3, f.configs.Get(ref).GetInt("speed", 0), "reloaded in place")
	assert.Empty(t, reloaded, "announced on the next dispatch")

	dispatch.Update(0)
	require.Len(t, reloaded, 1)
	assert.Equal(t, ref, reloaded[0].Ref)
	assert.Equal(t, "game.toml", reloaded[0].Resource)
}
