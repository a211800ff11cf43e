package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/gfx/bytecode"
)

type fixture struct {
	src     *asset.MemSource
	store   *asset.Store
	world   *ecs.World
	set     *component.Set
	prefabs *asset.PrefabType
	lua     *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{src: asset.NewMemSource()}
	log := zap.NewNop()
	f.store = asset.NewStore(f.src, bytecode.New(256), log)
	f.lua = NewEngine(f.store, log)
	asset.RegisterConfig(f.store)
	t.Cleanup(f.lua.Close)

	reg := ecs.NewRegistry()
	f.set = component.RegisterAll(reg, component.Assets{Scripts: f.lua.Scripts()})
	f.world = ecs.NewWorld(reg, ecs.LayoutSparse, log)
	f.prefabs = asset.RegisterPrefab(f.store, f.world)
	f.lua.Bind(f.world, f.set, f.prefabs)
	return f
}

// run executes a snippet with the entity bound to the global "ent".
func (f *fixture) run(t *testing.T, ent ecs.Entity, code string) error {
	t.Helper()
	f.lua.State().SetGlobal("ent", f.lua.newEntity(ent))
	return f.lua.State().DoString(code)
}

const mover = `
local speed = 2
return {
  update = function(e, dt)
    local t = e:get("Transform")
    local x, y, z = t:get("position")
    t:set("position", x + speed * dt, y, z)
  end,
}
`

func TestCallUpdateMovesEntity(t *testing.T) {
	f := newFixture(t)
	f.src.Put("scripts/mover.lua", []byte(mover))
	ref := f.lua.Scripts().Add("scripts/mover.lua")

	ent := f.world.Create()
	f.set.Transform.Add(f.world, ent)
	require.NoError(t, f.lua.CallUpdate(ref, ent, 500*time.Millisecond))
	require.NoError(t, f.lua.CallUpdate(ref, ent, 500*time.Millisecond))
	assert.InDelta(t, 2, f.set.Transform.Of(f.world, ent).Position.X, 1e-5)
}

func TestScriptHotReload(t *testing.T) {
	f := newFixture(t)
	f.src.Put("s.lua", []byte(`return { update = function(e, dt) e:get("Visual"):set("hidden", true) end }`))
	ref := f.lua.Scripts().Add("s.lua")
	ent := f.world.Create()
	v := f.set.Visual.Add(f.world, ent)

	require.NoError(t, f.lua.CallUpdate(ref, ent, 0))
	assert.True(t, v.Hidden)

	f.src.Put("s.lua", []byte(`return { update = function(e, dt) e:get("Visual"):set("hidden", false) end }`))
	reloaded := f.store.HandleEvent(asset.FileEvent{Name: "s.lua", Action: asset.Modified})
	require.Len(t, reloaded, 1)
	assert.Equal(t, ref, reloaded[0].Ref)

	require.NoError(t, f.lua.CallUpdate(ref, ent, 0))
	assert.False(t, v.Hidden)
}

func TestBrokenScriptsAreEmpty(t *testing.T) {
	f := newFixture(t)
	f.src.Put("syntax.lua", []byte(`return {`))
	f.src.Put("value.lua", []byte(`return 42`))
	f.src.Put("noupdate.lua", []byte(`return {}`))
	ent := f.world.Create()

	for _, name := range []string{"syntax.lua", "value.lua", "noupdate.lua", "missing.lua"} {
		ref := f.lua.Scripts().Add(name)
		assert.True(t, f.lua.Scripts().Contains(ref), name)
		assert.NoError(t, f.lua.CallUpdate(ref, ent, 0), name)
	}
}

func TestRuntimeErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	f.src.Put("boom.lua", []byte(`return { update = function(e, dt) error("boom") end }`))
	ref := f.lua.Scripts().Add("boom.lua")

	err := f.lua.CallUpdate(ref, f.world.Create(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom.lua.update")
	assert.Contains(t, err.Error(), "boom")
}

func TestEntityBindings(t *testing.T) {
	f := newFixture(t)
	ent := f.world.Create()

	require.NoError(t, f.run(t, ent, `
assert(ent:exists())
assert(not ent:has("Transform"))
local t = ent:add("Transform")
assert(t:valid())
assert(t:name() == "Transform")
assert(t:entity() == ent)
assert(ent:has("Transform"))
t:set("scale", 2, 3, 4)
local sx, sy, sz = t:get("scale")
assert(sx == 2 and sy == 3 and sz == 4)
ent:remove("Transform")
assert(not t:valid())
assert(ent:get("Transform") == nil)
copy = ent:copy()
assert(copy ~= ent)
assert(tostring(ent) ~= "")
`))
	copy := f.lua.State().GetGlobal("copy").(*lua.LUserData).Value.(ecs.Entity)
	assert.True(t, f.world.Exists(copy))

	require.NoError(t, f.run(t, ent, `ent:destroy()`))
	assert.True(t, f.world.Exists(ent), "destroy is deferred")
	f.world.FlushDestroyQueue()
	assert.False(t, f.world.Exists(ent))

	require.NoError(t, f.run(t, ent, `assert(not ent:valid())`))
	assert.Error(t, f.run(t, ent, `ent:add("Transform")`))
}

func TestBindingErrors(t *testing.T) {
	f := newFixture(t)
	ent := f.world.Create()
	f.set.Transform.Add(f.world, ent)

	for name, code := range map[string]string{
		"duplicate add":   `ent:add("Transform")`,
		"remove missing":  `ent:remove("Camera")`,
		"unknown type":    `ent:has("Nope")`,
		"unknown field":   `ent:get("Transform"):get("nope")`,
		"read-only field": `ent:add("Hierarchy"):set("children", 1)`,
		"bad self":        `ent.exists(42)`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, f.run(t, ent, code))
		})
	}
}

func TestEngineTable(t *testing.T) {
	f := newFixture(t)
	f.src.Put("p.txt", []byte("Transform\nposition 7 0 0\n"))
	f.src.Put("c.toml", []byte("x = 1\n"))

	require.NoError(t, f.run(t, ecs.Empty, `
e = engine.create()
assert(e:exists())
inst = engine.instantiate("p.txt")
local a = engine.load("config", "c.toml")
assert(a:valid())
assert(a:resource() == "c.toml")
engine.log("hello")
assert(API_VERSION == 1)
`))
	inst := f.lua.State().GetGlobal("inst").(*lua.LUserData).Value.(ecs.Entity)
	assert.Equal(t, float32(7), f.set.Transform.Of(f.world, inst).Position.X)

	assert.Error(t, f.run(t, ecs.Empty, `engine.load("nope", "x")`))
}

func TestLoadDir(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte("function double(x) return x * 2 end"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte("answer = double(21)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	require.NoError(t, f.lua.LoadDir(dir))
	assert.Equal(t, lua.LNumber(42), f.lua.State().GetGlobal("answer"))
	assert.NoError(t, f.lua.LoadDir(filepath.Join(dir, "missing")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.lua"), []byte("error('bad')"), 0o644))
	assert.Error(t, f.lua.LoadDir(dir))
}
