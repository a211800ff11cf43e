// Package scripting hosts gopher-lua scripts that drive entities.
package scripting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/core/ecs"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// TypeScript is the asset type name of Lua scripts.
const TypeScript = "script"

// Script is a compiled Lua chunk. The chunk returns a table whose update
// function ScriptSystem calls once per frame for every attached entity:
//
//	return {
//	  update = function(entity, dt) ... end,
//	}
type Script struct {
	Module *lua.LTable
}

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// frame loop).
type Engine struct {
	vm      *lua.LState
	world   *ecs.World
	set     *component.Set
	store   *asset.Store
	prefabs *asset.PrefabType
	scripts *asset.Type[Script]
	log     *zap.Logger
}

// NewEngine creates the VM and registers the Script asset type with store.
// It must run before the store's first Add. Bind attaches the world once it
// exists; no script runs before that, since loading waits for the first Add.
func NewEngine(store *asset.Store, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, store: store, log: log}
	e.scripts = asset.RegisterType(store, TypeScript, asset.Hooks[Script]{
		Load: func(s *asset.Store, _ ecs.Ref, resource string, v *Script) {
			v.Module = e.compile(resource, s.ReadFile(resource))
		},
		Unload: func(_ *asset.Store, _ ecs.Ref, v *Script) {
			v.Module = nil
		},
	})
	e.registerTypes()
	return e
}

// Bind attaches the world the bindings operate on. prefabs may be nil.
func (e *Engine) Bind(w *ecs.World, set *component.Set, prefabs *asset.PrefabType) {
	e.world = w
	e.set = set
	e.prefabs = prefabs
}

// Scripts is the Script asset type, used to resolve component references.
func (e *Engine) Scripts() *asset.Type[Script] { return e.scripts }

// State exposes the VM for tests and tooling.
func (e *Engine) State() *lua.LState { return e.vm }

func (e *Engine) compile(resource string, src []byte) *lua.LTable {
	if len(src) == 0 {
		return nil
	}
	fn, err := e.vm.Load(bytes.NewReader(src), resource)
	if err != nil {
		e.log.Error("lua compile error", zap.String("script", resource), zap.Error(err))
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		e.log.Error("lua chunk error", zap.String("script", resource), zap.Error(err))
		return nil
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	mod, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua script must return a table",
			zap.String("script", resource), zap.String("got", result.Type().String()))
		return nil
	}
	return mod
}

// LoadDir runs every .lua file of dir in name order, for shared helpers
// defined as globals. A missing directory is not an error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua library", zap.String("file", path))
	}
	return nil
}

// CallUpdate calls the update function of a script asset for entity ent.
// Scripts without an update function are skipped.
func (e *Engine) CallUpdate(script ecs.Ref, ent ecs.Entity, dt time.Duration) error {
	return e.Call(script, "update", ent, lua.LNumber(dt.Seconds()))
}

// Call invokes a named function of a script module with the entity as the
// first argument. A missing function is not an error.
func (e *Engine) Call(script ecs.Ref, name string, ent ecs.Entity, args ...lua.LValue) error {
	s := e.scripts.Get(script)
	if s == nil || s.Module == nil {
		return nil
	}
	fn, ok := s.Module.RawGetString(name).(*lua.LFunction)
	if !ok {
		return nil
	}
	callArgs := append([]lua.LValue{e.newEntity(ent)}, args...)
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, callArgs...); err != nil {
		return fmt.Errorf("%s.%s: %w", e.store.Resource(e.scripts.ID(), script), name, err)
	}
	return nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
