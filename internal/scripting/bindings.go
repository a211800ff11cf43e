package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/ecs"
)

const (
	entityType    = "Entity"
	componentType = "Component"
	assetType     = "Asset"
)

// luaComponent is the userdata value behind a Component.
type luaComponent struct {
	entity ecs.Entity
	typ    ecs.TypeID
	ref    ecs.Ref
}

// luaAsset is the userdata value behind an Asset.
type luaAsset struct {
	typ string
	ref ecs.Ref
}

func (e *Engine) registerTypes() {
	L := e.vm

	mt := L.NewTypeMetatable(entityType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"exists":  e.entityExists,
		"valid":   e.entityExists,
		"has":     e.entityHas,
		"get":     e.entityGet,
		"add":     e.entityAdd,
		"remove":  e.entityRemove,
		"destroy": e.entityDestroy,
		"copy":    e.entityCopy,
	}))
	L.SetField(mt, "__eq", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(checkEntity(L, 1) == checkEntity(L, 2)))
		return 1
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkEntity(L, 1).String()))
		return 1
	}))

	mt = L.NewTypeMetatable(componentType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"valid":  e.componentValid,
		"name":   e.componentName,
		"entity": e.componentEntity,
		"get":    e.componentGetField,
		"set":    e.componentSetField,
	}))

	mt = L.NewTypeMetatable(assetType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"valid":    e.assetValid,
		"resource": e.assetResource,
	}))

	L.SetGlobal("engine", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"create":      e.engineCreate,
		"load":        e.engineLoad,
		"instantiate": e.engineInstantiate,
		"log":         e.engineLog,
	}))
}

func (e *Engine) newEntity(ent ecs.Entity) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ent
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(entityType))
	return ud
}

func (e *Engine) newComponent(c luaComponent) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = c
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(componentType))
	return ud
}

func (e *Engine) newAsset(a luaAsset) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = a
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(assetType))
	return ud
}

func checkEntity(L *lua.LState, n int) ecs.Entity {
	ud := L.CheckUserData(n)
	if ent, ok := ud.Value.(ecs.Entity); ok {
		return ent
	}
	L.ArgError(n, "Entity expected")
	return ecs.Empty
}

func checkComponent(L *lua.LState, n int) luaComponent {
	ud := L.CheckUserData(n)
	if c, ok := ud.Value.(luaComponent); ok {
		return c
	}
	L.ArgError(n, "Component expected")
	return luaComponent{}
}

func checkAsset(L *lua.LState, n int) luaAsset {
	ud := L.CheckUserData(n)
	if a, ok := ud.Value.(luaAsset); ok {
		return a
	}
	L.ArgError(n, "Asset expected")
	return luaAsset{}
}

// componentArg resolves a component type name argument.
func (e *Engine) componentArg(L *lua.LState, n int) ecs.TypeID {
	name := L.CheckString(n)
	id, ok := e.world.Registry().Lookup(name)
	if !ok {
		L.ArgError(n, "unknown component "+name)
	}
	return id
}

// liveEntity raises a Lua error when the entity is stale, the scripting
// counterpart of a failed handle check.
func (e *Engine) liveEntity(L *lua.LState, n int) ecs.Entity {
	ent := checkEntity(L, n)
	if !e.world.Exists(ent) {
		L.RaiseError("stale entity %s", ent)
	}
	return ent
}

func (e *Engine) entityExists(L *lua.LState) int {
	L.Push(lua.LBool(e.world.Exists(checkEntity(L, 1))))
	return 1
}

func (e *Engine) entityHas(L *lua.LState) int {
	ent := checkEntity(L, 1)
	L.Push(lua.LBool(e.world.HasComponent(ent, e.componentArg(L, 2))))
	return 1
}

func (e *Engine) entityGet(L *lua.LState) int {
	ent := checkEntity(L, 1)
	id := e.componentArg(L, 2)
	ref := e.world.GetComponent(ent, id)
	if ref.IsEmpty() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.newComponent(luaComponent{entity: ent, typ: id, ref: ref}))
	return 1
}

func (e *Engine) entityAdd(L *lua.LState) int {
	ent := e.liveEntity(L, 1)
	id := e.componentArg(L, 2)
	if e.world.HasComponent(ent, id) {
		L.RaiseError("entity %s already has %s", ent, e.world.Registry().Name(id))
	}
	ref := e.world.AddComponent(ent, id)
	L.Push(e.newComponent(luaComponent{entity: ent, typ: id, ref: ref}))
	return 1
}

func (e *Engine) entityRemove(L *lua.LState) int {
	ent := e.liveEntity(L, 1)
	id := e.componentArg(L, 2)
	if !e.world.HasComponent(ent, id) {
		L.RaiseError("entity %s has no %s", ent, e.world.Registry().Name(id))
	}
	e.world.RemoveComponent(ent, id)
	return 0
}

// entityDestroy defers destruction to the end of the frame so the running
// query loop keeps valid entities.
func (e *Engine) entityDestroy(L *lua.LState) int {
	e.world.MarkForDestruction(e.liveEntity(L, 1))
	return 0
}

func (e *Engine) entityCopy(L *lua.LState) int {
	ent := e.liveEntity(L, 1)
	L.Push(e.newEntity(e.world.Copy(ent, L.OptBool(2, false))))
	return 1
}

func (e *Engine) componentValid(L *lua.LState) int {
	c := checkComponent(L, 1)
	L.Push(lua.LBool(e.world.GetComponent(c.entity, c.typ) == c.ref && e.world.Registry().Contains(c.typ, c.ref)))
	return 1
}

func (e *Engine) componentName(L *lua.LState) int {
	L.Push(lua.LString(e.world.Registry().Name(checkComponent(L, 1).typ)))
	return 1
}

func (e *Engine) componentEntity(L *lua.LState) int {
	L.Push(e.newEntity(checkComponent(L, 1).entity))
	return 1
}

func (e *Engine) assetValid(L *lua.LState) int {
	a := checkAsset(L, 1)
	tid, ok := e.store.Lookup(a.typ)
	L.Push(lua.LBool(ok && e.store.Contains(tid, a.ref)))
	return 1
}

func (e *Engine) assetResource(L *lua.LState) int {
	a := checkAsset(L, 1)
	if tid, ok := e.store.Lookup(a.typ); ok {
		L.Push(lua.LString(e.store.Resource(tid, a.ref)))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func (e *Engine) engineCreate(L *lua.LState) int {
	L.Push(e.newEntity(e.world.Create()))
	return 1
}

// engineLoad is engine.load(type, resource).
func (e *Engine) engineLoad(L *lua.LState) int {
	typ := L.CheckString(1)
	resource := L.CheckString(2)
	tid, ok := e.store.Lookup(typ)
	if !ok {
		L.ArgError(1, "unknown asset type "+typ)
	}
	L.Push(e.newAsset(luaAsset{typ: typ, ref: e.store.Add(tid, resource)}))
	return 1
}

// engineInstantiate is engine.instantiate(prefab resource).
func (e *Engine) engineInstantiate(L *lua.LState) int {
	if e.prefabs == nil {
		L.RaiseError("prefabs are not available")
	}
	ref := e.prefabs.Add(L.CheckString(1))
	ent := e.prefabs.Instantiate(ref)
	if ent.IsEmpty() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.newEntity(ent))
	return 1
}

func (e *Engine) engineLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
