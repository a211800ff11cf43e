package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/vmath"
)

// field reads or writes one named value of a component. get pushes its
// results; set reads its arguments from index 3 on.
type field struct {
	get func(L *lua.LState, ref ecs.Ref) int
	set func(L *lua.LState, ref ecs.Ref)
}

func (e *Engine) fields(typ ecs.TypeID) map[string]field {
	s := e.set
	switch typ {
	case s.Transform.ID():
		c := s.Transform
		return map[string]field{
			"position": vec3Field(func(r ecs.Ref) *vmath.Vec3 { return &c.Get(r).Position }),
			"scale":    vec3Field(func(r ecs.Ref) *vmath.Vec3 { return &c.Get(r).Scale }),
			"rotation": {
				get: func(L *lua.LState, r ecs.Ref) int {
					q := c.Get(r).Rotation
					pushFloats(L, q.X, q.Y, q.Z, q.W)
					return 4
				},
				set: func(L *lua.LState, r ecs.Ref) {
					q := &c.Get(r).Rotation
					*q = vmath.Quat{
						X: float32(L.CheckNumber(3)),
						Y: float32(L.CheckNumber(4)),
						Z: float32(L.CheckNumber(5)),
						W: float32(L.CheckNumber(6)),
					}.Normalize()
				},
			},
		}
	case s.Camera.ID():
		c := s.Camera
		return map[string]field{
			"fov": {
				get: func(L *lua.LState, r ecs.Ref) int {
					L.Push(lua.LNumber(c.Get(r).FovY * 180 / math.Pi))
					return 1
				},
				set: func(L *lua.LState, r ecs.Ref) {
					c.Get(r).FovY = float32(L.CheckNumber(3)) * math.Pi / 180
				},
			},
			"ortho_size": floatField(func(r ecs.Ref) *float32 { return &c.Get(r).OrthoSize }),
			"order": {
				get: func(L *lua.LState, r ecs.Ref) int {
					L.Push(lua.LNumber(c.Get(r).Order))
					return 1
				},
				set: func(L *lua.LState, r ecs.Ref) { c.Get(r).Order = int32(L.CheckInt(3)) },
			},
		}
	case s.Visual.ID():
		c := s.Visual
		return map[string]field{
			"hidden": boolField(func(r ecs.Ref) *bool { return &c.Get(r).Hidden }),
		}
	case s.Script.ID():
		c := s.Script
		return map[string]field{
			"disabled": boolField(func(r ecs.Ref) *bool { return &c.Get(r).Disabled }),
		}
	case s.Hierarchy.ID():
		c := s.Hierarchy
		return map[string]field{
			"parent": {
				get: func(L *lua.LState, r ecs.Ref) int {
					p := c.Get(r).Parent
					if !e.world.Exists(p) {
						L.Push(lua.LNil)
						return 1
					}
					L.Push(e.newEntity(p))
					return 1
				},
			},
			"children": {
				get: func(L *lua.LState, r ecs.Ref) int {
					t := L.NewTable()
					for _, ch := range c.Get(r).Children {
						t.Append(e.newEntity(ch))
					}
					L.Push(t)
					return 1
				},
			},
		}
	}
	return nil
}

func (e *Engine) componentField(L *lua.LState) (luaComponent, field) {
	c := checkComponent(L, 1)
	name := L.CheckString(2)
	if !e.world.Registry().Contains(c.typ, c.ref) {
		L.RaiseError("stale %s component", e.world.Registry().Name(c.typ))
	}
	f, ok := e.fields(c.typ)[name]
	if !ok {
		L.ArgError(2, "unknown field "+name)
	}
	return c, f
}

// componentGetField is c:get(name).
func (e *Engine) componentGetField(L *lua.LState) int {
	c, f := e.componentField(L)
	return f.get(L, c.ref)
}

// componentSetField is c:set(name, values...).
func (e *Engine) componentSetField(L *lua.LState) int {
	c, f := e.componentField(L)
	if f.set == nil {
		L.RaiseError("field %s is read-only", L.CheckString(2))
	}
	f.set(L, c.ref)
	return 0
}

func pushFloats(L *lua.LState, vs ...float32) {
	for _, v := range vs {
		L.Push(lua.LNumber(v))
	}
}

func vec3Field(at func(ecs.Ref) *vmath.Vec3) field {
	return field{
		get: func(L *lua.LState, r ecs.Ref) int {
			v := at(r)
			pushFloats(L, v.X, v.Y, v.Z)
			return 3
		},
		set: func(L *lua.LState, r ecs.Ref) {
			*at(r) = vmath.Vec3{
				X: float32(L.CheckNumber(3)),
				Y: float32(L.CheckNumber(4)),
				Z: float32(L.CheckNumber(5)),
			}
		},
	}
}

func floatField(at func(ecs.Ref) *float32) field {
	return field{
		get: func(L *lua.LState, r ecs.Ref) int {
			L.Push(lua.LNumber(*at(r)))
			return 1
		},
		set: func(L *lua.LState, r ecs.Ref) { *at(r) = float32(L.CheckNumber(3)) },
	}
}

func boolField(at func(ecs.Ref) *bool) field {
	return field{
		get: func(L *lua.LState, r ecs.Ref) int {
			L.Push(lua.LBool(*at(r)))
			return 1
		},
		set: func(L *lua.LState, r ecs.Ref) { *at(r) = L.CheckBool(3) },
	}
}
