package ecs

import "github.com/feacur/customengine/internal/core/check"

// TypeID is the dense id a component type receives at registration.
type TypeID uint32

// componentVTable holds the type-erased operations of one component type.
type componentVTable struct {
	name          string
	create        func() Ref
	destroy       func(Ref)
	contains      func(Ref) bool
	copy          func(w *World, from Entity, fromRef Ref, to Entity, toRef Ref)
	unload        func(w *World, e Entity, ref Ref, destroying bool)
	serializeRead func(w *World, e Entity, ref Ref, cur *Cursor)
}

// Registry maps TypeIDs to component operation tables. It is filled once at
// startup and frozen when the first World is built on it.
type Registry struct {
	vtables []componentVTable
	byName  map[string]TypeID
	frozen  bool
}

func NewRegistry() *Registry {
	return &Registry{
		vtables: make([]componentVTable, 0, 16),
		byName:  make(map[string]TypeID, 16),
	}
}

// Hooks customise a component type. Nil hooks fall back to defaults:
// Copy is a memberwise copy, the others do nothing.
type Hooks[T any] struct {
	Init   func(c *T)
	Copy   func(w *World, from Entity, src *T, to Entity, dst *T)
	Unload func(w *World, e Entity, c *T, destroying bool)
	Read   func(w *World, e Entity, c *T, cur *Cursor)
}

// Component is the typed view of a registered component type.
type Component[T any] struct {
	id   TypeID
	name string
	pool *Pool[T]
}

// RegisterComponent appends T to the registry under name and returns its
// typed view. The TypeID equals the registration order.
func RegisterComponent[T any](r *Registry, name string, hooks Hooks[T]) *Component[T] {
	check.True(!r.frozen, "register %q after freeze", name)
	_, dup := r.byName[name]
	check.True(!dup, "component %q registered twice", name)

	c := &Component[T]{
		id:   TypeID(len(r.vtables)),
		name: name,
		pool: NewPool(hooks.Init),
	}
	pool := c.pool
	vt := componentVTable{
		name:     name,
		create:   pool.Create,
		destroy:  pool.Destroy,
		contains: pool.Contains,
		copy: func(w *World, from Entity, fromRef Ref, to Entity, toRef Ref) {
			src, dst := pool.GetFast(fromRef), pool.GetFast(toRef)
			if hooks.Copy != nil {
				hooks.Copy(w, from, src, to, dst)
				return
			}
			*dst = *src
		},
		unload: func(w *World, e Entity, ref Ref, destroying bool) {
			if hooks.Unload != nil {
				hooks.Unload(w, e, pool.GetFast(ref), destroying)
			}
		},
		serializeRead: func(w *World, e Entity, ref Ref, cur *Cursor) {
			if hooks.Read != nil {
				hooks.Read(w, e, pool.GetFast(ref), cur)
			}
		},
	}
	r.vtables = append(r.vtables, vt)
	r.byName[name] = c.id
	return c
}

// Freeze closes registration.
func (r *Registry) Freeze() { r.frozen = true }

func (r *Registry) Frozen() bool { return r.frozen }

// Count returns the number of registered types.
func (r *Registry) Count() int { return len(r.vtables) }

// Lookup resolves a component name used by the text format.
func (r *Registry) Lookup(name string) (TypeID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *Registry) Name(id TypeID) string { return r.vtable(id).name }

// Create allocates a detached component of type id.
func (r *Registry) Create(id TypeID) Ref { return r.vtable(id).create() }

// Destroy frees a component of type id.
func (r *Registry) Destroy(id TypeID, ref Ref) { r.vtable(id).destroy(ref) }

// Contains reports whether ref is a live component of type id.
func (r *Registry) Contains(id TypeID, ref Ref) bool {
	return !ref.IsEmpty() && r.vtable(id).contains(ref)
}

func (r *Registry) vtable(id TypeID) *componentVTable {
	if int(id) >= len(r.vtables) {
		check.True(false, "component type id %d out of range (%d registered)", id, len(r.vtables))
	}
	return &r.vtables[id]
}

func (c *Component[T]) ID() TypeID     { return c.id }
func (c *Component[T]) Name() string   { return c.name }
func (c *Component[T]) Pool() *Pool[T] { return c.pool }

// Get returns the instance behind ref, or nil when ref is stale.
func (c *Component[T]) Get(ref Ref) *T { return c.pool.GetSafe(ref) }

// Of returns e's instance of this type, or nil.
func (c *Component[T]) Of(w *World, e Entity) *T {
	return c.pool.GetSafe(w.GetComponent(e, c.id))
}

// Add attaches a new instance to e.
func (c *Component[T]) Add(w *World, e Entity) *T {
	return c.pool.GetFast(w.AddComponent(e, c.id))
}

// Ensure returns e's instance, adding one first when absent.
func (c *Component[T]) Ensure(w *World, e Entity) *T {
	if v := c.Of(w, e); v != nil {
		return v
	}
	return c.Add(w, e)
}
