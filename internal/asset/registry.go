package asset

import (
	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/core/ecs"
)

// TypeID is the dense id an asset type receives at registration.
type TypeID uint32

// assetVTable holds the type-erased operations of one asset type.
type assetVTable struct {
	name     string
	create   func() ecs.Ref
	destroy  func(ecs.Ref)
	contains func(ecs.Ref) bool
	load     func(s *Store, ref ecs.Ref, resource string)
	unload   func(s *Store, ref ecs.Ref)
	update   func(s *Store, ref ecs.Ref, resource string)
}

// Hooks customise an asset type. A nil Update reloads in place: Unload,
// reset to the zero value, Load. Either way the handle survives.
type Hooks[T any] struct {
	Load   func(s *Store, ref ecs.Ref, resource string, v *T)
	Unload func(s *Store, ref ecs.Ref, v *T)
	Update func(s *Store, ref ecs.Ref, resource string, v *T)
}

// Type is the typed view of a registered asset type.
type Type[T any] struct {
	id    TypeID
	name  string
	pool  *ecs.Pool[T]
	store *Store
}

// RegisterType appends T to the store's registry. Registration closes
// with the first Add.
func RegisterType[T any](s *Store, name string, hooks Hooks[T]) *Type[T] {
	check.True(!s.frozen, "register asset type %q after first add", name)
	_, dup := s.byName[name]
	check.True(!dup, "asset type %q registered twice", name)

	t := &Type[T]{
		id:    TypeID(len(s.vtables)),
		name:  name,
		pool:  ecs.NewPool[T](nil),
		store: s,
	}
	pool := t.pool
	load := func(s *Store, ref ecs.Ref, resource string) {
		if hooks.Load != nil {
			hooks.Load(s, ref, resource, pool.GetFast(ref))
		}
	}
	unload := func(s *Store, ref ecs.Ref) {
		if hooks.Unload != nil {
			hooks.Unload(s, ref, pool.GetFast(ref))
		}
	}
	update := func(s *Store, ref ecs.Ref, resource string) {
		if hooks.Update != nil {
			hooks.Update(s, ref, resource, pool.GetFast(ref))
			return
		}
		unload(s, ref)
		var zero T
		*pool.GetFast(ref) = zero
		load(s, ref, resource)
	}
	s.vtables = append(s.vtables, assetVTable{
		name:     name,
		create:   pool.Create,
		destroy:  pool.Destroy,
		contains: pool.Contains,
		load:     load,
		unload:   unload,
		update:   update,
	})
	s.byName[name] = t.id
	return t
}

func (t *Type[T]) ID() TypeID   { return t.id }
func (t *Type[T]) Name() string { return t.name }

// Add returns the live asset for resource, loading it on first use.
func (t *Type[T]) Add(resource string) ecs.Ref { return t.store.Add(t.id, resource) }

// Find returns the live asset for resource without loading it.
func (t *Type[T]) Find(resource string) ecs.Ref { return t.store.Find(t.id, resource) }

// Get returns the instance behind ref, or nil when ref is stale.
func (t *Type[T]) Get(ref ecs.Ref) *T { return t.pool.GetSafe(ref) }

func (t *Type[T]) Remove(ref ecs.Ref) { t.store.Remove(t.id, ref) }

func (t *Type[T]) Contains(ref ecs.Ref) bool { return t.pool.Contains(ref) }

// Lookup resolves an asset type name.
func (s *Store) Lookup(name string) (TypeID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// TypeName returns the registered name of id.
func (s *Store) TypeName(id TypeID) string { return s.vtable(id).name }

// TypeCount returns the number of registered asset types.
func (s *Store) TypeCount() int { return len(s.vtables) }

func (s *Store) vtable(id TypeID) *assetVTable {
	if int(id) >= len(s.vtables) {
		check.True(false, "asset type id %d out of range (%d registered)", id, len(s.vtables))
	}
	return &s.vtables[id]
}
