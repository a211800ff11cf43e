package ecs

import (
	"github.com/feacur/customengine/internal/core/check"
	"go.uber.org/zap"
)

type entityInfo struct {
	prototype Entity
	template  bool
}

type componentSlot struct {
	id  TypeID
	ref Ref
}

// World owns the entity pool, the component storage built over a frozen
// Registry, and a deferred destruction queue flushed at the end of a frame.
// A World is not safe for concurrent use; the game loop owns it.
type World struct {
	registry     *Registry
	entities     *Pool[entityInfo]
	storage      Storage
	destroyQueue []Entity
	log          *zap.Logger
}

// NewWorld freezes reg and builds a world using the given storage layout.
func NewWorld(reg *Registry, layout Layout, log *zap.Logger) *World {
	reg.Freeze()
	return &World{
		registry:     reg,
		entities:     NewPool(func(info *entityInfo) { info.prototype = Empty }),
		storage:      NewStorage(layout, reg.Count()),
		destroyQueue: make([]Entity, 0, 64),
		log:          log,
	}
}

func (w *World) Registry() *Registry { return w.registry }

func (w *World) Create() Entity {
	return w.entities.Create()
}

func (w *World) Exists(e Entity) bool {
	return w.entities.Contains(e)
}

// Count returns the number of live entities.
func (w *World) Count() int { return w.entities.Live() }

// Each calls fn for every live entity that is not a template.
func (w *World) Each(fn func(Entity)) {
	w.entities.Each(func(e Entity, info *entityInfo) {
		if !info.template {
			fn(e)
		}
	})
}

// MarkTemplate flags e as a prefab prototype. Templates are skipped by
// Each and the queries built on it; copies of a template are not templates.
func (w *World) MarkTemplate(e Entity) {
	if info := w.entities.GetSafe(e); info != nil {
		info.template = true
	}
}

func (w *World) IsTemplate(e Entity) bool {
	info := w.entities.GetSafe(e)
	return info != nil && info.template
}

// Destroy unloads and frees every component of e, then e itself.
func (w *World) Destroy(e Entity) {
	if !w.Exists(e) {
		check.True(false, "destroy of stale entity %s", e)
		return
	}
	for _, s := range w.snapshot(e) {
		vt := w.registry.vtable(s.id)
		if vt.contains(s.ref) {
			vt.unload(w, e, s.ref, true)
			vt.destroy(s.ref)
		}
		w.storage.Clear(e.ID, s.id)
	}
	w.entities.Destroy(e)
}

// MarkForDestruction queues an entity for end-of-frame cleanup.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyQueue = append(w.destroyQueue, e)
}

// FlushDestroyQueue destroys all queued entities that are still alive and
// returns them. Called by CleanupSystem at the end of each frame.
func (w *World) FlushDestroyQueue() []Entity {
	var destroyed []Entity
	for _, e := range w.destroyQueue {
		if w.Exists(e) {
			w.Destroy(e)
			destroyed = append(destroyed, e)
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	if len(destroyed) > 0 {
		w.log.Debug("destroy queue flushed",
			zap.Int("destroyed", len(destroyed)),
			zap.Int("live", w.Count()))
	}
	return destroyed
}

// AddComponent allocates a component of type id and attaches it to e.
// e must not already carry one.
func (w *World) AddComponent(e Entity, id TypeID) Ref {
	check.True(w.Exists(e), "add %s to stale entity %s", w.registry.Name(id), e)
	vt := w.registry.vtable(id)
	if old := w.storage.Get(e.ID, id); !old.IsEmpty() && vt.contains(old) {
		check.True(false, "entity %s already has %s", e, vt.name)
		return old
	}
	ref := vt.create()
	w.storage.Set(e.ID, id, ref)
	return ref
}

// RemoveComponent unloads and frees e's component of type id.
func (w *World) RemoveComponent(e Entity, id TypeID) {
	ref := w.GetComponent(e, id)
	if ref.IsEmpty() {
		check.True(false, "entity %s has no %s", e, w.registry.Name(id))
		return
	}
	vt := w.registry.vtable(id)
	vt.unload(w, e, ref, false)
	vt.destroy(ref)
	w.storage.Clear(e.ID, id)
}

func (w *World) HasComponent(e Entity, id TypeID) bool {
	return !w.GetComponent(e, id).IsEmpty()
}

// GetComponent returns e's component ref of type id, or Empty.
func (w *World) GetComponent(e Entity, id TypeID) Ref {
	if !w.Exists(e) {
		return Empty
	}
	ref := w.storage.Get(e.ID, id)
	if ref.IsEmpty() || !w.registry.vtable(id).contains(ref) {
		return Empty
	}
	return ref
}

// Components calls fn for each live component of e in a stable snapshot,
// so fn may add or remove components.
func (w *World) Components(e Entity, fn func(TypeID, Ref)) {
	if !w.Exists(e) {
		return
	}
	for _, s := range w.snapshot(e) {
		if w.registry.vtable(s.id).contains(s.ref) {
			fn(s.id, s.ref)
		}
	}
}

// Copy creates a new entity carrying copies of all of e's components.
// With asInstance the copy records e as its prototype; otherwise it
// inherits e's prototype, if any.
func (w *World) Copy(e Entity, asInstance bool) Entity {
	check.True(w.Exists(e), "copy of stale entity %s", e)
	proto := w.entities.GetFast(e).prototype
	if asInstance {
		proto = e
	}
	dst := w.Create()
	w.entities.GetFast(dst).prototype = proto
	w.Components(e, func(id TypeID, from Ref) {
		to := w.AddComponent(dst, id)
		w.registry.vtable(id).copy(w, e, from, dst, to)
	})
	return dst
}

// Override copies every component of src onto dst, adding the ones dst
// lacks. Components dst has and src lacks are left alone.
func (w *World) Override(dst, src Entity) {
	check.True(w.Exists(dst) && w.Exists(src), "override %s from %s: stale entity", dst, src)
	if dst == src {
		return
	}
	w.Components(src, func(id TypeID, from Ref) {
		to := w.GetComponent(dst, id)
		if to.IsEmpty() {
			to = w.AddComponent(dst, id)
		}
		w.registry.vtable(id).copy(w, src, from, dst, to)
	})
}

// Instantiate copies proto as an instance of it.
func (w *World) Instantiate(proto Entity) Entity {
	return w.Copy(proto, true)
}

// Prototype returns the entity e was instantiated from, or Empty.
func (w *World) Prototype(e Entity) Entity {
	info := w.entities.GetSafe(e)
	if info == nil || !w.Exists(info.prototype) {
		return Empty
	}
	return info.prototype
}

// SetPrototype relinks e to proto, which may be Empty.
func (w *World) SetPrototype(e, proto Entity) {
	check.True(w.Exists(e), "set prototype of stale entity %s", e)
	if info := w.entities.GetSafe(e); info != nil {
		info.prototype = proto
	}
}

// InstancesOf lists live entities whose prototype is proto.
func (w *World) InstancesOf(proto Entity) []Entity {
	var out []Entity
	w.entities.Each(func(e Entity, info *entityInfo) {
		if info.prototype == proto {
			out = append(out, e)
		}
	})
	return out
}

func (w *World) snapshot(e Entity) []componentSlot {
	var slots []componentSlot
	w.storage.Each(e.ID, func(id TypeID, ref Ref) {
		slots = append(slots, componentSlot{id: id, ref: ref})
	})
	return slots
}
