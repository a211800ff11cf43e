package asset

import (
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/ecs"
)

// Prefab is a template entity read from the text entity format. The
// template is hidden from queries; Instantiate makes live copies.
type Prefab struct {
	Entity ecs.Entity
}

// PrefabType is the registered prefab asset type bound to a world.
type PrefabType struct {
	*Type[Prefab]
	world *ecs.World
}

// RegisterPrefab registers the prefab type. Reloading a prefab rebuilds the
// template and overrides every live instance from it.
func RegisterPrefab(s *Store, w *ecs.World) *PrefabType {
	load := func(s *Store, resource string, v *Prefab) {
		v.Entity = w.Create()
		w.MarkTemplate(v.Entity)
		if text := s.ReadFile(resource); len(text) > 0 {
			w.SerializationRead(v.Entity, string(text))
		}
	}
	t := RegisterType(s, TypePrefab, Hooks[Prefab]{
		Load: func(s *Store, _ ecs.Ref, resource string, v *Prefab) {
			load(s, resource, v)
		},
		Unload: func(s *Store, _ ecs.Ref, v *Prefab) {
			if w.Exists(v.Entity) {
				w.Destroy(v.Entity)
			}
			v.Entity = ecs.Empty
		},
		Update: func(s *Store, _ ecs.Ref, resource string, v *Prefab) {
			old := v.Entity
			instances := w.InstancesOf(old)
			if w.Exists(old) {
				w.Destroy(old)
			}
			load(s, resource, v)
			for _, inst := range instances {
				w.Override(inst, v.Entity)
				w.SetPrototype(inst, v.Entity)
			}
			s.log.Debug("prefab instances refreshed",
				zap.String("resource", resource), zap.Int("instances", len(instances)))
		},
	})
	return &PrefabType{Type: t, world: w}
}

// Instantiate creates a live copy of the prefab, or Empty when ref is stale.
func (t *PrefabType) Instantiate(ref ecs.Ref) ecs.Entity {
	p := t.Get(ref)
	if p == nil || !t.world.Exists(p.Entity) {
		return ecs.Empty
	}
	return t.world.Instantiate(p.Entity)
}
