package component

import (
	"slices"

	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/vmath"
)

// Hierarchy links an entity to its parent and owns its children.
// Destroying an entity destroys its children; removing the component only
// detaches them. Copying clones the children recursively.
//
//	Hierarchy
//	>
//	!
//	Transform
//	position 1 0 0
//	<
type Hierarchy struct {
	Parent   ecs.Entity
	Children []ecs.Entity
}

func registerHierarchy(reg *ecs.Registry) *ecs.Component[Hierarchy] {
	var self *ecs.Component[Hierarchy]
	self = ecs.RegisterComponent(reg, "Hierarchy", ecs.Hooks[Hierarchy]{
		Init: func(h *Hierarchy) { h.Parent = ecs.Empty },
		Copy: func(w *ecs.World, _ ecs.Entity, src *Hierarchy, to ecs.Entity, dst *Hierarchy) {
			old := dst.Children
			dst.Children = nil
			for _, c := range old {
				if w.Exists(c) {
					w.Destroy(c)
				}
			}
			for _, c := range src.Children {
				if !w.Exists(c) {
					continue
				}
				clone := w.Copy(c, false)
				self.Ensure(w, clone).Parent = to
				dst.Children = append(dst.Children, clone)
			}
		},
		Unload: func(w *ecs.World, e ecs.Entity, h *Hierarchy, destroying bool) {
			if p := self.Of(w, h.Parent); p != nil {
				p.Children = without(p.Children, e)
			}
			children := h.Children
			h.Children = nil
			h.Parent = ecs.Empty
			for _, c := range children {
				if !w.Exists(c) {
					continue
				}
				if destroying {
					w.Destroy(c)
				} else if ch := self.Of(w, c); ch != nil {
					ch.Parent = ecs.Empty
				}
			}
		},
		Read: func(w *ecs.World, e ecs.Entity, h *Hierarchy, cur *ecs.Cursor) {
			w.ReadChildren(e, cur, func(child ecs.Entity) {
				self.Ensure(w, child).Parent = e
				h.Children = append(h.Children, child)
			})
		},
	})
	return self
}

// SetParent detaches child from its current parent and appends it to
// parent's children. An Empty parent only detaches.
func (s *Set) SetParent(w *ecs.World, child, parent ecs.Entity) {
	ch := s.Hierarchy.Ensure(w, child)
	if old := s.Hierarchy.Of(w, ch.Parent); old != nil {
		old.Children = without(old.Children, child)
	}
	ch.Parent = ecs.Empty
	if parent.IsEmpty() || !w.Exists(parent) {
		return
	}
	ph := s.Hierarchy.Ensure(w, parent)
	ph.Children = append(ph.Children, child)
	ch.Parent = parent
}

// without returns a fresh list so callers holding the old one keep it intact.
func without(list []ecs.Entity, e ecs.Entity) []ecs.Entity {
	return slices.DeleteFunc(slices.Clone(list), func(c ecs.Entity) bool { return c == e })
}

// WorldMatrix composes e's Transform with its ancestors'. Entities without
// a Transform contribute the identity.
func (s *Set) WorldMatrix(w *ecs.World, e ecs.Entity) vmath.Mat4 {
	m := vmath.Identity()
	for depth := 0; w.Exists(e) && depth < 64; depth++ {
		if t := s.Transform.Of(w, e); t != nil {
			m = t.Matrix().Mul(m)
		}
		h := s.Hierarchy.Of(w, e)
		if h == nil {
			break
		}
		e = h.Parent
	}
	return m
}
