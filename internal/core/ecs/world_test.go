package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/core/ecs"
)

type position struct {
	V [3]float32
}

type tag struct {
	Name string
}

type children struct {
	List []ecs.Entity
}

type fixture struct {
	world    *ecs.World
	position *ecs.Component[position]
	tag      *ecs.Component[tag]
	children *ecs.Component[children]
	unloads  []string
	logs     *observer.ObservedLogs
}

func newFixture(layout ecs.Layout) *fixture {
	f := &fixture{}
	reg := ecs.NewRegistry()
	f.position = ecs.RegisterComponent(reg, "Position", ecs.Hooks[position]{
		Read: func(_ *ecs.World, _ ecs.Entity, c *position, cur *ecs.Cursor) {
			for {
				key, args, ok := cur.Field()
				if !ok || key != "value" {
					return
				}
				ecs.ParseFloats(args, c.V[:])
				cur.Advance()
			}
		},
	})
	f.tag = ecs.RegisterComponent(reg, "Tag", ecs.Hooks[tag]{
		Unload: func(_ *ecs.World, _ ecs.Entity, c *tag, destroying bool) {
			suffix := ":remove"
			if destroying {
				suffix = ":destroy"
			}
			f.unloads = append(f.unloads, c.Name+suffix)
		},
		Read: func(_ *ecs.World, _ ecs.Entity, c *tag, cur *ecs.Cursor) {
			if key, args, ok := cur.Field(); ok && key == "name" && len(args) > 0 {
				c.Name = args[0]
				cur.Advance()
			}
		},
	})
	f.children = ecs.RegisterComponent(reg, "Children", ecs.Hooks[children]{
		Copy: func(w *ecs.World, _ ecs.Entity, src *children, _ ecs.Entity, dst *children) {
			dst.List = nil
			for _, c := range src.List {
				dst.List = append(dst.List, w.Copy(c, false))
			}
		},
		Unload: func(w *ecs.World, _ ecs.Entity, c *children, destroying bool) {
			list := c.List
			c.List = nil
			if !destroying {
				return
			}
			for _, child := range list {
				if w.Exists(child) {
					w.Destroy(child)
				}
			}
		},
		Read: func(w *ecs.World, e ecs.Entity, c *children, cur *ecs.Cursor) {
			w.ReadChildren(e, cur, func(child ecs.Entity) {
				c.List = append(c.List, child)
			})
		},
	})
	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs
	f.world = ecs.NewWorld(reg, layout, zap.New(core))
	return f
}

func eachLayout(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, layout := range []ecs.Layout{ecs.LayoutSparse, ecs.LayoutDense} {
		t.Run(layout.String(), func(t *testing.T) {
			fn(t, newFixture(layout))
		})
	}
}

func TestRegistryAssignsDenseIDs(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	reg := f.world.Registry()
	assert.Equal(t, 3, reg.Count())
	assert.Equal(t, ecs.TypeID(0), f.position.ID())
	assert.Equal(t, ecs.TypeID(2), f.children.ID())

	id, ok := reg.Lookup("Tag")
	require.True(t, ok)
	assert.Equal(t, f.tag.ID(), id)
	assert.Equal(t, "Tag", reg.Name(id))

	_, ok = reg.Lookup("Nope")
	assert.False(t, ok)
}

func TestRegistryRejectsLateAndOutOfRange(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	reg := f.world.Registry()
	assert.True(t, reg.Frozen())

	err := check.Catch(func() { ecs.RegisterComponent(reg, "Late", ecs.Hooks[tag]{}) })
	assert.True(t, check.IsFailure(err))

	err = check.Catch(func() { reg.Create(ecs.TypeID(99)) })
	assert.True(t, check.IsFailure(err))
}

func TestRegistryTypeErasedOps(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	reg := f.world.Registry()
	ref := reg.Create(f.position.ID())
	assert.True(t, reg.Contains(f.position.ID(), ref))
	reg.Destroy(f.position.ID(), ref)
	assert.False(t, reg.Contains(f.position.ID(), ref))
	assert.False(t, reg.Contains(f.position.ID(), ecs.Empty))
}

func TestDestroyKeepsOtherEntitiesIntact(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		e1, e2, e3 := w.Create(), w.Create(), w.Create()
		f.position.Add(w, e2).V = [3]float32{1, 2, 3}
		f.position.Add(w, e1)

		w.Destroy(e1)

		assert.False(t, w.Exists(e1))
		assert.True(t, w.Exists(e3))
		require.NotNil(t, f.position.Of(w, e2))
		assert.Equal(t, [3]float32{1, 2, 3}, f.position.Of(w, e2).V)
		assert.Equal(t, 2, w.Count())
	})
}

func TestDestroyTearsDownEveryComponent(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		e := w.Create()
		pos := w.AddComponent(e, f.position.ID())
		f.tag.Add(w, e).Name = "a"

		tagRef := w.GetComponent(e, f.tag.ID())
		w.Destroy(e)

		assert.False(t, f.position.Pool().Contains(pos))
		assert.False(t, f.tag.Pool().Contains(tagRef))
		for id := 0; id < w.Registry().Count(); id++ {
			assert.False(t, w.HasComponent(e, ecs.TypeID(id)))
		}
		assert.Equal(t, []string{"a:destroy"}, f.unloads)

		// The slot's next occupant must not inherit anything.
		next := w.Create()
		assert.Equal(t, e.ID, next.ID)
		assert.False(t, w.HasComponent(next, f.tag.ID()))
		assert.False(t, w.HasComponent(e, f.tag.ID()))
	})
}

func TestAddRemoveComponent(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		e := w.Create()
		assert.False(t, w.HasComponent(e, f.tag.ID()))
		assert.Equal(t, ecs.Empty, w.GetComponent(e, f.tag.ID()))

		ref := w.AddComponent(e, f.tag.ID())
		assert.True(t, w.HasComponent(e, f.tag.ID()))
		assert.Equal(t, ref, w.GetComponent(e, f.tag.ID()))
		f.tag.Get(ref).Name = "b"

		err := check.Catch(func() { w.AddComponent(e, f.tag.ID()) })
		assert.True(t, check.IsFailure(err), "adding twice is a programmer error")

		w.RemoveComponent(e, f.tag.ID())
		assert.False(t, w.HasComponent(e, f.tag.ID()))
		assert.False(t, f.tag.Pool().Contains(ref))
		assert.Equal(t, []string{"b:remove"}, f.unloads)

		err = check.Catch(func() { w.RemoveComponent(e, f.tag.ID()) })
		assert.True(t, check.IsFailure(err))
	})
}

func TestCopyIsIndependent(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		src := w.Create()
		f.position.Add(w, src).V = [3]float32{4, 5, 6}
		f.tag.Add(w, src).Name = "src"

		dst := w.Copy(src, false)
		require.True(t, w.Exists(dst))
		assert.NotEqual(t, w.GetComponent(src, f.position.ID()), w.GetComponent(dst, f.position.ID()))
		assert.Equal(t, [3]float32{4, 5, 6}, f.position.Of(w, dst).V)

		f.position.Of(w, dst).V[0] = 100
		assert.Equal(t, float32(4), f.position.Of(w, src).V[0])
		assert.Equal(t, ecs.Empty, w.Prototype(dst))
	})
}

func TestCopyClonesChildrenRecursively(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		root := w.Create()
		child := w.Create()
		grandchild := w.Create()
		f.tag.Add(w, grandchild).Name = "leaf"
		f.children.Add(w, child).List = []ecs.Entity{grandchild}
		f.children.Add(w, root).List = []ecs.Entity{child}

		clone := w.Copy(root, true)
		assert.Equal(t, root, w.Prototype(clone))
		assert.Equal(t, []ecs.Entity{clone}, w.InstancesOf(root))

		kids := f.children.Of(w, clone).List
		require.Len(t, kids, 1)
		assert.NotEqual(t, child, kids[0])
		grand := f.children.Of(w, kids[0]).List
		require.Len(t, grand, 1)
		assert.Equal(t, "leaf", f.tag.Of(w, grand[0]).Name)

		w.Destroy(clone)
		assert.False(t, w.Exists(kids[0]))
		assert.False(t, w.Exists(grand[0]))
		assert.True(t, w.Exists(grandchild))
	})
}

func TestOverride(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		proto := w.Create()
		f.position.Add(w, proto).V = [3]float32{1, 1, 1}
		f.tag.Add(w, proto).Name = "proto"

		inst := w.Create()
		f.position.Add(w, inst).V = [3]float32{9, 9, 9}

		w.Override(inst, proto)
		assert.Equal(t, [3]float32{1, 1, 1}, f.position.Of(w, inst).V)
		require.NotNil(t, f.tag.Of(w, inst))
		assert.Equal(t, "proto", f.tag.Of(w, inst).Name)
	})
}

func TestDeferredDestruction(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	w := f.world
	a, b := w.Create(), w.Create()
	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	assert.True(t, w.Exists(a))

	assert.Len(t, w.FlushDestroyQueue(), 1)
	assert.False(t, w.Exists(a))
	assert.True(t, w.Exists(b))
	assert.Empty(t, w.FlushDestroyQueue())

	flushed := f.logs.FilterMessage("destroy queue flushed").All()
	require.Len(t, flushed, 1)
	assert.EqualValues(t, 1, flushed[0].ContextMap()["destroyed"])
	assert.EqualValues(t, 1, flushed[0].ContextMap()["live"])
}

func TestEachQueries(t *testing.T) {
	f := newFixture(ecs.LayoutDense)
	w := f.world
	a, b := w.Create(), w.Create()
	f.position.Add(w, a)
	f.position.Add(w, b)
	f.tag.Add(w, b).Name = "b"

	var both []ecs.Entity
	ecs.Each2(w, f.position, f.tag, func(e ecs.Entity, _ *position, _ *tag) {
		both = append(both, e)
	})
	assert.Equal(t, []ecs.Entity{b}, both)

	n := 0
	ecs.Each1(w, f.position, func(ecs.Entity, *position) { n++ })
	assert.Equal(t, 2, n)
}

func TestTemplatesAreHiddenFromQueries(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	w := f.world
	proto := w.Create()
	w.MarkTemplate(proto)
	w.SerializationRead(proto, "Position\nvalue 1\nChildren\n>\n!\nPosition\n<\n")
	require.Len(t, f.children.Of(w, proto).List, 1)
	child := f.children.Of(w, proto).List[0]
	assert.True(t, w.IsTemplate(child))

	n := 0
	ecs.Each1(w, f.position, func(ecs.Entity, *position) { n++ })
	assert.Equal(t, 0, n)

	inst := w.Instantiate(proto)
	assert.False(t, w.IsTemplate(inst))
	assert.False(t, w.IsTemplate(f.children.Of(w, inst).List[0]))
	ecs.Each1(w, f.position, func(ecs.Entity, *position) { n++ })
	assert.Equal(t, 2, n)
	assert.Equal(t, proto, w.Prototype(inst))
}
