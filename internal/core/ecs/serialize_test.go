package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feacur/customengine/internal/core/ecs"
)

const entityText = `
# a parent with two children
Tag
name root
Position
value 1 2 3
Physics
mass 10
Children
>
!
Tag
name first
Children
>
!
Tag
name nested
<
!
Position
value 7 8 9
<
Unknown stuff
`

func TestSerializationRead(t *testing.T) {
	eachLayout(t, func(t *testing.T, f *fixture) {
		w := f.world
		e := w.Create()
		w.SerializationRead(e, entityText)

		assert.Equal(t, "root", f.tag.Of(w, e).Name)
		assert.Equal(t, [3]float32{1, 2, 3}, f.position.Of(w, e).V)

		kids := f.children.Of(w, e).List
		require.Len(t, kids, 2)
		assert.Equal(t, "first", f.tag.Of(w, kids[0]).Name)
		assert.Equal(t, [3]float32{7, 8, 9}, f.position.Of(w, kids[1]).V)
		assert.Nil(t, f.tag.Of(w, kids[1]))

		nested := f.children.Of(w, kids[0]).List
		require.Len(t, nested, 1)
		assert.Equal(t, "nested", f.tag.Of(w, nested[0]).Name)
		assert.Equal(t, 4, w.Count())
	})
}

func TestSerializationSkipsOrphanChildLists(t *testing.T) {
	f := newFixture(ecs.LayoutSparse)
	w := f.world
	e := w.Create()
	w.SerializationRead(e, "Tag\nname a\n>\n!\nTag\nname lost\n>\n!\n<\n<\nPosition\nvalue 5\n")

	assert.Equal(t, "a", f.tag.Of(w, e).Name)
	assert.Equal(t, float32(5), f.position.Of(w, e).V[0])
	assert.Equal(t, 1, w.Count())
}

func TestCursor(t *testing.T) {
	cur := ecs.NewCursor("  # c\n\n key 1 2 \nnext\n")
	key, args, ok := cur.Field()
	require.True(t, ok)
	assert.Equal(t, "key", key)
	assert.Equal(t, []string{"1", "2"}, args)

	cur.Advance()
	line, ok := cur.Next()
	assert.True(t, ok)
	assert.Equal(t, "next", line)
	_, ok = cur.Peek()
	assert.False(t, ok)

	v := []float32{0, 0, 0}
	ecs.ParseFloats([]string{"1.5", "x"}, v)
	assert.Equal(t, []float32{1.5, 0, 0}, v)
}
