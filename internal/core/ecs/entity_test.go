package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/core/ecs"
)

func TestGenPoolHandleValidity(t *testing.T) {
	p := ecs.NewGenPool()
	a := p.Create()
	b := p.Create()
	assert.True(t, p.Contains(a))
	assert.True(t, p.Contains(b))
	assert.Equal(t, 2, p.Len())

	p.Destroy(a)
	assert.False(t, p.Contains(a))
	assert.Equal(t, 1, p.Live())

	c := p.Create()
	assert.Equal(t, a.ID, c.ID, "freed slot is reused")
	assert.Greater(t, c.Gen, a.Gen)
	assert.True(t, p.Contains(c))
	assert.False(t, p.Contains(a), "old ref stays stale after reuse")
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, p.Len())
}

func TestGenPoolGenerationsNeverDecrease(t *testing.T) {
	p := ecs.NewGenPool()
	ref := p.Create()
	last := ref.Gen
	for i := 0; i < 10; i++ {
		p.Destroy(ref)
		ref = p.Create()
		require.Equal(t, uint32(0), ref.ID)
		require.Greater(t, ref.Gen, last)
		last = ref.Gen
	}
}

func TestGenPoolDestroyStaleIsCheckFailure(t *testing.T) {
	p := ecs.NewGenPool()
	ref := p.Create()
	p.Destroy(ref)

	err := check.Catch(func() { p.Destroy(ref) })
	assert.True(t, check.IsFailure(err))

	check.SetEnabled(false)
	defer check.SetEnabled(true)
	assert.NoError(t, check.Catch(func() { p.Destroy(ref) }))
	assert.Equal(t, 0, p.Live())
}

func TestGenPoolContainsOutOfRange(t *testing.T) {
	p := ecs.NewGenPool()
	assert.False(t, p.Contains(ecs.Ref{ID: 3}))
	assert.False(t, p.Contains(ecs.Empty))
}

func TestGenPoolEach(t *testing.T) {
	p := ecs.NewGenPool()
	a, b, c := p.Create(), p.Create(), p.Create()
	p.Destroy(b)

	var seen []ecs.Ref
	p.Each(func(r ecs.Ref) { seen = append(seen, r) })
	assert.Equal(t, []ecs.Ref{a, c}, seen)
}

func TestRefEquality(t *testing.T) {
	assert.Equal(t, ecs.Ref{ID: 1, Gen: 2}, ecs.Ref{ID: 1, Gen: 2})
	assert.NotEqual(t, ecs.Ref{ID: 1, Gen: 2}, ecs.Ref{ID: 1, Gen: 3})
	assert.True(t, ecs.Empty.IsEmpty())
	assert.False(t, ecs.Ref{}.IsEmpty())
	assert.Equal(t, "ref(4:1)", ecs.Ref{ID: 4, Gen: 1}.String())
}

func TestPoolTypedAccess(t *testing.T) {
	type thing struct{ n int }
	p := ecs.NewPool(func(v *thing) { v.n = 7 })

	r := p.Create()
	require.NotNil(t, p.GetSafe(r))
	assert.Equal(t, 7, p.GetFast(r).n)
	p.GetFast(r).n = 42

	ptr := p.GetFast(r)
	for i := 0; i < 1000; i++ {
		p.Create()
	}
	assert.Same(t, ptr, p.GetFast(r), "instances stay put while the pool grows")

	p.Destroy(r)
	assert.Nil(t, p.GetSafe(r))

	r2 := p.Create()
	assert.Equal(t, r.ID, r2.ID)
	assert.Equal(t, 7, p.GetFast(r2).n, "reused slots are reinitialised")
}
