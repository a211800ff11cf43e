package ecs

import "github.com/feacur/customengine/internal/core/check"

// Pool is a GenPool with a parallel array of T instances.
// Instances are heap-allocated once per slot so pointers survive pool growth.
type Pool[T any] struct {
	gens      *GenPool
	instances []*T
	init      func(*T)
}

// NewPool creates a pool; init, when non-nil, runs on every freshly
// created instance after it is zeroed.
func NewPool[T any](init func(*T)) *Pool[T] {
	return &Pool[T]{
		gens:      NewGenPool(),
		instances: make([]*T, 0, 256),
		init:      init,
	}
}

func (p *Pool[T]) Create() Ref {
	ref := p.gens.Create()
	if int(ref.ID) == len(p.instances) {
		p.instances = append(p.instances, new(T))
	} else {
		var zero T
		*p.instances[ref.ID] = zero
	}
	if p.init != nil {
		p.init(p.instances[ref.ID])
	}
	return ref
}

func (p *Pool[T]) Destroy(ref Ref) {
	if !p.gens.Contains(ref) {
		check.True(false, "destroy of stale %s", ref)
		return
	}
	var zero T
	*p.instances[ref.ID] = zero
	p.gens.Destroy(ref)
}

func (p *Pool[T]) Contains(ref Ref) bool { return p.gens.Contains(ref) }

// GetFast skips the generation check; the caller must know ref is live.
func (p *Pool[T]) GetFast(ref Ref) *T { return p.instances[ref.ID] }

// GetSafe returns nil when ref is stale or empty.
func (p *Pool[T]) GetSafe(ref Ref) *T {
	if !p.gens.Contains(ref) {
		return nil
	}
	return p.instances[ref.ID]
}

func (p *Pool[T]) Live() int { return p.gens.Live() }

func (p *Pool[T]) Each(fn func(Ref, *T)) {
	p.gens.Each(func(ref Ref) {
		fn(ref, p.instances[ref.ID])
	})
}
