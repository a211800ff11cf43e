package ecs

import (
	"fmt"
	"math"

	"github.com/feacur/customengine/internal/core/check"
)

// InvalidID marks an empty Ref.
const InvalidID = math.MaxUint32

// Ref is a generation-counted handle into a GenPool slot. A Ref stays
// detectably stale once its slot is freed, even after the slot is reused.
type Ref struct {
	ID  uint32
	Gen uint32
}

// Empty is the Ref that points at nothing.
var Empty = Ref{ID: InvalidID}

func (r Ref) IsEmpty() bool { return r.ID == InvalidID }

func (r Ref) String() string {
	if r.IsEmpty() {
		return "ref(empty)"
	}
	return fmt.Sprintf("ref(%d:%d)", r.ID, r.Gen)
}

// Entity is a Ref into a World's entity pool.
type Entity = Ref

// GenPool manages slot allocation with generational indices and a free list.
type GenPool struct {
	generations []uint32
	freed       []bool
	freeList    []uint32
}

func NewGenPool() *GenPool {
	return &GenPool{
		generations: make([]uint32, 0, 256),
		freed:       make([]bool, 0, 256),
		freeList:    make([]uint32, 0, 64),
	}
}

// Create reuses the most recently freed slot or grows the pool.
func (p *GenPool) Create() Ref {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.freed[idx] = false
		return Ref{ID: idx, Gen: p.generations[idx]}
	}
	idx := uint32(len(p.generations))
	check.True(idx != InvalidID, "generation pool exhausted")
	p.generations = append(p.generations, 0)
	p.freed = append(p.freed, false)
	return Ref{ID: idx, Gen: 0}
}

// Contains reports whether ref still names a live slot.
func (p *GenPool) Contains(ref Ref) bool {
	return int(ref.ID) < len(p.generations) && p.generations[ref.ID] == ref.Gen && !p.freed[ref.ID]
}

// Destroy frees the slot and bumps its generation. Destroying a stale or
// foreign ref is a programmer error.
func (p *GenPool) Destroy(ref Ref) {
	if !p.Contains(ref) {
		check.True(false, "destroy of stale %s", ref)
		return
	}
	p.generations[ref.ID]++
	p.freed[ref.ID] = true
	p.freeList = append(p.freeList, ref.ID)
}

// Len returns the high-water mark of ever-allocated slots.
func (p *GenPool) Len() int { return len(p.generations) }

// Live returns the number of allocated slots.
func (p *GenPool) Live() int { return len(p.generations) - len(p.freeList) }

// Each calls fn for every live slot in index order.
func (p *GenPool) Each(fn func(Ref)) {
	for i, gen := range p.generations {
		if !p.freed[i] {
			fn(Ref{ID: uint32(i), Gen: gen})
		}
	}
}
