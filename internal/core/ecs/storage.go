package ecs

import "fmt"

// Layout selects how entities map to their component refs.
type Layout int

const (
	// LayoutSparse keeps one row of refs per entity: O(1) lookup,
	// entity*typeCount slots of memory.
	LayoutSparse Layout = iota
	// LayoutDense packs (type, entity, ref) tuples: lookups scan.
	LayoutDense
)

func (l Layout) String() string {
	switch l {
	case LayoutSparse:
		return "sparse"
	case LayoutDense:
		return "dense"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout accepts the config spelling of a layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "sparse":
		return LayoutSparse, nil
	case "dense":
		return LayoutDense, nil
	default:
		return 0, fmt.Errorf("unknown storage layout %q", s)
	}
}

// Storage records which component ref an entity slot holds per type.
// Rows are keyed by entity index; the World checks entity generations.
type Storage interface {
	Get(entity uint32, id TypeID) Ref
	Set(entity uint32, id TypeID, ref Ref)
	Clear(entity uint32, id TypeID)
	// Each visits the non-empty entries of one entity.
	Each(entity uint32, fn func(TypeID, Ref))
}

// NewStorage builds the storage for a layout.
func NewStorage(layout Layout, typeCount int) Storage {
	if layout == LayoutDense {
		return NewDenseStorage()
	}
	return NewSparseStorage(typeCount)
}

type SparseStorage struct {
	typeCount int
	rows      []Ref
}

func NewSparseStorage(typeCount int) *SparseStorage {
	return &SparseStorage{typeCount: typeCount}
}

func (s *SparseStorage) Get(entity uint32, id TypeID) Ref {
	i := int(entity)*s.typeCount + int(id)
	if i >= len(s.rows) {
		return Empty
	}
	return s.rows[i]
}

func (s *SparseStorage) Set(entity uint32, id TypeID, ref Ref) {
	need := (int(entity) + 1) * s.typeCount
	for len(s.rows) < need {
		s.rows = append(s.rows, Empty)
	}
	s.rows[int(entity)*s.typeCount+int(id)] = ref
}

func (s *SparseStorage) Clear(entity uint32, id TypeID) {
	i := int(entity)*s.typeCount + int(id)
	if i < len(s.rows) {
		s.rows[i] = Empty
	}
}

func (s *SparseStorage) Each(entity uint32, fn func(TypeID, Ref)) {
	base := int(entity) * s.typeCount
	if base >= len(s.rows) {
		return
	}
	for id, ref := range s.rows[base : base+s.typeCount] {
		if !ref.IsEmpty() {
			fn(TypeID(id), ref)
		}
	}
}

type denseEntry struct {
	id     TypeID
	entity uint32
	ref    Ref
}

type DenseStorage struct {
	entries []denseEntry
}

func NewDenseStorage() *DenseStorage {
	return &DenseStorage{entries: make([]denseEntry, 0, 256)}
}

func (s *DenseStorage) find(entity uint32, id TypeID) int {
	for i := range s.entries {
		if s.entries[i].entity == entity && s.entries[i].id == id {
			return i
		}
	}
	return -1
}

func (s *DenseStorage) Get(entity uint32, id TypeID) Ref {
	if i := s.find(entity, id); i >= 0 {
		return s.entries[i].ref
	}
	return Empty
}

func (s *DenseStorage) Set(entity uint32, id TypeID, ref Ref) {
	if i := s.find(entity, id); i >= 0 {
		s.entries[i].ref = ref
		return
	}
	s.entries = append(s.entries, denseEntry{id: id, entity: entity, ref: ref})
}

func (s *DenseStorage) Clear(entity uint32, id TypeID) {
	i := s.find(entity, id)
	if i < 0 {
		return
	}
	last := len(s.entries) - 1
	s.entries[i] = s.entries[last]
	s.entries = s.entries[:last]
}

func (s *DenseStorage) Each(entity uint32, fn func(TypeID, Ref)) {
	for _, e := range s.entries {
		if e.entity == entity {
			fn(e.id, e.ref)
		}
	}
}
