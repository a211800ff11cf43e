// Package asset implements the de-duplicating asset store.
//
// Every asset type is registered once with RegisterType and gets its own
// generation pool. The store maps (type, resource) pairs to live handles so
// that at most one instance exists per pair, and reloads assets in place
// when their files change.
package asset

import (
	"bytes"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/core/intern"
	"github.com/feacur/customengine/internal/gfx/bytecode"
)

type indexKey struct {
	typ TypeID
	rid uint32
}

type reverseKey struct {
	typ TypeID
	ref ecs.Ref
}

// Reloaded describes one asset updated by HandleEvent.
type Reloaded struct {
	Type     TypeID
	Ref      ecs.Ref
	Resource string
}

// Store owns every asset pool, the resource index and the loader buffer
// that GPU-backed types emit their upload instructions into.
type Store struct {
	vtables []assetVTable
	byName  map[string]TypeID
	frozen  bool

	names   *intern.Table
	index   map[indexKey]ecs.Ref
	reverse map[reverseKey]uint32
	hashes  map[uint32][blake2b.Size256]byte
	preread map[uint32][]byte

	src    Source
	loader *bytecode.Buffer
	log    *zap.Logger
}

// NewStore creates a store reading from src. Upload instructions go to
// loader, which the caller drains through the graphics VM.
func NewStore(src Source, loader *bytecode.Buffer, log *zap.Logger) *Store {
	return &Store{
		byName:  make(map[string]TypeID),
		names:   intern.NewTable(),
		index:   make(map[indexKey]ecs.Ref),
		reverse: make(map[reverseKey]uint32),
		hashes:  make(map[uint32][blake2b.Size256]byte),
		src:     src,
		loader:  loader,
		log:     log,
	}
}

func (s *Store) Loader() *bytecode.Buffer { return s.loader }
func (s *Store) Source() Source           { return s.src }

// Add returns the live asset of type tid for resource. The first call for a
// pair creates and loads the asset; later calls return the same handle.
func (s *Store) Add(tid TypeID, resource string) ecs.Ref {
	vt := s.vtable(tid)
	s.frozen = true

	name := intern.ResourceName(resource)
	rid := s.names.Add(name)
	key := indexKey{tid, rid}
	if ref, ok := s.index[key]; ok && vt.contains(ref) {
		return ref
	}

	ref := vt.create()
	s.index[key] = ref
	s.reverse[reverseKey{tid, ref}] = rid
	vt.load(s, ref, name)
	return ref
}

// Find returns the live asset for the pair, or ecs.Empty.
func (s *Store) Find(tid TypeID, resource string) ecs.Ref {
	vt := s.vtable(tid)
	rid, ok := s.names.Find(intern.ResourceName(resource))
	if !ok {
		return ecs.Empty
	}
	if ref, ok := s.index[indexKey{tid, rid}]; ok && vt.contains(ref) {
		return ref
	}
	return ecs.Empty
}

// Contains reports whether ref is a live asset of type tid.
func (s *Store) Contains(tid TypeID, ref ecs.Ref) bool {
	return !ref.IsEmpty() && s.vtable(tid).contains(ref)
}

// Remove unloads and destroys the asset, then clears its index row so the
// name cannot resolve to the freed handle.
func (s *Store) Remove(tid TypeID, ref ecs.Ref) {
	vt := s.vtable(tid)
	if !vt.contains(ref) {
		check.True(false, "remove of stale %s asset %s", vt.name, ref)
		return
	}
	vt.unload(s, ref)
	vt.destroy(ref)

	rk := reverseKey{tid, ref}
	if rid, ok := s.reverse[rk]; ok {
		delete(s.reverse, rk)
		key := indexKey{tid, rid}
		if s.index[key] == ref {
			delete(s.index, key)
		}
	}
}

// Resource returns the resource name an asset was added under.
func (s *Store) Resource(tid TypeID, ref ecs.Ref) string {
	rid, ok := s.reverse[reverseKey{tid, ref}]
	if !ok {
		return ""
	}
	return s.names.Get(rid)
}

// Each visits the live assets of type tid in resource order.
func (s *Store) Each(tid TypeID, fn func(ref ecs.Ref, resource string)) {
	for _, e := range s.entries(func(k indexKey) bool { return k.typ == tid }) {
		fn(e.ref, s.names.Get(e.key.rid))
	}
}

// Resources returns the distinct resource names that have a live asset.
func (s *Store) Resources() []string {
	seen := make(map[uint32]struct{})
	var out []string
	for _, e := range s.entries(nil) {
		if _, ok := seen[e.key.rid]; ok {
			continue
		}
		seen[e.key.rid] = struct{}{}
		out = append(out, s.names.Get(e.key.rid))
	}
	return out
}

type entry struct {
	key indexKey
	ref ecs.Ref
}

// entries snapshots live index rows sorted by (resource, type).
func (s *Store) entries(keep func(indexKey) bool) []entry {
	out := make([]entry, 0, len(s.index))
	for k, ref := range s.index {
		if keep != nil && !keep(k) {
			continue
		}
		if !s.vtable(k.typ).contains(ref) {
			continue
		}
		out = append(out, entry{k, ref})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.rid != out[j].key.rid {
			return out[i].key.rid < out[j].key.rid
		}
		return out[i].key.typ < out[j].key.typ
	})
	return out
}

// ReadFile returns the bytes of resource for a load hook. A missing file is
// logged and yields nil; the caller leaves its asset empty.
func (s *Store) ReadFile(resource string) []byte {
	rid := s.names.Add(resource)
	if data, ok := s.preread[rid]; ok {
		return data
	}
	data, err := s.src.ReadFile(resource)
	if err != nil {
		s.log.Error("asset read failed", zap.String("resource", resource), zap.Error(err))
		return nil
	}
	s.hashes[rid] = blake2b.Sum256(data)
	return data
}

// HandleEvent applies one watcher event. Modified and Added files are
// re-read; when the content digest changed, every live asset built from
// the file is updated in place and reported.
func (s *Store) HandleEvent(ev FileEvent) []Reloaded {
	name := intern.ResourceName(ev.Name)
	rid, ok := s.names.Find(name)
	if !ok {
		return nil
	}

	switch ev.Action {
	case Removed, Renamed:
		s.log.Warn("asset file went away, keeping loaded copy",
			zap.String("resource", name), zap.Stringer("action", ev.Action))
		return nil
	case Added, Modified:
	default:
		return nil
	}

	data, err := s.src.ReadFile(name)
	if err != nil {
		s.log.Error("asset reload read failed", zap.String("resource", name), zap.Error(err))
		return nil
	}
	sum := blake2b.Sum256(data)
	if old, ok := s.hashes[rid]; ok && bytes.Equal(old[:], sum[:]) {
		s.log.Debug("asset unchanged", zap.String("resource", name))
		return nil
	}
	s.hashes[rid] = sum

	s.preread = map[uint32][]byte{rid: data}
	defer func() { s.preread = nil }()

	var out []Reloaded
	for _, e := range s.entries(func(k indexKey) bool { return k.rid == rid }) {
		s.vtable(e.key.typ).update(s, e.ref, name)
		out = append(out, Reloaded{Type: e.key.typ, Ref: e.ref, Resource: name})
		s.log.Info("asset reloaded",
			zap.String("type", s.TypeName(e.key.typ)),
			zap.String("resource", name),
			zap.Stringer("ref", e.ref))
	}
	return out
}

// Shutdown removes every live asset, later registered types first.
func (s *Store) Shutdown() {
	all := s.entries(nil)
	sort.SliceStable(all, func(i, j int) bool { return all[i].key.typ > all[j].key.typ })
	for _, e := range all {
		if s.vtable(e.key.typ).contains(e.ref) {
			s.Remove(e.key.typ, e.ref)
		}
	}
}
