// Package intern maps resource names to dense uint32 ids.
package intern

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table interns strings. Ids are assigned in insertion order and never
// reused. Not safe for concurrent use.
type Table struct {
	ids     map[string]uint32
	strings []string
}

func NewTable() *Table {
	return &Table{ids: make(map[string]uint32, 128)}
}

// Add returns the id of s, interning it first when needed.
func (t *Table) Add(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := uint32(len(t.strings))
	t.strings = append(t.strings, s)
	t.ids[s] = id
	return id
}

// Find returns the id of s without interning it.
func (t *Table) Find(s string) (uint32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// Get returns the string for id, or "" when id was never issued.
func (t *Table) Get(id uint32) string {
	if int(id) >= len(t.strings) {
		return ""
	}
	return t.strings[id]
}

func (t *Table) Len() int { return len(t.strings) }

// ResourceName canonicalises a resource path so that equivalent spellings
// intern to the same id: NFC form, forward slashes, no "./" or "..".
func ResourceName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean(name)
	return strings.TrimPrefix(name, "/")
}
