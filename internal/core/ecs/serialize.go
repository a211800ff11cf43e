package ecs

import (
	"strconv"
	"strings"
)

// Text format, one directive per line:
//
//	# comment
//	Transform          component block, read by the type's Read hook
//	position 1 2 3
//	>                  children list
//	!                  child entity block
//	<                  end of children list
//
// Unknown lines are skipped so older readers accept newer files.

// Cursor walks the entity text format line by line.
type Cursor struct {
	lines []string
	pos   int
}

func NewCursor(text string) *Cursor {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return &Cursor{lines: lines}
}

// Peek returns the next meaningful line without consuming it.
func (c *Cursor) Peek() (string, bool) {
	for c.pos < len(c.lines) {
		l := c.lines[c.pos]
		if l == "" || strings.HasPrefix(l, "#") {
			c.pos++
			continue
		}
		return l, true
	}
	return "", false
}

func (c *Cursor) Advance() {
	if c.pos < len(c.lines) {
		c.pos++
	}
}

func (c *Cursor) Next() (string, bool) {
	l, ok := c.Peek()
	if ok {
		c.pos++
	}
	return l, ok
}

// Field splits the next line into a key and its arguments without
// consuming it.
func (c *Cursor) Field() (key string, args []string, ok bool) {
	l, ok := c.Peek()
	if !ok {
		return "", nil, false
	}
	f := strings.Fields(l)
	return f[0], f[1:], true
}

// Line returns the 1-based line number of the cursor.
func (c *Cursor) Line() int { return c.pos + 1 }

// ParseFloats fills dst from args. Malformed or missing values leave the
// corresponding element unchanged.
func ParseFloats(args []string, dst []float32) {
	for i := 0; i < len(dst) && i < len(args); i++ {
		if v, err := strconv.ParseFloat(args[i], 32); err == nil {
			dst[i] = float32(v)
		}
	}
}

// SerializationRead applies a text entity description to e.
func (w *World) SerializationRead(e Entity, text string) {
	w.readEntity(e, NewCursor(text), false)
}

func (w *World) readEntity(e Entity, cur *Cursor, nested bool) {
	for {
		line, ok := cur.Peek()
		if !ok {
			return
		}
		switch line {
		case "!", "<":
			if nested {
				return
			}
			cur.Advance()
		case ">":
			skipChildren(cur)
		default:
			cur.Advance()
			id, known := w.registry.Lookup(strings.Fields(line)[0])
			if !known {
				continue
			}
			ref := w.GetComponent(e, id)
			if ref.IsEmpty() {
				ref = w.AddComponent(e, id)
			}
			w.registry.vtable(id).serializeRead(w, e, ref, cur)
		}
	}
}

// ReadChildren consumes a children list at the cursor, creating one entity
// per "!" block and passing it to fn once it has been read. Children of a
// template are templates too.
func (w *World) ReadChildren(parent Entity, cur *Cursor, fn func(child Entity)) {
	if line, ok := cur.Peek(); !ok || line != ">" {
		return
	}
	cur.Advance()
	for {
		line, ok := cur.Peek()
		if !ok {
			return
		}
		switch line {
		case "<":
			cur.Advance()
			return
		case "!":
			cur.Advance()
			child := w.Create()
			if w.IsTemplate(parent) {
				w.MarkTemplate(child)
			}
			w.readEntity(child, cur, true)
			fn(child)
		default:
			cur.Advance()
		}
	}
}

func skipChildren(cur *Cursor) {
	depth := 0
	for {
		line, ok := cur.Next()
		if !ok {
			return
		}
		switch line {
		case ">":
			depth++
		case "<":
			depth--
			if depth == 0 {
				return
			}
		}
	}
}
