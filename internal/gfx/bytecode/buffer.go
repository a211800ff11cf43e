// Package bytecode implements the append-only command buffer shared by
// producers (asset loaders, the render system) and the graphics VM.
//
// Values are written as their little-endian fixed-size encoding with no
// alignment padding. The format is in-process only: it is never persisted
// and carries no version.
package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/feacur/customengine/internal/core/check"
)

// ErrOverrun is recorded when a read would pass the write cursor.
var ErrOverrun = errors.New("bytecode: read past end of buffer")

// Buffer is a growable byte array with an independent read cursor.
type Buffer struct {
	data []byte
	off  int
	err  error
}

func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Write appends the encoding of v. T must be a fixed-size type.
func Write[T any](b *Buffer, v T) {
	var err error
	b.data, err = binary.Append(b.data, binary.LittleEndian, v)
	check.True(err == nil, "bytecode write %T: %v", v, err)
}

// WriteArray appends the elements of vs without a count.
func WriteArray[T any](b *Buffer, vs []T) {
	if len(vs) == 0 {
		return
	}
	var err error
	b.data, err = binary.Append(b.data, binary.LittleEndian, vs)
	check.True(err == nil, "bytecode write []%T: %v", vs, err)
}

// WriteSlice appends a uint32 element count followed by the elements.
func WriteSlice[T any](b *Buffer, vs []T) {
	Write(b, uint32(len(vs)))
	WriteArray(b, vs)
}

// WriteBytes appends a uint32 length followed by raw bytes.
func (b *Buffer) WriteBytes(p []byte) {
	Write(b, uint32(len(p)))
	b.data = append(b.data, p...)
}

// WriteString appends a uint32 length followed by the string bytes.
func (b *Buffer) WriteString(s string) {
	Write(b, uint32(len(s)))
	b.data = append(b.data, s...)
}

// Read decodes the next T. Past the end it records ErrOverrun and returns
// the zero value; every later read fails the same way.
func Read[T any](b *Buffer) T {
	var v T
	n := binary.Size(v)
	if !b.take(n) {
		return v
	}
	if _, err := binary.Decode(b.data[b.off-n:b.off], binary.LittleEndian, &v); err != nil {
		b.fail(err)
	}
	return v
}

// ReadArray decodes count elements written by WriteArray.
func ReadArray[T any](b *Buffer, count int) []T {
	if count == 0 {
		return nil
	}
	var zero T
	n := binary.Size(zero) * count
	if count < 0 || !b.take(n) {
		b.fail(ErrOverrun)
		return nil
	}
	vs := make([]T, count)
	if _, err := binary.Decode(b.data[b.off-n:b.off], binary.LittleEndian, vs); err != nil {
		b.fail(err)
		return nil
	}
	return vs
}

// ReadSlice decodes a slice written by WriteSlice.
func ReadSlice[T any](b *Buffer) []T {
	return ReadArray[T](b, int(Read[uint32](b)))
}

// ReadBytes returns a view of a length-prefixed byte run. The view aliases
// the buffer and is only valid until the next Reset.
func (b *Buffer) ReadBytes() []byte {
	n := int(Read[uint32](b))
	if !b.take(n) {
		return nil
	}
	return b.data[b.off-n : b.off : b.off]
}

func (b *Buffer) ReadString() string {
	return string(b.ReadBytes())
}

// Skip advances the read cursor by n bytes.
func (b *Buffer) Skip(n int) {
	b.take(n)
}

func (b *Buffer) take(n int) bool {
	if b.err != nil {
		return false
	}
	if n < 0 || b.off+n > len(b.data) {
		b.fail(ErrOverrun)
		return false
	}
	b.off += n
	return true
}

func (b *Buffer) fail(err error) {
	if b.err == nil {
		b.err = fmt.Errorf("%w at offset %d of %d", err, b.off, len(b.data))
	}
}

// Err returns the first read failure, if any.
func (b *Buffer) Err() error { return b.err }

// Len returns the write cursor.
func (b *Buffer) Len() int { return len(b.data) }

// Offset returns the read cursor.
func (b *Buffer) Offset() int { return b.off }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.off }

// Rewind moves the read cursor back to the start for another playback.
func (b *Buffer) Rewind() {
	b.off = 0
	b.err = nil
}

// Reset empties the buffer and keeps its capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.off = 0
	b.err = nil
}

// Bytes returns the written bytes.
func (b *Buffer) Bytes() []byte { return b.data }
