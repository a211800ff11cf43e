// Package gfx defines the graphics instruction set, the helpers producers
// use to encode it into a bytecode.Buffer, and the VM that plays a buffer
// back against a Backend.
package gfx

import "fmt"

// Op is the one-byte tag that starts every instruction. Each payload is
// either fixed by the tag or length-prefixed, so a reader can always find
// the next tag.
type Op uint8

// Payloads, in write order:
//
//	OpViewport         pos vmath.Vec2i, size vmath.Vec2i
//	OpClear            flags ClearFlags
//	OpClearColor       color vmath.Vec4
//	OpDepthRead        cmp Comparison
//	OpDepthWrite       on uint8
//	OpBlendMode        mode BlendMode
//	OpCullMode         mode CullMode
//	OpAllocateShader   id uint32
//	OpAllocateTexture  id uint32
//	OpAllocateMesh     id uint32
//	OpFreeShader       id uint32
//	OpFreeTexture      id uint32
//	OpFreeMesh         id uint32
//	OpUseShader        id uint32
//	OpUseTexture       id uint32, slot uint32
//	OpUseMesh          id uint32
//	OpLoadShader       id uint32, source bytes
//	OpLoadTexture      id uint32, width uint32, height uint32, channels uint8, pixels bytes
//	OpLoadMesh         id uint32, attributes []uint32, vertices []float32, indices []uint32
//	OpLoadUniform      name string, kind UniformKind, values []float32 or []int32
//	OpDraw             no payload
const (
	OpNone Op = iota
	OpViewport
	OpClear
	OpClearColor
	OpDepthRead
	OpDepthWrite
	OpBlendMode
	OpCullMode
	OpAllocateShader
	OpAllocateTexture
	OpAllocateMesh
	OpFreeShader
	OpFreeTexture
	OpFreeMesh
	OpUseShader
	OpUseTexture
	OpUseMesh
	OpLoadShader
	OpLoadTexture
	OpLoadMesh
	OpLoadUniform
	OpDraw
	OpLast
)

var opNames = [...]string{
	OpNone:            "None",
	OpViewport:        "Viewport",
	OpClear:           "Clear",
	OpClearColor:      "ClearColor",
	OpDepthRead:       "DepthRead",
	OpDepthWrite:      "DepthWrite",
	OpBlendMode:       "BlendMode",
	OpCullMode:        "CullMode",
	OpAllocateShader:  "AllocateShader",
	OpAllocateTexture: "AllocateTexture",
	OpAllocateMesh:    "AllocateMesh",
	OpFreeShader:      "FreeShader",
	OpFreeTexture:     "FreeTexture",
	OpFreeMesh:        "FreeMesh",
	OpUseShader:       "UseShader",
	OpUseTexture:      "UseTexture",
	OpUseMesh:         "UseMesh",
	OpLoadShader:      "LoadShader",
	OpLoadTexture:     "LoadTexture",
	OpLoadMesh:        "LoadMesh",
	OpLoadUniform:     "LoadUniform",
	OpDraw:            "Draw",
	OpLast:            "Last",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// ClearFlags select the targets of OpClear.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

type Comparison uint8

const (
	CompareNone Comparison = iota
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreater
	CompareAlways
)

type BlendMode uint8

const (
	BlendNone BlendMode = iota
	BlendMix
	BlendAdd
	BlendMultiply
)

type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// UniformKind describes the element type of a uniform upload.
type UniformKind uint8

const (
	UniformFloat UniformKind = iota + 1
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
	UniformInt
)

// Width returns the number of scalars per element.
func (k UniformKind) Width() int {
	switch k {
	case UniformFloat, UniformInt:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat4:
		return 16
	default:
		return 0
	}
}

// Image is raw pixel data as produced by a decoder.
type Image struct {
	Width    uint32
	Height   uint32
	Channels uint8
	Pixels   []byte
}

// MeshData is interleaved vertex data. Attributes lists the float count of
// each vertex attribute in order, e.g. {3, 2, 3} for position, uv, normal.
type MeshData struct {
	Attributes []uint32
	Vertices   []float32
	Indices    []uint32
}

// Stride returns the float count of one vertex.
func (m MeshData) Stride() int {
	n := 0
	for _, a := range m.Attributes {
		n += int(a)
	}
	return n
}

// Uniform is one decoded OpLoadUniform.
type Uniform struct {
	Name   string
	Kind   UniformKind
	Floats []float32
	Ints   []int32
}
