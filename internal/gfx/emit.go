package gfx

import (
	"github.com/feacur/customengine/internal/gfx/bytecode"
	"github.com/feacur/customengine/internal/vmath"
)

func op(b *bytecode.Buffer, o Op) { bytecode.Write(b, o) }

func Viewport(b *bytecode.Buffer, pos, size vmath.Vec2i) {
	op(b, OpViewport)
	bytecode.Write(b, pos)
	bytecode.Write(b, size)
}

func Clear(b *bytecode.Buffer, flags ClearFlags) {
	op(b, OpClear)
	bytecode.Write(b, flags)
}

func SetClearColor(b *bytecode.Buffer, c vmath.Vec4) {
	op(b, OpClearColor)
	bytecode.Write(b, c)
}

func DepthRead(b *bytecode.Buffer, cmp Comparison) {
	op(b, OpDepthRead)
	bytecode.Write(b, cmp)
}

func DepthWrite(b *bytecode.Buffer, on bool) {
	op(b, OpDepthWrite)
	bytecode.Write(b, on)
}

func SetBlendMode(b *bytecode.Buffer, m BlendMode) {
	op(b, OpBlendMode)
	bytecode.Write(b, m)
}

func SetCullMode(b *bytecode.Buffer, m CullMode) {
	op(b, OpCullMode)
	bytecode.Write(b, m)
}

func withID(b *bytecode.Buffer, o Op, id uint32) {
	op(b, o)
	bytecode.Write(b, id)
}

func AllocateShader(b *bytecode.Buffer, id uint32)  { withID(b, OpAllocateShader, id) }
func AllocateTexture(b *bytecode.Buffer, id uint32) { withID(b, OpAllocateTexture, id) }
func AllocateMesh(b *bytecode.Buffer, id uint32)    { withID(b, OpAllocateMesh, id) }
func FreeShader(b *bytecode.Buffer, id uint32)      { withID(b, OpFreeShader, id) }
func FreeTexture(b *bytecode.Buffer, id uint32)     { withID(b, OpFreeTexture, id) }
func FreeMesh(b *bytecode.Buffer, id uint32)        { withID(b, OpFreeMesh, id) }
func UseShader(b *bytecode.Buffer, id uint32)       { withID(b, OpUseShader, id) }
func UseMesh(b *bytecode.Buffer, id uint32)         { withID(b, OpUseMesh, id) }

func UseTexture(b *bytecode.Buffer, id, slot uint32) {
	withID(b, OpUseTexture, id)
	bytecode.Write(b, slot)
}

func LoadShader(b *bytecode.Buffer, id uint32, source []byte) {
	withID(b, OpLoadShader, id)
	b.WriteBytes(source)
}

func LoadTexture(b *bytecode.Buffer, id uint32, img Image) {
	withID(b, OpLoadTexture, id)
	bytecode.Write(b, img.Width)
	bytecode.Write(b, img.Height)
	bytecode.Write(b, img.Channels)
	b.WriteBytes(img.Pixels)
}

func LoadMesh(b *bytecode.Buffer, id uint32, m MeshData) {
	withID(b, OpLoadMesh, id)
	bytecode.WriteSlice(b, m.Attributes)
	bytecode.WriteSlice(b, m.Vertices)
	bytecode.WriteSlice(b, m.Indices)
}

// LoadUniform uploads len(values)/kind.Width() elements of a float kind.
func LoadUniform(b *bytecode.Buffer, name string, kind UniformKind, values []float32) {
	op(b, OpLoadUniform)
	b.WriteString(name)
	bytecode.Write(b, kind)
	bytecode.WriteSlice(b, values)
}

func LoadUniformMat4(b *bytecode.Buffer, name string, m vmath.Mat4) {
	LoadUniform(b, name, UniformMat4, m[:])
}

// LoadUniformInts uploads integer uniforms such as texture units.
func LoadUniformInts(b *bytecode.Buffer, name string, values []int32) {
	op(b, OpLoadUniform)
	b.WriteString(name)
	bytecode.Write(b, UniformInt)
	bytecode.WriteSlice(b, values)
}

func Draw(b *bytecode.Buffer) { op(b, OpDraw) }
