package gfx

import (
	"github.com/feacur/customengine/internal/vmath"
	"go.uber.org/zap"
)

// Handle names a resource inside a Backend.
type Handle uint32

// Backend executes decoded instructions against a graphics API. The VM
// guarantees that handles passed back in were created by the same Backend
// and not yet deleted.
type Backend interface {
	Viewport(pos, size vmath.Vec2i)
	Clear(flags ClearFlags)
	SetClearColor(c vmath.Vec4)
	SetDepthRead(cmp Comparison)
	SetDepthWrite(on bool)
	SetBlendMode(m BlendMode)
	SetCullMode(m CullMode)

	CreateShader() Handle
	CreateTexture() Handle
	CreateMesh() Handle
	DeleteShader(h Handle)
	DeleteTexture(h Handle)
	DeleteMesh(h Handle)

	UseShader(h Handle)
	UseTexture(h Handle, slot uint32)
	UseMesh(h Handle)

	LoadShader(h Handle, source []byte) error
	LoadTexture(h Handle, img Image) error
	LoadMesh(h Handle, m MeshData) error
	LoadUniform(u Uniform)

	Draw()
}

// LogBackend logs every call at debug level. It backs headless runs.
type LogBackend struct {
	log  *zap.Logger
	next Handle
}

func NewLogBackend(log *zap.Logger) *LogBackend {
	return &LogBackend{log: log}
}

func (b *LogBackend) handle() Handle {
	b.next++
	return b.next
}

func (b *LogBackend) Viewport(pos, size vmath.Vec2i) {
	b.log.Debug("viewport", zap.Int32("x", pos.X), zap.Int32("y", pos.Y), zap.Int32("w", size.X), zap.Int32("h", size.Y))
}

func (b *LogBackend) Clear(flags ClearFlags) {
	b.log.Debug("clear", zap.Uint8("flags", uint8(flags)))
}

func (b *LogBackend) SetClearColor(c vmath.Vec4) {
	b.log.Debug("clear color", zap.Float32s("rgba", []float32{c.X, c.Y, c.Z, c.W}))
}

func (b *LogBackend) SetDepthRead(cmp Comparison) {
	b.log.Debug("depth read", zap.Uint8("cmp", uint8(cmp)))
}

func (b *LogBackend) SetDepthWrite(on bool) { b.log.Debug("depth write", zap.Bool("on", on)) }

func (b *LogBackend) SetBlendMode(m BlendMode) { b.log.Debug("blend mode", zap.Uint8("mode", uint8(m))) }

func (b *LogBackend) SetCullMode(m CullMode) { b.log.Debug("cull mode", zap.Uint8("mode", uint8(m))) }

func (b *LogBackend) CreateShader() Handle {
	h := b.handle()
	b.log.Debug("create shader", zap.Uint32("handle", uint32(h)))
	return h
}

func (b *LogBackend) CreateTexture() Handle {
	h := b.handle()
	b.log.Debug("create texture", zap.Uint32("handle", uint32(h)))
	return h
}

func (b *LogBackend) CreateMesh() Handle {
	h := b.handle()
	b.log.Debug("create mesh", zap.Uint32("handle", uint32(h)))
	return h
}

func (b *LogBackend) DeleteShader(h Handle) {
	b.log.Debug("delete shader", zap.Uint32("handle", uint32(h)))
}

func (b *LogBackend) DeleteTexture(h Handle) {
	b.log.Debug("delete texture", zap.Uint32("handle", uint32(h)))
}

func (b *LogBackend) DeleteMesh(h Handle) {
	b.log.Debug("delete mesh", zap.Uint32("handle", uint32(h)))
}

func (b *LogBackend) UseShader(h Handle) { b.log.Debug("use shader", zap.Uint32("handle", uint32(h))) }

func (b *LogBackend) UseTexture(h Handle, slot uint32) {
	b.log.Debug("use texture", zap.Uint32("handle", uint32(h)), zap.Uint32("slot", slot))
}

func (b *LogBackend) UseMesh(h Handle) { b.log.Debug("use mesh", zap.Uint32("handle", uint32(h))) }

func (b *LogBackend) LoadShader(h Handle, source []byte) error {
	b.log.Debug("load shader", zap.Uint32("handle", uint32(h)), zap.Int("bytes", len(source)))
	return nil
}

func (b *LogBackend) LoadTexture(h Handle, img Image) error {
	b.log.Debug("load texture",
		zap.Uint32("handle", uint32(h)),
		zap.Uint32("width", img.Width),
		zap.Uint32("height", img.Height),
		zap.Uint8("channels", img.Channels),
	)
	return nil
}

func (b *LogBackend) LoadMesh(h Handle, m MeshData) error {
	b.log.Debug("load mesh",
		zap.Uint32("handle", uint32(h)),
		zap.Int("floats", len(m.Vertices)),
		zap.Int("indices", len(m.Indices)),
	)
	return nil
}

func (b *LogBackend) LoadUniform(u Uniform) {
	b.log.Debug("load uniform", zap.String("name", u.Name), zap.Uint8("kind", uint8(u.Kind)))
}

func (b *LogBackend) Draw() { b.log.Debug("draw") }
