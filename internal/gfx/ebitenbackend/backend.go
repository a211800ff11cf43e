// Package ebitenbackend plays graphics bytecode onto an ebiten render
// target. Shaders are Kage programs, textures are ebiten images and meshes
// are kept on the CPU and projected per draw.
package ebitenbackend

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/vmath"
)

// TransformUniform is consumed by the backend to project mesh vertices and
// is never forwarded to the shader.
const TransformUniform = "u_transform"

var (
	ErrTooManyVertices = errors.New("ebitenbackend: mesh exceeds 65535 vertices")
	ErrBadTexture      = errors.New("ebitenbackend: malformed texture")
)

type mesh struct {
	data gfx.MeshData
}

// Backend implements gfx.Backend. SetTarget must be called with the frame's
// screen image before the VM renders into it. Depth state is recorded but
// has no effect: ebiten draws in submission order.
type Backend struct {
	target *ebiten.Image
	white  *ebiten.Image
	log    *zap.Logger
	next   gfx.Handle

	shaders  map[gfx.Handle]*ebiten.Shader
	textures map[gfx.Handle]*ebiten.Image
	meshes   map[gfx.Handle]*mesh

	viewport   image.Rectangle
	clearColor color.RGBA64
	blend      gfx.BlendMode
	cull       gfx.CullMode
	depthRead  gfx.Comparison
	depthWrite bool

	shader    gfx.Handle
	texture   gfx.Handle
	mesh      gfx.Handle
	transform vmath.Mat4
	uniforms  map[string]any

	draws int
}

func New(log *zap.Logger) *Backend {
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	return &Backend{
		white:     white,
		log:       log,
		shaders:   make(map[gfx.Handle]*ebiten.Shader),
		textures:  make(map[gfx.Handle]*ebiten.Image),
		meshes:    make(map[gfx.Handle]*mesh),
		blend:     gfx.BlendMix,
		transform: vmath.Identity(),
		uniforms:  make(map[string]any),
	}
}

// SetTarget directs subsequent instructions at img and resets the viewport
// to cover it.
func (b *Backend) SetTarget(img *ebiten.Image) {
	b.target = img
	if img != nil {
		b.viewport = img.Bounds()
	}
	b.draws = 0
}

// Draws returns the number of draw calls issued since the last SetTarget.
func (b *Backend) Draws() int { return b.draws }

func (b *Backend) handle() gfx.Handle {
	b.next++
	return b.next
}

func (b *Backend) Viewport(pos, size vmath.Vec2i) {
	b.viewport = image.Rect(int(pos.X), int(pos.Y), int(pos.X+size.X), int(pos.Y+size.Y))
}

func (b *Backend) Clear(flags gfx.ClearFlags) {
	if b.target == nil || flags&gfx.ClearColor == 0 {
		return
	}
	b.surface().Fill(b.clearColor)
}

func (b *Backend) SetClearColor(c vmath.Vec4) {
	b.clearColor = color.RGBA64{
		R: channel(c.X * c.W),
		G: channel(c.Y * c.W),
		B: channel(c.Z * c.W),
		A: channel(c.W),
	}
}

func (b *Backend) SetDepthRead(cmp gfx.Comparison) { b.depthRead = cmp }
func (b *Backend) SetDepthWrite(on bool)           { b.depthWrite = on }
func (b *Backend) SetBlendMode(m gfx.BlendMode)    { b.blend = m }
func (b *Backend) SetCullMode(m gfx.CullMode)      { b.cull = m }

func (b *Backend) CreateShader() gfx.Handle {
	h := b.handle()
	b.shaders[h] = nil
	return h
}

func (b *Backend) CreateTexture() gfx.Handle {
	h := b.handle()
	b.textures[h] = nil
	return h
}

func (b *Backend) CreateMesh() gfx.Handle {
	h := b.handle()
	b.meshes[h] = nil
	return h
}

func (b *Backend) DeleteShader(h gfx.Handle) {
	if s := b.shaders[h]; s != nil {
		s.Deallocate()
	}
	delete(b.shaders, h)
}

func (b *Backend) DeleteTexture(h gfx.Handle) {
	if img := b.textures[h]; img != nil {
		img.Deallocate()
	}
	delete(b.textures, h)
}

func (b *Backend) DeleteMesh(h gfx.Handle) { delete(b.meshes, h) }

func (b *Backend) UseShader(h gfx.Handle) { b.shader = h }

// UseTexture binds slot 0 only; Kage programs here sample imageSrc0.
func (b *Backend) UseTexture(h gfx.Handle, slot uint32) {
	if slot == 0 {
		b.texture = h
	}
}

func (b *Backend) UseMesh(h gfx.Handle) { b.mesh = h }

func (b *Backend) LoadShader(h gfx.Handle, source []byte) error {
	s, err := ebiten.NewShader(source)
	if err != nil {
		return fmt.Errorf("compile kage: %w", err)
	}
	if old := b.shaders[h]; old != nil {
		old.Deallocate()
	}
	b.shaders[h] = s
	return nil
}

func (b *Backend) LoadTexture(h gfx.Handle, img gfx.Image) error {
	pix, err := toRGBA(img)
	if err != nil {
		return err
	}
	if old := b.textures[h]; old != nil {
		old.Deallocate()
	}
	eimg := ebiten.NewImage(int(img.Width), int(img.Height))
	eimg.WritePixels(pix)
	b.textures[h] = eimg
	return nil
}

func (b *Backend) LoadMesh(h gfx.Handle, m gfx.MeshData) error {
	if stride := m.Stride(); stride > 0 && len(m.Vertices)/stride > math.MaxUint16 {
		return ErrTooManyVertices
	}
	b.meshes[h] = &mesh{data: gfx.MeshData{
		Attributes: append([]uint32(nil), m.Attributes...),
		Vertices:   append([]float32(nil), m.Vertices...),
		Indices:    append([]uint32(nil), m.Indices...),
	}}
	return nil
}

// LoadUniform keeps the transform for vertex projection and forwards float
// uniforms to the shader under their Kage names. Integer uniforms name
// texture units, which ebiten binds implicitly.
func (b *Backend) LoadUniform(u gfx.Uniform) {
	if u.Name == TransformUniform {
		if u.Kind == gfx.UniformMat4 && len(u.Floats) >= 16 {
			copy(b.transform[:], u.Floats[:16])
		}
		return
	}
	if u.Kind == gfx.UniformInt {
		return
	}
	if u.Kind == gfx.UniformFloat && len(u.Floats) == 1 {
		b.uniforms[kageName(u.Name)] = u.Floats[0]
		return
	}
	b.uniforms[kageName(u.Name)] = append([]float32(nil), u.Floats...)
}

func (b *Backend) Draw() {
	if b.target == nil {
		return
	}
	shader := b.shaders[b.shader]
	m := b.meshes[b.mesh]
	if shader == nil || m == nil {
		b.log.Debug("draw skipped", zap.Bool("shader", shader != nil), zap.Bool("mesh", m != nil))
		return
	}
	src := b.textures[b.texture]
	if src == nil {
		src = b.white
	}
	size := src.Bounds().Size()
	vp := rect{
		X: float32(b.viewport.Min.X),
		Y: float32(b.viewport.Min.Y),
		W: float32(b.viewport.Dx()),
		H: float32(b.viewport.Dy()),
	}
	verts, visible := buildVertices(m.data, b.transform, vp, float32(size.X), float32(size.Y))
	indices := buildIndices(m.data.Indices, verts, visible, b.cull)
	if len(indices) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: b.uniforms,
		Blend:    blendFor(b.blend),
	}
	op.Images[0] = src
	b.surface().DrawTrianglesShader(verts, indices, shader, op)
	b.draws++
}

// surface is the target clipped to the viewport. Sub-images keep the
// parent's coordinates, so vertices stay in target space.
func (b *Backend) surface() *ebiten.Image {
	r := b.viewport.Intersect(b.target.Bounds())
	if r == b.target.Bounds() {
		return b.target
	}
	return b.target.SubImage(r).(*ebiten.Image)
}

func toRGBA(img gfx.Image) ([]byte, error) {
	n := int(img.Width) * int(img.Height)
	if n == 0 || img.Channels == 0 || img.Channels > 4 || len(img.Pixels) < n*int(img.Channels) {
		return nil, fmt.Errorf("%w: %dx%d with %d channels and %d bytes",
			ErrBadTexture, img.Width, img.Height, img.Channels, len(img.Pixels))
	}
	if img.Channels == 4 {
		return img.Pixels[:n*4], nil
	}
	out := make([]byte, n*4)
	ch := int(img.Channels)
	for i := 0; i < n; i++ {
		p := img.Pixels[i*ch : (i+1)*ch]
		o := out[i*4 : i*4+4]
		switch ch {
		case 1:
			o[0], o[1], o[2], o[3] = p[0], p[0], p[0], 0xFF
		case 2:
			o[0], o[1], o[2], o[3] = p[0], p[0], p[0], p[1]
		case 3:
			o[0], o[1], o[2], o[3] = p[0], p[1], p[2], 0xFF
		}
	}
	return out, nil
}

func channel(v float32) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFFFF
	default:
		return uint16(v * 0xFFFF)
	}
}

var _ gfx.Backend = (*Backend)(nil)
