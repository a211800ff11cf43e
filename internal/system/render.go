package system

import (
	"sort"
	"time"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/core/ecs"
	coresys "github.com/feacur/customengine/internal/core/system"
	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/gfx/bytecode"
	"github.com/feacur/customengine/internal/vmath"
)

// Uniform names the render path always sets.
const (
	UniformTransform = "u_transform"
	UniformTexture   = "u_texture"
)

// GPUAssets are the asset types the render path draws from.
type GPUAssets struct {
	Shaders  *asset.Type[asset.Shader]
	Textures *asset.Type[asset.Texture]
	Meshes   *asset.Type[asset.Mesh]
}

// RenderSystem records one pass per camera into the renderer buffer.
// Visuals whose shader or mesh is not resident are skipped.
type RenderSystem struct {
	world  *ecs.World
	set    *component.Set
	assets GPUAssets
	buf    *bytecode.Buffer
	target func() (width, height int32)

	cameras []cameraItem
	drawn   int
}

type cameraItem struct {
	entity ecs.Entity
	cam    *component.Camera
}

func NewRenderSystem(world *ecs.World, set *component.Set, assets GPUAssets, buf *bytecode.Buffer, target func() (int32, int32)) *RenderSystem {
	return &RenderSystem{world: world, set: set, assets: assets, buf: buf, target: target}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

// Drawn returns the number of draws recorded by the last Update.
func (s *RenderSystem) Drawn() int { return s.drawn }

func (s *RenderSystem) Update(_ time.Duration) {
	s.drawn = 0
	s.cameras = s.cameras[:0]
	ecs.Each1(s.world, s.set.Camera, func(e ecs.Entity, c *component.Camera) {
		s.cameras = append(s.cameras, cameraItem{e, c})
	})
	sort.SliceStable(s.cameras, func(i, j int) bool { return s.cameras[i].cam.Order < s.cameras[j].cam.Order })

	width, height := s.target()
	for _, item := range s.cameras {
		s.pass(item, width, height)
	}
}

func (s *RenderSystem) pass(item cameraItem, width, height int32) {
	cam := item.cam
	pos, size := cam.Rect(width, height)
	gfx.Viewport(s.buf, pos, size)
	if cam.Clear != 0 {
		gfx.SetClearColor(s.buf, cam.ClearColor)
		gfx.Clear(s.buf, cam.Clear)
	}
	gfx.DepthRead(s.buf, gfx.CompareLessEqual)
	gfx.DepthWrite(s.buf, true)
	gfx.SetBlendMode(s.buf, gfx.BlendMix)
	gfx.SetCullMode(s.buf, gfx.CullNone)

	view := vmath.Identity()
	if t := s.set.Transform.Of(s.world, item.entity); t != nil {
		view = vmath.InverseRigid(t.Position, t.Rotation)
	}
	aspect := float32(1)
	if size.Y > 0 {
		aspect = float32(size.X) / float32(size.Y)
	}
	viewProj := cam.Matrix(aspect).Mul(view)

	ecs.Each1(s.world, s.set.Visual, func(e ecs.Entity, v *component.Visual) {
		if v.Hidden {
			return
		}
		shader := s.assets.Shaders.Get(v.Shader)
		mesh := s.assets.Meshes.Get(v.Mesh)
		if shader == nil || !shader.Resident || mesh == nil || !mesh.Resident {
			return
		}
		gfx.UseShader(s.buf, v.Shader.ID)
		if tex := s.assets.Textures.Get(v.Texture); tex != nil && tex.Resident {
			gfx.UseTexture(s.buf, v.Texture.ID, 0)
			gfx.LoadUniformInts(s.buf, UniformTexture, []int32{0})
		}
		gfx.UseMesh(s.buf, v.Mesh.ID)
		gfx.LoadUniformMat4(s.buf, UniformTransform, viewProj.Mul(s.set.WorldMatrix(s.world, e)))
		gfx.Draw(s.buf)
		s.drawn++
	})
}
