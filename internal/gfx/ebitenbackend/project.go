package ebitenbackend

import (
	"strings"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/vmath"
)

// rect is a viewport in target pixels, y growing downwards.
type rect struct {
	X, Y, W, H float32
}

// project maps a model-space position through m into the viewport. The
// second result is false when the point lies behind the camera.
func project(m vmath.Mat4, p vmath.Vec3, vp rect) (x, y float32, ok bool) {
	c := m.MulPoint(p)
	if c.W <= 0 {
		return 0, 0, false
	}
	nx, ny := c.X/c.W, c.Y/c.W
	x = vp.X + (nx*0.5+0.5)*vp.W
	y = vp.Y + (0.5-ny*0.5)*vp.H
	return x, y, true
}

// buildVertices projects every vertex of m. Attribute 0 is the position and
// attribute 1, when present, the uv scaled to a texture of size tw by th.
func buildVertices(m gfx.MeshData, transform vmath.Mat4, vp rect, tw, th float32) ([]ebiten.Vertex, []bool) {
	stride := m.Stride()
	if stride < 3 || len(m.Attributes) == 0 || m.Attributes[0] < 3 {
		return nil, nil
	}
	hasUV := len(m.Attributes) > 1 && m.Attributes[1] >= 2
	uvOff := int(m.Attributes[0])

	n := len(m.Vertices) / stride
	verts := make([]ebiten.Vertex, n)
	visible := make([]bool, n)
	for i := 0; i < n; i++ {
		f := m.Vertices[i*stride : (i+1)*stride]
		x, y, ok := project(transform, vmath.Vec3{X: f[0], Y: f[1], Z: f[2]}, vp)
		v := ebiten.Vertex{DstX: x, DstY: y, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1}
		if hasUV {
			v.SrcX = f[uvOff] * tw
			v.SrcY = (1 - f[uvOff+1]) * th
		}
		verts[i] = v
		visible[i] = ok
	}
	return verts, visible
}

// buildIndices narrows m's triangles to 16 bits, dropping triangles with a
// vertex behind the camera or facing away under cull.
func buildIndices(idx []uint32, verts []ebiten.Vertex, visible []bool, cull gfx.CullMode) []uint16 {
	out := make([]uint16, 0, len(idx))
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if int(a) >= len(verts) || int(b) >= len(verts) || int(c) >= len(verts) {
			continue
		}
		if !visible[a] || !visible[b] || !visible[c] {
			continue
		}
		if culled(verts[a], verts[b], verts[c], cull) {
			continue
		}
		out = append(out, uint16(a), uint16(b), uint16(c))
	}
	return out
}

// culled reports whether the screen-space triangle is discarded. Screen y
// points down, so a counter-clockwise front face has negative area here.
func culled(a, b, c ebiten.Vertex, mode gfx.CullMode) bool {
	area := (b.DstX-a.DstX)*(c.DstY-a.DstY) - (c.DstX-a.DstX)*(b.DstY-a.DstY)
	switch mode {
	case gfx.CullBack:
		return area > 0
	case gfx.CullFront:
		return area < 0
	default:
		return false
	}
}

func blendFor(m gfx.BlendMode) ebiten.Blend {
	switch m {
	case gfx.BlendNone:
		return ebiten.BlendCopy
	case gfx.BlendAdd:
		return ebiten.BlendLighter
	case gfx.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
			BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// kageName turns an engine uniform name such as "u_tint_color" into the
// exported Kage identifier "TintColor".
func kageName(name string) string {
	name = strings.TrimPrefix(name, "u_")
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
