package component

import (
	"math"

	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/gfx"
	"github.com/feacur/customengine/internal/vmath"
)

type Projection uint8

const (
	Perspective Projection = iota
	Orthographic
)

// Camera renders the visuals in front of it. Cameras draw in ascending
// Order. A zero viewport size covers the whole target.
//
//	Camera
//	projection perspective
//	fov 60
//	near 0.1
//	far 100
//	clear color depth
//	clear_color 0.1 0.1 0.1 1
//	viewport 0 0 0 0
//	order 0
type Camera struct {
	Projection Projection
	FovY       float32 // radians
	OrthoSize  float32 // half height
	Near, Far  float32
	Clear      gfx.ClearFlags
	ClearColor vmath.Vec4
	Viewport   [4]int32
	Order      int32
}

func (c *Camera) Matrix(aspect float32) vmath.Mat4 {
	if c.Projection == Orthographic {
		return vmath.Ortho(c.OrthoSize, aspect, c.Near, c.Far)
	}
	return vmath.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Rect returns the viewport in pixels for a target of the given size.
func (c *Camera) Rect(width, height int32) (pos, size vmath.Vec2i) {
	pos = vmath.Vec2i{X: c.Viewport[0], Y: c.Viewport[1]}
	size = vmath.Vec2i{X: c.Viewport[2], Y: c.Viewport[3]}
	if size.X <= 0 || size.Y <= 0 {
		return vmath.Vec2i{}, vmath.Vec2i{X: width, Y: height}
	}
	return pos, size
}

func registerCamera(reg *ecs.Registry) *ecs.Component[Camera] {
	return ecs.RegisterComponent(reg, "Camera", ecs.Hooks[Camera]{
		Init: func(c *Camera) {
			c.FovY = math.Pi / 3
			c.OrthoSize = 1
			c.Near = 0.1
			c.Far = 100
			c.Clear = gfx.ClearColor | gfx.ClearDepth
			c.ClearColor = vmath.Vec4{W: 1}
		},
		Read: func(_ *ecs.World, _ ecs.Entity, c *Camera, cur *ecs.Cursor) {
			fields(cur, func(key string, args []string) bool {
				switch key {
				case "projection":
					if len(args) > 0 && args[0] == "ortho" {
						c.Projection = Orthographic
					} else {
						c.Projection = Perspective
					}
				case "fov":
					c.FovY = parseFloat(args, c.FovY*180/math.Pi) * math.Pi / 180
				case "ortho_size":
					c.OrthoSize = parseFloat(args, c.OrthoSize)
				case "near":
					c.Near = parseFloat(args, c.Near)
				case "far":
					c.Far = parseFloat(args, c.Far)
				case "clear":
					c.Clear = 0
					for _, a := range args {
						switch a {
						case "color":
							c.Clear |= gfx.ClearColor
						case "depth":
							c.Clear |= gfx.ClearDepth
						case "stencil":
							c.Clear |= gfx.ClearStencil
						}
					}
				case "clear_color":
					v := [4]float32{c.ClearColor.X, c.ClearColor.Y, c.ClearColor.Z, c.ClearColor.W}
					ecs.ParseFloats(args, v[:])
					c.ClearColor = vmath.Vec4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
				case "viewport":
					var v [4]float32
					ecs.ParseFloats(args, v[:])
					for i := range v {
						c.Viewport[i] = int32(v[i])
					}
				case "order":
					c.Order = int32(parseFloat(args, float32(c.Order)))
				default:
					return false
				}
				return true
			})
		},
	})
}
