package component

import (
	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/vmath"
)

// Transform places an entity relative to its parent.
//
//	Transform
//	position 0 1 0
//	rotation 0 0 0 1
//	scale 1 1 1
type Transform struct {
	Position vmath.Vec3
	Rotation vmath.Quat
	Scale    vmath.Vec3
}

func (t *Transform) Matrix() vmath.Mat4 {
	return vmath.TRS(t.Position, t.Rotation, t.Scale)
}

func registerTransform(reg *ecs.Registry) *ecs.Component[Transform] {
	return ecs.RegisterComponent(reg, "Transform", ecs.Hooks[Transform]{
		Init: func(t *Transform) {
			t.Rotation = vmath.QuatIdentity
			t.Scale = vmath.Vec3{X: 1, Y: 1, Z: 1}
		},
		Read: func(_ *ecs.World, _ ecs.Entity, t *Transform, cur *ecs.Cursor) {
			fields(cur, func(key string, args []string) bool {
				switch key {
				case "position":
					v := [3]float32{t.Position.X, t.Position.Y, t.Position.Z}
					ecs.ParseFloats(args, v[:])
					t.Position = vmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
				case "rotation":
					q := [4]float32{t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W}
					ecs.ParseFloats(args, q[:])
					t.Rotation = vmath.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}.Normalize()
				case "scale":
					v := [3]float32{t.Scale.X, t.Scale.Y, t.Scale.Z}
					ecs.ParseFloats(args, v[:])
					t.Scale = vmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
				default:
					return false
				}
				return true
			})
		},
	})
}
