package component

import "github.com/feacur/customengine/internal/core/ecs"

// Visual draws a mesh with a shader and an optional texture. The refs point
// into the asset store, which owns the resources; copies share them.
//
//	Visual
//	shader shaders/sprite.kage
//	texture textures/crate.png
//	mesh meshes/quad.obj
type Visual struct {
	Shader  ecs.Ref
	Texture ecs.Ref
	Mesh    ecs.Ref
	Hidden  bool
}

func registerVisual(reg *ecs.Registry, assets Assets) *ecs.Component[Visual] {
	return ecs.RegisterComponent(reg, "Visual", ecs.Hooks[Visual]{
		Init: func(v *Visual) {
			v.Shader, v.Texture, v.Mesh = ecs.Empty, ecs.Empty, ecs.Empty
		},
		Read: func(_ *ecs.World, _ ecs.Entity, v *Visual, cur *ecs.Cursor) {
			fields(cur, func(key string, args []string) bool {
				switch key {
				case "shader":
					v.Shader = resolve(assets.Shaders, args)
				case "texture":
					v.Texture = resolve(assets.Textures, args)
				case "mesh":
					v.Mesh = resolve(assets.Meshes, args)
				case "hidden":
					v.Hidden = len(args) == 0 || args[0] != "false"
				default:
					return false
				}
				return true
			})
		},
	})
}
