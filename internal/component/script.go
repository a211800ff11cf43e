package component

import "github.com/feacur/customengine/internal/core/ecs"

// Script attaches a Lua script asset; ScriptSystem calls its update.
//
//	Script
//	name scripts/spin.lua
type Script struct {
	Asset    ecs.Ref
	Disabled bool
}

func registerScript(reg *ecs.Registry, assets Assets) *ecs.Component[Script] {
	return ecs.RegisterComponent(reg, "Script", ecs.Hooks[Script]{
		Init: func(s *Script) { s.Asset = ecs.Empty },
		Read: func(_ *ecs.World, _ ecs.Entity, s *Script, cur *ecs.Cursor) {
			fields(cur, func(key string, args []string) bool {
				switch key {
				case "name":
					s.Asset = resolve(assets.Scripts, args)
				case "disabled":
					s.Disabled = true
				default:
					return false
				}
				return true
			})
		},
	})
}
