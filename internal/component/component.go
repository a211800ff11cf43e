// Package component defines the engine's concrete component types and their
// text-format readers. Components are plain data; systems own behaviour.
package component

import (
	"strconv"

	"github.com/feacur/customengine/internal/core/ecs"
)

// Adder resolves a resource name to a live asset, loading it on first use.
type Adder interface {
	Add(resource string) ecs.Ref
}

// Assets are the asset types component readers resolve names through.
// A nil entry leaves the corresponding reference Empty.
type Assets struct {
	Shaders  Adder
	Textures Adder
	Meshes   Adder
	Scripts  Adder
}

// Set is the registered component list.
type Set struct {
	Transform *ecs.Component[Transform]
	Camera    *ecs.Component[Camera]
	Visual    *ecs.Component[Visual]
	Hierarchy *ecs.Component[Hierarchy]
	Script    *ecs.Component[Script]
}

// RegisterAll registers every engine component in a fixed order, so type
// ids are stable between runs.
func RegisterAll(reg *ecs.Registry, assets Assets) *Set {
	return &Set{
		Transform: registerTransform(reg),
		Camera:    registerCamera(reg),
		Visual:    registerVisual(reg, assets),
		Hierarchy: registerHierarchy(reg),
		Script:    registerScript(reg, assets),
	}
}

// fields consumes "key args..." lines until fn rejects a key.
func fields(cur *ecs.Cursor, fn func(key string, args []string) bool) {
	for {
		key, args, ok := cur.Field()
		if !ok || !fn(key, args) {
			return
		}
		cur.Advance()
	}
}

func resolve(a Adder, args []string) ecs.Ref {
	if a == nil || len(args) == 0 {
		return ecs.Empty
	}
	return a.Add(args[0])
}

func parseFloat(args []string, def float32) float32 {
	if len(args) == 0 {
		return def
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return def
	}
	return float32(v)
}
