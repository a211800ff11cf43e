package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/component"
	"github.com/feacur/customengine/internal/core/ecs"
	coresys "github.com/feacur/customengine/internal/core/system"
	"github.com/feacur/customengine/internal/scripting"
)

// ScriptSystem calls the update function of every attached script.
// Entities created by scripts run from the next frame on.
type ScriptSystem struct {
	world   *ecs.World
	scripts *ecs.Component[component.Script]
	lua     *scripting.Engine
	log     *zap.Logger
	batch   []scriptCall
}

type scriptCall struct {
	entity ecs.Entity
	asset  ecs.Ref
}

func NewScriptSystem(world *ecs.World, set *component.Set, lua *scripting.Engine, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{world: world, scripts: set.Script, lua: lua, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(dt time.Duration) {
	s.batch = s.batch[:0]
	ecs.Each1(s.world, s.scripts, func(e ecs.Entity, c *component.Script) {
		if !c.Disabled && !c.Asset.IsEmpty() {
			s.batch = append(s.batch, scriptCall{e, c.Asset})
		}
	})
	for _, call := range s.batch {
		if !s.world.Exists(call.entity) {
			continue
		}
		if err := s.lua.CallUpdate(call.asset, call.entity, dt); err != nil {
			s.log.Warn("script update failed", zap.Stringer("entity", call.entity), zap.Error(err))
		}
	}
}
