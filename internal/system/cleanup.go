package system

import (
	"time"

	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/core/event"
	coresys "github.com/feacur/customengine/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end
// and reports each destroyed entity on the bus.
type CleanupSystem struct {
	world *ecs.World
	bus   *event.Bus
}

func NewCleanupSystem(world *ecs.World, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: world, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, e := range s.world.FlushDestroyQueue() {
		event.Emit(s.bus, event.EntityDestroyed{Entity: e})
	}
}
