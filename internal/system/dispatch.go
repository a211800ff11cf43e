package system

import (
	"time"

	"github.com/feacur/customengine/internal/core/event"
	coresys "github.com/feacur/customengine/internal/core/system"
)

// EventDispatchSystem delivers last frame's events at the start of the
// update phases.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
