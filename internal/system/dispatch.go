package system

import (
	"time"

	"github.com/mergeplay/mergeplay/internal/core/event"
	coresys "github.com/mergeplay/mergeplay/internal/core/system"
)

// EventDispatchSystem delivers last tick's events to subscribers.
// Phase 1 (PreUpdate).
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
