package system

import (
	"time"

	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// InputKind enumerates the commands a front-end can queue.
type InputKind int

const (
	InputPointerDown InputKind = iota
	InputPointerMove
	InputPointerUp
	InputOrderClick // Index = slot
	InputSpawnRandom
	InputSpawnIndex // Index = position in the spawnable list
	InputCancel
)

// InputEvent is one queued command. Pos is in world coordinates.
type InputEvent struct {
	Kind  InputKind
	Pos   world.Vec2
	Index int
}

// InputSystem drains the input queue filled by the front-end goroutine and
// applies each command on the game loop. Phase 0 (Input).
type InputSystem struct {
	queue      chan InputEvent
	maxPerTick int
	drag       *DragController
	orders     *OrderBook
	spawner    *Spawner
	log        *zap.Logger
}

func NewInputSystem(queueSize, maxPerTick int, drag *DragController, orders *OrderBook, spawner *Spawner, log *zap.Logger) *InputSystem {
	return &InputSystem{
		queue:      make(chan InputEvent, queueSize),
		maxPerTick: maxPerTick,
		drag:       drag,
		orders:     orders,
		spawner:    spawner,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Push queues ev without blocking. Returns false when the queue is full.
// Safe to call from any goroutine.
func (s *InputSystem) Push(ev InputEvent) bool {
	select {
	case s.queue <- ev:
		return true
	default:
		s.log.Warn("input queue full, event dropped", zap.Int("kind", int(ev.Kind)))
		return false
	}
}

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case ev := <-s.queue:
			s.handle(ev)
		default:
			return
		}
	}
}

func (s *InputSystem) handle(ev InputEvent) {
	switch ev.Kind {
	case InputPointerDown:
		s.drag.PointerDown(ev.Pos)
	case InputPointerMove:
		s.drag.PointerMove(ev.Pos)
	case InputPointerUp:
		s.drag.PointerUp(ev.Pos)
	case InputCancel:
		s.drag.Cancel()
	case InputOrderClick:
		s.orders.Fulfill(ev.Index)
	case InputSpawnRandom:
		s.spawner.SpawnRandom()
	case InputSpawnIndex:
		s.spawner.SpawnIndex(ev.Index)
	default:
		s.log.Debug("unknown input", zap.Int("kind", int(ev.Kind)))
	}
}
